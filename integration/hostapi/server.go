package hostapi

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/gogpu/glyphfield"
)

// Engine is the part of *glyphfield.Engine the server drives.
type Engine interface {
	Post(ctx context.Context, ev glyphfield.Event) error
	Subscribe(buffer int) (events <-chan glyphfield.Event, cancel func())
	Snapshot(ctx context.Context) (glyphfield.Snapshot, error)
}

var _ Engine = (*glyphfield.Engine)(nil)

const (
	// DefaultStreamBuffer is the per-client event buffer.
	DefaultStreamBuffer = 256

	// BodyLimit caps request bodies.
	BodyLimit = "1M"

	writeTimeout = 5 * time.Second
)

// Option configures a Server.
type Option func(*Server)

// WithStreamBuffer sets how many outbound events a WebSocket client may
// fall behind before events are dropped for it.
func WithStreamBuffer(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.buffer = n
		}
	}
}

// WithCheckOrigin sets the WebSocket origin check. The default accepts
// same-origin requests and requests without an Origin header.
func WithCheckOrigin(fn func(r *http.Request) bool) Option {
	return func(s *Server) {
		s.upgrader.CheckOrigin = fn
	}
}

// Server serves the control API and the event stream of one engine.
type Server struct {
	engine   Engine
	echo     *echo.Echo
	upgrader websocket.Upgrader
	buffer   int

	mu      sync.Mutex
	clients map[uuid.UUID]*websocket.Conn
}

// New returns a server for engine. It does not listen until Start.
func New(engine Engine, opts ...Option) *Server {
	s := &Server{
		engine:  engine,
		buffer:  DefaultStreamBuffer,
		clients: make(map[uuid.UUID]*websocket.Conn),
	}
	for _, opt := range opts {
		opt(s)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.JSONSerializer = jsonSerializer{}
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit(BodyLimit))
	e.Use(requestLogger())
	s.RegisterRoutes(e)
	s.echo = e
	return s
}

// Handler returns the HTTP handler, for embedding or httptest.
func (s *Server) Handler() http.Handler { return s.echo }

// Start listens on addr. It returns nil after Shutdown.
func (s *Server) Start(addr string) error {
	glyphfield.Logger().Info("hostapi: listening", "addr", addr)
	err := s.echo.Start(addr)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown closes every event stream and stops the HTTP server.
// WebSocket connections are hijacked and not covered by the HTTP
// server's own shutdown.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	for id, conn := range s.clients {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutdown"),
			time.Now().Add(writeTimeout))
		_ = conn.Close()
		delete(s.clients, id)
	}
	s.mu.Unlock()
	return s.echo.Shutdown(ctx)
}

// Clients returns the number of connected event stream clients.
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *Server) track(id uuid.UUID, conn *websocket.Conn) {
	s.mu.Lock()
	s.clients[id] = conn
	s.mu.Unlock()
}

func (s *Server) untrack(id uuid.UUID) {
	s.mu.Lock()
	delete(s.clients, id)
	s.mu.Unlock()
}

func requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				glyphfield.Logger().Warn("hostapi: request failed",
					"method", v.Method, "uri", v.URI, "status", v.Status, "err", v.Error)
				return nil
			}
			glyphfield.Logger().Debug("hostapi: request",
				"method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency)
			return nil
		},
	})
}
