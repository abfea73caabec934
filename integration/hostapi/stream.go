package hostapi

import (
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/gogpu/glyphfield"
)

// streamEvents upgrades to a WebSocket and forwards outbound engine
// events until the client leaves or the engine terminates.
func (s *Server) streamEvents(c echo.Context) error {
	// Subscribe before the handshake completes so the client sees every
	// event posted after its dial returns.
	events, cancel := s.engine.Subscribe(s.buffer)
	defer cancel()

	conn, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// The upgrader has already answered the request.
		glyphfield.Logger().Debug("hostapi: upgrade failed", "err", err)
		return nil
	}
	defer conn.Close()

	id := uuid.New()
	s.track(id, conn)
	defer s.untrack(id)
	log := glyphfield.Logger().With("client", id.String())
	log.Info("hostapi: event stream connected", "remote", c.RealIP())

	// Incoming frames are ignored; reading detects the close.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "engine terminated"),
					time.Now().Add(writeTimeout))
				log.Info("hostapi: event stream closed", "reason", "engine terminated")
				return nil
			}
			msg, err := glyphfield.MarshalEvent(ev)
			if err != nil {
				log.Warn("hostapi: dropping event", "event", ev.Name(), "err", err)
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.Info("hostapi: event stream closed", "reason", err)
				return nil
			}
		case <-gone:
			log.Info("hostapi: event stream closed", "reason", "client left")
			return nil
		}
	}
}
