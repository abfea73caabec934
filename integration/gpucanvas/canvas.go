package gpucanvas

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/glyphfield"
)

// Common errors returned by Canvas operations.
var (
	// ErrNilEngine is returned when a nil engine is passed.
	ErrNilEngine = errors.New("gpucanvas: nil engine")

	// ErrNilSource is returned when a nil EventSource is passed.
	ErrNilSource = errors.New("gpucanvas: nil EventSource")

	// ErrNilProvider is returned when a nil DeviceProvider is passed.
	ErrNilProvider = errors.New("gpucanvas: nil DeviceProvider")
)

// Poster receives inbound events. *glyphfield.Engine implements it.
type Poster interface {
	Post(ctx context.Context, ev glyphfield.Event) error
}

// Canvas forwards window input to an engine.
type Canvas struct {
	engine Poster

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	mods   gpucontext.Modifiers
	closed bool

	sent    atomic.Uint64
	dropped atomic.Uint64
}

// Attach registers input callbacks on src that post to engine. A callback
// blocks while the engine queue is full, until the event is queued or the
// canvas is closed. An EventSource cannot forget callbacks, so after Close
// they do nothing.
func Attach(src gpucontext.EventSource, engine Poster) (*Canvas, error) {
	if src == nil {
		return nil, ErrNilSource
	}
	if engine == nil {
		return nil, ErrNilEngine
	}
	c := &Canvas{engine: engine}
	c.ctx, c.cancel = context.WithCancel(context.Background())

	src.OnKeyPress(func(k gpucontext.Key, mods gpucontext.Modifiers) {
		c.setMods(mods)
		c.post(glyphfield.KeyEvent{Key: k, Mods: mods, Pressed: true})
	})
	src.OnKeyRelease(func(k gpucontext.Key, mods gpucontext.Modifiers) {
		c.setMods(mods)
		c.post(glyphfield.KeyEvent{Key: k, Mods: mods})
	})
	src.OnMouseMove(func(x, y float64) {
		c.post(glyphfield.MouseMove{X: x, Y: y})
	})
	src.OnMousePress(func(b gpucontext.MouseButton, x, y float64) {
		c.post(glyphfield.MouseButton{Button: b, X: x, Y: y, Pressed: true, Mods: c.currentMods()})
	})
	src.OnMouseRelease(func(b gpucontext.MouseButton, x, y float64) {
		c.post(glyphfield.MouseButton{Button: b, X: x, Y: y, Mods: c.currentMods()})
	})
	src.OnScroll(func(dx, dy float64) {
		c.post(glyphfield.Scroll{DX: dx, DY: dy})
	})
	src.OnResize(func(w, h int) {
		c.post(glyphfield.Resize{Width: w, Height: h})
	})
	src.OnFocus(func(focused bool) {
		if focused {
			return
		}
		// Releases are lost while unfocused; forget held modifiers.
		c.setMods(0)
		c.post(glyphfield.KeyEvent{Key: gpucontext.KeyUnknown})
	})
	return c, nil
}

func (c *Canvas) setMods(m gpucontext.Modifiers) {
	c.mu.Lock()
	c.mods = m
	c.mu.Unlock()
}

func (c *Canvas) currentMods() gpucontext.Modifiers {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mods
}

func (c *Canvas) post(ev glyphfield.Event) {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return
	}
	if err := c.engine.Post(c.ctx, ev); err != nil {
		c.dropped.Add(1)
		glyphfield.Logger().Debug("gpucanvas: input dropped", "event", ev.Name(), "err", err)
		return
	}
	c.sent.Add(1)
}

// Stats returns how many input events were posted and dropped. Events are
// dropped only after Close or once the engine has terminated.
func (c *Canvas) Stats() (sent, dropped uint64) {
	return c.sent.Load(), c.dropped.Load()
}

// Close detaches the canvas. Callbacks blocked on a full queue return
// immediately and their events are dropped.
// Close is idempotent.
func (c *Canvas) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.cancel()
	return nil
}
