package gpucanvas

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/glyphfield"
	"github.com/gogpu/glyphfield/render"
)

// source records the callbacks a Canvas registers.
type source struct {
	gpucontext.NullEventSource
	keyPress     func(gpucontext.Key, gpucontext.Modifiers)
	keyRelease   func(gpucontext.Key, gpucontext.Modifiers)
	mouseMove    func(float64, float64)
	mousePress   func(gpucontext.MouseButton, float64, float64)
	mouseRelease func(gpucontext.MouseButton, float64, float64)
	scroll       func(float64, float64)
	resize       func(int, int)
	focus        func(bool)
}

func (s *source) OnKeyPress(fn func(gpucontext.Key, gpucontext.Modifiers))   { s.keyPress = fn }
func (s *source) OnKeyRelease(fn func(gpucontext.Key, gpucontext.Modifiers)) { s.keyRelease = fn }
func (s *source) OnMouseMove(fn func(float64, float64))                      { s.mouseMove = fn }
func (s *source) OnMousePress(fn func(gpucontext.MouseButton, float64, float64)) {
	s.mousePress = fn
}
func (s *source) OnMouseRelease(fn func(gpucontext.MouseButton, float64, float64)) {
	s.mouseRelease = fn
}
func (s *source) OnScroll(fn func(float64, float64)) { s.scroll = fn }
func (s *source) OnResize(fn func(int, int))         { s.resize = fn }
func (s *source) OnFocus(fn func(bool))              { s.focus = fn }

// recorder collects posted events.
type recorder struct {
	mu     sync.Mutex
	events []glyphfield.Event
	err    error
}

func (r *recorder) Post(ctx context.Context, ev glyphfield.Event) error {
	if r.err != nil {
		return r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

// blocking never accepts an event.
type blocking struct{}

func (blocking) Post(ctx context.Context, _ glyphfield.Event) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestAttachErrors(t *testing.T) {
	if _, err := Attach(nil, &recorder{}); !errors.Is(err, ErrNilSource) {
		t.Errorf("nil source: %v", err)
	}
	if _, err := Attach(&source{}, nil); !errors.Is(err, ErrNilEngine) {
		t.Errorf("nil engine: %v", err)
	}
}

func TestCallbacksPostEvents(t *testing.T) {
	src := &source{}
	rec := &recorder{}
	c, err := Attach(src, rec)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	src.keyPress(gpucontext.KeyR, gpucontext.ModShift)
	src.mousePress(gpucontext.MouseButtonLeft, 10, 20)
	src.mouseMove(11, 21)
	src.mouseRelease(gpucontext.MouseButtonLeft, 11, 21)
	src.keyRelease(gpucontext.KeyR, 0)
	src.scroll(0, -1)
	src.resize(640, 480)
	src.focus(true)
	src.focus(false)

	want := []glyphfield.Event{
		glyphfield.KeyEvent{Key: gpucontext.KeyR, Mods: gpucontext.ModShift, Pressed: true},
		glyphfield.MouseButton{Button: gpucontext.MouseButtonLeft, X: 10, Y: 20, Pressed: true, Mods: gpucontext.ModShift},
		glyphfield.MouseMove{X: 11, Y: 21},
		glyphfield.MouseButton{Button: gpucontext.MouseButtonLeft, X: 11, Y: 21, Mods: gpucontext.ModShift},
		glyphfield.KeyEvent{Key: gpucontext.KeyR},
		glyphfield.Scroll{DY: -1},
		glyphfield.Resize{Width: 640, Height: 480},
		glyphfield.KeyEvent{Key: gpucontext.KeyUnknown},
	}
	if len(rec.events) != len(want) {
		t.Fatalf("posted %d events, want %d: %v", len(rec.events), len(want), rec.events)
	}
	for i := range want {
		if rec.events[i] != want[i] {
			t.Errorf("event %d = %#v, want %#v", i, rec.events[i], want[i])
		}
	}
	if sent, dropped := c.Stats(); sent != uint64(len(want)) || dropped != 0 {
		t.Errorf("Stats = %d, %d", sent, dropped)
	}
}

func TestCloseStopsForwarding(t *testing.T) {
	src := &source{}
	rec := &recorder{}
	c, err := Attach(src, rec)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	src.keyPress(gpucontext.KeyA, 0)
	if len(rec.events) != 0 {
		t.Errorf("posted after Close: %v", rec.events)
	}
}

// queue is a Poster with a bounded queue, like the engine's.
type queue chan glyphfield.Event

func (q queue) Post(ctx context.Context, ev glyphfield.Event) error {
	select {
	case q <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func TestFullQueueBlocksWithoutLoss(t *testing.T) {
	src := &source{}
	q := make(queue, 1)
	c, err := Attach(src, q)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	const n = 50
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := range n {
			src.mouseMove(float64(i), 0)
		}
		src.keyRelease(gpucontext.KeyR, 0)
	}()

	for i := range n {
		// Drain slowly so that most callbacks find the queue full.
		time.Sleep(time.Millisecond)
		select {
		case ev := <-q:
			if ev != (glyphfield.MouseMove{X: float64(i)}) {
				t.Fatalf("event %d = %#v", i, ev)
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("event %d never arrived", i)
		}
	}
	select {
	case ev := <-q:
		if ev != (glyphfield.KeyEvent{Key: gpucontext.KeyR}) {
			t.Errorf("last event = %#v", ev)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("key release lost")
	}
	<-done
	if sent, dropped := c.Stats(); sent != n+1 || dropped != 0 {
		t.Errorf("Stats = %d, %d", sent, dropped)
	}
}

func TestCloseUnblocksCallback(t *testing.T) {
	src := &source{}
	c, err := Attach(src, blocking{})
	if err != nil {
		t.Fatal(err)
	}

	returned := make(chan struct{})
	go func() {
		src.mouseMove(1, 1)
		close(returned)
	}()
	select {
	case <-returned:
		t.Fatal("callback returned while the queue was full")
	case <-time.After(20 * time.Millisecond):
	}

	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
	select {
	case <-returned:
	case <-time.After(5 * time.Second):
		t.Fatal("Close did not unblock the callback")
	}
	if _, dropped := c.Stats(); dropped != 1 {
		t.Errorf("dropped = %d, want 1", dropped)
	}
}

func TestClosedEngineDrops(t *testing.T) {
	src := &source{}
	c, err := Attach(src, &recorder{err: glyphfield.ErrClosed})
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	src.resize(1, 1)
	if _, dropped := c.Stats(); dropped != 1 {
		t.Errorf("dropped = %d, want 1", dropped)
	}
}

func TestEngineOptionsWithoutHAL(t *testing.T) {
	if _, err := EngineOptions(nil); !errors.Is(err, ErrNilProvider) {
		t.Errorf("nil provider: %v", err)
	}

	r, err := NewRenderer(render.NullDeviceHandle{})
	if err != nil {
		t.Fatal(err)
	}
	defer r.Destroy()
	cr, ok := r.(render.CapableRenderer)
	if !ok || cr.Capabilities().Backend != "software" {
		t.Errorf("renderer without HAL = %T", r)
	}

	c, err := NewComputer(render.NullDeviceHandle{})
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	if c.Name() != "cpu" {
		t.Errorf("computer without HAL = %s", c.Name())
	}

	opts, err := EngineOptions(render.NullDeviceHandle{})
	if err != nil {
		t.Fatal(err)
	}
	e, err := glyphfield.New(opts...)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := e.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		t.Errorf("Run = %v", err)
	}
}
