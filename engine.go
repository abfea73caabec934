package glyphfield

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/glyphfield/camera"
	"github.com/gogpu/glyphfield/compute"
	"github.com/gogpu/glyphfield/config"
	"github.com/gogpu/glyphfield/glyph"
	"github.com/gogpu/glyphfield/internal/cache"
	"github.com/gogpu/glyphfield/internal/notify"
	"github.com/gogpu/glyphfield/internal/pick"
	"github.com/gogpu/glyphfield/internal/software"
	"github.com/gogpu/glyphfield/query"
	"github.com/gogpu/glyphfield/render"
)

// State is the lifecycle state of an engine.
type State int32

// Lifecycle states. StateTerminated is distinct from the [Terminated]
// event that announces it.
const (
	Uninitialized State = iota
	Ready
	StateTerminated
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Ready:
		return "ready"
	case StateTerminated:
		return "terminated"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Engine is the event loop that owns the dataset, the configuration, the
// camera, the selection and the renderer.
//
// Post, Subscribe, Snapshot and State are safe for concurrent use. All
// other state is touched only by the goroutine running Run.
type Engine struct {
	queue   chan Event
	done    chan struct{}
	running atomic.Bool
	state   atomic.Int32
	bus     *notify.Bus[Event]

	cfg       config.Config
	cam       *camera.Camera
	store     *glyph.Store
	renderer  render.Renderer
	computer  compute.Backend
	resolver  *pick.Resolver
	selection pick.Selection

	filter     *query.Query
	program    *query.Program
	filters    *cache.Cache[filterKey, filterResult]
	demoActive bool
	demoSaved  *query.Query

	visible   []glyph.Record
	instances render.Instances
	params    compute.Params

	width, height int
	axesVisible   bool
	mods          gpucontext.Modifiers
	drag          drag
	frames        uint64

	filterDirty bool
	layoutDirty bool
	redrawDirty bool
}

// New creates an engine in the Uninitialized state. Call Run to start it.
func New(opts ...Option) (*Engine, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.config.Validate(); err != nil {
		return nil, fmt.Errorf("glyphfield: %w", err)
	}
	if o.width <= 0 || o.height <= 0 {
		return nil, fmt.Errorf("glyphfield: invalid size %dx%d", o.width, o.height)
	}
	if o.queueSize < 1 {
		return nil, fmt.Errorf("glyphfield: invalid queue size %d", o.queueSize)
	}
	if o.cacheSize < 1 {
		return nil, fmt.Errorf("glyphfield: invalid filter cache size %d", o.cacheSize)
	}
	if o.store == nil {
		o.store = glyph.NewStore()
	}
	program, err := query.Compile(o.filter, o.store)
	if err != nil {
		return nil, fmt.Errorf("glyphfield: initial filter: %w", err)
	}
	if o.renderer == nil {
		o.renderer = software.New(software.WithSize(o.width, o.height))
	}
	if o.computer == nil {
		o.computer = compute.NewCPU()
	}
	camOpts := camera.DefaultOptions()
	if o.camera != nil {
		camOpts = *o.camera
	}
	camOpts.Aspect = float32(o.width) / float32(o.height)

	e := &Engine{
		queue:       make(chan Event, o.queueSize),
		done:        make(chan struct{}),
		bus:         notify.New[Event](),
		cfg:         o.config,
		cam:         camera.New(camOpts),
		store:       o.store,
		renderer:    o.renderer,
		computer:    o.computer,
		resolver:    pick.NewResolver(o.renderer),
		filter:      o.filter,
		program:     program,
		filters:     cache.New[filterKey, filterResult](o.cacheSize),
		width:       o.width,
		height:      o.height,
		axesVisible: true,
		filterDirty: true,
		layoutDirty: true,
		redrawDirty: true,
	}
	registerLogger(e.renderer)
	registerLogger(e.computer)
	return e, nil
}

// State returns the lifecycle state.
func (e *Engine) State() State { return State(e.state.Load()) }

// Done is closed when the engine terminates.
func (e *Engine) Done() <-chan struct{} { return e.done }

// Post enqueues an event. It blocks while the queue is full and fails
// with ErrClosed once the engine has terminated.
func (e *Engine) Post(ctx context.Context, ev Event) error {
	select {
	case <-e.done:
		return ErrClosed
	default:
	}
	select {
	case e.queue <- ev:
		return nil
	case <-e.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Subscribe returns a channel of outbound events buffered to buffer
// entries. Events for a full subscriber are dropped. The channel is
// closed after Terminated or when cancel is called.
func (e *Engine) Subscribe(buffer int) (events <-chan Event, cancel func()) {
	id, ch, err := e.bus.Subscribe(buffer)
	if err != nil {
		closed := make(chan Event)
		close(closed)
		return closed, func() {}
	}
	return ch, func() { _ = e.bus.Unsubscribe(id) }
}

// Run starts the engine and handles events until a Close event, ctx
// cancellation or a fatal error. It returns nil after Close, ctx.Err()
// after cancellation and an error wrapping ErrFatal otherwise.
func (e *Engine) Run(ctx context.Context) error {
	if !e.running.CompareAndSwap(false, true) {
		return ErrRunning
	}
	err := e.start(ctx)
	if err == nil {
		err = e.loop(ctx)
	}
	e.terminate(err)
	return err
}

func (e *Engine) start(ctx context.Context) error {
	if err := e.renderer.Resize(e.width, e.height); err != nil {
		return fmt.Errorf("%w: initial resize: %w", ErrFatal, err)
	}
	if err := e.flush(ctx); err != nil {
		return err
	}
	e.state.Store(int32(Ready))
	backend := "unknown"
	if cr, ok := e.renderer.(render.CapableRenderer); ok {
		backend = cr.Capabilities().Backend
	}
	Logger().Info("glyphfield: state ready",
		"backend", backend, "compute", e.computer.Name(), "glyphs", e.store.Len())
	e.bus.Publish(StateReady{Backend: backend, Width: e.width, Height: e.height, Glyphs: e.store.Len()})
	return nil
}

func (e *Engine) loop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-e.queue:
			stop, err := e.handle(ctx, ev)
			if err != nil || stop {
				return err
			}
			// Draw once the queue is drained so bursts of events cost one
			// frame.
			if len(e.queue) == 0 {
				if err := e.flush(ctx); err != nil {
					return err
				}
			}
		}
	}
}

func (e *Engine) terminate(err error) {
	e.state.Store(int32(StateTerminated))
	close(e.done)

	ev := Terminated{}
	switch {
	case err == nil:
		Logger().Info("glyphfield: terminated")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		Logger().Info("glyphfield: terminated", "reason", err)
	default:
		ev.Err = err.Error()
		Logger().Error("glyphfield: terminated", "err", err)
	}
	e.bus.Publish(ev)
	e.bus.Close()

	unregisterLogger(e.renderer)
	unregisterLogger(e.computer)
	e.renderer.Destroy()
	e.computer.Close()
}

// call runs fn on the event loop.
type call struct {
	fn   func()
	done chan struct{}
}

func (call) Name() string { return "call" }

// do runs fn on the event loop and waits for it.
func (e *Engine) do(ctx context.Context, fn func()) error {
	c := call{fn: fn, done: make(chan struct{})}
	if err := e.Post(ctx, c); err != nil {
		return err
	}
	select {
	case <-c.done:
		return nil
	case <-e.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Snapshot is a consistent copy of the engine state.
type Snapshot struct {
	State       State
	Config      config.Config
	Camera      camera.State
	Filter      *query.Query
	Glyphs      int
	Visible     int
	Selection   []SelectionView
	AxesVisible bool
	Frames      uint64
	Width       int
	Height      int
}

// Snapshot returns the engine state as seen between two events.
func (e *Engine) Snapshot(ctx context.Context) (Snapshot, error) {
	var s Snapshot
	err := e.do(ctx, func() {
		s = Snapshot{
			State:       e.State(),
			Config:      e.cfg,
			Camera:      e.cam.State(),
			Filter:      e.filter,
			Glyphs:      e.store.Len(),
			Visible:     len(e.visible),
			Selection:   viewsOf(e.store, e.selection.IDs()),
			AxesVisible: e.axesVisible,
			Frames:      e.frames,
			Width:       e.width,
			Height:      e.height,
		}
	})
	return s, err
}

// handle applies one event. stop is true for Close.
func (e *Engine) handle(ctx context.Context, ev Event) (stop bool, err error) {
	switch ev := ev.(type) {
	case call:
		ev.fn()
		close(ev.done)
	case Close:
		return true, nil
	case KeyEvent:
		e.mods = ev.Mods
		if ev.Pressed {
			e.handleKey(ev.Key, ev.Mods)
		}
	case MouseMove:
		e.mouseMove(ev.X, ev.Y)
	case MouseButton:
		return false, e.mouseButton(ctx, ev)
	case Scroll:
		e.scroll(ev.DY)
	case Resize:
		return false, e.resize(ev.Width, ev.Height)
	case ReplaceConfig:
		e.replaceConfig(ev.Config)
	case Redraw:
		e.redrawDirty = true
	case StateReady:
		Logger().Debug("glyphfield: ignoring inbound StateReady")
	case ToggleAxisLines:
		e.toggleAxes()
	case ModelMove:
		e.moveModel(ev.Direction)
	case SelectGlyph:
		return false, e.selectAt(ctx, ev.X, ev.Y, ev.Multi)
	case SelectGlyphs:
		e.selectIDs(ev.IDs)
	case UpdateModelFilter:
		e.updateFilter(ev)
	case GlyphsUpdated:
		e.replaceGlyphs(ev.Dataset)
	default:
		Logger().Debug("glyphfield: ignoring event", "event", ev.Name())
	}
	return false, nil
}

func (e *Engine) resize(w, h int) error {
	if w <= 0 || h <= 0 {
		Logger().Debug("glyphfield: ignoring resize", "width", w, "height", h)
		return nil
	}
	if err := e.renderer.Resize(w, h); err != nil {
		if render.Fatal(err) {
			return fmt.Errorf("%w: resize: %w", ErrFatal, err)
		}
		Logger().Warn("glyphfield: resize failed", "width", w, "height", h, "err", err)
		return nil
	}
	e.width, e.height = w, h
	e.cam.SetAspect(float32(w) / float32(h))
	e.redrawDirty = true
	return nil
}

func (e *Engine) replaceConfig(c config.Config) {
	if err := c.Validate(); err != nil {
		Logger().Warn("glyphfield: config rejected", "err", err)
		e.bus.Publish(ConfigRejected{Reason: err.Error()})
		return
	}
	e.cfg = c
	e.configChanged()
}

// configChanged schedules the work a configuration mutation needs.
func (e *Engine) configChanged() {
	if compute.ParamsFrom(&e.cfg) != e.params {
		e.layoutDirty = true
	}
	e.redrawDirty = true
}

func (e *Engine) toggleAxes() {
	e.axesVisible = !e.axesVisible
	e.redrawDirty = true
	e.bus.Publish(ToggleAxisLines{Visible: e.axesVisible})
}

// ModelStep is the distance ModelMove moves the model origin.
const ModelStep = 0.5

func (e *Engine) moveModel(d Direction) {
	o := &e.cfg.ModelOrigin
	switch d {
	case MoveLeft:
		o[0] -= ModelStep
	case MoveRight:
		o[0] += ModelStep
	case MoveUp:
		o[1] += ModelStep
	case MoveDown:
		o[1] -= ModelStep
	case MoveForward:
		o[2] -= ModelStep
	case MoveBackward:
		o[2] += ModelStep
	default:
		Logger().Debug("glyphfield: ignoring model move", "direction", d)
		return
	}
	e.redrawDirty = true
	e.bus.Publish(ModelMove{Direction: d, Origin: *o})
}

// selectAt runs a hit test against the current frame.
func (e *Engine) selectAt(ctx context.Context, x, y int, multi bool) error {
	// The pick target must show the current state.
	if err := e.flush(ctx); err != nil {
		return err
	}
	id, hit, err := e.resolver.At(ctx, x, y, e.width, e.height)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if render.Fatal(err) {
			return fmt.Errorf("%w: hit test: %w", ErrFatal, err)
		}
		Logger().Warn("glyphfield: hit test failed", "x", x, "y", y, "err", err)
		return nil
	}
	if e.selection.Apply(id, hit, multi) {
		e.selectionChanged()
	}
	e.publishSelection()
	return nil
}

func (e *Engine) selectIDs(ids []uint32) {
	known := make([]uint32, 0, len(ids))
	for _, id := range ids {
		if _, ok := e.store.Lookup(id); ok {
			known = append(known, id)
		}
	}
	e.selection.Set(known)
	e.selectionChanged()
	e.publishSelection()
}

// selectionChanged updates the selected flags of the laid out instances.
func (e *Engine) selectionChanged() {
	e.instances.MarkSelected(e.selection.Contains)
	e.redrawDirty = true
}

func (e *Engine) publishSelection() {
	e.bus.Publish(SelectedGlyphs{Views: viewsOf(e.store, e.selection.IDs())})
}

func (e *Engine) updateFilter(ev UpdateModelFilter) {
	q := ev.Query
	if q == nil {
		var err error
		if q, err = query.Parse(ev.JSON); err != nil {
			e.rejectFilter(err)
			return
		}
	}
	if err := e.applyFilter(q); err != nil {
		e.rejectFilter(err)
		return
	}
	e.demoActive = false
}

func (e *Engine) rejectFilter(err error) {
	Logger().Warn("glyphfield: filter rejected", "err", err)
	e.bus.Publish(Rejection(err))
}

// filterKey identifies a filter result: the query wire form evaluated
// against one dataset generation.
type filterKey struct {
	generation uint64
	query      string
}

type filterResult struct {
	program *query.Program
	visible []glyph.Record
}

// filterKey returns the cache key for q. ok is false when q has no wire
// form, and such a filter is never cached.
func (e *Engine) filterKey(q *query.Query) (k filterKey, ok bool) {
	k.generation = e.store.Generation()
	if q == nil {
		return k, true
	}
	b, err := q.MarshalJSON()
	if err != nil {
		return k, false
	}
	k.query = string(b)
	return k, true
}

func (e *Engine) compileFilter(q *query.Query) (filterResult, error) {
	program, err := query.Compile(q, e.store)
	if err != nil {
		return filterResult{}, err
	}
	return filterResult{program: program, visible: program.Filter(e.store.Records())}, nil
}

// applyFilter compiles and installs q, then reports the visible count.
func (e *Engine) applyFilter(q *query.Query) error {
	if q != nil {
		if err := q.Validate(); err != nil {
			return err
		}
	}
	var r filterResult
	var err error
	if key, ok := e.filterKey(q); ok {
		r, err = e.filters.GetOrCreate(key, func() (filterResult, error) { return e.compileFilter(q) })
	} else {
		r, err = e.compileFilter(q)
	}
	if err != nil {
		return err
	}
	e.filter = q
	e.install(r)
	e.bus.Publish(UpdateModelFilter{Query: q, Visible: len(e.visible)})
	return nil
}

// refilter recomputes the visible records of the current program.
func (e *Engine) refilter() {
	key, cacheable := e.filterKey(e.filter)
	r, ok := filterResult{}, false
	if cacheable {
		r, ok = e.filters.Get(key)
	}
	if !ok {
		r = filterResult{program: e.program, visible: e.program.Filter(e.store.Records())}
		if cacheable {
			e.filters.Set(key, r)
		}
	}
	e.install(r)
}

func (e *Engine) install(r filterResult) {
	e.program, e.visible = r.program, r.visible
	e.filterDirty = false
	e.layoutDirty = true
	e.redrawDirty = true
	if Logger().Enabled(context.Background(), slog.LevelDebug) {
		st := e.filters.Stats()
		Logger().Debug("glyphfield: filter", "visible", len(e.visible),
			"cache_hits", st.Hits, "cache_misses", st.Misses, "cache_len", st.Len)
	}
}

func (e *Engine) replaceGlyphs(ds glyph.Dataset) {
	if err := e.store.Replace(ds); err != nil {
		Logger().Warn("glyphfield: dataset rejected", "err", err)
		return
	}
	program, err := query.Compile(e.filter, e.store)
	if err != nil {
		Logger().Warn("glyphfield: filter dropped for new dataset", "err", err)
		e.filter = nil
		program, _ = query.Compile(nil, e.store)
	}
	e.program = program
	e.filters.Purge()

	kept := make([]uint32, 0, e.selection.Len())
	for _, id := range e.selection.IDs() {
		if _, ok := e.store.Lookup(id); ok {
			kept = append(kept, id)
		}
	}
	if len(kept) != e.selection.Len() {
		e.selection.Set(kept)
		e.publishSelection()
	}

	e.filterDirty = true
	e.layoutDirty = true
	e.redrawDirty = true
	Logger().Info("glyphfield: glyphs updated", "count", e.store.Len())
	e.bus.Publish(GlyphsUpdated{Count: e.store.Len()})
}

// flush lays out and draws if anything changed since the last frame.
func (e *Engine) flush(ctx context.Context) error {
	if e.filterDirty {
		e.refilter()
	}
	if e.layoutDirty {
		if err := e.layout(ctx); err != nil {
			return err
		}
		if e.layoutDirty {
			// Keep the last frame; the next flush retries.
			return nil
		}
	}
	if !e.redrawDirty {
		return nil
	}
	e.redrawDirty = false
	return e.draw(ctx)
}

// layout packs the visible records. Only fatal device errors are
// returned; other failures leave layoutDirty set.
func (e *Engine) layout(ctx context.Context) error {
	params := compute.ParamsFrom(&e.cfg)
	in := compute.NewInput(e.store, e.visible, params, e.selection.Contains)
	inst, err := e.computer.Layout(ctx, &in)
	switch {
	case err == nil:
	case ctx.Err() != nil:
		return ctx.Err()
	case render.Fatal(err):
		return fmt.Errorf("%w: layout on %s: %w", ErrFatal, e.computer.Name(), err)
	default:
		Logger().Warn("glyphfield: layout failed, frame skipped", "compute", e.computer.Name(), "err", err)
		return nil
	}
	e.instances = inst
	e.params = params
	e.layoutDirty = false
	e.redrawDirty = true
	Logger().Debug("glyphfield: layout", "visible", len(e.visible), "bytes", len(inst))
	return nil
}

// draw renders one frame. A lost surface is reconfigured and the frame
// retried once; other non-fatal errors skip the frame.
func (e *Engine) draw(ctx context.Context) error {
	f := e.frame()
	err := e.renderer.Render(ctx, f)
	if errors.Is(err, render.ErrSurfaceLost) {
		Logger().Warn("glyphfield: surface lost, reconfiguring", "width", e.width, "height", e.height)
		if rerr := e.renderer.Resize(e.width, e.height); rerr != nil {
			err = rerr
		} else {
			err = e.renderer.Render(ctx, f)
		}
	}
	switch {
	case err == nil:
	case ctx.Err() != nil:
		return ctx.Err()
	case render.Fatal(err):
		return fmt.Errorf("%w: render: %w", ErrFatal, err)
	default:
		Logger().Warn("glyphfield: frame skipped", "err", err)
		return nil
	}
	e.frames++
	e.bus.Publish(Redraw{Frame: e.frames})
	return nil
}
