package glyphfield

import (
	"github.com/gogpu/glyphfield/camera"
	"github.com/gogpu/glyphfield/compute"
	"github.com/gogpu/glyphfield/config"
	"github.com/gogpu/glyphfield/glyph"
	"github.com/gogpu/glyphfield/query"
	"github.com/gogpu/glyphfield/render"
)

// Default engine parameters.
const (
	DefaultWidth     = 800
	DefaultHeight    = 600
	DefaultQueueSize = 64

	// DefaultFilterCacheSize is how many filter results are kept per engine.
	DefaultFilterCacheSize = 16
)

// Option configures an Engine during creation.
// Use functional options to customize Engine behavior.
//
// Example:
//
//	// Default software rendering of an empty field
//	e, err := glyphfield.New()
//
//	// GPU renderer and a dataset (dependency injection)
//	e, err := glyphfield.New(
//	    glyphfield.WithRenderer(gpuRenderer),
//	    glyphfield.WithStore(store),
//	)
type Option func(*options)

// options holds optional configuration for Engine creation.
type options struct {
	config    config.Config
	renderer  render.Renderer
	computer  compute.Backend
	queueSize int
	cacheSize int
	width     int
	height    int
	camera    *camera.Options
	store     *glyph.Store
	filter    *query.Query
}

// defaultOptions returns the default engine options.
func defaultOptions() options {
	return options{
		config:    config.Default(),
		queueSize: DefaultQueueSize,
		cacheSize: DefaultFilterCacheSize,
		width:     DefaultWidth,
		height:    DefaultHeight,
	}
}

// WithConfig sets the startup configuration snapshot.
func WithConfig(c config.Config) Option {
	return func(o *options) {
		o.config = c
	}
}

// WithRenderer sets the renderer. The engine owns it from then on and
// destroys it on termination. Without this option the engine renders on
// the CPU.
func WithRenderer(r render.Renderer) Option {
	return func(o *options) {
		o.renderer = r
	}
}

// WithComputer sets the layout backend, typically a GPU backend wrapped
// in a CPU fallback. The engine closes it on termination.
func WithComputer(c compute.Backend) Option {
	return func(o *options) {
		o.computer = c
	}
}

// WithQueueSize sets the capacity of the inbound event queue.
func WithQueueSize(n int) Option {
	return func(o *options) {
		o.queueSize = n
	}
}

// WithSize sets the initial target size in physical pixels.
func WithSize(width, height int) Option {
	return func(o *options) {
		o.width, o.height = width, height
	}
}

// WithCamera sets the camera constructor options. Reset returns to them.
func WithCamera(opts camera.Options) Option {
	return func(o *options) {
		o.camera = &opts
	}
}

// WithStore sets the initial dataset.
func WithStore(s *glyph.Store) Option {
	return func(o *options) {
		o.store = s
	}
}

// WithFilter sets the initial filter.
func WithFilter(q *query.Query) Option {
	return func(o *options) {
		o.filter = q
	}
}

// WithFilterCache sets how many compiled filters and their visible sets
// are remembered for the current dataset. One disables reuse of anything
// but the active filter.
func WithFilterCache(n int) Option {
	return func(o *options) {
		o.cacheSize = n
	}
}
