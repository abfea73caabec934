//go:build !nogpu

package gpucanvas

import (
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/glyphfield"
	"github.com/gogpu/glyphfield/compute"
	"github.com/gogpu/glyphfield/internal/gpu"
	"github.com/gogpu/glyphfield/internal/software"
	"github.com/gogpu/glyphfield/render"
)

// surfaceProvider is implemented by hosts that let the renderer present
// directly to the window surface.
type surfaceProvider interface {
	HalSurface() any
}

// NewRenderer returns a GPU renderer on the provider's device, or the
// software renderer when the device cannot be used.
func NewRenderer(provider gpucontext.DeviceProvider) (render.Renderer, error) {
	if provider == nil {
		return nil, ErrNilProvider
	}
	var opts []gpu.Option
	format := provider.SurfaceFormat()
	if sp, ok := provider.(surfaceProvider); ok {
		if s, ok := sp.HalSurface().(hal.Surface); ok && s != nil && format != gputypes.TextureFormatUndefined {
			opts = append(opts, gpu.WithSurface(s, format))
		}
	} else if format != gputypes.TextureFormatUndefined {
		opts = append(opts, gpu.WithColorFormat(format))
	}
	r, err := gpu.NewFromProvider(provider, opts...)
	if err != nil {
		glyphfield.Logger().Warn("gpucanvas: GPU renderer unavailable, using software", "err", err)
		return software.New(), nil
	}
	return r, nil
}

// NewComputer returns the GPU layout backend wrapped in a CPU fallback,
// or the CPU backend when the device cannot be used.
func NewComputer(provider gpucontext.DeviceProvider) (compute.Backend, error) {
	if provider == nil {
		return nil, ErrNilProvider
	}
	g, err := compute.NewGPUFromProvider(provider)
	if err != nil {
		glyphfield.Logger().Warn("gpucanvas: GPU layout unavailable, using CPU", "err", err)
		return compute.NewCPU(), nil
	}
	return compute.NewFallback(g), nil
}
