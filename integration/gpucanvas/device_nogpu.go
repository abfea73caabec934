//go:build nogpu

package gpucanvas

import (
	"github.com/gogpu/gpucontext"

	"github.com/gogpu/glyphfield/compute"
	"github.com/gogpu/glyphfield/internal/software"
	"github.com/gogpu/glyphfield/render"
)

// NewRenderer returns the software renderer; this build has no GPU path.
func NewRenderer(provider gpucontext.DeviceProvider) (render.Renderer, error) {
	if provider == nil {
		return nil, ErrNilProvider
	}
	return software.New(), nil
}

// NewComputer returns the CPU layout backend; this build has no GPU path.
func NewComputer(provider gpucontext.DeviceProvider) (compute.Backend, error) {
	if provider == nil {
		return nil, ErrNilProvider
	}
	return compute.NewCPU(), nil
}
