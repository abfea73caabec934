package gpucanvas

import (
	"github.com/gogpu/gpucontext"

	"github.com/gogpu/glyphfield"
)

// EngineOptions returns the engine options that render and lay out on
// the provider's device.
func EngineOptions(provider gpucontext.DeviceProvider) ([]glyphfield.Option, error) {
	r, err := NewRenderer(provider)
	if err != nil {
		return nil, err
	}
	c, err := NewComputer(provider)
	if err != nil {
		r.Destroy()
		return nil, err
	}
	return []glyphfield.Option{glyphfield.WithRenderer(r), glyphfield.WithComputer(c)}, nil
}
