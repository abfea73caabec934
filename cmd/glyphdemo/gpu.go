//go:build !nogpu

package main

import (
	"github.com/gogpu/gputypes"
	_ "github.com/gogpu/wgpu/hal/vulkan"

	"github.com/gogpu/glyphfield/internal/gpu"
	"github.com/gogpu/glyphfield/render"
)

// openGPU opens a Vulkan device and builds an offscreen renderer on it.
func openGPU() (render.Renderer, error) {
	return gpu.Open(gputypes.BackendVulkan)
}
