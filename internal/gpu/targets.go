//go:build !nogpu

package gpu

import (
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/glyphfield/internal/native"
)

const (
	depthFormat = gputypes.TextureFormatDepth32Float
	pickFormat  = gputypes.TextureFormatR32Uint

	// copyPitchAlignment is the required BytesPerRow alignment of
	// texture-to-buffer copies.
	copyPitchAlignment = 256
)

// targetSet holds the size-dependent render targets.
//
//   - color: offscreen only, colorFormat, RenderAttachment | CopySrc
//   - depth: Depth32Float, RenderAttachment
//   - pick:  R32Uint, RenderAttachment | CopySrc
//
// With a surface the acquired surface texture replaces the color target.
type targetSet struct {
	colorTex  hal.Texture
	colorView hal.TextureView
	depthTex  hal.Texture
	depthView hal.TextureView
	pickTex   hal.Texture
	pickView  hal.TextureView
	width     uint32
	height    uint32
}

// ensure creates or recreates the targets when the size changes. If the
// size matches and the targets exist this is a no-op.
func (ts *targetSet) ensure(device hal.Device, w, h uint32, colorFormat gputypes.TextureFormat, offscreen bool) error {
	if ts.width == w && ts.height == h && ts.depthTex != nil {
		return nil
	}
	ts.destroy(device)

	size := hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1}
	create := func(label string, format gputypes.TextureFormat, usage gputypes.TextureUsage) (hal.Texture, hal.TextureView, error) {
		tex, err := device.CreateTexture(&hal.TextureDescriptor{
			Label:         label,
			Size:          size,
			MipLevelCount: 1,
			SampleCount:   1,
			Dimension:     gputypes.TextureDimension2D,
			Format:        format,
			Usage:         usage,
		})
		if err != nil {
			return nil, nil, native.ResourceError("texture", label, "create", err)
		}
		view, err := device.CreateTextureView(tex, &hal.TextureViewDescriptor{
			Label:         label + "_view",
			Format:        format,
			Dimension:     gputypes.TextureViewDimension2D,
			Aspect:        gputypes.TextureAspectAll,
			MipLevelCount: 1,
		})
		if err != nil {
			device.DestroyTexture(tex)
			return nil, nil, native.ResourceError("texture_view", label+"_view", "create", err)
		}
		return tex, view, nil
	}

	var err error
	if offscreen {
		ts.colorTex, ts.colorView, err = create("glyph_color", colorFormat,
			gputypes.TextureUsageRenderAttachment|gputypes.TextureUsageCopySrc)
		if err != nil {
			ts.destroy(device)
			return err
		}
	}
	ts.depthTex, ts.depthView, err = create("glyph_depth", depthFormat, gputypes.TextureUsageRenderAttachment)
	if err != nil {
		ts.destroy(device)
		return err
	}
	ts.pickTex, ts.pickView, err = create("glyph_pick", pickFormat,
		gputypes.TextureUsageRenderAttachment|gputypes.TextureUsageCopySrc)
	if err != nil {
		ts.destroy(device)
		return err
	}

	ts.width = w
	ts.height = h
	return nil
}

// destroy releases all targets and resets the size.
func (ts *targetSet) destroy(device hal.Device) {
	for _, v := range []*hal.TextureView{&ts.pickView, &ts.depthView, &ts.colorView} {
		if *v != nil {
			device.DestroyTextureView(*v)
			*v = nil
		}
	}
	for _, t := range []*hal.Texture{&ts.pickTex, &ts.depthTex, &ts.colorTex} {
		if *t != nil {
			device.DestroyTexture(*t)
			*t = nil
		}
	}
	ts.width = 0
	ts.height = 0
}

// alignedRow returns the padded BytesPerRow for a copy of width texels of
// 4 bytes.
func alignedRow(width uint32) uint32 {
	return (width*4 + copyPitchAlignment - 1) &^ (copyPitchAlignment - 1)
}
