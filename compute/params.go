// Package compute turns the visible glyph records into the packed instance
// buffer the renderers draw from.
//
// The layout is a pure function of its Input: the same records, rank
// counts, Y range and parameters always produce the same bytes. Two
// backends implement it, a CPU one and a wgpu compute shader; the CPU
// backend is the reference.
package compute

import (
	"context"
	"errors"

	"github.com/gogpu/glyphfield/config"
	"github.com/gogpu/glyphfield/glyph"
	"github.com/gogpu/glyphfield/render"
)

// ErrFallbackToCPU is returned by a GPU backend that cannot run the
// layout; the caller retries on the CPU.
var ErrFallbackToCPU = errors.New("compute: fall back to CPU")

// Params is the part of the configuration that affects layout. It is
// comparable so callers can detect when a recompute is needed.
type Params struct {
	AxisLength     float32
	ZHeightRatio   float32
	GlyphOffset    float32
	MinGlyphHeight float32

	MinColor  [4]float32
	MaxColor  [4]float32
	ColorFlip bool

	Interpolation [3]config.Interpolation // indexed by glyph.Axis
	Order         [3]config.Order
}

// ParamsFrom extracts the layout parameters from c.
func ParamsFrom(c *config.Config) Params {
	return Params{
		AxisLength:     c.GridCylinderLength,
		ZHeightRatio:   c.ZHeightRatio,
		GlyphOffset:    c.GlyphOffset,
		MinGlyphHeight: c.MinGlyphHeight,
		MinColor:       c.MinColor,
		MaxColor:       c.MaxColor,
		ColorFlip:      c.ColorFlip,
		Interpolation: [3]config.Interpolation{
			glyph.AxisX: c.XInterpolation,
			glyph.AxisY: c.YInterpolation,
			glyph.AxisZ: c.ZInterpolation,
		},
		Order: [3]config.Order{
			glyph.AxisX: c.XOrder,
			glyph.AxisY: c.YOrder,
			glyph.AxisZ: c.ZOrder,
		},
	}
}

// Input is one layout request.
type Input struct {
	// Records are the visible records, in output order.
	Records []glyph.Record

	// RankCount holds the number of rank slots of X and Z. Positions are
	// spread over all slots so filtering does not move glyphs.
	RankCount [3]uint32

	// YMin and YMax bound the height normalization. They come from the
	// full dataset for the same reason.
	YMin, YMax float64

	Params Params

	// Selected marks instances with render.FlagSelected. May be nil.
	Selected func(id uint32) bool
}

// NewInput builds an Input for the visible subset of the store's records.
func NewInput(s *glyph.Store, visible []glyph.Record, p Params, selected func(uint32) bool) Input {
	ys := s.Stats(glyph.AxisY)
	in := Input{
		Records:  visible,
		Params:   p,
		Selected: selected,
		YMin:     ys.Min,
		YMax:     ys.Max,
	}
	in.RankCount[glyph.AxisX] = s.RankCount(glyph.AxisX)
	in.RankCount[glyph.AxisZ] = s.RankCount(glyph.AxisZ)
	return in
}

// Backend computes instance buffers.
type Backend interface {
	// Name identifies the backend in logs.
	Name() string

	// Layout returns len(in.Records) packed instances.
	Layout(ctx context.Context, in *Input) (render.Instances, error)

	// Close releases backend resources.
	Close()
}
