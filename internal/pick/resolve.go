// Package pick maps window pixels back to glyph ids and keeps the
// selected set.
package pick

import (
	"context"
	"errors"
	"fmt"

	"github.com/gogpu/glyphfield/render"
)

// Reader reads pick values. Every render.Renderer is a Reader.
type Reader interface {
	ReadPick(ctx context.Context, x, y, w, h int) ([]uint32, error)
}

// Radius is the half-size of the sampled block.
const Radius = 1

// Resolver resolves window pixels to glyph ids.
type Resolver struct {
	reader Reader
}

// NewResolver returns a resolver reading from r.
func NewResolver(r Reader) *Resolver { return &Resolver{reader: r} }

// At reads the 3x3 block around (x, y), clipped to the width x height
// target, and votes on the glyph under the cursor. ok is false when the
// block holds only background or (x, y) lies outside the target.
func (r *Resolver) At(ctx context.Context, x, y, width, height int) (id uint32, ok bool, err error) {
	if x < 0 || y < 0 || x >= width || y >= height {
		return 0, false, nil
	}
	x0, y0 := max(x-Radius, 0), max(y-Radius, 0)
	x1, y1 := min(x+Radius, width-1), min(y+Radius, height-1)
	w, h := x1-x0+1, y1-y0+1

	block, err := r.reader.ReadPick(ctx, x0, y0, w, h)
	if err != nil {
		if errors.Is(err, render.ErrOutOfBounds) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("pick: read block: %w", err)
	}
	if len(block) != w*h {
		return 0, false, fmt.Errorf("pick: read %d values, want %d", len(block), w*h)
	}
	id, ok = render.GlyphOf(Vote(block, (y-y0)*w+(x-x0)))
	return id, ok, nil
}

// Vote picks the winning pick value of a block. A glyph under the center
// sample always wins. Otherwise the most frequent non-background value
// among the neighbors wins, ties going to the smaller value. The result
// is 0 when the block holds only background.
func Vote(block []uint32, center int) uint32 {
	if c := block[center]; c != 0 {
		return c
	}
	counts := make(map[uint32]int, len(block))
	for _, v := range block {
		if v != 0 {
			counts[v]++
		}
	}
	var best uint32
	bestCount := 0
	for v, n := range counts {
		if n > bestCount || (n == bestCount && v < best) {
			best, bestCount = v, n
		}
	}
	return best
}
