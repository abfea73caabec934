//go:build !nogpu

package compute

import (
	"context"
	"encoding/binary"
	"math"
	"testing"

	"github.com/gogpu/gputypes"
	_ "github.com/gogpu/wgpu/hal/noop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/glyphfield/config"
	"github.com/gogpu/glyphfield/glyph"
	"github.com/gogpu/glyphfield/internal/native"
)

func TestLayoutShaderCompiles(t *testing.T) {
	words, err := native.CompileWGSL(layoutShaderSource)
	require.NoError(t, err)
	assert.NotEmpty(t, words)
}

func createNoopGPU(t *testing.T) *GPU {
	t.Helper()
	dev, err := native.Open(gputypes.BackendEmpty)
	require.NoError(t, err)
	t.Cleanup(dev.Close)

	g, err := NewGPU(dev.Device, dev.Queue)
	require.NoError(t, err)
	t.Cleanup(g.Close)
	return g
}

func TestGPULayoutNoop(t *testing.T) {
	g := createNoopGPU(t)
	in := gridInput(t, 10, 10, defaultParams())

	// The noop device runs no shaders; this checks the buffer plumbing.
	out, err := g.Layout(context.Background(), &in)
	require.NoError(t, err)
	assert.Equal(t, 100, out.Len())

	empty := Input{Params: defaultParams()}
	out, err = g.Layout(context.Background(), &empty)
	require.NoError(t, err)
	assert.Equal(t, 0, out.Len())
}

func TestGPUClosedFallsBack(t *testing.T) {
	g := createNoopGPU(t)
	g.Close()

	in := gridInput(t, 2, 2, defaultParams())
	_, err := g.Layout(context.Background(), &in)
	assert.ErrorIs(t, err, ErrFallbackToCPU)

	out, err := NewFallback(g).Layout(context.Background(), &in)
	require.NoError(t, err)
	assert.Equal(t, 4, out.Len())
}

func TestPackParams(t *testing.T) {
	p := defaultParams()
	p.Interpolation[glyph.AxisY] = config.Log
	p.Order[glyph.AxisZ] = config.Descending
	p.ColorFlip = true
	in := gridInput(t, 3, 4, p)

	b := packParams(&in)
	require.Len(t, b, paramsSize)
	word := func(i int) uint32 { return binary.LittleEndian.Uint32(b[i*4:]) }

	assert.Equal(t, uint32(12), word(0))
	assert.Equal(t, uint32(3), word(1))
	assert.Equal(t, uint32(4), word(2))
	assert.Equal(t, uint32(1<<bitYLog|1<<bitZDesc|1<<bitColorFlip), word(3))
	assert.Equal(t, p.AxisLength, math.Float32frombits(word(4)))
	assert.Equal(t, p.MaxColor[3], math.Float32frombits(word(19)))
}

func TestPackRecords(t *testing.T) {
	in := gridInput(t, 2, 2, defaultParams())
	in.Selected = func(id uint32) bool { return id == 1 }

	b := packRecords(&in)
	require.Len(t, b, 4*recordWords*4)
	rec := b[1*recordWords*4:]
	assert.Equal(t, uint32(0), binary.LittleEndian.Uint32(rec[0:]))
	assert.Equal(t, uint32(1), binary.LittleEndian.Uint32(rec[4:]))
	assert.Equal(t, float32(1), math.Float32frombits(binary.LittleEndian.Uint32(rec[8:])))
	assert.Equal(t, uint32(1), binary.LittleEndian.Uint32(rec[12:]))
	assert.Equal(t, uint32(1), binary.LittleEndian.Uint32(rec[16:]))
}
