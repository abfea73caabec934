//go:build !nogpu

package compute

import (
	"context"
	_ "embed"
	"encoding/binary"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/glyphfield/config"
	"github.com/gogpu/glyphfield/glyph"
	"github.com/gogpu/glyphfield/internal/native"
	"github.com/gogpu/glyphfield/render"
)

//go:embed shaders/layout.wgsl
var layoutShaderSource string

const (
	workgroupSize   = 64
	maxWorkgroups   = 65535
	recordWords     = 5
	paramsSize      = 80
	layoutEntryName = "main"
)

// GPU runs the layout as a wgpu compute shader.
//
// Every Layout call uploads the records, dispatches one invocation per
// record, copies the result to a staging buffer and maps it back. Inputs
// larger than one dispatch return ErrFallbackToCPU.
type GPU struct {
	mu sync.Mutex

	device hal.Device
	queue  hal.Queue

	res        native.Resources
	bindLayout hal.BindGroupLayout
	pipeline   hal.ComputePipeline
	ready      bool
}

// NewGPU builds the layout pipeline on a host-owned device. The device is
// not destroyed by Close.
func NewGPU(device hal.Device, queue hal.Queue) (*GPU, error) {
	g := &GPU{device: device, queue: queue, res: native.Resources{Device: device}}
	if err := g.createPipeline(); err != nil {
		g.res.Destroy()
		return nil, fmt.Errorf("compute: create layout pipeline: %w", err)
	}
	g.ready = true
	slogger().Debug("compute: GPU layout pipeline ready")
	return g, nil
}

// NewGPUFromProvider builds the pipeline on the HAL device exposed by a
// host provider (see native.FromProvider).
func NewGPUFromProvider(provider any) (*GPU, error) {
	device, queue, err := native.FromProvider(provider)
	if err != nil {
		return nil, fmt.Errorf("compute: %w", err)
	}
	return NewGPU(device, queue)
}

// Name implements Backend.
func (*GPU) Name() string { return "gpu" }

// SetLogger sets the logger used by this package.
func (*GPU) SetLogger(l *slog.Logger) { setLogger(l) }

func (g *GPU) createPipeline() error {
	module, err := native.CreateShaderModule(g.device, "glyph_layout", layoutShaderSource)
	if err != nil {
		return err
	}
	g.res.Shader(module)

	bindLayout, err := g.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "glyph_layout_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{Binding: 0, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform}},
			{Binding: 1, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage}},
			{Binding: 2, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage}},
		},
	})
	if err != nil {
		return fmt.Errorf("create bind group layout: %w", err)
	}
	g.bindLayout = g.res.BindLayout(bindLayout)

	pipeLayout, err := g.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label: "glyph_layout_pipe_layout", BindGroupLayouts: []hal.BindGroupLayout{g.bindLayout},
	})
	if err != nil {
		return fmt.Errorf("create pipeline layout: %w", err)
	}
	g.res.PipelineLayout(pipeLayout)

	pipeline, err := g.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label:   "glyph_layout_pipeline",
		Layout:  pipeLayout,
		Compute: hal.ComputeState{Module: module, EntryPoint: layoutEntryName},
	})
	if err != nil {
		return fmt.Errorf("create compute pipeline: %w", err)
	}
	g.pipeline = g.res.ComputePipeline(pipeline)
	return nil
}

// Layout implements Backend.
func (g *GPU) Layout(ctx context.Context, in *Input) (render.Instances, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	n := len(in.Records)
	switch {
	case !g.ready:
		return nil, ErrFallbackToCPU
	case n == 0:
		return render.Instances{}, nil
	case (n+workgroupSize-1)/workgroupSize > maxWorkgroups:
		return nil, fmt.Errorf("%w: %d records exceed one dispatch", ErrFallbackToCPU, n)
	}

	out, err := g.dispatch(in)
	if err != nil {
		return nil, native.MapError(err)
	}
	return out, nil
}

func (g *GPU) dispatch(in *Input) (render.Instances, error) {
	n := len(in.Records)
	recordBytes := packRecords(in)
	outSize := uint64(n * render.InstanceSize)

	var buffers []hal.Buffer
	defer func() {
		for _, b := range buffers {
			g.device.DestroyBuffer(b)
		}
	}()
	create := func(label string, size uint64, usage gputypes.BufferUsage) (hal.Buffer, error) {
		b, err := g.device.CreateBuffer(&hal.BufferDescriptor{Label: label, Size: size, Usage: usage})
		if err != nil {
			return nil, native.ResourceError("buffer", label, "create", err)
		}
		buffers = append(buffers, b)
		return b, nil
	}

	paramsBuf, err := create("glyph_layout_params", paramsSize, gputypes.BufferUsageUniform|gputypes.BufferUsageCopyDst)
	if err != nil {
		return nil, err
	}
	recordsBuf, err := create("glyph_layout_records", uint64(len(recordBytes)), gputypes.BufferUsageStorage|gputypes.BufferUsageCopyDst)
	if err != nil {
		return nil, err
	}
	instancesBuf, err := create("glyph_layout_instances", outSize, gputypes.BufferUsageStorage|gputypes.BufferUsageCopySrc)
	if err != nil {
		return nil, err
	}
	stagingBuf, err := create("glyph_layout_staging", outSize, gputypes.BufferUsageMapRead|gputypes.BufferUsageCopyDst)
	if err != nil {
		return nil, err
	}

	if err := g.queue.WriteBuffer(paramsBuf, 0, packParams(in)); err != nil {
		return nil, native.ResourceError("buffer", "glyph_layout_params", "write", err)
	}
	if err := g.queue.WriteBuffer(recordsBuf, 0, recordBytes); err != nil {
		return nil, native.ResourceError("buffer", "glyph_layout_records", "write", err)
	}

	bindGroup, err := g.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label: "glyph_layout_bind", Layout: g.bindLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{Buffer: paramsBuf.NativeHandle(), Size: paramsSize}},
			{Binding: 1, Resource: gputypes.BufferBinding{Buffer: recordsBuf.NativeHandle(), Size: uint64(len(recordBytes))}},
			{Binding: 2, Resource: gputypes.BufferBinding{Buffer: instancesBuf.NativeHandle(), Size: outSize}},
		},
	})
	if err != nil {
		return nil, native.ResourceError("bind_group", "glyph_layout_bind", "create", err)
	}
	defer g.device.DestroyBindGroup(bindGroup)

	encoder, err := g.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "glyph_layout_encoder"})
	if err != nil {
		return nil, fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("glyph_layout"); err != nil {
		return nil, fmt.Errorf("begin encoding: %w", err)
	}
	pass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: "glyph_layout_pass"})
	pass.SetPipeline(g.pipeline)
	pass.SetBindGroup(0, bindGroup, nil)
	pass.Dispatch(uint32((n+workgroupSize-1)/workgroupSize), 1, 1) //nolint:gosec // bounded by maxWorkgroups
	pass.End()
	encoder.CopyBufferToBuffer(instancesBuf, stagingBuf, []hal.BufferCopy{{Size: outSize}})
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return nil, fmt.Errorf("end encoding: %w", err)
	}
	defer g.device.FreeCommandBuffer(cmdBuf)

	if _, err := g.queue.Submit([]hal.CommandBuffer{cmdBuf}); err != nil {
		return nil, fmt.Errorf("submit: %w", err)
	}
	if err := g.device.WaitIdle(); err != nil {
		return nil, fmt.Errorf("wait for GPU: %w", err)
	}

	mapping, err := g.device.MapBuffer(stagingBuf, 0, outSize)
	if err != nil {
		return nil, native.ResourceError("buffer", "glyph_layout_staging", "map", err)
	}
	out := make(render.Instances, outSize)
	copy(out, unsafe.Slice((*byte)(mapping.Ptr), outSize)) //nolint:gosec // mapping covers outSize bytes
	if err := g.device.UnmapBuffer(stagingBuf); err != nil {
		return nil, native.ResourceError("buffer", "glyph_layout_staging", "unmap", err)
	}
	return out, nil
}

// Close releases the pipeline. The device belongs to the host.
func (g *GPU) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.res.Destroy()
	g.ready = false
}

func packRecords(in *Input) []byte {
	out := make([]byte, len(in.Records)*recordWords*4)
	for i := range in.Records {
		r := &in.Records[i]
		var flags uint32
		if in.Selected != nil && in.Selected(r.GlyphID) {
			flags = render.FlagSelected
		}
		b := out[i*recordWords*4:]
		binary.LittleEndian.PutUint32(b[0:], r.XRank)
		binary.LittleEndian.PutUint32(b[4:], r.ZRank)
		binary.LittleEndian.PutUint32(b[8:], math.Float32bits(r.YValue))
		binary.LittleEndian.PutUint32(b[12:], r.GlyphID)
		binary.LittleEndian.PutUint32(b[16:], flags)
	}
	return out
}

// Flag bits of the shader's params.flags word.
const (
	bitXLog = iota
	bitYLog
	bitZLog
	bitXDesc
	bitYDesc
	bitZDesc
	bitColorFlip
)

func packParams(in *Input) []byte {
	p := &in.Params
	var flags uint32
	set := func(bit int, on bool) {
		if on {
			flags |= 1 << bit
		}
	}
	set(bitXLog, p.Interpolation[glyph.AxisX] == config.Log)
	set(bitYLog, p.Interpolation[glyph.AxisY] == config.Log)
	set(bitZLog, p.Interpolation[glyph.AxisZ] == config.Log)
	set(bitXDesc, p.Order[glyph.AxisX] == config.Descending)
	set(bitYDesc, p.Order[glyph.AxisY] == config.Descending)
	set(bitZDesc, p.Order[glyph.AxisZ] == config.Descending)
	set(bitColorFlip, p.ColorFlip)

	words := []uint32{
		uint32(len(in.Records)), //nolint:gosec // bounded by maxWorkgroups
		in.RankCount[glyph.AxisX],
		in.RankCount[glyph.AxisZ],
		flags,
		math.Float32bits(p.AxisLength),
		math.Float32bits(p.ZHeightRatio),
		math.Float32bits(p.GlyphOffset),
		math.Float32bits(p.MinGlyphHeight),
		math.Float32bits(float32(in.YMin)),
		math.Float32bits(float32(in.YMax)),
		0, 0,
	}
	for _, c := range p.MinColor {
		words = append(words, math.Float32bits(c))
	}
	for _, c := range p.MaxColor {
		words = append(words, math.Float32bits(c))
	}
	out := make([]byte, paramsSize)
	for i, w := range words {
		binary.LittleEndian.PutUint32(out[i*4:], w)
	}
	return out
}

var _ Backend = (*GPU)(nil)
