//go:build !nogpu

package gpu

import (
	_ "embed"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/glyphfield/internal/mesh"
	"github.com/gogpu/glyphfield/internal/native"
	"github.com/gogpu/glyphfield/render"
)

//go:embed shaders/common.wgsl
var commonShaderSource string

//go:embed shaders/glyph.wgsl
var glyphShaderSource string

//go:embed shaders/axes.wgsl
var axesShaderSource string

//go:embed shaders/outline.wgsl
var outlineShaderSource string

// shaderSource prepends the shared uniforms and helpers to a stage file.
func shaderSource(body string) string { return commonShaderSource + "\n" + body }

// globalsSize is the byte size of the Globals uniform block.
const globalsSize = 64 + 5*16

// pipelines owns the render pipelines of one color format.
type pipelines struct {
	res        native.Resources
	bindLayout hal.BindGroupLayout

	axes    hal.RenderPipeline
	glyphs  hal.RenderPipeline
	outline hal.RenderPipeline
}

func meshVertexLayout() gputypes.VertexBufferLayout {
	return gputypes.VertexBufferLayout{
		ArrayStride: mesh.VertexSize,
		StepMode:    gputypes.VertexStepModeVertex,
		Attributes: []gputypes.VertexAttribute{
			{Format: gputypes.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},  // position
			{Format: gputypes.VertexFormatFloat32x3, Offset: 12, ShaderLocation: 1}, // normal
			{Format: gputypes.VertexFormatFloat32x4, Offset: 24, ShaderLocation: 2}, // color
		},
	}
}

func instanceVertexLayout() gputypes.VertexBufferLayout {
	return gputypes.VertexBufferLayout{
		ArrayStride: render.InstanceSize,
		StepMode:    gputypes.VertexStepModeInstance,
		Attributes: []gputypes.VertexAttribute{
			{Format: gputypes.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 3},  // inst_pos
			{Format: gputypes.VertexFormatFloat32x4, Offset: 12, ShaderLocation: 4}, // inst_color
			{Format: gputypes.VertexFormatUint32, Offset: 28, ShaderLocation: 5},    // glyph_id
			{Format: gputypes.VertexFormatUint32, Offset: 32, ShaderLocation: 6},    // flags
		},
	}
}

func depthState(write bool) *hal.DepthStencilState {
	keep := hal.StencilFaceState{
		Compare:     gputypes.CompareFunctionAlways,
		FailOp:      hal.StencilOperationKeep,
		DepthFailOp: hal.StencilOperationKeep,
		PassOp:      hal.StencilOperationKeep,
	}
	return &hal.DepthStencilState{
		Format:            depthFormat,
		DepthWriteEnabled: write,
		DepthCompare:      gputypes.CompareFunctionLess,
		StencilFront:      keep,
		StencilBack:       keep,
	}
}

// newPipelines compiles the shaders and builds the three pipelines.
func newPipelines(device hal.Device, colorFormat gputypes.TextureFormat) (*pipelines, error) {
	p := &pipelines{res: native.Resources{Device: device}}
	if err := p.create(device, colorFormat); err != nil {
		p.destroy()
		return nil, err
	}
	return p, nil
}

func (p *pipelines) create(device hal.Device, colorFormat gputypes.TextureFormat) error {
	bindLayout, err := device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "glyph_globals_layout",
		Entries: []gputypes.BindGroupLayoutEntry{{
			Binding:    0,
			Visibility: gputypes.ShaderStagesVertexFragment,
			Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
		}},
	})
	if err != nil {
		return native.ResourceError("bind_group_layout", "glyph_globals_layout", "create", err)
	}
	p.bindLayout = p.res.BindLayout(bindLayout)

	pipeLayout, err := device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "glyph_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{p.bindLayout},
	})
	if err != nil {
		return native.ResourceError("pipeline_layout", "glyph_pipe_layout", "create", err)
	}
	p.res.PipelineLayout(pipeLayout)

	opaque := gputypes.BlendStateReplace()
	targets := func(pickMask gputypes.ColorWriteMask) []gputypes.ColorTargetState {
		return []gputypes.ColorTargetState{
			{Format: colorFormat, Blend: &opaque, WriteMask: gputypes.ColorWriteMaskAll},
			{Format: pickFormat, WriteMask: pickMask},
		}
	}

	build := func(label, source string, buffers []gputypes.VertexBufferLayout, cull gputypes.CullMode, depthWrite bool, pickMask gputypes.ColorWriteMask) (hal.RenderPipeline, error) {
		module, err := native.CreateShaderModule(device, label+"_shader", shaderSource(source))
		if err != nil {
			return nil, native.ResourceError("shader", label+"_shader", "create", err)
		}
		p.res.Shader(module)

		pipeline, err := device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
			Label:  label + "_pipeline",
			Layout: pipeLayout,
			Vertex: hal.VertexState{
				Module:     module,
				EntryPoint: "vs_main",
				Buffers:    buffers,
			},
			Fragment: &hal.FragmentState{
				Module:     module,
				EntryPoint: "fs_main",
				Targets:    targets(pickMask),
			},
			Primitive: gputypes.PrimitiveState{
				Topology:  gputypes.PrimitiveTopologyTriangleList,
				FrontFace: gputypes.FrontFaceCCW,
				CullMode:  cull,
			},
			DepthStencil: depthState(depthWrite),
			Multisample:  gputypes.DefaultMultisampleState(),
		})
		if err != nil {
			return nil, native.ResourceError("render_pipeline", label+"_pipeline", "create", err)
		}
		return p.res.RenderPipeline(pipeline), nil
	}

	plain := []gputypes.VertexBufferLayout{meshVertexLayout()}
	instanced := []gputypes.VertexBufferLayout{meshVertexLayout(), instanceVertexLayout()}

	if p.axes, err = build("glyph_axes", axesShaderSource, plain, gputypes.CullModeBack, true, gputypes.ColorWriteMaskAll); err != nil {
		return err
	}
	if p.glyphs, err = build("glyph_boxes", glyphShaderSource, instanced, gputypes.CullModeBack, true, gputypes.ColorWriteMaskAll); err != nil {
		return err
	}
	if p.outline, err = build("glyph_outline", outlineShaderSource, instanced, gputypes.CullModeFront, false, gputypes.ColorWriteMaskNone); err != nil {
		return err
	}
	slogger().Debug("gpu: pipelines created", "color_format", fmt.Sprint(colorFormat))
	return nil
}

func (p *pipelines) destroy() {
	p.res.Destroy()
	p.axes, p.glyphs, p.outline, p.bindLayout = nil, nil, nil, nil
}
