//go:build !nogpu

package native

import "github.com/gogpu/wgpu/hal"

// Resources tracks pipeline-level GPU objects so they can be destroyed in
// dependency order: pipelines, then pipeline layouts, then bind group
// layouts, then shader modules. The device itself is never destroyed here.
type Resources struct {
	Device hal.Device

	ShaderModules    []hal.ShaderModule
	BindLayouts      []hal.BindGroupLayout
	PipelineLayouts  []hal.PipelineLayout
	ComputePipelines []hal.ComputePipeline
	RenderPipelines  []hal.RenderPipeline
}

// Shader records a shader module and returns it.
func (r *Resources) Shader(m hal.ShaderModule) hal.ShaderModule {
	r.ShaderModules = append(r.ShaderModules, m)
	return m
}

// BindLayout records a bind group layout and returns it.
func (r *Resources) BindLayout(l hal.BindGroupLayout) hal.BindGroupLayout {
	r.BindLayouts = append(r.BindLayouts, l)
	return l
}

// PipelineLayout records a pipeline layout and returns it.
func (r *Resources) PipelineLayout(l hal.PipelineLayout) hal.PipelineLayout {
	r.PipelineLayouts = append(r.PipelineLayouts, l)
	return l
}

// ComputePipeline records a compute pipeline and returns it.
func (r *Resources) ComputePipeline(p hal.ComputePipeline) hal.ComputePipeline {
	r.ComputePipelines = append(r.ComputePipelines, p)
	return p
}

// RenderPipeline records a render pipeline and returns it.
func (r *Resources) RenderPipeline(p hal.RenderPipeline) hal.RenderPipeline {
	r.RenderPipelines = append(r.RenderPipelines, p)
	return p
}

// Destroy releases everything recorded so far. It is safe to call twice.
func (r *Resources) Destroy() {
	if r.Device == nil {
		return
	}
	for _, p := range r.RenderPipelines {
		if p != nil {
			r.Device.DestroyRenderPipeline(p)
		}
	}
	for _, p := range r.ComputePipelines {
		if p != nil {
			r.Device.DestroyComputePipeline(p)
		}
	}
	for _, l := range r.PipelineLayouts {
		if l != nil {
			r.Device.DestroyPipelineLayout(l)
		}
	}
	for _, l := range r.BindLayouts {
		if l != nil {
			r.Device.DestroyBindGroupLayout(l)
		}
	}
	for _, m := range r.ShaderModules {
		if m != nil {
			r.Device.DestroyShaderModule(m)
		}
	}
	r.RenderPipelines = nil
	r.ComputePipelines = nil
	r.PipelineLayouts = nil
	r.BindLayouts = nil
	r.ShaderModules = nil
}
