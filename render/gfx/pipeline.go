package gfx

import "github.com/cogentcore/webgpu/wgpu"

// PipelineLayout wraps a wgpu pipeline layout plus its bind-group layouts,
// grounded on mod_client.go's CreateBindGroupLayout/CreatePipelineLayout
// pairing.
type PipelineLayout struct {
	Raw *wgpu.PipelineLayout
	BindGroupLayouts []*wgpu.BindGroupLayout
}

func (d *Device) CreateBindGroupLayout(entries []wgpu.BindGroupLayoutEntry) (*wgpu.BindGroupLayout, error) {
	l, err := d.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{Entries: entries})
	if err != nil {
		return nil, newErr(KindResourceCreationFailed, "create bind group layout", err)
	}
	return l, nil
}

func (d *Device) CreatePipelineLayout(layouts []*wgpu.BindGroupLayout) (*PipelineLayout, error) {
	raw, err := d.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{BindGroupLayouts: layouts})
	if err != nil {
		return nil, newErr(KindResourceCreationFailed, "create pipeline layout", err)
	}
	return &PipelineLayout{Raw: raw, BindGroupLayouts: layouts}, nil
}

// RenderPassCompatKey is the part of a render-pass's shape that a pipeline
// must match to be compatible, used as half of the material package's
// pipeline-cache key.
type RenderPassCompatKey struct {
	ColorFormats []wgpu.TextureFormat
	DepthFormat wgpu.TextureFormat
	SampleCount uint32
}

type GraphicsPipelineDesc struct {
	Label string
	Layout *PipelineLayout
	Shader *wgpu.ShaderModule
	VSEntry string
	FSEntry string
	VertexBufs []wgpu.VertexBufferLayout
	CompatKey RenderPassCompatKey
	Topology wgpu.PrimitiveTopology
}

type GraphicsPipeline struct {
	Raw *wgpu.RenderPipeline
}

// CreateGraphicsPipeline builds a render pipeline, following the shape in
// mod_client.go's inline pipeline construction.
func (d *Device) CreateGraphicsPipeline(desc GraphicsPipelineDesc) (*GraphicsPipeline, error) {
	targets := make([]wgpu.ColorTargetState, len(desc.CompatKey.ColorFormats))
	for i, f := range desc.CompatKey.ColorFormats {
		targets[i] = wgpu.ColorTargetState{Format: f}
	}

	raw, err := d.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label: desc.Label,
		Layout: desc.Layout.Raw,
		Vertex: wgpu.VertexState{
			Module: desc.Shader,
			EntryPoint: desc.VSEntry,
			Buffers: desc.VertexBufs,
		},
		Fragment: &wgpu.FragmentState{
			Module: desc.Shader,
			EntryPoint: desc.FSEntry,
			Targets: targets,
		},
		Primitive: wgpu.PrimitiveState{Topology: desc.Topology},
	})
	if err != nil {
		return nil, newErr(KindResourceCreationFailed, "create graphics pipeline "+desc.Label, err)
	}
	return &GraphicsPipeline{Raw: raw}, nil
}

type ComputePipeline struct {
	Raw *wgpu.ComputePipeline
}

// CreateComputePipeline builds a compute pipeline, following mod_vox_client.go's
// raycasting compute-pipeline construction.
func (d *Device) CreateComputePipeline(label string, layout *PipelineLayout, shader *wgpu.ShaderModule, entry string) (*ComputePipeline, error) {
	var rawLayout *wgpu.PipelineLayout
	if layout != nil {
		rawLayout = layout.Raw
	}
	raw, err := d.device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label: label,
		Layout: rawLayout,
		Compute: wgpu.ProgrammableStageDescriptor{
			Module: shader,
			EntryPoint: entry,
		},
	})
	if err != nil {
		return nil, newErr(KindResourceCreationFailed, "create compute pipeline "+label, err)
	}
	return &ComputePipeline{Raw: raw}, nil
}

func (d *Device) CreateShaderModule(label, wgsl string) (*wgpu.ShaderModule, error) {
	m, err := d.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: label,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: wgsl},
	})
	if err != nil {
		return nil, newErr(KindResourceCreationFailed, "create shader module "+label, err)
	}
	return m, nil
}

// DescriptorSet wraps a bind group, grounded on createBindGroups
// (gpu_operations.go).
type DescriptorSet struct {
	Raw *wgpu.BindGroup
}

func (d *Device) CreateDescriptorSet(layout *wgpu.BindGroupLayout, entries []wgpu.BindGroupEntry) (*DescriptorSet, error) {
	raw, err := d.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Layout: layout,
		Entries: entries,
	})
	if err != nil {
		return nil, newErr(KindResourceCreationFailed, "create bind group", err)
	}
	return &DescriptorSet{Raw: raw}, nil
}
