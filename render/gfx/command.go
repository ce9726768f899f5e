package gfx

import "github.com/cogentcore/webgpu/wgpu"

// CommandEncoder wraps a wgpu command encoder, grounded on the render/compute
// pass recording shape in mod_client.go and mod_vox_client.go's RenderSystem.
type CommandEncoder struct {
	raw *wgpu.CommandEncoder
}

func (d *Device) CreateCommandEncoder(label string) (*CommandEncoder, error) {
	raw, err := d.device.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{Label: label})
	if err != nil {
		return nil, newErr(KindResourceCreationFailed, "create command encoder", err)
	}
	return &CommandEncoder{raw: raw}, nil
}

// ColorAttachment mirrors mod_client.go's RenderPassColorAttachment usage.
type ColorAttachment struct {
	View *wgpu.TextureView
	Clear *wgpu.Color // nil => LoadOpLoad
	StoreNone bool // true => StoreOpDiscard, used for transient attachments
}

type RenderPass struct {
	raw *wgpu.RenderPassEncoder
}

func (e *CommandEncoder) BeginRenderPass(color []ColorAttachment) *RenderPass {
	attachments := make([]wgpu.RenderPassColorAttachment, len(color))
	for i, c := range color {
		loadOp := wgpu.LoadOpLoad
		var clear wgpu.Color
		if c.Clear != nil {
			loadOp = wgpu.LoadOpClear
			clear = *c.Clear
		}
		storeOp := wgpu.StoreOpStore
		if c.StoreNone {
			storeOp = wgpu.StoreOpDiscard
		}
		attachments[i] = wgpu.RenderPassColorAttachment{
			View: c.View,
			LoadOp: loadOp,
			StoreOp: storeOp,
			ClearValue: clear,
		}
	}
	raw := e.raw.BeginRenderPass(&wgpu.RenderPassDescriptor{ColorAttachments: attachments})
	return &RenderPass{raw: raw}
}

func (p *RenderPass) SetPipeline(pipeline *GraphicsPipeline) { p.raw.SetPipeline(pipeline.Raw) }

func (p *RenderPass) SetBindGroup(index uint32, set *DescriptorSet, dynamicOffsets []uint32) {
	p.raw.SetBindGroup(index, set.Raw, dynamicOffsets)
}

func (p *RenderPass) SetVertexBuffer(slot uint32, buf *Buffer, offset uint64) {
	p.raw.SetVertexBuffer(slot, buf.Raw, offset, wgpu.WholeSize)
}

func (p *RenderPass) SetIndexBuffer(buf *Buffer, format wgpu.IndexFormat, offset uint64) {
	p.raw.SetIndexBuffer(buf.Raw, format, offset, wgpu.WholeSize)
}

// DrawIndexedIndirect issues one indirect indexed draw per entry in
// indirectBuf, the way the renderset compiler's DrawGroup list is consumed.
func (p *RenderPass) DrawIndexedIndirect(indirectBuf *Buffer, offset uint64) {
	p.raw.DrawIndexedIndirect(indirectBuf.Raw, offset)
}

func (p *RenderPass) DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32) {
	p.raw.DrawIndexed(indexCount, instanceCount, firstIndex, baseVertex, firstInstance)
}

func (p *RenderPass) End() error {
	if err := p.raw.End(); err != nil {
		return newErr(KindOther, "end render pass", err)
	}
	p.raw.Release()
	return nil
}

type ComputePass struct {
	raw *wgpu.ComputePassEncoder
}

func (e *CommandEncoder) BeginComputePass() *ComputePass {
	return &ComputePass{raw: e.raw.BeginComputePass(nil)}
}

func (p *ComputePass) SetPipeline(pipeline *ComputePipeline) { p.raw.SetPipeline(pipeline.Raw) }

func (p *ComputePass) SetBindGroup(index uint32, set *DescriptorSet) {
	p.raw.SetBindGroup(index, set.Raw, nil)
}

func (p *ComputePass) DispatchWorkgroups(x, y, z uint32) { p.raw.DispatchWorkgroups(x, y, z) }

func (p *ComputePass) End() error {
	if err := p.raw.End(); err != nil {
		return newErr(KindOther, "end compute pass", err)
	}
	p.raw.Release()
	return nil
}

// CopyBufferToBuffer records a GPU-side copy, used by the staging engine's
// transfer-queue upload path.
func (e *CommandEncoder) CopyBufferToBuffer(src *Buffer, srcOffset uint64, dst *Buffer, dstOffset uint64, size uint64) {
	e.raw.CopyBufferToBuffer(src.Raw, srcOffset, dst.Raw, dstOffset, size)
}

// CopyBufferToImage records a buffer→texture copy for the texture factory's
// mip-upload path.
func (e *CommandEncoder) CopyBufferToImage(src *Buffer, bytesPerRow, rowsPerImage uint32, dst *Image, mipLevel uint32, extent wgpu.Extent3D) {
	e.raw.CopyBufferToTexture(
		&wgpu.ImageCopyBuffer{
			Layout: wgpu.TextureDataLayout{BytesPerRow: bytesPerRow, RowsPerImage: rowsPerImage},
			Buffer: src.Raw,
		},
		&wgpu.ImageCopyTexture{Texture: dst.Raw, MipLevel: mipLevel},
		&extent,
	)
}

func (e *CommandEncoder) Finish() (*wgpu.CommandBuffer, error) {
	buf, err := e.raw.Finish(nil)
	if err != nil {
		return nil, newErr(KindOther, "finish command encoder", err)
	}
	return buf, nil
}
