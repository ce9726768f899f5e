package renderset

import (
	"github.com/gekko3d/forge/render/gpudata"
)

// MeshLookup resolves a DrawKey's mesh to the index/vertex counts and
// bounds the indirect draw-call buffer needs.
type MeshLookup interface {
	IndexCount(meshID uint32) uint32
	FirstIndex(meshID uint32) uint32
	VertexOffset(meshID uint32) int32
	Bounds(meshID uint32) gpudata.Bounds
}

// DrawCallBuffers holds the two alternating per-frame-in-flight draw-call
// buffers: the culling pass reads last frame's depth, so a
// depth prepass over last frame's statics can read the "previous" buffer
// while "current" is being filled.
type DrawCallBuffers struct {
	buffers [2][]gpudata.DrawCall
	current int
}

func (b *DrawCallBuffers) Current() []gpudata.DrawCall { return b.buffers[b.current] }
func (b *DrawCallBuffers) Previous() []gpudata.DrawCall { return b.buffers[1-b.current] }

// Swap alternates which buffer is "current" for the next frame.
func (b *DrawCallBuffers) Swap() { b.current = 1 - b.current }

// BuildDrawCalls emits one GpuDrawCall per group into the current buffer.
// InstanceCount starts at zero; the GPU culling compute pass increments it
// per surviving instance.
func (b *DrawCallBuffers) BuildDrawCalls(groups []DrawGroup, lookup MeshLookup) {
	out := b.buffers[b.current][:0]
	firstInstance := uint32(0)
	for _, g := range groups {
		out = append(out, gpudata.DrawCall{
			IndexCount: lookup.IndexCount(g.Key.MeshID),
			InstanceCount: 0,
			FirstIndex: lookup.FirstIndex(g.Key.MeshID),
			VertexOffset: lookup.VertexOffset(g.Key.MeshID),
			FirstInstance: firstInstance,
			Bounds: lookup.Bounds(g.Key.MeshID),
		})
		firstInstance += uint32(g.Len)
	}
	b.buffers[b.current] = out
}
