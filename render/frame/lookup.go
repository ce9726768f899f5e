package frame

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/forge/render/gpudata"
	"github.com/gekko3d/forge/render/handle"
	"github.com/gekko3d/forge/render/mesh"
)

// meshLookup adapts the mesh factory plus one frame's slot->handle map into
// renderset.MeshLookup, bridging DrawKey's bare uint32 mesh ids back to the
// generation-checked handles the factory requires.
type meshLookup struct {
	meshes  *mesh.Factory
	handles map[uint32]handle.Handle
}

func (l *meshLookup) resolve(meshID uint32) (*mesh.Mesh, bool) {
	if l.meshes == nil {
		return nil, false
	}
	h, ok := l.handles[meshID]
	if !ok {
		return nil, false
	}
	return l.meshes.Get(h)
}

func (l *meshLookup) IndexCount(meshID uint32) uint32 {
	m, ok := l.resolve(meshID)
	if !ok {
		return 0
	}
	return m.IndexCount
}

func (l *meshLookup) FirstIndex(meshID uint32) uint32 {
	m, ok := l.resolve(meshID)
	if !ok {
		return 0
	}
	return m.IndexBlock.Base
}

func (l *meshLookup) VertexOffset(meshID uint32) int32 {
	m, ok := l.resolve(meshID)
	if !ok {
		return 0
	}
	block, ok := m.VertexBlocks[mesh.AttributePosition]
	if !ok {
		return 0
	}
	return int32(block.Base)
}

// Bounds derives a conservative AABB from the mesh's bounding sphere — Mesh
// doesn't keep a separate AABB, and the culling pass only needs a
// conservative bound to reject against.
func (l *meshLookup) Bounds(meshID uint32) gpudata.Bounds {
	m, ok := l.resolve(meshID)
	if !ok {
		return gpudata.Bounds{}
	}
	sphere := m.BoundingSphere
	center := mgl32.Vec3{sphere.X(), sphere.Y(), sphere.Z()}
	radius := sphere.W()
	extent := mgl32.Vec3{radius, radius, radius}
	return gpudata.Bounds{
		MinPt:        center.Sub(extent),
		SphereRadius: radius,
		MaxPt:        center.Add(extent),
	}
}
