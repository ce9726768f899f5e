// Package gpudata defines the bit-exact GPU-facing buffer layouts consumed
// by the culling compute pass and the indirect draw-call dispatch path.
// Each type's Pack writes its GPU layout field by field with explicit
// little-endian puts; the in-memory Go layout is not relied on.
package gpudata

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// EmptyTextureID is the sentinel written into a material's texture-slot row
// for an unbound texture slot.
const EmptyTextureID uint32 = 0xFFFFFFFF

// MaxTexturesPerMaterial bounds the fixed-width texture-slot row written
// per material instance.
const MaxTexturesPerMaterial = 8

// ObjectID is the 8-byte per-(object, meshlet-range) record the culling
// compute shader reads to locate an object's data and its meshlets.
type ObjectID struct {
	DataIdx uint32
	MeshletBase uint32
}

func (o ObjectID) Pack() [8]byte {
	var b [8]byte
	binary.LittleEndian.PutUint32(b[0:4], o.DataIdx)
	binary.LittleEndian.PutUint32(b[4:8], o.MeshletBase)
	return b
}

// Meshlet is the packed 16-byte GPU meshlet record:
//
//	x = vertex_base
//	y = index_base
//	z = (vertex_count:u8)|(primitive_count:u8)|(min_x:unorm8)|(min_y:unorm8)
//	w = (min_z:unorm8)|(max_x:unorm8)|(max_y:unorm8)|(max_z:unorm8)
//
// Bounds are normalized to the owning object's bounds; Min uses floor
// quantization, Max uses ceil quantization.
type Meshlet struct {
	VertexBase uint32
	IndexBase uint32
	VertexCount uint8
	PrimitiveCount uint8
	MinNormalized [3]float32 // xyz in [0,1], quantized floor
	MaxNormalized [3]float32 // xyz in [0,1], quantized ceil
}

func (m Meshlet) Pack() [16]byte {
	var b [16]byte
	binary.LittleEndian.PutUint32(b[0:4], m.VertexBase)
	binary.LittleEndian.PutUint32(b[4:8], m.IndexBase)

	minX := quantizeFloor(m.MinNormalized[0])
	minY := quantizeFloor(m.MinNormalized[1])
	minZ := quantizeFloor(m.MinNormalized[2])
	maxX := quantizeCeil(m.MaxNormalized[0])
	maxY := quantizeCeil(m.MaxNormalized[1])
	maxZ := quantizeCeil(m.MaxNormalized[2])

	b[8] = m.VertexCount
	b[9] = m.PrimitiveCount
	b[10] = minX
	b[11] = minY

	b[12] = minZ
	b[13] = maxX
	b[14] = maxY
	b[15] = maxZ
	return b
}

func quantizeFloor(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v * 255)
}

func quantizeCeil(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	q := v*255 + 0.999999
	if q > 255 {
		q = 255
	}
	return uint8(q)
}

// Bounds is a culling-pass bounding volume: an AABB plus a bounding-sphere
// radius smuggled into min_pt.w (GpuObjectBounds).
type Bounds struct {
	MinPt mgl32.Vec3
	SphereRadius float32
	MaxPt mgl32.Vec3
	_padW float32
}

func (b Bounds) Pack() [32]byte {
	var out [32]byte
	putVec3W(out[0:16], b.MinPt, b.SphereRadius)
	putVec3W(out[16:32], b.MaxPt, 0)
	return out
}

// DrawCall matches the backend's indexed-indirect draw layout followed by a
// 32-byte culling-bounds tail (GpuDrawCall). instance_count
// starts at zero; the GPU culling pass increments it per surviving instance.
type DrawCall struct {
	IndexCount uint32
	InstanceCount uint32
	FirstIndex uint32
	VertexOffset int32
	FirstInstance uint32
	Bounds Bounds
}

func (d DrawCall) Pack() [52]byte {
	var out [52]byte
	binary.LittleEndian.PutUint32(out[0:4], d.IndexCount)
	binary.LittleEndian.PutUint32(out[4:8], d.InstanceCount)
	binary.LittleEndian.PutUint32(out[8:12], d.FirstIndex)
	binary.LittleEndian.PutUint32(out[12:16], uint32(d.VertexOffset))
	binary.LittleEndian.PutUint32(out[16:20], d.FirstInstance)
	copy(out[20:52], d.Bounds.Pack()[:])
	return out
}

func putVec3W(dst []byte, v mgl32.Vec3, w float32) {
	binary.LittleEndian.PutUint32(dst[0:4], math.Float32bits(v.X()))
	binary.LittleEndian.PutUint32(dst[4:8], math.Float32bits(v.Y()))
	binary.LittleEndian.PutUint32(dst[8:12], math.Float32bits(v.Z()))
	binary.LittleEndian.PutUint32(dst[12:16], math.Float32bits(w))
}

// PackTextureSlots writes a material's texture-slot row: MaxTexturesPerMaterial
// u32 slot indices, EmptyTextureID where a slot is unbound.
func PackTextureSlots(slots [MaxTexturesPerMaterial]uint32) [MaxTexturesPerMaterial * 4]byte {
	var out [MaxTexturesPerMaterial * 4]byte
	for i, s := range slots {
		binary.LittleEndian.PutUint32(out[i*4:i*4+4], s)
	}
	return out
}

// LightKind matches the shading pass's light-type switch.
type LightKind uint32

const (
	LightPoint LightKind = iota
	LightDirectional
	LightSpot
	LightAmbient
)

// Light is the packed 64-byte GPU light record the shading pass reads once
// per frame; one entry per active LightComponent.
type Light struct {
	Position  mgl32.Vec3
	Range     float32
	Color     [3]float32
	Intensity float32
	Direction mgl32.Vec3
	ConeAngle float32
	Kind      LightKind
	_pad      [3]uint32
}

func (l Light) Pack() [64]byte {
	var out [64]byte
	putVec3W(out[0:16], l.Position, l.Range)
	binary.LittleEndian.PutUint32(out[16:20], math.Float32bits(l.Color[0]))
	binary.LittleEndian.PutUint32(out[20:24], math.Float32bits(l.Color[1]))
	binary.LittleEndian.PutUint32(out[24:28], math.Float32bits(l.Color[2]))
	binary.LittleEndian.PutUint32(out[28:32], math.Float32bits(l.Intensity))
	putVec3W(out[32:48], l.Direction, l.ConeAngle)
	binary.LittleEndian.PutUint32(out[48:52], uint32(l.Kind))
	return out
}
