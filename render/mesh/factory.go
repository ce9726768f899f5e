package mesh

import (
	"fmt"
	"sync/atomic"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/forge/render/alloc"
	"github.com/gekko3d/forge/render/gfx"
	"github.com/gekko3d/forge/render/handle"
)

const meshletObjectSize = 16 // matches gpudata.Meshlet.Pack's 16 bytes

// Mesh is the render-facing resource a renderable component points at
//. The factory owns its GPU blocks; a Mesh only holds
// their coordinates plus the atomically-published BLAS device address.
type Mesh struct {
	Layout Layout
	BoundingSphere mgl32.Vec4
	VertexBlocks map[Attribute]alloc.Block
	IndexBlock alloc.Block
	MeshletBlock alloc.Block
	VertexCount uint32
	IndexCount uint32
	MeshletCount uint32
	Ready bool
	BlasDeviceAddr atomic.Uint64
}

// Upload is a CPU-staged mesh's raw data, keyed by attribute for vertices.
type Upload struct {
	Vertices map[Attribute][]byte
	Indices []byte
	Meshlets []byte // pre-packed gpudata.Meshlet records whose vertex/index offsets are already global
}

// Factory owns the shared vertex/index/meshlet pools every Mesh
// sub-allocates from.
type Factory struct {
	device *gfx.Device
	vertexPools map[Attribute]*pool
	indexPool *pool
	meshletPool *pool
	meshes *handle.Table[*Mesh]
}

type PoolConfig struct {
	BaseBlockCap uint32
	BlockCount uint32
}

func NewFactory(device *gfx.Device, vertexCfg PoolConfig, indexCfg PoolConfig, meshletCfg PoolConfig) (*Factory, error) {
	f := &Factory{
		device: device,
		vertexPools: make(map[Attribute]*pool),
		meshes: handle.NewTable[*Mesh](),
	}

	for a := Attribute(0); a < attributeCount; a++ {
		p, err := newPool(device, fmt.Sprintf("mesh_vertex_%d", a), a.Stride(), wgpu.BufferUsageVertex|wgpu.BufferUsageCopyDst, vertexCfg.BaseBlockCap, vertexCfg.BlockCount)
		if err != nil {
			return nil, err
		}
		f.vertexPools[a] = p
	}

	idxPool, err := newPool(device, "mesh_index", 2, wgpu.BufferUsageIndex|wgpu.BufferUsageCopyDst, indexCfg.BaseBlockCap, indexCfg.BlockCount)
	if err != nil {
		return nil, err
	}
	f.indexPool = idxPool

	mshPool, err := newPool(device, "mesh_meshlet", meshletObjectSize, wgpu.BufferUsageStorage|wgpu.BufferUsageCopyDst, meshletCfg.BaseBlockCap, meshletCfg.BlockCount)
	if err != nil {
		return nil, err
	}
	f.meshletPool = mshPool

	return f, nil
}

// Allocate reserves vertex/index/meshlet blocks for a new mesh and returns
// its handle; the mesh is not yet Ready until Upload completes.
func (f *Factory) Allocate(layout Layout, vertexCount, indexCount, meshletCount uint32, boundingSphere mgl32.Vec4) (handle.Handle, error) {
	m := &Mesh{
		Layout: layout,
		BoundingSphere: boundingSphere,
		VertexBlocks: make(map[Attribute]alloc.Block, len(layout.Attributes())),
		VertexCount: vertexCount,
		IndexCount: indexCount,
		MeshletCount: meshletCount,
	}

	for _, a := range layout.Attributes() {
		block, err := f.vertexPools[a].allocate(vertexCount)
		if err != nil {
			return handle.Handle{}, fmt.Errorf("mesh: allocate attribute %d: %w", a, err)
		}
		m.VertexBlocks[a] = block
	}

	idxBlock, err := f.indexPool.allocate(indexCount)
	if err != nil {
		return handle.Handle{}, fmt.Errorf("mesh: allocate indices: %w", err)
	}
	m.IndexBlock = idxBlock

	mshBlock, err := f.meshletPool.allocate(meshletCount)
	if err != nil {
		return handle.Handle{}, fmt.Errorf("mesh: allocate meshlets: %w", err)
	}
	m.MeshletBlock = mshBlock

	return f.meshes.Allocate(m), nil
}

func (f *Factory) Get(h handle.Handle) (*Mesh, bool) {
	m, ok := f.meshes.Get(h)
	if !ok {
		return nil, false
	}
	return m, true
}

// Upload records, on the transfer queue, copies from CPU-staged bytes into
// each pool at the mesh's block offsets. Meshlet data must
// already carry global (not mesh-local) vertex/index offsets — the caller
// (the staging engine) is responsible for that translation before calling
// Upload, since only it knows the block bases at staging time.
func (f *Factory) Upload(h handle.Handle, encoder *gfx.CommandEncoder, stagingBuf *gfx.Buffer, stagingOffsets map[string]uint64, data Upload) error {
	m, ok := f.Get(h)
	if !ok {
		return fmt.Errorf("mesh: upload: stale handle")
	}

	for a, bytes := range data.Vertices {
		block, ok := m.VertexBlocks[a]
		if !ok {
			return fmt.Errorf("mesh: upload: attribute %d not in mesh layout", a)
		}
		off := stagingOffsets[attrKey(a)]
		f.vertexPools[a].upload(encoder, stagingBuf, off, block)
		_ = bytes // bytes already placed into the staging buffer by the caller
	}

	f.indexPool.upload(encoder, stagingBuf, stagingOffsets["indices"], m.IndexBlock)
	f.meshletPool.upload(encoder, stagingBuf, stagingOffsets["meshlets"], m.MeshletBlock)

	m.Ready = true
	return nil
}

func attrKey(a Attribute) string { return fmt.Sprintf("vertex_%d", a) }

// Drop releases a mesh's pool blocks and schedules the handle slot itself
// for deferred recycling.
func (f *Factory) Drop(h handle.Handle, currentFrame uint64) {
	m, ok := f.Get(h)
	if !ok {
		return
	}
	for a, block := range m.VertexBlocks {
		f.vertexPools[a].free(block)
	}
	f.indexPool.free(m.IndexBlock)
	f.meshletPool.free(m.MeshletBlock)
	f.meshes.Drop(h, currentFrame)
}

func (f *Factory) Pump(currentFrame uint64, framesInFlight uint32) {
	f.meshes.Pump(currentFrame, framesInFlight, func(m *Mesh) {})
}

// BeginBlasBuild requests a BLAS for a ready mesh's position stream and, on
// success, atomically publishes the resulting device address to
// Mesh.BlasDeviceAddr. The build completes synchronously (Device.BuildBlas
// is a CPU-side registry, not an async hardware job — see render/gfx/rt.go),
// so there's no separate poll step: by the time this returns, any reader of
// BlasDeviceAddr sees either the old value or the new one, never a torn one.
func (f *Factory) BeginBlasBuild(h handle.Handle) error {
	m, ok := f.Get(h)
	if !ok {
		return fmt.Errorf("mesh: begin blas build: stale handle")
	}
	vb, vok := m.VertexBlocks[AttributePosition]
	if !vok {
		return fmt.Errorf("mesh: begin blas build: no position stream")
	}
	blas, err := f.device.BuildBlas(f.vertexPools[AttributePosition].buffer, f.indexPool.buffer, vb.Length, m.IndexBlock.Length)
	if err != nil {
		return fmt.Errorf("mesh: begin blas build: %w", err)
	}
	addr, err := f.device.BlasDeviceAddress(blas)
	if err != nil {
		return fmt.Errorf("mesh: begin blas build: device address: %w", err)
	}
	m.BlasDeviceAddr.Store(addr)
	return nil
}
