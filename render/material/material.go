package material

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/google/uuid"

	"github.com/gekko3d/forge/render/gfx"
	"github.com/gekko3d/forge/render/gpudata"
	"github.com/gekko3d/forge/render/handle"
)

// PassId is an opaque tag a Material registers a PipelineTemplate under
// (e.g. "depth-prepass", "opaque", "transparent", "entity-id", "shadow",
// "high-z").
type PassId string

// PipelineTemplate is everything a Material declares about how it wants to
// be drawn in one pass, short of the concrete backend pipeline object
// (manufactured lazily and memoized — see pipeline.go).
type PipelineTemplate struct {
	Shader *ShaderSource
	VSEntry string
	FSEntry string
	VertexBuffers []VertexBufferLayout
	Topology Topology
	DepthTest bool
	DepthWrite bool
	BlendEnabled bool
	PushConstSize uint32
}

type ShaderSource struct {
	Label string
	WGSL string
}

type Topology int

const (
	TopologyTriangleList Topology = iota
	TopologyLineList
)

type VertexBufferLayout struct {
	ArrayStride uint64
	Attributes []VertexAttribute
}

type VertexAttribute struct {
	ShaderLocation uint32
	Offset uint64
	Format string // WGSL-level format name, resolved to wgpu.VertexFormat at pipeline build time
}

// Material is the shared template every MaterialInstance references.
type Material struct {
	DataSize uint64
	TextureSlotCount uint32
	PassPipelines map[PassId]PipelineTemplate
}

// Instance is one MaterialInstance: its raw parameter bytes,
// bound textures, and the two row-buffer slots the factory assigned it.
type Instance struct {
	Material *Material
	Data []byte
	Textures []handle.Handle // len == Material.TextureSlotCount; zero-value handle == unbound
	DataSlot Slot
	TexturesSlot Slot

	// DebugName disambiguates instances of the same Material in logs and
	// graphics-debugger captures; it carries no semantic meaning and is
	// never used as a lookup key.
	DebugName string
}

// Factory owns the per-data-size material buffers, the global texture-slots
// buffer, and the descriptor sets bound to them.
type Factory struct {
	device *gfx.Device
	cfg Config
	dataBuffers map[uint64]*rowBuffer
	textureBuffers *rowBuffer
	sets map[uint64][]*gfx.DescriptorSet // one per frame-in-flight, keyed by data size
	setLayout *wgpu.BindGroupLayout
	framesInFlight uint32
	pipelines *PipelineCache
}

type Config struct {
	DefaultTexturesCapacity uint32
	FallbackMaterialsCapacity uint32
	DefaultMaterialsCapacityBySize map[uint64]uint32
	PipelineCacheSize int
}

func NewFactory(device *gfx.Device, cfg Config, framesInFlight uint32, setLayout *wgpu.BindGroupLayout) (*Factory, error) {
	textureRowStride := uint64(gpudata.MaxTexturesPerMaterial) * 4
	texBuf, err := newRowBuffer(device, "material_texture_slots", textureRowStride, cfg.DefaultTexturesCapacity)
	if err != nil {
		return nil, err
	}

	cache, err := NewPipelineCache(cfg.PipelineCacheSize)
	if err != nil {
		return nil, err
	}

	return &Factory{
		device: device,
		cfg: cfg,
		dataBuffers: make(map[uint64]*rowBuffer),
		textureBuffers: texBuf,
		sets: make(map[uint64][]*gfx.DescriptorSet),
		setLayout: setLayout,
		framesInFlight: framesInFlight,
		pipelines: cache,
	}, nil
}

func (f *Factory) dataBuffer(dataSize uint64) (*rowBuffer, error) {
	if b, ok := f.dataBuffers[dataSize]; ok {
		return b, nil
	}
	cap := f.cfg.FallbackMaterialsCapacity
	if c, ok := f.cfg.DefaultMaterialsCapacityBySize[dataSize]; ok {
		cap = c
	}
	b, err := newRowBuffer(f.device, fmt.Sprintf("material_data_%d", dataSize), dataSize, cap)
	if err != nil {
		return nil, err
	}
	f.dataBuffers[dataSize] = b
	return b, nil
}

// CreateInstance allocates data and (if the material uses textures) texture
// row slots for a new instance.
func (f *Factory) CreateInstance(mat *Material, data []byte, textures []handle.Handle) (*Instance, error) {
	inst := &Instance{Material: mat, Data: data, Textures: textures, DataSlot: NoSlot, TexturesSlot: NoSlot, DebugName: uuid.NewString()}

	db, err := f.dataBuffer(mat.DataSize)
	if err != nil {
		return nil, err
	}
	slot, err := db.allocate()
	if err != nil {
		return nil, err
	}
	inst.DataSlot = slot

	if mat.TextureSlotCount > 0 {
		tslot, err := f.textureBuffers.allocate()
		if err != nil {
			return nil, err
		}
		inst.TexturesSlot = tslot
	}

	f.MarkDirty(inst)
	return inst, nil
}

func (f *Factory) DestroyInstance(inst *Instance) {
	if db, ok := f.dataBuffers[inst.Material.DataSize]; ok {
		db.free(inst.DataSlot)
	}
	f.textureBuffers.free(inst.TexturesSlot)
}

// MarkDirty pushes inst onto both buffers' dirty lists.
func (f *Factory) MarkDirty(inst *Instance) {
	if db, err := f.dataBuffer(inst.Material.DataSize); err == nil {
		db.markDirty(inst.DataSlot)
		db.writeRow(inst.DataSlot, inst.Data)
	}
	if inst.Material.TextureSlotCount > 0 {
		f.textureBuffers.markDirty(inst.TexturesSlot)
		f.textureBuffers.writeRow(inst.TexturesSlot, packTextureRow(inst))
	}
}

func packTextureRow(inst *Instance) []byte {
	var slots [gpudata.MaxTexturesPerMaterial]uint32
	for i := range slots {
		slots[i] = gpudata.EmptyTextureID
	}
	for i, h := range inst.Textures {
		if i >= gpudata.MaxTexturesPerMaterial {
			break
		}
		if h != (handle.Handle{}) {
			slots[i] = h.Slot
		}
	}
	row := gpudata.PackTextureSlots(slots)
	return row[:]
}

// Flush walks both dirty lists and uploads the queued rows to the GPU
//. Descriptor-set rebinding on buffer growth is handled by
// the caller via DataBuffer/TexturesBuffer, mirroring
// MaterialFactory::flush's check_rebind step.
func (f *Factory) Flush() error {
	if err := f.textureBuffers.flush(); err != nil {
		return err
	}
	for _, b := range f.dataBuffers {
		if err := b.flush(); err != nil {
			return err
		}
	}
	return nil
}

func (f *Factory) DataBuffer(dataSize uint64) (*gfx.Buffer, bool) {
	b, ok := f.dataBuffers[dataSize]
	if !ok {
		return nil, false
	}
	return b.buffer, true
}

func (f *Factory) TexturesBuffer() *gfx.Buffer { return f.textureBuffers.buffer }

func (f *Factory) Pipelines() *PipelineCache { return f.pipelines }
