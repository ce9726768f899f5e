package material

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gekko3d/forge/render/gpudata"
	"github.com/gekko3d/forge/render/handle"
)

func TestPackTextureRow_UnboundSlotsGetEmptySentinel(t *testing.T) {
	mat := &Material{TextureSlotCount: 2}
	inst := &Instance{
		Material: mat,
		Textures: []handle.Handle{{Slot: 7, Generation: 1}, {}},
	}

	row := packTextureRow(inst)
	assert.Len(t, row, gpudata.MaxTexturesPerMaterial*4)

	var slots [gpudata.MaxTexturesPerMaterial]uint32
	for i := range slots {
		slots[i] = gpudata.EmptyTextureID
	}
	slots[0] = 7
	want := gpudata.PackTextureSlots(slots)
	assert.Equal(t, want[:], row)
}

func TestPackTextureRow_AllUnboundIsAllSentinel(t *testing.T) {
	mat := &Material{TextureSlotCount: 0}
	inst := &Instance{Material: mat}
	row := packTextureRow(inst)

	var slots [gpudata.MaxTexturesPerMaterial]uint32
	for i := range slots {
		slots[i] = gpudata.EmptyTextureID
	}
	want := gpudata.PackTextureSlots(slots)
	assert.Equal(t, want[:], row)
}
