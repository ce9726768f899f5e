package renderset

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gekko3d/forge/render/gpudata"
)

// Scenario C: two static-opaque meshes M1 (2 meshlets), M2 (3 meshlets),
// dynamic-transparent M3 (1 meshlet, distance 10) and M4 (1 meshlet,
// distance 4). Expected groups [M1, M2, M3, M4], meshlet_base [0,2,5,6],
// transparent subrange ordered M3 before M4 (farther first).
func TestSet_Compile_ScenarioC(t *testing.T) {
	m1 := DrawKey{MeshID: 1}
	m2 := DrawKey{MeshID: 2}
	m3 := DrawKey{MeshID: 3}
	m4 := DrawKey{MeshID: 4}

	in := Input{
		StaticOpaque: []ObjectRow{
			{Key: m1, ObjectIdx: 10, MeshletCount: 2},
			{Key: m2, ObjectIdx: 20, MeshletCount: 3},
		},
		DynamicTransparent: []ObjectRow{
			{Key: m3, ObjectIdx: 30, MeshletCount: 1, BoundingSphere: mgl32.Vec4{10, 0, 0, 1}},
			{Key: m4, ObjectIdx: 40, MeshletCount: 1, BoundingSphere: mgl32.Vec4{4, 0, 0, 1}},
		},
		ViewLocation: mgl32.Vec3{0, 0, 0},
		StaticDirty: true,
	}

	set := &Set{}
	NewUpdate(set).WithOpaque().WithTransparent().Compile(in)

	require.Len(t, set.Groups, 4)
	assert.Equal(t, []DrawKey{m1, m2, m3, m4}, []DrawKey{
		set.Groups[0].Key, set.Groups[1].Key, set.Groups[2].Key, set.Groups[3].Key,
	})

	wantBases := []uint32{0, 2, 5, 6}
	gotBases := make([]uint32, len(set.ObjectIds))
	for i, id := range set.ObjectIds {
		gotBases[i] = id.MeshletBase
	}
	assert.Equal(t, wantBases, gotBases)

	// Transparent subrange ordered M3 (farther) before M4 (closer).
	transp := set.ObjectIds[set.TransparentObjectRange.Start:set.TransparentObjectRange.End]
	require.Len(t, transp, 2)
	assert.Equal(t, uint32(30), transp[0].DataIdx)
	assert.Equal(t, uint32(40), transp[1].DataIdx)
}

// Property 9: groups are contiguous in object_ids and, within a
// non-transparent partition, instances sharing a draw_key are adjacent.
func TestSet_Compile_GroupsAreContiguousAndKeyed(t *testing.T) {
	a := DrawKey{MeshID: 1}
	b := DrawKey{MeshID: 2}

	in := Input{
		StaticOpaque: []ObjectRow{
			{Key: b, ObjectIdx: 1, MeshletCount: 1},
			{Key: a, ObjectIdx: 2, MeshletCount: 1},
			{Key: a, ObjectIdx: 3, MeshletCount: 1},
		},
		StaticDirty: true,
	}

	set := &Set{}
	NewUpdate(set).WithOpaque().Compile(in)

	require.Len(t, set.Groups, 2, "a-instances and b-instance must compact into exactly two groups after sorting by key")
	assert.Equal(t, a, set.Groups[0].Key)
	assert.Equal(t, 2, set.Groups[0].Len)
	assert.Equal(t, b, set.Groups[1].Key)
	assert.Equal(t, 1, set.Groups[1].Len)

	total := 0
	for _, g := range set.Groups {
		total += g.Len
	}
	assert.Equal(t, len(set.ObjectIds), total)
}

// Property 10 (meshlet-base monotonicity): for consecutive emitted GpuObjectIds,
// meshlet_base[i+1]-meshlet_base[i] equals the mesh's meshlet count.
func TestSet_Compile_MeshletBaseMonotonicity(t *testing.T) {
	keys := []DrawKey{{MeshID: 1}, {MeshID: 2}, {MeshID: 3}}
	counts := []uint32{4, 1, 2}

	rows := make([]ObjectRow, len(keys))
	for i := range keys {
		rows[i] = ObjectRow{Key: keys[i], ObjectIdx: uint32(i), MeshletCount: counts[i]}
	}

	set := &Set{}
	NewUpdate(set).WithOpaque().Compile(Input{StaticOpaque: rows, StaticDirty: true})

	require.Len(t, set.ObjectIds, 3)
	for i := 0; i < len(set.ObjectIds)-1; i++ {
		delta := set.ObjectIds[i+1].MeshletBase - set.ObjectIds[i].MeshletBase
		assert.Equal(t, counts[i], delta)
	}
}

// Reusing the static region when not dirty must not re-sort or duplicate it.
func TestSet_Compile_ReusesStaticRegionWhenNotDirty(t *testing.T) {
	set := &Set{}
	in := Input{
		StaticOpaque: []ObjectRow{{Key: DrawKey{MeshID: 1}, ObjectIdx: 1, MeshletCount: 2}},
		StaticDirty: true,
	}
	NewUpdate(set).WithOpaque().Compile(in)
	firstLen := len(set.ObjectIds)

	in.StaticDirty = false
	in.DynamicOpaque = []ObjectRow{{Key: DrawKey{MeshID: 2}, ObjectIdx: 2, MeshletCount: 1}}
	NewUpdate(set).WithOpaque().Compile(in)

	assert.Equal(t, firstLen+1, len(set.ObjectIds))
	assert.Equal(t, uint32(1), set.ObjectIds[0].DataIdx, "static instance must be preserved verbatim")
}

func TestDrawCallBuffers_AlternatesAndTracksFirstInstance(t *testing.T) {
	buffers := &DrawCallBuffers{}
	lookup := fakeLookup{}

	groups := []DrawGroup{{Key: DrawKey{MeshID: 1}, Len: 3}, {Key: DrawKey{MeshID: 2}, Len: 2}}
	buffers.BuildDrawCalls(groups, lookup)
	cur := buffers.Current()
	require.Len(t, cur, 2)
	assert.Equal(t, uint32(0), cur[0].FirstInstance)
	assert.Equal(t, uint32(3), cur[1].FirstInstance)

	buffers.Swap()
	assert.Empty(t, buffers.Current())
	assert.Equal(t, cur, buffers.Previous())
}

type fakeLookup struct{}

func (fakeLookup) IndexCount(meshID uint32) uint32 { return meshID * 10 }
func (fakeLookup) FirstIndex(meshID uint32) uint32 { return 0 }
func (fakeLookup) VertexOffset(meshID uint32) int32 { return 0 }
func (fakeLookup) Bounds(meshID uint32) gpudata.Bounds { return gpudata.Bounds{} }
