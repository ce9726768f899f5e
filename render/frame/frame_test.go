package frame

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gekko3d/forge/render/gpudata"
	"github.com/gekko3d/forge/render/handle"
	"github.com/gekko3d/forge/render/renderset"
)

// Orchestrator.Tick without a live Device exercises only the
// snapshot->compile->pump pipeline (see the render() nil-Device guard); that
// is the GPU-independent surface this package can unit test.

func TestOrchestrator_Tick_BoundedByFramesInFlight(t *testing.T) {
	var snapshotCalls atomic.Int32
	o := NewOrchestrator(Resources{FramesInFlight: 2}, func(f *Frame) error {
		snapshotCalls.Add(1)
		return nil
	})

	ok1, err1 := o.Tick()
	ok2, err2 := o.Tick()
	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.True(t, ok1)
	assert.True(t, ok2)

	// Every Tick (with a nil Device) returns its frame to the free pool
	// synchronously, so a third Tick should still find a slot free rather
	// than ever block or report backpressure.
	ok3, err3 := o.Tick()
	require.NoError(t, err3)
	assert.True(t, ok3)
	assert.Equal(t, int32(3), snapshotCalls.Load())
}

func TestOrchestrator_Tick_SnapshotErrorPropagates(t *testing.T) {
	o := NewOrchestrator(Resources{FramesInFlight: 1}, func(f *Frame) error {
		return errors.New("snapshot failed")
	})

	ok, err := o.Tick()
	assert.False(t, ok)
	assert.Error(t, err)
}

func TestFrame_Reset_ClearsHandleMapsAndSlices(t *testing.T) {
	f := newFrame()
	f.MeshHandles[3] = handle.Handle{Slot: 3, Generation: 1}
	f.MaterialHandles[7] = handle.Handle{Slot: 7, Generation: 2}
	f.Lights = append(f.Lights, gpudata.Light{})
	f.ActiveCameras = append(f.ActiveCameras, CameraView{})

	f.reset()

	assert.Empty(t, f.MeshHandles)
	assert.Empty(t, f.MaterialHandles)
	assert.Empty(t, f.Lights)
	assert.Empty(t, f.ActiveCameras)
}

func TestMeshLookup_StaleOrMissingHandleReturnsZeroValue(t *testing.T) {
	lookup := &meshLookup{meshes: nil, handles: map[uint32]handle.Handle{}}
	assert.Equal(t, uint32(0), lookup.IndexCount(1))
	assert.Equal(t, uint32(0), lookup.FirstIndex(1))
	assert.Equal(t, int32(0), lookup.VertexOffset(1))
	assert.Equal(t, gpudata.Bounds{}, lookup.Bounds(1))
}

func TestOrchestrator_Tick_CompilesRendersetInput(t *testing.T) {
	set := &renderset.Set{}
	update := renderset.NewUpdate(set).WithOpaque()

	o := NewOrchestrator(Resources{
		FramesInFlight: 1,
		Set:            set,
		Update:         update,
	}, func(f *Frame) error {
		f.Input = renderset.Input{
			StaticDirty: true,
			StaticOpaque: []renderset.ObjectRow{
				{Key: renderset.DrawKey{MeshID: 1}, ObjectIdx: 1, MeshletCount: 1},
			},
		}
		return nil
	})

	ok, err := o.Tick()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Len(t, set.Groups, 1)
}
