package handle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Property 3: Get(h_old) returns "none" after the slot is recycled;
// Get(h_new) returns the new payload.
func TestTable_GenerationInvalidatesStaleHandles(t *testing.T) {
	tbl := NewTable[string]()

	hOld := tbl.Allocate("first")
	v, ok := tbl.Get(hOld)
	require.True(t, ok)
	assert.Equal(t, "first", v)

	tbl.Drop(hOld, 0)
	// Still "live" until Pump finalizes it, but the handle is already stale.
	_, ok = tbl.Get(hOld)
	assert.False(t, ok)

	hNew := tbl.Allocate("second")
	assert.Equal(t, hOld.Slot, hNew.Slot, "expected the free slot to be reused")
	assert.NotEqual(t, hOld.Generation, hNew.Generation)

	_, ok = tbl.Get(hOld)
	assert.False(t, ok, "old handle must not resolve to the new payload")

	v, ok = tbl.Get(hNew)
	require.True(t, ok)
	assert.Equal(t, "second", v)
}

// Property 4: dropping a handle at frame f keeps the payload live (i.e. not
// finalized) until the orchestrator advances by N frames.
func TestTable_DeferredDropWaitsForFramesInFlight(t *testing.T) {
	tbl := NewTable[int]()
	h := tbl.Allocate(42)

	const framesInFlight = 3
	tbl.Drop(h, 5)

	var finalized []int
	onDrop := func(v int) { finalized = append(finalized, v) }

	tbl.Pump(5, framesInFlight, onDrop)
	assert.Empty(t, finalized, "must not finalize before N frames elapse")

	tbl.Pump(7, framesInFlight, onDrop)
	assert.Empty(t, finalized, "cutoff is exclusive: frame 7 - 3 = 4 < drop frame 5")

	tbl.Pump(9, framesInFlight, onDrop)
	require.Len(t, finalized, 1)
	assert.Equal(t, 42, finalized[0])
	assert.Equal(t, 0, tbl.PendingDrops())
}

func TestTable_GetVersion(t *testing.T) {
	tbl := NewTable[int]()
	h := tbl.Allocate(1)
	assert.Equal(t, h.Generation, tbl.GetVersion(h.Slot))
	assert.Equal(t, uint32(0), tbl.GetVersion(999))
}

func TestTable_StaleSlotOutOfRangeIsNone(t *testing.T) {
	tbl := NewTable[int]()
	_, ok := tbl.Get(Handle{Slot: 3, Generation: 1})
	assert.False(t, ok)
}
