// Package handle implements the generational resource handle table shared
// by every render factory (mesh, texture, material, material instance).
package handle

// Handle addresses a payload by (slot, generation). A dereference succeeds
// only if the slot's current generation matches the handle's.
type Handle struct {
	Slot uint32
	Generation uint32
}

type slot[T any] struct {
	generation uint32
	occupied bool
	payload T
}

type deferredDrop[T any] struct {
	frame uint64
	payload T
}

// Table is a dense generational slot table with deferred drops. Payloads
// dropped at frame f remain reachable via their old handle's generation
// check returning false, but the payload value itself is only finalized
// once Pump has observed N frames elapse (N = framesInFlight), matching the
// "N-frames-in-flight" resource-retirement rule.
type Table[T any] struct {
	slots []slot[T]
	freeList []uint32
	deferred []deferredDrop[T]
}

func NewTable[T any]() *Table[T] {
	return &Table[T]{}
}

// Allocate stores payload in a free slot (or appends a new one), bumping
// that slot's generation so any handle referencing a previous occupant of
// the slot is invalidated.
func (t *Table[T]) Allocate(payload T) Handle {
	if n := len(t.freeList); n > 0 {
		idx := t.freeList[n-1]
		t.freeList = t.freeList[:n-1]

		s := &t.slots[idx]
		s.generation++
		s.occupied = true
		s.payload = payload

		return Handle{Slot: idx, Generation: s.generation}
	}

	idx := uint32(len(t.slots))
	t.slots = append(t.slots, slot[T]{generation: 1, occupied: true, payload: payload})
	return Handle{Slot: idx, Generation: 1}
}

// Get returns the payload addressed by h, and false if the handle is stale
// (the slot was recycled since, or never allocated).
func (t *Table[T]) Get(h Handle) (T, bool) {
	var zero T
	if int(h.Slot) >= len(t.slots) {
		return zero, false
	}
	s := &t.slots[h.Slot]
	if !s.occupied || s.generation != h.Generation {
		return zero, false
	}
	return s.payload, true
}

// GetMut returns a pointer to the payload for in-place mutation, and false
// if the handle is stale.
func (t *Table[T]) GetMut(h Handle) (*T, bool) {
	if int(h.Slot) >= len(t.slots) {
		return nil, false
	}
	s := &t.slots[h.Slot]
	if !s.occupied || s.generation != h.Generation {
		return nil, false
	}
	return &s.payload, true
}

// GetVersion returns the slot's current generation (0 if the slot index is
// out of range), used by collaborators — e.g. the staging engine — to
// detect a handle gone stale without holding onto the handle itself.
func (t *Table[T]) GetVersion(slotIdx uint32) uint32 {
	if int(slotIdx) >= len(t.slots) {
		return 0
	}
	return t.slots[slotIdx].generation
}

// Drop marks h's slot free and queues its payload for destruction once
// Pump has advanced past currentFrame + framesInFlight. Does nothing if h
// is already stale.
func (t *Table[T]) Drop(h Handle, currentFrame uint64) {
	if int(h.Slot) >= len(t.slots) {
		return
	}
	s := &t.slots[h.Slot]
	if !s.occupied || s.generation != h.Generation {
		return
	}

	var zero T
	payload := s.payload
	s.payload = zero
	s.occupied = false
	t.freeList = append(t.freeList, h.Slot)
	t.deferred = append(t.deferred, deferredDrop[T]{frame: currentFrame, payload: payload})
}

// Pump finalizes every deferred drop whose frame is older than
// currentFrame - framesInFlight, invoking onDrop (if non-nil) on each
// payload in drop order. Must be called once per tick by the frame
// orchestrator after resources referencing this table's handles have
// retired.
func (t *Table[T]) Pump(currentFrame uint64, framesInFlight uint32, onDrop func(T)) {
	if currentFrame < uint64(framesInFlight) {
		return
	}
	cutoff := currentFrame - uint64(framesInFlight)

	i := 0
	for i < len(t.deferred) && t.deferred[i].frame < cutoff {
		if onDrop != nil {
			onDrop(t.deferred[i].payload)
		}
		i++
	}
	t.deferred = t.deferred[i:]
}

// PendingDrops reports how many payloads are still queued for destruction,
// used by shutdown paths that must drain the table before tearing down the
// backing device.
func (t *Table[T]) PendingDrops() int {
	return len(t.deferred)
}

// Len reports the number of slots ever allocated (occupied or not).
func (t *Table[T]) Len() int {
	return len(t.slots)
}
