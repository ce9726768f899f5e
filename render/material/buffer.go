// Package material implements the material factory: per-data-size
// row buffers, a global texture-slots buffer, descriptor sets per
// (data-size x frame), and a per-pass pipeline cache.
package material

import (
	"github.com/cogentcore/webgpu/wgpu"

	"github.com/gekko3d/forge/render/gfx"
)

// Slot indexes a row in a rowBuffer. NoSlot is the "unassigned" sentinel
// (Material.DataSlot/TexturesSlot).
type Slot uint32

const NoSlot Slot = ^Slot(0)

// rowBuffer is a growable GPU storage buffer sub-allocated one fixed-stride
// row at a time via a free list + bump counter.
type rowBuffer struct {
	device *gfx.Device
	debugName string
	rowStride uint64
	rowCount uint32
	buffer *gfx.Buffer

	freeList []Slot
	bumpNext Slot

	dirty []Slot
	cpu []byte // shadow copy written by flush, then uploaded
}

func newRowBuffer(device *gfx.Device, debugName string, rowStride uint64, initialRowCount uint32) (*rowBuffer, error) {
	buf, err := device.CreateBuffer(debugName, rowStride*uint64(initialRowCount), wgpu.BufferUsageStorage|wgpu.BufferUsageCopyDst|wgpu.BufferUsageCopySrc)
	if err != nil {
		return nil, err
	}
	return &rowBuffer{
		device: device,
		debugName: debugName,
		rowStride: rowStride,
		rowCount: initialRowCount,
		buffer: buf,
		cpu: make([]byte, rowStride*uint64(initialRowCount)),
	}, nil
}

// allocate pops the free list or bumps the next-row counter, growing
// (doubling the row count, copying the old buffer verbatim) if exhausted.
func (b *rowBuffer) allocate() (Slot, error) {
	if n := len(b.freeList); n > 0 {
		s := b.freeList[n-1]
		b.freeList = b.freeList[:n-1]
		return s, nil
	}
	if uint32(b.bumpNext) >= b.rowCount {
		if err := b.grow(); err != nil {
			return NoSlot, err
		}
	}
	s := b.bumpNext
	b.bumpNext++
	return s, nil
}

func (b *rowBuffer) free(s Slot) {
	if s == NoSlot {
		return
	}
	b.freeList = append(b.freeList, s)
}

// grow doubles the row count and GPU-copies the old buffer verbatim into the
// new one.
func (b *rowBuffer) grow() error {
	newRowCount := b.rowCount * 2
	if newRowCount == 0 {
		newRowCount = 1
	}
	newSize := b.rowStride * uint64(newRowCount)

	newBuf, err := b.device.CreateBuffer(b.debugName, newSize, b.buffer.Usage)
	if err != nil {
		return err
	}

	encoder, err := b.device.CreateCommandEncoder("material_buffer_grow_" + b.debugName)
	if err != nil {
		return err
	}
	encoder.CopyBufferToBuffer(b.buffer, 0, newBuf, 0, b.buffer.Size)
	cmd, err := encoder.Finish()
	if err != nil {
		return err
	}
	if err := b.device.Submit(gfx.QueueTransfer, []*wgpu.CommandBuffer{cmd}, 0); err != nil {
		return err
	}

	newCPU := make([]byte, newSize)
	copy(newCPU, b.cpu)

	b.buffer = newBuf
	b.cpu = newCPU
	b.rowCount = newRowCount
	return nil
}

// markDirty queues slot for the next flush.
func (b *rowBuffer) markDirty(s Slot) {
	if s == NoSlot {
		return
	}
	b.dirty = append(b.dirty, s)
}

// writeRow sets a dirty row's shadow bytes; flush uploads them.
func (b *rowBuffer) writeRow(s Slot, data []byte) {
	off := uint64(s) * b.rowStride
	copy(b.cpu[off:off+b.rowStride], data)
}

// flush uploads every dirty row's shadow bytes to the GPU buffer and clears
// the dirty list.
func (b *rowBuffer) flush() error {
	if len(b.dirty) == 0 {
		return nil
	}
	for _, s := range b.dirty {
		off := uint64(s) * b.rowStride
		if err := b.device.WriteBuffer(b.buffer, off, b.cpu[off:off+b.rowStride]); err != nil {
			return err
		}
	}
	b.dirty = b.dirty[:0]
	return nil
}
