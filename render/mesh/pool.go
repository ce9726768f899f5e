package mesh

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/gekko3d/forge/render/alloc"
	"github.com/gekko3d/forge/render/gfx"
)

// pool is one Buffer+BuddyAllocator pair — the unit every vertex attribute
// stream, the index stream, and the meshlet stream are built from
//, grounded on BufferBlockAllocator.
type pool struct {
	device *gfx.Device
	debugName string
	objectSize uint32
	usage wgpu.BufferUsage
	buddy *alloc.Buddy
	buffer *gfx.Buffer
}

func newPool(device *gfx.Device, debugName string, objectSize uint32, usage wgpu.BufferUsage, baseBlockCap, blockCount uint32) (*pool, error) {
	buf, err := device.CreateBuffer(debugName, uint64(objectSize)*uint64(baseBlockCap)*uint64(blockCount), usage)
	if err != nil {
		return nil, err
	}
	return &pool{
		device: device,
		debugName: debugName,
		objectSize: objectSize,
		usage: usage,
		buddy: alloc.New(baseBlockCap, blockCount),
		buffer: buf,
	}, nil
}

// allocate sub-allocates n objects, growing the pool first if needed.
// Growth stalls the GPU (gfx.Device.WaitIdle) and copies the old buffer's
// contents into the new, larger one on the transfer queue — a rare path the
// host app should size initial capacities to avoid.
func (p *pool) allocate(n uint32) (alloc.Block, error) {
	if !p.buddy.HasCapacityFor(n) {
		if err := p.grow(n); err != nil {
			return alloc.Block{}, err
		}
	}
	block, ok := p.buddy.Allocate(n)
	if !ok {
		return alloc.Block{}, fmt.Errorf("mesh: pool %s: allocate %d after grow still failed", p.debugName, n)
	}
	return block, nil
}

func (p *pool) free(block alloc.Block) {
	p.buddy.Free(block)
}

func (p *pool) grow(n uint32) error {
	p.buddy.ReserveFor(n)
	newBlockCount := p.buddy.BlockCount()
	newSize := uint64(p.objectSize) * uint64(p.buddy.BaseBlockCap()) * uint64(newBlockCount)

	if err := p.device.WaitIdle(); err != nil {
		return err
	}

	newBuf, err := p.device.CreateBuffer(p.debugName, newSize, p.usage|wgpu.BufferUsageCopyDst|wgpu.BufferUsageCopySrc)
	if err != nil {
		return err
	}

	encoder, err := p.device.CreateCommandEncoder("mesh_pool_grow_" + p.debugName)
	if err != nil {
		return err
	}
	encoder.CopyBufferToBuffer(p.buffer, 0, newBuf, 0, p.buffer.Size)
	cmd, err := encoder.Finish()
	if err != nil {
		return err
	}
	if err := p.device.Submit(gfx.QueueTransfer, []*wgpu.CommandBuffer{cmd}, 0); err != nil {
		return err
	}

	p.buffer = newBuf
	return nil
}

// upload records a transfer-queue copy from staged bytes into this pool at
// block's byte offset.
func (p *pool) upload(encoder *gfx.CommandEncoder, src *gfx.Buffer, srcOffset uint64, block alloc.Block) {
	dstOffset := uint64(block.Base) * uint64(p.objectSize)
	size := uint64(block.Length) * uint64(p.objectSize)
	encoder.CopyBufferToBuffer(src, srcOffset, p.buffer, dstOffset, size)
}
