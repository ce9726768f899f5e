package gfx

import "github.com/cogentcore/webgpu/wgpu"

// Buffer wraps a wgpu.Buffer with the size and usage it was created with,
// since wgpu doesn't expose those back off the handle.
type Buffer struct {
	Raw *wgpu.Buffer
	Size uint64
	Usage wgpu.BufferUsage
}

// CreateBuffer allocates an uninitialized buffer sized for later writes.
func (d *Device) CreateBuffer(label string, size uint64, usage wgpu.BufferUsage) (*Buffer, error) {
	raw, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label,
		Size: size,
		Usage: usage,
	})
	if err != nil {
		return nil, newErr(KindResourceCreationFailed, "create buffer "+label, err)
	}
	return &Buffer{Raw: raw, Size: size, Usage: usage}, nil
}

// CreateBufferInit allocates a buffer pre-populated with contents, mirroring
// gpu_operations.go's createVertexIndexBuffers.
func (d *Device) CreateBufferInit(label string, contents []byte, usage wgpu.BufferUsage) (*Buffer, error) {
	raw, err := d.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label: label,
		Contents: contents,
		Usage: usage,
	})
	if err != nil {
		return nil, newErr(KindResourceCreationFailed, "create buffer init "+label, err)
	}
	return &Buffer{Raw: raw, Size: uint64(len(contents)), Usage: usage}, nil
}

// WriteBuffer uploads data at offset via the device queue, used by the
// staging engine's direct-write path for small updates.
func (d *Device) WriteBuffer(buf *Buffer, offset uint64, data []byte) error {
	if err := d.queue.WriteBuffer(buf.Raw, offset, data); err != nil {
		return newErr(KindOther, "write buffer", err)
	}
	return nil
}

func (b *Buffer) Release() {
	if b.Raw != nil {
		b.Raw.Release()
	}
}
