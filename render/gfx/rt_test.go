package gfx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestDevice() *Device {
	return &Device{
		blasEntries: make(map[uint64]blasEntry),
		tlasEntries: make(map[uint64]tlasEntry),
	}
}

func TestDevice_BuildBlasPublishesDistinctAddresses(t *testing.T) {
	d := newTestDevice()
	vb, ib := &Buffer{Size: 12}, &Buffer{Size: 4}

	h1, err := d.BuildBlas(vb, ib, 3, 3)
	assert.NoError(t, err)
	h2, err := d.BuildBlas(vb, ib, 3, 3)
	assert.NoError(t, err)

	a1, err := d.BlasDeviceAddress(h1)
	assert.NoError(t, err)
	a2, err := d.BlasDeviceAddress(h2)
	assert.NoError(t, err)

	assert.NotZero(t, a1)
	assert.NotZero(t, a2)
	assert.NotEqual(t, a1, a2)
}

func TestDevice_BuildBlasRejectsNilBuffers(t *testing.T) {
	d := newTestDevice()
	_, err := d.BuildBlas(nil, nil, 0, 0)
	assert.Error(t, err)
}

func TestDevice_BlasDeviceAddressUnknownHandle(t *testing.T) {
	d := newTestDevice()
	_, err := d.BlasDeviceAddress(BlasHandle{id: 999})
	assert.Error(t, err)
}

func TestDevice_BuildTlasOverKnownInstances(t *testing.T) {
	d := newTestDevice()
	vb, ib := &Buffer{Size: 12}, &Buffer{Size: 4}
	h1, _ := d.BuildBlas(vb, ib, 3, 3)
	h2, _ := d.BuildBlas(vb, ib, 3, 3)

	tlas, err := d.BuildTlas([]BlasHandle{h1, h2})
	assert.NoError(t, err)
	assert.Len(t, d.tlasEntries[tlas.id].instances, 2)
}

func TestDevice_BuildTlasRejectsUnknownInstance(t *testing.T) {
	d := newTestDevice()
	_, err := d.BuildTlas([]BlasHandle{{id: 42}})
	assert.Error(t, err)
}
