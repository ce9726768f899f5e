// Package texture implements the bindless texture factory:
// a single descriptor set sized to MaxTextures, slot indices drawn from
// render/handle, an LRU sampler cache, and a per-frame event queue for
// streaming mip updates.
package texture

import (
	"github.com/cogentcore/webgpu/wgpu"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/gekko3d/forge/render/gfx"
	"github.com/gekko3d/forge/render/handle"
)

// Texture is the render-facing resource behind a texture handle.
type Texture struct {
	Image *gfx.Image
	MipViews []*wgpu.TextureView // one per loaded mip, index 0 = base
	Sampler *gfx.Sampler
	MipLevels uint32
	LoadedMipFloor uint32 // highest-resolution mip currently resident; 0 = base
	SlotIndex uint32
}

// EventKind enumerates the per-frame bindless-rebind events.
type EventKind int

const (
	EventTextureReady EventKind = iota
	EventMipUpdate
	EventTextureDropped
)

type Event struct {
	Kind EventKind
	Handle handle.Handle
	OldView *wgpu.TextureView // MipUpdate only
	DropFrame uint64 // MipUpdate only: frame at which OldView may be released
}

// Factory owns the bindless descriptor set and sampler cache.
type Factory struct {
	device *gfx.Device
	textures *handle.Table[*Texture]
	samplerCache *lru.Cache[gfx.SamplerDesc, *gfx.Sampler]

	maxTextures uint32
	framesInFlight uint32
	bindless []*gfx.DescriptorSet // one per frame-in-flight copy
	bindlessLayout *wgpu.BindGroupLayout
	errorTexture *Texture

	events chan Event
	retired []retiredView
	anisotropy uint16
}

type retiredView struct {
	view *wgpu.TextureView
	dropFrame uint64
}

func NewFactory(device *gfx.Device, maxTextures, samplerCacheSize int, framesInFlight uint32) (*Factory, error) {
	cache, err := lru.NewWithEvict(samplerCacheSize, func(_ gfx.SamplerDesc, s *gfx.Sampler) {
		s.Release()
	})
	if err != nil {
		return nil, err
	}

	f := &Factory{
		device: device,
		textures: handle.NewTable[*Texture](),
		samplerCache: cache,
		maxTextures: uint32(maxTextures),
		framesInFlight: framesInFlight,
		events: make(chan Event, 256),
	}
	return f, nil
}

// sampler returns a cached sampler for desc, creating one on a cache miss.
func (f *Factory) sampler(desc gfx.SamplerDesc) (*gfx.Sampler, error) {
	if s, ok := f.samplerCache.Get(desc); ok {
		return s, nil
	}
	s, err := f.device.CreateSampler(desc)
	if err != nil {
		return nil, err
	}
	f.samplerCache.Add(desc, s)
	return s, nil
}

// Allocate reserves a texture slot and record, returning its handle.
// The texture is not bound into the bindless set until a texture_ready
// event is processed by Pump.
func (f *Factory) Allocate(image *gfx.Image, mipLevels uint32, desc gfx.SamplerDesc) (handle.Handle, error) {
	sampler, err := f.sampler(desc)
	if err != nil {
		return handle.Handle{}, err
	}
	t := &Texture{Image: image, MipLevels: mipLevels, Sampler: sampler}
	h := f.textures.Allocate(t)
	t.SlotIndex = h.Slot
	return h, nil
}

// NotifyReady enqueues a texture_ready(id) event, processed by the next Pump.
func (f *Factory) NotifyReady(h handle.Handle) { f.events <- Event{Kind: EventTextureReady, Handle: h} }

// NotifyMipUpdate enqueues a mip_update(id, old_view, drop_frame) event.
func (f *Factory) NotifyMipUpdate(h handle.Handle, oldView *wgpu.TextureView, dropFrame uint64) {
	f.events <- Event{Kind: EventMipUpdate, Handle: h, OldView: oldView, DropFrame: dropFrame}
}

// NotifyDropped enqueues a texture_dropped(id) event.
func (f *Factory) NotifyDropped(h handle.Handle) {
	f.events <- Event{Kind: EventTextureDropped, Handle: h}
}

// Pump drains the per-frame event queue, rebinding the bindless descriptor
// set entries each event implies, and releases any retired mip view whose
// drop_frame has arrived.
func (f *Factory) Pump(currentFrame uint64, rebind func(slot uint32, view *wgpu.TextureView, sampler *gfx.Sampler)) {
	for {
		select {
		case ev := <-f.events:
			f.apply(ev, rebind)
		default:
			goto drained
		}
	}
drained:
	kept := f.retired[:0]
	for _, r := range f.retired {
		if currentFrame >= r.dropFrame {
			r.view.Release()
		} else {
			kept = append(kept, r)
		}
	}
	f.retired = kept
}

func (f *Factory) apply(ev Event, rebind func(slot uint32, view *wgpu.TextureView, sampler *gfx.Sampler)) {
	switch ev.Kind {
	case EventTextureReady:
		t, ok := f.textures.Get(ev.Handle)
		if !ok || len(t.MipViews) == 0 {
			return
		}
		rebind(t.SlotIndex, t.MipViews[0], t.Sampler)
	case EventMipUpdate:
		t, ok := f.textures.Get(ev.Handle)
		if !ok {
			return
		}
		rebind(t.SlotIndex, t.MipViews[0], t.Sampler)
		if ev.OldView != nil {
			f.retired = append(f.retired, retiredView{view: ev.OldView, dropFrame: ev.DropFrame})
		}
	case EventTextureDropped:
		if f.errorTexture != nil {
			slot, ok := f.slotOf(ev.Handle)
			if ok {
				rebind(slot, f.errorTexture.MipViews[0], f.errorTexture.Sampler)
			}
		}
	}
}

func (f *Factory) slotOf(h handle.Handle) (uint32, bool) {
	if f.textures.GetVersion(h.Slot) == 0 {
		return 0, false
	}
	return h.Slot, true
}

// SetErrorTexture registers the 1x1 magenta fallback bound on texture_dropped.
func (f *Factory) SetErrorTexture(t *Texture) { f.errorTexture = t }

// SetAnisotropy stores the level, purges the sampler cache, and waits for
// GPU idle. It builds no samplers and rebinds no textures: the stored level
// is not read when samplers are created, so later samplers still come from
// the caller's SamplerDesc, and textures keep the samplers they were bound
// with.
func (f *Factory) SetAnisotropy(level uint16) error {
	f.anisotropy = level
	f.samplerCache.Purge()
	return f.device.WaitIdle()
}

func (f *Factory) Drop(h handle.Handle, currentFrame uint64) {
	f.textures.Drop(h, currentFrame)
}

func (f *Factory) PumpDrops(currentFrame uint64, framesInFlight uint32) {
	f.textures.Pump(currentFrame, framesInFlight, func(t *Texture) {
		for _, v := range t.MipViews {
			v.Release()
		}
		t.Image.Release()
	})
}
