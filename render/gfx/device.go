// Package gfx is the thin, language-neutral graphics-API wrapper the
// render core consumes. It wraps github.com/cogentcore/webgpu
// the way gekko's gpu_operations.go does, generalized into a Device that
// owns the adapter/device/queue/surface and exposes resource creation,
// command recording, and submission as methods instead of free functions.
package gfx

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/cogentcore/webgpu/wgpu"
)

// Kind distinguishes categories of background-operation failure.
type Kind int

const (
	KindResourceCreationFailed Kind = iota
	KindStagingVersionMismatch
	KindPresentInvalidated
	KindUnsupported
	KindOther
)

// Error wraps a backend failure with its Kind.
type Error struct {
	Kind Kind
	Message string
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func newErr(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// ErrUnsupported is the error value of KindUnsupported. No operation in this
// package returns it: BLAS/TLAS builds and device-address queries are served
// by the CPU-side registry in rt.go.
var ErrUnsupported = newErr(KindUnsupported, "operation not supported by the bound graphics backend", nil)

// ErrPresentInvalidated is returned by Present when the surface must be
// reconfigured (window resize, device loss) before the next frame.
var ErrPresentInvalidated = newErr(KindPresentInvalidated, "surface present invalidated", nil)

// QueueKind selects one of the four logical queues the device tracks.
type QueueKind int

const (
	QueueMain QueueKind = iota
	QueueTransfer
	QueueCompute
	QueuePresent
)

// TimelineSemaphore is a monotonically increasing value used to order
// submissions across queues.
type TimelineSemaphore struct {
	value atomic.Uint64
}

func (t *TimelineSemaphore) Value() uint64 { return t.value.Load() }

func (t *TimelineSemaphore) Signal(v uint64) {
	for {
		cur := t.value.Load()
		if v <= cur {
			return
		}
		if t.value.CompareAndSwap(cur, v) {
			return
		}
	}
}

// Device owns the adapter/device/queue/surface and is the single entry
// point every other render-core component records GPU work through.
// Descriptor-set bindings are only ever mutated from the render thread
// ; Device itself does no internal locking — callers serialize
// access to it the way the frame orchestrator does.
type Device struct {
	instance *wgpu.Instance
	surface *wgpu.Surface
	adapter *wgpu.Adapter
	device *wgpu.Device
	queue *wgpu.Queue
	surfaceConfig *wgpu.SurfaceConfiguration

	width, height uint32

	Main TimelineSemaphore
	Transfer TimelineSemaphore
	Compute TimelineSemaphore
	Present_ TimelineSemaphore

	blasMu      sync.Mutex
	blasEntries map[uint64]blasEntry
	tlasEntries map[uint64]tlasEntry
}

// SurfaceTarget abstracts the windowing collaborator down to the one thing
// the core needs — a wgpu surface descriptor. Window creation itself stays
// out of this package.
type SurfaceTarget interface {
	CreateWgpuSurface(instance *wgpu.Instance) *wgpu.Surface
}

func NewDevice(target SurfaceTarget, width, height uint32) (*Device, error) {
	instance := wgpu.CreateInstance(nil)
	surface := target.CreateWgpuSurface(instance)

	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: surface,
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		return nil, newErr(KindResourceCreationFailed, "request adapter", err)
	}

	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "forge device",
		RequiredFeatures: nil,
		RequiredLimits: nil,
	})
	if err != nil {
		return nil, newErr(KindResourceCreationFailed, "request device", err)
	}
	queue := device.GetQueue()

	caps := surface.GetCapabilities(adapter)
	surfaceConfig := &wgpu.SurfaceConfiguration{
		Usage: wgpu.TextureUsageRenderAttachment,
		Format: caps.Formats[0],
		Width: width,
		Height: height,
		PresentMode: wgpu.PresentModeFifo,
		AlphaMode: caps.AlphaModes[0],
	}
	surface.Configure(adapter, device, surfaceConfig)

	return &Device{
		instance: instance,
		surface: surface,
		adapter: adapter,
		device: device,
		queue: queue,
		surfaceConfig: surfaceConfig,
		width: width,
		height: height,
		blasEntries: make(map[uint64]blasEntry),
		tlasEntries: make(map[uint64]tlasEntry),
	}, nil
}

// WaitIdle blocks until all submitted GPU work completes. Used only on the
// rare "pool growth" stall path — never in the per-frame
// critical path.
func (d *Device) WaitIdle() error {
	d.device.Poll(true, nil)
	return nil
}

// Reconfigure rebuilds the swapchain after PresentInvalidated, e.g. after a
// window resize.
func (d *Device) Reconfigure(width, height uint32) error {
	d.width, d.height = width, height
	d.surfaceConfig.Width = width
	d.surfaceConfig.Height = height
	d.surface.Configure(d.adapter, d.device, d.surfaceConfig)
	return nil
}

func (d *Device) SurfaceFormat() wgpu.TextureFormat { return d.surfaceConfig.Format }
func (d *Device) Raw() *wgpu.Device { return d.device }
func (d *Device) Queue() *wgpu.Queue { return d.queue }

// AcquireSurfaceImage obtains the next swapchain image to render into.
// Returns ErrPresentInvalidated if the surface needs reconfiguring.
func (d *Device) AcquireSurfaceImage() (*wgpu.TextureView, error) {
	tex, err := d.surface.GetCurrentTexture()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPresentInvalidated, err)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		return nil, newErr(KindResourceCreationFailed, "create surface image view", err)
	}
	return view, nil
}

// Present flips the acquired surface image. Backend "invalidated" signals
// (lost or outdated surface) are surfaced as ErrPresentInvalidated so the
// frame orchestrator can reconfigure and skip the frame.
func (d *Device) Present() error {
	if err := d.surface.Present(); err != nil {
		if errors.Is(err, wgpu.ErrSurfaceLost) || errors.Is(err, wgpu.ErrSurfaceOutdated) {
			return ErrPresentInvalidated
		}
		return newErr(KindOther, "present", err)
	}
	return nil
}

// Submit submits encoded command buffers to the named logical queue and
// advances that queue's timeline semaphore.
func (d *Device) Submit(kind QueueKind, buffers []*wgpu.CommandBuffer, signal uint64) error {
	raw := make([]wgpu.CommandBuffer, len(buffers))
	for i, b := range buffers {
		raw[i] = *b
	}
	d.device.QueueSubmit(raw)

	switch kind {
	case QueueMain:
		d.Main.Signal(signal)
	case QueueTransfer:
		d.Transfer.Signal(signal)
	case QueueCompute:
		d.Compute.Signal(signal)
	case QueuePresent:
		d.Present_.Signal(signal)
	}
	return nil
}
