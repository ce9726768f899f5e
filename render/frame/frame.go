// Package frame implements the frame orchestrator: the bounded-channel
// frame-slot pool and the per-tick pipeline that turns an ECS snapshot into
// submitted GPU work. Tick runs the whole pipeline synchronously on the
// calling goroutine: the ECS snapshot callback, then renderset.Compile,
// staging, descriptor flush, command recording, and submission. There is no
// separate render goroutine, and the snapshot takes no locks of its own.
package frame

import (
	"errors"
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/forge/render/gfx"
	"github.com/gekko3d/forge/render/gpudata"
	"github.com/gekko3d/forge/render/handle"
	"github.com/gekko3d/forge/render/material"
	"github.com/gekko3d/forge/render/mesh"
	"github.com/gekko3d/forge/render/renderset"
	"github.com/gekko3d/forge/render/staging"
	"github.com/gekko3d/forge/render/texture"
)

// CameraView is the GPU-facing view/projection pair for one active camera,
// resolved from a CameraComponent at snapshot time.
type CameraView struct {
	ViewProj mgl32.Mat4
	Position mgl32.Vec3
}

// Frame is one in-flight frame's scratch state: the renderset compile input,
// the lights and cameras visible this tick, and the slot-to-handle maps that
// bridge DrawKey's bare uint32 mesh/material ids back to generation-checked
// factory handles. A fresh Frame is reused across its lifetime in the free
// channel, so MeshHandles/MaterialHandles are cleared (not reallocated) by
// reset, which Tick calls before the snapshot callback each tick.
type Frame struct {
	Index uint64

	Input         renderset.Input
	Lights        []gpudata.Light
	ActiveCameras []CameraView

	// MeshHandles/MaterialHandles map a DrawKey's bare slot id to the
	// generation-checked handle it currently refers to. Populated by the
	// snapshot callback from live ECS data, so a handle recycled between
	// one tick and the next can never appear stale here — DrawKey is
	// rebuilt fresh every frame from entities that still hold it.
	MeshHandles     map[uint32]handle.Handle
	MaterialHandles map[uint32]handle.Handle
}

func newFrame() *Frame {
	return &Frame{
		MeshHandles:     make(map[uint32]handle.Handle),
		MaterialHandles: make(map[uint32]handle.Handle),
	}
}

func (f *Frame) reset() {
	f.Input = renderset.Input{}
	f.Lights = f.Lights[:0]
	f.ActiveCameras = f.ActiveCameras[:0]
	for k := range f.MeshHandles {
		delete(f.MeshHandles, k)
	}
	for k := range f.MaterialHandles {
		delete(f.MaterialHandles, k)
	}
}

// SnapshotFunc fills in a freshly-reset Frame from live ECS state. It is
// supplied by the caller (the forge package) rather than imported directly,
// since forge must in turn import this package to drive per-tick rendering —
// a direct import the other way would cycle.
type SnapshotFunc func(f *Frame) error

// Resources bundles the factories one render tick drives. They are owned by
// the caller and outlive the Orchestrator.
type Resources struct {
	Device    *gfx.Device
	Meshes    *mesh.Factory
	Textures  *texture.Factory
	Materials *material.Factory
	Staging   *staging.Engine
	Versions  staging.VersionSource

	Set     *renderset.Set
	Update  *renderset.Update
	Buffers *renderset.DrawCallBuffers

	FramesInFlight uint32

	// RebindTexture is invoked once per ready/updated texture slot during
	// Pump, so the caller can patch its bindless descriptor set. Nil is a
	// valid no-op, e.g. in tests that don't exercise descriptor state.
	RebindTexture func(slot uint32, view *wgpu.TextureView, sampler *gfx.Sampler)

	// RecordCommands records and submits the actual draw pass against the
	// acquired swapchain view. The orchestrator owns acquire/present and
	// resource pumping; RecordCommands owns pipeline/bind-group/draw-call
	// specifics, which vary per application and aren't this package's
	// concern. Nil is a valid no-op, e.g. in tests that only exercise the
	// resource-pumping pipeline.
	RecordCommands func(f *Frame, view *wgpu.TextureView) error
}

// Orchestrator owns a buffered pool of N free Frames (N = framesInFlight)
// and drives one render tick at a time on the calling goroutine's behalf via
// Tick. A slot not yet returned by a prior tick's render work makes the next
// Tick a non-blocking no-op, the backpressure the "N frames in flight" bound
// exists to enforce.
type Orchestrator struct {
	res      Resources
	snapshot SnapshotFunc

	free  chan *Frame
	index uint64
}

func NewOrchestrator(res Resources, snapshot SnapshotFunc) *Orchestrator {
	o := &Orchestrator{res: res, snapshot: snapshot}
	n := res.FramesInFlight
	if n == 0 {
		n = 1
	}
	o.free = make(chan *Frame, n)
	for i := uint32(0); i < n; i++ {
		o.free <- newFrame()
	}
	return o
}

// Tick attempts to begin one frame: a non-blocking receive from the free
// pool, a snapshot of ECS state, and a render pass run synchronously on the
// caller's goroutine. It returns (false, nil) when no frame slot is free
// yet — the caller should simply try again next loop iteration rather than
// treat it as an error.
//
// ErrPresentInvalidated comes back without a "frame:" wrapper, so
// errors.Is(err, gfx.ErrPresentInvalidated) matches and the caller can
// reconfigure the surface (via gfx.Device.Reconfigure) and retry; the frame
// slot is still returned to the pool either way.
func (o *Orchestrator) Tick() (bool, error) {
	var f *Frame
	select {
	case f = <-o.free:
	default:
		return false, nil
	}

	f.reset()
	f.Index = o.index
	o.index++

	err := o.render(f)
	o.free <- f
	if err != nil {
		return false, err
	}
	return true, nil
}

// render runs the compile -> stage -> flush -> record -> submit pipeline
// for one frame.
func (o *Orchestrator) render(f *Frame) error {
	if o.snapshot != nil {
		if err := o.snapshot(f); err != nil {
			return fmt.Errorf("frame: snapshot: %w", err)
		}
	}

	if o.res.Update != nil {
		o.res.Update.Compile(f.Input)
	}

	if o.res.Staging != nil && o.res.Versions != nil {
		if err := o.res.Staging.Pump(o.res.Versions); err != nil {
			return fmt.Errorf("frame: staging pump: %w", err)
		}
	}

	rebind := o.res.RebindTexture
	if rebind == nil {
		rebind = func(uint32, *wgpu.TextureView, *gfx.Sampler) {}
	}
	if o.res.Textures != nil {
		o.res.Textures.Pump(f.Index, rebind)
		o.res.Textures.PumpDrops(f.Index, o.res.FramesInFlight)
	}
	if o.res.Materials != nil {
		if err := o.res.Materials.Flush(); err != nil {
			return fmt.Errorf("frame: material flush: %w", err)
		}
	}
	if o.res.Meshes != nil {
		o.res.Meshes.Pump(f.Index, o.res.FramesInFlight)
	}

	if o.res.Buffers != nil && o.res.Set != nil {
		lookup := &meshLookup{meshes: o.res.Meshes, handles: f.MeshHandles}
		o.res.Buffers.BuildDrawCalls(o.res.Set.Groups, lookup)
		o.res.Buffers.Swap()
	}

	// Device is nil in tests that only exercise the resource-pumping
	// pipeline above (no live wgpu backend available off-GPU); acquire and
	// present are skipped in that case rather than faked.
	if o.res.Device == nil {
		return nil
	}

	view, err := o.res.Device.AcquireSurfaceImage()
	if err != nil {
		if errors.Is(err, gfx.ErrPresentInvalidated) {
			return err
		}
		return fmt.Errorf("frame: acquire surface image: %w", err)
	}

	if o.res.RecordCommands != nil {
		if err := o.res.RecordCommands(f, view); err != nil {
			return fmt.Errorf("frame: record commands: %w", err)
		}
	}

	if err := o.res.Device.Present(); err != nil {
		return err
	}
	return nil
}
