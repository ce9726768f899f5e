// Package staging implements the staging engine: a request
// queue drained under a per-frame byte budget, two-job (transfer + graphics)
// completion tracking, and stale-version request dropping.
package staging

import (
	"github.com/cogentcore/webgpu/wgpu"

	"github.com/gekko3d/forge/render/gfx"
	"github.com/gekko3d/forge/render/handle"
)

// RequestKind is the kind of resource a staging request uploads.
type RequestKind int

const (
	RequestMesh RequestKind = iota
	RequestTextureFirstMip
	RequestTextureMip
)

// Request is one pending upload. Version is the handle generation the
// request was built against; it's checked against the live handle table
// right before the copy is recorded so a request racing a drop is dropped
// silently instead of corrupting a recycled slot (validity check).
type Request struct {
	Kind RequestKind
	Target handle.Handle
	Version uint32
	Bytes uint64
	StagingBuf *gfx.Buffer
	NeedsBlit bool // mip generation via blit needs the graphics command buffer
	Record func(transfer, graphics *gfx.CommandEncoder)
}

// VersionSource is the subset of handle.Table[T]'s API the staging engine
// needs to validate a request against (validity check).
type VersionSource interface {
	GetVersion(slot uint32) uint32
}

type upload struct {
	transferCmd *wgpu.CommandBuffer
	graphicsCmd *wgpu.CommandBuffer
	resources []handle.Handle
}

// Engine owns the pending-request queue and the outstanding-upload list.
type Engine struct {
	device *gfx.Device
	budgetBytes uint64
	pending []Request
	outstanding []upload
}

func NewEngine(device *gfx.Device, budgetBytes uint64) *Engine {
	return &Engine{device: device, budgetBytes: budgetBytes}
}

// Add enqueues a staging request.
func (e *Engine) Add(r Request) { e.pending = append(e.pending, r) }

// Pump drains pending requests under the per-frame byte budget, recording
// them into a transfer command buffer (always) and a graphics command
// buffer (only if any drained request needs a blit), then submits both.
// versions validates each request before it is recorded; stale requests are
// dropped silently.
func (e *Engine) Pump(versions VersionSource) error {
	if len(e.pending) == 0 {
		return nil
	}

	transferEncoder, err := e.device.CreateCommandEncoder("staging_transfer")
	if err != nil {
		return err
	}
	var graphicsEncoder *gfx.CommandEncoder

	var drained int
	var bytes uint64
	var resources []handle.Handle

	for drained < len(e.pending) {
		req := e.pending[drained]
		drained++

		if versions.GetVersion(req.Target.Slot) != req.Version {
			continue // stale request, dropped silently
		}

		if req.NeedsBlit && graphicsEncoder == nil {
			graphicsEncoder, err = e.device.CreateCommandEncoder("staging_graphics")
			if err != nil {
				return err
			}
		}
		req.Record(transferEncoder, graphicsEncoder)
		resources = append(resources, req.Target)
		bytes += req.Bytes

		// At least one request is always taken before the budget check can
		// stop the loop (at least one request is always taken first).
		if bytes >= e.budgetBytes {
			break
		}
	}
	e.pending = e.pending[drained:]

	transferCmd, err := transferEncoder.Finish()
	if err != nil {
		return err
	}
	if err := e.device.Submit(gfx.QueueTransfer, []*wgpu.CommandBuffer{transferCmd}, 0); err != nil {
		return err
	}

	up := upload{transferCmd: transferCmd, resources: resources}
	if graphicsEncoder != nil {
		graphicsCmd, err := graphicsEncoder.Finish()
		if err != nil {
			return err
		}
		if err := e.device.Submit(gfx.QueueMain, []*wgpu.CommandBuffer{graphicsCmd}, 0); err != nil {
			return err
		}
		up.graphicsCmd = graphicsCmd
	}

	e.outstanding = append(e.outstanding, up)
	return nil
}

// JobPoller abstracts the backend's async job-status query so PollCompletions
// stays backend-agnostic; github.com/cogentcore/webgpu exposes completion via
// queue.OnSubmittedWorkDone, which a caller adapts to this shape.
type JobPoller func(cmd *wgpu.CommandBuffer) (done bool)

// PollCompletions inspects each outstanding (transfer, graphics?) pair and,
// for completed pairs, invokes onComplete with the resources that upload
// touched.
func (e *Engine) PollCompletions(poll JobPoller, onComplete func([]handle.Handle)) {
	kept := e.outstanding[:0]
	for _, up := range e.outstanding {
		if up.graphicsCmd != nil && !poll(up.graphicsCmd) {
			kept = append(kept, up)
			continue
		}
		if !poll(up.transferCmd) {
			kept = append(kept, up)
			continue
		}
		onComplete(up.resources)
	}
	e.outstanding = kept
}

func (e *Engine) PendingCount() int { return len(e.pending) }
func (e *Engine) OutstandingCount() int { return len(e.outstanding) }
