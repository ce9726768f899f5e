package forge

import (
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/forge/render/frame"
	"github.com/gekko3d/forge/render/gfx"
)

// ClientModule owns the platform window and GPU device and drives one
// render/frame.Orchestrator tick per Render stage. It replaces the
// teacher's original per-entity immediate-mode wgpu draw loop: window and
// device creation are delegated to render/gfx (gfx.Window, gfx.NewDevice),
// and per-tick rendering goes through the Orchestrator's
// snapshot -> compile -> stage -> record -> present pipeline instead of a
// hand-rolled render pass built fresh every frame.
type ClientModule struct {
	WindowWidth  int
	WindowHeight int
	WindowTitle  string
}

// TransformComponent is the position/rotation/scale every renderable and
// camera entity carries. Rotation is a single yaw angle, matching the
// teacher's original convention; FlyingCameraModule tracks full
// pitch/yaw/lookAt state on CameraComponent instead, since a camera's
// orientation needs more than TransformComponent's single angle.
type TransformComponent struct {
	Position mgl32.Vec3
	Rotation float32
	Scale    mgl32.Vec3
}

// CameraComponent is the single active camera's view parameters. Yaw/Pitch
// and LookAt are maintained by FlyingCameraModule when present; a camera
// spawned without that module simply leaves them at zero and is aimed by
// Direction alone.
type CameraComponent struct {
	Position  mgl32.Vec3
	Direction mgl32.Vec3
	Up        mgl32.Vec3
	Fov       float32
	Aspect    float32
	Near      float32
	Far       float32

	Yaw    float32
	Pitch  float32
	LookAt mgl32.Vec3
}

// WindowState wraps the live GLFW window. InputModule reads windowGlfw
// directly (same package), matching the teacher's original field-sharing
// convention instead of exposing getters for a single-consumer field.
type WindowState struct {
	windowGlfw   *glfw.Window
	WindowWidth  int
	WindowHeight int
	windowTitle  string
}

func (mod ClientModule) Install(app *App, cmd *Commands) {
	width, height, title := mod.WindowWidth, mod.WindowHeight, mod.WindowTitle
	if width <= 0 {
		width = 1280
	}
	if height <= 0 {
		height = 720
	}
	if title == "" {
		title = "forge"
	}

	win, err := gfx.NewWindow(width, height, title)
	if err != nil {
		panic(err)
	}

	device, err := gfx.NewDevice(win, uint32(width), uint32(height))
	if err != nil {
		panic(err)
	}

	orch := frame.NewOrchestrator(frame.Resources{
		Device:         device,
		FramesInFlight: 2,
	}, RenderFrameSnapshot(app))

	cmd.AddResources(
		&WindowState{
			windowGlfw:   win.Raw(),
			WindowWidth:  width,
			WindowHeight: height,
			windowTitle:  title,
		},
		&renderState{device: device, orchestrator: orch},
	)

	app.UseSystem(
		System(windowEventsSystem).
			InStage(PreUpdate).
			RunAlways(),
	)
	app.UseSystem(
		System(renderTickSystem).
			InStage(Render).
			RunAlways(),
	)
}

// renderState is ClientModule's private resource: the device and
// orchestrator it built at Install time, driven once per tick by
// renderTickSystem.
type renderState struct {
	device       *gfx.Device
	orchestrator *frame.Orchestrator
}

// renderTickSystem drives one Orchestrator.Tick per Render stage. A false,
// nil return means every frame slot was still in flight — not an error,
// just back-pressure — so the tick is simply skipped until the next one.
func renderTickSystem(rs *renderState) {
	if _, err := rs.orchestrator.Tick(); err != nil {
		panic(err)
	}
}

func windowEventsSystem(state *WindowState) {
	if !state.windowGlfw.ShouldClose() {
		glfw.PollEvents()
	}
}
