package gfx

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// Window owns a GLFW window and satisfies SurfaceTarget, grounded on the
// window-setup block shared by gpu_operations.go and mod_client.go.
type Window struct {
	glfw *glfw.Window
}

func NewWindow(width, height int, title string) (*Window, error) {
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("gfx: glfw init: %w", err)
	}
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, glfw.True)

	win, err := glfw.CreateWindow(width, height, title, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("gfx: create window: %w", err)
	}
	return &Window{glfw: win}, nil
}

func (w *Window) CreateWgpuSurface(instance *wgpu.Instance) *wgpu.Surface {
	return instance.CreateSurface(wgpuglfw.GetSurfaceDescriptor(w.glfw))
}

// Raw exposes the underlying *glfw.Window for callers (input polling) that
// need GLFW APIs this package doesn't wrap.
func (w *Window) Raw() *glfw.Window { return w.glfw }

func (w *Window) ShouldClose() bool { return w.glfw.ShouldClose() }

func (w *Window) Size() (int, int) { return w.glfw.GetSize() }

func (w *Window) PollEvents() { glfw.PollEvents() }

func (w *Window) Destroy() {
	w.glfw.Destroy()
	glfw.Terminate()
}
