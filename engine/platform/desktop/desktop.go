package desktop

import (
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/spaghettifunk/soco/engine/core"
	"github.com/spaghettifunk/soco/engine/platform"
)

func init() {
	// GLFW event handling must run on the main OS thread
	runtime.LockOSThread()
}

var keyMap = map[glfw.Key]platform.Key{
	glfw.Key1:         platform.Key1,
	glfw.KeyW:         platform.KeyW,
	glfw.KeyA:         platform.KeyA,
	glfw.KeyS:         platform.KeyS,
	glfw.KeyD:         platform.KeyD,
	glfw.KeyH:         platform.KeyH,
	glfw.KeyLeftShift: platform.KeyLeftShift,
	glfw.KeyEscape:    platform.KeyEscape,
}

/** @brief A glfw window with no client API; the native device presents into it. */
type Platform struct {
	Window *glfw.Window
	keys   *platform.KeyState
	width  uint32
	height uint32
}

func New() *Platform {
	return &Platform{keys: platform.NewKeyState()}
}

func (p *Platform) Startup(applicationName string, x, y, width, height uint32) error {
	if err := glfw.Init(); err != nil {
		core.LogError("failed to initialize glfw: %s", err)
		return err
	}

	glfw.WindowHint(glfw.Visible, glfw.False)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)

	window, err := glfw.CreateWindow(int(width), int(height), applicationName, nil, nil)
	if err != nil {
		core.LogError("failed to create window: %s", err)
		return err
	}
	p.Window = window
	p.width, p.height = width, height

	p.Window.SetKeyCallback(p.keyCallback)
	p.Window.SetFramebufferSizeCallback(p.framebufferSizeCallback)
	p.Window.SetPos(int(x), int(y))
	p.Window.Show()
	return nil
}

func (p *Platform) PumpMessages() bool {
	glfw.PollEvents()
	p.keys.Latch()
	return !p.Window.ShouldClose()
}

func (p *Platform) KeyDown(k platform.Key) bool {
	return p.keys.Down(k)
}

func (p *Platform) KeyHeld(k platform.Key) bool {
	return p.keys.Held(k)
}

func (p *Platform) Size() (uint32, uint32) {
	return p.width, p.height
}

func (p *Platform) Shutdown() error {
	if p.Window != nil {
		p.Window.Destroy()
	}
	glfw.Terminate()
	return nil
}

func (p *Platform) keyCallback(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
	k, ok := keyMap[key]
	if !ok {
		return
	}
	switch action {
	case glfw.Press:
		p.keys.Press(k)
		if k == platform.KeyEscape {
			w.SetShouldClose(true)
		}
	case glfw.Release:
		p.keys.Release(k)
	}
}

func (p *Platform) framebufferSizeCallback(w *glfw.Window, width, height int) {
	p.width, p.height = uint32(width), uint32(height)
}
