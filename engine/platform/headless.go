package platform

/**
 * @brief Headless is a window without a surface. It runs a fixed number of
 * frames, or forever when Frames is zero, and plays back scripted key presses.
 */
type Headless struct {
	Width, Height uint32
	Frames        int
	// Script maps a frame number to the keys pressed on that frame.
	Script map[int][]Key

	keys  *KeyState
	frame int
}

func NewHeadless(width, height uint32, frames int) *Headless {
	return &Headless{
		Width:  width,
		Height: height,
		Frames: frames,
		Script: map[int][]Key{},
		keys:   NewKeyState(),
	}
}

func (h *Headless) Startup(applicationName string, x, y, width, height uint32) error {
	if h.Width == 0 || h.Height == 0 {
		h.Width, h.Height = width, height
	}
	return nil
}

func (h *Headless) PumpMessages() bool {
	if h.Frames > 0 && h.frame >= h.Frames {
		return false
	}
	for _, k := range h.Script[h.frame] {
		h.keys.Press(k)
		h.keys.Release(k)
	}
	h.keys.Latch()
	h.frame++
	return true
}

func (h *Headless) KeyDown(k Key) bool {
	return h.keys.Down(k)
}

func (h *Headless) KeyHeld(k Key) bool {
	return h.keys.Held(k)
}

func (h *Headless) Size() (uint32, uint32) {
	return h.Width, h.Height
}

// Hold keeps k down until Release.
func (h *Headless) Hold(k Key) {
	h.keys.Press(k)
}

func (h *Headless) Release(k Key) {
	h.keys.Release(k)
}

// Frame is the number of pumped frames.
func (h *Headless) Frame() int {
	return h.frame
}

func (h *Headless) Shutdown() error {
	return nil
}
