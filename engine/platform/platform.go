package platform

import "sync"

/** @brief Keys the engine reacts to. */
type Key int

const (
	KeyUnknown Key = iota
	Key1
	KeyW
	KeyA
	KeyS
	KeyD
	KeyH
	KeyLeftShift
	KeyEscape
)

/**
 * @brief Window is the surface the engine runs in: it pumps messages once
 * per frame and reports key state.
 */
type Window interface {
	Startup(applicationName string, x, y, width, height uint32) error
	// PumpMessages processes pending events. It returns false once the window should close.
	PumpMessages() bool
	// KeyDown reports a key that went down since the previous pump.
	KeyDown(k Key) bool
	// KeyHeld reports a key that is currently down.
	KeyHeld(k Key) bool
	// Size is the current framebuffer size.
	Size() (uint32, uint32)
	Shutdown() error
}

/**
 * @brief KeyState tracks held keys and the keys pressed since the last pump.
 * Windows feed it from their event callbacks.
 */
type KeyState struct {
	mu      sync.Mutex
	held    map[Key]bool
	pressed map[Key]bool
	frame   map[Key]bool
}

func NewKeyState() *KeyState {
	return &KeyState{
		held:    map[Key]bool{},
		pressed: map[Key]bool{},
		frame:   map[Key]bool{},
	}
}

func (s *KeyState) Press(k Key) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.held[k] {
		s.pressed[k] = true
	}
	s.held[k] = true
}

func (s *KeyState) Release(k Key) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.held[k] = false
}

// Latch publishes the keys pressed since the previous latch. Call once per pump.
func (s *KeyState) Latch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frame, s.pressed = s.pressed, map[Key]bool{}
}

func (s *KeyState) Down(k Key) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frame[k]
}

func (s *KeyState) Held(k Key) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.held[k]
}
