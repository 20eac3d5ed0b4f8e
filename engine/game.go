package engine

import (
	"github.com/spaghettifunk/soco/engine/platform"
)

/**
 * @brief Game is the application plugged into the engine. Every callback is
 * optional. State is owned by the game and never touched by the engine.
 */
type Game struct {
	ApplicationConfig *ApplicationConfig
	State             interface{}
	FnInitialize      Initialize
	FnUpdate          Update
	FnOnResize        OnResize
	FnShutdown        Shutdown
}

// Initialize runs once the scene is built.
type Initialize func(e *Engine) error

// Update runs once per frame before the scene animates.
type Update func(e *Engine, input platform.Window, deltaTime float64) error
type OnResize func(width uint32, height uint32) error
type Shutdown func() error
