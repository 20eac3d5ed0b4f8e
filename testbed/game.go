package testbed

import (
	stdmath "math"

	"github.com/spaghettifunk/soco/engine"
	"github.com/spaghettifunk/soco/engine/core"
	"github.com/spaghettifunk/soco/engine/platform"
	"github.com/spaghettifunk/soco/engine/renderer/material"
	"github.com/spaghettifunk/soco/engine/renderer/metadata"
)

// SunMaterial is the material whose glow the testbed animates.
const SunMaterial = "Sun"

type gameState struct {
	totalTime float64
	width     uint32
	height    uint32
	sun       *material.Material
	baseGlow  [4]float32
}

type TestGame struct {
	*engine.Game
	state *gameState
}

func NewTestGame(config *engine.ApplicationConfig) *TestGame {
	state := &gameState{}
	tg := &TestGame{
		Game: &engine.Game{
			ApplicationConfig: config,
			State:             state,
		},
		state: state,
	}

	tg.FnInitialize = tg.Initialize
	tg.FnUpdate = tg.Update
	tg.FnOnResize = tg.OnResize
	tg.FnShutdown = tg.Shutdown

	return tg
}

func (g *TestGame) Initialize(e *engine.Engine) error {
	s := e.Scene()
	core.LogInfo("testbed: scene %s loaded", s.Name())
	for l := metadata.RenderLayer(0); l < metadata.RenderLayerCount; l++ {
		if n := len(s.Layer(l)); n > 0 {
			core.LogDebug("  layer %s: %d items", l, n)
		}
	}

	sun, ok := s.Material(SunMaterial)
	if !ok || sun.ConstantBuffer() == nil {
		core.LogWarn("testbed: no %s material with constants, the glow stays static", SunMaterial)
		return nil
	}
	mc, err := material.Data[engine.MaterialConstants](sun)
	if err != nil {
		// the shader declares a shorter cbMaterial
		core.LogDebug("testbed: %s constants: %s", SunMaterial, err.Error())
		return nil
	}
	g.state.sun = sun
	g.state.baseGlow = [4]float32{mc.DiffuseAlbedo.X, mc.DiffuseAlbedo.Y, mc.DiffuseAlbedo.Z, mc.DiffuseAlbedo.W}
	return nil
}

// Update pulses the sun's albedo. Scene rebuilds replace the material, so
// it is looked up again when the scene changed.
func (g *TestGame) Update(e *engine.Engine, input platform.Window, deltaTime float64) error {
	g.state.totalTime += deltaTime
	if cur, ok := e.Scene().Material(SunMaterial); ok && cur != g.state.sun {
		if err := g.Initialize(e); err != nil {
			return err
		}
	}
	if g.state.sun == nil {
		return nil
	}
	pulse := float32(0.9 + 0.1*stdmath.Sin(g.state.totalTime*2))
	base := g.state.baseGlow
	return material.Modify(g.state.sun, func(mc *engine.MaterialConstants) {
		mc.DiffuseAlbedo.X = base[0] * pulse
		mc.DiffuseAlbedo.Y = base[1] * pulse
		mc.DiffuseAlbedo.Z = base[2] * pulse
	})
}

func (g *TestGame) OnResize(width uint32, height uint32) error {
	g.state.width = width
	g.state.height = height
	core.LogDebug("testbed: resized to %dx%d", width, height)
	return nil
}

func (g *TestGame) Shutdown() error {
	core.LogInfo("testbed: shutting down after %.1fs", g.state.totalTime)
	return nil
}
