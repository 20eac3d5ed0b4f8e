package engine

import (
	"fmt"
	"sync/atomic"

	"github.com/spaghettifunk/soco/engine/assets"
	"github.com/spaghettifunk/soco/engine/core"
	"github.com/spaghettifunk/soco/engine/math"
	"github.com/spaghettifunk/soco/engine/platform"
	"github.com/spaghettifunk/soco/engine/renderer"
	"github.com/spaghettifunk/soco/engine/renderer/cache"
	"github.com/spaghettifunk/soco/engine/renderer/components"
	"github.com/spaghettifunk/soco/engine/renderer/descriptors"
	"github.com/spaghettifunk/soco/engine/renderer/frames"
	"github.com/spaghettifunk/soco/engine/renderer/headless"
	"github.com/spaghettifunk/soco/engine/renderer/metadata"
	"github.com/spaghettifunk/soco/engine/renderer/naga"
	"github.com/spaghettifunk/soco/engine/renderer/views"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
	// Engine released everything
	EngineStageShutdown
)

const (
	// CameraSpeed is the walk speed in units per second, multiplied by
	// CameraBoost while shift is held.
	CameraSpeed = 50
	CameraBoost = 2.5
	// metricsInterval is the number of frames between frame time reports.
	metricsInterval = 120
	// rtvHeapCapacity bounds the render target views; the back buffer takes one.
	rtvHeapCapacity = 4
)

// clearColor is light steel blue.
var clearColor = [4]float32{0.690196, 0.768627, 0.870588, 1}

type Engine struct {
	currentStage Stage
	gameInstance *Game
	config       *Config
	isRunning    atomic.Bool

	window       platform.Window
	device       renderer.Device
	assetManager *assets.AssetManager

	table       *headless.Reflector
	library     *naga.Library
	descriptors *descriptors.Allocator
	rtvs        *descriptors.Allocator
	backBuffer  *renderer.Texture
	ctx         *renderer.Context
	ring        *frames.Ring
	commandList renderer.CommandList

	scene  *Scene
	camera *components.Camera

	clock      *core.Clock
	metrics    *core.FrameMetrics
	width      uint32
	height     uint32
	frameCount int

	wireframe    bool
	hideOverlays bool
}

// New creates an engine drawing into window with device. Nothing is created
// on the device before Initialize.
func New(g *Game, cfg *Config, window platform.Window, device renderer.Device) (*Engine, error) {
	if g == nil || cfg == nil || window == nil || device == nil {
		return nil, fmt.Errorf("%w: engine needs a game, a config, a window and a device", core.ErrUnknownResource)
	}
	if g.ApplicationConfig == nil {
		g.ApplicationConfig = &cfg.Application
	}
	return &Engine{
		currentStage: EngineStageUninitialized,
		gameInstance: g,
		config:       cfg,
		window:       window,
		device:       device,
		clock:        core.NewClock(),
		metrics:      core.NewFrameMetrics(),
		width:        cfg.Application.StartWidth,
		height:       cfg.Application.StartHeight,
	}, nil
}

/**
 * @brief Initialize starts the window and builds the render context, the
 * frame ring, the asset manager and the scene, then runs the game's
 * initialization.
 */
func (e *Engine) Initialize() error {
	e.currentStage = EngineStageInitializing
	cfg := e.config

	if err := core.SetLogLevel(cfg.Logging.Level); err != nil {
		return err
	}

	app := e.gameInstance.ApplicationConfig
	if err := e.window.Startup(app.Name, app.StartPosX, app.StartPosY, app.StartWidth, app.StartHeight); err != nil {
		return err
	}
	if w, h := e.window.Size(); w > 0 && h > 0 {
		e.width, e.height = w, h
	}

	targets, err := cfg.Targets()
	if err != nil {
		return err
	}
	e.table = headless.NewReflector()
	e.library = naga.NewLibrary(e.table)
	if e.descriptors, err = descriptors.New(e.device, metadata.DescriptorHeapTypeCBVSRVUAV, cfg.Renderer.SRVHeapCapacity); err != nil {
		return err
	}
	if e.rtvs, err = descriptors.New(e.device, metadata.DescriptorHeapTypeRTV, rtvHeapCapacity); err != nil {
		return err
	}
	e.ctx = &renderer.Context{
		Device:            e.device,
		Reflector:         e.library,
		RootSignatures:    cache.NewRootSignatureCache(e.device),
		Pipelines:         cache.NewPipelineStateCache(e.device),
		Descriptors:       e.descriptors,
		RenderTargetViews: e.rtvs,
		FrameCount:        cfg.Renderer.FrameResources,
		Targets:           targets,
	}
	if err := e.ctx.Validate(); err != nil {
		return err
	}
	if e.backBuffer, err = renderer.NewRenderTarget(e.ctx, metadata.ResourceDesc{
		Name:      "BackBuffer",
		Width:     e.width,
		Height:    e.height,
		Depth:     1,
		MipLevels: 1,
		Format:    targets.BackBuffer,
	}); err != nil {
		return err
	}

	if e.ring, err = frames.NewRing(e.device, cfg.Renderer.FrameResources, PassConstantsSize()); err != nil {
		return err
	}
	if e.commandList, err = e.device.CreateCommandList(e.ring.Current().Allocator); err != nil {
		return fmt.Errorf("%w: command list: %v", core.ErrNativeCall, err)
	}
	if err := e.commandList.Close(); err != nil {
		return err
	}

	if e.assetManager, err = assets.NewAssetManager(cfg.Assets.Dir, cfg.Assets.Watch); err != nil {
		return err
	}
	if err := e.assetManager.Initialize(e.library, e.table); err != nil {
		return err
	}

	if e.scene, err = LoadScene(e.ctx, e.assetManager, cfg.Assets.Scene, e.width, e.height, nil); err != nil {
		return err
	}
	e.camera = newSceneCamera(e.scene.Config().Camera, e.width, e.height)

	if e.gameInstance.FnInitialize != nil {
		if err := e.gameInstance.FnInitialize(e); err != nil {
			return err
		}
	}
	if e.gameInstance.FnOnResize != nil {
		if err := e.gameInstance.FnOnResize(e.width, e.height); err != nil {
			return err
		}
	}

	e.currentStage = EngineStageInitialized
	core.LogInfo("engine initialized: %dx%d, %d frames in flight", e.width, e.height, cfg.Renderer.FrameResources)
	return nil
}

func newSceneCamera(cfg metadata.CameraConfig, width, height uint32) *components.Camera {
	cam := components.NewCamera()
	cam.SetLens(math.DegToRad(cfg.FOV), aspect(width, height), cfg.Near, cfg.Far)
	pos := math.NewVec3(cfg.Position[0], cfg.Position[1], cfg.Position[2])
	target := math.NewVec3(cfg.Target[0], cfg.Target[1], cfg.Target[2])
	if pos != target {
		cam.LookAt(pos, target, math.NewVec3(0, 1, 0))
	} else {
		cam.SetPosition(pos)
	}
	return cam
}

func aspect(width, height uint32) float32 {
	if height == 0 {
		return 1
	}
	return float32(width) / float32(height)
}

func (e *Engine) Context() *renderer.Context {
	return e.ctx
}

func (e *Engine) Scene() *Scene {
	return e.scene
}

func (e *Engine) Camera() *components.Camera {
	return e.camera
}

func (e *Engine) Assets() *assets.AssetManager {
	return e.assetManager
}

// BackBuffer is the presented target every frame is drawn into.
func (e *Engine) BackBuffer() *renderer.Texture {
	return e.backBuffer
}

// CommandList is the list the last frame was recorded into.
func (e *Engine) CommandList() renderer.CommandList {
	return e.commandList
}

func (e *Engine) FrameCount() int {
	return e.frameCount
}

func (e *Engine) Wireframe() bool {
	return e.wireframe
}

func (e *Engine) Stage() Stage {
	return e.currentStage
}

/**
 * @brief Run pumps the window and draws frames until the window closes or
 * the configured frame limit is reached.
 */
func (e *Engine) Run() error {
	if e.currentStage != EngineStageInitialized {
		return fmt.Errorf("engine is not initialized")
	}
	e.currentStage = EngineStageRunning
	e.isRunning.Store(true)
	e.clock.Start()

	maxFrames := e.gameInstance.ApplicationConfig.MaxFrames
	for e.isRunning.Load() {
		if !e.window.PumpMessages() {
			break
		}
		e.clock.Tick()
		dt := e.clock.DeltaTime()

		e.drainReloads()
		if err := e.checkResize(); err != nil {
			return err
		}
		if err := e.handleInput(float32(dt)); err != nil {
			return err
		}
		if e.gameInstance.FnUpdate != nil {
			if err := e.gameInstance.FnUpdate(e, e.window, dt); err != nil {
				return err
			}
		}
		if err := e.Frame(float32(dt), float32(e.clock.TotalTime())); err != nil {
			return err
		}

		e.frameCount++
		e.metrics.Update(dt)
		if e.frameCount%metricsInterval == 0 {
			core.LogDebug("frame %d: %.2f ms, %.0f fps", e.frameCount, e.metrics.FrameTime(), e.metrics.FPS())
		}
		if maxFrames > 0 && e.frameCount >= maxFrames {
			break
		}
	}
	e.isRunning.Store(false)
	e.clock.Stop()
	return nil
}

/**
 * @brief Frame records and submits one frame: it waits for the next frame
 * resource, animates the scene, uploads dirty constants, draws every layer in
 * order into the back buffer and runs the post-process over it.
 */
func (e *Engine) Frame(dt, total float32) error {
	fr, err := e.ring.Advance()
	if err != nil {
		return err
	}
	frame := e.ring.Index()

	if err := e.scene.Update(dt); err != nil {
		return err
	}
	for l := metadata.RenderLayer(0); l < metadata.RenderLayerCount; l++ {
		if err := views.UpdateRenderItems(frame, e.scene.Layer(l)); err != nil {
			return fmt.Errorf("layer %s: %w", l, err)
		}
	}
	if err := e.scene.UpdateMaterials(frame); err != nil {
		return err
	}

	pass := NewPassConstants(e.camera, e.width, e.height, total, dt)
	pass.SetLights(e.scene.Config().Light)
	b, err := pass.Bytes()
	if err != nil {
		return err
	}
	if err := fr.PassCB.CopyData(0, b); err != nil {
		return err
	}

	if err := fr.Allocator.Reset(); err != nil {
		return fmt.Errorf("%w: resetting command allocator: %v", core.ErrNativeCall, err)
	}
	cl := e.commandList
	if err := cl.Reset(fr.Allocator, nil); err != nil {
		return fmt.Errorf("%w: resetting command list: %v", core.ErrNativeCall, err)
	}
	cl.SetDescriptorHeaps(e.descriptors.Heap())
	cl.ResourceBarrier(e.backBuffer.Resource(), metadata.ResourceStatePresent, metadata.ResourceStateRenderTarget)
	cl.ClearRenderTargetView(e.backBuffer.RTV(), clearColor)
	cl.OMSetRenderTargets(e.backBuffer.RTV())

	passAddr := fr.PassCB.Address(0)
	for l := metadata.RenderLayer(0); l < metadata.RenderLayerCount; l++ {
		if l == metadata.RenderLayerUI && e.hideOverlays {
			continue
		}
		views.DrawRenderItems(cl, frame, e.scene.Layer(l), PassCBName, passAddr)
	}
	if post := e.scene.Post(); post != nil {
		post.Apply(cl, e.backBuffer)
	} else {
		cl.ResourceBarrier(e.backBuffer.Resource(), metadata.ResourceStateRenderTarget, metadata.ResourceStatePresent)
	}

	if err := cl.Close(); err != nil {
		return fmt.Errorf("%w: closing command list: %v", core.ErrNativeCall, err)
	}
	if err := e.device.CommandQueue().Execute(cl); err != nil {
		return fmt.Errorf("%w: executing frame: %v", core.ErrNativeCall, err)
	}
	return e.ring.Signal()
}

func (e *Engine) handleInput(dt float32) error {
	w := e.window
	if w.KeyDown(platform.Key1) {
		if err := e.SetWireframe(!e.wireframe); err != nil {
			return err
		}
	}
	if w.KeyDown(platform.KeyH) {
		e.hideOverlays = !e.hideOverlays
	}

	d := CameraSpeed * dt
	if w.KeyHeld(platform.KeyLeftShift) {
		d *= CameraBoost
	}
	if w.KeyHeld(platform.KeyW) {
		e.camera.Walk(d)
	}
	if w.KeyHeld(platform.KeyS) {
		e.camera.Walk(-d)
	}
	if w.KeyHeld(platform.KeyA) {
		e.camera.Strafe(-d)
	}
	if w.KeyHeld(platform.KeyD) {
		e.camera.Strafe(d)
	}
	return nil
}

// SetWireframe switches the terrain material between wireframe with no
// culling and its configured rasterizer state.
func (e *Engine) SetWireframe(on bool) error {
	e.wireframe = on
	t := e.scene.Terrain()
	if t == nil {
		return nil
	}
	mat := t.Material()
	rs := mat.DrawState().Rasterizer
	if cfg, ok := e.scene.matConfigs[mat.Name()]; ok {
		state := metadata.DefaultDrawState()
		if err := cfg.State.Apply(&state); err != nil {
			return err
		}
		rs = state.Rasterizer
	}
	if on {
		rs.FillMode = metadata.FillModeWireframe
		rs.CullMode = metadata.CullModeNone
	}
	core.LogDebug("terrain wireframe %v", on)
	return mat.SetRasterizerState(rs)
}

// checkResize follows the window size: the back buffer and the post-process
// render texture are recreated and the camera lens updated.
func (e *Engine) checkResize() error {
	w, h := e.window.Size()
	if w == 0 || h == 0 || (w == e.width && h == e.height) {
		return nil
	}
	if err := e.ring.Flush(); err != nil {
		return err
	}
	if err := e.backBuffer.Resize(e.ctx, w, h); err != nil {
		return err
	}
	if post := e.scene.Post(); post != nil {
		if err := post.Resize(e.ctx, w, h); err != nil {
			return err
		}
	}
	e.width, e.height = w, h
	cam := e.camera
	cam.SetLens(cam.FovY, aspect(w, h), cam.Near, cam.Far)
	core.LogDebug("resized to %dx%d", w, h)
	if e.gameInstance.FnOnResize != nil {
		return e.gameInstance.FnOnResize(w, h)
	}
	return nil
}

// drainReloads applies every pending asset change and rebuilds the scene at
// most once.
func (e *Engine) drainReloads() {
	rebuild := false
	for {
		select {
		case info := <-e.assetManager.Reloads():
			r, err := e.scene.Reload(info)
			if err != nil {
				core.LogError("reloading %s: %s", info.Path, err.Error())
				continue
			}
			rebuild = rebuild || r
		default:
			if rebuild {
				e.rebuildScene()
			}
			return
		}
	}
}

func (e *Engine) rebuildScene() {
	if err := e.ring.Flush(); err != nil {
		core.LogError("flushing before scene rebuild: %s", err.Error())
		return
	}
	s, err := LoadScene(e.ctx, e.assetManager, e.config.Assets.Scene, e.width, e.height, e.scene.Textures())
	if err != nil {
		core.LogError("rebuilding scene %s, keeping the previous one: %s", e.config.Assets.Scene, err.Error())
		return
	}
	e.scene = s
	if e.wireframe {
		if err := e.SetWireframe(true); err != nil {
			core.LogError("%s", err)
		}
	}
	core.LogInfo("scene %s rebuilt", s.Name())
}

// Stop ends Run after the current frame. It may be called from any goroutine.
func (e *Engine) Stop() {
	e.isRunning.Store(false)
}

// Shutdown waits for the GPU and releases the assets and the window. It is
// safe to call more than once.
func (e *Engine) Shutdown() error {
	if e.currentStage == EngineStageShutdown || e.currentStage == EngineStageShuttingDown {
		return nil
	}
	e.currentStage = EngineStageShuttingDown
	e.isRunning.Store(false)

	if e.ring != nil {
		if err := e.ring.Flush(); err != nil {
			core.LogError("flushing frames: %s", err.Error())
		}
	}
	if e.gameInstance.FnShutdown != nil {
		if err := e.gameInstance.FnShutdown(); err != nil {
			core.LogError("%s", err)
		}
	}
	if e.assetManager != nil {
		if err := e.assetManager.Shutdown(); err != nil {
			core.LogError("%s", err)
		}
	}
	if err := e.window.Shutdown(); err != nil {
		return err
	}
	e.currentStage = EngineStageShutdown
	core.LogInfo("engine shut down after %d frames", e.frameCount)
	return nil
}
