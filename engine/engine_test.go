package engine

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/soco/engine/assets"
	"github.com/spaghettifunk/soco/engine/math"
	"github.com/spaghettifunk/soco/engine/platform"
	"github.com/spaghettifunk/soco/engine/renderer/components"
	"github.com/spaghettifunk/soco/engine/renderer/headless"
	"github.com/spaghettifunk/soco/engine/renderer/metadata"
	"github.com/spaghettifunk/soco/engine/renderer/views"
)

const litShader = `
name = "Lit"

[stages.vs]
code = "lit.vs"
  [[stages.vs.bindings]]
  name = "cbPerObject"
  type = "cbuffer"
  register = 0
  [[stages.vs.bindings]]
  name = "cbPass"
  type = "cbuffer"
  register = 1
  [[stages.vs.constant_buffers]]
  name = "cbPerObject"
  size = 64
  [[stages.vs.constant_buffers]]
  name = "cbPass"
  size = 1248
  [[stages.vs.inputs]]
  semantic = "POSITION"
  components = 3
  [[stages.vs.inputs]]
  semantic = "NORMAL"
  components = 3
  [[stages.vs.inputs]]
  semantic = "TEXCOORD"
  components = 2

[stages.ps]
code = "lit.ps"
  [[stages.ps.bindings]]
  name = "cbMaterial"
  type = "cbuffer"
  register = 2
  [[stages.ps.bindings]]
  name = "cbPass"
  type = "cbuffer"
  register = 1
  [[stages.ps.bindings]]
  name = "gDiffuseMap"
  type = "texture"
  register = 0
  [[stages.ps.constant_buffers]]
  name = "cbMaterial"
  size = 96
`

const terrainShader = `
name = "Terrain"

[stages.vs]
code = "terrain.vs"
  [[stages.vs.inputs]]
  semantic = "POSITION"
  components = 3
  [[stages.vs.inputs]]
  semantic = "TEXCOORD"
  components = 2

[stages.hs]
code = "terrain.hs"

[stages.ds]
code = "terrain.ds"
control_points = 4
  [[stages.ds.bindings]]
  name = "cbPerObject"
  type = "cbuffer"
  register = 0
  [[stages.ds.bindings]]
  name = "cbPass"
  type = "cbuffer"
  register = 1
  [[stages.ds.bindings]]
  name = "HeightMap"
  type = "texture"
  register = 0
  [[stages.ds.constant_buffers]]
  name = "cbPerObject"
  size = 16

[stages.ps]
code = "terrain.ps"
`

const skyShader = `
name = "Sky"

[stages.vs]
code = "sky.vs"
  [[stages.vs.bindings]]
  name = "cbPass"
  type = "cbuffer"
  register = 1
  [[stages.vs.inputs]]
  semantic = "POSITION"
  components = 3

[stages.ps]
code = "sky.ps"
  [[stages.ps.bindings]]
  name = "gCubeMap"
  type = "texture"
  register = 0
`

const quadShader = `
name = "Draw2D"

[stages.vs]
code = "quad.vs"
  [[stages.vs.bindings]]
  name = "cbTexPosition"
  type = "cbuffer"
  register = 0
  [[stages.vs.constant_buffers]]
  name = "cbTexPosition"
  size = 16

[stages.ps]
code = "quad.ps"
  [[stages.ps.bindings]]
  name = "MainTex"
  type = "texture"
  register = 0
`

const shadeRedShader = `
name = "ShadeRed"

[stages.cs]
code = "shadered.cs"
  [[stages.cs.bindings]]
  name = "gInput"
  type = "texture"
  register = 0
  [[stages.cs.bindings]]
  name = "gOutput"
  type = "uav"
  register = 0
`

const testScene = `
name = "solar"

[camera]
position = [0.0, 10.0, -50.0]
target = [0.0, 0.0, 0.0]

[light]
position = [0.0, 0.0, 0.0]
strength = [1.0, 1.0, 1.0]
falloff = [1.0, 500.0]

[skybox]
material = "Sky"

[terrain]
heightmap = "height.png"
material = "Terrain"

[[objects]]
name = "Sun"
material = "Sun"
mesh = { kind = "sphere", radius = 2.0 }
spin_speed = 0.1

[[objects]]
name = "Earth"
material = "Earth"
mesh = { kind = "sphere" }
orbit_radius = 20.0
orbit_speed = 0.5
spin_speed = 2.0

[[objects]]
name = "Moon"
material = "Earth"
parent = "Earth"
mesh = { kind = "sphere" }
scale = 0.3
orbit_radius = 3.0
orbit_speed = 1.0

[[overlays]]
shader = "quad"
texture = "earth.png"
size = [0.25, 0.25]
offset = [0.7, 0.7]

[post]
shader = "shadered"
`

func writeAsset(t *testing.T, dir, name, content string) {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

func writeImage(t *testing.T, path string, size int, c color.Color) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			img.Set(x, y, c)
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

// testAssets lays out a complete scene whose shaders all carry inline reflection.
func testAssets(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeAsset(t, dir, "shaders/lit.shader.toml", litShader)
	writeAsset(t, dir, "shaders/terrain.shader.toml", terrainShader)
	writeAsset(t, dir, "shaders/sky.shader.toml", skyShader)
	writeAsset(t, dir, "shaders/quad.shader.toml", quadShader)
	writeAsset(t, dir, "shaders/shadered.shader.toml", shadeRedShader)

	writeAsset(t, dir, "materials/Sun.material.toml", "shader = \"lit\"\n[data]\ndiffuse_albedo = [1.0, 0.8, 0.2, 1.0]\n")
	writeAsset(t, dir, "materials/Earth.material.toml", "shader = \"lit\"\n[textures]\ngDiffuseMap = \"earth.png\"\n")
	writeAsset(t, dir, "materials/Terrain.material.toml", "shader = \"terrain\"\n")
	writeAsset(t, dir, "materials/Sky.material.toml",
		"shader = \"sky\"\nlayer = \"skybox\"\n[state]\ncull = \"none\"\ndepth_func = \"less_equal\"\n[cube_maps]\ngCubeMap = \"sky.png\"\n")

	writeAsset(t, dir, "scenes/solar.scene.toml", testScene)

	writeImage(t, filepath.Join(dir, "textures", "earth.png"), 4, color.RGBA{0, 0, 255, 255})
	writeImage(t, filepath.Join(dir, "textures", "height.png"), 64, color.RGBA{0, 128, 0, 255})
	for _, face := range []string{"px", "nx", "py", "ny", "pz", "nz"} {
		writeImage(t, filepath.Join(dir, "textures", "sky_"+face+".png"), 4, color.RGBA{128, 128, 255, 255})
	}
	return dir
}

func testConfig(dir string, frames int) *Config {
	cfg := DefaultConfig()
	cfg.Assets.Dir = dir
	cfg.Application.StartWidth = 100
	cfg.Application.StartHeight = 70
	cfg.Application.MaxFrames = frames
	cfg.Application.Headless = true
	cfg.Logging.Level = "error"
	return &cfg
}

func newTestEngine(t *testing.T, frames int) (*Engine, *platform.Headless, *headless.Device) {
	t.Helper()
	cfg := testConfig(testAssets(t), frames)
	window := platform.NewHeadless(0, 0, 0)
	device := headless.NewDevice()
	e, err := New(&Game{}, cfg, window, device)
	require.NoError(t, err)
	require.NoError(t, e.Initialize())
	t.Cleanup(func() { _ = e.Shutdown() })
	return e, window, device
}

func TestEngineRunsHeadlessFrames(t *testing.T) {
	e, _, device := newTestEngine(t, 3)
	require.NoError(t, e.Run())

	assert.Equal(t, 3, e.FrameCount())
	assert.Equal(t, 3, device.CommandQueue().(*headless.Queue).Executed())

	cl := e.CommandList().(*headless.CommandList)
	// terrain, sun, earth, moon and the skybox
	assert.Len(t, cl.Find("DrawIndexedInstanced"), 5)
	assert.Len(t, cl.Find("DrawInstanced"), 1)

	dispatch := cl.Find("Dispatch")
	require.Len(t, dispatch, 1)
	assert.Equal(t, []any{uint32(4), uint32(3), uint32(1)}, dispatch[0].Args)

	ops := cl.Ops()
	assert.Equal(t, "SetDescriptorHeaps", ops[0])
	assert.Equal(t, "ResourceBarrier", ops[len(ops)-1])
}

func TestPostProcessFiltersBackBuffer(t *testing.T) {
	e, _, _ := newTestEngine(t, 1)
	require.NoError(t, e.Run())

	post := e.Scene().Post()
	require.NotNil(t, post)
	cl := e.CommandList().(*headless.CommandList)
	ops := cl.Ops()

	dispatch, copyAt := -1, -1
	for i, op := range ops {
		switch op {
		case "Dispatch":
			dispatch = i
		case "CopyResource":
			copyAt = i
		}
	}
	require.NotEqual(t, -1, dispatch)
	require.Greater(t, copyAt, dispatch)
	assert.Equal(t, []any{"BackBuffer", "RenderTexture"}, cl.Commands[copyAt].Args)

	// the back buffer is both the draw target and the post input
	rt := cl.Find("OMSetRenderTargets")
	require.Len(t, rt, 1)
	assert.Equal(t, e.BackBuffer().RTV(), rt[0].Args[0])
	assert.NotZero(t, e.BackBuffer().RTV())

	input := uint32(post.Program().Slot(PostInputName))
	output := uint32(post.Program().Slot(PostOutputName))
	tables := map[uint32]metadata.GPUDescriptorHandle{}
	for _, c := range cl.Find("SetComputeRootDescriptorTable") {
		tables[c.Args[0].(uint32)] = c.Args[1].(metadata.GPUDescriptorHandle)
	}
	assert.Equal(t, e.BackBuffer().SRV(), tables[input])
	assert.Equal(t, post.Output().UAV(), tables[output])

	last := cl.Commands[len(cl.Commands)-1]
	assert.Equal(t, []any{"RenderTexture", metadata.ResourceStateCopySource, metadata.ResourceStateUnorderedAccess}, last.Args)
	present := cl.Commands[len(cl.Commands)-2]
	assert.Equal(t, []any{"BackBuffer", metadata.ResourceStateCopyDest, metadata.ResourceStatePresent}, present.Args)
}

func TestResizeRecreatesTargetsInPlace(t *testing.T) {
	e, window, device := newTestEngine(t, 1)
	srv, rtv := e.BackBuffer().SRV(), e.BackBuffer().RTV()
	uav := e.Scene().Post().Output().UAV()
	allocated := e.descriptors.Count()
	textures := device.Stats().Textures

	window.Width, window.Height = 200, 150
	require.NoError(t, e.Run())

	assert.Equal(t, uint32(200), e.BackBuffer().Width())
	assert.Equal(t, uint32(150), e.BackBuffer().Height())
	assert.Equal(t, uint32(200), e.Scene().Post().Output().Width())
	assert.Equal(t, textures+2, device.Stats().Textures)

	// views are rewritten into the same slots
	assert.Equal(t, srv, e.BackBuffer().SRV())
	assert.Equal(t, rtv, e.BackBuffer().RTV())
	assert.Equal(t, uav, e.Scene().Post().Output().UAV())
	assert.Equal(t, allocated, e.descriptors.Count())

	dispatch := e.CommandList().(*headless.CommandList).Find("Dispatch")
	require.Len(t, dispatch, 1)
	assert.Equal(t, []any{uint32(7), uint32(5), uint32(1)}, dispatch[0].Args)
}

func TestEngineDrawsLayersInOrder(t *testing.T) {
	e, _, _ := newTestEngine(t, 1)
	require.NoError(t, e.Run())

	s := e.Scene()
	require.Len(t, s.Layer(metadata.RenderLayerOpaque), 4)
	require.Len(t, s.Layer(metadata.RenderLayerSkybox), 1)
	require.Len(t, s.Layer(metadata.RenderLayerUI), 1)

	// the quad is the only non-indexed draw and comes after every indexed draw
	cl := e.CommandList().(*headless.CommandList)
	lastIndexed, quad := -1, -1
	for i, op := range cl.Ops() {
		switch op {
		case "DrawIndexedInstanced":
			lastIndexed = i
		case "DrawInstanced":
			quad = i
		}
	}
	assert.Greater(t, quad, lastIndexed)
}

func TestWireframeToggle(t *testing.T) {
	e, window, _ := newTestEngine(t, 2)
	window.Script[0] = []platform.Key{platform.Key1}
	require.NoError(t, e.Run())

	assert.True(t, e.Wireframe())
	mat := e.Scene().Terrain().Material()
	rs := mat.DrawState().Rasterizer
	assert.Equal(t, metadata.FillModeWireframe, rs.FillMode)
	assert.Equal(t, metadata.CullModeNone, rs.CullMode)

	require.NoError(t, e.SetWireframe(false))
	assert.Equal(t, metadata.DefaultRasterizerDesc(), mat.DrawState().Rasterizer)
}

func TestCameraMovesWithKeys(t *testing.T) {
	e, window, _ := newTestEngine(t, 0)
	cam := e.Camera()
	start := cam.GetPosition()

	// a tapped key is not held
	window.Script[0] = []platform.Key{platform.KeyW}
	require.True(t, window.PumpMessages())
	require.NoError(t, e.handleInput(0.1))
	assert.Equal(t, start, cam.GetPosition())

	window.Hold(platform.KeyW)
	require.NoError(t, e.handleInput(0.1))
	assert.InDelta(t, CameraSpeed*0.1, cam.GetPosition().Sub(start).Length(), 1e-3)

	window.Hold(platform.KeyLeftShift)
	moved := cam.GetPosition()
	require.NoError(t, e.handleInput(0.1))
	assert.InDelta(t, CameraSpeed*CameraBoost*0.1, cam.GetPosition().Sub(moved).Length(), 1e-3)
	window.Release(platform.KeyW)
	window.Release(platform.KeyLeftShift)
}

func TestSceneOrbitsFollowParent(t *testing.T) {
	e, _, _ := newTestEngine(t, 0)
	s := e.Scene()
	require.NoError(t, s.Update(1))

	earth, ok := s.Object("Earth")
	require.True(t, ok)
	moon, ok := s.Object("Moon")
	require.True(t, ok)

	ew, err := views.LoadObject[ObjectConstants](earth)
	require.NoError(t, err)
	mw, err := views.LoadObject[ObjectConstants](moon)
	require.NoError(t, err)

	// stored transposed, so the translation is the last column
	ep := math.NewVec3(ew.World.Data[3], ew.World.Data[7], ew.World.Data[11])
	mp := math.NewVec3(mw.World.Data[3], mw.World.Data[7], mw.World.Data[11])
	assert.InDelta(t, 20, ep.Length(), 1e-3)
	assert.InDelta(t, 3, mp.Sub(ep).Length(), 1e-3)
}

func TestMaterialReloadInPlace(t *testing.T) {
	e, _, _ := newTestEngine(t, 0)
	s := e.Scene()
	dir := e.config.Assets.Dir
	path := filepath.Join(dir, "materials", "Sun.material.toml")
	writeAsset(t, dir, "materials/Sun.material.toml", "shader = \"lit\"\n[state]\nfill = \"wireframe\"\n")

	rebuild, err := s.Reload(assets.AssetInfo{Path: path, Type: metadata.ResourceTypeMaterial})
	require.NoError(t, err)
	assert.False(t, rebuild)
	sun, ok := s.Material("Sun")
	require.True(t, ok)
	assert.Equal(t, metadata.FillModeWireframe, sun.DrawState().Rasterizer.FillMode)

	rebuild, err = s.Reload(assets.AssetInfo{Path: filepath.Join(dir, "shaders", "lit.shader.toml"), Type: metadata.ResourceTypeShader})
	require.NoError(t, err)
	assert.True(t, rebuild)
}

func TestRebuildSceneReusesTextures(t *testing.T) {
	e, _, _ := newTestEngine(t, 0)
	old := e.Scene()
	earthTex := old.Textures()["earth.png"]
	require.NotNil(t, earthTex)

	old.ForgetTexture(filepath.Join(e.config.Assets.Dir, "textures", "sky_px.png"))
	_, cached := old.Textures()["sky.png"+cubeSuffix]
	assert.False(t, cached)

	e.rebuildScene()
	require.NotSame(t, old, e.Scene())
	assert.Same(t, earthTex, e.Scene().Textures()["earth.png"])
	assert.NotNil(t, e.Scene().Textures()["sky.png"+cubeSuffix])
}

func TestScenePrefetchesImages(t *testing.T) {
	e, _, _ := newTestEngine(t, 0)
	s := e.Scene()
	// every prefetched image was taken by the build
	assert.Empty(t, s.decoded)
	// uploaded textures are skipped, the heightmap is only kept by the terrain
	height := imageRef{asset: "height.png"}
	assert.Equal(t, []imageRef{height}, s.imageRefs())

	delete(s.textures, "earth.png")
	assert.Equal(t, []imageRef{height, {asset: "earth.png"}}, s.imageRefs())
}

func TestPassConstants(t *testing.T) {
	assert.Equal(t, uint32(1248), PassConstantsSize())

	cam := components.NewCamera()
	cam.SetLens(math.DegToRad(45), 2, 1, 1000)
	cam.LookAt(math.NewVec3(0, 0, -10), math.NewVec3(0, 0, 0), math.NewVec3(0, 1, 0))

	pc := NewPassConstants(cam, 200, 100, 3, 0.5)
	assert.Equal(t, cam.GetView(), pc.View.Transposed())
	assert.Equal(t, math.Vec2{X: 200, Y: 100}, pc.RenderTargetSize)
	assert.Equal(t, math.Vec2{X: 0.005, Y: 0.01}, pc.InvRenderTargetSize)
	assert.Equal(t, float32(1), pc.NearZ)
	assert.Equal(t, float32(1000), pc.FarZ)

	pc.SetLights(metadata.LightConfig{})
	assert.Equal(t, math.Vec4{X: 0.25, Y: 0.25, Z: 0.35, W: 1}, pc.AmbientLight)
	assert.Equal(t, math.NewVec3(1, 1, 1), pc.Lights[1].Strength)

	b, err := pc.Bytes()
	require.NoError(t, err)
	assert.Len(t, b, 1248)
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "soco.toml")
	writeAsset(t, dir, "soco.toml", `
[application]
name = "Test"
max_frames = 10

[renderer]
frame_resources = 2
msaa = true
msaa_quality = 4

[assets]
dir = "/tmp/assets"
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "Test", cfg.Application.Name)
	assert.Equal(t, uint32(1280), cfg.Application.StartWidth)
	assert.Equal(t, 10, cfg.Application.MaxFrames)
	assert.Equal(t, 2, cfg.Renderer.FrameResources)
	assert.Equal(t, "/tmp/assets", cfg.Assets.Dir)
	assert.Equal(t, "solar", cfg.Assets.Scene)

	targets, err := cfg.Targets()
	require.NoError(t, err)
	assert.Equal(t, metadata.SampleDesc{Count: 4, Quality: 3}, targets.SampleDesc())

	writeAsset(t, dir, "soco.toml", "[renderer]\nback_buffer = \"bgra\"\n")
	_, err = LoadConfig(path)
	assert.Error(t, err)

	writeAsset(t, dir, "soco.toml", "[renderer\n")
	_, err = LoadConfig(path)
	assert.Error(t, err)
}
