package engine

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	stdmath "math"
	"path/filepath"
	"strings"

	"github.com/spaghettifunk/soco/engine/assets"
	"github.com/spaghettifunk/soco/engine/assets/loaders"
	"github.com/spaghettifunk/soco/engine/core"
	"github.com/spaghettifunk/soco/engine/math"
	"github.com/spaghettifunk/soco/engine/renderer"
	"github.com/spaghettifunk/soco/engine/renderer/geometry"
	"github.com/spaghettifunk/soco/engine/renderer/material"
	"github.com/spaghettifunk/soco/engine/renderer/metadata"
	"github.com/spaghettifunk/soco/engine/renderer/shader"
	"github.com/spaghettifunk/soco/engine/renderer/views"
)

const (
	ObjectCBName   = "cbPerObject"
	MaterialCBName = "cbMaterial"
	MeshSubmesh    = "mesh"
	cubeSuffix     = "#cube"
)

/** @brief The default cbMaterial layout. */
type MaterialConstants struct {
	DiffuseAlbedo math.Vec4
	FresnelR0     math.Vec3
	Roughness     float32
	MatTransform  math.Mat4
}

/** @brief The default cbPerObject layout of scene objects. */
type ObjectConstants struct {
	World math.Mat4
}

type sceneObject struct {
	config   metadata.ObjectConfig
	renderer *views.MeshRenderer
	parent   *sceneObject
	orbit    float32
	spin     float32
	world    math.Mat4
}

/**
 * @brief Scene owns everything built from a scene file: programs,
 * materials, textures, meshes and the renderers of every layer. Materials and
 * programs are shared by name.
 */
type Scene struct {
	name   string
	ctx    *renderer.Context
	assets *assets.AssetManager
	config *metadata.SceneConfig

	programs   map[string]*shader.Program
	materials  map[string]*material.Material
	matConfigs map[string]*metadata.MaterialConfig
	textures   map[string]*renderer.Texture
	decoded    map[string]*metadata.ImageResourceData
	meshes     map[metadata.MeshConfig]*renderer.MeshGeometry

	objects  []*sceneObject
	byName   map[string]*sceneObject
	terrain  *views.TerrainRenderer
	skybox   *views.SkyboxRenderer
	overlays []*views.TextureRenderer
	post     *PostProcess
	layers   [metadata.RenderLayerCount][]views.Renderer
}

/**
 * @brief LoadScene builds the named scene. Textures found in reuse are shared
 * instead of uploaded again; reuse may be nil. width and height size the
 * post-process targets.
 */
func LoadScene(ctx *renderer.Context, am *assets.AssetManager, name string, width, height uint32, reuse map[string]*renderer.Texture) (*Scene, error) {
	res, err := am.LoadAsset(name, metadata.ResourceTypeScene, nil)
	if err != nil {
		return nil, err
	}
	cfg, ok := res.Data.(*metadata.SceneConfig)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not a scene", core.ErrUnknownResource, name)
	}

	s := &Scene{
		name:       cfg.Name,
		ctx:        ctx,
		assets:     am,
		config:     cfg,
		programs:   map[string]*shader.Program{},
		materials:  map[string]*material.Material{},
		matConfigs: map[string]*metadata.MaterialConfig{},
		textures:   map[string]*renderer.Texture{},
		meshes:     map[metadata.MeshConfig]*renderer.MeshGeometry{},
		byName:     map[string]*sceneObject{},
	}
	for k, t := range reuse {
		s.textures[k] = t
	}
	s.prefetch()

	if cfg.Skybox != nil {
		if err := s.buildSkybox(cfg.Skybox); err != nil {
			return nil, err
		}
	}
	if cfg.Terrain != nil {
		if err := s.buildTerrain(cfg.Terrain); err != nil {
			return nil, err
		}
	}
	for _, oc := range cfg.Objects {
		if err := s.buildObject(oc); err != nil {
			return nil, err
		}
	}
	for i, oc := range cfg.Overlays {
		if err := s.buildOverlay(i, oc); err != nil {
			return nil, err
		}
	}
	if cfg.Post != nil {
		if s.post, err = s.buildPost(cfg.Post, width, height); err != nil {
			return nil, err
		}
	}

	core.LogInfo("scene %s: %d objects, %d materials, %d programs", s.name, len(s.objects), len(s.materials), len(s.programs))
	return s, nil
}

func (s *Scene) Name() string {
	return s.name
}

func (s *Scene) Config() *metadata.SceneConfig {
	return s.config
}

// Layer returns the renderers drawn in layer l, in draw order.
func (s *Scene) Layer(l metadata.RenderLayer) []views.Renderer {
	return s.layers[l]
}

func (s *Scene) Material(name string) (*material.Material, bool) {
	m, ok := s.materials[name]
	return m, ok
}

// Object returns the renderer of a scene object.
func (s *Scene) Object(name string) (*views.MeshRenderer, bool) {
	o, ok := s.byName[name]
	if !ok {
		return nil, false
	}
	return o.renderer, true
}

func (s *Scene) Terrain() *views.TerrainRenderer {
	return s.terrain
}

func (s *Scene) Skybox() *views.SkyboxRenderer {
	return s.skybox
}

func (s *Scene) Overlays() []*views.TextureRenderer {
	return s.overlays
}

func (s *Scene) Post() *PostProcess {
	return s.post
}

// Textures returns the uploaded textures keyed by asset, for reuse by a rebuilt scene.
func (s *Scene) Textures() map[string]*renderer.Texture {
	return s.textures
}

func (s *Scene) program(name string) (*shader.Program, error) {
	if p, ok := s.programs[name]; ok {
		return p, nil
	}
	res, err := s.assets.LoadAsset(name, metadata.ResourceTypeShader, nil)
	if err != nil {
		return nil, err
	}
	data, ok := res.Data.(*loaders.ShaderResourceData)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not a shader", core.ErrUnknownResource, name)
	}
	p, err := shader.NewProgram(s.ctx, data.Name, data.Stages)
	if err != nil {
		return nil, err
	}
	s.programs[name] = p
	return p, nil
}

func (s *Scene) loadMaterialConfig(name string) (*metadata.MaterialConfig, error) {
	res, err := s.assets.LoadAsset(name, metadata.ResourceTypeMaterial, nil)
	if err != nil {
		return nil, err
	}
	cfg, ok := res.Data.(*metadata.MaterialConfig)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not a material", core.ErrUnknownResource, name)
	}
	return cfg, nil
}

func (s *Scene) material(name string) (*material.Material, error) {
	if m, ok := s.materials[name]; ok {
		return m, nil
	}
	cfg, err := s.loadMaterialConfig(name)
	if err != nil {
		return nil, err
	}
	prog, err := s.program(cfg.Shader)
	if err != nil {
		return nil, err
	}
	state := metadata.DefaultDrawState()
	if err := cfg.State.Apply(&state); err != nil {
		return nil, fmt.Errorf("material %s: %w", name, err)
	}
	cbName := cfg.ConstantBuffer
	if cbName == "" {
		cbName = MaterialCBName
	}
	m, err := material.New(s.ctx, name, prog, material.WithDrawState(state), material.WithConstantBuffer(cbName))
	if err != nil {
		return nil, err
	}
	if err := s.applyMaterial(m, cfg); err != nil {
		return nil, err
	}
	s.materials[name] = m
	s.matConfigs[name] = cfg
	return m, nil
}

// applyMaterial writes the configured constants and binds the textures.
func (s *Scene) applyMaterial(m *material.Material, cfg *metadata.MaterialConfig) error {
	if cb := m.ConstantBuffer(); cb != nil {
		d := cfg.Data
		mc := MaterialConstants{
			DiffuseAlbedo: math.Vec4{X: d.DiffuseAlbedo[0], Y: d.DiffuseAlbedo[1], Z: d.DiffuseAlbedo[2], W: d.DiffuseAlbedo[3]},
			FresnelR0:     math.NewVec3(d.FresnelR0[0], d.FresnelR0[1], d.FresnelR0[2]),
			Roughness:     d.Roughness,
			MatTransform:  math.NewMat4Identity(),
		}
		b, err := encodePrefix(&mc, cb.Size())
		if err != nil {
			return err
		}
		if err := m.WriteMaterialData(0, b); err != nil {
			return err
		}
	}
	for variable, asset := range cfg.Textures {
		tex, err := s.texture(asset, false)
		if err != nil {
			return err
		}
		m.SetTexture(variable, tex)
	}
	for variable, asset := range cfg.CubeMaps {
		tex, err := s.texture(asset, true)
		if err != nil {
			return err
		}
		m.SetTexture(variable, tex)
	}
	return nil
}

// loadImage takes a prefetched image when there is one.
func (s *Scene) loadImage(asset string, cube bool) (*metadata.ImageResourceData, error) {
	key := imageRef{asset: asset, cube: cube}.key()
	if data, ok := s.decoded[key]; ok {
		delete(s.decoded, key)
		return data, nil
	}
	return s.decodeImage(asset, cube)
}

func (s *Scene) decodeImage(asset string, cube bool) (*metadata.ImageResourceData, error) {
	res, err := s.assets.LoadAsset(asset, metadata.ResourceTypeImage, &metadata.ImageResourceParams{Cube: cube})
	if err != nil {
		return nil, err
	}
	data, ok := res.Data.(*metadata.ImageResourceData)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not an image", core.ErrUnknownResource, asset)
	}
	return data, nil
}

func (s *Scene) texture(asset string, cube bool) (*renderer.Texture, error) {
	key := asset
	if cube {
		key += cubeSuffix
	}
	if t, ok := s.textures[key]; ok {
		return t, nil
	}
	data, err := s.loadImage(asset, cube)
	if err != nil {
		return nil, err
	}
	t, err := renderer.NewTexture(s.ctx, data.TextureDesc(asset), data.Pixels)
	if err != nil {
		return nil, err
	}
	s.textures[key] = t
	return t, nil
}

func (s *Scene) mesh(cfg metadata.MeshConfig) (*renderer.MeshGeometry, error) {
	if g, ok := s.meshes[cfg]; ok {
		return g, nil
	}
	var data geometry.MeshData
	switch cfg.Kind {
	case "sphere":
		radius, slices, stacks := cfg.Radius, cfg.Slices, cfg.Stacks
		if radius == 0 {
			radius = 1
		}
		if slices == 0 {
			slices = 20
		}
		if stacks == 0 {
			stacks = 20
		}
		data = geometry.Sphere(radius, slices, stacks)
	case "box":
		w, h, d := cfg.Width, cfg.Height, cfg.Depth
		if w == 0 {
			w = 1
		}
		if h == 0 {
			h = 1
		}
		if d == 0 {
			d = 1
		}
		data = geometry.Box(w, h, d, cfg.Subdivisions)
	default:
		return nil, fmt.Errorf("%w: unknown mesh kind %q", core.ErrUnknownResource, cfg.Kind)
	}
	g, err := renderer.NewMeshGeometry(s.ctx.Device, fmt.Sprintf("%sGeo%d", cfg.Kind, len(s.meshes)), data.Vertices, data.Indices)
	if err != nil {
		return nil, err
	}
	g.DrawArgs[MeshSubmesh] = metadata.SubmeshGeometry{IndexCount: uint32(len(data.Indices))}
	s.meshes[cfg] = g
	return g, nil
}

// layerOf resolves the layer of a renderer: its own override, else its material's.
func (s *Scene) layerOf(override, materialName string) (metadata.RenderLayer, error) {
	if override != "" {
		return metadata.ParseRenderLayer(override)
	}
	if cfg, ok := s.matConfigs[materialName]; ok {
		return metadata.ParseRenderLayer(cfg.Layer)
	}
	return metadata.RenderLayerOpaque, nil
}

func (s *Scene) buildSkybox(cfg *metadata.SkyboxConfig) error {
	mat, err := s.material(cfg.Material)
	if err != nil {
		return err
	}
	var opts []views.SkyboxOption
	var cube *renderer.Texture
	for variable, asset := range s.matConfigs[cfg.Material].CubeMaps {
		if cube, err = s.texture(asset, true); err != nil {
			return err
		}
		opts = append(opts, views.WithCubeMapName(variable))
		break
	}
	if s.skybox, err = views.NewSkyboxRenderer(s.ctx, mat, cube, opts...); err != nil {
		return err
	}
	s.layers[metadata.RenderLayerSkybox] = append(s.layers[metadata.RenderLayerSkybox], s.skybox)
	return nil
}

func (s *Scene) buildTerrain(cfg *metadata.TerrainConfig) error {
	mat, err := s.material(cfg.Material)
	if err != nil {
		return err
	}
	data, err := s.loadImage(cfg.HeightMap, false)
	if err != nil {
		return err
	}
	img := &image.RGBA{
		Pix:    data.Pixels,
		Stride: 4 * int(data.Width),
		Rect:   image.Rect(0, 0, int(data.Width), int(data.Height)),
	}
	name := cfg.Name
	if name == "" {
		name = "Terrain"
	}
	terrain, err := views.NewTerrain(s.ctx, name, img)
	if err != nil {
		return err
	}
	if s.terrain, err = views.NewTerrainRenderer(s.ctx, name, terrain, mat, ObjectCBName); err != nil {
		return err
	}
	layer, err := s.layerOf("", cfg.Material)
	if err != nil {
		return err
	}
	s.layers[layer] = append(s.layers[layer], s.terrain)
	return nil
}

func (s *Scene) buildObject(cfg metadata.ObjectConfig) error {
	mat, err := s.material(cfg.Material)
	if err != nil {
		return err
	}
	mesh, err := s.mesh(cfg.Mesh)
	if err != nil {
		return err
	}
	r, err := views.NewMeshRendererFromMesh(s.ctx, cfg.Name, mat, mesh, MeshSubmesh, ObjectCBName)
	if err != nil {
		return err
	}
	layer, err := s.layerOf(cfg.Layer, cfg.Material)
	if err != nil {
		return err
	}

	o := &sceneObject{config: cfg, renderer: r, parent: s.byName[cfg.Parent]}
	o.world = o.transform()
	if err := s.writeObject(o); err != nil {
		return err
	}
	s.objects = append(s.objects, o)
	s.byName[cfg.Name] = o
	s.layers[layer] = append(s.layers[layer], r)
	return nil
}

func (s *Scene) buildOverlay(i int, cfg metadata.OverlayConfig) error {
	res, err := s.assets.LoadAsset(cfg.Shader, metadata.ResourceTypeShader, nil)
	if err != nil {
		return err
	}
	data, ok := res.Data.(*loaders.ShaderResourceData)
	if !ok {
		return fmt.Errorf("%w: %s is not a shader", core.ErrUnknownResource, cfg.Shader)
	}
	var tex *renderer.Texture
	if cfg.Texture != "" {
		if tex, err = s.texture(cfg.Texture, false); err != nil {
			return err
		}
	}
	r, err := views.NewTextureRenderer(s.ctx, data.Stages, tex,
		math.Vec2{X: cfg.Size[0], Y: cfg.Size[1]},
		math.Vec2{X: cfg.Offset[0], Y: cfg.Offset[1]})
	if err != nil {
		return fmt.Errorf("overlay %d: %w", i, err)
	}
	s.overlays = append(s.overlays, r)
	s.layers[metadata.RenderLayerUI] = append(s.layers[metadata.RenderLayerUI], r)
	return nil
}

// transform places the object on its orbit around the parent, or around
// Position when it has none.
func (o *sceneObject) transform() math.Mat4 {
	c := o.config
	center := math.NewVec3(c.Position[0], c.Position[1], c.Position[2])
	if o.parent != nil {
		p := o.parent.world.Data
		center = center.Add(math.NewVec3(p[12], p[13], p[14]))
	}
	theta := float64(o.orbit)
	pos := center.Add(math.NewVec3(
		c.OrbitRadius*float32(stdmath.Cos(theta)),
		0,
		c.OrbitRadius*float32(stdmath.Sin(theta)),
	))
	return math.NewMat4Scale(math.NewVec3(c.Scale, c.Scale, c.Scale)).
		Mul(math.NewMat4RotationY(o.spin)).
		Mul(math.NewMat4Translation(pos))
}

func (s *Scene) writeObject(o *sceneObject) error {
	cb := o.renderer.ConstantBuffer()
	if cb == nil {
		return nil
	}
	oc := ObjectConstants{World: o.world.Transposed()}
	b, err := encodePrefix(&oc, cb.Size())
	if err != nil {
		return err
	}
	return o.renderer.WriteObjectData(0, b)
}

/**
 * @brief Update advances every orbit and spin by dt seconds and rewrites the
 * world matrices. Parents are declared before their children, so one pass in
 * declaration order sees updated parents.
 */
func (s *Scene) Update(dt float32) error {
	for _, o := range s.objects {
		o.orbit = wrapAngle(o.orbit + o.config.OrbitSpeed*dt)
		o.spin = wrapAngle(o.spin + o.config.SpinSpeed*dt)
		o.world = o.transform()
		if err := s.writeObject(o); err != nil {
			return fmt.Errorf("object %s: %w", o.config.Name, err)
		}
	}
	return nil
}

// UpdateMaterials uploads the dirty material constants of frame.
func (s *Scene) UpdateMaterials(frame int) error {
	for name, m := range s.materials {
		if _, err := m.Update(frame); err != nil {
			return fmt.Errorf("material %s: %w", name, err)
		}
	}
	return nil
}

/**
 * @brief Reload applies a changed asset. Material edits are applied in place
 * and return false. Any other change that affects the scene returns true:
 * programs, layouts and meshes cannot change under live renderers, so the
 * caller rebuilds the scene.
 */
func (s *Scene) Reload(info assets.AssetInfo) (bool, error) {
	base := filepath.Base(info.Path)
	switch info.Type {
	case metadata.ResourceTypeMaterial:
		name := strings.TrimSuffix(base, ".material.toml")
		m, ok := s.materials[name]
		if !ok {
			return false, nil
		}
		cfg, err := s.loadMaterialConfig(name)
		if err != nil {
			return false, err
		}
		if cfg.Shader != s.matConfigs[name].Shader || cfg.Layer != s.matConfigs[name].Layer {
			return true, nil
		}
		state := metadata.DefaultDrawState()
		if err := cfg.State.Apply(&state); err != nil {
			return false, err
		}
		if err := m.SetDrawState(state); err != nil {
			return false, err
		}
		if err := s.applyMaterial(m, cfg); err != nil {
			return false, err
		}
		s.matConfigs[name] = cfg
		core.LogInfo("material %s reloaded", name)
		return false, nil
	case metadata.ResourceTypeImage:
		s.ForgetTexture(info.Path)
		return true, nil
	case metadata.ResourceTypeShader, metadata.ResourceTypeShaderSource, metadata.ResourceTypeScene:
		return true, nil
	}
	return false, nil
}

// ForgetTexture drops the cached texture loaded from path, including the cube
// map a face file belongs to.
func (s *Scene) ForgetTexture(path string) {
	base := filepath.Base(path)
	delete(s.textures, base)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	for _, face := range loaders.CubeFaces {
		if strings.HasSuffix(stem, "_"+face) {
			delete(s.textures, strings.TrimSuffix(stem, "_"+face)+filepath.Ext(base)+cubeSuffix)
		}
	}
}

func wrapAngle(a float32) float32 {
	return float32(stdmath.Mod(float64(a), 2*stdmath.Pi))
}

// encodePrefix encodes v and keeps at most size bytes of it, so a shader may
// declare a shorter buffer than the engine's layout.
func encodePrefix(v any, size uint32) ([]byte, error) {
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, v); err != nil {
		return nil, err
	}
	b := buf.Bytes()
	if uint32(len(b)) > size {
		b = b[:size]
	}
	return b, nil
}
