package views

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/soco/engine/core"
	"github.com/spaghettifunk/soco/engine/math"
	"github.com/spaghettifunk/soco/engine/renderer"
	"github.com/spaghettifunk/soco/engine/renderer/cache"
	"github.com/spaghettifunk/soco/engine/renderer/descriptors"
	"github.com/spaghettifunk/soco/engine/renderer/geometry"
	"github.com/spaghettifunk/soco/engine/renderer/headless"
	"github.com/spaghettifunk/soco/engine/renderer/material"
	"github.com/spaghettifunk/soco/engine/renderer/metadata"
	"github.com/spaghettifunk/soco/engine/renderer/shader"
)

type objectConstants struct {
	World        math.Mat4
	TexTransform math.Mat4
}

type fixture struct {
	ctx       *renderer.Context
	device    *headless.Device
	reflector *headless.Reflector
}

func newFixture(t *testing.T) *fixture {
	device := headless.NewDevice()
	heap, err := descriptors.New(device, metadata.DescriptorHeapTypeCBVSRVUAV, 32)
	require.NoError(t, err)
	reflector := headless.NewReflector()
	return &fixture{
		ctx: &renderer.Context{
			Device:         device,
			Reflector:      reflector,
			RootSignatures: cache.NewRootSignatureCache(device),
			Pipelines:      cache.NewPipelineStateCache(device),
			Descriptors:    heap,
			FrameCount:     3,
			Targets: metadata.RenderTargetFormats{
				BackBuffer:   metadata.FormatR8G8B8A8Unorm,
				DepthStencil: metadata.FormatD24UnormS8Uint,
			},
		},
		device:    device,
		reflector: reflector,
	}
}

var lit = []metadata.SignatureParameter{
	{SemanticName: "POSITION", ComponentType: metadata.RegisterComponentFloat32, Mask: 0x7},
	{SemanticName: "NORMAL", ComponentType: metadata.RegisterComponentFloat32, Mask: 0x7},
	{SemanticName: "TEXCOORD", ComponentType: metadata.RegisterComponentFloat32, Mask: 0x3},
}

// defaultMaterial has cbPerObject (128 bytes), cbPass, cbMaterial and gDiffuseMap.
func (f *fixture) defaultMaterial(t *testing.T) *material.Material {
	vs := f.reflector.Register(metadata.ShaderStageVertex, "default.vs", metadata.StageReflection{
		Bindings: []metadata.ResourceBinding{
			{Name: "cbPerObject", Type: metadata.ShaderInputCBuffer, BindCount: 1},
			{Name: "cbPass", Type: metadata.ShaderInputCBuffer, BindPoint: 1, BindCount: 1},
		},
		ConstantBuffers: []metadata.ConstantBufferDesc{{Name: "cbPerObject", Size: 128}, {Name: "cbPass", Size: 400}},
		InputParameters: lit,
	})
	ps := f.reflector.Register(metadata.ShaderStagePixel, "default.ps", metadata.StageReflection{
		Bindings: []metadata.ResourceBinding{
			{Name: "cbMaterial", Type: metadata.ShaderInputCBuffer, BindPoint: 2, BindCount: 1},
			{Name: "gDiffuseMap", Type: metadata.ShaderInputTexture, BindCount: 1},
		},
		ConstantBuffers: []metadata.ConstantBufferDesc{{Name: "cbMaterial", Size: 96}},
	})
	p, err := shader.NewProgram(f.ctx, "default", shader.Stages{VS: &vs, PS: &ps})
	require.NoError(t, err)
	m, err := material.New(f.ctx, "default", p, material.WithConstantBuffer("cbMaterial"))
	require.NoError(t, err)
	return m
}

func (f *fixture) sphere(t *testing.T) *renderer.MeshGeometry {
	s := geometry.Sphere(1, 8, 8)
	mesh, err := renderer.NewMeshGeometry(f.ctx.Device, "solar", s.Vertices, s.Indices16())
	require.NoError(t, err)
	mesh.DrawArgs["sphere"] = metadata.SubmeshGeometry{IndexCount: uint32(len(s.Indices)), StartIndexLocation: 6, BaseVertexLocation: 2}
	return mesh
}

func TestMeshRendererConstantsSizedFromReflection(t *testing.T) {
	f := newFixture(t)
	r, err := NewMeshRendererFromMesh(f.ctx, "Earth", f.defaultMaterial(t), f.sphere(t), "sphere", "cbPerObject")
	require.NoError(t, err)

	require.NotNil(t, r.ConstantBuffer())
	assert.Equal(t, uint32(128), r.ConstantBuffer().Size())
	assert.Equal(t, uint32(256), r.ConstantBuffer().Upload().ElementByteSize())
}

func TestMeshRendererUploadsOncePerFrameInFlight(t *testing.T) {
	f := newFixture(t)
	r, err := NewMeshRendererFromMesh(f.ctx, "Earth", f.defaultMaterial(t), f.sphere(t), "sphere", "cbPerObject")
	require.NoError(t, err)
	require.NoError(t, r.SetObjectData(&objectConstants{World: math.NewMat4Translation(math.NewVec3(20, 0, 20))}))

	buf, ok := f.device.Buffer("Earth.cbPerObject")
	require.True(t, ok)
	for frame := 0; frame < 5; frame++ {
		require.NoError(t, r.Update(frame%3))
	}
	assert.Equal(t, 3, buf.Writes())

	require.NoError(t, ModifyObject(r, func(oc *objectConstants) {
		oc.World = math.NewMat4Identity()
	}))
	require.NoError(t, r.Update(0))
	assert.Equal(t, 4, buf.Writes())

	got, err := LoadObject[objectConstants](r)
	require.NoError(t, err)
	assert.Equal(t, math.NewMat4Identity(), got.World)
}

func TestMeshRendererReadsDoNotMarkDirty(t *testing.T) {
	f := newFixture(t)
	r, err := NewMeshRendererFromMesh(f.ctx, "Earth", f.defaultMaterial(t), f.sphere(t), "sphere", "cbPerObject")
	require.NoError(t, err)
	for frame := 0; frame < 3; frame++ {
		require.NoError(t, r.Update(frame))
	}
	_ = r.ObjectData()
	_, err = LoadObject[objectConstants](r)
	require.NoError(t, err)
	assert.Equal(t, 0, r.ConstantBuffer().Dirty())

	r.ObjectDataRef()[0] = 1
	assert.Equal(t, 3, r.ConstantBuffer().Dirty())

	err = r.WriteObjectData(120, make([]byte, 16))
	assert.True(t, errors.Is(err, core.ErrConstantBufferOverflow))
}

func TestMeshRendererSetupAndDraw(t *testing.T) {
	f := newFixture(t)
	mat := f.defaultMaterial(t)
	mesh := f.sphere(t)
	r, err := NewMeshRendererFromMesh(f.ctx, "Earth", mat, mesh, "sphere", "cbPerObject")
	require.NoError(t, err)

	cl := &headless.CommandList{}
	r.Setup(cl, 1)
	r.DrawIndexedInstanced(cl)

	assert.Equal(t, []string{
		"IASetVertexBuffers",
		"IASetIndexBuffer",
		"IASetPrimitiveTopology",
		"SetGraphicsRootConstantBufferView",
		"SetGraphicsRootConstantBufferView",
		"DrawIndexedInstanced",
	}, cl.Ops())

	assert.Equal(t, metadata.PrimitiveTopologyTriangleList, cl.Commands[2].Args[0])
	p := mat.Program()
	assert.Equal(t, []any{uint32(p.Slot("cbMaterial")), mat.ConstantBuffer().Address(1)}, cl.Commands[3].Args)
	assert.Equal(t, []any{uint32(p.Slot("cbPerObject")), r.ConstantBuffer().Upload().BaseAddress() + 256}, cl.Commands[4].Args)

	sm := mesh.DrawArgs["sphere"]
	assert.Equal(t, []any{sm.IndexCount, uint32(1), uint32(6), int32(2), uint32(0)}, cl.Commands[5].Args)
}

func TestMeshRendererWithoutObjectConstants(t *testing.T) {
	f := newFixture(t)
	r, err := NewMeshRendererFromMesh(f.ctx, "Sun", f.defaultMaterial(t), f.sphere(t), "sphere", "cbMissing")
	require.NoError(t, err)
	assert.Nil(t, r.ConstantBuffer())
	assert.NoError(t, r.Update(0))
	assert.Error(t, r.SetObjectData(&objectConstants{}))

	cl := &headless.CommandList{}
	r.Setup(cl, 0)
	assert.Len(t, cl.Find("SetGraphicsRootConstantBufferView"), 1)
}

func TestMeshRendererUnknownSubmesh(t *testing.T) {
	f := newFixture(t)
	_, err := NewMeshRendererFromMesh(f.ctx, "Earth", f.defaultMaterial(t), f.sphere(t), "box", "cbPerObject")
	assert.True(t, errors.Is(err, core.ErrUnknownResource))
}

func TestDrawRenderItems(t *testing.T) {
	f := newFixture(t)
	mat := f.defaultMaterial(t)
	mesh := f.sphere(t)
	earth, err := NewMeshRendererFromMesh(f.ctx, "Earth", mat, mesh, "sphere", "cbPerObject")
	require.NoError(t, err)
	moon, err := NewMeshRendererFromMesh(f.ctx, "Moon", mat, mesh, "sphere", "cbPerObject")
	require.NoError(t, err)
	items := []Renderer{earth, moon}

	require.NoError(t, UpdateRenderItems(0, items))

	cl := &headless.CommandList{}
	DrawRenderItems(cl, 0, items, "cbPass", 0xabc000)

	ops := cl.Ops()
	require.Len(t, ops, 2*9)
	assert.Equal(t, "SetPipelineState", ops[0])
	assert.Equal(t, "SetGraphicsRootSignature", ops[1])
	assert.Equal(t, "SetPipelineState", ops[9])
	assert.Equal(t, "DrawIndexedInstanced", ops[17])

	slot := uint32(mat.Program().Slot("cbPass"))
	passBinds := 0
	for _, c := range cl.Find("SetGraphicsRootConstantBufferView") {
		if c.Args[0] == slot {
			assert.Equal(t, metadata.GPUVirtualAddress(0xabc000), c.Args[1])
			passBinds++
		}
	}
	assert.Equal(t, 2, passBinds)
}

func heightmap(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: 10, G: uint8(x * 255 / (w - 1)), B: 0, A: 255})
		}
	}
	return img
}

func (f *fixture) terrainMaterial(t *testing.T) *material.Material {
	vs := f.reflector.Register(metadata.ShaderStageVertex, "terrain.vs", metadata.StageReflection{
		InputParameters: []metadata.SignatureParameter{
			{SemanticName: "POSITION", ComponentType: metadata.RegisterComponentFloat32, Mask: 0x7},
			{SemanticName: "TEXCOORD", ComponentType: metadata.RegisterComponentFloat32, Mask: 0x3},
		},
	})
	hs := f.reflector.Register(metadata.ShaderStageHull, "terrain.hs", metadata.StageReflection{})
	ds := f.reflector.Register(metadata.ShaderStageDomain, "terrain.ds", metadata.StageReflection{
		Bindings: []metadata.ResourceBinding{
			{Name: "cbTerrain", Type: metadata.ShaderInputCBuffer, BindCount: 1},
			{Name: "HeightMap", Type: metadata.ShaderInputTexture, BindCount: 1},
		},
		ConstantBuffers: []metadata.ConstantBufferDesc{{Name: "cbTerrain", Size: 16}},
		ControlPoints:   4,
	})
	ps := f.reflector.Register(metadata.ShaderStagePixel, "terrain.ps", metadata.StageReflection{})
	p, err := shader.NewProgram(f.ctx, "TerrainTess", shader.Stages{VS: &vs, PS: &ps, HS: &hs, DS: &ds})
	require.NoError(t, err)
	m, err := material.New(f.ctx, "Terrain", p)
	require.NoError(t, err)
	return m
}

func TestTerrain(t *testing.T) {
	f := newFixture(t)
	terrain, err := NewTerrain(f.ctx, "Terrain", heightmap(64, 32))
	require.NoError(t, err)

	assert.Equal(t, uint32(64), terrain.Texture().Width())
	assert.Equal(t, uint32(32), terrain.Texture().Height())
	assert.Equal(t, metadata.FormatR32Uint, terrain.Mesh().IndexFormat)

	sm, err := terrain.Mesh().Submesh(TerrainSubmesh)
	require.NoError(t, err)
	assert.Equal(t, uint32(3*1*4), sm.IndexCount)

	assert.InDelta(t, 1, terrain.Height(63, 0), 1e-6)
	assert.InDelta(t, 1, terrain.Height(500, -4), 1e-6)
	assert.InDelta(t, 0, terrain.Height(-1, 0), 1e-6)
	assert.InDelta(t, 10.0/255, terrain.Sample(0, 0).X, 1e-6)
}

func TestTerrainRenderer(t *testing.T) {
	f := newFixture(t)
	terrain, err := NewTerrain(f.ctx, "Terrain", heightmap(64, 64))
	require.NoError(t, err)
	mat := f.terrainMaterial(t)

	r, err := NewTerrainRenderer(f.ctx, "Terrain", terrain, mat, "cbTerrain")
	require.NoError(t, err)
	assert.Same(t, terrain.Texture(), mat.Texture(HeightMapTexture))

	oc, err := LoadObject[TerrainObjectConstants](r.MeshRenderer)
	require.NoError(t, err)
	assert.Equal(t, TerrainObjectConstants{TexWidth: 64, TexHeight: 64, Height: 200}, oc)

	cl := &headless.CommandList{}
	r.Setup(cl, 0)
	assert.Equal(t, metadata.PatchListTopology(4), cl.Find("IASetPrimitiveTopology")[0].Args[0])

	var item Renderer = r
	assert.NotNil(t, item)
}

func (f *fixture) skyboxMaterial(t *testing.T) *material.Material {
	vs := f.reflector.Register(metadata.ShaderStageVertex, "sky.vs", metadata.StageReflection{InputParameters: lit})
	ps := f.reflector.Register(metadata.ShaderStagePixel, "sky.ps", metadata.StageReflection{
		Bindings: []metadata.ResourceBinding{{Name: "gCubeMap", Type: metadata.ShaderInputTexture, BindCount: 1}},
	})
	p, err := shader.NewProgram(f.ctx, "Skybox", shader.Stages{VS: &vs, PS: &ps})
	require.NoError(t, err)
	state := metadata.DefaultDrawState()
	state.Rasterizer.CullMode = metadata.CullModeNone
	state.DepthStencil.DepthFunc = metadata.ComparisonFuncLessEqual
	m, err := material.New(f.ctx, "Skybox", p, material.WithDrawState(state))
	require.NoError(t, err)
	return m
}

func TestSkyboxRenderer(t *testing.T) {
	f := newFixture(t)
	mat := f.skyboxMaterial(t)
	cube, err := renderer.NewTexture(f.ctx, metadata.ResourceDesc{Name: "GrassCubeMap", Width: 4, Height: 4, Cube: true, Format: metadata.FormatR8G8B8A8Unorm}, make([]byte, 4*4*4*6))
	require.NoError(t, err)

	r, err := NewSkyboxRenderer(f.ctx, mat, cube)
	require.NoError(t, err)
	assert.Same(t, cube, mat.Texture(CubeMapName))
	assert.Equal(t, metadata.FormatR16Uint, r.Mesh().IndexFormat)

	cl := &headless.CommandList{}
	require.NoError(t, r.Update(0))
	r.Setup(cl, 0)
	r.DrawIndexedInstanced(cl)
	assert.Equal(t, []string{
		"IASetVertexBuffers",
		"IASetIndexBuffer",
		"IASetPrimitiveTopology",
		"SetGraphicsRootDescriptorTable",
		"DrawIndexedInstanced",
	}, cl.Ops())
	assert.Equal(t, metadata.PrimitiveTopologyTriangleList, cl.Commands[2].Args[0])
	assert.Equal(t, uint32(36), cl.Commands[4].Args[0])
}

func TestSkyboxRendererExternalMesh(t *testing.T) {
	f := newFixture(t)
	mesh := f.sphere(t)
	r, err := NewSkyboxRenderer(f.ctx, f.skyboxMaterial(t), nil, WithSkyboxMesh(mesh, "sphere"))
	require.NoError(t, err)
	assert.Same(t, mesh, r.Mesh())

	_, err = NewSkyboxRenderer(f.ctx, f.skyboxMaterial(t), nil, WithSkyboxMesh(mesh, "dome"))
	assert.Error(t, err)
}

func (f *fixture) draw2D(t *testing.T, cbSize uint32) shader.Stages {
	vs := f.reflector.Register(metadata.ShaderStageVertex, "draw2d.vs", metadata.StageReflection{
		Bindings:        []metadata.ResourceBinding{{Name: TexPositionCBName, Type: metadata.ShaderInputCBuffer, BindCount: 1}},
		ConstantBuffers: []metadata.ConstantBufferDesc{{Name: TexPositionCBName, Size: cbSize}},
	})
	ps := f.reflector.Register(metadata.ShaderStagePixel, "draw2d.ps", metadata.StageReflection{
		Bindings: []metadata.ResourceBinding{{Name: MainTexName, Type: metadata.ShaderInputTexture, BindCount: 1}},
	})
	return shader.Stages{VS: &vs, PS: &ps}
}

func TestTextureRenderer(t *testing.T) {
	f := newFixture(t)
	tex, err := renderer.NewTexture(f.ctx, metadata.ResourceDesc{Name: "tex", Width: 2, Height: 2, Format: metadata.FormatR8G8B8A8Unorm}, make([]byte, 16))
	require.NoError(t, err)

	r, err := NewTextureRenderer(f.ctx, f.draw2D(t, 16), tex, math.Vec2{X: 0.2, Y: 0.2}, math.Vec2{})
	require.NoError(t, err)

	buf, ok := f.device.Buffer("Draw2D." + TexPositionCBName)
	require.True(t, ok)
	for frame := 0; frame < 4; frame++ {
		require.NoError(t, r.Update(frame%3))
	}
	assert.Equal(t, 3, buf.Writes())

	r.TexPosition().Offset = math.Vec2{X: 0.5}
	require.NoError(t, r.Update(1))
	assert.Equal(t, 4, buf.Writes())

	cl := &headless.CommandList{}
	r.Setup(cl, 1)
	r.DrawIndexedInstanced(cl)
	assert.Equal(t, []string{
		"IASetPrimitiveTopology",
		"SetGraphicsRootDescriptorTable",
		"SetGraphicsRootConstantBufferView",
		"DrawInstanced",
	}, cl.Ops())
	assert.Equal(t, metadata.PrimitiveTopologyTriangleStrip, cl.Commands[0].Args[0])
	assert.Equal(t, []any{uint32(4), uint32(1), uint32(0), uint32(0)}, cl.Commands[3].Args)

	p := r.Program()
	assert.Equal(t, []any{uint32(p.Slot(TexPositionCBName)), buf.GPUVirtualAddress() + 256}, cl.Commands[2].Args)

	cl = &headless.CommandList{}
	r.SetPipelineState(cl)
	pso := cl.Commands[0].Args[0].(*headless.PipelineState)
	assert.Equal(t, uint32(0), pso.Desc.DepthStencilState.DepthEnable)
	assert.Equal(t, metadata.ComparisonFuncAlways, pso.Desc.DepthStencilState.DepthFunc)
	assert.Equal(t, metadata.DepthWriteMaskZero, pso.Desc.DepthStencilState.DepthWriteMask)
}

func TestTextureRendererRejectsMismatchedConstants(t *testing.T) {
	f := newFixture(t)
	_, err := NewTextureRenderer(f.ctx, f.draw2D(t, 32), nil, math.Vec2{X: 1, Y: 1}, math.Vec2{})
	assert.True(t, errors.Is(err, core.ErrConstantBufferOverflow))
}
