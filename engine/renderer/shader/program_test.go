package shader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/soco/engine/core"
	"github.com/spaghettifunk/soco/engine/renderer"
	"github.com/spaghettifunk/soco/engine/renderer/cache"
	"github.com/spaghettifunk/soco/engine/renderer/headless"
	"github.com/spaghettifunk/soco/engine/renderer/metadata"
)

type fixture struct {
	ctx       *renderer.Context
	device    *headless.Device
	reflector *headless.Reflector
	rootSigs  *cache.RootSignatureCache
}

func newFixture() *fixture {
	device := headless.NewDevice()
	reflector := headless.NewReflector()
	rootSigs := cache.NewRootSignatureCache(device)
	return &fixture{
		ctx: &renderer.Context{
			Device:         device,
			Reflector:      reflector,
			RootSignatures: rootSigs,
			Pipelines:      cache.NewPipelineStateCache(device),
			FrameCount:     3,
		},
		device:    device,
		reflector: reflector,
		rootSigs:  rootSigs,
	}
}

func cb(name string, register uint32) metadata.ResourceBinding {
	return metadata.ResourceBinding{Name: name, Type: metadata.ShaderInputCBuffer, BindPoint: register, BindCount: 1}
}

func tex(name string, register uint32) metadata.ResourceBinding {
	return metadata.ResourceBinding{Name: name, Type: metadata.ShaderInputTexture, BindPoint: register, BindCount: 1}
}

func sampler(name string, register uint32) metadata.ResourceBinding {
	return metadata.ResourceBinding{Name: name, Type: metadata.ShaderInputSampler, BindPoint: register, BindCount: 1}
}

// litStages registers a vertex and pixel stage pair shaped like the default lit shader.
func (f *fixture) litStages(suffix string) Stages {
	vs := f.reflector.Register(metadata.ShaderStageVertex, "lit.vs"+suffix, metadata.StageReflection{
		Bindings: []metadata.ResourceBinding{cb("cbPerObject", 0), cb("cbPass", 1)},
		ConstantBuffers: []metadata.ConstantBufferDesc{
			{Name: "cbPerObject", Size: 128},
			{Name: "cbPass", Size: 336},
		},
		InputParameters: []metadata.SignatureParameter{
			{SemanticName: "POSITION", ComponentType: metadata.RegisterComponentFloat32, Mask: 0x7},
			{SemanticName: "NORMAL", ComponentType: metadata.RegisterComponentFloat32, Mask: 0x7},
			{SemanticName: "TEXCOORD", ComponentType: metadata.RegisterComponentFloat32, Mask: 0x3},
		},
	})
	ps := f.reflector.Register(metadata.ShaderStagePixel, "lit.ps"+suffix, metadata.StageReflection{
		Bindings: []metadata.ResourceBinding{
			cb("cbPerObject", 0),
			cb("cbMaterial", 2),
			tex("gDiffuseMap", 0),
			sampler("gsamLinearWrap", 2),
		},
		ConstantBuffers: []metadata.ConstantBufferDesc{
			{Name: "cbPerObject", Size: 64},
			{Name: "cbMaterial", Size: 32},
		},
	})
	return Stages{VS: &vs, PS: &ps}
}

func TestGraphicsProgramRootSignature(t *testing.T) {
	f := newFixture()
	p, err := NewProgram(f.ctx, "lit", f.litStages(""))
	require.NoError(t, err)

	assert.True(t, p.IsGraphics())
	assert.False(t, p.IsCompute())

	assert.Equal(t, 0, p.Slot("cbMaterial"))
	assert.Equal(t, 1, p.Slot("cbPass"))
	assert.Equal(t, 2, p.Slot("cbPerObject"))
	assert.Equal(t, 3, p.Slot("gDiffuseMap"))
	assert.Equal(t, Unresolved, p.Slot("gsamLinearWrap"))
	assert.Equal(t, Unresolved, p.Slot("missing"))
	assert.Equal(t, map[string]uint32{"gDiffuseMap": 3}, p.TextureSlots())

	desc := p.RootSignatureDesc()
	require.Len(t, desc.Parameters, 4)
	assert.Len(t, desc.StaticSamplers, 6)
	assert.Equal(t, metadata.RootSignatureFlagAllowInputAssemblerInputLayout, desc.Flags)
	for _, i := range []int{0, 1, 2} {
		assert.Equal(t, metadata.RootParameterCBV, desc.Parameters[i].Type)
		assert.Equal(t, metadata.ShaderVisibilityAll, desc.Parameters[i].Visibility)
	}
	assert.Equal(t, metadata.RootParameterDescriptorTable, desc.Parameters[3].Type)
	assert.Equal(t, metadata.ShaderVisibilityPixel, desc.Parameters[3].Visibility)
	assert.Equal(t, metadata.DescriptorRangeSRV, desc.Parameters[3].Ranges[0].Type)

	parsed, err := metadata.DeserializeRootSignature(p.RootSignature().Blob())
	require.NoError(t, err)
	assert.Equal(t, desc, *parsed)
}

func TestVisibilityWidensAcrossStages(t *testing.T) {
	f := newFixture()
	p, err := NewProgram(f.ctx, "lit", f.litStages(""))
	require.NoError(t, err)

	v, ok := p.Variable("cbPerObject")
	require.True(t, ok)
	assert.Equal(t, metadata.ShaderVisibilityAll, v.Visibility)

	v, _ = p.Variable("cbPass")
	assert.Equal(t, metadata.ShaderVisibilityVertex, v.Visibility)
	assert.Equal(t, uint32(1), v.BindPoint)

	v, _ = p.Variable("gDiffuseMap")
	assert.Equal(t, metadata.ShaderVisibilityPixel, v.Visibility)
}

func TestFirstConstantBufferLayoutWins(t *testing.T) {
	f := newFixture()
	p, err := NewProgram(f.ctx, "lit", f.litStages(""))
	require.NoError(t, err)
	desc, ok := p.ConstantBuffer("cbPerObject")
	require.True(t, ok)
	assert.Equal(t, uint32(128), desc.Size)
	_, ok = p.ConstantBuffer("nope")
	assert.False(t, ok)
}

func TestInputLayoutFromVertexInputs(t *testing.T) {
	f := newFixture()
	p, err := NewProgram(f.ctx, "lit", f.litStages(""))
	require.NoError(t, err)

	layout := p.InputLayout()
	require.Len(t, layout, 3)
	assert.Equal(t, metadata.InputElementDesc{SemanticName: "POSITION", Format: metadata.FormatR32G32B32Float}, layout[0])
	assert.Equal(t, "NORMAL", layout[1].SemanticName)
	assert.Equal(t, uint32(12), layout[1].AlignedByteOffset)
	assert.Equal(t, metadata.FormatR32G32Float, layout[2].Format)
	assert.Equal(t, uint32(24), layout[2].AlignedByteOffset)
}

func TestInputLayoutOverride(t *testing.T) {
	f := newFixture()
	custom := []metadata.InputElementDesc{{SemanticName: "POSITION", Format: metadata.FormatR32G32B32A32Float}}
	p, err := NewProgram(f.ctx, "lit", f.litStages(""), WithInputLayout(custom))
	require.NoError(t, err)
	assert.Equal(t, custom, p.InputLayout())
}

func TestIdenticalLayoutsShareRootSignature(t *testing.T) {
	f := newFixture()
	a, err := NewProgram(f.ctx, "a", f.litStages("a"))
	require.NoError(t, err)
	b, err := NewProgram(f.ctx, "b", f.litStages("b"))
	require.NoError(t, err)

	assert.Equal(t, a.RootSignature().Blob(), b.RootSignature().Blob())
	assert.True(t, RootSignatureEqual(a, b))
	assert.Equal(t, 1, f.rootSigs.Len())
	assert.Equal(t, 1, f.device.Stats().RootSignatures)
}

func TestStageRules(t *testing.T) {
	f := newFixture()
	lit := f.litStages("")
	hs := f.reflector.Register(metadata.ShaderStageHull, "hs", metadata.StageReflection{})
	cs := f.reflector.Register(metadata.ShaderStageCompute, "cs", metadata.StageReflection{})

	cases := map[string]Stages{
		"vertex only":         {VS: lit.VS},
		"pixel only":          {PS: lit.PS},
		"nothing":             {},
		"compute and vertex":  {VS: lit.VS, CS: &cs},
		"hull without domain": {VS: lit.VS, PS: lit.PS, HS: &hs},
	}
	for name, stages := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewProgram(f.ctx, name, stages)
			assert.ErrorIs(t, err, core.ErrInvalidStages)
		})
	}
	assert.Equal(t, 0, f.reflector.Calls())
}

func TestUnsupportedVariable(t *testing.T) {
	f := newFixture()
	lit := f.litStages("")
	ps := f.reflector.Register(metadata.ShaderStagePixel, "structured.ps", metadata.StageReflection{
		Bindings: []metadata.ResourceBinding{{Name: "gInstanceData", Type: metadata.ShaderInputStructured, BindCount: 1}},
	})
	_, err := NewProgram(f.ctx, "instanced", Stages{VS: lit.VS, PS: &ps})
	require.ErrorIs(t, err, core.ErrUnsupportedVariable)
	assert.Contains(t, err.Error(), "gInstanceData")
	assert.Contains(t, err.Error(), "type 5")
	assert.Contains(t, err.Error(), "D3D_SIT_STRUCTURED")
}

func TestReflectionErrorsPropagate(t *testing.T) {
	f := newFixture()
	vs := metadata.ShaderBytecode{Stage: metadata.ShaderStageVertex, Code: []byte("unregistered")}
	ps := f.litStages("").PS
	_, err := NewProgram(f.ctx, "broken", Stages{VS: &vs, PS: ps})
	assert.ErrorIs(t, err, core.ErrUnknownResource)
}

func TestTessellationTopology(t *testing.T) {
	f := newFixture()
	lit := f.litStages("")
	hs := f.reflector.Register(metadata.ShaderStageHull, "terrain.hs", metadata.StageReflection{
		Bindings: []metadata.ResourceBinding{cb("cbPass", 1)},
	})
	ds := f.reflector.Register(metadata.ShaderStageDomain, "terrain.ds", metadata.StageReflection{
		Bindings:      []metadata.ResourceBinding{cb("cbPass", 1), tex("HeightMap", 1)},
		ControlPoints: 4,
	})
	p, err := NewProgram(f.ctx, "terrain", Stages{VS: lit.VS, PS: lit.PS, HS: &hs, DS: &ds})
	require.NoError(t, err)

	assert.True(t, p.HasTessellation())
	assert.Equal(t, metadata.PatchListTopology(4), p.Topology())
	v, _ := p.Variable("HeightMap")
	assert.Equal(t, metadata.ShaderVisibilityDomain, v.Visibility)
	v, _ = p.Variable("cbPass")
	assert.Equal(t, metadata.ShaderVisibilityAll, v.Visibility)

	var desc renderer.GraphicsPipelineDesc
	p.FillPipelineDesc(&desc)
	assert.Equal(t, metadata.PrimitiveTopologyTypePatch, desc.PrimitiveTopologyType)
	assert.Equal(t, hs.Code, desc.HS)
	assert.Equal(t, ds.Code, desc.DS)
	assert.Nil(t, desc.GS)
}

func TestFillPipelineDescTriangle(t *testing.T) {
	f := newFixture()
	stages := f.litStages("")
	p, err := NewProgram(f.ctx, "lit", stages)
	require.NoError(t, err)

	var desc renderer.GraphicsPipelineDesc
	p.FillPipelineDesc(&desc)
	assert.Same(t, p.RootSignature(), desc.RootSignature)
	assert.Equal(t, stages.VS.Code, desc.VS)
	assert.Equal(t, stages.PS.Code, desc.PS)
	assert.Equal(t, metadata.PrimitiveTopologyTypeTriangle, desc.PrimitiveTopologyType)
	assert.Len(t, desc.InputLayout, 3)
	assert.Equal(t, metadata.PrimitiveTopologyTriangleList, p.Topology())
}

func TestComputeProgram(t *testing.T) {
	f := newFixture()
	cs := f.reflector.Register(metadata.ShaderStageCompute, "shadered.cs", metadata.StageReflection{
		Bindings: []metadata.ResourceBinding{
			tex("gInput", 0),
			{Name: "gOutput", Type: metadata.ShaderInputUAVRWTyped, BindCount: 1},
		},
	})
	p, err := NewProgram(f.ctx, "ShadeRed", Stages{CS: &cs})
	require.NoError(t, err)
	assert.True(t, p.IsCompute())
	assert.Equal(t, 1, f.device.Stats().ComputePSOs)
	assert.Empty(t, p.InputLayout())

	desc := p.RootSignatureDesc()
	require.Len(t, desc.Parameters, 2)
	assert.Equal(t, metadata.ShaderVisibilityAll, desc.Parameters[0].Visibility)
	assert.Equal(t, metadata.DescriptorRangeUAV, desc.Parameters[1].Ranges[0].Type)

	cl := &headless.CommandList{}
	p.SetComputeRootSignature(cl)
	p.SetComputePipelineState(cl)
	p.SetTexture(cl, "gInput", 0x100)
	p.SetTexture(cl, "gOutput", 0x120)
	p.SetConstantBufferView(cl, "missing", 0x1000)
	assert.Equal(t, []string{
		"SetComputeRootSignature",
		"SetPipelineState",
		"SetComputeRootDescriptorTable",
		"SetComputeRootDescriptorTable",
	}, cl.Ops())
	assert.Equal(t, []any{uint32(1), metadata.GPUDescriptorHandle(0x120)}, cl.Commands[3].Args)
}

func TestGraphicsBindingSkipsUnresolved(t *testing.T) {
	f := newFixture()
	p, err := NewProgram(f.ctx, "lit", f.litStages(""))
	require.NoError(t, err)

	cl := &headless.CommandList{}
	p.SetConstantBufferView(cl, "cbPass", 0x2000)
	p.SetConstantBufferView(cl, "cbUnknown", 0x3000)
	p.SetTexture(cl, "gsamLinearWrap", 0x10)
	p.SetTexture(cl, "gDiffuseMap", 0x40)
	p.SetPrimitiveTopology(cl)

	require.Len(t, cl.Commands, 3)
	assert.Equal(t, headless.Command{Op: "SetGraphicsRootConstantBufferView", Args: []any{uint32(1), metadata.GPUVirtualAddress(0x2000)}}, cl.Commands[0])
	assert.Equal(t, headless.Command{Op: "SetGraphicsRootDescriptorTable", Args: []any{uint32(3), metadata.GPUDescriptorHandle(0x40)}}, cl.Commands[1])
	assert.Equal(t, "IASetPrimitiveTopology", cl.Commands[2].Op)
}

func TestSummary(t *testing.T) {
	f := newFixture()
	p, err := NewProgram(f.ctx, "lit", f.litStages(""))
	require.NoError(t, err)
	s := Summary(p)
	assert.Contains(t, s, "Shader: lit")
	assert.Contains(t, s, "Shader variable: 5")
	assert.Contains(t, s, "\tName: gDiffuseMap\n\tType: D3D_SIT_TEXTURE")
	assert.Contains(t, s, "Root Signature Slot: -1")
}
