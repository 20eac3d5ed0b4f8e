package cache

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/soco/engine/core"
	"github.com/spaghettifunk/soco/engine/renderer"
	"github.com/spaghettifunk/soco/engine/renderer/headless"
	"github.com/spaghettifunk/soco/engine/renderer/metadata"
)

func blob(visibility metadata.ShaderVisibility) []byte {
	desc := metadata.RootSignatureDesc{
		Parameters: []metadata.RootParameter{
			metadata.NewRootDescriptorTable(metadata.DescriptorRangeSRV, 1, 0, 0, visibility),
		},
		StaticSamplers: metadata.StaticSamplers(),
		Flags:          metadata.RootSignatureFlagAllowInputAssemblerInputLayout,
	}
	return desc.Serialize()
}

func TestRootSignatureCacheSharesByContent(t *testing.T) {
	device := headless.NewDevice()
	c := NewRootSignatureCache(device)

	a, err := c.RootSignature(blob(metadata.ShaderVisibilityPixel))
	require.NoError(t, err)
	b, err := c.RootSignature(blob(metadata.ShaderVisibilityPixel))
	require.NoError(t, err)
	other, err := c.RootSignature(blob(metadata.ShaderVisibilityAll))
	require.NoError(t, err)

	assert.Same(t, a, b)
	assert.NotSame(t, a, other)
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, 2, device.Stats().RootSignatures)
}

func TestRootSignatureCacheCopiesBlob(t *testing.T) {
	c := NewRootSignatureCache(headless.NewDevice())
	b := blob(metadata.ShaderVisibilityPixel)
	rs, err := c.RootSignature(b)
	require.NoError(t, err)

	original := append([]byte(nil), b...)
	for i := range b {
		b[i] = 0
	}
	assert.Equal(t, original, rs.Blob())

	again, err := c.RootSignature(original)
	require.NoError(t, err)
	assert.Same(t, rs, again)
}

func TestRootSignatureCacheWrapsDeviceErrors(t *testing.T) {
	device := headless.NewDevice()
	device.FailNext = errors.New("out of memory")
	c := NewRootSignatureCache(device)
	_, err := c.RootSignature(blob(metadata.ShaderVisibilityPixel))
	assert.ErrorIs(t, err, core.ErrNativeCall)
	assert.Equal(t, 0, c.Len())
}

func baseDesc(t *testing.T, c *RootSignatureCache) renderer.GraphicsPipelineDesc {
	rs, err := c.RootSignature(blob(metadata.ShaderVisibilityPixel))
	require.NoError(t, err)
	d := renderer.DefaultGraphicsPipelineDesc(metadata.RenderTargetFormats{
		BackBuffer:   metadata.FormatR8G8B8A8Unorm,
		DepthStencil: metadata.FormatD24UnormS8Uint,
	})
	d.RootSignature = rs
	d.VS = []byte("vertex shader")
	d.PS = []byte("pixel shader")
	d.ApplyDrawState(metadata.DefaultDrawState())
	d.PrimitiveTopologyType = metadata.PrimitiveTopologyTypeTriangle
	d.InputLayout = []metadata.InputElementDesc{
		{SemanticName: "POSITION", Format: metadata.FormatR32G32B32Float},
		{SemanticName: "TEXCOORD", Format: metadata.FormatR32G32Float, AlignedByteOffset: 12},
	}
	return d
}

func TestPipelineCacheDistinguishesDepthStencil(t *testing.T) {
	device := headless.NewDevice()
	rsc := NewRootSignatureCache(device)
	c := NewPipelineStateCache(device)

	d1 := baseDesc(t, rsc)
	d2 := d1.Clone()
	d2.DepthStencilState.DepthFunc = metadata.ComparisonFuncLessEqual

	p1, err := c.GraphicsPipelineState(&d1)
	require.NoError(t, err)
	p2, err := c.GraphicsPipelineState(&d2)
	require.NoError(t, err)
	assert.NotSame(t, p1, p2)
	assert.Equal(t, 2, c.Len())

	again, err := c.GraphicsPipelineState(&d1)
	require.NoError(t, err)
	assert.Same(t, p1, again)
	assert.Equal(t, 2, device.Stats().GraphicsPSOs)
}

func TestPipelineCacheComparesBytecodeByContent(t *testing.T) {
	device := headless.NewDevice()
	rsc := NewRootSignatureCache(device)
	c := NewPipelineStateCache(device)

	d1 := baseDesc(t, rsc)
	d2 := baseDesc(t, rsc)
	d2.VS = append([]byte(nil), d1.VS...)
	d2.PS = append([]byte(nil), d1.PS...)
	require.NotSame(t, &d1.VS[0], &d2.VS[0])

	p1, err := c.GraphicsPipelineState(&d1)
	require.NoError(t, err)
	p2, err := c.GraphicsPipelineState(&d2)
	require.NoError(t, err)
	assert.Same(t, p1, p2)
	assert.Equal(t, 1, device.Stats().GraphicsPSOs)
}

func TestComparePipelineDescIsTotalOrder(t *testing.T) {
	rsc := NewRootSignatureCache(headless.NewDevice())
	base := baseDesc(t, rsc)

	variants := []func(d *renderer.GraphicsPipelineDesc){
		func(d *renderer.GraphicsPipelineDesc) {},
		func(d *renderer.GraphicsPipelineDesc) { d.VS = []byte("vertex shader 2") },
		func(d *renderer.GraphicsPipelineDesc) { d.GS = []byte("gs") },
		func(d *renderer.GraphicsPipelineDesc) { d.BlendState = metadata.AlphaBlendDesc() },
		func(d *renderer.GraphicsPipelineDesc) { d.SampleMask = 1 },
		func(d *renderer.GraphicsPipelineDesc) { d.RasterizerState.CullMode = metadata.CullModeNone },
		func(d *renderer.GraphicsPipelineDesc) { d.InputLayout = d.InputLayout[:1] },
		func(d *renderer.GraphicsPipelineDesc) { d.InputLayout[1].SemanticName = "NORMAL" },
		func(d *renderer.GraphicsPipelineDesc) { d.PrimitiveTopologyType = metadata.PrimitiveTopologyTypePatch },
		func(d *renderer.GraphicsPipelineDesc) { d.RTVFormats[0] = metadata.FormatB8G8R8A8Unorm },
		func(d *renderer.GraphicsPipelineDesc) { d.SampleDesc = metadata.SampleDesc{Count: 4, Quality: 0} },
		func(d *renderer.GraphicsPipelineDesc) { d.Flags = 1 },
	}
	descs := make([]renderer.GraphicsPipelineDesc, len(variants))
	for i, v := range variants {
		descs[i] = base.Clone()
		v(&descs[i])
	}

	for i := range descs {
		assert.Zero(t, ComparePipelineDesc(&descs[i], &descs[i]))
		for j := range descs {
			if i == j {
				continue
			}
			ab := ComparePipelineDesc(&descs[i], &descs[j])
			ba := ComparePipelineDesc(&descs[j], &descs[i])
			assert.NotZero(t, ab, "variants %d and %d", i, j)
			assert.Equal(t, -ab, ba, "variants %d and %d", i, j)
		}
	}
}

func TestInactiveRenderTargetsAreIgnored(t *testing.T) {
	rsc := NewRootSignatureCache(headless.NewDevice())
	a := baseDesc(t, rsc)
	b := a.Clone()
	b.RTVFormats[3] = metadata.FormatR32Float
	assert.Zero(t, ComparePipelineDesc(&a, &b))
}
