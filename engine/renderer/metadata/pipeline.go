package metadata

import (
	"fmt"
	"strings"
)

/** @brief A texel or vertex element format. Values match the native DXGI enum. */
type Format uint32

const (
	FormatUnknown              Format = 0
	FormatR32G32B32A32Typeless Format = 1
	FormatR32G32B32A32Float    Format = 2
	FormatR32G32B32A32Uint     Format = 3
	FormatR32G32B32A32Sint     Format = 4
	FormatR32G32B32Typeless    Format = 5
	FormatR32G32B32Float       Format = 6
	FormatR32G32B32Uint        Format = 7
	FormatR32G32B32Sint        Format = 8
	FormatR32G32Typeless       Format = 15
	FormatR32G32Float          Format = 16
	FormatR32G32Uint           Format = 17
	FormatR32G32Sint           Format = 18
	FormatD32FloatS8X24Uint    Format = 20
	FormatR8G8B8A8Unorm        Format = 28
	FormatR32Typeless          Format = 39
	FormatD32Float             Format = 40
	FormatR32Float             Format = 41
	FormatR32Uint              Format = 42
	FormatR32Sint              Format = 43
	FormatD24UnormS8Uint       Format = 45
	FormatR16Uint              Format = 57
	FormatB8G8R8A8Unorm        Format = 87
)

var formatNames = map[Format]string{
	FormatUnknown:              "UNKNOWN",
	FormatR32G32B32A32Typeless: "R32G32B32A32_TYPELESS",
	FormatR32G32B32A32Float:    "R32G32B32A32_FLOAT",
	FormatR32G32B32A32Uint:     "R32G32B32A32_UINT",
	FormatR32G32B32A32Sint:     "R32G32B32A32_SINT",
	FormatR32G32B32Typeless:    "R32G32B32_TYPELESS",
	FormatR32G32B32Float:       "R32G32B32_FLOAT",
	FormatR32G32B32Uint:        "R32G32B32_UINT",
	FormatR32G32B32Sint:        "R32G32B32_SINT",
	FormatR32G32Typeless:       "R32G32_TYPELESS",
	FormatR32G32Float:          "R32G32_FLOAT",
	FormatR32G32Uint:           "R32G32_UINT",
	FormatR32G32Sint:           "R32G32_SINT",
	FormatD32FloatS8X24Uint:    "D32_FLOAT_S8X24_UINT",
	FormatR8G8B8A8Unorm:        "R8G8B8A8_UNORM",
	FormatR32Typeless:          "R32_TYPELESS",
	FormatD32Float:             "D32_FLOAT",
	FormatR32Float:             "R32_FLOAT",
	FormatR32Uint:              "R32_UINT",
	FormatR32Sint:              "R32_SINT",
	FormatD24UnormS8Uint:       "D24_UNORM_S8_UINT",
	FormatR16Uint:              "R16_UINT",
	FormatB8G8R8A8Unorm:        "B8G8R8A8_UNORM",
}

func (f Format) String() string {
	if n, ok := formatNames[f]; ok {
		return n
	}
	return fmt.Sprintf("FORMAT(%d)", uint32(f))
}

// ParseFormat accepts the names printed by String, with or without the DXGI_FORMAT_ prefix.
func ParseFormat(s string) (Format, error) {
	s = strings.TrimPrefix(strings.ToUpper(s), "DXGI_FORMAT_")
	for f, n := range formatNames {
		if n == s {
			return f, nil
		}
	}
	return FormatUnknown, fmt.Errorf("unknown format %q", s)
}

var vertexFormats = map[RegisterComponentType][5]Format{
	RegisterComponentUint32:  {FormatUnknown, FormatR32Uint, FormatR32G32Uint, FormatR32G32B32Uint, FormatR32G32B32A32Uint},
	RegisterComponentSint32:  {FormatUnknown, FormatR32Sint, FormatR32G32Sint, FormatR32G32B32Sint, FormatR32G32B32A32Sint},
	RegisterComponentFloat32: {FormatUnknown, FormatR32Float, FormatR32G32Float, FormatR32G32B32Float, FormatR32G32B32A32Float},
	RegisterComponentUnknown: {FormatUnknown, FormatR32Typeless, FormatR32G32Typeless, FormatR32G32B32Typeless, FormatR32G32B32A32Typeless},
}

/**
 * @brief VertexFormat maps a reflected input register to a 32-bit-per-component
 * format. Component types other than uint, sint and float map to typeless.
 * Counts outside 1..4 yield FormatUnknown.
 */
func VertexFormat(t RegisterComponentType, components int) Format {
	row, ok := vertexFormats[t]
	if !ok {
		row = vertexFormats[RegisterComponentUnknown]
	}
	if components < 1 || components > 4 {
		return FormatUnknown
	}
	return row[components]
}

type InputClassification uint32

const (
	InputClassificationPerVertex   InputClassification = 0
	InputClassificationPerInstance InputClassification = 1
)

type InputElementDesc struct {
	SemanticName         string
	SemanticIndex        uint32
	Format               Format
	InputSlot            uint32
	AlignedByteOffset    uint32
	InputSlotClass       InputClassification
	InstanceDataStepRate uint32
}

/** @brief Primitive topology bound on the input assembler. */
type PrimitiveTopology uint32

const (
	PrimitiveTopologyUndefined              PrimitiveTopology = 0
	PrimitiveTopologyPointList              PrimitiveTopology = 1
	PrimitiveTopologyLineList               PrimitiveTopology = 2
	PrimitiveTopologyLineStrip              PrimitiveTopology = 3
	PrimitiveTopologyTriangleList           PrimitiveTopology = 4
	PrimitiveTopologyTriangleStrip          PrimitiveTopology = 5
	PrimitiveTopology1ControlPointPatchList PrimitiveTopology = 33
)

// PatchListTopology returns the patch list topology for n control points (1..32).
func PatchListTopology(controlPoints uint32) PrimitiveTopology {
	return PrimitiveTopology1ControlPointPatchList + PrimitiveTopology(controlPoints) - 1
}

func (t PrimitiveTopology) String() string {
	switch {
	case t == PrimitiveTopologyTriangleList:
		return "TRIANGLELIST"
	case t == PrimitiveTopologyTriangleStrip:
		return "TRIANGLESTRIP"
	case t >= PrimitiveTopology1ControlPointPatchList:
		return fmt.Sprintf("%d_CONTROL_POINT_PATCHLIST", t-PrimitiveTopology1ControlPointPatchList+1)
	}
	return fmt.Sprintf("TOPOLOGY(%d)", uint32(t))
}

/** @brief The class of primitives a pipeline state accepts. */
type PrimitiveTopologyType uint32

const (
	PrimitiveTopologyTypeUndefined PrimitiveTopologyType = 0
	PrimitiveTopologyTypePoint     PrimitiveTopologyType = 1
	PrimitiveTopologyTypeLine      PrimitiveTopologyType = 2
	PrimitiveTopologyTypeTriangle  PrimitiveTopologyType = 3
	PrimitiveTopologyTypePatch     PrimitiveTopologyType = 4
)

type Blend uint32

const (
	BlendZero        Blend = 1
	BlendOne         Blend = 2
	BlendSrcAlpha    Blend = 5
	BlendInvSrcAlpha Blend = 6
)

type BlendOp uint32

const BlendOpAdd BlendOp = 1

type LogicOp uint32

const LogicOpNoop LogicOp = 4

const ColorWriteEnableAll uint8 = 0xf

type RenderTargetBlendDesc struct {
	BlendEnable           uint32
	LogicOpEnable         uint32
	SrcBlend              Blend
	DestBlend             Blend
	BlendOp               BlendOp
	SrcBlendAlpha         Blend
	DestBlendAlpha        Blend
	BlendOpAlpha          BlendOp
	LogicOp               LogicOp
	RenderTargetWriteMask uint8
	_                     [3]byte
}

type BlendDesc struct {
	AlphaToCoverageEnable  uint32
	IndependentBlendEnable uint32
	RenderTarget           [8]RenderTargetBlendDesc
}

// DefaultBlendDesc returns blending disabled on all eight targets.
func DefaultBlendDesc() BlendDesc {
	rt := RenderTargetBlendDesc{
		SrcBlend:              BlendOne,
		DestBlend:             BlendZero,
		BlendOp:               BlendOpAdd,
		SrcBlendAlpha:         BlendOne,
		DestBlendAlpha:        BlendZero,
		BlendOpAlpha:          BlendOpAdd,
		LogicOp:               LogicOpNoop,
		RenderTargetWriteMask: ColorWriteEnableAll,
	}
	d := BlendDesc{}
	for i := range d.RenderTarget {
		d.RenderTarget[i] = rt
	}
	return d
}

// AlphaBlendDesc enables standard source-alpha blending on the first target.
func AlphaBlendDesc() BlendDesc {
	d := DefaultBlendDesc()
	d.RenderTarget[0].BlendEnable = 1
	d.RenderTarget[0].SrcBlend = BlendSrcAlpha
	d.RenderTarget[0].DestBlend = BlendInvSrcAlpha
	return d
}

type FillMode uint32

const (
	FillModeWireframe FillMode = 2
	FillModeSolid     FillMode = 3
)

type CullMode uint32

const (
	CullModeNone  CullMode = 1
	CullModeFront CullMode = 2
	CullModeBack  CullMode = 3
)

type RasterizerDesc struct {
	FillMode              FillMode
	CullMode              CullMode
	FrontCounterClockwise uint32
	DepthBias             int32
	DepthBiasClamp        float32
	SlopeScaledDepthBias  float32
	DepthClipEnable       uint32
	MultisampleEnable     uint32
	AntialiasedLineEnable uint32
	ForcedSampleCount     uint32
	ConservativeRaster    uint32
}

func DefaultRasterizerDesc() RasterizerDesc {
	return RasterizerDesc{
		FillMode:        FillModeSolid,
		CullMode:        CullModeBack,
		DepthClipEnable: 1,
	}
}

type ComparisonFunc uint32

const (
	ComparisonFuncNever        ComparisonFunc = 1
	ComparisonFuncLess         ComparisonFunc = 2
	ComparisonFuncEqual        ComparisonFunc = 3
	ComparisonFuncLessEqual    ComparisonFunc = 4
	ComparisonFuncGreater      ComparisonFunc = 5
	ComparisonFuncNotEqual     ComparisonFunc = 6
	ComparisonFuncGreaterEqual ComparisonFunc = 7
	ComparisonFuncAlways       ComparisonFunc = 8
)

type DepthWriteMask uint32

const (
	DepthWriteMaskZero DepthWriteMask = 0
	DepthWriteMaskAll  DepthWriteMask = 1
)

type StencilOp uint32

const StencilOpKeep StencilOp = 1

type DepthStencilOpDesc struct {
	StencilFailOp      StencilOp
	StencilDepthFailOp StencilOp
	StencilPassOp      StencilOp
	StencilFunc        ComparisonFunc
}

type DepthStencilDesc struct {
	DepthEnable      uint32
	DepthWriteMask   DepthWriteMask
	DepthFunc        ComparisonFunc
	StencilEnable    uint32
	StencilReadMask  uint8
	StencilWriteMask uint8
	_                [2]byte
	FrontFace        DepthStencilOpDesc
	BackFace         DepthStencilOpDesc
}

func DefaultDepthStencilDesc() DepthStencilDesc {
	op := DepthStencilOpDesc{
		StencilFailOp:      StencilOpKeep,
		StencilDepthFailOp: StencilOpKeep,
		StencilPassOp:      StencilOpKeep,
		StencilFunc:        ComparisonFuncAlways,
	}
	return DepthStencilDesc{
		DepthEnable:      1,
		DepthWriteMask:   DepthWriteMaskAll,
		DepthFunc:        ComparisonFuncLess,
		StencilReadMask:  0xff,
		StencilWriteMask: 0xff,
		FrontFace:        op,
		BackFace:         op,
	}
}

type SampleDesc struct {
	Count   uint32
	Quality uint32
}

/** @brief The fixed-function state a material can swap without rebuilding its program. */
type DrawState struct {
	Rasterizer   RasterizerDesc
	DepthStencil DepthStencilDesc
	Blend        BlendDesc
}

func DefaultDrawState() DrawState {
	return DrawState{
		Rasterizer:   DefaultRasterizerDesc(),
		DepthStencil: DefaultDepthStencilDesc(),
		Blend:        DefaultBlendDesc(),
	}
}

/** @brief The output formats pipelines are built against. */
type RenderTargetFormats struct {
	BackBuffer   Format
	DepthStencil Format
	MSAA         bool
	MSAAQuality  uint32
}

// SampleDesc is {4, quality-1} with MSAA and {1, 0} without.
func (r RenderTargetFormats) SampleDesc() SampleDesc {
	if r.MSAA {
		q := uint32(0)
		if r.MSAAQuality > 0 {
			q = r.MSAAQuality - 1
		}
		return SampleDesc{Count: 4, Quality: q}
	}
	return SampleDesc{Count: 1, Quality: 0}
}

type IndexBufferStripCutValue uint32

type PipelineStateFlags uint32
