package renderer

import "github.com/spaghettifunk/soco/engine/renderer/metadata"

/**
 * @brief The full description of a graphics pipeline state object. Bytecode
 * slices are shared with the owning program and must not be modified.
 */
type GraphicsPipelineDesc struct {
	RootSignature         RootSignature
	VS, PS, DS, HS, GS    []byte
	BlendState            metadata.BlendDesc
	SampleMask            uint32
	RasterizerState       metadata.RasterizerDesc
	DepthStencilState     metadata.DepthStencilDesc
	InputLayout           []metadata.InputElementDesc
	IBStripCutValue       metadata.IndexBufferStripCutValue
	PrimitiveTopologyType metadata.PrimitiveTopologyType
	NumRenderTargets      uint32
	RTVFormats            [8]metadata.Format
	DSVFormat             metadata.Format
	SampleDesc            metadata.SampleDesc
	Flags                 metadata.PipelineStateFlags
}

// Clone returns a copy that owns its input layout.
func (d *GraphicsPipelineDesc) Clone() GraphicsPipelineDesc {
	c := *d
	c.InputLayout = append([]metadata.InputElementDesc(nil), d.InputLayout...)
	return c
}

// DrawState returns the fixed-function state currently in the descriptor.
func (d *GraphicsPipelineDesc) DrawState() metadata.DrawState {
	return metadata.DrawState{
		Rasterizer:   d.RasterizerState,
		DepthStencil: d.DepthStencilState,
		Blend:        d.BlendState,
	}
}

func (d *GraphicsPipelineDesc) ApplyDrawState(s metadata.DrawState) {
	d.RasterizerState = s.Rasterizer
	d.DepthStencilState = s.DepthStencil
	d.BlendState = s.Blend
}

// DefaultGraphicsPipelineDesc fills the output side of a descriptor from the
// render target formats. Shaders and fixed-function state are left empty.
func DefaultGraphicsPipelineDesc(targets metadata.RenderTargetFormats) GraphicsPipelineDesc {
	d := GraphicsPipelineDesc{
		SampleMask:       0xffffffff,
		NumRenderTargets: 1,
		DSVFormat:        targets.DepthStencil,
		SampleDesc:       targets.SampleDesc(),
	}
	d.RTVFormats[0] = targets.BackBuffer
	return d
}

type ComputePipelineDesc struct {
	RootSignature RootSignature
	CS            []byte
	Flags         metadata.PipelineStateFlags
}
