package views

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/spaghettifunk/soco/engine/core"
	"github.com/spaghettifunk/soco/engine/math"
	"github.com/spaghettifunk/soco/engine/renderer"
	"github.com/spaghettifunk/soco/engine/renderer/metadata"
	"github.com/spaghettifunk/soco/engine/renderer/shader"
)

const (
	TexPositionCBName = "cbTexPosition"
	MainTexName       = "MainTex"
)

/** @brief Screen-space placement of the quad, in normalized units. */
type TexPosition struct {
	Size   math.Vec2
	Offset math.Vec2
}

/**
 * @brief TextureRenderer draws a texture on a screen-space quad. Unlike the
 * other renderers it owns its program and pipeline state and draws with depth
 * testing off, so it does not share a material.
 */
type TextureRenderer struct {
	program    *shader.Program
	pso        renderer.PipelineState
	texture    *renderer.Texture
	position   TexPosition
	upload     *renderer.UploadBuffer
	frameCount int
	dirty      int
}

// NewTextureRenderer builds the quad program from stages, which must declare
// a 16 byte cbTexPosition and a MainTex texture.
func NewTextureRenderer(ctx *renderer.Context, stages shader.Stages, tex *renderer.Texture, size, offset math.Vec2) (*TextureRenderer, error) {
	program, err := shader.NewProgram(ctx, "Draw2D", stages)
	if err != nil {
		return nil, err
	}

	r := &TextureRenderer{
		program:    program,
		texture:    tex,
		position:   TexPosition{Size: size, Offset: offset},
		frameCount: ctx.FrameCount,
		dirty:      ctx.FrameCount,
	}

	desc := renderer.DefaultGraphicsPipelineDesc(ctx.Targets)
	program.FillPipelineDesc(&desc)
	state := metadata.DefaultDrawState()
	state.DepthStencil.DepthEnable = 0
	state.DepthStencil.DepthFunc = metadata.ComparisonFuncAlways
	state.DepthStencil.DepthWriteMask = metadata.DepthWriteMaskZero
	desc.ApplyDrawState(state)
	if r.pso, err = ctx.Pipelines.GraphicsPipelineState(&desc); err != nil {
		return nil, err
	}

	cb, ok := program.ConstantBuffer(TexPositionCBName)
	if !ok {
		core.LogWarn("texture renderer: program %s has no constant buffer %q", program.Name(), TexPositionCBName)
		return r, nil
	}
	if want := uint32(binary.Size(TexPosition{})); cb.Size != want {
		err := fmt.Errorf("%w: %s is %d bytes, expected %d", core.ErrConstantBufferOverflow, TexPositionCBName, cb.Size, want)
		core.LogError("%s", err)
		return nil, err
	}
	if r.upload, err = renderer.NewUploadBuffer(ctx.Device, "Draw2D."+TexPositionCBName, ctx.FrameCount, cb.Size, true); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *TextureRenderer) isRenderer() {}

func (r *TextureRenderer) Program() *shader.Program {
	return r.program
}

func (r *TextureRenderer) SetTexture(tex *renderer.Texture) {
	r.texture = tex
}

func (r *TextureRenderer) Texture() *renderer.Texture {
	return r.texture
}

// TexPosition returns the quad placement for editing and marks it dirty.
func (r *TextureRenderer) TexPosition() *TexPosition {
	r.dirty = r.frameCount
	return &r.position
}

func (r *TextureRenderer) Update(frame int) error {
	if r.upload == nil || r.dirty <= 0 {
		return nil
	}
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, &r.position); err != nil {
		return err
	}
	if err := r.upload.CopyData(frame, buf.Bytes()); err != nil {
		return err
	}
	r.dirty--
	return nil
}

func (r *TextureRenderer) Setup(cl renderer.CommandList, frame int) {
	cl.IASetPrimitiveTopology(metadata.PrimitiveTopologyTriangleStrip)
	if r.texture != nil {
		r.program.SetTexture(cl, MainTexName, r.texture.SRV())
	}
	if r.upload != nil {
		r.program.SetConstantBufferView(cl, TexPositionCBName, r.upload.Address(frame))
	}
}

// DrawIndexedInstanced draws the four strip vertices the vertex shader
// generates from the vertex id.
func (r *TextureRenderer) DrawIndexedInstanced(cl renderer.CommandList) {
	cl.DrawInstanced(4, 1, 0, 0)
}

func (r *TextureRenderer) SetPipelineState(cl renderer.CommandList) {
	cl.SetPipelineState(r.pso)
}

func (r *TextureRenderer) SetGraphicsRootSignature(cl renderer.CommandList) {
	r.program.SetGraphicsRootSignature(cl)
}

func (r *TextureRenderer) SetConstantBufferView(cl renderer.CommandList, name string, addr metadata.GPUVirtualAddress) {
	r.program.SetConstantBufferView(cl, name, addr)
}
