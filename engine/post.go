package engine

import (
	"fmt"

	"github.com/spaghettifunk/soco/engine/assets/loaders"
	"github.com/spaghettifunk/soco/engine/core"
	"github.com/spaghettifunk/soco/engine/renderer"
	"github.com/spaghettifunk/soco/engine/renderer/metadata"
	"github.com/spaghettifunk/soco/engine/renderer/shader"
)

const (
	PostInputName  = "gInput"
	PostOutputName = "gOutput"
	// PostGroupSize is the compute thread group edge of the post-process shader.
	PostGroupSize = 32
)

/**
 * @brief PostProcess runs a compute program over the presented target and
 * copies the result back into it. The program reads the target through
 * gInput and writes a read-write render texture through gOutput.
 */
type PostProcess struct {
	program *shader.Program
	output  *renderer.Texture
	width   uint32
	height  uint32
}

func (s *Scene) buildPost(cfg *metadata.PostConfig, width, height uint32) (*PostProcess, error) {
	res, err := s.assets.LoadAsset(cfg.Shader, metadata.ResourceTypeShader, nil)
	if err != nil {
		return nil, err
	}
	data, ok := res.Data.(*loaders.ShaderResourceData)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not a shader", core.ErrUnknownResource, cfg.Shader)
	}
	prog, err := shader.NewProgram(s.ctx, data.Name, data.Stages)
	if err != nil {
		return nil, err
	}
	if !prog.IsCompute() {
		err := fmt.Errorf("%w: post-process shader %s has no compute stage", core.ErrInvalidStages, cfg.Shader)
		core.LogError("%s", err)
		return nil, err
	}

	output, err := renderer.NewReadWriteTexture(s.ctx, metadata.ResourceDesc{
		Name:      "RenderTexture",
		Width:     width,
		Height:    height,
		Depth:     1,
		MipLevels: 1,
		Format:    s.ctx.Targets.BackBuffer,
	})
	if err != nil {
		return nil, err
	}
	return &PostProcess{
		program: prog,
		output:  output,
		width:   width,
		height:  height,
	}, nil
}

func (p *PostProcess) Program() *shader.Program {
	return p.program
}

func (p *PostProcess) Output() *renderer.Texture {
	return p.output
}

// Groups is the dispatch size covering the target, ceil(w/32) by ceil(h/32).
func (p *PostProcess) Groups() (uint32, uint32) {
	return (p.width + PostGroupSize - 1) / PostGroupSize, (p.height + PostGroupSize - 1) / PostGroupSize
}

// Resize recreates the render texture. The GPU must be idle.
func (p *PostProcess) Resize(ctx *renderer.Context, width, height uint32) error {
	if err := p.output.Resize(ctx, width, height); err != nil {
		return err
	}
	p.width, p.height = width, height
	return nil
}

// Dispatch runs the program with input bound to gInput.
func (p *PostProcess) Dispatch(cl renderer.CommandList, input *renderer.Texture) {
	p.program.SetComputeRootSignature(cl)
	p.program.SetComputePipelineState(cl)
	p.program.SetTexture(cl, PostInputName, input.SRV())
	p.program.SetTexture(cl, PostOutputName, p.output.UAV())
	x, y := p.Groups()
	cl.Dispatch(x, y, 1)
}

/**
 * @brief Apply filters target, which must be in the render target state, and
 * leaves it ready to present. The render texture ends in the unordered
 * access state it started in.
 */
func (p *PostProcess) Apply(cl renderer.CommandList, target *renderer.Texture) {
	cl.ResourceBarrier(target.Resource(), metadata.ResourceStateRenderTarget, metadata.ResourceStateNonPixelShaderResource)
	p.Dispatch(cl, target)

	cl.ResourceBarrier(target.Resource(), metadata.ResourceStateNonPixelShaderResource, metadata.ResourceStateCopyDest)
	cl.ResourceBarrier(p.output.Resource(), metadata.ResourceStateUnorderedAccess, metadata.ResourceStateCopySource)
	cl.CopyResource(target.Resource(), p.output.Resource())
	cl.ResourceBarrier(target.Resource(), metadata.ResourceStateCopyDest, metadata.ResourceStatePresent)
	cl.ResourceBarrier(p.output.Resource(), metadata.ResourceStateCopySource, metadata.ResourceStateUnorderedAccess)
}
