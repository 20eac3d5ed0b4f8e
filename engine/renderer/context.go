package renderer

import (
	"fmt"

	"github.com/spaghettifunk/soco/engine/core"
	"github.com/spaghettifunk/soco/engine/renderer/metadata"
)

// RootSignatureProvider returns the shared root signature for a serialized descriptor.
type RootSignatureProvider interface {
	RootSignature(blob []byte) (RootSignature, error)
}

// PipelineStateProvider returns the shared pipeline state for a descriptor.
type PipelineStateProvider interface {
	GraphicsPipelineState(desc *GraphicsPipelineDesc) (PipelineState, error)
}

// DescriptorAllocator hands out slots from a shader visible descriptor heap.
type DescriptorAllocator interface {
	Allocate(n uint32) ([]metadata.DescriptorHeapAllocation, error)
	Heap() DescriptorHeap
}

/**
 * @brief Everything a program, material or renderer needs at construction
 * time. A Context is built once by the engine and passed down explicitly.
 */
type Context struct {
	Device         Device
	Reflector      Reflector
	RootSignatures RootSignatureProvider
	Pipelines      PipelineStateProvider
	Descriptors    DescriptorAllocator
	// RenderTargetViews allocates from a render target heap; only render targets need it.
	RenderTargetViews DescriptorAllocator
	// FrameCount is the number of frames in flight, N.
	FrameCount int
	Targets    metadata.RenderTargetFormats
}

// Validate reports the first missing collaborator.
func (c *Context) Validate() error {
	switch {
	case c == nil:
		return fmt.Errorf("%w: nil render context", core.ErrUnknownResource)
	case c.Device == nil:
		return fmt.Errorf("%w: render context has no device", core.ErrUnknownResource)
	case c.Reflector == nil:
		return fmt.Errorf("%w: render context has no reflector", core.ErrUnknownResource)
	case c.RootSignatures == nil:
		return fmt.Errorf("%w: render context has no root signature cache", core.ErrUnknownResource)
	case c.Pipelines == nil:
		return fmt.Errorf("%w: render context has no pipeline cache", core.ErrUnknownResource)
	case c.FrameCount < 1:
		return fmt.Errorf("%w: frame count must be positive, got %d", core.ErrUnknownResource, c.FrameCount)
	}
	return nil
}
