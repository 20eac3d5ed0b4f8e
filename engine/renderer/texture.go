package renderer

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/spaghettifunk/soco/engine/core"
	"github.com/spaghettifunk/soco/engine/renderer/metadata"
)

type textureKind uint8

const (
	textureReadOnly textureKind = iota
	textureReadWrite
	textureRenderTarget
)

/**
 * @brief A GPU texture with a shader resource view in the shader visible
 * heap. Read-write textures also carry an unordered access view and render
 * targets a render target view.
 */
type Texture struct {
	ID       uuid.UUID
	Name     string
	kind     textureKind
	resource Resource
	srv      metadata.DescriptorHeapAllocation
	uav      metadata.DescriptorHeapAllocation
	rtv      metadata.DescriptorHeapAllocation
}

// NewTexture uploads pixels and creates the shader resource view.
func NewTexture(ctx *Context, desc metadata.ResourceDesc, pixels []byte) (*Texture, error) {
	return newTexture(ctx, desc, pixels, textureReadOnly)
}

// NewReadWriteTexture creates an empty texture with both shader resource and
// unordered access views, used as compute shader output.
func NewReadWriteTexture(ctx *Context, desc metadata.ResourceDesc) (*Texture, error) {
	return newTexture(ctx, desc, nil, textureReadWrite)
}

// NewRenderTarget creates an empty texture that can be drawn into and read
// by shaders. The render target view comes from ctx.RenderTargetViews.
func NewRenderTarget(ctx *Context, desc metadata.ResourceDesc) (*Texture, error) {
	if ctx.RenderTargetViews == nil {
		return nil, fmt.Errorf("%w: no render target view allocator for %s", core.ErrUnknownResource, desc.Name)
	}
	return newTexture(ctx, desc, nil, textureRenderTarget)
}

func newTexture(ctx *Context, desc metadata.ResourceDesc, pixels []byte, kind textureKind) (*Texture, error) {
	if ctx.Descriptors == nil {
		return nil, fmt.Errorf("%w: no descriptor allocator for texture %s", core.ErrUnknownResource, desc.Name)
	}
	res, err := createTexture(ctx, desc, pixels)
	if err != nil {
		return nil, err
	}

	n := uint32(1)
	if kind == textureReadWrite {
		n = 2
	}
	slots, err := ctx.Descriptors.Allocate(n)
	if err != nil {
		return nil, err
	}

	t := &Texture{
		ID:   core.NewResourceID(),
		Name: desc.Name,
		kind: kind,
		srv:  slots[0],
	}
	if kind == textureReadWrite {
		t.uav = slots[1]
	}
	if kind == textureRenderTarget {
		rtv, err := ctx.RenderTargetViews.Allocate(1)
		if err != nil {
			return nil, err
		}
		t.rtv = rtv[0]
	}
	t.bind(ctx, res)
	core.LogDebug("texture %s created (%dx%d)", core.ResourceLabel("texture", t.Name, t.ID), desc.Width, desc.Height)
	return t, nil
}

func createTexture(ctx *Context, desc metadata.ResourceDesc, pixels []byte) (Resource, error) {
	res, err := ctx.Device.CreateTexture(desc, pixels)
	if err != nil {
		err = fmt.Errorf("%w: creating texture %s: %v", core.ErrNativeCall, desc.Name, err)
		core.LogError("%s", err)
		return nil, err
	}
	return res, nil
}

// bind makes res the texture's resource and writes its views into the
// texture's descriptor slots.
func (t *Texture) bind(ctx *Context, res Resource) {
	t.resource = res
	ctx.Device.CreateShaderResourceView(res, t.srv.CPU)
	switch t.kind {
	case textureReadWrite:
		ctx.Device.CreateUnorderedAccessView(res, t.uav.CPU)
	case textureRenderTarget:
		ctx.Device.CreateRenderTargetView(res, t.rtv.CPU)
	}
}

/**
 * @brief Resize recreates an empty read-write texture or render target at a
 * new size. The views are rewritten in place, so descriptor handles held by
 * callers stay valid. The GPU must not be using the texture.
 */
func (t *Texture) Resize(ctx *Context, width, height uint32) error {
	if t.kind == textureReadOnly {
		return fmt.Errorf("%w: texture %s has fixed contents and cannot be resized", core.ErrUnknownResource, t.Name)
	}
	desc := t.resource.Desc()
	if desc.Width == width && desc.Height == height {
		return nil
	}
	desc.Width, desc.Height = width, height
	res, err := createTexture(ctx, desc, nil)
	if err != nil {
		return err
	}
	t.bind(ctx, res)
	core.LogDebug("texture %s resized to %dx%d", t.Name, width, height)
	return nil
}

func (t *Texture) Resource() Resource {
	return t.resource
}

// SRV is the GPU handle of the shader resource view.
func (t *Texture) SRV() metadata.GPUDescriptorHandle {
	return t.srv.GPU
}

// UAV is the GPU handle of the unordered access view, zero for read-only textures.
func (t *Texture) UAV() metadata.GPUDescriptorHandle {
	return t.uav.GPU
}

// RTV is the CPU handle of the render target view, zero for other textures.
func (t *Texture) RTV() metadata.CPUDescriptorHandle {
	return t.rtv.CPU
}

func (t *Texture) Width() uint32 {
	return t.resource.Desc().Width
}

func (t *Texture) Height() uint32 {
	return t.resource.Desc().Height
}
