package views

import (
	"fmt"

	"github.com/spaghettifunk/soco/engine/core"
	"github.com/spaghettifunk/soco/engine/renderer"
	"github.com/spaghettifunk/soco/engine/renderer/material"
	"github.com/spaghettifunk/soco/engine/renderer/metadata"
)

/**
 * @brief MeshRenderer draws one submesh of a shared mesh with a shared
 * material. It owns the per-object constants named objectCB, sized from the
 * material program's reflection.
 */
type MeshRenderer struct {
	name     string
	material *material.Material
	mesh     *renderer.MeshGeometry
	submesh  metadata.SubmeshGeometry
	cbName   string
	cb       *renderer.ConstantBuffer
}

// NewMeshRenderer binds a submesh to a material. When the program has no
// constant buffer named objectCB the renderer draws without per-object constants.
func NewMeshRenderer(ctx *renderer.Context, name string, mat *material.Material, mesh *renderer.MeshGeometry, submesh metadata.SubmeshGeometry, objectCB string) (*MeshRenderer, error) {
	if mat == nil {
		return nil, fmt.Errorf("%w: renderer %s has no material", core.ErrUnknownResource, name)
	}
	if mesh == nil {
		return nil, fmt.Errorf("%w: renderer %s has no mesh", core.ErrUnknownResource, name)
	}

	r := &MeshRenderer{
		name:     name,
		material: mat,
		mesh:     mesh,
		submesh:  submesh,
		cbName:   objectCB,
	}

	desc, ok := mat.Program().ConstantBuffer(objectCB)
	if !ok {
		core.LogWarn("renderer %s: program %s has no object constant buffer %q", name, mat.Program().Name(), objectCB)
		return r, nil
	}
	cb, err := renderer.NewConstantBuffer(ctx.Device, name+"."+objectCB, desc.Size, ctx.FrameCount)
	if err != nil {
		return nil, err
	}
	r.cb = cb
	return r, nil
}

// NewMeshRendererFromMesh looks the submesh up by name.
func NewMeshRendererFromMesh(ctx *renderer.Context, name string, mat *material.Material, mesh *renderer.MeshGeometry, submeshName, objectCB string) (*MeshRenderer, error) {
	if mesh == nil {
		return nil, fmt.Errorf("%w: renderer %s has no mesh", core.ErrUnknownResource, name)
	}
	sm, err := mesh.Submesh(submeshName)
	if err != nil {
		return nil, err
	}
	return NewMeshRenderer(ctx, name, mat, mesh, sm, objectCB)
}

func (r *MeshRenderer) isRenderer() {}

func (r *MeshRenderer) Name() string {
	return r.name
}

func (r *MeshRenderer) Material() *material.Material {
	return r.material
}

func (r *MeshRenderer) Mesh() *renderer.MeshGeometry {
	return r.mesh
}

func (r *MeshRenderer) Submesh() metadata.SubmeshGeometry {
	return r.submesh
}

// ConstantBuffer returns the per-object constants, nil when the program has none.
func (r *MeshRenderer) ConstantBuffer() *renderer.ConstantBuffer {
	return r.cb
}

// SetObjectData replaces the per-object constants with a fixed-size value.
func (r *MeshRenderer) SetObjectData(v any) error {
	if r.cb == nil {
		return fmt.Errorf("%w: renderer %s has no object constants", core.ErrUnknownResource, r.name)
	}
	return r.cb.Set(v)
}

// WriteObjectData copies b into the per-object constants at offset.
func (r *MeshRenderer) WriteObjectData(offset uint32, b []byte) error {
	if r.cb == nil {
		return fmt.Errorf("%w: renderer %s has no object constants", core.ErrUnknownResource, r.name)
	}
	return r.cb.Write(offset, b)
}

// ObjectData returns a copy of the per-object constants. It does not mark them dirty.
func (r *MeshRenderer) ObjectData() []byte {
	if r.cb == nil {
		return nil
	}
	return r.cb.Bytes()
}

// ObjectDataRef returns the per-object constants for in-place edits and marks them dirty.
func (r *MeshRenderer) ObjectDataRef() []byte {
	if r.cb == nil {
		return nil
	}
	return r.cb.Ref()
}

// LoadObject decodes the per-object constants of r as T.
func LoadObject[T any](r *MeshRenderer) (T, error) {
	var zero T
	if r.cb == nil {
		return zero, fmt.Errorf("%w: renderer %s has no object constants", core.ErrUnknownResource, r.name)
	}
	return renderer.Load[T](r.cb)
}

// ModifyObject edits the per-object constants of r as T and marks them dirty.
func ModifyObject[T any](r *MeshRenderer, fn func(*T)) error {
	if r.cb == nil {
		return fmt.Errorf("%w: renderer %s has no object constants", core.ErrUnknownResource, r.name)
	}
	return renderer.Modify(r.cb, fn)
}

func (r *MeshRenderer) Update(frame int) error {
	if r.cb == nil {
		return nil
	}
	_, err := r.cb.Update(frame)
	return err
}

func (r *MeshRenderer) Setup(cl renderer.CommandList, frame int) {
	cl.IASetVertexBuffers(0, r.mesh.VertexBufferView())
	cl.IASetIndexBuffer(r.mesh.IndexBufferView())
	r.material.SetPrimitiveTopology(cl)
	r.material.Setup(cl, frame)
	if r.cb != nil {
		r.material.SetConstantBufferView(cl, r.cbName, r.cb.Address(frame))
	}
}

func (r *MeshRenderer) DrawIndexedInstanced(cl renderer.CommandList) {
	cl.DrawIndexedInstanced(r.submesh.IndexCount, 1, r.submesh.StartIndexLocation, r.submesh.BaseVertexLocation, 0)
}

func (r *MeshRenderer) SetPipelineState(cl renderer.CommandList) {
	r.material.SetPipelineState(cl)
}

func (r *MeshRenderer) SetGraphicsRootSignature(cl renderer.CommandList) {
	r.material.SetGraphicsRootSignature(cl)
}

func (r *MeshRenderer) SetConstantBufferView(cl renderer.CommandList, name string, addr metadata.GPUVirtualAddress) {
	r.material.SetConstantBufferView(cl, name, addr)
}
