package views

import (
	"fmt"

	"github.com/spaghettifunk/soco/engine/core"
	"github.com/spaghettifunk/soco/engine/renderer"
	"github.com/spaghettifunk/soco/engine/renderer/geometry"
	"github.com/spaghettifunk/soco/engine/renderer/material"
	"github.com/spaghettifunk/soco/engine/renderer/metadata"
)

const (
	SkyboxSubmesh = "box"
	CubeMapName   = "gCubeMap"
)

type SkyboxOption func(*skyboxOptions)

type skyboxOptions struct {
	mesh        *renderer.MeshGeometry
	submesh     string
	cubeMapName string
}

// WithSkyboxMesh draws the given submesh instead of the generated cube.
func WithSkyboxMesh(mesh *renderer.MeshGeometry, submesh string) SkyboxOption {
	return func(o *skyboxOptions) {
		o.mesh = mesh
		o.submesh = submesh
	}
}

// WithCubeMapName sets the texture variable the cube map binds to.
func WithCubeMapName(name string) SkyboxOption {
	return func(o *skyboxOptions) { o.cubeMapName = name }
}

/**
 * @brief SkyboxRenderer draws a cube around the camera with a cube map. It
 * always draws a triangle list, whatever topology the material's program has.
 */
type SkyboxRenderer struct {
	material *material.Material
	mesh     *renderer.MeshGeometry
	submesh  string
}

func NewSkyboxRenderer(ctx *renderer.Context, mat *material.Material, cubeMap *renderer.Texture, opts ...SkyboxOption) (*SkyboxRenderer, error) {
	if mat == nil {
		return nil, fmt.Errorf("%w: skybox has no material", core.ErrUnknownResource)
	}
	o := skyboxOptions{cubeMapName: CubeMapName}
	for _, opt := range opts {
		opt(&o)
	}

	r := &SkyboxRenderer{material: mat, mesh: o.mesh, submesh: o.submesh}
	if r.mesh == nil {
		box := geometry.Box(2, 2, 2, 0)
		mesh, err := renderer.NewMeshGeometry(ctx.Device, "skyboxGeo", box.Vertices, box.Indices16())
		if err != nil {
			return nil, err
		}
		mesh.DrawArgs[SkyboxSubmesh] = metadata.SubmeshGeometry{IndexCount: uint32(len(box.Indices))}
		r.mesh = mesh
		r.submesh = SkyboxSubmesh
	}
	if _, err := r.mesh.Submesh(r.submesh); err != nil {
		return nil, err
	}
	if cubeMap != nil {
		mat.SetTexture(o.cubeMapName, cubeMap)
	}
	return r, nil
}

func (r *SkyboxRenderer) isRenderer() {}

func (r *SkyboxRenderer) Mesh() *renderer.MeshGeometry {
	return r.mesh
}

func (r *SkyboxRenderer) Update(int) error {
	return nil
}

func (r *SkyboxRenderer) Setup(cl renderer.CommandList, frame int) {
	cl.IASetVertexBuffers(0, r.mesh.VertexBufferView())
	cl.IASetIndexBuffer(r.mesh.IndexBufferView())
	cl.IASetPrimitiveTopology(metadata.PrimitiveTopologyTriangleList)
	r.material.Setup(cl, frame)
}

func (r *SkyboxRenderer) DrawIndexedInstanced(cl renderer.CommandList) {
	sm := r.mesh.DrawArgs[r.submesh]
	cl.DrawIndexedInstanced(sm.IndexCount, 1, sm.StartIndexLocation, sm.BaseVertexLocation, 0)
}

func (r *SkyboxRenderer) SetPipelineState(cl renderer.CommandList) {
	r.material.SetPipelineState(cl)
}

func (r *SkyboxRenderer) SetGraphicsRootSignature(cl renderer.CommandList) {
	r.material.SetGraphicsRootSignature(cl)
}

func (r *SkyboxRenderer) SetConstantBufferView(cl renderer.CommandList, name string, addr metadata.GPUVirtualAddress) {
	r.material.SetConstantBufferView(cl, name, addr)
}
