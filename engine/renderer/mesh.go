package renderer

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"

	"github.com/spaghettifunk/soco/engine/core"
	"github.com/spaghettifunk/soco/engine/renderer/metadata"
)

/**
 * @brief Vertex and index buffers shared by one or more submeshes. DrawArgs
 * maps submesh names to their index ranges.
 */
type MeshGeometry struct {
	ID                   uuid.UUID
	Name                 string
	VertexBuffer         Buffer
	IndexBuffer          Buffer
	VertexByteStride     uint32
	VertexBufferByteSize uint32
	IndexFormat          metadata.Format
	IndexBufferByteSize  uint32
	DrawArgs             map[string]metadata.SubmeshGeometry
}

// Index is the set of index element types a mesh can be built with.
type Index interface {
	uint16 | uint32
}

/**
 * @brief NewMeshGeometry uploads vertices and indices into default buffers.
 * vertices must be a slice of fixed-size structs. The index format follows I.
 */
func NewMeshGeometry[V any, I Index](device Device, name string, vertices []V, indices []I) (*MeshGeometry, error) {
	if len(vertices) == 0 {
		return nil, fmt.Errorf("%w: mesh %s has no vertices", core.ErrUnknownResource, name)
	}
	var vb bytes.Buffer
	if err := binary.Write(&vb, binary.LittleEndian, vertices); err != nil {
		return nil, fmt.Errorf("encoding vertices of %s: %w", name, err)
	}
	var ib bytes.Buffer
	if err := binary.Write(&ib, binary.LittleEndian, indices); err != nil {
		return nil, fmt.Errorf("encoding indices of %s: %w", name, err)
	}

	vbuf, err := device.CreateDefaultBuffer(name+".vb", vb.Bytes())
	if err != nil {
		err = fmt.Errorf("%w: vertex buffer of %s: %v", core.ErrNativeCall, name, err)
		core.LogError("%s", err)
		return nil, err
	}
	ibuf, err := device.CreateDefaultBuffer(name+".ib", ib.Bytes())
	if err != nil {
		err = fmt.Errorf("%w: index buffer of %s: %v", core.ErrNativeCall, name, err)
		core.LogError("%s", err)
		return nil, err
	}

	format := metadata.FormatR16Uint
	var zero I
	if binary.Size(zero) == 4 {
		format = metadata.FormatR32Uint
	}

	return &MeshGeometry{
		ID:                   core.NewResourceID(),
		Name:                 name,
		VertexBuffer:         vbuf,
		IndexBuffer:          ibuf,
		VertexByteStride:     uint32(binary.Size(vertices[0])),
		VertexBufferByteSize: uint32(vb.Len()),
		IndexFormat:          format,
		IndexBufferByteSize:  uint32(ib.Len()),
		DrawArgs:             map[string]metadata.SubmeshGeometry{},
	}, nil
}

func (g *MeshGeometry) VertexBufferView() metadata.VertexBufferView {
	return metadata.VertexBufferView{
		BufferLocation: g.VertexBuffer.GPUVirtualAddress(),
		SizeInBytes:    g.VertexBufferByteSize,
		StrideInBytes:  g.VertexByteStride,
	}
}

func (g *MeshGeometry) IndexBufferView() metadata.IndexBufferView {
	return metadata.IndexBufferView{
		BufferLocation: g.IndexBuffer.GPUVirtualAddress(),
		SizeInBytes:    g.IndexBufferByteSize,
		Format:         g.IndexFormat,
	}
}

// Submesh looks up a named index range.
func (g *MeshGeometry) Submesh(name string) (metadata.SubmeshGeometry, error) {
	sm, ok := g.DrawArgs[name]
	if !ok {
		return sm, fmt.Errorf("%w: mesh %s has no submesh %q", core.ErrUnknownResource, g.Name, name)
	}
	return sm, nil
}
