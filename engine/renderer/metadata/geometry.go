package metadata

/**
 * @brief A named range inside a shared vertex and index buffer.
 */
type SubmeshGeometry struct {
	IndexCount         uint32
	StartIndexLocation uint32
	BaseVertexLocation int32
}

type VertexBufferView struct {
	BufferLocation GPUVirtualAddress
	SizeInBytes    uint32
	StrideInBytes  uint32
}

type IndexBufferView struct {
	BufferLocation GPUVirtualAddress
	SizeInBytes    uint32
	Format         Format
}

/** @brief Describes a GPU buffer or texture at creation time. */
type ResourceDesc struct {
	Name      string
	Width     uint32
	Height    uint32
	Depth     uint32
	MipLevels uint32
	Format    Format
	// Cube is set for six-face cube maps.
	Cube bool
}
