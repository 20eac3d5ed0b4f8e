package metadata

/** @brief The usage a resource is in between barriers. Values match the native enum. */
type ResourceState uint32

const (
	ResourceStatePresent                ResourceState = 0
	ResourceStateRenderTarget           ResourceState = 0x4
	ResourceStateUnorderedAccess        ResourceState = 0x8
	ResourceStateNonPixelShaderResource ResourceState = 0x40
	ResourceStateCopyDest               ResourceState = 0x400
	ResourceStateCopySource             ResourceState = 0x800
)

func (s ResourceState) String() string {
	switch s {
	case ResourceStatePresent:
		return "PRESENT"
	case ResourceStateRenderTarget:
		return "RENDER_TARGET"
	case ResourceStateUnorderedAccess:
		return "UNORDERED_ACCESS"
	case ResourceStateNonPixelShaderResource:
		return "NON_PIXEL_SHADER_RESOURCE"
	case ResourceStateCopyDest:
		return "COPY_DEST"
	case ResourceStateCopySource:
		return "COPY_SOURCE"
	}
	return "UNKNOWN"
}
