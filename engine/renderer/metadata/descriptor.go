package metadata

/** @brief The kind of descriptors a heap holds. Values match the native enum. */
type DescriptorHeapType uint32

const (
	DescriptorHeapTypeCBVSRVUAV DescriptorHeapType = 0
	DescriptorHeapTypeSampler   DescriptorHeapType = 1
	DescriptorHeapTypeRTV       DescriptorHeapType = 2
	DescriptorHeapTypeDSV       DescriptorHeapType = 3
)

func (t DescriptorHeapType) String() string {
	switch t {
	case DescriptorHeapTypeCBVSRVUAV:
		return "CBV_SRV_UAV"
	case DescriptorHeapTypeSampler:
		return "SAMPLER"
	case DescriptorHeapTypeRTV:
		return "RTV"
	case DescriptorHeapTypeDSV:
		return "DSV"
	}
	return "UNKNOWN"
}

// ShaderVisible reports whether heaps of this type are bound to the pipeline.
// Render target and depth stencil heaps never are.
func (t DescriptorHeapType) ShaderVisible() bool {
	return t == DescriptorHeapTypeCBVSRVUAV || t == DescriptorHeapTypeSampler
}

type CPUDescriptorHandle uint64

func (h CPUDescriptorHandle) Offset(n, stride uint32) CPUDescriptorHandle {
	return h + CPUDescriptorHandle(uint64(n)*uint64(stride))
}

type GPUDescriptorHandle uint64

func (h GPUDescriptorHandle) Offset(n, stride uint32) GPUDescriptorHandle {
	return h + GPUDescriptorHandle(uint64(n)*uint64(stride))
}

type GPUVirtualAddress uint64

/**
 * @brief One descriptor slot in a heap, addressable from both CPU and GPU.
 * The GPU handle is zero for heaps that are not shader visible.
 */
type DescriptorHeapAllocation struct {
	CPU CPUDescriptorHandle
	GPU GPUDescriptorHandle
}

// IsNull is true when either handle is zero.
func (a DescriptorHeapAllocation) IsNull() bool {
	return a.CPU == 0 || a.GPU == 0
}
