package renderer

import "github.com/spaghettifunk/soco/engine/renderer/metadata"

// RootSignature is a native root signature created from a serialized descriptor.
type RootSignature interface {
	// Blob returns the serialized descriptor the signature was created from.
	Blob() []byte
}

type PipelineState interface {
	Name() string
}

type DescriptorHeap interface {
	Type() metadata.DescriptorHeapType
	Capacity() uint32
	CPUStart() metadata.CPUDescriptorHandle
	// GPUStart is zero for heaps that are not shader visible.
	GPUStart() metadata.GPUDescriptorHandle
}

// Buffer is a GPU buffer that is persistently mapped for CPU writes.
type Buffer interface {
	GPUVirtualAddress() metadata.GPUVirtualAddress
	Size() uint64
	Write(offset uint64, data []byte) error
}

type Resource interface {
	Desc() metadata.ResourceDesc
}

type CommandAllocator interface {
	Reset() error
}

type Fence interface {
	CompletedValue() uint64
	// Wait blocks until the completed value reaches v.
	Wait(v uint64) error
}

type CommandQueue interface {
	Execute(lists ...CommandList) error
	Signal(f Fence, v uint64) error
}

/**
 * @brief The native device. Everything the rendering core creates on the GPU
 * goes through this interface.
 */
type Device interface {
	CreateRootSignature(blob []byte) (RootSignature, error)
	CreateGraphicsPipelineState(desc *GraphicsPipelineDesc) (PipelineState, error)
	CreateComputePipelineState(desc *ComputePipelineDesc) (PipelineState, error)
	CreateDescriptorHeap(t metadata.DescriptorHeapType, capacity uint32, shaderVisible bool) (DescriptorHeap, error)
	DescriptorHandleIncrementSize(t metadata.DescriptorHeapType) uint32
	CreateUploadBuffer(name string, size uint64) (Buffer, error)
	// CreateDefaultBuffer creates a GPU-local buffer initialized with data.
	CreateDefaultBuffer(name string, data []byte) (Buffer, error)
	CreateTexture(desc metadata.ResourceDesc, pixels []byte) (Resource, error)
	CreateShaderResourceView(r Resource, dest metadata.CPUDescriptorHandle)
	CreateUnorderedAccessView(r Resource, dest metadata.CPUDescriptorHandle)
	CreateRenderTargetView(r Resource, dest metadata.CPUDescriptorHandle)
	CreateCommandAllocator() (CommandAllocator, error)
	CreateCommandList(a CommandAllocator) (CommandList, error)
	CreateFence(initial uint64) (Fence, error)
	CommandQueue() CommandQueue
}

// CommandList records GPU work. Calls mirror the native command list.
type CommandList interface {
	Reset(a CommandAllocator, initial PipelineState) error
	Close() error

	SetDescriptorHeaps(heaps ...DescriptorHeap)
	SetGraphicsRootSignature(rs RootSignature)
	SetComputeRootSignature(rs RootSignature)
	SetPipelineState(ps PipelineState)

	SetGraphicsRootConstantBufferView(slot uint32, addr metadata.GPUVirtualAddress)
	SetComputeRootConstantBufferView(slot uint32, addr metadata.GPUVirtualAddress)
	SetGraphicsRootDescriptorTable(slot uint32, base metadata.GPUDescriptorHandle)
	SetComputeRootDescriptorTable(slot uint32, base metadata.GPUDescriptorHandle)

	IASetPrimitiveTopology(t metadata.PrimitiveTopology)
	IASetVertexBuffers(startSlot uint32, views ...metadata.VertexBufferView)
	IASetIndexBuffer(view metadata.IndexBufferView)

	ResourceBarrier(r Resource, before, after metadata.ResourceState)
	OMSetRenderTargets(rtv metadata.CPUDescriptorHandle)
	ClearRenderTargetView(rtv metadata.CPUDescriptorHandle, color [4]float32)
	CopyResource(dst, src Resource)

	DrawIndexedInstanced(indexCount, instanceCount, startIndex uint32, baseVertex int32, startInstance uint32)
	DrawInstanced(vertexCount, instanceCount, startVertex, startInstance uint32)
	Dispatch(x, y, z uint32)
}

// Reflector extracts binding and input information from compiled bytecode.
type Reflector interface {
	Reflect(code metadata.ShaderBytecode) (*metadata.StageReflection, error)
}
