// Package headless implements the native device interfaces in memory. It
// records every command and buffer write so that binding behavior can be
// inspected without a GPU.
package headless

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/spaghettifunk/soco/engine/core"
	"github.com/spaghettifunk/soco/engine/renderer"
	"github.com/spaghettifunk/soco/engine/renderer/metadata"
)

const (
	addressAlignment = 64 * 1024
	cpuHeapBase      = 0x1000_0000
	gpuHeapBase      = 0x8000_0000
)

var incrementSizes = map[metadata.DescriptorHeapType]uint32{
	metadata.DescriptorHeapTypeCBVSRVUAV: 32,
	metadata.DescriptorHeapTypeSampler:   32,
	metadata.DescriptorHeapTypeRTV:       32,
	metadata.DescriptorHeapTypeDSV:       8,
}

// Stats counts objects created through a Device.
type Stats struct {
	RootSignatures   int
	GraphicsPSOs     int
	ComputePSOs      int
	DescriptorHeaps  int
	UploadBuffers    int
	DefaultBuffers   int
	Textures         int
	ShaderViews      int
	UnorderedViews   int
	RenderViews      int
	CommandLists     int
	BufferWrites     int
	CommandAllocator int
}

type Device struct {
	mu          sync.Mutex
	stats       Stats
	nextAddress uint64
	nextHeap    uint64
	buffers     map[string]*Buffer
	queue       *Queue

	// FailNext makes the next create call fail with the given error.
	FailNext error
}

func NewDevice() *Device {
	d := &Device{
		nextAddress: addressAlignment,
		buffers:     map[string]*Buffer{},
	}
	d.queue = &Queue{device: d}
	return d
}

func (d *Device) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}

// Buffer returns a buffer by the name it was created with.
func (d *Device) Buffer(name string) (*Buffer, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	b, ok := d.buffers[name]
	return b, ok
}

func (d *Device) takeFailure() error {
	err := d.FailNext
	d.FailNext = nil
	return err
}

func (d *Device) CreateRootSignature(blob []byte) (renderer.RootSignature, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.takeFailure(); err != nil {
		return nil, err
	}
	if _, err := metadata.DeserializeRootSignature(blob); err != nil {
		return nil, err
	}
	d.stats.RootSignatures++
	return &RootSignature{id: uuid.New(), blob: append([]byte(nil), blob...)}, nil
}

func (d *Device) CreateGraphicsPipelineState(desc *renderer.GraphicsPipelineDesc) (renderer.PipelineState, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.takeFailure(); err != nil {
		return nil, err
	}
	if desc.RootSignature == nil {
		return nil, fmt.Errorf("graphics pipeline without root signature")
	}
	d.stats.GraphicsPSOs++
	return &PipelineState{id: uuid.New(), kind: "graphics", Desc: desc.Clone()}, nil
}

func (d *Device) CreateComputePipelineState(desc *renderer.ComputePipelineDesc) (renderer.PipelineState, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.takeFailure(); err != nil {
		return nil, err
	}
	if desc.RootSignature == nil || len(desc.CS) == 0 {
		return nil, fmt.Errorf("compute pipeline needs a root signature and a compute shader")
	}
	d.stats.ComputePSOs++
	return &PipelineState{id: uuid.New(), kind: "compute"}, nil
}

func (d *Device) CreateDescriptorHeap(t metadata.DescriptorHeapType, capacity uint32, shaderVisible bool) (renderer.DescriptorHeap, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.takeFailure(); err != nil {
		return nil, err
	}
	d.stats.DescriptorHeaps++
	h := &DescriptorHeap{
		heapType: t,
		capacity: capacity,
		cpu:      metadata.CPUDescriptorHandle(cpuHeapBase + d.nextHeap),
	}
	if shaderVisible {
		h.gpu = metadata.GPUDescriptorHandle(gpuHeapBase + d.nextHeap)
	}
	d.nextHeap += uint64(capacity)*uint64(incrementSizes[t]) + addressAlignment
	return h, nil
}

func (d *Device) DescriptorHandleIncrementSize(t metadata.DescriptorHeapType) uint32 {
	return incrementSizes[t]
}

func (d *Device) newBuffer(name string, size uint64) *Buffer {
	b := &Buffer{
		device:  d,
		name:    name,
		address: metadata.GPUVirtualAddress(d.nextAddress),
		data:    make([]byte, size),
	}
	d.nextAddress += (size + addressAlignment - 1) &^ (addressAlignment - 1)
	if size == 0 {
		d.nextAddress += addressAlignment
	}
	d.buffers[name] = b
	return b
}

func (d *Device) CreateUploadBuffer(name string, size uint64) (renderer.Buffer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.takeFailure(); err != nil {
		return nil, err
	}
	d.stats.UploadBuffers++
	return d.newBuffer(name, size), nil
}

func (d *Device) CreateDefaultBuffer(name string, data []byte) (renderer.Buffer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.takeFailure(); err != nil {
		return nil, err
	}
	d.stats.DefaultBuffers++
	b := d.newBuffer(name, uint64(len(data)))
	copy(b.data, data)
	return b, nil
}

func (d *Device) CreateTexture(desc metadata.ResourceDesc, pixels []byte) (renderer.Resource, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.takeFailure(); err != nil {
		return nil, err
	}
	d.stats.Textures++
	return &Texture{desc: desc, Pixels: append([]byte(nil), pixels...)}, nil
}

func (d *Device) CreateShaderResourceView(r renderer.Resource, dest metadata.CPUDescriptorHandle) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stats.ShaderViews++
}

func (d *Device) CreateUnorderedAccessView(r renderer.Resource, dest metadata.CPUDescriptorHandle) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stats.UnorderedViews++
}

func (d *Device) CreateRenderTargetView(r renderer.Resource, dest metadata.CPUDescriptorHandle) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stats.RenderViews++
}

func (d *Device) CreateCommandAllocator() (renderer.CommandAllocator, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.takeFailure(); err != nil {
		return nil, err
	}
	d.stats.CommandAllocator++
	return &CommandAllocator{}, nil
}

func (d *Device) CreateCommandList(a renderer.CommandAllocator) (renderer.CommandList, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.takeFailure(); err != nil {
		return nil, err
	}
	d.stats.CommandLists++
	return &CommandList{}, nil
}

func (d *Device) CreateFence(initial uint64) (renderer.Fence, error) {
	return &Fence{completed: initial}, nil
}

func (d *Device) CommandQueue() renderer.CommandQueue {
	return d.queue
}

func (d *Device) countWrite() {
	d.mu.Lock()
	d.stats.BufferWrites++
	d.mu.Unlock()
}

type RootSignature struct {
	id   uuid.UUID
	blob []byte
}

func (r *RootSignature) Blob() []byte {
	return r.blob
}

func (r *RootSignature) String() string {
	return core.ResourceLabel("rootsig", "", r.id)
}

type PipelineState struct {
	id   uuid.UUID
	kind string
	// Desc is a copy of the descriptor a graphics pipeline was built from.
	Desc renderer.GraphicsPipelineDesc
}

func (p *PipelineState) Name() string {
	return core.ResourceLabel("pso", p.kind, p.id)
}

type DescriptorHeap struct {
	heapType metadata.DescriptorHeapType
	capacity uint32
	cpu      metadata.CPUDescriptorHandle
	gpu      metadata.GPUDescriptorHandle
}

func (h *DescriptorHeap) Type() metadata.DescriptorHeapType      { return h.heapType }
func (h *DescriptorHeap) Capacity() uint32                       { return h.capacity }
func (h *DescriptorHeap) CPUStart() metadata.CPUDescriptorHandle { return h.cpu }
func (h *DescriptorHeap) GPUStart() metadata.GPUDescriptorHandle { return h.gpu }

type Buffer struct {
	device  *Device
	name    string
	address metadata.GPUVirtualAddress
	mu      sync.Mutex
	data    []byte
	writes  int
}

func (b *Buffer) GPUVirtualAddress() metadata.GPUVirtualAddress {
	return b.address
}

func (b *Buffer) Size() uint64 {
	return uint64(len(b.data))
}

func (b *Buffer) Write(offset uint64, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if offset+uint64(len(data)) > uint64(len(b.data)) {
		return fmt.Errorf("write of %d bytes at %d overflows buffer %s of %d bytes", len(data), offset, b.name, len(b.data))
	}
	copy(b.data[offset:], data)
	b.writes++
	b.device.countWrite()
	return nil
}

// Writes is the number of successful Write calls.
func (b *Buffer) Writes() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.writes
}

// Bytes returns a copy of n bytes at offset.
func (b *Buffer) Bytes(offset, n uint64) []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]byte(nil), b.data[offset:offset+n]...)
}

type Texture struct {
	desc   metadata.ResourceDesc
	Pixels []byte
}

func (t *Texture) Desc() metadata.ResourceDesc {
	return t.desc
}

type CommandAllocator struct {
	Resets int
}

func (a *CommandAllocator) Reset() error {
	a.Resets++
	return nil
}
