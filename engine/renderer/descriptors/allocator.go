package descriptors

import (
	"fmt"
	"sync"

	"github.com/spaghettifunk/soco/engine/core"
	"github.com/spaghettifunk/soco/engine/renderer"
	"github.com/spaghettifunk/soco/engine/renderer/metadata"
)

/**
 * @brief A bump allocator over one descriptor heap. Slots are never freed;
 * the heap lives as long as the allocator.
 */
type Allocator struct {
	mu       sync.Mutex
	heap     renderer.DescriptorHeap
	stride   uint32
	capacity uint32
	count    uint32
	visible  bool
}

// New creates the heap. CBV/SRV/UAV and sampler heaps are shader visible.
func New(device renderer.Device, heapType metadata.DescriptorHeapType, capacity uint32) (*Allocator, error) {
	heap, err := device.CreateDescriptorHeap(heapType, capacity, heapType.ShaderVisible())
	if err != nil {
		err = fmt.Errorf("%w: creating %s heap of %d: %v", core.ErrNativeCall, heapType, capacity, err)
		core.LogError("%s", err)
		return nil, err
	}
	return &Allocator{
		heap:     heap,
		stride:   device.DescriptorHandleIncrementSize(heapType),
		capacity: capacity,
		visible:  heapType.ShaderVisible(),
	}, nil
}

// Allocate reserves n consecutive slots.
func (a *Allocator) Allocate(n uint32) ([]metadata.DescriptorHeapAllocation, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if uint64(a.count)+uint64(n) > uint64(a.capacity) {
		err := fmt.Errorf("%w: %s heap holds %d descriptors, %d in use, %d requested",
			core.ErrDescriptorHeapFull, a.heap.Type(), a.capacity, a.count, n)
		core.LogError("%s", err)
		return nil, err
	}
	out := make([]metadata.DescriptorHeapAllocation, n)
	for i := range out {
		out[i] = a.descriptor(a.count + uint32(i))
	}
	a.count += n
	return out, nil
}

// GetDescriptor addresses slot i without reserving it.
func (a *Allocator) GetDescriptor(i uint32) metadata.DescriptorHeapAllocation {
	return a.descriptor(i)
}

// descriptor leaves GPU zero on heaps shaders cannot see.
func (a *Allocator) descriptor(i uint32) metadata.DescriptorHeapAllocation {
	d := metadata.DescriptorHeapAllocation{CPU: a.heap.CPUStart().Offset(i, a.stride)}
	if a.visible {
		d.GPU = a.heap.GPUStart().Offset(i, a.stride)
	}
	return d
}

func (a *Allocator) Heap() renderer.DescriptorHeap {
	return a.heap
}

// Count is the number of allocated slots.
func (a *Allocator) Count() uint32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.count
}

func (a *Allocator) Capacity() uint32 {
	return a.capacity
}
