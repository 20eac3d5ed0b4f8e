package frames

import (
	"fmt"

	"github.com/spaghettifunk/soco/engine/containers"
	"github.com/spaghettifunk/soco/engine/core"
	"github.com/spaghettifunk/soco/engine/renderer"
)

// FrameResource holds what the CPU needs to record one frame while the GPU
// may still be reading the previous ones.
type FrameResource struct {
	Allocator renderer.CommandAllocator
	PassCB    *renderer.UploadBuffer
	// Fence is the value signaled after this frame's work was submitted, 0 if never.
	Fence uint64
}

/**
 * @brief A fixed ring of frame resources shared with the GPU through a single
 * fence. The CPU may run at most Len()-1 frames ahead.
 */
type Ring struct {
	ring         *containers.Ring[*FrameResource]
	fence        renderer.Fence
	queue        renderer.CommandQueue
	currentFence uint64
}

func NewRing(device renderer.Device, count int, passCBSize uint32) (*Ring, error) {
	slots := make([]*FrameResource, count)
	for i := range slots {
		alloc, err := device.CreateCommandAllocator()
		if err != nil {
			err = fmt.Errorf("%w: command allocator for frame %d: %v", core.ErrNativeCall, i, err)
			core.LogError("%s", err)
			return nil, err
		}
		passCB, err := renderer.NewUploadBuffer(device, fmt.Sprintf("cbPass[%d]", i), 1, passCBSize, true)
		if err != nil {
			return nil, err
		}
		slots[i] = &FrameResource{Allocator: alloc, PassCB: passCB}
	}
	ring, err := containers.NewRing(slots...)
	if err != nil {
		return nil, fmt.Errorf("frame ring: %w", err)
	}
	fence, err := device.CreateFence(0)
	if err != nil {
		err = fmt.Errorf("%w: frame fence: %v", core.ErrNativeCall, err)
		core.LogError("%s", err)
		return nil, err
	}
	return &Ring{
		ring:  ring,
		fence: fence,
		queue: device.CommandQueue(),
	}, nil
}

// Advance moves to the next frame resource and blocks until the GPU is done
// with the work previously recorded in it.
func (r *Ring) Advance() (*FrameResource, error) {
	fr := r.ring.Advance()
	if fr.Fence != 0 && r.fence.CompletedValue() < fr.Fence {
		core.LogDebug("waiting on frame %d fence %d", r.ring.Index(), fr.Fence)
		if err := r.fence.Wait(fr.Fence); err != nil {
			return nil, fmt.Errorf("%w: waiting on fence %d: %v", core.ErrNativeCall, fr.Fence, err)
		}
	}
	return fr, nil
}

// Signal marks the current frame with a new fence value and asks the queue to
// signal it once the submitted work completes.
func (r *Ring) Signal() error {
	r.currentFence++
	r.ring.Current().Fence = r.currentFence
	if err := r.queue.Signal(r.fence, r.currentFence); err != nil {
		return fmt.Errorf("%w: signaling fence %d: %v", core.ErrNativeCall, r.currentFence, err)
	}
	return nil
}

// Flush blocks until every signaled frame has completed.
func (r *Ring) Flush() error {
	if r.currentFence == 0 || r.fence.CompletedValue() >= r.currentFence {
		return nil
	}
	return r.fence.Wait(r.currentFence)
}

func (r *Ring) Current() *FrameResource {
	return r.ring.Current()
}

// Index is the slot of the current frame, used to address per-frame constant buffer slots.
func (r *Ring) Index() int {
	return r.ring.Index()
}

func (r *Ring) Len() int {
	return r.ring.Len()
}

func (r *Ring) Fence() renderer.Fence {
	return r.fence
}
