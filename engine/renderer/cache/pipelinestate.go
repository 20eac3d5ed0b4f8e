package cache

import (
	"fmt"
	"slices"
	"sync"

	"github.com/spaghettifunk/soco/engine/core"
	"github.com/spaghettifunk/soco/engine/renderer"
)

type pipelineEntry struct {
	desc  renderer.GraphicsPipelineDesc
	state renderer.PipelineState
}

/**
 * @brief Deduplicates graphics pipeline states. Entries are kept sorted by
 * ComparePipelineDesc and looked up with binary search.
 */
type PipelineStateCache struct {
	mu      sync.Mutex
	device  renderer.Device
	entries []pipelineEntry
}

func NewPipelineStateCache(device renderer.Device) *PipelineStateCache {
	return &PipelineStateCache{device: device}
}

// GraphicsPipelineState returns the cached state for desc, creating it on first use.
func (c *PipelineStateCache) GraphicsPipelineState(desc *renderer.GraphicsPipelineDesc) (renderer.PipelineState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i, found := slices.BinarySearchFunc(c.entries, desc, func(e pipelineEntry, d *renderer.GraphicsPipelineDesc) int {
		return ComparePipelineDesc(&e.desc, d)
	})
	if found {
		return c.entries[i].state, nil
	}

	state, err := c.device.CreateGraphicsPipelineState(desc)
	if err != nil {
		err = fmt.Errorf("%w: creating graphics pipeline state: %v", core.ErrNativeCall, err)
		core.LogError("%s", err)
		return nil, err
	}
	c.entries = slices.Insert(c.entries, i, pipelineEntry{desc: desc.Clone(), state: state})
	core.LogDebug("pipeline state %s created, %d cached", state.Name(), len(c.entries))
	return state, nil
}

func (c *PipelineStateCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
