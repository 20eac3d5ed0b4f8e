package cache

import (
	"fmt"
	"sync"

	"github.com/spaghettifunk/soco/engine/core"
	"github.com/spaghettifunk/soco/engine/renderer"
)

/**
 * @brief Deduplicates root signatures by serialized content. Programs with
 * identical binding layouts share one native root signature.
 */
type RootSignatureCache struct {
	mu      sync.Mutex
	device  renderer.Device
	entries map[string]renderer.RootSignature
}

func NewRootSignatureCache(device renderer.Device) *RootSignatureCache {
	return &RootSignatureCache{
		device:  device,
		entries: map[string]renderer.RootSignature{},
	}
}

// RootSignature returns the cached signature for blob, creating it on first use.
func (c *RootSignatureCache) RootSignature(blob []byte) (renderer.RootSignature, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// string(blob) copies, so callers may reuse their buffer.
	key := string(blob)
	if rs, ok := c.entries[key]; ok {
		return rs, nil
	}
	rs, err := c.device.CreateRootSignature([]byte(key))
	if err != nil {
		err = fmt.Errorf("%w: creating root signature (%d bytes): %v", core.ErrNativeCall, len(blob), err)
		core.LogError("%s", err)
		return nil, err
	}
	c.entries[key] = rs
	core.LogDebug("root signature created, %d cached", len(c.entries))
	return rs, nil
}

func (c *RootSignatureCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
