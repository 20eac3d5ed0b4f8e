package views

import (
	"github.com/spaghettifunk/soco/engine/renderer"
	"github.com/spaghettifunk/soco/engine/renderer/metadata"
)

/**
 * @brief A drawable item. The set of implementations is closed: MeshRenderer,
 * TerrainRenderer, SkyboxRenderer and TextureRenderer.
 */
type Renderer interface {
	// Update uploads per-object constants into the frame's slot when they changed.
	Update(frame int) error
	// Setup binds geometry, topology, material resources and per-object constants.
	Setup(cl renderer.CommandList, frame int)
	DrawIndexedInstanced(cl renderer.CommandList)
	SetPipelineState(cl renderer.CommandList)
	SetGraphicsRootSignature(cl renderer.CommandList)
	SetConstantBufferView(cl renderer.CommandList, name string, addr metadata.GPUVirtualAddress)

	isRenderer()
}

// UpdateRenderItems runs Update on every item and stops at the first error.
func UpdateRenderItems(frame int, items []Renderer) error {
	for _, item := range items {
		if err := item.Update(frame); err != nil {
			return err
		}
	}
	return nil
}

/**
 * @brief DrawRenderItems records the draw of every item in order. The pass
 * constants are bound per item because items may use different root
 * signatures.
 */
func DrawRenderItems(cl renderer.CommandList, frame int, items []Renderer, passCBName string, passAddr metadata.GPUVirtualAddress) {
	for _, item := range items {
		item.SetPipelineState(cl)
		item.SetGraphicsRootSignature(cl)
		item.Setup(cl, frame)
		item.SetConstantBufferView(cl, passCBName, passAddr)
		item.DrawIndexedInstanced(cl)
	}
}
