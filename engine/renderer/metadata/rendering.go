package metadata

import "fmt"

/** @brief Draw order buckets. Layers are drawn in declaration order. */
type RenderLayer int

const (
	RenderLayerOpaque RenderLayer = iota
	RenderLayerAlphaTested
	RenderLayerSkybox
	RenderLayerTransparent
	RenderLayerUI
	RenderLayerCount
)

var renderLayerNames = [...]string{"opaque", "alpha_tested", "skybox", "transparent", "ui"}

func (l RenderLayer) String() string {
	if l >= 0 && l < RenderLayerCount {
		return renderLayerNames[l]
	}
	return fmt.Sprintf("layer(%d)", int(l))
}

// ParseRenderLayer maps a layer name as written in scene and material files.
// An empty name is the opaque layer.
func ParseRenderLayer(s string) (RenderLayer, error) {
	if s == "" {
		return RenderLayerOpaque, nil
	}
	for i, n := range renderLayerNames {
		if n == s {
			return RenderLayer(i), nil
		}
	}
	return RenderLayerOpaque, fmt.Errorf("unknown render layer %q", s)
}
