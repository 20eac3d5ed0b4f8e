package metadata

import "fmt"

/** @brief The name of the default material. */
const DefaultMaterialName string = "default"

/**
 * @brief Material configuration loaded from a .material.toml file. Data holds
 * the initial constant buffer values, Textures maps shader variable names to
 * image asset names.
 */
type MaterialConfig struct {
	/** @brief The name of the material. */
	Name string `toml:"name"`
	/** @brief The shader manifest the material is built on. */
	Shader string `toml:"shader"`
	/** @brief The render layer, opaque when empty. */
	Layer string `toml:"layer"`
	/** @brief Overrides the default cbMaterial constant buffer name. */
	ConstantBuffer string `toml:"constant_buffer"`
	/** @brief Initial material constants. */
	Data MaterialData `toml:"data"`
	/** @brief Shader texture variable to image asset. */
	Textures map[string]string `toml:"textures"`
	/** @brief Cube map textures, loaded as six faces. */
	CubeMaps map[string]string `toml:"cube_maps"`
	/** @brief Fixed-function overrides. */
	State DrawStateConfig `toml:"state"`
}

/** @brief Initial values of the default material constant buffer. */
type MaterialData struct {
	DiffuseAlbedo [4]float32 `toml:"diffuse_albedo"`
	FresnelR0     [3]float32 `toml:"fresnel_r0"`
	Roughness     float32    `toml:"roughness"`
}

/** @brief Draw state overrides as written in material files. Empty fields keep the default. */
type DrawStateConfig struct {
	Fill       string `toml:"fill"`
	Cull       string `toml:"cull"`
	DepthFunc  string `toml:"depth_func"`
	DepthWrite *bool  `toml:"depth_write"`
	Blend      string `toml:"blend"`
}

var comparisonFuncs = map[string]ComparisonFunc{
	"never":         ComparisonFuncNever,
	"less":          ComparisonFuncLess,
	"equal":         ComparisonFuncEqual,
	"less_equal":    ComparisonFuncLessEqual,
	"greater":       ComparisonFuncGreater,
	"not_equal":     ComparisonFuncNotEqual,
	"greater_equal": ComparisonFuncGreaterEqual,
	"always":        ComparisonFuncAlways,
}

// Apply writes the overrides on top of s.
func (c DrawStateConfig) Apply(s *DrawState) error {
	switch c.Fill {
	case "":
	case "solid":
		s.Rasterizer.FillMode = FillModeSolid
	case "wireframe":
		s.Rasterizer.FillMode = FillModeWireframe
	default:
		return fmt.Errorf("unknown fill mode %q", c.Fill)
	}

	switch c.Cull {
	case "":
	case "none":
		s.Rasterizer.CullMode = CullModeNone
	case "front":
		s.Rasterizer.CullMode = CullModeFront
	case "back":
		s.Rasterizer.CullMode = CullModeBack
	default:
		return fmt.Errorf("unknown cull mode %q", c.Cull)
	}

	if c.DepthFunc != "" {
		f, ok := comparisonFuncs[c.DepthFunc]
		if !ok {
			return fmt.Errorf("unknown depth function %q", c.DepthFunc)
		}
		s.DepthStencil.DepthFunc = f
	}
	if c.DepthWrite != nil {
		s.DepthStencil.DepthWriteMask = DepthWriteMaskZero
		if *c.DepthWrite {
			s.DepthStencil.DepthWriteMask = DepthWriteMaskAll
		}
	}

	switch c.Blend {
	case "", "opaque":
	case "alpha":
		s.Blend = AlphaBlendDesc()
	default:
		return fmt.Errorf("unknown blend mode %q", c.Blend)
	}
	return nil
}
