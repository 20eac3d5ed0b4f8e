package metadata

type ResourceType int

/** @brief Asset types the asset manager indexes and loads. */
const (
	/** @brief Not an asset. */
	ResourceTypeNone ResourceType = iota
	/** @brief Shader manifest (toml) with its WGSL source. */
	ResourceTypeShader
	/** @brief Image decoded to RGBA8. */
	ResourceTypeImage
	/** @brief Material description (toml). */
	ResourceTypeMaterial
	/** @brief Scene description (toml). */
	ResourceTypeScene
	/** @brief Raw WGSL source, indexed so edits trigger a reload of the manifests using it. */
	ResourceTypeShaderSource
)

func (t ResourceType) String() string {
	switch t {
	case ResourceTypeShader:
		return "shader"
	case ResourceTypeImage:
		return "image"
	case ResourceTypeMaterial:
		return "material"
	case ResourceTypeScene:
		return "scene"
	case ResourceTypeShaderSource:
		return "wgsl"
	}
	return "none"
}

/**
 * @brief A generic structure for a resource. All resource loaders
 * load data into these.
 */
type Resource struct {
	/** @brief The name of the resource. */
	Name string
	/** @brief The full file path of the resource. */
	FullPath string
	/** @brief The resource type. */
	Type ResourceType
	/** @brief The size of the file the resource was read from. */
	DataSize uint64
	/** @brief The resource data. Its concrete type depends on Type. */
	Data any
}
