package metadata

/** @brief A scene loaded from a .scene.toml file. */
type SceneConfig struct {
	Name     string          `toml:"name"`
	Camera   CameraConfig    `toml:"camera"`
	Light    LightConfig     `toml:"light"`
	Skybox   *SkyboxConfig   `toml:"skybox"`
	Terrain  *TerrainConfig  `toml:"terrain"`
	Objects  []ObjectConfig  `toml:"objects"`
	Overlays []OverlayConfig `toml:"overlays"`
	Post     *PostConfig     `toml:"post"`
}

type CameraConfig struct {
	Position [3]float32 `toml:"position"`
	Target   [3]float32 `toml:"target"`
	// FOV is the vertical field of view in degrees.
	FOV  float32 `toml:"fov"`
	Near float32 `toml:"near"`
	Far  float32 `toml:"far"`
}

type LightConfig struct {
	Ambient   [4]float32 `toml:"ambient"`
	Position  [3]float32 `toml:"position"`
	Strength  [3]float32 `toml:"strength"`
	FalloffAt [2]float32 `toml:"falloff"`
}

/** @brief A procedural mesh. Kind is "sphere" or "box". */
type MeshConfig struct {
	Kind         string  `toml:"kind"`
	Radius       float32 `toml:"radius"`
	Slices       int     `toml:"slices"`
	Stacks       int     `toml:"stacks"`
	Width        float32 `toml:"width"`
	Height       float32 `toml:"height"`
	Depth        float32 `toml:"depth"`
	Subdivisions int     `toml:"subdivisions"`
}

/**
 * @brief One scene object. An object orbits its parent (or the origin) at
 * OrbitRadius with OrbitSpeed radians per second and spins around its own
 * axis at SpinSpeed.
 */
type ObjectConfig struct {
	Name        string     `toml:"name"`
	Mesh        MeshConfig `toml:"mesh"`
	Material    string     `toml:"material"`
	Layer       string     `toml:"layer"`
	Parent      string     `toml:"parent"`
	Position    [3]float32 `toml:"position"`
	Scale       float32    `toml:"scale"`
	OrbitRadius float32    `toml:"orbit_radius"`
	OrbitSpeed  float32    `toml:"orbit_speed"`
	SpinSpeed   float32    `toml:"spin_speed"`
}

type SkyboxConfig struct {
	Material string `toml:"material"`
}

type TerrainConfig struct {
	Name      string `toml:"name"`
	HeightMap string `toml:"heightmap"`
	Material  string `toml:"material"`
}

/** @brief A screen-space texture quad. Size and offset are in normalized device units. */
type OverlayConfig struct {
	Shader  string     `toml:"shader"`
	Texture string     `toml:"texture"`
	Size    [2]float32 `toml:"size"`
	Offset  [2]float32 `toml:"offset"`
}

/** @brief The compute pass run over the back buffer after the scene. */
type PostConfig struct {
	Shader string `toml:"shader"`
}
