package math

// Vec2 represents a 2D vector
type Vec2 struct {
	X, Y float32
}

// Vec3 represents a 3D vector
type Vec3 struct {
	X, Y, Z float32
}

// Vec4 represents a 4D vector
type Vec4 struct {
	X, Y, Z, W float32
}

/**
 * @brief A row-major 4x4 matrix using row vectors, translation lives in
 * elements 12..14. Transpose before uploading to column-major shader constants.
 */
type Mat4 struct {
	Data [16]float32
}

/** @brief The vertex layout shared by the box, sphere and imported meshes. */
type Vertex struct {
	Position Vec3
	Normal   Vec3
	Texcoord Vec2
}

/** @brief The vertex layout of the terrain grid. */
type TerrainVertex struct {
	Position Vec3
	Texcoord Vec2
}
