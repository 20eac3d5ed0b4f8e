package geometry

import (
	stdmath "math"

	"github.com/spaghettifunk/soco/engine/math"
)

// maxSubdivisions bounds Subdivide; each pass quadruples the triangle count.
const maxSubdivisions = 6

/**
 * @brief Procedurally generated mesh data with 32-bit indices. Indices16 gives
 * the narrowed form for meshes uploaded with a 16-bit index buffer.
 */
type MeshData struct {
	Vertices []math.Vertex
	Indices  []uint32
}

// Indices16 narrows the index list. Only valid while len(Vertices) <= 65536.
func (m *MeshData) Indices16() []uint16 {
	out := make([]uint16, len(m.Indices))
	for i, idx := range m.Indices {
		out[i] = uint16(idx)
	}
	return out
}

/**
 * @brief Box builds an axis-aligned box centered at the origin with 24
 * vertices (4 per face, so every face carries its own normal and uv) and
 * 36 indices. Each subdivision splits every triangle into four.
 */
func Box(width, height, depth float32, subdivisions int) MeshData {
	w2, h2, d2 := 0.5*width, 0.5*height, 0.5*depth

	v := func(x, y, z, nx, ny, nz, u, t float32) math.Vertex {
		return math.Vertex{
			Position: math.NewVec3(x, y, z),
			Normal:   math.NewVec3(nx, ny, nz),
			Texcoord: math.Vec2{X: u, Y: t},
		}
	}

	vertices := []math.Vertex{
		// front
		v(-w2, -h2, -d2, 0, 0, -1, 0, 1),
		v(-w2, +h2, -d2, 0, 0, -1, 0, 0),
		v(+w2, +h2, -d2, 0, 0, -1, 1, 0),
		v(+w2, -h2, -d2, 0, 0, -1, 1, 1),
		// back
		v(-w2, -h2, +d2, 0, 0, 1, 1, 1),
		v(+w2, -h2, +d2, 0, 0, 1, 0, 1),
		v(+w2, +h2, +d2, 0, 0, 1, 0, 0),
		v(-w2, +h2, +d2, 0, 0, 1, 1, 0),
		// top
		v(-w2, +h2, -d2, 0, 1, 0, 0, 1),
		v(-w2, +h2, +d2, 0, 1, 0, 0, 0),
		v(+w2, +h2, +d2, 0, 1, 0, 1, 0),
		v(+w2, +h2, -d2, 0, 1, 0, 1, 1),
		// bottom
		v(-w2, -h2, -d2, 0, -1, 0, 1, 1),
		v(+w2, -h2, -d2, 0, -1, 0, 0, 1),
		v(+w2, -h2, +d2, 0, -1, 0, 0, 0),
		v(-w2, -h2, +d2, 0, -1, 0, 1, 0),
		// left
		v(-w2, -h2, +d2, -1, 0, 0, 0, 1),
		v(-w2, +h2, +d2, -1, 0, 0, 0, 0),
		v(-w2, +h2, -d2, -1, 0, 0, 1, 0),
		v(-w2, -h2, -d2, -1, 0, 0, 1, 1),
		// right
		v(+w2, -h2, -d2, 1, 0, 0, 0, 1),
		v(+w2, +h2, -d2, 1, 0, 0, 0, 0),
		v(+w2, +h2, +d2, 1, 0, 0, 1, 0),
		v(+w2, -h2, +d2, 1, 0, 0, 1, 1),
	}

	indices := make([]uint32, 0, 36)
	for f := uint32(0); f < 6; f++ {
		b := 4 * f
		indices = append(indices, b, b+1, b+2, b, b+2, b+3)
	}

	mesh := MeshData{Vertices: vertices, Indices: indices}
	subdivisions = min(subdivisions, maxSubdivisions)
	for i := 0; i < subdivisions; i++ {
		mesh = Subdivide(mesh)
	}
	return mesh
}

/**
 * @brief Sphere builds a UV sphere centered at the origin. The poles are single
 * vertices; every ring in between duplicates its seam vertex so the texture
 * wraps cleanly.
 */
func Sphere(radius float32, slices, stacks int) MeshData {
	var mesh MeshData

	mesh.Vertices = append(mesh.Vertices, math.Vertex{
		Position: math.NewVec3(0, radius, 0),
		Normal:   math.NewVec3(0, 1, 0),
		Texcoord: math.Vec2{X: 0, Y: 0},
	})

	phiStep := stdmath.Pi / float64(stacks)
	thetaStep := 2 * stdmath.Pi / float64(slices)

	for i := 1; i <= stacks-1; i++ {
		phi := float64(i) * phiStep
		for j := 0; j <= slices; j++ {
			theta := float64(j) * thetaStep
			p := math.NewVec3(
				float32(float64(radius)*stdmath.Sin(phi)*stdmath.Cos(theta)),
				float32(float64(radius)*stdmath.Cos(phi)),
				float32(float64(radius)*stdmath.Sin(phi)*stdmath.Sin(theta)),
			)
			mesh.Vertices = append(mesh.Vertices, math.Vertex{
				Position: p,
				Normal:   p.Normalized(),
				Texcoord: math.Vec2{
					X: float32(theta / (2 * stdmath.Pi)),
					Y: float32(phi / stdmath.Pi),
				},
			})
		}
	}

	mesh.Vertices = append(mesh.Vertices, math.Vertex{
		Position: math.NewVec3(0, -radius, 0),
		Normal:   math.NewVec3(0, -1, 0),
		Texcoord: math.Vec2{X: 0, Y: 1},
	})

	// north cap
	for i := 1; i <= slices; i++ {
		mesh.Indices = append(mesh.Indices, 0, uint32(i+1), uint32(i))
	}

	base := uint32(1)
	ring := uint32(slices + 1)
	for i := uint32(0); i < uint32(stacks-2); i++ {
		for j := uint32(0); j < uint32(slices); j++ {
			mesh.Indices = append(mesh.Indices,
				base+i*ring+j,
				base+i*ring+j+1,
				base+(i+1)*ring+j,

				base+(i+1)*ring+j,
				base+i*ring+j+1,
				base+(i+1)*ring+j+1,
			)
		}
	}

	// south cap
	south := uint32(len(mesh.Vertices) - 1)
	base = south - ring
	for i := uint32(0); i < uint32(slices); i++ {
		mesh.Indices = append(mesh.Indices, south, base+i, base+i+1)
	}

	return mesh
}

// Subdivide splits every triangle into four through its edge midpoints.
func Subdivide(in MeshData) MeshData {
	var out MeshData
	for t := 0; t+2 < len(in.Indices); t += 3 {
		v0 := in.Vertices[in.Indices[t]]
		v1 := in.Vertices[in.Indices[t+1]]
		v2 := in.Vertices[in.Indices[t+2]]

		m0 := midpoint(v0, v1)
		m1 := midpoint(v1, v2)
		m2 := midpoint(v0, v2)

		b := uint32(len(out.Vertices))
		out.Vertices = append(out.Vertices, v0, v1, v2, m0, m1, m2)
		out.Indices = append(out.Indices,
			b+0, b+3, b+5,
			b+3, b+4, b+5,
			b+5, b+4, b+2,
			b+3, b+1, b+4,
		)
	}
	return out
}

func midpoint(a, b math.Vertex) math.Vertex {
	return math.Vertex{
		Position: a.Position.Add(b.Position).MulScalar(0.5),
		Normal:   a.Normal.Add(b.Normal).MulScalar(0.5).Normalized(),
		Texcoord: math.Vec2{
			X: 0.5 * (a.Texcoord.X + b.Texcoord.X),
			Y: 0.5 * (a.Texcoord.Y + b.Texcoord.Y),
		},
	}
}
