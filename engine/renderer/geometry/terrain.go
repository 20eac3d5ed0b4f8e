package geometry

import (
	"fmt"

	"github.com/spaghettifunk/soco/engine/core"
	"github.com/spaghettifunk/soco/engine/math"
)

/** @brief HeightFunc samples the heightmap at texel (x, y). Result is in [0, 1]. */
type HeightFunc func(x, y int) float32

/** @brief The vertex and patch index lists of a terrain grid. */
type TerrainData struct {
	Vertices []math.TerrainVertex
	Indices  []uint32
	// Columns and Rows are the vertex counts along x and z.
	Columns int
	Rows    int
}

/**
 * @brief TerrainGrid samples a width x height heightmap every downscale texels
 * and builds an m x n vertex grid spanning the full map extent, centered on the
 * origin. Each quad emits a 4-control-point patch.
 */
func TerrainGrid(heightAt HeightFunc, width, height, downscale int, heightScale float32) (TerrainData, error) {
	if downscale <= 0 {
		return TerrainData{}, fmt.Errorf("%w: terrain downscale %d", core.ErrUnknown, downscale)
	}
	m := width / downscale
	n := height / downscale
	if m < 2 || n < 2 {
		return TerrainData{}, fmt.Errorf("%w: heightmap %dx%d is too small for downscale %d", core.ErrUnknownResource, width, height, downscale)
	}

	fw, fh := float32(width), float32(height)
	halfW, halfH := 0.5*fw, 0.5*fh
	dx := fw / float32(m-1)
	dz := fh / float32(n-1)
	du := 1 / float32(m-1)
	dv := 1 / float32(n-1)

	data := TerrainData{
		Vertices: make([]math.TerrainVertex, m*n),
		Indices:  make([]uint32, 0, (m-1)*(n-1)*4),
		Columns:  m,
		Rows:     n,
	}

	for i := 0; i < n; i++ {
		z := -halfH + float32(i)*dz
		for j := 0; j < m; j++ {
			x := -halfW + float32(j)*dx
			y := heightAt(j*downscale, i*downscale) * heightScale
			data.Vertices[i*m+j] = math.TerrainVertex{
				Position: math.NewVec3(x, y, z),
				Texcoord: math.Vec2{X: float32(j) * du, Y: float32(i) * dv},
			}
		}
	}

	um := uint32(m)
	for i := uint32(0); i < uint32(n-1); i++ {
		for j := uint32(0); j < um-1; j++ {
			data.Indices = append(data.Indices,
				(i+1)*um+j,
				(i+1)*um+j+1,
				i*um+j,
				i*um+j+1,
			)
		}
	}
	return data, nil
}
