package views

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"

	"golang.org/x/image/draw"

	"github.com/spaghettifunk/soco/engine/core"
	"github.com/spaghettifunk/soco/engine/math"
	"github.com/spaghettifunk/soco/engine/renderer"
	"github.com/spaghettifunk/soco/engine/renderer/geometry"
	"github.com/spaghettifunk/soco/engine/renderer/material"
	"github.com/spaghettifunk/soco/engine/renderer/metadata"
)

const (
	TerrainMeshDownscale = 16
	TerrainHeightScale   = 200
	TerrainSubmesh       = "grid"
	HeightMapTexture     = "HeightMap"
)

/**
 * @brief A heightmap sampled into a patch grid. The heightmap stays on the CPU
 * as RGBA8 for sampling and is uploaded as a texture for the domain shader.
 */
type Terrain struct {
	name        string
	pixels      *image.RGBA
	texture     *renderer.Texture
	mesh        *renderer.MeshGeometry
	heightScale float32
}

// NewTerrain converts img to RGBA8, uploads it and builds the grid mesh.
func NewTerrain(ctx *renderer.Context, name string, img image.Image) (*Terrain, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: terrain %s has no heightmap", core.ErrUnknownResource, name)
	}
	b := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || b.Min != (image.Point{}) {
		rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	}

	t := &Terrain{
		name:        name,
		pixels:      rgba,
		heightScale: TerrainHeightScale,
	}

	w, h := rgba.Bounds().Dx(), rgba.Bounds().Dy()
	tex, err := renderer.NewTexture(ctx, metadata.ResourceDesc{
		Name:      name + ".heightmap",
		Width:     uint32(w),
		Height:    uint32(h),
		Depth:     1,
		MipLevels: 1,
		Format:    metadata.FormatR8G8B8A8Unorm,
	}, rgba.Pix)
	if err != nil {
		return nil, err
	}
	t.texture = tex

	grid, err := geometry.TerrainGrid(t.Height, w, h, TerrainMeshDownscale, t.heightScale)
	if err != nil {
		core.LogError("terrain %s: %s", name, err.Error())
		return nil, err
	}
	mesh, err := renderer.NewMeshGeometry(ctx.Device, name+"Geo", grid.Vertices, grid.Indices)
	if err != nil {
		return nil, err
	}
	mesh.DrawArgs[TerrainSubmesh] = metadata.SubmeshGeometry{IndexCount: uint32(len(grid.Indices))}
	t.mesh = mesh

	core.LogDebug("terrain %s: %dx%d heightmap, %dx%d grid", name, w, h, grid.Columns, grid.Rows)
	return t, nil
}

func (t *Terrain) Name() string {
	return t.name
}

func (t *Terrain) Texture() *renderer.Texture {
	return t.texture
}

func (t *Terrain) Mesh() *renderer.MeshGeometry {
	return t.mesh
}

func (t *Terrain) HeightScale() float32 {
	return t.heightScale
}

// Sample returns the RGBA value at texel (x, y) in [0, 1], clamped to the map edges.
func (t *Terrain) Sample(x, y int) math.Vec4 {
	b := t.pixels.Bounds()
	x = math.Clamp(x, 0, b.Dx()-1)
	y = math.Clamp(y, 0, b.Dy()-1)
	c := t.pixels.RGBAAt(x, y)
	return math.Vec4{
		X: float32(c.R) / 255,
		Y: float32(c.G) / 255,
		Z: float32(c.B) / 255,
		W: float32(c.A) / 255,
	}
}

// Height reads the green channel at (x, y).
func (t *Terrain) Height(x, y int) float32 {
	return t.Sample(x, y).Y
}

/** @brief The constants injected at the start of the terrain's object buffer. */
type TerrainObjectConstants struct {
	TexWidth  float32
	TexHeight float32
	Height    float32
}

/**
 * @brief TerrainRenderer is a MeshRenderer over a terrain's grid. It binds the
 * heightmap on the material and seeds the terrain dimensions.
 */
type TerrainRenderer struct {
	*MeshRenderer
	terrain *Terrain
}

func NewTerrainRenderer(ctx *renderer.Context, name string, terrain *Terrain, mat *material.Material, objectCB string) (*TerrainRenderer, error) {
	if terrain == nil {
		return nil, fmt.Errorf("%w: renderer %s has no terrain", core.ErrUnknownResource, name)
	}
	mr, err := NewMeshRendererFromMesh(ctx, name, mat, terrain.Mesh(), TerrainSubmesh, objectCB)
	if err != nil {
		return nil, err
	}
	mat.SetTexture(HeightMapTexture, terrain.Texture())

	r := &TerrainRenderer{MeshRenderer: mr, terrain: terrain}
	if mr.ConstantBuffer() != nil {
		var buf bytes.Buffer
		oc := TerrainObjectConstants{
			TexWidth:  float32(terrain.Texture().Width()),
			TexHeight: float32(terrain.Texture().Height()),
			Height:    terrain.HeightScale(),
		}
		if err := binary.Write(&buf, binary.LittleEndian, &oc); err != nil {
			return nil, err
		}
		if err := mr.WriteObjectData(0, buf.Bytes()); err != nil {
			core.LogError("renderer %s: %s", name, err.Error())
			return nil, err
		}
	}
	return r, nil
}

func (r *TerrainRenderer) Terrain() *Terrain {
	return r.terrain
}
