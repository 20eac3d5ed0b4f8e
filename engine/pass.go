package engine

import (
	"bytes"
	"encoding/binary"

	"github.com/spaghettifunk/soco/engine/math"
	"github.com/spaghettifunk/soco/engine/renderer/components"
	"github.com/spaghettifunk/soco/engine/renderer/metadata"
)

const (
	MaxLights  = 16
	PassCBName = "cbPass"
)

/**
 * @brief Light is shared by directional, point and spot lights. Fields are
 * packed to 16 byte rows.
 */
type Light struct {
	Strength     math.Vec3
	FalloffStart float32
	Direction    math.Vec3
	FalloffEnd   float32
	Position     math.Vec3
	SpotPower    float32
}

/**
 * @brief PassConstants is the per-frame constant buffer bound under "cbPass".
 * Matrices are stored transposed for the shaders.
 */
type PassConstants struct {
	View        math.Mat4
	InvView     math.Mat4
	Proj        math.Mat4
	InvProj     math.Mat4
	ViewProj    math.Mat4
	InvViewProj math.Mat4

	EyePosW             math.Vec3
	pad1                float32
	RenderTargetSize    math.Vec2
	InvRenderTargetSize math.Vec2
	NearZ               float32
	FarZ                float32
	TotalTime           float32
	DeltaTime           float32

	AmbientLight math.Vec4
	FogColor     math.Vec4
	FogStart     float32
	FogRange     float32
	pad2         math.Vec2

	Lights [MaxLights]Light
}

// PassConstantsSize is the encoded size of PassConstants.
func PassConstantsSize() uint32 {
	return uint32(binary.Size(PassConstants{}))
}

// NewPassConstants fills the camera, target and timing values. Lights are
// left to the caller.
func NewPassConstants(cam *components.Camera, width, height uint32, total, delta float32) PassConstants {
	view := cam.GetView()
	proj := cam.GetProj()
	viewProj := view.Mul(proj)

	pc := PassConstants{
		View:        view.Transposed(),
		InvView:     view.Inverse().Transposed(),
		Proj:        proj.Transposed(),
		InvProj:     proj.Inverse().Transposed(),
		ViewProj:    viewProj.Transposed(),
		InvViewProj: viewProj.Inverse().Transposed(),
		EyePosW:     cam.GetPosition(),
		NearZ:       cam.Near,
		FarZ:        cam.Far,
		TotalTime:   total,
		DeltaTime:   delta,
		FogColor:    math.Vec4{X: 0.7, Y: 0.7, Z: 0.7, W: 1},
		FogStart:    5,
		FogRange:    150,
	}
	if width > 0 && height > 0 {
		pc.RenderTargetSize = math.Vec2{X: float32(width), Y: float32(height)}
		pc.InvRenderTargetSize = math.Vec2{X: 1 / float32(width), Y: 1 / float32(height)}
	}
	return pc
}

// DefaultAmbient is used when the scene leaves the ambient light unset.
var DefaultAmbient = [4]float32{0.25, 0.25, 0.35, 1}

// SetLights applies the scene lighting: a key directional light and a point
// light at the configured position.
func (pc *PassConstants) SetLights(cfg metadata.LightConfig) {
	if cfg.Ambient == [4]float32{} {
		cfg.Ambient = DefaultAmbient
	}
	if cfg.Strength == [3]float32{} {
		cfg.Strength = [3]float32{1, 1, 1}
	}
	pc.AmbientLight = math.Vec4{X: cfg.Ambient[0], Y: cfg.Ambient[1], Z: cfg.Ambient[2], W: cfg.Ambient[3]}
	pc.Lights[0] = Light{
		Direction: math.NewVec3(0.57735, -0.57735, 0.57735),
		Strength:  math.NewVec3(0.9, 0.9, 0.8),
	}
	pc.Lights[1] = Light{
		Position:     math.NewVec3(cfg.Position[0], cfg.Position[1], cfg.Position[2]),
		Strength:     math.NewVec3(cfg.Strength[0], cfg.Strength[1], cfg.Strength[2]),
		FalloffStart: cfg.FalloffAt[0],
		FalloffEnd:   cfg.FalloffAt[1],
	}
}

func (pc *PassConstants) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, pc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
