package components

import (
	"github.com/spaghettifunk/soco/engine/math"
)

/**
 * @brief A first-person camera kept as an orthonormal basis. The view and
 * projection matrices are rebuilt lazily after any change.
 */
type Camera struct {
	/** @brief The position of this camera. Use SetPosition so the view is rebuilt. */
	Position math.Vec3
	Right    math.Vec3
	Up       math.Vec3
	Look     math.Vec3

	/** @brief Vertical field of view in radians. */
	FovY   float32
	Aspect float32
	Near   float32
	Far    float32

	/** @brief Internal flag used to determine when the view matrix needs to be rebuilt. */
	IsDirty    bool
	ViewMatrix math.Mat4
	ProjMatrix math.Mat4
}

/** @brief The name of the default camera. */
const DefaultCameraName string = "default"

func NewCamera() *Camera {
	camera := &Camera{}
	camera.Reset()
	return camera
}

func (c *Camera) Reset() {
	c.Position = math.Vec3{}
	c.Right = math.NewVec3(1, 0, 0)
	c.Up = math.NewVec3(0, 1, 0)
	c.Look = math.NewVec3(0, 0, 1)
	c.IsDirty = true
	c.ViewMatrix = math.NewMat4Identity()
	c.SetLens(math.DegToRad(45), 1, 1, 1000)
}

// SetLens rebuilds the left-handed perspective projection.
func (c *Camera) SetLens(fovY, aspect, near, far float32) {
	c.FovY, c.Aspect, c.Near, c.Far = fovY, aspect, near, far
	c.ProjMatrix = math.NewMat4PerspectiveLH(fovY, aspect, near, far)
}

func (c *Camera) LookAt(position, target, worldUp math.Vec3) {
	c.Position = position
	c.Look = target.Sub(position).Normalized()
	c.Right = worldUp.Cross(c.Look).Normalized()
	c.Up = c.Look.Cross(c.Right)
	c.IsDirty = true
}

func (c *Camera) GetPosition() math.Vec3 {
	return c.Position
}

func (c *Camera) SetPosition(position math.Vec3) {
	c.Position = position
	c.IsDirty = true
}

// Walk moves along the look direction.
func (c *Camera) Walk(d float32) {
	c.Position = c.Position.Add(c.Look.MulScalar(d))
	c.IsDirty = true
}

// Strafe moves along the right direction.
func (c *Camera) Strafe(d float32) {
	c.Position = c.Position.Add(c.Right.MulScalar(d))
	c.IsDirty = true
}

// Pitch rotates up and look around the right vector.
func (c *Camera) Pitch(radians float32) {
	r := math.NewMat4RotationAxis(c.Right, radians)
	c.Up = r.TransformVector(c.Up)
	c.Look = r.TransformVector(c.Look)
	c.IsDirty = true
}

// RotateY rotates the whole basis around the world y axis.
func (c *Camera) RotateY(radians float32) {
	r := math.NewMat4RotationY(radians)
	c.Right = r.TransformVector(c.Right)
	c.Up = r.TransformVector(c.Up)
	c.Look = r.TransformVector(c.Look)
	c.IsDirty = true
}

func (c *Camera) GetView() math.Mat4 {
	if c.IsDirty {
		// Re-orthonormalize, small rotation errors accumulate.
		c.Look = c.Look.Normalized()
		c.Up = c.Look.Cross(c.Right).Normalized()
		c.Right = c.Up.Cross(c.Look)
		c.ViewMatrix = math.NewMat4LookAtLH(c.Position, c.Position.Add(c.Look), c.Up)
		c.IsDirty = false
	}
	return c.ViewMatrix
}

func (c *Camera) GetProj() math.Mat4 {
	return c.ProjMatrix
}
