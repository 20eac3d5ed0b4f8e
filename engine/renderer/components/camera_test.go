package components

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spaghettifunk/soco/engine/math"
)

func TestCameraLookAtPutsTargetOnAxis(t *testing.T) {
	c := NewCamera()
	c.LookAt(math.NewVec3(0, 0, -10), math.Vec3{}, math.NewVec3(0, 1, 0))
	p := c.GetView().TransformPoint(math.Vec3{})
	assert.InDelta(t, 0, p.X, 1e-5)
	assert.InDelta(t, 0, p.Y, 1e-5)
	assert.InDelta(t, 10, p.Z, 1e-5)
	assert.False(t, c.IsDirty)
}

func TestCameraWalkAndStrafe(t *testing.T) {
	c := NewCamera()
	c.Walk(5)
	c.Strafe(-2)
	assert.Equal(t, math.NewVec3(-2, 0, 5), c.GetPosition())
	assert.True(t, c.IsDirty)
}

func TestCameraRotateYKeepsBasisOrthonormal(t *testing.T) {
	c := NewCamera()
	for i := 0; i < 100; i++ {
		c.RotateY(0.1)
		c.Pitch(0.01)
	}
	c.GetView()
	assert.InDelta(t, 1, c.Look.Length(), 1e-4)
	assert.InDelta(t, 0, c.Look.Dot(c.Right), 1e-4)
	assert.InDelta(t, 0, c.Up.Dot(c.Right), 1e-4)
}
