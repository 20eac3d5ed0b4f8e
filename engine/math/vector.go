package math

import stdmath "math"

func NewVec3(x, y, z float32) Vec3 {
	return Vec3{X: x, Y: y, Z: z}
}

func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

func (v Vec3) MulScalar(s float32) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

func (v Vec3) Dot(o Vec3) float32 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		v.Y*o.Z - v.Z*o.Y,
		v.Z*o.X - v.X*o.Z,
		v.X*o.Y - v.Y*o.X,
	}
}

func (v Vec3) Length() float32 {
	return float32(stdmath.Sqrt(float64(v.Dot(v))))
}

// Normalized returns a unit-length copy. The zero vector is returned unchanged.
func (v Vec3) Normalized() Vec3 {
	l := v.Length()
	if l == 0 {
		return v
	}
	return v.MulScalar(1 / l)
}

func (v Vec3) ToVec4(w float32) Vec4 {
	return Vec4{v.X, v.Y, v.Z, w}
}

func DegToRad(degrees float32) float32 {
	return degrees * stdmath.Pi / 180.0
}
