package math

import stdmath "math"

func NewMat4Identity() Mat4 {
	m := Mat4{}
	m.Data[0] = 1
	m.Data[5] = 1
	m.Data[10] = 1
	m.Data[15] = 1
	return m
}

// Mul returns m * o. With row vectors, m is applied first.
func (m Mat4) Mul(o Mat4) Mat4 {
	out := Mat4{}
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			var sum float32
			for i := 0; i < 4; i++ {
				sum += m.Data[row*4+i] * o.Data[i*4+col]
			}
			out.Data[row*4+col] = sum
		}
	}
	return out
}

func (m Mat4) Transposed() Mat4 {
	out := Mat4{}
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			out.Data[col*4+row] = m.Data[row*4+col]
		}
	}
	return out
}

func NewMat4Translation(p Vec3) Mat4 {
	m := NewMat4Identity()
	m.Data[12] = p.X
	m.Data[13] = p.Y
	m.Data[14] = p.Z
	return m
}

func NewMat4Scale(s Vec3) Mat4 {
	m := NewMat4Identity()
	m.Data[0] = s.X
	m.Data[5] = s.Y
	m.Data[10] = s.Z
	return m
}

func NewMat4RotationY(radians float32) Mat4 {
	c := float32(stdmath.Cos(float64(radians)))
	s := float32(stdmath.Sin(float64(radians)))
	m := NewMat4Identity()
	m.Data[0] = c
	m.Data[2] = -s
	m.Data[8] = s
	m.Data[10] = c
	return m
}

// NewMat4PerspectiveLH builds a left-handed perspective projection with depth in [0, 1].
func NewMat4PerspectiveLH(fovY, aspect, near, far float32) Mat4 {
	h := 1 / float32(stdmath.Tan(float64(fovY)*0.5))
	r := far / (far - near)
	m := Mat4{}
	m.Data[0] = h / aspect
	m.Data[5] = h
	m.Data[10] = r
	m.Data[11] = 1
	m.Data[14] = -r * near
	return m
}

// NewMat4LookAtLH builds a left-handed view matrix.
func NewMat4LookAtLH(eye, target, up Vec3) Mat4 {
	z := target.Sub(eye).Normalized()
	x := up.Cross(z).Normalized()
	y := z.Cross(x)

	m := NewMat4Identity()
	m.Data[0], m.Data[1], m.Data[2] = x.X, y.X, z.X
	m.Data[4], m.Data[5], m.Data[6] = x.Y, y.Y, z.Y
	m.Data[8], m.Data[9], m.Data[10] = x.Z, y.Z, z.Z
	m.Data[12] = -x.Dot(eye)
	m.Data[13] = -y.Dot(eye)
	m.Data[14] = -z.Dot(eye)
	return m
}

// TransformPoint applies m to p with w = 1.
func (m Mat4) TransformPoint(p Vec3) Vec3 {
	d := m.Data
	return Vec3{
		p.X*d[0] + p.Y*d[4] + p.Z*d[8] + d[12],
		p.X*d[1] + p.Y*d[5] + p.Z*d[9] + d[13],
		p.X*d[2] + p.Y*d[6] + p.Z*d[10] + d[14],
	}
}

// Inverse returns the inverse of m, or the identity when m is singular.
func (m Mat4) Inverse() Mat4 {
	a := m.Data
	var inv [16]float32

	inv[0] = a[5]*a[10]*a[15] - a[5]*a[11]*a[14] - a[9]*a[6]*a[15] + a[9]*a[7]*a[14] + a[13]*a[6]*a[11] - a[13]*a[7]*a[10]
	inv[4] = -a[4]*a[10]*a[15] + a[4]*a[11]*a[14] + a[8]*a[6]*a[15] - a[8]*a[7]*a[14] - a[12]*a[6]*a[11] + a[12]*a[7]*a[10]
	inv[8] = a[4]*a[9]*a[15] - a[4]*a[11]*a[13] - a[8]*a[5]*a[15] + a[8]*a[7]*a[13] + a[12]*a[5]*a[11] - a[12]*a[7]*a[9]
	inv[12] = -a[4]*a[9]*a[14] + a[4]*a[10]*a[13] + a[8]*a[5]*a[14] - a[8]*a[6]*a[13] - a[12]*a[5]*a[10] + a[12]*a[6]*a[9]
	inv[1] = -a[1]*a[10]*a[15] + a[1]*a[11]*a[14] + a[9]*a[2]*a[15] - a[9]*a[3]*a[14] - a[13]*a[2]*a[11] + a[13]*a[3]*a[10]
	inv[5] = a[0]*a[10]*a[15] - a[0]*a[11]*a[14] - a[8]*a[2]*a[15] + a[8]*a[3]*a[14] + a[12]*a[2]*a[11] - a[12]*a[3]*a[10]
	inv[9] = -a[0]*a[9]*a[15] + a[0]*a[11]*a[13] + a[8]*a[1]*a[15] - a[8]*a[3]*a[13] - a[12]*a[1]*a[11] + a[12]*a[3]*a[9]
	inv[13] = a[0]*a[9]*a[14] - a[0]*a[10]*a[13] - a[8]*a[1]*a[14] + a[8]*a[2]*a[13] + a[12]*a[1]*a[10] - a[12]*a[2]*a[9]
	inv[2] = a[1]*a[6]*a[15] - a[1]*a[7]*a[14] - a[5]*a[2]*a[15] + a[5]*a[3]*a[14] + a[13]*a[2]*a[7] - a[13]*a[3]*a[6]
	inv[6] = -a[0]*a[6]*a[15] + a[0]*a[7]*a[14] + a[4]*a[2]*a[15] - a[4]*a[3]*a[14] - a[12]*a[2]*a[7] + a[12]*a[3]*a[6]
	inv[10] = a[0]*a[5]*a[15] - a[0]*a[7]*a[13] - a[4]*a[1]*a[15] + a[4]*a[3]*a[13] + a[12]*a[1]*a[7] - a[12]*a[3]*a[5]
	inv[14] = -a[0]*a[5]*a[14] + a[0]*a[6]*a[13] + a[4]*a[1]*a[14] - a[4]*a[2]*a[13] - a[12]*a[1]*a[6] + a[12]*a[2]*a[5]
	inv[3] = -a[1]*a[6]*a[11] + a[1]*a[7]*a[10] + a[5]*a[2]*a[11] - a[5]*a[3]*a[10] - a[9]*a[2]*a[7] + a[9]*a[3]*a[6]
	inv[7] = a[0]*a[6]*a[11] - a[0]*a[7]*a[10] - a[4]*a[2]*a[11] + a[4]*a[3]*a[10] + a[8]*a[2]*a[7] - a[8]*a[3]*a[6]
	inv[11] = -a[0]*a[5]*a[11] + a[0]*a[7]*a[9] + a[4]*a[1]*a[11] - a[4]*a[3]*a[9] - a[8]*a[1]*a[7] + a[8]*a[3]*a[5]
	inv[15] = a[0]*a[5]*a[10] - a[0]*a[6]*a[9] - a[4]*a[1]*a[10] + a[4]*a[2]*a[9] + a[8]*a[1]*a[6] - a[8]*a[2]*a[5]

	det := a[0]*inv[0] + a[1]*inv[4] + a[2]*inv[8] + a[3]*inv[12]
	if det == 0 {
		return NewMat4Identity()
	}
	out := Mat4{}
	for i := range inv {
		out.Data[i] = inv[i] / det
	}
	return out
}

// NewMat4RotationAxis rotates by radians around a unit axis.
func NewMat4RotationAxis(axis Vec3, radians float32) Mat4 {
	s := float32(stdmath.Sin(float64(radians)))
	c := float32(stdmath.Cos(float64(radians)))
	t := 1 - c
	x, y, z := axis.X, axis.Y, axis.Z

	m := NewMat4Identity()
	m.Data[0], m.Data[1], m.Data[2] = t*x*x+c, t*x*y+s*z, t*x*z-s*y
	m.Data[4], m.Data[5], m.Data[6] = t*x*y-s*z, t*y*y+c, t*y*z+s*x
	m.Data[8], m.Data[9], m.Data[10] = t*x*z+s*y, t*y*z-s*x, t*z*z+c
	return m
}

// TransformVector applies m to v with w = 0.
func (m Mat4) TransformVector(v Vec3) Vec3 {
	d := m.Data
	return Vec3{
		v.X*d[0] + v.Y*d[4] + v.Z*d[8],
		v.X*d[1] + v.Y*d[5] + v.Z*d[9],
		v.X*d[2] + v.Y*d[6] + v.Z*d[10],
	}
}
