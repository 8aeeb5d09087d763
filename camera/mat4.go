// Package camera computes the per-frame transform of the orbiting scene
// camera. Matrices are float32, column-major, ready for a uniform buffer.
package camera

import "github.com/chewxy/math32"

// Vec3 is a float32 direction or offset.
type Vec3 struct {
	X, Y, Z float32
}

// Mat4 is a column-major 4x4 matrix: element (row r, column c) is at
// index c*4+r.
type Mat4 [16]float32

// Identity returns the identity matrix.
func Identity() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Mul returns m * o.
func (m Mat4) Mul(o Mat4) Mat4 {
	var out Mat4
	for c := 0; c < 4; c++ {
		for r := 0; r < 4; r++ {
			var sum float32
			for k := 0; k < 4; k++ {
				sum += m[k*4+r] * o[c*4+k]
			}
			out[c*4+r] = sum
		}
	}
	return out
}

// Rotate returns m * R where R rotates by angle radians about axis.
// A zero axis leaves m unchanged.
func (m Mat4) Rotate(angle float32, axis Vec3) Mat4 {
	return m.Mul(Rotation(angle, axis))
}

// Translate returns m * T(v).
func (m Mat4) Translate(v Vec3) Mat4 {
	return m.Mul(Translation(v))
}

// Translation returns the matrix translating by v.
func Translation(v Vec3) Mat4 {
	t := Identity()
	t[12], t[13], t[14] = v.X, v.Y, v.Z
	return t
}

// Rotation returns the right-handed rotation of angle radians about axis.
func Rotation(angle float32, axis Vec3) Mat4 {
	l := math32.Sqrt(axis.X*axis.X + axis.Y*axis.Y + axis.Z*axis.Z)
	if l < 1e-6 {
		return Identity()
	}
	x, y, z := axis.X/l, axis.Y/l, axis.Z/l
	s, c := math32.Sincos(angle)
	t := 1 - c

	return Mat4{
		x*x*t + c, y*x*t + z*s, z*x*t - y*s, 0,
		x*y*t - z*s, y*y*t + c, z*y*t + x*s, 0,
		x*z*t + y*s, y*z*t - x*s, z*z*t + c, 0,
		0, 0, 0, 1,
	}
}

// Perspective returns a right-handed projection mapping view depth
// [near, far] to clip depth [0, 1], as WebGPU expects.
func Perspective(fovY, aspect, near, far float32) Mat4 {
	f := 1 / math32.Tan(fovY/2)
	nf := 1 / (near - far)
	var m Mat4
	m[0] = f / aspect
	m[5] = f
	m[10] = far * nf
	m[11] = -1
	m[14] = far * near * nf
	return m
}

// MulPoint transforms (p, 1) and returns the homogeneous result.
func (m Mat4) MulPoint(p Vec3) [4]float32 {
	var out [4]float32
	for r := 0; r < 4; r++ {
		out[r] = m[r]*p.X + m[4+r]*p.Y + m[8+r]*p.Z + m[12+r]
	}
	return out
}

// Floats returns the matrix as a slice in upload order.
func (m Mat4) Floats() []float32 {
	out := make([]float32, len(m))
	copy(out, m[:])
	return out
}
