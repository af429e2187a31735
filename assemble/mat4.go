// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package assemble

import "github.com/chewxy/math32"

// Mat4 is a 4x4 float32 matrix in column-major order, the layout expected
// by WGSL mat4x4<f32>:
//
//	| m[0] m[4] m[8]  m[12] |
//	| m[1] m[5] m[9]  m[13] |
//	| m[2] m[6] m[10] m[14] |
//	| m[3] m[7] m[11] m[15] |
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

// Translate creates a translation matrix.
func Translate(x, y, z float32) Mat4 {
	m := Identity()
	m[12], m[13], m[14] = x, y, z
	return m
}

// Scale creates a scaling matrix.
func Scale(x, y, z float32) Mat4 {
	m := Identity()
	m[0], m[5], m[10] = x, y, z
	return m
}

// RotateZ creates a rotation about the Z axis (angle in radians).
func RotateZ(angle float32) Mat4 {
	s, c := math32.Sincos(angle)
	m := Identity()
	m[0], m[1] = c, s
	m[4], m[5] = -s, c
	return m
}

// Multiply returns m * o: o is applied first.
func (m Mat4) Multiply(o Mat4) Mat4 {
	var r Mat4
	for col := range 4 {
		for row := range 4 {
			var sum float32
			for k := range 4 {
				sum += m[k*4+row] * o[col*4+k]
			}
			r[col*4+row] = sum
		}
	}
	return r
}

// TransformPoint applies the matrix to the point (x, y, z, 1). The result
// is divided by w when the matrix is projective.
func (m Mat4) TransformPoint(x, y, z float32) (float32, float32, float32) {
	tx := m[0]*x + m[4]*y + m[8]*z + m[12]
	ty := m[1]*x + m[5]*y + m[9]*z + m[13]
	tz := m[2]*x + m[6]*y + m[10]*z + m[14]
	w := m[3]*x + m[7]*y + m[11]*z + m[15]
	if w != 1 && w != 0 {
		return tx / w, ty / w, tz / w
	}
	return tx, ty, tz
}

// IsIdentity reports whether m is the identity matrix.
func (m Mat4) IsIdentity() bool {
	return m == Identity()
}
