// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package assemble

// Sliced sprites use a 4x4 vertex grid, row-major from the bottom row:
//
//	12 13 14 15
//	 8  9 10 11
//	 4  5  6  7
//	 0  1  2  3

func slicedIndices(_ *Renderer, dst []uint32, _ int) []uint32 {
	for row := uint32(0); row < 3; row++ {
		for col := uint32(0); col < 3; col++ {
			a := row*4 + col
			b, c := a+1, a+4
			dst = append(dst, a, b, c, c, b, c+1)
		}
	}
	return dst
}

// slicedEdges returns the border sizes in local units. When the borders of
// one axis do not fit the drawn size they shrink proportionally.
func slicedEdges(s *Sprite) (left, bottom, right, top float32) {
	left = s.Border.Left * s.NativeWidth
	right = s.Border.Right * s.NativeWidth
	bottom = s.Border.Bottom * s.NativeHeight
	top = s.Border.Top * s.NativeHeight
	if w := left + right; w > s.Width && w > 0 {
		k := s.Width / w
		left, right = left*k, right*k
	}
	if h := bottom + top; h > s.Height && h > 0 {
		k := s.Height / h
		bottom, top = bottom*k, top*k
	}
	return left, bottom, right, top
}

func slicedPositions(r *Renderer, v []float32) {
	s := &r.sprite
	x0, y0 := s.origin()
	left, bottom, right, top := slicedEdges(s)
	xs := [4]float32{x0, x0 + left, x0 + s.Width - right, x0 + s.Width}
	ys := [4]float32{y0, y0 + bottom, y0 + s.Height - top, y0 + s.Height}
	for row, y := range ys {
		for col, x := range xs {
			r.writePosition(v, row*4+col, x, y)
		}
	}
}

func slicedUVs(r *Renderer, v []float32) {
	uv := r.sprite.Region
	b := r.sprite.Border
	du, dv := uv.U1-uv.U0, uv.V1-uv.V0
	us := [4]float32{uv.U0, uv.U0 + du*b.Left, uv.U1 - du*b.Right, uv.U1}
	// Rows go up while V goes down.
	vs := [4]float32{uv.V1, uv.V1 - dv*b.Bottom, uv.V0 + dv*b.Top, uv.V0}
	for row, tv := range vs {
		for col, tu := range us {
			writeUV(v, row*4+col, tu, tv)
		}
	}
}
