// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package assemble

func simplePositions(r *Renderer, v []float32) {
	s := &r.sprite
	left, bottom := s.origin()
	right, top := left+s.Width, bottom+s.Height
	r.writePosition(v, 0, left, bottom)
	r.writePosition(v, 1, right, bottom)
	r.writePosition(v, 2, left, top)
	r.writePosition(v, 3, right, top)
}

func simpleUVs(r *Renderer, v []float32) {
	uv := r.sprite.Region
	writeUV(v, 0, uv.U0, uv.V1)
	writeUV(v, 1, uv.U1, uv.V1)
	writeUV(v, 2, uv.U0, uv.V0)
	writeUV(v, 3, uv.U1, uv.V0)
}
