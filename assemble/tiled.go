// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package assemble

import (
	"github.com/chewxy/math32"

	"github.com/gogpu/quadbatch/internal/logging"
)

// tileGrid is the tile layout of a Tiled sprite. Tiles are laid out from
// the bottom-left corner; the last column and row are clipped to the drawn
// size.
type tileGrid struct {
	cols, rows   int
	tileW, tileH float32
}

// computeTiles sizes the grid from the native size. A grid that would not
// fit one chunk is coarsened and its tiles stretched to cover the sprite.
func (r *Renderer) computeTiles() tileGrid {
	s := &r.sprite
	g := tileGrid{cols: 1, rows: 1, tileW: s.Width, tileH: s.Height}
	if s.NativeWidth > 0 && s.Width > 0 {
		g.cols = max(1, int(math32.Ceil(s.Width/s.NativeWidth)))
		g.tileW = s.NativeWidth
	}
	if s.NativeHeight > 0 && s.Height > 0 {
		g.rows = max(1, int(math32.Ceil(s.Height/s.NativeHeight)))
		g.tileH = s.NativeHeight
	}

	limit := max(1, r.manager.MaxChunkVertices()/4)
	if n := g.cols * g.rows; n > limit {
		k := math32.Sqrt(float32(limit) / float32(n))
		g.cols = max(1, int(float32(g.cols)*k))
		g.rows = max(1, int(float32(g.rows)*k))
		for g.cols*g.rows > limit {
			if g.cols >= g.rows {
				g.cols--
			} else {
				g.rows--
			}
		}
		g.tileW = s.Width / float32(g.cols)
		g.tileH = s.Height / float32(g.rows)
		logging.Logger().Warn("assemble: tiled sprite exceeds chunk capacity, stretching tiles",
			"tiles", n, "limit", limit, "cols", g.cols, "rows", g.rows)
	}
	return g
}

func tiledVertexCount(r *Renderer) int {
	return r.tiles.cols * r.tiles.rows * 4
}

// tileSpan returns the start and clipped size of tile i along one axis.
func tileSpan(i int, tile, total float32) (start, size float32) {
	start = float32(i) * tile
	return start, min(tile, total-start)
}

func tiledPositions(r *Renderer, v []float32) {
	s := &r.sprite
	g := &r.tiles
	x0, y0 := s.origin()
	i := 0
	for row := range g.rows {
		y, h := tileSpan(row, g.tileH, s.Height)
		for col := range g.cols {
			x, w := tileSpan(col, g.tileW, s.Width)
			left, bottom := x0+x, y0+y
			r.writePosition(v, i, left, bottom)
			r.writePosition(v, i+1, left+w, bottom)
			r.writePosition(v, i+2, left, bottom+h)
			r.writePosition(v, i+3, left+w, bottom+h)
			i += 4
		}
	}
}

func tiledUVs(r *Renderer, v []float32) {
	s := &r.sprite
	g := &r.tiles
	uv := s.Region
	du, dv := uv.U1-uv.U0, uv.V1-uv.V0
	i := 0
	for row := range g.rows {
		_, h := tileSpan(row, g.tileH, s.Height)
		top := uv.V1 - dv*fraction(h, g.tileH)
		for col := range g.cols {
			_, w := tileSpan(col, g.tileW, s.Width)
			right := uv.U0 + du*fraction(w, g.tileW)
			writeUV(v, i, uv.U0, uv.V1)
			writeUV(v, i+1, right, uv.V1)
			writeUV(v, i+2, uv.U0, top)
			writeUV(v, i+3, right, top)
			i += 4
		}
	}
}

func fraction(part, whole float32) float32 {
	if whole <= 0 {
		return 1
	}
	return part / whole
}
