// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package assemble

import (
	"fmt"

	"github.com/gogpu/quadbatch/chunk"
)

// dirtyFlags records which parts of the vertex data must be rewritten.
type dirtyFlags uint8

const (
	dirtyVertexData dirtyFlags = 1 << iota // vertex count or indices
	dirtyPosition
	dirtyUV
	dirtyColor

	dirtyAll = dirtyVertexData | dirtyPosition | dirtyUV | dirtyColor
)

// assembler is one row of the draw mode table.
type assembler struct {
	// vertexCount returns the number of vertices the sprite needs.
	vertexCount func(r *Renderer) int

	// indices fills the local triangle list of n vertices.
	indices func(r *Renderer, dst []uint32, n int) []uint32

	updatePositions func(r *Renderer, v []float32)
	updateUVs       func(r *Renderer, v []float32)
}

var assemblers = [drawModeCount]assembler{
	Simple: {
		vertexCount:     func(*Renderer) int { return 4 },
		indices:         quadIndices,
		updatePositions: simplePositions,
		updateUVs:       simpleUVs,
	},
	Sliced: {
		vertexCount:     func(*Renderer) int { return 16 },
		indices:         slicedIndices,
		updatePositions: slicedPositions,
		updateUVs:       slicedUVs,
	},
	Tiled: {
		vertexCount:     tiledVertexCount,
		indices:         quadIndices,
		updatePositions: tiledPositions,
		updateUVs:       tiledUVs,
	},
}

// Renderer owns the sub-allocation of one sprite and keeps it in sync with
// the sprite, its draw mode and its world transform. Changes are recorded
// and applied by Update, so several changes in a frame cost one rewrite.
type Renderer struct {
	manager *chunk.Manager
	sub     *chunk.SubChunk
	mode    DrawMode
	sprite  Sprite
	world   Mat4
	dirty   dirtyFlags

	tiles tileGrid
}

// NewRenderer creates a renderer allocating from m. No storage is taken
// until the first Update.
func NewRenderer(m *chunk.Manager, mode DrawMode, s Sprite) *Renderer {
	if !mode.Valid() {
		panic(fmt.Sprintf("assemble: invalid draw mode %v", mode))
	}
	return &Renderer{
		manager: m,
		mode:    mode,
		sprite:  s.withDefaults(),
		world:   Identity(),
		dirty:   dirtyAll,
	}
}

// Mode returns the draw mode.
func (r *Renderer) Mode() DrawMode { return r.mode }

// SetMode changes the draw mode. The vertex data is rebuilt on the next Update.
func (r *Renderer) SetMode(mode DrawMode) {
	if !mode.Valid() {
		panic(fmt.Sprintf("assemble: invalid draw mode %v", mode))
	}
	if mode != r.mode {
		r.mode = mode
		r.dirty = dirtyAll
	}
}

// Sprite returns the sprite with defaults applied.
func (r *Renderer) Sprite() Sprite { return r.sprite }

// SetSprite replaces the sprite. A change of color alone only rewrites
// vertex colors; a change of region alone only rewrites UVs.
func (r *Renderer) SetSprite(s Sprite) {
	s = s.withDefaults()
	old := r.sprite
	r.sprite = s
	if old.Color != s.Color {
		r.dirty |= dirtyColor
	}
	if old.Region != s.Region {
		r.dirty |= dirtyUV
	}
	old.Color, old.Region = s.Color, s.Region
	if old != s {
		r.dirty = dirtyAll
	}
}

// World returns the world transform.
func (r *Renderer) World() Mat4 { return r.world }

// SetWorld sets the world transform applied to vertex positions.
func (r *Renderer) SetWorld(m Mat4) {
	if m != r.world {
		r.world = m
		r.dirty |= dirtyPosition
	}
}

// SubChunk returns the current sub-allocation, or nil before the first
// Update or after Release.
func (r *Renderer) SubChunk() *chunk.SubChunk { return r.sub }

// Update writes every changed part of the vertex data and returns the
// sub-allocation to draw. It must be called before the batching pass.
func (r *Renderer) Update() *chunk.SubChunk {
	if r.dirty == 0 && r.sub != nil {
		return r.sub
	}
	a := &assemblers[r.mode]
	if r.dirty&dirtyVertexData != 0 || r.sub == nil {
		r.resetData(a)
		r.dirty = dirtyAll
	}
	v := r.sub.Vertices()
	if r.dirty&dirtyPosition != 0 {
		a.updatePositions(r, v)
	}
	if r.dirty&dirtyUV != 0 {
		a.updateUVs(r, v)
	}
	if r.dirty&dirtyColor != 0 {
		updateColor(r, v)
	}
	r.dirty = 0
	return r.sub
}

// Release frees the sub-allocation. A later Update allocates again.
func (r *Renderer) Release() {
	r.manager.FreeSubChunk(r.sub)
	r.sub = nil
	r.dirty = dirtyAll
}

func (r *Renderer) resetData(a *assembler) {
	if r.mode == Tiled {
		r.tiles = r.computeTiles()
	}
	n := a.vertexCount(r)
	r.sub = r.manager.ReallocateSubChunk(r.sub, n)
	r.sub.Indices = a.indices(r, r.sub.Indices[:0], n)
}

// writePosition stores the world position of local point (x, y) in vertex i.
func (r *Renderer) writePosition(v []float32, i int, x, y float32) {
	o := i*chunk.Stride + chunk.OffsetPosition
	v[o], v[o+1], v[o+2] = r.world.TransformPoint(x, y, 0)
}

func writeUV(v []float32, i int, u, w float32) {
	o := i*chunk.Stride + chunk.OffsetUV
	v[o], v[o+1] = u, w
}

func updateColor(r *Renderer, v []float32) {
	c := r.sprite.Color
	for o := chunk.OffsetColor; o < len(v); o += chunk.Stride {
		v[o], v[o+1], v[o+2], v[o+3] = c.R, c.G, c.B, c.A
	}
}

// quadIndices emits two triangles per group of four vertices laid out
// bottom-left, bottom-right, top-left, top-right.
func quadIndices(_ *Renderer, dst []uint32, n int) []uint32 {
	for base := uint32(0); base < uint32(n); base += 4 { //nolint:gosec // n <= chunk capacity
		dst = append(dst, base, base+1, base+2, base+2, base+1, base+3)
	}
	return dst
}
