// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package text

import (
	"cmp"
	"slices"

	"github.com/gogpu/quadbatch/assemble"
	"github.com/gogpu/quadbatch/batch"
	"github.com/gogpu/quadbatch/chunk"
	"github.com/gogpu/quadbatch/internal/logging"
)

// TextChunk is a run of glyphs sharing one texture, written to one
// sub-allocation.
type TextChunk struct {
	Texture  batch.TextureID
	Glyphs   []Glyph
	SubChunk *chunk.SubChunk
}

// Packer packs glyph quads into sub-allocations of a manager. It owns the
// allocations of its last Pack until the next Pack or Release.
type Packer struct {
	manager *chunk.Manager
	chunks  []*TextChunk
	sorted  []Glyph
}

// NewPacker creates a packer allocating from m.
func NewPacker(m *chunk.Manager) *Packer {
	return &Packer{manager: m}
}

// Chunks returns the result of the last Pack.
func (p *Packer) Chunks() []*TextChunk { return p.chunks }

// Pack releases the previous allocations and packs glyphs again. Glyphs are
// grouped by texture, keeping their order within a texture; a new
// allocation starts whenever the texture changes or the next glyph would not
// fit in one chunk. Vertices are transformed by world and tinted with color.
func (p *Packer) Pack(glyphs []Glyph, world assemble.Mat4, color assemble.Color) []*TextChunk {
	p.Release()
	if len(glyphs) == 0 {
		return nil
	}

	p.sorted = append(p.sorted[:0], glyphs...)
	slices.SortStableFunc(p.sorted, func(a, b Glyph) int { return cmp.Compare(a.Texture, b.Texture) })

	maxGlyphs := max(1, p.manager.MaxChunkVertices()/4)
	start := 0
	for i := 1; i <= len(p.sorted); i++ {
		if i < len(p.sorted) && p.sorted[i].Texture == p.sorted[start].Texture && i-start < maxGlyphs {
			continue
		}
		p.chunks = append(p.chunks, p.build(p.sorted[start:i], world, color))
		start = i
	}

	logging.Logger().Debug("text: packed glyphs",
		"glyphs", len(glyphs), "chunks", len(p.chunks))
	return p.chunks
}

// build allocates and fills one TextChunk.
func (p *Packer) build(glyphs []Glyph, world assemble.Mat4, color assemble.Color) *TextChunk {
	sub := p.manager.AllocateSubChunk(len(glyphs) * 4)
	v := sub.Vertices()
	indices := make([]uint32, 0, len(glyphs)*6)

	for i, g := range glyphs {
		base := i * 4
		corners := [4][4]float32{
			{g.X0, g.Y0, g.UV.U0, g.UV.V1},
			{g.X1, g.Y0, g.UV.U1, g.UV.V1},
			{g.X0, g.Y1, g.UV.U0, g.UV.V0},
			{g.X1, g.Y1, g.UV.U1, g.UV.V0},
		}
		for k, c := range corners {
			o := (base + k) * chunk.Stride
			v[o+chunk.OffsetPosition], v[o+chunk.OffsetPosition+1], v[o+chunk.OffsetPosition+2] =
				world.TransformPoint(c[0], c[1], 0)
			v[o+chunk.OffsetUV], v[o+chunk.OffsetUV+1] = c[2], c[3]
			v[o+chunk.OffsetColor], v[o+chunk.OffsetColor+1] = color.R, color.G
			v[o+chunk.OffsetColor+2], v[o+chunk.OffsetColor+3] = color.B, color.A
		}
		b := uint32(base) //nolint:gosec // base < chunk capacity
		indices = append(indices, b, b+1, b+2, b+2, b+1, b+3)
	}
	sub.Indices = indices

	return &TextChunk{
		Texture:  glyphs[0].Texture,
		Glyphs:   slices.Clone(glyphs),
		SubChunk: sub,
	}
}

// Release frees every allocation of the last Pack.
func (p *Packer) Release() {
	for _, c := range p.chunks {
		p.manager.FreeSubChunk(c.SubChunk)
		c.SubChunk = nil
	}
	clear(p.chunks)
	p.chunks = p.chunks[:0]
}
