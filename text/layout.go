// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package text lays out glyph quads and packs them into chunk storage.
//
// Shaping and rasterization are out of scope: Layout places one quad per
// rune using the advances, bounds and kerning reported by a
// golang.org/x/image/font.Face, and a GlyphAtlas supplies the texture and
// region of each glyph image. The Packer groups quads by texture and writes
// them into sub-allocations of a chunk.Manager, at most one chunk's worth
// of vertices per group.
package text

import (
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
	"golang.org/x/text/unicode/norm"

	"github.com/gogpu/quadbatch/assemble"
	"github.com/gogpu/quadbatch/batch"
)

// AtlasGlyph locates a rasterized glyph image.
type AtlasGlyph struct {
	Texture batch.TextureID
	UV      assemble.Rect
}

// GlyphAtlas maps runes to glyph images. Runes without an image, such as
// spaces, only advance the pen.
type GlyphAtlas interface {
	Glyph(r rune) (AtlasGlyph, bool)
}

// Glyph is one positioned glyph quad in local units with Y up. The first
// line's baseline is at Y = 0.
type Glyph struct {
	Rune    rune
	Texture batch.TextureID
	UV      assemble.Rect

	X0, Y0, X1, Y1 float32
}

// Options configures layout.
type Options struct {
	// LineSpacing multiplies the face line height. Zero means 1.
	LineSpacing float32

	// MetricsCacheSize bounds the per-face glyph metrics cache. Zero means
	// DefaultMetricsCacheSize; negative disables the limit.
	MetricsCacheSize int
}

// DefaultMetricsCacheSize is the default soft limit of cached glyph metrics.
const DefaultMetricsCacheSize = 1024

// Layouter lays out strings with one face and atlas. It caches glyph
// metrics between calls and is not safe for concurrent use.
type Layouter struct {
	atlas      GlyphAtlas
	metrics    *metricsCache
	lineHeight fixed.Int26_6
}

// NewLayouter creates a layouter for face.
func NewLayouter(face font.Face, atlas GlyphAtlas, opts Options) *Layouter {
	limit := opts.MetricsCacheSize
	switch {
	case limit == 0:
		limit = DefaultMetricsCacheSize
	case limit < 0:
		limit = 0
	}
	spacing := opts.LineSpacing
	if spacing <= 0 {
		spacing = 1
	}
	height := face.Metrics().Height
	return &Layouter{
		atlas:      atlas,
		metrics:    newMetricsCache(face, limit),
		lineHeight: fixed.Int26_6(float32(height) * spacing),
	}
}

// Layout appends the glyph quads of s to dst. s is normalized to NFC first
// so that a base letter and a combining mark map to one precomposed glyph
// when the font has it. '\n' starts a new line.
func (l *Layouter) Layout(dst []Glyph, s string) []Glyph {
	s = norm.NFC.String(s)

	var dot fixed.Int26_6
	var baseline fixed.Int26_6
	prev := rune(-1)
	for _, r := range s {
		if r == '\n' {
			dot = 0
			baseline -= l.lineHeight
			prev = -1
			continue
		}
		if prev >= 0 {
			dot += l.metrics.kern(prev, r)
		}
		prev = r

		m := l.metrics.get(r)
		if !m.ok {
			continue
		}
		if ag, ok := l.atlas.Glyph(r); ok && !m.bounds.Empty() {
			dst = append(dst, Glyph{
				Rune:    r,
				Texture: ag.Texture,
				UV:      ag.UV,
				X0:      toFloat(dot + m.bounds.Min.X),
				X1:      toFloat(dot + m.bounds.Max.X),
				// Face coordinates grow downward.
				Y0: toFloat(baseline - m.bounds.Max.Y),
				Y1: toFloat(baseline - m.bounds.Min.Y),
			})
		}
		dot += m.advance
	}
	return dst
}

// Layout lays out s with a fresh Layouter.
func Layout(face font.Face, atlas GlyphAtlas, s string, opts Options) []Glyph {
	return NewLayouter(face, atlas, opts).Layout(nil, s)
}

func toFloat(v fixed.Int26_6) float32 {
	return float32(v) / 64
}
