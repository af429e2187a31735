// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package assemble writes sprite geometry into chunk sub-allocations.
//
// A sprite is drawn in one of three modes. Simple draws one quad. Sliced
// draws a 3x3 grid whose corners keep their size while the edges and center
// stretch. Tiled repeats the sprite region across the drawn size and clips
// the last row and column. Each mode is a row of a function table indexed
// by DrawMode; the Renderer only tracks what changed and calls the row.
package assemble

import "fmt"

// DrawMode selects how a sprite region fills its drawn size.
type DrawMode uint8

const (
	// Simple stretches the region over one quad.
	Simple DrawMode = iota

	// Sliced keeps the borders at their native size and stretches the rest.
	Sliced

	// Tiled repeats the region at its native size.
	Tiled

	drawModeCount
)

// String returns the mode name.
func (m DrawMode) String() string {
	switch m {
	case Simple:
		return "Simple"
	case Sliced:
		return "Sliced"
	case Tiled:
		return "Tiled"
	default:
		return fmt.Sprintf("DrawMode(%d)", uint8(m))
	}
}

// Valid reports whether m is a known mode.
func (m DrawMode) Valid() bool { return m < drawModeCount }

// Color is a straight-alpha RGBA color with components in [0, 1].
type Color struct {
	R, G, B, A float32
}

// White is opaque white.
var White = Color{R: 1, G: 1, B: 1, A: 1}

// Rect is a texture region in normalized coordinates. V grows downward, so
// (U0, V0) is the top-left corner of the region.
type Rect struct {
	U0, V0, U1, V1 float32
}

// FullRect covers the whole texture.
var FullRect = Rect{U0: 0, V0: 0, U1: 1, V1: 1}

// Border is the 9-slice border of a sprite as fractions of its region.
type Border struct {
	Left, Bottom, Right, Top float32
}

// Sprite describes the geometry of one sprite renderer.
type Sprite struct {
	// Width and Height are the drawn size in local units.
	Width, Height float32

	// NativeWidth and NativeHeight are the size of the region at scale 1.
	// They size the borders of Sliced and the tiles of Tiled. Zero means
	// Width and Height.
	NativeWidth, NativeHeight float32

	// PivotX and PivotY place the local origin as a fraction of the drawn
	// size; 0, 0 is the bottom-left corner.
	PivotX, PivotY float32

	// Region is the texture region. The zero value means FullRect.
	Region Rect

	Border Border
	Color  Color
}

func (s Sprite) withDefaults() Sprite {
	if s.NativeWidth <= 0 {
		s.NativeWidth = s.Width
	}
	if s.NativeHeight <= 0 {
		s.NativeHeight = s.Height
	}
	if s.Region == (Rect{}) {
		s.Region = FullRect
	}
	return s
}

// origin returns the local position of the bottom-left corner.
func (s *Sprite) origin() (float32, float32) {
	return -s.PivotX * s.Width, -s.PivotY * s.Height
}
