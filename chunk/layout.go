// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package chunk

import (
	"fmt"
	"math"

	"github.com/gogpu/gputypes"
)

// Vertex layout shared by sprite, UI and text geometry.
//
//	position (vec3<f32>) = floats 0..2  (location 0)
//	uv       (vec2<f32>) = floats 3..4  (location 1)
//	color    (vec4<f32>) = floats 5..8  (location 2)
const (
	// Stride is the number of float32 values per vertex.
	Stride = 9

	// StrideBytes is the byte size of one vertex.
	StrideBytes = Stride * 4

	OffsetPosition = 0
	OffsetUV       = 3
	OffsetColor    = 5
)

// VertexLayout returns the GPU vertex buffer layout matching Stride.
func VertexLayout() []gputypes.VertexBufferLayout {
	return []gputypes.VertexBufferLayout{
		{
			ArrayStride: StrideBytes,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x3, Offset: OffsetPosition * 4, ShaderLocation: 0},
				{Format: gputypes.VertexFormatFloat32x2, Offset: OffsetUV * 4, ShaderLocation: 1},
				{Format: gputypes.VertexFormatFloat32x4, Offset: OffsetColor * 4, ShaderLocation: 2},
			},
		},
	}
}

// IndexFormat selects the width of the indices stored in a chunk and bounds
// the number of vertices a chunk may hold.
type IndexFormat int

const (
	// IndexUint16 stores 16-bit indices. Used by 2D sprite chunks.
	IndexUint16 IndexFormat = iota
	// IndexUint32 stores 32-bit indices. Used by UI and text chunks.
	IndexUint32
)

// String returns the string representation of the format.
func (f IndexFormat) String() string {
	switch f {
	case IndexUint16:
		return "Uint16"
	case IndexUint32:
		return "Uint32"
	default:
		return fmt.Sprintf("Unknown(%d)", int(f))
	}
}

// MaxVertices returns the largest vertex capacity addressable by the format.
// Uint32 is capped at MaxInt32 so capacities stay representable as int.
func (f IndexFormat) MaxVertices() int {
	switch f {
	case IndexUint16:
		return math.MaxUint16
	case IndexUint32:
		return math.MaxInt32
	default:
		return 0
	}
}

// Size returns the byte size of one index.
func (f IndexFormat) Size() int {
	if f == IndexUint32 {
		return 4
	}
	return 2
}

// GPU returns the matching gputypes index format.
func (f IndexFormat) GPU() gputypes.IndexFormat {
	if f == IndexUint32 {
		return gputypes.IndexFormatUint32
	}
	return gputypes.IndexFormatUint16
}
