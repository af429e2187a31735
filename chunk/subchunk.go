// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package chunk

// DrawRange is a span of a chunk's merged index storage drawn by one call.
type DrawRange struct {
	Start int
	Count int
}

// SubChunk is a caller-owned slice of a chunk's vertex storage.
//
// The owning renderer writes vertices through Vertices and keeps its local
// triangle list in Indices, relative to the first vertex of the SubChunk.
// The batching pass offsets those indices by Area.Start when it copies them
// into the chunk. A SubChunk stays valid until Manager.FreeSubChunk.
type SubChunk struct {
	chunk *Chunk
	area  Area

	// Indices is the local triangle list, 0-based within the SubChunk.
	Indices []uint32

	// DrawRange is filled in by the batching pass for the first element of a
	// batch and covers every index merged into that batch.
	DrawRange DrawRange
}

// Chunk returns the owning chunk, or nil once the SubChunk has been freed.
func (s *SubChunk) Chunk() *Chunk { return s.chunk }

// Area returns the vertex range owned by the SubChunk.
func (s *SubChunk) Area() Area { return s.area }

// VertexCount returns the number of vertices owned by the SubChunk.
func (s *SubChunk) VertexCount() int { return s.area.Size }

// FloatOffset returns the offset of the first vertex in the chunk's float
// storage.
func (s *SubChunk) FloatOffset() int { return s.area.Start * Stride }

// Freed reports whether the SubChunk has been returned to its chunk.
func (s *SubChunk) Freed() bool { return s.chunk == nil }

// Vertices returns the SubChunk's slice of the chunk vertex storage and marks
// it dirty for the next upload. Write every vertex attribute through this
// slice; it has length VertexCount()*Stride.
func (s *SubChunk) Vertices() []float32 {
	if s.chunk == nil {
		panic("chunk: Vertices on a freed SubChunk")
	}
	s.chunk.markDirty(s.area)
	start := s.FloatOffset()
	end := start + s.area.Size*Stride
	return s.chunk.vertices[start:end:end]
}

// Vertex returns the Stride floats of the i-th vertex of the SubChunk and
// marks the SubChunk dirty.
func (s *SubChunk) Vertex(i int) []float32 {
	v := s.Vertices()
	return v[i*Stride : (i+1)*Stride : (i+1)*Stride]
}

// AppendIndices copies the local indices, offset to chunk space, at the
// chunk's index write cursor and returns the draw range they occupy.
func (s *SubChunk) AppendIndices() DrawRange {
	if s.chunk == nil {
		panic("chunk: AppendIndices on a freed SubChunk")
	}
	start := s.chunk.appendIndices(s.Indices, s.area.Start)
	return DrawRange{Start: start, Count: len(s.Indices)}
}
