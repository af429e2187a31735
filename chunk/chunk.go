// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package chunk

import (
	"fmt"
	"slices"
)

// Area is a half-open vertex range [Start, Start+Size) inside a chunk.
// Both fields are in vertices, not floats.
type Area struct {
	Start int
	Size  int
}

// End returns the first vertex after the area.
func (a Area) End() int {
	return a.Start + a.Size
}

// String returns a string representation of the area.
func (a Area) String() string {
	return fmt.Sprintf("[%d,%d)", a.Start, a.End())
}

// Chunk is one large vertex block of fixed capacity plus a growable index
// block. Vertex ranges are handed out as SubChunks; the remaining space is
// kept in a free-list sorted by start vertex.
//
// Free areas and allocated areas always tile [0, Capacity) exactly.
type Chunk struct {
	id       int
	capacity int
	format   IndexFormat

	// vertices holds capacity*Stride floats.
	vertices []float32

	// indices holds the merged indices written by the batching pass.
	// Only indices[:indexCursor] are meaningful for the current frame.
	indices     []uint32
	indexCursor int

	freeAreas []Area
	used      int

	// Dirty vertex range in vertices, empty when dirtyStart >= dirtyEnd.
	dirtyStart int
	dirtyEnd   int
}

func newChunk(id, capacity int, format IndexFormat) *Chunk {
	c := &Chunk{
		id:        id,
		capacity:  capacity,
		format:    format,
		vertices:  make([]float32, capacity*Stride),
		indices:   make([]uint32, 0, capacity*3/2),
		freeAreas: []Area{{Start: 0, Size: capacity}},
	}
	c.clearDirty()
	return c
}

// ID returns the chunk's position in its manager's pool.
func (c *Chunk) ID() int { return c.id }

// Capacity returns the vertex capacity.
func (c *Chunk) Capacity() int { return c.capacity }

// IndexFormat returns the index format of the chunk.
func (c *Chunk) IndexFormat() IndexFormat { return c.format }

// Vertices returns the full vertex storage.
func (c *Chunk) Vertices() []float32 { return c.vertices }

// Indices returns the merged indices written since the last upload.
func (c *Chunk) Indices() []uint32 { return c.indices[:c.indexCursor] }

// IndexCursor returns the index write position for the batching pass.
func (c *Chunk) IndexCursor() int { return c.indexCursor }

// UsedVertices returns the number of vertices held by live SubChunks.
func (c *Chunk) UsedVertices() int { return c.used }

// FreeVertices returns the number of unallocated vertices.
func (c *Chunk) FreeVertices() int { return c.capacity - c.used }

// FreeAreas returns a copy of the free-list.
func (c *Chunk) FreeAreas() []Area { return slices.Clone(c.freeAreas) }

// Dirty reports whether vertex or index data changed since the last upload.
func (c *Chunk) Dirty() bool {
	return c.dirtyStart < c.dirtyEnd || c.indexCursor > 0
}

// allocateArea carves size vertices from the front of the first free area
// large enough to hold them.
func (c *Chunk) allocateArea(size int) (Area, bool) {
	for i, free := range c.freeAreas {
		switch {
		case free.Size > size:
			c.freeAreas[i].Start += size
			c.freeAreas[i].Size -= size
		case free.Size == size:
			c.freeAreas = slices.Delete(c.freeAreas, i, i+1)
		default:
			continue
		}
		c.used += size
		return Area{Start: free.Start, Size: size}, true
	}
	return Area{}, false
}

// freeArea returns area to the free-list, merging it with the free areas
// directly before and after it. Overlap with an existing free area means the
// range was freed twice and panics.
func (c *Chunk) freeArea(area Area) {
	if area.Start < 0 || area.End() > c.capacity || area.Size <= 0 {
		panic(fmt.Sprintf("chunk: free of %v outside chunk capacity %d", area, c.capacity))
	}

	// First free area starting at or after the freed range.
	i, _ := slices.BinarySearchFunc(c.freeAreas, area.Start, func(a Area, start int) int {
		return a.Start - start
	})

	if i < len(c.freeAreas) && c.freeAreas[i].Start < area.End() {
		panic(fmt.Sprintf("chunk: free of %v overlaps free area %v", area, c.freeAreas[i]))
	}
	if i > 0 && c.freeAreas[i-1].End() > area.Start {
		panic(fmt.Sprintf("chunk: free of %v overlaps free area %v", area, c.freeAreas[i-1]))
	}

	c.used -= area.Size
	mergePrev := i > 0 && c.freeAreas[i-1].End() == area.Start
	mergeNext := i < len(c.freeAreas) && c.freeAreas[i].Start == area.End()

	switch {
	case mergePrev && mergeNext:
		c.freeAreas[i-1].Size += area.Size + c.freeAreas[i].Size
		c.freeAreas = slices.Delete(c.freeAreas, i, i+1)
	case mergePrev:
		c.freeAreas[i-1].Size += area.Size
	case mergeNext:
		c.freeAreas[i].Start = area.Start
		c.freeAreas[i].Size += area.Size
	default:
		c.freeAreas = slices.Insert(c.freeAreas, i, area)
	}
}

// appendIndices writes local+offset for every local index at the write
// cursor and returns the position of the first written index.
func (c *Chunk) appendIndices(local []uint32, offset int) int {
	start := c.indexCursor
	end := start + len(local)
	if end > len(c.indices) {
		c.indices = slices.Grow(c.indices, end-len(c.indices))[:end]
	}
	base := uint32(offset) //nolint:gosec // offset < capacity <= MaxVertices
	dst := c.indices[start:end]
	for i, idx := range local {
		dst[i] = idx + base
	}
	c.indexCursor = end
	return start
}

func (c *Chunk) markDirty(area Area) {
	c.dirtyStart = min(c.dirtyStart, area.Start)
	c.dirtyEnd = max(c.dirtyEnd, area.End())
}

func (c *Chunk) clearDirty() {
	c.dirtyStart = c.capacity
	c.dirtyEnd = 0
}

// dirtyRange returns the dirty vertex range, or ok=false when clean.
func (c *Chunk) dirtyRange() (Area, bool) {
	if c.dirtyStart >= c.dirtyEnd {
		return Area{}, false
	}
	return Area{Start: c.dirtyStart, Size: c.dirtyEnd - c.dirtyStart}, true
}

// CheckInvariants verifies that the free areas together with the given
// allocated areas tile [0, Capacity) with no gap and no overlap.
func (c *Chunk) CheckInvariants(allocated []Area) error {
	all := make([]Area, 0, len(c.freeAreas)+len(allocated))
	all = append(all, c.freeAreas...)
	all = append(all, allocated...)
	slices.SortFunc(all, func(a, b Area) int { return a.Start - b.Start })

	next := 0
	for _, a := range all {
		if a.Size <= 0 {
			return fmt.Errorf("chunk %d: empty area %v", c.id, a)
		}
		if a.Start != next {
			return fmt.Errorf("chunk %d: area %v does not start at %d", c.id, a, next)
		}
		next = a.End()
	}
	if next != c.capacity {
		return fmt.Errorf("chunk %d: areas end at %d, capacity %d", c.id, next, c.capacity)
	}
	return nil
}
