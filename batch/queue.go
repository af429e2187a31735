// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package batch

import (
	"cmp"
	"slices"

	"github.com/gogpu/quadbatch/chunk"
)

// Batch is a run of adjacent elements drawn with one indexed draw call.
type Batch struct {
	// Head is the first element of the run; it carries the pipeline state.
	Head *Element

	// Chunk holds the vertices and merged indices of every element in the run.
	Chunk *chunk.Chunk

	// DrawRange covers the merged indices in Chunk.
	DrawRange chunk.DrawRange

	// Elements is the number of elements merged into the run.
	Elements int

	last *Element
}

// Queue is the ordered list of elements of one render pass. The caller
// sorts it; Engine.Batch fills Batches.
type Queue struct {
	Elements []*Element
	Batches  []Batch
}

// Push appends an element.
func (q *Queue) Push(el *Element) {
	q.Elements = append(q.Elements, el)
}

// Insert places el before position i.
func (q *Queue) Insert(i int, el ...*Element) {
	q.Elements = slices.Insert(q.Elements, i, el...)
}

// Len returns the number of elements.
func (q *Queue) Len() int { return len(q.Elements) }

// Clear empties the queue and keeps its storage.
func (q *Queue) Clear() {
	clear(q.Elements)
	q.Elements = q.Elements[:0]
	clear(q.Batches)
	q.Batches = q.Batches[:0]
}

// SortOpaque orders by priority, then front to back. The sort is stable so
// equal keys keep submission order.
func (q *Queue) SortOpaque() {
	slices.SortStableFunc(q.Elements, compareOpaque)
}

// SortTransparent orders by priority, then back to front.
func (q *Queue) SortTransparent() {
	slices.SortStableFunc(q.Elements, compareTransparent)
}

func compareOpaque(a, b *Element) int {
	if c := cmp.Compare(a.Priority, b.Priority); c != 0 {
		return c
	}
	return cmp.Compare(a.Distance, b.Distance)
}

func compareTransparent(a, b *Element) int {
	if c := cmp.Compare(a.Priority, b.Priority); c != 0 {
		return c
	}
	return cmp.Compare(b.Distance, a.Distance)
}
