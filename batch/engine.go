// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package batch

import (
	"fmt"

	"github.com/gogpu/quadbatch/internal/logging"
)

// Comparator reports whether next may be drawn in the same call as prev.
// The engine has already checked that both share a kind, a stencil
// operation and a chunk.
type Comparator func(prev, next *Element) bool

// Stats describes the last Batch pass.
type Stats struct {
	Elements int
	Batches  int
	Indices  int
}

// String returns a human-readable summary.
func (s Stats) String() string {
	return fmt.Sprintf("Batch[%d elements, %d draw calls, %d indices]", s.Elements, s.Batches, s.Indices)
}

// Engine merges adjacent compatible elements of a sorted queue into batches.
type Engine struct {
	comparators [kindCount]Comparator
	stats       Stats
}

// NewEngine creates an engine with the default comparators.
func NewEngine() *Engine {
	e := &Engine{}
	e.comparators[KindSprite] = CanBatchSprite
	e.comparators[KindUI] = CanBatchSprite
	e.comparators[KindText] = CanBatchSprite
	e.comparators[KindMaskQuad] = CanBatchMask
	return e
}

// SetComparator replaces the comparator of a kind. A nil comparator makes
// every element of the kind its own draw call.
func (e *Engine) SetComparator(k Kind, c Comparator) {
	if k >= kindCount {
		panic(fmt.Sprintf("batch: unknown kind %d", k))
	}
	e.comparators[k] = c
}

// Stats returns statistics of the last Batch call.
func (e *Engine) Stats() Stats { return e.stats }

// CanBatch reports whether next can be merged into the batch ending at prev.
func (e *Engine) CanBatch(prev, next *Element) bool {
	if prev.Kind != next.Kind || prev.StencilOp != next.StencilOp {
		return false
	}
	if prev.Chunk() != next.Chunk() {
		return false
	}
	c := e.comparators[next.Kind]
	return c != nil && c(prev, next)
}

// CanBatchSprite is the comparator for sprite, UI and text elements.
func CanBatchSprite(prev, next *Element) bool {
	if prev.MaskInteraction != next.MaskInteraction {
		return false
	}
	if next.MaskActive() && prev.MaskLayer != next.MaskLayer {
		return false
	}
	return prev.Texture == next.Texture && prev.Material == next.Material
}

// CanBatchMask is the comparator for mask quads. Both the sprite texture and
// the alpha cutoff binding must be the same shader inputs.
func CanBatchMask(prev, next *Element) bool {
	return prev.Texture == next.Texture && prev.AlphaCutoff == next.AlphaCutoff
}

// Batch scans q.Elements once in order and rebuilds q.Batches. Each
// element's local indices are appended to its chunk at the index write
// cursor; an element that can batch with its predecessor extends the
// predecessor's draw range, otherwise it starts a new one. No element is
// reordered.
//
// Every element must hold a live SubChunk. Batch must run after all
// allocation and free calls of the frame and before Manager.UploadBuffer.
func (e *Engine) Batch(q *Queue) {
	clear(q.Batches)
	q.Batches = q.Batches[:0]
	e.stats = Stats{Elements: len(q.Elements)}

	for i, next := range q.Elements {
		sub := next.SubChunk
		if sub == nil || sub.Freed() {
			panic(fmt.Sprintf("batch: element %d (%v) has no live SubChunk", i, next.Kind))
		}
		r := sub.AppendIndices()
		next.Range = r
		e.stats.Indices += r.Count

		if n := len(q.Batches); n > 0 && e.CanBatch(q.Batches[n-1].last, next) {
			b := &q.Batches[n-1]
			b.DrawRange.Count += r.Count
			b.Elements++
			b.last = next
			b.Head.SubChunk.DrawRange = b.DrawRange
			next.Batched = true
			continue
		}

		sub.DrawRange = r
		next.Batched = false
		q.Batches = append(q.Batches, Batch{
			Head:      next,
			Chunk:     sub.Chunk(),
			DrawRange: r,
			Elements:  1,
			last:      next,
		})
	}

	e.stats.Batches = len(q.Batches)
	logging.Logger().Debug("batch: queue batched",
		"elements", e.stats.Elements,
		"batches", e.stats.Batches,
		"indices", e.stats.Indices)
}
