// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package batch

import (
	"slices"
	"testing"

	"github.com/gogpu/quadbatch/chunk"
)

var quadIndices = []uint32{0, 1, 2, 0, 2, 3}

func newTestManager(t testing.TB, capacity int) *chunk.Manager {
	t.Helper()
	m, err := chunk.NewManager(chunk.Config{Label: "test", Capacity: capacity, IndexFormat: chunk.IndexUint16}, nil)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return m
}

func newQuad(m *chunk.Manager, kind Kind, tex TextureID, mat MaterialID) *Element {
	sub := m.AllocateSubChunk(4)
	sub.Indices = slices.Clone(quadIndices)
	return &Element{Kind: kind, Texture: tex, Material: mat, SubChunk: sub}
}

func TestBatchTwoSpritesShareDrawCall(t *testing.T) {
	m := newTestManager(t, 64)
	a := newQuad(m, KindSprite, 7, 3)
	b := newQuad(m, KindSprite, 7, 3)

	q := &Queue{}
	q.Push(a)
	q.Push(b)
	e := NewEngine()
	e.Batch(q)

	if len(q.Batches) != 1 {
		t.Fatalf("got %d batches, want 1", len(q.Batches))
	}
	got := q.Batches[0]
	want := chunk.DrawRange{Start: 0, Count: len(a.SubChunk.Indices) + len(b.SubChunk.Indices)}
	if got.DrawRange != want {
		t.Errorf("DrawRange = %+v, want %+v", got.DrawRange, want)
	}
	if got.Head != a || got.Elements != 2 {
		t.Errorf("Head = %p, Elements = %d; want %p, 2", got.Head, got.Elements, a)
	}
	if a.SubChunk.DrawRange != want {
		t.Errorf("head SubChunk.DrawRange = %+v, want %+v", a.SubChunk.DrawRange, want)
	}
	if a.Batched || !b.Batched {
		t.Errorf("Batched flags = %v, %v; want false, true", a.Batched, b.Batched)
	}
	if a.Range != (chunk.DrawRange{Start: 0, Count: 6}) || b.Range != (chunk.DrawRange{Start: 6, Count: 6}) {
		t.Errorf("element ranges = %+v, %+v", a.Range, b.Range)
	}
	if s := e.Stats(); s.Batches != 1 || s.Elements != 2 || s.Indices != 12 {
		t.Errorf("Stats() = %v", s)
	}
}

func TestBatchMergeCorrectness(t *testing.T) {
	tests := []struct {
		name     string
		textures []TextureID
		batches  []int // elements per batch
	}{
		{"all same", []TextureID{1, 1, 1, 1}, []int{4}},
		{"all different", []TextureID{1, 2, 3}, []int{1, 1, 1}},
		{"runs", []TextureID{1, 1, 2, 2, 2, 1}, []int{2, 3, 1}},
		{"no lookahead", []TextureID{1, 2, 1, 2}, []int{1, 1, 1, 1}},
		{"single", []TextureID{5}, []int{1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestManager(t, 256)
			q := &Queue{}
			var want []uint32
			for i, tex := range tt.textures {
				el := newQuad(m, KindSprite, tex, 1)
				// Vary index counts so ranges are not all equal.
				if i%2 == 1 {
					el.SubChunk.Indices = append(el.SubChunk.Indices, 1, 2, 3)
				}
				for _, idx := range el.SubChunk.Indices {
					want = append(want, idx+uint32(el.SubChunk.Area().Start)) //nolint:gosec // test values
				}
				q.Push(el)
			}

			NewEngine().Batch(q)

			if len(q.Batches) != len(tt.batches) {
				t.Fatalf("got %d batches, want %d", len(q.Batches), len(tt.batches))
			}
			c := m.Chunks()[0]
			var concat []uint32
			next := 0
			for i, b := range q.Batches {
				if b.Elements != tt.batches[i] {
					t.Errorf("batch %d has %d elements, want %d", i, b.Elements, tt.batches[i])
				}
				if b.DrawRange.Start != next {
					t.Errorf("batch %d starts at %d, want %d", i, b.DrawRange.Start, next)
				}
				next = b.DrawRange.Start + b.DrawRange.Count
				concat = append(concat, c.Indices()[b.DrawRange.Start:next]...)
			}
			if !slices.Equal(concat, want) {
				t.Errorf("merged indices = %v, want %v", concat, want)
			}

			batched := 0
			for _, el := range q.Elements {
				if el.Batched {
					batched++
				}
			}
			if batched != len(tt.textures)-len(tt.batches) {
				t.Errorf("%d elements marked batched, want %d", batched, len(tt.textures)-len(tt.batches))
			}
		})
	}
}

func TestBatchNeverSpansChunks(t *testing.T) {
	m := newTestManager(t, 4)
	a := newQuad(m, KindSprite, 1, 1)
	b := newQuad(m, KindSprite, 1, 1)
	if a.Chunk() == b.Chunk() {
		t.Fatal("test setup: expected two chunks")
	}

	q := &Queue{Elements: []*Element{a, b}}
	NewEngine().Batch(q)

	if len(q.Batches) != 2 {
		t.Fatalf("got %d batches, want 2", len(q.Batches))
	}
	for i, b := range q.Batches {
		if b.DrawRange.Start != 0 || b.DrawRange.Count != 6 {
			t.Errorf("batch %d DrawRange = %+v, want {0 6}", i, b.DrawRange)
		}
	}
	if b.Batched {
		t.Error("element in a second chunk marked batched")
	}
}

func TestCanBatch(t *testing.T) {
	m := newTestManager(t, 1024)
	other := newTestManager(t, 64)
	base := func() *Element { return newQuad(m, KindSprite, 1, 1) }

	tests := []struct {
		name   string
		modify func(prev, next *Element)
		want   bool
	}{
		{"identical", func(_, _ *Element) {}, true},
		{"texture differs", func(_, n *Element) { n.Texture = 2 }, false},
		{"material differs", func(_, n *Element) { n.Material = 2 }, false},
		{"kind differs", func(_, n *Element) { n.Kind = KindUI }, false},
		{"other chunk", func(_, n *Element) {
			n.SubChunk = other.AllocateSubChunk(4)
		}, false},
		{"mask interaction differs", func(_, n *Element) { n.MaskInteraction = MaskVisibleInside }, false},
		{"layer ignored without interaction", func(p, n *Element) {
			p.MaskLayer, n.MaskLayer = 1, 2
		}, true},
		{"same layer with interaction", func(p, n *Element) {
			p.MaskInteraction, n.MaskInteraction = MaskVisibleInside, MaskVisibleInside
			p.MaskLayer, n.MaskLayer = 3, 3
		}, true},
		{"layer differs with interaction", func(p, n *Element) {
			p.MaskInteraction, n.MaskInteraction = MaskVisibleOutside, MaskVisibleOutside
			p.MaskLayer, n.MaskLayer = 1, 2
		}, false},
		{"mask quads same bindings", func(p, n *Element) {
			p.Kind, n.Kind = KindMaskQuad, KindMaskQuad
			p.Material, n.Material = 1, 9
			p.AlphaCutoff, n.AlphaCutoff = 4, 4
			p.StencilOp, n.StencilOp = StencilIncrement, StencilIncrement
		}, true},
		{"mask quads cutoff differs", func(p, n *Element) {
			p.Kind, n.Kind = KindMaskQuad, KindMaskQuad
			p.AlphaCutoff, n.AlphaCutoff = 4, 5
		}, false},
		{"mask quads op differs", func(p, n *Element) {
			p.Kind, n.Kind = KindMaskQuad, KindMaskQuad
			p.StencilOp, n.StencilOp = StencilIncrement, StencilDecrement
		}, false},
	}

	e := NewEngine()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prev, next := base(), base()
			tt.modify(prev, next)
			if got := e.CanBatch(prev, next); got != tt.want {
				t.Errorf("CanBatch() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEngineSetComparator(t *testing.T) {
	m := newTestManager(t, 64)
	q := &Queue{}
	for range 3 {
		q.Push(newQuad(m, KindText, 1, 1))
	}
	e := NewEngine()
	e.SetComparator(KindText, nil)
	e.Batch(q)
	if len(q.Batches) != 3 {
		t.Errorf("got %d batches with nil comparator, want 3", len(q.Batches))
	}

	defer func() {
		if recover() == nil {
			t.Error("SetComparator with unknown kind did not panic")
		}
	}()
	e.SetComparator(kindCount, nil)
}

func TestBatchFreedSubChunkPanics(t *testing.T) {
	m := newTestManager(t, 64)
	el := newQuad(m, KindSprite, 1, 1)
	m.FreeSubChunk(el.SubChunk)

	defer func() {
		if recover() == nil {
			t.Error("Batch with a freed SubChunk did not panic")
		}
	}()
	NewEngine().Batch(&Queue{Elements: []*Element{el}})
}

func TestBatchAfterUploadStartsAtZero(t *testing.T) {
	m := newTestManager(t, 64)
	el := newQuad(m, KindSprite, 1, 1)
	q := &Queue{Elements: []*Element{el}}
	e := NewEngine()

	for frame := range 3 {
		e.Batch(q)
		if got := q.Batches[0].DrawRange.Start; got != 0 {
			t.Errorf("frame %d: DrawRange.Start = %d, want 0", frame, got)
		}
		if err := m.UploadBuffer(); err != nil {
			t.Fatal(err)
		}
	}
}

func BenchmarkBatch(b *testing.B) {
	m := newTestManager(b, chunk.DefaultSpriteCapacity)
	q := &Queue{}
	for i := range 512 {
		q.Push(newQuad(m, KindSprite, TextureID(i/16), 1)) //nolint:gosec // small
	}
	e := NewEngine()
	for b.Loop() {
		e.Batch(q)
		_ = m.UploadBuffer()
	}
}
