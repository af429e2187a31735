// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package batch

// ElementPool hands out Elements for one frame. Elements are never freed
// one by one; Reset returns all of them at the end of the frame.
//
// Usage:
//
//	el := pool.Get()
//	el.Kind = batch.KindSprite
//	// ...
//	pool.Reset() // end of frame
type ElementPool struct {
	elements []*Element
	used     int
}

// NewElementPool creates a pool with capacity pre-allocated elements.
func NewElementPool(capacity int) *ElementPool {
	p := &ElementPool{}
	p.Warmup(capacity)
	return p
}

// Get returns a zeroed element.
func (p *ElementPool) Get() *Element {
	if p.used == len(p.elements) {
		p.elements = append(p.elements, &Element{})
	}
	el := p.elements[p.used]
	p.used++
	*el = Element{}
	return el
}

// Reset returns every element handed out since the last Reset. Elements
// obtained before must not be used afterwards.
func (p *ElementPool) Reset() {
	for _, el := range p.elements[:p.used] {
		el.Owner = nil
		el.SubChunk = nil
	}
	p.used = 0
}

// Len returns the number of elements in use.
func (p *ElementPool) Len() int { return p.used }

// Cap returns the number of elements owned by the pool.
func (p *ElementPool) Cap() int { return len(p.elements) }

// Warmup pre-allocates elements so that the first frames do not allocate.
func (p *ElementPool) Warmup(count int) {
	for len(p.elements) < count {
		p.elements = append(p.elements, &Element{})
	}
}
