// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package stencil coordinates stencil mask writes with the batching pass.
//
// Each mask-aware element carries a 32-bit layer mask. While a queue is
// scanned in draw order the Coordinator keeps the layer of the previous
// mask-aware element; whenever it changes, the masks that influence newly
// added layers are written with a stencil increment and the masks of
// removed layers with a decrement. Masks that influence a layer shared by
// both are already in the stencil buffer and are left alone.
//
// SuspendStencil and ResumeStencil bracket unrelated rendering that must not
// see the accumulated stencil state: suspend clears the buffer, resume
// replays every recorded write as a stencil-only draw.
package stencil

import (
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/quadbatch/batch"
	"github.com/gogpu/quadbatch/chunk"
	"github.com/gogpu/quadbatch/internal/logging"
	"github.com/gogpu/quadbatch/unordered"
)

// State is the coordinator state within one render pass.
type State uint8

const (
	// StateIdle has no stencil writes in flight.
	StateIdle State = iota

	// StateWriting has emitted stencil writes not yet undone by ClearMask.
	StateWriting

	// StateSuspended has cleared the stencil buffer and waits for ResumeStencil.
	StateSuspended

	// StateResuming is replaying recorded writes.
	StateResuming
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateWriting:
		return "Writing"
	case StateSuspended:
		return "Suspended"
	case StateResuming:
		return "Resuming"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// Mask is a registered stencil mask renderer.
type Mask struct {
	// InfluenceLayers selects the mask layers the mask clips.
	InfluenceLayers uint32

	// SubChunk holds the mask quad geometry.
	SubChunk *chunk.SubChunk

	// Texture and AlphaCutoff are the shader inputs of the mask quad.
	Texture     batch.TextureID
	AlphaCutoff batch.BindingID

	// ColorWriteMask is the color write mask of the mask's target during a
	// normal write. Debug visualisation may enable color; usually it is none.
	ColorWriteMask gputypes.ColorWriteMask

	// Owner is passed through to the emitted elements.
	Owner any

	slot int // index+1 in the registry, 0 when unregistered
}

// Write is one recorded stencil write.
type Write struct {
	Element        *batch.Element
	ColorWriteMask gputypes.ColorWriteMask
}

// Target receives the stencil operations that bypass the render queue.
type Target interface {
	// ClearStencil clears the stencil buffer to zero.
	ClearStencil()

	// Replay draws w again. w.ColorWriteMask holds the mask to draw with.
	Replay(w *Write)
}

// Coordinator tracks mask registration and the running mask layer of one
// render pass. It replaces process-wide stencil state: each render pipeline
// owns one.
type Coordinator struct {
	masks  *unordered.Set[*Mask]
	pool   *batch.ElementPool
	target Target

	preMaskLayer uint32
	state        State
	writes       []*Write
	scratch      []*batch.Element
}

// NewCoordinator creates a coordinator. Mask write elements are taken from
// pool; target receives clears and replays.
func NewCoordinator(pool *batch.ElementPool, target Target) *Coordinator {
	if pool == nil || target == nil {
		panic("stencil: NewCoordinator requires a pool and a target")
	}
	return &Coordinator{
		masks:  unordered.New[*Mask](16),
		pool:   pool,
		target: target,
	}
}

// State returns the current state.
func (c *Coordinator) State() State { return c.state }

// MaskLayer returns the running mask layer cursor.
func (c *Coordinator) MaskLayer() uint32 { return c.preMaskLayer }

// Masks returns the number of registered masks.
func (c *Coordinator) Masks() int { return c.masks.Len() }

// Writes returns the stencil writes recorded since the last Reset.
func (c *Coordinator) Writes() []*Write { return c.writes }

// AddMask registers m. Registering a mask twice does nothing.
func (c *Coordinator) AddMask(m *Mask) {
	if m.slot != 0 {
		return
	}
	c.masks.Add(m)
	m.slot = c.masks.Len()
}

// RemoveMask unregisters m. It may be called while masks are being visited.
func (c *Coordinator) RemoveMask(m *Mask) {
	if m.slot == 0 {
		return
	}
	if swapped, ok := c.masks.DeleteByIndex(m.slot - 1); ok {
		swapped.slot = m.slot
	}
	m.slot = 0
}

func (c *Coordinator) patchSlot(m *Mask, newIndex int) { m.slot = newIndex + 1 }

// BuildMaskElements diffs cur against the running layer and returns the
// increment and decrement writes needed before drawing an element of layer
// cur. The cursor moves to cur. Both slices are nil when cur equals the
// cursor.
func (c *Coordinator) BuildMaskElements(cur uint32) (inc, dec []*batch.Element) {
	pre := c.preMaskLayer
	if cur == pre {
		return nil, nil
	}
	common := pre & cur
	added := cur &^ pre
	removed := pre &^ cur

	c.masks.ForEach(func(m *Mask, _ int) {
		influence := m.InfluenceLayers
		switch {
		case influence&common != 0:
		case influence&added != 0:
			inc = append(inc, c.emit(m, batch.StencilIncrement))
		case influence&removed != 0:
			dec = append(dec, c.emit(m, batch.StencilDecrement))
		}
	}, c.patchSlot)

	c.preMaskLayer = cur
	return inc, dec
}

// Inject walks q in draw order and inserts mask writes in front of every
// mask-aware element whose layer differs from the running layer. At the end
// of the queue the stencil state is cleared with ClearMask, appending any
// decrement writes. Elements that ignore masks do not move the cursor.
func (c *Coordinator) Inject(q *batch.Queue) {
	out := c.scratch[:0]
	for _, el := range q.Elements {
		if el.MaskActive() {
			inc, dec := c.BuildMaskElements(el.MaskLayer)
			out = c.appendWrites(out, el, inc)
			out = c.appendWrites(out, el, dec)
		}
		out = append(out, el)
	}
	out = append(out, c.ClearMask()...)

	// Swap storage so the queue keeps the grown slice and the old one
	// becomes scratch for the next pass.
	c.scratch = q.Elements[:0]
	q.Elements = out
}

func (c *Coordinator) appendWrites(out []*batch.Element, before *batch.Element, writes []*batch.Element) []*batch.Element {
	for _, w := range writes {
		w.Queue = before.Queue
		w.Priority = before.Priority
		w.Distance = before.Distance
		out = append(out, w)
	}
	return out
}

// ClearMask resets the running layer to zero at the end of a pass. If
// stencil writes are in flight it returns decrement writes for every mask
// influencing the running layer; otherwise it clears the stencil buffer
// through the target when the layer was set. The write log is kept, so a
// later ResumeStencil reproduces the state left by the whole pass.
func (c *Coordinator) ClearMask() []*batch.Element {
	pre := c.preMaskLayer
	c.preMaskLayer = 0
	if pre == 0 {
		c.settle()
		return nil
	}

	var dec []*batch.Element
	if c.state == StateWriting {
		c.masks.ForEach(func(m *Mask, _ int) {
			if m.InfluenceLayers&pre != 0 {
				dec = append(dec, c.emit(m, batch.StencilDecrement))
			}
		}, c.patchSlot)
	} else {
		c.target.ClearStencil()
	}
	c.settle()
	return dec
}

func (c *Coordinator) settle() {
	if c.state == StateWriting {
		c.state = StateIdle
	}
}

// Reset drops the write log and the running layer. Call it when the
// elements the writes refer to are returned to their pool. It panics while
// suspended or resuming.
func (c *Coordinator) Reset() {
	if c.state == StateSuspended || c.state == StateResuming {
		panic(fmt.Sprintf("stencil: Reset in state %v", c.state))
	}
	clear(c.writes)
	c.writes = c.writes[:0]
	c.preMaskLayer = 0
	c.state = StateIdle
}

// SuspendStencil clears the stencil buffer so that an intervening pass does
// not inherit it. Recorded writes are kept for ResumeStencil. It panics when
// the coordinator is already suspended or resuming.
func (c *Coordinator) SuspendStencil() {
	if c.state == StateSuspended || c.state == StateResuming {
		panic(fmt.Sprintf("stencil: SuspendStencil in state %v", c.state))
	}
	c.target.ClearStencil()
	c.state = StateSuspended
	logging.Logger().Debug("stencil: suspended", "writes", len(c.writes))
}

// ResumeStencil replays every recorded write as a stencil-only draw: the
// write's color write mask is forced to none for the replay and restored
// afterwards. It panics unless the coordinator is suspended.
func (c *Coordinator) ResumeStencil() {
	if c.state != StateSuspended {
		panic(fmt.Sprintf("stencil: ResumeStencil in state %v, want %v", c.state, StateSuspended))
	}
	c.state = StateResuming
	for _, w := range c.writes {
		saved := w.ColorWriteMask
		w.ColorWriteMask = gputypes.ColorWriteMaskNone
		c.target.Replay(w)
		w.ColorWriteMask = saved
	}
	c.state = StateIdle
	logging.Logger().Debug("stencil: resumed", "writes", len(c.writes))
}

// emit takes a mask write element from the pool and records it.
func (c *Coordinator) emit(m *Mask, op batch.StencilOp) *batch.Element {
	el := c.pool.Get()
	el.Owner = m.Owner
	el.Kind = batch.KindMaskQuad
	el.SubChunk = m.SubChunk
	el.Texture = m.Texture
	el.AlphaCutoff = m.AlphaCutoff
	el.StencilOp = op
	c.writes = append(c.writes, &Write{Element: el, ColorWriteMask: m.ColorWriteMask})
	if c.state == StateIdle {
		c.state = StateWriting
	}
	return el
}
