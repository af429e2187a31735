// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package render turns batched chunk geometry into GPU draw calls.
//
// A Frame owns everything one render pipeline needs per frame: the sprite
// and UI chunk managers, the element pool, the render queue, the stencil
// coordinator and the batching engine. Finish runs mask injection, batching
// and the single upload of every dirty chunk, and returns the draw list.
// Record replays a draw list on a DrawRecorder with SpritePipelines.
package render

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/quadbatch/assemble"
	"github.com/gogpu/quadbatch/batch"
	"github.com/gogpu/quadbatch/chunk"
	"github.com/gogpu/quadbatch/internal/logging"
	"github.com/gogpu/quadbatch/stencil"
	"github.com/gogpu/quadbatch/text"
)

// ErrFrameState is returned when frame methods are called out of order.
var ErrFrameState = errors.New("render: frame method called out of order")

// Op is the operation of a DrawCall.
type Op uint8

const (
	// OpDraw is an indexed draw.
	OpDraw Op = iota

	// OpClearStencil clears the stencil attachment to zero.
	OpClearStencil
)

// DrawCall is one entry of a frame's draw list.
type DrawCall struct {
	Op Op

	Pipeline    PipelineKey
	Texture     batch.TextureID
	Material    batch.MaterialID
	AlphaCutoff batch.BindingID

	// Chunk holds the geometry. The buffers are nil without a device.
	Chunk        *chunk.Chunk
	VertexBuffer hal.Buffer
	IndexBuffer  hal.Buffer
	IndexFormat  gputypes.IndexFormat

	FirstIndex uint32
	IndexCount uint32
	StencilRef uint32

	// Elements is the number of queue elements merged into the call.
	Elements int
}

// FrameConfig configures a Frame.
type FrameConfig struct {
	Sprite chunk.Config
	UI     chunk.Config

	// ElementPoolSize is the number of elements preallocated per frame.
	ElementPoolSize int
}

// DefaultFrameConfig returns the sprite and UI chunk defaults.
func DefaultFrameConfig() FrameConfig {
	return FrameConfig{
		Sprite:          chunk.SpriteConfig(),
		UI:              chunk.UIConfig(),
		ElementPoolSize: 256,
	}
}

// Frame is the per-pipeline frame context. It is not safe for concurrent use.
type Frame struct {
	sprites   *chunk.Manager
	ui        *chunk.Manager
	uploaders []*chunk.HALUploader

	pool   *batch.ElementPool
	queue  batch.Queue
	masks  *stencil.Coordinator
	engine *batch.Engine

	calls      []DrawCall
	writeMasks map[*batch.Element]gputypes.ColorWriteMask
	open       bool
	finished   bool
	finishing  bool
	lateClear  bool
}

// NewFrame creates a frame context. With a nil device the frame batches and
// produces draw calls without GPU buffers.
func NewFrame(d *Device, cfg FrameConfig) (*Frame, error) {
	f := &Frame{
		pool:       batch.NewElementPool(cfg.ElementPoolSize),
		engine:     batch.NewEngine(),
		writeMasks: make(map[*batch.Element]gputypes.ColorWriteMask),
	}
	f.engine.SetComparator(batch.KindMaskQuad, f.canBatchMask)
	var err error
	if f.sprites, err = f.newManager(d, cfg.Sprite); err != nil {
		f.Destroy()
		return nil, err
	}
	if f.ui, err = f.newManager(d, cfg.UI); err != nil {
		f.Destroy()
		return nil, err
	}
	f.masks = stencil.NewCoordinator(f.pool, f)
	return f, nil
}

func (f *Frame) newManager(d *Device, cfg chunk.Config) (*chunk.Manager, error) {
	var up chunk.Uploader
	if d != nil {
		u, err := chunk.NewHALUploader(d.HAL, d.Queue, cfg.Label)
		if err != nil {
			return nil, fmt.Errorf("render: %s uploader: %w", cfg.Label, err)
		}
		f.uploaders = append(f.uploaders, u)
		up = u
	}
	m, err := chunk.NewManager(cfg, up)
	if err != nil {
		return nil, fmt.Errorf("render: %s chunks: %w", cfg.Label, err)
	}
	return m, nil
}

// Sprites returns the manager of 2D sprite geometry.
func (f *Frame) Sprites() *chunk.Manager { return f.sprites }

// UI returns the manager of UI and text geometry.
func (f *Frame) UI() *chunk.Manager { return f.ui }

// Masks returns the stencil coordinator. Register masks on it.
func (f *Frame) Masks() *stencil.Coordinator { return f.masks }

// Engine returns the batching engine.
func (f *Frame) Engine() *batch.Engine { return f.engine }

// Queue returns the render queue of the open frame. Sort it before Finish.
func (f *Frame) Queue() *batch.Queue { return &f.queue }

// Begin opens a frame. The stencil write log of the previous frame is
// dropped.
func (f *Frame) Begin() error {
	if f.open {
		return fmt.Errorf("%w: Begin on an open frame", ErrFrameState)
	}
	f.open = true
	f.finished = false
	f.masks.Reset()
	f.calls = f.calls[:0]
	return nil
}

// NewElement returns a zeroed element owned by the frame pool and pushes it
// onto the queue.
func (f *Frame) NewElement() *batch.Element {
	el := f.pool.Get()
	f.queue.Push(el)
	return el
}

// SubmitRenderer updates r's geometry and queues it as one element of kind.
func (f *Frame) SubmitRenderer(kind batch.Kind, r *assemble.Renderer, tex batch.TextureID, mat batch.MaterialID) *batch.Element {
	el := f.NewElement()
	el.Owner = r
	el.Kind = kind
	el.SubChunk = r.Update()
	el.Texture = tex
	el.Material = mat
	return el
}

// SubmitText queues one text element per packed chunk and returns them.
func (f *Frame) SubmitText(chunks []*text.TextChunk, mat batch.MaterialID) []*batch.Element {
	els := make([]*batch.Element, 0, len(chunks))
	for _, c := range chunks {
		el := f.NewElement()
		el.Owner = c
		el.Kind = batch.KindText
		el.SubChunk = c.SubChunk
		el.Texture = c.Texture
		el.Material = mat
		els = append(els, el)
	}
	return els
}

// Finish injects mask writes, batches the queue, uploads every dirty chunk
// once and returns the draw list. The list is valid until the next Begin.
// Finish runs once per frame.
func (f *Frame) Finish() ([]DrawCall, error) {
	if !f.open {
		return nil, fmt.Errorf("%w: Finish without Begin", ErrFrameState)
	}
	if f.finished {
		return nil, fmt.Errorf("%w: Finish called twice", ErrFrameState)
	}
	f.finished = true
	n := len(f.calls)
	f.finishing = true
	f.lateClear = false
	f.masks.Inject(&f.queue)
	f.finishing = false
	clear(f.writeMasks)
	for _, w := range f.masks.Writes() {
		f.writeMasks[w.Element] = w.ColorWriteMask
	}

	f.engine.Batch(&f.queue)

	if err := errors.Join(f.sprites.UploadBuffer(), f.ui.UploadBuffer()); err != nil {
		return nil, err
	}

	for i := range f.queue.Batches {
		b := &f.queue.Batches[i]
		dc := f.drawCall(b.Head, b.Chunk, b.DrawRange)
		dc.Elements = b.Elements
		f.calls = append(f.calls, dc)
	}
	if f.lateClear {
		f.calls = append(f.calls, DrawCall{Op: OpClearStencil})
	}

	logging.Logger().Debug("render: frame finished",
		"elements", len(f.queue.Elements), "calls", len(f.calls)-n)
	return f.calls[n:len(f.calls):len(f.calls)], nil
}

// End closes the frame and returns its elements to the pool.
func (f *Frame) End() error {
	if !f.open {
		return fmt.Errorf("%w: End without Begin", ErrFrameState)
	}
	if s := f.masks.State(); s == stencil.StateSuspended || s == stencil.StateResuming {
		return fmt.Errorf("%w: End while stencil is %v", ErrFrameState, s)
	}
	f.masks.Reset()
	clear(f.writeMasks)
	f.queue.Clear()
	f.pool.Reset()
	f.open = false
	return nil
}

// SuspendStencil clears the stencil buffer before unrelated rendering and
// returns the draw calls doing so.
func (f *Frame) SuspendStencil() []DrawCall {
	n := len(f.calls)
	f.masks.SuspendStencil()
	return f.calls[n:len(f.calls):len(f.calls)]
}

// ResumeStencil replays the recorded mask writes as stencil-only draws and
// returns them.
func (f *Frame) ResumeStencil() []DrawCall {
	n := len(f.calls)
	f.masks.ResumeStencil()
	return f.calls[n:len(f.calls):len(f.calls)]
}

// ClearStencil implements stencil.Target. A clear requested while the queue
// is being injected is placed after the queue's draws.
func (f *Frame) ClearStencil() {
	if f.finishing {
		f.lateClear = true
		return
	}
	f.calls = append(f.calls, DrawCall{Op: OpClearStencil})
}

// Replay implements stencil.Target.
func (f *Frame) Replay(w *stencil.Write) {
	el := w.Element
	dc := f.drawCall(el, el.Chunk(), el.Range)
	dc.Pipeline.WriteMask = w.ColorWriteMask
	dc.Elements = 1
	f.calls = append(f.calls, dc)
}

// Destroy releases the chunk managers and GPU buffers.
func (f *Frame) Destroy() {
	if f.sprites != nil {
		f.sprites.Destroy()
	}
	if f.ui != nil {
		f.ui.Destroy()
	}
	for _, u := range f.uploaders {
		u.Destroy()
	}
	f.uploaders = nil
}

// drawCall builds the draw call of head's pipeline state over r in c.
func (f *Frame) drawCall(head *batch.Element, c *chunk.Chunk, r chunk.DrawRange) DrawCall {
	dc := DrawCall{
		Op:          OpDraw,
		Pipeline:    f.pipelineKey(head),
		Texture:     head.Texture,
		Material:    head.Material,
		AlphaCutoff: head.AlphaCutoff,
		Chunk:       c,
		IndexFormat: c.IndexFormat().GPU(),
		FirstIndex:  uint32(r.Start), //nolint:gosec // bounded by chunk index cursor
		IndexCount:  uint32(r.Count), //nolint:gosec // bounded by chunk index cursor
	}
	if dc.Pipeline.Kind == PipelineMaskedInside || dc.Pipeline.Kind == PipelineMaskedOutside {
		dc.StencilRef = MaskReference
	}
	for _, u := range f.uploaders {
		if bufs, ok := u.Buffers(c); ok {
			dc.VertexBuffer, dc.IndexBuffer = bufs.Vertex, bufs.Index
			break
		}
	}
	return dc
}

// canBatchMask extends batch.CanBatchMask: mask quads drawn with different
// color write masks need different pipelines.
func (f *Frame) canBatchMask(prev, next *batch.Element) bool {
	return batch.CanBatchMask(prev, next) && f.writeMasks[prev] == f.writeMasks[next]
}

// pipelineKey maps an element's stencil state to a pipeline variant. Mask
// quads use the color write mask of their mask; it is none unless set.
func (f *Frame) pipelineKey(el *batch.Element) PipelineKey {
	if el.Kind == batch.KindMaskQuad {
		kind := PipelineStencilIncrement
		if el.StencilOp == batch.StencilDecrement {
			kind = PipelineStencilDecrement
		}
		return PipelineKey{Kind: kind, WriteMask: f.writeMasks[el]}
	}
	key := PipelineKey{Kind: PipelineContent, WriteMask: gputypes.ColorWriteMaskAll}
	switch el.MaskInteraction {
	case batch.MaskVisibleInside:
		key.Kind = PipelineMaskedInside
	case batch.MaskVisibleOutside:
		key.Kind = PipelineMaskedOutside
	}
	return key
}
