// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/quadbatch/batch"
)

// ErrNoBuffers is returned when a draw call has no GPU buffers, for example
// when its frame was created without a device.
var ErrNoBuffers = errors.New("render: draw call has no GPU buffers")

// DrawRecorder receives the commands of a draw list. A HAL render pass
// encoder satisfies it through a thin adapter; ClearStencil typically ends
// the pass and begins a new one with a cleared stencil attachment.
type DrawRecorder interface {
	SetPipeline(pipeline hal.RenderPipeline)
	SetBindGroup(index uint32, group hal.BindGroup, offsets []uint32)
	SetVertexBuffer(slot uint32, buffer hal.Buffer, offset uint64)
	SetIndexBuffer(buffer hal.Buffer, format gputypes.IndexFormat, offset uint64)
	SetStencilReference(reference uint32)
	DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32)
	ClearStencil()
}

// MaterialBinder supplies bind group 1 for a texture and alpha cutoff pair.
type MaterialBinder interface {
	MaterialBindGroup(tex batch.TextureID, alphaCutoff batch.BindingID) (hal.BindGroup, error)
}

// RecordStats counts the state changes of the last Record.
type RecordStats struct {
	Draws           int
	Clears          int
	PipelineSwaps   int
	BindGroupSwaps  int
	BufferSwaps     int
	StencilRefSwaps int
}

// Recorder replays draw lists, setting state only when it changes.
type Recorder struct {
	Pipelines *SpritePipelines
	Camera    *Camera
	Materials MaterialBinder

	stats RecordStats
}

// Stats returns the counters of the last Record.
func (r *Recorder) Stats() RecordStats { return r.stats }

// Record encodes calls on enc.
func (r *Recorder) Record(enc DrawRecorder, calls []DrawCall) error {
	r.stats = RecordStats{}
	var (
		pipeline  hal.RenderPipeline
		material  hal.BindGroup
		vertex    hal.Buffer
		index     hal.Buffer
		ref       uint32
		refSet    bool
		cameraSet bool
	)
	for i := range calls {
		dc := &calls[i]
		if dc.Op == OpClearStencil {
			enc.ClearStencil()
			r.stats.Clears++
			// A cleared pass starts with no bound state.
			pipeline, material, vertex, index = nil, nil, nil, nil
			refSet, cameraSet = false, false
			continue
		}
		if dc.VertexBuffer == nil || dc.IndexBuffer == nil {
			return fmt.Errorf("%w: call %d", ErrNoBuffers, i)
		}

		rp, err := r.Pipelines.Pipeline(dc.Pipeline)
		if err != nil {
			return err
		}
		if rp != pipeline {
			enc.SetPipeline(rp)
			pipeline = rp
			r.stats.PipelineSwaps++
		}
		if !cameraSet {
			enc.SetBindGroup(0, r.Camera.BindGroup(), nil)
			cameraSet = true
		}
		bg, err := r.Materials.MaterialBindGroup(dc.Texture, dc.AlphaCutoff)
		if err != nil {
			return fmt.Errorf("render: material of call %d: %w", i, err)
		}
		if bg != material {
			enc.SetBindGroup(1, bg, nil)
			material = bg
			r.stats.BindGroupSwaps++
		}
		if dc.VertexBuffer != vertex {
			enc.SetVertexBuffer(0, dc.VertexBuffer, 0)
			vertex = dc.VertexBuffer
			r.stats.BufferSwaps++
		}
		if dc.IndexBuffer != index {
			enc.SetIndexBuffer(dc.IndexBuffer, dc.IndexFormat, 0)
			index = dc.IndexBuffer
			r.stats.BufferSwaps++
		}
		if !refSet || dc.StencilRef != ref {
			enc.SetStencilReference(dc.StencilRef)
			ref, refSet = dc.StencilRef, true
			r.stats.StencilRefSwaps++
		}
		enc.DrawIndexed(dc.IndexCount, 1, dc.FirstIndex, 0, 0)
		r.stats.Draws++
	}
	return nil
}
