// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package quadbatch

import (
	"github.com/gogpu/gpucontext"

	"github.com/gogpu/quadbatch/assemble"
	"github.com/gogpu/quadbatch/render"
)

// NewFrame creates a frame context on d. A nil device gives a headless
// frame that batches without GPU buffers.
func NewFrame(d *render.Device, opts ...Option) (*render.Frame, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	return render.NewFrame(d, cfg.FrameConfig())
}

// Renderer bundles a frame context with the pipelines, camera and recorder
// that draw it.
type Renderer struct {
	Device    *render.Device
	Frame     *render.Frame
	Pipelines *render.SpritePipelines
	Camera    *render.Camera
	Recorder  *render.Recorder
}

// NewRenderer creates a renderer on d. materials supplies the texture bind
// groups.
func NewRenderer(d *render.Device, materials render.MaterialBinder, opts ...Option) (*Renderer, error) {
	if d == nil {
		return nil, render.ErrNilDevice
	}
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}

	r := &Renderer{Device: d}
	if r.Frame, err = render.NewFrame(d, cfg.FrameConfig()); err != nil {
		return nil, err
	}
	if r.Pipelines, err = render.NewSpritePipelines(d, cfg.Pipelines); err != nil {
		r.Destroy()
		return nil, err
	}
	if r.Camera, err = render.NewCamera(r.Pipelines); err != nil {
		r.Destroy()
		return nil, err
	}
	r.Recorder = &render.Recorder{Pipelines: r.Pipelines, Camera: r.Camera, Materials: materials}
	Logger().Debug("quadbatch: renderer created",
		"format", d.Format,
		"spriteCapacity", cfg.SpriteChunkCapacity,
		"uiCapacity", cfg.UIChunkCapacity)
	return r, nil
}

// NewRendererFromProvider creates a renderer on a host application's device.
func NewRendererFromProvider(p gpucontext.DeviceProvider, materials render.MaterialBinder, opts ...Option) (*Renderer, error) {
	d, err := render.NewDeviceFromProvider(p)
	if err != nil {
		return nil, err
	}
	return NewRenderer(d, materials, opts...)
}

// SetViewProjection uploads the camera matrix.
func (r *Renderer) SetViewProjection(m assemble.Mat4) {
	r.Camera.SetViewProjection(m)
}

// Draw finishes the open frame and records its draw list on enc.
func (r *Renderer) Draw(enc render.DrawRecorder) error {
	calls, err := r.Frame.Finish()
	if err != nil {
		return err
	}
	return r.Recorder.Record(enc, calls)
}

// Destroy releases every GPU resource of the renderer. The device is not
// destroyed.
func (r *Renderer) Destroy() {
	if r.Camera != nil {
		r.Camera.Destroy()
		r.Camera = nil
	}
	if r.Pipelines != nil {
		r.Pipelines.Destroy()
		r.Pipelines = nil
	}
	if r.Frame != nil {
		r.Frame.Destroy()
		r.Frame = nil
	}
}
