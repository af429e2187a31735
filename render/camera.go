// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/quadbatch/assemble"
)

// cameraUniformSize is the byte size of the camera uniform: one mat4x4<f32>.
const cameraUniformSize = 64

// Camera holds the view-projection uniform of bind group 0.
type Camera struct {
	device    *Device
	buffer    hal.Buffer
	bindGroup hal.BindGroup
	data      []byte
}

// NewCamera creates the uniform buffer and bind group for p's camera layout
// and uploads the identity matrix.
func NewCamera(p *SpritePipelines) (*Camera, error) {
	dev := p.device.HAL
	buf, err := dev.CreateBuffer(&hal.BufferDescriptor{
		Label: "sprite_camera_uniform",
		Size:  cameraUniformSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("render: create camera buffer: %w", err)
	}
	bg, err := dev.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "sprite_camera_bind",
		Layout: p.cameraLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{
				Buffer: buf.NativeHandle(), Offset: 0, Size: cameraUniformSize,
			}},
		},
	})
	if err != nil {
		dev.DestroyBuffer(buf)
		return nil, fmt.Errorf("render: create camera bind group: %w", err)
	}
	c := &Camera{device: p.device, buffer: buf, bindGroup: bg}
	c.SetViewProjection(assemble.Identity())
	return c, nil
}

// SetViewProjection uploads m.
func (c *Camera) SetViewProjection(m assemble.Mat4) {
	c.data = c.data[:0]
	for _, f := range m {
		c.data = binary.LittleEndian.AppendUint32(c.data, math.Float32bits(f))
	}
	c.device.Queue.WriteBuffer(c.buffer, 0, c.data)
}

// BindGroup returns bind group 0.
func (c *Camera) BindGroup() hal.BindGroup { return c.bindGroup }

// Destroy releases the bind group and buffer.
func (c *Camera) Destroy() {
	dev := c.device.HAL
	if c.bindGroup != nil {
		dev.DestroyBindGroup(c.bindGroup)
		c.bindGroup = nil
	}
	if c.buffer != nil {
		dev.DestroyBuffer(c.buffer)
		c.buffer = nil
	}
}
