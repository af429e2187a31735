// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

var (
	// ErrNilDevice is returned when a device or queue is missing.
	ErrNilDevice = errors.New("render: nil device or queue")

	// ErrNoHALProvider is returned when a device provider does not expose
	// HAL types.
	ErrNoHALProvider = errors.New("render: provider does not expose HAL types")
)

// DefaultSurfaceFormat is used when the provider reports no surface format.
const DefaultSurfaceFormat = gputypes.TextureFormatBGRA8Unorm

// Device is the GPU device, queue and color target format the renderer
// draws with. The renderer does not own the device.
type Device struct {
	HAL    hal.Device
	Queue  hal.Queue
	Format gputypes.TextureFormat
}

// NewDevice wraps a HAL device and queue. An undefined format selects
// DefaultSurfaceFormat.
func NewDevice(device hal.Device, queue hal.Queue, format gputypes.TextureFormat) (*Device, error) {
	if device == nil || queue == nil {
		return nil, ErrNilDevice
	}
	if format == gputypes.TextureFormatUndefined {
		format = DefaultSurfaceFormat
	}
	return &Device{HAL: device, Queue: queue, Format: format}, nil
}

// NewDeviceFromProvider extracts the HAL device and queue from a host
// application's device provider. The provider must implement
// HalDevice() any and HalQueue() any returning hal.Device and hal.Queue.
func NewDeviceFromProvider(provider gpucontext.DeviceProvider) (*Device, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	if provider == nil {
		return nil, ErrNilDevice
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, ErrNoHALProvider
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, ErrNoHALProvider
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, ErrNoHALProvider
	}
	return NewDevice(device, queue, provider.SurfaceFormat())
}
