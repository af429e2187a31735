// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"
	"testing"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

func createNoopDevice(t *testing.T) (hal.Device, hal.Queue) {
	t.Helper()
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() {
		openDev.Device.Destroy()
		instance.Destroy()
	})
	return openDev.Device, openDev.Queue
}

func newTestDevice(t *testing.T) *Device {
	t.Helper()
	dev, queue := createNoopDevice(t)
	d, err := NewDevice(dev, queue, gputypes.TextureFormatUndefined)
	if err != nil {
		t.Fatalf("NewDevice: %v", err)
	}
	return d
}

// mockProvider implements gpucontext.DeviceProvider without HAL access.
type mockProvider struct {
	format gputypes.TextureFormat
}

func (m *mockProvider) Device() gpucontext.Device             { return nil }
func (m *mockProvider) Queue() gpucontext.Queue               { return nil }
func (m *mockProvider) Adapter() gpucontext.Adapter           { return nil }
func (m *mockProvider) SurfaceFormat() gputypes.TextureFormat { return m.format }

// halMockProvider adds the HAL accessors.
type halMockProvider struct {
	mockProvider
	device hal.Device
	queue  hal.Queue
}

func (m *halMockProvider) HalDevice() any { return m.device }
func (m *halMockProvider) HalQueue() any  { return m.queue }

func TestNewDeviceNil(t *testing.T) {
	if _, err := NewDevice(nil, nil, gputypes.TextureFormatBGRA8Unorm); !errors.Is(err, ErrNilDevice) {
		t.Errorf("NewDevice(nil) error = %v, want %v", err, ErrNilDevice)
	}
}

func TestNewDeviceDefaultFormat(t *testing.T) {
	d := newTestDevice(t)
	if d.Format != DefaultSurfaceFormat {
		t.Errorf("Format = %v, want %v", d.Format, DefaultSurfaceFormat)
	}
}

func TestNewDeviceFromProvider(t *testing.T) {
	dev, queue := createNoopDevice(t)

	tests := []struct {
		name       string
		provider   gpucontext.DeviceProvider
		wantErr    error
		wantFormat gputypes.TextureFormat
	}{
		{"nil", nil, ErrNilDevice, 0},
		{"no HAL", &mockProvider{}, ErrNoHALProvider, 0},
		{"nil HAL device", &halMockProvider{queue: queue}, ErrNoHALProvider, 0},
		{
			"HAL",
			&halMockProvider{mockProvider: mockProvider{format: gputypes.TextureFormatBGRA8Unorm}, device: dev, queue: queue},
			nil, gputypes.TextureFormatBGRA8Unorm,
		},
		{"undefined format", &halMockProvider{device: dev, queue: queue}, nil, DefaultSurfaceFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := NewDeviceFromProvider(tt.provider)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if d.HAL != dev || d.Queue != queue {
				t.Error("device or queue not taken from provider")
			}
			if d.Format != tt.wantFormat {
				t.Errorf("Format = %v, want %v", d.Format, tt.wantFormat)
			}
		})
	}
}
