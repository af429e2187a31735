// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package chunk

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/quadbatch/internal/logging"
)

// Uploader moves chunk data to the GPU. Manager.UploadBuffer is its only
// caller.
type Uploader interface {
	// UploadVertices writes data at byteOffset of the chunk's vertex buffer.
	UploadVertices(c *Chunk, byteOffset uint64, data []byte) error

	// UploadIndices replaces the start of the chunk's index buffer with data.
	UploadIndices(c *Chunk, data []byte) error

	// Release destroys the GPU buffers of the chunk.
	Release(c *Chunk)
}

// ErrNilDevice is returned when creating a HALUploader without a device.
var ErrNilDevice = errors.New("chunk: nil device or queue")

// minIndexBufferSize is the smallest index buffer created, in bytes.
const minIndexBufferSize = 1024

// Buffers holds the GPU buffers backing one chunk.
type Buffers struct {
	Vertex    hal.Buffer
	Index     hal.Buffer
	indexSize uint64
}

// HALUploader owns one vertex buffer and one index buffer per chunk,
// created lazily on the first upload. The vertex buffer has the chunk's full
// capacity; the index buffer grows by re-creation when a frame writes more
// indices than it holds.
type HALUploader struct {
	device  hal.Device
	queue   hal.Queue
	label   string
	buffers map[*Chunk]*Buffers
}

// NewHALUploader creates an uploader writing through the given device and queue.
func NewHALUploader(device hal.Device, queue hal.Queue, label string) (*HALUploader, error) {
	if device == nil || queue == nil {
		return nil, ErrNilDevice
	}
	return &HALUploader{
		device:  device,
		queue:   queue,
		label:   label,
		buffers: make(map[*Chunk]*Buffers),
	}, nil
}

// Buffers returns the GPU buffers of c, if it has been uploaded.
func (u *HALUploader) Buffers(c *Chunk) (Buffers, bool) {
	b, ok := u.buffers[c]
	if !ok {
		return Buffers{}, false
	}
	return *b, true
}

// UploadVertices implements Uploader.
func (u *HALUploader) UploadVertices(c *Chunk, byteOffset uint64, data []byte) error {
	b, err := u.ensureVertexBuffer(c)
	if err != nil {
		return err
	}
	if len(data) > 0 {
		u.queue.WriteBuffer(b.Vertex, byteOffset, data)
	}
	return nil
}

// UploadIndices implements Uploader.
func (u *HALUploader) UploadIndices(c *Chunk, data []byte) error {
	b, err := u.ensureVertexBuffer(c)
	if err != nil {
		return err
	}
	need := uint64(len(data))
	if b.Index == nil || b.indexSize < need {
		size := max(b.indexSize*2, need, minIndexBufferSize)
		size = (size + 3) &^ 3
		if b.Index != nil {
			u.device.DestroyBuffer(b.Index)
			b.Index = nil
			b.indexSize = 0
		}
		buf, err := u.device.CreateBuffer(&hal.BufferDescriptor{
			Label: fmt.Sprintf("%s_chunk%d_index", u.label, c.id),
			Size:  size,
			Usage: gputypes.BufferUsageIndex | gputypes.BufferUsageCopyDst,
		})
		if err != nil {
			return fmt.Errorf("create index buffer: %w", err)
		}
		b.Index = buf
		b.indexSize = size
		logging.Logger().Debug("chunk: index buffer sized",
			"label", u.label, "chunk", c.id, "bytes", size)
	}
	if need > 0 {
		u.queue.WriteBuffer(b.Index, 0, data)
	}
	return nil
}

func (u *HALUploader) ensureVertexBuffer(c *Chunk) (*Buffers, error) {
	if b, ok := u.buffers[c]; ok {
		return b, nil
	}
	size := uint64(c.capacity) * StrideBytes //nolint:gosec // capacity > 0
	buf, err := u.device.CreateBuffer(&hal.BufferDescriptor{
		Label: fmt.Sprintf("%s_chunk%d_vertex", u.label, c.id),
		Size:  size,
		Usage: gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create vertex buffer: %w", err)
	}
	b := &Buffers{Vertex: buf}
	u.buffers[c] = b
	return b, nil
}

// Release implements Uploader.
func (u *HALUploader) Release(c *Chunk) {
	b, ok := u.buffers[c]
	if !ok {
		return
	}
	if b.Index != nil {
		u.device.DestroyBuffer(b.Index)
	}
	if b.Vertex != nil {
		u.device.DestroyBuffer(b.Vertex)
	}
	delete(u.buffers, c)
}

// Destroy releases every buffer owned by the uploader.
func (u *HALUploader) Destroy() {
	for c := range u.buffers {
		u.Release(c)
	}
}
