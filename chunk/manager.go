// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package chunk

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/gogpu/quadbatch/internal/logging"
)

// Manager errors.
var (
	// ErrCapacityExceeded is returned when a configured capacity or maximum
	// allocation does not fit the chunk index format.
	ErrCapacityExceeded = errors.New("chunk: capacity exceeds index format range")

	// ErrInvalidIndexFormat is returned for an unknown index format.
	ErrInvalidIndexFormat = errors.New("chunk: invalid index format")
)

// Default chunk capacities in vertices.
const (
	// DefaultSpriteCapacity is the default vertex capacity of 2D sprite
	// chunks, addressed with 16-bit indices.
	DefaultSpriteCapacity = 4096

	// DefaultUICapacity is the default vertex capacity of UI and text
	// chunks, addressed with 32-bit indices.
	DefaultUICapacity = 16384
)

// Config configures a Manager.
type Config struct {
	// Label prefixes GPU buffer labels and log records.
	Label string

	// Capacity is the vertex capacity of newly created chunks.
	// Defaults to DefaultSpriteCapacity if <= 0.
	Capacity int

	// IndexFormat selects the chunk index width.
	IndexFormat IndexFormat

	// MaxAllocation is the largest vertex count a single SubChunk may
	// request. Defaults to IndexFormat.MaxVertices() if <= 0.
	MaxAllocation int
}

// SpriteConfig returns the configuration used for 2D sprite chunks.
func SpriteConfig() Config {
	return Config{Label: "sprite", Capacity: DefaultSpriteCapacity, IndexFormat: IndexUint16}
}

// UIConfig returns the configuration used for UI and text chunks.
func UIConfig() Config {
	return Config{Label: "ui", Capacity: DefaultUICapacity, IndexFormat: IndexUint32}
}

// Validate fills defaults and checks the configuration against the index
// format. The returned config is the one a Manager would use.
func (c Config) Validate() (Config, error) {
	if c.IndexFormat != IndexUint16 && c.IndexFormat != IndexUint32 {
		return c, fmt.Errorf("%w: %v", ErrInvalidIndexFormat, c.IndexFormat)
	}
	limit := c.IndexFormat.MaxVertices()
	if c.Capacity <= 0 {
		c.Capacity = min(DefaultSpriteCapacity, limit)
	}
	if c.MaxAllocation <= 0 {
		c.MaxAllocation = limit
	}
	if c.Capacity > limit {
		return c, fmt.Errorf("%w: capacity %d, %v allows %d", ErrCapacityExceeded, c.Capacity, c.IndexFormat, limit)
	}
	if c.MaxAllocation > limit {
		return c, fmt.Errorf("%w: max allocation %d, %v allows %d", ErrCapacityExceeded, c.MaxAllocation, c.IndexFormat, limit)
	}
	return c, nil
}

// Stats contains chunk pool statistics.
type Stats struct {
	Chunks        int
	Capacity      int
	UsedVertices  int
	FreeVertices  int
	FreeAreas     int
	LiveSubChunks int
	Uploads       uint64
}

// String returns a human-readable summary.
func (s Stats) String() string {
	return fmt.Sprintf("Chunks[%d, %d/%d vertices used, %d free areas, %d sub-chunks, %d uploads]",
		s.Chunks, s.UsedVertices, s.Capacity, s.FreeAreas, s.LiveSubChunks, s.Uploads)
}

// Manager is a pool of chunks sharing one capacity and index format.
// It hands out SubChunks first-fit over chunks in creation order and grows
// the pool instead of failing.
//
// Manager is not safe for concurrent use. Within a frame all allocation and
// free calls must happen before the batching pass, and UploadBuffer after it.
type Manager struct {
	cfg      Config
	chunks   []*Chunk
	uploader Uploader
	live     int
	uploads  uint64

	// scratch is reused to encode upload payloads.
	scratch []byte
}

// NewManager creates a manager. uploader may be nil, in which case
// UploadBuffer only resets per-frame state; this is useful without a GPU.
func NewManager(cfg Config, uploader Uploader) (*Manager, error) {
	cfg, err := cfg.Validate()
	if err != nil {
		return nil, err
	}
	return &Manager{cfg: cfg, uploader: uploader}, nil
}

// Config returns the validated configuration.
func (m *Manager) Config() Config { return m.cfg }

// MaxChunkVertices returns the capacity of chunks created by default.
func (m *Manager) MaxChunkVertices() int { return m.cfg.Capacity }

// Chunks returns the chunk pool in creation order.
func (m *Manager) Chunks() []*Chunk { return m.chunks }

// SetUploader replaces the GPU uploader. Buffers owned by the previous
// uploader are released.
func (m *Manager) SetUploader(u Uploader) {
	if m.uploader != nil {
		for _, c := range m.chunks {
			m.uploader.Release(c)
		}
	}
	m.uploader = u
	for _, c := range m.chunks {
		c.markDirty(Area{Start: 0, Size: c.capacity})
	}
}

// AllocateSubChunk reserves vertexCount vertices. The first chunk in the
// pool with a free area of at least vertexCount vertices is used; if none
// has room, a chunk of max(Capacity, vertexCount) vertices is created.
//
// vertexCount must be in (0, MaxAllocation]; anything else panics.
func (m *Manager) AllocateSubChunk(vertexCount int) *SubChunk {
	if vertexCount <= 0 || vertexCount > m.cfg.MaxAllocation {
		panic(fmt.Sprintf("chunk: allocation of %d vertices outside (0, %d]", vertexCount, m.cfg.MaxAllocation))
	}

	for _, c := range m.chunks {
		if area, ok := c.allocateArea(vertexCount); ok {
			m.live++
			return &SubChunk{chunk: c, area: area}
		}
	}

	c := newChunk(len(m.chunks), max(m.cfg.Capacity, vertexCount), m.cfg.IndexFormat)
	m.chunks = append(m.chunks, c)
	logging.Logger().Debug("chunk: created",
		"manager", m.cfg.Label,
		"chunk", c.id,
		"capacity", c.capacity,
		"index_format", c.format.String())

	area, _ := c.allocateArea(vertexCount)
	m.live++
	return &SubChunk{chunk: c, area: area}
}

// FreeSubChunk returns the SubChunk's vertex range to its chunk, merged with
// free neighbours. Freeing nil or an already freed SubChunk does nothing.
func (m *Manager) FreeSubChunk(sub *SubChunk) {
	if sub == nil || sub.chunk == nil {
		return
	}
	sub.chunk.freeArea(sub.area)
	sub.chunk = nil
	sub.Indices = nil
	sub.DrawRange = DrawRange{}
	m.live--
}

// ReallocateSubChunk frees sub and allocates vertexCount vertices in its
// place. The local indices are kept. A nil sub allocates.
func (m *Manager) ReallocateSubChunk(sub *SubChunk, vertexCount int) *SubChunk {
	if sub != nil && sub.chunk != nil && sub.area.Size == vertexCount {
		return sub
	}
	var indices []uint32
	if sub != nil {
		indices = sub.Indices
	}
	m.FreeSubChunk(sub)
	next := m.AllocateSubChunk(vertexCount)
	next.Indices = indices
	return next
}

// AppendIndices copies sub's local indices, offset to chunk space, at the
// chunk's index write cursor and returns the draw range they occupy.
func (m *Manager) AppendIndices(sub *SubChunk) DrawRange {
	return sub.AppendIndices()
}

// UploadBuffer pushes every dirty vertex range and the indices written this
// frame through the uploader, then resets each chunk's index write cursor.
// It is the only place where GPU I/O happens.
func (m *Manager) UploadBuffer() error {
	var errs []error
	for _, c := range m.chunks {
		if m.uploader != nil {
			if err := m.uploadChunk(c); err != nil {
				errs = append(errs, fmt.Errorf("chunk %d: %w", c.id, err))
			}
		}
		c.clearDirty()
		c.indexCursor = 0
	}
	if err := errors.Join(errs...); err != nil {
		logging.Logger().Warn("chunk: upload failed", "manager", m.cfg.Label, "err", err)
		return err
	}
	return nil
}

func (m *Manager) uploadChunk(c *Chunk) error {
	if r, ok := c.dirtyRange(); ok {
		floats := c.vertices[r.Start*Stride : r.End()*Stride]
		m.scratch = encodeFloats(m.scratch[:0], floats)
		offset := uint64(r.Start) * StrideBytes //nolint:gosec // r.Start >= 0
		if err := m.uploader.UploadVertices(c, offset, m.scratch); err != nil {
			return fmt.Errorf("upload vertices: %w", err)
		}
		m.uploads++
	}
	if c.indexCursor > 0 {
		m.scratch = encodeIndices(m.scratch[:0], c.indices[:c.indexCursor], c.format)
		if err := m.uploader.UploadIndices(c, m.scratch); err != nil {
			return fmt.Errorf("upload indices: %w", err)
		}
		m.uploads++
	}
	return nil
}

// Stats returns pool statistics.
func (m *Manager) Stats() Stats {
	s := Stats{Chunks: len(m.chunks), LiveSubChunks: m.live, Uploads: m.uploads}
	for _, c := range m.chunks {
		s.Capacity += c.capacity
		s.UsedVertices += c.used
		s.FreeVertices += c.capacity - c.used
		s.FreeAreas += len(c.freeAreas)
	}
	return s
}

// Destroy releases GPU buffers and drops every chunk. SubChunks handed out
// before Destroy must not be used afterwards.
func (m *Manager) Destroy() {
	if m.uploader != nil {
		for _, c := range m.chunks {
			m.uploader.Release(c)
		}
	}
	m.chunks = nil
	m.live = 0
	m.scratch = nil
}

// encodeFloats appends the little-endian bytes of src to dst.
func encodeFloats(dst []byte, src []float32) []byte {
	for _, f := range src {
		dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(f))
	}
	return dst
}

// encodeIndices appends src in the given index format, padded to a multiple
// of four bytes as required for buffer writes.
func encodeIndices(dst []byte, src []uint32, format IndexFormat) []byte {
	if format == IndexUint32 {
		for _, idx := range src {
			dst = binary.LittleEndian.AppendUint32(dst, idx)
		}
		return dst
	}
	for _, idx := range src {
		dst = binary.LittleEndian.AppendUint16(dst, uint16(idx)) //nolint:gosec // chunk capacity <= MaxUint16
	}
	if len(src)%2 != 0 {
		dst = append(dst, 0, 0)
	}
	return dst
}
