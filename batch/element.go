// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package batch

import "github.com/gogpu/quadbatch/chunk"

// Kind identifies the renderer family that produced an element. Elements of
// different kinds never share a draw call.
type Kind uint8

const (
	// KindSprite is a 2D sprite renderer.
	KindSprite Kind = iota

	// KindUI is a UI image or panel.
	KindUI

	// KindText is a run of text glyph quads.
	KindText

	// KindMaskQuad is a stencil mask quad written by the mask coordinator.
	KindMaskQuad

	kindCount
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindSprite:
		return "Sprite"
	case KindUI:
		return "UI"
	case KindText:
		return "Text"
	case KindMaskQuad:
		return "MaskQuad"
	default:
		return "Unknown"
	}
}

// MaskInteraction controls how an element is clipped by stencil masks.
type MaskInteraction uint8

const (
	// MaskNone ignores masks.
	MaskNone MaskInteraction = iota

	// MaskVisibleInside draws only where a mask of the element's layer covers.
	MaskVisibleInside

	// MaskVisibleOutside draws only where no mask of the element's layer covers.
	MaskVisibleOutside
)

// String returns the interaction name.
func (m MaskInteraction) String() string {
	switch m {
	case MaskNone:
		return "None"
	case MaskVisibleInside:
		return "VisibleInside"
	case MaskVisibleOutside:
		return "VisibleOutside"
	default:
		return "Unknown"
	}
}

// StencilOp is the stencil write performed by a mask element.
type StencilOp uint8

const (
	// StencilKeep leaves the stencil buffer untouched. All content elements use it.
	StencilKeep StencilOp = iota

	// StencilIncrement adds one under the mask quad.
	StencilIncrement

	// StencilDecrement subtracts one under the mask quad.
	StencilDecrement
)

// String returns the operation name.
func (op StencilOp) String() string {
	switch op {
	case StencilKeep:
		return "Keep"
	case StencilIncrement:
		return "Increment"
	case StencilDecrement:
		return "Decrement"
	default:
		return "Unknown"
	}
}

// QueueType is the render queue an element was assigned to.
type QueueType uint8

const (
	QueueOpaque QueueType = iota
	QueueAlphaTest
	QueueTransparent
)

// MaterialID, TextureID and BindingID are opaque identities supplied by the
// material system. Batching compares them with ==; equal values must mean
// the same GPU binding.
type (
	MaterialID uint64
	TextureID  uint64
	BindingID  uint64
)

// Element is one draw submitted for a frame. Elements come from an
// ElementPool and are only valid until the pool is reset.
type Element struct {
	// Owner is the renderer that submitted the element.
	Owner any

	Kind     Kind
	Material MaterialID
	Texture  TextureID

	// AlphaCutoff is the alpha cutoff texture binding of a mask quad.
	AlphaCutoff BindingID

	// SubChunk holds the element geometry.
	SubChunk *chunk.SubChunk

	MaskInteraction MaskInteraction
	MaskLayer       uint32
	StencilOp       StencilOp

	Queue    QueueType
	Priority int
	Distance float32

	// Batched is set by Engine.Batch: true when the element was merged into
	// its predecessor's draw call, false when it starts a new one.
	Batched bool

	// Range is the element's own span of merged indices, set by Engine.Batch.
	Range chunk.DrawRange
}

// Chunk returns the chunk holding the element geometry, or nil.
func (e *Element) Chunk() *chunk.Chunk {
	if e.SubChunk == nil {
		return nil
	}
	return e.SubChunk.Chunk()
}

// MaskActive reports whether the element interacts with masks.
func (e *Element) MaskActive() bool {
	return e.MaskInteraction != MaskNone
}
