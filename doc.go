// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package quadbatch batches 2D sprite, UI and text quads into a few large
// GPU buffers and merges adjacent draws that share state.
//
// # Overview
//
// Every renderer owns a sub-allocation of a large vertex chunk and rewrites
// its own vertices whenever it changes, without touching its neighbours.
// Once per frame the render queue is scanned in draw order: stencil mask
// writes are injected where the mask layer changes, adjacent elements with
// the same texture, material and stencil state are merged into one indexed
// draw, and every dirty chunk is uploaded exactly once.
//
// # Quick Start
//
//	dev, _ := render.NewDeviceFromProvider(provider)
//	r, _ := quadbatch.NewRenderer(dev, materials)
//	defer r.Destroy()
//
//	sprite := assemble.NewRenderer(r.Frame.Sprites(), assemble.Simple, assemble.Sprite{Width: 64, Height: 64})
//
//	_ = r.Frame.Begin()
//	r.Frame.SubmitRenderer(batch.KindSprite, sprite, tex, mat)
//	_ = r.Draw(pass)
//	_ = r.Frame.End()
//
// # Architecture
//
// The module is organized into:
//   - unordered: swap-delete container that tolerates removal while iterating
//   - chunk: vertex chunk arena, sub-allocations and GPU upload
//   - batch: render elements, the render queue and the batching pass
//   - stencil: mask layer diffing and stencil suspend/resume
//   - assemble: simple, sliced and tiled sprite geometry
//   - text: glyph quad layout and packing
//   - render: pipelines, the per-frame context and draw recording
//
// # Logging
//
// The module is silent by default. SetLogger enables log/slog output for all
// packages.
package quadbatch

// Version information
const (
	// Version is the current version of the library
	Version = "0.1.0"
)
