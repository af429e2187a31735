// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package quadbatch

import (
	"fmt"
	"log/slog"

	"github.com/gogpu/quadbatch/chunk"
	"github.com/gogpu/quadbatch/render"
)

// ErrCapacityExceeded is returned when a chunk capacity does not fit its
// index format.
var ErrCapacityExceeded = chunk.ErrCapacityExceeded

// Config configures a Renderer or a Frame.
type Config struct {
	// SpriteChunkCapacity is the vertex capacity of 2D sprite chunks,
	// addressed with 16-bit indices.
	SpriteChunkCapacity int

	// UIChunkCapacity is the vertex capacity of UI and text chunks.
	UIChunkCapacity int

	// UIIndexFormat is the index width of UI and text chunks.
	UIIndexFormat chunk.IndexFormat

	// ElementPoolSize is the number of render elements preallocated.
	ElementPoolSize int

	// Pipelines configures the sprite pipelines of a Renderer.
	Pipelines render.PipelineOptions

	// Logger, if set, replaces the package logger on creation.
	Logger *slog.Logger
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		SpriteChunkCapacity: chunk.DefaultSpriteCapacity,
		UIChunkCapacity:     chunk.DefaultUICapacity,
		UIIndexFormat:       chunk.IndexUint32,
		ElementPoolSize:     256,
	}
}

// Option configures a Config.
//
// Example:
//
//	f, err := quadbatch.NewFrame(dev,
//	    quadbatch.WithSpriteChunkCapacity(8192),
//	    quadbatch.WithUIIndexFormat(chunk.IndexUint16))
type Option func(*Config)

// WithSpriteChunkCapacity sets the vertex capacity of sprite chunks.
func WithSpriteChunkCapacity(n int) Option {
	return func(c *Config) {
		c.SpriteChunkCapacity = n
	}
}

// WithUIChunkCapacity sets the vertex capacity of UI and text chunks.
func WithUIChunkCapacity(n int) Option {
	return func(c *Config) {
		c.UIChunkCapacity = n
	}
}

// WithUIIndexFormat sets the index width of UI and text chunks.
func WithUIIndexFormat(f chunk.IndexFormat) Option {
	return func(c *Config) {
		c.UIIndexFormat = f
	}
}

// WithElementPoolSize sets the number of preallocated render elements.
func WithElementPoolSize(n int) Option {
	return func(c *Config) {
		c.ElementPoolSize = n
	}
}

// WithPipelineOptions sets the sprite pipeline options.
func WithPipelineOptions(o render.PipelineOptions) Option {
	return func(c *Config) {
		c.Pipelines = o
	}
}

// WithLogger installs l as the package logger when the Renderer or Frame
// is created. See SetLogger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = l
	}
}

// FrameConfig returns the chunk configuration of c.
func (c Config) FrameConfig() render.FrameConfig {
	sprite := chunk.SpriteConfig()
	sprite.Capacity = c.SpriteChunkCapacity
	ui := chunk.UIConfig()
	ui.Capacity = c.UIChunkCapacity
	ui.IndexFormat = c.UIIndexFormat
	return render.FrameConfig{Sprite: sprite, UI: ui, ElementPoolSize: c.ElementPoolSize}
}

// Validate checks both chunk configurations against their index formats.
func (c Config) Validate() error {
	fc := c.FrameConfig()
	if _, err := fc.Sprite.Validate(); err != nil {
		return fmt.Errorf("quadbatch: sprite chunks: %w", err)
	}
	if _, err := fc.UI.Validate(); err != nil {
		return fmt.Errorf("quadbatch: UI chunks: %w", err)
	}
	if c.ElementPoolSize < 0 {
		return fmt.Errorf("quadbatch: negative element pool size %d", c.ElementPoolSize)
	}
	return nil
}

func newConfig(opts []Option) (Config, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	if cfg.Logger != nil {
		SetLogger(cfg.Logger)
	}
	return cfg, nil
}
