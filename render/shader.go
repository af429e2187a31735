// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	_ "embed"
	"encoding/binary"
	"fmt"

	"github.com/gogpu/naga"
)

//go:embed shaders/sprite.wgsl
var spriteShaderSource string

// SpriteShaderSource returns the WGSL source of the sprite shader.
func SpriteShaderSource() string { return spriteShaderSource }

// CompileSPIRV compiles WGSL source to SPIR-V words.
func CompileSPIRV(wgsl string) ([]uint32, error) {
	b, err := naga.Compile(wgsl)
	if err != nil {
		return nil, fmt.Errorf("render: compile shader: %w", err)
	}
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("render: compile shader: SPIR-V length %d is not a multiple of 4", len(b))
	}
	words := make([]uint32, len(b)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(b[i*4:])
	}
	return words, nil
}
