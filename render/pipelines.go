// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/quadbatch/chunk"
	"github.com/gogpu/quadbatch/internal/logging"
)

// PipelineKind selects the stencil behavior of a sprite pipeline.
type PipelineKind uint8

const (
	// PipelineContent draws color and ignores the stencil buffer.
	PipelineContent PipelineKind = iota

	// PipelineStencilIncrement writes a mask quad with a stencil increment.
	// Fragments below the alpha cutoff are discarded.
	PipelineStencilIncrement

	// PipelineStencilDecrement undoes a PipelineStencilIncrement write.
	PipelineStencilDecrement

	// PipelineMaskedInside draws color where the stencil value is at least
	// MaskReference.
	PipelineMaskedInside

	// PipelineMaskedOutside draws color where the stencil value is below
	// MaskReference.
	PipelineMaskedOutside

	pipelineKindCount
)

// MaskReference is the stencil reference used by the masked pipelines.
const MaskReference = 1

var pipelineKindNames = [pipelineKindCount]string{
	"Content", "StencilIncrement", "StencilDecrement", "MaskedInside", "MaskedOutside",
}

// String returns the kind name.
func (k PipelineKind) String() string {
	if k < pipelineKindCount {
		return pipelineKindNames[k]
	}
	return fmt.Sprintf("PipelineKind(%d)", uint8(k))
}

// writesStencil reports whether the kind modifies the stencil buffer.
func (k PipelineKind) writesStencil() bool {
	return k == PipelineStencilIncrement || k == PipelineStencilDecrement
}

// PipelineKey identifies one render pipeline variant.
type PipelineKey struct {
	Kind      PipelineKind
	WriteMask gputypes.ColorWriteMask
}

// PipelineOptions configures SpritePipelines.
type PipelineOptions struct {
	// SampleCount is the MSAA sample count. Zero means 1.
	SampleCount uint32

	// DepthStencilFormat is the depth-stencil attachment format. Undefined
	// means Depth24PlusStencil8.
	DepthStencilFormat gputypes.TextureFormat

	// SPIRV compiles the shader with naga and creates the module from
	// SPIR-V instead of WGSL.
	SPIRV bool
}

// SpritePipelines owns the shader, bind group layouts and render pipelines
// that draw chunk geometry. Pipelines are created on first use.
//
// Bind groups:
//
//	group(0) binding(0): camera uniform, 64 bytes
//	group(1) binding(0): texture_2d<f32>
//	group(1) binding(1): sampler
//	group(1) binding(2): params uniform, 16 bytes (x = alpha cutoff)
type SpritePipelines struct {
	device *Device
	opts   PipelineOptions

	shader         hal.ShaderModule
	cameraLayout   hal.BindGroupLayout
	materialLayout hal.BindGroupLayout
	layout         hal.PipelineLayout
	pipelines      map[PipelineKey]hal.RenderPipeline
}

// NewSpritePipelines creates the shader module and layouts on d.
func NewSpritePipelines(d *Device, opts PipelineOptions) (*SpritePipelines, error) {
	if d == nil {
		return nil, ErrNilDevice
	}
	if opts.SampleCount == 0 {
		opts.SampleCount = 1
	}
	if opts.DepthStencilFormat == gputypes.TextureFormatUndefined {
		opts.DepthStencilFormat = gputypes.TextureFormatDepth24PlusStencil8
	}
	p := &SpritePipelines{
		device:    d,
		opts:      opts,
		pipelines: make(map[PipelineKey]hal.RenderPipeline),
	}
	if err := p.createLayouts(); err != nil {
		p.Destroy()
		return nil, err
	}
	return p, nil
}

func (p *SpritePipelines) createLayouts() error {
	dev := p.device.HAL

	source := hal.ShaderSource{WGSL: spriteShaderSource}
	if p.opts.SPIRV {
		words, err := CompileSPIRV(spriteShaderSource)
		if err != nil {
			return err
		}
		source = hal.ShaderSource{SPIRV: words}
	}
	shader, err := dev.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "sprite_shader",
		Source: source,
	})
	if err != nil {
		return fmt.Errorf("render: create sprite shader: %w", err)
	}
	p.shader = shader

	cameraLayout, err := dev.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "sprite_camera_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageVertex,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("render: create camera layout: %w", err)
	}
	p.cameraLayout = cameraLayout

	materialLayout, err := dev.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "sprite_material_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageFragment,
				Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
			},
			{
				Binding:    2,
				Visibility: gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("render: create material layout: %w", err)
	}
	p.materialLayout = materialLayout

	layout, err := dev.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "sprite_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{p.cameraLayout, p.materialLayout},
	})
	if err != nil {
		return fmt.Errorf("render: create sprite pipeline layout: %w", err)
	}
	p.layout = layout
	return nil
}

// CameraLayout returns the layout of bind group 0.
func (p *SpritePipelines) CameraLayout() hal.BindGroupLayout { return p.cameraLayout }

// MaterialLayout returns the layout of bind group 1.
func (p *SpritePipelines) MaterialLayout() hal.BindGroupLayout { return p.materialLayout }

// Len returns the number of pipelines created so far.
func (p *SpritePipelines) Len() int { return len(p.pipelines) }

// Pipeline returns the pipeline for key, creating it on first use.
func (p *SpritePipelines) Pipeline(key PipelineKey) (hal.RenderPipeline, error) {
	if rp, ok := p.pipelines[key]; ok {
		return rp, nil
	}
	if key.Kind >= pipelineKindCount {
		return nil, fmt.Errorf("render: unknown pipeline kind %v", key.Kind)
	}

	face := hal.StencilFaceState{
		Compare:     gputypes.CompareFunctionAlways,
		FailOp:      hal.StencilOperationKeep,
		DepthFailOp: hal.StencilOperationKeep,
		PassOp:      hal.StencilOperationKeep,
	}
	entry := "fs_main"
	switch key.Kind {
	case PipelineStencilIncrement:
		face.PassOp = hal.StencilOperationIncrementWrap
		entry = "fs_mask"
	case PipelineStencilDecrement:
		face.PassOp = hal.StencilOperationDecrementWrap
		entry = "fs_mask"
	case PipelineMaskedInside:
		face.Compare = gputypes.CompareFunctionLessEqual
	case PipelineMaskedOutside:
		face.Compare = gputypes.CompareFunctionGreater
	}
	var writeMask uint32
	if key.Kind.writesStencil() {
		writeMask = 0xFF
	}

	premulBlend := gputypes.BlendStatePremultiplied()
	rp, err := p.device.HAL.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "sprite_" + key.Kind.String(),
		Layout: p.layout,
		Vertex: hal.VertexState{
			Module:     p.shader,
			EntryPoint: "vs_main",
			Buffers:    chunk.VertexLayout(),
		},
		Fragment: &hal.FragmentState{
			Module:     p.shader,
			EntryPoint: entry,
			Targets: []gputypes.ColorTargetState{
				{
					Format:    p.device.Format,
					Blend:     &premulBlend,
					WriteMask: key.WriteMask,
				},
			},
		},
		DepthStencil: &hal.DepthStencilState{
			Format:            p.opts.DepthStencilFormat,
			DepthWriteEnabled: false,
			DepthCompare:      gputypes.CompareFunctionAlways,
			StencilFront:      face,
			StencilBack:       face,
			StencilReadMask:   0xFF,
			StencilWriteMask:  writeMask,
		},
		Multisample: gputypes.MultisampleState{
			Count: p.opts.SampleCount,
			Mask:  0xFFFFFFFF,
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("render: create %v pipeline: %w", key.Kind, err)
	}
	p.pipelines[key] = rp
	logging.Logger().Debug("render: pipeline created",
		"kind", key.Kind.String(), "writeMask", uint32(key.WriteMask))
	return rp, nil
}

// Destroy releases every pipeline and layout in reverse creation order. It
// is safe on partially created pipelines.
func (p *SpritePipelines) Destroy() {
	if p.device == nil {
		return
	}
	dev := p.device.HAL
	for k, rp := range p.pipelines {
		dev.DestroyRenderPipeline(rp)
		delete(p.pipelines, k)
	}
	if p.layout != nil {
		dev.DestroyPipelineLayout(p.layout)
		p.layout = nil
	}
	if p.materialLayout != nil {
		dev.DestroyBindGroupLayout(p.materialLayout)
		p.materialLayout = nil
	}
	if p.cameraLayout != nil {
		dev.DestroyBindGroupLayout(p.cameraLayout)
		p.cameraLayout = nil
	}
	if p.shader != nil {
		dev.DestroyShaderModule(p.shader)
		p.shader = nil
	}
}
