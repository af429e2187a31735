// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Command quaddemo batches a synthetic sprite and text scene on the noop
// GPU backend and prints the batching statistics.
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"

	"github.com/gogpu/quadbatch"
	"github.com/gogpu/quadbatch/assemble"
	"github.com/gogpu/quadbatch/batch"
	"github.com/gogpu/quadbatch/render"
	"github.com/gogpu/quadbatch/stencil"
	"github.com/gogpu/quadbatch/text"
)

func main() {
	var (
		sprites  = flag.Int("sprites", 1000, "number of sprites")
		textures = flag.Int("textures", 4, "number of distinct sprite textures")
		masked   = flag.Int("masked", 100, "number of sprites drawn inside a mask")
		frames   = flag.Int("frames", 3, "number of frames")
		label    = flag.String("text", "quadbatch draws text too", "text to lay out")
		verbose  = flag.Bool("v", false, "enable debug logging")
	)
	flag.Parse()

	if *verbose {
		quadbatch.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}
	if *textures < 1 {
		log.Fatal("textures must be at least 1")
	}

	device, queue, cleanup, err := openNoopDevice()
	if err != nil {
		log.Fatalf("open device: %v", err)
	}
	defer cleanup()

	dev, err := render.NewDevice(device, queue, gputypes.TextureFormatBGRA8Unorm)
	if err != nil {
		log.Fatalf("device: %v", err)
	}
	binder := &materials{device: device, groups: make(map[batch.TextureID]hal.BindGroup)}
	r, err := quadbatch.NewRenderer(dev, binder)
	if err != nil {
		log.Fatalf("renderer: %v", err)
	}
	defer r.Destroy()
	binder.layout = r.Pipelines.MaterialLayout()
	defer binder.destroy()

	scene, err := buildScene(r, *sprites, *textures, *masked, *label)
	if err != nil {
		log.Fatalf("scene: %v", err)
	}
	defer scene.release()

	for i := range *frames {
		if err := drawFrame(r, scene, *textures); err != nil {
			log.Fatalf("frame %d: %v", i, err)
		}
		fmt.Printf("frame %d: %v, %d draws, %d pipeline swaps\n",
			i, r.Frame.Engine().Stats(), r.Recorder.Stats().Draws, r.Recorder.Stats().PipelineSwaps)
	}
	fmt.Printf("sprite chunks: %v\n", r.Frame.Sprites().Stats())
	fmt.Printf("ui chunks:     %v\n", r.Frame.UI().Stats())
}

type scene struct {
	sprites []*assemble.Renderer
	masked  int
	mask    *stencil.Mask
	text    *text.Packer
}

func buildScene(r *quadbatch.Renderer, count, textures, masked int, label string) (*scene, error) {
	s := &scene{masked: min(masked, count)}
	for i := range count {
		mode := assemble.Simple
		sp := assemble.Sprite{Width: 16, Height: 16}
		if i%10 == 9 {
			mode = assemble.Sliced
			sp.Width, sp.Height = 48, 24
			sp.Border = assemble.Border{Left: 0.25, Bottom: 0.25, Right: 0.25, Top: 0.25}
		}
		ar := assemble.NewRenderer(r.Frame.Sprites(), mode, sp)
		ar.SetWorld(assemble.Translate(float32(i%40)*20, float32(i/40)*20, 0))
		s.sprites = append(s.sprites, ar)
	}

	if s.masked > 0 {
		sub := r.Frame.Sprites().AllocateSubChunk(4)
		sub.Indices = []uint32{0, 1, 2, 2, 1, 3}
		s.mask = &stencil.Mask{InfluenceLayers: 1, SubChunk: sub, Texture: batch.TextureID(textures), AlphaCutoff: 1}
		r.Frame.Masks().AddMask(s.mask)
	}

	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, err
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: 14, DPI: 72, Hinting: font.HintingNone})
	if err != nil {
		return nil, err
	}
	defer face.Close()
	glyphs := text.Layout(face, atlas{}, label, text.Options{})
	s.text = text.NewPacker(r.Frame.UI())
	s.text.Pack(glyphs, assemble.Translate(0, -20, 0), assemble.White)
	return s, nil
}

func (s *scene) release() {
	for _, ar := range s.sprites {
		ar.Release()
	}
	s.text.Release()
}

func drawFrame(r *quadbatch.Renderer, s *scene, textures int) error {
	if err := r.Frame.Begin(); err != nil {
		return err
	}
	for i, ar := range s.sprites {
		tex := batch.TextureID(i * textures / len(s.sprites))
		el := r.Frame.SubmitRenderer(batch.KindSprite, ar, tex, 1)
		if i >= len(s.sprites)-s.masked {
			el.MaskInteraction = batch.MaskVisibleInside
			el.MaskLayer = 1
		}
	}
	r.Frame.SubmitText(s.text.Chunks(), 2)
	r.Frame.Queue().SortTransparent()

	if err := r.Draw(discardRecorder{}); err != nil {
		return err
	}
	return r.Frame.End()
}

// atlas places every printable glyph on texture 100.
type atlas struct{}

func (atlas) Glyph(ch rune) (text.AtlasGlyph, bool) {
	if ch == ' ' {
		return text.AtlasGlyph{}, false
	}
	return text.AtlasGlyph{Texture: 100, UV: assemble.FullRect}, true
}

// materials creates one empty bind group per texture on the noop device.
type materials struct {
	device hal.Device
	layout hal.BindGroupLayout
	groups map[batch.TextureID]hal.BindGroup
}

func (m *materials) MaterialBindGroup(tex batch.TextureID, _ batch.BindingID) (hal.BindGroup, error) {
	if g, ok := m.groups[tex]; ok {
		return g, nil
	}
	g, err := m.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  fmt.Sprintf("material_%d", tex),
		Layout: m.layout,
	})
	if err != nil {
		return nil, err
	}
	m.groups[tex] = g
	return g, nil
}

func (m *materials) destroy() {
	for tex, g := range m.groups {
		m.device.DestroyBindGroup(g)
		delete(m.groups, tex)
	}
}

// discardRecorder drops every command.
type discardRecorder struct{}

func (discardRecorder) SetPipeline(hal.RenderPipeline)                         {}
func (discardRecorder) SetBindGroup(uint32, hal.BindGroup, []uint32)           {}
func (discardRecorder) SetVertexBuffer(uint32, hal.Buffer, uint64)             {}
func (discardRecorder) SetIndexBuffer(hal.Buffer, gputypes.IndexFormat, uint64) {}
func (discardRecorder) SetStencilReference(uint32)                             {}
func (discardRecorder) DrawIndexed(uint32, uint32, uint32, int32, uint32)      {}
func (discardRecorder) ClearStencil()                                          {}

func openNoopDevice() (hal.Device, hal.Queue, func(), error) {
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		return nil, nil, nil, err
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, nil, nil, fmt.Errorf("no adapters")
	}
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, nil, nil, err
	}
	cleanup := func() {
		openDev.Device.Destroy()
		instance.Destroy()
	}
	return openDev.Device, openDev.Queue, cleanup, nil
}
