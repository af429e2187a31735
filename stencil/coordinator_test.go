// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package stencil

import (
	"slices"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/quadbatch/batch"
)

type fakeTarget struct {
	clears  int
	replays []gputypes.ColorWriteMask
}

func (f *fakeTarget) ClearStencil() { f.clears++ }

func (f *fakeTarget) Replay(w *Write) { f.replays = append(f.replays, w.ColorWriteMask) }

func newTestCoordinator(t *testing.T) (*Coordinator, *fakeTarget) {
	t.Helper()
	target := &fakeTarget{}
	return NewCoordinator(batch.NewElementPool(8), target), target
}

func owners(els []*batch.Element) []string {
	var out []string
	for _, el := range els {
		out = append(out, el.Owner.(string))
	}
	return out
}

func TestBuildMaskElementsLayerTransition(t *testing.T) {
	c, _ := newTestCoordinator(t)
	for _, m := range []*Mask{
		{Owner: "bit0", InfluenceLayers: 0b001},
		{Owner: "bit1", InfluenceLayers: 0b010},
		{Owner: "bit2", InfluenceLayers: 0b100},
		{Owner: "bits12", InfluenceLayers: 0b110},
	} {
		c.AddMask(m)
	}

	inc, dec := c.BuildMaskElements(0b011)
	if got, want := owners(inc), []string{"bit0", "bit1", "bits12"}; !slices.Equal(got, want) {
		t.Errorf("0 -> 0b011 increments = %v, want %v", got, want)
	}
	if len(dec) != 0 {
		t.Errorf("0 -> 0b011 decrements = %v, want none", owners(dec))
	}

	inc, dec = c.BuildMaskElements(0b110)
	if got, want := owners(inc), []string{"bit2"}; !slices.Equal(got, want) {
		t.Errorf("0b011 -> 0b110 increments = %v, want %v", got, want)
	}
	if got, want := owners(dec), []string{"bit0"}; !slices.Equal(got, want) {
		t.Errorf("0b011 -> 0b110 decrements = %v, want %v", got, want)
	}
	for _, el := range inc {
		if el.Kind != batch.KindMaskQuad || el.StencilOp != batch.StencilIncrement {
			t.Errorf("increment element Kind=%v Op=%v", el.Kind, el.StencilOp)
		}
	}
	for _, el := range dec {
		if el.StencilOp != batch.StencilDecrement {
			t.Errorf("decrement element Op=%v", el.StencilOp)
		}
	}
	if c.MaskLayer() != 0b110 {
		t.Errorf("MaskLayer() = %#b, want 0b110", c.MaskLayer())
	}
	if c.State() != StateWriting {
		t.Errorf("State() = %v, want %v", c.State(), StateWriting)
	}

	inc, dec = c.BuildMaskElements(0b110)
	if inc != nil || dec != nil {
		t.Error("unchanged layer produced writes")
	}
}

func TestInjectInsertsWritesBeforeLayerChanges(t *testing.T) {
	c, target := newTestCoordinator(t)
	c.AddMask(&Mask{Owner: "m1", InfluenceLayers: 0b01})
	c.AddMask(&Mask{Owner: "m2", InfluenceLayers: 0b10})

	q := &batch.Queue{}
	q.Push(&batch.Element{Owner: "plain"})
	q.Push(&batch.Element{Owner: "a", MaskInteraction: batch.MaskVisibleInside, MaskLayer: 0b01})
	q.Push(&batch.Element{Owner: "b", MaskInteraction: batch.MaskVisibleInside, MaskLayer: 0b01})
	q.Push(&batch.Element{Owner: "c", MaskInteraction: batch.MaskVisibleOutside, MaskLayer: 0b10})

	c.Inject(q)

	want := []string{"plain", "m1", "a", "b", "m2", "m1", "c", "m2"}
	if got := owners(q.Elements); !slices.Equal(got, want) {
		t.Fatalf("queue = %v, want %v", got, want)
	}
	ops := []batch.StencilOp{
		batch.StencilKeep, batch.StencilIncrement, batch.StencilKeep, batch.StencilKeep,
		batch.StencilIncrement, batch.StencilDecrement, batch.StencilKeep, batch.StencilDecrement,
	}
	for i, el := range q.Elements {
		if el.StencilOp != ops[i] {
			t.Errorf("element %d (%v) op = %v, want %v", i, el.Owner, el.StencilOp, ops[i])
		}
	}
	if c.MaskLayer() != 0 || c.State() != StateIdle {
		t.Errorf("after Inject layer=%#b state=%v, want 0, Idle", c.MaskLayer(), c.State())
	}
	if target.clears != 0 {
		t.Errorf("stencil cleared %d times, want 0", target.clears)
	}
	if n := len(c.Writes()); n != 4 {
		t.Errorf("write log holds %d writes, want 4", n)
	}
}

func TestResetDropsWriteLog(t *testing.T) {
	c, _ := newTestCoordinator(t)
	c.AddMask(&Mask{Owner: "m", InfluenceLayers: 0b1})
	c.BuildMaskElements(0b1)

	c.Reset()
	if len(c.Writes()) != 0 || c.MaskLayer() != 0 || c.State() != StateIdle {
		t.Errorf("after Reset writes=%d layer=%#b state=%v", len(c.Writes()), c.MaskLayer(), c.State())
	}

	c.SuspendStencil()
	defer func() {
		if recover() == nil {
			t.Error("Reset while suspended did not panic")
		}
	}()
	c.Reset()
}

func TestClearMaskWithoutWritesClearsStencil(t *testing.T) {
	c, target := newTestCoordinator(t)
	// No registered masks: the layer moves but nothing is written.
	if inc, dec := c.BuildMaskElements(0b1); inc != nil || dec != nil {
		t.Fatal("writes without masks")
	}
	if dec := c.ClearMask(); dec != nil {
		t.Errorf("ClearMask returned %d writes", len(dec))
	}
	if target.clears != 1 {
		t.Errorf("clears = %d, want 1", target.clears)
	}

	// Nothing set: nothing to clear.
	c.ClearMask()
	if target.clears != 1 {
		t.Errorf("clears = %d after idle ClearMask, want 1", target.clears)
	}
}

func TestSuspendResumeRestoresColorWriteMasks(t *testing.T) {
	c, target := newTestCoordinator(t)
	c.AddMask(&Mask{Owner: "hidden", InfluenceLayers: 0b01, ColorWriteMask: gputypes.ColorWriteMaskNone})
	c.AddMask(&Mask{Owner: "debug", InfluenceLayers: 0b10, ColorWriteMask: gputypes.ColorWriteMaskAll})
	c.BuildMaskElements(0b01)
	c.BuildMaskElements(0b11)

	before := make([]gputypes.ColorWriteMask, len(c.Writes()))
	for i, w := range c.Writes() {
		before[i] = w.ColorWriteMask
	}
	if len(before) != 2 {
		t.Fatalf("recorded %d writes, want 2", len(before))
	}

	c.SuspendStencil()
	if c.State() != StateSuspended || target.clears != 1 {
		t.Fatalf("after suspend state=%v clears=%d", c.State(), target.clears)
	}
	c.ResumeStencil()

	if c.State() != StateIdle {
		t.Errorf("State() = %v after resume, want Idle", c.State())
	}
	if len(target.replays) != len(before) {
		t.Fatalf("replayed %d writes, want %d", len(target.replays), len(before))
	}
	for i, m := range target.replays {
		if m != gputypes.ColorWriteMaskNone {
			t.Errorf("replay %d color mask = %v, want none", i, m)
		}
	}
	for i, w := range c.Writes() {
		if w.ColorWriteMask != before[i] {
			t.Errorf("write %d color mask = %v after resume, want %v", i, w.ColorWriteMask, before[i])
		}
	}

	// A second round trip leaves the masks unchanged as well.
	c.SuspendStencil()
	c.ResumeStencil()
	for i, w := range c.Writes() {
		if w.ColorWriteMask != before[i] {
			t.Errorf("write %d color mask = %v after second resume, want %v", i, w.ColorWriteMask, before[i])
		}
	}
}

func TestStencilOrderingViolationsPanic(t *testing.T) {
	tests := []struct {
		name string
		run  func(c *Coordinator)
	}{
		{"resume without suspend", func(c *Coordinator) { c.ResumeStencil() }},
		{"double suspend", func(c *Coordinator) {
			c.SuspendStencil()
			c.SuspendStencil()
		}},
		{"double resume", func(c *Coordinator) {
			c.SuspendStencil()
			c.ResumeStencil()
			c.ResumeStencil()
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestCoordinator(t)
			defer func() {
				if recover() == nil {
					t.Error("expected panic")
				}
			}()
			tt.run(c)
		})
	}
}

func TestMaskRegistry(t *testing.T) {
	c, _ := newTestCoordinator(t)
	a := &Mask{Owner: "a", InfluenceLayers: 1}
	b := &Mask{Owner: "b", InfluenceLayers: 1}
	d := &Mask{Owner: "d", InfluenceLayers: 1}
	c.AddMask(a)
	c.AddMask(a)
	c.AddMask(b)
	c.AddMask(d)
	if c.Masks() != 3 {
		t.Fatalf("Masks() = %d, want 3", c.Masks())
	}

	// Removing a moves d into its slot; removing d afterwards must still work.
	c.RemoveMask(a)
	c.RemoveMask(a)
	c.RemoveMask(d)
	if c.Masks() != 1 {
		t.Fatalf("Masks() = %d, want 1", c.Masks())
	}
	inc, _ := c.BuildMaskElements(1)
	if got := owners(inc); !slices.Equal(got, []string{"b"}) {
		t.Errorf("increments = %v, want [b]", got)
	}
}

func TestRemoveMaskWhileVisiting(t *testing.T) {
	c, _ := newTestCoordinator(t)
	masks := []*Mask{
		{Owner: "a", InfluenceLayers: 1},
		{Owner: "b", InfluenceLayers: 1},
		{Owner: "c", InfluenceLayers: 1},
	}
	for _, m := range masks {
		c.AddMask(m)
	}

	// Remove the first mask from inside the registry walk.
	c.masks.ForEach(func(m *Mask, _ int) {
		if m == masks[0] {
			c.RemoveMask(m)
		}
	}, c.patchSlot)

	if c.Masks() != 2 {
		t.Fatalf("Masks() = %d, want 2", c.Masks())
	}
	for _, m := range masks[1:] {
		if got := c.masks.Get(m.slot - 1); got != m {
			t.Errorf("slot of %v points at %v", m.Owner, got.Owner)
		}
	}
	c.RemoveMask(masks[2])
	c.RemoveMask(masks[1])
	if c.Masks() != 0 {
		t.Errorf("Masks() = %d, want 0", c.Masks())
	}
}
