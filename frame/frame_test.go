/*
NAME
  frame_test.go

DESCRIPTION
  frame_test.go contains tests for the frame package primitives.

AUTHOR
  Trek Hopton <trek@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package frame

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestToLabKnownColors(t *testing.T) {
	tests := []struct {
		name string
		in   RGB
		want RGB
	}{
		// L of white is 100, a and b sit at the +128 offset.
		{"white", RGB{255, 255, 255}, RGB{100, 128, 128}},
		{"black", RGB{0, 0, 0}, RGB{0, 128, 128}},
	}
	for _, tt := range tests {
		got := ToLab(tt.in)
		if got != tt.want {
			t.Errorf("%s: ToLab(%v) = %v, want %v", tt.name, tt.in, got, tt.want)
		}
	}
}

func TestLabRoundTrip(t *testing.T) {
	// Lab bytes are heavily quantized, so allow a small per-channel
	// tolerance on the way back.
	colors := Palette{
		{255, 0, 0}, {0, 255, 0}, {0, 0, 255},
		{128, 64, 200}, {17, 17, 17}, {240, 240, 240},
	}
	lab := make(Palette, len(colors))
	for i, c := range colors {
		lab[i] = ToLab(c)
	}
	back := FromLabPalette(lab)
	for i := range colors {
		if d := Distance(colors[i], back[i]); d > 6 {
			t.Errorf("round trip of %v drifted to %v (distance %.2f)", colors[i], back[i], d)
		}
	}
}

func TestDistance(t *testing.T) {
	if d := Distance(RGB{0, 0, 0}, RGB{3, 4, 0}); math.Abs(d-5) > 1e-9 {
		t.Errorf("Distance = %v, want 5", d)
	}
	if d := Distance(RGB{9, 9, 9}, RGB{9, 9, 9}); d != 0 {
		t.Errorf("Distance of equal colors = %v, want 0", d)
	}
}

func TestPaletteReorder(t *testing.T) {
	p := Palette{{10, 10, 10}, {250, 250, 250}, {0, 0, 0}, {100, 100, 100}}
	got := p.Reorder()
	want := Palette{{250, 250, 250}, {10, 10, 10}, {100, 100, 100}, {0, 0, 0}}
	if !cmp.Equal(got, want) {
		t.Errorf("Reorder mismatch: %v", cmp.Diff(want, got))
	}
	for i := 1; i < len(got); i++ {
		if got[0].Sum() < got[i].Sum() {
			t.Errorf("entry 0 is not the lightest")
		}
		if got[len(got)-1].Sum() > got[i-1].Sum() {
			t.Errorf("last entry is not the darkest")
		}
	}
}

func TestPaletteReorderCollapsed(t *testing.T) {
	p := Palette{{7, 7, 7}, {7, 7, 7}, {7, 7, 7}}
	got := p.Reorder()
	if len(got) != len(p) {
		t.Errorf("collapsed palette length = %d, want %d", len(got), len(p))
	}
	for _, c := range got {
		if c != (RGB{7, 7, 7}) {
			t.Errorf("unexpected color %v", c)
		}
	}
}

func TestImageRows(t *testing.T) {
	m := NewImage(3, 2)
	m.Set(1, 2, RGB{1, 2, 3})
	if got := m.Row(1)[2]; got != (RGB{1, 2, 3}) {
		t.Errorf("Row view mismatch: %v", got)
	}
	if got := m.At(1, 2); got != (RGB{1, 2, 3}) {
		t.Errorf("At mismatch: %v", got)
	}
}

func TestImageOutOfRange(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic on out of range access")
		}
	}()
	m := NewImage(2, 2)
	m.At(2, 0)
}
