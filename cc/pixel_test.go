/*
NAME
  pixel_test.go

DESCRIPTION
  pixel_test.go contains tests for the cell encoder.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>
  Trek Hopton <trek@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package cc

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/ausocean/sanjuuni/frame"
	"github.com/ausocean/sanjuuni/workqueue"
)

// grayPal is a palette of evenly spaced grays, light to dark.
func grayPal() frame.Palette {
	p := make(frame.Palette, 16)
	for i := range p {
		v := uint8(255 - i*17)
		p[i] = frame.RGB{v, v, v}
	}
	return p
}

func TestSolidBlock(t *testing.T) {
	ch, col, err := ToPixel([6]uint8{3, 3, 3, 3, 3, 3}, grayPal())
	if err != nil {
		t.Fatalf("ToPixel: %v", err)
	}
	if ch != ' ' {
		t.Errorf("char = %#x, want space", ch)
	}
	if col != 0x30 {
		t.Errorf("color = %#x, want 0x30", col)
	}
}

func TestTwoColors(t *testing.T) {
	// fg=1 at positions 1, 3, 4; position 5 is bg so no swap occurs.
	ch, col, err := ToPixel([6]uint8{0, 1, 0, 1, 1, 0}, grayPal())
	if err != nil {
		t.Fatalf("ToPixel: %v", err)
	}
	if want := byte(0x80 | 0b11010); ch != want {
		t.Errorf("char = %#x, want %#x", ch, want)
	}
	if col != 0x01 {
		t.Errorf("color = %#x, want 0x01", col)
	}
}

func TestTwoColorsSwap(t *testing.T) {
	// fg=1 at positions 1, 3, 5: position 5 forces the complement and
	// the fg/bg swap.
	ch, col, err := ToPixel([6]uint8{0, 1, 0, 1, 0, 1}, grayPal())
	if err != nil {
		t.Fatalf("ToPixel: %v", err)
	}
	if want := byte(^byte(0b01010)&0x1F | 0x80); ch != want {
		t.Errorf("char = %#x, want %#x", ch, want)
	}
	if col != 0x10 {
		t.Errorf("color = %#x, want 0x10", col)
	}
}

func TestThreeColorsOutlier(t *testing.T) {
	// Colors 0 (white), 14 (near black), 15 (black): the middle color
	// 14 sits hard against the dark end, so it folds onto dark and the
	// cell renders white-on-black.
	pal := grayPal()
	ch, col, err := ToPixel([6]uint8{15, 0, 14, 0, 15, 15}, pal)
	if err != nil {
		t.Fatalf("ToPixel: %v", err)
	}
	if ch&0x80 == 0 {
		t.Errorf("char %#x missing high bit", ch)
	}
	// Block position 5 is color 15 (bg): no swap, fg must be the light
	// color 0 and bg the dark color 15.
	if col != 0x00|0xF0 {
		t.Errorf("color = %#x, want 0xF0", col)
	}
	// Positions 1 and 3 carry the fg.
	if want := byte(0x80 | 0b01010); ch != want {
		t.Errorf("char = %#x, want %#x", ch, want)
	}
}

func TestFourColorsTwoPairs(t *testing.T) {
	// 2 and 5 both occur twice; 2 is seen twice first so it becomes fg.
	ch, col, err := ToPixel([6]uint8{2, 5, 2, 5, 8, 9}, grayPal())
	if err != nil {
		t.Fatalf("ToPixel: %v", err)
	}
	if ch&0x80 == 0 {
		t.Errorf("char %#x missing high bit", ch)
	}
	fg, bg := col&0x0F, col>>4
	if !(fg == 2 && bg == 5 || fg == 5 && bg == 2) {
		t.Errorf("color = %#x, want fg/bg from {2,5}", col)
	}
}

func TestManyColorsInvariant(t *testing.T) {
	pal := grayPal()
	ch, col, err := ToPixel([6]uint8{0, 3, 6, 9, 12, 15}, pal)
	if err != nil {
		t.Fatalf("ToPixel: %v", err)
	}
	if ch&0x80 == 0 {
		t.Errorf("char %#x missing high bit", ch)
	}
	if ch&^byte(0x9F) != 0 {
		t.Errorf("char %#x has bits outside the glyph range", ch)
	}
	if col>>4 == col&0x0F {
		t.Errorf("foreground equals background in %#x", col)
	}
}

func TestTooManyColors(t *testing.T) {
	_, _, err := ToPixel([6]uint8{0, 1, 2, 16, 4, 5}, grayPal())
	if !errors.Is(err, ErrTooManyColors) {
		t.Errorf("error = %v, want ErrTooManyColors", err)
	}
}

// TestCharacterInvariant fuzzes blocks and checks that every emitted
// character other than the space of a solid block has the high bit
// set, and that one- and two-color blocks reconstruct exactly.
func TestCharacterInvariant(t *testing.T) {
	pal := grayPal()
	rnd := rand.New(rand.NewSource(42))
	for trial := 0; trial < 2000; trial++ {
		var block [6]uint8
		for i := range block {
			block[i] = uint8(rnd.Intn(16))
		}
		ch, col, err := ToPixel(block, pal)
		if err != nil {
			t.Fatalf("ToPixel(%v): %v", block, err)
		}
		if ch != ' ' && ch&0x80 == 0 {
			t.Fatalf("ToPixel(%v) char %#x missing high bit", block, ch)
		}

		// Count distinct colors.
		seen := map[uint8]bool{}
		for _, c := range block {
			seen[c] = true
		}
		if len(seen) > 2 {
			continue
		}
		// For one- and two-color blocks the cell reconstructs exactly.
		fg, bg := col&0x0F, col>>4
		for i, c := range block {
			var got uint8
			switch {
			case i == 5, ch == ' ':
				got = bg
			case ch&(1<<i) != 0:
				got = fg
			default:
				got = bg
			}
			if got != c {
				t.Fatalf("block %v: position %d reconstructs %d, want %d (char %#x color %#x)", block, i, got, c, ch, col)
			}
		}
	}
}

func TestMakeImage(t *testing.T) {
	q := workqueue.New(2)
	defer q.Close()

	// 4x6 pixels -> 2x2 cells, all color 7.
	in := frame.NewIndexed(4, 6)
	for i := range in.Pix {
		in.Pix[i] = 7
	}
	chars, cols, w, h, err := MakeImage(in, grayPal(), q)
	if err != nil {
		t.Fatalf("MakeImage: %v", err)
	}
	if w != 2 || h != 2 {
		t.Fatalf("size = %dx%d, want 2x2", w, h)
	}
	for i := range chars {
		if chars[i] != ' ' || cols[i] != 0x70 {
			t.Errorf("cell %d = (%#x, %#x), want (0x20, 0x70)", i, chars[i], cols[i])
		}
	}
}

func TestMakeImageRejectsOutOfRange(t *testing.T) {
	q := workqueue.New(2)
	defer q.Close()

	in := frame.NewIndexed(2, 3)
	in.Pix[0] = 16
	_, _, _, _, err := MakeImage(in, grayPal(), q)
	if !errors.Is(err, ErrTooManyColors) {
		t.Errorf("error = %v, want ErrTooManyColors", err)
	}
}
