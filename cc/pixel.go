/*
NAME
  pixel.go

DESCRIPTION
  Converts 2x3 blocks of palette indices into terminal glyphs: one
  character byte whose low five bits select foreground sub-pixels, and
  one color byte holding the background index in the high nibble and
  the foreground index in the low nibble.

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

// Package cc turns indexed frames into character/color cell arrays for
// a 16-color terminal with 2x3 sub-pixel glyphs.
package cc

import (
	"github.com/pkg/errors"

	"github.com/ausocean/sanjuuni/frame"
	"github.com/ausocean/sanjuuni/workqueue"
)

// ErrTooManyColors is returned when a block references a palette index
// outside the 16 usable slots.
var ErrTooManyColors = errors.New("too many colors")

// Block positions are laid out (0,0) (1,0) (0,1) (1,1) (0,2) (1,2).
// Position 5 (bottom right) has no bit in the character; every glyph
// is rewritten so that position 5 shows the background color.

// ToPixel converts a block of six palette indices into a character and
// color byte pair against the given palette.
func ToPixel(colors [6]uint8, pal frame.Palette) (char, col byte, err error) {
	for _, c := range colors {
		if c >= frame.MaxColors {
			return 0, 0, ErrTooManyColors
		}
	}

	var used [6]uint8
	n := 0
	for _, c := range colors {
		found := false
		for _, u := range used[:n] {
			if u == c {
				found = true
				break
			}
		}
		if !found {
			used[n] = c
			n++
		}
	}

	switch n {
	case 1:
		return ' ', used[0] << 4, nil
	case 2:
		ch, cl := encodeTwo(colors, used[0], used[1])
		return ch, cl, nil
	case 3:
		return encodeThree(colors, used[:3], pal)
	case 4:
		return encodeFour(colors, used[:4], pal)
	default:
		return encodeMany(colors, used[:n], pal)
	}
}

// encodeTwo handles the exact two-color case: fg is the second
// distinct color seen, bg the first.
func encodeTwo(colors [6]uint8, bg, fg uint8) (byte, byte) {
	ch := byte(0x80)
	for i := 0; i < 5; i++ {
		if colors[i] == fg {
			ch |= 1 << i
		}
	}
	if colors[5] == fg {
		ch = ^ch&0x1F | 0x80
		fg, bg = bg, fg
	}
	return ch, fg | bg<<4
}

func maskFromMap(colors [6]uint8, isFG func(uint8) bool) (ch byte, swapped bool) {
	ch = 0x80
	for i := 0; i < 5; i++ {
		if isFG(colors[i]) {
			ch |= 1 << i
		}
	}
	if isFG(colors[5]) {
		return ^ch&0x1F | 0x80, true
	}
	return ch, false
}

// encodeThree resolves a three-color block by sorting the distinct
// colors by brightness and folding the middle color onto whichever
// endpoint the pairwise distances favor.
func encodeThree(colors [6]uint8, used []uint8, pal frame.Palette) (byte, byte, error) {
	sortByBrightness(used, pal)
	dark, mid, light := used[0], used[1], used[2]

	d01 := frame.Distance(pal[mid], pal[dark])
	d12 := frame.Distance(pal[light], pal[mid])

	var mapTo [frame.MaxColors]uint8
	var fg, bg uint8
	switch {
	case d01-d12 > 10:
		// Middle is near the light end; fold it up.
		mapTo[dark] = dark
		mapTo[mid] = light
		mapTo[light] = light
		fg, bg = light, dark
	case d12-d01 > 10:
		// Middle is near the dark end; fold it down.
		mapTo[dark] = dark
		mapTo[mid] = dark
		mapTo[light] = light
		fg, bg = light, dark
	default:
		switch {
		case pal[dark].Sum() < 32:
			mapTo[dark] = mid
			mapTo[mid] = mid
			mapTo[light] = light
			fg, bg = mid, light
		case pal[light].Sum() >= 224:
			mapTo[dark] = mid
			mapTo[mid] = light
			mapTo[light] = light
			fg, bg = mid, light
		default:
			mapTo[dark] = mid
			mapTo[mid] = light
			mapTo[light] = light
			fg, bg = mid, light
		}
	}

	ch, swapped := maskFromMap(colors, func(c uint8) bool { return mapTo[c] == fg })
	if swapped {
		// Legacy behavior: the swap restores the middle color as the
		// background rather than the old foreground.
		fg, bg = bg, mid
	}
	return ch, fg | bg<<4, nil
}

// encodeFour picks the one or two colors that occur twice as fg/bg and
// maps the leftover colors to whichever of the pair is closer.
func encodeFour(colors [6]uint8, used []uint8, pal frame.Palette) (byte, byte, error) {
	var count [frame.MaxColors]uint8
	fg, bg := uint8(0xFF), uint8(0xFF)
	for _, c := range colors {
		count[c]++
		if count[c] == 2 {
			if fg == 0xFF {
				fg = c
			} else {
				bg = c
			}
		}
	}

	if bg == 0xFF {
		// One reused color: the background is the middle-brightness of
		// the remaining three.
		var rest []uint8
		for _, c := range used {
			if c != fg {
				rest = append(rest, c)
			}
		}
		sortByBrightness(rest, pal)
		bg = rest[1]
	}

	var mapTo [frame.MaxColors]uint8
	mapTo[fg] = fg
	mapTo[bg] = bg
	for _, c := range used {
		if c == fg || c == bg {
			continue
		}
		if frame.Distance(pal[c], pal[fg]) < frame.Distance(pal[c], pal[bg]) {
			mapTo[c] = fg
		} else {
			mapTo[c] = bg
		}
	}

	ch, swapped := maskFromMap(colors, func(c uint8) bool { return mapTo[c] == fg })
	if swapped {
		fg, bg = bg, fg
	}
	return ch, fg | bg<<4, nil
}

// encodeMany falls back to a two-color dither: pick the component with
// the widest range over the used colors, sort the six cells on it, and
// Floyd-Steinberg the block between sorted entries 2 and 5.
func encodeMany(colors [6]uint8, used []uint8, pal frame.Palette) (byte, byte, error) {
	var lo, hi [3]uint8
	lo = [3]uint8{255, 255, 255}
	for _, c := range used {
		for i := 0; i < 3; i++ {
			v := pal[c].Comp(i)
			if v < lo[i] {
				lo[i] = v
			}
			if v > hi[i] {
				hi[i] = v
			}
		}
	}
	var ranges [3]int
	for i := 0; i < 3; i++ {
		ranges[i] = int(hi[i]) - int(lo[i])
	}
	// Ties prefer R over G over B.
	comp := 2
	if ranges[1] >= ranges[2] {
		comp = 1
	}
	if ranges[0] >= ranges[comp] {
		comp = 0
	}

	// Insertion sort of the six cells on the chosen component.
	sorted := colors
	for i := 1; i < 6; i++ {
		v := sorted[i]
		key := pal[v].Comp(comp)
		j := i
		for ; j > 0 && pal[sorted[j-1]].Comp(comp) > key; j-- {
			sorted[j] = sorted[j-1]
		}
		sorted[j] = v
	}
	fg, bg := sorted[2], sorted[5]

	var in [6]frame.Vec3
	for i, c := range colors {
		in[i] = pal[c].Vec()
	}
	out := ditherBlock(in, pal[fg].Vec(), pal[bg].Vec(), fg, bg)

	ch, swapped := maskFromMap(out, func(c uint8) bool { return c == fg })
	if swapped {
		fg, bg = bg, sorted[2]
	}
	return ch, fg | bg<<4, nil
}

// ditherBlock runs unrolled Floyd-Steinberg over the six block cells
// with a two-color choice, returning the chosen index per cell.
func ditherBlock(img [6]frame.Vec3, a, b frame.Vec3, ac, bc uint8) [6]uint8 {
	var out [6]uint8
	step := func(i int, spread ...struct {
		j int
		w float64
	}) {
		var chosen frame.Vec3
		if frame.DistanceVec(img[i], a) < frame.DistanceVec(img[i], b) {
			chosen = a
			out[i] = ac
		} else {
			chosen = b
			out[i] = bc
		}
		err := img[i].Sub(chosen)
		img[i] = chosen
		for _, s := range spread {
			img[s.j] = img[s.j].Add(err.Scale(s.w))
		}
	}
	type sp = struct {
		j int
		w float64
	}
	step(0, sp{1, 7.0 / 16}, sp{2, 5.0 / 16}, sp{3, 1.0 / 16})
	step(1, sp{2, 3.0 / 16}, sp{3, 5.0 / 16})
	step(2, sp{3, 7.0 / 16}, sp{4, 5.0 / 16}, sp{5, 1.0 / 16})
	step(3, sp{4, 3.0 / 16}, sp{5, 5.0 / 16})
	step(4, sp{5, 7.0 / 16})
	step(5)
	return out
}

// sortByBrightness sorts palette indices ascending by component sum.
func sortByBrightness(idx []uint8, pal frame.Palette) {
	for i := 1; i < len(idx); i++ {
		v := idx[i]
		key := pal[v].Sum()
		j := i
		for ; j > 0 && pal[idx[j-1]].Sum() > key; j-- {
			idx[j] = idx[j-1]
		}
		idx[j] = v
	}
}

// MakeImage converts an indexed image into parallel character and
// color arrays, one entry per 2x3 cell. Trailing columns and rows that
// do not fill a cell are dropped. Cells are fanned out over the work
// queue.
func MakeImage(in *frame.Indexed, pal frame.Palette, q *workqueue.Queue) (chars, cols []byte, w, h int, err error) {
	width := in.Width - in.Width%2
	height := in.Height - in.Height%3
	w, h = width/2, height/3
	if w == 0 || h == 0 {
		return nil, nil, 0, 0, errors.New("image smaller than one cell")
	}

	// Gather each cell's six indices in block order.
	blocks := make([][6]uint8, w*h)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x += 2 {
			a, b := in.At(y, x), in.At(y, x+1)
			if a >= frame.MaxColors || b >= frame.MaxColors {
				return nil, nil, 0, 0, ErrTooManyColors
			}
			cell := (y/3)*w + x/2
			blocks[cell][(y%3)*2] = a
			blocks[cell][(y%3)*2+1] = b
		}
	}

	chars = make([]byte, w*h)
	cols = make([]byte, w*h)
	for i := range blocks {
		i := i
		q.Push(func() error {
			ch, cl, err := ToPixel(blocks[i], pal)
			if err != nil {
				return err
			}
			chars[i] = ch
			cols[i] = cl
			return nil
		})
	}
	if err := q.Wait(); err != nil {
		return nil, nil, 0, 0, err
	}
	return chars, cols, w, h, nil
}
