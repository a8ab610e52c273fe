/*
NAME
  render.go

DESCRIPTION
  Composites subtitle events onto character/color cell arrays, or
  packs them into 32vid subtitle events. Text is drawn in the nearest
  palette color on the darkest palette entry.

AUTHOR
  Scott Barnard <scott@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package subtitle

import (
	"github.com/ausocean/sanjuuni/frame"
	"github.com/ausocean/sanjuuni/quantize"
	"github.com/ausocean/sanjuuni/vid32"
)

// placement computes the pixel-space anchor of one rendered line.
// width and height are in pixels (cells scaled by 2x3); i and total
// describe the line's position in its event.
func placement(e Event, line string, i, total, width, height int) (x, y int) {
	scaleX := float64(e.Width) / float64(width)
	scaleY := float64(e.Height) / float64(height)
	if e.Width == 0 || e.Height == 0 {
		scaleX, scaleY = 1, 1
	}
	bottomY := height - int(float64(e.MarginVertical)/scaleY) - (total-i-1)*3 - 1
	topY := int(float64(e.MarginVertical)/scaleY) + i*3
	midY := (height-total)/2 + i*3
	left := int(float64(e.MarginLeft) / scaleX)
	center := width/2 - len(line)
	right := width - int(float64(e.MarginRight)/scaleX) - len(line) - 1
	switch e.Alignment {
	case 1:
		return left, bottomY
	case 2:
		return center, bottomY
	case 3:
		return right, bottomY
	case 4:
		return left, midY
	case 5:
		return center, midY
	case 6:
		return right, midY
	case 7:
		return left, topY
	case 8:
		return center, topY
	case 9:
		return right, topY
	}
	return center, bottomY
}

// Render draws every event covering frame nframe onto the cell
// arrays. width and height are in pixels; the cell grid is width/2 by
// height/3.
func Render(events Events, nframe int, chars, cols []byte, pal frame.Palette, width, height int) {
	cellW := width / 2
	cellH := height / 3
	for _, e := range events[nframe] {
		_, color := quantize.Nearest(pal, e.Color.Vec())
		lines := e.Lines()
		for i, line := range lines {
			x, y := placement(e, line, i, len(lines), width, height)
			cy := y / 3
			if cy < 0 || cy >= cellH {
				continue
			}
			start := cy*cellW + x/2
			for j := 0; j < len(line); j++ {
				pos := start + j
				if pos < cy*cellW || pos >= (cy+1)*cellW {
					continue
				}
				chars[pos] = line[j]
				cols[pos] = 0xF0 | uint8(color)
			}
		}
	}
}

// Collect packs the events that start at frame nframe into 32vid
// subtitle records, using the same placement math as Render.
func Collect(events Events, nframe int, pal frame.Palette, width, height int) []vid32.SubtitleEvent {
	var out []vid32.SubtitleEvent
	for _, e := range events[nframe] {
		if e.StartFrame != nframe {
			continue
		}
		_, color := quantize.Nearest(pal, e.Color.Vec())
		lines := e.Lines()
		for i, line := range lines {
			x, y := placement(e, line, i, len(lines), width, height)
			out = append(out, vid32.SubtitleEvent{
				Start:  uint32(nframe),
				Length: uint32(e.Length),
				X:      uint16(x / 2),
				Y:      uint16(y / 3),
				Colors: 0xF0 | uint8(color),
				Text:   line,
			})
		}
	}
	return out
}
