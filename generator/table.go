/*
NAME
  table.go

DESCRIPTION
  Emits blit tables, BIMG frames and Lua display scripts from
  character/color cell arrays.

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

// Package generator serializes character/color cell arrays into the
// single-frame display formats: Lua scripts, blit tables, BIMG, NFP
// and the run-length raw mode.
package generator

import (
	"fmt"
	"strings"

	"github.com/ausocean/sanjuuni/frame"
)

const hexstr = "0123456789abcdef"

// TableOptions control the flavor of table emitted by MakeTable.
type TableOptions struct {
	// Compact emits the table without whitespace, for embedding in
	// HTTP/WebSocket frame payloads.
	Compact bool
	// EmbedPalette writes the palette as a `palette` key of the image
	// table (BIMG) instead of a second return value.
	EmbedPalette bool
	// Binary passes all character bytes through unescaped except the
	// quote and backslash.
	Binary bool
}

// MakeTable builds a Lua table of blit rows, `{ text, fg, bg }` per
// cell row, followed by the palette as normalized {r,g,b} triples.
func MakeTable(chars, cols []byte, pal frame.Palette, width, height int, opt TableOptions) string {
	var b strings.Builder
	if opt.Compact {
		b.WriteString("{")
	} else {
		b.WriteString("{\n")
	}
	for y := 0; y < height; y++ {
		var text, fg, bg strings.Builder
		for x := 0; x < width; x++ {
			c := chars[y*width+x]
			cc := cols[y*width+x]
			if (opt.Binary || (c >= 32 && c < 127)) && c != '"' && c != '\\' {
				text.WriteByte(c)
			} else {
				fmt.Fprintf(&text, "\\%d", c)
			}
			fg.WriteByte(hexstr[cc&0x0F])
			bg.WriteByte(hexstr[cc>>4])
		}
		// The text is already Lua-escaped; quote it verbatim.
		if opt.Compact {
			fmt.Fprintf(&b, "{\"%s\",\"%s\",\"%s\"},", text.String(), fg.String(), bg.String())
		} else {
			fmt.Fprintf(&b, "    {\n        \"%s\",\n        \"%s\",\n        \"%s\"\n    },\n", text.String(), fg.String(), bg.String())
		}
	}
	switch {
	case opt.EmbedPalette && opt.Compact:
		b.WriteString("palette={")
	case opt.EmbedPalette:
		b.WriteString("    palette = {\n")
	case opt.Compact:
		b.WriteString("},{")
	default:
		b.WriteString("}, {\n")
	}
	for i, c := range pal {
		r := float64(c.R) / 255
		g := float64(c.G) / 255
		bb := float64(c.B) / 255
		if opt.Compact {
			if i == 0 {
				b.WriteString("[0]=")
			}
			fmt.Fprintf(&b, "{%f,%f,%f},", r, g, bb)
		} else if i == 0 {
			fmt.Fprintf(&b, "    [0] = {%f, %f, %f},\n", r, g, bb)
		} else {
			fmt.Fprintf(&b, "    {%f, %f, %f},\n", r, g, bb)
		}
	}
	switch {
	case opt.EmbedPalette && opt.Compact:
		b.WriteString("}}")
	case opt.EmbedPalette:
		b.WriteString("    }\n}")
	default:
		b.WriteString("}")
	}
	return b.String()
}

// luaPlayerSuffix displays the embedded table on a terminal and
// restores the native palette on key press.
const luaPlayerSuffix = "\n\nterm.clear()\n" +
	"for i = 0, #palette do term.setPaletteColor(2^i, table.unpack(palette[i])) end\n" +
	"for y, r in ipairs(image) do\n" +
	"    term.setCursorPos(1, y)\n" +
	"    term.blit(table.unpack(r))\n" +
	"end\n" +
	"read()\n" +
	"for i = 0, 15 do term.setPaletteColor(2^i, term.nativePaletteColor(2^i)) end\n" +
	"term.setBackgroundColor(colors.black)\n" +
	"term.setTextColor(colors.white)\n" +
	"term.setCursorPos(1, 1)\n" +
	"term.clear()\n"

// MakeLuaFile wraps the frame in a self-contained display script.
func MakeLuaFile(chars, cols []byte, pal frame.Palette, width, height int) string {
	return "local image, palette = " + MakeTable(chars, cols, pal, width, height, TableOptions{}) + luaPlayerSuffix
}

// MakeNFP renders the cell array as a paint-format image: three text
// rows per cell row, one hex color digit per sub-pixel, with the
// bottom-right sub-pixel always the background.
func MakeNFP(chars, cols []byte, pal frame.Palette, width, height int) string {
	var b strings.Builder
	for y := 0; y < height; y++ {
		var lines [3]strings.Builder
		for x := 0; x < width; x++ {
			offset := y*width + x
			fg := hexstr[cols[offset]&0x0F]
			bg := hexstr[cols[offset]>>4]
			ch := chars[offset]
			pick := func(bit byte) byte {
				if ch&bit != 0 {
					return fg
				}
				return bg
			}
			lines[0].WriteByte(pick(1))
			lines[0].WriteByte(pick(2))
			lines[1].WriteByte(pick(4))
			lines[1].WriteByte(pick(8))
			lines[2].WriteByte(pick(16))
			lines[2].WriteByte(bg)
		}
		b.WriteString(lines[0].String())
		b.WriteByte('\n')
		b.WriteString(lines[1].String())
		b.WriteByte('\n')
		b.WriteString(lines[2].String())
		b.WriteByte('\n')
	}
	return b.String()
}

// BIMGMeta is the trailing metadata of a blit-image animation file.
type BIMGMeta struct {
	Creator         string
	Version         string
	SecondsPerFrame float64
	Animation       bool
	Date            string
	Title           string
}

// Footer renders the closing metadata fields of a BIMG file.
func (m BIMGMeta) Footer() string {
	return fmt.Sprintf("creator = '%s',\nversion = '%s',\nsecondsPerFrame = %g,\nanimation = %v,\ndate = '%s',\ntitle = '%s'\n}\n",
		m.Creator, m.Version, m.SecondsPerFrame, m.Animation, m.Date, m.Title)
}
