/*
NAME
  frame.go

DESCRIPTION
  Uncompressed 32vid frame packing: five-bit character codes packed
  eight to a 40-bit group, the color plane verbatim, then the palette.

AUTHOR
  Trek Hopton <trek@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package vid32

import (
	"bytes"
	"io"

	"github.com/pkg/errors"

	"github.com/ausocean/sanjuuni/frame"
)

// appendPalette writes 16 R,G,B triples, zero filling short palettes.
func appendPalette(buf *bytes.Buffer, pal frame.Palette) {
	for i := 0; i < frame.MaxColors; i++ {
		if i < len(pal) {
			buf.Write([]byte{pal[i].R, pal[i].G, pal[i].B})
		} else {
			buf.Write([]byte{0, 0, 0})
		}
	}
}

// MakeFrame serializes one uncompressed video frame.
func MakeFrame(chars, cols []byte, pal frame.Palette, width, height int) []byte {
	var buf bytes.Buffer

	var group uint64
	n := 0
	for _, c := range chars {
		group = group<<5 | uint64(c&0x1F)
		n++
		if n == 8 {
			buf.Write([]byte{
				byte(group >> 32), byte(group >> 24), byte(group >> 16),
				byte(group >> 8), byte(group),
			})
			group, n = 0, 0
		}
	}
	if n > 0 {
		group <<= uint(8-n) * 5
		buf.Write([]byte{
			byte(group >> 32), byte(group >> 24), byte(group >> 16),
			byte(group >> 8), byte(group),
		})
	}

	buf.Write(cols)
	appendPalette(&buf, pal)
	return buf.Bytes()
}

// DecodeFrame reverses MakeFrame. Characters come back with the high
// bit set.
func DecodeFrame(r io.Reader, width, height int) (chars, cols []byte, pal frame.Palette, err error) {
	cells := width * height
	groups := (cells + 7) / 8
	packed := make([]byte, groups*5)
	if _, err := io.ReadFull(r, packed); err != nil {
		return nil, nil, nil, errors.Wrap(err, "vid32: short screen plane")
	}
	chars = make([]byte, cells)
	for i := 0; i < cells; i++ {
		g := i / 8
		group := uint64(packed[g*5])<<32 | uint64(packed[g*5+1])<<24 |
			uint64(packed[g*5+2])<<16 | uint64(packed[g*5+3])<<8 | uint64(packed[g*5+4])
		chars[i] = byte(group>>(uint(7-i%8)*5))&0x1F | 0x80
	}

	cols = make([]byte, cells)
	if _, err := io.ReadFull(r, cols); err != nil {
		return nil, nil, nil, errors.Wrap(err, "vid32: short color plane")
	}
	pal, err = readPalette(r)
	if err != nil {
		return nil, nil, nil, err
	}
	return chars, cols, pal, nil
}

func readPalette(r io.Reader) (frame.Palette, error) {
	buf := make([]byte, 48)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, errors.Wrap(err, "vid32: short palette")
	}
	pal := make(frame.Palette, frame.MaxColors)
	for i := range pal {
		pal[i] = frame.RGB{buf[i*3], buf[i*3+1], buf[i*3+2]}
	}
	return pal, nil
}
