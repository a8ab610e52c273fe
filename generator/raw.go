/*
NAME
  raw.go

DESCRIPTION
  Raw-mode frame serialization: run-length encoded screen and color
  planes, base64 framed with a length prefix and CRC-32 trailer.

AUTHOR
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package generator

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"hash/crc32"

	"github.com/pkg/errors"

	"github.com/ausocean/sanjuuni/frame"
)

// RawPrologue is written once at the start of a raw-mode stream,
// followed by the frame rate and a newline.
const RawPrologue = "32Vid 1.1"

// rleAppend appends (value, run) pairs for the plane, with runs capped
// at 255.
func rleAppend(dst *bytes.Buffer, plane []byte) {
	if len(plane) == 0 {
		return
	}
	c := plane[0]
	n := byte(0)
	for _, v := range plane {
		if v != c || n == 255 {
			dst.WriteByte(c)
			dst.WriteByte(n)
			c = v
			n = 0
		}
		n++
	}
	if n > 0 {
		dst.WriteByte(c)
		dst.WriteByte(n)
	}
}

// MakeRawImage serializes one raw-mode frame: a 16-byte header, the
// RLE screen and color planes and 16 palette triples, base64 encoded
// and framed as !CPC<len4> or !CPD<len12> with a CRC-32 of the
// pre-encoding bytes and a trailing newline.
func MakeRawImage(screen, cols []byte, pal frame.Palette, width, height int) string {
	var raw bytes.Buffer
	raw.Write([]byte{0, 0, 0, 0})
	binary.Write(&raw, binary.LittleEndian, uint16(width))
	binary.Write(&raw, binary.LittleEndian, uint16(height))
	raw.Write(make([]byte, 8))

	rleAppend(&raw, screen)
	rleAppend(&raw, cols)

	for i := 0; i < frame.MaxColors; i++ {
		if i < len(pal) {
			raw.Write([]byte{pal[i].R, pal[i].G, pal[i].B})
		} else {
			raw.Write([]byte{0, 0, 0})
		}
	}

	sum := crc32.ChecksumIEEE(raw.Bytes())
	enc := base64.StdEncoding.EncodeToString(raw.Bytes())
	if len(enc) > 65535 {
		return fmt.Sprintf("!CPD%012X%s%08x\n", len(enc), enc, sum)
	}
	return fmt.Sprintf("!CPC%04X%s%08x\n", len(enc), enc, sum)
}

// DecodeRawImage reverses MakeRawImage for testing and tooling: it
// unframes, checks the CRC, and expands the RLE planes.
func DecodeRawImage(s string) (screen, cols []byte, pal frame.Palette, width, height int, err error) {
	if len(s) < 4 {
		return nil, nil, nil, 0, 0, errors.New("raw frame too short")
	}
	var body string
	switch s[:4] {
	case "!CPC":
		if len(s) < 8 {
			return nil, nil, nil, 0, 0, errors.New("raw frame too short")
		}
		var n int
		if _, err := fmt.Sscanf(s[4:8], "%04X", &n); err != nil {
			return nil, nil, nil, 0, 0, errors.Wrap(err, "bad length")
		}
		body = s[8 : 8+n]
	case "!CPD":
		if len(s) < 16 {
			return nil, nil, nil, 0, 0, errors.New("raw frame too short")
		}
		var n int
		if _, err := fmt.Sscanf(s[4:16], "%012X", &n); err != nil {
			return nil, nil, nil, 0, 0, errors.Wrap(err, "bad length")
		}
		body = s[16 : 16+n]
	default:
		return nil, nil, nil, 0, 0, errors.Errorf("bad raw frame marker %q", s[:4])
	}
	raw, err := base64.StdEncoding.DecodeString(body)
	if err != nil {
		return nil, nil, nil, 0, 0, errors.Wrap(err, "bad base64 body")
	}
	tail := s[len(s)-9 : len(s)-1]
	var sum uint32
	if _, err := fmt.Sscanf(tail, "%08x", &sum); err != nil {
		return nil, nil, nil, 0, 0, errors.Wrap(err, "bad checksum field")
	}
	if got := crc32.ChecksumIEEE(raw); got != sum {
		return nil, nil, nil, 0, 0, errors.Errorf("checksum mismatch: %08x != %08x", got, sum)
	}

	if len(raw) < 16 {
		return nil, nil, nil, 0, 0, errors.New("raw payload too short")
	}
	width = int(binary.LittleEndian.Uint16(raw[4:6]))
	height = int(binary.LittleEndian.Uint16(raw[6:8]))
	pos := 16
	expand := func() ([]byte, error) {
		out := make([]byte, 0, width*height)
		for len(out) < width*height {
			if pos+2 > len(raw) {
				return nil, errors.Errorf("truncated RLE plane at offset %d", pos)
			}
			v, n := raw[pos], int(raw[pos+1])
			pos += 2
			for i := 0; i < n; i++ {
				out = append(out, v)
			}
		}
		return out, nil
	}
	if screen, err = expand(); err != nil {
		return nil, nil, nil, 0, 0, err
	}
	if cols, err = expand(); err != nil {
		return nil, nil, nil, 0, 0, err
	}
	if pos+48 > len(raw) {
		return nil, nil, nil, 0, 0, errors.Errorf("truncated palette at offset %d", pos)
	}
	pal = make(frame.Palette, frame.MaxColors)
	for i := range pal {
		pal[i] = frame.RGB{raw[pos], raw[pos+1], raw[pos+2]}
		pos += 3
	}
	return screen, cols, pal, width, height, nil
}
