/*
NAME
  vid32.go

DESCRIPTION
  32vid container structures: file header, chunk headers, subtitle
  events and the header flag fields.

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

// Package vid32 implements the 32vid binary video container and its
// three video codecs: uncompressed 5-bit packing, the custom canonical
// Huffman scheme with RLE color meta-symbols, and the table-based ANS
// coder.
//
// All multi-byte header fields are little endian. Palette triples are
// stored R,G,B.
package vid32

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// Magic begins every 32vid file.
const Magic = "32VD"

// Video compression modes (header flag bits 0-1).
const (
	CompressionNone    = 0x0000
	CompressionANS     = 0x0001
	CompressionDeflate = 0x0002
	CompressionCustom  = 0x0003
)

// Further header flags.
const (
	FlagAudioDFPWM   = 0x0004
	Flag5BitCodes    = 0x0010
	FlagMultiMonitor = 0x0020
)

// Chunk types.
const (
	ChunkVideo    = 0
	ChunkAudio    = 1
	ChunkSubtitle = 8
	ChunkCombined = 12

	ChunkMultiMonitorVideo = 64
)

// Errors surfaced by the container layer.
var (
	ErrBadMagic     = errors.New("vid32: bad magic")
	ErrUnknownChunk = errors.New("vid32: unknown chunk type")
)

// Header is the 12-byte file header. Width and height are in cells.
type Header struct {
	Width   uint16
	Height  uint16
	FPS     uint8
	Streams uint8
	Flags   uint16
}

// Compression extracts the video compression mode from the flags.
func (h Header) Compression() int { return int(h.Flags & 3) }

// WriteTo writes the header in wire form.
func (h Header) WriteTo(w io.Writer) (int64, error) {
	buf := make([]byte, 12)
	copy(buf, Magic)
	binary.LittleEndian.PutUint16(buf[4:], h.Width)
	binary.LittleEndian.PutUint16(buf[6:], h.Height)
	buf[8] = h.FPS
	buf[9] = h.Streams
	binary.LittleEndian.PutUint16(buf[10:], h.Flags)
	n, err := w.Write(buf)
	return int64(n), err
}

// ReadHeader parses a file header, failing on a bad magic.
func ReadHeader(r io.Reader) (Header, error) {
	buf := make([]byte, 12)
	if _, err := io.ReadFull(r, buf); err != nil {
		return Header{}, errors.Wrap(err, "vid32: short header")
	}
	if string(buf[:4]) != Magic {
		return Header{}, ErrBadMagic
	}
	return Header{
		Width:   binary.LittleEndian.Uint16(buf[4:]),
		Height:  binary.LittleEndian.Uint16(buf[6:]),
		FPS:     buf[8],
		Streams: buf[9],
		Flags:   binary.LittleEndian.Uint16(buf[10:]),
	}, nil
}

// Chunk is the 9-byte chunk header preceding each stream payload.
type Chunk struct {
	Size    uint32
	NFrames uint32
	Type    uint8
}

// WriteTo writes the chunk header in wire form.
func (c Chunk) WriteTo(w io.Writer) (int64, error) {
	buf := make([]byte, 9)
	binary.LittleEndian.PutUint32(buf, c.Size)
	binary.LittleEndian.PutUint32(buf[4:], c.NFrames)
	buf[8] = c.Type
	n, err := w.Write(buf)
	return int64(n), err
}

// ReadChunk parses a chunk header.
func ReadChunk(r io.Reader) (Chunk, error) {
	buf := make([]byte, 9)
	if _, err := io.ReadFull(r, buf); err != nil {
		return Chunk{}, err
	}
	return Chunk{
		Size:    binary.LittleEndian.Uint32(buf),
		NFrames: binary.LittleEndian.Uint32(buf[4:]),
		Type:    buf[8],
	}, nil
}

// SubtitleEvent is one packed subtitle record of a subtitle chunk.
type SubtitleEvent struct {
	Start  uint32
	Length uint32
	X      uint16
	Y      uint16
	Colors uint8
	Flags  uint8
	Text   string
}

// WriteTo writes the event in wire form: a 16-byte fixed header and
// the text bytes.
func (e SubtitleEvent) WriteTo(w io.Writer) (int64, error) {
	buf := make([]byte, 16, 16+len(e.Text))
	binary.LittleEndian.PutUint32(buf, e.Start)
	binary.LittleEndian.PutUint32(buf[4:], e.Length)
	binary.LittleEndian.PutUint16(buf[8:], e.X)
	binary.LittleEndian.PutUint16(buf[10:], e.Y)
	buf[12] = e.Colors
	buf[13] = e.Flags
	binary.LittleEndian.PutUint16(buf[14:], uint16(len(e.Text)))
	buf = append(buf, e.Text...)
	n, err := w.Write(buf)
	return int64(n), err
}

// WireSize returns the packed size of the event.
func (e SubtitleEvent) WireSize() int { return 16 + len(e.Text) }

// ReadSubtitleEvent parses one packed subtitle record.
func ReadSubtitleEvent(r io.Reader) (SubtitleEvent, error) {
	buf := make([]byte, 16)
	if _, err := io.ReadFull(r, buf); err != nil {
		return SubtitleEvent{}, err
	}
	e := SubtitleEvent{
		Start:  binary.LittleEndian.Uint32(buf),
		Length: binary.LittleEndian.Uint32(buf[4:]),
		X:      binary.LittleEndian.Uint16(buf[8:]),
		Y:      binary.LittleEndian.Uint16(buf[10:]),
		Colors: buf[12],
		Flags:  buf[13],
	}
	text := make([]byte, binary.LittleEndian.Uint16(buf[14:]))
	if _, err := io.ReadFull(r, text); err != nil {
		return SubtitleEvent{}, err
	}
	e.Text = string(text)
	return e, nil
}
