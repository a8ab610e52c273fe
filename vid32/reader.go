/*
NAME
  reader.go

DESCRIPTION
  32vid container demuxing and frame decoding for all three video
  codecs, including combined chunks as produced by streaming muxers.

AUTHOR
  Saxon A. Nelson-Milton <saxon@ausocean.org>

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
	"encoding/binary"
	"io"

	"github.com/klauspost/compress/flate"
	"github.com/pkg/errors"

	"github.com/ausocean/sanjuuni/frame"
)

// VideoFrame is one decoded frame of cells.
type VideoFrame struct {
	Chars, Cols []byte
	Palette     frame.Palette
}

// File is a fully demuxed 32vid file.
type File struct {
	Header    Header
	Frames    []VideoFrame
	Audio     []byte
	Subtitles []SubtitleEvent
}

// Decode demuxes and decodes a whole 32vid file.
func Decode(r io.Reader) (*File, error) {
	h, err := ReadHeader(r)
	if err != nil {
		return nil, err
	}
	f := &File{Header: h}
	for i := 0; i < int(h.Streams); i++ {
		c, err := ReadChunk(r)
		if err != nil {
			return nil, errors.Wrapf(err, "vid32: short chunk header %d", i)
		}
		payload := make([]byte, c.Size)
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, errors.Wrapf(err, "vid32: short chunk payload %d", i)
		}
		switch c.Type {
		case ChunkVideo:
			if err := f.decodeVideo(payload, int(c.NFrames)); err != nil {
				return nil, err
			}
		case ChunkAudio:
			f.Audio = append(f.Audio, payload...)
		case ChunkSubtitle:
			br := bytes.NewReader(payload)
			for j := 0; j < int(c.NFrames); j++ {
				ev, err := ReadSubtitleEvent(br)
				if err != nil {
					return nil, errors.Wrapf(err, "vid32: bad subtitle event %d", j)
				}
				f.Subtitles = append(f.Subtitles, ev)
			}
		case ChunkCombined:
			if err := f.decodeCombined(payload, int(c.NFrames)); err != nil {
				return nil, err
			}
		default:
			return nil, errors.Wrapf(ErrUnknownChunk, "type %d", c.Type)
		}
	}
	return f, nil
}

func (f *File) decodeVideo(payload []byte, nframes int) error {
	if f.Header.Compression() == CompressionDeflate {
		fr := flate.NewReader(bytes.NewReader(payload))
		raw, err := io.ReadAll(fr)
		if err != nil {
			return errors.Wrap(err, "vid32: bad deflate stream")
		}
		payload = raw
	}
	r := bytes.NewReader(payload)
	for i := 0; i < nframes; i++ {
		if err := f.decodeOneFrame(r); err != nil {
			return errors.Wrapf(err, "frame %d", i)
		}
	}
	return nil
}

// decodeCombined handles ChunkCombined payloads: a run of
// (size uint32, type uint8, data) sub-chunks, one video frame or one
// audio block each.
func (f *File) decodeCombined(payload []byte, nframes int) error {
	r := bytes.NewReader(payload)
	for r.Len() > 0 {
		var size uint32
		if err := binary.Read(r, binary.LittleEndian, &size); err != nil {
			return errors.Wrap(err, "vid32: short combined sub-chunk")
		}
		typ, err := r.ReadByte()
		if err != nil {
			return errors.Wrap(err, "vid32: short combined sub-chunk")
		}
		data := make([]byte, size)
		if _, err := io.ReadFull(r, data); err != nil {
			return errors.Wrap(err, "vid32: short combined sub-chunk payload")
		}
		switch typ {
		case ChunkVideo:
			if err := f.decodeOneFrame(bytes.NewReader(data)); err != nil {
				return err
			}
		case ChunkAudio:
			f.Audio = append(f.Audio, data...)
		default:
			return errors.Wrapf(ErrUnknownChunk, "combined sub-chunk type %d", typ)
		}
	}
	return nil
}

func (f *File) decodeOneFrame(r io.Reader) error {
	w, h := int(f.Header.Width), int(f.Header.Height)
	var chars, cols []byte
	var pal frame.Palette
	var err error
	switch f.Header.Compression() {
	case CompressionCustom:
		chars, cols, pal, err = DecodeCompressedFrame(r, w, h)
	case CompressionANS:
		chars, cols, pal, err = DecodeANSFrame(r, w, h)
	default:
		chars, cols, pal, err = DecodeFrame(r, w, h)
	}
	if err != nil {
		return err
	}
	f.Frames = append(f.Frames, VideoFrame{Chars: chars, Cols: cols, Palette: pal})
	return nil
}
