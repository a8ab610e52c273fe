/*
NAME
  writer.go

DESCRIPTION
  32vid container muxing. Frames and audio accumulate in memory and
  are written as one chunk per stream when the encoder is closed, as
  the chunk headers carry total sizes.

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

package vid32

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/flate"
	"github.com/pkg/errors"

	"github.com/ausocean/sanjuuni/frame"
)

// Encoder accumulates encoded frames, audio and subtitles and writes
// a complete 32vid file on Close.
type Encoder struct {
	dst io.Writer

	width, height int
	fps           int
	compression   int
	level         int
	dfpwm         bool

	video   bytes.Buffer
	nframes int
	audio   bytes.Buffer
	subs    []SubtitleEvent
}

// EncoderOption configures an Encoder.
type EncoderOption func(*Encoder) error

// WithCompression selects the video compression mode written to the
// header: CompressionNone, CompressionANS, CompressionDeflate or
// CompressionCustom.
func WithCompression(mode int) EncoderOption {
	return func(e *Encoder) error {
		switch mode {
		case CompressionNone, CompressionANS, CompressionDeflate, CompressionCustom:
			e.compression = mode
			return nil
		}
		return errors.Errorf("vid32: unknown compression mode %d", mode)
	}
}

// WithCompressionLevel sets the deflate level for CompressionDeflate.
func WithCompressionLevel(level int) EncoderOption {
	return func(e *Encoder) error {
		if level < 1 || level > 9 {
			return errors.Errorf("vid32: compression level %d out of range", level)
		}
		e.level = level
		return nil
	}
}

// WithDFPWM marks the audio stream as DFPWM compressed.
func WithDFPWM() EncoderOption {
	return func(e *Encoder) error {
		e.dfpwm = true
		return nil
	}
}

// NewEncoder returns an Encoder for a video of the given cell
// dimensions and frame rate.
func NewEncoder(dst io.Writer, width, height, fps int, options ...EncoderOption) (*Encoder, error) {
	e := &Encoder{
		dst:         dst,
		width:       width,
		height:      height,
		fps:         fps,
		compression: CompressionCustom,
		level:       5,
	}
	for _, opt := range options {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// WriteFrame encodes one frame of cells into the video stream using
// the configured compression.
func (e *Encoder) WriteFrame(chars, cols []byte, pal frame.Palette) error {
	var payload []byte
	var err error
	switch e.compression {
	case CompressionCustom:
		payload, err = MakeCompressedFrame(chars, cols, pal, e.width, e.height)
	case CompressionANS:
		payload, err = MakeANSFrame(chars, cols, pal, e.width, e.height)
	default:
		// Deflate compresses the concatenated uncompressed frames at
		// container level.
		payload = MakeFrame(chars, cols, pal, e.width, e.height)
	}
	if err != nil {
		return err
	}
	e.video.Write(payload)
	e.nframes++
	return nil
}

// WriteAudio appends raw (or DFPWM) audio bytes to the audio stream.
func (e *Encoder) WriteAudio(p []byte) {
	e.audio.Write(p)
}

// AddSubtitle appends one subtitle event to the subtitle stream.
func (e *Encoder) AddSubtitle(ev SubtitleEvent) {
	e.subs = append(e.subs, ev)
}

// Close writes the header and all stream chunks. The Encoder cannot
// be reused afterwards.
func (e *Encoder) Close() error {
	streams := 1
	if e.audio.Len() > 0 {
		streams++
	}
	if len(e.subs) > 0 {
		streams++
	}
	flags := uint16(e.compression) | Flag5BitCodes
	if e.dfpwm {
		flags |= FlagAudioDFPWM
	}
	h := Header{
		Width:   uint16(e.width),
		Height:  uint16(e.height),
		FPS:     uint8(e.fps),
		Streams: uint8(streams),
		Flags:   flags,
	}
	if _, err := h.WriteTo(e.dst); err != nil {
		return err
	}

	video := e.video.Bytes()
	if e.compression == CompressionDeflate {
		var cmp bytes.Buffer
		fw, err := flate.NewWriter(&cmp, e.level)
		if err != nil {
			return err
		}
		if _, err := fw.Write(video); err != nil {
			return err
		}
		if err := fw.Close(); err != nil {
			return err
		}
		video = cmp.Bytes()
	}
	if _, err := (Chunk{Size: uint32(len(video)), NFrames: uint32(e.nframes), Type: ChunkVideo}).WriteTo(e.dst); err != nil {
		return err
	}
	if _, err := e.dst.Write(video); err != nil {
		return err
	}

	if e.audio.Len() > 0 {
		n := e.audio.Len()
		if e.dfpwm {
			// The frame count is in samples; DFPWM packs eight per byte.
			n *= 8
		}
		if _, err := (Chunk{Size: uint32(e.audio.Len()), NFrames: uint32(n), Type: ChunkAudio}).WriteTo(e.dst); err != nil {
			return err
		}
		if _, err := e.dst.Write(e.audio.Bytes()); err != nil {
			return err
		}
	}

	if len(e.subs) > 0 {
		size := 0
		for _, s := range e.subs {
			size += s.WireSize()
		}
		if _, err := (Chunk{Size: uint32(size), NFrames: uint32(len(e.subs)), Type: ChunkSubtitle}).WriteTo(e.dst); err != nil {
			return err
		}
		for _, s := range e.subs {
			if _, err := s.WriteTo(e.dst); err != nil {
				return err
			}
		}
	}
	return nil
}
