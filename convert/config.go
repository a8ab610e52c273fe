/*
NAME
  config.go

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

package convert

import (
	"errors"
	"fmt"

	"github.com/ausocean/utils/logging"

	"github.com/ausocean/sanjuuni/vid32"
)

// Output modes.
const (
	ModeDefault = iota
	ModeLua
	ModeNFP
	ModeRaw
	ModeBlitImage
	Mode32Vid
	ModeHTTP
	ModeWebSocket
	ModeWebSocketClient
)

// Palette reducers.
const (
	ReducerMedianCut = iota
	ReducerOctree
	ReducerKMeans
)

// Quantizer selection.
const (
	DitherFloydSteinberg = iota
	DitherThreshold
	DitherOrdered
)

// Defaults applied by Validate.
const (
	defaultCompressionLevel = 5
	defaultFPS              = 10
)

// Config parameterizes a Converter. A zero Config with Input set and
// a Logger is valid and writes to stdout: a Lua script for a still
// image, a raw stream for an animation.
type Config struct {
	// Input is the path of the image or animation to convert.
	Input string

	// Audio optionally names a WAV or FLAC file carried alongside the
	// video in 32vid and server modes.
	Audio string

	// Output is the destination path; "-" or empty means stdout for
	// the file-based modes.
	Output string

	// Mode selects the output format.
	Mode int

	// Port is the listen port for ModeHTTP and ModeWebSocket.
	Port int

	// URL is the server address for ModeWebSocketClient.
	URL string

	// Subtitle optionally names an ASS subtitle file.
	Subtitle string

	// DefaultPalette disables palette generation in favor of the
	// stock terminal palette.
	DefaultPalette bool

	// Reducer selects the palette reduction algorithm.
	Reducer int

	// Dither selects the quantizer.
	Dither int

	// Compression is the 32vid video compression mode.
	Compression int

	// CompressionLevel is the deflate level for 32vid deflate mode.
	CompressionLevel int

	// DFPWM compresses the audio stream.
	DFPWM bool

	// Mute drops the audio stream.
	Mute bool

	// Streamed encodes frames on demand in server modes, handing each
	// frame to a single client as it is produced.
	Streamed bool

	// Width and Height resize the input; -1 keeps the source size or
	// aspect ratio.
	Width, Height int

	// Logger is used for all pipeline logging.
	Logger logging.Logger
}

// Validate checks the configuration and fills in defaults.
func (c *Config) Validate() error {
	if c.Input == "" {
		return errors.New("no input file specified")
	}
	if c.Logger == nil {
		return errors.New("no logger specified")
	}
	switch c.Mode {
	case ModeHTTP, ModeWebSocket:
		if c.Port <= 0 || c.Port > 65535 {
			return fmt.Errorf("port %d out of range", c.Port)
		}
	case ModeWebSocketClient:
		if c.URL == "" {
			return errors.New("no websocket URL specified")
		}
	case ModeDefault, ModeLua, ModeNFP, ModeRaw, ModeBlitImage, Mode32Vid:
		// File modes; stdout is fine.
	default:
		return fmt.Errorf("unknown output mode %d", c.Mode)
	}
	switch c.Compression {
	case vid32.CompressionNone, vid32.CompressionANS, vid32.CompressionDeflate, vid32.CompressionCustom:
	default:
		return fmt.Errorf("unknown compression mode %d", c.Compression)
	}
	if c.CompressionLevel == 0 {
		c.CompressionLevel = defaultCompressionLevel
	}
	if c.CompressionLevel < 1 || c.CompressionLevel > 9 {
		return fmt.Errorf("compression level %d out of range", c.CompressionLevel)
	}
	if c.Width == 0 {
		c.Width = -1
	}
	if c.Height == 0 {
		c.Height = -1
	}
	if c.Streamed && c.Mode != ModeHTTP && c.Mode != ModeWebSocket && c.Mode != ModeWebSocketClient {
		return errors.New("streamed encoding requires a server mode")
	}
	return nil
}
