/*
DESCRIPTION
  sanjuuni converts images and animations into formats that can be
  displayed in a ComputerCraft terminal.

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

// Package main is the sanjuuni command line converter.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/ausocean/utils/logging"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ausocean/sanjuuni/convert"
	"github.com/ausocean/sanjuuni/vid32"
)

// Current software version.
const version = "v1.0.0"

// Logging configuration.
const (
	logMaxSize   = 100 // MB
	logMaxBackup = 5
	logMaxAge    = 28 // days
	logSuppress  = true
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		input    = flag.String("input", "", "input image or animation (required)")
		audio    = flag.String("audio", "", "WAV or FLAC audio to carry in 32vid and server outputs")
		output   = flag.String("output", "", "output file path, or - for stdout")
		subtitle = flag.String("subtitle", "", "ASS-formatted subtitle file to add to the video")

		luaMode  = flag.Bool("lua", false, "output a Lua script file (default for still images)")
		nfpMode  = flag.Bool("nfp", false, "output an NFP format image for use in paint (changes proportions!)")
		rawMode  = flag.Bool("raw", false, "output a rawmode-based image/video file (default for animations)")
		bimgMode = flag.Bool("blit-image", false, "output a blit image (BIMG) format image/animation file")
		vidMode  = flag.Bool("32vid", false, "output a 32vid format binary video file with compression + audio")
		httpPort = flag.Int("http", 0, "serve an HTTP server that has each frame split up + a player program")
		wsPort   = flag.Int("websocket", 0, "serve a WebSocket that sends the image/video with audio")
		wsURL    = flag.String("websocket-client", "", "connect to a WebSocket server to send image/video")
		streamed = flag.Bool("streamed", false, "for servers, encode data on-the-fly instead of ahead of time")

		defaultPal = flag.Bool("default-palette", false, "use the default palette instead of generating one")
		threshold  = flag.Bool("threshold", false, "use thresholding instead of dithering")
		octree     = flag.Bool("octree", false, "use octree for higher quality color conversion (slower)")
		kmeans     = flag.Bool("kmeans", false, "use k-means for highest quality color conversion (slowest)")

		compression = flag.String("compression", "custom", "compression type for 32vid videos: none|lzw|deflate|custom|ans")
		level       = flag.Int("compression-level", 5, "compression level for 32vid videos when using deflate")
		useDFPWM    = flag.Bool("dfpwm", false, "use DFPWM compression on audio")
		mute        = flag.Bool("mute", false, "remove audio from output")

		width  = flag.Int("width", -1, "resize the image to the specified width")
		height = flag.Int("height", -1, "resize the image to the specified height")

		logPath     = flag.String("log-file", "", "log to a rotated file instead of stderr")
		verbosity   = flag.Int("verbosity", int(logging.Info), "logging verbosity")
		showVersion = flag.Bool("version", false, "show version")
	)
	flag.Parse()

	if *showVersion {
		fmt.Println(version)
		return 0
	}

	var logDst io.Writer = os.Stderr
	if *logPath != "" {
		logDst = &lumberjack.Logger{
			Filename:   *logPath,
			MaxSize:    logMaxSize,
			MaxBackups: logMaxBackup,
			MaxAge:     logMaxAge,
		}
	}
	log := logging.New(int8(*verbosity), logDst, logSuppress)

	if *input == "" {
		fmt.Fprintln(os.Stderr, "sanjuuni: an input file is required")
		flag.Usage()
		return 2
	}

	cfg := convert.Config{
		Input:          *input,
		Audio:          *audio,
		Output:         *output,
		Subtitle:       *subtitle,
		DefaultPalette: *defaultPal,
		DFPWM:          *useDFPWM,
		Mute:           *mute,
		Streamed:       *streamed,
		Width:          *width,
		Height:         *height,
		Logger:         log,
	}

	switch {
	case *luaMode:
		cfg.Mode = convert.ModeLua
	case *nfpMode:
		cfg.Mode = convert.ModeNFP
	case *rawMode:
		cfg.Mode = convert.ModeRaw
	case *bimgMode:
		cfg.Mode = convert.ModeBlitImage
	case *vidMode:
		cfg.Mode = convert.Mode32Vid
	case *httpPort != 0:
		cfg.Mode = convert.ModeHTTP
		cfg.Port = *httpPort
	case *wsPort != 0:
		cfg.Mode = convert.ModeWebSocket
		cfg.Port = *wsPort
	case *wsURL != "":
		cfg.Mode = convert.ModeWebSocketClient
		cfg.URL = *wsURL
	}

	switch {
	case *threshold:
		cfg.Dither = convert.DitherThreshold
	default:
		cfg.Dither = convert.DitherFloydSteinberg
	}
	switch {
	case *octree:
		cfg.Reducer = convert.ReducerOctree
	case *kmeans:
		cfg.Reducer = convert.ReducerKMeans
	default:
		cfg.Reducer = convert.ReducerMedianCut
	}

	switch *compression {
	case "none":
		cfg.Compression = vid32.CompressionNone
	case "deflate":
		cfg.Compression = vid32.CompressionDeflate
	case "custom":
		cfg.Compression = vid32.CompressionCustom
	case "ans":
		cfg.Compression = vid32.CompressionANS
	case "lzw":
		fmt.Fprintln(os.Stderr, "sanjuuni: LZW compression is not implemented")
		return 2
	default:
		fmt.Fprintf(os.Stderr, "sanjuuni: unknown compression mode %q\n", *compression)
		return 2
	}
	cfg.CompressionLevel = *level

	c, err := convert.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sanjuuni: %v\n", err)
		return 2
	}
	defer c.Close()

	cleanup := setupPreview(c)
	defer cleanup()

	if err := c.Run(); err != nil {
		log.Error("conversion failed", "error", err.Error())
		fmt.Fprintf(os.Stderr, "sanjuuni: %v\n", err)
		return 1
	}

	// Server modes keep serving until interrupted; streamed servers
	// are finished once the stream drains.
	serving := cfg.Mode == convert.ModeHTTP || cfg.Mode == convert.ModeWebSocket || cfg.Mode == convert.ModeWebSocketClient
	if serving && !cfg.Streamed {
		fmt.Fprintln(os.Stderr, "Serving; interrupt to stop.")
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
	}
	return 0
}
