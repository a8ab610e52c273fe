/*
NAME
  convert.go

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>
  Alan Noble <alan@ausocean.org>
  Trek Hopton <trek@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package convert provides an API for converting images and
// animations into character-terminal display formats: Lua display
// scripts, blit tables, NFP images, run-length raw streams, 32vid
// files and HTTP/WebSocket served streams.
package convert

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/ausocean/sanjuuni/cc"
	"github.com/ausocean/sanjuuni/device"
	"github.com/ausocean/sanjuuni/device/audiofile"
	"github.com/ausocean/sanjuuni/device/imagefile"
	"github.com/ausocean/sanjuuni/dfpwm"
	"github.com/ausocean/sanjuuni/frame"
	"github.com/ausocean/sanjuuni/generator"
	"github.com/ausocean/sanjuuni/quantize"
	"github.com/ausocean/sanjuuni/subtitle"
	"github.com/ausocean/sanjuuni/vid32"
	"github.com/ausocean/sanjuuni/workqueue"
)

// Converter drives the conversion pipeline for one input according to
// its Config.
type Converter struct {
	cfg   Config
	queue *workqueue.Queue
	store *storage

	subs subtitle.Events

	// preview, when set, receives each quantized frame.
	preview func(*frame.Image)

	httpSrv *httpServer
	wsSrv   *wsServer
}

// New returns a Converter for the validated config.
func New(cfg Config) (*Converter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config is not valid: %w", err)
	}
	return &Converter{
		cfg:   cfg,
		queue: workqueue.New(0),
		store: newStorage(cfg.Streamed),
	}, nil
}

// SetPreview installs a hook receiving every quantized frame, used by
// the SDL preview window.
func (c *Converter) SetPreview(f func(*frame.Image)) { c.preview = f }

// Close releases the Converter's worker pool and stops any servers.
func (c *Converter) Close() error {
	c.store.finish()
	if c.httpSrv != nil {
		c.httpSrv.stop()
	}
	if c.wsSrv != nil {
		c.wsSrv.stop()
	}
	c.queue.Close()
	return nil
}

// palette produces the frame's palette per the configuration.
func (c *Converter) palette(img *frame.Image) (frame.Palette, error) {
	if c.cfg.DefaultPalette {
		return frame.Default, nil
	}
	switch c.cfg.Reducer {
	case ReducerOctree:
		pal := quantize.Octree(img, frame.MaxColors)
		if len(pal) == 0 {
			c.cfg.Logger.Warning("octree returned no palette; using default")
			return frame.Default, nil
		}
		return pal, nil
	case ReducerKMeans:
		return quantize.KMeans(img, frame.MaxColors, c.queue)
	default:
		return quantize.MedianCut(img, frame.MaxColors, c.queue)
	}
}

// reduce maps the frame onto the palette per the configured
// quantizer.
func (c *Converter) reduce(img *frame.Image, pal frame.Palette) (*frame.Image, error) {
	switch c.cfg.Dither {
	case DitherThreshold:
		return quantize.Threshold(img, pal, c.queue)
	case DitherOrdered:
		return quantize.OrderedDither(img, pal, c.queue)
	default:
		return quantize.Dither(img, pal), nil
	}
}

// Run converts the whole input. For the file modes it writes the
// output and returns; for the server modes it returns once encoding
// finishes, leaving the server running until Close.
func (c *Converter) Run() error {
	log := c.cfg.Logger

	log.Debug("opening input", "path", c.cfg.Input)
	in, err := imagefile.New(c.cfg.Input, imagefile.Options{Width: c.cfg.Width, Height: c.cfg.Height})
	if err != nil {
		return fmt.Errorf("could not open input: %w", err)
	}
	var src device.Source = in

	mode := c.cfg.Mode
	if mode == ModeDefault {
		if src.Len() > 1 {
			mode = ModeRaw
		} else {
			mode = ModeLua
		}
	}

	fps := src.FrameRate()
	if fps == 0 {
		fps = defaultFPS
	}
	c.store.fps = fps
	c.store.totalFrames = src.Len()

	if c.cfg.Subtitle != "" {
		f, err := os.Open(c.cfg.Subtitle)
		if err != nil {
			return fmt.Errorf("could not open subtitle file: %w", err)
		}
		c.subs, err = subtitle.Parse(f, fps)
		f.Close()
		if err != nil {
			return fmt.Errorf("could not parse subtitles: %w", err)
		}
		log.Info("subtitles parsed", "events", len(c.subs))
	}

	// Audio is only carried by the container and server modes.
	var audio []byte
	audioWanted := !c.cfg.Mute && c.cfg.Audio != "" &&
		(mode == Mode32Vid || mode == ModeHTTP || mode == ModeWebSocket || mode == ModeWebSocketClient)
	if audioWanted {
		pcm, err := audiofile.Read(c.cfg.Audio)
		if err != nil {
			return fmt.Errorf("could not read audio: %w", err)
		}
		if c.cfg.DFPWM {
			var buf bytes.Buffer
			if _, err := dfpwm.NewEncoder(&buf).Write(pcm); err != nil {
				return fmt.Errorf("could not compress audio: %w", err)
			}
			audio = buf.Bytes()
		} else {
			audio = pcm
		}
		c.store.appendAudio(audio)
		log.Info("audio loaded", "bytes", len(audio), "dfpwm", c.cfg.DFPWM)
	}

	var out io.WriteCloser
	needFile := mode != ModeHTTP && mode != ModeWebSocket && mode != ModeWebSocketClient
	if needFile {
		if c.cfg.Output == "" || c.cfg.Output == "-" {
			out = os.Stdout
		} else {
			f, err := os.Create(c.cfg.Output)
			if err != nil {
				return fmt.Errorf("could not open output file: %w", err)
			}
			out = f
		}
	}

	var venc *vid32.Encoder

	switch mode {
	case ModeHTTP:
		c.httpSrv = newHTTPServer(c.store, c.cfg.Port, c.cfg.DFPWM, log)
		c.httpSrv.start()
		log.Info("http server started", "port", c.cfg.Port)
	case ModeWebSocket:
		c.wsSrv = newWSServer(c.store, c.cfg.Port, c.cfg.DFPWM, log)
		c.wsSrv.start()
		log.Info("websocket server started", "port", c.cfg.Port)
	case ModeWebSocketClient:
		if err := dialWebSocket(c.cfg.URL, c.store, c.cfg.DFPWM, log); err != nil {
			return fmt.Errorf("could not connect to websocket server: %w", err)
		}
		log.Info("websocket connected", "url", c.cfg.URL)
	}

	start := time.Now()
	nframe := 0
	for {
		img, err := src.NextFrame()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("could not read frame: %w", err)
		}
		nframe++

		if nframe == 1 {
			switch mode {
			case ModeRaw:
				fmt.Fprintf(out, "%s\n%v\n", generator.RawPrologue, fps)
			case ModeBlitImage:
				fmt.Fprint(out, "{\n")
			case Mode32Vid:
				cellW, cellH := imgCells(img)
				opts := []vid32.EncoderOption{
					vid32.WithCompression(c.cfg.Compression),
					vid32.WithCompressionLevel(c.cfg.CompressionLevel),
				}
				if c.cfg.DFPWM {
					opts = append(opts, vid32.WithDFPWM())
				}
				venc, err = vid32.NewEncoder(out, cellW, cellH, int(math.Floor(fps+0.5)), opts...)
				if err != nil {
					return fmt.Errorf("could not create 32vid encoder: %w", err)
				}
			}
		}

		if err := c.frame(img, nframe, mode, out, venc); err != nil {
			return fmt.Errorf("frame %d: %w", nframe, err)
		}

		if nframe%25 == 0 {
			log.Debug("progress", "frame", nframe, "total", src.Len(), "elapsed", time.Since(start).String())
		}
		c.store.handoff()
	}
	log.Info("frames converted", "count", nframe, "elapsed", time.Since(start).String())

	switch mode {
	case Mode32Vid:
		if venc != nil {
			venc.WriteAudio(audio)
			if err := venc.Close(); err != nil {
				return fmt.Errorf("could not finish 32vid container: %w", err)
			}
		}
	case ModeBlitImage:
		meta := generator.BIMGMeta{
			Creator:         "sanjuuni",
			Version:         "1.0.0",
			SecondsPerFrame: 1 / fps,
			Animation:       nframe > 1,
			Date:            time.Now().UTC().Format("2006-01-02T15:04:05-0700"),
			Title:           c.cfg.Input,
		}
		fmt.Fprint(out, meta.Footer())
	}
	if needFile && out != os.Stdout {
		if err := out.Close(); err != nil {
			return fmt.Errorf("could not close output: %w", err)
		}
	}
	if c.cfg.Streamed {
		c.store.finish()
	}
	return nil
}

// imgCells returns the cell grid dimensions of an image.
func imgCells(img *frame.Image) (w, h int) {
	return (img.Width - img.Width%2) / 2, (img.Height - img.Height%3) / 3
}

// frame runs one image through the pipeline and dispatches the result
// to the configured output.
func (c *Converter) frame(img *frame.Image, nframe, mode int, out io.Writer, venc *vid32.Encoder) error {
	pal, err := c.palette(img)
	if err != nil {
		return fmt.Errorf("could not generate palette: %w", err)
	}
	reduced, err := c.reduce(img, pal)
	if err != nil {
		return fmt.Errorf("could not quantize: %w", err)
	}
	if c.preview != nil {
		c.preview(reduced)
	}
	indexed := quantize.ToIndexed(reduced, pal)
	chars, cols, w, h, err := cc.MakeImage(indexed, pal, c.queue)
	if err != nil {
		return fmt.Errorf("could not encode cells: %w", err)
	}

	if c.subs != nil && mode != Mode32Vid {
		subtitle.Render(c.subs, nframe, chars, cols, pal, w*2, h*3)
	}

	switch mode {
	case ModeLua:
		fmt.Fprint(out, generator.MakeLuaFile(chars, cols, pal, w, h))
	case ModeNFP:
		fmt.Fprint(out, generator.MakeNFP(chars, cols, pal, w, h))
	case ModeRaw:
		fmt.Fprint(out, generator.MakeRawImage(chars, cols, pal, w, h))
	case ModeBlitImage:
		fmt.Fprint(out, generator.MakeTable(chars, cols, pal, w, h, generator.TableOptions{EmbedPalette: true}))
		fmt.Fprint(out, ",\n")
	case Mode32Vid:
		if err := venc.WriteFrame(chars, cols, pal); err != nil {
			return err
		}
		for _, ev := range subtitle.Collect(c.subs, nframe, pal, w*2, h*3) {
			venc.AddSubtitle(ev)
		}
	case ModeHTTP, ModeWebSocket, ModeWebSocketClient:
		c.store.addFrame("return " + generator.MakeTable(chars, cols, pal, w, h, generator.TableOptions{Compact: true}))
	}
	return nil
}
