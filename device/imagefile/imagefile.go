/*
NAME
  imagefile.go

DESCRIPTION
  imagefile provides an input device reading still images and GIF
  animations, decoding and rescaling them into RGB frames for the
  conversion pipeline.

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

// Package imagefile is an input device for still images (PNG, JPEG,
// BMP, TIFF, WebP) and animated GIFs.
package imagefile

import (
	"image"
	"image/draw"
	"image/gif"
	_ "image/jpeg" // registered decoders
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	_ "golang.org/x/image/bmp" // registered decoders
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/ausocean/sanjuuni/frame"
)

// Source yields the decoded frames of one input file.
type Source struct {
	frames []*frame.Image
	rate   float64
	pos    int
}

// Options control decoding.
type Options struct {
	// Width and Height resize the output; -1 keeps the aspect ratio of
	// the other dimension, or the source size when both are -1.
	Width, Height int
}

// New opens and fully decodes path. GIF files contribute one frame
// per animation frame; other formats one frame.
func New(path string, opt Options) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if strings.EqualFold(filepath.Ext(path), ".gif") {
		return newGIF(f, opt)
	}
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "imagefile: decoding %s", path)
	}
	return &Source{frames: []*frame.Image{convert(img, opt)}, rate: 0}, nil
}

func newGIF(r io.Reader, opt Options) (*Source, error) {
	g, err := gif.DecodeAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "imagefile: decoding gif")
	}
	s := &Source{}
	// Average the per-frame delays (centiseconds) into one rate.
	total := 0
	for _, d := range g.Delay {
		total += d
	}
	if total > 0 {
		s.rate = float64(len(g.Delay)) * 100 / float64(total)
	} else {
		s.rate = 10
	}
	// Frames may be partial; composite onto the running canvas.
	bounds := image.Rect(0, 0, g.Config.Width, g.Config.Height)
	canvas := image.NewRGBA(bounds)
	for _, fr := range g.Image {
		draw.Draw(canvas, fr.Bounds(), fr, fr.Bounds().Min, draw.Over)
		s.frames = append(s.frames, convert(canvas, opt))
	}
	if len(s.frames) == 0 {
		return nil, errors.New("imagefile: gif has no frames")
	}
	return s, nil
}

// convert rescales img per opt and converts it to an RGB frame.
func convert(img image.Image, opt Options) *frame.Image {
	sb := img.Bounds()
	w, h := opt.Width, opt.Height
	switch {
	case w <= 0 && h <= 0:
		w, h = sb.Dx(), sb.Dy()
	case w <= 0:
		w = h * sb.Dx() / sb.Dy()
	case h <= 0:
		h = w * sb.Dy() / sb.Dx()
	}
	if w != sb.Dx() || h != sb.Dy() {
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, sb, xdraw.Over, nil)
		img = dst
		sb = dst.Bounds()
	}

	out := frame.NewImage(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := img.At(sb.Min.X+x, sb.Min.Y+y).RGBA()
			out.Set(y, x, frame.RGB{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8)})
		}
	}
	return out
}

// NextFrame returns the next frame, or io.EOF when exhausted.
func (s *Source) NextFrame() (*frame.Image, error) {
	if s.pos >= len(s.frames) {
		return nil, io.EOF
	}
	f := s.frames[s.pos]
	s.pos++
	return f, nil
}

// Len returns the total frame count.
func (s *Source) Len() int { return len(s.frames) }

// FrameRate returns the source frame rate; zero for stills.
func (s *Source) FrameRate() float64 { return s.rate }
