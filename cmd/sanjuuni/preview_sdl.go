/*
DESCRIPTION
  SDL2 preview window showing each quantized frame as it is encoded.
  Built with the sdl tag.

AUTHOR
  Trek Hopton <trek@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

//go:build sdl

package main

import (
	"github.com/veandco/go-sdl2/sdl"

	"github.com/ausocean/sanjuuni/convert"
	"github.com/ausocean/sanjuuni/frame"
)

// setupPreview opens an SDL window on the first frame and updates it
// with every quantized frame.
func setupPreview(c *convert.Converter) func() {
	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		return func() {}
	}
	var win *sdl.Window
	c.SetPreview(func(img *frame.Image) {
		if win == nil {
			var err error
			win, err = sdl.CreateWindow("sanjuuni", sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED,
				int32(img.Width), int32(img.Height), sdl.WINDOW_SHOWN)
			if err != nil {
				return
			}
		}
		surf, err := win.GetSurface()
		if err != nil {
			return
		}
		for y := 0; y < img.Height; y++ {
			for x := 0; x < img.Width; x++ {
				p := img.At(y, x)
				surf.Set(x, y, sdl.Color{R: p.R, G: p.G, B: p.B, A: 255})
			}
		}
		win.UpdateSurface()
		// Drain window events so the preview stays responsive.
		for sdl.PollEvent() != nil {
		}
	})
	return func() {
		if win != nil {
			win.Destroy()
		}
		sdl.Quit()
	}
}
