/*
NAME
  frame.go

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

// Package frame provides the color and image primitives shared by the
// conversion pipeline: RGB triples, CIELAB conversion, flat row-major
// image matrices and display palettes.
//
// Components are stored in R,G,B order everywhere in memory. On-disk
// palette triples are also written R,G,B; see the vid32 and generator
// packages for the byte layouts.
package frame

import "fmt"

// RGB is a single 8-bit-per-channel color.
type RGB struct {
	R, G, B uint8
}

// Sum returns the component sum, used as the brightness ordering key
// throughout the pipeline.
func (c RGB) Sum() int { return int(c.R) + int(c.G) + int(c.B) }

// Comp returns component i of the color, ordered R, G, B.
func (c RGB) Comp(i int) uint8 {
	switch i {
	case 0:
		return c.R
	case 1:
		return c.G
	case 2:
		return c.B
	}
	return 0
}

// Vec3 is a color as a triple of float64s, used for accumulation and
// error diffusion math.
type Vec3 struct {
	X, Y, Z float64
}

// Vec returns the color as a float vector.
func (c RGB) Vec() Vec3 { return Vec3{float64(c.R), float64(c.G), float64(c.B)} }

// Add returns v + w.
func (v Vec3) Add(w Vec3) Vec3 { return Vec3{v.X + w.X, v.Y + w.Y, v.Z + w.Z} }

// Sub returns v - w.
func (v Vec3) Sub(w Vec3) Vec3 { return Vec3{v.X - w.X, v.Y - w.Y, v.Z - w.Z} }

// Scale returns v * s.
func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }

// AddScalar returns v with s added to every component.
func (v Vec3) AddScalar(s float64) Vec3 { return Vec3{v.X + s, v.Y + s, v.Z + s} }

// RGB converts the vector back to a byte color, rounding half away
// from zero and clamping to [0,255].
func (v Vec3) RGB() RGB {
	return RGB{roundByte(v.X), roundByte(v.Y), roundByte(v.Z)}
}

// Trunc converts the vector back to a byte color by truncation, as the
// k-means convergence test requires.
func (v Vec3) Trunc() RGB {
	return RGB{truncByte(v.X), truncByte(v.Y), truncByte(v.Z)}
}

func roundByte(f float64) uint8 {
	if f <= 0 {
		return 0
	}
	if f >= 255 {
		return 255
	}
	return uint8(f + 0.5)
}

func truncByte(f float64) uint8 {
	if f <= 0 {
		return 0
	}
	if f >= 255 {
		return 255
	}
	return uint8(f)
}

// Image is a row-major RGB image. Pix always holds Width*Height entries.
type Image struct {
	Width, Height int
	Pix           []RGB
}

// NewImage returns a zeroed image of the given dimensions.
func NewImage(w, h int) *Image {
	return &Image{Width: w, Height: h, Pix: make([]RGB, w*h)}
}

// At returns the pixel at row y, column x.
func (m *Image) At(y, x int) RGB {
	if y < 0 || y >= m.Height || x < 0 || x >= m.Width {
		panic(fmt.Sprintf("frame: index (%d,%d) out of range %dx%d", x, y, m.Width, m.Height))
	}
	return m.Pix[y*m.Width+x]
}

// Set writes the pixel at row y, column x.
func (m *Image) Set(y, x int, c RGB) {
	if y < 0 || y >= m.Height || x < 0 || x >= m.Width {
		panic(fmt.Sprintf("frame: index (%d,%d) out of range %dx%d", x, y, m.Width, m.Height))
	}
	m.Pix[y*m.Width+x] = c
}

// Row returns row y as a contiguous slice of length Width.
func (m *Image) Row(y int) []RGB {
	return m.Pix[y*m.Width : (y+1)*m.Width]
}

// Indexed is a row-major image of palette indices. Every entry must be
// less than the length of the palette it was quantized against.
type Indexed struct {
	Width, Height int
	Pix           []uint8
}

// NewIndexed returns a zeroed indexed image of the given dimensions.
func NewIndexed(w, h int) *Indexed {
	return &Indexed{Width: w, Height: h, Pix: make([]uint8, w*h)}
}

// At returns the palette index at row y, column x.
func (m *Indexed) At(y, x int) uint8 {
	if y < 0 || y >= m.Height || x < 0 || x >= m.Width {
		panic(fmt.Sprintf("frame: index (%d,%d) out of range %dx%d", x, y, m.Width, m.Height))
	}
	return m.Pix[y*m.Width+x]
}

// Set writes the palette index at row y, column x.
func (m *Indexed) Set(y, x int, v uint8) {
	m.Pix[y*m.Width+x] = v
}

// Row returns row y as a contiguous slice of length Width.
func (m *Indexed) Row(y int) []uint8 {
	return m.Pix[y*m.Width : (y+1)*m.Width]
}
