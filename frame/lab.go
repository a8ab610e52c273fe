/*
NAME
  lab.go

AUTHOR
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package frame

import "math"

// CIELAB conversion, sRGB through XYZ with the D65 white point. Lab
// triples are packed back into RGB byte storage: L in [0,100] plus
// rounding, a and b offset by +128.

// ToLab converts a single sRGB color to Lab byte form.
func ToLab(c RGB) RGB {
	r := srgbLinear(float64(c.R) / 255)
	g := srgbLinear(float64(c.G) / 255)
	b := srgbLinear(float64(c.B) / 255)
	r, g, b = r*100, g*100, b*100
	x := (r*0.4124 + g*0.3576 + b*0.1805) / 95.047
	y := (r*0.2126 + g*0.7152 + b*0.0722) / 100.000
	z := (r*0.0193 + g*0.1192 + b*0.9505) / 108.883
	x = labCompand(x)
	y = labCompand(y)
	z = labCompand(z)
	l := 116*y - 16
	a := 500*(x-y) + 128
	bb := 200*(y-z) + 128
	return RGB{
		uint8(math.Floor(l + 0.5)),
		uint8(math.Floor(a + 0.5)),
		uint8(math.Floor(bb + 0.5)),
	}
}

// FromLabPalette converts a palette of Lab byte triples back to sRGB,
// clamping each channel to [0,255].
func FromLabPalette(p Palette) Palette {
	out := make(Palette, 0, len(p))
	for _, c := range p {
		y := (float64(c.R) + 16) / 116
		x := (float64(c.G)-128)/500 + y
		z := y - (float64(c.B)-128)/200
		y = labUncompand(y)
		x = labUncompand(x)
		z = labUncompand(z)
		x *= 0.95047
		z *= 1.08883
		r := x*3.2406 + y*-1.5372 + z*-0.4986
		g := x*-0.9689 + y*1.8758 + z*0.0415
		b := x*0.0557 + y*-0.2040 + z*1.0570
		out = append(out, RGB{
			clamp255(srgbCompand(r) * 255),
			clamp255(srgbCompand(g) * 255),
			clamp255(srgbCompand(b) * 255),
		})
	}
	return out
}

// ToLabImage converts every pixel of an image to Lab byte form.
func ToLabImage(img *Image) *Image {
	out := NewImage(img.Width, img.Height)
	for i, c := range img.Pix {
		out.Pix[i] = ToLab(c)
	}
	return out
}

func srgbLinear(v float64) float64 {
	if v > 0.04045 {
		return math.Pow((v+0.055)/1.055, 2.4)
	}
	return v / 12.92
}

func srgbCompand(v float64) float64 {
	if v > 0.0031308 {
		return 1.055*math.Pow(v, 1/2.4) - 0.055
	}
	return 12.92 * v
}

func labCompand(v float64) float64 {
	if v > 0.008856 {
		return math.Cbrt(v)
	}
	return 7.787*v + 16.0/116.0
}

func labUncompand(v float64) float64 {
	if v*v*v > 0.008856 {
		return v * v * v
	}
	return (v - 16.0/116.0) / 7.787
}

func clamp255(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
