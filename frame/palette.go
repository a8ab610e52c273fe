/*
NAME
  palette.go

AUTHOR
  Trek Hopton <trek@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package frame

import "math"

// MaxColors is the number of palette slots a character terminal exposes.
const MaxColors = 16

// Palette is an ordered list of up to 16 colors. After reduction the
// first entry is the lightest color and the last the darkest; subtitle
// rendering and the background convention rely on that ordering.
type Palette []RGB

// Default is the stock ComputerCraft terminal palette, used when
// palette generation is disabled. It is not reordered.
var Default = Palette{
	{0xf0, 0xf0, 0xf0},
	{0xf2, 0xb2, 0x33},
	{0xe5, 0x7f, 0xd8},
	{0x99, 0xb2, 0xf2},
	{0xde, 0xde, 0x6c},
	{0x7f, 0xcc, 0x19},
	{0xf2, 0xb2, 0xcc},
	{0x4c, 0x4c, 0x4c},
	{0x99, 0x99, 0x99},
	{0x4c, 0x99, 0xb2},
	{0xb2, 0x66, 0xe5},
	{0x33, 0x66, 0xcc},
	{0x7f, 0x66, 0x4c},
	{0x57, 0xa6, 0x4e},
	{0xcc, 0x4c, 0x4c},
	{0x11, 0x11, 0x11},
}

// Reorder moves the overall-lightest color to the front of the palette
// and the overall-darkest to the back, by component sum. Every reducer
// applies this before returning; it keeps entry 15 usable as the
// universal dark background.
func (p Palette) Reorder() Palette {
	if len(p) == 0 {
		return p
	}
	darkest, lightest := 0, 0
	for i, c := range p {
		if c.Sum() < p[darkest].Sum() {
			darkest = i
		}
		if c.Sum() > p[lightest].Sum() {
			lightest = i
		}
	}
	d, l := p[darkest], p[lightest]
	out := make(Palette, 0, len(p))
	if darkest == lightest {
		// Single-brightness palette; drop the duplicate slot as well so
		// the result does not grow.
		for i, c := range p {
			if i == darkest || i == len(p)-1 {
				continue
			}
			out = append(out, c)
		}
	} else {
		for i, c := range p {
			if i == darkest || i == lightest {
				continue
			}
			out = append(out, c)
		}
	}
	out = append(Palette{l}, out...)
	return append(out, d)
}

// Distance returns the Euclidean distance between two colors.
func Distance(a, b RGB) float64 {
	dr := float64(a.R) - float64(b.R)
	dg := float64(a.G) - float64(b.G)
	db := float64(a.B) - float64(b.B)
	return math.Sqrt(dr*dr + dg*dg + db*db)
}

// DistanceVec returns the Euclidean distance between two color vectors.
func DistanceVec(a, b Vec3) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	dz := a.Z - b.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}
