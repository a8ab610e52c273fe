/*
NAME
  quantize.go

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

// Package quantize reduces full-color frames to 16-color palettes and
// maps frames onto those palettes by thresholding or dithering.
//
// Three palette reducers are provided: median cut, octree and k-means.
// All of them return a palette with the lightest color first and the
// darkest last; see frame.Palette.Reorder.
package quantize

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/ausocean/sanjuuni/frame"
	"github.com/ausocean/sanjuuni/workqueue"
)

// Nearest returns the palette color closest to c by Euclidean
// distance, along with its index.
func Nearest(pal frame.Palette, c frame.Vec3) (frame.RGB, int) {
	best := 0
	dist := frame.DistanceVec(pal[0].Vec(), c)
	for i := 1; i < len(pal); i++ {
		if d := frame.DistanceVec(pal[i].Vec(), c); d < dist {
			best = i
			dist = d
		}
	}
	return pal[best], best
}

// Threshold maps every pixel of img to its nearest palette color.
// Rows are fanned out over the work queue.
func Threshold(img *frame.Image, pal frame.Palette, q *workqueue.Queue) (*frame.Image, error) {
	out := frame.NewImage(img.Width, img.Height)
	for y := 0; y < img.Height; y++ {
		src, dst := img.Row(y), out.Row(y)
		q.Push(func() error {
			for x := range src {
				dst[x], _ = Nearest(pal, src[x].Vec())
			}
			return nil
		})
	}
	if err := q.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Dither maps img onto pal with Floyd-Steinberg error diffusion,
// left-to-right, top-to-bottom, using a two-row sliding error buffer.
func Dither(img *frame.Image, pal frame.Palette) *frame.Image {
	out := frame.NewImage(img.Width, img.Height)
	cur := make([]frame.Vec3, img.Width)
	for y := 0; y < img.Height; y++ {
		next := make([]frame.Vec3, img.Width)
		for x := 0; x < img.Width; x++ {
			c := img.At(y, x).Vec().Add(cur[x])
			chosen, _ := Nearest(pal, c)
			out.Set(y, x, chosen)
			err := c.Sub(chosen.Vec())
			if x < img.Width-1 {
				cur[x+1] = cur[x+1].Add(err.Scale(7.0 / 16.0))
				next[x+1] = next[x+1].Add(err.Scale(1.0 / 16.0))
			}
			if x > 0 {
				next[x-1] = next[x-1].Add(err.Scale(3.0 / 16.0))
			}
			next[x] = next[x].Add(err.Scale(5.0 / 16.0))
		}
		cur = next
	}
	return out
}

// bayer8 is the canonical 8x8 Bayer threshold matrix.
var bayer8 = [8][8]float64{
	{0, 32, 8, 40, 2, 34, 10, 42},
	{48, 16, 56, 24, 50, 18, 58, 26},
	{12, 44, 4, 36, 14, 46, 6, 38},
	{60, 28, 52, 20, 62, 30, 54, 22},
	{3, 35, 11, 43, 1, 33, 9, 41},
	{51, 19, 59, 27, 49, 17, 57, 25},
	{15, 47, 7, 39, 13, 45, 5, 37},
	{63, 31, 55, 23, 61, 29, 53, 21},
}

// OrderedDither maps img onto pal with 8x8 Bayer ordered dithering.
// The offset amplitude is the mean pairwise palette distance over six;
// rows are fanned out over the work queue.
func OrderedDither(img *frame.Image, pal frame.Palette, q *workqueue.Queue) (*frame.Image, error) {
	dists := make([]float64, 0, len(pal)*len(pal))
	for _, a := range pal {
		for _, b := range pal {
			dists = append(dists, frame.Distance(a, b))
		}
	}
	spacing := stat.Mean(dists, nil) / 6

	out := frame.NewImage(img.Width, img.Height)
	for y := 0; y < img.Height; y++ {
		y := y
		src, dst := img.Row(y), out.Row(y)
		q.Push(func() error {
			for x := range src {
				c := src[x].Vec().AddScalar(spacing * (bayer8[y%8][x%8]/64 - 0.5))
				dst[x], _ = Nearest(pal, c)
			}
			return nil
		})
	}
	if err := q.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// ToIndexed converts a reduced image to palette indices. The image
// must only contain colors present in pal; pixels that do not match
// are given the out-of-range index len(pal), which the cell encoder
// rejects.
func ToIndexed(img *frame.Image, pal frame.Palette) *frame.Indexed {
	out := frame.NewIndexed(img.Width, img.Height)
	for i, c := range img.Pix {
		idx := uint8(len(pal))
		for j, p := range pal {
			if p == c {
				idx = uint8(j)
				break
			}
		}
		out.Pix[i] = idx
	}
	return out
}

// sortByComponent sorts colors ascending on one of R, G or B.
func sortByComponent(colors []frame.RGB, comp int) {
	sort.SliceStable(colors, func(i, j int) bool {
		return colors[i].Comp(comp) < colors[j].Comp(comp)
	})
}
