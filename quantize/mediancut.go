/*
NAME
  mediancut.go

AUTHOR
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package quantize

import (
	"github.com/pkg/errors"

	"github.com/ausocean/sanjuuni/frame"
	"github.com/ausocean/sanjuuni/workqueue"
)

// ErrNotPowerOfTwo is returned by MedianCut for color counts that
// cannot be halved down to single buckets.
var ErrNotPowerOfTwo = errors.New("color count must be a power of 2")

// MedianCut produces an n-color palette for img by recursively
// splitting the pixel set at the median of its widest channel. n must
// be a power of two. Bucket splits are fanned out over the work queue.
func MedianCut(img *frame.Image, n int, q *workqueue.Queue) (frame.Palette, error) {
	if n <= 0 || n&(n-1) != 0 {
		return nil, ErrNotPowerOfTwo
	}

	pixels := make([]frame.RGB, len(img.Pix))
	copy(pixels, img.Pix)

	// If the image already fits in n colors, use them as-is.
	uniq := uniqueColors(pixels, n)
	if uniq != nil {
		return uniq.Reorder(), nil
	}

	pal := make(frame.Palette, n)
	medianCut(pixels, n, -1, pal, q)
	if err := q.Wait(); err != nil {
		return nil, err
	}
	return pal.Reorder(), nil
}

// uniqueColors returns the distinct colors of pixels if there are at
// most limit of them, and nil otherwise.
func uniqueColors(pixels []frame.RGB, limit int) frame.Palette {
	seen := make(map[frame.RGB]struct{}, limit+1)
	out := make(frame.Palette, 0, limit)
	for _, c := range pixels {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
		if len(out) > limit {
			return nil
		}
	}
	return out
}

// medianCut recursively splits pixels into res, which has room for num
// centroids. lastComp is the channel split at the level above; when
// the current widest channel repeats and the other ranges are within 8
// of it, the split rotates to one of them to avoid degenerate cuts.
func medianCut(pixels []frame.RGB, num, lastComp int, res frame.Palette, q *workqueue.Queue) {
	if num == 1 {
		var sum frame.Vec3
		for _, c := range pixels {
			sum = sum.Add(c.Vec())
		}
		res[0] = sum.Scale(1 / float64(len(pixels))).RGB()
		return
	}

	var lo, hi [3]uint8
	lo = [3]uint8{255, 255, 255}
	for _, c := range pixels {
		for i := 0; i < 3; i++ {
			v := c.Comp(i)
			if v < lo[i] {
				lo[i] = v
			}
			if v > hi[i] {
				hi[i] = v
			}
		}
	}
	var ranges [3]int
	for i := 0; i < 3; i++ {
		ranges[i] = int(hi[i]) - int(lo[i])
	}
	comp := 0
	if ranges[1] > ranges[0] && ranges[1] > ranges[2] {
		comp = 1
	} else if ranges[2] > ranges[0] && ranges[2] > ranges[1] {
		comp = 2
	}
	if comp == lastComp {
		d1 := abs(ranges[comp] - ranges[(comp+1)%3])
		d2 := abs(ranges[comp] - ranges[(comp+2)%3])
		switch {
		case d1 < 8 && d2 < 8:
			if ranges[(comp+1)%3] > ranges[(comp+2)%3] {
				comp = (comp + 1) % 3
			} else {
				comp = (comp + 2) % 3
			}
		case d1 < 8:
			comp = (comp + 1) % 3
		case d2 < 8:
			comp = (comp + 2) % 3
		}
	}

	sortByComponent(pixels, comp)
	half := len(pixels) / 2
	left, right := pixels[:half], pixels[half:]
	q.Push(func() error {
		medianCut(left, num/2, comp, res[:num/2], q)
		return nil
	})
	q.Push(func() error {
		medianCut(right, num/2, comp, res[num/2:], q)
		return nil
	})
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
