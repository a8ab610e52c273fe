/*
NAME
  quantize_test.go

DESCRIPTION
  quantize_test.go contains tests for palette reduction and dithering.

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

package quantize

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/ausocean/sanjuuni/frame"
	"github.com/ausocean/sanjuuni/workqueue"
)

func testQueue(t *testing.T) *workqueue.Queue {
	t.Helper()
	q := workqueue.New(4)
	t.Cleanup(q.Close)
	return q
}

// checkerboard builds a w*h image cycling through the given colors.
func checkerboard(w, h int, colors []frame.RGB) *frame.Image {
	img := frame.NewImage(w, h)
	for i := range img.Pix {
		img.Pix[i] = colors[i%len(colors)]
	}
	return img
}

func checkOrdering(t *testing.T, pal frame.Palette) {
	t.Helper()
	for i := 1; i < len(pal); i++ {
		if pal[0].Sum() < pal[i].Sum() {
			t.Errorf("palette entry 0 (%v) is not the lightest", pal[0])
		}
		if pal[len(pal)-1].Sum() > pal[i-1].Sum() {
			t.Errorf("palette entry %d (%v) is not the darkest", len(pal)-1, pal[len(pal)-1])
		}
	}
}

func TestMedianCutPowerOfTwo(t *testing.T) {
	q := testQueue(t)
	img := checkerboard(8, 8, []frame.RGB{{0, 0, 0}, {255, 255, 255}})
	if _, err := MedianCut(img, 12, q); !errors.Is(err, ErrNotPowerOfTwo) {
		t.Errorf("MedianCut(12) error = %v, want ErrNotPowerOfTwo", err)
	}
}

func TestMedianCutSmallImage(t *testing.T) {
	q := testQueue(t)
	colors := []frame.RGB{{10, 10, 10}, {200, 50, 50}, {50, 200, 50}, {240, 240, 240}}
	img := checkerboard(16, 16, colors)
	pal, err := MedianCut(img, 16, q)
	if err != nil {
		t.Fatalf("MedianCut: %v", err)
	}
	// The image has four distinct colors, so the palette is exactly
	// those colors, reordered.
	if len(pal) != 4 {
		t.Fatalf("palette size = %d, want 4", len(pal))
	}
	checkOrdering(t, pal)
	for _, want := range colors {
		found := false
		for _, got := range pal {
			if got == want {
				found = true
			}
		}
		if !found {
			t.Errorf("color %v missing from palette %v", want, pal)
		}
	}
}

func TestMedianCutReduces(t *testing.T) {
	q := testQueue(t)
	rnd := rand.New(rand.NewSource(1))
	img := frame.NewImage(64, 64)
	for i := range img.Pix {
		img.Pix[i] = frame.RGB{uint8(rnd.Intn(256)), uint8(rnd.Intn(256)), uint8(rnd.Intn(256))}
	}
	pal, err := MedianCut(img, 16, q)
	if err != nil {
		t.Fatalf("MedianCut: %v", err)
	}
	if len(pal) != 16 {
		t.Fatalf("palette size = %d, want 16", len(pal))
	}
	checkOrdering(t, pal)
}

func TestOctreeExactColors(t *testing.T) {
	colors := []frame.RGB{{0, 0, 0}, {255, 0, 0}, {0, 255, 0}, {255, 255, 255}}
	img := checkerboard(12, 12, colors)
	pal := Octree(img, 16)
	if len(pal) != 16 {
		t.Fatalf("palette size = %d, want 16", len(pal))
	}
	checkOrdering(t, pal)
	for _, want := range colors {
		found := false
		for _, got := range pal {
			if got == want {
				found = true
			}
		}
		if !found {
			t.Errorf("color %v missing from palette %v", want, pal)
		}
	}
}

func TestOctreeReduces(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	img := frame.NewImage(48, 48)
	for i := range img.Pix {
		img.Pix[i] = frame.RGB{uint8(rnd.Intn(256)), uint8(rnd.Intn(256)), uint8(rnd.Intn(256))}
	}
	pal := Octree(img, 16)
	if len(pal) != 16 {
		t.Fatalf("palette size = %d, want 16", len(pal))
	}
	checkOrdering(t, pal)
}

func TestKMeansStableOnFewColors(t *testing.T) {
	q := testQueue(t)
	colors := []frame.RGB{{20, 20, 20}, {230, 230, 230}}
	img := checkerboard(24, 24, colors)
	pal, err := KMeans(img, 16, q)
	if err != nil {
		t.Fatalf("KMeans: %v", err)
	}
	checkOrdering(t, pal)
	// Both source colors must survive clustering.
	for _, want := range colors {
		found := false
		for _, got := range pal {
			if got == want {
				found = true
			}
		}
		if !found {
			t.Errorf("color %v missing from palette %v", want, pal)
		}
	}
}

func TestThresholdIndexDomain(t *testing.T) {
	q := testQueue(t)
	rnd := rand.New(rand.NewSource(3))
	img := frame.NewImage(20, 20)
	for i := range img.Pix {
		img.Pix[i] = frame.RGB{uint8(rnd.Intn(256)), uint8(rnd.Intn(256)), uint8(rnd.Intn(256))}
	}
	pal := frame.Palette{{0, 0, 0}, {85, 85, 85}, {170, 170, 170}, {255, 255, 255}}
	out, err := Threshold(img, pal, q)
	if err != nil {
		t.Fatalf("Threshold: %v", err)
	}
	ind := ToIndexed(out, pal)
	for i, v := range ind.Pix {
		if int(v) >= len(pal) {
			t.Fatalf("index %d at pixel %d out of palette range", v, i)
		}
	}
}

func TestDitherErrorBound(t *testing.T) {
	// After Floyd-Steinberg the mean absolute per-pixel luminance error
	// must not exceed the worst-case nearest-color error of the palette.
	rnd := rand.New(rand.NewSource(11))
	img := frame.NewImage(32, 32)
	for i := range img.Pix {
		img.Pix[i] = frame.RGB{uint8(rnd.Intn(256)), uint8(rnd.Intn(256)), uint8(rnd.Intn(256))}
	}
	pal := frame.Palette{{0, 0, 0}, {64, 64, 64}, {128, 128, 128}, {192, 192, 192}, {255, 255, 255}}

	worst := 0.0
	for v := 0; v < 256; v++ {
		c := frame.RGB{uint8(v), uint8(v), uint8(v)}
		chosen, _ := Nearest(pal, c.Vec())
		if d := frame.Distance(c, chosen); d > worst {
			worst = d
		}
	}

	out := Dither(img, pal)
	var sum float64
	for i := range img.Pix {
		li := 0.299*float64(img.Pix[i].R) + 0.587*float64(img.Pix[i].G) + 0.114*float64(img.Pix[i].B)
		lo := 0.299*float64(out.Pix[i].R) + 0.587*float64(out.Pix[i].G) + 0.114*float64(out.Pix[i].B)
		d := li - lo
		if d < 0 {
			d = -d
		}
		sum += d
	}
	if mean := sum / float64(len(img.Pix)); mean > worst {
		t.Errorf("mean luminance error %.2f exceeds worst nearest-color error %.2f", mean, worst)
	}
}

func TestOrderedDitherDeterministic(t *testing.T) {
	q := testQueue(t)
	rnd := rand.New(rand.NewSource(5))
	img := frame.NewImage(17, 9)
	for i := range img.Pix {
		img.Pix[i] = frame.RGB{uint8(rnd.Intn(256)), uint8(rnd.Intn(256)), uint8(rnd.Intn(256))}
	}
	pal := frame.Palette{{0, 0, 0}, {90, 10, 10}, {10, 90, 10}, {255, 255, 255}}
	a, err := OrderedDither(img, pal, q)
	if err != nil {
		t.Fatalf("OrderedDither: %v", err)
	}
	b, err := OrderedDither(img, pal, q)
	if err != nil {
		t.Fatalf("OrderedDither: %v", err)
	}
	for i := range a.Pix {
		if a.Pix[i] != b.Pix[i] {
			t.Fatalf("ordered dither is not deterministic at pixel %d", i)
		}
	}
}

func TestToIndexedUnmatchedColor(t *testing.T) {
	img := frame.NewImage(1, 1)
	img.Pix[0] = frame.RGB{1, 2, 3}
	pal := frame.Palette{{0, 0, 0}}
	ind := ToIndexed(img, pal)
	if ind.Pix[0] != uint8(len(pal)) {
		t.Errorf("unmatched pixel index = %d, want out-of-range marker %d", ind.Pix[0], len(pal))
	}
}
