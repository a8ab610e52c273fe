/*
NAME
  convert_test.go

DESCRIPTION
  convert_test.go contains configuration and pipeline tests for the
  convert package.

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

package convert

import (
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ausocean/utils/logging"

	"github.com/ausocean/sanjuuni/vid32"
)

func testLogger() logging.Logger {
	return logging.New(logging.Warning, io.Discard, true)
}

// writeTestPNG writes a small two-tone PNG and returns its path.
func writeTestPNG(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.RGBA{0, 0, 0, 255}
			if (x/2+y/3)%2 == 0 {
				c = color.RGBA{255, 255, 255, 255}
			}
			img.Set(x, y, c)
		}
	}
	path := filepath.Join(t.TempDir(), "in.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create test image: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode test image: %v", err)
	}
	return path
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"no input", Config{Logger: testLogger()}, true},
		{"no logger", Config{Input: "x.png"}, true},
		{"ok lua", Config{Input: "x.png", Mode: ModeLua, Logger: testLogger()}, false},
		{"http no port", Config{Input: "x.png", Mode: ModeHTTP, Logger: testLogger()}, true},
		{"ws client no url", Config{Input: "x.png", Mode: ModeWebSocketClient, Logger: testLogger()}, true},
		{"bad level", Config{Input: "x.png", CompressionLevel: 11, Logger: testLogger()}, true},
		{"streamed file mode", Config{Input: "x.png", Mode: ModeLua, Streamed: true, Logger: testLogger()}, true},
	}
	for _, tt := range tests {
		err := tt.cfg.Validate()
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: Validate() error = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{Input: "x.png", Logger: testLogger()}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.CompressionLevel != defaultCompressionLevel {
		t.Errorf("compression level = %d, want %d", cfg.CompressionLevel, defaultCompressionLevel)
	}
	if cfg.Width != -1 || cfg.Height != -1 {
		t.Errorf("size defaults = %dx%d, want -1x-1", cfg.Width, cfg.Height)
	}
}

func TestRunLua(t *testing.T) {
	in := writeTestPNG(t, 8, 9)
	out := filepath.Join(t.TempDir(), "out.lua")
	c, err := New(Config{Input: in, Output: out, Mode: ModeLua, Logger: testLogger()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()
	if err := c.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !strings.HasPrefix(string(data), "local image, palette = {") {
		t.Errorf("output does not look like a Lua frame: %q", data[:40])
	}
}

func TestRunRaw(t *testing.T) {
	in := writeTestPNG(t, 8, 9)
	out := filepath.Join(t.TempDir(), "out.raw")
	c, err := New(Config{Input: in, Output: out, Mode: ModeRaw, Logger: testLogger()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()
	if err := c.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !strings.HasPrefix(string(data), "32Vid 1.1\n") {
		t.Errorf("raw prologue missing: %q", data[:16])
	}
	if !strings.Contains(string(data), "!CPC") {
		t.Error("raw frame marker missing")
	}
}

func TestRun32Vid(t *testing.T) {
	in := writeTestPNG(t, 16, 18)
	out := filepath.Join(t.TempDir(), "out.32v")
	c, err := New(Config{
		Input:       in,
		Output:      out,
		Mode:        Mode32Vid,
		Compression: vid32.CompressionCustom,
		Logger:      testLogger(),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()
	if err := c.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	f, err := os.Open(out)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer f.Close()
	v, err := vid32.Decode(f)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(v.Frames) != 1 {
		t.Fatalf("decoded %d frames, want 1", len(v.Frames))
	}
	if v.Header.Width != 8 || v.Header.Height != 6 {
		t.Errorf("header size = %dx%d cells, want 8x6", v.Header.Width, v.Header.Height)
	}
	for _, ch := range v.Frames[0].Chars {
		if ch&0x80 == 0 {
			t.Fatal("decoded character missing high bit")
		}
	}
}

func TestStorageStreamedAudio(t *testing.T) {
	s := newStorage(true)
	// Client asks before the encoder has produced: padded chunk, then
	// later appends drop the served prefix.
	chunk, ok := s.audioNext(10)
	if !ok || len(chunk) != 10 {
		t.Fatalf("audioNext = %v, %v", chunk, ok)
	}
	s.appendAudio([]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12})
	chunk, ok = s.audioNext(10)
	if !ok {
		t.Fatal("audioNext failed after append")
	}
	if chunk[0] != 11 || chunk[1] != 12 {
		t.Errorf("served prefix was not dropped: % d", chunk[:4])
	}
}

func TestStorageFrames(t *testing.T) {
	s := newStorage(false)
	s.addFrame("a")
	s.addFrame("b")
	if f, ok := s.frame(1); !ok || f != "b" {
		t.Errorf("frame(1) = %q, %v", f, ok)
	}
	if _, ok := s.frame(2); ok {
		t.Error("frame(2) should be out of range")
	}
	if n := s.frameCount(); n != 2 {
		t.Errorf("frameCount = %d, want 2", n)
	}
}
