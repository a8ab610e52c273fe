/*
NAME
  generator_test.go

DESCRIPTION
  generator_test.go contains tests for the frame serializers.

AUTHOR
  Trek Hopton <trek@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package generator

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"math/rand"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ausocean/sanjuuni/frame"
)

func TestMakeRawImageHeader(t *testing.T) {
	screen := []byte{0x80, 0x80, 0x81, 0x81}
	cols := []byte{0xF0, 0xF0, 0xF0, 0xF0}
	pal := make(frame.Palette, 16)

	var want bytes.Buffer
	want.Write(make([]byte, 4))
	binary.Write(&want, binary.LittleEndian, uint16(2))
	binary.Write(&want, binary.LittleEndian, uint16(2))
	want.Write(make([]byte, 8))
	want.Write([]byte{0x80, 2, 0x81, 2})
	want.Write([]byte{0xF0, 4})
	want.Write(make([]byte, 48))

	enc := base64.StdEncoding.EncodeToString(want.Bytes())
	exp := fmt.Sprintf("!CPC%04X%s%08x\n", len(enc), enc, crc32.ChecksumIEEE(want.Bytes()))

	got := MakeRawImage(screen, cols, pal, 2, 2)
	if got != exp {
		t.Errorf("raw frame mismatch:\n got %q\nwant %q", got, exp)
	}
}

func TestRawRoundTrip(t *testing.T) {
	rnd := rand.New(rand.NewSource(9))
	w, h := 13, 7
	screen := make([]byte, w*h)
	cols := make([]byte, w*h)
	for i := range screen {
		screen[i] = byte(0x80 | rnd.Intn(32))
		cols[i] = byte(rnd.Intn(256))
	}
	pal := make(frame.Palette, 16)
	for i := range pal {
		pal[i] = frame.RGB{uint8(rnd.Intn(256)), uint8(rnd.Intn(256)), uint8(rnd.Intn(256))}
	}

	s := MakeRawImage(screen, cols, pal, w, h)
	gs, gc, gp, gw, gh, err := DecodeRawImage(s)
	if err != nil {
		t.Fatalf("DecodeRawImage: %v", err)
	}
	if gw != w || gh != h {
		t.Fatalf("size = %dx%d, want %dx%d", gw, gh, w, h)
	}
	if !bytes.Equal(gs, screen) {
		t.Error("screen plane does not round trip")
	}
	if !bytes.Equal(gc, cols) {
		t.Error("color plane does not round trip")
	}
	if !cmp.Equal(gp, pal) {
		t.Errorf("palette mismatch: %v", cmp.Diff(pal, gp))
	}
}

func TestRawLongRun(t *testing.T) {
	// A run longer than 255 must split.
	w, h := 30, 10
	screen := bytes.Repeat([]byte{0x85}, w*h)
	cols := bytes.Repeat([]byte{0x10}, w*h)
	s := MakeRawImage(screen, cols, make(frame.Palette, 16), w, h)
	gs, gc, _, _, _, err := DecodeRawImage(s)
	if err != nil {
		t.Fatalf("DecodeRawImage: %v", err)
	}
	if !bytes.Equal(gs, screen) || !bytes.Equal(gc, cols) {
		t.Error("long run does not round trip")
	}
}

func TestMakeTable(t *testing.T) {
	chars := []byte{' ', 0x8A}
	cols := []byte{0x30, 0x01}
	pal := frame.Palette{{255, 255, 255}, {0, 0, 0}}
	got := MakeTable(chars, cols, pal, 2, 1, TableOptions{Compact: true})
	if !strings.HasPrefix(got, "{{\" \\138\",\"01\",\"30\"},") {
		t.Errorf("unexpected table prefix: %q", got)
	}
	if !strings.Contains(got, "[0]={1.000000,1.000000,1.000000},") {
		t.Errorf("palette entry 0 missing or malformed: %q", got)
	}
	if !strings.Contains(got, "},{") {
		t.Errorf("palette separator missing: %q", got)
	}
}

func TestMakeTableEmbedPalette(t *testing.T) {
	got := MakeTable([]byte{' '}, []byte{0x00}, frame.Palette{{0, 0, 0}}, 1, 1, TableOptions{Compact: true, EmbedPalette: true})
	if !strings.Contains(got, "palette={") || !strings.HasSuffix(got, "}}") {
		t.Errorf("BIMG table malformed: %q", got)
	}
}

func TestMakeNFP(t *testing.T) {
	// One cell: char with bits 0 and 3 set, fg=1, bg=0.
	chars := []byte{0x80 | 0b01001}
	cols := []byte{0x01}
	got := MakeNFP(chars, cols, frame.Palette{{255, 255, 255}, {0, 0, 0}}, 1, 1)
	want := "10\n01\n00\n"
	if got != want {
		t.Errorf("NFP = %q, want %q", got, want)
	}
}

func TestMakeLuaFile(t *testing.T) {
	got := MakeLuaFile([]byte{' '}, []byte{0x00}, frame.Palette{{0, 0, 0}}, 1, 1)
	if !strings.HasPrefix(got, "local image, palette = {") {
		t.Errorf("lua file prefix wrong: %q", got[:40])
	}
	if !strings.Contains(got, "term.blit(table.unpack(r))") {
		t.Error("lua player body missing")
	}
}
