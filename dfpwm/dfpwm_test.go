/*
NAME
  dfpwm_test.go

DESCRIPTION
  dfpwm_test.go contains tests for the DFPWM codec.

AUTHOR
  Trek Hopton <trek@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package dfpwm

import (
	"bytes"
	"math"
	"testing"
)

func TestEncodeLength(t *testing.T) {
	var comp bytes.Buffer
	enc := NewEncoder(&comp)
	in := make([]byte, 48000)
	for i := range in {
		in[i] = 128
	}
	n, err := enc.Write(in)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if n != len(in)/CompFact || comp.Len() != n {
		t.Errorf("wrote %d bytes, want %d", comp.Len(), len(in)/CompFact)
	}
}

func TestDecodeLength(t *testing.T) {
	var pcm bytes.Buffer
	dec := NewDecoder(&pcm)
	n, err := dec.Write(make([]byte, 6000))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if n != 48000 || pcm.Len() != 48000 {
		t.Errorf("decoded %d samples, want 48000", pcm.Len())
	}
}

func TestDeterministic(t *testing.T) {
	in := make([]byte, 4096)
	for i := range in {
		in[i] = byte(128 + 100*math.Sin(float64(i)/20))
	}
	var a, b bytes.Buffer
	NewEncoder(&a).Write(in)
	NewEncoder(&b).Write(in)
	if !bytes.Equal(a.Bytes(), b.Bytes()) {
		t.Error("encoding is not deterministic")
	}
}

// TestSineRoundTrip checks that a slow sine survives the codec with a
// bounded error after the filters settle.
func TestSineRoundTrip(t *testing.T) {
	n := 48000
	in := make([]byte, n)
	for i := range in {
		in[i] = byte(128 + 60*math.Sin(2*math.Pi*float64(i)*220/48000))
	}
	var comp bytes.Buffer
	if _, err := NewEncoder(&comp).Write(in); err != nil {
		t.Fatalf("encode: %v", err)
	}
	var out bytes.Buffer
	if _, err := NewDecoder(&out).Write(comp.Bytes()); err != nil {
		t.Fatalf("decode: %v", err)
	}
	dec := out.Bytes()
	if len(dec) != n {
		t.Fatalf("decoded %d samples, want %d", len(dec), n)
	}
	// Skip the first quarter second while the charge strength adapts.
	var sum float64
	count := 0
	for i := 12000; i < n; i++ {
		d := float64(dec[i]) - float64(in[i])
		sum += d * d
		count++
	}
	rms := math.Sqrt(sum / float64(count))
	if rms > 40 {
		t.Errorf("RMS error %.1f too high for a 220 Hz sine", rms)
	}
}
