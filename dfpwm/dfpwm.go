/*
NAME
  dfpwm.go

DESCRIPTION
  DFPWM1a audio codec: a one-bit delta codec with a dynamic charge
  strength, after Ben "GreaseMonkey" Russell's public domain reference.
  Eight samples pack into one byte, LSB first. Samples are unsigned
  8-bit mono.

AUTHOR
  Trek Hopton <trek@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package dfpwm provides functions to transcode between PCM and DFPWM.
package dfpwm

import "io"

// SampleRate is the nominal sample rate of DFPWM audio streams.
const SampleRate = 48000

// lpfStrength is the response strength of the decoder's low-pass
// filter, matching the reference player.
const lpfStrength = 140

// CompFact is the compression factor: eight samples per byte.
const CompFact = 8

type state struct {
	q  int // charge
	s  int // strength
	lt int // last target
	fq int // filtered charge (decoder low pass)
}

// Encoder compresses PCM-u8 samples to DFPWM.
type Encoder struct {
	dst io.Writer
	st  state
}

// NewEncoder returns a new DFPWM Encoder writing to dst.
func NewEncoder(dst io.Writer) *Encoder {
	return &Encoder{dst: dst, st: state{lt: -128}}
}

// encodeSample advances the codec state for one signed sample and
// returns the encoded bit.
func (e *Encoder) encodeSample(v int) int {
	st := &e.st
	t := 127
	if v < st.q || v == -128 {
		t = -128
	}

	// Adjust charge towards the target.
	nq := st.q + (st.s*(t-st.q)+512)>>10
	if nq == st.q && nq != t {
		if t == 127 {
			nq++
		} else {
			nq--
		}
	}
	st.q = nq

	// Adjust strength depending on whether the target flipped.
	target := 0
	if t == st.lt {
		target = 1023
	}
	if st.s != target {
		if target != 0 {
			st.s++
		} else {
			st.s--
		}
	}
	// Keep the strength floor in step with the decoder so the charge
	// estimates do not drift apart.
	if st.s < 8 {
		st.s = 8
	}
	st.lt = t

	if t > 0 {
		return 1
	}
	return 0
}

// Write compresses len(p) unsigned samples, emitting one byte per
// eight samples. Trailing samples short of a full byte are dropped.
// The number of compressed bytes written is returned.
func (e *Encoder) Write(p []byte) (int, error) {
	out := make([]byte, 0, len(p)/CompFact)
	for i := 0; i+CompFact <= len(p); i += CompFact {
		var d byte
		for j := 0; j < CompFact; j++ {
			d >>= 1
			if e.encodeSample(int(p[i+j])-128) != 0 {
				d |= 0x80
			}
		}
		out = append(out, d)
	}
	return e.dst.Write(out)
}

// Decoder decompresses DFPWM to PCM-u8 samples.
type Decoder struct {
	dst io.Writer
	st  state
}

// NewDecoder returns a new DFPWM Decoder writing to dst.
func NewDecoder(dst io.Writer) *Decoder {
	return &Decoder{dst: dst, st: state{lt: -128}}
}

// Write decompresses len(p) DFPWM bytes into 8*len(p) unsigned
// samples. The number of samples written is returned.
func (d *Decoder) Write(p []byte) (int, error) {
	st := &d.st
	out := make([]byte, 0, len(p)*CompFact)
	for _, b := range p {
		for j := 0; j < CompFact; j++ {
			t := -128
			if b&1 != 0 {
				t = 127
			}
			b >>= 1

			// Adjust charge.
			nq := st.q + (st.s*(t-st.q)+512)>>10
			if nq == st.q && nq != t {
				if t == 127 {
					nq++
				} else {
					nq--
				}
			}
			lq := st.q
			st.q = nq

			// Adjust strength.
			target := 0
			if t == st.lt {
				target = 1023
			}
			if st.s != target {
				if target != 0 {
					st.s++
				} else {
					st.s--
				}
			}
			if st.s < 8 {
				st.s = 8
			}

			// Antijerk on transitions, then the output low pass.
			ov := nq
			if t != st.lt {
				ov = (nq + lq + 1) >> 1
			}
			st.fq += (lpfStrength*(ov-st.fq) + 0x80) >> 8
			out = append(out, byte(st.fq+128))

			st.lt = t
		}
	}
	return d.dst.Write(out)
}

// EncBytes returns the number of DFPWM bytes produced for n PCM
// samples.
func EncBytes(n int) int { return n / CompFact }
