/*
NAME
  audiofile.go

DESCRIPTION
  audiofile provides an input device reading WAV and FLAC files and
  resampling them into the 48 kHz unsigned 8-bit mono PCM the display
  formats carry.

AUTHOR
  Trek Hopton <trek@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package audiofile reads WAV and FLAC files into PCM-u8 mono 48 kHz.
package audiofile

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"
	"github.com/mewkiz/flac"
	"github.com/pkg/errors"
)

// TargetRate is the output sample rate.
const TargetRate = 48000

// Read decodes path into unsigned 8-bit mono samples at 48 kHz.
func Read(path string) ([]byte, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return readWAV(path)
	case ".flac":
		return readFLAC(path)
	}
	return nil, errors.Errorf("audiofile: unsupported format %q", filepath.Ext(path))
}

func readWAV(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, errors.Wrap(err, "audiofile: decoding wav")
	}
	if buf.Format == nil || buf.Format.NumChannels == 0 {
		return nil, errors.New("audiofile: wav has no format")
	}
	shift := uint(0)
	if dec.BitDepth > 8 {
		shift = uint(dec.BitDepth - 8)
	}
	ch := buf.Format.NumChannels
	mono := make([]byte, 0, len(buf.Data)/ch)
	for i := 0; i+ch <= len(buf.Data); i += ch {
		sum := 0
		for j := 0; j < ch; j++ {
			sum += buf.Data[i+j]
		}
		v := (sum / ch) >> shift
		if dec.BitDepth > 8 {
			// Signed to unsigned.
			v += 128
		}
		mono = append(mono, clampU8(v))
	}
	return resample(mono, buf.Format.SampleRate), nil
}

func readFLAC(path string) ([]byte, error) {
	stream, err := flac.ParseFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "audiofile: decoding flac")
	}
	bps := stream.Info.BitsPerSample
	nch := int(stream.Info.NChannels)
	shift := uint(0)
	if bps > 8 {
		shift = uint(bps - 8)
	}
	var mono []byte
	for {
		fr, err := stream.ParseNext()
		if err != nil {
			break
		}
		n := len(fr.Subframes[0].Samples)
		for i := 0; i < n; i++ {
			sum := 0
			for c := 0; c < nch; c++ {
				sum += int(fr.Subframes[c].Samples[i])
			}
			v := (sum / nch) >> shift
			if bps > 8 {
				v += 128
			}
			mono = append(mono, clampU8(v))
		}
	}
	return resample(mono, int(stream.Info.SampleRate)), nil
}

// resample converts mono u8 samples to 48 kHz by linear
// interpolation.
func resample(in []byte, rate int) []byte {
	if rate == TargetRate || rate <= 0 || len(in) == 0 {
		return in
	}
	n := len(in) * TargetRate / rate
	out := make([]byte, n)
	for i := range out {
		pos := float64(i) * float64(rate) / TargetRate
		j := int(pos)
		if j >= len(in)-1 {
			out[i] = in[len(in)-1]
			continue
		}
		t := pos - float64(j)
		out[i] = byte(float64(in[j])*(1-t) + float64(in[j+1])*t)
	}
	return out
}

func clampU8(v int) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v)
}
