/*
NAME
  ans.go

DESCRIPTION
  Table-based asymmetric-numeral-system coding for 32vid streams. The
  frequency table is quasi-logarithmic: each used symbol's slot count
  is a power of two packed as a four-bit exponent, so decoder bit
  counts are constant per symbol.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>
  Dan Kortschak <dan@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package vid32

import (
	"bytes"
	"io"
	"math/bits"

	"github.com/icza/bitio"
	"github.com/pkg/errors"

	"github.com/ausocean/sanjuuni/frame"
)

// ansLogSize is the table size exponent R used by the encoder. The
// decoder accepts any R the stream declares.
const ansLogSize = 12

type ansEntry struct {
	x   uint32
	n   uint8
	sym uint8
}

// ansSpread walks the table slots with the fixed stride L/2 + L/8 + 3,
// placing each symbol freq[i] times and skipping filled slots. It
// returns the symbol occupying each slot.
func ansSpread(freqs []uint32, logSize uint8) []uint8 {
	l := uint32(1) << logSize
	mask := l - 1
	step := l>>1 + l>>3 + 3
	slots := make([]uint8, l)
	for i := range slots {
		slots[i] = 0xFF
	}
	x := uint32(0)
	for sym, f := range freqs {
		for j := uint32(0); j < f; j++ {
			for slots[x] != 0xFF {
				x = (x + 1) & mask
			}
			slots[x] = uint8(sym)
			x = (x + step) & mask
		}
	}
	return slots
}

// ansTable builds the decoding table over the spread slots: for the
// k-th occurrence of symbol s (table order) the entry transitions to
// base ((freq[s]+k) << n) - L with n = R - log2(freq[s]+k).
func ansTable(freqs []uint32, logSize uint8) []ansEntry {
	slots := ansSpread(freqs, logSize)
	l := uint32(1) << logSize
	next := make([]uint32, len(freqs))
	copy(next, freqs)
	table := make([]ansEntry, l)
	for x := uint32(0); x < l; x++ {
		s := slots[x]
		n := logSize - uint8(bits.Len32(next[s])-1)
		table[x] = ansEntry{
			x:   next[s]<<n - l,
			n:   n,
			sym: s,
		}
		next[s]++
	}
	return table
}

// ansFreqs quantizes a histogram to power-of-two slot counts summing
// exactly to 1<<logSize, with every used symbol getting at least one
// slot. Exponents stay within the four-bit table field.
func ansFreqs(hist []uint64, logSize uint8) []uint32 {
	l := uint64(1) << logSize
	var total uint64
	used := 0
	for _, h := range hist {
		total += h
		if h != 0 {
			used++
		}
	}
	freqs := make([]uint32, len(hist))
	var sum uint64
	for i, h := range hist {
		if h == 0 {
			continue
		}
		f := h * l / total
		// Round down to a power of two, min 1, max 2^14.
		if f < 1 {
			f = 1
		}
		f = 1 << (bits.Len64(f) - 1)
		if f > 1<<14 {
			f = 1 << 14
		}
		freqs[i] = uint32(f)
		sum += f
	}
	// Adjust to the exact table size: double the largest-traffic
	// entries while there is room, halving the smallest when over.
	for sum != l {
		if sum < l {
			best := -1
			for i, f := range freqs {
				if f == 0 || uint64(f) > l-sum || f >= 1<<14 {
					continue
				}
				if best < 0 || hist[i]*uint64(freqs[best]) > hist[best]*uint64(f) {
					// Prefer the symbol with the highest count per slot.
					best = i
				}
			}
			if best < 0 {
				// No entry can grow by doubling; normalization fails.
				panic("vid32: cannot normalize ANS frequencies")
			}
			sum += uint64(freqs[best])
			freqs[best] *= 2
		} else {
			worst := -1
			for i, f := range freqs {
				if f <= 1 {
					continue
				}
				if worst < 0 || hist[i]*uint64(freqs[worst]) < hist[worst]*uint64(f) {
					worst = i
				}
			}
			if worst < 0 {
				panic("vid32: cannot normalize ANS frequencies")
			}
			sum -= uint64(freqs[worst]) / 2
			freqs[worst] /= 2
		}
	}
	return freqs
}

// ansEncodeBlock writes one ANS-coded block: the R byte, the packed
// four-bit exponent table, and the bitstream holding the initial state
// and the per-symbol transition bits. A block with a single distinct
// symbol is stored as R = 0 and the symbol byte.
func ansEncodeBlock(buf *bytes.Buffer, syms []uint8, alphabet int) error {
	hist := make([]uint64, alphabet)
	for _, s := range syms {
		hist[s]++
	}
	used := 0
	solid := uint8(0)
	for s, h := range hist {
		if h != 0 {
			used++
			solid = uint8(s)
		}
	}
	if used <= 1 {
		buf.WriteByte(0)
		buf.Write(make([]byte, alphabet/2))
		buf.WriteByte(solid)
		return nil
	}

	freqs := ansFreqs(hist, ansLogSize)
	l := uint32(1) << ansLogSize

	buf.WriteByte(ansLogSize)
	for i := 0; i < alphabet; i += 2 {
		buf.WriteByte(ansExp(freqs[i])<<4 | ansExp(freqs[i+1]))
	}

	// Index the slot of each (symbol, occurrence) so encoding can run
	// the decoder transitions backwards.
	slots := ansSpread(freqs, ansLogSize)
	slotOf := make([][]uint32, alphabet)
	for x := uint32(0); x < l; x++ {
		s := slots[x]
		slotOf[s] = append(slotOf[s], x)
	}
	logFreq := make([]uint8, alphabet)
	for i, f := range freqs {
		if f != 0 {
			logFreq[i] = uint8(bits.Len32(f) - 1)
		}
	}

	// Process symbols in reverse, collecting the transition bits the
	// decoder will read forwards.
	type emit struct {
		v uint32
		n uint8
	}
	emits := make([]emit, 0, len(syms))
	state := uint32(0) // decoder state after the final symbol
	for i := len(syms) - 1; i >= 0; i-- {
		s := syms[i]
		d := state + l
		n := ansLogSize - logFreq[s]
		emits = append(emits, emit{v: d & (uint32(1)<<n - 1), n: n})
		state = slotOf[s][d>>n-freqs[s]]
	}

	w := bitio.NewWriter(buf)
	if err := w.WriteBits(uint64(state), ansLogSize); err != nil {
		return err
	}
	for i := len(emits) - 1; i >= 0; i-- {
		if err := w.WriteBits(uint64(emits[i].v), emits[i].n); err != nil {
			return err
		}
	}
	return w.Close()
}

func ansExp(f uint32) byte {
	if f == 0 {
		return 0
	}
	return byte(bits.Len32(f)) // log2(f) + 1
}

// ansDecoder decodes one block written by ansEncodeBlock.
type ansDecoder struct {
	table   []ansEntry
	br      *bitio.Reader
	state   uint32
	solid   int // -1 unless R == 0
	isColor bool
	last    uint8
}

// newANSDecoder reads the table header for a block over the given
// alphabet. Color-plane decoders expand RLE meta-symbols.
func newANSDecoder(r io.Reader, alphabet int, isColor bool) (*ansDecoder, error) {
	var hdr [1]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, errors.Wrap(err, "vid32: short ANS header")
	}
	logSize := hdr[0]
	packed := make([]byte, alphabet/2)
	if _, err := io.ReadFull(r, packed); err != nil {
		return nil, errors.Wrap(err, "vid32: short ANS frequency table")
	}
	d := &ansDecoder{solid: -1, isColor: isColor}
	if logSize == 0 {
		var sym [1]byte
		if _, err := io.ReadFull(r, sym[:]); err != nil {
			return nil, errors.Wrap(err, "vid32: short ANS literal")
		}
		d.solid = int(sym[0])
		return d, nil
	}
	if logSize > 16 {
		return nil, errors.Errorf("vid32: unreasonable ANS table size 2^%d", logSize)
	}
	freqs := make([]uint32, alphabet)
	for i, b := range packed {
		if e := b >> 4; e != 0 {
			freqs[i*2] = 1 << (e - 1)
		}
		if e := b & 0x0F; e != 0 {
			freqs[i*2+1] = 1 << (e - 1)
		}
	}
	var sum uint32
	for _, f := range freqs {
		sum += f
	}
	if sum != 1<<logSize {
		return nil, errors.Errorf("vid32: ANS frequencies sum to %d, want %d", sum, 1<<logSize)
	}
	d.table = ansTable(freqs, logSize)
	d.br = bitio.NewReader(r)
	state, err := d.br.ReadBits(logSize)
	if err != nil {
		return nil, errors.Wrap(err, "vid32: short ANS state")
	}
	d.state = uint32(state)
	return d, nil
}

// Read decodes exactly n expanded symbols. RLE expansions that
// overshoot the boundary are clamped; the run state persists across
// calls so the bg plane can follow the fg plane.
func (d *ansDecoder) Read(n int) ([]uint8, error) {
	out := make([]uint8, 0, n)
	if d.solid >= 0 {
		for i := 0; i < n; i++ {
			out = append(out, uint8(d.solid))
		}
		return out, nil
	}
	for len(out) < n {
		t := d.table[d.state]
		if d.isColor && t.sym >= 16 {
			out = rleExpand(out, t.sym, &d.last)
		} else {
			d.last = t.sym
			out = append(out, t.sym)
		}
		b, err := d.br.ReadBits(t.n)
		if err != nil {
			return nil, errors.Wrap(err, "vid32: truncated ANS stream")
		}
		d.state = t.x + uint32(b)
	}
	return out[:n], nil
}

// MakeANSFrame serializes one video frame with ANS coding: a screen
// block, a color block of the RLE fg then bg symbol streams, then the
// palette.
func MakeANSFrame(chars, cols []byte, pal frame.Palette, width, height int) ([]byte, error) {
	screen := make([]uint8, len(chars))
	for i, c := range chars {
		screen[i] = c & 0x1F
	}
	fg := make([]uint8, len(cols))
	bg := make([]uint8, len(cols))
	for i, c := range cols {
		fg[i] = c & 0x0F
		bg[i] = c >> 4
	}
	var colorSyms []uint8
	rleEncode(fg, func(s uint8) { colorSyms = append(colorSyms, s) })
	rleEncode(bg, func(s uint8) { colorSyms = append(colorSyms, s) })

	var buf bytes.Buffer
	if err := ansEncodeBlock(&buf, screen, screenAlphabet); err != nil {
		return nil, err
	}
	if err := ansEncodeBlock(&buf, colorSyms, colorAlphabet); err != nil {
		return nil, err
	}
	appendPalette(&buf, pal)
	return buf.Bytes(), nil
}

// DecodeANSFrame reverses MakeANSFrame. Characters come back with the
// high bit set.
func DecodeANSFrame(r io.Reader, width, height int) (chars, cols []byte, pal frame.Palette, err error) {
	cells := width * height

	sd, err := newANSDecoder(r, screenAlphabet, false)
	if err != nil {
		return nil, nil, nil, err
	}
	screen, err := sd.Read(cells)
	if err != nil {
		return nil, nil, nil, err
	}
	chars = make([]byte, cells)
	for i, s := range screen {
		chars[i] = s | 0x80
	}

	cd, err := newANSDecoder(r, colorAlphabet, true)
	if err != nil {
		return nil, nil, nil, err
	}
	fg, err := cd.Read(cells)
	if err != nil {
		return nil, nil, nil, err
	}
	bg, err := cd.Read(cells)
	if err != nil {
		return nil, nil, nil, err
	}
	cols = make([]byte, cells)
	for i := range cols {
		cols[i] = bg[i]<<4 | fg[i]
	}

	pal, err = readPalette(r)
	if err != nil {
		return nil, nil, nil, err
	}
	return chars, cols, pal, nil
}
