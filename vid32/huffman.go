/*
NAME
  huffman.go

DESCRIPTION
  The custom 32vid compression scheme: canonical Huffman codes over
  the 32 five-bit screen codes and the 24-symbol RLE color alphabet,
  with packed four-bit code-length tables.

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
	"container/heap"
	"io"
	"sort"

	"github.com/icza/bitio"
	"github.com/pkg/errors"

	"github.com/ausocean/sanjuuni/frame"
)

// ErrCodeTooLong reports a canonical code length beyond the 4-bit
// length table.
var ErrCodeTooLong = errors.New("vid32: huffman code longer than 15 bits")

type huffNode struct {
	weight      uint64
	symbol      uint8
	seq         int // insertion order, for deterministic ties
	left, right *huffNode
}

type huffHeap []*huffNode

func (h huffHeap) Len() int { return len(h) }
func (h huffHeap) Less(i, j int) bool {
	if h[i].weight != h[j].weight {
		return h[i].weight < h[j].weight
	}
	return h[i].seq < h[j].seq
}
func (h huffHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *huffHeap) Push(x interface{}) { *h = append(*h, x.(*huffNode)) }
func (h *huffHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// codeLengths derives per-symbol canonical code lengths from symbol
// weights. Symbols with zero weight get length zero. The result is
// deterministic for equal inputs.
func codeLengths(weights []uint64) ([]uint8, error) {
	var h huffHeap
	seq := 0
	for sym, w := range weights {
		if w == 0 {
			continue
		}
		h = append(h, &huffNode{weight: w, symbol: uint8(sym), seq: seq})
		seq++
	}
	lengths := make([]uint8, len(weights))
	switch len(h) {
	case 0:
		return lengths, nil
	case 1:
		// A single used symbol is handled by the solid-frame special
		// case; report it with length zero.
		return lengths, nil
	}
	heap.Init(&h)
	for h.Len() > 1 {
		a := heap.Pop(&h).(*huffNode)
		b := heap.Pop(&h).(*huffNode)
		heap.Push(&h, &huffNode{weight: a.weight + b.weight, seq: seq, left: a, right: b})
		seq++
	}
	root := h[0]
	var walk func(n *huffNode, depth uint8) error
	walk = func(n *huffNode, depth uint8) error {
		if n.left == nil && n.right == nil {
			if depth > 15 {
				return ErrCodeTooLong
			}
			lengths[n.symbol] = depth
			return nil
		}
		if err := walk(n.left, depth+1); err != nil {
			return err
		}
		return walk(n.right, depth+1)
	}
	if err := walk(root, 0); err != nil {
		return nil, err
	}
	return lengths, nil
}

// canonicalCodes assigns codewords from lengths by the canonical rule:
// symbols sorted by (length, symbol); the first code is zero and each
// next is (previous+1) << (len - prevLen).
func canonicalCodes(lengths []uint8) []uint16 {
	type sym struct {
		s uint8
		l uint8
	}
	var used []sym
	for s, l := range lengths {
		if l != 0 {
			used = append(used, sym{uint8(s), l})
		}
	}
	sort.Slice(used, func(i, j int) bool {
		if used[i].l != used[j].l {
			return used[i].l < used[j].l
		}
		return used[i].s < used[j].s
	})
	codes := make([]uint16, len(lengths))
	var prev uint16
	var prevLen uint8
	for i, u := range used {
		if i == 0 {
			codes[u.s] = 0
		} else {
			codes[u.s] = (prev + 1) << (u.l - prevLen)
		}
		prev, prevLen = codes[u.s], u.l
	}
	return codes
}

// packLengths emits the code-length table as packed 4-bit pairs, even
// symbol in the high nibble.
func packLengths(lengths []uint8) []byte {
	out := make([]byte, len(lengths)/2)
	for i := 0; i < len(lengths); i += 2 {
		out[i/2] = lengths[i]<<4 | lengths[i+1]
	}
	return out
}

// huffmanBlock Huffman-codes syms into buf: the packed length table
// followed by the MSB-first bitstream. A single-valued plane is
// emitted as an all-zero length table and the symbol byte.
func huffmanBlock(buf *bytes.Buffer, syms []uint8, alphabet int) error {
	weights := make([]uint64, alphabet)
	for _, s := range syms {
		weights[s]++
	}
	used := 0
	solid := uint8(0)
	for s, w := range weights {
		if w != 0 {
			used++
			solid = uint8(s)
		}
	}
	if used <= 1 {
		buf.Write(make([]byte, alphabet/2))
		buf.WriteByte(solid)
		return nil
	}

	lengths, err := codeLengths(weights)
	if err != nil {
		return err
	}
	codes := canonicalCodes(lengths)
	buf.Write(packLengths(lengths))

	w := bitio.NewWriter(buf)
	for _, s := range syms {
		if err := w.WriteBits(uint64(codes[s]), lengths[s]); err != nil {
			return err
		}
	}
	return w.Close()
}

// MakeCompressedFrame serializes one video frame with the custom
// scheme: a Huffman block of the screen codes, a Huffman block of the
// RLE-encoded fg then bg color symbols, then the palette.
func MakeCompressedFrame(chars, cols []byte, pal frame.Palette, width, height int) ([]byte, error) {
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
	if err := huffmanBlock(&buf, screen, screenAlphabet); err != nil {
		return nil, err
	}
	if err := huffmanBlock(&buf, colorSyms, colorAlphabet); err != nil {
		return nil, err
	}
	appendPalette(&buf, pal)
	return buf.Bytes(), nil
}

// huffDecoder is a canonical-code decoder reconstructed from a packed
// length table.
type huffDecoder struct {
	lengths []uint8
	codes   []uint16
	solid   int // -1 unless the block is a single repeated symbol
}

func newHuffDecoder(r io.Reader, alphabet int) (*huffDecoder, error) {
	packed := make([]byte, alphabet/2)
	if _, err := io.ReadFull(r, packed); err != nil {
		return nil, errors.Wrap(err, "vid32: short code length table")
	}
	lengths := make([]uint8, alphabet)
	empty := true
	for i, b := range packed {
		lengths[i*2] = b >> 4
		lengths[i*2+1] = b & 0x0F
		if b != 0 {
			empty = false
		}
	}
	d := &huffDecoder{lengths: lengths, solid: -1}
	if empty {
		var sym [1]byte
		if _, err := io.ReadFull(r, sym[:]); err != nil {
			return nil, errors.Wrap(err, "vid32: short solid symbol")
		}
		d.solid = int(sym[0])
		return d, nil
	}
	d.codes = canonicalCodes(lengths)
	return d, nil
}

// next decodes one symbol from br by walking codeword prefixes.
func (d *huffDecoder) next(br *bitio.Reader) (uint8, error) {
	if d.solid >= 0 {
		return uint8(d.solid), nil
	}
	var code uint16
	var length uint8
	for {
		b, err := br.ReadBits(1)
		if err != nil {
			return 0, errors.Wrap(err, "vid32: truncated bitstream")
		}
		code = code<<1 | uint16(b)
		length++
		for s, l := range d.lengths {
			if l == length && d.codes[s] == code {
				return uint8(s), nil
			}
		}
		if length > 15 {
			return 0, errors.New("vid32: invalid codeword")
		}
	}
}

// DecodeCompressedFrame reverses MakeCompressedFrame. Characters come
// back with the high bit set.
func DecodeCompressedFrame(r io.Reader, width, height int) (chars, cols []byte, pal frame.Palette, err error) {
	cells := width * height

	sd, err := newHuffDecoder(r, screenAlphabet)
	if err != nil {
		return nil, nil, nil, err
	}
	chars = make([]byte, cells)
	if sd.solid >= 0 {
		for i := range chars {
			chars[i] = uint8(sd.solid) | 0x80
		}
	} else {
		br := bitio.NewReader(r)
		for i := range chars {
			s, err := sd.next(br)
			if err != nil {
				return nil, nil, nil, err
			}
			chars[i] = s | 0x80
		}
	}

	cd, err := newHuffDecoder(r, colorAlphabet)
	if err != nil {
		return nil, nil, nil, err
	}
	var fg, bg []uint8
	if cd.solid >= 0 {
		fg = bytes.Repeat([]byte{uint8(cd.solid)}, cells)
		bg = fg
	} else {
		br := bitio.NewReader(r)
		var last uint8
		plane := func() ([]uint8, error) {
			out := make([]uint8, 0, cells)
			for len(out) < cells {
				s, err := cd.next(br)
				if err != nil {
					return nil, err
				}
				out = rleExpand(out, s, &last)
			}
			return out[:cells], nil
		}
		if fg, err = plane(); err != nil {
			return nil, nil, nil, err
		}
		if bg, err = plane(); err != nil {
			return nil, nil, nil, err
		}
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
