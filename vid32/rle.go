/*
NAME
  rle.go

DESCRIPTION
  Run-length grammar for 32vid color planes. The alphabet has 24
  symbols: 0-15 are palette nibbles, 16-22 repeat the previous nibble
  2^(sym-15) times (2 through 128), and 23 repeats it 256 times for
  runs crossing the per-flush cap.

AUTHOR
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package vid32

// colorAlphabet is the symbol count of the color-plane code.
const colorAlphabet = 24

// screenAlphabet is the symbol count of the screen-plane code.
const screenAlphabet = 32

// rleEncode converts a nibble plane to RLE symbols. Each run emits its
// color literal, then full blocks of 256 as symbol 23, then the
// remainder minus the literal decomposed into powers of two: bit 0 as
// the literal again, bits 1..7 as symbols 16..22.
func rleEncode(plane []uint8, emit func(sym uint8)) {
	if len(plane) == 0 {
		return
	}
	flush := func(c uint8, n int) {
		emit(c)
		n--
		for n >= 256 {
			emit(23)
			n -= 256
		}
		if n&1 != 0 {
			emit(c)
		}
		for bit := 1; bit <= 7; bit++ {
			if n&(1<<bit) != 0 {
				emit(uint8(15 + bit))
			}
		}
	}
	c := plane[0]
	n := 0
	for _, v := range plane {
		if v != c {
			flush(c, n)
			c = v
			n = 0
		}
		n++
	}
	flush(c, n)
}

// rleExpand appends the expansion of sym to dst, tracking the previous
// literal in *last, and returns the extended slice. Expansion may
// overshoot a plane boundary; callers clamp.
func rleExpand(dst []uint8, sym uint8, last *uint8) []uint8 {
	if sym < 16 {
		*last = sym
		return append(dst, sym)
	}
	n := 1 << (sym - 15)
	for i := 0; i < n; i++ {
		dst = append(dst, *last)
	}
	return dst
}
