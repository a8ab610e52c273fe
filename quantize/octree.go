/*
NAME
  octree.go

DESCRIPTION
  Octree color quantization, after Michal Molhanec's public octree
  quantizer, rebuilt on an index arena instead of raw pointers.

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

package quantize

import "github.com/ausocean/sanjuuni/frame"

// octreeBits is the highest bit index used when descending the tree,
// giving nine levels from bit 8 down to bit 0.
const octreeBits = 8

const octreeNil = -1

type octreeNode struct {
	r, g, b    uint32
	count      uint32
	leaf       bool
	leafParent bool
	children   [8]int
	parent     int
	prev, next int // leaf-parent list links
}

type octree struct {
	nodes       []octreeNode
	root        int
	leaves      int
	leafParents int // head of the leaf-parent list
}

func newOctree() *octree {
	t := &octree{leafParents: octreeNil}
	t.root = t.newNode(octreeNil)
	return t
}

func (t *octree) newNode(parent int) int {
	t.nodes = append(t.nodes, octreeNode{
		parent:   parent,
		children: [8]int{octreeNil, octreeNil, octreeNil, octreeNil, octreeNil, octreeNil, octreeNil, octreeNil},
		prev:     octreeNil,
		next:     octreeNil,
	})
	return len(t.nodes) - 1
}

func (t *octree) insert(c frame.RGB) {
	node := t.root
	for i := octreeBits; i >= 0; i-- {
		idx := int((c.R>>i)&1)<<2 | int((c.G>>i)&1)<<1 | int((c.B>>i)&1)
		if t.nodes[node].children[idx] == octreeNil {
			t.nodes[node].children[idx] = t.newNode(node)
		}
		node = t.nodes[node].children[idx]
	}
	n := &t.nodes[node]
	if n.count == 0 {
		t.leaves++
		n.leaf = true
		p := n.parent
		if !t.nodes[p].leafParent {
			t.nodes[p].leafParent = true
			if t.leafParents != octreeNil {
				t.nodes[t.leafParents].prev = p
			}
			t.nodes[p].next = t.leafParents
			t.leafParents = p
		}
	}
	n = &t.nodes[node]
	n.count++
	n.r += uint32(c.R)
	n.g += uint32(c.G)
	n.b += uint32(c.B)
}

// calcCounters aggregates leaf counts up through internal nodes so the
// reduction can compare parents by total weight.
func (t *octree) calcCounters(node int) uint32 {
	n := &t.nodes[node]
	if n.leaf {
		return n.count
	}
	for _, c := range n.children {
		if c != octreeNil {
			n.count += t.calcCounters(c)
		}
	}
	return n.count
}

// findSmallest returns the leaf-parent with the smallest aggregate
// count. A node whose count equals the minimum found by the previous
// call short-circuits the scan.
func (t *octree) findSmallest(lastMin *uint32) int {
	min := t.leafParents
	for n := t.nodes[min].next; n != octreeNil; n = t.nodes[n].next {
		if t.nodes[min].count == *lastMin {
			return min
		}
		if t.nodes[n].count < t.nodes[min].count {
			min = n
		}
	}
	*lastMin = t.nodes[min].count
	return min
}

// reduce merges children of the lightest leaf-parents until at most
// target leaves remain.
func (t *octree) reduce(target int) {
	if t.leaves <= target {
		return
	}
	t.calcCounters(t.root)
	min := uint32(1)
	for t.leaves > target {
		ni := t.findSmallest(&min)
		n := &t.nodes[ni]
		for i, c := range n.children {
			if c == octreeNil {
				continue
			}
			n.r += t.nodes[c].r
			n.g += t.nodes[c].g
			n.b += t.nodes[c].b
			n.children[i] = octreeNil
			t.leaves--
		}
		t.leaves++
		n.leaf = true

		// Splice the new leaf's parent into the leaf-parent list in
		// place of n, or just unlink n if the parent is already there.
		p := n.parent
		if p != octreeNil && !t.nodes[p].leafParent {
			t.nodes[p].leafParent = true
			t.nodes[p].next = n.next
			t.nodes[p].prev = n.prev
			if n.prev != octreeNil {
				t.nodes[n.prev].next = p
			} else {
				t.leafParents = p
			}
			if n.next != octreeNil {
				t.nodes[n.next].prev = p
			}
		} else {
			if n.prev != octreeNil {
				t.nodes[n.prev].next = n.next
			} else {
				t.leafParents = n.next
			}
			if n.next != octreeNil {
				t.nodes[n.next].prev = n.prev
			}
		}
	}
}

// fillPalette walks the leaf-parent list in order, appending each leaf
// centroid to pal starting at index i.
func (t *octree) fillPalette(pal frame.Palette, i int) int {
	for n := t.leafParents; n != octreeNil; n = t.nodes[n].next {
		for _, c := range t.nodes[n].children {
			if c == octreeNil || !t.nodes[c].leaf {
				continue
			}
			leaf := t.nodes[c]
			pal[i] = frame.RGB{
				R: uint8(leaf.r / leaf.count),
				G: uint8(leaf.g / leaf.count),
				B: uint8(leaf.b / leaf.count),
			}
			i++
		}
	}
	return i
}

// Octree produces an n-color palette for img with octree reduction.
// When fewer than n leaves survive, entry 0 is forced to black and the
// tail entries are zero filled.
func Octree(img *frame.Image, n int) frame.Palette {
	t := newOctree()
	for _, c := range img.Pix {
		t.insert(c)
	}
	t.reduce(n)

	pal := make(frame.Palette, n)
	i := 0
	if t.leaves != n {
		// There is space; leave index 0 black.
		i = 1
	}
	t.fillPalette(pal, i)
	return pal.Reorder()
}
