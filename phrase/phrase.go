// Copyright 2017, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

// Package phrase implements the LZ-End phrase vector: the append-only list
// of (link, len, last) triples an LZ-End parse produces, plus the iterative
// reverse-extraction walk that the parser and the reverse-phrase trie both
// need to recover a phrase's bytes without recursing to a depth proportional
// to the grammar's nesting: a recursive formulation's stack depth would
// track the input size instead of staying bounded.
package phrase

// Phrase is a single LZ-End phrase. Link is 0 for a literal phrase (the
// empty phrase 0 is never referenced by Link in a well-formed parse); for
// Link != 0, the phrase's text is the Len-1 bytes of text ending where
// phrase Link ends — a suffix that may span several earlier phrases —
// followed by Last.
type Phrase struct {
	Link uint32
	Len  uint32
	Last byte
}

// Phrases is the append-only, 1-indexed phrase vector produced by an
// LZ-End parse. Index 0 is the reserved empty phrase.
type Phrases struct {
	list []Phrase
}

// New returns an empty phrase vector with the sentinel phrase 0 in place.
func New() *Phrases {
	return &Phrases{list: []Phrase{{}}}
}

// Append adds a new phrase, returning its 1-based index.
func (p *Phrases) Append(link uint32, length uint32, last byte) uint32 {
	p.list = append(p.list, Phrase{Link: link, Len: length, Last: last})
	return uint32(len(p.list) - 1)
}

// Truncate discards phrases from n (inclusive) onward, used when the parser
// pops the current phrase to merge it into an absorb-two rewrite.
func (p *Phrases) Truncate(n uint32) { p.list = p.list[:n] }

// Set overwrites phrase index n in place; used by the parser's absorb-one
// and absorb-two rewrites.
func (p *Phrases) Set(n uint32, link uint32, length uint32, last byte) {
	p.list[n] = Phrase{Link: link, Len: length, Last: last}
}

// Len returns the number of phrases, the sentinel included, i.e. one past
// the highest valid phrase index.
func (p *Phrases) Len() uint32 { return uint32(len(p.list)) }

// Get returns phrase n.
func (p *Phrases) Get(n uint32) Phrase { return p.list[n] }

// Last returns the final byte of phrase n's expansion, satisfying
// revtrie.PhraseSource.
func (p *Phrases) Last(n uint32) byte { return p.list[n].Last }

// DecodeRev streams the last limit bytes of the text ending at phrase n's
// end, from the rightmost byte backwards, calling visit once per byte and
// stopping early when visit returns false. With limit == phrase n's Len this
// is exactly phrase n's own expansion in reverse; a larger limit keeps
// walking left into the textually preceding phrases (n-1, n-2, ...), which
// is what resolving an LZ-End link requires: a phrase's copied portion is a
// suffix of the text ending at its link's end, and that suffix routinely
// spans several phrases.
//
// The walk is an explicit stack of (phrase, bound) frames rather than a
// recursive one: each frame means "emit up to bound bytes of the text
// ending at this phrase's end". Emitting the phrase's Last byte leaves its
// copied portion (a bound-capped suffix of the text ending at Link's end)
// and, when bound overruns the phrase entirely, the text ending at the
// previous phrase's end. This keeps the stack depth proportional to the
// phrase chain rather than the output length.
func (p *Phrases) DecodeRev(n uint32, limit int, visit func(c byte) bool) {
	type frame struct {
		phr   uint32
		bound int
	}
	stack := []frame{{n, limit}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if f.phr == 0 || f.bound <= 0 {
			continue
		}
		ph := p.list[f.phr]
		if !visit(ph.Last) {
			return
		}
		if f.bound > int(ph.Len) {
			// The suffix extends past this phrase's start; the leftover
			// bytes end exactly where the previous phrase ends. Pushed
			// first so the copied portion below is emitted before it.
			stack = append(stack, frame{f.phr - 1, f.bound - int(ph.Len)})
		}
		b := f.bound
		if int(ph.Len) < b {
			b = int(ph.Len)
		}
		if b > 1 {
			stack = append(stack, frame{ph.Link, b - 1})
		}
	}
}

// Extract writes the full expansion of phrase n into buf (which must have
// length at least int(phrase n's Len)) in left-to-right order, by reversing
// the output of DecodeRev, and returns the written slice.
func (p *Phrases) Extract(n uint32, buf []byte) []byte {
	ph := p.list[n]
	buf = buf[:ph.Len]
	i := int(ph.Len)
	p.DecodeRev(n, int(ph.Len), func(c byte) bool {
		i--
		buf[i] = c
		return true
	})
	return buf
}

// ExtractAll decodes the full text represented by the phrase vector (every
// phrase from 1 to Len()-1, concatenated in order) into a freshly allocated
// slice. This is the wire-format round-trip's top-level decode operation.
func (p *Phrases) ExtractAll() []byte {
	var out []byte
	var buf []byte
	for i := uint32(1); i < p.Len(); i++ {
		if n := int(p.list[i].Len); cap(buf) < n {
			buf = make([]byte, n)
		}
		out = append(out, p.Extract(i, buf[:p.list[i].Len])...)
	}
	return out
}
