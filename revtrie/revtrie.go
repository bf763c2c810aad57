// Copyright 2017, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

// Package revtrie implements the reversed-phrase compact trie that an
// LZ-End parser consults to find the longest previously seen phrase whose
// reverse is a prefix of the text still to be matched.
//
// Only phrase endpoints are ever inserted, so the trie stays compact: each
// node spans a whole edge label (a run of characters), and a "fat binary
// search" over hashed string views lets a lookup jump straight to the
// deepest matching node in O(log len) steps instead of walking the trie one
// character at a time. The node and edge lookup tables are maps over a
// 64-bit probe key.
package revtrie

import (
	"math/bits"

	"github.com/dsnet/topkz/fp"
)

// Root is the trie's root node number; it represents the empty string.
const Root = uint32(0)

// PhraseSource resolves a phrase number to its expansion, read back to
// front, so the trie can compare an inserted string against a phrase that is
// only ever stored indirectly (as a link into a growing phrase vector).
type PhraseSource interface {
	// Last returns the final byte of phrase phr's expansion.
	Last(phr uint32) byte

	// DecodeRev streams phrase phr's expansion starting from its last byte
	// and walking backwards, calling visit once per byte. Decoding stops
	// either when visit returns false or after limit bytes, whichever comes
	// first.
	DecodeRev(phr uint32, limit int, visit func(c byte) bool)
}

// View is a byte string paired with the rolling-fingerprint table needed to
// fingerprint any of its substrings in O(1).
type View struct {
	Data []byte
	Win  *fp.Window
}

// fingerprint returns the fingerprint of Data[pos : pos+length].
func (v View) fingerprint(pos, length int) uint64 {
	return v.Win.Fingerprint(pos, pos+length)
}

type node struct {
	len    uint32
	phr    uint32
	parent uint32

	navDepth uint32 // 0 while the node has no nav entry (only the root)
	navFP    uint64
}

// Trie is the reversed-phrase compact trie. The zero value is not usable;
// construct one with New.
type Trie struct {
	src PhraseSource
	h   *fp.Hasher

	nodes       []node
	phraseNodes []uint32 // phraseNodes[p] = leaf node representing phrase p

	nav      map[uint64]uint32 // (depth, fingerprint of first `depth` chars) -> node
	children map[uint64]uint32 // (parent, first edge char) -> child
}

// New builds an empty trie backed by src for resolving phrase expansions.
// h must be the same Hasher every View handed to Insert/ApproxFind was
// fingerprinted with, so nav entries recomputed from decoded phrase bytes
// agree with the ones computed from a caller's View. Phrase 0 is reserved
// (the LZ-End phrase vector is 1-indexed) and maps to the root.
func New(src PhraseSource, h *fp.Hasher) *Trie {
	t := &Trie{
		src:         src,
		h:           h,
		nodes:       make([]node, 1, 64),
		phraseNodes: make([]uint32, 1, 64),
		nav:         make(map[uint64]uint32),
		children:    make(map[uint64]uint32),
	}
	t.phraseNodes[0] = Root
	return t
}

// Len returns the number of nodes in the trie, the root included.
func (t *Trie) Len() int { return len(t.nodes) }

func (t *Trie) createNode() uint32 {
	t.nodes = append(t.nodes, node{})
	return uint32(len(t.nodes) - 1)
}

func childKey(v uint32, c byte) uint64 {
	return uint64(v)*186530261 + uint64(c)*6335453014963
}

func navKey(depth uint32, fp uint64) uint64 {
	return uint64(depth)*68719476377 + fp*262127
}

func (t *Trie) tryGetChild(v uint32, c byte) (uint32, bool) {
	u, ok := t.children[childKey(v, c)]
	return u, ok
}

func (t *Trie) addChild(v uint32, c byte, u uint32) {
	t.children[childKey(v, c)] = u
}

// updateNav points v's single nav entry at the given depth, removing the
// entry it held before (if any), so each non-root node keeps exactly one
// probe depth live at a time.
func (t *Trie) updateNav(v, depth uint32, fingerprint uint64) {
	n := &t.nodes[v]
	if n.navDepth != 0 {
		// A node split off above v can already own v's old key; that entry
		// is left to its new owner.
		if old := navKey(n.navDepth, n.navFP); t.nav[old] == v {
			delete(t.nav, old)
		}
	}
	n.navDepth = depth
	n.navFP = fingerprint
	t.nav[navKey(depth, fingerprint)] = v
}

// computePV returns the length at which v's incoming edge could next be
// probed by the fat binary search: the depth in (parent's depth, v's depth]
// with the most trailing zero bits, obtained by resetting v's depth below
// the highest bit in which the two depths differ.
func (t *Trie) computePV(v, parent uint32) uint32 {
	lv, lp := t.nodes[v].len, t.nodes[parent].len
	i := maxIRst(lv, lp)
	return rst(lv, i)
}

func rst(x, i uint32) uint32 { return x &^ ((uint32(1) << i) - 1) }

// maxIRst returns the highest bit position at which x and y differ, x > y
// assumed; resetting any lower bit of x still leaves it above y.
func maxIRst(x, y uint32) uint32 {
	return 31 - uint32(bits.LeadingZeros32(x^y))
}

// prefixFingerprint hashes the first depth characters of the string node v
// represents, recovered by reverse-decoding v's phrase. The fold order
// matches fp.Window's prefix fingerprints, so the result is interchangeable
// with a View-derived fingerprint of the same characters.
func (t *Trie) prefixFingerprint(v, depth uint32) uint64 {
	var h uint64
	t.src.DecodeRev(t.nodes[v].phr, int(depth), func(c byte) bool {
		h = t.h.Push(h, uint64(c))
		return true
	})
	return h
}

func (t *Trie) updateNavFor(v, parent uint32, s View, pos int) (uint32, uint64) {
	pv := t.computePV(v, parent)
	if rem := uint32(len(s.Data) - pos); pv > rem {
		pv = rem
	}
	h := s.fingerprint(pos, int(pv))
	t.updateNav(v, pv, h)
	return pv, h
}

// ApproxFind performs the fat binary search for the deepest node whose
// represented string is a prefix of s.Data[pos:pos+len], returning that
// node and how much of the search actually matched via a nav shortcut
// (hashMatch), which the caller can use to judge how much of the result is
// backed by an exact earlier fingerprint rather than just depth bookkeeping.
func (t *Trie) ApproxFind(s View, pos, length int) (v uint32, hashMatch uint32) {
	p := uint32(0)
	v = Root

	var j uint32
	if length > 0 {
		j = 1
		for j<<1 <= uint32(length) {
			j <<= 1
		}
	}
	for j > 0 {
		if t.nodes[v].len >= p+j {
			p += j
		} else if p+j < uint32(length) {
			h := s.fingerprint(pos, int(p+j))
			if u, ok := t.nav[navKey(p+j, h)]; ok {
				p += j
				v = u
				hashMatch = p
			}
		}
		j /= 2
	}

	if pos+int(t.nodes[v].len) < len(s.Data) {
		if u, ok := t.tryGetChild(v, s.Data[pos+int(t.nodes[v].len)]); ok {
			v = u
		}
	}
	return v, hashMatch
}

// ApproxFindPhrase is ApproxFind, returning the phrase number of the match
// instead of the node.
func (t *Trie) ApproxFindPhrase(s View, pos, length int) uint32 {
	v, _ := t.ApproxFind(s, pos, length)
	return t.nodes[v].phr
}

// nca returns the nearest common ancestor of two nodes by repeatedly
// stepping whichever of the two is currently deeper up to its parent.
func (t *Trie) nca(u, v uint32) uint32 {
	for u != v {
		if t.nodes[u].len >= t.nodes[v].len {
			u = t.nodes[u].parent
		} else {
			v = t.nodes[v].parent
		}
	}
	return u
}

// NCALen returns the depth of the nearest common ancestor of the leaves
// representing phrases p and q.
func (t *Trie) NCALen(p, q uint32) uint32 {
	u := t.phraseNodes[p]
	v := t.phraseNodes[q]
	return t.nodes[t.nca(u, v)].len
}

// Insert adds the string s.Data[pos:pos+length] to the trie as a new
// phrase, returning its phrase number. The phrase numbers handed out are
// sequential starting at 1.
func (t *Trie) Insert(s View, pos, length int) uint32 {
	phr := uint32(len(t.phraseNodes))
	newPhraseNode := func(depth uint32) uint32 {
		x := t.createNode()
		t.nodes[x].len = depth
		t.nodes[x].phr = phr
		t.phraseNodes = append(t.phraseNodes, x)
		return x
	}

	v := Root
	parent := Root
	d := uint32(0)
	for int(d) < length {
		u, ok := t.tryGetChild(v, s.Data[pos+int(d)])
		if !ok {
			break
		}
		parent = v
		v = u
		d = t.nodes[v].len
	}

	if v == Root {
		x := newPhraseNode(uint32(length))
		t.addChild(Root, s.Data[pos], x)
		t.updateNavFor(x, Root, s, pos)
		t.nodes[x].parent = Root
		return phr
	}

	extractLen := int(t.nodes[v].len)
	if length+1 < extractLen {
		extractLen = length + 1
	}

	commonSuffixLen := 0
	var mismatch byte
	t.src.DecodeRev(t.nodes[v].phr, extractLen, func(c byte) bool {
		mismatch = c
		if commonSuffixLen < length && c == s.Data[pos+commonSuffixLen] {
			commonSuffixLen++
			return true
		}
		return false
	})

	for v != Root && t.nodes[parent].len >= uint32(commonSuffixLen) {
		v = parent
		parent = t.nodes[parent].parent
	}

	var u uint32
	if uint32(commonSuffixLen) < t.nodes[v].len {
		u = t.createNode()
		t.nodes[u].len = uint32(commonSuffixLen)
		t.nodes[u].phr = t.nodes[v].phr

		c := s.Data[pos+int(t.nodes[parent].len)]
		t.addChild(parent, c, u)
		t.nodes[u].parent = parent
		t.updateNavFor(u, parent, s, pos)

		t.addChild(u, mismatch, v)
		t.nodes[v].parent = u

		// The split deepened v's parent, which moves v's distinguished
		// probe depth. The new depth exceeds the split point, so its
		// fingerprint cannot come from s (the two strings agree only up to
		// commonSuffixLen); recompute it from v's own phrase bytes.
		pv := t.computePV(v, u)
		t.updateNav(v, pv, t.prefixFingerprint(v, pv))
	} else {
		u = v
	}

	if uint32(length) > t.nodes[u].len {
		x := newPhraseNode(uint32(length))
		c := s.Data[pos+commonSuffixLen]
		t.addChild(u, c, x)
		t.nodes[x].parent = u
		t.updateNavFor(x, u, s, pos)
	} else {
		t.phraseNodes = append(t.phraseNodes, u)
	}
	return phr
}
