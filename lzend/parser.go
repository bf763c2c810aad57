// Copyright 2017, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package lzend

import (
	"github.com/dsnet/topkz/fp"
	"github.com/dsnet/topkz/phrase"
	"github.com/dsnet/topkz/revtrie"
	"github.com/dsnet/topkz/winidx"
)

// hasherBase is an arbitrary fixed multiplicative base for every rolling
// fingerprint the parser builds. A fixed base (rather than one freshly
// randomized per run, as fp.NewRandomHasher draws) keeps successive parses
// of the same input deterministic, which
// the parser's own tests rely on.
const hasherBase = 0x9E3779B97F4A7C15 % fp.M61

// Parser drives one LZ-End parse, byte by byte. The whole processed prefix
// stays buffered so every candidate can be byte-validated against the real
// text, but the local index is rebuilt only over the trailing window of
// 3*BlockSize bytes; phrases whose ends slide out of that window are handed
// to the reverse-phrase trie (and to onFinalize) instead, so between the
// marked set and the trie every earlier phrase end stays reachable as a
// copy-source candidate. Fingerprints and LCP lookups are only ever a
// starting candidate, never trusted without a direct byte comparison, so
// the search structures cost compression when they miss, never correctness.
type Parser struct {
	cfg     Config
	window  []byte
	phrases *phrase.Phrases
	cum     []uint32 // cum[i] = exclusive end offset of phrase i in window

	trie   *revtrie.Trie
	idx    *winidx.Index
	base   int // window offset the current idx starts at
	hasher *fp.Hasher

	emitted    uint32 // highest phrase index already handed to onFinalize
	onFinalize func(phrase.Phrase)
}

// NewParser returns a Parser that calls onFinalize, in order, for every
// phrase as it becomes immutable (no longer subject to a future absorb-two
// or absorb-one rewrite).
func NewParser(cfg Config, onFinalize func(phrase.Phrase)) *Parser {
	ph := phrase.New()
	hasher := fp.NewHasher(0, hasherBase)
	return &Parser{
		cfg:        cfg,
		phrases:    ph,
		cum:        []uint32{0},
		trie:       revtrie.New(ph, hasher),
		hasher:     hasher,
		onFinalize: onFinalize,
	}
}

// maxPhraseLen caps how long any phrase may grow through absorption: the
// local index's window length, so a phrase's end and its whole copied
// portion's end can still both be reasoned about locally.
func (p *Parser) maxPhraseLen() uint32 { return uint32(3 * p.cfg.BlockSize) }

// end returns the inclusive window offset of phrase q's last byte.
func (p *Parser) end(q uint32) int { return int(p.cum[q]) - 1 }

// syncCum keeps cum aligned with the phrase vector after an Append, Set, or
// Truncate; only ever touches the tail entries that could have changed.
func (p *Parser) syncCum() {
	n := p.phrases.Len()
	if uint32(len(p.cum)) > n {
		p.cum = p.cum[:n]
	}
	for i := uint32(len(p.cum)); i < n; i++ {
		var prev uint32
		if i > 0 {
			prev = p.cum[i-1]
		}
		p.cum = append(p.cum, prev+p.phrases.Get(i).Len)
	}
	if n > 0 {
		var prev uint32
		if n > 1 {
			prev = p.cum[n-2]
		}
		p.cum[n-1] = prev + p.phrases.Get(n-1).Len
	}
}

// rebuildIndex rebuilds the local window index over the trailing window and
// marks the end of every phrase that is fair game as an absorb-two copy
// source: everything except the two newest phrases, which the current step
// may still rewrite. Real LZ-End rebuilds this once per block slide; this
// parser rebuilds it every step instead, trading amortized efficiency for
// never having to reason about a stale index.
func (p *Parser) rebuildIndex(zCur uint32) {
	p.base = 0
	if w := 3 * p.cfg.BlockSize; len(p.window) > w {
		p.base = len(p.window) - w
	}
	p.idx = winidx.New(p.window[p.base:]).WithFingerprints(p.hasher)
	if zCur < 2 {
		return
	}
	for q := p.emitted + 1; q <= zCur-2; q++ {
		if e := p.end(q); e >= p.base {
			p.idx.Mark(e-p.base, q)
		}
	}
}

// validate confirms that the last `required` bytes of the text ending at
// phrase q's end, read back to front via DecodeRev, exactly match window's
// `required` bytes ending at endPos. This is the fingerprint-equality
// caveat made concrete: neither revtrie's fat binary search nor winidx's
// LCP result is trusted without a direct byte comparison against the
// buffered text.
func (p *Parser) validate(q uint32, required, endPos int) bool {
	if q == revtrie.Root || required <= 0 || endPos+1 < required {
		return false
	}
	count := 0
	ok := true
	p.phrases.DecodeRev(q, required, func(c byte) bool {
		if p.window[endPos-count] != c {
			ok = false
			return false
		}
		count++
		return true
	})
	return ok && count == required
}

// tryTrie searches revtrie for a phrase the text suffix of length
// `required` ending at endPos could be copied from. Only phrases already
// handed off to the trie (index <= maxPhr by construction, but checked
// anyway) are reachable here; newer phrases are the local index's job.
func (p *Parser) tryTrie(required, endPos int, maxPhr uint32) (uint32, bool) {
	l := required
	if l > endPos+1 {
		l = endPos + 1
	}
	if l <= 0 {
		return 0, false
	}
	rev := make([]byte, l)
	for i := 0; i < l; i++ {
		rev[i] = p.window[endPos-i]
	}
	view := revtrie.View{Data: rev, Win: fp.NewWindow(p.hasher, rev)}
	q := p.trie.ApproxFindPhrase(view, 0, l)
	if q == revtrie.Root || q > maxPhr {
		return 0, false
	}
	if p.validate(q, required, endPos) {
		return q, true
	}
	return 0, false
}

// tryLocal searches the marked set for a phrase end whose preceding text
// matches the suffix of length `required` ending at endPos.
func (p *Parser) tryLocal(required, endPos int) (uint32, bool) {
	if endPos < p.base {
		return 0, false
	}
	phr1, lcp1, ok1, phr2, lcp2, ok2 := p.idx.MarkedLCP2(endPos-p.base, 0)
	if ok1 && int(lcp1) >= required && p.validate(phr1, required, endPos) {
		return phr1, true
	}
	if ok2 && int(lcp2) >= required && p.validate(phr2, required, endPos) {
		return phr2, true
	}
	return 0, false
}

func (p *Parser) findCandidate(required, endPos int, maxPhr uint32) (uint32, bool) {
	if p.cfg.PreferTrie {
		if q, ok := p.tryTrie(required, endPos, maxPhr); ok {
			return q, true
		}
		return p.tryLocal(required, endPos)
	}
	if q, ok := p.tryLocal(required, endPos); ok {
		return q, true
	}
	return p.tryTrie(required, endPos, maxPhr)
}

// Step parses one more byte of input: try to merge the two newest phrases
// and extend by c (absorb-two), then to extend the newest phrase by c
// (absorb-one), then fall back to a fresh literal phrase. An absorption at
// length L+1 requires a copy source: an earlier phrase q such that the L
// bytes preceding c equal the last L bytes of the text ending at q's end.
func (p *Parser) Step(c byte) {
	p.window = append(p.window, c)
	m := len(p.window) - 1

	zCur := p.phrases.Len() - 1
	p.rebuildIndex(zCur)

	var len1, len2 uint32
	if zCur >= 1 {
		len1 = p.phrases.Get(zCur).Len
	}
	if zCur >= 2 {
		len2 = len1 + p.phrases.Get(zCur-1).Len
	}

	if zCur >= 2 && zCur-1 > p.emitted && len2 < p.maxPhraseLen() {
		if link, ok := p.findCandidate(int(len2), m-1, zCur-2); ok {
			p.phrases.Truncate(zCur)
			p.phrases.Set(zCur-1, link, len2+1, c)
			p.syncCum()
			p.maybeFinalize()
			return
		}
	}
	if zCur >= 1 && len1 < p.maxPhraseLen() {
		if zCur >= 2 {
			// The next-newest phrase becomes a legal copy source for
			// absorb-one (it is not being rewritten), so mark it too.
			if e := p.end(zCur - 1); e >= p.base {
				p.idx.Mark(e-p.base, zCur-1)
			}
		}
		if link, ok := p.findCandidate(int(len1), m-1, zCur-1); ok {
			p.phrases.Set(zCur, link, len1+1, c)
			p.syncCum()
			p.maybeFinalize()
			return
		}
	}
	p.phrases.Append(0, 1, c)
	p.syncCum()
	p.maybeFinalize()
}

// maybeFinalize emits every phrase that can no longer be touched by a
// future rewrite and whose end has slid out of the local index's window:
// once out of the window it can no longer serve as a marked copy source, so
// it moves into the reverse-phrase trie (and out to onFinalize) instead.
// The two newest phrases are always withheld, since absorb-two may still
// pop and merge them.
func (p *Parser) maybeFinalize() {
	z := p.phrases.Len() - 1
	base := 0
	if w := 3 * p.cfg.BlockSize; len(p.window) > w {
		base = len(p.window) - w
	}
	for z >= 2 && p.emitted+1 <= z-2 {
		next := p.emitted + 1
		if p.end(next) >= base {
			break
		}
		p.finalize(next)
		p.emitted = next
	}
}

func (p *Parser) finalize(idx uint32) {
	ph := p.phrases.Get(idx)
	var start uint32
	if idx > 0 {
		start = p.cum[idx-1]
	}
	end := p.cum[idx]
	span := p.window[start:end]
	rev := make([]byte, len(span))
	for i, cc := range span {
		rev[len(span)-1-i] = cc
	}
	view := revtrie.View{Data: rev, Win: fp.NewWindow(p.hasher, rev)}
	p.trie.Insert(view, 0, len(rev))
	if p.onFinalize != nil {
		p.onFinalize(ph)
	}
}

// Flush finalizes every remaining phrase, including the last one or two
// still eligible for absorption, since no further input can arrive.
func (p *Parser) Flush() {
	z := p.phrases.Len() - 1
	for p.emitted < z {
		idx := p.emitted + 1
		p.finalize(idx)
		p.emitted = idx
	}
}
