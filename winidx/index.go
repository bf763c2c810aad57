// Copyright 2017, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

// Package winidx implements the sliding window index an LZ-End parser
// consults for local (in-window) longest-common-extension queries: a
// suffix array, inverse suffix array and LCP array over the *reversed*
// window, a range-minimum index over the LCP array for O(1) LCE queries,
// and a marked set of live phrase-end positions supporting "best" and
// "two best distinct-phrase" LCP lookups relative to any window position.
package winidx

import "github.com/dsnet/topkz/fp"

// Index is rebuilt from scratch on every window slide; it owns the
// reversed window and every array derived from it.
type Index struct {
	rev []byte
	sa  []int32
	isa []int32
	lcp []int32
	rmq *rmqMin

	marks *markedSet
	fpWin *fp.Window
}

// New builds an index over window. The window is not retained by
// reference past construction; New copies and reverses it internally.
func New(window []byte) *Index {
	n := len(window)
	rev := make([]byte, n)
	for i, c := range window {
		rev[n-1-i] = c
	}
	sa := buildSuffixArray(rev)
	isa := buildISA(sa)
	lcp := buildLCP(rev, sa, isa)
	return &Index{
		rev:   rev,
		sa:    sa,
		isa:   isa,
		lcp:   lcp,
		rmq:   buildRMQ(lcp),
		marks: newMarkedSet(),
	}
}

// WithFingerprints equips the index with a rolling-fingerprint table over
// the reversed window, built with h, so that ApproxFind-style callers can
// fingerprint any reversed-window substring in O(1). It is separate from
// New because not every caller needs fingerprints over the local index (the
// marked-set queries below use only the LCP/RMQ machinery).
func (x *Index) WithFingerprints(h *fp.Hasher) *Index {
	x.fpWin = fp.NewWindow(h, x.rev)
	return x
}

// FPWindow returns the fingerprint table built by WithFingerprints, or nil
// if it was never called.
func (x *Index) FPWindow() *fp.Window { return x.fpWin }

// Rev returns the reversed window backing this index.
func (x *Index) Rev() []byte { return x.rev }

// Len returns the window length.
func (x *Index) Len() int { return len(x.rev) }

// revPos maps a position in the original (forward) window to its position
// in the reversed window this index is actually built over.
func (x *Index) revPos(textPos int) int { return len(x.rev) - 1 - textPos }

// Mark records that a phrase numbered phr ends at forward-window position
// textPos, making it eligible as a future LCE match.
func (x *Index) Mark(textPos int, phr uint32) {
	x.marks.mark(x.isa, x.revPos(textPos), phr)
}

// Unmark removes a previous Mark at textPos, if any.
func (x *Index) Unmark(textPos int) { x.marks.unmark(x.revPos(textPos)) }

// IsMarked reports whether textPos currently carries a mark.
func (x *Index) IsMarked(textPos int) bool { return x.marks.isMarked(x.revPos(textPos)) }

// ClearMarked drops every mark, used when the window slides out from under
// the marked set entirely.
func (x *Index) ClearMarked() { x.marks.clear() }

// lcpBetween returns the LCP of the suffixes at the two given SA positions,
// via the RMQ over the LCP array between them (exclusive of the lower
// endpoint, inclusive of the upper, per the standard reduction).
func (x *Index) lcpBetween(a, b int32) int32 {
	if a == b {
		return int32(len(x.rev)) - x.sa[a]
	}
	lo, hi := a, b
	if lo > hi {
		lo, hi = hi, lo
	}
	return x.rmq.min(int(lo+1), int(hi))
}

// MarkedLCP finds the single marked position with the longest LCP to
// textPos, optionally excluding one phrase number from consideration
// (pass an exclude value that can never be a real phrase number, such as 0,
// to consider every mark).
func (x *Index) MarkedLCP(textPos int, exclude uint32) (phr uint32, lcp uint32, ok bool) {
	pivot := x.isa[x.revPos(textPos)]
	best := int32(-1)
	consider := func(it markItem) {
		if it.phr == exclude {
			return
		}
		if l := x.lcpBetween(pivot, it.saPos); l > best {
			best, phr, ok = l, it.phr, true
		}
	}
	// LCP only shrinks moving away from pivot, so the nearest mark on each
	// side that is not excluded is that side's best.
	pred, has := x.marks.predecessor(pivot)
	for has && pred.phr == exclude {
		pred, has = x.marks.predecessorOf(pred)
	}
	if has {
		consider(pred)
	}
	succ, has := x.marks.successor(pivot)
	for has && succ.phr == exclude {
		succ, has = x.marks.successorOf(succ)
	}
	if has {
		consider(succ)
	}
	if ok {
		lcp = uint32(best)
	}
	return
}

// neighborScanSteps bounds how far MarkedLCP2 walks away from textPos's
// immediate predecessor/successor while hunting for a second distinct
// phrase. What matters is which two phrases come back, not how many btree
// probes found them, and real windows rarely need more than one or two
// extra steps to clear an exclusion.
const neighborScanSteps = 4

// MarkedLCP2 finds the two largest LCPs to textPos among markings with
// distinct phrase numbers, with exclude never considered as a candidate
// (the parser uses this to avoid matching a phrase against itself while it
// is being absorbed).
func (x *Index) MarkedLCP2(textPos int, exclude uint32) (phr1 uint32, lcp1 uint32, ok1 bool, phr2 uint32, lcp2 uint32, ok2 bool) {
	pivot := x.isa[x.revPos(textPos)]

	type cand struct {
		phr uint32
		lcp int32
	}
	var cands []cand
	seen := make(map[uint32]int) // phrase -> index into cands
	add := func(it markItem, has bool) {
		if !has || it.phr == exclude {
			return
		}
		l := x.lcpBetween(pivot, it.saPos)
		if i, ok := seen[it.phr]; ok {
			// The same phrase can be marked on both sides of the pivot;
			// keep whichever marking extends further.
			if l > cands[i].lcp {
				cands[i].lcp = l
			}
			return
		}
		seen[it.phr] = len(cands)
		cands = append(cands, cand{it.phr, l})
	}

	pred, hasPred := x.marks.predecessor(pivot)
	succ, hasSucc := x.marks.successor(pivot)
	add(pred, hasPred)
	add(succ, hasSucc)

	for i := 0; i < neighborScanSteps && (hasPred || hasSucc); i++ {
		if hasPred {
			pred, hasPred = x.marks.predecessorOf(pred)
			add(pred, hasPred)
		}
		if hasSucc {
			succ, hasSucc = x.marks.successorOf(succ)
			add(succ, hasSucc)
		}
	}

	best1, best2 := -1, -1
	for i, c := range cands {
		if best1 == -1 || c.lcp > cands[best1].lcp {
			best2 = best1
			best1 = i
		} else if best2 == -1 || c.lcp > cands[best2].lcp {
			best2 = i
		}
	}
	if best1 >= 0 {
		phr1, lcp1, ok1 = cands[best1].phr, uint32(cands[best1].lcp), true
	}
	if best2 >= 0 {
		phr2, lcp2, ok2 = cands[best2].phr, uint32(cands[best2].lcp), true
	}
	return
}
