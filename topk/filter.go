// Copyright 2017, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

// Package topk tracks the k most frequent prefixes seen in a byte stream
// using a bounded trie: one node per tracked prefix, evicted and replaced
// under either the classic Misra-Gries/Space-Saving discipline or, for
// higher-fidelity tracking at the same memory bound, a Count-Min sketch
// that decides whether an eviction candidate is actually frequent enough to
// take a tracked slot away from its current occupant.
package topk

import (
	"math/bits"

	"github.com/dsnet/topkz/fp"
	"github.com/dsnet/topkz/trie"
)

// Mode selects how the sketch-assisted filter's min-priority-queue keys a
// tracked leaf. The two disciplines break ties across bit-widths
// differently, so both are surfaced as distinct, explicit configurations
// rather than folded into one heuristic.
type Mode uint8

const (
	// ModeExact keys the min-PQ by a leaf's exact frequency: every
	// increment re-sifts the heap. This is the mode NewMisraGriesFilter's
	// Space-Saving discipline always uses and NewSketchFilter's default.
	ModeExact Mode = iota

	// ModeApproxMinPQ keys the min-PQ by bit_width(freq) instead of freq
	// itself: a leaf only re-sifts when its frequency crosses a
	// power-of-two boundary, trading eviction precision for far fewer heap
	// operations under a long frequent run. Only NewSketchFilter accepts
	// this mode; the stored Frequency for a node is always the exact count
	// regardless of which mode keys the heap.
	ModeApproxMinPQ
)

// rollingFPOffset is the fingerprint assigned to the empty string, an
// arbitrary odd constant away from zero so that the empty string does not
// fingerprint identically to an all-zero byte run.
const rollingFPOffset = 1<<63 - 25

// rollingFPBase is the default base used for the filter's own internal
// rolling fingerprint of tracked prefixes.
const rollingFPBase = 1<<14 - 15

// ssMaxFrequency bounds the Space-Saving bucket bank: once a counter would
// reach this value it is halved (along with every other counter) instead of
// letting the bucket array grow without bound. It trades renormalization
// frequency against the bucket bank's memory footprint, which is
// proportional to this value regardless of k.
const ssMaxFrequency = 1 << 20

// StringState is a cursor over a byte stream relative to the filter: which
// node (if any) the string explored so far corresponds to, whether that
// string is currently a tracked frequent prefix, and its fingerprint for
// fast equality and hashing downstream.
//
// Node uses zero as "no corresponding tracked node" (the string fell out of
// the filter); since the trie's own root is arena index 0, Node holds the
// arena index plus one whenever a node is present, keeping the two zeroes
// — "untracked" and "root" — unambiguous.
type StringState struct {
	Len         uint32
	Node        uint32
	Fingerprint uint64
	Frequent    bool
}

func nodeToState(v uint32) uint32 { return v + 1 }
func stateToNode(n uint32) uint32 { return n - 1 }

// HasNode reports whether the state still corresponds to a tracked node.
func (s StringState) HasNode() bool { return s.Node != 0 }

// Filter is the bounded top-k prefix tracker. Construct one with
// NewMisraGriesFilter or NewSketchFilter.
type Filter struct {
	arena  *trie.Arena
	hasher *fp.Hasher
	k      int

	freq []uint64 // trie-frequency per node; meaning depends on mode
	fpOf []uint64 // fingerprint of the string each node represents

	ss *spaceSaving // non-nil in Misra-Gries mode

	pq         *minPQ // non-nil in sketch mode
	pqMode     Mode   // only meaningful when pq != nil
	sketch     *CountMin2
	insertFreq []uint64
}

// pqKey computes the min-PQ key for a given exact frequency, per f.pqMode.
func (f *Filter) pqKey(freq uint64) uint64 {
	if f.pqMode == ModeApproxMinPQ {
		return uint64(bits.Len64(freq))
	}
	return freq
}

// NewMisraGriesFilter builds a filter that tracks up to k prefixes with the
// classic Misra-Gries/Space-Saving discipline: no auxiliary memory beyond
// the trie itself, frequency estimates that are exact lower bounds.
func NewMisraGriesFilter(k int, fpWindow uint64) *Filter {
	f := &Filter{
		arena:  trie.NewArena(k),
		hasher: fp.NewHasher(fpWindow, rollingFPBase),
		k:      k,
		freq:   make([]uint64, 1, k),
		fpOf:   make([]uint64, 1, k),
		ss:     newSpaceSaving(k, ssMaxFrequency),
	}
	return f
}

// NewSketchFilter builds a filter that tracks up to k prefixes, gating
// eviction decisions on a Count-Min sketch with the given number of columns
// per row (rounded up to a power of two, see NewCountMin2) so that a
// candidate must clear the sketch's own frequency estimate, not merely the
// current minimum tracked counter, before it is allowed to evict an
// incumbent. mode selects whether the internal
// eviction heap keys leaves by exact frequency (ModeExact) or by
// bit_width(freq) (ModeApproxMinPQ); see the Mode docs.
func NewSketchFilter(k int, fpWindow uint64, sketchColumns int, seed uint64, mode Mode) *Filter {
	f := &Filter{
		arena:      trie.NewArena(k),
		hasher:     fp.NewHasher(fpWindow, rollingFPBase),
		k:          k,
		freq:       make([]uint64, 1, k),
		fpOf:       make([]uint64, 1, k),
		pq:         newMinPQ(k),
		pqMode:     mode,
		sketch:     NewCountMin2(sketchColumns, seed),
		insertFreq: make([]uint64, 1, k),
	}
	return f
}

func (f *Filter) grow() {
	n := f.arena.Len()
	f.freq = append(f.freq, 0)
	f.fpOf = append(f.fpOf, 0)
	if f.ss != nil {
		f.ss.grow(n)
	} else {
		f.pq.grow(n)
		f.insertFreq = append(f.insertFreq, 0)
	}
}

func (f *Filter) full() bool { return f.arena.Len() >= f.k }

// Empty returns the StringState for the empty string.
func (f *Filter) Empty() StringState {
	return StringState{
		Len:         0,
		Node:        nodeToState(trie.Root),
		Fingerprint: rollingFPOffset,
		Frequent:    true,
	}
}

// incrementInTrie applies the sketch-assisted filter's deferred increment
// of an immediate prefix that turned out not to be extended further along
// a tracked edge.
func (f *Filter) incrementInTrie(v uint32) {
	f.freq[v]++
	if !f.arena.IsLeaf(v) {
		return
	}
	if f.pqMode == ModeApproxMinPQ && bits.OnesCount64(f.freq[v]) != 1 {
		// Approx mode only re-sifts on a power-of-two frequency crossing;
		// bit_width(freq) is unchanged between crossings.
		return
	}
	f.pq.IncreaseKey(v, f.pqKey(f.freq[v]))
}

func (f *Filter) insertIntoTrie(parent uint32, label byte, fingerprint uint64) uint32 {
	wasLeaf := f.arena.IsLeaf(parent)
	v := f.arena.Alloc(parent, label)
	f.grow()

	f.freq[v] = 1
	f.fpOf[v] = fingerprint
	if f.ss != nil {
		f.ss.freq[v] = 1
		f.ss.insert(v)
	} else {
		f.insertFreq[v] = 0
		f.pq.Insert(v, f.pqKey(1))
	}
	if wasLeaf {
		f.unlinkLeaf(parent)
	}
	return v
}

func (f *Filter) unlinkLeaf(v uint32) {
	if f.ss != nil {
		f.ss.unlink(v)
	} else if v != trie.Root {
		// The root is never queued, so it has nothing to remove.
		f.pq.Remove(v)
	}
}

// swapMisraGries reuses a garbage (threshold-bucket) leaf for the new
// prefix, per the Misra-Gries discipline: the evicted leaf's frequency
// estimate is not reset, only bumped once for the occurrence that displaced
// it.
func (f *Filter) swapMisraGries(parent uint32, label byte, fingerprint uint64) (uint32, bool) {
	v, ok := f.ss.garbage()
	if !ok {
		f.ss.decrementAll()
		return 0, false
	}
	oldParent, _ := f.arena.Detach(v)
	if oldParent != trie.Root && f.arena.IsLeaf(oldParent) {
		f.ss.link(oldParent)
	}
	wasLeaf := f.arena.IsLeaf(parent)
	f.arena.Attach(v, parent, label)
	f.fpOf[v] = fingerprint
	if wasLeaf {
		f.ss.unlink(parent)
	}
	f.ss.increment(v)
	return v, true
}

// swapSketch estimates the new prefix's frequency via the sketch and, if it
// clears the current minimum tracked frequency and the immediate prefix's
// own trie-frequency backs up the estimate, evicts the globally
// least-frequent tracked leaf to make room.
func (f *Filter) swapSketch(s StringState, parent uint32, label byte, fingerprint uint64) (uint32, bool) {
	est := f.sketch.IncrementAndEstimate(fingerprint, 1)
	if f.pqKey(est) <= f.pq.MinFrequency() {
		return 0, false
	}
	if !(s.Len == 0 || (s.HasNode() && f.freq[parent] >= est)) {
		return 0, false
	}

	v, _, _ := f.pq.ExtractMin()
	oldParent, _ := f.arena.Detach(v)
	delta := f.freq[v] - f.insertFreq[v]

	if oldParent != trie.Root {
		f.freq[oldParent] += delta
		if f.arena.IsLeaf(oldParent) {
			f.pq.Insert(oldParent, f.pqKey(f.freq[oldParent]))
		}
	}
	f.sketch.Increment(f.fpOf[v], delta)

	wasLeaf := f.arena.IsLeaf(parent)
	f.arena.Attach(v, parent, label)
	f.freq[v] = est
	f.insertFreq[v] = est
	f.fpOf[v] = fingerprint
	f.pq.Insert(v, f.pqKey(est))
	if wasLeaf {
		f.unlinkLeaf(parent)
	}
	return v, true
}

// Extend advances the string state s by appending byte c, tracking or
// dropping out of the filter's trie as appropriate.
func (f *Filter) Extend(s StringState, c byte) StringState {
	extFP := f.hasher.Push(s.Fingerprint, uint64(c))
	ext := StringState{Len: s.Len + 1, Fingerprint: extFP}

	var child uint32
	var edgeExists bool
	if s.HasNode() {
		child, edgeExists = f.arena.Node(stateToNode(s.Node)).Edges.TryGet(c)
	}
	if edgeExists && s.Frequent {
		ext.Node = nodeToState(child)
		ext.Frequent = true
		if f.ss != nil {
			// The Misra-Gries discipline has no sketch to lean on later, so
			// a matched frequent prefix is counted the moment it is seen.
			if f.arena.IsLeaf(child) {
				f.ss.increment(child)
			}
		}
		// The sketch-assisted filter instead increments lazily, only when
		// a string eventually drops out of the trie, so that an eviction's
		// unresolved frequency delta can still be folded back in later.
		return ext
	}
	if edgeExists {
		// s itself already dropped out, but the extended string happens to
		// be tracked; reuse its node rather than growing a duplicate edge.
		// Frequent stays false: the count lineage through s is broken.
		ext.Node = nodeToState(child)
		ext.Frequent = false
		return ext
	}

	if f.ss == nil && s.HasNode() && stateToNode(s.Node) != trie.Root {
		// Only the sketch-assisted filter defers the immediate prefix's
		// increment to this point; Misra-Gries already applied it eagerly
		// in the edge-exists branch above. The root is never counted.
		f.incrementInTrie(stateToNode(s.Node))
	}

	if !s.HasNode() && s.Len > 0 {
		// The prefix itself is untracked, so its extension has no node to
		// hang from. Misra-Gries charges the occurrence as a collective
		// decrement; the sketch-assisted filter still counts it so a later
		// occurrence can clear the eviction bar.
		if f.ss != nil {
			f.ss.decrementAll()
		} else {
			f.sketch.Increment(extFP, 1)
		}
		ext.Frequent = false
		return ext
	}

	parent := trie.Root
	if s.HasNode() {
		parent = stateToNode(s.Node)
	}
	var v uint32
	var ok bool
	if !f.full() {
		v = f.insertIntoTrie(parent, c, extFP)
		ok = true
	} else if f.ss != nil {
		v, ok = f.swapMisraGries(parent, c, extFP)
	} else {
		v, ok = f.swapSketch(s, parent, c, extFP)
	}

	if ok {
		ext.Node = nodeToState(v)
	}
	ext.Frequent = false
	return ext
}

// Find walks down from the root matching as much of s as the trie has,
// returning the matched depth and the deepest matching node.
func (f *Filter) Find(s []byte) (depth int, node uint32) {
	v := trie.Root
	for depth < len(s) {
		u, ok := f.arena.Node(v).Edges.TryGet(s[depth])
		if !ok {
			break
		}
		v = u
		depth++
	}
	return depth, v
}

// Get spells out the string represented by node into buf, returning its
// length.
func (f *Filter) Get(node uint32, buf []byte) int {
	return f.arena.Spell(node, buf)
}

// Frequency returns a node's current estimated frequency.
func (f *Filter) Frequency(node uint32) uint64 {
	if f.ss != nil {
		return f.ss.effectiveFreq(node)
	}
	return f.freq[node]
}

// Len returns the number of nodes currently tracked, the root included.
func (f *Filter) Len() int { return f.arena.Len() }
