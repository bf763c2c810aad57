// Copyright 2017, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package topk

import "github.com/dsnet/topkz/trie"

// spaceSaving implements the Space-Saving frequency discipline: a fixed
// number of counters, each attached to a trie leaf, kept in a bank of
// frequency buckets threaded as doubly linked lists so the minimum-frequency
// counter is always the head of the lowest occupied bucket.
//
// Items never move between slices, only between buckets, and a
// renormalization halves every counter once the top bucket would otherwise
// overflow the preallocated bucket array.
type spaceSaving struct {
	maxAllowedFrequency uint64
	threshold           uint64

	bucketHead []uint32 // bucketHead[f] = head item at frequency f, or trie.NIL
	freq       []uint64
	prev, next []uint32
	linked     []bool
}

func newSpaceSaving(capacity int, maxAllowedFrequency uint64) *spaceSaving {
	s := &spaceSaving{
		maxAllowedFrequency: maxAllowedFrequency,
		bucketHead:          make([]uint32, maxAllowedFrequency+2),
		freq:                make([]uint64, capacity),
		prev:                make([]uint32, capacity),
		next:                make([]uint32, capacity),
		linked:              make([]bool, capacity),
	}
	for i := range s.bucketHead {
		s.bucketHead[i] = trie.NIL
	}
	return s
}

func (s *spaceSaving) grow(n int) {
	for len(s.freq) < n {
		s.freq = append(s.freq, 0)
		s.prev = append(s.prev, trie.NIL)
		s.next = append(s.next, trie.NIL)
		s.linked = append(s.linked, false)
	}
}

// Bucket indexing always goes through effectiveFreq, not the stored freq:
// decrementAll migrates whole bucket chains upward without touching each
// item's stored count (that is what keeps it O(1)), so an item whose stored
// freq has fallen behind the threshold physically lives in the threshold's
// bucket, which is exactly where effectiveFreq points.

func (s *spaceSaving) unlink(v uint32) {
	if !s.linked[v] {
		return
	}
	p, n := s.prev[v], s.next[v]
	if p != trie.NIL {
		s.next[p] = n
	} else {
		s.bucketHead[s.effectiveFreq(v)] = n
	}
	if n != trie.NIL {
		s.prev[n] = p
	}
	s.linked[v] = false
}

// link prepends v to the bucket for its current effective frequency.
func (s *spaceSaving) link(v uint32) {
	f := s.effectiveFreq(v)
	head := s.bucketHead[f]
	s.prev[v] = trie.NIL
	s.next[v] = head
	if head != trie.NIL {
		s.prev[head] = v
	}
	s.bucketHead[f] = v
	s.linked[v] = true
}

// insert links a brand-new item v whose freq has already been set.
func (s *spaceSaving) insert(v uint32) {
	s.link(v)
}

// increment bumps v's effective frequency by one and moves it to the next
// bucket, renormalizing first if that bucket would overflow the bank.
func (s *spaceSaving) increment(v uint32) {
	f := s.effectiveFreq(v)
	if f+1 >= s.maxAllowedFrequency {
		s.renormalize()
		f = s.effectiveFreq(v)
	}
	s.unlink(v)
	s.freq[v] = f + 1
	s.link(v)
}

func (s *spaceSaving) effectiveFreq(v uint32) uint64 {
	if s.freq[v] < s.threshold {
		return s.threshold
	}
	return s.freq[v]
}

// garbage reports the head of the threshold bucket, if any, without
// unlinking it.
func (s *spaceSaving) garbage() (uint32, bool) {
	v := s.bucketHead[s.threshold]
	return v, v != trie.NIL
}

// decrementAll raises the threshold by one, folding the threshold bucket
// into the next one up; this is how Space-Saving accounts for an item that
// could not be tracked at all (every counter is busy and none is garbage).
func (s *spaceSaving) decrementAll() {
	if s.threshold+2 >= uint64(len(s.bucketHead)) {
		// The threshold itself is about to run off the bucket bank; halve
		// everything the same way a counter overflow would.
		s.renormalize()
	}
	head := s.bucketHead[s.threshold]
	next := s.threshold + 1
	if head != trie.NIL {
		tail := head
		for s.next[tail] != trie.NIL {
			tail = s.next[tail]
		}
		s.next[tail] = s.bucketHead[next]
		if s.bucketHead[next] != trie.NIL {
			s.prev[s.bucketHead[next]] = tail
		}
		s.bucketHead[next] = head
		s.prev[head] = trie.NIL
	}
	s.bucketHead[s.threshold] = trie.NIL
	s.threshold = next
}

// renormalize halves every counter's margin above the threshold and resets
// the threshold to zero, rebuilding the bucket bank from scratch. Items are
// re-linked in node-index order, so the order within a bucket afterwards
// follows node index, not the order items had before.
func (s *spaceSaving) renormalize() {
	wasLinked := make([]bool, len(s.linked))
	copy(wasLinked, s.linked)

	for i := range s.freq {
		eff := s.effectiveFreq(uint32(i))
		s.freq[i] = (eff - s.threshold) / 2
	}
	s.threshold = 0
	for i := range s.bucketHead {
		s.bucketHead[i] = trie.NIL
	}
	for i := range s.freq {
		s.prev[i] = trie.NIL
		s.next[i] = trie.NIL
		s.linked[i] = false
	}

	// Only items that were leaves before renormalizing are re-threaded into
	// buckets; everything else keeps its (now halved) counter in reserve
	// for when it becomes a leaf again.
	for i, was := range wasLinked {
		if was {
			s.link(uint32(i))
		}
	}
}
