// Copyright 2017, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package topk

import (
	"testing"

	"github.com/dsnet/topkz/internal/testutil"
)

func extendString(f *Filter, s string) StringState {
	st := f.Empty()
	for i := 0; i < len(s); i++ {
		st = f.Extend(st, s[i])
	}
	return st
}

func TestMisraGriesTracksRepeatedHighFrequencyString(t *testing.T) {
	f := NewMisraGriesFilter(8, 16)
	var last StringState
	for i := 0; i < 200; i++ {
		last = extendString(f, "hello")
	}
	if !last.Frequent || !last.HasNode() {
		t.Fatalf("repeatedly extended string fell out of the filter: %+v", last)
	}
	depth, node := f.Find([]byte("hello"))
	if depth != 5 {
		t.Fatalf("Find depth = %d, want 5", depth)
	}
	buf := make([]byte, 5)
	n := f.Get(node, buf)
	if string(buf[:n]) != "hello" {
		t.Fatalf("Get(node) = %q, want %q", buf[:n], "hello")
	}
	if f.Frequency(node) == 0 {
		t.Fatalf("Frequency(node) = 0 for a string seen 200 times")
	}
}

func TestSketchTracksRepeatedHighFrequencyString(t *testing.T) {
	f := NewSketchFilter(8, 16, 64, 147, ModeExact)
	var last StringState
	for i := 0; i < 200; i++ {
		last = extendString(f, "hello")
	}
	if !last.Frequent || !last.HasNode() {
		t.Fatalf("repeatedly extended string fell out of the filter: %+v", last)
	}
	depth, node := f.Find([]byte("hello"))
	if depth != 5 {
		t.Fatalf("Find depth = %d, want 5", depth)
	}
	buf := make([]byte, 5)
	n := f.Get(node, buf)
	if string(buf[:n]) != "hello" {
		t.Fatalf("Get(node) = %q, want %q", buf[:n], "hello")
	}
}

func TestMisraGriesEvictsRareStringsUnderPressure(t *testing.T) {
	f := NewMisraGriesFilter(4, 16)
	r := testutil.NewRand(1)

	for i := 0; i < 2000; i++ {
		s := r.String(3, "abcdefghijklmnopqrstuvwxyz")
		extendString(f, s)
	}

	var hot StringState
	for i := 0; i < 500; i++ {
		hot = extendString(f, "zzz")
	}
	if !hot.Frequent {
		t.Fatalf("a string seen 500 times amid noise should have survived eviction pressure")
	}
	if f.Len() > 4 {
		t.Fatalf("Len() = %d, want <= capacity 4", f.Len())
	}
}

func TestSketchEvictsRareStringsUnderPressure(t *testing.T) {
	f := NewSketchFilter(4, 16, 256, 147, ModeExact)
	r := testutil.NewRand(2)

	for i := 0; i < 2000; i++ {
		s := r.String(3, "abcdefghijklmnopqrstuvwxyz")
		extendString(f, s)
	}

	var hot StringState
	for i := 0; i < 500; i++ {
		hot = extendString(f, "zzz")
	}
	if !hot.Frequent {
		t.Fatalf("a string seen 500 times amid noise should have survived eviction pressure")
	}
	if f.Len() > 4 {
		t.Fatalf("Len() = %d, want <= capacity 4", f.Len())
	}
}

func TestSketchApproxMinPQTracksRepeatedHighFrequencyString(t *testing.T) {
	f := NewSketchFilter(8, 16, 64, 147, ModeApproxMinPQ)
	r := testutil.NewRand(4)
	for i := 0; i < 2000; i++ {
		s := r.String(3, "abcdefghijklmnopqrstuvwxyz")
		extendString(f, s)
	}

	var hot StringState
	for i := 0; i < 500; i++ {
		hot = extendString(f, "zzz")
	}
	if !hot.Frequent {
		t.Fatalf("a string seen 500 times amid noise should have survived eviction pressure under ModeApproxMinPQ")
	}
	if f.Len() > 8 {
		t.Fatalf("Len() = %d, want <= capacity 8", f.Len())
	}
	depth, node := f.Find([]byte("zzz"))
	if depth != 3 {
		t.Fatalf("Find depth = %d, want 3", depth)
	}
	if f.Frequency(node) < 500 {
		t.Fatalf("Frequency(node) = %d, want >= 500 exact count regardless of the heap's approximate key", f.Frequency(node))
	}
}

func TestAllEqualStreamTracksNestedPrefixes(t *testing.T) {
	// One continuous cursor over an all-equal stream must leave the chain of
	// nested prefixes in the trie: "a", "aa", "aaa" for a capacity of four
	// nodes (root included).
	f := NewMisraGriesFilter(4, 16)
	st := f.Empty()
	for i := 0; i < 64; i++ {
		st = f.Extend(st, 'a')
	}
	for _, want := range []string{"a", "aa", "aaa"} {
		if depth, _ := f.Find([]byte(want)); depth != len(want) {
			t.Errorf("Find(%q) depth = %d, want %d", want, depth, len(want))
		}
	}
	if f.Len() > 4 {
		t.Errorf("Len() = %d, want <= 4", f.Len())
	}
}

func TestAlternatingStreamWithCursorResets(t *testing.T) {
	// Feeding alternating input the way the LZ78 factorizer does (reset the
	// cursor on every miss) must keep the short alternating prefixes
	// tracked and never grow past capacity.
	f := NewMisraGriesFilter(5, 16)
	cur := f.Empty()
	for i := 0; i < 1024; i++ {
		c := byte('a' + i%2)
		next := f.Extend(cur, c)
		if next.Frequent {
			cur = next
		} else {
			cur = f.Empty()
		}
		if f.Len() > 5 {
			t.Fatalf("Len() = %d exceeded capacity 5 at step %d", f.Len(), i)
		}
	}
	for _, want := range []string{"a", "b", "ab"} {
		if depth, _ := f.Find([]byte(want)); depth != len(want) {
			t.Errorf("Find(%q) depth = %d, want %d", want, depth, len(want))
		}
	}
}

func TestExtendOnDroppedOutStateIsSafe(t *testing.T) {
	// Extending a state that already fell out of the filter must neither
	// corrupt the trie nor attach the untracked prefix's extension under an
	// unrelated node; it just stays untracked.
	f := NewMisraGriesFilter(3, 16)
	st := f.Empty()
	for i := 0; i < 16; i++ {
		st = f.Extend(st, byte('a'+i%4))
		if st.Frequent && !st.HasNode() {
			t.Fatalf("frequent state with no node at step %d: %+v", i, st)
		}
	}
	if f.Len() > 3 {
		t.Fatalf("Len() = %d, want <= 3", f.Len())
	}
}

func TestEmptyStringIsAlwaysFrequent(t *testing.T) {
	for _, f := range []*Filter{NewMisraGriesFilter(4, 16), NewSketchFilter(4, 16, 64, 147, ModeExact)} {
		e := f.Empty()
		if !e.Frequent || e.Len != 0 {
			t.Fatalf("Empty() = %+v, want Frequent=true Len=0", e)
		}
	}
}

func TestFindStopsAtFirstMissingEdge(t *testing.T) {
	f := NewMisraGriesFilter(8, 16)
	for i := 0; i < 50; i++ {
		extendString(f, "ab")
	}
	depth, _ := f.Find([]byte("abcdef"))
	if depth != 2 {
		t.Fatalf("Find depth = %d, want 2 (stop at first unmatched byte)", depth)
	}
}

func TestFilterNeverExceedsCapacity(t *testing.T) {
	r := testutil.NewRand(3)
	for _, f := range []*Filter{NewMisraGriesFilter(6, 16), NewSketchFilter(6, 16, 128, 147, ModeExact)} {
		for i := 0; i < 5000; i++ {
			s := r.String(4, "ab")
			extendString(f, s)
			if f.Len() > 6 {
				t.Fatalf("Len() = %d exceeded capacity 6", f.Len())
			}
		}
	}
}
