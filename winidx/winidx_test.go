// Copyright 2017, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package winidx

import (
	"sort"
	"testing"
)

func TestBuildSuffixArraySorted(t *testing.T) {
	data := []byte("banana")
	sa := buildSuffixArray(data)
	if len(sa) != len(data) {
		t.Fatalf("len(sa) = %d, want %d", len(sa), len(data))
	}
	suffixes := make([]string, len(sa))
	for i, p := range sa {
		suffixes[i] = string(data[p:])
	}
	if !sort.StringsAreSorted(suffixes) {
		t.Fatalf("suffix array not in sorted order: %v", suffixes)
	}
}

func TestBuildLCPMatchesBruteForce(t *testing.T) {
	data := []byte("abababab")
	sa := buildSuffixArray(data)
	isa := buildISA(sa)
	lcp := buildLCP(data, sa, isa)

	commonPrefixLen := func(a, b []byte) int {
		n := 0
		for n < len(a) && n < len(b) && a[n] == b[n] {
			n++
		}
		return n
	}
	for i := 1; i < len(sa); i++ {
		want := commonPrefixLen(data[sa[i-1]:], data[sa[i]:])
		if int(lcp[i]) != want {
			t.Errorf("lcp[%d] = %d, want %d", i, lcp[i], want)
		}
	}
}

func TestRMQMatchesBruteForce(t *testing.T) {
	lcp := []int32{0, 1, 3, 2, 4, 0, 5, 2}
	r := buildRMQ(lcp)
	for l := 0; l < len(lcp); l++ {
		for hi := l; hi < len(lcp); hi++ {
			want := lcp[l]
			for k := l; k <= hi; k++ {
				if lcp[k] < want {
					want = lcp[k]
				}
			}
			if got := r.min(l, hi); got != want {
				t.Errorf("min(%d,%d) = %d, want %d", l, hi, got, want)
			}
		}
	}
}

func TestMarkedLCPFindsClosestMatch(t *testing.T) {
	// "abcabcabc": a repeat of period 3 gives every rotation a long shared
	// suffix with its neighbors three positions away, so the marks at 2 and
	// 5 share a suffix with the query at 8.
	idx := New([]byte("abcabcabc"))
	idx.Mark(2, 10)
	idx.Mark(5, 20)
	idx.Mark(6, 30)

	phr, lcp, ok := idx.MarkedLCP(8, 0)
	if !ok {
		t.Fatalf("MarkedLCP found no candidate")
	}
	if lcp == 0 {
		t.Fatalf("MarkedLCP lcp = 0, want > 0 for a periodic string")
	}
	_ = phr
}

func TestMarkedLCPExcludesPhrase(t *testing.T) {
	idx := New([]byte("abcabcabc"))
	idx.Mark(2, 10)
	idx.Mark(5, 20)
	idx.Mark(6, 30)

	phr, _, ok := idx.MarkedLCP(8, 0)
	if !ok {
		t.Fatalf("MarkedLCP found no candidate")
	}
	phr2, _, ok2 := idx.MarkedLCP(8, phr)
	if !ok2 {
		t.Fatalf("MarkedLCP with exclusion found no candidate")
	}
	if phr2 == phr {
		t.Fatalf("MarkedLCP returned excluded phrase %d again", phr)
	}
}

func TestMarkedLCP2ReturnsTwoDistinctPhrases(t *testing.T) {
	idx := New([]byte("abcabcabcabc"))
	idx.Mark(0, 1)
	idx.Mark(3, 2)
	idx.Mark(6, 3)
	idx.Mark(9, 4)

	phr1, _, ok1, phr2, _, ok2 := idx.MarkedLCP2(11, 0)
	if !ok1 || !ok2 {
		t.Fatalf("MarkedLCP2 = ok1=%v ok2=%v, want both true", ok1, ok2)
	}
	if phr1 == phr2 {
		t.Fatalf("MarkedLCP2 returned the same phrase twice: %d", phr1)
	}
}

func TestUnmarkRemovesCandidate(t *testing.T) {
	idx := New([]byte("abcabcabc"))
	idx.Mark(0, 10)
	idx.Mark(3, 20)
	idx.Unmark(3)
	if idx.IsMarked(3) {
		t.Fatalf("IsMarked(3) = true after Unmark")
	}
	phr, _, ok := idx.MarkedLCP(8, 0)
	if !ok || phr != 10 {
		t.Fatalf("MarkedLCP after Unmark = (%d, ok=%v), want (10, true)", phr, ok)
	}
}

func TestClearMarked(t *testing.T) {
	idx := New([]byte("abcabcabc"))
	idx.Mark(0, 1)
	idx.Mark(3, 2)
	idx.ClearMarked()
	if _, _, ok := idx.MarkedLCP(8, 0); ok {
		t.Fatalf("MarkedLCP after ClearMarked found a candidate")
	}
}
