// Copyright 2017, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package winidx

import "sort"

// buildSuffixArray computes the suffix array of data by prefix doubling:
// O(n log^2 n) via a comparison sort at each doubling step. Window sizes
// here are bounded by three blocks, so the asymptotically better
// linear-time SA-IS construction is not the relevant cost driver, and
// prefix doubling is far easier to keep correct by inspection.
func buildSuffixArray(data []byte) []int32 {
	n := len(data)
	sa := make([]int32, n)
	rank := make([]int32, n)
	tmp := make([]int32, n)
	for i := range sa {
		sa[i] = int32(i)
		rank[i] = int32(data[i])
	}
	rankAt := func(i int32) int32 {
		if int(i) >= n {
			return -1
		}
		return rank[i]
	}
	for k := 1; ; k *= 2 {
		kk := int32(k)
		less := func(a, b int32) bool {
			if rank[a] != rank[b] {
				return rank[a] < rank[b]
			}
			return rankAt(a+kk) < rankAt(b+kk)
		}
		sort.Slice(sa, func(i, j int) bool { return less(sa[i], sa[j]) })
		tmp[sa[0]] = 0
		for i := 1; i < n; i++ {
			tmp[sa[i]] = tmp[sa[i-1]]
			if less(sa[i-1], sa[i]) {
				tmp[sa[i]]++
			}
		}
		rank, tmp = tmp, rank
		if int(rank[sa[n-1]]) == n-1 || k >= n {
			break
		}
	}
	return sa
}

// buildISA inverts a suffix array: isa[textPos] = the SA index at which
// textPos's suffix appears.
func buildISA(sa []int32) []int32 {
	isa := make([]int32, len(sa))
	for i, p := range sa {
		isa[p] = int32(i)
	}
	return isa
}

// buildLCP computes the LCP array via Kasai's algorithm: lcp[i] is the
// length of the common prefix shared by the suffixes at SA positions i-1
// and i (lcp[0] is defined as 0, there being no predecessor).
func buildLCP(data []byte, sa, isa []int32) []int32 {
	n := len(data)
	lcp := make([]int32, n)
	h := 0
	for i := 0; i < n; i++ {
		if isa[i] > 0 {
			j := int(sa[isa[i]-1])
			for i+h < n && j+h < n && data[i+h] == data[j+h] {
				h++
			}
			lcp[isa[i]] = int32(h)
			if h > 0 {
				h--
			}
		} else {
			h = 0
		}
	}
	return lcp
}
