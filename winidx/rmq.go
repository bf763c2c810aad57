// Copyright 2017, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package winidx

import "math/bits"

// rmqMin is a sparse-table range-minimum index over the LCP array: given a
// range of SA positions, it answers "what is the minimum LCP value in this
// range" in O(1), which is exactly the classic reduction from
// longest-common-extension-between-two-suffixes to range-minimum-over-LCP.
// Build is O(n log n), queries O(1).
type rmqMin struct {
	lcp   []int32
	table [][]int32 // table[j][i] = min(lcp[i : i+2^j])
}

func buildRMQ(lcp []int32) *rmqMin {
	n := len(lcp)
	r := &rmqMin{lcp: lcp}
	if n == 0 {
		return r
	}
	levels := bits.Len(uint(n)) // enough rows to cover [i, i+2^levels)
	r.table = make([][]int32, levels)
	r.table[0] = append([]int32(nil), lcp...)
	for j := 1; j < levels; j++ {
		half := 1 << (j - 1)
		size := n - (1 << j) + 1
		if size <= 0 {
			r.table = r.table[:j]
			break
		}
		row := make([]int32, size)
		prev := r.table[j-1]
		for i := 0; i < size; i++ {
			a, b := prev[i], prev[i+half]
			if a < b {
				row[i] = a
			} else {
				row[i] = b
			}
		}
		r.table[j] = row
	}
	return r
}

// min returns the minimum lcp value over the inclusive range [l, r]. The
// caller must ensure 0 <= l <= r < len(lcp).
func (r *rmqMin) min(l, r2 int) int32 {
	if l > r2 {
		l, r2 = r2, l
	}
	length := r2 - l + 1
	j := bits.Len(uint(length)) - 1
	if j >= len(r.table) {
		j = len(r.table) - 1
	}
	half := 1 << j
	a := r.table[j][l]
	b := r.table[j][r2-half+1]
	if a < b {
		return a
	}
	return b
}
