// Copyright 2017, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package topk

import "math/bits"

// CountMin2 is a two-row Count-Min sketch with conservative updates. Each
// row hashes a 64-bit fingerprint as ((key XOR q) mod p) AND (columns-1),
// with a distinct prime p and offset q per row, so the column count must be
// (and is kept) a power of two.
//
// The per-row offsets come from a small splitmix64-style generator over the
// caller-supplied seed rather than from math/rand, whose output sequence is
// not part of its API contract and is free to change between releases;
// repeated runs over the same input stay reproducible.
type CountMin2 struct {
	mask uint64
	q    [2]uint64
	rows [2][]uint64
}

// sketchPrimes are the per-row hash moduli, primes just under 2^45.
var sketchPrimes = [2]uint64{1<<45 - 229, 1<<45 - 193}

func splitmix64(x uint64) uint64 {
	x += 0x9E3779B97F4A7C15
	z := x
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	z = z ^ (z >> 31)
	return z
}

// NewCountMin2 builds a sketch with the given number of columns per row,
// rounded up to the next power of two so every row index is a single AND
// mask, deterministically seeded.
func NewCountMin2(columns int, seed uint64) *CountMin2 {
	if columns < 1 {
		columns = 1
	}
	n := 1 << bits.Len(uint(columns-1))
	cm := &CountMin2{mask: uint64(n - 1)}
	s := splitmix64(seed)
	for i := 0; i < 2; i++ {
		s = splitmix64(s)
		cm.q[i] = s
		cm.rows[i] = make([]uint64, n)
	}
	return cm
}

func (cm *CountMin2) index(row int, key uint64) uint64 {
	return ((key ^ cm.q[row]) % sketchPrimes[row]) & cm.mask
}

// Increment adds delta to key's counter in every row, without returning an
// estimate. This is how a swapped-out leaf's unresolved frequency delta is
// folded back into the sketch: the exact amount is known, so no estimation
// or conservative clamping is needed.
func (cm *CountMin2) Increment(key uint64, delta uint64) {
	for row := 0; row < 2; row++ {
		cm.rows[row][cm.index(row, key)] += delta
	}
}

// IncrementAndEstimate adds delta to key's counters using a conservative
// update — a row's counter is only raised as far as the new estimate (the
// old minimum plus delta), so only a row holding that minimum gains the
// full delta — and returns the resulting estimate,
// the minimum across rows.
func (cm *CountMin2) IncrementAndEstimate(key uint64, delta uint64) uint64 {
	idx := [2]uint64{cm.index(0, key), cm.index(1, key)}
	est := cm.rows[0][idx[0]]
	if cm.rows[1][idx[1]] < est {
		est = cm.rows[1][idx[1]]
	}
	est += delta
	for row := 0; row < 2; row++ {
		if cm.rows[row][idx[row]] < est {
			cm.rows[row][idx[row]] = est
		}
	}
	return est
}
