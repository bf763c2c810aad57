// Copyright 2017, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

// Package fp implements the rolling Karp-Rabin fingerprint used to give
// every prefix and substring seen by the filter and the parser a cheap,
// collision-resistant identity without ever hashing more than a byte at a
// time.
//
// The arithmetic is a multiplicative hash reduced modulo the Mersenne prime
// 2^61-1. Go has no native 128-bit integer, so products are formed with
// math/bits.Mul64 and folded back down using the identity
// 2^61 = 1 (mod 2^61-1).
package fp

import "math/bits"

// M61 is the Mersenne prime modulus 2^61-1.
const M61 = 1<<61 - 1

// mulMod returns x*y mod M61 for x, y < M61.
func mulMod(x, y uint64) uint64 {
	hi, lo := bits.Mul64(x, y)
	return foldM61(hi, lo)
}

// foldM61 reduces the 128-bit value (hi:lo) modulo M61. It relies on
// 2^64 = 8 (mod M61), so the high word only ever needs to be shifted left by
// 3 bits before folding back into the low word's own high bits.
func foldM61(hi, lo uint64) uint64 {
	t := (hi << 3) + (lo >> 61) + (lo & M61)
	for t>>61 != 0 {
		t = (t >> 61) + (t & M61)
	}
	if t == M61 {
		t = 0
	}
	return t
}

// addMod returns x+y mod M61 for x, y < M61.
func addMod(x, y uint64) uint64 {
	s := x + y
	if s >= M61 {
		s -= M61
	}
	return s
}

// subMod returns x-y mod M61 for x, y < M61.
func subMod(x, y uint64) uint64 {
	return addMod(x, M61-y)
}

// power computes base^exp mod M61 via square-and-multiply.
func power(base, exp uint64) uint64 {
	result := uint64(1)
	base %= M61
	for exp > 0 {
		if exp&1 == 1 {
			result = mulMod(result, base)
		}
		base = mulMod(base, base)
		exp >>= 1
	}
	return result
}

// Hasher carries the fixed parameters of a rolling fingerprint: the
// multiplicative base and the base raised to the sliding window's length,
// the latter being whatever is subtracted out on Roll.
type Hasher struct {
	base   uint64
	maxExp uint64 // base^window mod M61
}

// NewHasher builds a Hasher for a window of the given length using the given
// base, which is reduced modulo M61 if necessary.
func NewHasher(window uint64, base uint64) *Hasher {
	base %= M61
	return &Hasher{
		base:   base,
		maxExp: power(base, window),
	}
}

// NewRandomHasher draws a base uniformly from [256, M61) using r, then
// builds a Hasher for the given window length. Restricting the base to be
// greater than the largest possible byte value avoids degenerate low-order
// collisions between short byte strings.
func NewRandomHasher(window uint64, r interface{ Uint64() uint64 }) *Hasher {
	base := 256 + r.Uint64()%(M61-256)
	return NewHasher(window, base)
}

// Push extends a fingerprint fp (of some string s) by appending a single
// byte c, returning the fingerprint of s+c.
func (h *Hasher) Push(fpv uint64, c uint64) uint64 {
	return addMod(mulMod(h.base, fpv), c)
}

// Roll advances a fingerprint of a fixed-length window by one position: out
// is the byte leaving the window on the left, in is the byte entering on
// the right.
func (h *Hasher) Roll(fpv uint64, out, in uint64) uint64 {
	a := mulMod(h.base, fpv)
	b := mulMod(h.maxExp, out)
	return addMod(subMod(a, b), in)
}

// Window bundles a Hasher with the prefix fingerprints of a fixed byte
// slice, letting the fingerprint of any substring be derived in O(1) from
// two prefix fingerprints and a power of the base, without rolling through
// the bytes in between.
type Window struct {
	h      *Hasher
	prefix []uint64 // prefix[i] = fingerprint of data[0:i]
	pow    []uint64 // pow[i] = base^i mod M61
}

// NewWindow computes prefix fingerprints and base powers for data, up to its
// full length.
func NewWindow(h *Hasher, data []byte) *Window {
	w := &Window{
		h:      h,
		prefix: make([]uint64, len(data)+1),
		pow:    make([]uint64, len(data)+1),
	}
	w.pow[0] = 1
	for i, c := range data {
		w.prefix[i+1] = h.Push(w.prefix[i], uint64(c))
		w.pow[i+1] = mulMod(w.pow[i], h.base)
	}
	return w
}

// Fingerprint returns the fingerprint of data[l:r).
func (w *Window) Fingerprint(l, r int) uint64 {
	a := mulMod(w.pow[r-l], w.prefix[l])
	return subMod(w.prefix[r], a)
}

// Len returns the number of bytes the window was built over.
func (w *Window) Len() int { return len(w.prefix) - 1 }
