// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

// Package testutil provides deterministic pseudo-random test data generators
// shared by the package test suites.
package testutil

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/binary"
)

// Rand implements a deterministic pseudo-random number generator.
// This differs from math/rand in that the exact output sequence is stable
// across Go versions, so golden expectations baked into tests never rot.
type Rand struct {
	cipher.Block
	blk [aes.BlockSize]byte
}

func NewRand(seed int) *Rand {
	var key [aes.BlockSize]byte
	binary.LittleEndian.PutUint64(key[:], uint64(seed))
	r, _ := aes.NewCipher(key[:])
	return &Rand{Block: r}
}

func (r *Rand) next() {
	r.Encrypt(r.blk[:], r.blk[:])
}

func (r *Rand) Int() (x int) {
	r.next()
	x |= int(r.blk[0]) << 0
	x |= int(r.blk[1]) << 8
	x |= int(r.blk[2]) << 16
	x |= int(r.blk[3]) << 24
	x |= int(r.blk[4]) << 32
	x |= int(r.blk[5]) << 40
	x |= int(r.blk[6]) << 48
	x |= int(r.blk[7]&0x3f) << 56
	return x
}

func (r *Rand) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	x := r.Int() % n
	if x < 0 {
		x += n
	}
	return x
}

// Uint64 returns a full 64-bit pseudo-random value, used to draw rolling
// hash bases and other wide parameters that must not be biased by the sign
// truncation that Int applies.
func (r *Rand) Uint64() uint64 {
	r.next()
	return binary.LittleEndian.Uint64(r.blk[:8])
}

func (r *Rand) Bytes(n int) []byte {
	b := make([]byte, n)
	bb := b
	for len(bb) > 0 {
		r.next()
		cnt := copy(bb, r.blk[:])
		bb = bb[cnt:]
	}
	return b
}

// String draws a length-n string over the given alphabet. It is the
// workhorse behind most of the round-trip property tests: small alphabets
// stress the high-repetition paths, large ones stress the literal paths.
func (r *Rand) String(n int, alphabet string) string {
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = alphabet[r.Intn(len(alphabet))]
	}
	return string(buf)
}

func (r *Rand) Perm(n int) []int {
	m := make([]int, n)
	for i := 0; i < n; i++ {
		j := r.Intn(i + 1)
		m[i] = m[j]
		m[j] = i
	}
	return m
}
