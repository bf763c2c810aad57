// Copyright 2017, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package fp

import (
	"testing"

	"github.com/dsnet/topkz/internal/testutil"
)

func TestPowerIdentity(t *testing.T) {
	if got := power(3, 0); got != 1 {
		t.Errorf("power(3,0) = %d, want 1", got)
	}
	if got := power(0, 5); got != 0 {
		t.Errorf("power(0,5) = %d, want 0", got)
	}
}

func TestPushMatchesDirect(t *testing.T) {
	h := NewHasher(8, 257)
	s := []byte("abcdefgh")
	var running uint64
	for _, c := range s {
		running = h.Push(running, uint64(c))
	}
	w := NewWindow(h, s)
	if got, want := w.Fingerprint(0, len(s)), running; got != want {
		t.Errorf("fingerprint mismatch: got %d, want %d", got, want)
	}
}

func TestRollMatchesWindowSlide(t *testing.T) {
	h := NewHasher(4, 65599)
	data := []byte("the quick brown fox jumps")
	w := NewWindow(h, data)

	fpv := w.Fingerprint(0, 4)
	for i := 1; i+4 <= len(data); i++ {
		fpv = h.Roll(fpv, uint64(data[i-1]), uint64(data[i+3]))
		want := w.Fingerprint(i, i+4)
		if fpv != want {
			t.Fatalf("roll at i=%d: got %d, want %d", i, fpv, want)
		}
	}
}

// Two equal substrings anywhere in the text must fingerprint identically,
// and this must keep holding across many random texts and positions: this
// is the property the whole top-k filter's hash-based node sharing leans on.
func TestFingerprintConcatenationLaw(t *testing.T) {
	r := testutil.NewRand(1)
	h := NewHasher(32, 0x9E3779B97F4A7C15%M61)
	for trial := 0; trial < 64; trial++ {
		data := []byte(r.String(64, "ab"))
		w := NewWindow(h, data)
		l := r.Intn(len(data))
		mid := l + r.Intn(len(data)-l)
		rr := mid + r.Intn(len(data)-mid+1)
		if rr == mid {
			continue
		}
		direct := w.Fingerprint(l, rr)

		// Recompute by pushing byte-by-byte from zero using the substring
		// itself, which must agree regardless of where it occurs.
		var running uint64
		for _, c := range data[l:rr] {
			running = h.Push(running, uint64(c))
		}
		if direct != running {
			t.Fatalf("trial %d: window fp %d != direct push fp %d", trial, direct, running)
		}
	}
}

func TestEqualSubstringsShareFingerprint(t *testing.T) {
	h := NewHasher(32, 131)
	data := []byte("abcabcabc")
	w := NewWindow(h, data)
	a := w.Fingerprint(0, 3)
	b := w.Fingerprint(3, 6)
	c := w.Fingerprint(6, 9)
	if a != b || b != c {
		t.Errorf("equal substrings fingerprinted differently: %d %d %d", a, b, c)
	}
}

func TestRandomHasherBaseInRange(t *testing.T) {
	r := testutil.NewRand(7)
	h := NewRandomHasher(16, r)
	if h.base < 256 || h.base >= M61 {
		t.Fatalf("base out of range: %d", h.base)
	}
}
