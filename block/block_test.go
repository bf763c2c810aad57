// Copyright 2017, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package block

import (
	"bytes"
	"math/rand"
	"testing"
)

func roundTrip(t *testing.T, cfg Config, types []int, vals []uint64) []uint64 {
	t.Helper()
	var buf bytes.Buffer
	w, err := NewWriter(&buf, cfg)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	for i := range types {
		if err := w.Write(types[i], vals[i]); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	r, err := NewReader(bytes.NewReader(buf.Bytes()), cfg)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	got := make([]uint64, len(vals))
	for i := range types {
		v, err := r.Read(types[i])
		if err != nil {
			t.Fatalf("Read[%d]: %v", i, err)
		}
		got[i] = v
	}
	return got
}

func checkEqual(t *testing.T, got, want []uint64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("value[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestBinaryRoundTrip(t *testing.T) {
	cfg := Config{NumTypes: 1, MaxBlockSize: 64, Encodings: []Encoding{EncodingBinary}}
	var vals []uint64
	var types []int
	for i := uint64(0); i < 50; i++ {
		vals = append(vals, (i*37)%200)
		types = append(types, 0)
	}
	got := roundTrip(t, cfg, types, vals)
	checkEqual(t, got, vals)
}

func TestHuffmanRoundTrip(t *testing.T) {
	cfg := Config{NumTypes: 1, MaxBlockSize: 64, Encodings: []Encoding{EncodingHuffman}}
	r := rand.New(rand.NewSource(1))
	var vals []uint64
	var types []int
	for i := 0; i < 60; i++ {
		// Skewed distribution so the Huffman path actually branches.
		v := uint64(0)
		if r.Intn(10) != 0 {
			v = uint64(r.Intn(3))
		} else {
			v = uint64(100 + r.Intn(50))
		}
		vals = append(vals, v)
		types = append(types, 0)
	}
	got := roundTrip(t, cfg, types, vals)
	checkEqual(t, got, vals)
}

func TestRANSRoundTrip(t *testing.T) {
	cfg := Config{NumTypes: 1, MaxBlockSize: 128, Encodings: []Encoding{EncodingRANS}}
	r := rand.New(rand.NewSource(2))
	var vals []uint64
	var types []int
	for i := 0; i < 120; i++ {
		vals = append(vals, uint64(r.Intn(6)))
		types = append(types, 0)
	}
	got := roundTrip(t, cfg, types, vals)
	checkEqual(t, got, vals)
}

func TestMultiTypeInterleaved(t *testing.T) {
	cfg := Config{
		NumTypes:     3,
		MaxBlockSize: 30,
		Encodings:    []Encoding{EncodingBinary, EncodingHuffman, EncodingRANS},
	}
	var types []int
	var vals []uint64
	for i := 0; i < 90; i++ {
		types = append(types, i%3)
		vals = append(vals, uint64(i%3)*10+uint64(i%7))
	}
	got := roundTrip(t, cfg, types, vals)
	checkEqual(t, got, vals)
}

func TestSpansMultipleBlocks(t *testing.T) {
	cfg := Config{NumTypes: 1, MaxBlockSize: 8, Encodings: []Encoding{EncodingBinary}}
	var vals []uint64
	var types []int
	for i := uint64(0); i < 100; i++ {
		vals = append(vals, i%17)
		types = append(types, 0)
	}
	got := roundTrip(t, cfg, types, vals)
	checkEqual(t, got, vals)
}

func TestInvalidConfigRejected(t *testing.T) {
	cases := []Config{
		{NumTypes: 0, MaxBlockSize: 1, Encodings: []Encoding{}},
		{NumTypes: 1, MaxBlockSize: 0, Encodings: []Encoding{EncodingBinary}},
		{NumTypes: 2, MaxBlockSize: 1, Encodings: []Encoding{EncodingBinary}},
	}
	for i, cfg := range cases {
		if _, err := NewWriter(&bytes.Buffer{}, cfg); err == nil {
			t.Errorf("case %d: NewWriter accepted invalid config %+v", i, cfg)
		}
	}
}
