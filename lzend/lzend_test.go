// Copyright 2017, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package lzend

import (
	"bytes"
	"io"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dsnet/topkz/phrase"
)

// parseAll runs cfg's parser over data and returns the finalized phrase
// vector, decoded back to bytes, alongside the phrase count.
func parseAll(t *testing.T, cfg Config, data []byte) ([]byte, int) {
	t.Helper()
	phrases := phrase.New()
	var maxLen uint32
	p := NewParser(cfg, func(ph phrase.Phrase) {
		phrases.Append(ph.Link, ph.Len, ph.Last)
		if ph.Len > maxLen {
			maxLen = ph.Len
		}
	})
	for _, c := range data {
		p.Step(c)
	}
	p.Flush()
	if maxLen > uint32(3*cfg.BlockSize) {
		t.Errorf("phrase grew to length %d, exceeding the 3*BlockSize window %d", maxLen, 3*cfg.BlockSize)
	}
	return phrases.ExtractAll(), int(phrases.Len()) - 1
}

var sampleStrings = []string{
	"ababbbabbabbbabbaa",
	"aaaaaaaa",
	"abcabcabcabcabc",
	"",
	"x",
	"xy",
}

func TestParserRoundTrip(t *testing.T) {
	for _, s := range sampleStrings {
		for _, preferTrie := range []bool{true, false} {
			for _, blockSize := range []int{4, 6, 64} {
				cfg := Config{BlockSize: blockSize, PreferTrie: preferTrie}
				got, _ := parseAll(t, cfg, []byte(s))
				if !bytes.Equal(got, []byte(s)) {
					t.Errorf("round trip mismatch for %q (blockSize=%d preferTrie=%v): got %q", s, blockSize, preferTrie, got)
				}
			}
		}
	}
}

func TestParserKnownParse(t *testing.T) {
	input := "ababbbabbabbbabbaa"
	var got []phrase.Phrase
	p := NewParser(Config{BlockSize: 6, PreferTrie: true}, func(ph phrase.Phrase) {
		got = append(got, ph)
	})
	for _, c := range []byte(input) {
		p.Step(c)
	}
	p.Flush()

	want := []phrase.Phrase{
		{Link: 0, Len: 1, Last: 'a'},
		{Link: 0, Len: 1, Last: 'b'},
		{Link: 2, Len: 3, Last: 'b'},
		{Link: 3, Len: 5, Last: 'a'},
		{Link: 4, Len: 8, Last: 'a'},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("parsed phrases mismatch (-want +got):\n%s", diff)
	}
}

func TestParserAlternatingLong(t *testing.T) {
	var buf bytes.Buffer
	for i := 0; i < 512; i++ {
		buf.WriteString("ab")
	}
	cfg := Config{BlockSize: 8, PreferTrie: true}
	got, n := parseAll(t, cfg, buf.Bytes())
	if !bytes.Equal(got, buf.Bytes()) {
		t.Fatalf("round trip mismatch on alternating input")
	}
	if n == 0 {
		t.Fatalf("expected at least one phrase")
	}
	if n >= buf.Len() {
		t.Errorf("expected meaningful compression on highly repetitive input, got %d phrases for %d bytes", n, buf.Len())
	}
}

func TestParserRandom(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for trial := 0; trial < 20; trial++ {
		n := r.Intn(300)
		data := make([]byte, n)
		for i := range data {
			data[i] = byte('a' + r.Intn(4))
		}
		cfg := Config{BlockSize: 1 + r.Intn(16), PreferTrie: trial%2 == 0}
		got, _ := parseAll(t, cfg, data)
		if !bytes.Equal(got, data) {
			t.Fatalf("trial %d: round trip mismatch for %q under cfg %+v", trial, data, cfg)
		}
	}
}

func writerReaderRoundTrip(t *testing.T, cfg Config, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w, err := NewWriter(&buf, cfg)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	if _, err := w.Write(data); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	r, err := NewReader(&buf)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	return got
}

func TestWriterReaderRoundTrip(t *testing.T) {
	cfg := Config{BlockSize: 6, PreferTrie: true}
	for _, s := range sampleStrings {
		got := writerReaderRoundTrip(t, cfg, []byte(s))
		if !bytes.Equal(got, []byte(s)) {
			t.Errorf("writer/reader round trip mismatch for %q: got %q", s, got)
		}
	}
}

func TestWriterReaderEmpty(t *testing.T) {
	got := writerReaderRoundTrip(t, Config{BlockSize: 4}, nil)
	if len(got) != 0 {
		t.Errorf("expected empty output, got %q", got)
	}
}

func TestWriterReaderMultiBlock(t *testing.T) {
	r := rand.New(rand.NewSource(11))
	data := make([]byte, 2000)
	for i := range data {
		data[i] = byte('a' + r.Intn(5))
	}
	got := writerReaderRoundTrip(t, Config{BlockSize: 5, PreferTrie: false}, data)
	if !bytes.Equal(got, data) {
		t.Errorf("round trip mismatch across many blocks")
	}
}

func TestInvalidConfigRejected(t *testing.T) {
	if _, err := NewWriter(&bytes.Buffer{}, Config{BlockSize: 0}); err == nil {
		t.Error("expected error for zero BlockSize")
	}
}

func TestReaderRejectsBadMagic(t *testing.T) {
	if _, err := NewReader(bytes.NewReader([]byte("not a stream"))); err == nil {
		t.Error("expected error for malformed header")
	}
}
