// Copyright 2017, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package topkz

import (
	"github.com/dsnet/topkz/block"
	"github.com/dsnet/topkz/topk"
)

// Token types for VariantLZ77: at each step, FACT_LEN doubles as the kind
// discriminator (zero means this step is a bare literal, carrying a
// TRIE_REF purely for diagnostic symmetry with VariantLZ78; non-zero means
// a factor, carrying FACT_SRC). FACT_LEN is capped at 255 so it always
// fits one byte under EncodingBinary; a match longer than that spills the
// remainder into FACT_REMAINDER. FACT_LITERAL carries the single trailing
// byte that always follows a factor (when more input remains) or the sole
// byte of a literal step.
const (
	lz77FactLen = iota
	lz77TrieRef
	lz77FactSrc
	lz77FactRemainder
	lz77FactLiteral
	lz77NumTypes
)

const lz77LenCap = 255

func lz77BlockConfig(cfg Config) block.Config {
	return block.Config{
		NumTypes:     lz77NumTypes,
		MaxBlockSize: cfg.BlockSize,
		Encodings: []block.Encoding{
			block.EncodingBinary,  // FACT_LEN: 0..255
			block.EncodingHuffman, // TRIE_REF
			block.EncodingHuffman, // FACT_SRC
			block.EncodingHuffman, // FACT_REMAINDER
			block.EncodingBinary,  // FACT_LITERAL: 0..255
		},
	}
}

// trieTracker maintains the filter's continuous online top-k walk,
// independent of how a caller chooses to factor the same bytes for
// output. f.Find always searches from the root, so it can only ever
// discover prefixes this tracker (or some earlier one) already built by
// walking forward through consecutive bytes; VariantLZ77 keeps exactly one
// tracker alive across the whole input; on both the encode and decode
// side it is fed the same bytes in the same order regardless of factor
// boundaries, so the filter's internal state never diverges between them.
type trieTracker struct {
	f   *topk.Filter
	cur topk.StringState
}

func newTrieTracker(f *topk.Filter) *trieTracker {
	return &trieTracker{f: f, cur: f.Empty()}
}

func (tr *trieTracker) feed(c byte) {
	next := tr.f.Extend(tr.cur, c)
	if next.Frequent {
		tr.cur = next
	} else {
		tr.cur = tr.f.Empty()
	}
}

func (tr *trieTracker) feedAll(s []byte) {
	for _, c := range s {
		tr.feed(c)
	}
}

// lz77Encode scans data left to right, searching the filter's trie at
// every position for the longest tracked prefix starting there (rather
// than only where a single forward cursor happens to sit, as VariantLZ78
// does), factoring a match into (FACT_SRC, FACT_LEN[, FACT_REMAINDER]) plus
// a trailing literal, or else a bare literal step. A separate trieTracker
// walks every consumed byte in parallel, since that continuous walk — not
// the factoring decisions — is what deepens the trie over time.
func lz77Encode(f *topk.Filter, bw *block.Writer, data []byte) error {
	tr := newTrieTracker(f)
	pos := 0
	for pos < len(data) {
		depth, node := f.Find(data[pos:])
		if depth > 0 {
			capped := depth
			rem := 0
			if capped > lz77LenCap {
				rem = capped - lz77LenCap
				capped = lz77LenCap
			}
			if err := bw.Write(lz77FactLen, uint64(capped)); err != nil {
				return err
			}
			if err := bw.Write(lz77FactSrc, uint64(node)); err != nil {
				return err
			}
			if capped == lz77LenCap {
				if err := bw.Write(lz77FactRemainder, uint64(rem)); err != nil {
					return err
				}
			}
			tr.feedAll(data[pos : pos+depth])
			pos += depth
			if pos < len(data) {
				if err := bw.Write(lz77FactLiteral, uint64(data[pos])); err != nil {
					return err
				}
				tr.feed(data[pos])
				pos++
			}
			continue
		}

		if err := bw.Write(lz77FactLen, 0); err != nil {
			return err
		}
		if err := bw.Write(lz77TrieRef, uint64(node)); err != nil {
			return err
		}
		if err := bw.Write(lz77FactLiteral, uint64(data[pos])); err != nil {
			return err
		}
		tr.feed(data[pos])
		pos++
	}
	return nil
}

// lz77Decode reverses lz77Encode, spelling each factor's bytes out of the
// filter via f.Get and feeding every decoded byte through its own
// trieTracker in the same order the encoder did, so the two filters never
// diverge and every later FACT_SRC/TRIE_REF resolves to the same string.
func lz77Decode(f *topk.Filter, br *block.Reader, total uint64, k int) ([]byte, error) {
	tr := newTrieTracker(f)
	decoded := make([]byte, 0, total)
	buf := make([]byte, k)
	for uint64(len(decoded)) < total {
		factLenRaw, err := br.Read(lz77FactLen)
		if err != nil {
			return nil, err
		}

		if factLenRaw == 0 {
			if _, err := br.Read(lz77TrieRef); err != nil {
				return nil, err
			}
			litRaw, err := br.Read(lz77FactLiteral)
			if err != nil {
				return nil, err
			}
			lit := byte(litRaw)
			decoded = append(decoded, lit)
			tr.feed(lit)
			continue
		}

		srcRaw, err := br.Read(lz77FactSrc)
		if err != nil {
			return nil, err
		}
		if factLenRaw == lz77LenCap {
			if _, err := br.Read(lz77FactRemainder); err != nil {
				return nil, err
			}
		}
		n := f.Get(uint32(srcRaw), buf)
		span := append([]byte(nil), buf[:n]...)
		decoded = append(decoded, span...)
		tr.feedAll(span)

		if uint64(len(decoded)) < total {
			litRaw, err := br.Read(lz77FactLiteral)
			if err != nil {
				return nil, err
			}
			lit := byte(litRaw)
			decoded = append(decoded, lit)
			tr.feed(lit)
		}
	}
	return decoded, nil
}
