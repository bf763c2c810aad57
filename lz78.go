// Copyright 2017, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package topkz

import (
	"github.com/dsnet/topkz/block"
	"github.com/dsnet/topkz/topk"
)

// Token types for VariantLZ78: TRIE_REF (the tracked node the phrase
// matched, as its StringState.Node value: arena index plus one, so 1 when
// only the root matched) and LITERAL, with an explicit HAS_LIT flag since
// the very last phrase of a stream may end exactly on a tracked node with
// no trailing miss byte to report.
const (
	lz78TrieRef = iota
	lz78HasLit
	lz78Literal
	lz78NumTypes
)

func lz78BlockConfig(cfg Config) block.Config {
	return block.Config{
		NumTypes:     lz78NumTypes,
		MaxBlockSize: cfg.BlockSize,
		Encodings:    []block.Encoding{block.EncodingHuffman, block.EncodingBinary, block.EncodingBinary},
	}
}

// lz78Encode walks data with a cursor that resets to the filter's root
// every time a byte fails to extend a tracked prefix, emitting one
// (TRIE_REF, HAS_LIT, [LITERAL]) token per such miss — classic LZ78 against
// an approximate, bounded dictionary instead of an unbounded exact one.
func lz78Encode(f *topk.Filter, bw *block.Writer, data []byte) error {
	i := 0
	for i < len(data) {
		cur := f.Empty()
		missed := false
		for i < len(data) {
			next := f.Extend(cur, data[i])
			if !next.Frequent {
				// This Extend call already attempted (and possibly
				// performed) the candidate insertion for data[i]; it must
				// not be repeated below.
				missed = true
				break
			}
			cur = next
			i++
		}
		if err := bw.Write(lz78TrieRef, uint64(cur.Node)); err != nil {
			return err
		}
		if missed {
			if err := bw.Write(lz78HasLit, 1); err != nil {
				return err
			}
			if err := bw.Write(lz78Literal, uint64(data[i])); err != nil {
				return err
			}
			i++
		} else {
			if err := bw.Write(lz78HasLit, 0); err != nil {
				return err
			}
		}
	}
	return nil
}

// lz78Decode reverses lz78Encode: it runs its own Filter through the exact
// same sequence of Extend calls the encoder made (deriving the bytes to
// replay by spelling each TRIE_REF out via f.Get), so the two filters stay
// in lockstep and every later TRIE_REF resolves to the same string.
func lz78Decode(f *topk.Filter, br *block.Reader, total uint64, k int) ([]byte, error) {
	decoded := make([]byte, 0, total)
	buf := make([]byte, k)
	for uint64(len(decoded)) < total {
		refRaw, err := br.Read(lz78TrieRef)
		if err != nil {
			return nil, err
		}
		hasLit, err := br.Read(lz78HasLit)
		if err != nil {
			return nil, err
		}

		cur := f.Empty()
		if refRaw != 0 {
			node := uint32(refRaw) - 1
			n := f.Get(node, buf)
			decoded = append(decoded, buf[:n]...)
			replayCur := f.Empty()
			for _, b := range buf[:n] {
				replayCur = f.Extend(replayCur, b)
			}
			cur = replayCur
		}
		if hasLit != 0 {
			litRaw, err := br.Read(lz78Literal)
			if err != nil {
				return nil, err
			}
			lit := byte(litRaw)
			decoded = append(decoded, lit)
			f.Extend(cur, lit)
		}
	}
	return decoded, nil
}
