// Copyright 2017, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package block

import (
	"io"
	"math/bits"
	"sort"
)

type entry struct {
	typ uint32
	val uint64
}

// huffEncodeState holds one block's canonical Huffman assignment for a
// single type: which rank (index into the block-local sorted distinct
// value list) a token value maps to, and that rank's final code.
type huffEncodeState struct {
	rankOf map[uint64]int
	codes  []huffCode // indexed by rank
}

// Writer buffers tokens of up to Config.NumTypes declared types and
// flushes them as blocks of at most Config.MaxBlockSize tokens total. Each
// type's tokens are coded per that type's configured Encoding; binary and
// Huffman tokens are bit-interleaved into the block's payload in their
// original Write call order, while rANS-coded types are instead batch
// encoded as one column per block (see rans.go) and consumed back out in
// the same relative order independent of bit position — the rANS coder
// operates over a whole column at once, so it cannot be interleaved bit by
// bit with the other types' codes the way Binary/Huffman naturally are.
type Writer struct {
	cfg     Config
	bw      *bitWriter
	entries []entry
}

// NewWriter validates cfg and returns a Writer that streams blocks to w.
func NewWriter(w io.Writer, cfg Config) (*Writer, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Writer{cfg: cfg, bw: newBitWriter(w)}, nil
}

// Write buffers a token of the given type, flushing a full block
// automatically once Config.MaxBlockSize tokens have accumulated across all
// types.
func (w *Writer) Write(typ int, val uint64) error {
	if typ < 0 || typ >= w.cfg.NumTypes {
		return ErrConfigInvalid
	}
	w.entries = append(w.entries, entry{uint32(typ), val})
	if len(w.entries) >= w.cfg.MaxBlockSize {
		return w.flush(true)
	}
	return nil
}

// Flush emits any buffered tokens as a final (explicit-size) block. It is
// always safe to call even with nothing buffered.
func (w *Writer) Flush() error { return w.flush(false) }

// Close flushes any remaining tokens; Writer has no other persistent
// resource to release.
func (w *Writer) Close() error { return w.Flush() }

func minMaxUint64(vs []uint64) (mn, mx uint64) {
	mn, mx = vs[0], vs[0]
	for _, v := range vs[1:] {
		if v < mn {
			mn = v
		}
		if v > mx {
			mx = v
		}
	}
	return
}

func widthFor(span uint64) uint { return uint(bits.Len64(span)) }

func (w *Writer) flush(full bool) (err error) {
	defer errRecover(&err)
	if len(w.entries) == 0 {
		return nil
	}
	bw := w.bw

	cols := make([][]uint64, w.cfg.NumTypes)
	for _, e := range w.entries {
		cols[e.typ] = append(cols[e.typ], e.val)
	}

	bw.WriteBit(full)
	if !full {
		bw.WriteUvarint(uint64(len(w.entries)))
	}

	binRanges := make([][2]uint64, w.cfg.NumTypes)
	huffCoders := make([]*huffEncodeState, w.cfg.NumTypes)

	for t := 0; t < w.cfg.NumTypes; t++ {
		vals := cols[t]
		bw.WriteUvarint(uint64(len(vals)))
		if len(vals) == 0 {
			continue
		}
		switch w.cfg.Encodings[t] {
		case EncodingBinary:
			mn, mx := minMaxUint64(vals)
			bw.WriteUvarint(mn)
			bw.WriteUvarint(mx)
			binRanges[t] = [2]uint64{mn, mx}

		case EncodingHuffman:
			hist := make(map[uint64]uint64, len(vals))
			for _, v := range vals {
				hist[v]++
			}
			distinct := make([]uint64, 0, len(hist))
			for v := range hist {
				distinct = append(distinct, v)
			}
			sort.Slice(distinct, func(i, j int) bool { return distinct[i] < distinct[j] })

			freqs := make([]uint64, len(distinct))
			rankOf := make(map[uint64]int, len(distinct))
			for i, v := range distinct {
				freqs[i] = hist[v]
				rankOf[v] = i
			}
			lengths := buildHuffmanLengths(freqs)
			codes := canonicalize(lengths)

			bw.WriteUvarint(uint64(len(distinct)))
			lenOf := make([]uint32, len(distinct))
			for _, c := range codes {
				lenOf[c.sym] = c.len
			}
			for _, v := range distinct {
				bw.WriteUvarint(v)
				bw.WriteUvarint(uint64(lenOf[rankOf[v]]))
			}

			byRank := make([]huffCode, len(distinct))
			for _, c := range codes {
				byRank[c.sym] = c
			}
			huffCoders[t] = &huffEncodeState{rankOf: rankOf, codes: byRank}

		case EncodingRANS:
			compressed, ierr := ransEncodeColumn(vals)
			if ic, ok := ierr.(errIncompressibleColumn); ok {
				bw.WriteBit(false)
				bw.WriteUvarint(uint64(len(ic.raw)))
				bw.WriteBytes(ic.raw)
			} else if ierr != nil {
				panic(Error(ierr.Error()))
			} else {
				bw.WriteBit(true)
				bw.WriteUvarint(uint64(len(compressed)))
				bw.WriteBytes(compressed)
			}
		}
	}

	for _, e := range w.entries {
		switch w.cfg.Encodings[e.typ] {
		case EncodingBinary:
			rng := binRanges[e.typ]
			bw.WriteBits(e.val-rng[0], widthFor(rng[1]-rng[0]))
		case EncodingHuffman:
			st := huffCoders[e.typ]
			c := st.codes[st.rankOf[e.val]]
			bw.WriteBits(uint64(c.val), uint(c.len))
		case EncodingRANS:
			// Already emitted as a batch column above.
		}
	}
	bw.Align()

	w.entries = w.entries[:0]
	if err := bw.Flush(); err != nil {
		panic(Error(err.Error()))
	}
	return nil
}
