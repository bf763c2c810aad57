// Copyright 2017, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package block

import "io"

// Reader decodes the block stream a matching Writer produced. It must be
// constructed with an identical Config: the encoding chosen for each type
// is never carried on the wire, only each block's auxiliary data for that
// encoding.
type Reader struct {
	cfg Config
	br  *bitReader

	remaining int // tokens left to read in the current block, across all types

	binRanges  [][2]uint64
	huffDec    []*huffmanDecoder
	ransQueues [][]uint64
	ransPos    []int
}

// NewReader validates cfg and returns a Reader pulling blocks from r.
func NewReader(r io.Reader, cfg Config) (*Reader, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Reader{cfg: cfg, br: newBitReader(r)}, nil
}

// Read decodes the next token of the given type. Types must be requested
// in exactly the order their values were originally written (interleaved
// across types exactly as the writer's Write calls were), since that call
// order is the protocol carrying which type occupies each position in the
// shared bit-interleaved portion of the block.
func (r *Reader) Read(typ int) (val uint64, err error) {
	defer errRecover(&err)
	if typ < 0 || typ >= r.cfg.NumTypes {
		panic(ErrConfigInvalid)
	}
	if r.remaining <= 0 {
		r.refillBlock()
	}
	r.remaining--

	switch r.cfg.Encodings[typ] {
	case EncodingBinary:
		rng := r.binRanges[typ]
		v := r.br.ReadBits(widthFor(rng[1]-rng[0])) + rng[0]
		val = v
	case EncodingHuffman:
		d := r.huffDec[typ]
		if d == nil {
			panic(ErrCorrupt)
		}
		val = d.decode(r.br)
	case EncodingRANS:
		q := r.ransQueues[typ]
		if r.ransPos[typ] >= len(q) {
			panic(ErrCorrupt)
		}
		val = q[r.ransPos[typ]]
		r.ransPos[typ]++
	}

	if r.remaining == 0 {
		r.br.Align()
	}
	return val, nil
}

func (r *Reader) refillBlock() {
	br := r.br
	full := br.ReadBit()
	var n int
	if full {
		n = r.cfg.MaxBlockSize
	} else {
		n = int(br.ReadUvarint())
	}
	if n == 0 {
		panic(ErrCorrupt)
	}
	r.remaining = n

	r.binRanges = make([][2]uint64, r.cfg.NumTypes)
	r.huffDec = make([]*huffmanDecoder, r.cfg.NumTypes)
	r.ransQueues = make([][]uint64, r.cfg.NumTypes)
	r.ransPos = make([]int, r.cfg.NumTypes)

	for t := 0; t < r.cfg.NumTypes; t++ {
		cnt := int(br.ReadUvarint())
		if cnt == 0 {
			continue
		}
		switch r.cfg.Encodings[t] {
		case EncodingBinary:
			mn := br.ReadUvarint()
			mx := br.ReadUvarint()
			r.binRanges[t] = [2]uint64{mn, mx}

		case EncodingHuffman:
			distinctN := int(br.ReadUvarint())
			syms := make([]uint64, distinctN)
			lengths := make([]uint32, distinctN)
			for i := 0; i < distinctN; i++ {
				syms[i] = br.ReadUvarint()
				lengths[i] = uint32(br.ReadUvarint())
			}
			codes := canonicalize(lengths)
			r.huffDec[t] = newHuffmanDecoder(codes, syms)

		case EncodingRANS:
			tag := br.ReadBit()
			blen := int(br.ReadUvarint())
			raw := br.ReadBytes(blen)
			var data []byte
			if tag {
				data = ransDecompressRaw(raw)
			} else {
				data = raw
			}
			r.ransQueues[t] = ransDecodeColumn(data, cnt)
		}
	}
}
