// Copyright 2017, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package lzend

import (
	"io"

	"github.com/dsnet/topkz/block"
	"github.com/dsnet/topkz/phrase"
)

// Reader decompresses an LZ-End token stream a Writer produced: construct
// with NewReader, then call Read repeatedly until io.EOF.
//
// Reader decodes the entire phrase vector up front in NewReader, since the
// file header already commits to a total phrase count; Read then just
// serves bytes out of phrase.Phrases.ExtractAll's output.
type Reader struct {
	phrases *phrase.Phrases
	pending []byte
	done    bool
}

// NewReader reads the file header and phrase vector from r.
func NewReader(r io.Reader) (rd *Reader, err error) {
	defer errRecover(&err)
	cfg, total, err := readHeader(r)
	if err != nil {
		return nil, err
	}
	phrases := phrase.New()
	if total > 0 {
		if err := cfg.validate(); err != nil {
			return nil, err
		}
		br, err := block.NewReader(r, blockConfig(cfg))
		if err != nil {
			return nil, err
		}
		ends := make([]uint64, 1, total+1) // ends[q] = text length through phrase q
		for i := uint64(0); i < total; i++ {
			link, err := br.Read(typRef)
			if err != nil {
				return nil, err
			}
			lenMinus1, err := br.Read(typLen)
			if err != nil {
				return nil, err
			}
			last, err := br.Read(typLiteral)
			if err != nil {
				return nil, err
			}
			// Phrase i+1 may only reference a strictly earlier phrase, must
			// not copy more text than exists through that phrase's end, and
			// its fields must fit the vector's arithmetic; anything else is
			// a corrupt stream, not a recoverable candidate miss.
			if link > i || lenMinus1 >= 1<<31 || last > 0xff || lenMinus1 > ends[link] {
				return nil, ErrCorrupt
			}
			ends = append(ends, ends[i]+lenMinus1+1)
			phrases.Append(uint32(link), uint32(lenMinus1)+1, byte(last))
		}
	}
	return &Reader{phrases: phrases}, nil
}

// Read serves the fully decoded text out of the phrase vector.
func (r *Reader) Read(p []byte) (n int, err error) {
	if len(r.pending) == 0 {
		if r.done {
			return 0, io.EOF
		}
		r.pending = r.phrases.ExtractAll()
		r.done = true
		if len(r.pending) == 0 {
			return 0, io.EOF
		}
	}
	n = copy(p, r.pending)
	r.pending = r.pending[n:]
	return n, nil
}
