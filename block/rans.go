// Copyright 2017, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package block

import (
	"encoding/binary"

	"github.com/klauspost/compress/fse"
)

// ransEncodeColumn batch-encodes one block's worth of a single token
// type's values through github.com/klauspost/compress/fse, which does the
// actual table-building and stream-coding work for any type configured
// with EncodingRANS. Token values are first varint-serialized into a byte
// stream, since fse only ever compresses a byte alphabet, then that byte
// stream is run through fse.Compress/fse.Decompress as a whole.
func ransEncodeColumn(values []uint64) ([]byte, error) {
	raw := make([]byte, 0, len(values)*2)
	var tmp [binary.MaxVarintLen64]byte
	for _, v := range values {
		n := binary.PutUvarint(tmp[:], v)
		raw = append(raw, tmp[:n]...)
	}
	if len(raw) == 0 {
		return nil, nil
	}
	compressed, err := fse.Compress(raw, &fse.Scratch{})
	switch err {
	case nil:
		return compressed, nil
	case fse.ErrIncompressible, fse.ErrUseRLE:
		// fse declines to build a table for data it judges not worth
		// compressing (too uniform, or a single repeated symbol); store
		// the varint stream verbatim, distinguished from a real fse blob
		// by the one-bit raw/compressed tag written by the caller.
		return nil, errIncompressibleColumn{raw}
	default:
		return nil, err
	}
}

// errIncompressibleColumn signals ransEncodeColumn's "store raw" fallback;
// it is not a real error, just a channel for the raw bytes back to the
// caller, which writes them under a distinct wire tag.
type errIncompressibleColumn struct{ raw []byte }

func (e errIncompressibleColumn) Error() string { return "block: column not fse-compressible" }

func ransDecompressRaw(compressed []byte) []byte {
	raw, err := fse.Decompress(compressed, &fse.Scratch{})
	if err != nil {
		panic(Error("fse: " + err.Error()))
	}
	return raw
}

func ransDecodeColumn(data []byte, count int) []uint64 {
	values := make([]uint64, 0, count)
	pos := 0
	for len(values) < count {
		v, n := binary.Uvarint(data[pos:])
		if n <= 0 {
			panic(ErrCorrupt)
		}
		values = append(values, v)
		pos += n
	}
	return values
}
