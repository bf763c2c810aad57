// Copyright 2017, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package lzend

import (
	"encoding/binary"
	"io"
)

var magic = [4]byte{'T', 'K', 'Z', '1'}

// writeHeader writes the file header: a fixed magic, followed by the
// Config fields needed to reconstruct the block token coder, followed by
// the total phrase count, which Reader needs up front since block.Reader
// has no end-of-stream marker of its own — it decodes exactly as many
// tokens as it is asked for.
func writeHeader(w io.Writer, cfg Config, totalPhrases uint64) error {
	buf := append([]byte(nil), magic[:]...)
	buf = appendUvarint(buf, uint64(cfg.BlockSize))
	if cfg.PreferTrie {
		buf = append(buf, 1)
	} else {
		buf = append(buf, 0)
	}
	buf = appendUvarint(buf, totalPhrases)
	_, err := w.Write(buf)
	return err
}

func appendUvarint(buf []byte, v uint64) []byte {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	return append(buf, tmp[:n]...)
}

// readUvarint reads a uvarint one byte at a time directly off r, never
// reading further than the varint itself needs. A bufio.Reader would be
// simpler but risks prefetching bytes past the header that the block
// reader constructed immediately afterward would need to see.
func readUvarint(r io.Reader) (uint64, error) {
	var v uint64
	var shift uint
	var b [1]byte
	for {
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return 0, err
		}
		v |= uint64(b[0]&0x7f) << shift
		if b[0]&0x80 == 0 {
			return v, nil
		}
		shift += 7
	}
}

func readHeader(r io.Reader) (cfg Config, totalPhrases uint64, err error) {
	var m [4]byte
	if _, err = io.ReadFull(r, m[:]); err != nil {
		return
	}
	if m != magic {
		err = ErrCorrupt
		return
	}
	var blockSize uint64
	if blockSize, err = readUvarint(r); err != nil {
		return
	}
	var pt [1]byte
	if _, err = io.ReadFull(r, pt[:]); err != nil {
		return
	}
	if totalPhrases, err = readUvarint(r); err != nil {
		return
	}
	cfg = Config{BlockSize: int(blockSize), PreferTrie: pt[0] != 0}
	return
}
