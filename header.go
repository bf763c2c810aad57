// Copyright 2017, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package topkz

import (
	"encoding/binary"
	"io"
)

var magic = [5]byte{'T', 'O', 'P', 'K', 'Z'}

// writeContainerHeader writes the outer magic and variant tag common to
// every stream this package produces. For VariantLZEnd that is the whole
// header: lzend.NewWriter writes its own self-contained header and body
// immediately afterward on the same io.Writer. The top-k variants instead
// need their filter parameters, block size and the total decoded length up
// front, since block.Reader has no end-of-stream marker of its own.
func writeContainerHeader(w io.Writer, cfg Config, totalLen uint64) error {
	buf := append([]byte(nil), magic[:]...)
	buf = append(buf, byte(cfg.Variant))
	if cfg.Variant != VariantLZEnd {
		buf = appendUvarint(buf, uint64(cfg.K))
		buf = appendUvarint(buf, cfg.FPWindow)
		buf = appendUvarint(buf, uint64(cfg.SketchColumns))
		buf = appendUvarint(buf, cfg.Seed)
		buf = appendUvarint(buf, uint64(cfg.BlockSize))
		var approx uint64
		if cfg.ApproxMinPQ {
			approx = 1
		}
		buf = appendUvarint(buf, approx)
		buf = appendUvarint(buf, totalLen)
	}
	_, err := w.Write(buf)
	return err
}

func appendUvarint(buf []byte, v uint64) []byte {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	return append(buf, tmp[:n]...)
}

// readUvarint reads a uvarint one byte at a time directly off r, so that a
// subsequent block.NewReader on the same r never has bytes stolen out from
// under it by a buffering reader.
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

func readContainerHeader(r io.Reader) (cfg Config, totalLen uint64, err error) {
	var m [5]byte
	if _, err = io.ReadFull(r, m[:]); err != nil {
		return
	}
	if m != magic {
		err = ErrCorrupt
		return
	}
	var vb [1]byte
	if _, err = io.ReadFull(r, vb[:]); err != nil {
		return
	}
	variant := Variant(vb[0])
	if variant > VariantLZ77 {
		err = ErrCorrupt
		return
	}
	cfg.Variant = variant
	if variant == VariantLZEnd {
		return cfg, 0, nil
	}
	var k, sketchCols, blockSize, approx uint64
	if k, err = readUvarint(r); err != nil {
		return
	}
	if cfg.FPWindow, err = readUvarint(r); err != nil {
		return
	}
	if sketchCols, err = readUvarint(r); err != nil {
		return
	}
	if cfg.Seed, err = readUvarint(r); err != nil {
		return
	}
	if blockSize, err = readUvarint(r); err != nil {
		return
	}
	if approx, err = readUvarint(r); err != nil {
		return
	}
	if totalLen, err = readUvarint(r); err != nil {
		return
	}
	cfg.K = int(k)
	cfg.SketchColumns = int(sketchCols)
	cfg.BlockSize = int(blockSize)
	cfg.ApproxMinPQ = approx != 0
	return cfg, totalLen, nil
}
