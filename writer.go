// Copyright 2017, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package topkz

import (
	"bytes"
	"io"

	"github.com/dsnet/topkz/block"
	"github.com/dsnet/topkz/lzend"
)

// Writer compresses a byte stream under one of the three variants, shaped
// after lzend.Writer: construct with NewWriter, call Write repeatedly, then
// Close to flush the container header and trailing block.
//
// Unlike lzend.Writer, the top-k variants buffer the entire input in
// memory (rather than parsing incrementally) since both need the total
// output length up front for the container header, and neither variant's
// encode pass gains anything from incremental operation the way lzend's
// phrase parser does.
type Writer struct {
	cfg Config
	out io.Writer
	buf bytes.Buffer

	lzendW *lzend.Writer
}

// NewWriter validates cfg and returns a Writer that will write a complete
// topkz stream to w once Close is called.
func NewWriter(w io.Writer, cfg Config) (*Writer, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	tw := &Writer{cfg: cfg, out: w}
	if cfg.Variant == VariantLZEnd {
		if err := writeContainerHeader(w, cfg, 0); err != nil {
			return nil, err
		}
		lw, err := lzend.NewWriter(w, lzend.Config{BlockSize: cfg.BlockSize, PreferTrie: cfg.PreferTrie})
		if err != nil {
			return nil, err
		}
		tw.lzendW = lw
	}
	return tw, nil
}

// Write buffers p (top-k variants) or forwards it straight to the inner
// lzend.Writer (VariantLZEnd, which parses incrementally already).
func (w *Writer) Write(p []byte) (int, error) {
	if w.lzendW != nil {
		return w.lzendW.Write(p)
	}
	return w.buf.Write(p)
}

// Close finishes the stream: for VariantLZEnd it just closes the inner
// writer; for the top-k variants it now knows the total input length and
// runs the buffered encode pass.
func (w *Writer) Close() (err error) {
	if w.lzendW != nil {
		return w.lzendW.Close()
	}
	defer errRecover(&err)

	data := w.buf.Bytes()
	if err := writeContainerHeader(w.out, w.cfg, uint64(len(data))); err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}

	f := w.cfg.newFilter()
	switch w.cfg.Variant {
	case VariantLZ78:
		bw, err := block.NewWriter(w.out, lz78BlockConfig(w.cfg))
		if err != nil {
			return err
		}
		if err := lz78Encode(f, bw, data); err != nil {
			return err
		}
		return bw.Close()
	case VariantLZ77:
		bw, err := block.NewWriter(w.out, lz77BlockConfig(w.cfg))
		if err != nil {
			return err
		}
		if err := lz77Encode(f, bw, data); err != nil {
			return err
		}
		return bw.Close()
	default:
		return ErrConfigInvalid
	}
}
