// Copyright 2017, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package topkz

import (
	"io"

	"github.com/dsnet/topkz/block"
	"github.com/dsnet/topkz/lzend"
)

// Reader decompresses a topkz stream a Writer produced, shaped after
// lzend.Reader: construct with NewReader, then call Read repeatedly until
// io.EOF. The container header's variant tag picks which decode path runs;
// NewReader decodes the top-k variants' whole payload up front, the same
// way lzend.Reader does; their total decoded length comes from the
// container header.
type Reader struct {
	pending []byte
	done    bool

	lzendR *lzend.Reader
}

// NewReader reads the container header and, for the top-k variants, the
// entire decoded payload.
func NewReader(r io.Reader) (rd *Reader, err error) {
	defer errRecover(&err)
	cfg, total, err := readContainerHeader(r)
	if err != nil {
		return nil, err
	}
	if cfg.Variant == VariantLZEnd {
		lr, err := lzend.NewReader(r)
		if err != nil {
			return nil, err
		}
		return &Reader{lzendR: lr}, nil
	}

	out := &Reader{}
	if total == 0 {
		out.done = true
		return out, nil
	}
	// Filter parameters came off the wire; a combination NewWriter would
	// have refused (K < 2, non-power-of-two sketch columns) is corruption,
	// not a configuration the caller chose.
	if cfg.validate() != nil {
		return nil, ErrCorrupt
	}
	f := cfg.newFilter()
	var blockCfg block.Config
	switch cfg.Variant {
	case VariantLZ78:
		blockCfg = lz78BlockConfig(cfg)
	case VariantLZ77:
		blockCfg = lz77BlockConfig(cfg)
	default:
		return nil, ErrCorrupt
	}
	br, err := block.NewReader(r, blockCfg)
	if err != nil {
		return nil, err
	}
	var decoded []byte
	switch cfg.Variant {
	case VariantLZ78:
		decoded, err = lz78Decode(f, br, total, cfg.K)
	case VariantLZ77:
		decoded, err = lz77Decode(f, br, total, cfg.K)
	}
	if err != nil {
		return nil, err
	}
	out.pending = decoded
	out.done = true
	return out, nil
}

// Read serves the decoded bytes: directly from the inner lzend.Reader for
// VariantLZEnd, or out of the fully-decoded buffer for the top-k variants.
func (r *Reader) Read(p []byte) (n int, err error) {
	if r.lzendR != nil {
		return r.lzendR.Read(p)
	}
	if len(r.pending) == 0 {
		return 0, io.EOF
	}
	n = copy(p, r.pending)
	r.pending = r.pending[n:]
	return n, nil
}

var _ io.ReadCloser = (*nopReadCloser)(nil)

// nopReadCloser adapts a Reader to io.ReadCloser for callers that want a
// single Close to call regardless of variant.
type nopReadCloser struct{ *Reader }

func (nopReadCloser) Close() error { return nil }

// NewReadCloser is a convenience wrapper around NewReader for callers that
// want an io.ReadCloser.
func NewReadCloser(r io.Reader) (io.ReadCloser, error) {
	rd, err := NewReader(r)
	if err != nil {
		return nil, err
	}
	return nopReadCloser{rd}, nil
}
