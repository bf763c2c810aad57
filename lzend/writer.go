// Copyright 2017, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package lzend

import (
	"io"

	"github.com/dsnet/topkz/block"
	"github.com/dsnet/topkz/phrase"
)

// Token types carried by the block coder: REF (a phrase's link, 0 for a
// literal), LEN (that phrase's length minus one, so a literal's length-1
// field is 0 and costs nothing extra under Huffman), and LITERAL (the
// phrase's trailing byte).
const (
	typRef = iota
	typLen
	typLiteral
	numTypes
)

func blockConfig(cfg Config) block.Config {
	return block.Config{
		NumTypes:     numTypes,
		MaxBlockSize: cfg.BlockSize,
		Encodings:    []block.Encoding{block.EncodingHuffman, block.EncodingHuffman, block.EncodingBinary},
	}
}

// Writer compresses a byte stream into an LZ-End token stream: construct
// with NewWriter, call Write repeatedly, then Close to flush the final
// phrases and the block coder's trailing block.
//
// Writer buffers every finalized phrase in memory rather than streaming
// blocks out as they fill, since the file header needs the total phrase
// count up front (see header.go) and Parser already keeps the whole
// processed prefix in memory besides.
type Writer struct {
	cfg       Config
	out       io.Writer
	parser    *Parser
	finalized []phrase.Phrase
}

// NewWriter validates cfg and returns a Writer that will write a complete
// LZ-End stream to w once Close is called.
func NewWriter(w io.Writer, cfg Config) (*Writer, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	lw := &Writer{cfg: cfg, out: w}
	lw.parser = NewParser(cfg, func(ph phrase.Phrase) {
		lw.finalized = append(lw.finalized, ph)
	})
	return lw, nil
}

// Write feeds p through the parser. It never returns a short write or an
// error of its own; any error surfaces from Close, once the token coder
// actually runs.
func (w *Writer) Write(p []byte) (int, error) {
	for _, c := range p {
		w.parser.Step(c)
	}
	return len(p), nil
}

// Close finalizes every remaining phrase, writes the file header, then
// encodes every phrase as a block of REF/LEN/LITERAL tokens.
func (w *Writer) Close() (err error) {
	defer errRecover(&err)
	w.parser.Flush()

	if err := writeHeader(w.out, w.cfg, uint64(len(w.finalized))); err != nil {
		return err
	}
	if len(w.finalized) == 0 {
		return nil
	}
	bw, err := block.NewWriter(w.out, blockConfig(w.cfg))
	if err != nil {
		return err
	}
	for _, ph := range w.finalized {
		if err := bw.Write(typRef, uint64(ph.Link)); err != nil {
			return err
		}
		if err := bw.Write(typLen, uint64(ph.Len-1)); err != nil {
			return err
		}
		if err := bw.Write(typLiteral, uint64(ph.Last)); err != nil {
			return err
		}
	}
	return bw.Close()
}
