// Copyright 2017, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

// Package lzend implements an LZ-End parse: a greedy factorization of the
// input into phrases, each either a single literal byte or a reference to
// an earlier phrase's expansion extended by one byte, chosen so that every
// phrase boundary coincides with the end of some earlier phrase. This is
// the property ("end" in LZ-End) that lets decoding run without recursion
// deeper than the phrase chain itself, via phrase.Phrases.DecodeRev.
//
// Absorption candidates come from two complementary searches — revtrie
// over old history and winidx over the recent window — and every candidate
// is byte-validated against the buffered text before it is accepted.
package lzend

import "runtime"

// Error is the wrapper type for errors specific to this package, matching
// the convention used throughout this module.
type Error string

func (e Error) Error() string { return "lzend: " + string(e) }

var (
	// ErrCorrupt indicates the token stream is structurally invalid: a bad
	// magic value, a phrase linking to itself or to a not-yet-defined
	// phrase, or an unexpected end of input mid-header.
	ErrCorrupt error = Error("stream is corrupted")

	// ErrConfigInvalid indicates a Config's fields cannot produce a valid
	// parse (a non-positive block size).
	ErrConfigInvalid error = Error("invalid configuration")
)

func errRecover(err *error) {
	switch ex := recover().(type) {
	case nil:
	case runtime.Error:
		panic(ex)
	case error:
		*err = ex
	default:
		panic(ex)
	}
}

// Config controls both the parser's windowing and the underlying block
// token coder's batching. BlockSize doubles as block.Config's MaxBlockSize
// for the wire-level token coder, and as one third of the parser's local
// index window: phrases may grow through absorption up to 3*BlockSize, the
// window length, before a new phrase is forced to start.
type Config struct {
	// BlockSize caps how many tokens the coder batches per block, and sets
	// the parser's local index window to 3*BlockSize bytes.
	BlockSize int

	// PreferTrie selects revtrie's arbitrarily-old-history candidate over
	// winidx's nearby, exactly-indexed candidate when both would satisfy an
	// absorption; false tries the local candidate first.
	PreferTrie bool
}

func (c Config) validate() error {
	if c.BlockSize <= 0 {
		return ErrConfigInvalid
	}
	return nil
}
