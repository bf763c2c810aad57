// Copyright 2017, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package topkz

import "github.com/dsnet/topkz/topk"

// Variant selects which compressor pipeline a Writer/Reader runs.
type Variant uint8

const (
	// VariantLZEnd is the flagship blockwise LZ-End parser (package lzend).
	VariantLZEnd Variant = iota
	// VariantLZ78 factors input against a top-k prefix filter the classic
	// LZ78 way: walk an always-reset-at-root cursor forward while it stays
	// a tracked frequent prefix, then emit (reference, literal) at the
	// first byte that is not.
	VariantLZ78
	// VariantLZ77 factors input by searching, at every position, for the
	// longest currently tracked frequent prefix starting there (rather
	// than only the one a single forward-walking cursor happens to be on),
	// falling back to a bare literal when no tracked prefix matches.
	VariantLZ77
)

func (v Variant) String() string {
	switch v {
	case VariantLZEnd:
		return "lzend"
	case VariantLZ78:
		return "lz78"
	case VariantLZ77:
		return "lz77"
	default:
		return "unknown"
	}
}

// Config configures a Writer/Reader pair. Fields irrelevant to the
// selected Variant are ignored.
type Config struct {
	Variant Variant

	// BlockSize is the block token coder's batch size for every variant;
	// for VariantLZEnd it doubles as the phrase-growth cap, see
	// lzend.Config.BlockSize.
	BlockSize int
	// PreferTrie is VariantLZEnd's candidate-search order; see
	// lzend.Config.PreferTrie.
	PreferTrie bool

	// K is the top-k filter's tracked-prefix capacity, for VariantLZ78 and
	// VariantLZ77; it must be at least 2, since capacity 1 is spent
	// entirely on the root.
	K int
	// FPWindow is the top-k filter's internal rolling fingerprint window;
	// see topk.NewMisraGriesFilter / NewSketchFilter.
	FPWindow uint64
	// SketchColumns, if non-zero, selects the Count-Min sketch-assisted
	// filter (topk.NewSketchFilter) instead of plain Misra-Gries. It must
	// be a power of two, matching the sketch's AND-mask row addressing.
	SketchColumns int
	// Seed selects the sketch's hash family, when SketchColumns is set.
	Seed uint64
	// ApproxMinPQ, when SketchColumns is set, selects topk.ModeApproxMinPQ
	// (key the sketch filter's eviction heap by bit_width(freq) rather than
	// exact frequency) instead of the default topk.ModeExact. Ignored for
	// plain Misra-Gries, which has no eviction heap.
	ApproxMinPQ bool
}

func (c Config) validate() error {
	switch c.Variant {
	case VariantLZEnd:
		if c.BlockSize <= 0 {
			return ErrConfigInvalid
		}
	case VariantLZ78, VariantLZ77:
		// K < 2 leaves no room for a tracked prefix beside the root.
		if c.K < 2 || c.FPWindow == 0 || c.BlockSize <= 0 {
			return ErrConfigInvalid
		}
		if c.SketchColumns > 0 && c.SketchColumns&(c.SketchColumns-1) != 0 {
			// The sketch's row index is an AND mask over the columns.
			return ErrConfigInvalid
		}
	default:
		return ErrConfigInvalid
	}
	return nil
}

func (c Config) newFilter() *topk.Filter {
	if c.SketchColumns > 0 {
		mode := topk.ModeExact
		if c.ApproxMinPQ {
			mode = topk.ModeApproxMinPQ
		}
		return topk.NewSketchFilter(c.K, c.FPWindow, c.SketchColumns, c.Seed, mode)
	}
	return topk.NewMisraGriesFilter(c.K, c.FPWindow)
}
