// Copyright 2017, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

// Package topkz composes the packages beneath it into three runnable
// compressors sharing one file container: the flagship LZ-End parser
// (package lzend), and two top-k-prefix-filter variants (package topk) in
// the classic LZ78 and LZ77 factorization styles. A single file header
// records which variant produced a stream and the parameters needed to
// rebuild its decoder. Config/NewWriter/NewReader validate eagerly and
// stream thereafter.
package topkz

import "runtime"

// Error is this package's error wrapper, matching the convention every
// package below it already uses.
type Error string

func (e Error) Error() string { return "topkz: " + string(e) }

var (
	// ErrCorrupt indicates the container stream is structurally invalid: a
	// bad magic value, an unrecognized variant tag, or a truncated header.
	ErrCorrupt error = Error("stream is corrupted")

	// ErrConfigInvalid indicates a Config's fields cannot produce a valid
	// stream for the selected Variant.
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
