// Copyright 2017, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

// Command topkz compresses and decompresses files using the topkz family of
// experimental compressors: the flagship LZ-End parser, or one of two
// top-k-filter-driven variants (LZ78-style, LZ77-style).
//
// Example usage:
//	$ topkz -o out.tkz INPUT
//	$ topkz -d -o out.txt out.tkz
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/dsnet/topkz"
)

func main() {
	os.Exit(run())
}

func run() int {
	decompress := flag.Bool("d", false, "decompress the input instead of compressing it")
	out := flag.String("o", "", "output path (default: stdout)")
	variantName := flag.String("variant", "lzend", "compressor variant: lzend, lz78, lz77")
	k := flag.Int("k", 64, "top-k filter capacity (lz78, lz77 only)")
	cols := flag.Int("c", 0, "Count-Min sketch columns, a power of two; 0 selects plain Misra-Gries (lz78, lz77 only)")
	rows := flag.Int("r", 2, "Count-Min sketch rows; the sketch is fixed at 2 rows, so any other value is a usage error")
	window := flag.Uint64("w", 32, "rolling fingerprint window (lz78, lz77 only)")
	block := flag.Int("b", 64, "block-writer max block size")
	approxMinPQ := flag.Bool("approx-minpq", false, "key the sketch filter's eviction heap by bit-width instead of exact frequency (lz78, lz77 with -c only)")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() != 1 {
		usage()
		return -1
	}
	inPath := flag.Arg(0)

	var variant topkz.Variant
	switch *variantName {
	case "lzend":
		variant = topkz.VariantLZEnd
	case "lz78":
		variant = topkz.VariantLZ78
	case "lz77":
		variant = topkz.VariantLZ77
	default:
		fmt.Fprintf(os.Stderr, "topkz: unknown variant %q\n", *variantName)
		usage()
		return -1
	}
	if *rows != 2 {
		fmt.Fprintf(os.Stderr, "topkz: -r must be 2; the sketch implementation is fixed at 2 rows\n")
		return -1
	}

	cfg := topkz.Config{
		Variant:       variant,
		BlockSize:     *block,
		PreferTrie:    true,
		K:             *k,
		FPWindow:      *window,
		SketchColumns: *cols,
		ApproxMinPQ:   *approxMinPQ,
	}

	in, err := os.Open(inPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "topkz: %v\n", err)
		return -1
	}
	defer in.Close()

	outFile := os.Stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			fmt.Fprintf(os.Stderr, "topkz: %v\n", err)
			return -1
		}
		defer f.Close()
		outFile = f
	}

	if *decompress {
		if err := runDecompress(in, outFile); err != nil {
			fmt.Fprintf(os.Stderr, "topkz: %v\n", err)
			return -1
		}
		return 0
	}
	if err := runCompress(in, outFile, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "topkz: %v\n", err)
		return -1
	}
	return 0
}

func runCompress(r io.Reader, w io.Writer, cfg topkz.Config) error {
	tw, err := topkz.NewWriter(w, cfg)
	if err != nil {
		return err
	}
	if _, err := io.Copy(tw, r); err != nil {
		return err
	}
	return tw.Close()
}

func runDecompress(r io.Reader, w io.Writer) error {
	tr, err := topkz.NewReader(r)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, tr)
	return err
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [-d] [-o OUT] [-k K] [-c COLS] [-r ROWS] [-w WINDOW] [-b BLOCK] [-variant V] INPUT\n", os.Args[0])
	flag.PrintDefaults()
}
