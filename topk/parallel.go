// Copyright 2017, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package topk

import (
	"runtime"
	"sort"
	"sync"
)

// BuildParallel computes a data-parallel pre-pass over data's single-byte
// frequencies and seeds f with the most frequent bytes before any sequential
// scan runs. It is an optional warm start: f is still a correct bounded
// top-k filter without it, just one that spends its first few hundred bytes
// of Extend calls discovering what this pre-pass can compute in parallel
// up front. Callers still perform the real, order-sensitive sequential scan
// (one Extend per byte of data) to build the actual tracked trie; this
// pre-pass only decides a good insertion order for depth-1 nodes.
//
// The computation itself — per-block byte-frequency arrays, merged by
// summation — is the "trivial top-k structure" a data-parallel loop over
// block-minima arrays can produce without any cross-block synchronization:
// each worker needs only its own slice of data and a private [256]uint64,
// and the merge is an associative, commutative reduction.
func BuildParallel(f *Filter, data []byte) {
	if len(data) == 0 {
		return
	}
	nWorkers := runtime.GOMAXPROCS(0)
	if nWorkers > len(data) {
		nWorkers = len(data)
	}
	if nWorkers < 1 {
		nWorkers = 1
	}

	blockSize := (len(data) + nWorkers - 1) / nWorkers
	counts := make([][256]uint64, nWorkers)

	var wg sync.WaitGroup
	for i := 0; i < nWorkers; i++ {
		lo := i * blockSize
		hi := lo + blockSize
		if hi > len(data) {
			hi = len(data)
		}
		if lo >= hi {
			continue
		}
		wg.Add(1)
		go func(i, lo, hi int) {
			defer wg.Done()
			block := data[lo:hi]
			for _, c := range block {
				counts[i][c]++
			}
		}(i, lo, hi)
	}
	wg.Wait()

	var total [256]uint64
	for i := range counts {
		for c, n := range counts[i] {
			total[c] += n
		}
	}

	type byteFreq struct {
		b byte
		n uint64
	}
	var freqs []byteFreq
	for c, n := range total {
		if n > 0 {
			freqs = append(freqs, byteFreq{byte(c), n})
		}
	}
	sort.Slice(freqs, func(i, j int) bool { return freqs[i].n > freqs[j].n })

	cur := f.Empty()
	for i, bf := range freqs {
		if i >= f.k {
			break
		}
		f.Extend(cur, bf.b)
	}
}
