// Copyright 2017, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package revtrie

import (
	"testing"

	"github.com/dsnet/topkz/fp"
)

// memSource is a trivial PhraseSource for tests: each phrase is just a
// literal byte slice, decoded in reverse directly from memory.
type memSource struct {
	phrases [][]byte // 1-indexed; phrases[0] is unused
}

func (m *memSource) Last(phr uint32) byte {
	s := m.phrases[phr]
	return s[len(s)-1]
}

func (m *memSource) DecodeRev(phr uint32, limit int, visit func(c byte) bool) {
	s := m.phrases[phr]
	for i := len(s) - 1; i >= 0 && len(s)-i <= limit; i-- {
		if !visit(s[i]) {
			return
		}
	}
}

func newView(h *fp.Hasher, data []byte) View {
	return View{Data: data, Win: fp.NewWindow(h, data)}
}

func TestInsertAndApproxFindExactMatch(t *testing.T) {
	src := &memSource{phrases: [][]byte{nil}}
	h := fp.NewHasher(64, 1<<14-15)
	tr := New(src, h)

	data := []byte("banana")
	src.phrases = append(src.phrases, []byte("banana"))
	v := newView(h, data)
	phr := tr.Insert(v, 0, len(data))
	if phr != 1 {
		t.Fatalf("Insert returned phrase %d, want 1", phr)
	}

	got := tr.ApproxFindPhrase(v, 0, len(data))
	if got != phr {
		t.Fatalf("ApproxFindPhrase = %d, want %d", got, phr)
	}
}

func TestInsertSharesCommonSuffix(t *testing.T) {
	src := &memSource{phrases: [][]byte{nil}}
	h := fp.NewHasher(64, 1<<14-15)
	tr := New(src, h)

	// The trie indexes each phrase reversed, as DecodeRev reads it, so the
	// shared suffix "cat" becomes the shared prefix "tac".
	a := []byte("xyzcat")
	src.phrases = append(src.phrases, a)
	tr.Insert(newView(h, []byte("tacxyz")), 0, len(a))

	b := []byte("zzzcat")
	src.phrases = append(src.phrases, b)
	phr2 := tr.Insert(newView(h, []byte("taczzz")), 0, len(b))

	if got := len(tr.phraseNodes); got != 3 {
		t.Fatalf("phraseNodes count = %d, want 3", got)
	}
	if tr.Len() <= 2 {
		t.Fatalf("expected at least one inner node to be created for the shared suffix, got %d total nodes", tr.Len())
	}

	v := newView(h, []byte("taczzz"))
	if got := tr.ApproxFindPhrase(v, 0, len(b)); got != phr2 {
		t.Fatalf("ApproxFindPhrase after split = %d, want %d", got, phr2)
	}
}

func TestApproxFindOnEmptyTrieReturnsRoot(t *testing.T) {
	src := &memSource{phrases: [][]byte{nil}}
	h := fp.NewHasher(64, 1<<14-15)
	tr := New(src, h)

	data := []byte("abc")
	v, _ := tr.ApproxFind(newView(h, data), 0, len(data))
	if v != Root {
		t.Fatalf("ApproxFind on empty trie = %d, want Root", v)
	}
}

func TestNCALen(t *testing.T) {
	src := &memSource{phrases: [][]byte{nil}}
	h := fp.NewHasher(64, 1<<14-15)
	tr := New(src, h)

	// Phrases are inserted reversed, as DecodeRev reads them.
	a := []byte("aabbcc")
	src.phrases = append(src.phrases, a)
	p1 := tr.Insert(newView(h, []byte("ccbbaa")), 0, len(a))

	b := []byte("xxbbcc")
	src.phrases = append(src.phrases, b)
	p2 := tr.Insert(newView(h, []byte("ccbbxx")), 0, len(b))

	if got := tr.NCALen(p1, p2); got != 4 {
		t.Fatalf("NCALen = %d, want 4 (shared suffix \"bbcc\")", got)
	}
}
