// Copyright 2017, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package phrase

import "testing"

// buildKnownParse builds the parse of "ababbbabbabbbabbaa":
// (0,1,a) (0,1,b) (2,3,b) (3,5,a) (4,8,a).
func buildKnownParse() *Phrases {
	p := New()
	p.Append(0, 1, 'a')
	p.Append(0, 1, 'b')
	p.Append(2, 3, 'b')
	p.Append(3, 5, 'a')
	p.Append(4, 8, 'a')
	return p
}

func TestExtractAllMatchesInput(t *testing.T) {
	p := buildKnownParse()
	got := string(p.ExtractAll())
	want := "ababbbabbabbbabbaa"
	if got != want {
		t.Fatalf("ExtractAll() = %q, want %q", got, want)
	}
}

func TestExtractPerPhrase(t *testing.T) {
	p := buildKnownParse()
	cases := []struct {
		phr  uint32
		want string
	}{
		{1, "a"},
		{2, "b"},
		{3, "abb"},
		{4, "babba"},
		{5, "bbbabbaa"},
	}
	for _, c := range cases {
		buf := make([]byte, p.Get(c.phr).Len)
		got := string(p.Extract(c.phr, buf))
		if got != c.want {
			t.Errorf("Extract(%d) = %q, want %q", c.phr, got, c.want)
		}
	}
}

func TestDecodeRevStopsAtLimit(t *testing.T) {
	p := buildKnownParse()
	var got []byte
	p.DecodeRev(5, 3, func(c byte) bool {
		got = append(got, c)
		return true
	})
	// phrase 5 = "bbbabbaa"; the last 3 bytes, reversed, are 'a','a','b'.
	want := "aab"
	if string(got) != want {
		t.Fatalf("DecodeRev(5, 3) = %q, want %q", got, want)
	}
}

func TestDecodeRevPredicateStop(t *testing.T) {
	p := buildKnownParse()
	var got []byte
	p.DecodeRev(4, 10, func(c byte) bool {
		if c == 'b' {
			return false
		}
		got = append(got, c)
		return true
	})
	// phrase 4 = "babba": reversed is 'a','b','b','a','b'; stops at the
	// first 'b', having yielded only the trailing 'a'.
	if string(got) != "a" {
		t.Fatalf("DecodeRev with stop-on-b predicate = %q, want %q", got, "a")
	}
}

func TestDecodeRevSpansPrecedingPhrases(t *testing.T) {
	p := buildKnownParse()
	var got []byte
	p.DecodeRev(3, 5, func(c byte) bool {
		got = append(got, c)
		return true
	})
	// The text ending at phrase 3's end is "ababb" (phrases 1..3
	// concatenated); asking for more bytes than phrase 3's own length must
	// keep walking left through phrases 2 and 1.
	want := "bbaba"
	if string(got) != want {
		t.Fatalf("DecodeRev(3, 5) = %q, want %q", got, want)
	}
}

func TestLen(t *testing.T) {
	p := buildKnownParse()
	if p.Len() != 6 {
		t.Fatalf("Len() = %d, want 6 (sentinel + 5 phrases)", p.Len())
	}
}
