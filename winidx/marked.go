// Copyright 2017, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package winidx

import "github.com/google/btree"

// markItem is one entry of the marked set: a (SA-position, phrase-number)
// pair, ordered by SA position.
type markItem struct {
	saPos   int32
	textPos int32
	phr     uint32
}

func lessMarkItem(a, b markItem) bool { return a.saPos < b.saPos }

// markedSet is the ordered set of phrase-end positions currently live in
// the window, supporting predecessor/successor queries by SA position so
// that MarkedLCP/MarkedLCP2 can find the nearest marked suffixes to any
// query position in O(log n).
type markedSet struct {
	tree   *btree.BTreeG[markItem]
	byText map[int32]markItem
}

func newMarkedSet() *markedSet {
	return &markedSet{
		tree:   btree.NewG(32, lessMarkItem),
		byText: make(map[int32]markItem),
	}
}

func (m *markedSet) mark(isa []int32, textPos int, phr uint32) {
	it := markItem{saPos: isa[textPos], textPos: int32(textPos), phr: phr}
	m.tree.ReplaceOrInsert(it)
	m.byText[int32(textPos)] = it
}

func (m *markedSet) unmark(textPos int) {
	it, ok := m.byText[int32(textPos)]
	if !ok {
		return
	}
	m.tree.Delete(it)
	delete(m.byText, int32(textPos))
}

func (m *markedSet) isMarked(textPos int) bool {
	_, ok := m.byText[int32(textPos)]
	return ok
}

func (m *markedSet) clear() {
	m.tree.Clear(false)
	m.byText = make(map[int32]markItem)
}

// predecessor returns the marked item with the greatest saPos strictly less
// than pivot, if any.
func (m *markedSet) predecessor(pivot int32) (markItem, bool) {
	var found markItem
	ok := false
	m.tree.DescendLessOrEqual(markItem{saPos: pivot}, func(it markItem) bool {
		if it.saPos >= pivot {
			return true
		}
		found, ok = it, true
		return false
	})
	return found, ok
}

// successor returns the marked item with the smallest saPos strictly
// greater than pivot, if any.
func (m *markedSet) successor(pivot int32) (markItem, bool) {
	var found markItem
	ok := false
	m.tree.AscendGreaterOrEqual(markItem{saPos: pivot + 1}, func(it markItem) bool {
		found, ok = it, true
		return false
	})
	return found, ok
}

// predecessorOf returns the marked item with the greatest saPos strictly
// less than of's, excluding of itself (used to step "one further" in the
// predecessor direction during MarkedLCP2).
func (m *markedSet) predecessorOf(of markItem) (markItem, bool) {
	return m.predecessor(of.saPos)
}

func (m *markedSet) successorOf(of markItem) (markItem, bool) {
	return m.successor(of.saPos)
}
