// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package column

import "github.com/google/btree"

const btreeDegree = 32

// btreeEntry is one key's worth of row positions in a BTreeIndex.
// Indices are kept append-only and ascending for a freshly bulk-loaded
// column; InsertRow is responsible for keeping that true under single
// row inserts too.
type btreeEntry struct {
	key     int32
	indices []int
}

func (e *btreeEntry) Less(other btree.Item) bool {
	return e.key < other.(*btreeEntry).key
}

// BTreeIndex wraps github.com/google/btree, keyed by int32 column
// value, mapping each distinct value to the list of row positions
// holding it.
type BTreeIndex struct {
	tree *btree.BTree
}

func newBTreeIndex() *BTreeIndex {
	return &BTreeIndex{tree: btree.New(btreeDegree)}
}

// Len returns the number of distinct keys stored.
func (b *BTreeIndex) Len() int { return b.tree.Len() }

func (b *BTreeIndex) entry(key int32) *btreeEntry {
	if item := b.tree.Get(&btreeEntry{key: key}); item != nil {
		return item.(*btreeEntry)
	}
	return nil
}

// Insert appends idx to the (possibly new) entry for key. Callers
// must insert indices for a given key in ascending order to preserve
// the append-only invariant.
func (b *BTreeIndex) Insert(key int32, idx int) {
	if e := b.entry(key); e != nil {
		e.indices = append(e.indices, idx)
		return
	}
	b.tree.ReplaceOrInsert(&btreeEntry{key: key, indices: []int{idx}})
}

// Range returns every row position stored under a key in [lo, hi).
func (b *BTreeIndex) Range(lo, hi int32) []int {
	var out []int
	b.tree.AscendRange(&btreeEntry{key: lo}, &btreeEntry{key: hi}, func(item btree.Item) bool {
		out = append(out, item.(*btreeEntry).indices...)
		return true
	})
	return out
}

// LastIndexLE returns the largest row position recorded under the
// largest key <= value, and true. If no key <= value exists, it
// returns (0, false).
func (b *BTreeIndex) LastIndexLE(value int32) (int, bool) {
	var (
		result int
		found  bool
	)
	b.tree.DescendLessOrEqual(&btreeEntry{key: value}, func(item btree.Item) bool {
		e := item.(*btreeEntry)
		result = e.indices[len(e.indices)-1]
		found = true
		return false
	})
	return result, found
}

// ShiftFrom increments every stored row position >= pos by delta. Used
// to keep a clustered B-tree's stored positions correct after a row
// insert shifts every column's physical data by one at pos.
func (b *BTreeIndex) ShiftFrom(pos, delta int) {
	b.tree.Ascend(func(item btree.Item) bool {
		e := item.(*btreeEntry)
		for i, v := range e.indices {
			if v >= pos {
				e.indices[i] = v + delta
			}
		}
		return true
	})
}

// BulkLoadBTree builds a BTreeIndex from the column's current Data in
// a single left-to-right scan, so indices within each key's list come
// out already ascending.
func (c *Column) BulkLoadBTree() *BTreeIndex {
	b := newBTreeIndex()
	for i, v := range c.Data {
		b.Insert(v, i)
	}
	return b
}
