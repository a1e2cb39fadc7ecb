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

// Package column holds the fixed-width int32 column vector and its
// four index variants. Indexes are represented as a flat discriminated
// union (Kind plus the fields that apply to that Kind) rather than as
// an interface hierarchy, since there are exactly four kinds and no
// caller ever needs to add a fifth without also touching table.go.
package column

// IndexKind discriminates the index (if any) currently built over a
// Column. The numeric values double as the on-disk discriminator byte
// written by catalog.Persist, so they must never be renumbered.
type IndexKind byte

const (
	// IndexNone means the column carries no auxiliary index; all
	// lookups against it are a linear scan.
	IndexNone IndexKind = iota
	// IndexUnclusteredSorted keeps a permutation (Sorter) of row
	// positions in ascending value order, independent of the
	// column's own on-disk order.
	IndexUnclusteredSorted
	// IndexUnclusteredBTree keeps a B-tree mapping each distinct
	// value to the list of row positions holding it.
	IndexUnclusteredBTree
	// IndexClusteredSorted means the column's Data is itself kept
	// in non-decreasing order; no auxiliary structure is needed.
	IndexClusteredSorted
	// IndexClusteredBTree means Data is kept in non-decreasing
	// order AND a B-tree maps each distinct value to its
	// contiguous range of row positions.
	IndexClusteredBTree
)

// Column is one fixed-width 32-bit signed integer vector belonging to
// a table, plus whatever index currently sits on top of it.
type Column struct {
	Name string
	Data []int32
	Kind IndexKind

	sorter []int      // IndexUnclusteredSorted only
	btree  *BTreeIndex // IndexUnclusteredBTree or IndexClusteredBTree
}

// New returns an empty column with no index.
func New(name string) *Column {
	return &Column{Name: name, Kind: IndexNone}
}

// Len returns the number of rows currently stored.
func (c *Column) Len() int { return len(c.Data) }

// Clustered reports whether this column is the table's primary
// (clustered) column, i.e. its Data is kept in sorted order.
func (c *Column) Clustered() bool {
	return c.Kind == IndexClusteredSorted || c.Kind == IndexClusteredBTree
}

// Sorter returns the permutation built by SetIndexUnclusteredSorted,
// or nil if the column doesn't currently carry that index.
func (c *Column) Sorter() []int { return c.sorter }

// BTree returns the B-tree built by SetIndexUnclusteredBTree or
// SetIndexClusteredBTree, or nil if neither is active.
func (c *Column) BTree() *BTreeIndex { return c.btree }

// InsertSorterPosition inserts newPos into the column's sorter
// permutation at pos, shifting the tail. It's a no-op unless the
// column currently carries IndexUnclusteredSorted. Used to maintain
// an unclustered sorted index incrementally under a single row
// insert, rather than rebuilding the whole permutation.
func (c *Column) InsertSorterPosition(pos, newPos int) {
	if c.Kind != IndexUnclusteredSorted {
		return
	}
	s := append(c.sorter, 0)
	copy(s[pos+1:], s[pos:])
	s[pos] = newPos
	c.sorter = s
}

// SetIndexNone drops whatever index the column currently carries.
// It never re-sorts Data; a clustered column dropped to IndexNone
// keeps its (already sorted) physical order.
func (c *Column) SetIndexNone() {
	c.Kind = IndexNone
	c.sorter = nil
	c.btree = nil
}

// SetIndexUnclusteredSorted builds (or rebuilds) a value-order
// permutation over the column's current Data, independent of Data's
// own physical order.
func (c *Column) SetIndexUnclusteredSorted() {
	c.sorter = c.Argsort()
	c.btree = nil
	c.Kind = IndexUnclusteredSorted
}

// SetIndexUnclusteredBTree builds (or rebuilds) a B-tree over the
// column's current Data, independent of Data's own physical order.
func (c *Column) SetIndexUnclusteredBTree() {
	c.btree = c.BulkLoadBTree()
	c.sorter = nil
	c.Kind = IndexUnclusteredBTree
}

// SetIndexClusteredSorted marks the column as clustered-sorted. The
// caller (table.Table) is responsible for having already physically
// sorted Data (and co-permuted every sibling column) before calling
// this; ClusteredSorted itself carries no auxiliary structure.
func (c *Column) SetIndexClusteredSorted() {
	c.sorter = nil
	c.btree = nil
	c.Kind = IndexClusteredSorted
}

// SetIndexClusteredBTree marks the column as clustered-btree and
// builds the B-tree over its current (already sorted) Data. As with
// SetIndexClusteredSorted, the caller must have already physically
// sorted Data.
func (c *Column) SetIndexClusteredBTree() {
	c.btree = c.BulkLoadBTree()
	c.sorter = nil
	c.Kind = IndexClusteredBTree
}
