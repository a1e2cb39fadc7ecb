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

// Package table owns the columns of a single table: row insertion,
// CSV bulk load, index creation and the clustered co-permutation that
// index creation triggers.
package table

import (
	"github.com/SnellerInc/coldb/column"
	"github.com/SnellerInc/coldb/dberr"
	"github.com/SnellerInc/coldb/engine"
)

// Table is an ordered set of up to NCols columns, all of equal
// length, plus an optional primary (clustered) column.
type Table struct {
	NCols   int
	Columns []*column.Column

	// Primary is the index into Columns of the clustered column, or
	// nil if the table has no clustered column.
	Primary *int
}

// New returns an empty table that accepts up to nCols columns.
func New(nCols int) *Table {
	return &Table{NCols: nCols}
}

// NRows returns the current row count (0 if the table has no columns
// yet).
func (t *Table) NRows() int {
	if len(t.Columns) == 0 {
		return 0
	}
	return t.Columns[0].Len()
}

// AddColumn appends a new, empty column to the table.
func (t *Table) AddColumn(name string) error {
	if len(t.Columns) >= t.NCols {
		return dberr.NewTableFull(name)
	}
	if _, ok := t.ColumnIndex(name); ok {
		return dberr.NewColumnAlreadyExist(name)
	}
	t.Columns = append(t.Columns, column.New(name))
	return nil
}

// ColumnIndex returns the position of the named column, if any.
func (t *Table) ColumnIndex(name string) (int, bool) {
	for i, c := range t.Columns {
		if c.Name == name {
			return i, true
		}
	}
	return 0, false
}

// Column returns the named column, if any.
func (t *Table) Column(name string) (*column.Column, bool) {
	if i, ok := t.ColumnIndex(name); ok {
		return t.Columns[i], true
	}
	return nil, false
}

// CreateIndex builds the given index kind over the column at colIdx.
// Clustering (ClusteredSorted/ClusteredBTree) onto a column other than
// the table's existing primary column is rejected with
// dberr.AlreadyClustered rather than silently re-clustering.
func (t *Table) CreateIndex(colIdx int, kind column.IndexKind) error {
	switch kind {
	case column.IndexNone:
		t.Columns[colIdx].SetIndexNone()
		return nil
	case column.IndexUnclusteredSorted:
		t.Columns[colIdx].SetIndexUnclusteredSorted()
		return nil
	case column.IndexUnclusteredBTree:
		t.Columns[colIdx].SetIndexUnclusteredBTree()
		return nil
	case column.IndexClusteredSorted:
		if err := t.checkCanCluster(colIdx); err != nil {
			return err
		}
		t.setPrimaryColumn(colIdx, false)
		t.Columns[colIdx].SetIndexClusteredSorted()
		return nil
	case column.IndexClusteredBTree:
		if err := t.checkCanCluster(colIdx); err != nil {
			return err
		}
		t.setPrimaryColumn(colIdx, false)
		t.Columns[colIdx].SetIndexClusteredBTree()
		return nil
	default:
		return dberr.NewInternal("unknown index kind %d", kind)
	}
}

func (t *Table) checkCanCluster(colIdx int) error {
	if t.Primary != nil && *t.Primary != colIdx {
		return dberr.NewAlreadyClustered(t.Columns[*t.Primary].Name, t.Columns[colIdx].Name)
	}
	return nil
}

// setPrimaryColumn records colIdx as the clustered column. Unless
// skipSorting is set (used when reloading an already-sorted catalog),
// it argsorts the column and co-permutes every sibling column's Data
// through that permutation in parallel, then rebuilds every other
// column's unclustered index since row positions just changed.
func (t *Table) setPrimaryColumn(colIdx int, skipSorting bool) {
	p := colIdx
	t.Primary = &p
	if skipSorting {
		return
	}
	perm := t.Columns[colIdx].Argsort()
	cols := t.Columns
	engine.ParallelEach(len(cols), func(i int) {
		applyPermutation(cols[i], perm)
	})
	t.recreateUnclusteredIndexes()
}

func applyPermutation(c *column.Column, perm []int) {
	out := make([]int32, len(perm))
	for i, p := range perm {
		out[i] = c.Data[p]
	}
	c.Data = out
}

// recreateUnclusteredIndexes rebuilds the sorter/B-tree of every
// column currently carrying an unclustered index. It never touches
// clustered columns: those are maintained directly by
// setPrimaryColumn/InsertRow.
func (t *Table) recreateUnclusteredIndexes() {
	for _, c := range t.Columns {
		switch c.Kind {
		case column.IndexUnclusteredSorted:
			c.SetIndexUnclusteredSorted()
		case column.IndexUnclusteredBTree:
			c.SetIndexUnclusteredBTree()
		}
	}
}

// RecreateIndexes rebuilds every index after a catalog load. When
// skipSorting is true (the data on disk is already in clustered
// order), the clustered column's physical data is left untouched;
// only its B-tree (if any) is rebuilt.
func (t *Table) RecreateIndexes(skipSorting bool) {
	if t.Primary != nil {
		p := *t.Primary
		switch t.Columns[p].Kind {
		case column.IndexClusteredSorted:
			t.setPrimaryColumn(p, skipSorting)
			t.Columns[p].SetIndexClusteredSorted()
		case column.IndexClusteredBTree:
			t.setPrimaryColumn(p, skipSorting)
			t.Columns[p].SetIndexClusteredBTree()
		}
	}
	t.recreateUnclusteredIndexes()
}

// InsertRow appends one row, given one value per column in column
// order. If the table has a clustered column, the row is inserted at
// the position that keeps that column sorted (rather than appended at
// the end), and every column (including the clustered one) receives
// its own value at that position -- not the clustered column's value
// copied into every column (see DESIGN.md Open Question decision #1).
func (t *Table) InsertRow(values []int32) error {
	if len(values) != len(t.Columns) {
		return dberr.NewInternal("expected %d values, got %d", len(t.Columns), len(values))
	}
	if t.Primary == nil {
		for i, c := range t.Columns {
			newPos := len(c.Data)
			c.Data = append(c.Data, values[i])
			switch c.Kind {
			case column.IndexUnclusteredSorted:
				pos := c.Binsearch(values[i], c.Sorter(), false)
				c.InsertSorterPosition(pos, newPos)
			case column.IndexUnclusteredBTree:
				c.BTree().Insert(values[i], newPos)
			}
		}
		return nil
	}

	p := *t.Primary
	primary := t.Columns[p]
	var insertPos int
	switch primary.Kind {
	case column.IndexClusteredSorted:
		insertPos = primary.Binsearch(values[p], nil, true)
	case column.IndexClusteredBTree:
		if last, ok := primary.BTree().LastIndexLE(values[p]); ok {
			insertPos = last + 1
		} else {
			insertPos = 0
		}
	default:
		return dberr.NewInternal("primary column %q has no clustered index kind", primary.Name)
	}

	for i, c := range t.Columns {
		c.Data = insertAt(c.Data, insertPos, values[i])
	}
	if primary.Kind == column.IndexClusteredBTree {
		primary.BTree().ShiftFrom(insertPos, 1)
		primary.BTree().Insert(values[p], insertPos)
	}
	t.recreateUnclusteredIndexes()
	return nil
}

func insertAt(data []int32, pos int, v int32) []int32 {
	data = append(data, 0)
	copy(data[pos+1:], data[pos:])
	data[pos] = v
	return data
}
