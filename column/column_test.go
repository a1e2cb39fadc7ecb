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

import (
	"math"
	"testing"
)

func TestArgsortOrdersAscending(t *testing.T) {
	c := &Column{Data: []int32{5, 3, 3, 9, -1, 0}}
	perm := c.Argsort()
	if len(perm) != len(c.Data) {
		t.Fatalf("expected permutation of length %d, got %d", len(c.Data), len(perm))
	}
	for i := 1; i < len(perm); i++ {
		if c.Data[perm[i-1]] > c.Data[perm[i]] {
			t.Fatalf("permutation not ascending at %d: %v", i, perm)
		}
	}
	seen := make(map[int]bool)
	for _, p := range perm {
		if seen[p] {
			t.Fatalf("permutation repeats index %d", p)
		}
		seen[p] = true
	}
}

func TestBinsearchNullSentinels(t *testing.T) {
	c := &Column{Data: []int32{1, 2, 2, 4, 8}}
	if got := c.Binsearch(math.MinInt32, nil, true); got != 0 {
		t.Fatalf("MinInt32 lower bound = %d, want 0", got)
	}
	if got := c.Binsearch(math.MaxInt32, nil, true); got != len(c.Data) {
		t.Fatalf("MaxInt32 lower bound = %d, want %d", got, len(c.Data))
	}
}

func TestBinsearchLowerUpperBound(t *testing.T) {
	c := &Column{Data: []int32{1, 2, 2, 2, 4, 8}}
	if got := c.Binsearch(2, nil, true); got != 1 {
		t.Fatalf("lower bound of 2 = %d, want 1", got)
	}
	if got := c.Binsearch(2, nil, false); got != 4 {
		t.Fatalf("upper bound of 2 = %d, want 4", got)
	}
	if got := c.Binsearch(3, nil, true); got != 4 {
		t.Fatalf("lower bound of 3 = %d, want 4", got)
	}
}

func TestBinsearchThroughSorter(t *testing.T) {
	c := &Column{Data: []int32{8, 1, 4, 2, 2}}
	sorter := c.Argsort()
	if got := c.Binsearch(2, sorter, true); got != 1 {
		t.Fatalf("lower bound of 2 via sorter = %d, want 1", got)
	}
	if got := c.Binsearch(2, sorter, false); got != 3 {
		t.Fatalf("upper bound of 2 via sorter = %d, want 3", got)
	}
}

func TestBulkLoadBTreeRangeAndOrder(t *testing.T) {
	c := &Column{Data: []int32{3, 1, 4, 1, 5, 9, 2, 6}}
	bt := c.BulkLoadBTree()
	got := bt.Range(1, 5)
	want := map[int]bool{0: true, 1: true, 3: true, 2: true, 6: true}
	if len(got) != len(want) {
		t.Fatalf("Range(1,5) = %v, want positions for values in [1,5): %v", got, want)
	}
	for _, pos := range got {
		if c.Data[pos] < 1 || c.Data[pos] >= 5 {
			t.Fatalf("Range(1,5) returned out-of-range position %d (value %d)", pos, c.Data[pos])
		}
	}
	e := bt.entry(1)
	if e == nil || len(e.indices) != 2 || e.indices[0] != 1 || e.indices[1] != 3 {
		t.Fatalf("expected key 1 -> [1,3] ascending, got %v", e)
	}
}

func TestBTreeLastIndexLE(t *testing.T) {
	c := &Column{Data: []int32{1, 3, 3, 7}}
	bt := c.BulkLoadBTree()
	pos, ok := bt.LastIndexLE(5)
	if !ok || pos != 2 {
		t.Fatalf("LastIndexLE(5) = (%d,%v), want (2,true)", pos, ok)
	}
	if _, ok := bt.LastIndexLE(0); ok {
		t.Fatalf("LastIndexLE(0) should find nothing below the smallest key")
	}
}

func TestBTreeShiftFrom(t *testing.T) {
	c := &Column{Data: []int32{1, 2, 3}}
	bt := c.BulkLoadBTree()
	bt.ShiftFrom(1, 1)
	e := bt.entry(2)
	if e == nil || e.indices[0] != 2 {
		t.Fatalf("ShiftFrom did not bump position for key 2: %v", e)
	}
	e0 := bt.entry(1)
	if e0 == nil || e0.indices[0] != 0 {
		t.Fatalf("ShiftFrom incorrectly bumped position below pos: %v", e0)
	}
}

func TestSetIndexKinds(t *testing.T) {
	c := &Column{Data: []int32{3, 1, 2}}
	c.SetIndexUnclusteredSorted()
	if c.Kind != IndexUnclusteredSorted || c.Sorter() == nil {
		t.Fatalf("SetIndexUnclusteredSorted did not set sorter")
	}
	c.SetIndexUnclusteredBTree()
	if c.Kind != IndexUnclusteredBTree || c.BTree() == nil || c.Sorter() != nil {
		t.Fatalf("SetIndexUnclusteredBTree left stale state: %+v", c)
	}
	c.SetIndexNone()
	if c.Kind != IndexNone || c.BTree() != nil || c.Sorter() != nil {
		t.Fatalf("SetIndexNone did not clear auxiliary structures")
	}
}
