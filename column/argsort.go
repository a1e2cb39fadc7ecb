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
	"container/heap"
	"math"

	"golang.org/x/exp/slices"

	"github.com/SnellerInc/coldb/engine"
)

// Argsort returns the permutation of row positions that puts the
// column's values in non-decreasing order. Ties are broken by
// original position so the sort is stable (Rust's rayon
// par_sort_unstable_by_key makes no such guarantee, but a stable
// argsort is strictly more useful to callers and costs nothing extra
// here). When engine.Threads() is enabled and the column is large
// enough, the sort runs as a set of goroutine-local sorts over
// disjoint chunks followed by a k-way merge.
func (c *Column) Argsort() []int {
	n := len(c.Data)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	if n < 2 {
		return idx
	}
	data := c.Data
	if !engine.Threads() || n < minChunkForSort {
		sortIndices(idx, data)
		return idx
	}
	return parallelArgsort(idx, data)
}

const minChunkForSort = 4096

func sortIndices(idx []int, data []int32) {
	slices.SortStableFunc(idx, func(i, j int) bool { return data[i] < data[j] })
}

// parallelArgsort sorts disjoint chunks of idx concurrently, then
// merges the sorted chunks with a k-way heap merge.
func parallelArgsort(idx []int, data []int32) []int {
	n := len(idx)
	numChunks := engine.NumWorkers()
	if numChunks > n/minChunkForSort {
		numChunks = n / minChunkForSort
	}
	if numChunks < 2 {
		sortIndices(idx, data)
		return idx
	}

	bounds := make([][2]int, numChunks)
	base, rem := n/numChunks, n%numChunks
	lo := 0
	for i := 0; i < numChunks; i++ {
		hi := lo + base
		if i < rem {
			hi++
		}
		bounds[i] = [2]int{lo, hi}
		lo = hi
	}

	engine.ParallelEach(numChunks, func(i int) {
		b := bounds[i]
		sortIndices(idx[b[0]:b[1]], data)
	})

	return mergeSortedChunks(idx, data, bounds)
}

type mergeCursor struct {
	idx  []int
	pos  int
	data []int32
}

type mergeHeap struct {
	cursors []*mergeCursor
}

func (h *mergeHeap) Len() int { return len(h.cursors) }
func (h *mergeHeap) Less(i, j int) bool {
	ci, cj := h.cursors[i], h.cursors[j]
	pi, pj := ci.idx[ci.pos], cj.idx[cj.pos]
	if ci.data[pi] != cj.data[pj] {
		return ci.data[pi] < cj.data[pj]
	}
	return pi < pj
}
func (h *mergeHeap) Swap(i, j int) { h.cursors[i], h.cursors[j] = h.cursors[j], h.cursors[i] }
func (h *mergeHeap) Push(x any)    { h.cursors = append(h.cursors, x.(*mergeCursor)) }
func (h *mergeHeap) Pop() any {
	old := h.cursors
	n := len(old)
	last := old[n-1]
	h.cursors = old[:n-1]
	return last
}

func mergeSortedChunks(idx []int, data []int32, bounds [][2]int) []int {
	h := &mergeHeap{cursors: make([]*mergeCursor, 0, len(bounds))}
	for _, b := range bounds {
		if b[0] == b[1] {
			continue
		}
		h.cursors = append(h.cursors, &mergeCursor{idx: idx[b[0]:b[1]], pos: 0, data: data})
	}
	heap.Init(h)

	out := make([]int, 0, len(idx))
	for h.Len() > 0 {
		c := h.cursors[0]
		out = append(out, c.idx[c.pos])
		c.pos++
		if c.pos == len(c.idx) {
			heap.Pop(h)
		} else {
			heap.Fix(h, 0)
		}
	}
	return out
}

// Binsearch finds an insertion point for key over the column's Data,
// optionally indirected through sorter (pass nil to search Data
// directly, which is only valid when Data is itself sorted).
//
// alignLeft selects the lower-bound search (first position whose
// value is >= key) versus the upper-bound search (first position
// whose value is > key). math.MinInt32/MaxInt32 are treated as open
// bounds (0 and len respectively), matching the "null" lower/upper
// bound sentinels in the select command.
func (c *Column) Binsearch(key int32, sorter []int, alignLeft bool) int {
	n := len(c.Data)
	if sorter != nil {
		n = len(sorter)
	}
	if key == math.MinInt32 {
		return 0
	}
	if key == math.MaxInt32 {
		return n
	}
	get := func(i int) int32 {
		if sorter != nil {
			return c.Data[sorter[i]]
		}
		return c.Data[i]
	}
	lo, hi := 0, n
	for lo < hi {
		mid := int(uint(lo+hi) >> 1)
		v := get(mid)
		var less bool
		if alignLeft {
			less = v < key
		} else {
			less = v <= key
		}
		if less {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}
