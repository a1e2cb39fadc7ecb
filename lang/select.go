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

package lang

import (
	"github.com/SnellerInc/coldb/catalog"
	"github.com/SnellerInc/coldb/column"
	"github.com/SnellerInc/coldb/dberr"
	"github.com/SnellerInc/coldb/engine"
	"github.com/SnellerInc/coldb/proto"
	"github.com/SnellerInc/coldb/session"
)

// SelectCmd implements both the three-arg (`select(V,lo,hi)`) and
// four-arg (`select(P,V,lo,hi)`) forms; HasGather distinguishes them.
//
// The 4-arg form's lo/hi accept the same "null" sentinel as the 3-arg
// form's -- treating the two forms identically is simpler and
// strictly more permissive (see DESIGN.md).
type SelectCmd struct {
	OutName string
	HasOut  bool

	GatherName string
	HasGather  bool

	ValueName string
	Lo, Hi    int32
}

func parseSelect(handles, args []string) (Command, bool) {
	var valueArg, loArg, hiArg, gatherArg string
	hasGather := false
	switch len(args) {
	case 3:
		valueArg, loArg, hiArg = args[0], args[1], args[2]
	case 4:
		gatherArg, valueArg, loArg, hiArg = args[0], args[1], args[2], args[3]
		hasGather = true
	default:
		return nil, false
	}
	lo, ok := parseBound(loArg, true)
	if !ok {
		return nil, false
	}
	hi, ok := parseBound(hiArg, false)
	if !ok {
		return nil, false
	}
	cmd := &SelectCmd{
		ValueName:  valueArg,
		Lo:         lo,
		Hi:         hi,
		GatherName: gatherArg,
		HasGather:  hasGather,
	}
	if len(handles) == 1 {
		cmd.OutName = handles[0]
		cmd.HasOut = true
	} else if len(handles) > 1 {
		return nil, false
	}
	return cmd, true
}

func (s *SelectCmd) Execute(db *catalog.Database, cc *session.Context) proto.Response {
	var (
		values []int32
		col    *column.Column
	)
	if v, ok := cc.Valvecs[s.ValueName]; ok {
		values = v
	} else if c, ok := db.ResolveColumn(s.ValueName); ok {
		values = c.Data
		col = c
	} else {
		return proto.ExecutionError(dberr.NewValvecNotExist(s.ValueName).Error())
	}

	var gather []int
	if s.HasGather {
		g, ok := cc.Posvecs[s.GatherName]
		if !ok {
			return proto.ExecutionError(dberr.NewPosvecNotExist(s.GatherName).Error())
		}
		gather = g
	}

	positions := selectPositions(col, values, s.Lo, s.Hi)
	if s.HasGather {
		out := make([]int, len(positions))
		for i, p := range positions {
			out[i] = gather[p]
		}
		positions = out
	}
	if s.HasOut {
		cc.Posvecs[s.OutName] = positions
	}
	return proto.Ok()
}

// selectPositions picks the algorithm by the column's index kind:
// linear scan for no column/no index, binsearch through the sorter
// for unclustered sorted, binsearch directly against data for
// clustered sorted, and a B-tree range walk for either B-tree flavor.
func selectPositions(col *column.Column, values []int32, lo, hi int32) []int {
	if col == nil || col.Kind == column.IndexNone {
		return linearScanSelect(values, lo, hi)
	}
	switch col.Kind {
	case column.IndexUnclusteredSorted:
		sorter := col.Sorter()
		lower := col.Binsearch(lo, sorter, true)
		upper := col.Binsearch(hi, sorter, true)
		out := make([]int, upper-lower)
		copy(out, sorter[lower:upper])
		return out
	case column.IndexClusteredSorted:
		lower := col.Binsearch(lo, nil, true)
		upper := col.Binsearch(hi, nil, true)
		out := make([]int, upper-lower)
		for i := range out {
			out[i] = lower + i
		}
		return out
	case column.IndexUnclusteredBTree, column.IndexClusteredBTree:
		return col.BTree().Range(lo, hi)
	default:
		return linearScanSelect(values, lo, hi)
	}
}

// linearScanMinChunk is the per-thread floor for the parallel scan:
// below this many elements per task, the scan runs sequentially.
const linearScanMinChunk = 1024

func linearScanSelect(values []int32, lo, hi int32) []int {
	n := len(values)
	if n == 0 {
		return nil
	}
	numChunks := 1
	if engine.Threads() {
		numChunks = engine.NumWorkers()
		if c := n / linearScanMinChunk; c < numChunks {
			numChunks = c
		}
	}
	if numChunks < 2 {
		return scanRange(values, 0, n, lo, hi)
	}

	chunks := make([][]int, numChunks)
	base, rem := n/numChunks, n%numChunks
	bounds := make([][2]int, numChunks)
	start := 0
	for i := 0; i < numChunks; i++ {
		end := start + base
		if i < rem {
			end++
		}
		bounds[i] = [2]int{start, end}
		start = end
	}

	engine.ParallelEach(numChunks, func(i int) {
		b := bounds[i]
		chunks[i] = scanRange(values, b[0], b[1], lo, hi)
	})

	total := 0
	for _, c := range chunks {
		total += len(c)
	}
	out := make([]int, 0, total)
	for _, c := range chunks {
		out = append(out, c...)
	}
	return out
}

func scanRange(values []int32, from, to int, lo, hi int32) []int {
	var out []int
	for i := from; i < to; i++ {
		if values[i] >= lo && values[i] < hi {
			out = append(out, i)
		}
	}
	return out
}
