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

package table

import (
	"io"
	"strconv"

	"github.com/SnellerInc/coldb/dberr"
	"github.com/SnellerInc/coldb/xsv"
)

// NumElemsPerLoadBatch bounds how many int32 values LoadCSV holds in
// memory per append batch, matching
// original_source/rustsrc/src/consts.rs's NUM_ELEMS_PER_LOAD_BATCH.
const NumElemsPerLoadBatch = 4096

// LoadCSV reads data rows (the header line must already have been
// consumed by the caller, which is what determines colOrder) from r
// and appends them column-wise. colOrder[i] names the destination
// column index for the i-th CSV field; every row must supply exactly
// len(colOrder) fields. Data is appended in batches of
// floor(NumElemsPerLoadBatch/len(colOrder))*len(colOrder) values to
// bound peak memory, then every index is rebuilt once at the end via
// RecreateIndexes(false).
func (t *Table) LoadCSV(r io.Reader, colOrder []int) (int, error) {
	nFields := len(colOrder)
	if nFields == 0 {
		return 0, dberr.NewInternal("CSV load with zero columns")
	}
	chunkRows := NumElemsPerLoadBatch / nFields
	if chunkRows < 1 {
		chunkRows = 1
	}

	chopper := &xsv.CsvChopper{}
	batch := make([][]int32, 0, chunkRows)
	total := 0

	flush := func() {
		for _, row := range batch {
			for i, colIdx := range colOrder {
				c := t.Columns[colIdx]
				c.Data = append(c.Data, row[i])
			}
		}
		total += len(batch)
		batch = batch[:0]
	}

	for {
		fields, err := chopper.GetNext(r)
		if err == io.EOF {
			break
		}
		if err != nil {
			return total, err
		}
		if len(fields) != nFields {
			return total, dberr.NewInternal("CSV row has %d fields, expected %d", len(fields), nFields)
		}
		row := make([]int32, nFields)
		for i, f := range fields {
			v, perr := strconv.ParseInt(f, 10, 32)
			if perr != nil {
				return total, dberr.NewInternal("CSV field %q is not a valid int32: %v", f, perr)
			}
			row[i] = int32(v)
		}
		batch = append(batch, row)
		if len(batch) == chunkRows {
			flush()
		}
	}
	flush()

	t.RecreateIndexes(false)
	return total, nil
}
