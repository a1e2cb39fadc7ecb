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

// Package catalog is the one-database-per-server-lifetime named
// catalog of tables: activation, table/column/index creation, CSV
// ingestion routing, and (in persist.go) on-disk serialization.
package catalog

import (
	"io"
	"sort"

	"github.com/SnellerInc/coldb/column"
	"github.com/SnellerInc/coldb/dberr"
	"github.com/SnellerInc/coldb/table"
)

// Database is a named catalog of tables. A server holds exactly one
// for its whole lifetime; there is no multi-database support.
type Database struct {
	Active *string
	Tables map[string]*table.Table
}

// New returns an empty, inactive database.
func New() *Database {
	return &Database{Tables: make(map[string]*table.Table)}
}

// Activate sets the active database name. It always succeeds and
// simply overwrites whatever name was active before, matching
// original_source/rustsrc/src/db.rs's activate (there's no
// DbAlreadyExist check here, and no other call site raises that
// error kind either).
func (d *Database) Activate(name string) {
	d.Active = &name
}

// checkActive returns dberr.DbNotExist unless dbName is the currently
// active database.
func (d *Database) checkActive(dbName string) error {
	if d.Active == nil || *d.Active != dbName {
		return dberr.NewDbNotExist(dbName)
	}
	return nil
}

// CreateTable reserves a fresh, nCols-wide table named tableName in
// dbName, which must be the active database.
func (d *Database) CreateTable(dbName, tableName string, nCols int) error {
	if err := d.checkActive(dbName); err != nil {
		return err
	}
	if _, exists := d.Tables[tableName]; exists {
		return dberr.NewTableAlreadyExist(tableName)
	}
	d.Tables[tableName] = table.New(nCols)
	return nil
}

// Table returns the named table within dbName, which must be the
// active database.
func (d *Database) Table(dbName, tableName string) (*table.Table, error) {
	if err := d.checkActive(dbName); err != nil {
		return nil, err
	}
	t, ok := d.Tables[tableName]
	if !ok {
		return nil, dberr.NewTableNotExist(tableName)
	}
	return t, nil
}

// CreateColumn adds an empty column named colName to the named table.
func (d *Database) CreateColumn(dbName, tableName, colName string) error {
	t, err := d.Table(dbName, tableName)
	if err != nil {
		return err
	}
	return t.AddColumn(colName)
}

// CreateIndex builds the given index kind over the named column of
// the named table.
func (d *Database) CreateIndex(dbName, tableName, colName string, kind column.IndexKind) error {
	t, err := d.Table(dbName, tableName)
	if err != nil {
		return err
	}
	idx, ok := t.ColumnIndex(colName)
	if !ok {
		return dberr.NewColumnNotExist(colName)
	}
	return t.CreateIndex(idx, kind)
}

// ResolveColumnData implements session.ColumnSource: it parses name as
// db.table.column and returns the referenced column's data, or
// (nil,false) if the name doesn't parse, the db isn't active, or the
// table/column doesn't exist. There's no error return here: a failed
// lookup is "otherwise not found", not a distinguished fault.
func (d *Database) ResolveColumnData(name string) ([]int32, bool) {
	dbName, tableName, colName, ok := splitDotted3(name)
	if !ok {
		return nil, false
	}
	if d.Active == nil || *d.Active != dbName {
		return nil, false
	}
	t, ok := d.Tables[tableName]
	if !ok {
		return nil, false
	}
	c, ok := t.Column(colName)
	if !ok {
		return nil, false
	}
	return c.Data, true
}

// ResolveColumn is like ResolveColumnData but returns the column
// itself, for callers (lang.SelectCmd) that need to inspect its index
// Kind rather than just read its data.
func (d *Database) ResolveColumn(name string) (*column.Column, bool) {
	dbName, tableName, colName, ok := splitDotted3(name)
	if !ok {
		return nil, false
	}
	if d.Active == nil || *d.Active != dbName {
		return nil, false
	}
	t, ok := d.Tables[tableName]
	if !ok {
		return nil, false
	}
	return t.Column(colName)
}

func splitDotted3(name string) (db, tbl, col string, ok bool) {
	first := indexByte(name, '.')
	if first < 0 {
		return "", "", "", false
	}
	rest := name[first+1:]
	second := indexByte(rest, '.')
	if second < 0 {
		return "", "", "", false
	}
	return name[:first], rest[:second], rest[second+1:], true
}

func indexByte(s string, b byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return i
		}
	}
	return -1
}

// LoadCSV ingests a CSV stream into the table named by the header's
// db.table.column fields: the header row is db.t.c1, db.t.c2, ...,
// and the first field fixes the destination table. Every header field
// must name the same db.table and an existing column of it; the
// CSV's field order need not match the table's own column order.
func (d *Database) LoadCSV(header []string, data io.Reader) (int, error) {
	if len(header) == 0 {
		return 0, dberr.NewInternal("CSV header has no fields")
	}
	dbName, tableName, firstCol, ok := splitDotted3(header[0])
	if !ok {
		return 0, dberr.NewVarNoColumn(header[0])
	}
	t, err := d.Table(dbName, tableName)
	if err != nil {
		return 0, err
	}

	colOrder := make([]int, len(header))
	idx, ok := t.ColumnIndex(firstCol)
	if !ok {
		return 0, dberr.NewColumnNotExist(firstCol)
	}
	colOrder[0] = idx
	for i := 1; i < len(header); i++ {
		db, tb, col, ok := splitDotted3(header[i])
		if !ok {
			return 0, dberr.NewVarNoColumn(header[i])
		}
		if db != dbName || tb != tableName {
			return 0, dberr.NewInternal("CSV header field %q does not match destination table %s.%s", header[i], dbName, tableName)
		}
		ci, ok := t.ColumnIndex(col)
		if !ok {
			return 0, dberr.NewColumnNotExist(col)
		}
		colOrder[i] = ci
	}

	return t.LoadCSV(data, colOrder)
}

// sortedTableNames returns the catalog's table names in a
// deterministic order, used by Persist so the on-disk layout (and
// therefore any diff of it) is stable across runs.
func (d *Database) sortedTableNames() []string {
	names := make([]string, 0, len(d.Tables))
	for n := range d.Tables {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
