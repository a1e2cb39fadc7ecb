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
	"github.com/SnellerInc/coldb/proto"
	"github.com/SnellerInc/coldb/session"
)

type createSubkind int

const (
	createDb createSubkind = iota
	createTbl
	createCol
	createIdx
)

// CreateCmd implements `create(db|tbl|col|idx, ...)`, dispatching on
// the first argument's subkind.
type CreateCmd struct {
	Subkind createSubkind

	// db: Name is the new database name.
	// tbl: Name is the table name, DbVar is the owning db, NCols is N.
	// col: Name is the column name, TableVar is "db.table".
	// idx: ColumnVar is "db.table.column", IdxKind selects the index
	//      variant (sort kind and clustered-ness together).
	Name      string
	DbVar     string
	NCols     int
	TableVar  string
	ColumnVar string
	IdxKind   column.IndexKind
}

func parseCreate(handles, args []string) (Command, bool) {
	if len(args) < 2 || len(handles) != 0 {
		return nil, false
	}
	switch args[0] {
	case "db":
		if len(args) != 2 {
			return nil, false
		}
		name, ok := trimQuotes(args[1])
		if !ok {
			return nil, false
		}
		return &CreateCmd{Subkind: createDb, Name: name}, true
	case "tbl":
		if len(args) != 4 {
			return nil, false
		}
		name, ok := trimQuotes(args[1])
		if !ok {
			return nil, false
		}
		n, ok := parseInt(args[3])
		if !ok || n < 0 {
			return nil, false
		}
		return &CreateCmd{Subkind: createTbl, Name: name, DbVar: args[2], NCols: int(n)}, true
	case "col":
		if len(args) != 3 {
			return nil, false
		}
		name, ok := trimQuotes(args[1])
		if !ok {
			return nil, false
		}
		return &CreateCmd{Subkind: createCol, Name: name, TableVar: args[2]}, true
	case "idx":
		if len(args) != 4 {
			return nil, false
		}
		kind, ok := idxKindFromTokens(args[2], args[3])
		if !ok {
			return nil, false
		}
		return &CreateCmd{Subkind: createIdx, ColumnVar: args[1], IdxKind: kind}, true
	default:
		return nil, false
	}
}

// idxKindFromTokens maps the create(idx,...) sort-kind and
// clustered-ness tokens onto the four non-None column.IndexKind
// values.
func idxKindFromTokens(sortKind, clusteredness string) (column.IndexKind, bool) {
	clustered, ok := map[string]bool{"unclustered": false, "clustered": true}[clusteredness]
	if !ok {
		return 0, false
	}
	switch sortKind {
	case "sorted":
		if clustered {
			return column.IndexClusteredSorted, true
		}
		return column.IndexUnclusteredSorted, true
	case "btree":
		if clustered {
			return column.IndexClusteredBTree, true
		}
		return column.IndexUnclusteredBTree, true
	default:
		return 0, false
	}
}

func (c *CreateCmd) Execute(db *catalog.Database, cc *session.Context) proto.Response {
	switch c.Subkind {
	case createDb:
		db.Activate(c.Name)
		return proto.Ok()
	case createTbl:
		if err := db.CreateTable(c.DbVar, c.Name, c.NCols); err != nil {
			return proto.ExecutionError(err.Error())
		}
		return proto.Ok()
	case createCol:
		dbName, tableName, err := splitDotted2(c.TableVar)
		if err != nil {
			return proto.ExecutionError(err.Error())
		}
		if err := db.CreateColumn(dbName, tableName, c.Name); err != nil {
			return proto.ExecutionError(err.Error())
		}
		return proto.Ok()
	case createIdx:
		dbName, tableName, colName, err := splitDotted3(c.ColumnVar)
		if err != nil {
			return proto.ExecutionError(err.Error())
		}
		if err := db.CreateIndex(dbName, tableName, colName, c.IdxKind); err != nil {
			return proto.ExecutionError(err.Error())
		}
		return proto.Ok()
	default:
		return proto.ExecutionError("unknown create subkind")
	}
}
