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
	"github.com/SnellerInc/coldb/proto"
	"github.com/SnellerInc/coldb/session"
)

// InsertCmd implements `relational_insert(db.table, v1, v2, ...)`:
// appends one row to the named table.
type InsertCmd struct {
	TableVar string
	Values   []int32
}

func parseInsert(handles, args []string) (Command, bool) {
	if len(args) < 2 || len(handles) != 0 {
		return nil, false
	}
	values := make([]int32, 0, len(args)-1)
	for _, a := range args[1:] {
		v, ok := parseInt(a)
		if !ok {
			return nil, false
		}
		values = append(values, v)
	}
	return &InsertCmd{TableVar: args[0], Values: values}, true
}

func (c *InsertCmd) Execute(db *catalog.Database, cc *session.Context) proto.Response {
	dbName, tableName, err := splitDotted2(c.TableVar)
	if err != nil {
		return proto.ExecutionError(err.Error())
	}
	t, err := db.Table(dbName, tableName)
	if err != nil {
		return proto.ExecutionError(err.Error())
	}
	if err := t.InsertRow(c.Values); err != nil {
		return proto.ExecutionError(err.Error())
	}
	return proto.Ok()
}
