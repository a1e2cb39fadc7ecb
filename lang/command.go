// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

// Package lang is the textual query language: Parse turns one line of
// input into a Command, and each Command's Execute runs it against a
// catalog.Database and a session.Context.
package lang

import (
	"github.com/SnellerInc/coldb/catalog"
	"github.com/SnellerInc/coldb/dberr"
	"github.com/SnellerInc/coldb/proto"
	"github.com/SnellerInc/coldb/session"
)

// Command is the closed set of eight query kinds (plus the two
// recognized-but-unimplemented relational_delete/relational_update
// and the reserved batch_* tokens) that Parse can produce.
type Command interface {
	Execute(db *catalog.Database, cc *session.Context) proto.Response
}

// splitDotted2 parses a "db.table" variable. A malformed variable is
// an execution-time fault (VarNoDb/VarNoTable), not a parse failure --
// see DESIGN.md's grounding notes on original_source's parse_table_var
// being called from Execute, not from Parse.
func splitDotted2(raw string) (db, table string, err error) {
	i := indexByte(raw, '.')
	if i < 0 {
		return "", "", dberr.NewVarNoDb(raw)
	}
	db = raw[:i]
	rest := raw[i+1:]
	if rest == "" {
		return "", "", dberr.NewVarNoTable(raw)
	}
	if j := indexByte(rest, '.'); j >= 0 {
		rest = rest[:j]
	}
	return db, rest, nil
}

// splitDotted3 parses a "db.table.column" variable.
func splitDotted3(raw string) (db, table, col string, err error) {
	i := indexByte(raw, '.')
	if i < 0 {
		return "", "", "", dberr.NewVarNoDb(raw)
	}
	db = raw[:i]
	rest := raw[i+1:]
	j := indexByte(rest, '.')
	if j < 0 {
		return "", "", "", dberr.NewVarNoTable(raw)
	}
	table = rest[:j]
	col = rest[j+1:]
	if col == "" {
		return "", "", "", dberr.NewVarNoColumn(raw)
	}
	return db, table, col, nil
}

func indexByte(s string, b byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return i
		}
	}
	return -1
}
