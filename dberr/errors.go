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

// Package dberr holds the flat error-kind vocabulary shared by
// catalog, table, column, session and lang, mirroring
// original_source/rustsrc/src/errors.rs's DbError enum. Every kind
// here is a possible execution-time fault; lang's commands turn any
// of them into an ExecutionError(string) response.
package dberr

import "fmt"

// Kind identifies which of the fixed set of database faults an Error
// represents. Kept exported so callers that need to branch on the
// fault (rather than just its message) can do so without string
// matching.
type Kind int

const (
	Internal Kind = iota
	DbNotExist
	DbAlreadyExist
	TableNotExist
	TableAlreadyExist
	TableFull
	ColumnNotExist
	ColumnAlreadyExist
	AlreadyClustered
	VarNoDb
	VarNoTable
	VarNoColumn
	ValvecNotExist
	PosvecNotExist
	NumvalNotExist
)

// Error is a typed database fault with a human-readable message.
type Error struct {
	Kind Kind
	msg  string
}

func (e *Error) Error() string { return e.msg }

func newf(k Kind, format string, args ...any) *Error {
	return &Error{Kind: k, msg: fmt.Sprintf(format, args...)}
}

func NewDbNotExist(name string) *Error {
	return newf(DbNotExist, "database %q does not exist", name)
}

func NewDbAlreadyExist(name string) *Error {
	return newf(DbAlreadyExist, "database %q already exists", name)
}

func NewTableNotExist(name string) *Error {
	return newf(TableNotExist, "table %q does not exist", name)
}

func NewTableAlreadyExist(name string) *Error {
	return newf(TableAlreadyExist, "table %q already exists", name)
}

func NewTableFull(name string) *Error {
	return newf(TableFull, "table %q already has its full column count", name)
}

func NewColumnNotExist(name string) *Error {
	return newf(ColumnNotExist, "column %q does not exist", name)
}

func NewColumnAlreadyExist(name string) *Error {
	return newf(ColumnAlreadyExist, "column %q already exists", name)
}

func NewAlreadyClustered(current, requested string) *Error {
	return newf(AlreadyClustered, "table is already clustered on column %q, cannot cluster on %q", current, requested)
}

func NewVarNoDb(raw string) *Error {
	return newf(VarNoDb, "variable %q is missing a database component", raw)
}

func NewVarNoTable(raw string) *Error {
	return newf(VarNoTable, "variable %q is missing a table component", raw)
}

func NewVarNoColumn(raw string) *Error {
	return newf(VarNoColumn, "variable %q is missing a column component", raw)
}

func NewValvecNotExist(name string) *Error {
	return newf(ValvecNotExist, "value vector %q does not exist", name)
}

func NewPosvecNotExist(name string) *Error {
	return newf(PosvecNotExist, "position vector %q does not exist", name)
}

func NewNumvalNotExist(name string) *Error {
	return newf(NumvalNotExist, "numeric value %q does not exist", name)
}

func NewInternal(format string, args ...any) *Error {
	return newf(Internal, format, args...)
}
