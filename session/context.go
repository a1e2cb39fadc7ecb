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

// Package session holds the per-connection bindings (valvecs, posvecs,
// numvals) that commands read and write, plus the db.table.column
// fallback lookup rule.
package session

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Numval is one of the three scalar kinds a numeric result can take.
// Kept as a small tagged union (rather than interface{}) since the
// kind set is closed and print needs to format each differently.
type Numval struct {
	kind numvalKind
	i32  int32
	i64  int64
	f64  float64
}

type numvalKind int

const (
	numvalI32 numvalKind = iota
	numvalI64
	numvalF64
)

func NewI32(v int32) Numval   { return Numval{kind: numvalI32, i32: v} }
func NewI64(v int64) Numval   { return Numval{kind: numvalI64, i64: v} }
func NewF64(v float64) Numval { return Numval{kind: numvalF64, f64: v} }

// String renders the value the way print needs it: plain integers for
// I32/I64, two decimal places for F64 (the avg result).
func (n Numval) String() string {
	switch n.kind {
	case numvalI32:
		return strconv.FormatInt(int64(n.i32), 10)
	case numvalI64:
		return strconv.FormatInt(n.i64, 10)
	default:
		return fmt.Sprintf("%.2f", n.f64)
	}
}

// Context holds one client connection's bindings. A server handles
// exactly one connection at a time, so Context has no internal
// locking; it lives only as long as the connection.
type Context struct {
	ID      uuid.UUID
	Valvecs map[string][]int32
	Posvecs map[string][]int
	Numvals map[string]Numval
}

// New returns an empty context tagged with a fresh session id, used
// only for log correlation (the protocol itself carries no session
// field, since the engine serves one client connection at a time).
func New() *Context {
	return &Context{
		ID:      uuid.New(),
		Valvecs: make(map[string][]int32),
		Posvecs: make(map[string][]int),
		Numvals: make(map[string]Numval),
	}
}

// ColumnSource resolves a db.table.column variable to the underlying
// column's data slice. Implemented by catalog.Database; kept as a
// narrow interface here so session never imports catalog (which in
// turn imports table/column), avoiding an import cycle.
type ColumnSource interface {
	ResolveColumnData(name string) ([]int32, bool)
}

// ResolveValvec implements the two-step lookup rule: a value-vector
// name resolves first against the session's own
// Valvecs map; if absent, and the name parses as db.table.column, it
// resolves against the named column's data.
func (c *Context) ResolveValvec(name string, db ColumnSource) ([]int32, bool) {
	if v, ok := c.Valvecs[name]; ok {
		return v, true
	}
	if !strings.Contains(name, ".") {
		return nil, false
	}
	return db.ResolveColumnData(name)
}
