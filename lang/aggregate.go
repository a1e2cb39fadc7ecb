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
	"math"

	"github.com/SnellerInc/coldb/catalog"
	"github.com/SnellerInc/coldb/dberr"
	"github.com/SnellerInc/coldb/proto"
	"github.com/SnellerInc/coldb/session"
)

type aggKind int

const (
	aggMin aggKind = iota
	aggMax
	aggSum
	aggAvg
)

// AggregateCmd implements `out = min/max/sum/avg(V)`: a scalar over a
// valvec. min/max of an empty valvec return
// i32::MIN/i32::MAX; sum promotes to i64; avg is f64, 0.0 for empty.
type AggregateCmd struct {
	OutName string
	HasOut  bool

	Kind      aggKind
	ValueName string
}

func parseAggregate(kind aggKind) func(handles, args []string) (Command, bool) {
	return func(handles, args []string) (Command, bool) {
		if len(args) != 1 || len(handles) > 1 {
			return nil, false
		}
		cmd := &AggregateCmd{Kind: kind, ValueName: args[0]}
		if len(handles) == 1 {
			cmd.OutName = handles[0]
			cmd.HasOut = true
		}
		return cmd, true
	}
}

func (c *AggregateCmd) Execute(db *catalog.Database, cc *session.Context) proto.Response {
	values, ok := cc.ResolveValvec(c.ValueName, db)
	if !ok {
		return proto.ExecutionError(dberr.NewValvecNotExist(c.ValueName).Error())
	}

	var result session.Numval
	switch c.Kind {
	case aggMin:
		result = session.NewI32(minI32(values))
	case aggMax:
		result = session.NewI32(maxI32(values))
	case aggSum:
		result = session.NewI64(sumI64(values))
	case aggAvg:
		result = session.NewF64(avgF64(values))
	}

	if c.HasOut {
		cc.Numvals[c.OutName] = result
	}
	return proto.Ok()
}

func minI32(v []int32) int32 {
	if len(v) == 0 {
		return math.MinInt32
	}
	m := v[0]
	for _, x := range v[1:] {
		if x < m {
			m = x
		}
	}
	return m
}

func maxI32(v []int32) int32 {
	if len(v) == 0 {
		return math.MaxInt32
	}
	m := v[0]
	for _, x := range v[1:] {
		if x > m {
			m = x
		}
	}
	return m
}

func sumI64(v []int32) int64 {
	var s int64
	for _, x := range v {
		s += int64(x)
	}
	return s
}

func avgF64(v []int32) float64 {
	if len(v) == 0 {
		return 0.0
	}
	return float64(sumI64(v)) / float64(len(v))
}
