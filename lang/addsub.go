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
	"github.com/SnellerInc/coldb/dberr"
	"github.com/SnellerInc/coldb/engine"
	"github.com/SnellerInc/coldb/proto"
	"github.com/SnellerInc/coldb/session"
)

// AddSubCmd implements `out = add(A,B)` / `out = sub(A,B)`:
// equal-length element-wise, parallel with the same per-thread floor
// as select.
type AddSubCmd struct {
	OutName string
	HasOut  bool

	Sub  bool
	AName string
	BName string
}

func parseAddSub(sub bool) func(handles, args []string) (Command, bool) {
	return func(handles, args []string) (Command, bool) {
		if len(args) != 2 || len(handles) > 1 {
			return nil, false
		}
		cmd := &AddSubCmd{Sub: sub, AName: args[0], BName: args[1]}
		if len(handles) == 1 {
			cmd.OutName = handles[0]
			cmd.HasOut = true
		}
		return cmd, true
	}
}

func (c *AddSubCmd) Execute(db *catalog.Database, cc *session.Context) proto.Response {
	a, ok := cc.ResolveValvec(c.AName, db)
	if !ok {
		return proto.ExecutionError(dberr.NewValvecNotExist(c.AName).Error())
	}
	b, ok := cc.ResolveValvec(c.BName, db)
	if !ok {
		return proto.ExecutionError(dberr.NewValvecNotExist(c.BName).Error())
	}
	if len(a) != len(b) {
		return proto.ExecutionError(dberr.NewInternal("add/sub requires equal-length operands, got %d and %d", len(a), len(b)).Error())
	}

	n := len(a)
	out := make([]int32, n)
	body := func(from, to int) {
		if c.Sub {
			for i := from; i < to; i++ {
				out[i] = a[i] - b[i]
			}
		} else {
			for i := from; i < to; i++ {
				out[i] = a[i] + b[i]
			}
		}
	}
	engine.Parallel(n, body)

	if c.HasOut {
		cc.Valvecs[c.OutName] = out
	}
	return proto.Ok()
}
