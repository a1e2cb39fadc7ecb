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
	"github.com/SnellerInc/coldb/proto"
	"github.com/SnellerInc/coldb/session"
)

// FetchCmd implements `out = fetch(V, P)` -- out[i] = V[P[i]]. There's
// no bounds check against P in the hot path: an out-of-range position
// is a caller contract violation.
type FetchCmd struct {
	OutName string
	HasOut  bool

	ValueName string
	PosName   string
}

func parseFetch(handles, args []string) (Command, bool) {
	if len(args) != 2 || len(handles) > 1 {
		return nil, false
	}
	cmd := &FetchCmd{ValueName: args[0], PosName: args[1]}
	if len(handles) == 1 {
		cmd.OutName = handles[0]
		cmd.HasOut = true
	}
	return cmd, true
}

func (f *FetchCmd) Execute(db *catalog.Database, cc *session.Context) proto.Response {
	values, ok := cc.ResolveValvec(f.ValueName, db)
	if !ok {
		return proto.ExecutionError(dberr.NewValvecNotExist(f.ValueName).Error())
	}
	positions, ok := cc.Posvecs[f.PosName]
	if !ok {
		return proto.ExecutionError(dberr.NewPosvecNotExist(f.PosName).Error())
	}
	out := make([]int32, len(positions))
	for i, p := range positions {
		out[i] = values[p]
	}
	if f.HasOut {
		cc.Valvecs[f.OutName] = out
	}
	return proto.Ok()
}
