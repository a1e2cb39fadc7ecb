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
	"strconv"
	"strings"

	"github.com/SnellerInc/coldb/catalog"
	"github.com/SnellerInc/coldb/dberr"
	"github.com/SnellerInc/coldb/proto"
	"github.com/SnellerInc/coldb/session"
)

// PrintCmd implements `print(name, ...)`: mixed-mode -- if the first
// name resolves in numvals, every name is treated as a
// numeric scalar and printed comma-separated on one line; otherwise
// every name is treated as a value vector, all must share one length,
// and the result is a CSV-style grid (one row per index).
type PrintCmd struct {
	Names []string
}

func parsePrint(handles, args []string) (Command, bool) {
	if len(args) == 0 || len(handles) != 0 {
		return nil, false
	}
	return &PrintCmd{Names: args}, true
}

func (c *PrintCmd) Execute(db *catalog.Database, cc *session.Context) proto.Response {
	if _, ok := cc.Numvals[c.Names[0]]; ok {
		parts := make([]string, len(c.Names))
		for i, name := range c.Names {
			n, ok := cc.Numvals[name]
			if !ok {
				return proto.ExecutionError(dberr.NewNumvalNotExist(name).Error())
			}
			parts[i] = n.String()
		}
		return proto.OkWithPayload(strings.Join(parts, ","))
	}

	vecs := make([][]int32, len(c.Names))
	for i, name := range c.Names {
		v, ok := cc.ResolveValvec(name, db)
		if !ok {
			return proto.ExecutionError(dberr.NewValvecNotExist(name).Error())
		}
		vecs[i] = v
	}
	n := len(vecs[0])
	for _, v := range vecs[1:] {
		if len(v) != n {
			return proto.ExecutionError(dberr.NewInternal("print requires equal-length value vectors, got %d and %d", n, len(v)).Error())
		}
	}

	var rows []string
	for i := 0; i < n; i++ {
		fields := make([]string, len(vecs))
		for j, v := range vecs {
			fields[j] = strconv.FormatInt(int64(v[i]), 10)
		}
		rows = append(rows, strings.Join(fields, ","))
	}
	return proto.OkWithPayload(strings.Join(rows, "\n"))
}
