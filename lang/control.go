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
	"fmt"

	"github.com/SnellerInc/coldb/catalog"
	"github.com/SnellerInc/coldb/proto"
	"github.com/SnellerInc/coldb/session"
)

// DeleteCmd and UpdateCmd parse successfully -- relational_delete and
// relational_update are recognized dispatch tokens -- but their
// Execute panics with a descriptive message. Per DESIGN.md's Open
// Question decision, the server's per-connection handler recovers
// this panic into UnknownExecutionError rather than taking the whole
// process down over one client's request.
type DeleteCmd struct{ Args []string }
type UpdateCmd struct{ Args []string }

func parseDelete(handles, args []string) (Command, bool) {
	if len(handles) != 0 {
		return nil, false
	}
	return &DeleteCmd{Args: args}, true
}

func parseUpdate(handles, args []string) (Command, bool) {
	if len(handles) != 0 {
		return nil, false
	}
	return &UpdateCmd{Args: args}, true
}

func (c *DeleteCmd) Execute(db *catalog.Database, cc *session.Context) proto.Response {
	panic(fmt.Sprintf("relational_delete is not implemented (args: %v)", c.Args))
}

func (c *UpdateCmd) Execute(db *catalog.Database, cc *session.Context) proto.Response {
	panic(fmt.Sprintf("relational_update is not implemented (args: %v)", c.Args))
}

// BatchCmd implements the reserved batch_queries/batch_execute tokens:
// recognized by the parser, but not implemented.
type BatchCmd struct{}

func parseBatch(handles, args []string) (Command, bool) {
	if len(handles) != 0 {
		return nil, false
	}
	return &BatchCmd{}, true
}

func (c *BatchCmd) Execute(db *catalog.Database, cc *session.Context) proto.Response {
	return proto.BatchError("batch commands are not implemented")
}
