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

	"github.com/SnellerInc/coldb/proto"
)

// Parse turns one line of client input into a Command. When cmd is
// nil, resp carries the response the caller should send directly
// (Ok for a comment line, InvalidCommand for anything that fails to
// parse); the caller must not mutate any state in that case. When cmd
// is non-nil, resp is the zero Response and should be ignored --
// the caller runs cmd.Execute to get the real response.
//
// Grammar (EBNF):
//
//	query   := [handles '='] ident '(' [arg {',' arg}] ')'
//	handles := ident {',' ident}
//	arg     := ident | integer | quoted | 'null'
//	comment := '--' ...   (whole line ignored)
func Parse(line string) (Command, proto.Response) {
	line = strings.TrimSpace(line)
	if strings.HasPrefix(line, "--") {
		return nil, proto.Ok()
	}
	if line == "" {
		return nil, proto.InvalidCommand()
	}

	handlesStr, rest, hasHandles := cutFirst(line, '=')
	body := rest
	if !hasHandles {
		body = line
	}
	body = strings.TrimSpace(body)

	if !strings.HasSuffix(body, ")") {
		return nil, proto.InvalidCommand()
	}
	body = body[:len(body)-1]
	parenIdx := strings.IndexByte(body, '(')
	if parenIdx < 0 {
		return nil, proto.InvalidCommand()
	}
	name := strings.TrimSpace(body[:parenIdx])
	rawArgs := body[parenIdx+1:]

	var args []string
	if s := strings.TrimSpace(rawArgs); s != "" {
		for _, a := range strings.Split(rawArgs, ",") {
			args = append(args, strings.TrimSpace(a))
		}
	}

	var handles []string
	if hasHandles {
		if s := strings.TrimSpace(handlesStr); s != "" {
			for _, h := range strings.Split(handlesStr, ",") {
				handles = append(handles, strings.TrimSpace(h))
			}
		}
	}

	build, ok := dispatch[name]
	if !ok {
		return nil, proto.InvalidCommand()
	}
	cmd, ok := build(handles, args)
	if !ok {
		return nil, proto.InvalidCommand()
	}
	return cmd, proto.Response{}
}

// cutFirst splits s on the first occurrence of sep, reporting whether
// sep was present. It's used for the optional "handles =" prefix --
// a bare '=' inside a quoted argument can't occur since quoted args
// only ever appear after the '(', which always follows any handles
// prefix.
func cutFirst(s string, sep byte) (before, after string, found bool) {
	i := strings.IndexByte(s, sep)
	if i < 0 {
		return "", s, false
	}
	return s[:i], s[i+1:], true
}

// dispatch maps a command name to a parser that turns (handles, args)
// into a Command, or reports false on any arity/format failure.
var dispatch = map[string]func(handles, args []string) (Command, bool){
	"select":            parseSelect,
	"fetch":              parseFetch,
	"add":                parseAddSub(false),
	"sub":                parseAddSub(true),
	"min":                parseAggregate(aggMin),
	"max":                parseAggregate(aggMax),
	"sum":                parseAggregate(aggSum),
	"avg":                parseAggregate(aggAvg),
	"join":               parseJoin,
	"print":              parsePrint,
	"relational_insert":  parseInsert,
	"create":             parseCreate,
	"relational_delete":  parseDelete,
	"relational_update":  parseUpdate,
	"batch_queries":      parseBatch,
	"batch_execute":      parseBatch,
}

// trimQuotes requires s to be wrapped in double quotes and returns the
// inner text; it fails (rather than passing through a bare word) when
// quotes are missing.
func trimQuotes(s string) (string, bool) {
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return "", false
	}
	return s[1 : len(s)-1], true
}

func parseInt(s string) (int32, bool) {
	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, false
	}
	return int32(n), true
}

// parseBound parses a select lo/hi argument: an integer, or "null"
// mapped to the open-bound sentinel for that side (i32::MIN for lo,
// i32::MAX for hi).
func parseBound(s string, lo bool) (int32, bool) {
	if s == "null" {
		if lo {
			return minInt32, true
		}
		return maxInt32, true
	}
	return parseInt(s)
}

const (
	minInt32 = -1 << 31
	maxInt32 = 1<<31 - 1
)
