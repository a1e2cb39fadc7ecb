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
	"sort"
	"strings"
	"testing"

	"github.com/SnellerInc/coldb/catalog"
	"github.com/SnellerInc/coldb/proto"
	"github.com/SnellerInc/coldb/session"
)

// run parses and executes one line, failing the test on a parse
// failure or a non-Ok/OkWithPayload response.
func run(t *testing.T, db *catalog.Database, cc *session.Context, line string) proto.Response {
	t.Helper()
	cmd, resp := Parse(line)
	if cmd == nil {
		return resp
	}
	return cmd.Execute(db, cc)
}

func mustOk(t *testing.T, resp proto.Response) {
	t.Helper()
	if resp.Tag != proto.RespOk && resp.Tag != proto.RespOkWithPayload {
		t.Fatalf("expected Ok, got %+v", resp)
	}
}

func TestParseCommentIsOk(t *testing.T) {
	cmd, resp := Parse("-- this is a comment")
	if cmd != nil || resp.Tag != proto.RespOk {
		t.Fatalf("expected nil command and Ok, got cmd=%v resp=%+v", cmd, resp)
	}
}

func TestParseInvalidSyntax(t *testing.T) {
	cases := []string{
		"",
		"select(a,1,2",
		"nosuchcommand(a,1,2)",
		"select a,1,2)",
		`select(a,1,2)extra`,
	}
	for _, line := range cases {
		cmd, resp := Parse(line)
		if cmd != nil || resp.Tag != proto.RespInvalidCommand {
			t.Fatalf("Parse(%q): expected InvalidCommand, got cmd=%v resp=%+v", line, cmd, resp)
		}
	}
}

func TestParseTrimsArgsAndHandles(t *testing.T) {
	cmd, _ := Parse("out = select( a , 1 , 2 )")
	sel, ok := cmd.(*SelectCmd)
	if !ok {
		t.Fatalf("expected *SelectCmd, got %T", cmd)
	}
	if sel.OutName != "out" || sel.ValueName != "a" || sel.Lo != 1 || sel.Hi != 2 {
		t.Fatalf("args/handles not trimmed: %+v", sel)
	}
}

func TestParseNullBounds(t *testing.T) {
	cmd, _ := Parse("p = select(a,null,null)")
	sel := cmd.(*SelectCmd)
	if sel.Lo != minInt32 || sel.Hi != maxInt32 {
		t.Fatalf("null bounds not mapped to i32 extremes: lo=%d hi=%d", sel.Lo, sel.Hi)
	}
}

// scenarioS1DB builds the S1 fixture: db a, table t(x,y), loaded with
// x=[1,2,3,4], y=[10,20,30,40].
func scenarioS1DB(t *testing.T) (*catalog.Database, *session.Context) {
	t.Helper()
	db := catalog.New()
	cc := session.New()
	for _, line := range []string{
		`create(db,"a")`,
		`create(tbl,"t",a,2)`,
		`create(col,"x",a.t)`,
		`create(col,"y",a.t)`,
	} {
		mustOk(t, run(t, db, cc, line))
	}
	n, err := db.LoadCSV([]string{"a.t.x", "a.t.y"}, strings.NewReader("1,10\n2,20\n3,30\n4,40\n"))
	if err != nil || n != 4 {
		t.Fatalf("LoadCSV: n=%d err=%v", n, err)
	}
	return db, cc
}

func TestScenarioS1LoadAndSelect(t *testing.T) {
	db, cc := scenarioS1DB(t)
	mustOk(t, run(t, db, cc, "p=select(a.t.x,2,4)"))
	mustOk(t, run(t, db, cc, "v=fetch(a.t.y,p)"))
	resp := run(t, db, cc, "print(v)")
	if resp.Payload != "20\n30" {
		t.Fatalf("print(v) = %q, want %q", resp.Payload, "20\n30")
	}
}

func TestScenarioS2Aggregation(t *testing.T) {
	db, cc := scenarioS1DB(t)
	mustOk(t, run(t, db, cc, "s=sum(a.t.y)"))
	if resp := run(t, db, cc, "print(s)"); resp.Payload != "100" {
		t.Fatalf("print(s) = %q, want 100", resp.Payload)
	}
	mustOk(t, run(t, db, cc, "m=avg(a.t.x)"))
	if resp := run(t, db, cc, "print(m)"); resp.Payload != "2.50" {
		t.Fatalf("print(m) = %q, want 2.50", resp.Payload)
	}
}

func TestScenarioS3NullBounds(t *testing.T) {
	db, cc := scenarioS1DB(t)
	mustOk(t, run(t, db, cc, "p=select(a.t.x,null,null)"))
	mustOk(t, run(t, db, cc, "w=fetch(a.t.x,p)"))
	resp := run(t, db, cc, "print(w)")
	if resp.Payload != "1\n2\n3\n4" {
		t.Fatalf("print(w) = %q, want 1\\n2\\n3\\n4", resp.Payload)
	}
}

func TestScenarioS4UnclusteredBTreeEquivalence(t *testing.T) {
	db, cc := scenarioS1DB(t)
	mustOk(t, run(t, db, cc, "create(idx,a.t.x,btree,unclustered)"))
	mustOk(t, run(t, db, cc, "p=select(a.t.x,2,4)"))
	positions := cc.Posvecs["p"]
	sort.Ints(positions)
	if !equalInts(positions, []int{1, 2}) {
		t.Fatalf("btree select positions = %v, want [1,2]", positions)
	}
}

func TestScenarioS5ClusteredReorder(t *testing.T) {
	db := catalog.New()
	cc := session.New()
	for _, line := range []string{
		`create(db,"a")`,
		`create(tbl,"t",a,2)`,
		`create(col,"x",a.t)`,
		`create(col,"y",a.t)`,
	} {
		mustOk(t, run(t, db, cc, line))
	}
	if _, err := db.LoadCSV([]string{"a.t.x", "a.t.y"}, strings.NewReader("1,100\n3,300\n2,200\n")); err != nil {
		t.Fatal(err)
	}
	mustOk(t, run(t, db, cc, "create(idx,a.t.x,sorted,clustered)"))
	tbl, err := db.Table("a", "t")
	if err != nil {
		t.Fatal(err)
	}
	x, _ := tbl.Column("x")
	y, _ := tbl.Column("y")
	if !equalI32(x.Data, []int32{1, 2, 3}) {
		t.Fatalf("x = %v, want [1,2,3]", x.Data)
	}
	if !equalI32(y.Data, []int32{100, 200, 300}) {
		t.Fatalf("y = %v, want [100,200,300]", y.Data)
	}
}

func TestScenarioS6Join(t *testing.T) {
	db := catalog.New()
	cc := session.New()
	for _, line := range []string{
		`create(db,"d")`,
		`create(tbl,"r",d,2)`,
		`create(col,"id",d.r)`,
		`create(col,"val",d.r)`,
		`create(tbl,"s",d,2)`,
		`create(col,"id",d.s)`,
		`create(col,"val",d.s)`,
	} {
		mustOk(t, run(t, db, cc, line))
	}
	if _, err := db.LoadCSV([]string{"d.r.id", "d.r.val"}, strings.NewReader("1,10\n2,20\n3,30\n")); err != nil {
		t.Fatal(err)
	}
	if _, err := db.LoadCSV([]string{"d.s.id", "d.s.val"}, strings.NewReader("2,200\n3,300\n4,400\n")); err != nil {
		t.Fatal(err)
	}
	cc.Posvecs["pr"] = []int{0, 1, 2}
	cc.Posvecs["ps"] = []int{0, 1, 2}

	for _, alg := range []string{"nested-loop", "naive-hash", "grace-hash", "hash"} {
		t.Run(alg, func(t *testing.T) {
			cc := session.New()
			cc.Posvecs["pr"] = []int{0, 1, 2}
			cc.Posvecs["ps"] = []int{0, 1, 2}
			line := "p1,p2 = join(d.r.id,pr,d.s.id,ps," + alg + ")"
			mustOk(t, run(t, db, cc, line))
			mustOk(t, run(t, db, cc, "v1=fetch(d.r.val,p1)"))
			mustOk(t, run(t, db, cc, "v2=fetch(d.s.val,p2)"))
			pairs := map[[2]int32]bool{}
			for i := range cc.Valvecs["v1"] {
				pairs[[2]int32{cc.Valvecs["v1"][i], cc.Valvecs["v2"][i]}] = true
			}
			want := map[[2]int32]bool{{20, 200}: true, {30, 300}: true}
			if len(pairs) != len(want) {
				t.Fatalf("alg=%s: pairs=%v, want %v", alg, pairs, want)
			}
			for k := range want {
				if !pairs[k] {
					t.Fatalf("alg=%s: missing pair %v in %v", alg, k, pairs)
				}
			}
		})
	}
}

func TestAddSubLengthMismatch(t *testing.T) {
	db := catalog.New()
	cc := session.New()
	cc.Valvecs["a"] = []int32{1, 2, 3}
	cc.Valvecs["b"] = []int32{1, 2}
	resp := run(t, db, cc, "out=add(a,b)")
	if resp.Tag != proto.RespExecutionError {
		t.Fatalf("expected ExecutionError, got %+v", resp)
	}
}

func TestDeleteUpdateRecoveredPanic(t *testing.T) {
	db := catalog.New()
	cc := session.New()
	for _, line := range []string{"relational_delete(a.t,1)", "relational_update(a.t,1)"} {
		cmd, _ := Parse(line)
		if cmd == nil {
			t.Fatalf("expected %q to parse", line)
		}
		func() {
			defer func() {
				if r := recover(); r == nil {
					t.Fatalf("expected Execute of %q to panic", line)
				}
			}()
			cmd.Execute(db, cc)
		}()
	}
}

func TestBatchCommandsNotImplemented(t *testing.T) {
	db := catalog.New()
	cc := session.New()
	resp := run(t, db, cc, "batch_queries()")
	if resp.Tag != proto.RespBatchError {
		t.Fatalf("expected BatchError, got %+v", resp)
	}
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func equalI32(a, b []int32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
