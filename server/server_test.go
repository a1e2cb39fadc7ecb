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

package server

import (
	"log"
	"net"
	"testing"

	"github.com/SnellerInc/coldb/catalog"
	"github.com/SnellerInc/coldb/engine"
	"github.com/SnellerInc/coldb/proto"
)

// newTestPair wires up a Server against one half of an in-memory
// net.Pipe, running handleConn in a goroutine the way Serve would
// drive a real accepted connection, and returns the client's half.
func newTestPair(t *testing.T, db *catalog.Database) (client net.Conn, done chan bool) {
	t.Helper()
	serverSide, clientSide := net.Pipe()
	srv := New(db, log.New(testWriter{t}, "", 0))
	done = make(chan bool, 1)
	go func() {
		done <- srv.handleConn(serverSide)
		serverSide.Close()
	}()
	return clientSide, done
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}

func sendCommand(t *testing.T, conn net.Conn, text string) proto.Response {
	t.Helper()
	if err := proto.WriteRequest(conn, proto.Request{Tag: proto.ReqProcessCommand, Text: text}); err != nil {
		t.Fatalf("WriteRequest: %v", err)
	}
	resp, err := proto.ReadResponse(conn)
	if err != nil {
		t.Fatalf("ReadResponse: %v", err)
	}
	return resp
}

func TestServerLoadSelectFetchPrint(t *testing.T) {
	db := catalog.New()
	conn, done := newTestPair(t, db)
	defer conn.Close()

	for _, c := range []string{
		`create(db,"a")`,
		`create(tbl,"t",a,2)`,
		`create(col,"x",a.t)`,
		`create(col,"y",a.t)`,
	} {
		resp := sendCommand(t, conn, c)
		if resp.Tag != proto.RespOk {
			t.Fatalf("%q: expected Ok, got %+v", c, resp)
		}
	}

	csvBody := "a.t.x,a.t.y\n1,10\n2,20\n3,30\n4,40\n"
	if err := proto.WriteRequest(conn, proto.Request{Tag: proto.ReqProcessCSV, CSVSize: uint32(len(csvBody))}); err != nil {
		t.Fatalf("WriteRequest CSV: %v", err)
	}
	if _, err := conn.Write([]byte(csvBody)); err != nil {
		t.Fatalf("writing CSV body: %v", err)
	}
	resp, err := proto.ReadResponse(conn)
	if err != nil {
		t.Fatalf("ReadResponse after CSV: %v", err)
	}
	if resp.Tag != proto.RespOk {
		t.Fatalf("expected Ok after CSV load, got %+v", resp)
	}

	resp = sendCommand(t, conn, "p=select(a.t.x,2,4)")
	if resp.Tag != proto.RespOk {
		t.Fatalf("select: expected Ok, got %+v", resp)
	}
	resp = sendCommand(t, conn, "v=fetch(a.t.y,p)")
	if resp.Tag != proto.RespOk {
		t.Fatalf("fetch: expected Ok, got %+v", resp)
	}
	resp = sendCommand(t, conn, "print(v)")
	if resp.Tag != proto.RespOkWithPayload || resp.Payload != "20\n30" {
		t.Fatalf("print: expected OkWithPayload(20\\n30), got %+v", resp)
	}

	resp = sendCommand(t, conn, "shutdown")
	if resp.Tag != proto.RespOkTerminate {
		t.Fatalf("shutdown: expected OkTerminate, got %+v", resp)
	}
	if shutdown := <-done; !shutdown {
		t.Fatal("expected handleConn to report shutdown requested")
	}
}

func TestServerSingleCoreToggle(t *testing.T) {
	engine.ResetThreadsForTest()
	defer engine.ResetThreadsForTest()

	db := catalog.New()
	conn, done := newTestPair(t, db)
	defer func() {
		conn.Close()
		<-done
	}()

	resp := sendCommand(t, conn, "single_core()")
	if resp.Tag != proto.RespOk {
		t.Fatalf("single_core(): expected Ok, got %+v", resp)
	}
	if engine.Threads() {
		t.Fatal("expected Threads() false after single_core()")
	}

	resp = sendCommand(t, conn, "single_core()")
	if resp.Tag != proto.RespExecutionError {
		t.Fatalf("double single_core(): expected ExecutionError, got %+v", resp)
	}

	resp = sendCommand(t, conn, "single_core_execute()")
	if resp.Tag != proto.RespOk {
		t.Fatalf("single_core_execute(): expected Ok, got %+v", resp)
	}
	if !engine.Threads() {
		t.Fatal("expected Threads() true after single_core_execute()")
	}
}

func TestServerInvalidCommand(t *testing.T) {
	db := catalog.New()
	conn, done := newTestPair(t, db)
	defer func() {
		conn.Close()
		<-done
	}()

	resp := sendCommand(t, conn, "nosuchcommand(1,2)")
	if resp.Tag != proto.RespInvalidCommand {
		t.Fatalf("expected InvalidCommand, got %+v", resp)
	}
}

func TestServerRelationalDeleteRecoversToUnknownExecutionError(t *testing.T) {
	db := catalog.New()
	conn, done := newTestPair(t, db)
	defer func() {
		conn.Close()
		<-done
	}()

	resp := sendCommand(t, conn, "relational_delete(a.t,1)")
	if resp.Tag != proto.RespUnknownExecutionError {
		t.Fatalf("expected UnknownExecutionError, got %+v", resp)
	}

	// the connection must still be usable afterward -- one bad
	// command doesn't take the whole session down.
	resp = sendCommand(t, conn, "batch_queries()")
	if resp.Tag != proto.RespBatchError {
		t.Fatalf("expected BatchError, got %+v", resp)
	}
}
