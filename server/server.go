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

// Package server is the accept loop that ties the wire protocol
// (proto), the query language (lang) and the engine state
// (catalog.Database) together: one client connection handled at a
// time, as original_source/rustsrc/src/bin/server.rs's
// handle_client/process_command/process_csv do.
package server

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"net"
	"strings"

	"github.com/SnellerInc/coldb/catalog"
	"github.com/SnellerInc/coldb/engine"
	"github.com/SnellerInc/coldb/lang"
	"github.com/SnellerInc/coldb/proto"
	"github.com/SnellerInc/coldb/session"
)

// Server owns the single database instance a process lifetime serves;
// there is no multi-database support and no concurrent clients.
// Persisting it to disk is the caller's job, done once Serve returns
// with a nil error (see Serve's doc comment).
type Server struct {
	DB     *catalog.Database
	Logger *log.Logger
}

// New returns a Server wrapping db, ready to Serve connections.
func New(db *catalog.Database, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{DB: db, Logger: logger}
}

// Serve accepts connections off l sequentially -- the next Accept
// only happens once the previous connection's handleConn returns --
// so exactly one client connection is handled at a time. It returns
// nil once a client has sent
// "shutdown" (the caller is responsible for persisting the catalog
// afterward, mirroring original_source/rustsrc/src/bin/server.rs's
// main calling db.shutdown() only after its accept loop breaks, not
// from inside handle_client), or the first Accept error otherwise.
func (s *Server) Serve(l net.Listener) error {
	for {
		conn, err := l.Accept()
		if err != nil {
			return err
		}
		s.Logger.Printf("client connection established (%s)", conn.RemoteAddr())
		shutdown := s.handleConn(conn)
		conn.Close()
		if shutdown {
			return nil
		}
	}
}

// handleConn drives one client connection to completion: it reads
// requests until the client disconnects or sends "shutdown", in
// which case it returns true to tell Serve to stop accepting new
// connections. The session.Context it creates lives exactly as long
// as this connection: client-context entries live for one client
// session.
func (s *Server) handleConn(conn net.Conn) (shutdown bool) {
	cc := session.New()
	for {
		req, err := proto.ReadRequest(conn)
		if err != nil {
			if err != io.EOF {
				s.Logger.Printf("client disconnected with error (session %s): %v", cc.ID, err)
			} else {
				s.Logger.Printf("client disconnected (session %s)", cc.ID)
			}
			return false
		}

		var resp proto.Response
		switch req.Tag {
		case proto.ReqProcessCommand:
			resp, shutdown = s.processCommand(req.Text, cc)
		case proto.ReqProcessCSV:
			resp = s.processCSV(conn, req.CSVSize)
		default:
			resp = proto.UnknownExecutionError()
		}

		if err := proto.WriteResponse(conn, resp); err != nil {
			s.Logger.Printf("failed to send response: %v", err)
			return false
		}
		if shutdown {
			return true
		}
	}
}

// processCommand implements process_command: the two pseudo-commands
// single_core()/single_core_execute() and the "shutdown" control word
// are special control commands, intercepted before lang.Parse ever
// sees them rather than parsed as regular commands; everything
// else goes through the normal parse-then-execute pipeline. A
// relational_delete/relational_update Execute panic (lang.DeleteCmd,
// lang.UpdateCmd) is recovered here into UnknownExecutionError per
// DESIGN.md's Open Question decision, so one bad client request never
// takes the whole server down.
func (s *Server) processCommand(query string, cc *session.Context) (resp proto.Response, shutdown bool) {
	query = strings.TrimSpace(query)
	switch query {
	case "shutdown":
		return proto.OkTerminate(), true
	case "single_core()":
		if err := engine.SingleCore(); err != nil {
			return proto.ExecutionError(err.Error()), false
		}
		return proto.Ok(), false
	case "single_core_execute()":
		if err := engine.SingleCoreExecute(); err != nil {
			return proto.ExecutionError(err.Error()), false
		}
		return proto.Ok(), false
	}

	cmd, parseResp := lang.Parse(query)
	if cmd == nil {
		return parseResp, false
	}
	return s.execute(cmd, cc), false
}

// execute runs cmd.Execute, turning a panic (the unimplemented
// relational_delete/relational_update path) into
// UnknownExecutionError instead of letting it escape and kill the
// connection's goroutine -- and, since this server serves one
// connection inline rather than off a separate goroutine per
// connection, the whole process.
func (s *Server) execute(cmd lang.Command, cc *session.Context) (resp proto.Response) {
	defer func() {
		if r := recover(); r != nil {
			s.Logger.Printf("recovered from command panic: %v", r)
			resp = proto.UnknownExecutionError()
		}
	}()
	return cmd.Execute(s.DB, cc)
}

// processCSV implements process_csv: it reads exactly size raw bytes
// off conn, splits the leading header line (db.t.c1, db.t.c2, ...),
// and routes the remainder to Database.LoadCSV. On any failure it
// still must drain the CSV bytes from the stream so the framing stays
// aligned -- here that's automatic since the whole payload is read up
// front regardless of outcome.
func (s *Server) processCSV(conn net.Conn, size uint32) proto.Response {
	raw := make([]byte, size)
	if _, err := io.ReadFull(conn, raw); err != nil {
		return proto.ExecutionError(fmt.Sprintf("reading CSV payload: %v", err))
	}

	header, body, err := splitHeaderLine(raw)
	if err != nil {
		return proto.ExecutionError(err.Error())
	}

	if _, err := s.DB.LoadCSV(header, bytes.NewReader(body)); err != nil {
		return proto.ExecutionError(err.Error())
	}
	return proto.Ok()
}

// splitHeaderLine pulls the first line off raw (the CSV header) and
// returns its trimmed comma-separated fields alongside the remaining
// bytes. The header is never quoted (it's always a flat list of
// db.table.column names), so a plain byte scan is enough -- no need
// to route it through a full CSV reader the way data rows are.
func splitHeaderLine(raw []byte) (header []string, body []byte, err error) {
	nl := bytes.IndexByte(raw, '\n')
	var line string
	if nl < 0 {
		line = string(raw)
		body = nil
	} else {
		line = string(raw[:nl])
		body = raw[nl+1:]
	}
	line = strings.TrimRight(line, "\r")
	if strings.TrimSpace(line) == "" {
		return nil, nil, fmt.Errorf("CSV stream has no header line")
	}
	fields := strings.Split(line, ",")
	for i, f := range fields {
		fields[i] = strings.TrimSpace(f)
	}
	return fields, body, nil
}
