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

package proto

import (
	"bytes"
	"testing"
)

func TestRequestRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteRequest(&buf, Request{Tag: ReqProcessCommand, Text: `out = select(a,1,2)`}); err != nil {
		t.Fatal(err)
	}
	got, err := ReadRequest(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if got.Tag != ReqProcessCommand || got.Text != `out = select(a,1,2)` {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestProcessCSVHeaderThenRawBytes(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteRequest(&buf, Request{Tag: ReqProcessCSV, CSVSize: 10}); err != nil {
		t.Fatal(err)
	}
	buf.WriteString("d.t.a\n1\n2\n")
	req, err := ReadRequest(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if req.Tag != ReqProcessCSV || req.CSVSize != 10 {
		t.Fatalf("unexpected request: %+v", req)
	}
	payload := make([]byte, req.CSVSize)
	if _, err := buf.Read(payload); err != nil {
		t.Fatal(err)
	}
	if string(payload) != "d.t.a\n1\n2\n" {
		t.Fatalf("CSV payload corrupted: %q", payload)
	}
}

func TestResponseRoundTripEachTag(t *testing.T) {
	cases := []Response{
		Ok(),
		OkTerminate(),
		OkWithPayload("1,2,3"),
		InvalidCommand(),
		ParseError("bad syntax"),
		BatchError("not implemented"),
		ExecutionError("table does not exist"),
		UnknownExecutionError(),
	}
	for _, resp := range cases {
		var buf bytes.Buffer
		if err := WriteResponse(&buf, resp); err != nil {
			t.Fatal(err)
		}
		got, err := ReadResponse(&buf)
		if err != nil {
			t.Fatal(err)
		}
		if got != resp {
			t.Fatalf("round trip mismatch: got %+v, want %+v", got, resp)
		}
	}
}
