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

// Package proto holds the client/server message values and their
// length-prefixed wire framing.
package proto

// RequestTag discriminates the two client->server message shapes.
type RequestTag byte

const (
	ReqProcessCommand RequestTag = iota
	ReqProcessCSV
)

// Request is a client->server message. Text is set for
// ReqProcessCommand; CSVSize is set for ReqProcessCSV, and is
// immediately followed on the wire by that many raw (unframed) CSV
// bytes -- the one exception to every message being self-framed.
type Request struct {
	Tag     RequestTag
	Text    string
	CSVSize uint32
}

// ResponseTag discriminates the eight server->client message shapes.
type ResponseTag byte

const (
	RespOk ResponseTag = iota
	RespOkTerminate
	RespOkWithPayload
	RespInvalidCommand
	RespParseError
	RespBatchError
	RespExecutionError
	RespUnknownExecutionError
)

// Response is a server->client message. Payload carries the string
// for OkWithPayload/ParseError/BatchError/ExecutionError and is empty
// for the other four tags.
type Response struct {
	Tag     ResponseTag
	Payload string
}

func Ok() Response                        { return Response{Tag: RespOk} }
func OkTerminate() Response                { return Response{Tag: RespOkTerminate} }
func OkWithPayload(s string) Response      { return Response{Tag: RespOkWithPayload, Payload: s} }
func InvalidCommand() Response             { return Response{Tag: RespInvalidCommand} }
func ParseError(s string) Response         { return Response{Tag: RespParseError, Payload: s} }
func BatchError(s string) Response         { return Response{Tag: RespBatchError, Payload: s} }
func ExecutionError(s string) Response     { return Response{Tag: RespExecutionError, Payload: s} }
func UnknownExecutionError() Response      { return Response{Tag: RespUnknownExecutionError} }

// FromError turns a possibly-nil error into Ok()/ExecutionError(err.Error()),
// matching original_source/rustsrc/src/message.rs's
// `impl From<Result<(), DbError>> for ServerMessage`.
func FromError(err error) Response {
	if err == nil {
		return Ok()
	}
	return ExecutionError(err.Error())
}
