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
	"encoding/binary"
	"fmt"
	"io"
)

// MaxFrameSize bounds a single frame's payload (tag + body) to guard
// against a corrupt or hostile length prefix causing an unbounded
// allocation. 64 MiB comfortably covers the largest textual command
// this DSL can express.
const MaxFrameSize = 64 << 20

// readFrame reads one length-prefixed frame and returns its tag byte
// and remaining payload.
func readFrame(r io.Reader) (byte, []byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return 0, nil, err
	}
	n := binary.LittleEndian.Uint32(lenBuf[:])
	if n == 0 {
		return 0, nil, fmt.Errorf("empty frame")
	}
	if n > MaxFrameSize {
		return 0, nil, fmt.Errorf("frame of %d bytes exceeds max %d", n, MaxFrameSize)
	}
	body := make([]byte, n)
	if _, err := io.ReadFull(r, body); err != nil {
		return 0, nil, err
	}
	return body[0], body[1:], nil
}

func writeFrame(w io.Writer, tag byte, payload []byte) error {
	body := make([]byte, 1+len(payload))
	body[0] = tag
	copy(body[1:], payload)
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(body)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err := w.Write(body)
	return err
}

// ReadRequest reads one client->server request. For ReqProcessCSV,
// the caller is responsible for then reading exactly
// Request.CSVSize raw bytes off r -- those bytes are not part of
// this frame.
func ReadRequest(r io.Reader) (Request, error) {
	tag, payload, err := readFrame(r)
	if err != nil {
		return Request{}, err
	}
	switch RequestTag(tag) {
	case ReqProcessCommand:
		return Request{Tag: ReqProcessCommand, Text: string(payload)}, nil
	case ReqProcessCSV:
		if len(payload) != 4 {
			return Request{}, fmt.Errorf("ReqProcessCSV payload must be 4 bytes, got %d", len(payload))
		}
		return Request{Tag: ReqProcessCSV, CSVSize: binary.LittleEndian.Uint32(payload)}, nil
	default:
		return Request{}, fmt.Errorf("unknown request tag %d", tag)
	}
}

// WriteRequest writes one client->server request frame. For
// ReqProcessCSV, the caller must write CSVSize raw bytes immediately
// afterward.
func WriteRequest(w io.Writer, req Request) error {
	switch req.Tag {
	case ReqProcessCommand:
		return writeFrame(w, byte(ReqProcessCommand), []byte(req.Text))
	case ReqProcessCSV:
		var sizeBuf [4]byte
		binary.LittleEndian.PutUint32(sizeBuf[:], req.CSVSize)
		return writeFrame(w, byte(ReqProcessCSV), sizeBuf[:])
	default:
		return fmt.Errorf("unknown request tag %d", req.Tag)
	}
}

// ReadResponse reads one server->client response frame.
func ReadResponse(r io.Reader) (Response, error) {
	tag, payload, err := readFrame(r)
	if err != nil {
		return Response{}, err
	}
	switch ResponseTag(tag) {
	case RespOk, RespOkTerminate, RespInvalidCommand, RespUnknownExecutionError:
		return Response{Tag: ResponseTag(tag)}, nil
	case RespOkWithPayload, RespParseError, RespBatchError, RespExecutionError:
		return Response{Tag: ResponseTag(tag), Payload: string(payload)}, nil
	default:
		return Response{}, fmt.Errorf("unknown response tag %d", tag)
	}
}

// WriteResponse writes one server->client response frame.
func WriteResponse(w io.Writer, resp Response) error {
	return writeFrame(w, byte(resp.Tag), []byte(resp.Payload))
}
