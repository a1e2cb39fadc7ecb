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

package catalog

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/SnellerInc/coldb/column"
	"github.com/SnellerInc/coldb/compr"
	"github.com/SnellerInc/coldb/table"
)

// CatalogFileName is the single blob a database is persisted to,
// matching original_source/rustsrc/src/consts.rs's
// DB_PERSIST_CATALOG_FILE default.
const CatalogFileName = "__catalog__"

const catalogMagic = uint32(0x636f6c31) // "col1"

// Persist serializes the whole database into dir/CatalogFileName,
// creating dir if necessary. Per-column raw data is zstd-compressed
// (via the compr package); names, row counts, primary hints and index
// discriminators are stored uncompressed.
func (d *Database) Persist(dir string) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating persist dir: %w", err)
	}
	var buf bytes.Buffer
	if err := d.encode(&buf); err != nil {
		return err
	}
	path := filepath.Join(dir, CatalogFileName)
	return os.WriteFile(path, buf.Bytes(), 0o600)
}

// Load deserializes dir/CatalogFileName, if it exists, rebuilding
// every index via Table.RecreateIndexes(skipSorting=true) since the
// persisted column data is already in clustered order. A missing
// catalog file is not an error: Load returns a fresh, empty Database.
func Load(dir string) (*Database, error) {
	path := filepath.Join(dir, CatalogFileName)
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	d, err := decode(raw)
	if err != nil {
		return nil, fmt.Errorf("decoding catalog: %w", err)
	}
	for _, t := range d.Tables {
		t.RecreateIndexes(true)
	}
	return d, nil
}

func (d *Database) encode(buf *bytes.Buffer) error {
	putU32(buf, catalogMagic)
	if d.Active != nil {
		buf.WriteByte(1)
		putString(buf, *d.Active)
	} else {
		buf.WriteByte(0)
	}

	names := d.sortedTableNames()
	putU32(buf, uint32(len(names)))
	compressor := compr.Compression("zstd")
	for _, name := range names {
		t := d.Tables[name]
		putString(buf, name)
		putU32(buf, uint32(t.NCols))
		if t.Primary != nil {
			buf.WriteByte(1)
			putU32(buf, uint32(*t.Primary))
		} else {
			buf.WriteByte(0)
		}
		putU32(buf, uint32(len(t.Columns)))
		for _, c := range t.Columns {
			putString(buf, c.Name)
			buf.WriteByte(byte(c.Kind))
			putU32(buf, uint32(len(c.Data)))
			raw := encodeInt32s(c.Data)
			compressed := compressor.Compress(raw, nil)
			putU32(buf, uint32(len(compressed)))
			buf.Write(compressed)
		}
	}
	return nil
}

func decode(raw []byte) (*Database, error) {
	r := bytes.NewReader(raw)
	magic, err := getU32(r)
	if err != nil {
		return nil, err
	}
	if magic != catalogMagic {
		return nil, fmt.Errorf("bad catalog magic %#x", magic)
	}
	hasActive, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	d := New()
	if hasActive == 1 {
		name, err := getString(r)
		if err != nil {
			return nil, err
		}
		d.Active = &name
	}

	numTables, err := getU32(r)
	if err != nil {
		return nil, err
	}
	decompressor := compr.Decompression("zstd")
	for i := uint32(0); i < numTables; i++ {
		name, err := getString(r)
		if err != nil {
			return nil, err
		}
		nCols, err := getU32(r)
		if err != nil {
			return nil, err
		}
		t := table.New(int(nCols))

		hasPrimary, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		var primary *int
		if hasPrimary == 1 {
			p, err := getU32(r)
			if err != nil {
				return nil, err
			}
			pi := int(p)
			primary = &pi
		}

		numColumns, err := getU32(r)
		if err != nil {
			return nil, err
		}
		for j := uint32(0); j < numColumns; j++ {
			colName, err := getString(r)
			if err != nil {
				return nil, err
			}
			kindByte, err := r.ReadByte()
			if err != nil {
				return nil, err
			}
			nRows, err := getU32(r)
			if err != nil {
				return nil, err
			}
			compLen, err := getU32(r)
			if err != nil {
				return nil, err
			}
			compBuf := make([]byte, compLen)
			if _, err := io.ReadFull(r, compBuf); err != nil {
				return nil, err
			}
			raw := make([]byte, int(nRows)*4)
			if len(raw) > 0 {
				if err := decompressor.Decompress(compBuf, raw); err != nil {
					return nil, fmt.Errorf("decompressing column %q: %w", colName, err)
				}
			}
			c := column.New(colName)
			c.Data = decodeInt32s(raw)
			c.Kind = column.IndexKind(kindByte)
			t.Columns = append(t.Columns, c)
		}
		t.Primary = primary
		d.Tables[name] = t
	}
	return d, nil
}

func putU32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func getU32(r *bytes.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

func putString(buf *bytes.Buffer, s string) {
	putU32(buf, uint32(len(s)))
	buf.WriteString(s)
}

func getString(r *bytes.Reader) (string, error) {
	n, err := getU32(r)
	if err != nil {
		return "", err
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", err
	}
	return string(b), nil
}

func encodeInt32s(data []int32) []byte {
	buf := make([]byte, 4*len(data))
	for i, v := range data {
		binary.LittleEndian.PutUint32(buf[4*i:], uint32(v))
	}
	return buf
}

func decodeInt32s(buf []byte) []int32 {
	n := len(buf) / 4
	out := make([]int32, n)
	for i := 0; i < n; i++ {
		out[i] = int32(binary.LittleEndian.Uint32(buf[4*i:]))
	}
	return out
}
