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
	"github.com/dchest/siphash"

	"github.com/SnellerInc/coldb/catalog"
	"github.com/SnellerInc/coldb/dberr"
	"github.com/SnellerInc/coldb/proto"
	"github.com/SnellerInc/coldb/session"
)

type joinAlg int

const (
	joinNestedLoop joinAlg = iota
	joinNaiveHash
)

var joinAlgNames = map[string]joinAlg{
	"nested-loop": joinNestedLoop,
	"naive-hash":  joinNaiveHash,
	// grace-hash and hash are reserved and alias to naive-hash.
	"grace-hash": joinNaiveHash,
	"hash":       joinNaiveHash,
}

// JoinCmd implements `out1,out2 = join(V1,P1,V2,P2,alg)`: an equijoin
// on values, producing the pair of position sequences (from_P1,
// from_P2) of matching rows.
type JoinCmd struct {
	Out1Name string
	Out2Name string
	HasOuts  bool

	V1Name, P1Name string
	V2Name, P2Name string
	Alg            joinAlg
}

func parseJoin(handles, args []string) (Command, bool) {
	if len(args) != 5 {
		return nil, false
	}
	alg, ok := joinAlgNames[args[4]]
	if !ok {
		return nil, false
	}
	cmd := &JoinCmd{
		V1Name: args[0], P1Name: args[1],
		V2Name: args[2], P2Name: args[3],
		Alg: alg,
	}
	if len(handles) == 2 {
		cmd.Out1Name, cmd.Out2Name = handles[0], handles[1]
		cmd.HasOuts = true
	} else if len(handles) != 0 {
		return nil, false
	}
	return cmd, true
}

func (c *JoinCmd) Execute(db *catalog.Database, cc *session.Context) proto.Response {
	v1, ok := cc.ResolveValvec(c.V1Name, db)
	if !ok {
		return proto.ExecutionError(dberr.NewValvecNotExist(c.V1Name).Error())
	}
	p1, ok := cc.Posvecs[c.P1Name]
	if !ok {
		return proto.ExecutionError(dberr.NewPosvecNotExist(c.P1Name).Error())
	}
	v2, ok := cc.ResolveValvec(c.V2Name, db)
	if !ok {
		return proto.ExecutionError(dberr.NewValvecNotExist(c.V2Name).Error())
	}
	p2, ok := cc.Posvecs[c.P2Name]
	if !ok {
		return proto.ExecutionError(dberr.NewPosvecNotExist(c.P2Name).Error())
	}

	var out1, out2 []int
	switch c.Alg {
	case joinNestedLoop:
		out1, out2 = nestedLoopJoin(v1, p1, v2, p2)
	default:
		out1, out2 = naiveHashJoin(v1, p1, v2, p2)
	}

	if c.HasOuts {
		cc.Posvecs[c.Out1Name] = out1
		cc.Posvecs[c.Out2Name] = out2
	}
	return proto.Ok()
}

func nestedLoopJoin(v1 []int32, p1 []int, v2 []int32, p2 []int) ([]int, []int) {
	var out1, out2 []int
	for i, a := range v1 {
		for j, b := range v2 {
			if a == b {
				out1 = append(out1, p1[i])
				out2 = append(out2, p2[j])
			}
		}
	}
	return out1, out2
}

// joinHashSeed is a fixed siphash key: the hash table is only ever
// used within one join call, never persisted or compared across
// processes, so there's no need for a random per-process seed.
var joinHashSeed = [16]byte{}

func hashKey(v int32) uint64 {
	var buf [4]byte
	buf[0] = byte(v)
	buf[1] = byte(v >> 8)
	buf[2] = byte(v >> 16)
	buf[3] = byte(v >> 24)
	return siphash.Hash(
		uint64(joinHashSeed[0])|uint64(joinHashSeed[1])<<8,
		uint64(joinHashSeed[2])|uint64(joinHashSeed[3])<<8,
		buf[:],
	)
}

// naiveHashJoin builds a hash map on the smaller side and probes with
// the larger, then swaps the output pair back so out1 always
// corresponds to V1/P1 regardless of which side was built.
func naiveHashJoin(v1 []int32, p1 []int, v2 []int32, p2 []int) ([]int, []int) {
	if len(v1) <= len(v2) {
		out1, out2 := probeHashJoin(v1, p1, v2, p2)
		return out1, out2
	}
	out2, out1 := probeHashJoin(v2, p2, v1, p1)
	return out1, out2
}

// probeHashJoin builds its hash table on (buildV,buildP) -- expected
// to be the smaller side -- and probes with (probeV,probeP), returning
// (fromBuild, fromProbe) position pairs.
func probeHashJoin(buildV []int32, buildP []int, probeV []int32, probeP []int) ([]int, []int) {
	table := make(map[uint64][]int, len(buildV))
	for i, v := range buildV {
		k := hashKey(v)
		table[k] = append(table[k], i)
	}

	var outBuild, outProbe []int
	for j, v := range probeV {
		for _, i := range table[hashKey(v)] {
			if buildV[i] != v {
				continue // hash collision, not an equal key
			}
			outBuild = append(outBuild, buildP[i])
			outProbe = append(outProbe, probeP[j])
		}
	}
	return outBuild, outProbe
}
