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

package engine

import (
	"runtime"
	"sync"
)

// pool is a fixed-size, channel-based goroutine pool: one worker per
// logical core, fed closures over a channel buffered to one slot per
// worker. Modeled
// directly on plan/exec.go's mkpool/pool.do.
type pool chan func()

func mkpool(n int) pool {
	p := make(pool, n)
	for i := 0; i < n; i++ {
		go func() {
			for f := range p {
				f()
			}
		}()
	}
	return p
}

func (p pool) do(f func()) {
	p <- f
}

var (
	globalPoolOnce sync.Once
	globalPoolVal  pool
)

func globalPool() pool {
	globalPoolOnce.Do(func() {
		n := runtime.GOMAXPROCS(0)
		if n < 1 {
			n = 1
		}
		globalPoolVal = mkpool(n)
	})
	return globalPoolVal
}

// NumWorkers returns the size of the global worker pool (GOMAXPROCS,
// floored at 1). Kernels outside this package use it to decide how
// many chunks to pre-split work into before calling ParallelEach.
func NumWorkers() int {
	n := runtime.GOMAXPROCS(0)
	if n < 1 {
		n = 1
	}
	return n
}

// minChunk is the "parallel kernel floor": below this many elements
// per goroutine, Parallel just runs the body inline instead of
// splitting further, so tiny ranges aren't over-split.
const minChunk = 1024

// Parallel invokes body once per chunk of [0,n), splitting the range
// across the global worker pool when Threads() is enabled and n is
// large enough to be worth splitting. body receives the half-open
// [lo,hi) bounds of its chunk. When parallel execution isn't
// warranted, body is called once with the full range.
func Parallel(n int, body func(lo, hi int)) {
	if n <= 0 {
		return
	}
	numWorkers := runtime.GOMAXPROCS(0)
	if !Threads() || numWorkers <= 1 || n < minChunk {
		body(0, n)
		return
	}
	chunks := numWorkers
	if perChunk := n / chunks; perChunk < minChunk {
		chunks = n / minChunk
	}
	if chunks < 2 {
		body(0, n)
		return
	}

	p := globalPool()
	var wg sync.WaitGroup
	wg.Add(chunks)
	base, rem := n/chunks, n%chunks
	lo := 0
	for i := 0; i < chunks; i++ {
		hi := lo + base
		if i < rem {
			hi++
		}
		l, h := lo, hi
		p.do(func() {
			defer wg.Done()
			body(l, h)
		})
		lo = hi
	}
	wg.Wait()
}

// ParallelEach dispatches one task per index in [0,n) onto the global
// pool unconditionally, without Parallel's minimum-chunk floor. Use it
// when the caller has already decided how much work belongs in each
// task (e.g. one pre-sized chunk per worker) and just needs them run
// concurrently and awaited.
func ParallelEach(n int, fn func(i int)) {
	if n <= 0 {
		return
	}
	if n == 1 || !Threads() {
		for i := 0; i < n; i++ {
			fn(i)
		}
		return
	}
	p := globalPool()
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		i := i
		p.do(func() {
			defer wg.Done()
			fn(i)
		})
	}
	wg.Wait()
}
