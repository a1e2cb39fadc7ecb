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

// Package engine holds the process-wide execution mode flag and the
// goroutine worker pool that column and table kernels dispatch onto.
package engine

import (
	"errors"
	"sync/atomic"
)

// multiThreaded mirrors original_source/rustsrc/src/db.rs's
// MULTI_THREADED atomic bool: it gates whether kernels (argsort,
// co-permute, select scan, add/sub) split their work across the pool
// or just run inline. Relaxed ordering is fine here: it's a
// best-effort mode switch, not a synchronization point for any other
// state.
var multiThreaded int32 = 1

// ErrAlreadySingleCore is returned by SingleCore when the engine is
// already running in single-core mode.
var ErrAlreadySingleCore = errors.New("already in single-core mode")

// ErrAlreadyMultiCore is returned by SingleCoreExecute when the engine
// is not currently in single-core mode.
var ErrAlreadyMultiCore = errors.New("not in single-core mode")

// Threads reports whether parallel kernels are currently enabled.
func Threads() bool {
	return atomic.LoadInt32(&multiThreaded) != 0
}

func setThreads(v bool) {
	n := int32(0)
	if v {
		n = 1
	}
	atomic.StoreInt32(&multiThreaded, n)
}

// SingleCore switches the engine to single-core (sequential) execution.
// It fails if the engine is already single-core.
func SingleCore() error {
	if !Threads() {
		return ErrAlreadySingleCore
	}
	setThreads(false)
	return nil
}

// SingleCoreExecute switches the engine back to multi-core execution.
// It fails if the engine is not currently single-core.
func SingleCoreExecute() error {
	if Threads() {
		return ErrAlreadyMultiCore
	}
	setThreads(true)
	return nil
}

// ResetThreadsForTest restores the default (multi-threaded) mode; used
// by tests that toggle SingleCore/SingleCoreExecute to avoid leaking
// state across test cases.
func ResetThreadsForTest() {
	setThreads(true)
}
