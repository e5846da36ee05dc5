// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package rbox implements the L2 reference-counted wrapper of spec.md §4.7: an
// atomically refcounted generic box over any inner value, with an optional
// metadata slot and destroy hooks for both. It is grounded on
// lldb/xact.go's bitFiler nesting counter (an atomically tracked depth gating
// a single cleanup action on the thread that drives it to zero), generalized
// here from a nesting depth to a plain up/down refcount gating a pair of
// destroy callbacks. Package dynval uses Box to back Array and Hash, the two
// container kinds of the soft value system.
package rbox

import "sync/atomic"

// A Box wraps an inner value of type T behind an atomic reference count
// (spec.md §4.7). The zero Box is not valid; construct one with New.
type Box[T any] struct {
	ref         atomic.Int32
	inner       T
	meta        any
	destroy     func(T)
	destroyMeta func(any)
}

// New returns a Box with a reference count of one, wrapping inner with
// optional meta. destroy is called on inner, and destroyMeta on meta, exactly
// once, when the last reference is released via Free. Either callback may be
// nil.
func New[T any](inner T, meta any, destroy func(T), destroyMeta func(any)) *Box[T] {
	b := &Box[T]{inner: inner, meta: meta, destroy: destroy, destroyMeta: destroyMeta}
	b.ref.Store(1)
	return b
}

// Inner returns the wrapped value. The caller must hold a live reference.
func (b *Box[T]) Inner() T { return b.inner }

// Meta returns the metadata slot, or nil if none was supplied.
func (b *Box[T]) Meta() any { return b.meta }

// SetInner replaces the wrapped value without touching the reference count.
// Mutating the wrapped value is not itself synchronized (spec.md §5: "mutation
// of the wrapped value is not" safe across goroutines).
func (b *Box[T]) SetInner(v T) { b.inner = v }

// RefCount reports the current reference count, for diagnostics and tests.
func (b *Box[T]) RefCount() int32 { return b.ref.Load() }

// UpRef atomically increments b's reference count and returns b, so it can be
// chained at a sharing call site (e.g. `other.box = b.UpRef()`). Safe to call
// from any goroutine per spec.md §4.7/§5.
func (b *Box[T]) UpRef() *Box[T] {
	b.ref.Add(1)
	return b
}

// Free atomically decrements b's reference count. When the count reaches
// zero, it invokes destroy(inner) followed by destroyMeta(meta) exactly once,
// on whichever goroutine observed the decrement-to-zero — reentrancy-safe per
// spec.md §4.7. Calling Free on an already-freed Box (ref count already at or
// below zero) panics, matching spec.md §7's "no recoverable error is silently
// swallowed" policy for invariant violations.
func (b *Box[T]) Free() {
	n := b.ref.Add(-1)
	switch {
	case n > 0:
		return
	case n < 0:
		panic("rbox: Free of a Box with no outstanding references")
	}

	if b.destroy != nil {
		b.destroy(b.inner)
	}
	if b.destroyMeta != nil {
		b.destroyMeta(b.meta)
	}
}
