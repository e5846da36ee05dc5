// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package vec implements the L2 dynamic array of spec.md §4.4: a two-ended
// resizable sequence, generalized from the teacher's dbm.Array/uBits shape
// (referenced in dbm/bits.go: a growable indexed sequence with a Set/Delete
// pair over a paged file) into an in-memory generic container. Growth and
// shift/unshift bookkeeping follow the same start/end-offset discipline
// spec.md §3 describes for the Dynamic Array record.
package vec

import "github.com/cznic/mathutil"

// growthMode selects how Set grows capacity when writing past the live end.
type growthMode int

const (
	growthGeometric growthMode = iota
	growthAdditive
)

// An Option configures a Vec at construction.
type Option func(*options)

type options struct {
	mode  growthMode
	delta int // additive growth increment, when mode == growthAdditive
}

// WithAdditiveGrowth selects additive (rather than the default geometric)
// capacity growth, adding delta elements' worth of room each time Set grows
// the Vec, per spec.md §4.4's "selectable via a compile-time flag."
func WithAdditiveGrowth(delta int) Option {
	if delta <= 0 {
		delta = 1
	}
	return func(o *options) { o.mode = growthAdditive; o.delta = delta }
}

// A Vec is a two-ended resizable sequence of T (spec.md §4.4). The live
// region is buf[start:end]; start advances on Shift, end advances on Push.
// The zero Vec is ready to use with default (geometric) growth.
type Vec[T any] struct {
	buf        []T
	start, end int
	opts       options
}

// New returns an empty, ready to use Vec configured by opts.
func New[T any](opts ...Option) *Vec[T] {
	v := &Vec[T]{}
	for _, o := range opts {
		o(&v.opts)
	}
	return v
}

// Len returns the number of live elements.
func (v *Vec[T]) Len() int { return v.end - v.start }

// Cap returns the total backing capacity, live or not.
func (v *Vec[T]) Cap() int { return len(v.buf) }

// resolveIndex turns a possibly-negative logical index (counted from the end,
// per spec.md §4.4) into an absolute buffer index and reports whether it was
// negative.
func (v *Vec[T]) resolveIndex(i int) (abs int, negative bool) {
	if i < 0 {
		return v.end + i, true
	}
	return v.start + i, false
}

// At returns the element at logical index i (negative counts from the end)
// and whether i was in range.
func (v *Vec[T]) At(i int) (val T, ok bool) {
	abs, _ := v.resolveIndex(i)
	if abs < v.start || abs >= v.end {
		return val, false
	}
	return v.buf[abs], true
}

func nextGeometric(n int) int {
	if n < 8 {
		return 8
	}
	return mathutil.Max(n*2, n+1)
}

// ensureTail guarantees room for at least n more elements past end,
// compacting or reallocating as needed. It never moves start rightward.
func (v *Vec[T]) ensureTail(n int) {
	if len(v.buf)-v.end >= n {
		return
	}

	live := v.end - v.start
	needed := live + n
	if v.start > 0 && cap(v.buf) >= needed {
		copy(v.buf, v.buf[v.start:v.end])
		v.end = live
		v.start = 0
		if len(v.buf)-v.end >= n {
			return
		}
	}

	newCap := v.growTarget(needed)
	nb := make([]T, newCap)
	copy(nb, v.buf[v.start:v.end])
	v.buf = nb
	v.end = live
	v.start = 0
}

// ensureHead guarantees room for at least n more elements before start,
// shifting the live region rightward within the existing buffer when there
// is slack, else reallocating with head room (spec.md §4.4's Reserve(capa<0)
// contract, reused by Unshift).
func (v *Vec[T]) ensureHead(n int) {
	if v.start >= n {
		return
	}

	live := v.end - v.start
	needed := live + n
	if cap(v.buf) >= needed {
		nb := v.buf[:cap(v.buf)]
		newStart := cap(v.buf) - live
		copy(nb[newStart:cap(v.buf)], v.buf[v.start:v.end])
		v.buf = nb
		v.start = newStart
		v.end = cap(v.buf)
		return
	}

	newCap := v.growTarget(needed)
	nb := make([]T, newCap)
	newStart := newCap - live
	copy(nb[newStart:], v.buf[v.start:v.end])
	v.buf = nb
	v.start = newStart
	v.end = newCap
}

func (v *Vec[T]) growTarget(needed int) int {
	switch v.opts.mode {
	case growthAdditive:
		delta := v.opts.delta
		if delta <= 0 {
			delta = 1
		}
		n := len(v.buf)
		for n < needed {
			n += delta
		}
		return roundWord(n)
	default:
		n := len(v.buf)
		if n == 0 {
			n = nextGeometric(needed)
		}
		for n < needed {
			n = nextGeometric(n)
		}
		return roundWord(n)
	}
}

// roundWord rounds n up to a multiple of 8, matching spec.md §4.4's "capacity
// growth rounds to a word-boundary multiple."
func roundWord(n int) int {
	const word = 8
	return (n + word - 1) / word * word
}

// Push appends v to the end of the Vec.
func (v *Vec[T]) Push(val T) {
	v.ensureTail(1)
	v.buf[v.end] = val
	v.end++
}

// Pop removes and returns the last element, reporting whether one existed.
func (v *Vec[T]) Pop() (val T, ok bool) {
	if v.end == v.start {
		return val, false
	}
	v.end--
	val = v.buf[v.end]
	var zero T
	v.buf[v.end] = zero
	return val, true
}

// Unshift prepends val to the start of the Vec.
func (v *Vec[T]) Unshift(val T) {
	v.ensureHead(1)
	v.start--
	v.buf[v.start] = val
}

// Shift removes and returns the first element, reporting whether one existed.
func (v *Vec[T]) Shift() (val T, ok bool) {
	if v.start == v.end {
		return val, false
	}
	val = v.buf[v.start]
	var zero T
	v.buf[v.start] = zero
	v.start++
	return val, true
}

// Set stores val at logical index i, growing the Vec (filling the gap with
// T's zero value) if i is at or beyond the current end. Negative i counts
// from the end; a negative index beyond the current length reallocates and
// shifts content right (spec.md §4.4). It returns the previous value at i,
// if any.
func (v *Vec[T]) Set(i int, val T) (old T, hadOld bool) {
	if i >= 0 {
		idx := v.start + i
		if idx >= v.end {
			v.ensureTail(idx - v.end + 1)
			// ensureTail may have moved the live region to the buffer's front.
			idx = v.start + i
			var zero T
			for j := v.end; j < idx; j++ {
				v.buf[j] = zero
			}
			v.end = idx + 1
			v.buf[idx] = val
			return old, false
		}
		old, hadOld = v.buf[idx], true
		v.buf[idx] = val
		return old, hadOld
	}

	idx := v.end + i
	if idx >= v.start {
		old, hadOld = v.buf[idx], true
		v.buf[idx] = val
		return old, hadOld
	}

	// Negative index beyond start: grow head room and shift right.
	shortfall := v.start - idx
	v.ensureHead(shortfall)
	v.start -= shortfall
	v.buf[v.end+i] = val
	return old, false
}

// Remove deletes the element at logical index i, shifting subsequent
// elements left (O(n)). It reports the removed value and whether i was in
// range.
func (v *Vec[T]) Remove(i int) (val T, ok bool) {
	abs, _ := v.resolveIndex(i)
	if abs < v.start || abs >= v.end {
		return val, false
	}
	val = v.buf[abs]
	copy(v.buf[abs:v.end-1], v.buf[abs+1:v.end])
	v.end--
	var zero T
	v.buf[v.end] = zero
	return val, true
}

// RemoveAll compacts out every live element for which pred reports true, in
// a single left-to-right pass, and returns the count removed.
func (v *Vec[T]) RemoveAll(pred func(T) bool) int {
	w := v.start
	removed := 0
	for r := v.start; r < v.end; r++ {
		if pred(v.buf[r]) {
			removed++
			continue
		}
		if w != r {
			v.buf[w] = v.buf[r]
		}
		w++
	}
	var zero T
	for i := w; i < v.end; i++ {
		v.buf[i] = zero
	}
	v.end = w
	return removed
}

// Find returns the logical index (relative to start) of the first element
// equal to val under eq, scanning forward from startAt if startAt >= 0, or
// backward from the end if startAt < 0. It returns -1 if not found.
func (v *Vec[T]) Find(val T, startAt int, eq func(a, b T) bool) int {
	n := v.Len()
	if n == 0 {
		return -1
	}

	if startAt >= 0 {
		for i := startAt; i < n; i++ {
			if eq(v.buf[v.start+i], val) {
				return i
			}
		}
		return -1
	}

	from := n + startAt
	if from >= n {
		from = n - 1
	}
	for i := from; i >= 0; i-- {
		if eq(v.buf[v.start+i], val) {
			return i
		}
	}
	return -1
}

// Reserve ensures room for capacity more elements: tail room if capacity > 0,
// head room (for efficient Unshift) if capacity < 0.
func (v *Vec[T]) Reserve(capacity int) {
	switch {
	case capacity > 0:
		v.ensureTail(capacity)
	case capacity < 0:
		v.ensureHead(-capacity)
	}
}

// Compact shrinks the backing buffer to exactly fit the live contents.
func (v *Vec[T]) Compact() {
	live := v.Len()
	if live == len(v.buf) && v.start == 0 {
		return
	}
	nb := make([]T, live)
	copy(nb, v.buf[v.start:v.end])
	v.buf = nb
	v.start = 0
	v.end = live
}

// Each visits elements from logical index start to the end, calling fn with
// each element's logical index and value. fn returning -1 stops the loop.
// Each observes a snapshot of (start, end) taken at entry; mutating the Vec
// during Each is undefined, matching spec.md §4.4.
func (v *Vec[T]) Each(start int, fn func(i int, val T) int) int {
	lo, hi := v.start, v.end
	i := start
	for lo+i < hi {
		if fn(i, v.buf[lo+i]) == -1 {
			return i
		}
		i++
	}
	return i
}

// Slice returns a copy of the live elements as a plain Go slice.
func (v *Vec[T]) Slice() []T {
	out := make([]T, v.Len())
	copy(out, v.buf[v.start:v.end])
	return out
}
