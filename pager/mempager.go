// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// A memory-only implementation of Pager, used by tests that want to exercise
// the slab allocator without depending on the host's mmap behavior.

package pager

// MemPager is a Pager backed by plain Go heap slices. It never fails except
// on invalid arguments, and ignores the requested alignment beyond rounding
// the allocation up to a whole number of pages — Go's allocator already hands
// out slices at generous alignment for anything this size.
type MemPager struct {
	live int // outstanding Alloc/Realloc results not yet Free'd, for tests
}

// NewMemPager returns a ready to use MemPager.
func NewMemPager() *MemPager { return &MemPager{} }

// Alloc implements Pager.
func (m *MemPager) Alloc(pages int, alignLog uint) ([]byte, error) {
	if pages <= 0 {
		return nil, ErrInvalidArg
	}

	b := make([]byte, pages*PageSize)
	m.live++
	return b, nil
}

// Realloc implements Pager.
func (m *MemPager) Realloc(b []byte, newPages int, alignLog uint) ([]byte, error) {
	if newPages <= 0 {
		return nil, ErrInvalidArg
	}

	nb := make([]byte, newPages*PageSize)
	copy(nb, b)
	return nb, nil
}

// Free implements Pager.
func (m *MemPager) Free(b []byte) error {
	if b == nil {
		return nil
	}

	m.live--
	return nil
}

// Live reports the number of outstanding allocations, for balance assertions
// in tests (spec.md §8: "after all frees ... the live-block counter is zero").
func (m *MemPager) Live() int { return m.live }
