// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build unix

package pager

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// OSPager is a Pager backed by anonymous mmap. It is the default binding used
// by package slab outside of tests (spec.md §6: "page allocator calls the
// equivalent of anonymous mmap/munmap/mremap").
type OSPager struct{}

// NewOSPager returns a ready to use OSPager.
func NewOSPager() *OSPager { return &OSPager{} }

// Alloc implements Pager. When the plain mapping comes back misaligned, it is
// unmapped and replaced by an over-sized mapping with the head and tail
// misalignment trimmed off, per spec.md §4.1.
func (OSPager) Alloc(pages int, alignLog uint) ([]byte, error) {
	if pages <= 0 {
		return nil, ErrInvalidArg
	}

	size := pages * PageSize
	b, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("pager: mmap %d bytes: %w", size, err)
	}

	align := uintptr(1) << alignLog
	if align <= uintptr(os.Getpagesize()) {
		// mmap already returns addresses aligned to the OS page size; any
		// alignment at or below it is satisfied for free.
		return b, nil
	}

	base := uintptrOf(b)
	if base%align == 0 {
		return b, nil
	}

	if err := unix.Munmap(b); err != nil {
		return nil, fmt.Errorf("pager: munmap misaligned mapping: %w", err)
	}

	over, err := unix.Mmap(-1, 0, size+int(align), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("pager: mmap %d bytes (over-sized): %w", size+int(align), err)
	}

	obase := uintptrOf(over)
	head := (align - obase%align) % align
	if head > 0 {
		if err := unix.Munmap(over[:head]); err != nil {
			return nil, fmt.Errorf("pager: trim head: %w", err)
		}
	}
	aligned := over[head : head+uintptr(size)]
	tailStart := head + uintptr(size)
	if tail := over[tailStart:]; len(tail) > 0 {
		if err := unix.Munmap(tail); err != nil {
			return nil, fmt.Errorf("pager: trim tail: %w", err)
		}
	}
	return aligned, nil
}

// Realloc implements Pager, growing in place via mremap where the kernel
// supports it and falling back to allocate-copy-free otherwise.
func (p OSPager) Realloc(b []byte, newPages int, alignLog uint) ([]byte, error) {
	if newPages <= 0 {
		return nil, ErrInvalidArg
	}

	newSize := newPages * PageSize
	if len(b) == newSize {
		return b, nil
	}

	grown, err := unix.Mremap(b, newSize, unix.MREMAP_MAYMOVE)
	if err == nil {
		align := uintptr(1) << alignLog
		if align <= uintptr(os.Getpagesize()) || uintptrOf(grown)%align == 0 {
			return grown, nil
		}
		// mremap moved us to a misaligned address and b is no longer mapped;
		// fall back below, copying from and unmapping grown instead.
		b = grown
	}

	nb, err := p.Alloc(newPages, alignLog)
	if err != nil {
		return nil, err
	}
	n := len(b)
	if n > len(nb) {
		n = len(nb)
	}
	copy(nb, b[:n])
	if err := unix.Munmap(b); err != nil {
		return nil, fmt.Errorf("pager: munmap old mapping during realloc: %w", err)
	}
	return nb, nil
}

// Free implements Pager.
func (OSPager) Free(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	return unix.Munmap(b)
}
