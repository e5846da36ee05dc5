// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package slab implements the L1 slab/arena allocator of spec.md §4.2: a
// multi-arena, goroutine-biased allocator with block pooling, refcounted
// slices, and large-allocation fallback to the page allocator (package
// pager). It is grounded on lldb/falloc.go's Allocator (block/atom
// accounting, size-class free lists) and lldb/flt.go's free-list-by-size
// abstraction, generalized from file offsets to in-process memory.
//
// lldb identifies an allocation's owning block by reading a header at the
// block-aligned address preceding the returned pointer — a trick that
// requires raw pointer arithmetic unavailable (and not idiomatic) in Go.
// This package gets the same "find my block from my slice" capability from a
// side table (Allocator.meta, keyed by the slice's backing-array address)
// instead, which is the idiomatic Go rendition spec.md §9 calls for ("the
// observable contract ... does not require bit-compatible layout").
package slab

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"
	"unsafe"

	"github.com/cznic/corekit/ilist"
	"github.com/cznic/corekit/pager"
	"github.com/cznic/corekit/spinlock"
	"github.com/cznic/corekit/xhash"
)

// blockSize and blockAllocLimit are spec.md §4.2's thresholds.
const (
	blockSize       = pager.PageSize
	blockAllocLimit = blockSize / 2
)

// ErrInvalidSize is returned by Alloc for a negative size.
var ErrInvalidSize = errors.New("slab: invalid size")

// ErrUnknownPointer is returned by Free/Realloc when the given slice was not
// obtained from this Allocator (or was already freed).
var ErrUnknownPointer = errors.New("slab: pointer not owned by this allocator")

var zeroSentinel = make([]byte, 0)

type allocMeta struct {
	large bool
	raw   []byte // for large allocations: the full pager-owned mapping
	size  int    // logical (requested) size
	blk   *block // for small allocations
}

// Config configures an Allocator. The zero Config is valid and selects
// defaults (an OS-backed Pager and one arena per detected core).
type Config struct {
	// Pager backs super-block allocation. Defaults to pager.NewOSPager().
	Pager pager.Pager

	// Arenas overrides the arena count. Defaults to runtime.NumCPU(),
	// falling back to 8 if that reports <= 0, matching spec.md §6's
	// sysconf(_SC_NPROCESSORS_ONLN) fallback.
	Arenas int
}

// An Allocator implements the slab allocator described in spec.md §4.2. The
// zero Allocator is not ready to use; construct one with New.
type Allocator struct {
	pg pager.Pager

	mu         sync.Mutex // guards freeBlocks and superblock bookkeeping
	freeBlocks ilist.List[*block]

	arenas []*arena
	hint   xhash.Local[int]

	metaMu sync.Mutex
	meta   map[uintptr]*allocMeta
}

// New returns a ready to use Allocator.
func New(cfg Config) *Allocator {
	pg := cfg.Pager
	if pg == nil {
		pg = pager.NewOSPager()
	}

	n := cfg.Arenas
	if n <= 0 {
		n = runtime.NumCPU()
	}
	if n <= 0 {
		n = 8
	}

	a := &Allocator{
		pg:     pg,
		arenas: make([]*arena, n),
		meta:   make(map[uintptr]*allocMeta),
	}
	for i := range a.arenas {
		a.arenas[i] = &arena{}
	}
	a.hint = xhash.NewLocal(func() int { return 0 })
	return a
}

func addrOf(b []byte) uintptr {
	if len(b) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&b[0]))
}

// Alloc returns a slice of size bytes. Per spec.md §4.2: size 0 returns a
// shared zero-length sentinel safe to Free; sizes up to blockAllocLimit carve
// from an arena block; larger sizes fall back to the page allocator.
func (a *Allocator) Alloc(size int) ([]byte, error) {
	if size < 0 {
		return nil, ErrInvalidSize
	}
	if size == 0 {
		return zeroSentinel, nil
	}
	if size <= blockAllocLimit {
		return a.allocSmall(size)
	}
	return a.allocLarge(size)
}

func (a *Allocator) allocLarge(size int) ([]byte, error) {
	pages := pager.AlignUp(size)
	raw, err := a.pg.Alloc(pages, 0)
	if err != nil {
		return nil, fmt.Errorf("slab: large alloc of %d bytes: %w", size, err)
	}

	b := raw[:size]
	a.metaMu.Lock()
	a.meta[addrOf(b)] = &allocMeta{large: true, raw: raw, size: size}
	a.metaMu.Unlock()
	return b, nil
}

func (a *Allocator) allocSmall(size int) ([]byte, error) {
	ar, err := a.acquireArena()
	if err != nil {
		return nil, err
	}
	defer ar.lock.Unlock()

	if ar.cur == nil || ar.cur.room() < size {
		if err := a.rotateBlock(ar); err != nil {
			return nil, err
		}
	}

	blk := ar.cur
	first := blk.refcount == 0
	b := blk.carve(size)
	if first {
		a.mu.Lock()
		blk.sb.root++
		a.mu.Unlock()
	}
	a.metaMu.Lock()
	a.meta[addrOf(b)] = &allocMeta{blk: blk, size: size}
	a.metaMu.Unlock()
	return b, nil
}

// rotateBlock swaps ar's current block for a fresh one, pulled from the free
// list or carved from a brand-new super-block (spec.md §4.2). ar.lock is
// already held by the caller.
func (a *Allocator) rotateBlock(ar *arena) error {
	a.mu.Lock()
	blk, ok := a.freeBlocks.PopFront()
	a.mu.Unlock()

	if ok {
		blk.node = nil
		ar.cur = blk
		return nil
	}

	pages := blockSize * blocksPerSuperBlock / pager.PageSize
	if pages == 0 {
		pages = 1
	}
	mem, err := a.pg.Alloc(pages, 0)
	if err != nil {
		return fmt.Errorf("slab: super-block alloc: %w", err)
	}

	sb := newSuperBlock(mem)
	a.mu.Lock()
	for _, b := range sb.blocks[1:] {
		b.node = a.freeBlocks.PushBack(b)
	}
	a.mu.Unlock()

	ar.cur = sb.blocks[0]
	return nil
}

// acquireArena spins through arenas trying a non-blocking lock, biased
// towards the calling goroutine's last-used arena, retrying with a yield
// between full rounds (spec.md §4.2/§5).
func (a *Allocator) acquireArena() (*arena, error) {
	if len(a.arenas) == 0 {
		return nil, errors.New("slab: no arenas configured")
	}

	hint := a.hint.Get()
	for {
		for i := 0; i < len(a.arenas); i++ {
			idx := (hint + i) % len(a.arenas)
			ar := a.arenas[idx]
			if ar.lock.TryLock() {
				a.hint.Set(idx)
				return ar, nil
			}
		}
		runtime.Gosched()
		time.Sleep(time.Nanosecond)
	}
}

// Free releases b, previously returned by Alloc or Realloc.
func (a *Allocator) Free(b []byte) error {
	if len(b) == 0 {
		return nil
	}

	addr := addrOf(b)
	a.metaMu.Lock()
	m, ok := a.meta[addr]
	if ok {
		delete(a.meta, addr)
	}
	a.metaMu.Unlock()
	if !ok {
		return ErrUnknownPointer
	}

	if m.large {
		return a.pg.Free(m.raw)
	}
	return a.freeBlock(m.blk)
}

func (a *Allocator) freeBlock(blk *block) error {
	// block.carve only ever mutates refcount/pos while blk is its arena's
	// cur, under that arena's own lock (slab.go's allocSmall). Decrementing
	// here under a.mu alone would race that same field from a different
	// lock, so lockOwner finds whichever arena currently owns blk (if any)
	// and the decrement happens under that arena's lock instead — the same
	// lock a concurrent carve would hold. A block no arena claims as cur
	// anymore (already rotated out) can't be carved into concurrently, so
	// a.mu alone suffices for it.
	if ar := a.lockOwner(blk); ar != nil {
		blk.refcount--
		zero := blk.refcount == 0
		if zero {
			blk.pos = 0
			ar.cur = nil
		}
		ar.lock.Unlock()
		if !zero {
			return nil
		}
	} else {
		a.mu.Lock()
		blk.refcount--
		if blk.refcount != 0 {
			a.mu.Unlock()
			return nil
		}
		blk.pos = 0
		a.mu.Unlock()
	}

	a.mu.Lock()
	blk.node = a.freeBlocks.PushBack(blk)
	blk.sb.root--
	if blk.sb.root != 0 {
		a.mu.Unlock()
		return nil
	}
	sb := blk.sb
	for _, b := range sb.blocks {
		if b.node != nil {
			a.freeBlocks.Remove(b.node)
			b.node = nil
		}
	}
	a.mu.Unlock()
	return a.pg.Free(sb.mem)
}

// lockOwner scans the arenas for whichever one currently holds blk as its
// cur block, locking and returning it if found; the caller must Unlock it.
// It returns nil, with nothing locked, if no arena currently owns blk (it
// has already been rotated out and carved into further is impossible).
func (a *Allocator) lockOwner(blk *block) *arena {
	for _, ar := range a.arenas {
		for !ar.lock.TryLock() {
			runtime.Gosched()
		}
		if ar.cur == blk {
			return ar
		}
		ar.lock.Unlock()
	}
	return nil
}

// Realloc resizes b to newSize, preserving its content up to
// min(len(b), newSize). For small allocations this is always
// allocate-copy-free, capped by the original slice's logical size (spec.md
// §4.2); for large allocations it grows/shrinks the backing mapping in
// place via the Pager when possible.
func (a *Allocator) Realloc(b []byte, newSize int) ([]byte, error) {
	if newSize < 0 {
		return nil, ErrInvalidSize
	}
	if len(b) == 0 {
		return a.Alloc(newSize)
	}

	addr := addrOf(b)
	a.metaMu.Lock()
	m, ok := a.meta[addr]
	a.metaMu.Unlock()
	if !ok {
		return nil, ErrUnknownPointer
	}

	if !m.large {
		nb, err := a.Alloc(newSize)
		if err != nil {
			return nil, err
		}
		n := len(b)
		if n > newSize {
			n = newSize
		}
		copy(nb, b[:n])
		if err := a.Free(b); err != nil {
			return nil, err
		}
		return nb, nil
	}

	if newSize <= blockAllocLimit {
		nb, err := a.Alloc(newSize)
		if err != nil {
			return nil, err
		}
		n := len(b)
		if n > newSize {
			n = newSize
		}
		copy(nb, b[:n])
		if err := a.Free(b); err != nil {
			return nil, err
		}
		return nb, nil
	}

	newPages := pager.AlignUp(newSize)
	oldPages := pager.AlignUp(len(m.raw))
	if newPages == oldPages {
		nb := m.raw[:newSize]
		a.metaMu.Lock()
		delete(a.meta, addr)
		a.meta[addrOf(nb)] = &allocMeta{large: true, raw: m.raw, size: newSize}
		a.metaMu.Unlock()
		return nb, nil
	}

	raw, err := a.pg.Realloc(m.raw, newPages, 0)
	if err != nil {
		return nil, fmt.Errorf("slab: large realloc to %d bytes: %w", newSize, err)
	}
	nb := raw[:newSize]
	a.metaMu.Lock()
	delete(a.meta, addr)
	a.meta[addrOf(nb)] = &allocMeta{large: true, raw: raw, size: newSize}
	a.metaMu.Unlock()
	return nb, nil
}

// AfterFork resets all arena locks and the global lock, discarding any
// contention state inherited from a parent process (spec.md §4.2/§5/§9). It
// is safe to call even on platforms without fork; it is simply a no-op reset.
func (a *Allocator) AfterFork() {
	a.mu = sync.Mutex{}
	a.metaMu = sync.Mutex{}
	for _, ar := range a.arenas {
		ar.lock = spinlock.Lock{}
	}
}

// LiveBlocks reports the number of outstanding (not yet freed) allocations,
// for the balance assertions spec.md §8 describes.
func (a *Allocator) LiveBlocks() int {
	a.metaMu.Lock()
	defer a.metaMu.Unlock()
	return len(a.meta)
}
