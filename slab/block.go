// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package slab

import (
	"github.com/cznic/mathutil"

	"github.com/cznic/corekit/ilist"
	"github.com/cznic/corekit/spinlock"
)

// blocksPerSuperBlock is N in spec.md §4.2: "allocating a fresh super-block
// of N blocks and pushing N-1 onto the free list."
const blocksPerSuperBlock = 16

// atomSize is the 16-byte allocation granularity spec.md §3 calls an atom:
// "advance pos by ceil(size/16) 16-byte units."
const atomSize = 16

// A block is a blockSize-byte slice of a superBlock's page (spec.md §3's
// Block). Go tracks the bookkeeping spec.md places in an in-band header
// (index, refcount, pos) as ordinary struct fields instead, since Free
// identifies the owning block through Allocator.meta rather than by reading
// bytes preceding the returned pointer — see slab.go's doc comment.
type block struct {
	mem      []byte // blockSize bytes, a slice of sb.mem
	sb       *superBlock
	index    uint16
	refcount uint16
	pos      uint16 // next free offset, in atomSize units
	node     *ilist.Node[*block]
}

// room reports how many bytes remain unused in b, clamped to 0 so a block
// whose pos has reached (or, transiently, overshot) its capacity never
// reports a negative room.
func (b *block) room() int {
	return mathutil.Max(0, blockSize-int(b.pos)*atomSize)
}

// carve reserves n bytes (rounded up to an atom boundary) from b and returns
// the slice, advancing pos and incrementing refcount.
func (b *block) carve(n int) []byte {
	atoms := mathutil.Max(1, (n+atomSize-1)/atomSize)
	off := int(b.pos) * atomSize
	b.pos += uint16(atoms)
	b.refcount++
	return b.mem[off : off+n : off+atoms*atomSize]
}

// A superBlock is the OS-aligned backing region sliced into blocksPerSuperBlock
// blocks (spec.md §3's Super-block / Page).
type superBlock struct {
	mem    []byte
	blocks []*block
	root   uint16 // number of blocks still referenced (not idle on the free list)
}

func newSuperBlock(mem []byte) *superBlock {
	// root starts at 0, not blocksPerSuperBlock: it counts blocks actually
	// handed out (carved at least once), not every block the super-block
	// happens to contain. allocSmall increments it on a block's first carve
	// (its 0->1 refcount transition); freeBlock decrements it on the
	// matching 1->0 transition. A super-block whose blocks are never all
	// individually carved would otherwise never reach root == 0.
	sb := &superBlock{mem: mem, blocks: make([]*block, blocksPerSuperBlock), root: 0}
	for i := range sb.blocks {
		sb.blocks[i] = &block{
			mem:   mem[i*blockSize : (i+1)*blockSize],
			sb:    sb,
			index: uint16(i),
		}
	}
	return sb
}

// An arena is a goroutine-biased allocation context (spec.md §3's Arena):
// a current block and a lock covering it.
type arena struct {
	lock spinlock.Lock
	cur  *block
}
