// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package rcstr implements the L2 string of spec.md §4.6: a small-string-
// optimized, byte-safe string with UTF-8, Base64, and JSON-escape codecs.
// The small/large tagged-mode switch is the Go-generic-free analog of
// lldb/falloc.go's block tag-byte encoding (a flag byte distinguishing
// representations) applied here to a string header instead of a block
// header. Unlike the teacher, rcstr.String's large-mode backing storage can
// be routed through package slab (spec.md §6's redirectable allocator
// boundary) instead of the Go heap, since String is the one L2 container
// whose element type (byte) maps directly onto slab's []byte contract
// without the unsafe type-punning a generic container would need.
package rcstr

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/cznic/corekit/slab"
	"github.com/cznic/corekit/xhash"
)

// smallCap is the inline capacity of a small String, the Go analog of
// spec.md §3's "remaining bytes of the struct hold up to sizeof(struct) - 2
// bytes" small-string payload.
const smallCap = 23

// An Option configures a String at construction.
type Option func(*String)

// WithAllocator routes a String's large-mode backing storage through a, the
// slab allocator boundary of spec.md §6, instead of the Go heap.
func WithAllocator(a *slab.Allocator) Option {
	return func(s *String) { s.alloc = a }
}

// WithHasher overrides the Hasher used by Hash. Defaults to xhash.Default.
func WithHasher(h xhash.Hasher) Option {
	return func(s *String) { s.hasher = h }
}

// A String is the tagged two-mode record of spec.md §3: small strings live
// inline in the struct; large strings hold a capacity/length/data triple.
// The zero String is a valid empty, unfrozen, small string.
type String struct {
	frozen bool
	small  bool
	n      int // used length when small
	inline [smallCap]byte

	data []byte // used when !small; len(data) == length

	alloc  *slab.Allocator
	hasher xhash.Hasher
}

func (s *String) applyOpts(opts []Option) {
	s.small = true
	for _, o := range opts {
		o(s)
	}
	if s.hasher == nil {
		s.hasher = xhash.Default
	}
}

// Empty returns a ready to use, empty String.
func Empty(opts ...Option) *String {
	s := &String{}
	s.applyOpts(opts)
	return s
}

// FromBytes returns a String holding a copy of b.
func FromBytes(b []byte, opts ...Option) *String {
	s := &String{}
	s.applyOpts(opts)
	s.Write(b)
	return s
}

// FromString returns a String holding a copy of str's bytes.
func FromString(str string, opts ...Option) *String {
	return FromBytes([]byte(str), opts...)
}

// Static returns a frozen String holding a copy of str's bytes. It is named
// for spec.md §4.6's "no allocator" static constructor; Go's garbage
// collector makes the "no allocator" distinction moot for correctness, so
// this simplifies to an always-frozen copy rather than a literal zero-copy
// borrow.
func Static(str string) *String {
	s := FromString(str)
	s.frozen = true
	return s
}

// ensureHasher lazily installs the default hasher; alloc stays nil unless
// WithAllocator was supplied, in which case large-mode growth is routed
// through it.
func (s *String) ensureHasher() {
	if s.hasher == nil {
		s.hasher = xhash.Default
	}
}

// Data returns the String's current byte content. The returned slice aliases
// internal storage and must not be retained across a subsequent mutation.
func (s *String) Data() []byte {
	if s.small {
		return s.inline[:s.n]
	}
	return s.data
}

// Len returns the current length in bytes.
func (s *String) Len() int {
	if s.small {
		return s.n
	}
	return len(s.data)
}

// Cap returns the current backing capacity, or zero if s is frozen (spec.md
// §4.6).
func (s *String) Cap() int {
	if s.frozen {
		return 0
	}
	if s.small {
		return smallCap
	}
	return cap(s.data)
}

// Info returns (data, length, capacity) in one call.
func (s *String) Info() (data []byte, length, capacity int) {
	return s.Data(), s.Len(), s.Cap()
}

// IsFrozen reports whether s rejects mutators.
func (s *String) IsFrozen() bool { return s.frozen }

// Freeze marks s frozen; every subsequent mutator becomes a no-op.
func (s *String) Freeze() { s.frozen = true }

func (s *String) rawAlloc(n int) []byte {
	if s.alloc == nil {
		return make([]byte, n)
	}
	b, err := s.alloc.Alloc(n)
	if err != nil {
		panic(fmt.Sprintf("rcstr: allocation failure: %v", err))
	}
	return b
}

func (s *String) rawFree(b []byte) {
	if s.alloc == nil || len(b) == 0 {
		return
	}
	_ = s.alloc.Free(b)
}

// reserveWordAligned rounds n up to the next machine-word multiple, per
// spec.md §4.6's "capacity rounds up to a machine-word-aligned boundary."
func reserveWordAligned(n int) int {
	const word = 8
	return (n + word - 1) / word * word
}

// Reserve ensures s's capacity is at least n, transitioning small to large if
// necessary. A frozen String is unaffected (spec.md §7).
func (s *String) Reserve(n int) {
	if s.frozen {
		return
	}
	if n <= s.Cap() {
		return
	}

	target := reserveWordAligned(n)
	if s.small {
		nb := s.rawAlloc(target)
		copy(nb, s.inline[:s.n])
		s.data = nb[:s.n]
		s.small = false
		return
	}

	nb := s.rawAlloc(target)
	copy(nb, s.data)
	old := s.data
	s.data = nb[:len(old)]
	s.rawFree(old)
}

// Resize sets s's length to n, zero-filling any newly exposed bytes and
// growing backing storage as needed (spec.md §4.6).
func (s *String) Resize(n int) {
	if s.frozen || n < 0 {
		return
	}

	if s.small {
		if n <= smallCap {
			if n > s.n {
				for i := s.n; i < n; i++ {
					s.inline[i] = 0
				}
			}
			s.n = n
			return
		}
		s.Reserve(n)
	} else if n > cap(s.data) {
		s.Reserve(n)
	}

	old := len(s.data)
	s.data = s.data[:n]
	if n > old {
		for i := old; i < n; i++ {
			s.data[i] = 0
		}
	}
}

// Compact transitions s from large back to small if its content now fits, or
// shrinks a large backing slice to its exact length otherwise (spec.md
// §4.6).
func (s *String) Compact() {
	if s.frozen || s.small {
		return
	}

	if len(s.data) <= smallCap {
		var inline [smallCap]byte
		copy(inline[:], s.data)
		old := s.data
		s.small = true
		s.n = len(old)
		s.inline = inline
		s.rawFree(old)
		return
	}

	if cap(s.data) == len(s.data) {
		return
	}
	nb := s.rawAlloc(len(s.data))
	copy(nb, s.data)
	old := s.data
	s.data = nb[:len(old)]
	s.rawFree(old)
}

// Write appends b to s.
func (s *String) Write(b []byte) {
	if s.frozen || len(b) == 0 {
		return
	}

	n := s.Len()
	s.Reserve(n + len(b))
	if s.small {
		copy(s.inline[n:], b)
		s.n = n + len(b)
		return
	}
	s.data = append(s.data[:n], b...)
}

// WriteInt appends the base-10 decimal rendition of i.
func (s *String) WriteInt(i int64) {
	s.Write([]byte(strconv.FormatInt(i, 10)))
}

// Printf appends fmt.Sprintf(format, args...).
func (s *String) Printf(format string, args ...any) {
	s.Write([]byte(fmt.Sprintf(format, args...)))
}

// Concat appends other's content to s. Join is an alias, matching spec.md
// §4.6's "concat(other) (alias join)".
func (s *String) Concat(other *String) { s.Write(other.Data()) }

// Join is an alias for Concat.
func (s *String) Join(other *String) { s.Concat(other) }

// Replace splices src into s's content, replacing oldLen bytes starting at
// startPos (negative counts from the end). oldLen == 0 inserts; len(src) ==
// 0 deletes (spec.md §4.6).
func (s *String) Replace(startPos, oldLen int, src []byte) {
	if s.frozen {
		return
	}

	cur := s.Data()
	n := len(cur)
	if startPos < 0 {
		startPos = n + startPos
	}
	if startPos < 0 {
		startPos = 0
	}
	if startPos > n {
		startPos = n
	}
	if oldLen < 0 {
		oldLen = 0
	}
	end := startPos + oldLen
	if end > n {
		end = n
	}

	out := make([]byte, 0, n-(end-startPos)+len(src))
	out = append(out, cur[:startPos]...)
	out = append(out, src...)
	out = append(out, cur[end:]...)

	s.reset()
	s.Write(out)
}

func (s *String) reset() {
	if !s.small {
		s.rawFree(s.data)
	}
	s.small = true
	s.n = 0
	s.data = nil
}

// Equal reports whether s and other hold byte-identical content.
func (s *String) Equal(other *String) bool {
	if other == nil {
		return false
	}
	a, b := s.Data(), other.Data()
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Hash returns the keyed hash of s's content under seed, via the configured
// Hasher (xhash.Default unless WithHasher overrides it).
func (s *String) Hash(seed uint64) uint64 {
	s.ensureHasher()
	return s.hasher.Sum(s.Data(), seed)
}

// Detach yields a freshly copied, NUL-terminated-by-convention slice of s's
// content (Go slices are not literally NUL-terminated; a trailing zero byte
// is appended to preserve the source contract for callers that scan for
// one) and resets s to empty.
func (s *String) Detach() []byte {
	cur := s.Data()
	out := make([]byte, len(cur)+1)
	copy(out, cur)

	wasLarge := !s.small
	old := s.data
	s.small = true
	s.n = 0
	s.data = nil
	if wasLarge {
		s.rawFree(old)
	}
	return out[:len(cur)]
}

const maxReadChunk = 128 << 20 // 128 MiB, spec.md §4.6's ReadFile chunk cap.

// ReadFile reads the file at path starting at byte offset startAt for at
// most limit bytes (or to EOF if limit <= 0), expanding a leading "~/" via
// os.UserHomeDir, and returns a fresh String. On any stat/open/read failure
// it returns a nil String and the error, per spec.md §7.
func ReadFile(path string, startAt, limit int64, opts ...Option) (*String, error) {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		path = home + path[1:]
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}

	avail := fi.Size() - startAt
	if avail < 0 {
		avail = 0
	}
	if limit > 0 && limit < avail {
		avail = limit
	}

	out := Empty(opts...)
	buf := make([]byte, maxReadChunk)
	remaining := avail
	off := startAt
	for remaining > 0 {
		chunk := int64(len(buf))
		if remaining < chunk {
			chunk = remaining
		}
		n, err := f.ReadAt(buf[:chunk], off)
		if n > 0 {
			out.Write(buf[:n])
			off += int64(n)
			remaining -= int64(n)
		}
		if err != nil {
			return nil, err
		}
		if int64(n) < chunk {
			break
		}
	}
	return out, nil
}
