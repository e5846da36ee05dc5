// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rcstr

import "unicode/utf8"

// utf8LenClass maps the top five bits of a leading UTF-8 byte to its
// sequence length class: {1,2,3,4, continuation=5, invalid=0}, per spec.md
// §4.6's "32-entry lookup that maps the top five bits of the leading byte to
// a length class."
var utf8LenClass = [32]int8{
	// 0b00000-0b01111: ASCII, length 1
	1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1,
	// 0b10000-0b10111: continuation byte
	5, 5, 5, 5, 5, 5, 5, 5,
	// 0b11000-0b11011: 2-byte lead
	2, 2, 2, 2,
	// 0b11100-0b11101: 3-byte lead
	3, 3,
	// 0b11110: 4-byte lead
	4,
	// 0b11111: invalid
	0,
}

func leadClass(b byte) int8 { return utf8LenClass[b>>3] }

// runeSizeAt returns the byte length of the UTF-8 sequence starting at
// b[off], using the leadClass lookup as the fast path and falling back to a
// full decode to confirm well-formed continuation bytes. It returns -1 for
// an invalid lead byte, a truncated sequence, or a malformed continuation.
func runeSizeAt(b []byte, off int) int {
	class := leadClass(b[off])
	switch class {
	case 0, 5:
		return -1 // invalid lead byte, or a bare continuation byte
	case 1:
		return 1
	default:
		n := int(class)
		if off+n > len(b) {
			return -1
		}
		r, size := utf8.DecodeRune(b[off : off+n])
		if r == utf8.RuneError && size <= 1 {
			return -1
		}
		return size
	}
}

// UTF8Valid reports whether b is entirely valid UTF-8.
func UTF8Valid(b []byte) bool { return utf8.Valid(b) }

// UTF8Len returns the number of UTF-8 characters (runes) represented by b.
// It does not validate b; invalid sequences are counted as one rune each,
// matching utf8.RuneCount's behavior.
func UTF8Len(b []byte) int { return utf8.RuneCount(b) }

// UTF8Select translates a character-unit window [pos, pos+length) into a
// byte-unit window, returning the byte offset and byte length, walking
// character boundaries via the leadClass lookup table (spec.md §4.6). It
// returns (-1, -1) if the window runs past the end of b or a decode error
// is encountered (spec.md §7).
func UTF8Select(b []byte, pos, length int) (bytePos, byteLen int) {
	if pos < 0 || length < 0 {
		return -1, -1
	}

	off := 0
	for i := 0; i < pos; i++ {
		if off >= len(b) {
			return -1, -1
		}
		size := runeSizeAt(b, off)
		if size < 0 {
			return -1, -1
		}
		off += size
	}
	bytePos = off

	for i := 0; i < length; i++ {
		if off >= len(b) {
			return -1, -1
		}
		size := runeSizeAt(b, off)
		if size < 0 {
			return -1, -1
		}
		off += size
	}
	return bytePos, off - bytePos
}
