// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rcstr

import (
	"bytes"
	"testing"
)

// TestStringSmallToLargeTransition is spec.md §8 scenario 1.
func TestStringSmallToLargeTransition(t *testing.T) {
	s := Empty()
	s.Write([]byte("Hello"))
	if !s.small || s.Len() != 5 {
		t.Fatalf("after Write(Hello): small=%v len=%d, want true, 5", s.small, s.Len())
	}

	s.Write([]byte(" World"))
	if s.Len() != 11 {
		t.Fatalf("len = %d, want 11", s.Len())
	}

	s.Reserve(64)
	if s.small {
		t.Fatal("expected large representation after Reserve(64)")
	}
	if s.Cap() < 64 {
		t.Fatalf("Cap() = %d, want >= 64", s.Cap())
	}
	if s.Len() != 11 {
		t.Fatalf("Len() = %d, want 11", s.Len())
	}
	if string(s.Data()) != "Hello World" {
		t.Fatalf("Data() = %q, want %q", s.Data(), "Hello World")
	}
}

func TestStringRoundTrip(t *testing.T) {
	for _, b := range [][]byte{
		nil,
		[]byte(""),
		[]byte("short"),
		bytes.Repeat([]byte{0xff, 0x00, 'a'}, 20),
		bytes.Repeat([]byte("x"), 1000),
	} {
		s := FromBytes(b)
		if s.Len() != len(b) {
			t.Fatalf("FromBytes(%v).Len() = %d, want %d", b, s.Len(), len(b))
		}
		if !bytes.Equal(s.Data(), b) {
			t.Fatalf("FromBytes(%v).Data() = %v, want %v", b, s.Data(), b)
		}
	}
}

func TestStringFreezeIsNoop(t *testing.T) {
	s := FromString("frozen")
	s.Freeze()
	if !s.IsFrozen() {
		t.Fatal("IsFrozen() = false after Freeze")
	}
	before, beforeLen, beforeCap := s.Info()
	beforeCopy := append([]byte(nil), before...)

	s.Write([]byte("more"))
	s.Resize(100)
	s.Replace(0, 1, []byte("X"))
	_ = s.WriteUnescape([]byte(`\n`))

	after, afterLen, afterCap := s.Info()
	if afterLen != beforeLen || afterCap != beforeCap || !bytes.Equal(after, beforeCopy) {
		t.Fatalf("frozen string changed: before=(%v,%d,%d) after=(%v,%d,%d)", beforeCopy, beforeLen, beforeCap, after, afterLen, afterCap)
	}
}

func TestStringReplace(t *testing.T) {
	s := FromString("Hello World")
	s.Replace(6, 5, []byte("Gophers"))
	if string(s.Data()) != "Hello Gophers" {
		t.Fatalf("Replace() = %q, want %q", s.Data(), "Hello Gophers")
	}

	s2 := FromString("abcdef")
	s2.Replace(-3, 0, []byte("-"))
	if string(s2.Data()) != "abc-def" {
		t.Fatalf("Replace(-3,0) = %q, want %q", s2.Data(), "abc-def")
	}

	s3 := FromString("abcdef")
	s3.Replace(1, 2, nil)
	if string(s3.Data()) != "adef" {
		t.Fatalf("Replace(1,2,nil) = %q, want %q", s3.Data(), "adef")
	}
}

func TestStringEqual(t *testing.T) {
	a := FromString("same")
	b := FromString("same")
	c := FromString("different")
	if !a.Equal(b) {
		t.Fatal("Equal() = false for identical content")
	}
	if a.Equal(c) {
		t.Fatal("Equal() = true for different content")
	}
}

func TestStringDetach(t *testing.T) {
	s := FromString("payload")
	out := s.Detach()
	if string(out) != "payload" {
		t.Fatalf("Detach() = %q, want %q", out, "payload")
	}
	if s.Len() != 0 {
		t.Fatalf("Len() after Detach = %d, want 0", s.Len())
	}
}

func TestJSONEscapeRoundTrip(t *testing.T) {
	for _, b := range [][]byte{
		[]byte(`hello "world"`),
		[]byte("line1\nline2\ttab"),
		[]byte("unicode: é中"),
		{0xff, 0xfe, 'a', 'b', 0x01},
	} {
		esc := Empty()
		esc.WriteEscape(b)

		unesc := Empty()
		if err := unesc.WriteUnescape(esc.Data()); err != nil {
			t.Fatalf("WriteUnescape(%q) error: %v", esc.Data(), err)
		}
		if !bytes.Equal(unesc.Data(), b) {
			t.Fatalf("round trip %v -> %q -> %v, want %v", b, esc.Data(), unesc.Data(), b)
		}
	}
}

func TestBase64RoundTrip(t *testing.T) {
	data := make([]byte, 256)
	for i := range data {
		data[i] = byte(i)
	}

	for _, urlSafe := range []bool{false, true} {
		enc := Empty()
		enc.WriteBase64(data, urlSafe)

		dec := Empty()
		if err := dec.WriteBase64Decode(enc.Data()); err != nil {
			t.Fatalf("WriteBase64Decode error (urlSafe=%v): %v", urlSafe, err)
		}
		if !bytes.Equal(dec.Data(), data) {
			t.Fatalf("base64 round trip mismatch (urlSafe=%v)", urlSafe)
		}
	}
}

func TestBase64DecodeTolerant(t *testing.T) {
	enc := Empty()
	enc.WriteBase64([]byte("hello base64"), false)
	withSpace := append([]byte{' ', '\n'}, enc.Data()...)

	dec := Empty()
	if err := dec.WriteBase64Decode(withSpace); err != nil {
		t.Fatalf("WriteBase64Decode with whitespace error: %v", err)
	}
	if string(dec.Data()) != "hello base64" {
		t.Fatalf("decoded = %q, want %q", dec.Data(), "hello base64")
	}
}

func TestUTF8Invariants(t *testing.T) {
	s := "hello é中\U0001F600"
	b := []byte(s)
	if !UTF8Valid(b) {
		t.Fatal("UTF8Valid() = false for valid UTF-8")
	}
	n := UTF8Len(b)
	if n > len(b) {
		t.Fatalf("UTF8Len() = %d, want <= byte len %d", n, len(b))
	}

	sum := 0
	for i := 0; i < n; i++ {
		_, ln := UTF8Select(b, i, 1)
		if ln < 0 {
			t.Fatalf("UTF8Select(%d,1) failed", i)
		}
		sum += ln
	}
	if sum != len(b) {
		t.Fatalf("sum of per-character byte counts = %d, want %d", sum, len(b))
	}

	if UTF8Valid([]byte{0xff, 0xfe}) {
		t.Fatal("UTF8Valid() = true for invalid bytes")
	}
}

func TestStringHash(t *testing.T) {
	a := FromString("hash me")
	b := FromString("hash me")
	if a.Hash(1) != b.Hash(1) {
		t.Fatal("Hash() differs for identical content and seed")
	}
	if a.Hash(1) == a.Hash(2) {
		t.Fatal("Hash() collided across different seeds (extremely unlikely for real content)")
	}
}
