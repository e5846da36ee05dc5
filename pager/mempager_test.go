// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pager

import "testing"

func TestMemPagerAllocFree(t *testing.T) {
	p := NewMemPager()

	b, err := p.Alloc(2, 0)
	if err != nil {
		t.Fatal(err)
	}

	if g, e := len(b), 2*PageSize; g != e {
		t.Fatalf("len(b) = %d, want %d", g, e)
	}

	if g, e := p.Live(), 1; g != e {
		t.Fatalf("Live() = %d, want %d", g, e)
	}

	if err := p.Free(b); err != nil {
		t.Fatal(err)
	}

	if g, e := p.Live(), 0; g != e {
		t.Fatalf("Live() = %d, want %d", g, e)
	}
}

func TestMemPagerInvalidArg(t *testing.T) {
	p := NewMemPager()
	if _, err := p.Alloc(0, 0); err != ErrInvalidArg {
		t.Fatalf("Alloc(0, _) err = %v, want %v", err, ErrInvalidArg)
	}
	if _, err := p.Realloc(nil, -1, 0); err != ErrInvalidArg {
		t.Fatalf("Realloc(_, -1, _) err = %v, want %v", err, ErrInvalidArg)
	}
}

func TestMemPagerReallocPreservesContent(t *testing.T) {
	p := NewMemPager()
	b, err := p.Alloc(1, 0)
	if err != nil {
		t.Fatal(err)
	}
	copy(b, []byte("hello"))

	b2, err := p.Realloc(b, 2, 0)
	if err != nil {
		t.Fatal(err)
	}
	if g, e := string(b2[:5]), "hello"; g != e {
		t.Fatalf("content = %q, want %q", g, e)
	}
	if g, e := len(b2), 2*PageSize; g != e {
		t.Fatalf("len = %d, want %d", g, e)
	}
}

func TestAlignUp(t *testing.T) {
	cases := []struct{ size, pages int }{
		{0, 0},
		{-1, 0},
		{1, 1},
		{PageSize, 1},
		{PageSize + 1, 2},
	}
	for _, c := range cases {
		if g := AlignUp(c.size); g != c.pages {
			t.Errorf("AlignUp(%d) = %d, want %d", c.size, g, c.pages)
		}
	}
}
