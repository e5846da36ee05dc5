// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cmap

import "testing"

func intHash(mod uint64) func(int) uint64 {
	return func(k int) uint64 { return uint64(k) % mod }
}

func TestCMapPutGet(t *testing.T) {
	m := New[string, int](HashString(nil, 0))
	m.Put("a", 1)
	m.Put("b", 2)
	if v, ok := m.Get("a"); !ok || v != 1 {
		t.Fatalf("Get(a) = %d, %v, want 1, true", v, ok)
	}
	if v, ok := m.Get("b"); !ok || v != 2 {
		t.Fatalf("Get(b) = %d, %v, want 2, true", v, ok)
	}
}

func TestCMapOverwrite(t *testing.T) {
	m := New[string, int](HashString(nil, 0))
	m.Put("k", 1)
	old, had := m.Put("k", 2)
	if !had || old != 1 {
		t.Fatalf("Put(k,2) = %d, %v, want 1, true", old, had)
	}
	if v, _ := m.Get("k"); v != 2 {
		t.Fatalf("Get(k) = %d, want 2", v)
	}
}

func TestCMapDeleteAndCompact(t *testing.T) {
	const n = 200
	m := New[int, int](intHash(1 << 20))
	for i := 0; i < n; i++ {
		m.Put(i, i)
	}
	for i := 0; i < n; i += 2 {
		if _, ok := m.Delete(i); !ok {
			t.Fatalf("Delete(%d) missing", i)
		}
	}
	if m.Len() != n/2 {
		t.Fatalf("Len() = %d, want %d", m.Len(), n/2)
	}
	for i := 1; i < n; i += 2 {
		if v, ok := m.Get(i); !ok || v != i {
			t.Fatalf("Get(%d) = %d, %v, want %d, true", i, v, ok, i)
		}
	}
	for i := 0; i < n; i += 2 {
		if _, ok := m.Get(i); ok {
			t.Fatalf("Get(%d) found a deleted key", i)
		}
	}
}

func TestCMapEach(t *testing.T) {
	m := New[int, int](intHash(1 << 20))
	want := map[int]int{1: 10, 2: 20, 3: 30}
	for k, v := range want {
		m.Put(k, v)
	}

	got := map[int]int{}
	m.Each(func(k, v int) bool {
		got[k] = v
		return true
	})
	if len(got) != len(want) {
		t.Fatalf("Each visited %d entries, want %d", len(got), len(want))
	}
	for k, v := range want {
		if got[k] != v {
			t.Fatalf("Each missed or mismatched %d: got %d, want %d", k, got[k], v)
		}
	}
}

func TestCMapCollisionsFlag(t *testing.T) {
	m := New[int, int](func(int) uint64 { return 5 })
	for i := 0; i < 20; i++ {
		m.Put(i, i)
	}
	if !m.HasCollisions() {
		t.Fatal("HasCollisions() = false, want true for single-hash keys")
	}
	for i := 0; i < 20; i++ {
		if v, ok := m.Get(i); !ok || v != i {
			t.Fatalf("Get(%d) = %d, %v, want %d, true", i, v, ok, i)
		}
	}
}
