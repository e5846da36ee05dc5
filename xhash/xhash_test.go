// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xhash

import (
	"sync"
	"testing"
)

func TestDefaultSumDeterministic(t *testing.T) {
	b := []byte("hello, world")
	a := Default.Sum(b, 42)
	c := Default.Sum(b, 42)
	if a != c {
		t.Fatalf("Sum not deterministic: %d != %d", a, c)
	}
}

func TestDefaultSumSeedDiffuses(t *testing.T) {
	b := []byte("hello, world")
	a := Default.Sum(b, 1)
	c := Default.Sum(b, 2)
	if a == c {
		t.Fatal("different seeds produced the same hash")
	}
}

func TestLocalPerGoroutine(t *testing.T) {
	l := NewLocal(func() int { return -1 })

	var wg sync.WaitGroup
	results := make([]int, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			l.Set(i)
			results[i] = l.Get()
		}(i)
	}
	wg.Wait()

	for i, v := range results {
		if v != i {
			t.Fatalf("goroutine %d observed %d, want %d", i, v, i)
		}
	}
}

func TestLocalInitialValue(t *testing.T) {
	l := NewLocal(func() string { return "init" })
	if g := l.Get(); g != "init" {
		t.Fatalf("Get() = %q, want %q", g, "init")
	}
}
