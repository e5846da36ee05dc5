// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vec

import "testing"

func eqInt(a, b int) bool { return a == b }

func TestVecPushPop(t *testing.T) {
	v := New[int]()
	for i := 0; i < 100; i++ {
		v.Push(i)
	}
	if v.Len() != 100 {
		t.Fatalf("Len() = %d, want 100", v.Len())
	}
	for i := 99; i >= 0; i-- {
		got, ok := v.Pop()
		if !ok || got != i {
			t.Fatalf("Pop() = %d, %v, want %d, true", got, ok, i)
		}
	}
	if v.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", v.Len())
	}
}

func TestVecUnshiftShift(t *testing.T) {
	v := New[int]()
	for i := 0; i < 50; i++ {
		v.Unshift(i)
	}
	for i := 49; i >= 0; i-- {
		got, ok := v.Shift()
		if !ok || got != i {
			t.Fatalf("Shift() = %d, %v, want %d, true", got, ok, i)
		}
	}
}

func TestVecMixedPushUnshift(t *testing.T) {
	v := New[int]()
	v.Push(1)
	v.Push(2)
	v.Unshift(0)
	v.Push(3)
	v.Unshift(-1)
	got := v.Slice()
	want := []int{-1, 0, 1, 2, 3}
	if len(got) != len(want) {
		t.Fatalf("Slice() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Slice() = %v, want %v", got, want)
		}
	}
}

func TestVecSetGrowsAndZeroFills(t *testing.T) {
	v := New[int]()
	v.Push(1)
	v.Set(5, 99)
	if v.Len() != 6 {
		t.Fatalf("Len() = %d, want 6", v.Len())
	}
	for i := 1; i < 5; i++ {
		got, _ := v.At(i)
		if got != 0 {
			t.Fatalf("At(%d) = %d, want 0 (gap fill)", i, got)
		}
	}
	got, _ := v.At(5)
	if got != 99 {
		t.Fatalf("At(5) = %d, want 99", got)
	}
}

func TestVecSetNegativeBeyondStart(t *testing.T) {
	v := New[int]()
	v.Push(10)
	v.Push(20)
	v.Push(30)
	old, had := v.Set(-5, 1)
	if had {
		t.Fatalf("Set(-5) reported hadOld, want false")
	}
	_ = old
	if v.Len() != 5 {
		t.Fatalf("Len() = %d, want 5", v.Len())
	}
	got, _ := v.At(0)
	if got != 1 {
		t.Fatalf("At(0) = %d, want 1", got)
	}
	last, _ := v.At(-1)
	if last != 30 {
		t.Fatalf("At(-1) = %d, want 30", last)
	}
}

func TestVecRemove(t *testing.T) {
	v := New[int]()
	for i := 0; i < 5; i++ {
		v.Push(i)
	}
	got, ok := v.Remove(2)
	if !ok || got != 2 {
		t.Fatalf("Remove(2) = %d, %v, want 2, true", got, ok)
	}
	want := []int{0, 1, 3, 4}
	for i, w := range want {
		g, _ := v.At(i)
		if g != w {
			t.Fatalf("At(%d) = %d, want %d", i, g, w)
		}
	}
}

func TestVecRemoveAll(t *testing.T) {
	v := New[int]()
	for i := 0; i < 10; i++ {
		v.Push(i)
	}
	n := v.RemoveAll(func(x int) bool { return x%2 == 0 })
	if n != 5 {
		t.Fatalf("RemoveAll() = %d, want 5", n)
	}
	want := []int{1, 3, 5, 7, 9}
	got := v.Slice()
	for i, w := range want {
		if got[i] != w {
			t.Fatalf("Slice()[%d] = %d, want %d", i, got[i], w)
		}
	}
}

func TestVecFind(t *testing.T) {
	v := New[int]()
	for _, x := range []int{5, 3, 5, 7, 5} {
		v.Push(x)
	}
	if i := v.Find(5, 0, eqInt); i != 0 {
		t.Fatalf("Find(5, 0) = %d, want 0", i)
	}
	if i := v.Find(5, 1, eqInt); i != 2 {
		t.Fatalf("Find(5, 1) = %d, want 2", i)
	}
	if i := v.Find(5, -1, eqInt); i != 4 {
		t.Fatalf("Find(5, -1) = %d, want 4", i)
	}
	if i := v.Find(99, 0, eqInt); i != -1 {
		t.Fatalf("Find(99, 0) = %d, want -1", i)
	}
}

func TestVecCompact(t *testing.T) {
	v := New[int]()
	for i := 0; i < 20; i++ {
		v.Push(i)
	}
	for i := 0; i < 15; i++ {
		v.Pop()
	}
	v.Compact()
	if v.Cap() != v.Len() {
		t.Fatalf("Cap() = %d, Len() = %d, want equal after Compact", v.Cap(), v.Len())
	}
}

// TestVecEachEarlyExit exercises spec.md §8 scenario 6: push 0..100, sum
// starting at index 3 until the accumulator reaches 256, and check the
// returned stop position and the accumulated range.
func TestVecEachEarlyExit(t *testing.T) {
	v := New[int]()
	for i := 0; i < 100; i++ {
		v.Push(i)
	}

	sum := 0
	stop := v.Each(3, func(i, x int) int {
		sum += x
		if sum >= 256 {
			return -1
		}
		return 0
	})

	if sum < 256 || sum >= 512 {
		t.Fatalf("sum = %d, want in [256, 512)", sum)
	}
	if stop < 3 {
		t.Fatalf("stop = %d, want >= 3", stop)
	}
}

func TestVecReserveHeadTail(t *testing.T) {
	v := New[int]()
	v.Reserve(100)
	if v.Cap() < 100 {
		t.Fatalf("Cap() = %d, want >= 100", v.Cap())
	}
	v2 := New[int]()
	v2.Push(1)
	v2.Reserve(-50)
	// A large head reservation means Unshift should not need to reallocate.
	capBefore := v2.Cap()
	v2.Unshift(0)
	if v2.Cap() != capBefore {
		t.Fatalf("Cap() changed after Unshift with head room reserved: %d -> %d", capBefore, v2.Cap())
	}
}

func TestVecAdditiveGrowth(t *testing.T) {
	v := New[int](WithAdditiveGrowth(4))
	for i := 0; i < 20; i++ {
		v.Push(i)
	}
	if v.Len() != 20 {
		t.Fatalf("Len() = %d, want 20", v.Len())
	}
}
