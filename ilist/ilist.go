// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ilist implements a generic doubly-linked list with a head
// sentinel, generalized from the shape of lldb/flt.go's per-size-class free
// block lists (spec.md §4.3) into a reusable primitive. Package slab threads
// its free-block pool through it; package omap threads its insertion-order
// entry ring through the same shape, using indices instead of node pointers
// per spec.md §9's guidance for the hash-map ring.
package ilist

// A Node is one element of a List. The zero Node is not valid except as the
// embedded sentinel inside a List; use List.PushBack/PushFront to create
// live nodes.
type Node[T any] struct {
	prev, next *Node[T]
	list       *List[T]
	Value      T
}

// Next returns the node following n, or nil at the end of the list.
func (n *Node[T]) Next() *Node[T] {
	if n.next == nil || n.next == &n.list.root {
		return nil
	}
	return n.next
}

// Prev returns the node preceding n, or nil at the start of the list.
func (n *Node[T]) Prev() *Node[T] {
	if n.prev == nil || n.prev == &n.list.root {
		return nil
	}
	return n.prev
}

// A List is a circular doubly-linked list with a head sentinel (spec.md
// §4.3). The zero List is ready to use.
type List[T any] struct {
	root Node[T]
	n    int
}

func (l *List[T]) init() {
	if l.root.next == nil {
		l.root.next = &l.root
		l.root.prev = &l.root
		l.root.list = l
	}
}

// Len returns the number of nodes in l.
func (l *List[T]) Len() int { return l.n }

// Any reports whether l has at least one node.
func (l *List[T]) Any() bool { return l.n > 0 }

// Empty reports whether l has no nodes.
func (l *List[T]) Empty() bool { return l.n == 0 }

// Front returns the first node, or nil if l is empty.
func (l *List[T]) Front() *Node[T] {
	l.init()
	if l.root.next == &l.root {
		return nil
	}
	return l.root.next
}

// Back returns the last node, or nil if l is empty.
func (l *List[T]) Back() *Node[T] {
	l.init()
	if l.root.prev == &l.root {
		return nil
	}
	return l.root.prev
}

func (l *List[T]) insert(n, at *Node[T]) *Node[T] {
	n.prev = at
	n.next = at.next
	n.prev.next = n
	n.next.prev = n
	n.list = l
	l.n++
	return n
}

// PushBack appends v to the end of l and returns its node.
func (l *List[T]) PushBack(v T) *Node[T] {
	l.init()
	return l.insert(&Node[T]{Value: v}, l.root.prev)
}

// PushFront prepends v to the start of l and returns its node.
func (l *List[T]) PushFront(v T) *Node[T] {
	l.init()
	return l.insert(&Node[T]{Value: v}, &l.root)
}

// Remove removes n from l. n must belong to l; removing a node twice, or a
// node from a different list, panics, matching spec.md §7's policy of never
// silently swallowing an invariant violation.
func (l *List[T]) Remove(n *Node[T]) T {
	if n.list != l {
		panic("ilist: Remove of a node that does not belong to this List")
	}

	n.prev.next = n.next
	n.next.prev = n.prev
	n.next = nil // avoid memory leaks and double-Remove
	n.prev = nil
	n.list = nil
	l.n--
	return n.Value
}

// PopBack removes and returns the value of the last node, and whether one
// existed.
func (l *List[T]) PopBack() (v T, ok bool) {
	n := l.Back()
	if n == nil {
		return v, false
	}
	return l.Remove(n), true
}

// PopFront removes and returns the value of the first node, and whether one
// existed.
func (l *List[T]) PopFront() (v T, ok bool) {
	n := l.Front()
	if n == nil {
		return v, false
	}
	return l.Remove(n), true
}

// Each visits every node from front to back, calling fn with each node's
// value. It saves the next pointer before calling fn so that fn may Remove
// the current node, per spec.md §4.3's iteration contract.
func (l *List[T]) Each(fn func(v T) bool) {
	l.init()
	for n := l.root.next; n != &l.root; {
		next := n.next
		if !fn(n.Value) {
			return
		}
		n = next
	}
}
