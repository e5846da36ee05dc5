// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package dynval implements the L3 tagged dynamic ("soft type") value of
// spec.md §4.9: a small tagged union over the scalar kinds plus the L2
// containers (rcstr.String, vec.Vec, omap.Map), ref-counted via package
// rbox so Array and Hash can be shared without copying. It is grounded on
// spec.md §4.9 directly; the teacher has no tagged-union analog (lldb and
// dbm are both statically typed storage layers), so the sum-type shape
// comes from the spec while every container it wraps is adapted from the
// rest of this module rather than reimplemented.
package dynval

import (
	"math"
	"strconv"
	"strings"

	"github.com/cznic/corekit/omap"
	"github.com/cznic/corekit/rbox"
	"github.com/cznic/corekit/rcstr"
	"github.com/cznic/corekit/vec"
)

// A Kind tags a Value's representation (spec.md §4.9's "small tag plus a
// payload union").
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindArray
	KindHash
	KindExtension
)

var kindNames = [...]string{"null", "bool", "int", "float", "string", "array", "hash", "extension"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// maxNestDepth bounds recursive Array/Hash nesting built by Parse, intentionally
// tighter than jsonstream's own 32-level byte-scan cap (spec.md §4.9).
const maxNestDepth = 28

// A Value is a tagged dynamic value (spec.md §4.9). The zero Value is Null.
// Array, Hash, String, and Extension values are reference-counted through
// rbox.Box; copying a Value header (e.g. by assignment) does not itself
// bump the count — use Duplicate for a new owning reference, and Free to
// release one.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64

	str  *rbox.Box[*rcstr.String]
	arr  *rbox.Box[*vec.Vec[Value]]
	hash *rbox.Box[*omap.Map[string, Value]]
	ext  *rbox.Box[extValue]
}

// Kind reports v's tag.
func (v Value) Kind() Kind { return v.kind }

// TypeOf reports v's tag. Equivalent to v.Kind(); provided as a free
// function to match spec.md §4.9's "type_of(v)" naming.
func TypeOf(v Value) Kind { return v.kind }

// Null returns the null Value.
func Null() Value { return Value{kind: KindNull} }

// BoolValue returns a boolean Value.
func BoolValue(b bool) Value { return Value{kind: KindBool, b: b} }

// Int returns an integer Value.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Float returns a floating-point Value.
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// StringValue returns a Value holding a fresh copy of str's bytes, with a
// reference count of one.
func StringValue(str string) Value { return StringBytes([]byte(str)) }

// StringBytes returns a Value holding a fresh copy of b, with a reference
// count of one.
func StringBytes(b []byte) Value {
	box := rbox.New(rcstr.FromBytes(b), nil, nil, nil)
	return Value{kind: KindString, str: box}
}

// ArrayNew returns a new, empty Array Value with a reference count of one.
func ArrayNew() Value {
	box := rbox.New(vec.New[Value](), nil, destroyArray, nil)
	return Value{kind: KindArray, arr: box}
}

// HashNew returns a new, empty Hash Value with a reference count of one.
// Keys hash via xhash.Default (through omap.HashString); see HashNewSeeded
// to salt against algorithmic-complexity attacks on untrusted keys.
func HashNew() Value {
	box := rbox.New(omap.New[string, Value](omap.HashString(nil, 0)), nil, destroyHash, nil)
	return Value{kind: KindHash, hash: box}
}

// HashNewSeeded returns a new, empty Hash Value whose keys hash under seed.
func HashNewSeeded(seed uint64) Value {
	box := rbox.New(omap.New[string, Value](omap.HashString(nil, seed)), nil, destroyHash, nil)
	return Value{kind: KindHash, hash: box}
}

func destroyArray(a *vec.Vec[Value]) {
	a.Each(0, func(i int, elem Value) int { Free(elem); return 0 })
}

func destroyHash(h *omap.Map[string, Value]) {
	h.Each(0, func(pos int, k string, val Value) int { Free(val); return 0 })
}

// Duplicate returns a new reference to v's underlying storage (Array,
// Hash, String, and Extension kinds share rather than copy; scalar kinds
// are returned unchanged, since they carry no shared storage). Pair with
// Free. Use Clone instead when an independently mutable copy is needed.
func Duplicate(v Value) Value {
	switch v.kind {
	case KindString:
		v.str = v.str.UpRef()
	case KindArray:
		v.arr = v.arr.UpRef()
	case KindHash:
		v.hash = v.hash.UpRef()
	case KindExtension:
		v.ext = v.ext.UpRef()
	}
	return v
}

// Free releases a reference obtained from a constructor or Duplicate. It is
// a no-op for scalar kinds, which own no shared storage.
func Free(v Value) {
	switch v.kind {
	case KindString:
		v.str.Free()
	case KindArray:
		v.arr.Free()
	case KindHash:
		v.hash.Free()
	case KindExtension:
		v.ext.Free()
	}
}

// Clone returns a deep, independently owned copy of v: Array and Hash
// elements are recursively cloned, String content is recopied, and
// Extension payloads go through their vtable's Duplicate hook.
func Clone(v Value) Value {
	switch v.kind {
	case KindString:
		return StringBytes(append([]byte(nil), v.str.Inner().Data()...))
	case KindArray:
		out := ArrayNew()
		v.arr.Inner().Each(0, func(i int, elem Value) int {
			ArrayPush(out, Clone(elem))
			return 0
		})
		return out
	case KindHash:
		out := HashNew()
		v.hash.Inner().Each(0, func(pos int, k string, val Value) int {
			HashPut(out, k, Clone(val))
			return 0
		})
		return out
	case KindExtension:
		e := v.ext.Inner()
		payload := e.payload
		if e.vtable.Duplicate != nil {
			payload = e.vtable.Duplicate(e.payload)
		}
		nv, _ := NewExtension(e.vtable.Name, payload)
		return nv
	default:
		return v
	}
}

// Equal reports whether a and b hold the same kind and content. Array and
// Hash comparisons recurse; Hash comparison ignores key order.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNull:
		return true
	case KindBool:
		return a.b == b.b
	case KindInt:
		return a.i == b.i
	case KindFloat:
		return a.f == b.f
	case KindString:
		return a.str.Inner().Equal(b.str.Inner())
	case KindArray:
		av, bv := a.arr.Inner(), b.arr.Inner()
		if av.Len() != bv.Len() {
			return false
		}
		eq := true
		av.Each(0, func(i int, elem Value) int {
			other, _ := bv.At(i)
			if !Equal(elem, other) {
				eq = false
				return -1
			}
			return 0
		})
		return eq
	case KindHash:
		ah, bh := a.hash.Inner(), b.hash.Inner()
		if ah.Len() != bh.Len() {
			return false
		}
		eq := true
		ah.Each(0, func(pos int, k string, val Value) int {
			other, ok := bh.Get(k)
			if !ok || !Equal(val, other) {
				eq = false
				return -1
			}
			return 0
		})
		return eq
	case KindExtension:
		ae, be := a.ext.Inner(), b.ext.Inner()
		if ae.vtable != be.vtable {
			return false
		}
		return ae.vtable.Equal(ae.payload, be.payload)
	}
	return false
}

// ToString renders v as text: scalars render directly, String returns its
// content, Array/Hash render as compact JSON, and Extension defers to its
// vtable.
func ToString(v Value) string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		if v.b {
			return "true"
		}
		return "false"
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindString:
		return string(v.str.Inner().Data())
	case KindArray, KindHash:
		return string(ToJSON(rcstr.Empty(), v, false).Data())
	case KindExtension:
		e := v.ext.Inner()
		return e.vtable.ToString(e.payload)
	}
	return ""
}

// ToInt converts v to an integer where meaningful (spec.md §4.9's
// "best-effort numeric coercion"), reporting false for Array, Hash, and
// unparsable strings.
func ToInt(v Value) (int64, bool) {
	switch v.kind {
	case KindInt:
		return v.i, true
	case KindFloat:
		return int64(v.f), true
	case KindBool:
		if v.b {
			return 1, true
		}
		return 0, true
	case KindString:
		n, err := strconv.ParseInt(strings.TrimSpace(string(v.str.Inner().Data())), 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}

// ToFloat converts v to a float where meaningful, mirroring ToInt.
func ToFloat(v Value) (float64, bool) {
	switch v.kind {
	case KindFloat:
		return v.f, true
	case KindInt:
		return float64(v.i), true
	case KindBool:
		if v.b {
			return 1, true
		}
		return 0, true
	case KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(string(v.str.Inner().Data())), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// HashValue computes a seeded structural hash of v, recursing through Array
// elements and Hash entries (order-independent for Hash, per spec.md §4.9).
func HashValue(v Value, seed uint64) uint64 {
	h := seed*1099511628211 ^ uint64(v.kind)
	switch v.kind {
	case KindNull:
		return h
	case KindBool:
		if v.b {
			return h ^ 1
		}
		return h
	case KindInt:
		return h ^ uint64(v.i)
	case KindFloat:
		return h ^ math.Float64bits(v.f)
	case KindString:
		return v.str.Inner().Hash(h)
	case KindArray:
		v.arr.Inner().Each(0, func(i int, elem Value) int {
			h = h*31 ^ HashValue(elem, h)
			return 0
		})
		return h
	case KindHash:
		var acc uint64
		v.hash.Inner().Each(0, func(pos int, k string, val Value) int {
			kh := rcstr.FromString(k).Hash(h)
			acc ^= kh*31 + HashValue(val, kh)
			return 0
		})
		return h ^ acc
	case KindExtension:
		e := v.ext.Inner()
		return rcstr.FromString(e.vtable.ToString(e.payload)).Hash(h)
	}
	return h
}

// ArrayLen reports the number of elements in an Array Value.
func ArrayLen(v Value) int { return v.arr.Inner().Len() }

// ArrayPush appends elem to an Array Value, transferring ownership of elem
// to the array.
func ArrayPush(v Value, elem Value) { v.arr.Inner().Push(elem) }

// ArrayGet returns a borrowed reference to the element at logical index i
// (negative counts from the end); the caller must not Free it without
// first Duplicate-ing.
func ArrayGet(v Value, i int) (Value, bool) { return v.arr.Inner().At(i) }

// ArraySet stores elem at index i, transferring ownership to the array, and
// returns any replaced value so the caller can decide whether to Free it.
func ArraySet(v Value, i int, elem Value) (old Value, hadOld bool) {
	return v.arr.Inner().Set(i, elem)
}

// Each1 performs an ordered, one-level walk of an Array Value's elements; fn
// returning -1 stops iteration (spec.md §4.9).
func Each1(v Value, fn func(i int, elem Value) int) {
	v.arr.Inner().Each(0, fn)
}

// HashEach performs an ordered (insertion-order), one-level walk of a Hash
// Value's entries; fn returning -1 stops iteration. This is each1's Hash
// counterpart — Each2 below is the deep, whole-subtree walk.
func HashEach(v Value, fn func(k string, val Value) int) {
	v.hash.Inner().Each(0, func(pos int, k string, val Value) int { return fn(k, val) })
}

// HashLen reports the number of entries in a Hash Value.
func HashLen(v Value) int { return v.hash.Inner().Len() }

// HashGet returns a borrowed reference to the value stored at key.
func HashGet(v Value, key string) (Value, bool) { return v.hash.Inner().Get(key) }

// HashPut stores key -> val, transferring ownership of val to the hash, and
// returns any replaced value un-freed so the caller can decide its fate.
func HashPut(v Value, key string, val Value) (old Value, hadOld bool) {
	return v.hash.Inner().Put(key, val)
}

// HashDelete removes key, transferring ownership of the removed value back
// to the caller.
func HashDelete(v Value, key string) (Value, bool) { return v.hash.Inner().Delete(key) }

// each2Frame holds one container's remaining not-yet-visited children,
// in visitation order.
type each2Frame struct {
	items []Value
}

// Each2 performs a pre-order walk of v and all of its descendants (spec.md
// §4.9 / SPEC_FULL.md §4.10): v itself is visited first, then, for each
// Array/Hash encountered, its children are visited before its later
// siblings. It is iterative over an explicit frame stack rather than
// recursive, matching jsonstream's and slab's iterative discipline, and
// descent is bounded by maxNestDepth — a container reached at that depth is
// visited but not descended into. fn returning false stops the walk
// immediately. Each2 returns the number of Values visited.
func Each2(v Value, fn func(child Value) bool) int {
	count := 0
	stack := []each2Frame{{items: []Value{v}}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if len(top.items) == 0 {
			stack = stack[:len(stack)-1]
			continue
		}
		cur := top.items[0]
		top.items = top.items[1:]

		count++
		if !fn(cur) {
			return count
		}

		if len(stack) > maxNestDepth {
			continue
		}
		switch cur.kind {
		case KindArray:
			var children []Value
			Each1(cur, func(i int, elem Value) int {
				children = append(children, elem)
				return 0
			})
			if len(children) > 0 {
				stack = append(stack, each2Frame{items: children})
			}
		case KindHash:
			var children []Value
			HashEach(cur, func(k string, val Value) int {
				children = append(children, val)
				return 0
			})
			if len(children) > 0 {
				stack = append(stack, each2Frame{items: children})
			}
		}
	}
	return count
}
