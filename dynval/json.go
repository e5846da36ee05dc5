// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dynval

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/cznic/corekit/jsonstream"
	"github.com/cznic/corekit/rcstr"
)

// ToJSON renders v as JSON into dst (pretty-printed with a two-space indent
// if pretty is true, compact otherwise) and returns dst, matching spec.md
// §4.9's "to_json(dest_string, v, pretty) -> dest_string" entry point.
// Recursion is bounded at maxNestDepth: an Array or Hash reached at that
// depth is rendered as the literal "[...]"/"{...}" instead of being
// descended into, per spec.md §4.9/§9.
func ToJSON(dst *rcstr.String, v Value, pretty bool) *rcstr.String {
	indent := ""
	if pretty {
		indent = "  "
	}
	writeJSON(dst, v, indent, "", 0)
	return dst
}

// ToJSONIndent renders v as JSON into dst, using indent (e.g. "  ") to
// pretty-print nested Array and Hash values (spec.md §6 supplemental); see
// ToJSON for the spec-mandated boolean-pretty entry point. Recursion is
// bounded the same way ToJSON's is.
func ToJSONIndent(dst *rcstr.String, v Value, indent string) *rcstr.String {
	writeJSON(dst, v, indent, "", 0)
	return dst
}

func writeJSON(out *rcstr.String, v Value, indent, curIndent string, depth int) {
	switch v.kind {
	case KindNull:
		out.Write([]byte("null"))
	case KindBool:
		if v.b {
			out.Write([]byte("true"))
		} else {
			out.Write([]byte("false"))
		}
	case KindInt:
		out.WriteInt(v.i)
	case KindFloat:
		writeJSONFloat(out, v.f)
	case KindString:
		out.Write([]byte{'"'})
		out.WriteEscape(v.str.Inner().Data())
		out.Write([]byte{'"'})
	case KindArray:
		if depth >= maxNestDepth {
			out.Write([]byte("[...]"))
			return
		}
		writeJSONArray(out, v, indent, curIndent, depth)
	case KindHash:
		if depth >= maxNestDepth {
			out.Write([]byte("{...}"))
			return
		}
		writeJSONHash(out, v, indent, curIndent, depth)
	case KindExtension:
		e := v.ext.Inner()
		if e.vtable.ToJSON != nil {
			e.vtable.ToJSON(e.payload, out)
			return
		}
		out.Write([]byte{'"'})
		out.WriteEscape([]byte(e.vtable.ToString(e.payload)))
		out.Write([]byte{'"'})
	}
}

func writeJSONFloat(out *rcstr.String, f float64) {
	switch {
	case math.IsNaN(f):
		out.Write([]byte("NaN"))
	case math.IsInf(f, 1):
		out.Write([]byte("Infinity"))
	case math.IsInf(f, -1):
		out.Write([]byte("-Infinity"))
	default:
		s := strconv.FormatFloat(f, 'g', -1, 64)
		if !strings.ContainsAny(s, ".e") {
			// Keep a fraction so Parse reads the value back as a Float.
			s += ".0"
		}
		out.Write([]byte(s))
	}
}

func writeJSONArray(out *rcstr.String, v Value, indent, curIndent string, depth int) {
	arr := v.arr.Inner()
	out.Write([]byte{'['})
	nextIndent := curIndent + indent
	n := 0
	arr.Each(0, func(i int, elem Value) int {
		if n > 0 {
			out.Write([]byte{','})
		}
		if indent != "" {
			out.Write([]byte("\n" + nextIndent))
		}
		writeJSON(out, elem, indent, nextIndent, depth+1)
		n++
		return 0
	})
	if indent != "" && n > 0 {
		out.Write([]byte("\n" + curIndent))
	}
	out.Write([]byte{']'})
}

func writeJSONHash(out *rcstr.String, v Value, indent, curIndent string, depth int) {
	hash := v.hash.Inner()
	out.Write([]byte{'{'})
	nextIndent := curIndent + indent
	n := 0
	hash.Each(0, func(pos int, k string, val Value) int {
		if n > 0 {
			out.Write([]byte{','})
		}
		if indent != "" {
			out.Write([]byte("\n" + nextIndent))
		}
		out.Write([]byte{'"'})
		out.WriteEscape([]byte(k))
		out.Write([]byte{'"', ':'})
		if indent != "" {
			out.Write([]byte{' '})
		}
		writeJSON(out, val, indent, nextIndent, depth+1)
		n++
		return 0
	})
	if indent != "" && n > 0 {
		out.Write([]byte("\n" + curIndent))
	}
	out.Write([]byte{'}'})
}

// builder implements jsonstream.Handler, assembling a Value tree from
// parser callbacks via an explicit frame stack (no recursion, matching
// jsonstream's own iterative discipline).
type builder struct {
	stack []frame
	root  Value
	have  bool
	err   error
}

type frame struct {
	kind       byte // 'a' or 'o'
	val        Value
	pendingKey string
	haveKey    bool
}

func (b *builder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

func (b *builder) attach(v Value) {
	if b.err != nil {
		Free(v)
		return
	}
	n := len(b.stack)
	if n == 0 {
		b.root = v
		b.have = true
		return
	}
	top := &b.stack[n-1]
	switch top.kind {
	case 'a':
		ArrayPush(top.val, v)
	case 'o':
		if old, had := HashPut(top.val, top.pendingKey, v); had {
			Free(old)
		}
		top.haveKey = false
	}
}

func (b *builder) OnNull()  { b.attach(Null()) }
func (b *builder) OnTrue()  { b.attach(BoolValue(true)) }
func (b *builder) OnFalse() { b.attach(BoolValue(false)) }

func (b *builder) OnNumber(i int64)  { b.attach(Int(i)) }
func (b *builder) OnFloat(f float64) { b.attach(Float(f)) }

func (b *builder) OnString(s []byte) {
	if b.err != nil {
		return
	}
	tmp := rcstr.Empty()
	if err := tmp.WriteUnescape(s); err != nil {
		b.fail(err)
		return
	}

	if n := len(b.stack); n > 0 {
		top := &b.stack[n-1]
		if top.kind == 'o' && !top.haveKey {
			top.pendingKey = string(tmp.Data())
			top.haveKey = true
			return
		}
	}
	b.attach(StringBytes(tmp.Data()))
}

func (b *builder) OnStartArray() bool {
	if len(b.stack) >= maxNestDepth {
		b.fail(fmt.Errorf("dynval: JSON nesting exceeds %d levels", maxNestDepth))
		return true
	}
	b.stack = append(b.stack, frame{kind: 'a', val: ArrayNew()})
	return false
}

func (b *builder) OnStartObject() bool {
	if len(b.stack) >= maxNestDepth {
		b.fail(fmt.Errorf("dynval: JSON nesting exceeds %d levels", maxNestDepth))
		return true
	}
	b.stack = append(b.stack, frame{kind: 'o', val: HashNew()})
	return false
}

func (b *builder) OnEndArray() { b.popAndAttach() }

func (b *builder) OnEndObject() { b.popAndAttach() }

func (b *builder) popAndAttach() {
	n := len(b.stack)
	top := b.stack[n-1]
	b.stack = b.stack[:n-1]
	b.attach(top.val)
}

func (b *builder) OnJSON() {}

func (b *builder) OnError(err error, pos int) { b.fail(err) }

// Parse decodes a single JSON value from data into a new, owning Value tree.
func Parse(data []byte) (Value, error) {
	b := &builder{}
	p := jsonstream.New(b)
	if _, err := p.Write(data); err != nil {
		return Value{}, err
	}
	if b.err != nil {
		return Value{}, b.err
	}
	if !b.have {
		return Value{}, fmt.Errorf("dynval: no JSON value found in input")
	}
	return b.root, nil
}

// MergeJSON merges the JSON document in data into dst following JSON Merge
// Patch semantics (RFC 7386): a patch's null removes the corresponding key,
// a patch object merges recursively into a matching dst object, and any
// other patch value replaces dst's value outright. It consumes dst (freeing
// it or folding it into the result) and returns the merged Value.
func MergeJSON(dst Value, data []byte) (Value, error) {
	patch, err := Parse(data)
	if err != nil {
		return dst, err
	}
	return mergePatch(dst, patch), nil
}

func mergePatch(dst, patch Value) Value {
	if dst.kind != KindHash || patch.kind != KindHash {
		Free(dst)
		return patch
	}

	h := dst.hash.Inner()
	patch.hash.Inner().Each(0, func(pos int, k string, pv Value) int {
		if pv.kind == KindNull {
			if old, ok := h.Delete(k); ok {
				Free(old)
			}
			return 0
		}
		if old, ok := h.Get(k); ok {
			merged := mergePatch(old, Duplicate(pv))
			h.Put(k, merged)
		} else {
			h.Put(k, Duplicate(pv))
		}
		return 0
	})
	Free(patch)
	return dst
}
