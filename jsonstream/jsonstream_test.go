// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jsonstream

import (
	"testing"
)

type event struct {
	kind string
	val  any
}

type recorder struct {
	events []event
	abort  bool
}

func (r *recorder) OnNull()         { r.events = append(r.events, event{"null", nil}) }
func (r *recorder) OnTrue()         { r.events = append(r.events, event{"true", nil}) }
func (r *recorder) OnFalse()        { r.events = append(r.events, event{"false", nil}) }
func (r *recorder) OnNumber(i int64)    { r.events = append(r.events, event{"number", i}) }
func (r *recorder) OnFloat(f float64)   { r.events = append(r.events, event{"float", f}) }
func (r *recorder) OnString(s []byte)   { r.events = append(r.events, event{"string", string(s)}) }
func (r *recorder) OnStartObject() bool { r.events = append(r.events, event{"startObject", nil}); return r.abort }
func (r *recorder) OnStartArray() bool  { r.events = append(r.events, event{"startArray", nil}); return r.abort }
func (r *recorder) OnEndObject()    { r.events = append(r.events, event{"endObject", nil}) }
func (r *recorder) OnEndArray()     { r.events = append(r.events, event{"endArray", nil}) }
func (r *recorder) OnJSON()         { r.events = append(r.events, event{"json", nil}) }
func (r *recorder) OnError(err error, pos int) {
	r.events = append(r.events, event{"error", err.Error()})
}

func (r *recorder) kinds() []string {
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.kind
	}
	return out
}

func eq(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("events = %v, want %v", got, want)
		}
	}
}

func TestParserScalarValues(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"null", []string{"null", "json"}},
		{"true", []string{"true", "json"}},
		{"false", []string{"false", "json"}},
		{"42", []string{"number", "json"}},
		{"-17", []string{"number", "json"}},
		{"3.14", []string{"float", "json"}},
		{"1e10", []string{"float", "json"}},
		{`"hello"`, []string{"string", "json"}},
		{"NaN", []string{"float", "json"}},
		{"Infinity", []string{"float", "json"}},
		{"-Infinity", []string{"float", "json"}},
	}
	for _, c := range cases {
		r := &recorder{}
		p := New(r)
		n, err := p.Write([]byte(c.in))
		if err != nil {
			t.Fatalf("Write(%q) error: %v", c.in, err)
		}
		if n != len(c.in) {
			t.Fatalf("Write(%q) consumed %d, want %d", c.in, n, len(c.in))
		}
		eq(t, r.kinds(), c.want)
	}
}

func TestParserNestedObjectAndArray(t *testing.T) {
	r := &recorder{}
	p := New(r)
	in := `{"a": 1, "b": [2, 3, {"c": null}], "d": true}`
	n, err := p.Write([]byte(in))
	if err != nil {
		t.Fatalf("Write error: %v", err)
	}
	if n != len(in) {
		t.Fatalf("consumed %d, want %d", n, len(in))
	}
	want := []string{
		"startObject",
		"string", "number", // "a": 1
		"string", "startArray", // "b": [
		"number", "number", // 2, 3
		"startObject", "string", "null", "endObject", // {"c": null}
		"endArray",
		"string", "true", // "d": true
		"endObject",
		"json",
	}
	eq(t, r.kinds(), want)
}

func TestParserMultipleWritesAcrossTopLevelValues(t *testing.T) {
	r := &recorder{}
	p := New(r)

	n1, err := p.Write([]byte(`1 `))
	if err != nil {
		t.Fatalf("first Write error: %v", err)
	}
	if p.Depth() != 0 {
		t.Fatalf("Depth() after first value = %d, want 0", p.Depth())
	}

	n2, err := p.Write([]byte(`"second"`))
	if err != nil {
		t.Fatalf("second Write error: %v", err)
	}
	_ = n1
	_ = n2

	eq(t, r.kinds(), []string{"number", "json", "string", "json"})
}

func TestParserBufferEndsMidValueNoError(t *testing.T) {
	r := &recorder{}
	p := New(r)
	in := `[1, 2`
	n, err := p.Write([]byte(in))
	if err != nil {
		t.Fatalf("Write error: %v", err)
	}
	if n != len(in) {
		t.Fatalf("consumed %d, want %d (entire buffer, no trailing error)", n, len(in))
	}
	if p.Depth() != 1 {
		t.Fatalf("Depth() = %d, want 1 (array left open)", p.Depth())
	}
	// No "json" event yet: the top-level value hasn't closed.
	for _, k := range r.kinds() {
		if k == "json" {
			t.Fatal("OnJSON fired before the array closed")
		}
	}
}

func TestParserResumesStructuralStateAcrossWrites(t *testing.T) {
	r := &recorder{}
	p := New(r)
	if _, err := p.Write([]byte(`[1, 2`)); err != nil {
		t.Fatalf("first Write error: %v", err)
	}
	if _, err := p.Write([]byte(`, 3]`)); err != nil {
		t.Fatalf("second Write error: %v", err)
	}
	if p.Depth() != 0 {
		t.Fatalf("Depth() after close = %d, want 0", p.Depth())
	}
	eq(t, r.kinds(), []string{"startArray", "number", "number", "number", "endArray", "json"})
}

func TestParserSyntaxError(t *testing.T) {
	r := &recorder{}
	p := New(r)
	_, err := p.Write([]byte(`{"a": }`))
	if err == nil {
		t.Fatal("expected a syntax error")
	}
	if len(r.events) == 0 || r.events[len(r.events)-1].kind != "error" {
		t.Fatalf("OnError did not fire, events = %v", r.kinds())
	}
}

func TestParserTrailingCommaRejected(t *testing.T) {
	for _, in := range []string{`[1,]`, `{"a":1,}`, `[,]`, `{,}`} {
		r := &recorder{}
		p := New(r)
		if _, err := p.Write([]byte(in)); err == nil {
			t.Fatalf("%s: expected a trailing-comma syntax error", in)
		}
	}
}

func TestParserNestedValueNotLastElement(t *testing.T) {
	r := &recorder{}
	p := New(r)
	in := `[{"x": 1}, 2]`
	n, err := p.Write([]byte(in))
	if err != nil {
		t.Fatalf("Write error: %v", err)
	}
	if n != len(in) {
		t.Fatalf("consumed %d, want %d", n, len(in))
	}
	want := []string{
		"startArray",
		"startObject", "string", "number", "endObject",
		"number",
		"endArray",
		"json",
	}
	eq(t, r.kinds(), want)
}

func TestParserMaxDepthExceeded(t *testing.T) {
	r := &recorder{}
	p := New(r)
	in := ""
	for i := 0; i < maxDepth+1; i++ {
		in += "["
	}
	_, err := p.Write([]byte(in))
	if err == nil {
		t.Fatal("expected a max-depth error")
	}
}

func TestParserAbortFromOnStartObject(t *testing.T) {
	r := &recorder{abort: true}
	p := New(r)
	_, err := p.Write([]byte(`{"a": 1}`))
	if err == nil {
		t.Fatal("expected an abort error")
	}
}

func TestParserCommentsSkipped(t *testing.T) {
	r := &recorder{}
	p := New(r)
	in := "// leading comment\n{ /* inline */ \"a\": 1 # trailing\n}"
	_, err := p.Write([]byte(in))
	if err != nil {
		t.Fatalf("Write error: %v", err)
	}
	eq(t, r.kinds(), []string{"startObject", "string", "number", "endObject", "json"})
}

func TestParserResetAfterError(t *testing.T) {
	r := &recorder{}
	p := New(r)
	if _, err := p.Write([]byte(`[1, }`)); err == nil {
		t.Fatal("expected an error")
	}
	p.Reset()
	if p.Depth() != 0 {
		t.Fatalf("Depth() after Reset = %d, want 0", p.Depth())
	}
	r.events = nil
	if _, err := p.Write([]byte(`42`)); err != nil {
		t.Fatalf("Write after Reset error: %v", err)
	}
	eq(t, r.kinds(), []string{"number", "json"})
}
