// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dynval

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/cznic/corekit/rbox"
	"github.com/cznic/corekit/rcstr"
)

// An ExtensionVTable lets a third-party value kind ride inside a Value's
// Extension tag (spec.md §6's "pluggable extension point for the soft type
// system"). Equal and ToString are required; Duplicate, Free and ToJSON are
// optional. With ToJSON nil, the value is written to JSON as a string holding
// its ToString text.
type ExtensionVTable struct {
	Name      string
	Duplicate func(payload any) any
	Free      func(payload any)
	Equal     func(a, b any) bool
	ToString  func(payload any) string
	ToJSON    func(payload any, out *rcstr.String)
}

type extValue struct {
	vtable  *ExtensionVTable
	payload any
}

func destroyExt(e extValue) {
	if e.vtable.Free != nil {
		e.vtable.Free(e.payload)
	}
}

var (
	extMu       sync.RWMutex
	extRegistry = map[string]*ExtensionVTable{}
)

// RegisterExtension registers vt under vt.Name, replacing any existing
// registration. Extensions are typically registered from an init function,
// as BigInt and BigFloat below do.
func RegisterExtension(vt *ExtensionVTable) {
	extMu.Lock()
	defer extMu.Unlock()
	extRegistry[vt.Name] = vt
}

func lookupExtension(name string) (*ExtensionVTable, bool) {
	extMu.RLock()
	defer extMu.RUnlock()
	vt, ok := extRegistry[name]
	return vt, ok
}

// NewExtension returns a Value of kind Extension wrapping payload under the
// vtable registered as name.
func NewExtension(name string, payload any) (Value, error) {
	vt, ok := lookupExtension(name)
	if !ok {
		return Value{}, fmt.Errorf("dynval: unregistered extension %q", name)
	}
	box := rbox.New(extValue{vtable: vt, payload: payload}, nil, destroyExt, nil)
	return Value{kind: KindExtension, ext: box}, nil
}

// ExtensionName reports the registered name of an Extension Value's vtable.
func ExtensionName(v Value) (string, bool) {
	if v.kind != KindExtension {
		return "", false
	}
	return v.ext.Inner().vtable.Name, true
}

const (
	extBigInt   = "bigint"
	extBigFloat = "bigfloat"
)

func init() {
	RegisterExtension(&ExtensionVTable{
		Name:      extBigInt,
		Duplicate: func(p any) any { return new(big.Int).Set(p.(*big.Int)) },
		Equal:     func(a, b any) bool { return a.(*big.Int).Cmp(b.(*big.Int)) == 0 },
		ToString:  func(p any) string { return p.(*big.Int).String() },
		ToJSON: func(p any, out *rcstr.String) {
			out.Write([]byte{'"'})
			out.Write([]byte(p.(*big.Int).String()))
			out.Write([]byte{'"'})
		},
	})
	RegisterExtension(&ExtensionVTable{
		Name:      extBigFloat,
		Duplicate: func(p any) any { return new(big.Float).Copy(p.(*big.Float)) },
		Equal:     func(a, b any) bool { return a.(*big.Float).Cmp(b.(*big.Float)) == 0 },
		ToString:  func(p any) string { return p.(*big.Float).Text('g', -1) },
		ToJSON: func(p any, out *rcstr.String) {
			out.Write([]byte{'"'})
			out.Write([]byte(p.(*big.Float).Text('g', -1)))
			out.Write([]byte{'"'})
		},
	})
}

// BigInt wraps i as an arbitrary-precision integer Extension Value, per
// spec.md §6's supplemental math/big binding.
func BigInt(i *big.Int) Value {
	v, err := NewExtension(extBigInt, i)
	if err != nil {
		panic(err) // extBigInt is always registered by this package's init
	}
	return v
}

// BigFloat wraps f as an arbitrary-precision float Extension Value.
func BigFloat(f *big.Float) Value {
	v, err := NewExtension(extBigFloat, f)
	if err != nil {
		panic(err)
	}
	return v
}

// AsBigInt returns v's wrapped *big.Int, if v is a BigInt Extension Value.
func AsBigInt(v Value) (*big.Int, bool) {
	if v.kind != KindExtension {
		return nil, false
	}
	e := v.ext.Inner()
	if e.vtable.Name != extBigInt {
		return nil, false
	}
	return e.payload.(*big.Int), true
}

// AsBigFloat returns v's wrapped *big.Float, if v is a BigFloat Extension
// Value.
func AsBigFloat(v Value) (*big.Float, bool) {
	if v.kind != KindExtension {
		return nil, false
	}
	e := v.ext.Inner()
	if e.vtable.Name != extBigFloat {
		return nil, false
	}
	return e.payload.(*big.Float), true
}
