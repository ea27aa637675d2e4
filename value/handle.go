// Copyright 2024 The ValueScript Authors
// This file is part of ValueScript.
//
// ValueScript is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// ValueScript is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with ValueScript. If not, see <http://www.gnu.org/licenses/>.

package value

import (
	"sync/atomic"
	"unsafe"
)

// handle is the shared, reference-counted backing store for a compound
// value. Every Array and Object carries one. The refcount is the mechanism
// that lets subscript writes decide, cheaply, whether they may mutate in
// place (refcount == 1, i.e. this binding is the only owner) or must clone
// first (refcount > 1, i.e. some other binding observed the same handle).
//
// A handle is "uniquely owned" exactly when count()==1 — that condition is
// what triggers an in-place mutation instead of a clone.
type handle struct {
	refs int32
}

func (h *handle) retain() { atomic.AddInt32(&h.refs, 1) }

func (h *handle) release() int32 { return atomic.AddInt32(&h.refs, -1) }

func (h *handle) unique() bool { return atomic.LoadInt32(&h.refs) == 1 }

func newHandle() handle { return handle{refs: 1} }

// arrayHandle backs Array values: an insertion-ordered sequence of Values.
// A Void element is a sparse-array hole; reading it yields Undefined.
type arrayHandle struct {
	handle
	elems []Value
}

func newArrayHandle(elems []Value) *arrayHandle {
	return &arrayHandle{handle: newHandle(), elems: elems}
}

// clone makes an independent copy of the handle's backing slice. Elements
// themselves are Values (copied by Go assignment); compound elements share
// their own handles, so cloning this array retains the rest of the graph
// until a deeper write forces further cloning along the path — copy-on-write
// promotion happens lazily, one level at a time.
func (a *arrayHandle) clone() *arrayHandle {
	elems := make([]Value, len(a.elems))
	copy(elems, a.elems)
	for _, e := range elems {
		if e.arr != nil {
			e.arr.retain()
		}
		if e.obj != nil {
			e.obj.retain()
		}
	}
	return newArrayHandle(elems)
}

// objectHandle backs Object values: a string-keyed map plus a symbol-keyed
// map plus an optional prototype Value. String-key iteration order is
// unspecified, so a plain Go map suffices — no radix tree or insertion-order
// bookkeeping is required for string keys.
type objectHandle struct {
	handle
	str  map[string]Value
	sym  map[Symbol]Value
	proto Value
}

func newObjectHandle(str map[string]Value, sym map[Symbol]Value, proto Value) *objectHandle {
	if str == nil {
		str = map[string]Value{}
	}
	if sym == nil {
		sym = map[Symbol]Value{}
	}
	return &objectHandle{handle: newHandle(), str: str, sym: sym, proto: proto}
}

func (o *objectHandle) clone() *objectHandle {
	str := make(map[string]Value, len(o.str))
	for k, v := range o.str {
		str[k] = v
	}
	sym := make(map[Symbol]Value, len(o.sym))
	for k, v := range o.sym {
		sym[k] = v
	}
	return newObjectHandle(str, sym, o.proto)
}

// functionHandle backs Function values: a pointer into decoded bytecode plus
// captured binds from `bind`.
type functionHandle struct {
	handle
	BytecodeID  string // identifies which decoded bytecode blob owns Start
	Start       uint32
	RegCount    uint16
	ParamCount  uint16
	IsGenerator bool
	Binds       []Value
}

// classHandle backs Class values.
type classHandle struct {
	handle
	Name         string
	ContentHash  []byte // optional; the bytecode decoder fills it from the encoded class
	Constructor  Value
	InstanceProto Value
	Static       Value
}

// Array builds an Array value from a freshly-owned element slice (ownership
// transfers to the Value; callers must not retain aliases into elems after
// calling this unless they intend shared-handle semantics).
func Array(elems []Value) Value {
	return Value{tag: TagArray, arr: newArrayHandle(elems)}
}

func (v Value) ArrayElems() []Value {
	if v.arr == nil {
		return nil
	}
	return v.arr.elems
}

func (v Value) ArrayLen() int {
	if v.arr == nil {
		return 0
	}
	return len(v.arr.elems)
}

// Object builds an Object value with the given own properties and
// prototype. protoValue may be Undefined() / Null() for no prototype.
func Object(str map[string]Value, sym map[Symbol]Value, proto Value) Value {
	return Value{tag: TagObject, obj: newObjectHandle(str, sym, proto)}
}

func (v Value) ObjectProto() Value {
	if v.obj == nil {
		return Undefined()
	}
	return v.obj.proto
}

// ObjectStrEntries exposes the own string-keyed properties for callers
// outside the package that need to walk them (bytecode's encoder, builtins'
// Object.keys/values/entries). Iteration order matches Go's map iteration,
// which is unspecified — callers that need determinism sort the keys.
func (v Value) ObjectStrEntries() map[string]Value {
	if v.obj == nil {
		return nil
	}
	return v.obj.str
}

// ObjectSymEntries is ObjectStrEntries' symbol-keyed counterpart.
func (v Value) ObjectSymEntries() map[Symbol]Value {
	if v.obj == nil {
		return nil
	}
	return v.obj.sym
}

// Retain increments the refcount of any compound handle this Value carries.
// Every binding that stores a copy of a compound Value (a register move, an
// object field write, a closure capture) must call Retain exactly once so
// the unique() check stays accurate.
func (v Value) Retain() Value {
	if v.arr != nil {
		v.arr.retain()
	}
	if v.obj != nil {
		v.obj.retain()
	}
	if v.fn != nil {
		v.fn.retain()
	}
	if v.cls != nil {
		v.cls.retain()
	}
	return v
}

// Release decrements the refcount of any compound handle. Callers that
// overwrite a register or drop the last binding to a Value should call
// Release so unrelated bindings downstream correctly observe uniqueness.
func (v Value) Release() {
	if v.arr != nil {
		v.arr.release()
	}
	if v.obj != nil {
		v.obj.release()
	}
	if v.fn != nil {
		v.fn.release()
	}
	if v.cls != nil {
		v.cls.release()
	}
}

// Identity returns a process-local, stable-for-the-handle's-lifetime
// identifier for v's compound backing handle, or 0 for primitives (which
// have no shared handle to speak of). Package storage uses this as the key
// of its identity-dedup cache, keyed on the in-memory handle, so storing the
// same in-memory Array/Object/Function/Class twice reuses the entry written
// the first time without needing to re-serialize or content-hash it.
func (v Value) Identity() uintptr {
	switch {
	case v.arr != nil:
		return uintptr(unsafe.Pointer(v.arr))
	case v.obj != nil:
		return uintptr(unsafe.Pointer(v.obj))
	case v.fn != nil:
		return uintptr(unsafe.Pointer(v.fn))
	case v.cls != nil:
		return uintptr(unsafe.Pointer(v.cls))
	default:
		return 0
	}
}

// Unique reports whether the compound handle this Value carries (if any) is
// observed by exactly one binding. Primitives are always "unique" in the
// sense that mutation questions don't apply to them.
func (v Value) Unique() bool {
	switch v.tag {
	case TagArray:
		return v.arr.unique()
	case TagObject:
		return v.obj.unique()
	default:
		return true
	}
}
