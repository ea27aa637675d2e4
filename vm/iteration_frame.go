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

package vm

import "github.com/valuescript/vsgo/value"

// IterKind selects which array higher-order method an IterationFrame drives.
type IterKind uint8

const (
	IterForEach IterKind = iota
	IterMap
	IterFilter
	IterFind
	IterFindIndex
	IterSome
	IterEvery
	IterReduce
	IterReduceRight
	IterFlatMap
)

// FrameCallable is implemented by Dynamic callables that expand into a Frame
// of their own instead of completing inside one native step. newCallFrame
// checks for it before NativeCallable, so calling one pushes the returned
// Frame onto whatever stack is driving the call — a Machine's, or a
// suspended Generator's private one.
type FrameCallable interface {
	value.Dynamic
	CallFrame(m *Machine, this value.Value, args []value.Value) (Frame, error)
}

// ArrayIteration is the callable behind Array.prototype's callback-driven
// methods (map, filter, reduce, ...). It carries no per-call state: each
// call expands into a fresh IterationFrame, so every callback invocation is
// an ordinary frame push and a callback that throws unwinds through the
// same catch machinery as any other call.
type ArrayIteration struct {
	Name string
	Kind IterKind
}

var _ FrameCallable = (*ArrayIteration)(nil)

func (a *ArrayIteration) TypeOf() string    { return "function" }
func (a *ArrayIteration) ClassName() string { return "Function" }
func (a *ArrayIteration) Pretty() string    { return "function " + a.Name + "() { [native code] }" }
func (a *ArrayIteration) Codify() string    { return a.Pretty() }
func (a *ArrayIteration) Callable() bool    { return true }

func (a *ArrayIteration) Sub(key value.Value) (value.Value, error) {
	if key.Tag() == value.TagString && key.StringVal() == "name" {
		return value.String(a.Name), nil
	}
	return value.Undefined(), nil
}

func (a *ArrayIteration) SubMov(key, val value.Value) error { return nil }

func (a *ArrayIteration) CallFrame(m *Machine, this value.Value, args []value.Value) (Frame, error) {
	recv, err := value.Resolve(this)
	if err != nil {
		return nil, err
	}
	if !recv.IsArray() {
		return nil, &value.ThrownError{Value: value.TypeError("%s called on a non-array receiver", a.Name)}
	}
	callback := Arg(args, 0)
	if !callback.IsCallable() {
		return nil, &value.ThrownError{Value: value.TypeError("%s callback is not a function", a.Name)}
	}
	f := &IterationFrame{
		kind:     a.Kind,
		arr:      recv,
		elems:    recv.ArrayElems(),
		callback: callback,
	}
	if (a.Kind == IterReduce || a.Kind == IterReduceRight) && len(args) > 1 {
		f.acc = args[1]
		f.hasAcc = true
	}
	return f, nil
}

// IterationFrame runs one array higher-order method as its own activation on
// the call stack. Each Step pushes one callback invocation; Resume folds the
// callback's result into the accumulating state and advances, so the loop
// suspends at exactly the same boundaries a hand-written bytecode loop would.
type IterationFrame struct {
	kind     IterKind
	arr      value.Value
	elems    []value.Value
	callback value.Value

	idx     int
	started bool
	out     []value.Value
	acc     value.Value
	hasAcc  bool

	finished bool
	result   value.Value

	pendingThrow *value.Value
}

var _ Frame = (*IterationFrame)(nil)

// pos maps the loop counter to an element index: reduceRight walks the array
// backwards, everything else forwards.
func (f *IterationFrame) pos(i int) int {
	if f.kind == IterReduceRight {
		return len(f.elems) - 1 - i
	}
	return i
}

func (f *IterationFrame) Step(m *Machine) (Signal, error) {
	if f.pendingThrow != nil {
		v := *f.pendingThrow
		f.pendingThrow = nil
		return throwSignal(v), nil
	}
	if f.finished {
		return popSignal(f.result), nil
	}

	if !f.started {
		f.started = true
		if (f.kind == IterReduce || f.kind == IterReduceRight) && !f.hasAcc {
			if len(f.elems) == 0 {
				return throwSignal(value.TypeError("reduce of empty array with no initial value")), nil
			}
			f.acc = f.elems[f.pos(0)]
			f.idx = 1
		}
	}

	if f.idx >= len(f.elems) {
		f.finish()
		return popSignal(f.result), nil
	}

	elem := f.elems[f.pos(f.idx)]
	var callArgs []value.Value
	if f.kind == IterReduce || f.kind == IterReduceRight {
		callArgs = []value.Value{f.acc, elem, value.Number(float64(f.pos(f.idx))), f.arr}
	} else {
		callArgs = []value.Value{elem, value.Number(float64(f.idx)), f.arr}
	}

	child, err := m.newCallFrame(f.callback, value.Undefined(), callArgs)
	if err != nil {
		if te, ok := err.(*value.ThrownError); ok {
			return throwSignal(te.Value), nil
		}
		return Signal{}, err
	}
	return pushSignal(child), nil
}

func (f *IterationFrame) Resume(result value.Value, thrown bool) error {
	if thrown {
		f.pendingThrow = &result
		return nil
	}

	elem := f.elems[f.pos(f.idx)]
	switch f.kind {
	case IterForEach:
		// callback return value is discarded
	case IterMap, IterFlatMap:
		f.out = append(f.out, result)
	case IterFilter:
		if result.IsTruthy() {
			f.out = append(f.out, elem.Retain())
		}
	case IterFind:
		if result.IsTruthy() {
			f.finished = true
			f.result = elem
		}
	case IterFindIndex:
		if result.IsTruthy() {
			f.finished = true
			f.result = value.Number(float64(f.idx))
		}
	case IterSome:
		if result.IsTruthy() {
			f.finished = true
			f.result = value.Bool(true)
		}
	case IterEvery:
		if !result.IsTruthy() {
			f.finished = true
			f.result = value.Bool(false)
		}
	case IterReduce, IterReduceRight:
		f.acc = result
	}
	f.idx++
	return nil
}

// finish settles the frame's result once the loop walked off the end without
// an early exit.
func (f *IterationFrame) finish() {
	f.finished = true
	switch f.kind {
	case IterMap, IterFilter:
		f.result = value.Array(f.out)
	case IterFlatMap:
		var flat []value.Value
		for _, e := range f.out {
			if e.IsArray() {
				for _, inner := range e.ArrayElems() {
					flat = append(flat, inner.Retain())
				}
			} else {
				flat = append(flat, e)
			}
		}
		f.result = value.Array(flat)
	case IterFind:
		f.result = value.Undefined()
	case IterFindIndex:
		f.result = value.Number(-1)
	case IterSome:
		f.result = value.Bool(false)
	case IterEvery:
		f.result = value.Bool(true)
	case IterReduce, IterReduceRight:
		f.result = f.acc
	default:
		f.result = value.Undefined()
	}
}
