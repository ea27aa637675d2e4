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

package methods

import (
	"sort"
	"strings"

	"github.com/valuescript/vsgo/value"
	"github.com/valuescript/vsgo/vm"
)

func arrFn(name string, fn func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error)) value.Value {
	return value.DynamicVal(&vm.GoFunc{Name: name, Fn: fn})
}

// iterFn returns the frame-expanding callable for a callback-driven method:
// calling it pushes a vm.IterationFrame, so each callback invocation runs as
// its own activation rather than recursing inside one native step.
func iterFn(name string, kind vm.IterKind) value.Value {
	return value.DynamicVal(&vm.ArrayIteration{Name: name, Kind: kind})
}

// arrayMethod dispatches Array.prototype method names. Mutating methods
// (push/pop/shift/unshift/splice/reverse/sort/fill) assume `this` already arrived
// uniquely owned: the compiler emits sub_call (not const_sub_call) for these
// names, and vm/call.go's OpSubCall handler runs EnsureUniqueArray before the
// method ever sees `this`.
func arrayMethod(v value.Value, name string) (value.Value, bool) {
	switch name {
	case "push":
		return arrFn(name, func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
			return value.Number(float64(value.ArrayPush(this, args...))), nil
		}), true
	case "pop":
		return arrFn(name, func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
			return value.ArrayPop(this), nil
		}), true
	case "shift":
		return arrFn(name, func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
			return value.ArrayShift(this), nil
		}), true
	case "unshift":
		return arrFn(name, func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
			return value.Number(float64(value.ArrayUnshift(this, args...))), nil
		}), true
	case "reverse":
		return arrFn(name, func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
			value.ArrayReverse(this)
			return this, nil
		}), true
	case "splice":
		return arrFn(name, func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
			elems := this.ArrayElems()
			length := len(elems)
			start := 0
			if len(args) > 0 {
				start = normalizeSpliceStart(int(value.ToNumber(args[0])), length)
			}
			deleteCount := length - start
			if len(args) > 1 {
				deleteCount = int(value.ToNumber(args[1]))
				if deleteCount < 0 {
					deleteCount = 0
				}
				if deleteCount > length-start {
					deleteCount = length - start
				}
			}
			var items []value.Value
			if len(args) > 2 {
				items = args[2:]
			}
			removed := value.ArraySplice(this, start, deleteCount, items)
			return value.Array(removed), nil
		}), true
	case "sort":
		return arrFn(name, func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
			elems := append([]value.Value{}, this.ArrayElems()...)
			cmp := vm.Arg(args, 0)
			var sortErr error
			sort.SliceStable(elems, func(i, j int) bool {
				if sortErr != nil {
					return false
				}
				if cmp.IsCallable() {
					res, err := m.Call(cmp, value.Undefined(), []value.Value{elems[i], elems[j]})
					if err != nil {
						sortErr = err
						return false
					}
					return value.ToNumber(res) < 0
				}
				return value.ValToString(elems[i]) < value.ValToString(elems[j])
			})
			if sortErr != nil {
				return value.Value{}, sortErr
			}
			value.ArraySetElems(this, elems)
			return this, nil
		}), true
	case "fill":
		return arrFn(name, func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
			elems := this.ArrayElems()
			fillVal := vm.Arg(args, 0)
			start, end := sliceBounds(len(elems), args[minLen(len(args), 1):])
			for i := start; i < end; i++ {
				elems[i] = fillVal.Retain()
			}
			return this, nil
		}), true

	case "slice":
		return arrFn(name, func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
			elems := this.ArrayElems()
			start, end := sliceBounds(len(elems), args)
			if start >= end {
				return value.Array(nil), nil
			}
			out := make([]value.Value, end-start)
			for i := start; i < end; i++ {
				out[i-start] = elems[i].Retain()
			}
			return value.Array(out), nil
		}), true
	case "concat":
		return arrFn(name, func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
			out := append([]value.Value{}, this.ArrayElems()...)
			for _, a := range args {
				if a.IsArray() {
					out = append(out, a.ArrayElems()...)
				} else {
					out = append(out, a)
				}
			}
			retained := make([]value.Value, len(out))
			for i, e := range out {
				retained[i] = e.Retain()
			}
			return value.Array(retained), nil
		}), true
	case "join":
		return arrFn(name, func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
			sep := ","
			if a := vm.Arg(args, 0); !a.IsUndefined() {
				sep = value.ValToString(a)
			}
			elems := this.ArrayElems()
			parts := make([]string, len(elems))
			for i, e := range elems {
				if e.IsNullish() || e.IsVoid() {
					parts[i] = ""
					continue
				}
				parts[i] = value.ValToString(e)
			}
			return value.String(strings.Join(parts, sep)), nil
		}), true
	case "includes":
		return arrFn(name, func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
			target := vm.Arg(args, 0)
			for _, e := range this.ArrayElems() {
				if value.OpTripleEq(e, target) {
					return value.Bool(true), nil
				}
			}
			return value.Bool(false), nil
		}), true
	case "indexOf":
		return arrFn(name, func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
			target := vm.Arg(args, 0)
			for i, e := range this.ArrayElems() {
				if value.OpTripleEq(e, target) {
					return value.Number(float64(i)), nil
				}
			}
			return value.Number(-1), nil
		}), true
	case "lastIndexOf":
		return arrFn(name, func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
			target := vm.Arg(args, 0)
			elems := this.ArrayElems()
			for i := len(elems) - 1; i >= 0; i-- {
				if value.OpTripleEq(elems[i], target) {
					return value.Number(float64(i)), nil
				}
			}
			return value.Number(-1), nil
		}), true
	case "flat":
		return arrFn(name, func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
			depth := 1
			if a := vm.Arg(args, 0); !a.IsUndefined() {
				depth = int(value.ToNumber(a))
			}
			return value.Array(flatten(this.ArrayElems(), depth)), nil
		}), true
	case "flatMap":
		return iterFn(name, vm.IterFlatMap), true

	case "forEach":
		return iterFn(name, vm.IterForEach), true
	case "map":
		return iterFn(name, vm.IterMap), true
	case "filter":
		return iterFn(name, vm.IterFilter), true
	case "find":
		return iterFn(name, vm.IterFind), true
	case "findIndex":
		return iterFn(name, vm.IterFindIndex), true
	case "some":
		return iterFn(name, vm.IterSome), true
	case "every":
		return iterFn(name, vm.IterEvery), true
	case "reduce":
		return iterFn(name, vm.IterReduce), true
	case "reduceRight":
		return iterFn(name, vm.IterReduceRight), true
	case "toString":
		return arrFn(name, func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
			return value.String(value.ValToString(this)), nil
		}), true
	}
	return value.Value{}, false
}

func flatten(elems []value.Value, depth int) []value.Value {
	var out []value.Value
	for _, e := range elems {
		if depth > 0 && e.IsArray() {
			out = append(out, flatten(e.ArrayElems(), depth-1)...)
		} else {
			out = append(out, e.Retain())
		}
	}
	return out
}

func normalizeSpliceStart(n, length int) int {
	if n < 0 {
		n += length
		if n < 0 {
			n = 0
		}
	}
	if n > length {
		n = length
	}
	return n
}

func minLen(n, min int) int {
	if n < min {
		return n
	}
	return min
}
