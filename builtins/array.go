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

package builtins

import (
	"github.com/valuescript/vsgo/value"
	"github.com/valuescript/vsgo/vm"
)

// arrayObject backs the global `Array` binding: both a conversion/construction
// function (`Array(1,2,3)`, `Array(5)` for a sparse-filled array) and a
// static namespace (`Array.isArray`, `Array.from`, `Array.of`). Per-instance
// methods (`push`, `map`, `filter`, ...) live in package methods, dispatched
// through value.MethodLookup, not here — the namespace object and the
// instance method table stay separate concerns.
func arrayObject() value.Value {
	members := map[string]value.Value{
		"isArray": value.DynamicVal(&vm.GoFunc{Name: "isArray", Fn: func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
			return value.Bool(vm.Arg(args, 0).IsArray()), nil
		}}),
		"of": value.DynamicVal(&vm.GoFunc{Name: "of", Fn: func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
			elems := make([]value.Value, len(args))
			copy(elems, args)
			return value.Array(elems), nil
		}}),
		"from": value.DynamicVal(&vm.GoFunc{Name: "from", Fn: arrayFrom}),
	}
	return value.DynamicVal(&callableNamespace{
		name: "Array",
		call: func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
			if len(args) == 1 && args[0].IsNumber() {
				n, err := value.ToIndex(args[0])
				if err != nil {
					return value.Value{}, err
				}
				elems := make([]value.Value, n)
				for i := range elems {
					elems[i] = value.Void()
				}
				return value.Array(elems), nil
			}
			elems := make([]value.Value, len(args))
			copy(elems, args)
			return value.Array(elems), nil
		},
		members: members,
	})
}

// arrayFrom implements `Array.from(iterableOrArrayLike, mapFn?)`.
// TODO: the map-callback path for array-like (non-iterable) sources with a
// `length` property but no Symbol.iterator is not implemented; we support
// it for genuine iterables plus array-likes that already resolve via
// GetIterator (arrays, strings, generators).
func arrayFrom(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
	src := vm.Arg(args, 0)
	mapFn := vm.Arg(args, 1)

	elems, err := value.Spread(src)
	if err != nil {
		return value.Value{}, err
	}
	if !mapFn.IsCallable() {
		return value.Array(elems), nil
	}
	out := make([]value.Value, len(elems))
	for i, e := range elems {
		mapped, err := m.Call(mapFn, value.Undefined(), []value.Value{e, value.Number(float64(i))})
		if err != nil {
			return value.Value{}, err
		}
		out[i] = mapped
	}
	return value.Array(out), nil
}
