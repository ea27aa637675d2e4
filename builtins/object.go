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
	"sort"

	"github.com/valuescript/vsgo/value"
	"github.com/valuescript/vsgo/vm"
)

// objectObject backs the global `Object`, whose `assign` member is the
// primitive compiler/expr.go desugars object-spread (`{...o, a: 2}`) into:
// bytecode has no key-enumeration opcode (its instruction set is
// register-to-register, not graph-walking), so spread leans on this builtin
// the same way array higher-order methods lean on methods/array_methods.go
// rather than on new bytecode.
func objectObject() value.Value {
	members := map[string]value.Value{
		"assign": value.DynamicVal(&vm.GoFunc{Name: "assign", Fn: objectAssign}),
		"keys":   value.DynamicVal(&vm.GoFunc{Name: "keys", Fn: objectKeys}),
		"values": value.DynamicVal(&vm.GoFunc{Name: "values", Fn: objectValues}),
		"entries": value.DynamicVal(&vm.GoFunc{Name: "entries", Fn: objectEntries}),
	}
	return value.StaticVal(&value.StaticObject{Name: "Object", Members: members})
}

// objectAssign mutates args[0] (assumed uniquely owned — the compiler only
// ever targets a temp register it just built a fresh literal into) with
// every own string-keyed entry of args[1:], in order, and returns it.
func objectAssign(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
	dst := vm.Arg(args, 0)
	if !dst.IsObject() {
		return dst, nil
	}
	dst = value.EnsureUniqueObject(dst)
	for _, src := range args[1:] {
		if !src.IsObject() {
			continue
		}
		for _, k := range sortedKeys(src) {
			if err := value.OpSubMov(dst, value.String(k), src.ObjectStrEntries()[k]); err != nil {
				return value.Value{}, err
			}
		}
	}
	return dst, nil
}

func objectKeys(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
	src := vm.Arg(args, 0)
	if !src.IsObject() {
		return value.Array(nil), nil
	}
	keys := sortedKeys(src)
	out := make([]value.Value, len(keys))
	for i, k := range keys {
		out[i] = value.String(k)
	}
	return value.Array(out), nil
}

func objectValues(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
	src := vm.Arg(args, 0)
	if !src.IsObject() {
		return value.Array(nil), nil
	}
	entries := src.ObjectStrEntries()
	keys := sortedKeys(src)
	out := make([]value.Value, len(keys))
	for i, k := range keys {
		out[i] = entries[k]
	}
	return value.Array(out), nil
}

func objectEntries(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
	src := vm.Arg(args, 0)
	if !src.IsObject() {
		return value.Array(nil), nil
	}
	entries := src.ObjectStrEntries()
	keys := sortedKeys(src)
	out := make([]value.Value, len(keys))
	for i, k := range keys {
		out[i] = value.Array([]value.Value{value.String(k), entries[k]})
	}
	return value.Array(out), nil
}

// sortedKeys gives Object.keys/values/entries a deterministic order despite
// value.ObjectStrEntries' own doc comment warning that map iteration order
// is unspecified; real engines preserve insertion order, which this repo's
// map-backed Object representation doesn't track (see DESIGN.md's Open
// Question on the dropped radix-tree), so lexical order is the next best
// externally-observable determinism we can offer.
func sortedKeys(v value.Value) []string {
	entries := v.ObjectStrEntries()
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
