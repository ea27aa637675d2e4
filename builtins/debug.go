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
	"github.com/davecgh/go-spew/spew"

	"github.com/valuescript/vsgo/value"
	"github.com/valuescript/vsgo/vm"
)

// debugObject implements the native `Debug` inspection builtin:
// `Debug.trace`/`Debug.dump` defer to spew.Sdump for cycle-safe, indented
// structural dumps of live value graphs, distinct from `Pretty`/`Codify`'s
// user-facing rendering.
func debugObject() value.Value {
	cfg := spew.ConfigState{Indent: "  ", DisableMethods: true, DisablePointerAddresses: true}
	dump := func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
		return value.String(cfg.Sdump(debugSnapshot(vm.Arg(args, 0)))), nil
	}
	members := map[string]value.Value{
		"dump":  value.DynamicVal(&vm.GoFunc{Name: "dump", Fn: dump}),
		"trace": value.DynamicVal(&vm.GoFunc{Name: "trace", Fn: dump}),
	}
	return value.StaticVal(&value.StaticObject{Name: "Debug", Members: members})
}

// debugSnapshot converts v into a plain Go value spew can walk without
// reflecting into value.Value's unexported handle internals, so the dump
// shows the language-level shape rather than Go implementation details.
func debugSnapshot(v value.Value) interface{} {
	resolved, err := value.Resolve(v)
	if err != nil {
		return err.Error()
	}
	switch resolved.Tag() {
	case value.TagArray:
		out := make([]interface{}, resolved.ArrayLen())
		for i, e := range resolved.ArrayElems() {
			out[i] = debugSnapshot(e)
		}
		return out
	case value.TagObject:
		out := map[string]interface{}{}
		for k, v := range resolved.ObjectStrEntries() {
			out[k] = debugSnapshot(v)
		}
		return out
	case value.TagBigInt:
		return resolved.BigInt().String() + "n"
	default:
		return value.Pretty(resolved)
	}
}
