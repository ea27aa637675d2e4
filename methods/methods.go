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

// Package methods implements per-type instance method dispatch: the table
// consulted when bytecode looks up `"abc".length` → already handled inline
// by value.OpSub, but `"abc".toUpperCase`, `[1,2].map`, `(3.5).toFixed`, and
// `10n.toString` all resolve through Lookup, registered into
// value.MethodLookup the same dependency-injection way package builtins
// registers bytecode.BuiltinLookup — methods needs vm.Machine (to drive
// callback invocations for array higher-order methods) which itself depends
// on value, so methods cannot be imported by either.
package methods

import "github.com/valuescript/vsgo/value"

func init() {
	value.MethodLookup = Lookup
}

// Lookup dispatches key against v's per-type method table. Returns ok=false
// for an unknown key, letting value.OpSub fall back to its default
// (Undefined for primitives; MethodLookup is never reached for Array/String
// "length" or numeric index keys, which value.OpSub's own subscript logic
// already resolves before consulting this hook).
func Lookup(v value.Value, key value.Value) (value.Value, bool) {
	if key.Tag() != value.TagString {
		return value.Value{}, false
	}
	name := key.StringVal()

	switch v.Tag() {
	case value.TagString:
		return stringMethod(v, name)
	case value.TagNumber:
		return numberMethod(v, name)
	case value.TagBigInt:
		return bigIntMethod(v, name)
	case value.TagArray:
		return arrayMethod(v, name)
	case value.TagBool:
		return boolMethod(v, name)
	default:
		return value.Value{}, false
	}
}
