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

// symbolObject backs the global `Symbol` namespace, exposing only the
// well-known symbols value.Symbol enumerates; there are no user-defined
// symbols in this core. Calling `Symbol()` directly is a TypeError, as it
// is in ECMAScript for the `new`-less construction form, but here it's
// unconditional since we never mint fresh symbol identities.
func symbolObject() value.Value {
	members := map[string]value.Value{
		"iterator":      value.SymbolVal(value.SymbolIterator),
		"asyncIterator": value.SymbolVal(value.SymbolAsyncIterator),
		"hasInstance":   value.SymbolVal(value.SymbolHasInstance),
		"toPrimitive":   value.SymbolVal(value.SymbolToPrimitive),
	}
	return value.DynamicVal(&callableNamespace{
		name: "Symbol",
		call: func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
			return value.Value{}, &value.ThrownError{Value: value.TypeError("Symbol is not a constructor in this runtime; only well-known symbols are supported")}
		},
		members: members,
	})
}
