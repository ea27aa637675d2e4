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

// errorConstructor builds one of the four Error-family globals
// (Error/TypeError/RangeError/InternalError) as a callable that constructs
// a value.ErrorObject. `new TypeError("msg")` and bare `TypeError("msg")`
// behave identically, matching ECMAScript's native error constructors
// (calling without `new` still produces an instance).
func errorConstructor(name string, kind value.ErrorKind) value.Value {
	construct := func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
		msg := ""
		if a := vm.Arg(args, 0); !a.IsUndefined() {
			msg = value.ValToString(a)
		}
		return value.NewError(kind, "%s", msg), nil
	}
	members := map[string]value.Value{
		"prototype": value.Undefined(),
	}
	return value.DynamicVal(&errorNamespace{
		callableNamespace: callableNamespace{
			name:    name,
			call:    construct,
			members: members,
		},
		kind: kind,
	})
}

// errorNamespace adds instanceof support to an error constructor: the base
// Error constructor matches every error kind, the specific constructors
// match only their own.
type errorNamespace struct {
	callableNamespace
	kind value.ErrorKind
}

var _ value.HasInstancer = (*errorNamespace)(nil)

func (n *errorNamespace) HasInstance(v value.Value) bool {
	kind, ok := value.ErrorKindOf(v)
	if !ok {
		return false
	}
	return n.kind == value.ErrorGeneric || kind == n.kind
}
