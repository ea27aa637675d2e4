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

// callableNamespace backs every built-in that is both a conversion function
// (`Number(x)`, `String(x)`, `Array(...)`, `BigInt(x)`) and a static member
// table (`Number.isInteger`, `Array.isArray`): value.StaticObject alone can't
// be invoked, and a bare vm.GoFunc can't carry extra members, so this type
// composes both roles, the same way value.ErrorObject composes "is an
// object" with "is special" behind value.Dynamic.
type callableNamespace struct {
	name    string
	call    func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error)
	members map[string]value.Value
}

var _ value.Dynamic = (*callableNamespace)(nil)
var _ vm.NativeCallable = (*callableNamespace)(nil)

func (n *callableNamespace) TypeOf() string    { return "function" }
func (n *callableNamespace) ClassName() string { return "Function" }
func (n *callableNamespace) Pretty() string    { return "function " + n.name + "() { [native code] }" }
func (n *callableNamespace) Codify() string    { return n.Pretty() }
func (n *callableNamespace) Callable() bool    { return true }

func (n *callableNamespace) Sub(key value.Value) (value.Value, error) {
	if key.Tag() != value.TagString {
		return value.Undefined(), nil
	}
	if key.StringVal() == "name" {
		return value.String(n.name), nil
	}
	if v, ok := n.members[key.StringVal()]; ok {
		return v, nil
	}
	return value.Undefined(), nil
}

func (n *callableNamespace) SubMov(key, val value.Value) error { return nil }

func (n *callableNamespace) Invoke(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
	return n.call(m, this, args)
}
