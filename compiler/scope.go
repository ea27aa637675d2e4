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

package compiler

import (
	"fmt"

	"github.com/valuescript/vsgo/assembly"
)

// binding is one name visible in a scope. Most bindings resolve to a
// register (arg.Kind == ArgRegister): a local variable, a parameter, a
// catch clause's exception name. A top-level function or class declaration
// instead binds its name directly to a Pointer arg: function/class bodies
// are pointer-addressable module definitions, not runtime values that need
// a register to live in, so referencing one by name never needs a `mov` at
// all; it's just the Arg itself, usable anywhere an operand is.
type binding struct {
	arg     assembly.Arg
	isVar   bool // true for `var`-declared names: function-scoped, not block-scoped
	isConst bool
}

// scope is one lexical block. Function parameters and `var` declarations
// live in the function's outermost scope; `let`/`const`/catch-clause
// parameters/for-loop heads each push a narrower one.
type scope struct {
	parent   *scope
	bindings map[string]binding
}

func newScope(parent *scope) *scope {
	return &scope{parent: parent, bindings: map[string]binding{}}
}

func (s *scope) declare(name string, b binding) {
	s.bindings[name] = b
}

func (s *scope) lookup(name string) (binding, bool) {
	for sc := s; sc != nil; sc = sc.parent {
		if b, ok := sc.bindings[name]; ok {
			return b, true
		}
	}
	return binding{}, false
}

// mutatingArrayMethods names the Array.prototype members methods/array_methods.go
// implements in place, so their receiver must arrive uniquely owned
// (sub_call), matching that package's own doc comment on arrayMethod.
var mutatingArrayMethods = map[string]bool{
	"push": true, "pop": true, "shift": true, "unshift": true,
	"reverse": true, "splice": true, "sort": true, "fill": true,
}

func errUnresolved(name string) error {
	return fmt.Errorf("compiler: undeclared identifier %q", name)
}
