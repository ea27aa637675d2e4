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

// GoFunc adapts a plain Go closure into a callable ValueScript value. Builtin
// functions (Math.max, console.log, ...) and every generator's
// .next/.return/.throw method are GoFuncs; the array higher-order methods
// (Array.prototype.map, ...) are ArrayIteration values instead (see
// iteration_frame.go).
type GoFunc struct {
	Name string
	Fn   func(m *Machine, this value.Value, args []value.Value) (value.Value, error)
}

var _ NativeCallable = (*GoFunc)(nil)

func (g *GoFunc) TypeOf() string    { return "function" }
func (g *GoFunc) ClassName() string { return "Function" }
func (g *GoFunc) Pretty() string    { return "function " + g.Name + "() { [native code] }" }
func (g *GoFunc) Codify() string    { return g.Pretty() }

func (g *GoFunc) Sub(key value.Value) (value.Value, error) {
	if key.Tag() == value.TagString && key.StringVal() == "name" {
		return value.String(g.Name), nil
	}
	return value.Undefined(), nil
}

func (g *GoFunc) SubMov(key, val value.Value) error {
	return nil
}

// Callable marks GoFunc as invocable for value.Value.IsCallable's Dynamic
// path.
func (g *GoFunc) Callable() bool { return true }

func (g *GoFunc) Invoke(m *Machine, this value.Value, args []value.Value) (value.Value, error) {
	return g.Fn(m, this, args)
}

// Arg fetches args[i] or value.Undefined() if the call supplied fewer
// arguments, matching ECMAScript's "missing arguments are undefined".
func Arg(args []value.Value, i int) value.Value {
	if i < 0 || i >= len(args) {
		return value.Undefined()
	}
	return args[i]
}
