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
	"fmt"
	"os"

	"github.com/valuescript/vsgo/value"
	"github.com/valuescript/vsgo/vm"
)

// consoleObject implements `console.log/info/warn/error`, distinguished by
// level, separate from the plain `Debug` inspection object. `log` and `info`
// write to stdout the way a host embedding this VM would wire its own
// terminal; `warn` and `error` go to stderr.
func consoleObject() value.Value {
	logFn := func(w *os.File) func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
		return func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
			fmt.Fprintln(w, prettyJoin(args))
			return value.Undefined(), nil
		}
	}
	members := map[string]value.Value{
		"log":   value.DynamicVal(&vm.GoFunc{Name: "log", Fn: logFn(os.Stdout)}),
		"warn":  value.DynamicVal(&vm.GoFunc{Name: "warn", Fn: logFn(os.Stderr)}),
		"error": value.DynamicVal(&vm.GoFunc{Name: "error", Fn: logFn(os.Stderr)}),
		"info":  value.DynamicVal(&vm.GoFunc{Name: "info", Fn: logFn(os.Stdout)}),
	}
	return value.StaticVal(&value.StaticObject{Name: "console", Members: members})
}

func prettyJoin(args []value.Value) string {
	out := ""
	for i, a := range args {
		if i > 0 {
			out += " "
		}
		out += value.Pretty(a)
	}
	return out
}
