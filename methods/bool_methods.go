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

package methods

import (
	"github.com/valuescript/vsgo/value"
	"github.com/valuescript/vsgo/vm"
)

func boolMethod(v value.Value, name string) (value.Value, bool) {
	switch name {
	case "toString":
		return value.DynamicVal(&vm.GoFunc{Name: name, Fn: func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
			return value.String(value.ValToString(this)), nil
		}}), true
	case "valueOf":
		return value.DynamicVal(&vm.GoFunc{Name: name, Fn: func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
			return this, nil
		}}), true
	}
	return value.Value{}, false
}
