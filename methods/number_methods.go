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
	"math"
	"strconv"

	"github.com/valuescript/vsgo/value"
	"github.com/valuescript/vsgo/vm"
)

func numFn(name string, fn func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error)) value.Value {
	return value.DynamicVal(&vm.GoFunc{Name: name, Fn: fn})
}

func numberMethod(v value.Value, name string) (value.Value, bool) {
	switch name {
	case "toFixed":
		return numFn(name, func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
			digits := 0
			if a := vm.Arg(args, 0); !a.IsUndefined() {
				digits = int(value.ToNumber(a))
			}
			f := value.ToNumber(this)
			if math.IsNaN(f) {
				return value.String("NaN"), nil
			}
			return value.String(strconv.FormatFloat(f, 'f', digits, 64)), nil
		}), true
	case "toPrecision":
		return numFn(name, func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
			f := value.ToNumber(this)
			a := vm.Arg(args, 0)
			if a.IsUndefined() {
				return value.String(value.ValToString(this)), nil
			}
			prec := int(value.ToNumber(a))
			return value.String(strconv.FormatFloat(f, 'g', prec, 64)), nil
		}), true
	case "toString":
		return numFn(name, func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
			f := value.ToNumber(this)
			radix := 10
			if a := vm.Arg(args, 0); !a.IsUndefined() {
				radix = int(value.ToNumber(a))
			}
			if radix == 10 {
				return value.String(value.ValToString(this)), nil
			}
			if math.IsNaN(f) || math.IsInf(f, 0) {
				return value.String(value.ValToString(this)), nil
			}
			neg := f < 0
			i := int64(math.Trunc(math.Abs(f)))
			s := strconv.FormatInt(i, radix)
			if neg {
				s = "-" + s
			}
			return value.String(s), nil
		}), true
	case "valueOf":
		return numFn(name, func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
			return this, nil
		}), true
	}
	return value.Value{}, false
}
