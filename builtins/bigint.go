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
	"math"
	"math/big"

	"github.com/valuescript/vsgo/value"
	"github.com/valuescript/vsgo/vm"
)

// bigIntObject backs the global `BigInt` conversion function. asIntN/asUintN
// are the two static members ECMAScript defines for wrapping a BigInt into
// a fixed bit width.
func bigIntObject() value.Value {
	members := map[string]value.Value{
		"asIntN": value.DynamicVal(&vm.GoFunc{Name: "asIntN", Fn: func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
			bits := int(value.ToNumber(vm.Arg(args, 0)))
			n := vm.Arg(args, 1)
			if !n.IsBigInt() {
				return value.Value{}, &value.ThrownError{Value: value.TypeError("asIntN requires a BigInt")}
			}
			return value.BigIntVal(wrapSignedBits(n.BigInt(), bits)), nil
		}}),
		"asUintN": value.DynamicVal(&vm.GoFunc{Name: "asUintN", Fn: func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
			bits := int(value.ToNumber(vm.Arg(args, 0)))
			n := vm.Arg(args, 1)
			if !n.IsBigInt() {
				return value.Value{}, &value.ThrownError{Value: value.TypeError("asUintN requires a BigInt")}
			}
			return value.BigIntVal(wrapUnsignedBits(n.BigInt(), bits)), nil
		}}),
	}
	return value.DynamicVal(&callableNamespace{
		name: "BigInt",
		call: func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
			a := vm.Arg(args, 0)
			if a.IsBigInt() {
				return a, nil
			}
			if a.IsString() {
				n, ok := new(big.Int).SetString(a.StringVal(), 0)
				if !ok {
					return value.Value{}, &value.ThrownError{Value: value.RangeError("cannot convert %q to a BigInt", a.StringVal())}
				}
				return value.BigIntVal(n), nil
			}
			f := value.ToNumber(a)
			if math.IsNaN(f) || math.Trunc(f) != f {
				return value.Value{}, &value.ThrownError{Value: value.RangeError("cannot convert non-integer value to a BigInt")}
			}
			bi, _ := big.NewFloat(f).Int(nil)
			return value.BigIntVal(bi), nil
		},
		members: members,
	})
}

func wrapUnsignedBits(n *big.Int, bits int) *big.Int {
	if bits <= 0 {
		return big.NewInt(0)
	}
	mod := new(big.Int).Lsh(big.NewInt(1), uint(bits))
	out := new(big.Int).Mod(n, mod)
	if out.Sign() < 0 {
		out.Add(out, mod)
	}
	return out
}

func wrapSignedBits(n *big.Int, bits int) *big.Int {
	u := wrapUnsignedBits(n, bits)
	if bits <= 0 {
		return u
	}
	half := new(big.Int).Lsh(big.NewInt(1), uint(bits-1))
	if u.Cmp(half) >= 0 {
		full := new(big.Int).Lsh(big.NewInt(1), uint(bits))
		u.Sub(u, full)
	}
	return u
}
