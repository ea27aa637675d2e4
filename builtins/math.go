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
	"math/rand"

	"github.com/valuescript/vsgo/value"
	"github.com/valuescript/vsgo/vm"
)

func unary(name string, f func(float64) float64) value.Value {
	return value.DynamicVal(&vm.GoFunc{Name: name, Fn: func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
		return value.Number(f(value.ToNumber(vm.Arg(args, 0)))), nil
	}})
}

func mathObject() value.Value {
	members := map[string]value.Value{
		"PI":      value.Number(math.Pi),
		"E":       value.Number(math.E),
		"LN2":     value.Number(math.Ln2),
		"LN10":    value.Number(math.Log(10)),
		"SQRT2":   value.Number(math.Sqrt2),
		"abs":     unary("abs", math.Abs),
		"floor":   unary("floor", math.Floor),
		"ceil":    unary("ceil", math.Ceil),
		"round":   unary("round", math.Round),
		"trunc":   unary("trunc", math.Trunc),
		"sqrt":    unary("sqrt", math.Sqrt),
		"cbrt":    unary("cbrt", math.Cbrt),
		"sign": unary("sign", func(f float64) float64 {
			switch {
			case f > 0:
				return 1
			case f < 0:
				return -1
			default:
				return f
			}
		}),
		"log":  unary("log", math.Log),
		"log2": unary("log2", math.Log2),
		"log10": unary("log10", math.Log10),
		"sin":  unary("sin", math.Sin),
		"cos":  unary("cos", math.Cos),
		"tan":  unary("tan", math.Tan),
		"pow": value.DynamicVal(&vm.GoFunc{Name: "pow", Fn: func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
			return value.Number(math.Pow(value.ToNumber(vm.Arg(args, 0)), value.ToNumber(vm.Arg(args, 1)))), nil
		}}),
		"max": value.DynamicVal(&vm.GoFunc{Name: "max", Fn: func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
			return foldExtreme(args, math.Max, math.Inf(-1)), nil
		}}),
		"min": value.DynamicVal(&vm.GoFunc{Name: "min", Fn: func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
			return foldExtreme(args, math.Min, math.Inf(1)), nil
		}}),
		"random": value.DynamicVal(&vm.GoFunc{Name: "random", Fn: func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
			return value.Number(rand.Float64()), nil
		}}),
		"hypot": value.DynamicVal(&vm.GoFunc{Name: "hypot", Fn: func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
			return value.Number(math.Hypot(value.ToNumber(vm.Arg(args, 0)), value.ToNumber(vm.Arg(args, 1)))), nil
		}}),
	}
	return value.StaticVal(&value.StaticObject{Name: "Math", Members: members})
}

func foldExtreme(args []value.Value, f func(a, b float64) float64, start float64) value.Value {
	acc := start
	for _, a := range args {
		n := value.ToNumber(a)
		if math.IsNaN(n) {
			return value.Number(math.NaN())
		}
		acc = f(acc, n)
	}
	if len(args) == 0 {
		return value.Number(start)
	}
	return value.Number(acc)
}
