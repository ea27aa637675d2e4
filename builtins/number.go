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
	"strconv"

	"github.com/valuescript/vsgo/value"
	"github.com/valuescript/vsgo/vm"
)

func numberObject() value.Value {
	members := map[string]value.Value{
		"MAX_SAFE_INTEGER": value.Number(1<<53 - 1),
		"MIN_SAFE_INTEGER": value.Number(-(1<<53 - 1)),
		"MAX_VALUE":        value.Number(math.MaxFloat64),
		"MIN_VALUE":        value.Number(math.SmallestNonzeroFloat64),
		"EPSILON":          value.Number(2.220446049250313e-16),
		"NaN":              value.Number(math.NaN()),
		"POSITIVE_INFINITY": value.Number(math.Inf(1)),
		"NEGATIVE_INFINITY": value.Number(math.Inf(-1)),
		"isInteger": value.DynamicVal(&vm.GoFunc{Name: "isInteger", Fn: func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
			a := vm.Arg(args, 0)
			if !a.IsNumber() {
				return value.Bool(false), nil
			}
			f := a.Float64()
			return value.Bool(!math.IsNaN(f) && !math.IsInf(f, 0) && f == math.Trunc(f)), nil
		}}),
		"isFinite": value.DynamicVal(&vm.GoFunc{Name: "isFinite", Fn: func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
			a := vm.Arg(args, 0)
			if !a.IsNumber() {
				return value.Bool(false), nil
			}
			f := a.Float64()
			return value.Bool(!math.IsNaN(f) && !math.IsInf(f, 0)), nil
		}}),
		"isNaN": value.DynamicVal(&vm.GoFunc{Name: "isNaN", Fn: func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
			a := vm.Arg(args, 0)
			return value.Bool(a.IsNumber() && math.IsNaN(a.Float64())), nil
		}}),
		"parseFloat": value.DynamicVal(&vm.GoFunc{Name: "parseFloat", Fn: func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
			s := value.ValToString(vm.Arg(args, 0))
			f, ok := parseLeadingFloat(s)
			if !ok {
				return value.Number(math.NaN()), nil
			}
			return value.Number(f), nil
		}}),
		"parseInt": value.DynamicVal(&vm.GoFunc{Name: "parseInt", Fn: func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
			s := value.ValToString(vm.Arg(args, 0))
			base := 10
			if b := vm.Arg(args, 1); b.IsNumber() && b.Float64() != 0 {
				base = int(b.Float64())
			}
			n, ok := parseLeadingInt(s, base)
			if !ok {
				return value.Number(math.NaN()), nil
			}
			return value.Number(float64(n)), nil
		}}),
	}
	return value.DynamicVal(&callableNamespace{
		name: "Number",
		call: func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
			if len(args) == 0 {
				return value.Number(0), nil
			}
			return value.Number(value.ToNumber(args[0])), nil
		},
		members: members,
	})
}

// parseLeadingFloat mirrors JS Number.parseFloat: parse the longest valid
// numeric prefix, ignoring trailing garbage.
func parseLeadingFloat(s string) (float64, bool) {
	i := 0
	n := len(s)
	for i < n && (s[i] == ' ' || s[i] == '\t' || s[i] == '\n') {
		i++
	}
	start := i
	if i < n && (s[i] == '+' || s[i] == '-') {
		i++
	}
	sawDigit := false
	for i < n && s[i] >= '0' && s[i] <= '9' {
		i++
		sawDigit = true
	}
	if i < n && s[i] == '.' {
		i++
		for i < n && s[i] >= '0' && s[i] <= '9' {
			i++
			sawDigit = true
		}
	}
	if !sawDigit {
		return 0, false
	}
	if i < n && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < n && (s[j] == '+' || s[j] == '-') {
			j++
		}
		if j < n && s[j] >= '0' && s[j] <= '9' {
			for j < n && s[j] >= '0' && s[j] <= '9' {
				j++
			}
			i = j
		}
	}
	f, err := strconv.ParseFloat(s[start:i], 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func parseLeadingInt(s string, base int) (int64, bool) {
	i := 0
	n := len(s)
	for i < n && (s[i] == ' ' || s[i] == '\t' || s[i] == '\n') {
		i++
	}
	start := i
	if i < n && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digitsStart := i
	for i < n && isDigitInBase(s[i], base) {
		i++
	}
	if i == digitsStart {
		return 0, false
	}
	v, err := strconv.ParseInt(s[start:i], base, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func isDigitInBase(c byte, base int) bool {
	var d int
	switch {
	case c >= '0' && c <= '9':
		d = int(c - '0')
	case c >= 'a' && c <= 'z':
		d = int(c-'a') + 10
	case c >= 'A' && c <= 'Z':
		d = int(c-'A') + 10
	default:
		return false
	}
	return d < base
}
