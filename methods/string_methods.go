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
	"strings"

	"github.com/valuescript/vsgo/value"
	"github.com/valuescript/vsgo/vm"
)

func strFn(name string, fn func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error)) value.Value {
	return value.DynamicVal(&vm.GoFunc{Name: name, Fn: fn})
}

func stringMethod(v value.Value, name string) (value.Value, bool) {
	switch name {
	case "toUpperCase":
		return strFn(name, func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
			return value.String(strings.ToUpper(this.StringVal())), nil
		}), true
	case "toLowerCase":
		return strFn(name, func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
			return value.String(strings.ToLower(this.StringVal())), nil
		}), true
	case "trim":
		return strFn(name, func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
			return value.String(strings.TrimSpace(this.StringVal())), nil
		}), true
	case "trimStart":
		return strFn(name, func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
			return value.String(strings.TrimLeft(this.StringVal(), " \t\n\r")), nil
		}), true
	case "trimEnd":
		return strFn(name, func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
			return value.String(strings.TrimRight(this.StringVal(), " \t\n\r")), nil
		}), true
	case "includes":
		return strFn(name, func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
			return value.Bool(strings.Contains(this.StringVal(), value.ValToString(vm.Arg(args, 0)))), nil
		}), true
	case "startsWith":
		return strFn(name, func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
			return value.Bool(strings.HasPrefix(this.StringVal(), value.ValToString(vm.Arg(args, 0)))), nil
		}), true
	case "endsWith":
		return strFn(name, func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
			return value.Bool(strings.HasSuffix(this.StringVal(), value.ValToString(vm.Arg(args, 0)))), nil
		}), true
	case "indexOf":
		return strFn(name, func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
			runes := []rune(this.StringVal())
			target := value.ValToString(vm.Arg(args, 0))
			return value.Number(float64(runeIndexOf(runes, target))), nil
		}), true
	case "lastIndexOf":
		return strFn(name, func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
			idx := strings.LastIndex(this.StringVal(), value.ValToString(vm.Arg(args, 0)))
			if idx < 0 {
				return value.Number(-1), nil
			}
			return value.Number(float64(len([]rune(this.StringVal()[:idx])))), nil
		}), true
	case "slice":
		return strFn(name, func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
			runes := []rune(this.StringVal())
			start, end := sliceBounds(len(runes), args)
			if start >= end {
				return value.String(""), nil
			}
			return value.String(string(runes[start:end])), nil
		}), true
	case "substring":
		return strFn(name, func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
			runes := []rune(this.StringVal())
			start := clampIndex(vm.Arg(args, 0), len(runes))
			end := len(runes)
			if !vm.Arg(args, 1).IsUndefined() {
				end = clampIndex(vm.Arg(args, 1), len(runes))
			}
			if start > end {
				start, end = end, start
			}
			return value.String(string(runes[start:end])), nil
		}), true
	case "charAt":
		return strFn(name, func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
			runes := []rune(this.StringVal())
			idx := int(value.ToNumber(vm.Arg(args, 0)))
			if idx < 0 || idx >= len(runes) {
				return value.String(""), nil
			}
			return value.String(string(runes[idx])), nil
		}), true
	case "charCodeAt":
		return strFn(name, func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
			runes := []rune(this.StringVal())
			idx := int(value.ToNumber(vm.Arg(args, 0)))
			if idx < 0 || idx >= len(runes) {
				return value.Number(math.NaN()), nil
			}
			return value.Number(float64(runes[idx])), nil
		}), true
	case "split":
		return strFn(name, func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
			sep := vm.Arg(args, 0)
			str := this.StringVal()
			var parts []string
			if sep.IsUndefined() {
				parts = []string{str}
			} else {
				parts = strings.Split(str, value.ValToString(sep))
			}
			out := make([]value.Value, len(parts))
			for i, p := range parts {
				out[i] = value.String(p)
			}
			return value.Array(out), nil
		}), true
	case "repeat":
		return strFn(name, func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
			n := int(value.ToNumber(vm.Arg(args, 0)))
			if n < 0 {
				return value.Value{}, &value.ThrownError{Value: value.RangeError("repeat count must be non-negative")}
			}
			return value.String(strings.Repeat(this.StringVal(), n)), nil
		}), true
	case "padStart":
		return strFn(name, func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
			return value.String(pad(this.StringVal(), args, true)), nil
		}), true
	case "padEnd":
		return strFn(name, func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
			return value.String(pad(this.StringVal(), args, false)), nil
		}), true
	case "replace":
		return strFn(name, func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
			old := value.ValToString(vm.Arg(args, 0))
			repl := value.ValToString(vm.Arg(args, 1))
			return value.String(strings.Replace(this.StringVal(), old, repl, 1)), nil
		}), true
	case "replaceAll":
		return strFn(name, func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
			old := value.ValToString(vm.Arg(args, 0))
			repl := value.ValToString(vm.Arg(args, 1))
			return value.String(strings.ReplaceAll(this.StringVal(), old, repl)), nil
		}), true
	case "concat":
		return strFn(name, func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
			out := this.StringVal()
			for _, a := range args {
				out += value.ValToString(a)
			}
			return value.String(out), nil
		}), true
	case "toString", "valueOf":
		return strFn(name, func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
			return this, nil
		}), true
	}
	return value.Value{}, false
}

func runeIndexOf(runes []rune, target string) int {
	targetRunes := []rune(target)
	if len(targetRunes) == 0 {
		return 0
	}
	for i := 0; i+len(targetRunes) <= len(runes); i++ {
		match := true
		for j, r := range targetRunes {
			if runes[i+j] != r {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}

func sliceBounds(length int, args []value.Value) (int, int) {
	start := 0
	end := length
	if len(args) > 0 && !args[0].IsUndefined() {
		start = normalizeIndex(int(value.ToNumber(args[0])), length)
	}
	if len(args) > 1 && !args[1].IsUndefined() {
		end = normalizeIndex(int(value.ToNumber(args[1])), length)
	}
	if start < 0 {
		start = 0
	}
	if end > length {
		end = length
	}
	return start, end
}

func normalizeIndex(idx, length int) int {
	if idx < 0 {
		idx += length
	}
	return idx
}

func clampIndex(v value.Value, length int) int {
	n := int(value.ToNumber(v))
	if n < 0 {
		return 0
	}
	if n > length {
		return length
	}
	return n
}

func pad(s string, args []value.Value, start bool) string {
	targetLen := int(value.ToNumber(vm.Arg(args, 0)))
	filler := " "
	if !vm.Arg(args, 1).IsUndefined() {
		filler = value.ValToString(vm.Arg(args, 1))
	}
	runes := []rune(s)
	if filler == "" || targetLen <= len(runes) {
		return s
	}
	fillerRunes := []rune(filler)
	need := targetLen - len(runes)
	padding := make([]rune, 0, need)
	for len(padding) < need {
		padding = append(padding, fillerRunes...)
	}
	padding = padding[:need]
	if start {
		return string(padding) + s
	}
	return s + string(padding)
}
