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

package value

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
)

// ToPrimitive implements ECMAScript ToPrimitive with the default hint
// ("number" for everything except Date, which this language does not have).
// Compound values without a user-visible valueOf reduce to their string form.
func ToPrimitive(v Value) (Value, error) {
	v, err := Resolve(v)
	if err != nil {
		return Value{}, err
	}
	switch v.tag {
	case TagArray, TagObject, TagFunction, TagClass, TagStatic, TagDynamic:
		return String(ValToString(v)), nil
	default:
		return v, nil
	}
}

// ToNumber implements ECMAScript ToNumber. It never throws: non-numeric
// compounds convert via ToPrimitive -> string -> NaN-on-failure, so the
// conversion is always deterministic and total.
func ToNumber(v Value) float64 {
	v, err := Resolve(v)
	if err != nil {
		return math.NaN()
	}
	switch v.tag {
	case TagUndefined, TagVoid:
		return math.NaN()
	case TagNull:
		return 0
	case TagBool:
		if v.b {
			return 1
		}
		return 0
	case TagNumber:
		return v.num
	case TagString:
		return stringToNumber(v.str)
	case TagBigInt:
		f, _ := new(big.Float).SetInt(v.bigint).Float64()
		return f
	default:
		prim, err := ToPrimitive(v)
		if err != nil {
			return math.NaN()
		}
		if prim.tag == TagString {
			return stringToNumber(prim.str)
		}
		return ToNumber(prim)
	}
}

func stringToNumber(s string) float64 {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return 0
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return f
	}
	if strings.HasPrefix(trimmed, "0x") || strings.HasPrefix(trimmed, "0X") {
		if n, err := strconv.ParseInt(trimmed[2:], 16, 64); err == nil {
			return float64(n)
		}
	}
	return math.NaN()
}

// ToIndex implements ECMAScript ToIndex: coerce to an integer and reject
// negatives and non-integers (used by array/string subscript and by
// `Array(n)`-style length arguments).
func ToIndex(v Value) (int64, error) {
	n := ToNumber(v)
	if math.IsNaN(n) {
		return 0, nil
	}
	if n < 0 || n != math.Trunc(n) {
		return 0, throwErr(RangeError("index must be a non-negative integer"))
	}
	if n > 1<<53-1 {
		return 0, throwErr(RangeError("index out of range"))
	}
	return int64(n), nil
}

// ValToString implements ECMAScript ToString across every variant.
func ValToString(v Value) string {
	resolved, err := Resolve(v)
	if err != nil {
		return "undefined"
	}
	v = resolved
	switch v.tag {
	case TagUndefined, TagVoid:
		return "undefined"
	case TagNull:
		return "null"
	case TagBool:
		if v.b {
			return "true"
		}
		return "false"
	case TagNumber:
		return numberToString(v.num)
	case TagBigInt:
		return v.bigint.String()
	case TagSymbol:
		return v.sym.String()
	case TagString:
		return v.str
	case TagArray:
		parts := make([]string, len(v.arr.elems))
		for i, e := range v.arr.elems {
			if e.IsNullish() || e.IsVoid() {
				parts[i] = ""
				continue
			}
			parts[i] = ValToString(e)
		}
		return strings.Join(parts, ",")
	case TagObject:
		return "[object Object]"
	case TagFunction:
		return "[function]"
	case TagClass:
		return fmt.Sprintf("[class %s]", v.cls.Name)
	case TagStatic:
		return fmt.Sprintf("[object %s]", v.static.Name)
	case TagDynamic:
		return v.dyn.Pretty()
	default:
		return "undefined"
	}
}

func numberToString(f float64) string {
	if math.IsNaN(f) {
		return "NaN"
	}
	if math.IsInf(f, 1) {
		return "Infinity"
	}
	if math.IsInf(f, -1) {
		return "-Infinity"
	}
	if f == 0 {
		if math.Signbit(f) {
			return "0" // -0 stringifies the same as 0
		}
		return "0"
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// ToI32 truncates and wraps a float64 to a signed 32-bit integer modulo
// 2^32, matching ECMAScript's ToInt32 bitwise-operand coercion.
func ToI32(f float64) int32 {
	return int32(ToU32(f))
}

// ToU32 truncates and wraps a float64 to an unsigned 32-bit integer modulo
// 2^32.
func ToU32(f float64) uint32 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	trunc := math.Trunc(f)
	mod := math.Mod(trunc, 4294967296)
	if mod < 0 {
		mod += 4294967296
	}
	return uint32(mod)
}
