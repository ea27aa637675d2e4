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

import "fmt"

// MethodLookup is filled in by package methods during its init() so that
// op_sub can dispatch `"abc".length`, `[1,2].map`, `(3).toFixed`, and
// `10n.toString` without value importing methods (which itself imports
// value) — the same registration-hook pattern the standard library uses to
// break encoding/json <-> time cycles.
var MethodLookup func(v Value, key Value) (Value, bool)

// OpSub implements `obj[key]` / `obj.key`: object lookup with prototype
// fallback, array index lookup (plus the "length" pseudo-property), string
// indexing by code point, and number/bigint method dispatch.
func OpSub(obj, key Value) (Value, error) {
	obj, err := Resolve(obj)
	if err != nil {
		return Value{}, err
	}
	key, err = Resolve(key)
	if err != nil {
		return Value{}, err
	}

	switch obj.tag {
	case TagUndefined, TagNull, TagVoid:
		return Value{}, typeErr("cannot read properties of %s", ValToString(obj))

	case TagArray:
		if key.tag == TagString && key.str == "length" {
			return Number(float64(len(obj.arr.elems))), nil
		}
		if idx, ok := arrayIndex(key); ok {
			if idx < 0 || idx >= len(obj.arr.elems) {
				return Undefined(), nil
			}
			el := obj.arr.elems[idx]
			if el.IsVoid() {
				return Undefined(), nil
			}
			return el, nil
		}
		if MethodLookup != nil {
			if v, ok := MethodLookup(obj, key); ok {
				return v, nil
			}
		}
		return Undefined(), nil

	case TagString:
		if key.tag == TagString && key.str == "length" {
			return Number(float64(len([]rune(obj.str)))), nil
		}
		if idx, ok := arrayIndex(key); ok {
			runes := []rune(obj.str)
			if idx < 0 || idx >= len(runes) {
				return Undefined(), nil
			}
			return String(string(runes[idx])), nil
		}
		if MethodLookup != nil {
			if v, ok := MethodLookup(obj, key); ok {
				return v, nil
			}
		}
		return Undefined(), nil

	case TagNumber, TagBigInt, TagBool:
		if MethodLookup != nil {
			if v, ok := MethodLookup(obj, key); ok {
				return v, nil
			}
		}
		return Undefined(), nil

	case TagObject:
		return subObject(obj, key)

	case TagStatic:
		if key.tag == TagSymbol {
			if v, ok := obj.static.Sym[key.sym]; ok {
				return v, nil
			}
			return Undefined(), nil
		}
		if v, ok := obj.static.Members[key.str]; ok {
			return v, nil
		}
		return Undefined(), nil

	case TagClass:
		return subObject(obj.cls.Static, key)

	case TagDynamic:
		return obj.dyn.Sub(key)

	case TagFunction:
		if key.tag == TagString && key.str == "length" {
			return Number(float64(obj.fn.ParamCount)), nil
		}
		return Undefined(), nil

	default:
		return Undefined(), nil
	}
}

// subObject walks the prototype chain for plain Object reads. Writes never
// consult the prototype: a subscript write always lands in the own map.
func subObject(obj Value, key Value) (Value, error) {
	cur := obj
	for cur.tag == TagObject {
		if key.tag == TagSymbol {
			if v, ok := cur.obj.sym[key.sym]; ok {
				return v, nil
			}
		} else {
			keyStr := ValToString(key)
			if v, ok := cur.obj.str[keyStr]; ok {
				return v, nil
			}
		}
		proto, err := Resolve(cur.obj.proto)
		if err != nil {
			return Value{}, err
		}
		if proto.tag != TagObject && proto.tag != TagStatic {
			return Undefined(), nil
		}
		if proto.tag == TagStatic {
			return OpSub(proto, key)
		}
		cur = proto
	}
	return Undefined(), nil
}

func arrayIndex(key Value) (int, bool) {
	if key.tag != TagNumber {
		return 0, false
	}
	if key.num < 0 || key.num != float64(int(key.num)) {
		return 0, false
	}
	return int(key.num), true
}

// OpSubMov implements `obj[key] = val` / `obj.key = val`: object key write
// (own map only), array index write (growing with Void-filled gaps), and a
// TypeError for primitives. The container is mutated in place only if it is
// uniquely owned (v.Unique()); otherwise the caller is expected to have
// cloned it first — see vm's sub_mov handling, which owns the
// clone-the-write-path responsibility.
func OpSubMov(obj, key, val Value) error {
	obj, err := Resolve(obj)
	if err != nil {
		return err
	}
	key, err = Resolve(key)
	if err != nil {
		return err
	}

	switch obj.tag {
	case TagArray:
		idx, ok := arrayIndex(key)
		if !ok {
			return typeErr("invalid array index")
		}
		if idx < 0 {
			return rangeErrVal("invalid array length")
		}
		if idx >= len(obj.arr.elems) {
			grown := make([]Value, idx+1)
			copy(grown, obj.arr.elems)
			for i := len(obj.arr.elems); i < idx; i++ {
				grown[i] = Void()
			}
			obj.arr.elems = grown
		}
		obj.arr.elems[idx].Release()
		obj.arr.elems[idx] = val.Retain()
		return nil

	case TagObject:
		if key.tag == TagSymbol {
			if old, ok := obj.obj.sym[key.sym]; ok {
				old.Release()
			}
			obj.obj.sym[key.sym] = val.Retain()
			return nil
		}
		keyStr := ValToString(key)
		if old, ok := obj.obj.str[keyStr]; ok {
			old.Release()
		}
		obj.obj.str[keyStr] = val.Retain()
		return nil

	case TagStatic:
		return typeErr("cannot assign to read-only built-in object")

	case TagDynamic:
		return obj.dyn.SubMov(key, val)

	default:
		return typeErr(fmt.Sprintf("cannot set properties of %s", ValToString(obj)))
	}
}

// EnsureUniqueArray returns an array Value guaranteed to be the sole owner
// of its backing slice, cloning if necessary. Callers (the VM's sub_mov path)
// use this on every container along a write's access chain before mutating.
func EnsureUniqueArray(v Value) Value {
	if v.arr.unique() {
		return v
	}
	return Value{tag: TagArray, arr: v.arr.clone()}
}

// EnsureUniqueObject is EnsureUniqueArray's Object counterpart.
func EnsureUniqueObject(v Value) Value {
	if v.obj.unique() {
		return v
	}
	return Value{tag: TagObject, obj: v.obj.clone()}
}
