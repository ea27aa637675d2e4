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

// Package value implements the ValueScript tagged value model: the variant
// set every binding carries, its coercions, its copy-on-write sharing
// discipline for compound data, the operator algebra, and the iteration
// protocol.
//
// Design overview, matching the register-based VM's expectations:
//   - Every Value is a small, trivially-copyable struct: a Tag plus at most
//     one payload pointer. Primitives are stored inline; compounds carry a
//     shared *handle that is reference-counted so mutation can decide,
//     cheaply, whether to clone first.
//   - Void is never observable from ValueScript code; it exists purely to
//     mark sparse array holes and uninitialized registers.
package value

// Tag identifies which variant a Value holds. Tag values are stable within a
// process but are NOT part of the bytecode wire format — see package
// bytecode for the on-disk tag byte assignments, which are a deliberately
// different, spec-fixed numbering.
type Tag uint8

const (
	TagVoid Tag = iota
	TagUndefined
	TagNull
	TagBool
	TagNumber
	TagBigInt
	TagSymbol
	TagString
	TagArray
	TagObject
	TagFunction
	TagClass
	TagStatic
	TagDynamic
	TagStoragePtr
)

func (t Tag) String() string {
	switch t {
	case TagVoid:
		return "void"
	case TagUndefined:
		return "undefined"
	case TagNull:
		return "null"
	case TagBool:
		return "boolean"
	case TagNumber:
		return "number"
	case TagBigInt:
		return "bigint"
	case TagSymbol:
		return "symbol"
	case TagString:
		return "string"
	case TagArray:
		return "array"
	case TagObject:
		return "object"
	case TagFunction:
		return "function"
	case TagClass:
		return "class"
	case TagStatic:
		return "static"
	case TagDynamic:
		return "dynamic"
	case TagStoragePtr:
		return "storageptr"
	default:
		return "unknown"
	}
}

// TypeOf returns the ECMAScript-style `typeof` string for a tag. Several tags
// collapse onto the same typeof result, mirroring JS (arrays and plain
// objects are both "object").
func (t Tag) TypeOf() string {
	switch t {
	case TagUndefined:
		return "undefined"
	case TagNull, TagArray, TagObject, TagStatic:
		return "object"
	case TagBool:
		return "boolean"
	case TagNumber:
		return "number"
	case TagBigInt:
		return "bigint"
	case TagSymbol:
		return "symbol"
	case TagString:
		return "string"
	case TagFunction, TagClass:
		return "function"
	case TagDynamic, TagStoragePtr:
		// Resolved before typeof ever inspects these in practice; see
		// Value.Resolve.
		return "object"
	default:
		return "undefined"
	}
}
