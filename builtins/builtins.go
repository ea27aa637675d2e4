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

// Package builtins implements ValueScript's global built-in namespaces: Math,
// Number, String, Boolean, Array, the Error family, Symbol, BigInt, console,
// and Debug. Math, Object, console and Debug are value.StaticObject member
// tables; the callable ones (Number, String, Boolean, Array, BigInt, Symbol
// and the Error family) are callableNamespace values that also carry a
// member table. Their callable members are vm.GoFunc closures.
//
// Bytecode never embeds these namespaces inline: a compiled reference to
// `Math` is a Builtin tag carrying a stable index, resolved through
// bytecode.BuiltinLookup (wired up in init below) the same way
// value.MethodLookup resolves instance methods without an import cycle.
package builtins

import (
	"github.com/valuescript/vsgo/bytecode"
	"github.com/valuescript/vsgo/value"

	// Blank-imported for its init() side effect only: it registers
	// value.MethodLookup so string/number/array/bigint instance methods
	// (e.g. `(2n).toString()`, `"x".charAt(0)`) resolve once a host imports
	// this package, the same dependency-injection wiring bytecode.BuiltinLookup
	// uses above.
	_ "github.com/valuescript/vsgo/methods"
)

// Builtin indices are assigned once and never reordered — the assembler
// bakes them into compiled bytecode, so renumbering would break every
// existing blob. New globals are appended, never inserted.
const (
	IdxMath uint64 = iota
	IdxNumber
	IdxString
	IdxBoolean
	IdxArray
	IdxBigInt
	IdxSymbol
	IdxConsole
	IdxDebug
	IdxError
	IdxTypeError
	IdxRangeError
	IdxInternalError
	IdxObject
)

var registry = map[uint64]value.Value{}

// NameIndex maps a global identifier a ValueScript program can reference
// directly (`Math.max(...)`, `new TypeError(...)`, ...) to its stable
// Builtin index. Package compiler consults this when an identifier
// resolves to nothing in scope, the fallback-to-global lookup every
// unresolved identifier gets before being treated as a compile error.
var NameIndex = map[string]uint64{}

func register(idx uint64, name string, v value.Value) {
	registry[idx] = v
	NameIndex[name] = idx
}

// Lookup resolves a builtin index to its value, the function installed as
// bytecode.BuiltinLookup.
func Lookup(idx uint64) (value.Value, bool) {
	v, ok := registry[idx]
	return v, ok
}

// IndexOf resolves a global identifier to its Builtin index, the inverse
// package compiler/assembler needs when emitting a reference to a global.
func IndexOf(name string) (uint64, bool) {
	idx, ok := NameIndex[name]
	return idx, ok
}

func init() {
	register(IdxMath, "Math", mathObject())
	register(IdxNumber, "Number", numberObject())
	register(IdxString, "String", stringObject())
	register(IdxBoolean, "Boolean", booleanObject())
	register(IdxArray, "Array", arrayObject())
	register(IdxBigInt, "BigInt", bigIntObject())
	register(IdxSymbol, "Symbol", symbolObject())
	register(IdxConsole, "console", consoleObject())
	register(IdxDebug, "Debug", debugObject())
	register(IdxError, "Error", errorConstructor("Error", value.ErrorGeneric))
	register(IdxTypeError, "TypeError", errorConstructor("TypeError", value.ErrorType))
	register(IdxRangeError, "RangeError", errorConstructor("RangeError", value.ErrorRange))
	register(IdxInternalError, "InternalError", errorConstructor("InternalError", value.ErrorInternal))
	register(IdxObject, "Object", objectObject())

	bytecode.BuiltinLookup = Lookup
}
