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
	"math/big"
)

// Value is the tagged union every ValueScript binding holds. It is small and
// copied by value at the Go level; compound variants share representation
// through a handle pointer until a write forces a copy-on-write clone (see
// handle.go).
type Value struct {
	tag Tag

	b      bool
	num    float64
	bigint *big.Int
	sym    Symbol
	str    string

	arr *arrayHandle
	obj *objectHandle
	fn  *functionHandle
	cls *classHandle

	static *StaticObject
	dyn    Dynamic
	ptr    *StoragePointer
}

// Dynamic is the escape hatch for native-backed values (iterators,
// generators, error instances, and anything else that cannot be expressed as
// one of the built-in compound shapes).
type Dynamic interface {
	// TypeOf returns the typeof string this object should report.
	TypeOf() string
	// ClassName names the object's pretty-printed constructor, e.g. "Error".
	ClassName() string
	// Sub implements property/index read with prototype fallback already
	// resolved by the caller for plain-object prototypes; Dynamic
	// implementors answer only for their own native slots.
	Sub(key Value) (Value, error)
	// SubMov implements property/index write. Returns an error for
	// read-only native objects.
	SubMov(key, val Value) error
	// Pretty renders a human-facing representation (console.log style).
	Pretty() string
	// Codify renders a ValueScript-literal-ish representation.
	Codify() string
}

// Iterable is implemented by Dynamic objects that define the iterator
// protocol (iterators themselves, and generators).
type Iterable interface {
	Dynamic
	// IterNext implements the `next()` step of the iterator protocol; see
	// value.IterResult.
	IterNext() (IterResult, error)
}

// IterResult is the `{value, done}` shape produced by `next()`.
type IterResult struct {
	Value Value
	Done  bool
}

// Symbol is a well-known symbol. ValueScript does not support user-defined
// symbols in this core (no `Symbol()` factory beyond the well-knowns).
type Symbol uint8

const (
	SymbolIterator Symbol = iota
	SymbolAsyncIterator
	SymbolHasInstance
	SymbolToPrimitive
)

func (s Symbol) String() string {
	switch s {
	case SymbolIterator:
		return "Symbol.iterator"
	case SymbolAsyncIterator:
		return "Symbol.asyncIterator"
	case SymbolHasInstance:
		return "Symbol.hasInstance"
	case SymbolToPrimitive:
		return "Symbol.toPrimitive"
	default:
		return fmt.Sprintf("Symbol(%d)", uint8(s))
	}
}

// StaticObject is an immutable reference to a built-in object (Math, the
// various well-known prototypes, etc). It carries no handle because it is
// never mutated; copy-on-write never has to consider it.
type StaticObject struct {
	Name string
	// Members is consulted by op_sub; Static objects never accept writes
	// (op_submov on a Static is a TypeError), matching built-in freezing.
	Members map[string]Value
	Sym     map[Symbol]Value
}

// ---- Constructors -----------------------------------------------------

func Void() Value      { return Value{tag: TagVoid} }
func Undefined() Value { return Value{tag: TagUndefined} }
func Null() Value      { return Value{tag: TagNull} }

func Bool(b bool) Value { return Value{tag: TagBool, b: b} }

func Number(n float64) Value { return Value{tag: TagNumber, num: n} }

// BigIntVal wraps an arbitrary precision integer. The big.Int is owned by
// the Value (never mutated in place after construction) so sharing it across
// Values is safe without copy-on-write bookkeeping — BigInt is a primitive
// from the language's point of view.
func BigIntVal(n *big.Int) Value {
	if n == nil {
		n = big.NewInt(0)
	}
	return Value{tag: TagBigInt, bigint: new(big.Int).Set(n)}
}

func SymbolVal(s Symbol) Value { return Value{tag: TagSymbol, sym: s} }

func String(s string) Value { return Value{tag: TagString, str: s} }

func StaticVal(s *StaticObject) Value { return Value{tag: TagStatic, static: s} }

func DynamicVal(d Dynamic) Value { return Value{tag: TagDynamic, dyn: d} }

// ---- Accessors / predicates --------------------------------------------

func (v Value) Tag() Tag { return v.tag }

func (v Value) IsVoid() bool      { return v.tag == TagVoid }
func (v Value) IsUndefined() bool { return v.tag == TagUndefined }
func (v Value) IsNull() bool      { return v.tag == TagNull }
func (v Value) IsNullish() bool   { return v.tag == TagUndefined || v.tag == TagNull }
func (v Value) IsBool() bool      { return v.tag == TagBool }
func (v Value) IsNumber() bool    { return v.tag == TagNumber }
func (v Value) IsBigInt() bool    { return v.tag == TagBigInt }
func (v Value) IsString() bool    { return v.tag == TagString }
func (v Value) IsSymbol() bool    { return v.tag == TagSymbol }
func (v Value) IsArray() bool     { return v.tag == TagArray }
func (v Value) IsObject() bool    { return v.tag == TagObject }
func (v Value) IsFunction() bool  { return v.tag == TagFunction || v.tag == TagClass }
func (v Value) IsCallable() bool {
	return v.tag == TagFunction || v.tag == TagClass ||
		(v.tag == TagDynamic && v.dyn != nil && isCallableDynamic(v.dyn))
}

func (v Value) Bool() bool        { return v.b }
func (v Value) Float64() float64  { return v.num }
func (v Value) BigInt() *big.Int  { return v.bigint }
func (v Value) StringVal() string { return v.str }
func (v Value) SymbolVal() Symbol { return v.sym }
func (v Value) Dyn() Dynamic      { return v.dyn }
func (v Value) Static() *StaticObject { return v.static }

// IsTruthy implements ECMAScript ToBoolean.
func (v Value) IsTruthy() bool {
	switch v.tag {
	case TagUndefined, TagNull, TagVoid:
		return false
	case TagBool:
		return v.b
	case TagNumber:
		return v.num != 0 && !isNaN(v.num)
	case TagBigInt:
		return v.bigint.Sign() != 0
	case TagString:
		return v.str != ""
	default:
		return true
	}
}

func isNaN(f float64) bool { return f != f }

type callableDynamic interface {
	Callable() bool
}

func isCallableDynamic(d Dynamic) bool {
	if c, ok := d.(callableDynamic); ok {
		return c.Callable()
	}
	return false
}
