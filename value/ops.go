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
	"math"
	"math/big"
)

// OpPlus implements `+`: string concatenation if either operand is a string,
// else numeric addition, with a BigInt+BigInt specialization. BigInt and
// Number are disjoint types, so mixing them in arithmetic is a TypeError.
func OpPlus(a, b Value) (Value, error) {
	a, err := ToPrimitive(a)
	if err != nil {
		return Value{}, err
	}
	b, err = ToPrimitive(b)
	if err != nil {
		return Value{}, err
	}

	if a.tag == TagString || b.tag == TagString {
		return String(ValToString(a) + ValToString(b)), nil
	}

	if a.tag == TagBigInt || b.tag == TagBigInt {
		if a.tag != b.tag {
			return Value{}, typeErr("cannot mix BigInt and other types in arithmetic")
		}
		return BigIntVal(new(big.Int).Add(a.bigint, b.bigint)), nil
	}

	return Number(ToNumber(a) + ToNumber(b)), nil
}

func typeErr(format string, args ...interface{}) error {
	return throwErr(TypeError(format, args...))
}

// throwErr wraps a thrown Value so it can travel through Go's error
// interface inside value-algebra helpers; the VM unwraps it back into a
// Value when propagating a throw (see vm.thrownValue).
type ThrownError struct{ Value Value }

func (t *ThrownError) Error() string { return ValToString(t.Value) }

func throwErr(v Value) error { return &ThrownError{Value: v} }

// arith applies a numeric/bigint binary operator, rejecting BigInt/Number
// mixing.
func arith(a, b Value, numOp func(x, y float64) float64, bigOp func(x, y *big.Int) *big.Int) (Value, error) {
	if a.tag == TagBigInt || b.tag == TagBigInt {
		if a.tag != TagBigInt || b.tag != TagBigInt {
			return Value{}, typeErr("cannot mix BigInt and other types in arithmetic")
		}
		return BigIntVal(bigOp(a.bigint, b.bigint)), nil
	}
	return Number(numOp(ToNumber(a), ToNumber(b))), nil
}

func OpMinus(a, b Value) (Value, error) {
	return arith(a, b, func(x, y float64) float64 { return x - y },
		func(x, y *big.Int) *big.Int { return new(big.Int).Sub(x, y) })
}

func OpMul(a, b Value) (Value, error) {
	return arith(a, b, func(x, y float64) float64 { return x * y },
		func(x, y *big.Int) *big.Int { return new(big.Int).Mul(x, y) })
}

func OpDiv(a, b Value) (Value, error) {
	if a.tag == TagBigInt || b.tag == TagBigInt {
		if a.tag != TagBigInt || b.tag != TagBigInt {
			return Value{}, typeErr("cannot mix BigInt and other types in arithmetic")
		}
		if b.bigint.Sign() == 0 {
			return Value{}, rangeErrVal("division by zero")
		}
		return BigIntVal(new(big.Int).Quo(a.bigint, b.bigint)), nil
	}
	return Number(ToNumber(a) / ToNumber(b)), nil
}

func OpMod(a, b Value) (Value, error) {
	if a.tag == TagBigInt || b.tag == TagBigInt {
		if a.tag != TagBigInt || b.tag != TagBigInt {
			return Value{}, typeErr("cannot mix BigInt and other types in arithmetic")
		}
		if b.bigint.Sign() == 0 {
			return Value{}, rangeErrVal("division by zero")
		}
		return BigIntVal(new(big.Int).Rem(a.bigint, b.bigint)), nil
	}
	return Number(math.Mod(ToNumber(a), ToNumber(b))), nil
}

func OpExp(a, b Value) (Value, error) {
	if a.tag == TagBigInt || b.tag == TagBigInt {
		if a.tag != TagBigInt || b.tag != TagBigInt {
			return Value{}, typeErr("cannot mix BigInt and other types in arithmetic")
		}
		if b.bigint.Sign() < 0 {
			return Value{}, rangeErrVal("exponent must be non-negative")
		}
		return BigIntVal(new(big.Int).Exp(a.bigint, b.bigint, nil)), nil
	}
	return Number(math.Pow(ToNumber(a), ToNumber(b))), nil
}

func rangeErrVal(format string, args ...interface{}) error {
	return throwErr(RangeError(format, args...))
}

func OpUnaryMinus(a Value) (Value, error) {
	if a.tag == TagBigInt {
		return BigIntVal(new(big.Int).Neg(a.bigint)), nil
	}
	return Number(-ToNumber(a)), nil
}

func OpUnaryPlus(a Value) (Value, error) {
	if a.tag == TagBigInt {
		return Value{}, typeErr("cannot convert BigInt to number implicitly")
	}
	return Number(ToNumber(a)), nil
}

func OpInc(a Value) (Value, error) { return OpPlus(a, Number(1)) }
func OpDec(a Value) (Value, error) { return OpMinus(a, Number(1)) }

// ---- Equality -----------------------------------------------------------

// OpTripleEq implements `===`: strict, no coercion, compares by tag then
// payload.
func OpTripleEq(a, b Value) bool {
	a, _ = Resolve(a)
	b, _ = Resolve(b)
	if a.tag != b.tag {
		return false
	}
	switch a.tag {
	case TagUndefined, TagNull, TagVoid:
		return true
	case TagBool:
		return a.b == b.b
	case TagNumber:
		return a.num == b.num // NaN !== NaN falls out of float == here
	case TagBigInt:
		return a.bigint.Cmp(b.bigint) == 0
	case TagSymbol:
		return a.sym == b.sym
	case TagString:
		return a.str == b.str
	case TagArray:
		return a.arr == b.arr
	case TagObject:
		return a.obj == b.obj
	case TagFunction:
		return a.fn == b.fn
	case TagClass:
		return a.cls == b.cls
	case TagStatic:
		return a.static == b.static
	case TagDynamic:
		return a.dyn == b.dyn
	default:
		return false
	}
}

func OpTripleNe(a, b Value) bool { return !OpTripleEq(a, b) }

// OpEq implements `==` with ECMAScript's loose-equality coercion table.
func OpEq(a, b Value) (bool, error) {
	a, err := Resolve(a)
	if err != nil {
		return false, err
	}
	b, err = Resolve(b)
	if err != nil {
		return false, err
	}

	if a.tag == b.tag {
		return OpTripleEq(a, b), nil
	}

	if a.IsNullish() && b.IsNullish() {
		return true, nil
	}
	if a.IsNullish() || b.IsNullish() {
		return false, nil
	}

	if a.tag == TagNumber && b.tag == TagString {
		return a.num == stringToNumber(b.str), nil
	}
	if a.tag == TagString && b.tag == TagNumber {
		return stringToNumber(a.str) == b.num, nil
	}
	if a.tag == TagBool {
		return eqLoose(Number(boolToF(a.b)), b)
	}
	if b.tag == TagBool {
		return eqLoose(a, Number(boolToF(b.b)))
	}
	if a.tag == TagBigInt && b.tag == TagNumber {
		f, _ := new(big.Float).SetInt(a.bigint).Float64()
		return f == b.num, nil
	}
	if a.tag == TagNumber && b.tag == TagBigInt {
		f, _ := new(big.Float).SetInt(b.bigint).Float64()
		return a.num == f, nil
	}
	if (a.tag == TagArray || a.tag == TagObject) && (b.tag == TagNumber || b.tag == TagString) {
		prim, err := ToPrimitive(a)
		if err != nil {
			return false, err
		}
		return eqLoose(prim, b)
	}
	if (b.tag == TagArray || b.tag == TagObject) && (a.tag == TagNumber || a.tag == TagString) {
		prim, err := ToPrimitive(b)
		if err != nil {
			return false, err
		}
		return eqLoose(a, prim)
	}
	return false, nil
}

func eqLoose(a, b Value) (bool, error) { return OpEq(a, b) }

func boolToF(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func OpNe(a, b Value) (bool, error) {
	eq, err := OpEq(a, b)
	return !eq, err
}

// ---- Ordering -------------------------------------------------------------

// compare implements the abstract relational comparison algorithm: if both
// operands reduce to strings, compare lexicographically by code unit;
// otherwise compare numerically. Returns ok=false when either side is NaN,
// so every ordering operator returns false for NaN operands, matching
// ECMAScript.
func compare(a, b Value) (less, equal, ok bool, err error) {
	pa, err := ToPrimitive(a)
	if err != nil {
		return false, false, false, err
	}
	pb, err := ToPrimitive(b)
	if err != nil {
		return false, false, false, err
	}
	if pa.tag == TagString && pb.tag == TagString {
		if pa.str < pb.str {
			return true, false, true, nil
		}
		if pa.str == pb.str {
			return false, true, true, nil
		}
		return false, false, true, nil
	}
	if pa.tag == TagBigInt && pb.tag == TagBigInt {
		c := pa.bigint.Cmp(pb.bigint)
		return c < 0, c == 0, true, nil
	}
	na, nb := ToNumber(pa), ToNumber(pb)
	if math.IsNaN(na) || math.IsNaN(nb) {
		return false, false, false, nil
	}
	return na < nb, na == nb, true, nil
}

func OpLess(a, b Value) (bool, error) {
	less, _, ok, err := compare(a, b)
	return ok && less, err
}

func OpLessEq(a, b Value) (bool, error) {
	less, eq, ok, err := compare(a, b)
	return ok && (less || eq), err
}

func OpGreater(a, b Value) (bool, error) {
	less, eq, ok, err := compare(a, b)
	return ok && !less && !eq, err
}

func OpGreaterEq(a, b Value) (bool, error) {
	less, _, ok, err := compare(a, b)
	return ok && !less, err
}

// ---- Bitwise (operate via ToI32/ToU32 truncation) ------------------------

func OpBitAnd(a, b Value) Value { return Number(float64(ToI32(ToNumber(a)) & ToI32(ToNumber(b)))) }
func OpBitOr(a, b Value) Value  { return Number(float64(ToI32(ToNumber(a)) | ToI32(ToNumber(b)))) }
func OpBitXor(a, b Value) Value { return Number(float64(ToI32(ToNumber(a)) ^ ToI32(ToNumber(b)))) }
func OpBitNot(a Value) Value    { return Number(float64(^ToI32(ToNumber(a)))) }

func OpLeftShift(a, b Value) Value {
	shift := ToU32(ToNumber(b)) & 31
	return Number(float64(ToI32(ToNumber(a)) << shift))
}

func OpRightShift(a, b Value) Value {
	shift := ToU32(ToNumber(b)) & 31
	return Number(float64(ToI32(ToNumber(a)) >> shift))
}

func OpRightShiftUnsigned(a, b Value) Value {
	shift := ToU32(ToNumber(b)) & 31
	return Number(float64(ToU32(ToNumber(a)) >> shift))
}

// ---- Logical ----------------------------------------------------------

func OpNot(a Value) Value { return Bool(!a.IsTruthy()) }

func OpNullishCoalesce(a, b Value) (Value, error) {
	resolved, err := Resolve(a)
	if err != nil {
		return Value{}, err
	}
	if resolved.IsNullish() {
		return b, nil
	}
	return resolved, nil
}

// ---- typeof / instanceof / in ------------------------------------------

func OpTypeOf(a Value) (Value, error) {
	resolved, err := Resolve(a)
	if err != nil {
		return Value{}, err
	}
	return String(resolved.Tag().TypeOf()), nil
}

// HasInstancer lets a Dynamic callable answer `x instanceof C` itself, the
// role Symbol.hasInstance plays in full ECMAScript; the Error-family
// constructors in package builtins implement it so `e instanceof TypeError`
// works without those constructors being Class values.
type HasInstancer interface {
	HasInstance(v Value) bool
}

// OpInstanceOf implements `a instanceof b`: walks a's prototype chain
// looking for b's instance prototype.
func OpInstanceOf(a, b Value) (bool, error) {
	b, err := Resolve(b)
	if err != nil {
		return false, err
	}
	if b.tag == TagDynamic {
		if h, ok := b.dyn.(HasInstancer); ok {
			resolved, err := Resolve(a)
			if err != nil {
				return false, err
			}
			return h.HasInstance(resolved), nil
		}
		return false, typeErr("right-hand side of 'instanceof' is not callable")
	}
	if b.tag != TagClass && b.tag != TagFunction {
		return false, typeErr("right-hand side of 'instanceof' is not callable")
	}
	var proto Value
	if b.tag == TagClass {
		proto = b.cls.InstanceProto
	} else {
		return false, nil // plain functions have no instance prototype here
	}
	cur, err := Resolve(a)
	if err != nil {
		return false, err
	}
	for cur.tag == TagObject {
		p, err := Resolve(cur.obj.proto)
		if err != nil {
			return false, err
		}
		if OpTripleEq(p, proto) {
			return true, nil
		}
		cur = p
	}
	return false, nil
}

// OpIn implements `key in obj`: true if key is an own or inherited property.
func OpIn(key, obj Value) (bool, error) {
	obj, err := Resolve(obj)
	if err != nil {
		return false, err
	}
	if obj.tag == TagArray {
		idx, convErr := ToIndex(key)
		if convErr == nil {
			return idx >= 0 && int(idx) < len(obj.arr.elems), nil
		}
		return key.tag == TagString && key.str == "length", nil
	}
	if obj.tag != TagObject {
		return false, typeErr("cannot use 'in' operator on non-object")
	}
	cur := obj
	for {
		if key.tag == TagSymbol {
			if _, ok := cur.obj.sym[key.sym]; ok {
				return true, nil
			}
		} else if key.tag == TagString {
			if _, ok := cur.obj.str[key.str]; ok {
				return true, nil
			}
		}
		proto, err := Resolve(cur.obj.proto)
		if err != nil {
			return false, err
		}
		if proto.tag != TagObject {
			return false, nil
		}
		cur = proto
	}
}
