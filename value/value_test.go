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
	"math/big"
	"testing"

	"github.com/google/go-cmp/cmp"
	gofuzz "github.com/google/gofuzz"
	"github.com/stretchr/testify/require"
)

func valEqual(t *testing.T, a, b Value) {
	t.Helper()
	require.True(t, OpTripleEq(a, b), "expected %s === %s", Pretty(a), Pretty(b))
}

func TestCopyOnWriteArraySemantics(t *testing.T) {
	// For any value V held via two distinct bindings A and B, mutating
	// through A must leave B unchanged: const a=[1,2,3]; const b=a;
	// b.push(4); [a.length, b.length] === [3, 4].
	a := Array([]Value{Number(1), Number(2), Number(3)})
	b := a.Retain() // `const b = a;` binding copy retains the shared handle

	require.False(t, a.Unique(), "two bindings share the handle")

	bUnique := EnsureUniqueArray(b)
	bUnique.arr.elems = append(bUnique.arr.elems, Number(4))

	require.Equal(t, 3, a.ArrayLen())
	require.Equal(t, 4, bUnique.ArrayLen())
}

func TestNestedCopyOnWrite(t *testing.T) {
	inner := Array([]Value{Number(1)})
	outer := Array([]Value{inner})
	alias := outer.Retain()

	require.NoError(t, OpSubMov(EnsureUniqueArray(alias), Number(0), Array([]Value{Number(99)})))
	require.Equal(t, 1, outer.ArrayElems()[0].ArrayLen())
}

func TestOpPlusStringVsNumeric(t *testing.T) {
	v, err := OpPlus(String(""), Number(0))
	require.NoError(t, err)
	valEqual(t, String("0"), v)

	v, err = OpPlus(Number(1), Number(2))
	require.NoError(t, err)
	valEqual(t, Number(3), v)
}

func TestBigIntArithmeticAndMixingError(t *testing.T) {
	a := BigIntVal(big.NewInt(1))
	b := BigIntVal(big.NewInt(2))
	v, err := OpPlus(a, b)
	require.NoError(t, err)
	valEqual(t, BigIntVal(big.NewInt(3)), v)

	_, err = OpPlus(BigIntVal(big.NewInt(1)), Number(1))
	require.Error(t, err)
}

func TestExponentiationScenario(t *testing.T) {
	// (2n ** 100n).toString() === "1267650600228229401496703205376"
	two := BigIntVal(big.NewInt(2))
	hundred := BigIntVal(big.NewInt(100))
	v, err := OpExp(two, hundred)
	require.NoError(t, err)
	require.Equal(t, "1267650600228229401496703205376", v.BigInt().String())
}

func TestNumericConformance(t *testing.T) {
	require.True(t, OpTripleEq(Number(0), Number(-0.0)))

	nan := Number(nanFloat())
	require.False(t, OpTripleEq(nan, nan))
}

func nanFloat() float64 {
	f := 0.0
	return f / f
}

func TestObjectsWithSameKeyStayIndependent(t *testing.T) {
	// Two objects holding different values under the same key each read
	// back their own value.
	o := Object(map[string]Value{"a": Number(1)}, nil, Undefined())
	p := Object(map[string]Value{"a": Number(2)}, nil, Undefined())

	av, _ := OpSub(o, String("a"))
	pv, _ := OpSub(p, String("a"))
	valEqual(t, Number(1), av)
	valEqual(t, Number(2), pv)
}

func TestPrototypeFallthrough(t *testing.T) {
	proto := Object(map[string]Value{"greet": String("hi")}, nil, Undefined())
	child := Object(map[string]Value{}, nil, proto)

	v, err := OpSub(child, String("greet"))
	require.NoError(t, err)
	valEqual(t, String("hi"), v)

	// Writes never touch the prototype.
	require.NoError(t, OpSubMov(child, String("greet"), String("bye")))
	childVal, _ := OpSub(child, String("greet"))
	valEqual(t, String("bye"), childVal)
	protoVal, _ := OpSub(proto, String("greet"))
	valEqual(t, String("hi"), protoVal)
}

func TestArrayGrowthFillsVoidAsUndefined(t *testing.T) {
	arr := Array([]Value{Number(1)})
	require.NoError(t, OpSubMov(arr, Number(3), Number(9)))
	gapVal, _ := OpSub(arr, Number(1))
	require.True(t, gapVal.IsUndefined())
	last, _ := OpSub(arr, Number(3))
	valEqual(t, Number(9), last)
}

func TestArrayIteratorProtocol(t *testing.T) {
	arr := Array([]Value{Number(1), Number(2)})
	it, err := GetIterator(arr)
	require.NoError(t, err)

	res, err := it.IterNext()
	require.NoError(t, err)
	require.False(t, res.Done)
	valEqual(t, Number(1), res.Value)

	res, _ = it.IterNext()
	valEqual(t, Number(2), res.Value)

	res, _ = it.IterNext()
	require.True(t, res.Done)
}

// TestValueRoundTripFuzz is a lightweight property test: every randomly
// generated non-NaN number, wrapped as a Number, is === to a second Number
// built from the same float. go-cmp structural comparison is covered
// separately by TestGoCmpStructuralComparison.
func TestValueRoundTripFuzz(t *testing.T) {
	f := gofuzz.New().NilChance(0).NumElements(1, 1)
	for i := 0; i < 50; i++ {
		var n float64
		f.Fuzz(&n)
		if n != n { // skip NaN: NaN !== NaN by design
			continue
		}
		v := Number(n)
		require.True(t, OpTripleEq(v, Number(n)))
	}
}

func TestGoCmpStructuralComparison(t *testing.T) {
	a := Value{tag: TagString, str: "x"}
	b := Value{tag: TagString, str: "x"}
	diff := cmp.Diff(a, b, cmp.AllowUnexported(Value{}))
	require.Empty(t, diff)
}
