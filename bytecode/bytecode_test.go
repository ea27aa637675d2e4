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

package bytecode

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/valuescript/vsgo/value"
)

func roundTrip(t *testing.T, v value.Value) value.Value {
	t.Helper()
	e := NewEncoder()
	require.NoError(t, EncodeValue(e, v))
	d := NewDecoder("test", e.Buf)
	out, err := d.DecodeValue()
	require.NoError(t, err)
	return out
}

func TestVarUintRoundTrip(t *testing.T) {
	cases := []uint64{0, 1, 127, 128, 300, 1 << 20, 1 << 40, ^uint64(0)}
	for _, c := range cases {
		buf := appendVarUint(nil, c)
		got, pos, err := readVarUint(buf, 0)
		require.NoError(t, err)
		require.Equal(t, len(buf), pos)
		require.Equal(t, c, got)
	}
}

func TestVarIntRoundTrip(t *testing.T) {
	cases := []int64{0, -1, 1, -128, 128, -1 << 40, 1 << 40}
	for _, c := range cases {
		buf := appendVarInt(nil, c)
		got, _, err := readVarInt(buf, 0)
		require.NoError(t, err)
		require.Equal(t, c, got)
	}
}

func TestEncodeDecodeScalarValues(t *testing.T) {
	require.True(t, roundTrip(t, value.Void()).IsVoid())
	require.True(t, roundTrip(t, value.Undefined()).IsUndefined())
	require.True(t, roundTrip(t, value.Null()).IsNull())
	require.True(t, roundTrip(t, value.Bool(true)).Bool())
	require.False(t, roundTrip(t, value.Bool(false)).Bool())
	require.Equal(t, 42.0, roundTrip(t, value.Number(42)).Float64())
	require.Equal(t, 1e300, roundTrip(t, value.Number(1e300)).Float64())
	require.Equal(t, "hello", roundTrip(t, value.String("hello")).StringVal())
}

func TestEncodeDecodeSmallNumberUsesSignedByte(t *testing.T) {
	e := NewEncoder()
	require.NoError(t, EncodeValue(e, value.Number(-5)))
	require.Equal(t, byte(TagSignedByte), e.Buf[0])
}

func TestEncodeDecodeBigInt(t *testing.T) {
	n := new(big.Int)
	n.SetString("-1267650600228229401496703205376", 10)
	out := roundTrip(t, value.BigIntVal(n))
	require.Equal(t, n.String(), out.BigInt().String())
}

func TestEncodeDecodeArray(t *testing.T) {
	arr := value.Array([]value.Value{value.Number(1), value.String("x"), value.Bool(true)})
	out := roundTrip(t, arr)
	require.True(t, out.IsArray())
	require.Equal(t, 3, out.ArrayLen())
	require.Equal(t, "x", out.ArrayElems()[1].StringVal())
}

func TestEncodeDecodeNestedObject(t *testing.T) {
	inner := value.Object(map[string]value.Value{"y": value.Number(2)}, nil, value.Undefined())
	outer := value.Object(map[string]value.Value{"x": inner}, nil, value.Undefined())
	out := roundTrip(t, outer)
	require.True(t, out.IsObject())
	x, ok := out.ObjectStrEntries()["x"]
	require.True(t, ok)
	y, ok := x.ObjectStrEntries()["y"]
	require.True(t, ok)
	require.Equal(t, 2.0, y.Float64())
}

func TestPointerLazyResolution(t *testing.T) {
	e := NewEncoder()

	// Lay a Function first so a later backward pointer may legally target it.
	fnOffset := e.Len()
	e.WriteTag(TagFunction)
	e.WriteVarUint(2) // regCount
	e.WriteVarUint(0) // paramCount
	e.WriteByte(0)    // flags
	e.WriteInstructionHeader(OpEnd, 0)

	ptrOffset := e.Len()
	e.WriteTag(TagPointer)
	e.WriteVarUint(uint64(fnOffset))

	d := NewDecoder("test", e.Buf)
	d.Pos = ptrOffset
	ptrVal, err := d.DecodeValue()
	require.NoError(t, err)
	require.Equal(t, value.TagStoragePtr, ptrVal.Tag())

	resolved, err := value.Resolve(ptrVal)
	require.NoError(t, err)
	require.True(t, resolved.IsFunction())
	require.Equal(t, uint16(2), resolved.FuncRegCount())
}

func TestBackwardPointerToNonFunctionRejected(t *testing.T) {
	e := NewEncoder()
	e.WriteTag(TagString)
	e.WriteString("not a function")

	ptrOffset := e.Len()
	e.WriteTag(TagPointer)
	e.WriteVarUint(0)

	d := NewDecoder("test", e.Buf)
	d.Pos = ptrOffset
	_, err := d.DecodeValue()
	require.ErrorIs(t, err, errBackwardPointer)
}

func TestVerifyFlagsUnknownOpcode(t *testing.T) {
	e := NewEncoder()
	e.WriteByte(0xEE) // not a real opcode
	e.WriteVarUint(0)
	e.WriteByte(byte(OpEnd))
	e.WriteVarUint(0)

	errs := Verify("test", e.Buf, 0, 0)
	require.NotEmpty(t, errs)
}

func TestVerifyFlagsOutOfRangeRegister(t *testing.T) {
	e := NewEncoder()
	e.WriteInstructionHeader(OpMov, 1)
	e.WriteRegisterOperand(200)
	e.WriteByte(byte(OpEnd))
	e.WriteVarUint(0)

	errs := Verify("test", e.Buf, 0, 4)
	require.NotEmpty(t, errs)
}

func TestVerifyAcceptsWellFormedFunction(t *testing.T) {
	e := NewEncoder()
	e.WriteInstructionHeader(OpMov, 2)
	e.WriteRegisterOperand(0)
	e.WriteRegisterOperand(1)
	e.WriteByte(byte(OpEnd))
	e.WriteVarUint(0)

	errs := Verify("test", e.Buf, 0, 4)
	require.Empty(t, errs)
}
