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

package vm

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/valuescript/vsgo/bytecode"
	"github.com/valuescript/vsgo/value"
)

// buildFunction assembles a minimal function body by hand (the way the
// assembler package does) and registers it under id, returning
// the value.Function handle callers pass to Machine.Call.
func buildFunction(t *testing.T, registry *bytecode.Registry, id string, regCount, paramCount uint16, generator bool, body func(e *bytecode.Encoder)) value.Value {
	t.Helper()
	e := bytecode.NewEncoder()
	e.WriteTag(bytecode.TagFunction)
	e.WriteVarUint(uint64(regCount))
	e.WriteVarUint(uint64(paramCount))
	flags := byte(0)
	if generator {
		flags |= 0x01
	}
	e.WriteByte(flags)
	start := e.Len()
	body(e)
	registry.Register(id, e.Buf)

	d := bytecode.NewDecoder(id, e.Buf)
	d.Pos = 0
	fn, err := d.DecodeValue()
	require.NoError(t, err)
	require.Equal(t, uint32(start), fn.FuncStart())
	return fn
}

func TestAddTwoRegisters(t *testing.T) {
	registry := bytecode.NewRegistry()
	fn := buildFunction(t, registry, "add", 3, 2, false, func(e *bytecode.Encoder) {
		e.WriteInstructionHeader(bytecode.OpPlus, 3)
		e.WriteRegisterOperand(2)
		e.WriteRegisterOperand(0)
		e.WriteRegisterOperand(1)

		e.WriteInstructionHeader(bytecode.OpEnd, 1)
		e.WriteRegisterOperand(2)
	})

	m := New(registry)
	result, err := m.Call(fn, value.Undefined(), []value.Value{value.Number(2), value.Number(3)})
	require.NoError(t, err)
	require.Equal(t, 5.0, result.Float64())
}

func TestJumpIfSkipsInstruction(t *testing.T) {
	registry := bytecode.NewRegistry()
	fn := buildFunction(t, registry, "jmp", 2, 1, false, func(e *bytecode.Encoder) {
		bodyStart := e.Len()

		// r1 = 1
		e.WriteInstructionHeader(bytecode.OpMov, 2)
		e.WriteRegisterOperand(1)
		require.NoError(t, bytecode.EncodeValue(e, value.Number(1)))

		// jmp_if r0, <offset of the "end r1" below, relative to bodyStart>
		e.WriteInstructionHeader(bytecode.OpJmpIf, 2)
		placeholderPos := e.Len()
		e.WriteTag(bytecode.TagNumber)
		e.WriteFloat64(0) // patched below
		e.WriteRegisterOperand(0)

		// r1 = 2 (skipped when r0 is truthy)
		e.WriteInstructionHeader(bytecode.OpMov, 2)
		e.WriteRegisterOperand(1)
		require.NoError(t, bytecode.EncodeValue(e, value.Number(2)))

		target := e.Len() - bodyStart
		binary.LittleEndian.PutUint64(e.Buf[placeholderPos+1:placeholderPos+9], math.Float64bits(float64(target)))

		e.WriteInstructionHeader(bytecode.OpEnd, 1)
		e.WriteRegisterOperand(1)
	})

	m := New(registry)
	result, err := m.Call(fn, value.Undefined(), []value.Value{value.Bool(true)})
	require.NoError(t, err)
	require.Equal(t, 1.0, result.Float64())
}

func TestThrowUnwindsToCaller(t *testing.T) {
	registry := bytecode.NewRegistry()
	fn := buildFunction(t, registry, "thrower", 1, 0, false, func(e *bytecode.Encoder) {
		e.WriteInstructionHeader(bytecode.OpThrow, 1)
		require.NoError(t, bytecode.EncodeValue(e, value.String("boom")))
	})

	m := New(registry)
	_, err := m.Call(fn, value.Undefined(), nil)
	require.Error(t, err)
	te, ok := err.(*value.ThrownError)
	require.True(t, ok)
	require.Equal(t, "boom", value.ValToString(te.Value))
}

func TestSetCatchCatchesThrow(t *testing.T) {
	registry := bytecode.NewRegistry()
	fn := buildFunction(t, registry, "catcher", 2, 0, false, func(e *bytecode.Encoder) {
		bodyStart := e.Len()

		// set_catch <catch target, relative to bodyStart>, r1
		e.WriteInstructionHeader(bytecode.OpSetCatch, 2)
		placeholderPos := e.Len()
		e.WriteTag(bytecode.TagNumber)
		e.WriteFloat64(0)
		e.WriteRegisterOperand(1)

		// throw "caught-me"
		e.WriteInstructionHeader(bytecode.OpThrow, 1)
		require.NoError(t, bytecode.EncodeValue(e, value.String("caught-me")))

		target := e.Len() - bodyStart
		binary.LittleEndian.PutUint64(e.Buf[placeholderPos+1:placeholderPos+9], math.Float64bits(float64(target)))

		// end r1 (the exception register)
		e.WriteInstructionHeader(bytecode.OpEnd, 1)
		e.WriteRegisterOperand(1)
	})

	m := New(registry)
	result, err := m.Call(fn, value.Undefined(), nil)
	require.NoError(t, err)
	require.Equal(t, "caught-me", value.ValToString(result))
}

func TestGeneratorYieldsThenCompletes(t *testing.T) {
	registry := bytecode.NewRegistry()
	fn := buildFunction(t, registry, "gen", 1, 0, true, func(e *bytecode.Encoder) {
		e.WriteInstructionHeader(bytecode.OpYield, 2)
		e.WriteRegisterOperand(0)
		require.NoError(t, bytecode.EncodeValue(e, value.Number(1)))

		e.WriteInstructionHeader(bytecode.OpYield, 2)
		e.WriteRegisterOperand(0)
		require.NoError(t, bytecode.EncodeValue(e, value.Number(2)))

		e.WriteInstructionHeader(bytecode.OpEnd, 1)
		require.NoError(t, bytecode.EncodeValue(e, value.Number(3)))
	})

	m := New(registry)
	genVal, err := m.Call(fn, value.Undefined(), nil)
	require.NoError(t, err)
	require.Equal(t, value.TagDynamic, genVal.Tag())

	nextFn, err := value.OpSub(genVal, value.String("next"))
	require.NoError(t, err)

	r1, err := m.Call(nextFn, value.Undefined(), nil)
	require.NoError(t, err)
	v1, _ := value.OpSub(r1, value.String("value"))
	d1, _ := value.OpSub(r1, value.String("done"))
	require.Equal(t, 1.0, v1.Float64())
	require.False(t, d1.Bool())

	r2, err := m.Call(nextFn, value.Undefined(), nil)
	require.NoError(t, err)
	v2, _ := value.OpSub(r2, value.String("value"))
	require.Equal(t, 2.0, v2.Float64())

	r3, err := m.Call(nextFn, value.Undefined(), nil)
	require.NoError(t, err)
	v3, _ := value.OpSub(r3, value.String("value"))
	d3, _ := value.OpSub(r3, value.String("done"))
	require.Equal(t, 3.0, v3.Float64())
	require.True(t, d3.Bool())
}

func TestCatConcatenatesOperands(t *testing.T) {
	registry := bytecode.NewRegistry()
	fn := buildFunction(t, registry, "cat", 2, 1, false, func(e *bytecode.Encoder) {
		e.WriteInstructionHeader(bytecode.OpCat, 4)
		e.WriteRegisterOperand(1)
		require.NoError(t, bytecode.EncodeValue(e, value.String("n=")))
		e.WriteRegisterOperand(0)
		require.NoError(t, bytecode.EncodeValue(e, value.Number(0)))

		e.WriteInstructionHeader(bytecode.OpEnd, 1)
		e.WriteRegisterOperand(1)
	})

	m := New(registry)
	result, err := m.Call(fn, value.Undefined(), []value.Value{value.Number(7)})
	require.NoError(t, err)
	require.Equal(t, "n=70", result.StringVal())
}

func TestBindPrependsArgs(t *testing.T) {
	registry := bytecode.NewRegistry()
	fn := buildFunction(t, registry, "bindee", 3, 2, false, func(e *bytecode.Encoder) {
		e.WriteInstructionHeader(bytecode.OpPlus, 3)
		e.WriteRegisterOperand(2)
		e.WriteRegisterOperand(0)
		e.WriteRegisterOperand(1)
		e.WriteInstructionHeader(bytecode.OpEnd, 1)
		e.WriteRegisterOperand(2)
	})

	bound := fn.Bind([]value.Value{value.Number(10)})
	m := New(registry)
	result, err := m.Call(bound, value.Undefined(), []value.Value{value.Number(5)})
	require.NoError(t, err)
	require.Equal(t, 15.0, result.Float64())
}
