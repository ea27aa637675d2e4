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

package optimizer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/valuescript/vsgo/assembler"
	"github.com/valuescript/vsgo/assembly"
	"github.com/valuescript/vsgo/value"
	"github.com/valuescript/vsgo/vm"
)

func TestTreeShakeDropsUnreachableDefinitions(t *testing.T) {
	m := &assembly.Module{
		Definitions: []*assembly.Definition{
			{Name: "used", Content: &assembly.ConstValue{Value: value.Number(1)}},
			{Name: "unused", Content: &assembly.ConstValue{Value: value.Number(2)}},
		},
		Exports: []assembly.Export{{Pointer: "used"}},
	}

	out := treeShake(m)
	require.Len(t, out.Definitions, 1)
	require.Equal(t, "used", out.Definitions[0].Name)
}

func TestCollapsePointerOfPointer(t *testing.T) {
	m := &assembly.Module{
		Definitions: []*assembly.Definition{
			{Name: "real", Content: &assembly.ConstValue{Value: value.Number(42)}},
			{Name: "alias", Content: &assembly.Alias{Target: "real"}},
			{
				Name: "fn",
				Content: &assembly.Function{
					Lines: []assembly.Line{
						&assembly.Instr{Op: "end", Args: []assembly.Arg{assembly.Ptr("alias")}},
					},
				},
			},
		},
		Exports: []assembly.Export{{Pointer: "alias"}},
	}

	out := collapsePointerOfPointer(m)
	require.Equal(t, "real", out.Exports[0].Pointer)

	fn := out.Definitions[2].Content.(*assembly.Function)
	instr := fn.Lines[0].(*assembly.Instr)
	require.Equal(t, "real", instr.Args[0].Pointer)
}

func TestSimplifySymbolicFoldsConstantArithmetic(t *testing.T) {
	fn := &assembly.Function{
		Lines: []assembly.Line{
			&assembly.Instr{Op: "mov", Args: []assembly.Arg{assembly.Reg("a"), assembly.Const(value.Number(2))}},
			&assembly.Instr{Op: "mov", Args: []assembly.Arg{assembly.Reg("b"), assembly.Const(value.Number(3))}},
			&assembly.Instr{Op: "plus", Args: []assembly.Arg{assembly.Reg("sum"), assembly.Reg("a"), assembly.Reg("b")}},
			&assembly.Instr{Op: "end", Args: []assembly.Arg{assembly.Reg("sum")}},
		},
	}
	simplifyFunctionSymbolic(fn)

	plus := fn.Lines[2].(*assembly.Instr)
	require.Equal(t, assembly.InstrOp("mov"), plus.Op)
	require.Equal(t, assembly.ArgConst, plus.Args[1].Kind)
	require.Equal(t, 5.0, plus.Args[1].Const.Float64())
}

func TestSimplifySymbolicResetsAtLabel(t *testing.T) {
	fn := &assembly.Function{
		Lines: []assembly.Line{
			&assembly.Instr{Op: "mov", Args: []assembly.Arg{assembly.Reg("a"), assembly.Const(value.Number(1))}},
			&assembly.Label{Name: "L"},
			&assembly.Instr{Op: "plus", Args: []assembly.Arg{assembly.Reg("sum"), assembly.Reg("a"), assembly.Const(value.Number(1))}},
		},
	}
	simplifyFunctionSymbolic(fn)

	plus := fn.Lines[2].(*assembly.Instr)
	require.Equal(t, assembly.InstrOp("plus"), plus.Op, "register knowledge must not survive a label boundary")
}

func TestReduceInstructionsDropsPureIgnoreWrites(t *testing.T) {
	m := &assembly.Module{
		Definitions: []*assembly.Definition{
			{
				Name: "f",
				Content: &assembly.Function{
					Lines: []assembly.Line{
						&assembly.Instr{Op: "plus", Args: []assembly.Arg{assembly.Reg(assembly.RegIgnore), assembly.Reg("a"), assembly.Reg("b")}},
						&assembly.Instr{Op: "end", Args: []assembly.Arg{assembly.Reg("a")}},
					},
				},
			},
		},
	}
	out := reduceInstructions(m)
	fn := out.Definitions[0].Content.(*assembly.Function)
	require.Len(t, fn.Lines, 1)
}

func TestReduceInstructionsCollapsesConstantBranch(t *testing.T) {
	m := &assembly.Module{
		Definitions: []*assembly.Definition{
			{
				Name: "f",
				Content: &assembly.Function{
					Lines: []assembly.Line{
						&assembly.Instr{Op: "jmp_if", Args: []assembly.Arg{assembly.LabelArg("L"), assembly.Const(value.Bool(true))}},
						&assembly.Instr{Op: "jmp_if_not", Args: []assembly.Arg{assembly.LabelArg("M"), assembly.Const(value.Bool(true))}},
					},
				},
			},
		},
	}
	out := reduceInstructions(m)
	fn := out.Definitions[0].Content.(*assembly.Function)
	require.Len(t, fn.Lines, 1, "constant-true jmp_if becomes jmp; constant-true jmp_if_not is removed")
	require.Equal(t, assembly.InstrOp("jmp"), fn.Lines[0].(*assembly.Instr).Op)
}

func TestRemoveUnusedLabelsDropsDeadLabel(t *testing.T) {
	m := &assembly.Module{
		Definitions: []*assembly.Definition{
			{
				Name: "f",
				Content: &assembly.Function{
					Lines: []assembly.Line{
						&assembly.Label{Name: "dead"},
						&assembly.Instr{Op: "end", Args: []assembly.Arg{assembly.Reg("a")}},
					},
				},
			},
		},
	}
	out := removeUnusedLabels(m)
	fn := out.Definitions[0].Content.(*assembly.Function)
	require.Len(t, fn.Lines, 1)
}

func TestExtractConstantsDeduplicatesStructurallyEqualArrays(t *testing.T) {
	lit := value.Array([]value.Value{value.Number(1), value.Number(2), value.Number(3)})
	m := &assembly.Module{
		Definitions: []*assembly.Definition{
			{
				Name: "f",
				Content: &assembly.Function{
					Lines: []assembly.Line{
						&assembly.Instr{Op: "mov", Args: []assembly.Arg{assembly.Reg("a"), assembly.Const(lit)}},
						&assembly.Instr{Op: "mov", Args: []assembly.Arg{assembly.Reg("b"), assembly.Const(lit)}},
					},
				},
			},
		},
	}
	out := extractConstants(m)
	fn := out.Definitions[0].Content.(*assembly.Function)
	first := fn.Lines[0].(*assembly.Instr).Args[1]
	second := fn.Lines[1].(*assembly.Instr).Args[1]
	require.Equal(t, assembly.ArgPointer, first.Kind)
	require.Equal(t, first.Pointer, second.Pointer)
	require.Len(t, out.Definitions, 2, "one function definition plus one hoisted constant")
}

// TestOptimizeEndToEnd runs the full pipeline over a small module with dead
// code, constant-foldable arithmetic and an unreachable sibling definition, then asserts
// the assembled, optimized bytecode still behaves like the unoptimized
// source would.
func TestOptimizeEndToEnd(t *testing.T) {
	m := &assembly.Module{
		Definitions: []*assembly.Definition{
			{
				Name: "main",
				Content: &assembly.Function{
					Parameters: []string{"x"},
					Lines: []assembly.Line{
						&assembly.Instr{Op: "mov", Args: []assembly.Arg{assembly.Reg("one"), assembly.Const(value.Number(1))}},
						&assembly.Instr{Op: "mov", Args: []assembly.Arg{assembly.Reg("two"), assembly.Const(value.Number(2))}},
						&assembly.Instr{Op: "plus", Args: []assembly.Arg{assembly.Reg("dead"), assembly.Reg("one"), assembly.Reg("two")}},
						&assembly.Instr{Op: "plus", Args: []assembly.Arg{assembly.Reg("result"), assembly.Reg("x"), assembly.Reg("two")}},
						&assembly.Instr{Op: "end", Args: []assembly.Arg{assembly.Reg("result")}},
					},
				},
			},
			{
				Name:    "unreachable",
				Content: &assembly.ConstValue{Value: value.Number(99)},
			},
		},
		Exports: []assembly.Export{{Pointer: "main"}},
	}

	optimized := Optimize(m)
	require.Len(t, optimized.Definitions, 1, "unreachable should be dropped by tree-shake")

	asm, err := assembler.Assemble("opt-mod", optimized)
	require.NoError(t, err)

	d, ok := asm.Registry.Decoder(asm.ID)
	require.True(t, ok)
	off, ok := asm.Exports[""]
	require.True(t, ok)
	fn, err := d.DecodeValueAt(off)
	require.NoError(t, err)

	machine := vm.New(asm.Registry)
	result, err := machine.Call(fn, value.Undefined(), []value.Value{value.Number(10)})
	require.NoError(t, err)
	require.Equal(t, 12.0, result.Float64())
}
