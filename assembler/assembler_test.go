package assembler

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/valuescript/vsgo/assembly"
	"github.com/valuescript/vsgo/bytecode"
	"github.com/valuescript/vsgo/value"
	"github.com/valuescript/vsgo/vm"
)

func callExport(t *testing.T, asm *Assembled, name string, this value.Value, args []value.Value) (value.Value, error) {
	t.Helper()
	d, ok := asm.Registry.Decoder(asm.ID)
	require.True(t, ok)
	off, ok := asm.Exports[name]
	require.True(t, ok, "missing export %q", name)
	fn, err := d.DecodeValueAt(off)
	require.NoError(t, err)
	m := vm.New(asm.Registry)
	return m.Call(fn, this, args)
}

func TestAssembleAddTwoRegisters(t *testing.T) {
	mod := &assembly.Module{
		Definitions: []*assembly.Definition{
			{
				Name: "add",
				Content: &assembly.Function{
					Parameters: []string{"a", "b"},
					Lines: []assembly.Line{
						&assembly.Instr{Op: "plus", Args: []assembly.Arg{
							assembly.Reg("sum"), assembly.Reg("a"), assembly.Reg("b"),
						}},
						&assembly.Instr{Op: "end", Args: []assembly.Arg{assembly.Reg("sum")}},
					},
				},
			},
		},
		Exports: []assembly.Export{{Name: "", Pointer: "add"}},
	}

	asm, err := Assemble("add-mod", mod)
	require.NoError(t, err)

	result, err := callExport(t, asm, "", value.Undefined(), []value.Value{value.Number(2), value.Number(3)})
	require.NoError(t, err)
	require.Equal(t, 5.0, result.Float64())
}

func TestAssembleJumpIfSkipsInstruction(t *testing.T) {
	mod := &assembly.Module{
		Definitions: []*assembly.Definition{
			{
				Name: "jmp",
				Content: &assembly.Function{
					Parameters: []string{"cond"},
					Lines: []assembly.Line{
						&assembly.Instr{Op: "mov", Args: []assembly.Arg{assembly.Reg("r"), assembly.Const(value.Number(1))}},
						&assembly.Instr{Op: "jmp_if", Args: []assembly.Arg{assembly.LabelArg("skip"), assembly.Reg("cond")}},
						&assembly.Instr{Op: "mov", Args: []assembly.Arg{assembly.Reg("r"), assembly.Const(value.Number(2))}},
						&assembly.Label{Name: "skip"},
						&assembly.Instr{Op: "end", Args: []assembly.Arg{assembly.Reg("r")}},
					},
				},
			},
		},
		Exports: []assembly.Export{{Name: "", Pointer: "jmp"}},
	}

	asm, err := Assemble("jmp-mod", mod)
	require.NoError(t, err)

	result, err := callExport(t, asm, "", value.Undefined(), []value.Value{value.Bool(true)})
	require.NoError(t, err)
	require.Equal(t, 1.0, result.Float64())

	result, err = callExport(t, asm, "", value.Undefined(), []value.Value{value.Bool(false)})
	require.NoError(t, err)
	require.Equal(t, 2.0, result.Float64())
}

func TestAssembleBareThis(t *testing.T) {
	mod := &assembly.Module{
		Definitions: []*assembly.Definition{
			{
				Name: "getThis",
				Content: &assembly.Function{
					Lines: []assembly.Line{
						&assembly.Instr{Op: "this", Args: []assembly.Arg{assembly.Reg("self")}},
						&assembly.Instr{Op: "end", Args: []assembly.Arg{assembly.Reg("self")}},
					},
				},
			},
		},
		Exports: []assembly.Export{{Name: "", Pointer: "getThis"}},
	}

	asm, err := Assemble("this-mod", mod)
	require.NoError(t, err)

	receiver := value.Object(map[string]value.Value{"x": value.Number(1)}, nil, value.Null())
	result, err := callExport(t, asm, "", receiver, nil)
	require.NoError(t, err)
	require.True(t, value.OpTripleEq(receiver, result))
}

func TestAssembleUndefinedPointerTarget(t *testing.T) {
	mod := &assembly.Module{
		Definitions: []*assembly.Definition{
			{
				Name: "f",
				Content: &assembly.Function{
					Lines: []assembly.Line{
						&assembly.Instr{Op: "end", Args: []assembly.Arg{assembly.Ptr("missing")}},
					},
				},
			},
		},
	}

	_, err := Assemble("bad-mod", mod)
	require.Error(t, err)
}

func TestOpcodeRoundTrip(t *testing.T) {
	op, ok := bytecode.ParseOpcode("jmp_if_not")
	require.True(t, ok)
	require.Equal(t, bytecode.OpJmpIfNot, op)
	require.Equal(t, "jmp_if_not", op.String())
}
