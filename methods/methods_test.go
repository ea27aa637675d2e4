package methods

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/valuescript/vsgo/bytecode"
	"github.com/valuescript/vsgo/value"
	"github.com/valuescript/vsgo/vm"
)

func newMachine() *vm.Machine {
	return vm.New(bytecode.NewRegistry())
}

func callMethod(t *testing.T, receiver value.Value, name string, args ...value.Value) value.Value {
	t.Helper()
	fn, ok := Lookup(receiver, value.String(name))
	require.True(t, ok, "method %q not found", name)
	require.True(t, fn.IsCallable())
	m := newMachine()
	result, err := m.Call(fn, receiver, args)
	require.NoError(t, err)
	return result
}

func TestStringMethods(t *testing.T) {
	s := value.String("  Hello World  ")
	require.Equal(t, "HELLO WORLD", callMethod(t, value.String("hello world"), "toUpperCase").StringVal())
	require.Equal(t, "Hello World", callMethod(t, s, "trim").StringVal())
	require.True(t, callMethod(t, value.String("hello"), "startsWith", value.String("he")).Bool())
	require.Equal(t, 1.0, callMethod(t, value.String("hello"), "indexOf", value.String("ello")).Float64())
}

func TestNumberMethods(t *testing.T) {
	require.Equal(t, "3.14", callMethod(t, value.Number(3.14159), "toFixed", value.Number(2)).StringVal())
	require.Equal(t, "ff", callMethod(t, value.Number(255), "toString", value.Number(16)).StringVal())
}

func TestBigIntMethods(t *testing.T) {
	n := value.BigIntVal(big.NewInt(255))
	require.Equal(t, "ff", callMethod(t, n, "toString", value.Number(16)).StringVal())
}

func TestArrayMethods(t *testing.T) {
	arr := value.Array([]value.Value{value.Number(1), value.Number(2), value.Number(3)})

	pushed := callMethod(t, arr, "push", value.Number(4))
	require.Equal(t, 4.0, pushed.Float64())
	require.Len(t, arr.ArrayElems(), 4)

	joined := callMethod(t, arr, "join", value.String("-"))
	require.Equal(t, "1-2-3-4", joined.StringVal())

	doubler := value.DynamicVal(&vm.GoFunc{
		Name: "double",
		Fn: func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
			return value.Number(vm.Arg(args, 0).Float64() * 2), nil
		},
	})
	mapped := callMethod(t, arr, "map", doubler)
	require.True(t, mapped.IsArray())
	require.Equal(t, []float64{2, 4, 6, 8}, floats(mapped.ArrayElems()))

	isEven := value.DynamicVal(&vm.GoFunc{
		Name: "isEven",
		Fn: func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
			return value.Bool(int(vm.Arg(args, 0).Float64())%2 == 0), nil
		},
	})
	filtered := callMethod(t, arr, "filter", isEven)
	require.Equal(t, []float64{2, 4}, floats(filtered.ArrayElems()))

	sum := value.DynamicVal(&vm.GoFunc{
		Name: "sum",
		Fn: func(m *vm.Machine, this value.Value, args []value.Value) (value.Value, error) {
			return value.Number(vm.Arg(args, 0).Float64() + vm.Arg(args, 1).Float64()), nil
		},
	})
	reduced := callMethod(t, arr, "reduce", sum, value.Number(0))
	require.Equal(t, 10.0, reduced.Float64())
}

func TestArrayMethodsNotFoundForUnknownName(t *testing.T) {
	_, ok := Lookup(value.Array(nil), value.String("notAMethod"))
	require.False(t, ok)
}

func floats(vals []value.Value) []float64 {
	out := make([]float64, len(vals))
	for i, v := range vals {
		out[i] = v.Float64()
	}
	return out
}
