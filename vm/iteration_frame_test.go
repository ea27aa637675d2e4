package vm

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/valuescript/vsgo/bytecode"
	"github.com/valuescript/vsgo/value"
)

func goCallback(name string, fn func(args []value.Value) (value.Value, error)) value.Value {
	return value.DynamicVal(&GoFunc{Name: name, Fn: func(m *Machine, this value.Value, args []value.Value) (value.Value, error) {
		return fn(args)
	}})
}

func callIteration(t *testing.T, kind IterKind, name string, arr value.Value, args ...value.Value) (value.Value, error) {
	t.Helper()
	m := New(bytecode.NewRegistry())
	return m.Call(value.DynamicVal(&ArrayIteration{Name: name, Kind: kind}), arr, args)
}

func TestIterationFrameMapRunsEachCallbackAsItsOwnFrame(t *testing.T) {
	arr := value.Array([]value.Value{value.Number(1), value.Number(2), value.Number(3)})
	double := goCallback("double", func(args []value.Value) (value.Value, error) {
		return value.Number(Arg(args, 0).Float64() * 2), nil
	})

	result, err := callIteration(t, IterMap, "map", arr, double)
	require.NoError(t, err)
	elems := result.ArrayElems()
	require.Len(t, elems, 3)
	require.Equal(t, 2.0, elems[0].Float64())
	require.Equal(t, 6.0, elems[2].Float64())
}

func TestIterationFrameSomeStopsAtFirstMatch(t *testing.T) {
	arr := value.Array([]value.Value{value.Number(1), value.Number(2), value.Number(3)})
	calls := 0
	isTwo := goCallback("isTwo", func(args []value.Value) (value.Value, error) {
		calls++
		return value.Bool(Arg(args, 0).Float64() == 2), nil
	})

	result, err := callIteration(t, IterSome, "some", arr, isTwo)
	require.NoError(t, err)
	require.True(t, result.Bool())
	require.Equal(t, 2, calls, "some must not visit elements past the first match")
}

func TestIterationFrameReduceRightWalksBackwards(t *testing.T) {
	arr := value.Array([]value.Value{value.String("a"), value.String("b"), value.String("c")})
	concat := goCallback("concat", func(args []value.Value) (value.Value, error) {
		return value.String(Arg(args, 0).StringVal() + Arg(args, 1).StringVal()), nil
	})

	result, err := callIteration(t, IterReduceRight, "reduceRight", arr, concat)
	require.NoError(t, err)
	require.Equal(t, "cba", result.StringVal())
}

func TestIterationFrameReduceEmptyWithoutInitialThrows(t *testing.T) {
	noop := goCallback("noop", func(args []value.Value) (value.Value, error) {
		return value.Undefined(), nil
	})

	_, err := callIteration(t, IterReduce, "reduce", value.Array(nil), noop)
	require.Error(t, err)
	te, ok := err.(*value.ThrownError)
	require.True(t, ok)
	require.Contains(t, value.ValToString(te.Value), "reduce of empty array")
}

// A callback that throws must unwind through the iteration frame and reach
// the caller of Machine.Call as a *value.ThrownError carrying the thrown
// value, exactly like a throw from an ordinary nested call.
func TestIterationFrameCallbackThrowUnwindsToCaller(t *testing.T) {
	boom := goCallback("boom", func(args []value.Value) (value.Value, error) {
		return value.Value{}, &value.ThrownError{Value: value.String("callback-boom")}
	})

	arr := value.Array([]value.Value{value.Number(1)})
	_, err := callIteration(t, IterForEach, "forEach", arr, boom)
	require.Error(t, err)
	te, ok := err.(*value.ThrownError)
	require.True(t, ok)
	require.Equal(t, "callback-boom", value.ValToString(te.Value))
}

func TestIterationFrameNonCallableCallbackIsTypeError(t *testing.T) {
	arr := value.Array([]value.Value{value.Number(1)})
	_, err := callIteration(t, IterMap, "map", arr, value.Number(7))
	require.Error(t, err)
	te, ok := err.(*value.ThrownError)
	require.True(t, ok)
	require.Contains(t, value.ValToString(te.Value), "not a function")
}
