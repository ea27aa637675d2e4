package builtins

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/valuescript/vsgo/bytecode"
	"github.com/valuescript/vsgo/value"
	"github.com/valuescript/vsgo/vm"
)

func newMachine() *vm.Machine {
	return vm.New(bytecode.NewRegistry())
}

func callMember(t *testing.T, namespace value.Value, name string, args ...value.Value) value.Value {
	t.Helper()
	member, err := value.OpSub(namespace, value.String(name))
	require.NoError(t, err)
	require.True(t, member.IsCallable(), "%s is not callable", name)
	m := newMachine()
	result, err := m.Call(member, value.Undefined(), args)
	require.NoError(t, err)
	return result
}

func TestMathMembers(t *testing.T) {
	math, ok := Lookup(IdxMath)
	require.True(t, ok)

	pi, err := value.OpSub(math, value.String("PI"))
	require.NoError(t, err)
	require.InDelta(t, 3.14159265, pi.Float64(), 1e-6)

	require.Equal(t, 3.0, callMember(t, math, "abs", value.Number(-3)).Float64())
	require.Equal(t, 8.0, callMember(t, math, "pow", value.Number(2), value.Number(3)).Float64())
	require.Equal(t, 2.0, callMember(t, math, "max", value.Number(1), value.Number(2)).Float64())
}

func TestNumberParsing(t *testing.T) {
	number, ok := Lookup(IdxNumber)
	require.True(t, ok)

	isInteger := callMember(t, number, "isInteger", value.Number(4))
	require.True(t, isInteger.Bool())

	parsed := callMember(t, number, "parseFloat", value.String("  3.5abc"))
	require.Equal(t, 3.5, parsed.Float64())
}

func TestArrayIsArrayAndOf(t *testing.T) {
	array, ok := Lookup(IdxArray)
	require.True(t, ok)

	require.True(t, callMember(t, array, "isArray", value.Array([]value.Value{value.Number(1)})).Bool())
	require.False(t, callMember(t, array, "isArray", value.String("x")).Bool())

	of := callMember(t, array, "of", value.Number(1), value.Number(2))
	require.True(t, of.IsArray())
	require.Len(t, of.ArrayElems(), 2)
}

func TestErrorConstructors(t *testing.T) {
	typeErrCtor, ok := Lookup(IdxTypeError)
	require.True(t, ok)
	m := newMachine()
	result, err := m.Call(typeErrCtor, value.Undefined(), []value.Value{value.String("bad")})
	require.NoError(t, err)
	require.Equal(t, "object", result.Dyn().TypeOf())
	require.Equal(t, "TypeError", result.Dyn().ClassName())

	msg, err := value.OpSub(result, value.String("message"))
	require.NoError(t, err)
	require.Equal(t, "bad", msg.StringVal())
}

func TestErrorInstanceOf(t *testing.T) {
	typeErrCtor, ok := Lookup(IdxTypeError)
	require.True(t, ok)
	errCtor, ok := Lookup(IdxError)
	require.True(t, ok)
	rangeCtor, ok := Lookup(IdxRangeError)
	require.True(t, ok)

	e := value.TypeError("boom")

	isType, err := value.OpInstanceOf(e, typeErrCtor)
	require.NoError(t, err)
	require.True(t, isType)

	isErr, err := value.OpInstanceOf(e, errCtor)
	require.NoError(t, err)
	require.True(t, isErr, "every error kind is an instance of the base Error")

	isRange, err := value.OpInstanceOf(e, rangeCtor)
	require.NoError(t, err)
	require.False(t, isRange)
}

func TestConsoleLogDoesNotPanic(t *testing.T) {
	console, ok := Lookup(IdxConsole)
	require.True(t, ok)
	logFn, err := value.OpSub(console, value.String("log"))
	require.NoError(t, err)
	require.True(t, logFn.IsCallable())

	m := newMachine()
	_, err = m.Call(logFn, value.Undefined(), []value.Value{value.String("hello"), value.Number(1)})
	require.NoError(t, err)
}

func TestNameIndexRoundTrips(t *testing.T) {
	idx, ok := IndexOf("Math")
	require.True(t, ok)
	require.Equal(t, IdxMath, idx)

	_, ok = IndexOf("NotARealGlobal")
	require.False(t, ok)
}
