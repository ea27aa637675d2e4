package assembly

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/valuescript/vsgo/value"
)

func TestWriteParseRoundTrip(t *testing.T) {
	m := &Module{
		Exports: []Export{{Name: "", Pointer: "fib"}},
		Definitions: []*Definition{
			{
				Name: "fib",
				Content: &Function{
					Parameters: []string{"n"},
					Lines: []Line{
						&Instr{Op: "less", Args: []Arg{Reg("cond"), Reg("n"), Const(value.Number(2))}},
						&Instr{Op: "jmp_if_not", Args: []Arg{Reg("cond"), LabelArg("recurse")}},
						&Instr{Op: "end", Args: []Arg{Reg("n")}},
						&Label{Name: "recurse"},
						&Instr{Op: "end", Args: []Arg{Reg("n")}},
					},
				},
			},
			{Name: "answer", Content: &ConstValue{Value: value.Number(55)}},
		},
	}

	text := Write(m)
	require.Contains(t, text, "export @fib")
	require.Contains(t, text, "@fib = function (%n) {")

	parsed, err := Parse(text)
	require.NoError(t, err)
	require.Len(t, parsed.Exports, 1)
	require.Equal(t, "fib", parsed.Exports[0].Pointer)

	fibDef, ok := parsed.Lookup("fib")
	require.True(t, ok)
	fn, ok := fibDef.Content.(*Function)
	require.True(t, ok)
	require.Equal(t, []string{"n"}, fn.Parameters)

	// Re-serializing the parsed module must reproduce the same text up to
	// comment/whitespace.
	require.Equal(t, text, Write(parsed))
}

func TestWriteParseClassAndBigint(t *testing.T) {
	m := &Module{
		Definitions: []*Definition{
			{
				Name: "Point",
				Content: &Class{
					Constructor:   Ptr("Point$ctor"),
					InstanceProto: Ptr("Point$proto"),
					Static:        Ptr("Point$static"),
				},
			},
			{Name: "Point$ctor", Content: &ConstValue{Value: value.Undefined()}},
			{Name: "Point$proto", Content: &ConstValue{Value: value.Undefined()}},
			{Name: "Point$static", Content: &ConstValue{Value: value.Undefined()}},
			{Name: "big", Content: &ConstValue{Value: value.BigIntVal(bigPow(2, 100))}},
		},
	}

	text := Write(m)
	parsed, err := Parse(text)
	require.NoError(t, err)

	def, ok := parsed.Lookup("Point")
	require.True(t, ok)
	cls, ok := def.Content.(*Class)
	require.True(t, ok)
	require.Equal(t, ArgPointer, cls.Constructor.Kind)
	require.Equal(t, "Point$ctor", cls.Constructor.Pointer)
}

func bigPow(base, exp int64) *big.Int {
	return new(big.Int).Exp(big.NewInt(base), big.NewInt(exp), nil)
}

func TestWriteParseObjectDefAndAlias(t *testing.T) {
	m := &Module{
		Definitions: []*Definition{
			{
				Name: "Point_proto",
				Content: &ObjectDef{
					Keys:   []string{"norm", "proto"},
					Values: []Arg{Ptr("Point_norm"), Const(value.Number(1))},
					Proto:  Const(value.Undefined()),
				},
			},
			{Name: "Point_norm", Content: &ConstValue{Value: value.Undefined()}},
			{Name: "origin", Content: &Alias{Target: "Point_proto"}},
		},
	}

	text := Write(m)
	parsed, err := Parse(text)
	require.NoError(t, err)

	def, ok := parsed.Lookup("Point_proto")
	require.True(t, ok)
	od, ok := def.Content.(*ObjectDef)
	require.True(t, ok)
	require.Equal(t, []string{"norm", "proto"}, od.Keys)
	require.Equal(t, "Point_norm", od.Values[0].Pointer)
	require.Equal(t, ArgConst, od.Proto.Kind)

	aliasDef, ok := parsed.Lookup("origin")
	require.True(t, ok)
	alias, ok := aliasDef.Content.(*Alias)
	require.True(t, ok)
	require.Equal(t, "Point_proto", alias.Target)

	require.Equal(t, text, Write(parsed))
}

func TestAliasAndLazyAreDefContent(t *testing.T) {
	var _ DefContent = (*Alias)(nil)
	var _ DefContent = (*Lazy)(nil)
	var _ DefContent = (*Function)(nil)
	var _ DefContent = (*ConstValue)(nil)
	var _ DefContent = (*Class)(nil)
}
