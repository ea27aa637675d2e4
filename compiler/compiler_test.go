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

package compiler_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/valuescript/vsgo/assembler"
	"github.com/valuescript/vsgo/compiler"
	"github.com/valuescript/vsgo/optimizer"
	"github.com/valuescript/vsgo/value"
	"github.com/valuescript/vsgo/vm"
)

// runModule compiles, optimizes, assembles, and evaluates src's synthetic
// "@entry" the same way package loader drives a module with no imports,
// returning the default export (the export object is keyed "" for the
// default export).
func runModule(t *testing.T, src string) value.Value {
	t.Helper()
	mod, diags, err := compiler.Compile(src, "test.ts")
	require.NoError(t, err)
	for _, d := range diags {
		require.Lessf(t, d.Level, compiler.Error, "diagnostic: %s", d.Message)
	}

	mod = optimizer.Optimize(mod)
	assembled, err := assembler.Assemble("test.ts", mod)
	require.NoError(t, err)

	entryOffset, ok := assembled.Exports["@entry"]
	require.True(t, ok)
	decoder, ok := assembled.Registry.Decoder(assembled.ID)
	require.True(t, ok)
	entryFn, err := decoder.DecodeValueAt(entryOffset)
	require.NoError(t, err)

	m := vm.New(assembled.Registry)
	exportsObj, err := m.Call(entryFn, value.Undefined(), nil)
	require.NoError(t, err)

	def, err := value.OpSub(exportsObj, value.String(""))
	require.NoError(t, err)
	return def
}

func TestCompileFibonacci(t *testing.T) {
	src := `function fib(n) { if (n < 2) return n; return fib(n-1) + fib(n-2); } export default fib(10);`
	result := runModule(t, src)
	require.Equal(t, 55.0, result.Float64())
}

func TestCompileArrayCopyOnWrite(t *testing.T) {
	src := `function f() { const a = [1,2,3]; const b = a; b.push(4); return [a.length, b.length]; } export default f();`
	result := runModule(t, src)
	require.True(t, result.IsArray())
	elems := result.ArrayElems()
	require.Equal(t, 3.0, elems[0].Float64())
	require.Equal(t, 4.0, elems[1].Float64())
}

func TestCompileObjectSpreadCopyOnWrite(t *testing.T) {
	src := `const o = {a: 1}; const p = {...o, a: 2}; export default [o.a, p.a];`
	result := runModule(t, src)
	require.True(t, result.IsArray())
	elems := result.ArrayElems()
	require.Equal(t, 1.0, elems[0].Float64())
	require.Equal(t, 2.0, elems[1].Float64())
}

func TestCompileTryCatchCapturesError(t *testing.T) {
	src := `let msg = ""; try { null.x; } catch (e) { msg = e.message; } export default msg;`
	result := runModule(t, src)
	require.True(t, result.IsString())
	require.Contains(t, result.StringVal(), "null")
}

func TestCompileBigIntExponent(t *testing.T) {
	src := `export default (2n ** 100n).toString();`
	result := runModule(t, src)
	require.Equal(t, "1267650600228229401496703205376", result.StringVal())
}

func TestCompileGeneratorYieldsInOrder(t *testing.T) {
	src := `function* g() { yield 1; yield 2; } export default [...g()];`
	result := runModule(t, src)
	require.True(t, result.IsArray())
	elems := result.ArrayElems()
	require.Len(t, elems, 2)
	require.Equal(t, 1.0, elems[0].Float64())
	require.Equal(t, 2.0, elems[1].Float64())
}

func TestResolvePathRelative(t *testing.T) {
	// Neither candidate exists on disk, so ResolvePath falls back to
	// appending ".ts" to the cleaned, joined path (frontend.go's last
	// resort when none of candidateExtensions stat successfully).
	got := compiler.ResolvePath("/a/b", "./c")
	require.Equal(t, "/a/b/c.ts", got)

	got = compiler.ResolvePath("/a/b", "../c")
	require.Equal(t, "/a/c.ts", got)
}

func TestResolvePathLeavesBareSpecifierUntouched(t *testing.T) {
	got := compiler.ResolvePath("/a/b", "std/math")
	require.Equal(t, "std/math", got)
}
