package loader_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/valuescript/vsgo/loader"
	"github.com/valuescript/vsgo/value"
)

// writeModule drops src at dir/name, the way a real ValueScript project lays
// files on disk for loader.New to read back by path.
func writeModule(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func TestLoaderResolvesNamedImport(t *testing.T) {
	dir := t.TempDir()
	writeModule(t, dir, "math.ts", `
		export function square(n) { return n * n; }
		export const answer = 42;
	`)
	entry := writeModule(t, dir, "main.ts", `
		import { square, answer } from "./math";
		export default square(6) + answer;
	`)

	l := loader.New(loader.Config{Root: dir})
	result, err := l.RunEntry(entry)
	require.NoError(t, err)

	def, err := value.OpSub(result, value.String(""))
	require.NoError(t, err)
	require.Equal(t, 78.0, def.Float64())
}

func TestLoaderResolvesStarImport(t *testing.T) {
	dir := t.TempDir()
	writeModule(t, dir, "shapes.ts", `
		export function area(side) { return side * side; }
	`)
	entry := writeModule(t, dir, "main.ts", `
		import * as shapes from "./shapes";
		export default shapes.area(5);
	`)

	l := loader.New(loader.Config{Root: dir})
	result, err := l.RunEntry(entry)
	require.NoError(t, err)

	def, err := value.OpSub(result, value.String(""))
	require.NoError(t, err)
	require.Equal(t, 25.0, def.Float64())
}

// A module imported from two different places runs its top-level statements
// exactly once; the loader's cache (keyed by resolved path) is what
// guarantees that, matching ES module semantics.
func TestLoaderCachesModuleEvaluation(t *testing.T) {
	dir := t.TempDir()
	writeModule(t, dir, "counter.ts", `
		export const value = 1;
	`)
	writeModule(t, dir, "a.ts", `
		import { value } from "./counter";
		export default value;
	`)
	writeModule(t, dir, "b.ts", `
		import { value } from "./counter";
		export default value;
	`)
	entry := writeModule(t, dir, "main.ts", `
		import a from "./a";
		import b from "./b";
		export default a + b;
	`)

	l := loader.New(loader.Config{Root: dir})
	result, err := l.RunEntry(entry)
	require.NoError(t, err)

	def, err := value.OpSub(result, value.String(""))
	require.NoError(t, err)
	require.Equal(t, 2.0, def.Float64())
}

func TestLoaderDetectsImportCycle(t *testing.T) {
	dir := t.TempDir()
	entry := writeModule(t, dir, "a.ts", `
		import { b } from "./b";
		export const a = 1;
	`)
	writeModule(t, dir, "b.ts", `
		import { a } from "./a";
		export const b = 2;
	`)

	l := loader.New(loader.Config{Root: dir})
	_, err := l.RunEntry(entry)
	require.Error(t, err)
}

func TestLoaderAliasResolution(t *testing.T) {
	stdDir := t.TempDir()
	writeModule(t, stdDir, "index.ts", `
		export const greeting = "hi";
	`)
	appDir := t.TempDir()
	entry := writeModule(t, appDir, "main.ts", `
		import { greeting } from "std";
		export default greeting;
	`)

	l := loader.New(loader.Config{Root: appDir, Aliases: map[string]string{"std": stdDir}})
	result, err := l.RunEntry(entry)
	require.NoError(t, err)

	def, err := value.OpSub(result, value.String(""))
	require.NoError(t, err)
	require.Equal(t, "hi", def.StringVal())
}
