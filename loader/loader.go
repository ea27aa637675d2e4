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

// Package loader implements the module loader: path resolution, dependency
// gathering, and export linking across modules, driven lazily off the
// VM's `import`/`import_star` opcodes (see vm.ModuleResolver) rather than
// by a separate link step ahead of assembly — each module is compiled,
// optimized, and assembled completely independently of the modules that
// import it, and is only ever asked to produce its export object the
// first time some other running module actually reaches an `import` of it.
package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/valuescript/vsgo/assembler"
	"github.com/valuescript/vsgo/bytecode"
	"github.com/valuescript/vsgo/compiler"
	"github.com/valuescript/vsgo/optimizer"
	"github.com/valuescript/vsgo/value"
	"github.com/valuescript/vsgo/vm"
)

// Config controls how bare (non-relative) import specifiers resolve. A
// relative specifier (`./foo`, `../bar`) never consults Config — it is
// already resolved against the importing file's own directory by
// compiler.ResolvePath at compile time, before the path ever reaches here.
type Config struct {
	// Root is the directory a bare specifier resolves relative to when no
	// entry in Aliases matches it.
	Root string
	// Aliases maps a bare specifier prefix to the directory it should be
	// read from, package-manager style (e.g. {"std": "/usr/local/lib/vs/std"}).
	Aliases map[string]string
}

// Loader compiles and links a ValueScript module graph on demand. One
// Loader instance is the Resolver of every vm.Machine it builds for a
// single run (NewMachine's, plus the one Resolve creates per evaluated
// module), and caches every module
// it has already evaluated, so a module imported from two places is
// compiled and its top-level statements run exactly once, matching ES
// module semantics.
type Loader struct {
	cfg Config

	// registry accumulates every loaded module's bytecode blob. Machines this
	// package builds all share it, so a Function value imported from another
	// module (whose BytecodeID names that module's blob, not the importer's)
	// still resolves when the importer calls it.
	registry *bytecode.Registry

	mu      sync.Mutex
	modules map[string]*loadedModule // resolved path -> compiled+assembled module
	cache   map[string]value.Value   // resolved path -> its evaluated export object
	inFlight map[string]bool          // guards against resolving a module that imports itself
}

type loadedModule struct {
	assembled *assembler.Assembled
	diags     []compiler.Diagnostic
}

// New returns a Loader using cfg to resolve bare import specifiers.
func New(cfg Config) *Loader {
	return &Loader{
		cfg:      cfg,
		registry: bytecode.NewRegistry(),
		modules:  map[string]*loadedModule{},
		cache:    map[string]value.Value{},
		inFlight: map[string]bool{},
	}
}

// NewMachine builds a vm.Machine whose Registry is seeded with entryPath's
// compiled bytecode and whose Resolver is l, ready to run entryPath's
// default export or drive its @entry function directly. entryPath is
// resolved the same way any bare top-level specifier would be, against
// l.cfg.Root.
func (l *Loader) NewMachine(entryPath string) (*vm.Machine, *loadedModule, error) {
	abs := l.resolveBare(entryPath)
	lm, err := l.ensureCompiled(abs)
	if err != nil {
		return nil, nil, err
	}
	m := vm.New(l.registry)
	m.Resolver = l
	return m, lm, nil
}

// RunEntry compiles, links, and evaluates entryPath's module exactly like
// any import of it would, returning its export object: a default-export
// value plus a named-export object.
func (l *Loader) RunEntry(entryPath string) (value.Value, error) {
	abs := l.resolveBare(entryPath)
	return l.Resolve(abs)
}

// Resolve implements vm.ModuleResolver: path is whatever the compiler baked
// into the `import`/`import_star` instruction — an absolute path for a
// relative specifier (already resolved at compile time, see
// compiler.ResolvePath), or a bare specifier Resolve itself now runs
// through Config's alias table.
func (l *Loader) Resolve(path string) (value.Value, error) {
	abs := l.resolveBare(path)

	l.mu.Lock()
	if v, ok := l.cache[abs]; ok {
		l.mu.Unlock()
		return v, nil
	}
	if l.inFlight[abs] {
		l.mu.Unlock()
		return value.Value{}, fmt.Errorf("loader: import cycle detected resolving %s", abs)
	}
	l.inFlight[abs] = true
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		delete(l.inFlight, abs)
		l.mu.Unlock()
	}()

	lm, err := l.ensureCompiled(abs)
	if err != nil {
		return value.Value{}, err
	}

	entryOffset, ok := lm.assembled.Exports["@entry"]
	if !ok {
		return value.Value{}, fmt.Errorf("loader: module %s has no @entry export", abs)
	}

	decoder, ok := l.registry.Decoder(lm.assembled.ID)
	if !ok {
		return value.Value{}, fmt.Errorf("loader: module %s missing its own bytecode", abs)
	}
	entryFn, err := decoder.DecodeValueAt(entryOffset)
	if err != nil {
		return value.Value{}, fmt.Errorf("loader: decoding %s's @entry: %w", abs, err)
	}

	m := vm.New(l.registry)
	m.Resolver = l
	exportsObj, err := m.Call(entryFn, value.Undefined(), nil)
	if err != nil {
		return value.Value{}, fmt.Errorf("loader: evaluating module %s: %w", abs, err)
	}

	l.mu.Lock()
	l.cache[abs] = exportsObj
	l.mu.Unlock()
	return exportsObj, nil
}

// ensureCompiled compiles, optimizes, and assembles the module at abs if it
// hasn't been already (dependency gathering happens for free: each `import`
// only triggers Resolve, and therefore ensureCompiled, for a module other
// modules actually reach at runtime, rather than this package walking the
// whole graph eagerly up front).
func (l *Loader) ensureCompiled(abs string) (*loadedModule, error) {
	l.mu.Lock()
	if lm, ok := l.modules[abs]; ok {
		l.mu.Unlock()
		return lm, nil
	}
	l.mu.Unlock()

	src, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("loader: reading %s: %w", abs, err)
	}

	mod, diags, err := compiler.Compile(string(src), abs)
	if err != nil {
		return nil, fmt.Errorf("loader: compiling %s: %w", abs, err)
	}
	for _, d := range diags {
		if d.Level >= compiler.Error {
			return nil, fmt.Errorf("loader: %s failed to compile: %s", abs, d.Message)
		}
	}

	mod = optimizer.Optimize(mod)
	assembled, err := assembler.Assemble(abs, mod)
	if err != nil {
		return nil, fmt.Errorf("loader: assembling %s: %w", abs, err)
	}

	lm := &loadedModule{assembled: assembled, diags: diags}
	if data, ok := assembled.Registry.Bytes(assembled.ID); ok {
		l.registry.Register(assembled.ID, data)
	}
	l.mu.Lock()
	l.modules[abs] = lm
	l.mu.Unlock()
	return lm, nil
}

// resolveBare applies Config's alias table to a bare specifier (no leading
// "."); relative specifiers and already-absolute paths pass through
// unchanged (compiler.ResolvePath has already turned every relative
// specifier into an absolute, filesystem-clean path before it is baked into
// bytecode, so by the time Resolve sees one there is nothing left to do).
func (l *Loader) resolveBare(path string) string {
	if filepath.IsAbs(path) || path == "." || len(path) == 0 || path[0] == '.' || path[0] == '/' {
		return path
	}
	for prefix, dir := range l.cfg.Aliases {
		if path == prefix {
			return filepath.Join(dir, "index.ts")
		}
		if rest, ok := trimPrefixSlash(path, prefix); ok {
			return filepath.Join(dir, rest)
		}
	}
	root := l.cfg.Root
	if root == "" {
		root = "."
	}
	return filepath.Join(root, path)
}

func trimPrefixSlash(s, prefix string) (string, bool) {
	if len(s) <= len(prefix)+1 || s[:len(prefix)] != prefix || s[len(prefix)] != '/' {
		return "", false
	}
	return s[len(prefix)+1:], true
}
