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

package compiler

import (
	"fmt"
	"path/filepath"

	"github.com/dop251/goja/ast"
	"github.com/valuescript/vsgo/assembly"
	"github.com/valuescript/vsgo/value"
)

// moduleCtx accumulates one source file's worth of compiled definitions and
// the diagnostics raised along the way, gathering a result alongside a log
// (Lint/CompilerDebug/Error/InternalError, see diagnostic.go) rather than
// failing fast on the first problem.
type moduleCtx struct {
	module *assembly.Module
	defSeq int
	diags  []Diagnostic
}

func newModuleCtx() *moduleCtx {
	return &moduleCtx{module: &assembly.Module{}}
}

func (mc *moduleCtx) diag(level Level, msg string) {
	mc.diags = append(mc.diags, Diagnostic{Level: level, Message: msg})
}

func (mc *moduleCtx) newDefName(hint string) string {
	mc.defSeq++
	if hint == "" {
		hint = "def"
	}
	return fmt.Sprintf("%s$%d", hint, mc.defSeq)
}

func (mc *moduleCtx) addDef(name string, content assembly.DefContent) {
	mc.module.Definitions = append(mc.module.Definitions, &assembly.Definition{Name: name, Content: content})
}

// Compile turns one ValueScript source file into an assembly.Module.
//
// Module evaluation is the one place this runtime's design genuinely
// diverges from a plain "compile each definition independently" model:
// assembly.Module is just a bag of static Function/ConstValue/Class/Lazy
// definitions with no executable top-level body, but `export default
// fib(10)` needs to actually CALL fib at module load time, not just name
// it. So every top-level statement that isn't a
// hoisted function/class declaration is gathered into one synthetic
// zero-argument "@entry" Function, which builds and returns an object
// keyed by export name ("" for the default export); the loader
// package calls @entry exactly once per module, through vm.Machine, to
// materialize the real export values other modules import.
func Compile(src, filename string) (*assembly.Module, []Diagnostic, error) {
	stripped, exports := stripExports(foldEnums(src))
	stripped, imports := stripImports(stripped)
	prog, err := parseProgram(stripped, filename)
	if err != nil {
		return nil, nil, err
	}

	mc := newModuleCtx()
	top := newScope(nil)

	// Pass A: reserve every hoisted function/class's name as a pointer
	// binding before compiling any body, so forward/mutual references
	// (`fib` calling itself, or two functions calling each other) resolve
	// without needing the two-pass trick a linker usually needs.
	var funcDecls []*ast.FunctionDeclaration
	var classDecls []*ast.ClassDeclaration
	for _, stmt := range prog.Body {
		switch s := stmt.(type) {
		case *ast.FunctionDeclaration:
			name := string(s.Function.Name.Name)
			top.declare(name, binding{arg: assembly.Ptr(name)})
			funcDecls = append(funcDecls, s)
		case *ast.ClassDeclaration:
			name := string(s.Class.Name.Name)
			top.declare(name, binding{arg: assembly.Ptr(name)})
			classDecls = append(classDecls, s)
		}
	}

	// Pass B: compile the hoisted declarations into independent
	// pointer-addressable definitions.
	for _, s := range funcDecls {
		compileFunctionDeclaration(mc, top, s)
	}
	for _, s := range classDecls {
		compileClassDeclaration(mc, top, s)
	}

	// Remaining top-level statements (and the exported bindings they
	// produce) become the synthetic @entry function.
	entry := newFuncCtx(mc, top, false)

	// Imports are lowered directly to `import`/`import_star` instructions at
	// the top of @entry (named imports from one path share a single
	// import_star; each default or namespace import emits its own), binding each local name to a fresh register here — NOT to a
	// module-wide pointer, so (per DESIGN.md's Open Question decision) an
	// imported binding is only visible to @entry's own statements (default
	// export expressions, top-level const/let/var initializers), not to a
	// hoisted top-level function or class declaration, which is compiled
	// against `top` directly and never closes over @entry's register file.
	moduleDir := filepath.Dir(filename)
	namespaceRegs := map[string]string{}
	for _, im := range imports {
		path := ResolvePath(moduleDir, im.ModulePath)
		if im.Star {
			reg := entry.declareReg(im.Local, false, true)
			entry.emit("import_star", assembly.Reg(reg), assembly.Const(value.String(path)))
			continue
		}
		if im.Member == "" {
			reg := entry.declareReg(im.Local, false, true)
			entry.emit("import", assembly.Reg(reg), assembly.Const(value.String(path)))
			continue
		}
		nsReg, ok := namespaceRegs[path]
		if !ok {
			nsReg = entry.newReg("importns")
			entry.emit("import_star", assembly.Reg(nsReg), assembly.Const(value.String(path)))
			namespaceRegs[path] = nsReg
		}
		reg := entry.declareReg(im.Local, false, true)
		entry.emit("sub", assembly.Reg(reg), assembly.Reg(nsReg), assembly.Const(value.String(im.Member)))
	}

	exportVals := map[string]assembly.Arg{}
	for _, stmt := range prog.Body {
		switch stmt.(type) {
		case *ast.FunctionDeclaration, *ast.ClassDeclaration:
			continue
		}
		if err := entry.compileStmt(stmt); err != nil {
			return nil, mc.diags, err
		}
	}
	for _, ex := range exports {
		arg, ok := entry.resolveArg(ex.Binding)
		if !ok {
			mc.diag(Error, fmt.Sprintf("export %q: undeclared binding %q", ex.Name, ex.Binding))
			continue
		}
		exportVals[ex.Name] = arg
	}

	obj := assembly.Reg(entry.newReg("exports"))
	entry.emit("mov", obj, assembly.Const(value.Object(nil, nil, value.Value{})))
	for name, arg := range exportVals {
		entry.emit("sub_mov", obj, assembly.Const(value.String(name)), arg)
	}
	entry.emit("end", obj)

	mc.addDef("@entry", &assembly.Function{Lines: entry.lines})

	// "@entry" is always listed as its own export so package loader can find
	// its assembled byte offset (assembler.Assembled.Exports) without a
	// special case: every module this package compiles materializes its
	// real exports by calling @entry once and reading the result object back
	// (see the doc comment above), never by exporting a binding pointer
	// directly.
	mc.module.Exports = append(mc.module.Exports, assembly.Export{Name: "@entry", Pointer: "@entry"})

	return mc.module, mc.diags, nil
}
