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
	"github.com/dop251/goja/ast"
	"github.com/valuescript/vsgo/assembly"
	"github.com/valuescript/vsgo/value"
)

// compileFunctionLiteral compiles one function/method body into its own
// module definition and returns the Arg the enclosing function should use to
// reference it. nameHint seeds the generated definition's name (readable
// disassembly for `function add(a, b) {...}` beats a bare sequence number);
// pass "" when there's no better name (an anonymous function expression).
//
// A function with no free-variable captures compiles to a bare Ptr to its
// definition: nothing about calling it depends on where it was created, so
// it's already a constant, reusable value (mirrors how a top-level
// function/class name resolves, per scope.go's binding doc comment). A
// function that DOES close over an enclosing register instead needs a
// `bind` at the creation site to snapshot those registers' current values,
// since a module definition has no register file of its own to remember
// them in between calls.
func (fc *funcCtx) compileFunctionLiteral(n *ast.FunctionLiteral, nameHint string) (assembly.Arg, error) {
	return fc.compileFunctionLiteralAs(n, fc.mod.newDefName(fnDefHint(nameHint)))
}

// compileFunctionLiteralAs is compileFunctionLiteral with the definition name
// chosen by the caller instead of generated. Top-level declarations need this:
// module.go's Pass A hands out Ptr(name) before any body compiles, so the
// body a sibling (or the function itself, recursively) already references by
// that exact name must land under it, not under a generated alias.
func (fc *funcCtx) compileFunctionLiteralAs(n *ast.FunctionLiteral, defName string) (assembly.Arg, error) {
	inner := newNestedFuncCtx(fc, n.IsGenerator)
	paramRegs := bindFunctionParams(fc.mod, inner, n.ParameterList)

	if n.Body != nil {
		if err := inner.compileStmtListHoisted(n.Body.List); err != nil {
			return assembly.Arg{}, err
		}
	}
	return fc.finishFunctionDef(inner, paramRegs, n.IsGenerator, defName)
}

// finishFunctionDef closes out inner (a funcCtx that has already compiled
// its body into inner.lines) into a module definition named defName and
// returns the Arg the caller, fc, should use to reference it. Shared by
// compileFunctionLiteralAs and class.go's method/constructor compilation,
// since both need the identical "captures become hidden leading parameters,
// a bind instruction snapshots them at the creation site" treatment.
func (fc *funcCtx) finishFunctionDef(inner *funcCtx, paramRegs []string, isGenerator bool, defName string) (assembly.Arg, error) {
	// Every definition falls through to an implicit `return undefined` if
	// control reaches the end of the body without an explicit return/throw;
	// a trailing explicit end is always safe to emit even when every path
	// already returned, since OpEnd just pops the frame on first execution
	// and a dead tail is harmless bytecode.
	inner.emit("end", assembly.Const(value.Undefined()))

	params := make([]string, 0, len(inner.captures)+len(paramRegs))
	captureArgs := make([]assembly.Arg, 0, len(inner.captures))
	for _, c := range inner.captures {
		params = append(params, c.hiddenReg)
		captureArgs = append(captureArgs, c.outerArg)
	}
	params = append(params, paramRegs...)

	fc.mod.addDef(defName, &assembly.Function{
		Parameters:  params,
		IsGenerator: isGenerator,
		Lines:       inner.lines,
	})

	if len(captureArgs) == 0 {
		return assembly.Ptr(defName), nil
	}

	dst := assembly.Reg(fc.newReg("closure"))
	bindArgs := append([]assembly.Arg{dst, assembly.Ptr(defName)}, captureArgs...)
	fc.emit("bind", bindArgs...)
	return dst, nil
}

// bindFunctionParams declares each of pl's identifier-target parameters as a
// fresh register in inner's scope (inner being the function body's own
// funcCtx, not the enclosing one) and returns their register names in
// declaration order. Destructuring targets and rest parameters are outside
// this runtime's scope and are diagnosed rather than guessed at.
func bindFunctionParams(mod *moduleCtx, inner *funcCtx, pl *ast.ParameterList) []string {
	if pl == nil {
		return nil
	}
	var regs []string
	for _, p := range pl.List {
		ident, ok := p.Target.(*ast.Identifier)
		if !ok {
			mod.diag(Error, "destructuring function parameters are not supported")
			continue
		}
		regs = append(regs, inner.declareReg(string(ident.Name), false, false))
	}
	if pl.Rest != nil {
		mod.diag(Error, "rest parameters are not supported")
	}
	return regs
}

func fnDefHint(name string) string {
	if name == "" {
		return "fn"
	}
	return "fn_" + name
}

// compileFunctionDeclaration compiles a top-level `function name() {...}`
// declaration into its own definition and rewrites top's existing
// Ptr(name) placeholder (declared by module.go's Pass A) to point at it —
// the name was already reserved so sibling declarations compiled before
// this one could reference it, but the reservation itself carries no body.
func compileFunctionDeclaration(mc *moduleCtx, top *scope, s *ast.FunctionDeclaration) {
	name := string(s.Function.Name.Name)
	// Top-level declarations never close over anything (newFuncCtx chains
	// to top itself, which holds only pointer bindings, never registers),
	// so compiling one as a nested literal of a throwaway root funcCtx
	// always yields a bare Ptr with no bind. The definition is compiled
	// under the declared name itself — the exact pointer target Pass A's
	// reservation promised to every body compiled before this one,
	// including this function's own recursive references.
	root := newFuncCtx(mc, top, false)
	arg, err := root.compileFunctionLiteralAs(s.Function, name)
	if err != nil {
		mc.diag(Error, err.Error())
		return
	}
	if arg.Kind != assembly.ArgPointer {
		mc.diag(InternalError, "top-level function declaration unexpectedly captured a register")
		return
	}
	top.declare(name, binding{arg: arg})
}
