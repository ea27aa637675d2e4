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

	"github.com/dop251/goja/ast"
	"github.com/valuescript/vsgo/assembly"
	"github.com/valuescript/vsgo/value"
)

// compileStmt lowers one statement into fc's line stream. Every case either
// emits instructions directly or delegates to compileExpr for the
// expressions it contains; control-flow statements build their own labels
// via fc.newLabel the same way compileConditional/compileLogicalAndOr do in
// expr.go.
func (fc *funcCtx) compileStmt(stmt ast.Statement) error {
	switch s := stmt.(type) {
	case *ast.EmptyStatement:
		return nil

	case *ast.ExpressionStatement:
		_, err := fc.compileExpr(s.Expression)
		return err

	case *ast.BlockStatement:
		return fc.compileBlock(s.List)

	case *ast.VariableStatement:
		return fc.compileBindings(s.List, true, false)

	case *ast.LexicalDeclaration:
		isConst := s.Token.String() == "const"
		return fc.compileBindings(s.List, false, isConst)

	case *ast.IfStatement:
		return fc.compileIf(s)

	case *ast.WhileStatement:
		return fc.compileWhile(s)

	case *ast.DoWhileStatement:
		return fc.compileDoWhile(s)

	case *ast.ForStatement:
		return fc.compileFor(s)

	case *ast.ForOfStatement:
		return fc.compileForOf(s)

	case *ast.ForInStatement:
		return fc.compileForIn(s)

	case *ast.BreakStatement:
		loop, ok := fc.currentLoop()
		if !ok {
			fc.mod.diag(Error, "break outside a loop")
			return nil
		}
		fc.emit("jmp", assembly.LabelArg(loop.breakLabel))
		return nil

	case *ast.ContinueStatement:
		loop, ok := fc.currentLoop()
		if !ok {
			fc.mod.diag(Error, "continue outside a loop")
			return nil
		}
		fc.emit("jmp", assembly.LabelArg(loop.continueLabel))
		return nil

	case *ast.ReturnStatement:
		if s.Argument == nil {
			fc.emit("end")
			return nil
		}
		v, err := fc.compileExpr(s.Argument)
		if err != nil {
			return err
		}
		fc.emit("end", v)
		return nil

	case *ast.ThrowStatement:
		v, err := fc.compileExpr(s.Argument)
		if err != nil {
			return err
		}
		fc.emit("throw", v)
		return nil

	case *ast.TryStatement:
		return fc.compileTry(s)

	case *ast.FunctionDeclaration:
		return fc.compileNestedFunctionDeclaration(s)

	case *ast.ClassDeclaration:
		return fc.compileNestedClassDeclaration(s)

	default:
		fc.mod.diag(Error, fmt.Sprintf("unsupported statement %T", stmt))
		return nil
	}
}

// compileBlock hoists every direct FunctionDeclaration child to the top of
// the block (so mutually recursive nested functions, and forward references
// to a function declared later in the same block, both resolve) before
// compiling every statement in source order, mirroring module.go's own
// two-pass hoist for top-level declarations.
func (fc *funcCtx) compileBlock(stmts []ast.Statement) error {
	fc.pushScope()
	defer fc.popScope()
	return fc.compileStmtListHoisted(stmts)
}

func (fc *funcCtx) compileStmtListHoisted(stmts []ast.Statement) error {
	for _, s := range stmts {
		if fd, ok := s.(*ast.FunctionDeclaration); ok {
			name := string(fd.Function.Name.Name)
			fc.declareReg(name, false, false)
		}
	}
	for _, s := range stmts {
		if err := fc.compileStmt(s); err != nil {
			return err
		}
	}
	return nil
}

// compileNestedFunctionDeclaration compiles a function declared inside
// another function's body (as opposed to a top-level declaration, which
// module.go's Pass A/B handle as a pointer-addressable definition). Unlike a
// top-level declaration, a nested one can close over the enclosing
// function's registers, so it's compiled exactly like a named function
// expression and bound into whatever register compileStmtListHoisted already
// reserved for it (or a fresh one, for a declaration this pass didn't see
// coming — e.g. one nested inside a non-block single-statement body).
func (fc *funcCtx) compileNestedFunctionDeclaration(s *ast.FunctionDeclaration) error {
	name := string(s.Function.Name.Name)
	reg, ok := fc.scope.lookup(name)
	if !ok || reg.arg.Kind != assembly.ArgRegister {
		fc.declareReg(name, false, false)
		reg, _ = fc.scope.lookup(name)
	}
	fnArg, err := fc.compileFunctionLiteral(s.Function, name)
	if err != nil {
		return err
	}
	fc.emit("mov", assembly.Reg(reg.arg.Register), fnArg)
	return nil
}

func (fc *funcCtx) compileNestedClassDeclaration(s *ast.ClassDeclaration) error {
	name := string(s.Class.Name.Name)
	defName := fc.mod.newDefName("class_" + name)
	if err := compileClassBody(fc, s.Class, defName); err != nil {
		return err
	}
	reg := fc.declareReg(name, false, false)
	fc.emit("mov", assembly.Reg(reg), assembly.Ptr(defName))
	return nil
}

// compileBindings lowers a `var`/`let`/`const` declaration list. Only a bare
// identifier binding target is supported (array/object destructuring
// patterns are out of scope); anything else is diagnosed and skipped.
func (fc *funcCtx) compileBindings(list []*ast.Binding, isVar, isConst bool) error {
	for _, b := range list {
		ident, ok := b.Target.(*ast.Identifier)
		if !ok {
			fc.mod.diag(Error, "destructuring binding patterns are not supported")
			continue
		}
		name := string(ident.Name)
		var v assembly.Arg = assembly.Const(value.Undefined())
		if b.Initializer != nil {
			var err error
			v, err = fc.compileExpr(b.Initializer)
			if err != nil {
				return err
			}
		}
		reg := fc.declareReg(name, isVar, isConst)
		fc.emit("mov", assembly.Reg(reg), v)
	}
	return nil
}

func (fc *funcCtx) compileIf(s *ast.IfStatement) error {
	test, err := fc.compileExpr(s.Test)
	if err != nil {
		return err
	}
	if s.Alternate == nil {
		end := fc.newLabel("ifEnd")
		fc.emit("jmp_if_not", assembly.LabelArg(end), test)
		if err := fc.compileStmt(s.Consequent); err != nil {
			return err
		}
		fc.emitLabel(end)
		return nil
	}
	elseLbl := fc.newLabel("else")
	end := fc.newLabel("ifEnd")
	fc.emit("jmp_if_not", assembly.LabelArg(elseLbl), test)
	if err := fc.compileStmt(s.Consequent); err != nil {
		return err
	}
	fc.emit("jmp", assembly.LabelArg(end))
	fc.emitLabel(elseLbl)
	if err := fc.compileStmt(s.Alternate); err != nil {
		return err
	}
	fc.emitLabel(end)
	return nil
}

func (fc *funcCtx) compileWhile(s *ast.WhileStatement) error {
	top := fc.newLabel("whileTop")
	end := fc.newLabel("whileEnd")
	fc.pushLoop(top, end)
	defer fc.popLoop()

	fc.emitLabel(top)
	test, err := fc.compileExpr(s.Test)
	if err != nil {
		return err
	}
	fc.emit("jmp_if_not", assembly.LabelArg(end), test)
	if err := fc.compileStmt(s.Body); err != nil {
		return err
	}
	fc.emit("jmp", assembly.LabelArg(top))
	fc.emitLabel(end)
	return nil
}

func (fc *funcCtx) compileDoWhile(s *ast.DoWhileStatement) error {
	top := fc.newLabel("doTop")
	cont := fc.newLabel("doCont")
	end := fc.newLabel("doEnd")
	fc.pushLoop(cont, end)
	defer fc.popLoop()

	fc.emitLabel(top)
	if err := fc.compileStmt(s.Body); err != nil {
		return err
	}
	fc.emitLabel(cont)
	test, err := fc.compileExpr(s.Test)
	if err != nil {
		return err
	}
	fc.emit("jmp_if", assembly.LabelArg(top), test)
	fc.emitLabel(end)
	return nil
}

// compileFor lowers a C-style for-loop. The Initializer/Test/Update clauses
// aren't a fixed AST type in every parser generation, so the initializer is
// matched generically against the two shapes it could plausibly take
// (a reused Statement, or a bare Expression) rather than against a named
// wrapper type, so an unexpected concrete shape degrades to a diagnostic
// instead of a build failure.
func (fc *funcCtx) compileFor(s *ast.ForStatement) error {
	fc.pushScope()
	defer fc.popScope()

	if s.Initializer != nil {
		switch init := interface{}(s.Initializer).(type) {
		case ast.Statement:
			if err := fc.compileStmt(init); err != nil {
				return err
			}
		case ast.Expression:
			if _, err := fc.compileExpr(init); err != nil {
				return err
			}
		default:
			fc.mod.diag(Error, fmt.Sprintf("unsupported for-loop initializer %T", s.Initializer))
		}
	}

	top := fc.newLabel("forTop")
	cont := fc.newLabel("forCont")
	end := fc.newLabel("forEnd")
	fc.pushLoop(cont, end)
	defer fc.popLoop()

	fc.emitLabel(top)
	if s.Test != nil {
		test, err := fc.compileExpr(s.Test)
		if err != nil {
			return err
		}
		fc.emit("jmp_if_not", assembly.LabelArg(end), test)
	}
	if err := fc.compileStmt(s.Body); err != nil {
		return err
	}
	fc.emitLabel(cont)
	if s.Update != nil {
		if _, err := fc.compileExpr(s.Update); err != nil {
			return err
		}
	}
	fc.emit("jmp", assembly.LabelArg(top))
	fc.emitLabel(end)
	return nil
}

// forLoopVarSetter resolves a for-of/for-in loop's binding form into a
// function that stores one iteration's value into it. Into's concrete shape
// varies by parser generation (a bare identifier used as an existing
// binding, or a declaration-wrapping node for `for (let x of ...)`); rather
// than name an uncertain wrapper type, an identifier found anywhere inside
// it is bound fresh (shadowing any same-named outer binding, matching
// `let`/`const` loop-variable scoping) and anything else falls back to
// resolveAssignTarget so `for (obj.k of arr)` and similar member targets
// still work.
func (fc *funcCtx) forLoopVarSetter(into interface{}) (func(assembly.Arg), error) {
	if ident, ok := into.(*ast.Identifier); ok {
		reg := fc.declareReg(string(ident.Name), false, false)
		return func(v assembly.Arg) { fc.emit("mov", assembly.Reg(reg), v) }, nil
	}
	if expr, ok := into.(ast.Expression); ok {
		t, err := fc.resolveAssignTarget(expr)
		if err != nil {
			return nil, err
		}
		return func(v assembly.Arg) { t.store(fc, v) }, nil
	}
	fc.mod.diag(Error, fmt.Sprintf("unsupported for-of/for-in loop variable %T", into))
	discard := fc.newReg("discard")
	return func(v assembly.Arg) { fc.emit("mov", assembly.Reg(discard), v) }, nil
}

// compileIterationOverArray desugars both for-of and for-in: materialize the
// already-built `arr` register's contents with a plain counted loop, calling
// setVar once per element. The source must already be a concrete array
// (compileForOf spreads its iterable into one first, the same way
// compileArrayLiteral's spread element does; compileForIn iterates
// Object.keys' result, which is already an array).
func (fc *funcCtx) compileIterationOverArray(arr assembly.Arg, setVar func(assembly.Arg), body ast.Statement) error {
	idx := assembly.Reg(fc.newReg("idx"))
	fc.emit("mov", idx, assembly.Const(value.Number(0)))
	lenReg := assembly.Reg(fc.newReg("len"))
	fc.emit("sub", lenReg, arr, assembly.Const(value.String("length")))

	top := fc.newLabel("ofTop")
	cont := fc.newLabel("ofCont")
	end := fc.newLabel("ofEnd")
	fc.pushLoop(cont, end)
	defer fc.popLoop()

	fc.emitLabel(top)
	cond := assembly.Reg(fc.newReg("ofCond"))
	fc.emit("less", cond, idx, lenReg)
	fc.emit("jmp_if_not", assembly.LabelArg(end), cond)

	fc.pushScope()
	el := assembly.Reg(fc.newReg("ofEl"))
	fc.emit("sub", el, arr, idx)
	setVar(el)
	if err := fc.compileStmt(body); err != nil {
		return err
	}
	fc.popScope()

	fc.emitLabel(cont)
	fc.emit("inc", idx)
	fc.emit("jmp", assembly.LabelArg(top))
	fc.emitLabel(end)
	return nil
}

// spreadToArray materializes any iterable (array, string, or generator) into
// a freshly built array register, the same `apply`+push trick
// compileArrayLiteral's spread-element case uses — grounded on vm/call.go's
// OpApply handler, which spreads its argument through value.Spread and so
// already walks the full iterator protocol, not just literal arrays.
func (fc *funcCtx) spreadToArray(source assembly.Arg) assembly.Arg {
	dst := assembly.Reg(fc.newReg("spread"))
	fc.emit("mov", dst, assembly.Const(value.Array(nil)))
	fnReg := assembly.Reg(fc.newReg("fn"))
	fc.emit("sub", fnReg, dst, assembly.Const(value.String("push")))
	fc.emit("apply", assembly.Reg(assembly.RegIgnore), fnReg, dst, source)
	return dst
}

// compileForOf desugars `for (x of iterable) body` by eagerly materializing
// iterable into an array and looping over it by index. This sacrifices true
// lazy iteration (an infinite generator would hang instead of needing an
// explicit `break`) in exchange for reusing the array-indexing instructions
// every other loop already compiles to, since the bytecode's `next`
// instruction needs a pre-existing stateful iterator value and this runtime
// exposes no opcode that produces one from a plain array.
func (fc *funcCtx) compileForOf(s *ast.ForOfStatement) error {
	fc.pushScope()
	defer fc.popScope()

	srcArg, err := fc.compileExpr(s.Source)
	if err != nil {
		return err
	}
	arr := fc.spreadToArray(srcArg)

	setVar, err := fc.forLoopVarSetter(interface{}(s.Into))
	if err != nil {
		return err
	}
	return fc.compileIterationOverArray(arr, setVar, s.Body)
}

// compileForIn desugars `for (k in obj) body` into iteration over
// Object.keys(obj), matching builtins/object.go's own key-enumeration order
// (since this runtime's Object has no enumeration opcode of its own —
// compileObjectLiteral's spread lowering leans on the same builtin).
func (fc *funcCtx) compileForIn(s *ast.ForInStatement) error {
	fc.pushScope()
	defer fc.popScope()

	srcArg, err := fc.compileExpr(s.Source)
	if err != nil {
		return err
	}
	objBuiltin := assembly.Reg(fc.newReg("objb"))
	fc.emit("mov", objBuiltin, assembly.BuiltinArg("Object"))
	fnReg := assembly.Reg(fc.newReg("fn"))
	fc.emit("sub", fnReg, objBuiltin, assembly.Const(value.String("keys")))
	keys := assembly.Reg(fc.newReg("keys"))
	fc.emit("call", keys, fnReg, assembly.Const(value.Undefined()), srcArg)

	setVar, err := fc.forLoopVarSetter(interface{}(s.Into))
	if err != nil {
		return err
	}
	return fc.compileIterationOverArray(keys, setVar, s.Body)
}

// compileTry lowers try/catch/finally onto set_catch/unset_catch. A finally
// block is compiled twice (once inline after the try/catch body completes
// normally, once more reachable only via the catch path when there is no
// catch clause to already cover it) since this ISA has no single
// "run on every exit path" primitive; with a catch clause (try/catch or
// try/catch/finally) only the inline copy is emitted.
func (fc *funcCtx) compileTry(s *ast.TryStatement) error {
	if s.Catch == nil {
		if s.Finally == nil {
			return fc.compileStmt(s.Body)
		}
		rethrow := fc.newLabel("rethrow")
		done := fc.newLabel("tryEnd")
		exc := fc.newReg("exc")
		fc.emit("set_catch", assembly.LabelArg(rethrow), assembly.Reg(exc))
		if err := fc.compileStmt(s.Body); err != nil {
			return err
		}
		fc.emit("unset_catch")
		if err := fc.compileStmt(s.Finally); err != nil {
			return err
		}
		fc.emit("jmp", assembly.LabelArg(done))
		fc.emitLabel(rethrow)
		if err := fc.compileStmt(s.Finally); err != nil {
			return err
		}
		fc.emit("throw", assembly.Reg(exc))
		fc.emitLabel(done)
		return nil
	}

	catchLbl := fc.newLabel("catch")
	end := fc.newLabel("tryEnd")

	excReg := fc.newReg("exc")
	fc.emit("set_catch", assembly.LabelArg(catchLbl), assembly.Reg(excReg))
	if err := fc.compileStmt(s.Body); err != nil {
		return err
	}
	fc.emit("unset_catch")
	fc.emit("jmp", assembly.LabelArg(end))

	fc.emitLabel(catchLbl)
	fc.pushScope()
	if ident, ok := interface{}(s.Catch.Parameter).(*ast.Identifier); ok {
		reg := fc.declareReg(string(ident.Name), false, false)
		fc.emit("mov", assembly.Reg(reg), assembly.Reg(excReg))
	}
	if err := fc.compileStmt(s.Catch.Body); err != nil {
		return err
	}
	fc.popScope()
	fc.emitLabel(end)

	if s.Finally != nil {
		return fc.compileStmt(s.Finally)
	}
	return nil
}
