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

	"github.com/valuescript/vsgo/assembly"
)

// funcCtx accumulates one function body's worth of IR while it's being
// compiled: the register allocator, label allocator, line stream, and the
// loop-label stack break/continue resolve against. One funcCtx exists per
// nested function literal (the compiler recurses into a fresh funcCtx for
// every FunctionLiteral it encounters) plus one for the module's top-level
// statement sequence (see module.go's "@entry").
type funcCtx struct {
	mod    *moduleCtx
	scope  *scope
	parent *funcCtx // enclosing function, nil for @entry

	lines []assembly.Line

	regSeq   int
	labelSeq int

	isGenerator bool
	loops       []loopCtx

	// captures records, in first-reference order, every outer-function
	// register this function reads: a by-value closure capture, implemented
	// as a hidden leading parameter bound via the `bind` opcode at the
	// function-literal's creation site (see func.go's compileFunctionLiteral).
	// This is captured BY VALUE, not by live reference — a captured
	// variable's later mutation in the defining scope is not observed by an
	// already-created closure, unlike real ECMAScript closures. Recorded as
	// an Open Question decision in DESIGN.md: the register-per-call-frame
	// model this VM uses (vm/bytecode_frame.go) has no shared mutable cell a
	// reference capture could point at without a larger redesign.
	captures     []captureInfo
	captureIndex map[string]string
}

// captureInfo is one closure capture: hiddenReg is the inner function's
// hidden parameter register the captured value is bound into; outerArg is
// how the enclosing function refers to the captured value at the point the
// closure is created.
type captureInfo struct {
	name      string
	hiddenReg string
	outerArg  assembly.Arg
}

// loopCtx names the labels a break/continue inside the loop body should
// jump to; continueLabel is where a `for` loop's update clause lives (so
// `continue` still runs it), distinct from the loop's exit label.
type loopCtx struct {
	continueLabel string
	breakLabel    string
}

func newFuncCtx(mod *moduleCtx, parentScope *scope, isGenerator bool) *funcCtx {
	return &funcCtx{mod: mod, scope: newScope(parentScope), isGenerator: isGenerator}
}

// newNestedFuncCtx starts a funcCtx for a function literal found inside
// another function body. Its scope is deliberately NOT chained to the
// enclosing funcCtx's scope: a name missing from this function's own scope
// chain is resolved via resolveArg's capture mechanism below, never by
// reaching across a function boundary through scope.parent (scope.parent
// chains only span lexical blocks within one function).
func newNestedFuncCtx(parent *funcCtx, isGenerator bool) *funcCtx {
	return &funcCtx{mod: parent.mod, scope: newScope(nil), parent: parent, isGenerator: isGenerator}
}

// resolveArg resolves a local/module binding (register or hoisted
// function/class pointer) without falling back to the builtin namespace —
// split out from resolveIdent so assignment-target resolution can tell "no
// such local binding" apart from "it's a global, you can't assign to it".
//
// A name found in this function's own scope chain resolves directly. A name
// found only in an enclosing function is a closure capture: non-register
// bindings (a hoisted function/class pointer, a builtin) are usable as-is
// with no capture needed, since they're already addressable from anywhere.
// A register binding, though, only exists in the outer call frame, so it is
// captured BY VALUE — copied once into a hidden leading parameter of this
// function, bound at the closure's creation site via the `bind` opcode (see
// compileFunctionLiteral). Repeated references to the same outer name reuse
// the one hidden parameter already recorded in captureIndex.
func (fc *funcCtx) resolveArg(name string) (assembly.Arg, bool) {
	if b, ok := fc.scope.lookup(name); ok {
		return b.arg, true
	}
	if fc.parent == nil {
		return assembly.Arg{}, false
	}
	outerArg, ok := fc.parent.resolveArg(name)
	if !ok {
		return assembly.Arg{}, false
	}
	if outerArg.Kind != assembly.ArgRegister {
		return outerArg, true
	}
	if hidden, ok := fc.captureIndex[name]; ok {
		return assembly.Reg(hidden), true
	}
	hidden := fc.newReg("cap_" + name)
	if fc.captureIndex == nil {
		fc.captureIndex = map[string]string{}
	}
	fc.captureIndex[name] = hidden
	fc.captures = append(fc.captures, captureInfo{name: name, hiddenReg: hidden, outerArg: outerArg})
	return assembly.Reg(hidden), true
}

func (fc *funcCtx) newReg(hint string) string {
	fc.regSeq++
	if hint == "" {
		hint = "tmp"
	}
	return fmt.Sprintf("%s$%d", hint, fc.regSeq)
}

func (fc *funcCtx) newLabel(hint string) string {
	fc.labelSeq++
	return fmt.Sprintf(".%s%d", hint, fc.labelSeq)
}

func (fc *funcCtx) emit(op assembly.InstrOp, args ...assembly.Arg) {
	fc.lines = append(fc.lines, &assembly.Instr{Op: op, Args: args})
}

func (fc *funcCtx) emitLabel(name string) {
	fc.lines = append(fc.lines, &assembly.Label{Name: name})
}

func (fc *funcCtx) emitComment(text string) {
	fc.lines = append(fc.lines, &assembly.Comment{Text: text})
}

func (fc *funcCtx) emitRelease(reg string) {
	fc.lines = append(fc.lines, &assembly.Release{Register: reg})
}

// pushScope opens a nested lexical block; popScope closes it, releasing
// every register-backed, non-var binding the block declared so the
// optimizer's remove-unused-registers pass can see the live range end (the
// `var` exception mirrors JS's function-scoped var semantics: a var
// declared inside a block is still live for the rest of the function;
// pointer bindings — hoisted function/class names — were never a register
// to begin with, so there's nothing to release).
func (fc *funcCtx) pushScope() {
	fc.scope = newScope(fc.scope)
}

func (fc *funcCtx) popScope() {
	for _, b := range fc.scope.bindings {
		if !b.isVar && b.arg.Kind == assembly.ArgRegister {
			fc.emitRelease(b.arg.Register)
		}
	}
	fc.scope = fc.scope.parent
}

// declareReg binds name to a fresh register in the current scope (or the
// enclosing function scope, for `var`) and returns the register name.
func (fc *funcCtx) declareReg(name string, isVar, isConst bool) string {
	reg := fc.newReg(name)
	b := binding{arg: assembly.Reg(reg), isVar: isVar, isConst: isConst}
	if isVar {
		s := fc.scope
		for s.parent != nil {
			s = s.parent
		}
		s.declare(name, b)
	} else {
		fc.scope.declare(name, b)
	}
	return reg
}

func (fc *funcCtx) pushLoop(continueLabel, breakLabel string) {
	fc.loops = append(fc.loops, loopCtx{continueLabel: continueLabel, breakLabel: breakLabel})
}

func (fc *funcCtx) popLoop() {
	fc.loops = fc.loops[:len(fc.loops)-1]
}

func (fc *funcCtx) currentLoop() (loopCtx, bool) {
	if len(fc.loops) == 0 {
		return loopCtx{}, false
	}
	return fc.loops[len(fc.loops)-1], true
}
