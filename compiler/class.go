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

// compileClassDeclaration compiles a top-level `class Name {...}`
// declaration and rewrites top's Ptr(name) placeholder (reserved by
// module.go's Pass A) to the finished class definition, the same
// reserve-then-fill two-step compileFunctionDeclaration uses.
func compileClassDeclaration(mc *moduleCtx, top *scope, s *ast.ClassDeclaration) {
	name := string(s.Class.Name.Name)
	root := newFuncCtx(mc, top, false)
	// The Class definition lands under the declared name itself, the exact
	// pointer target Pass A reserved — a method body referencing its own
	// class (`new Foo()` inside a static factory) resolves against that
	// reservation before this declaration finishes compiling.
	if err := compileClassBody(root, s.Class, name); err != nil {
		mc.diag(Error, err.Error())
		return
	}
	top.declare(name, binding{arg: assembly.Ptr(name)})
}

// compileClassBody lowers a class literal to three definitions — a
// constructor Function, an instance-prototype ObjectDef holding the other
// instance methods, and a static ObjectDef holding static methods/fields —
// wired together by a top-level Class definition named defName, matching
// assembly.Class's Constructor/InstanceProto/Static trio: instances chain to
// InstanceProto, and `new`'s [[Construct]] is Constructor run against a
// fresh object already so chained, per vm/call.go's executeNew.
//
// enclosing is the funcCtx a class EXPRESSION would be created inside
// (register captures for methods referencing an outer local flow through
// it exactly like compileFunctionLiteral); for a top-level class
// declaration the caller passes a throwaway root funcCtx chained to top,
// which holds only pointer bindings and so never actually captures.
func compileClassBody(enclosing *funcCtx, cls *ast.ClassLiteral, defName string) error {
	var ctor *ast.MethodDefinition
	var instanceKeys, staticKeys []string
	var instanceVals, staticVals []assembly.Arg
	var instanceFields, staticFields []*ast.FieldDefinition

	for _, el := range cls.Body {
		switch m := el.(type) {
		case *ast.MethodDefinition:
			key := propKeyName(m.Key)
			if !m.Static && key == "constructor" {
				ctor = m
				continue
			}
			fnArg, err := enclosing.compileFunctionLiteral(m.Body, defName+"_"+key)
			if err != nil {
				return err
			}
			if m.Static {
				staticKeys = append(staticKeys, key)
				staticVals = append(staticVals, fnArg)
			} else {
				instanceKeys = append(instanceKeys, key)
				instanceVals = append(instanceVals, fnArg)
			}

		case *ast.FieldDefinition:
			if m.Static {
				staticFields = append(staticFields, m)
			} else {
				instanceFields = append(instanceFields, m)
			}

		default:
			enclosing.mod.diag(Error, "unsupported class member")
		}
	}

	ctorArg, err := compileConstructor(enclosing, ctor, instanceFields, defName)
	if err != nil {
		return err
	}

	for _, f := range staticFields {
		key := propKeyName(f.Key)
		staticKeys = append(staticKeys, key)
		staticVals = append(staticVals, staticFieldValue(enclosing.mod, f))
	}

	protoDefName := enclosing.mod.newDefName(defName + "_proto")
	enclosing.mod.addDef(protoDefName, &assembly.ObjectDef{
		Keys:   instanceKeys,
		Values: instanceVals,
		Proto:  assembly.Const(value.Undefined()),
	})

	staticDefName := enclosing.mod.newDefName(defName + "_static")
	enclosing.mod.addDef(staticDefName, &assembly.ObjectDef{
		Keys:   staticKeys,
		Values: staticVals,
		Proto:  assembly.Const(value.Undefined()),
	})

	enclosing.mod.addDef(defName, &assembly.Class{
		Name:          className(cls),
		Constructor:   ctorArg,
		InstanceProto: assembly.Ptr(protoDefName),
		Static:        assembly.Ptr(staticDefName),
	})
	return nil
}

func className(cls *ast.ClassLiteral) string {
	if cls.Name == nil {
		return ""
	}
	return string(cls.Name.Name)
}

// compileConstructor builds the class's constructor as its own Function
// definition. Instance field initializers have no standalone syntax in the
// bytecode (an ObjectDef's Values are Args resolved once at decode time, not
// executable per-instance code), so each becomes a `this.key = initializer`
// assignment injected at the top of the constructor body — compiled in the
// constructor's own funcCtx so an initializer referencing a constructor
// parameter, or closing over an outer local, works the same as any other
// statement in the body would.
func compileConstructor(enclosing *funcCtx, ctor *ast.MethodDefinition, fields []*ast.FieldDefinition, defName string) (assembly.Arg, error) {
	inner := newNestedFuncCtx(enclosing, false)
	var paramRegs []string
	if ctor != nil {
		paramRegs = bindFunctionParams(enclosing.mod, inner, ctor.Body.ParameterList)
	}

	for _, f := range fields {
		if f.Initializer == nil {
			continue
		}
		valArg, err := inner.compileExpr(f.Initializer)
		if err != nil {
			return assembly.Arg{}, err
		}
		thisReg := assembly.Reg(inner.newReg("this"))
		inner.emit("this", thisReg)
		inner.emit("sub_mov", thisReg, assembly.Const(value.String(propKeyName(f.Key))), valArg)
	}

	if ctor != nil && ctor.Body.Body != nil {
		if err := inner.compileStmtListHoisted(ctor.Body.Body.List); err != nil {
			return assembly.Arg{}, err
		}
	}

	return enclosing.finishFunctionDef(inner, paramRegs, false, defName+"_ctor")
}

// staticFieldValue resolves a static field initializer to an Arg usable
// directly inside an ObjectDef, which (unlike a constructor body) has no
// instructions of its own to run — only constant-foldable initializers
// (literals) are supported; anything else is diagnosed and defaults to
// undefined.
func staticFieldValue(mod *moduleCtx, f *ast.FieldDefinition) assembly.Arg {
	if f.Initializer == nil {
		return assembly.Const(value.Undefined())
	}
	switch lit := f.Initializer.(type) {
	case *ast.NumberLiteral:
		return assembly.Const(value.Number(lit.Value))
	case *ast.StringLiteral:
		return assembly.Const(value.String(string(lit.Value)))
	case *ast.BooleanLiteral:
		return assembly.Const(value.Bool(lit.Value))
	case *ast.NullLiteral:
		return assembly.Const(value.Null())
	default:
		mod.diag(Lint, "non-constant static field initializers are not supported")
		return assembly.Const(value.Undefined())
	}
}
