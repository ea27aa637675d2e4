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
	"math/big"

	"github.com/dop251/goja/ast"
	"github.com/valuescript/vsgo/assembly"
	"github.com/valuescript/vsgo/builtins"
	"github.com/valuescript/vsgo/value"
)

// binaryOps maps a goja binary/logical operator's textual form (token.Token
// implements Stringer, printing the operator exactly as source spells it —
// using that instead of the token package's own constant names keeps this
// table readable and insulates it from any renumbering across goja
// versions) to the InstrOp the VM understands natively.
var binaryOps = map[string]assembly.InstrOp{
	"+": "plus", "-": "minus", "*": "mul", "/": "div", "%": "mod", "**": "exp",
	"==": "eq", "!=": "ne", "===": "triple_eq", "!==": "triple_ne",
	"<": "less", "<=": "less_eq", ">": "greater", ">=": "greater_eq",
	"&": "bit_and", "|": "bit_or", "^": "bit_xor",
	"<<": "left_shift", ">>": "right_shift", ">>>": "right_shift_unsigned",
	"instanceof": "instance_of", "in": "in",
}

func (fc *funcCtx) compileExpr(node ast.Expression) (assembly.Arg, error) {
	switch n := node.(type) {
	case *ast.Identifier:
		return fc.resolveIdent(string(n.Name))

	case *ast.NumberLiteral:
		return assembly.Const(value.Number(n.Value)), nil

	case *ast.StringLiteral:
		return assembly.Const(value.String(string(n.Value))), nil

	case *ast.BooleanLiteral:
		return assembly.Const(value.Bool(n.Value)), nil

	case *ast.NullLiteral:
		return assembly.Const(value.Null()), nil

	case *ast.BigIntLiteral:
		n2 := new(big.Int).Set(n.Value)
		return assembly.Const(value.BigIntVal(n2)), nil

	case *ast.ThisExpression:
		dst := assembly.Reg(fc.newReg("this"))
		fc.emit("this", dst)
		return dst, nil

	case *ast.ArrayLiteral:
		return fc.compileArrayLiteral(n)

	case *ast.ObjectLiteral:
		return fc.compileObjectLiteral(n)

	case *ast.SequenceExpression:
		var last assembly.Arg = assembly.Const(value.Undefined())
		for _, e := range n.Sequence {
			v, err := fc.compileExpr(e)
			if err != nil {
				return assembly.Arg{}, err
			}
			last = v
		}
		return last, nil

	case *ast.BinaryExpression:
		return fc.compileBinary(n)

	case *ast.UnaryExpression:
		return fc.compileUnary(n)

	case *ast.AssignExpression:
		return fc.compileAssign(n)

	case *ast.ConditionalExpression:
		return fc.compileConditional(n)

	case *ast.CallExpression:
		return fc.compileCall(n)

	case *ast.NewExpression:
		return fc.compileNew(n)

	case *ast.DotExpression:
		objArg, err := fc.compileExpr(n.Left)
		if err != nil {
			return assembly.Arg{}, err
		}
		dst := assembly.Reg(fc.newReg("sub"))
		fc.emit("sub", dst, objArg, assembly.Const(value.String(string(n.Identifier.Name))))
		return dst, nil

	case *ast.BracketExpression:
		objArg, err := fc.compileExpr(n.Left)
		if err != nil {
			return assembly.Arg{}, err
		}
		keyArg, err := fc.compileExpr(n.Member)
		if err != nil {
			return assembly.Arg{}, err
		}
		dst := assembly.Reg(fc.newReg("sub"))
		fc.emit("sub", dst, objArg, keyArg)
		return dst, nil

	case *ast.YieldExpression:
		return fc.compileYield(n)

	case *ast.FunctionLiteral:
		return fc.compileFunctionLiteral(n, "")

	default:
		fc.mod.diag(Error, fmt.Sprintf("unsupported expression %T", node))
		return assembly.Const(value.Undefined()), nil
	}
}

func (fc *funcCtx) resolveIdent(name string) (assembly.Arg, error) {
	if name == "undefined" {
		return assembly.Const(value.Undefined()), nil
	}
	if arg, ok := fc.resolveArg(name); ok {
		return arg, nil
	}
	if idx, ok := builtins.IndexOf(name); ok {
		_ = idx
		return assembly.BuiltinArg(name), nil
	}
	fc.mod.diag(Error, errUnresolved(name).Error())
	return assembly.Const(value.Undefined()), nil
}

func (fc *funcCtx) compileArrayLiteral(n *ast.ArrayLiteral) (assembly.Arg, error) {
	dst := assembly.Reg(fc.newReg("arr"))
	fc.emit("mov", dst, assembly.Const(value.Array(nil)))
	for _, el := range n.Value {
		if el == nil {
			continue
		}
		if sp, ok := el.(*ast.SpreadElement); ok {
			srcArg, err := fc.compileExpr(sp.Expression)
			if err != nil {
				return assembly.Arg{}, err
			}
			fnReg := assembly.Reg(fc.newReg("fn"))
			fc.emit("sub", fnReg, dst, assembly.Const(value.String("push")))
			fc.emit("apply", assembly.Reg(assembly.RegIgnore), fnReg, dst, srcArg)
			continue
		}
		elArg, err := fc.compileExpr(el)
		if err != nil {
			return assembly.Arg{}, err
		}
		fc.emit("sub_call", assembly.Reg(assembly.RegIgnore), dst, assembly.Const(value.String("push")), elArg)
	}
	return dst, nil
}

func (fc *funcCtx) compileObjectLiteral(n *ast.ObjectLiteral) (assembly.Arg, error) {
	dst := assembly.Reg(fc.newReg("obj"))
	fc.emit("mov", dst, assembly.Const(value.Object(nil, nil, value.Undefined())))
	for _, prop := range n.Value {
		switch p := prop.(type) {
		case *ast.PropertyShort:
			valArg, err := fc.resolveIdent(string(p.Name.Name))
			if err != nil {
				return assembly.Arg{}, err
			}
			fc.emit("sub_mov", dst, assembly.Const(value.String(string(p.Name.Name))), valArg)

		case *ast.PropertyKeyed:
			var keyArg assembly.Arg
			if p.Computed {
				k, err := fc.compileExpr(p.Key)
				if err != nil {
					return assembly.Arg{}, err
				}
				keyArg = k
			} else {
				keyArg = assembly.Const(value.String(propKeyName(p.Key)))
			}
			valArg, err := fc.compileExpr(p.Value)
			if err != nil {
				return assembly.Arg{}, err
			}
			fc.emit("sub_mov", dst, keyArg, valArg)

		case *ast.SpreadElement:
			srcArg, err := fc.compileExpr(p.Expression)
			if err != nil {
				return assembly.Arg{}, err
			}
			objBuiltin := assembly.Reg(fc.newReg("objb"))
			fc.emit("mov", objBuiltin, assembly.BuiltinArg("Object"))
			fnReg := assembly.Reg(fc.newReg("fn"))
			fc.emit("sub", fnReg, objBuiltin, assembly.Const(value.String("assign")))
			fc.emit("call", dst, fnReg, assembly.Const(value.Undefined()), dst, srcArg)

		default:
			fc.mod.diag(Error, fmt.Sprintf("unsupported object property %T", prop))
		}
	}
	return dst, nil
}

// propKeyName extracts a non-computed property key's textual name, whether
// spelled as an identifier or a string literal (`{a: 1}` vs `{"a": 1}`).
func propKeyName(key ast.Expression) string {
	switch k := key.(type) {
	case *ast.Identifier:
		return string(k.Name)
	case *ast.StringLiteral:
		return string(k.Value)
	case *ast.NumberLiteral:
		return value.ValToString(value.Number(k.Value))
	default:
		return ""
	}
}

func (fc *funcCtx) compileBinary(n *ast.BinaryExpression) (assembly.Arg, error) {
	sym := n.Operator.String()

	switch sym {
	case "&&", "||":
		return fc.compileLogicalAndOr(sym, n.Left, n.Right)
	case "??":
		a, err := fc.compileExpr(n.Left)
		if err != nil {
			return assembly.Arg{}, err
		}
		b, err := fc.compileExpr(n.Right)
		if err != nil {
			return assembly.Arg{}, err
		}
		dst := assembly.Reg(fc.newReg("coalesce"))
		fc.emit("nullish_coalesce", dst, a, b)
		return dst, nil
	}

	op, ok := binaryOps[sym]
	if !ok {
		fc.mod.diag(Error, fmt.Sprintf("unsupported binary operator %q", sym))
		return assembly.Const(value.Undefined()), nil
	}
	a, err := fc.compileExpr(n.Left)
	if err != nil {
		return assembly.Arg{}, err
	}
	b, err := fc.compileExpr(n.Right)
	if err != nil {
		return assembly.Arg{}, err
	}
	dst := assembly.Reg(fc.newReg("bin"))
	fc.emit(op, dst, a, b)
	return dst, nil
}

// compileLogicalAndOr implements true short-circuit evaluation via explicit
// jumps rather than the VM's single-instruction `and`/`or` opcodes, whose
// handler (vm/bytecode_frame.go) always resolves both operands before
// choosing one — correct for side-effect-free operands but not for `a() &&
// b()`, where b() must not run unless a() is truthy.
func (fc *funcCtx) compileLogicalAndOr(sym string, left, right ast.Expression) (assembly.Arg, error) {
	dst := assembly.Reg(fc.newReg("logical"))
	leftArg, err := fc.compileExpr(left)
	if err != nil {
		return assembly.Arg{}, err
	}
	fc.emit("mov", dst, leftArg)
	end := fc.newLabel("logicalEnd")
	if sym == "&&" {
		fc.emit("jmp_if_not", assembly.LabelArg(end), dst)
	} else {
		fc.emit("jmp_if", assembly.LabelArg(end), dst)
	}
	rightArg, err := fc.compileExpr(right)
	if err != nil {
		return assembly.Arg{}, err
	}
	fc.emit("mov", dst, rightArg)
	fc.emitLabel(end)
	return dst, nil
}

func (fc *funcCtx) compileUnary(n *ast.UnaryExpression) (assembly.Arg, error) {
	sym := n.Operator.String()

	if sym == "++" || sym == "--" {
		t, err := fc.resolveAssignTarget(n.Operand)
		if err != nil {
			return assembly.Arg{}, err
		}
		return fc.compileUpdate(t, sym == "++", !n.Postfix), nil
	}

	a, err := fc.compileExpr(n.Operand)
	if err != nil {
		return assembly.Arg{}, err
	}

	switch sym {
	case "-":
		dst := assembly.Reg(fc.newReg("neg"))
		fc.emit("unary_minus", dst, a)
		return dst, nil
	case "+":
		dst := assembly.Reg(fc.newReg("pos"))
		fc.emit("unary_plus", dst, a)
		return dst, nil
	case "!":
		dst := assembly.Reg(fc.newReg("not"))
		fc.emit("not", dst, a)
		return dst, nil
	case "~":
		dst := assembly.Reg(fc.newReg("bitnot"))
		fc.emit("bit_not", dst, a)
		return dst, nil
	case "typeof":
		dst := assembly.Reg(fc.newReg("typeof"))
		fc.emit("typeof", dst, a)
		return dst, nil
	case "void":
		return assembly.Const(value.Undefined()), nil
	case "delete":
		fc.mod.diag(Lint, "delete has no effect: this runtime has no property-deletion opcode")
		return assembly.Const(value.Bool(true)), nil
	default:
		fc.mod.diag(Error, fmt.Sprintf("unsupported unary operator %q", sym))
		return assembly.Const(value.Undefined()), nil
	}
}

func (fc *funcCtx) compileUpdate(t target, isInc, prefix bool) assembly.Arg {
	if rt, ok := t.(regTarget); ok {
		oldReg := assembly.Reg(fc.newReg("old"))
		fc.emit("mov", oldReg, assembly.Reg(rt.reg))
		op := assembly.InstrOp("inc")
		if !isInc {
			op = "dec"
		}
		fc.emit(op, assembly.Reg(rt.reg))
		if prefix {
			return assembly.Reg(rt.reg)
		}
		return oldReg
	}
	oldArg := t.load(fc)
	oldReg := assembly.Reg(fc.newReg("old"))
	fc.emit("mov", oldReg, oldArg)
	newReg := assembly.Reg(fc.newReg("new"))
	op := assembly.InstrOp("plus")
	if !isInc {
		op = "minus"
	}
	fc.emit(op, newReg, oldReg, assembly.Const(value.Number(1)))
	t.store(fc, newReg)
	if prefix {
		return newReg
	}
	return oldReg
}

// resolveAssignTarget turns an lvalue expression into a target: an
// identifier resolves to a register (diagnosing anything else — a builtin,
// a hoisted function/class pointer — as not assignable), a member access
// resolves to a memberTarget.
func (fc *funcCtx) resolveAssignTarget(node ast.Expression) (target, error) {
	switch n := node.(type) {
	case *ast.Identifier:
		name := string(n.Name)
		if b, ok := fc.scope.lookup(name); ok {
			if b.isConst || b.arg.Kind != assembly.ArgRegister {
				fc.mod.diag(Error, fmt.Sprintf("cannot assign to %q", n.Name))
				return regTarget{reg: fc.newReg("discard")}, nil
			}
			return regTarget{reg: b.arg.Register}, nil
		}
		// Not a local: check whether it's a capture of an enclosing
		// function's variable. Since captures are by value (funcctx.go),
		// writing through one only updates this function's private copy —
		// it never writes back to the defining scope's variable.
		if arg, ok := fc.resolveArg(name); ok {
			if arg.Kind != assembly.ArgRegister {
				fc.mod.diag(Error, fmt.Sprintf("cannot assign to %q", n.Name))
				return regTarget{reg: fc.newReg("discard")}, nil
			}
			return regTarget{reg: arg.Register}, nil
		}
		fc.mod.diag(Error, errUnresolved(name).Error())
		return regTarget{reg: fc.newReg("discard")}, nil

	case *ast.DotExpression:
		objArg, err := fc.compileExpr(n.Left)
		if err != nil {
			return nil, err
		}
		return memberTarget{obj: objArg, key: assembly.Const(value.String(string(n.Identifier.Name)))}, nil

	case *ast.BracketExpression:
		objArg, err := fc.compileExpr(n.Left)
		if err != nil {
			return nil, err
		}
		keyArg, err := fc.compileExpr(n.Member)
		if err != nil {
			return nil, err
		}
		return memberTarget{obj: objArg, key: keyArg}, nil

	default:
		fc.mod.diag(Error, fmt.Sprintf("invalid assignment target %T", node))
		return regTarget{reg: fc.newReg("discard")}, nil
	}
}

func (fc *funcCtx) compileAssign(n *ast.AssignExpression) (assembly.Arg, error) {
	sym := n.Operator.String()
	t, err := fc.resolveAssignTarget(n.Left)
	if err != nil {
		return assembly.Arg{}, err
	}

	if sym == "=" {
		v, err := fc.compileExpr(n.Right)
		if err != nil {
			return assembly.Arg{}, err
		}
		t.store(fc, v)
		return v, nil
	}

	if sym == "&&=" || sym == "||=" || sym == "??=" {
		cur := t.load(fc)
		curReg := assembly.Reg(fc.newReg("cur"))
		fc.emit("mov", curReg, cur)
		end := fc.newLabel("assignEnd")
		switch sym {
		case "&&=":
			fc.emit("jmp_if_not", assembly.LabelArg(end), curReg)
		case "||=":
			fc.emit("jmp_if", assembly.LabelArg(end), curReg)
		case "??=":
			notNullish := assembly.Reg(fc.newReg("notnull"))
			fc.emit("nullish_coalesce", notNullish, curReg, assembly.Const(value.Bool(true)))
			fc.emit("triple_eq", notNullish, notNullish, assembly.Const(value.Bool(true)))
			fc.emit("jmp_if_not", assembly.LabelArg(end), notNullish)
		}
		rhs, err := fc.compileExpr(n.Right)
		if err != nil {
			return assembly.Arg{}, err
		}
		fc.emit("mov", curReg, rhs)
		t.store(fc, curReg)
		fc.emitLabel(end)
		return curReg, nil
	}

	op, ok := binaryOps[sym[:len(sym)-1]]
	if !ok {
		fc.mod.diag(Error, fmt.Sprintf("unsupported assignment operator %q", sym))
		return assembly.Const(value.Undefined()), nil
	}
	cur := t.load(fc)
	rhs, err := fc.compileExpr(n.Right)
	if err != nil {
		return assembly.Arg{}, err
	}
	dst := assembly.Reg(fc.newReg("compound"))
	fc.emit(op, dst, cur, rhs)
	t.store(fc, dst)
	return dst, nil
}

func (fc *funcCtx) compileConditional(n *ast.ConditionalExpression) (assembly.Arg, error) {
	dst := assembly.Reg(fc.newReg("cond"))
	test, err := fc.compileExpr(n.Test)
	if err != nil {
		return assembly.Arg{}, err
	}
	elseLbl := fc.newLabel("else")
	endLbl := fc.newLabel("end")
	fc.emit("jmp_if_not", assembly.LabelArg(elseLbl), test)
	cons, err := fc.compileExpr(n.Consequent)
	if err != nil {
		return assembly.Arg{}, err
	}
	fc.emit("mov", dst, cons)
	fc.emit("jmp", assembly.LabelArg(endLbl))
	fc.emitLabel(elseLbl)
	alt, err := fc.compileExpr(n.Alternate)
	if err != nil {
		return assembly.Arg{}, err
	}
	fc.emit("mov", dst, alt)
	fc.emitLabel(endLbl)
	return dst, nil
}

func (fc *funcCtx) compileArgs(list []ast.Expression) ([]assembly.Arg, error) {
	args := make([]assembly.Arg, 0, len(list))
	for _, a := range list {
		if sp, ok := a.(*ast.SpreadElement); ok {
			// Spread in a call's argument list needs `apply`'s single
			// array-of-args form, which only works when it's the *entire*
			// argument list; mixed spread (`f(a, ...b, c)`) would need
			// building a combined array first. The scenarios this compiler
			// targets never mix the two, so we diagnose and fall back to
			// passing the spread source as a single (likely wrong) arg
			// rather than silently dropping arguments.
			if len(list) != 1 {
				fc.mod.diag(Lint, "mixed spread and plain call arguments are not fully supported")
			}
			v, err := fc.compileExpr(sp.Expression)
			if err != nil {
				return nil, err
			}
			args = append(args, v)
			continue
		}
		v, err := fc.compileExpr(a)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}
	return args, nil
}

func (fc *funcCtx) compileCall(n *ast.CallExpression) (assembly.Arg, error) {
	dst := assembly.Reg(fc.newReg("call"))

	// A lone spread argument (`f(...args)`) compiles to `apply` directly;
	// anything else goes through `call`/`sub_call`/`const_sub_call`.
	soleSpread, isSoleSpread := soleSpreadArg(n.ArgumentList)

	switch callee := n.Callee.(type) {
	case *ast.DotExpression:
		objArg, err := fc.compileExpr(callee.Left)
		if err != nil {
			return assembly.Arg{}, err
		}
		name := string(callee.Identifier.Name)
		if isSoleSpread {
			argsArr, err := fc.compileExpr(soleSpread)
			if err != nil {
				return assembly.Arg{}, err
			}
			fnReg := assembly.Reg(fc.newReg("fn"))
			fc.emit("sub", fnReg, objArg, assembly.Const(value.String(name)))
			fc.emit("apply", dst, fnReg, objArg, argsArr)
			return dst, nil
		}
		args, err := fc.compileArgs(n.ArgumentList)
		if err != nil {
			return assembly.Arg{}, err
		}
		op := assembly.InstrOp("const_sub_call")
		if mutatingArrayMethods[name] {
			op = "sub_call"
		}
		fc.emit(op, append([]assembly.Arg{dst, objArg, assembly.Const(value.String(name))}, args...)...)
		return dst, nil

	case *ast.BracketExpression:
		objArg, err := fc.compileExpr(callee.Left)
		if err != nil {
			return assembly.Arg{}, err
		}
		keyArg, err := fc.compileExpr(callee.Member)
		if err != nil {
			return assembly.Arg{}, err
		}
		args, err := fc.compileArgs(n.ArgumentList)
		if err != nil {
			return assembly.Arg{}, err
		}
		fc.emit("sub_call", append([]assembly.Arg{dst, objArg, keyArg}, args...)...)
		return dst, nil

	default:
		fnArg, err := fc.compileExpr(n.Callee)
		if err != nil {
			return assembly.Arg{}, err
		}
		if isSoleSpread {
			argsArr, err := fc.compileExpr(soleSpread)
			if err != nil {
				return assembly.Arg{}, err
			}
			fc.emit("apply", dst, fnArg, assembly.Const(value.Undefined()), argsArr)
			return dst, nil
		}
		args, err := fc.compileArgs(n.ArgumentList)
		if err != nil {
			return assembly.Arg{}, err
		}
		fc.emit("call", append([]assembly.Arg{dst, fnArg, assembly.Const(value.Undefined())}, args...)...)
		return dst, nil
	}
}

func soleSpreadArg(list []ast.Expression) (ast.Expression, bool) {
	if len(list) != 1 {
		return nil, false
	}
	sp, ok := list[0].(*ast.SpreadElement)
	if !ok {
		return nil, false
	}
	return sp.Expression, true
}

func (fc *funcCtx) compileNew(n *ast.NewExpression) (assembly.Arg, error) {
	calleeArg, err := fc.compileExpr(n.Callee)
	if err != nil {
		return assembly.Arg{}, err
	}
	args, err := fc.compileArgs(n.ArgumentList)
	if err != nil {
		return assembly.Arg{}, err
	}
	dst := assembly.Reg(fc.newReg("new"))
	fc.emit("new", append([]assembly.Arg{dst, calleeArg}, args...)...)
	return dst, nil
}

func (fc *funcCtx) compileYield(n *ast.YieldExpression) (assembly.Arg, error) {
	var argArg assembly.Arg = assembly.Const(value.Undefined())
	if n.Argument != nil {
		v, err := fc.compileExpr(n.Argument)
		if err != nil {
			return assembly.Arg{}, err
		}
		argArg = v
	}
	dst := assembly.Reg(fc.newReg("yield"))
	if n.Delegate {
		fc.emit("yield_star", dst, argArg)
	} else {
		fc.emit("yield", dst, argArg)
	}
	return dst, nil
}
