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

package optimizer

import (
	"github.com/valuescript/vsgo/assembly"
	"github.com/valuescript/vsgo/value"
)

// simplifySymbolic is Kal: an abstract interpreter that tracks, per
// register, the literal value it's known to hold within the current basic
// block (a Label resets the tracked set, since a block can be entered from
// more than one predecessor and we don't build a full CFG to merge them).
// Folds any instruction whose operands are all known into a single `mov`,
// and replaces reads of known registers with their literal value elsewhere
// so a later pass (reduce-instructions, simplify-jumps) can act on them.
func simplifySymbolic(m *assembly.Module) *assembly.Module {
	for _, d := range m.Definitions {
		if fn, ok := d.Content.(*assembly.Function); ok {
			simplifyFunctionSymbolic(fn)
		}
	}
	return m
}

func simplifyFunctionSymbolic(fn *assembly.Function) {
	known := map[string]value.Value{}

	for _, line := range fn.Lines {
		switch l := line.(type) {
		case *assembly.Label:
			known = map[string]value.Value{}

		case *assembly.Instr:
			if l.Op == "mov" && len(l.Args) == 2 {
				if l.Args[1].Kind == assembly.ArgRegister {
					if v, ok := known[l.Args[1].Register]; ok {
						l.Args[1] = assembly.Const(v)
					}
				}
				if l.Args[0].Kind == assembly.ArgRegister {
					if l.Args[1].Kind == assembly.ArgConst {
						known[l.Args[0].Register] = l.Args[1].Const
					} else {
						delete(known, l.Args[0].Register)
					}
				}
				continue
			}

			if v, ok := tryFold(l, known); ok {
				dest := l.Args[0]
				l.Op = "mov"
				l.Args = []assembly.Arg{dest, assembly.Const(v)}
				if dest.Kind == assembly.ArgRegister {
					known[dest.Register] = v
				}
				continue
			}

			start := 1
			if noDestOps[l.Op] {
				start = 0
			}
			for i := start; i < len(l.Args); i++ {
				if l.Args[i].Kind == assembly.ArgRegister {
					if v, ok := known[l.Args[i].Register]; ok {
						l.Args[i] = assembly.Const(v)
					}
				}
			}

			switch {
			case l.Op == "unpack_iter_res":
				for _, i := range [2]int{0, 1} {
					if i < len(l.Args) && l.Args[i].Kind == assembly.ArgRegister {
						delete(known, l.Args[i].Register)
					}
				}
			case !noDestOps[l.Op] && len(l.Args) > 0 && l.Args[0].Kind == assembly.ArgRegister:
				delete(known, l.Args[0].Register)
			}
		}
	}
}

var binaryValueFold = map[assembly.InstrOp]func(a, b value.Value) (value.Value, error){
	"plus": value.OpPlus, "minus": value.OpMinus, "mul": value.OpMul,
	"div": value.OpDiv, "mod": value.OpMod, "exp": value.OpExp,
}

var binaryBoolFold = map[assembly.InstrOp]func(a, b value.Value) (bool, error){
	"eq": value.OpEq, "ne": value.OpNe,
	"less": value.OpLess, "less_eq": value.OpLessEq,
	"greater": value.OpGreater, "greater_eq": value.OpGreaterEq,
}

var binaryPlainFold = map[assembly.InstrOp]func(a, b value.Value) value.Value{
	"bit_and": value.OpBitAnd, "bit_or": value.OpBitOr, "bit_xor": value.OpBitXor,
	"left_shift": value.OpLeftShift, "right_shift": value.OpRightShift,
	"right_shift_unsigned": value.OpRightShiftUnsigned,
}

var unaryValueFold = map[assembly.InstrOp]func(a value.Value) (value.Value, error){
	"unary_plus": value.OpUnaryPlus, "unary_minus": value.OpUnaryMinus, "typeof": value.OpTypeOf,
}

var unaryPlainFold = map[assembly.InstrOp]func(a value.Value) value.Value{
	"bit_not": value.OpBitNot, "not": value.OpNot,
}

// tryFold attempts to constant-fold instr's pure operation given the
// currently-known register values, returning the literal result and true
// on success. Fails closed: any unresolved operand, unrecognized op, or a
// folding error (e.g. a throw-worthy runtime type error) leaves instr
// untouched so the VM itself reports the error at run time.
func tryFold(instr *assembly.Instr, known map[string]value.Value) (value.Value, bool) {
	resolve := func(a assembly.Arg) (value.Value, bool) {
		switch a.Kind {
		case assembly.ArgConst:
			return a.Const, true
		case assembly.ArgRegister:
			v, ok := known[a.Register]
			return v, ok
		default:
			return value.Value{}, false
		}
	}

	switch len(instr.Args) {
	case 3:
		a, aok := resolve(instr.Args[1])
		b, bok := resolve(instr.Args[2])
		if !aok || !bok {
			return value.Value{}, false
		}
		if f, ok := binaryValueFold[instr.Op]; ok {
			if v, err := f(a, b); err == nil {
				return v, true
			}
			return value.Value{}, false
		}
		if f, ok := binaryBoolFold[instr.Op]; ok {
			if r, err := f(a, b); err == nil {
				return value.Bool(r), true
			}
			return value.Value{}, false
		}
		if f, ok := binaryPlainFold[instr.Op]; ok {
			return f(a, b), true
		}
		switch instr.Op {
		case "triple_eq":
			return value.Bool(value.OpTripleEq(a, b)), true
		case "triple_ne":
			return value.Bool(value.OpTripleNe(a, b)), true
		}

	case 2:
		a, aok := resolve(instr.Args[1])
		if !aok {
			return value.Value{}, false
		}
		if f, ok := unaryValueFold[instr.Op]; ok {
			if v, err := f(a); err == nil {
				return v, true
			}
			return value.Value{}, false
		}
		if f, ok := unaryPlainFold[instr.Op]; ok {
			return f(a), true
		}
	}

	return value.Value{}, false
}
