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
	mapset "github.com/deckarep/golang-set"

	"github.com/valuescript/vsgo/assembly"
)

// noDestOps lists instructions whose Args[0] is not a register being
// written: jump/throw/catch control-flow ops read their first operand
// (a jump target or, for throw, the thrown value), sub_mov's first operand
// is the object being mutated in place (the register's own binding is
// unchanged), and end's operand is the value being returned.
var noDestOps = map[assembly.InstrOp]bool{
	"jmp": true, "jmp_if": true, "jmp_if_not": true,
	"throw": true, "set_catch": true, "unset_catch": true,
	"require_mutable_this": true, "sub_mov": true, "end": true,
}

// pureOps lists instructions with no effect beyond computing their
// destination register: reduce-instructions only drops a write-to-ignore
// instruction when it's on this list, since e.g. a call or a new must still
// run for its side effects even if nothing reads the result.
var pureOps = map[assembly.InstrOp]bool{
	"mov": true, "plus": true, "minus": true, "mul": true, "div": true, "mod": true, "exp": true,
	"eq": true, "ne": true, "triple_eq": true, "triple_ne": true,
	"and": true, "or": true, "not": true,
	"less": true, "less_eq": true, "greater": true, "greater_eq": true,
	"nullish_coalesce": true,
	"bit_and": true, "bit_or": true, "bit_not": true, "bit_xor": true,
	"left_shift": true, "right_shift": true, "right_shift_unsigned": true,
	"typeof": true,
	"unary_plus": true, "unary_minus": true, "this": true,
	"bind": true, "cat": true,
}

// reduceInstructions drops pure instructions whose destination is the
// ignore register, turns a jmp_if/jmp_if_not with a constant-true condition
// into an unconditional jmp, and removes a jmp_if/jmp_if_not whose
// condition is constant-false outright.
func reduceInstructions(m *assembly.Module) *assembly.Module {
	for _, d := range m.Definitions {
		fn, ok := d.Content.(*assembly.Function)
		if !ok {
			continue
		}
		out := make([]assembly.Line, 0, len(fn.Lines))
		for _, line := range fn.Lines {
			instr, ok := line.(*assembly.Instr)
			if !ok {
				out = append(out, line)
				continue
			}

			if (instr.Op == "jmp_if" || instr.Op == "jmp_if_not") && len(instr.Args) == 2 && instr.Args[1].Kind == assembly.ArgConst {
				truthy := instr.Args[1].Const.IsTruthy()
				if instr.Op == "jmp_if_not" {
					truthy = !truthy
				}
				if truthy {
					out = append(out, &assembly.Instr{Op: "jmp", Args: []assembly.Arg{instr.Args[0]}})
				}
				continue
			}

			if pureOps[instr.Op] && len(instr.Args) > 0 &&
				instr.Args[0].Kind == assembly.ArgRegister && instr.Args[0].Register == assembly.RegIgnore {
				continue
			}

			out = append(out, instr)
		}
		fn.Lines = out
	}
	return m
}

// simplifyJumps removes a jmp that falls straight through to its own
// target anyway, and collapses an unconditional jmp to a label whose next
// real line is `end` into a direct copy of that end instruction.
func simplifyJumps(m *assembly.Module) *assembly.Module {
	for _, d := range m.Definitions {
		if fn, ok := d.Content.(*assembly.Function); ok {
			fn.Lines = simplifyJumpsInFunction(fn.Lines)
		}
	}
	return m
}

func simplifyJumpsInFunction(lines []assembly.Line) []assembly.Line {
	labelAt := map[string]int{}
	for i, line := range lines {
		if lbl, ok := line.(*assembly.Label); ok {
			labelAt[lbl.Name] = i
		}
	}

	realAfter := func(idx int) int {
		for j := idx + 1; j < len(lines); j++ {
			switch lines[j].(type) {
			case *assembly.Comment, *assembly.Release, *assembly.Label:
				continue
			default:
				return j
			}
		}
		return -1
	}

	out := make([]assembly.Line, 0, len(lines))
	for i, line := range lines {
		instr, ok := line.(*assembly.Instr)
		if !ok || instr.Op != "jmp" || len(instr.Args) != 1 || instr.Args[0].Kind != assembly.ArgLabel {
			out = append(out, line)
			continue
		}

		labelIdx, ok := labelAt[instr.Args[0].Label]
		if !ok {
			out = append(out, line)
			continue
		}
		targetIdx := realAfter(labelIdx)
		if targetIdx < 0 {
			out = append(out, line)
			continue
		}
		if targetIdx == realAfter(i) {
			continue
		}
		if end, ok := lines[targetIdx].(*assembly.Instr); ok && end.Op == "end" {
			out = append(out, &assembly.Instr{Op: "end", Args: append([]assembly.Arg{}, end.Args...)})
			continue
		}
		out = append(out, line)
	}
	return out
}

// removeUnusedLabels drops any Label no jmp/jmp_if/jmp_if_not/set_catch
// references.
func removeUnusedLabels(m *assembly.Module) *assembly.Module {
	for _, d := range m.Definitions {
		fn, ok := d.Content.(*assembly.Function)
		if !ok {
			continue
		}
		used := mapset.NewSet()
		for _, line := range fn.Lines {
			if instr, ok := line.(*assembly.Instr); ok {
				for _, a := range instr.Args {
					if a.Kind == assembly.ArgLabel {
						used.Add(a.Label)
					}
				}
			}
		}
		out := make([]assembly.Line, 0, len(fn.Lines))
		for _, line := range fn.Lines {
			if lbl, ok := line.(*assembly.Label); ok && !used.Contains(lbl.Name) {
				continue
			}
			out = append(out, line)
		}
		fn.Lines = out
	}
	return m
}

// removeUnusedRegisters seeds the live-register set from every register
// read anywhere in the function (a conservative, whole-function
// approximation of a primary-register data-flow pass rather than a precise
// per-point liveness analysis) plus every parameter, rewrites writes to any
// other register as writes to the ignore register, and then runs
// reduce-instructions again to drop the resulting ignore-only no-ops.
func removeUnusedRegisters(m *assembly.Module) *assembly.Module {
	for _, d := range m.Definitions {
		fn, ok := d.Content.(*assembly.Function)
		if !ok {
			continue
		}

		live := mapset.NewSet()
		for _, p := range fn.Parameters {
			live.Add(p)
		}
		for _, line := range fn.Lines {
			instr, ok := line.(*assembly.Instr)
			if !ok {
				continue
			}
			start := 1
			if noDestOps[instr.Op] {
				start = 0
			}
			for i := start; i < len(instr.Args); i++ {
				if instr.Args[i].Kind == assembly.ArgRegister {
					live.Add(instr.Args[i].Register)
				}
			}
		}

		for _, line := range fn.Lines {
			instr, ok := line.(*assembly.Instr)
			if !ok || noDestOps[instr.Op] || len(instr.Args) == 0 {
				continue
			}
			if instr.Args[0].Kind != assembly.ArgRegister {
				continue
			}
			if !live.Contains(instr.Args[0].Register) {
				instr.Args[0] = assembly.Reg(assembly.RegIgnore)
			}
		}
	}
	return reduceInstructions(m)
}
