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

package vm

import (
	"github.com/valuescript/vsgo/bytecode"
	"github.com/valuescript/vsgo/value"
)

// executeGeneratorOp handles the Yield/YieldStar/Next/UnpackIterRes
// instructions the compiler emits for generator function bodies and for-of
// desugaring. Yield/YieldStar only make sense inside a frame flagged
// isGeneratorBody (see generator.go); Next/UnpackIterRes are plain
// iterator-protocol helpers usable in any frame.
func (f *BytecodeFrame) executeGeneratorOp(instr bytecode.Instruction) (Signal, error) {
	ops := instr.Operand

	switch instr.Op {
	case bytecode.OpYield:
		if !f.isGeneratorBody {
			return f.thrown(&value.ThrownError{Value: value.InternalError("yield outside a generator body")})
		}
		v, err := f.resolveOperand(ops[1])
		if err != nil {
			return f.thrown(err)
		}
		f.yieldReg = reg0(instr)
		return yieldSignal(v), nil

	case bytecode.OpYieldStar:
		if !f.isGeneratorBody {
			return f.thrown(&value.ThrownError{Value: value.InternalError("yield* outside a generator body")})
		}
		return f.startYieldStar(instr)

	case bytecode.OpNext:
		iterVal, err := f.resolveOperand(ops[1])
		if err != nil {
			return f.thrown(err)
		}
		it, err := value.GetIterator(iterVal)
		if err != nil {
			return f.thrown(err)
		}
		res, err := it.IterNext()
		if err != nil {
			return f.thrown(err)
		}
		f.setReg(reg0(instr), iterResultObject(res))
		return contSignal(), nil

	case bytecode.OpUnpackIterRes:
		resObj, err := f.resolveOperand(ops[2])
		if err != nil {
			return f.thrown(err)
		}
		v, err := value.OpSub(resObj, value.String("value"))
		if err != nil {
			return f.thrown(err)
		}
		d, err := value.OpSub(resObj, value.String("done"))
		if err != nil {
			return f.thrown(err)
		}
		f.setReg(ops[0].Register, v)
		f.setReg(ops[1].Register, d)
		return contSignal(), nil
	}

	return f.thrown(&value.ThrownError{Value: value.InternalError("unreachable generator opcode %s", instr.Op)})
}

// ResumeYield delivers the driving Generator's next()/return()/throw() value
// into a frame parked at a yield or yield* point, producing the Signal that
// continuing past that point would have produced.
func (f *BytecodeFrame) ResumeYield(kind genAdvanceKind, v value.Value) (Signal, error) {
	switch kind {
	case genAdvanceReturn:
		f.yieldStarIter = nil
		return popSignal(v), nil

	case genAdvanceThrow:
		f.pendingThrow = &v
		return contSignal(), nil

	default:
		if f.yieldStarIter != nil {
			return f.advanceYieldStar()
		}
		f.setReg(f.yieldReg, v)
		return contSignal(), nil
	}
}

// startYieldStar begins draining iterable, re-yielding every value it
// produces until the delegated iterator reports done, at which point the
// destination register receives its final value.
func (f *BytecodeFrame) startYieldStar(instr bytecode.Instruction) (Signal, error) {
	ops := instr.Operand
	iterableVal, err := f.resolveOperand(ops[1])
	if err != nil {
		return f.thrown(err)
	}
	it, err := value.GetIterator(iterableVal)
	if err != nil {
		return f.thrown(err)
	}
	f.yieldStarIter = it
	f.yieldStarReg = reg0(instr)
	return f.advanceYieldStar()
}

// advanceYieldStar pulls the next value out of a yield*'s delegated
// iterator, either yielding it onward or, once done, settling the
// destination register and clearing the delegation.
func (f *BytecodeFrame) advanceYieldStar() (Signal, error) {
	res, err := f.yieldStarIter.IterNext()
	if err != nil {
		f.yieldStarIter = nil
		return f.thrown(err)
	}
	if res.Done {
		f.setReg(f.yieldStarReg, res.Value)
		f.yieldStarIter = nil
		return contSignal(), nil
	}
	return yieldSignal(res.Value), nil
}
