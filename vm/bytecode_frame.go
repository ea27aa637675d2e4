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

// BytecodeFrame executes one function activation: a register file, a cursor
// into the function's decoded instruction stream, and a local catch stack
// scoped to the frame that pushed it via set_catch/unset_catch. Each call
// gets its own register file, so a call pushes a frame instead of
// clobbering the caller's registers.
type BytecodeFrame struct {
	decoder *bytecode.Decoder
	start   int
	regs    []value.Value
	this    value.Value
	catches []CatchEntry

	pendingThrow *value.Value

	// pendingResultReg/pendingKind record what to do with a pushed child
	// frame's result once Resume delivers it.
	pendingResultReg uint8
	pendingKind      pendingKind

	// isGeneratorBody is set by generator.go when this frame is the body of
	// a generator, the only context where OpYield/OpYieldStar are valid.
	isGeneratorBody bool
	// yieldReg is the destination register a parked OpYield will write the
	// host's next() argument into once ResumeYield delivers it.
	yieldReg uint8
	// yieldStarIter/yieldStarReg hold a yield*'s delegated iterator and
	// destination register across the suspend points of its drain loop.
	yieldStarIter value.Iterable
	yieldStarReg  uint8
}

type pendingKind uint8

const (
	pendingNone pendingKind = iota
	pendingCallResult
	pendingNewResult
)

func newBytecodeFrame(m *Machine, fn value.Value, this value.Value, args []value.Value) (*BytecodeFrame, error) {
	decoder, ok := m.Registry.Decoder(fn.FuncBytecodeID())
	if !ok {
		return nil, &value.ThrownError{Value: value.InternalError("unknown bytecode id %q", fn.FuncBytecodeID())}
	}

	allArgs := append(append([]value.Value{}, fn.FuncBinds()...), args...)

	regs := make([]value.Value, fn.FuncRegCount())
	for i := range regs {
		regs[i] = value.Void()
	}
	paramCount := int(fn.FuncParamCount())
	for i := 0; i < paramCount && i < len(allArgs); i++ {
		regs[i] = allArgs[i].Retain()
	}

	f := &BytecodeFrame{
		decoder: decoder,
		start:   int(fn.FuncStart()),
		regs:    regs,
		this:    this,
	}
	f.decoder.Pos = int(fn.FuncStart())
	return f, nil
}

func (f *BytecodeFrame) getReg(idx uint8) value.Value {
	if int(idx) >= len(f.regs) {
		return value.Undefined()
	}
	return f.regs[idx]
}

func (f *BytecodeFrame) setReg(idx uint8, v value.Value) {
	if int(idx) >= len(f.regs) {
		return
	}
	f.regs[idx].Release()
	f.regs[idx] = v.Retain()
}

func (f *BytecodeFrame) resolveOperand(op bytecode.Operand) (value.Value, error) {
	if op.IsRegister {
		return value.Resolve(f.getReg(op.Register))
	}
	return value.Resolve(op.Value)
}

// Step implements Frame.
func (f *BytecodeFrame) Step(m *Machine) (Signal, error) {
	if f.pendingThrow != nil {
		v := *f.pendingThrow
		f.pendingThrow = nil
		if n := len(f.catches); n > 0 {
			entry := f.catches[n-1]
			f.catches = f.catches[:n-1]
			f.decoder.Pos = f.start + entry.CatchPC
			f.setReg(entry.ExceptionReg, v)
			return contSignal(), nil
		}
		return throwSignal(v), nil
	}

	instr, err := f.decoder.DecodeInstruction()
	if err != nil {
		return Signal{}, err
	}
	sig, err := f.execute(m, instr)
	if err == nil && sig.Kind == SigThrow && len(f.catches) > 0 {
		// A throw raised by this frame's own instruction goes to its
		// innermost set_catch target on the next Step, the same way a
		// child's throw delivered through Resume does.
		v := sig.ThrowValue
		f.pendingThrow = &v
		return contSignal(), nil
	}
	return sig, err
}

// Resume implements Frame: deliver a pushed child frame's outcome.
func (f *BytecodeFrame) Resume(result value.Value, thrown bool) error {
	if thrown {
		f.pendingThrow = &result
		return nil
	}
	switch f.pendingKind {
	case pendingCallResult:
		f.setReg(f.pendingResultReg, result)
	case pendingNewResult:
		// `new` discards a non-object constructor return value and keeps
		// the freshly allocated instance instead (ECMAScript [[Construct]]).
		if result.IsObject() {
			f.setReg(f.pendingResultReg, result)
		}
		// else: the register already holds the allocated instance, set
		// before the push (see execute's OpNew case).
	}
	f.pendingKind = pendingNone
	return nil
}

func reg0(instr bytecode.Instruction) uint8 { return instr.Operand[0].Register }

func (f *BytecodeFrame) execute(m *Machine, instr bytecode.Instruction) (Signal, error) {
	ops := instr.Operand

	switch instr.Op {
	case bytecode.OpEnd:
		if len(ops) == 0 {
			return popSignal(value.Undefined()), nil
		}
		v, err := f.resolveOperand(ops[0])
		if err != nil {
			return f.thrown(err)
		}
		return popSignal(v), nil

	case bytecode.OpMov:
		v, err := f.resolveOperand(ops[1])
		if err != nil {
			return f.thrown(err)
		}
		f.setReg(reg0(instr), v)
		return contSignal(), nil

	case bytecode.OpInc, bytecode.OpDec:
		cur, err := f.resolveOperand(ops[0])
		if err != nil {
			return f.thrown(err)
		}
		var nv value.Value
		if instr.Op == bytecode.OpInc {
			nv, err = value.OpInc(cur)
		} else {
			nv, err = value.OpDec(cur)
		}
		if err != nil {
			return f.thrown(err)
		}
		f.setReg(reg0(instr), nv)
		return contSignal(), nil

	case bytecode.OpPlus, bytecode.OpMinus, bytecode.OpMul, bytecode.OpDiv, bytecode.OpMod, bytecode.OpExp:
		return f.binaryArith(instr)

	case bytecode.OpEq, bytecode.OpNe:
		a, b, err := f.binOperands(ops)
		if err != nil {
			return f.thrown(err)
		}
		var ok bool
		if instr.Op == bytecode.OpEq {
			ok, err = value.OpEq(a, b)
		} else {
			ok, err = value.OpNe(a, b)
		}
		if err != nil {
			return f.thrown(err)
		}
		f.setReg(reg0(instr), value.Bool(ok))
		return contSignal(), nil

	case bytecode.OpTripleEq, bytecode.OpTripleNe:
		a, b, err := f.binOperands(ops)
		if err != nil {
			return f.thrown(err)
		}
		ok := value.OpTripleEq(a, b)
		if instr.Op == bytecode.OpTripleNe {
			ok = !ok
		}
		f.setReg(reg0(instr), value.Bool(ok))
		return contSignal(), nil

	case bytecode.OpAnd, bytecode.OpOr:
		a, b, err := f.binOperands(ops)
		if err != nil {
			return f.thrown(err)
		}
		if instr.Op == bytecode.OpAnd {
			if !a.IsTruthy() {
				f.setReg(reg0(instr), a)
			} else {
				f.setReg(reg0(instr), b)
			}
		} else {
			if a.IsTruthy() {
				f.setReg(reg0(instr), a)
			} else {
				f.setReg(reg0(instr), b)
			}
		}
		return contSignal(), nil

	case bytecode.OpNot:
		a, err := f.resolveOperand(ops[1])
		if err != nil {
			return f.thrown(err)
		}
		f.setReg(reg0(instr), value.OpNot(a))
		return contSignal(), nil

	case bytecode.OpLess, bytecode.OpLessEq, bytecode.OpGreater, bytecode.OpGreaterEq:
		a, b, err := f.binOperands(ops)
		if err != nil {
			return f.thrown(err)
		}
		var ok bool
		switch instr.Op {
		case bytecode.OpLess:
			ok, err = value.OpLess(a, b)
		case bytecode.OpLessEq:
			ok, err = value.OpLessEq(a, b)
		case bytecode.OpGreater:
			ok, err = value.OpGreater(a, b)
		default:
			ok, err = value.OpGreaterEq(a, b)
		}
		if err != nil {
			return f.thrown(err)
		}
		f.setReg(reg0(instr), value.Bool(ok))
		return contSignal(), nil

	case bytecode.OpNullishCoalesce:
		a, b, err := f.binOperands(ops)
		if err != nil {
			return f.thrown(err)
		}
		v, err := value.OpNullishCoalesce(a, b)
		if err != nil {
			return f.thrown(err)
		}
		f.setReg(reg0(instr), v)
		return contSignal(), nil

	case bytecode.OpOptionalChain:
		obj, err := f.resolveOperand(ops[1])
		if err != nil {
			return f.thrown(err)
		}
		if obj.IsNullish() {
			f.setReg(reg0(instr), value.Undefined())
			return contSignal(), nil
		}
		key, err := f.resolveOperand(ops[2])
		if err != nil {
			return f.thrown(err)
		}
		v, err := value.OpSub(obj, key)
		if err != nil {
			return f.thrown(err)
		}
		f.setReg(reg0(instr), v)
		return contSignal(), nil

	case bytecode.OpBitAnd, bytecode.OpBitOr, bytecode.OpBitXor,
		bytecode.OpLeftShift, bytecode.OpRightShift, bytecode.OpRightShiftUnsigned:
		a, b, err := f.binOperands(ops)
		if err != nil {
			return f.thrown(err)
		}
		var v value.Value
		switch instr.Op {
		case bytecode.OpBitAnd:
			v = value.OpBitAnd(a, b)
		case bytecode.OpBitOr:
			v = value.OpBitOr(a, b)
		case bytecode.OpBitXor:
			v = value.OpBitXor(a, b)
		case bytecode.OpLeftShift:
			v = value.OpLeftShift(a, b)
		case bytecode.OpRightShift:
			v = value.OpRightShift(a, b)
		default:
			v = value.OpRightShiftUnsigned(a, b)
		}
		f.setReg(reg0(instr), v)
		return contSignal(), nil

	case bytecode.OpBitNot, bytecode.OpUnaryPlus, bytecode.OpUnaryMinus:
		a, err := f.resolveOperand(ops[1])
		if err != nil {
			return f.thrown(err)
		}
		var v value.Value
		switch instr.Op {
		case bytecode.OpBitNot:
			v = value.OpBitNot(a)
		case bytecode.OpUnaryPlus:
			v, err = value.OpUnaryPlus(a)
		default:
			v, err = value.OpUnaryMinus(a)
		}
		if err != nil {
			return f.thrown(err)
		}
		f.setReg(reg0(instr), v)
		return contSignal(), nil

	case bytecode.OpTypeOf:
		a, err := f.resolveOperand(ops[1])
		if err != nil {
			return f.thrown(err)
		}
		v, err := value.OpTypeOf(a)
		if err != nil {
			return f.thrown(err)
		}
		f.setReg(reg0(instr), v)
		return contSignal(), nil

	case bytecode.OpInstanceOf, bytecode.OpIn:
		a, b, err := f.binOperands(ops)
		if err != nil {
			return f.thrown(err)
		}
		var ok bool
		if instr.Op == bytecode.OpInstanceOf {
			ok, err = value.OpInstanceOf(a, b)
		} else {
			ok, err = value.OpIn(a, b)
		}
		if err != nil {
			return f.thrown(err)
		}
		f.setReg(reg0(instr), value.Bool(ok))
		return contSignal(), nil

	case bytecode.OpSub:
		obj, key, err := f.binOperands(ops)
		if err != nil {
			return f.thrown(err)
		}
		v, err := value.OpSub(obj, key)
		if err != nil {
			return f.thrown(err)
		}
		f.setReg(reg0(instr), v)
		return contSignal(), nil

	case bytecode.OpSubMov:
		obj, err := f.resolveOperand(ops[0])
		if err != nil {
			return f.thrown(err)
		}
		key, err := f.resolveOperand(ops[1])
		if err != nil {
			return f.thrown(err)
		}
		val, err := f.resolveOperand(ops[2])
		if err != nil {
			return f.thrown(err)
		}
		if obj.IsArray() {
			obj = value.EnsureUniqueArray(obj)
		} else if obj.IsObject() {
			obj = value.EnsureUniqueObject(obj)
		}
		if ops[0].IsRegister {
			f.setReg(ops[0].Register, obj)
		}
		if err := value.OpSubMov(obj, key, val); err != nil {
			return f.thrown(err)
		}
		return contSignal(), nil

	case bytecode.OpJmp:
		target, err := f.jumpTarget(ops[0])
		if err != nil {
			return f.thrown(err)
		}
		f.decoder.Pos = f.start + target
		return contSignal(), nil

	case bytecode.OpJmpIf, bytecode.OpJmpIfNot:
		cond, err := f.resolveOperand(ops[1])
		if err != nil {
			return f.thrown(err)
		}
		truthy := cond.IsTruthy()
		if instr.Op == bytecode.OpJmpIfNot {
			truthy = !truthy
		}
		if truthy {
			target, err := f.jumpTarget(ops[0])
			if err != nil {
				return f.thrown(err)
			}
			f.decoder.Pos = f.start + target
		}
		return contSignal(), nil

	case bytecode.OpThrow:
		v, err := f.resolveOperand(ops[0])
		if err != nil {
			return f.thrown(err)
		}
		return throwSignal(v), nil

	case bytecode.OpSetCatch:
		target, err := f.jumpTarget(ops[0])
		if err != nil {
			return f.thrown(err)
		}
		f.catches = append(f.catches, CatchEntry{CatchPC: target, ExceptionReg: ops[1].Register})
		return contSignal(), nil

	case bytecode.OpUnsetCatch:
		if n := len(f.catches); n > 0 {
			f.catches = f.catches[:n-1]
		}
		return contSignal(), nil

	case bytecode.OpRequireMutableThis:
		if f.this.IsArray() {
			f.this = value.EnsureUniqueArray(f.this)
		} else if f.this.IsObject() {
			f.this = value.EnsureUniqueObject(f.this)
		}
		return contSignal(), nil

	case bytecode.OpCall, bytecode.OpApply, bytecode.OpSubCall, bytecode.OpConstSubCall, bytecode.OpThisSubCall:
		return f.executeCall(m, instr)

	case bytecode.OpBind:
		fn, err := f.resolveOperand(ops[1])
		if err != nil {
			return f.thrown(err)
		}
		if !fn.IsFunction() {
			return f.thrown(&value.ThrownError{Value: value.TypeError("bind target is not a function")})
		}
		args := make([]value.Value, 0, len(ops)-2)
		for _, o := range ops[2:] {
			v, err := f.resolveOperand(o)
			if err != nil {
				return f.thrown(err)
			}
			args = append(args, v)
		}
		f.setReg(reg0(instr), fn.Bind(args))
		return contSignal(), nil

	case bytecode.OpNew:
		return f.executeNew(m, instr)

	case bytecode.OpCat:
		var sb []byte
		for _, o := range ops[1:] {
			v, err := f.resolveOperand(o)
			if err != nil {
				return f.thrown(err)
			}
			sb = append(sb, value.ValToString(v)...)
		}
		f.setReg(reg0(instr), value.String(string(sb)))
		return contSignal(), nil

	case bytecode.OpYield, bytecode.OpYieldStar, bytecode.OpNext, bytecode.OpUnpackIterRes:
		return f.executeGeneratorOp(instr)

	case bytecode.OpThis:
		f.setReg(reg0(instr), f.this)
		return contSignal(), nil

	case bytecode.OpImport, bytecode.OpImportStar:
		pathArg, err := f.resolveOperand(ops[1])
		if err != nil {
			return f.thrown(err)
		}
		if !pathArg.IsString() {
			return throwSignal(value.TypeError("import: path must be a string, got %s", pathArg.Tag())), nil
		}
		if m.Resolver == nil {
			return throwSignal(value.InternalError("import: no module resolver configured on this Machine")), nil
		}
		ns, err := m.Resolver.Resolve(pathArg.StringVal())
		if err != nil {
			return f.thrown(err)
		}
		if instr.Op == bytecode.OpImportStar {
			f.setReg(reg0(instr), ns)
			return contSignal(), nil
		}
		def, err := value.OpSub(ns, value.String(""))
		if err != nil {
			return f.thrown(err)
		}
		f.setReg(reg0(instr), def)
		return contSignal(), nil

	default:
		return throwSignal(value.InternalError("unimplemented opcode %s", instr.Op)), nil
	}
}

func (f *BytecodeFrame) thrown(err error) (Signal, error) {
	if te, ok := err.(*value.ThrownError); ok {
		return throwSignal(te.Value), nil
	}
	return Signal{}, err
}

func (f *BytecodeFrame) binOperands(ops []bytecode.Operand) (value.Value, value.Value, error) {
	a, err := f.resolveOperand(ops[1])
	if err != nil {
		return value.Value{}, value.Value{}, err
	}
	b, err := f.resolveOperand(ops[2])
	if err != nil {
		return value.Value{}, value.Value{}, err
	}
	return a, b, nil
}

func (f *BytecodeFrame) binaryArith(instr bytecode.Instruction) (Signal, error) {
	a, b, err := f.binOperands(instr.Operand)
	if err != nil {
		return f.thrown(err)
	}
	var v value.Value
	switch instr.Op {
	case bytecode.OpPlus:
		v, err = value.OpPlus(a, b)
	case bytecode.OpMinus:
		v, err = value.OpMinus(a, b)
	case bytecode.OpMul:
		v, err = value.OpMul(a, b)
	case bytecode.OpDiv:
		v, err = value.OpDiv(a, b)
	case bytecode.OpMod:
		v, err = value.OpMod(a, b)
	default:
		v, err = value.OpExp(a, b)
	}
	if err != nil {
		return f.thrown(err)
	}
	f.setReg(reg0(instr), v)
	return contSignal(), nil
}

func (f *BytecodeFrame) jumpTarget(op bytecode.Operand) (int, error) {
	v, err := f.resolveOperand(op)
	if err != nil {
		return 0, err
	}
	if !v.IsNumber() {
		return 0, &value.ThrownError{Value: value.InternalError("jump target operand is not numeric")}
	}
	return int(v.Float64()), nil
}
