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

// executeCall handles OpCall/OpApply/OpSubCall/OpConstSubCall/OpThisSubCall:
// each resolves a callee and a this-binding differently, then shares the same
// push-and-remember-the-destination-register tail.
func (f *BytecodeFrame) executeCall(m *Machine, instr bytecode.Instruction) (Signal, error) {
	ops := instr.Operand

	var fnVal, thisVal value.Value
	var args []value.Value

	switch instr.Op {
	case bytecode.OpCall:
		var err error
		fnVal, err = f.resolveOperand(ops[1])
		if err != nil {
			return f.thrown(err)
		}
		thisVal, err = f.resolveOperand(ops[2])
		if err != nil {
			return f.thrown(err)
		}
		args, err = f.resolveAll(ops[3:])
		if err != nil {
			return f.thrown(err)
		}

	case bytecode.OpApply:
		var err error
		fnVal, err = f.resolveOperand(ops[1])
		if err != nil {
			return f.thrown(err)
		}
		thisVal, err = f.resolveOperand(ops[2])
		if err != nil {
			return f.thrown(err)
		}
		argsArray, err := f.resolveOperand(ops[3])
		if err != nil {
			return f.thrown(err)
		}
		// argsArray is whatever the compiler's spread lowering built: a
		// literal array assembled via push, or an arbitrary iterable (a
		// generator's `[...g()]`/`f(...g())`) passed straight through.
		// value.Spread covers both uniformly via the iterator protocol.
		args, err = value.Spread(argsArray)
		if err != nil {
			return f.thrown(err)
		}

	case bytecode.OpSubCall:
		obj, err := f.resolveOperand(ops[1])
		if err != nil {
			return f.thrown(err)
		}
		// sub_call (as opposed to const_sub_call) is emitted for method
		// calls the compiler can't prove are non-mutating (push, sort,
		// ...): ensure the receiver is uniquely owned and write the
		// (possibly cloned) handle back into the operand's register before
		// the callee's in-place mutation is observed, matching OpSubMov's
		// write-path cloning so `const b = a; b.push(x)` leaves `a` intact.
		obj = ensureUniqueReceiver(obj)
		if ops[1].IsRegister {
			f.setReg(ops[1].Register, obj)
		}
		key, err := f.resolveOperand(ops[2])
		if err != nil {
			return f.thrown(err)
		}
		fnVal, err = value.OpSub(obj, key)
		if err != nil {
			return f.thrown(err)
		}
		thisVal = obj
		args, err = f.resolveAll(ops[3:])
		if err != nil {
			return f.thrown(err)
		}

	case bytecode.OpConstSubCall:
		// const_sub_call is the compiler's fast path for method calls known
		// to be non-mutating (map, slice, toString, ...): skip the
		// uniqueness check entirely.
		obj, err := f.resolveOperand(ops[1])
		if err != nil {
			return f.thrown(err)
		}
		key, err := f.resolveOperand(ops[2])
		if err != nil {
			return f.thrown(err)
		}
		fnVal, err = value.OpSub(obj, key)
		if err != nil {
			return f.thrown(err)
		}
		thisVal = obj
		args, err = f.resolveAll(ops[3:])
		if err != nil {
			return f.thrown(err)
		}

	case bytecode.OpThisSubCall:
		f.this = ensureUniqueReceiver(f.this)
		key, err := f.resolveOperand(ops[1])
		if err != nil {
			return f.thrown(err)
		}
		fnVal, err = value.OpSub(f.this, key)
		if err != nil {
			return f.thrown(err)
		}
		thisVal = f.this
		args, err = f.resolveAll(ops[2:])
		if err != nil {
			return f.thrown(err)
		}
	}

	if !fnVal.IsCallable() {
		return f.thrown(&value.ThrownError{Value: value.TypeError("value is not a function")})
	}

	child, err := m.newCallFrame(fnVal, thisVal, args)
	if err != nil {
		return f.thrown(err)
	}
	f.pendingResultReg = reg0(instr)
	f.pendingKind = pendingCallResult
	return pushSignal(child), nil
}

// executeNew handles OpNew: allocates an instance chained to the class's
// instance prototype, pre-sets the destination register to it (ECMAScript
// [[Construct]] returns the allocated instance unless the constructor itself
// returns an object, handled in Resume), then calls the constructor with
// `this` bound to the new instance.
func (f *BytecodeFrame) executeNew(m *Machine, instr bytecode.Instruction) (Signal, error) {
	ops := instr.Operand
	clsVal, err := f.resolveOperand(ops[1])
	if err != nil {
		return f.thrown(err)
	}

	args, err := f.resolveAll(ops[2:])
	if err != nil {
		return f.thrown(err)
	}

	// Native constructors (the Error family and the other callable builtin
	// namespaces) construct their instance themselves when called, matching
	// ECMAScript's native error constructors working with or without `new`;
	// route them through an ordinary call and take the returned instance.
	if clsVal.Tag() == value.TagDynamic && clsVal.IsCallable() {
		child, err := m.newCallFrame(clsVal, value.Undefined(), args)
		if err != nil {
			return f.thrown(err)
		}
		f.pendingResultReg = reg0(instr)
		f.pendingKind = pendingCallResult
		return pushSignal(child), nil
	}

	if !clsVal.IsFunction() {
		return f.thrown(&value.ThrownError{Value: value.TypeError("value is not a constructor")})
	}

	var instanceProto, ctor value.Value
	if clsVal.Tag() == value.TagClass {
		instanceProto = clsVal.ClassInstanceProto()
		ctor = clsVal.ClassConstructor()
	} else {
		instanceProto = value.Undefined()
		ctor = clsVal
	}

	newObj := value.Object(nil, nil, instanceProto)
	f.setReg(reg0(instr), newObj)

	child, err := m.newCallFrame(ctor, newObj, args)
	if err != nil {
		return f.thrown(err)
	}
	f.pendingResultReg = reg0(instr)
	f.pendingKind = pendingNewResult
	return pushSignal(child), nil
}

// ensureUniqueReceiver applies copy-on-write cloning to obj if it is an
// Array or Object that is not uniquely owned; any other kind passes through
// unchanged (primitives have no shared mutable state to protect).
func ensureUniqueReceiver(obj value.Value) value.Value {
	if obj.IsArray() {
		return value.EnsureUniqueArray(obj)
	}
	if obj.IsObject() {
		return value.EnsureUniqueObject(obj)
	}
	return obj
}

func (f *BytecodeFrame) resolveAll(ops []bytecode.Operand) ([]value.Value, error) {
	out := make([]value.Value, len(ops))
	for i, o := range ops {
		v, err := f.resolveOperand(o)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
