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
	"fmt"

	"github.com/valuescript/vsgo/bytecode"
	"github.com/valuescript/vsgo/value"
)

// Machine owns the frame stack and the bytecode registry every Frame
// resolves Function values against. One Machine serves one logical program
// run; builtins and the loader each hold a reference to drive calls back
// into ValueScript (e.g. Array.prototype.sort invoking its comparator).
type Machine struct {
	frames   []Frame
	Registry *bytecode.Registry

	// Resolver backs the `import`/`import_star` opcodes (vm/bytecode_frame.go).
	// Nil on a Machine running a single self-contained module that performs
	// no cross-module imports; package loader supplies one that compiles,
	// links, and caches the imported module's export object on demand.
	Resolver ModuleResolver
}

// ModuleResolver resolves an import path — already baked absolute (for
// relative specifiers) or left as a bare package-style name by
// compiler.ResolvePath at compile time — to the target module's export
// object: a plain value.Object keyed by export name ("" for the default
// export), the same shape compiler.Compile's synthetic "@entry" function
// always returns. `import` reads the "" member off the result;
// `import_star` uses the whole object as the imported namespace.
type ModuleResolver interface {
	Resolve(path string) (value.Value, error)
}

// New constructs a Machine backed by registry, which must already contain
// every bytecode blob the program's Function values reference.
func New(registry *bytecode.Registry) *Machine {
	return &Machine{Registry: registry}
}

// Call invokes fn(args) with the given this-binding and drives the frame
// stack to completion, returning either the resolved return value or a
// *value.ThrownError carrying whatever propagated out uncaught.
func (m *Machine) Call(fn value.Value, this value.Value, args []value.Value) (value.Value, error) {
	frame, err := m.newCallFrame(fn, this, args)
	if err != nil {
		return value.Value{}, err
	}
	return m.runFrame(frame)
}

// runFrame pushes f and steps the Machine until the stack returns to the
// depth it had before f was pushed, returning f's (or one of its
// descendants', once popped back up) final value.
func (m *Machine) runFrame(f Frame) (value.Value, error) {
	m.frames = append(m.frames, f)
	baseDepth := len(m.frames) - 1

	for len(m.frames) > baseDepth {
		top := m.frames[len(m.frames)-1]
		sig, err := top.Step(m)
		if err != nil {
			sig = throwSignal(internalErrorValue(err))
		}

		switch sig.Kind {
		case SigContinue:
			continue

		case SigPush:
			m.frames = append(m.frames, sig.Push)

		case SigPop:
			m.frames = m.frames[:len(m.frames)-1]
			if len(m.frames) <= baseDepth {
				return sig.PopValue, nil
			}
			parent := m.frames[len(m.frames)-1]
			if err := parent.Resume(sig.PopValue, false); err != nil {
				return value.Value{}, err
			}

		case SigThrow:
			m.frames = m.frames[:len(m.frames)-1]
			if len(m.frames) <= baseDepth {
				return value.Value{}, &value.ThrownError{Value: sig.ThrowValue}
			}
			parent := m.frames[len(m.frames)-1]
			if err := parent.Resume(sig.ThrowValue, true); err != nil {
				return value.Value{}, err
			}
		}
	}

	return value.Value{}, fmt.Errorf("vm: frame stack exhausted without a result")
}

func internalErrorValue(err error) value.Value {
	if te, ok := err.(*value.ThrownError); ok {
		return te.Value
	}
	return value.InternalError(err.Error())
}

// newCallFrame builds the Frame appropriate for fn's kind: a BytecodeFrame
// for ordinary Function values (binds prepended to args, the way `bind`
// constructs its closure), or a NativeFrame for Dynamic callables
// (builtins).
func (m *Machine) newCallFrame(fn value.Value, this value.Value, args []value.Value) (Frame, error) {
	resolved, err := value.Resolve(fn)
	if err != nil {
		return nil, err
	}
	switch resolved.Tag() {
	case value.TagFunction:
		if resolved.FuncIsGenerator() {
			gen := NewGenerator(m, resolved, this, args)
			return newNativeFrame(&GoFunc{
				Name: "generator",
				Fn: func(m *Machine, this value.Value, args []value.Value) (value.Value, error) {
					return value.DynamicVal(gen), nil
				},
			}, this, args), nil
		}
		return newBytecodeFrame(m, resolved, this, args)
	case value.TagClass:
		return newBytecodeFrame(m, resolved.ClassConstructor(), this, args)
	case value.TagDynamic:
		if fc, ok := resolved.Dyn().(FrameCallable); ok {
			return fc.CallFrame(m, this, args)
		}
		if callable, ok := resolved.Dyn().(NativeCallable); ok {
			return newNativeFrame(callable, this, args), nil
		}
		return nil, &value.ThrownError{Value: value.TypeError("value is not callable")}
	default:
		return nil, &value.ThrownError{Value: value.TypeError("value is not callable")}
	}
}

// NativeCallable is implemented by Dynamic objects that can be called
// directly from ValueScript (most builtins). Calls that need to invoke
// ValueScript functions themselves (Array.prototype.sort's comparator) do so
// via Machine.Call from inside their Invoke, not by pushing their own Frame —
// the array higher-order methods, whose per-element callbacks must interleave
// with the step protocol, implement FrameCallable and expand into an
// IterationFrame instead (see iteration_frame.go).
type NativeCallable interface {
	value.Dynamic
	Invoke(m *Machine, this value.Value, args []value.Value) (value.Value, error)
}
