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

import "github.com/valuescript/vsgo/value"

// nativeFrame wraps one call into a Go-implemented builtin. Its Step runs
// the callable to completion in a single step (recursing through Go's own
// call stack for any nested ValueScript calls the builtin makes via
// Machine.Call, e.g. Array.prototype.sort invoking its comparator). Builtins
// that must interleave with the step protocol instead — the array
// higher-order methods, whose callbacks can throw through a caller's catch
// stack — implement FrameCallable and never pass through here.
type nativeFrame struct {
	callable NativeCallable
	this     value.Value
	args     []value.Value
}

func newNativeFrame(callable NativeCallable, this value.Value, args []value.Value) *nativeFrame {
	return &nativeFrame{callable: callable, this: this, args: args}
}

func (f *nativeFrame) Step(m *Machine) (Signal, error) {
	result, err := f.callable.Invoke(m, f.this, f.args)
	if err != nil {
		if te, ok := err.(*value.ThrownError); ok {
			return throwSignal(te.Value), nil
		}
		return Signal{}, err
	}
	return popSignal(result), nil
}

func (f *nativeFrame) Resume(result value.Value, thrown bool) error {
	// nativeFrame completes in a single Step and is never left on the stack
	// to receive a child's result directly; Invoke's own nested Machine.Call
	// already unwound before Step returned.
	return nil
}
