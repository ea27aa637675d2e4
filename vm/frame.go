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

// Package vm implements the ValueScript register-based bytecode interpreter:
// a stack of Frames driven by a single step loop, so that a call, a
// generator resume, or a native iteration callback can all suspend and
// resume without recursing through the host Go stack.
//
// Each Frame's Step fetches, decodes, and executes exactly one instruction
// (or one unit of native work) and reports what the driving Machine should
// do next, so function calls push a new frame instead of recursing.
package vm

import "github.com/valuescript/vsgo/value"

// SignalKind is the outcome of one Frame.Step call.
type SignalKind uint8

const (
	// SigContinue means the frame is not yet finished; call Step again.
	SigContinue SignalKind = iota
	// SigPush means the frame wants a new child frame run to completion
	// before it is stepped again; Machine.runFrame pushes Signal.Push and,
	// once that child frame finishes, delivers the result back via
	// Frame.Resume before resuming this frame's Step calls.
	SigPush
	// SigPop means the frame is finished and is popped off the stack,
	// handing Signal.PopValue to whatever frame is now on top.
	SigPop
	// SigThrow means the frame produced an uncaught (by itself) thrown
	// value; Machine.runFrame unwinds frames looking for a catch target.
	SigThrow
	// SigYield means a generator body suspended at a yield expression. The
	// frame is left exactly as it is, on top of its own stack, for a later
	// resume; only Generator.advance's private loop recognizes this signal; a
	// plain Machine.runFrame never sees it, since generator bodies are never
	// stepped directly by one (see vm/generator.go).
	SigYield
)

// Signal is returned by Frame.Step to tell the Machine what to do next.
type Signal struct {
	Kind       SignalKind
	Push       Frame
	PopValue   value.Value
	ThrowValue value.Value
}

func contSignal() Signal               { return Signal{Kind: SigContinue} }
func pushSignal(f Frame) Signal        { return Signal{Kind: SigPush, Push: f} }
func popSignal(v value.Value) Signal   { return Signal{Kind: SigPop, PopValue: v} }
func throwSignal(v value.Value) Signal { return Signal{Kind: SigThrow, ThrowValue: v} }
func yieldSignal(v value.Value) Signal { return Signal{Kind: SigYield, PopValue: v} }

// Frame is one activation on the Machine's call stack: a bytecode function
// invocation, a native (Go-backed) builtin call, or a suspended generator.
type Frame interface {
	// Step executes one unit of work and reports what should happen next.
	Step(m *Machine) (Signal, error)
	// Resume delivers the result of a child frame pushed via SigPush (or,
	// if thrown is true, an uncaught exception from that child this frame
	// gets first right of refusal to catch) back into this frame's state
	// before Step is called again.
	Resume(result value.Value, thrown bool) error
}

// CatchEntry is one entry in a BytecodeFrame's catch stack, pushed by
// set_catch and popped by unset_catch.
type CatchEntry struct {
	// CatchPC is the byte offset to jump to when a throw is caught here.
	CatchPC int
	// ExceptionReg receives the thrown value when control transfers here.
	ExceptionReg uint8
}
