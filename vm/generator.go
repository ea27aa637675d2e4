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

// genAdvanceKind distinguishes the three ways a suspended generator can be
// driven forward: a plain next(), a return() that unwinds the body
// immediately with a final value, or a throw() delivered at the parked
// yield point's catch stack.
type genAdvanceKind uint8

const (
	genAdvanceNext genAdvanceKind = iota
	genAdvanceReturn
	genAdvanceThrow
)

type genState uint8

const (
	genNotStarted genState = iota
	genSuspended
	genDone
)

// Generator drives a suspended function body as its own private frame stack,
// separate from whatever Machine is executing the next()/return()/throw()
// call that steps it. Each advance pushes that stack's top frame through
// Step calls exactly the way Machine.runFrame drives its own stack, except
// that a SigYield result pauses the loop and hands control straight back to
// the caller instead of being delivered to a parent frame: the generator's
// frames stay parked on g.inner, untouched, until the next advance resumes
// them. No goroutine or channel is involved, so a generator that is never
// driven to completion is simply garbage once nothing references it.
type Generator struct {
	machine  *Machine
	fn, this value.Value
	args     []value.Value

	state genState
	inner []Frame
}

var _ value.Dynamic = (*Generator)(nil)
var _ value.Iterable = (*Generator)(nil)

// NewGenerator constructs a not-yet-started generator object for calling a
// generator function. m supplies the bytecode registry and module resolver
// new frames resolve against; the generator gets its own Machine so its
// frame stack never aliases the one that created it.
func NewGenerator(m *Machine, fn, this value.Value, args []value.Value) *Generator {
	gm := New(m.Registry)
	gm.Resolver = m.Resolver
	return &Generator{machine: gm, fn: fn, this: this, args: args}
}

// advance runs the generator body until it yields, finishes, or throws,
// delivering kind/v into whatever the body is parked at.
func (g *Generator) advance(kind genAdvanceKind, v value.Value) (value.IterResult, error) {
	if g.state == genDone {
		if kind == genAdvanceThrow {
			return value.IterResult{}, &value.ThrownError{Value: v}
		}
		if kind == genAdvanceReturn {
			return value.IterResult{Value: v, Done: true}, nil
		}
		return value.IterResult{Value: value.Undefined(), Done: true}, nil
	}

	var sig Signal
	var err error

	if g.state == genNotStarted {
		switch kind {
		case genAdvanceReturn:
			g.state = genDone
			return value.IterResult{Value: v, Done: true}, nil
		case genAdvanceThrow:
			g.state = genDone
			return value.IterResult{}, &value.ThrownError{Value: v}
		}
		frame, ferr := newBytecodeFrame(g.machine, g.fn, g.this, g.args)
		if ferr != nil {
			g.state = genDone
			return value.IterResult{}, ferr
		}
		frame.isGeneratorBody = true
		g.inner = []Frame{frame}
		sig, err = frame.Step(g.machine)
	} else {
		top, ok := g.inner[len(g.inner)-1].(*BytecodeFrame)
		if !ok {
			g.state = genDone
			return value.IterResult{}, &value.ThrownError{Value: value.InternalError("generator resumed with no parked yield point")}
		}
		sig, err = top.ResumeYield(kind, v)
	}

	for {
		if err != nil {
			sig = throwSignal(internalErrorValue(err))
			err = nil
		}

		switch sig.Kind {
		case SigYield:
			g.state = genSuspended
			return value.IterResult{Value: sig.PopValue, Done: false}, nil

		case SigPush:
			g.inner = append(g.inner, sig.Push)

		case SigPop:
			g.inner = g.inner[:len(g.inner)-1]
			if len(g.inner) == 0 {
				g.state = genDone
				return value.IterResult{Value: sig.PopValue, Done: true}, nil
			}
			if rerr := g.inner[len(g.inner)-1].Resume(sig.PopValue, false); rerr != nil {
				g.state = genDone
				return value.IterResult{}, rerr
			}

		case SigThrow:
			g.inner = g.inner[:len(g.inner)-1]
			if len(g.inner) == 0 {
				g.state = genDone
				return value.IterResult{}, &value.ThrownError{Value: sig.ThrowValue}
			}
			if rerr := g.inner[len(g.inner)-1].Resume(sig.ThrowValue, true); rerr != nil {
				g.state = genDone
				return value.IterResult{}, rerr
			}
		}

		top := g.inner[len(g.inner)-1]
		sig, err = top.Step(g.machine)
	}
}

// IterNext implements value.Iterable, used by `for...of` over a generator
// object directly.
func (g *Generator) IterNext() (value.IterResult, error) {
	return g.advance(genAdvanceNext, value.Undefined())
}

func (g *Generator) TypeOf() string    { return "object" }
func (g *Generator) ClassName() string { return "Generator" }
func (g *Generator) Pretty() string    { return "[object Generator]" }
func (g *Generator) Codify() string    { return "[object Generator]" }

func (g *Generator) Sub(key value.Value) (value.Value, error) {
	if key.Tag() != value.TagString {
		if key.Tag() == value.TagSymbol && key.SymbolVal() == value.SymbolIterator {
			return value.DynamicVal(g), nil
		}
		return value.Undefined(), nil
	}
	switch key.StringVal() {
	case "next":
		return value.DynamicVal(&GoFunc{Name: "next", Fn: func(m *Machine, this value.Value, args []value.Value) (value.Value, error) {
			res, err := g.advance(genAdvanceNext, Arg(args, 0))
			if err != nil {
				return value.Value{}, err
			}
			return iterResultObject(res), nil
		}}), nil
	case "return":
		return value.DynamicVal(&GoFunc{Name: "return", Fn: func(m *Machine, this value.Value, args []value.Value) (value.Value, error) {
			res, err := g.advance(genAdvanceReturn, Arg(args, 0))
			if err != nil {
				return value.Value{}, err
			}
			return iterResultObject(res), nil
		}}), nil
	case "throw":
		return value.DynamicVal(&GoFunc{Name: "throw", Fn: func(m *Machine, this value.Value, args []value.Value) (value.Value, error) {
			res, err := g.advance(genAdvanceThrow, Arg(args, 0))
			if err != nil {
				return value.Value{}, err
			}
			return iterResultObject(res), nil
		}}), nil
	}
	return value.Undefined(), nil
}

func (g *Generator) SubMov(key, val value.Value) error {
	return nil
}

func iterResultObject(res value.IterResult) value.Value {
	return value.Object(map[string]value.Value{
		"value": res.Value,
		"done":  value.Bool(res.Done),
	}, nil, value.Undefined())
}
