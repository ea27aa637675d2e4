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

// Package assembly is the in-memory intermediate representation the
// compiler emits into and the optimizer rewrites in place, plus its
// line-oriented textual serialization. A Module is nothing but a list of
// named Definitions; instructions reference registers by name and other
// definitions by pointer-name, leaving both register numbering and byte
// offsets to the assembler pass that runs after optimization.
package assembly

import "github.com/valuescript/vsgo/value"

// Module is a compilation unit: every top-level function, class, constant
// and re-export the compiler produced for one source file, plus the set of
// pointer-names the module exports.
type Module struct {
	Definitions []*Definition
	Exports     []Export
}

// Export names a definition as the module's default export or one of its
// named exports.
type Export struct {
	Name    string // "" for the default export
	Pointer string
}

func (m *Module) Lookup(name string) (*Definition, bool) {
	for _, d := range m.Definitions {
		if d.Name == name {
			return d, true
		}
	}
	return nil, false
}

// Definition is one pointer-addressable entry in a module: a name plus one
// of Function/ConstValue/Class/ObjectDef/Lazy/Alias content.
type Definition struct {
	Name    string
	Content DefContent
}

// DefContent is the sum type a module definition's content can take:
// function, value, class, object, lazy (an unevaluated import thunk), or
// alias.
type DefContent interface {
	isDefContent()
}

// Function holds a compiled function body: parameter names (their registers
// are always the first len(Parameters) allocated), the line stream, and
// whether `next`/`yield` apply (a generator, per §4.2).
type Function struct {
	Parameters  []string
	IsGenerator bool
	Lines       []Line
}

func (*Function) isDefContent() {}

// ConstValue is an inline literal definition: the target of constant
// extraction (optimizer) or a compile-time-folded literal (static
// expression evaluator).
type ConstValue struct {
	Value value.Value
}

func (*ConstValue) isDefContent() {}

// Class bundles the constructor function pointer, the instance prototype
// object pointer, and the static (class-side) value pointer, matching
// value.classHandle's trio.
type Class struct {
	Name          string
	Constructor   Arg
	InstanceProto Arg
	Static        Arg
}

func (*Class) isDefContent() {}

// ObjectDef is a plain object definition whose properties can themselves be
// pointers to other definitions — chiefly a class's instance prototype or
// static namespace, where each property is a method (a Function
// definition) rather than a value known at compile time. A ConstValue
// cannot express this: its Value is already a fully-built value.Value, with
// no way to leave a forward reference to a Function that hasn't been
// assigned a byte offset yet. Keys/Values are parallel slices (rather than
// a map) so serialization order is deterministic.
type ObjectDef struct {
	Keys   []string
	Values []Arg
	Proto  Arg
}

func (*ObjectDef) isDefContent() {}

// Lazy is an unevaluated import thunk: a reference to another module's
// export. Only the assembly text parser produces one; the compiler never
// emits a Lazy and no pass resolves one, so a Lazy definition that reaches
// the assembler is an error.
type Lazy struct {
	ModulePath string
	ExportName string // "" for the default export
}

func (*Lazy) isDefContent() {}

// Alias is a definition whose entire content is a reference to another
// definition (`@a = @b`), letting one definition be reachable under two
// names. Only the assembly text parser produces one; the compiler never
// emits an Alias. The optimizer's collapse-pointer-of-
// pointer pass rewrites every ArgPointer naming an Alias to point at the
// Alias's Target directly, after which tree-shake drops the now-
// unreferenced Alias. An Alias reaching the assembler is an optimizer bug:
// by assembly time every pointer should already be direct.
type Alias struct {
	Target string
}

func (*Alias) isDefContent() {}

// Line is one entry in a Function's body: an instruction, a label, a
// comment, or a release pseudo-line. Comment and Release lines are meta —
// the optimizer's "remove meta lines" pass strips them once done with them.
type Line interface {
	isLine()
}

// Instr is a single bytecode instruction in symbolic form: the same
// (opcode, operand-list) shape as bytecode.Instruction, except operands
// name registers and definitions instead of carrying numeric indices or
// byte offsets.
type Instr struct {
	Op   InstrOp
	Args []Arg
}

func (*Instr) isLine() {}

// InstrOp mirrors bytecode.Opcode's name space (not its numbering — the
// assembler maps each symbolic op name to its bytecode.Opcode value and
// rejects a name that has no opcode).
type InstrOp string

// Label marks a jump target; registered in the assembler's first pass and
// referenced by name from Instr.Args via ArgLabel.
type Label struct {
	Name string
}

func (*Label) isLine() {}

// Comment is a no-op annotation, stripped by "remove meta lines".
type Comment struct {
	Text string
}

func (*Comment) isLine() {}

// Release is a pseudo-instruction marking end-of-scope for a named
// register, so the function compiler's register allocator can reuse the
// slot for a later, disjoint binding. Stripped by "remove meta lines" after
// the optimizer has used it to compute live ranges.
type Release struct {
	Register string
}

func (*Release) isLine() {}

// ArgKind distinguishes the five things an Arg can denote.
type ArgKind int

const (
	ArgRegister ArgKind = iota
	ArgConst
	ArgPointer
	ArgLabel
	ArgBuiltin
)

// Arg is a symbolic instruction operand: a named register, an inline
// constant, a pointer to another definition, (only meaningful as a jump or
// set_catch target) a label name, or a reference to a global built-in namespace
// by name (resolved to its stable index at assemble time via
// builtins.IndexOf).
type Arg struct {
	Kind     ArgKind
	Register string
	Const    value.Value
	Pointer  string
	Label    string
	Builtin  string
}

func Reg(name string) Arg      { return Arg{Kind: ArgRegister, Register: name} }
func Const(v value.Value) Arg  { return Arg{Kind: ArgConst, Const: v} }
func Ptr(name string) Arg      { return Arg{Kind: ArgPointer, Pointer: name} }
func LabelArg(name string) Arg { return Arg{Kind: ArgLabel, Label: name} }
func BuiltinArg(name string) Arg { return Arg{Kind: ArgBuiltin, Builtin: name} }

// Well-known register names the function compiler reserves before handing
// out names for user bindings: an implicit "return" slot and an "ignore"
// slot whose writes are guaranteed unused.
//
// RegThis is NOT a real register: the VM keeps a call's receiver in
// BytecodeFrame.this, entirely outside the register file (params occupy
// regs 0..paramCount-1, this is tracked separately; see vm/bytecode_frame.go
// and vm/vm_test.go's manual bytecode fixtures, neither of which ever
// treats "this" as an addressable slot). RegThis exists only as a reserved
// name so the function compiler's allocator never hands a user binding the
// same name a bare `this` expression would want; reading `this` compiles to
// a dedicated zero-operand "this" instruction (bytecode.OpThis) writing
// into a freshly allocated register, never to Reg(RegThis) used as an
// instruction operand.
const (
	RegReturn = "return"
	RegThis   = "this"
	RegIgnore = "ignore"
)
