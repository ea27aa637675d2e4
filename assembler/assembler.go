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

// Package assembler lowers the assembly package's symbolic IR into the
// bytecode package's wire format: a two-pass translation grounded on
// vm/vm_test.go's hand-built fixtures (its buildFunction helper is
// explicitly commented as doing "the way the assembler package will, once
// written"). Pass one walks every definition once, in order, encoding each
// instruction's operands as it goes and reserving fixed-width placeholders
// wherever a byte offset isn't known yet (a forward Pointer to another
// definition, or a jmp/jmp_if/set_catch target inside the same function).
// Pass two patches those placeholders now that every definition and label's
// final offset is known.
package assembler

import (
	"fmt"

	"github.com/valuescript/vsgo/assembly"
	"github.com/valuescript/vsgo/builtins"
	"github.com/valuescript/vsgo/bytecode"
)

// Assembled is one module's assembled bytecode: the blob registered under
// id, and the byte offset of each of its exports, which package loader
// uses to build the linked value.Value graph other modules import.
type Assembled struct {
	ID       string
	Registry *bytecode.Registry
	Exports  map[string]int
}

// Assemble lowers every definition in m into one contiguous bytecode blob
// registered under id.
func Assemble(id string, m *assembly.Module) (*Assembled, error) {
	a := &assembler{e: bytecode.NewEncoder(), defOffset: map[string]int{}}

	for _, def := range m.Definitions {
		a.defOffset[def.Name] = a.e.Len()
		if err := a.assembleDefinition(def); err != nil {
			return nil, fmt.Errorf("assembling %s: %w", def.Name, err)
		}
	}

	for _, p := range a.ptrPatches {
		target, ok := a.defOffset[p.name]
		if !ok {
			return nil, fmt.Errorf("undefined pointer target %q", p.name)
		}
		a.e.PatchVarUint(p.pos, uint64(target))
	}

	exports := make(map[string]int, len(m.Exports))
	for _, ex := range m.Exports {
		off, ok := a.defOffset[ex.Pointer]
		if !ok {
			return nil, fmt.Errorf("export %q: undefined pointer target %q", ex.Name, ex.Pointer)
		}
		exports[ex.Name] = off
	}

	registry := bytecode.NewRegistry()
	registry.Register(id, a.e.Buf)

	return &Assembled{ID: id, Registry: registry, Exports: exports}, nil
}

type ptrPatch struct {
	pos  int
	name string
}

// assembler accumulates one module's worth of output. Pointer patches are
// module-scoped (a function can hold a Pointer to any other definition in
// the module, forward or backward) and so are collected across every
// definition and resolved in a single pass at the end; label patches are
// function-scoped and resolved as soon as that function's lines are done
// (see assembleFunction).
type assembler struct {
	e          *bytecode.Encoder
	defOffset  map[string]int
	ptrPatches []ptrPatch
}

func (a *assembler) assembleDefinition(def *assembly.Definition) error {
	switch c := def.Content.(type) {
	case *assembly.ConstValue:
		return bytecode.EncodeValue(a.e, c.Value)
	case *assembly.Function:
		return a.assembleFunction(c)
	case *assembly.Class:
		return a.assembleClass(c)
	case *assembly.ObjectDef:
		return a.assembleObjectDef(c)
	case *assembly.Lazy:
		return fmt.Errorf("unresolved lazy import %s.%s reached the assembler (loader should have linked it first)", c.ModulePath, c.ExportName)
	case *assembly.Alias:
		return fmt.Errorf("unresolved alias to %q reached the assembler (optimizer should have collapsed it first)", c.Target)
	default:
		return fmt.Errorf("unknown definition content %T", def.Content)
	}
}

// assembleClass mirrors bytecode.Decoder.decodeClass's field order exactly:
// name, an empty hash (content hashing is storage's concern, computed over
// the assembled blob, not carried in the wire form itself), constructor,
// instance prototype, static value.
func (a *assembler) assembleClass(c *assembly.Class) error {
	a.e.WriteTag(bytecode.TagClass)
	a.e.WriteString(c.Name)
	a.e.WriteVarUint(0)
	for _, field := range []assembly.Arg{c.Constructor, c.InstanceProto, c.Static} {
		if err := a.writeModuleArg(field); err != nil {
			return err
		}
	}
	return nil
}

// assembleObjectDef mirrors bytecode.Decoder.decodeObject's wire format
// exactly (repeated key/value pairs terminated by TagEnd, then the
// prototype value), so a class's instance prototype or static namespace —
// whose properties are method Function pointers rather than compile-time
// constants — decodes the same way any other object literal would.
func (a *assembler) assembleObjectDef(o *assembly.ObjectDef) error {
	a.e.WriteTag(bytecode.TagObject)
	for i, key := range o.Keys {
		a.e.WriteString(key)
		if err := a.writeModuleArg(o.Values[i]); err != nil {
			return err
		}
	}
	a.e.WriteTag(bytecode.TagEnd)
	return a.writeModuleArg(o.Proto)
}

// writeModuleArg encodes an Arg that appears outside any function body
// (a Class's three definition references, or an ObjectDef's property/proto
// values), where there is no register namespace to resolve against.
func (a *assembler) writeModuleArg(arg assembly.Arg) error {
	switch arg.Kind {
	case assembly.ArgConst:
		return bytecode.EncodeValue(a.e, arg.Const)
	case assembly.ArgPointer:
		pos := a.e.WritePointerPlaceholder()
		a.ptrPatches = append(a.ptrPatches, ptrPatch{pos: pos, name: arg.Pointer})
		return nil
	case assembly.ArgBuiltin:
		idx, ok := builtins.IndexOf(arg.Builtin)
		if !ok {
			return fmt.Errorf("unknown builtin %q", arg.Builtin)
		}
		a.e.WriteBuiltin(idx)
		return nil
	default:
		return fmt.Errorf("expected a constant or pointer, got %v", arg.Kind)
	}
}

type labelPatch struct {
	pos  int
	name string
}

// assembleFunction allocates a register index per distinct register name
// (parameters first, in declaration order, then every other name in first
// use order — mirroring newBytecodeFrame's params-occupy-regs-0..n-1
// convention), then emits the header and instruction stream. RegThis is
// never assigned an index: a bare `this` read must compile to a dedicated
// zero-arg "this" instruction (bytecode.OpThis), never to a register
// reference, since the VM keeps `this` outside the register file entirely.
func (a *assembler) assembleFunction(fn *assembly.Function) error {
	a.e.WriteTag(bytecode.TagFunction)

	regIdx := map[string]uint8{}
	var order []string
	assignReg := func(name string) error {
		if name == assembly.RegThis {
			return fmt.Errorf("this is not a register and cannot appear as one")
		}
		if _, ok := regIdx[name]; ok {
			return nil
		}
		if len(order) >= 256 {
			return fmt.Errorf("function uses more than 256 registers")
		}
		regIdx[name] = uint8(len(order))
		order = append(order, name)
		return nil
	}

	for _, p := range fn.Parameters {
		if err := assignReg(p); err != nil {
			return err
		}
	}
	for _, line := range fn.Lines {
		instr, ok := line.(*assembly.Instr)
		if !ok {
			continue
		}
		for _, arg := range instr.Args {
			if arg.Kind == assembly.ArgRegister {
				if err := assignReg(arg.Register); err != nil {
					return err
				}
			}
		}
	}

	a.e.WriteVarUint(uint64(len(order)))
	a.e.WriteVarUint(uint64(len(fn.Parameters)))
	flags := byte(0)
	if fn.IsGenerator {
		flags |= 0x01
	}
	a.e.WriteByte(flags)

	bodyStart := a.e.Len()
	labelOffset := map[string]int{}
	var labelPatches []labelPatch

	for _, line := range fn.Lines {
		switch l := line.(type) {
		case *assembly.Label:
			labelOffset[l.Name] = a.e.Len() - bodyStart

		case *assembly.Comment, *assembly.Release:
			// Meta lines carry no bytecode; they exist for the optimizer's
			// reachability/liveness passes and are expected to have been
			// stripped by "remove meta lines" before assembly, but skipping
			// them here too keeps the assembler usable standalone (e.g. in
			// tests that hand-build IR without running the optimizer).

		case *assembly.Instr:
			op, ok := bytecode.ParseOpcode(string(l.Op))
			if !ok {
				return fmt.Errorf("unknown instruction %q", l.Op)
			}
			a.e.WriteInstructionHeader(op, len(l.Args))
			for _, arg := range l.Args {
				switch arg.Kind {
				case assembly.ArgRegister:
					idx, ok := regIdx[arg.Register]
					if !ok {
						return fmt.Errorf("unresolved register %q", arg.Register)
					}
					a.e.WriteRegisterOperand(idx)

				case assembly.ArgConst:
					if err := bytecode.EncodeValue(a.e, arg.Const); err != nil {
						return err
					}

				case assembly.ArgPointer:
					pos := a.e.WritePointerPlaceholder()
					a.ptrPatches = append(a.ptrPatches, ptrPatch{pos: pos, name: arg.Pointer})

				case assembly.ArgLabel:
					pos := a.e.WriteNumberPlaceholder()
					labelPatches = append(labelPatches, labelPatch{pos: pos, name: arg.Label})

				case assembly.ArgBuiltin:
					idx, ok := builtins.IndexOf(arg.Builtin)
					if !ok {
						return fmt.Errorf("unknown builtin %q", arg.Builtin)
					}
					a.e.WriteBuiltin(idx)

				default:
					return fmt.Errorf("invalid arg kind %v", arg.Kind)
				}
			}

		default:
			return fmt.Errorf("unknown line type %T", line)
		}
	}

	for _, p := range labelPatches {
		off, ok := labelOffset[p.name]
		if !ok {
			return fmt.Errorf("undefined label %q", p.name)
		}
		a.e.PatchFloat64(p.pos, float64(off))
	}

	return nil
}
