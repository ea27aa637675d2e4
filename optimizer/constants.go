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
	"github.com/google/uuid"

	"github.com/valuescript/vsgo/assembly"
	"github.com/valuescript/vsgo/value"
)

// extractConstants hoists any inline literal past a small size threshold —
// a long string, a non-empty array or object, or a bigint wider than a
// machine word — into its own shared definition, deduplicating structurally
// equal literals (via value.Codify, the same canonical-text form the
// assembly text format uses for a constant pool entry) so two identical
// array literals collapse to one definition.
func extractConstants(m *assembly.Module) *assembly.Module {
	pool := map[string]string{}
	var newDefs []*assembly.Definition

	intern := func(v value.Value) assembly.Arg {
		if !shouldExtract(v) {
			return assembly.Const(v)
		}
		key := value.Codify(v)
		name, ok := pool[key]
		if !ok {
			name = "tmp-" + uuid.New().String()
			pool[key] = name
			newDefs = append(newDefs, &assembly.Definition{Name: name, Content: &assembly.ConstValue{Value: v}})
		}
		return assembly.Ptr(name)
	}

	for _, d := range m.Definitions {
		fn, ok := d.Content.(*assembly.Function)
		if !ok {
			continue
		}
		for _, line := range fn.Lines {
			instr, ok := line.(*assembly.Instr)
			if !ok {
				continue
			}
			for i, a := range instr.Args {
				if a.Kind == assembly.ArgConst {
					instr.Args[i] = intern(a.Const)
				}
			}
		}
	}

	m.Definitions = append(m.Definitions, newDefs...)
	return m
}

// extractThreshold bounds how long a string can be before it's worth
// hoisting into its own pointer-addressable definition (and therefore
// eligible for storage-level deduplication); short strings cost more in
// pointer-operand overhead than they'd ever save.
const extractThreshold = 32

func shouldExtract(v value.Value) bool {
	switch v.Tag() {
	case value.TagString:
		return len(v.StringVal()) > extractThreshold
	case value.TagArray:
		return len(v.ArrayElems()) > 0
	case value.TagObject:
		return len(v.ObjectStrEntries()) > 0
	case value.TagBigInt:
		return v.BigInt().BitLen() > 64
	default:
		return false
	}
}

// removeMetaLines strips Comment and Release pseudo-lines once the
// optimizer no longer needs them (Release only guides removeUnusedRegisters
// in a fuller liveness analysis than the whole-function approximation used
// here, but is stripped regardless so it never reaches the assembler).
func removeMetaLines(m *assembly.Module) *assembly.Module {
	for _, d := range m.Definitions {
		fn, ok := d.Content.(*assembly.Function)
		if !ok {
			continue
		}
		out := make([]assembly.Line, 0, len(fn.Lines))
		for _, line := range fn.Lines {
			switch line.(type) {
			case *assembly.Comment, *assembly.Release:
				continue
			}
			out = append(out, line)
		}
		fn.Lines = out
	}
	return m
}
