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
	mapset "github.com/deckarep/golang-set"

	"github.com/valuescript/vsgo/assembly"
)

// treeShake walks the pointer graph from the module's exports and keeps
// only reachable definitions, emitting function/class definitions (which
// are allowed to be mutually recursive) ahead of plain values and lazy
// thunks.
func treeShake(m *assembly.Module) *assembly.Module {
	byName := make(map[string]*assembly.Definition, len(m.Definitions))
	for _, d := range m.Definitions {
		byName[d.Name] = d
	}

	visited := mapset.NewSet()
	queue := make([]string, 0, len(m.Exports))
	for _, ex := range m.Exports {
		queue = append(queue, ex.Pointer)
	}

	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		if visited.Contains(name) {
			continue
		}
		visited.Add(name)
		d, ok := byName[name]
		if !ok {
			continue
		}
		queue = append(queue, definitionDeps(d)...)
	}

	var funcsAndClasses, rest []*assembly.Definition
	for _, d := range m.Definitions {
		if !visited.Contains(d.Name) {
			continue
		}
		switch d.Content.(type) {
		case *assembly.Function, *assembly.Class, *assembly.ObjectDef:
			funcsAndClasses = append(funcsAndClasses, d)
		default:
			rest = append(rest, d)
		}
	}

	out := &assembly.Module{Exports: m.Exports}
	out.Definitions = append(out.Definitions, funcsAndClasses...)
	out.Definitions = append(out.Definitions, rest...)
	return out
}

// definitionDeps lists the pointer-names d directly references.
func definitionDeps(d *assembly.Definition) []string {
	var out []string
	addArg := func(a assembly.Arg) {
		if a.Kind == assembly.ArgPointer {
			out = append(out, a.Pointer)
		}
	}

	switch c := d.Content.(type) {
	case *assembly.Function:
		for _, line := range c.Lines {
			if instr, ok := line.(*assembly.Instr); ok {
				for _, a := range instr.Args {
					addArg(a)
				}
			}
		}
	case *assembly.Class:
		addArg(c.Constructor)
		addArg(c.InstanceProto)
		addArg(c.Static)
	case *assembly.ObjectDef:
		for _, v := range c.Values {
			addArg(v)
		}
		addArg(c.Proto)
	case *assembly.Alias:
		out = append(out, c.Target)
	}
	return out
}

// collapsePointerOfPointer dereferences every pointer that targets an Alias
// definition (`@a = @b`), rewriting it to point directly at the alias's
// ultimate target. The alias definitions themselves are left in place for
// tree-shake to drop once nothing points at them anymore.
func collapsePointerOfPointer(m *assembly.Module) *assembly.Module {
	aliasTarget := map[string]string{}
	for _, d := range m.Definitions {
		if a, ok := d.Content.(*assembly.Alias); ok {
			aliasTarget[d.Name] = a.Target
		}
	}
	if len(aliasTarget) == 0 {
		return m
	}

	resolve := func(name string) string {
		seen := map[string]bool{}
		for {
			target, ok := aliasTarget[name]
			if !ok || seen[name] {
				return name
			}
			seen[name] = true
			name = target
		}
	}

	rewrite := func(a assembly.Arg) assembly.Arg {
		if a.Kind == assembly.ArgPointer {
			a.Pointer = resolve(a.Pointer)
		}
		return a
	}

	for _, d := range m.Definitions {
		switch c := d.Content.(type) {
		case *assembly.Function:
			for _, line := range c.Lines {
				instr, ok := line.(*assembly.Instr)
				if !ok {
					continue
				}
				for i, a := range instr.Args {
					instr.Args[i] = rewrite(a)
				}
			}
		case *assembly.Class:
			c.Constructor = rewrite(c.Constructor)
			c.InstanceProto = rewrite(c.InstanceProto)
			c.Static = rewrite(c.Static)
		case *assembly.ObjectDef:
			for i, v := range c.Values {
				c.Values[i] = rewrite(v)
			}
			c.Proto = rewrite(c.Proto)
		}
	}

	exports := make([]assembly.Export, len(m.Exports))
	for i, ex := range m.Exports {
		ex.Pointer = resolve(ex.Pointer)
		exports[i] = ex
	}

	return &assembly.Module{Definitions: m.Definitions, Exports: exports}
}
