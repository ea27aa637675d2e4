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

// Package optimizer rewrites an assembly.Module in place through a
// fixed-point pipeline of small, individually-sound passes: tree-shake,
// collapse-pointer-of-pointer, a symbolic constant-folding pass
// ("Kal"), reduce-instructions, simplify-jumps, remove-unused-labels,
// remove-unused-registers and extract-constants, iterated three times since
// a later pass in one round can expose an opportunity an earlier pass in
// the same round already walked past (e.g. folding a branch condition to a
// literal only matters to simplify-jumps on the next iteration). A final
// tree-shake canonicalizes definition order and remove-meta-lines strips
// the comment/release bookkeeping passes no longer need.
package optimizer

import "github.com/valuescript/vsgo/assembly"

// Optimize runs the full pipeline and returns the rewritten module. Passes
// mutate Function/Class definitions in place and return a module value
// reflecting any additions or removals of top-level Definitions (tree-shake
// and extract-constants both change the definition list's membership).
func Optimize(m *assembly.Module) *assembly.Module {
	for i := 0; i < 3; i++ {
		m = treeShake(m)
		m = collapsePointerOfPointer(m)
		m = simplifySymbolic(m)
		m = reduceInstructions(m)
		m = simplifyJumps(m)
		m = removeUnusedLabels(m)
		m = removeUnusedRegisters(m)
		m = extractConstants(m)
	}
	m = treeShake(m)
	m = removeMetaLines(m)
	return m
}
