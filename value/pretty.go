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

package value

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Pretty renders v the way `console.log` would: strings unquoted at the top
// level, nested structures recursively quoted. Kept separate from Codify's
// literal-source rendering (see spew-backed builtins.Debug for the
// deep-inspection variant).
func Pretty(v Value) string {
	resolved, err := Resolve(v)
	if err != nil {
		return "<error resolving value>"
	}
	return prettyInner(resolved, true, map[uintptr]bool{})
}

// Codify renders v as ValueScript-literal-ish source text, used by
// assembly's text format for constant pools and by REPL-style hosts that
// want copy/pasteable output.
func Codify(v Value) string {
	resolved, err := Resolve(v)
	if err != nil {
		return "<error resolving value>"
	}
	return codifyInner(resolved, map[uintptr]bool{})
}

func prettyInner(v Value, topLevel bool, seen map[uintptr]bool) string {
	switch v.tag {
	case TagString:
		if topLevel {
			return v.str
		}
		return strconv.Quote(v.str)
	case TagArray:
		parts := make([]string, len(v.arr.elems))
		for i, e := range v.arr.elems {
			if e.IsVoid() {
				parts[i] = "<empty>"
				continue
			}
			parts[i] = prettyInner(e, false, seen)
		}
		return "[ " + strings.Join(parts, ", ") + " ]"
	case TagObject:
		keys := make([]string, 0, len(v.obj.str))
		for k := range v.obj.str {
			keys = append(keys, k)
		}
		// Key order is unspecified in the Object contract; rendering sorts so
		// repeated prints of the same value are byte-identical.
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = fmt.Sprintf("%s: %s", k, prettyInner(v.obj.str[k], false, seen))
		}
		return "{ " + strings.Join(parts, ", ") + " }"
	case TagBigInt:
		return v.bigint.String() + "n"
	case TagDynamic:
		return v.dyn.Pretty()
	default:
		return ValToString(v)
	}
}

func codifyInner(v Value, seen map[uintptr]bool) string {
	switch v.tag {
	case TagString:
		return strconv.Quote(v.str)
	case TagArray:
		parts := make([]string, len(v.arr.elems))
		for i, e := range v.arr.elems {
			if e.IsVoid() {
				parts[i] = ""
				continue
			}
			parts[i] = codifyInner(e, seen)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case TagObject:
		keys := make([]string, 0, len(v.obj.str))
		for k := range v.obj.str {
			keys = append(keys, k)
		}
		// Sorted for the same determinism Pretty needs, and doubly so here:
		// the optimizer's constant-extraction pass keys its dedup pool on
		// this text, so structurally equal objects must codify identically.
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = fmt.Sprintf("%q: %s", k, codifyInner(v.obj.str[k], seen))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case TagBigInt:
		return "0x" + v.bigint.Text(16) + "n"
	case TagDynamic:
		return v.dyn.Codify()
	default:
		return ValToString(v)
	}
}
