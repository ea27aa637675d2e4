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

package compiler

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// reEnum matches a TypeScript `enum Name { ... }` declaration. goja parses
// plain ECMAScript only — it has no notion of TS-only syntax like `enum` —
// so enum declarations are desugared to plain object literals here, at the
// source-text level, before the rest of the program ever reaches goja's
// parser. Every other TS-only construct (type annotations, interfaces) is
// left for goja to reject with a parse error if encountered.
var reEnum = regexp.MustCompile(`(?ms)^([ \t]*)enum\s+([A-Za-z_$][A-Za-z0-9_$]*)\s*\{([^}]*)\}`)

// foldEnums rewrites every top-level enum declaration into a plain
// `const Name = {...}` that folds to a two-way object
// (name<->number/string): numeric members (the default, or an explicit
// numeric initializer) get both directions; string-valued members only
// get name->value, matching real TypeScript enum semantics.
func foldEnums(src string) string {
	return reEnum.ReplaceAllStringFunc(src, func(m string) string {
		sub := reEnum.FindStringSubmatch(m)
		indent, name, body := sub[1], sub[2], sub[3]
		return indent + "const " + name + " = " + buildEnumObjectLiteral(body) + ";"
	})
}

func buildEnumObjectLiteral(body string) string {
	var forward, reverse []string
	next := 0.0
	for _, raw := range strings.Split(body, ",") {
		member := strings.TrimSpace(raw)
		if member == "" {
			continue
		}
		name := member
		value := ""
		if i := strings.Index(member, "="); i >= 0 {
			name = strings.TrimSpace(member[:i])
			value = strings.TrimSpace(member[i+1:])
		}
		if name == "" {
			continue
		}
		if value == "" {
			forward = append(forward, fmt.Sprintf("%q: %v", name, next))
			reverse = append(reverse, fmt.Sprintf("%v: %q", next, name))
			next++
			continue
		}
		if n, err := strconv.ParseFloat(value, 64); err == nil {
			forward = append(forward, fmt.Sprintf("%q: %v", name, n))
			reverse = append(reverse, fmt.Sprintf("%v: %q", n, name))
			next = n + 1
			continue
		}
		// String-valued member: forward mapping only, per TS semantics.
		forward = append(forward, fmt.Sprintf("%q: %s", name, value))
	}
	all := append(append([]string{}, forward...), reverse...)
	return "{" + strings.Join(all, ", ") + "}"
}
