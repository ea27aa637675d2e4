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
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/dop251/goja/ast"
	"github.com/dop251/goja/parser"
)

// exportSpec records one top-level export discovered while stripping
// ValueScript's `export`/`export default` syntax down to the plain
// ECMAScript goja's parser accepts. goja, like most embeddable JS engines,
// parses scripts, not ES modules — module linking (named/default exports,
// cross-module import resolution) is this repo's own concern, handled by
// packages compiler and loader, not leaned on the third-party parser for.
type exportSpec struct {
	Name    string // "" for the default export
	Binding string // local identifier bound to the exported value
}

// importSpec records one binding introduced by a top-level `import`
// statement, stripped the same way exports are before goja ever sees the
// source. Star is true for `import * as NS from "..."`; otherwise Member is
// "" for a default import (`import Foo from "..."`) or the remote export
// name for a named import (`import { a as Foo } from "..."`).
type importSpec struct {
	Local      string
	Member     string
	Star       bool
	ModulePath string
}

var (
	reExportDefault = regexp.MustCompile(`(?m)^([ \t]*)export\s+default\s+`)
	reExportDecl    = regexp.MustCompile(`(?m)^([ \t]*)export\s+(function\s*\*?|class|const|let|var)\s+`)
	reIdentifier    = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*`)
	reImportStmt    = regexp.MustCompile(`(?m)^[ \t]*import\s+(.+?)\s+from\s+["']([^"']+)["']\s*;?[ \t]*$`)
)

// stripExports rewrites every top-level `export ...` prefix found at the
// start of a line into plain ECMAScript, recording what it stripped so the
// module compiler can wire the binding it names into the module's export
// table after compiling the (now plain) statement that follows.
//
// `export default <expr>;` becomes `var $$vsDefault = <expr>;`, folding the
// default export into an ordinary top-level binding; every other `export`
// form just has its `export` keyword removed, since the declaration it
// prefixes already binds a name we can look up afterward.
func stripExports(src string) (string, []exportSpec) {
	var exports []exportSpec

	src = reExportDefault.ReplaceAllStringFunc(src, func(m string) string {
		indent := reExportDefault.FindStringSubmatch(m)[1]
		exports = append(exports, exportSpec{Name: "", Binding: "$$vsDefault"})
		return indent + "var $$vsDefault = "
	})

	for {
		loc := reExportDecl.FindStringSubmatchIndex(src)
		if loc == nil {
			break
		}
		indent := src[loc[2]:loc[3]]
		rest := src[loc[1]:]
		name := reIdentifier.FindString(skipStars(rest))
		if name == "" {
			name = "$$vsExport"
		}
		exports = append(exports, exportSpec{Name: name, Binding: name})
		src = src[:loc[0]] + indent + src[loc[1]:]
	}

	return src, exports
}

func skipStars(s string) string {
	return strings.TrimLeft(strings.TrimSpace(s), "*")
}

// stripImports removes every top-level `import ... from "path";` statement
// — another piece of ES-module syntax goja's script parser rejects — and
// records the bindings it introduced. Unlike exports, an import statement
// compiles to no plain-ECMAScript equivalent the parser could stand in for,
// so the whole line is blanked out (replaced with an empty string, keeping
// line numbers stable for diagnostics) rather than rewritten; module.go
// synthesizes the `import`/`import_star`/`sub` instructions directly from
// the returned importSpecs.
func stripImports(src string) (string, []importSpec) {
	var specs []importSpec

	src = reImportStmt.ReplaceAllStringFunc(src, func(m string) string {
		groups := reImportStmt.FindStringSubmatch(m)
		clause, path := groups[1], groups[2]
		specs = append(specs, parseImportClause(clause, path)...)
		return ""
	})

	return src, specs
}

// parseImportClause splits the portion of an import statement between
// `import` and `from` into its constituent bindings: an optional default
// binding, an optional `* as NS` namespace binding, and/or a `{ ... }`
// named-binding list, in any combination ES modules allow.
func parseImportClause(clause, path string) []importSpec {
	var specs []importSpec
	clause = strings.TrimSpace(clause)

	if idx := strings.Index(clause, "{"); idx >= 0 {
		end := strings.LastIndex(clause, "}")
		if end > idx {
			head := strings.TrimRight(clause[:idx], ", \t")
			for _, item := range strings.Split(clause[idx+1:end], ",") {
				item = strings.TrimSpace(item)
				if item == "" {
					continue
				}
				if as := strings.Index(item, " as "); as >= 0 {
					specs = append(specs, importSpec{
						Local: strings.TrimSpace(item[as+4:]), Member: strings.TrimSpace(item[:as]), ModulePath: path,
					})
				} else {
					specs = append(specs, importSpec{Local: item, Member: item, ModulePath: path})
				}
			}
			clause = head
		}
	}

	for _, part := range strings.Split(clause, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if strings.HasPrefix(part, "*") {
			name := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(strings.TrimPrefix(part, "*")), "as"))
			specs = append(specs, importSpec{Local: name, Star: true, ModulePath: path})
			continue
		}
		specs = append(specs, importSpec{Local: part, Member: "", ModulePath: path})
	}

	return specs
}

// candidateExtensions are tried, in order, when a relative import specifier
// names no extension of its own.
var candidateExtensions = []string{"", ".ts", ".vs.ts"}

// ResolvePath turns an import specifier written in the module at fromDir
// into the path this package, and package loader, key their module cache
// by. Relative specifiers (`./foo`, `../bar`) are resolved and probed
// against the filesystem right here at compile time, so the same source
// file always compiles to the same baked-in path regardless of the current
// working directory the compiler happens to run from — path resolution is a
// loader-time concern, not something deferred to VM runtime state. Bare
// specifiers (no leading dot — package-style names) are left untouched:
// resolving those needs the embedding host's alias configuration, which
// only package loader's Config carries.
func ResolvePath(fromDir, specifier string) string {
	if !strings.HasPrefix(specifier, ".") {
		return specifier
	}
	base := filepath.Clean(filepath.Join(fromDir, specifier))
	for _, ext := range candidateExtensions {
		if ext == "" && filepath.Ext(base) != "" {
			continue
		}
		candidate := base + ext
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	if filepath.Ext(base) == "" {
		return base + ".ts"
	}
	return base
}

// parseProgram hands plain (export/import already stripped) ECMAScript
// source to goja's parser, an external TypeScript-compatible frontend this
// repo consumes rather than reimplements.
func parseProgram(src, filename string) (*ast.Program, error) {
	return parser.ParseFile(nil, filename, src, 0)
}
