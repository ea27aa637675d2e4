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

// Package compiler lowers ValueScript source into the assembly package's IR:
// scope analysis and name resolution are ours, but lexing/parsing is not —
// the TypeScript-compatible frontend is an external collaborator never
// reimplemented here; source text is parsed by github.com/dop251/goja's
// parser/ast packages (see frontend.go) and this package only ever walks
// the resulting tree.
package compiler

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	colorable "github.com/mattn/go-colorable"
	isatty "github.com/mattn/go-isatty"
)

// Level distinguishes the diagnostic taxonomy for the compiler: a Lint is
// advisory (a construct we accept but don't fully optimize), an Error
// means the input program is invalid, and InternalError means this
// compiler has a bug — surfacing typed errors but leaving color and
// severity framing to whatever host prints them.
type Level int

const (
	Lint Level = iota
	CompilerDebug
	Error
	InternalError
)

func (l Level) String() string {
	switch l {
	case Lint:
		return "lint"
	case CompilerDebug:
		return "debug"
	case Error:
		return "error"
	case InternalError:
		return "internal error"
	default:
		return "unknown"
	}
}

// Diagnostic is one compiler finding. Line and Column are not filled in by
// the compiler: every diagnostic it records carries only a Level and a
// Message, so both stay zero.
type Diagnostic struct {
	Level   Level
	Message string
	Line    int
	Column  int
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%d:%d: %s: %s", d.Line, d.Column, d.Level, d.Message)
}

// Format writes d to w, colored by level when w is a terminal (an *os.File
// passing the go-isatty check); any other io.Writer (a file, a buffer) gets
// plain text — the isatty check is what decides whether ANSI escapes are
// safe to emit.
func Format(w io.Writer, d Diagnostic) {
	line := colorize(d.Level, d.String())
	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		fmt.Fprintln(colorable.NewColorable(f), line)
		return
	}
	fmt.Fprintln(w, d.String())
}

func colorize(l Level, s string) string {
	switch l {
	case Lint:
		return color.YellowString(s)
	case CompilerDebug:
		return color.CyanString(s)
	case Error:
		return color.RedString(s)
	case InternalError:
		return color.New(color.FgRed, color.Bold).Sprint(s)
	default:
		return s
	}
}
