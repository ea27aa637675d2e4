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

import "github.com/valuescript/vsgo/assembly"

// target is an assignable location: a plain register (`x = ...`), or a
// member access (`obj.k = ...` / `obj[k] = ...`) expressed as the object's
// register plus a key Arg. Both sub_mov (member write) and the VM's own
// OpSubMov handler already apply copy-on-write cloning before mutating, so
// target never needs to think about uniqueness itself (see
// vm/bytecode_frame.go's OpSubMov case).
type target interface {
	store(fc *funcCtx, v assembly.Arg)
	load(fc *funcCtx) assembly.Arg
}

type regTarget struct {
	reg string
}

func (t regTarget) store(fc *funcCtx, v assembly.Arg) {
	fc.emit("mov", assembly.Reg(t.reg), v)
}

func (t regTarget) load(fc *funcCtx) assembly.Arg { return assembly.Reg(t.reg) }

// memberTarget's obj field is itself an Arg (not always a bare register —
// reading `a.b.c = x` evaluates `a.b` into a temp register first, which
// memberTarget then holds), but sub_mov's copy-on-write rewrite only takes
// effect when that Arg is a register, matching vm/bytecode_frame.go's
// `if ops[0].IsRegister`.
type memberTarget struct {
	obj assembly.Arg
	key assembly.Arg
}

func (t memberTarget) store(fc *funcCtx, v assembly.Arg) {
	fc.emit("sub_mov", t.obj, t.key, v)
}

func (t memberTarget) load(fc *funcCtx) assembly.Arg {
	dst := assembly.Reg(fc.newReg("member"))
	fc.emit("sub", dst, t.obj, t.key)
	return dst
}
