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

// Function builds a Function value: a closure over a location in decoded
// bytecode plus any binds accumulated via `bind`.
func Function(bytecodeID string, start uint32, regCount, paramCount uint16, isGenerator bool, binds []Value) Value {
	return Value{tag: TagFunction, fn: &functionHandle{
		handle:      newHandle(),
		BytecodeID:  bytecodeID,
		Start:       start,
		RegCount:    regCount,
		ParamCount:  paramCount,
		IsGenerator: isGenerator,
		Binds:       binds,
	}}
}

func (v Value) FuncBytecodeID() string  { return v.fn.BytecodeID }
func (v Value) FuncStart() uint32       { return v.fn.Start }
func (v Value) FuncRegCount() uint16    { return v.fn.RegCount }
func (v Value) FuncParamCount() uint16  { return v.fn.ParamCount }
func (v Value) FuncIsGenerator() bool   { return v.fn.IsGenerator }
func (v Value) FuncBinds() []Value      { return v.fn.Binds }

// Bind returns a new Function value with extraArgs prepended to the bind
// list: calling the result later prepends these captured arguments ahead of
// whatever arguments the eventual call site supplies.
func (v Value) Bind(extraArgs []Value) Value {
	binds := make([]Value, 0, len(extraArgs)+len(v.fn.Binds))
	binds = append(binds, extraArgs...)
	binds = append(binds, v.fn.Binds...)
	return Function(v.fn.BytecodeID, v.fn.Start, v.fn.RegCount, v.fn.ParamCount, v.fn.IsGenerator, binds)
}

// Class builds a Class value: name, optional content hash (carried as given;
// the bytecode decoder passes the one it reads), a constructor function, the instance prototype object new instances chain
// to, and the static namespace object (`ClassName.staticMember`).
func Class(name string, contentHash []byte, constructor, instanceProto, static Value) Value {
	return Value{tag: TagClass, cls: &classHandle{
		handle:        newHandle(),
		Name:          name,
		ContentHash:   contentHash,
		Constructor:   constructor,
		InstanceProto: instanceProto,
		Static:        static,
	}}
}

func (v Value) ClassName() string        { return v.cls.Name }
func (v Value) ClassContentHash() []byte { return v.cls.ContentHash }
func (v Value) ClassConstructor() Value  { return v.cls.Constructor }
func (v Value) ClassInstanceProto() Value { return v.cls.InstanceProto }
func (v Value) ClassStatic() Value       { return v.cls.Static }
