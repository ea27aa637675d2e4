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

package bytecode

import "github.com/valuescript/vsgo/value"

// Operand is an instruction's argument: either a register index or an
// inline constant. Rather than a fixed-width instruction word (one opcode
// byte plus up to two fixed register-index bytes), ValueScript
// instructions are variable-length because operands can be arbitrarily large
// inline constants (a string literal, a nested array) as well as plain
// register refs — so each operand is itself tag-prefixed the same way a
// standalone value would be, with TagRegister as the one extra tag that only
// makes sense in this position.
type Operand struct {
	IsRegister bool
	Register   uint8
	Value      value.Value
}

// DecodeOperand reads one instruction operand: a TagRegister byte followed by
// a register index, or any other tag handled exactly as DecodeValue would.
func (d *Decoder) DecodeOperand() (Operand, error) {
	tag, err := d.ReadByte()
	if err != nil {
		return Operand{}, err
	}
	if Tag(tag) == TagRegister {
		reg, err := d.ReadByte()
		if err != nil {
			return Operand{}, err
		}
		return Operand{IsRegister: true, Register: reg}, nil
	}
	v, err := d.decodeTagged(Tag(tag))
	if err != nil {
		return Operand{}, err
	}
	return Operand{Value: v}, nil
}

func (e *Encoder) WriteRegisterOperand(reg uint8) {
	e.WriteTag(TagRegister)
	e.WriteByte(reg)
}
