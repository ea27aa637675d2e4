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

// Instruction is one decoded bytecode instruction: an opcode plus a
// self-delimited operand list. Encoding an explicit operand count (rather
// than giving every opcode a fixed arity with a fixed-width instruction
// word) is necessary because ValueScript operands can be register refs
// *or* arbitrarily large inline constants — such as an array literal
// emitted directly into a `mov` instruction by the optimizer's
// constant-extraction pass.
type Instruction struct {
	Offset  int
	Op      Opcode
	Operand []Operand
}

// DecodeInstruction reads one instruction starting at the decoder's current
// position: an opcode byte, a varuint operand count, then that many operands.
func (d *Decoder) DecodeInstruction() (Instruction, error) {
	offset := d.Pos
	opByte, err := d.ReadByte()
	if err != nil {
		return Instruction{}, err
	}
	n, err := d.ReadVarUint()
	if err != nil {
		return Instruction{}, err
	}
	ops := make([]Operand, n)
	for i := range ops {
		op, err := d.DecodeOperand()
		if err != nil {
			return Instruction{}, err
		}
		ops[i] = op
	}
	return Instruction{Offset: offset, Op: Opcode(opByte), Operand: ops}, nil
}

// WriteInstructionHeader emits opcode op followed by the varsize operand
// count. It writes no operand bytes: the caller encodes the operandCount
// operands into the same Encoder immediately afterwards.
func (e *Encoder) WriteInstructionHeader(op Opcode, operandCount int) {
	e.WriteByte(byte(op))
	e.WriteVarUint(uint64(operandCount))
}
