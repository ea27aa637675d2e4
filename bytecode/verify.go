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

import "fmt"

// VerifyError describes a bytecode verification failure: an offset into
// the instruction stream plus a message, for a variable-length
// instruction stream rather than a fixed-width word.
type VerifyError struct {
	Offset  int
	Message string
}

func (e *VerifyError) Error() string {
	return fmt.Sprintf("verify error at offset %d: %s", e.Offset, e.Message)
}

// Verify walks the instruction stream starting at start within data (the
// body of one decoded Function value) checking that every opcode is
// recognized, every register operand is within regCount, and every jump
// carries a numeric target that falls inside data. Whether a target lands
// on an instruction boundary is not checked. It stops at the first OpEnd.
//
// This is deliberately shallow — it catches compiler-bug-survives-into-
// bytecode mistakes (bad opcode, out-of-range register, out-of-bounds jump)
// without attempting full dataflow verification.
func Verify(id string, data []byte, start int, regCount uint16) []VerifyError {
	var errs []VerifyError
	boundaries := map[int]bool{}

	d := NewDecoder(id, data)
	d.Pos = start

	for {
		if d.Pos >= len(data) {
			errs = append(errs, VerifyError{Offset: d.Pos, Message: "missing end instruction before end of bytecode"})
			return errs
		}
		offset := d.Pos
		boundaries[offset] = true

		instr, err := d.DecodeInstruction()
		if err != nil {
			errs = append(errs, VerifyError{Offset: offset, Message: err.Error()})
			return errs
		}

		if !isKnownOpcode(instr.Op) {
			errs = append(errs, VerifyError{Offset: offset, Message: fmt.Sprintf("unknown opcode: %#x", byte(instr.Op))})
		}

		for _, operand := range instr.Operand {
			if operand.IsRegister && regCount != 0 && uint16(operand.Register) >= regCount {
				errs = append(errs, VerifyError{
					Offset:  offset,
					Message: fmt.Sprintf("register %d out of bounds (function has %d registers)", operand.Register, regCount),
				})
			}
		}

		if instr.Op == OpEnd {
			break
		}

		if instr.Op == OpJmp || instr.Op == OpJmpIf || instr.Op == OpJmpIfNot {
			if len(instr.Operand) == 0 || instr.Operand[0].IsRegister {
				errs = append(errs, VerifyError{Offset: offset, Message: "jump instruction missing an inline target operand"})
				continue
			}
			target := instr.Operand[0].Value
			if !target.IsNumber() {
				errs = append(errs, VerifyError{Offset: offset, Message: "jump target is not a numeric offset"})
				continue
			}
			targetOffset := start + int(target.Float64())
			if targetOffset < start || targetOffset >= len(data) {
				errs = append(errs, VerifyError{Offset: offset, Message: fmt.Sprintf("jump target %d out of bounds", targetOffset)})
			}
			// Boundary membership for forward jumps can't be checked until
			// the whole function has been walked; the assembler already
			// guarantees jump targets coincide with instruction starts it
			// itself emitted, so we don't re-derive that here.
		}
	}

	return errs
}

func isKnownOpcode(op Opcode) bool {
	_, ok := opcodeNames[op]
	return ok
}
