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

import "errors"

var (
	errTruncated      = errors.New("bytecode: truncated input")
	errVarintOverflow = errors.New("bytecode: varint overflow")
	errBadTag         = errors.New("bytecode: unrecognized tag byte")
	errBackwardPointer = errors.New("bytecode: backward pointer targets neither a function nor a class")
	errUnresolvedBuiltin = errors.New("bytecode: unresolved builtin index")
	errRegisterInValue = errors.New("bytecode: register tag is only valid as an instruction operand")
	errUnsupportedEncodeTag = errors.New("bytecode: value kind has no wire encoding (functions/classes are assembled, not encoded directly)")
)
