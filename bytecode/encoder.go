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

import (
	"encoding/binary"
	"math"
	"math/big"

	"github.com/valuescript/vsgo/value"
)

// Encoder accumulates a bytecode blob. The assembler package is the primary
// caller: it emits one Encoder's worth of bytes per compiled module, patching
// forward Pointer offsets once the target's final position is known (see
// assembler/assembler.go): a two-pass patch-table, since a forward-referencing
// jump or pointer target is not known until the code after it is emitted.
type Encoder struct {
	Buf []byte
}

func NewEncoder() *Encoder { return &Encoder{} }

func (e *Encoder) Len() int { return len(e.Buf) }

func (e *Encoder) WriteByte(b byte) { e.Buf = append(e.Buf, b) }

func (e *Encoder) WriteTag(t Tag) { e.WriteByte(byte(t)) }

func (e *Encoder) WriteVarUint(v uint64) { e.Buf = appendVarUint(e.Buf, v) }

func (e *Encoder) WriteVarInt(v int64) { e.Buf = appendVarInt(e.Buf, v) }

func (e *Encoder) WriteBytes(b []byte) { e.Buf = append(e.Buf, b...) }

func (e *Encoder) WriteFloat64(f float64) {
	var raw [8]byte
	binary.LittleEndian.PutUint64(raw[:], math.Float64bits(f))
	e.Buf = append(e.Buf, raw[:]...)
}

func (e *Encoder) WriteString(s string) {
	e.WriteVarUint(uint64(len(s)))
	e.Buf = append(e.Buf, s...)
}

func (e *Encoder) WriteBigInt(n *big.Int) {
	sign := byte(0)
	mag := n
	if n.Sign() < 0 {
		sign = 1
		mag = new(big.Int).Neg(n)
	}
	e.WriteByte(sign)
	raw := mag.Bytes()
	e.WriteVarUint(uint64(len(raw)))
	e.WriteBytes(raw)
}

// WriteBuiltin emits a reference to a global built-in namespace by its
// stable index (TagBuiltin), the wire-format counterpart of
// bytecode.BuiltinLookup/builtins.IndexOf — never the namespace object
// itself, so every reference to e.g. `Math` shares one instance instead of
// duplicating its member table per call site.
func (e *Encoder) WriteBuiltin(idx uint64) {
	e.WriteTag(TagBuiltin)
	e.WriteVarUint(idx)
}

// WritePointerPlaceholder reserves space for a varsize offset and returns the
// position to patch once the target offset is known; see PatchVarUint.
func (e *Encoder) WritePointerPlaceholder() int {
	e.WriteTag(TagPointer)
	pos := len(e.Buf)
	// Reserve 5 bytes: enough to varuint-encode any offset up to 2^35,
	// which covers any realistic module; the assembler pads short encodings
	// with continuation-bit no-ops when patching (see PatchVarUint).
	for i := 0; i < 5; i++ {
		e.WriteByte(0x80)
	}
	e.Buf[len(e.Buf)-1] = 0x00
	return pos
}

// PatchVarUint overwrites a 5-byte reserved varuint region at pos with the
// encoding of v, preserving the 5-byte width by setting continuation bits on
// every byte but the last.
func (e *Encoder) PatchVarUint(pos int, v uint64) {
	for i := 0; i < 5; i++ {
		b := byte(v & 0x7f)
		v >>= 7
		if i < 4 {
			b |= 0x80
		}
		e.Buf[pos+i] = b
	}
}

// WriteNumberPlaceholder reserves a TagNumber plus 8 zero bytes and returns
// the position of the tag byte, to patch once the jump target's final byte
// offset is known; see PatchFloat64. Jump targets (jmp/jmp_if/jmp_if_not/
// set_catch) are encoded as plain Number operands, not Pointers: the VM
// reads them with a straight IsNumber/Float64 check (vm/bytecode_frame.go's
// jumpTarget), so they never go through the Pointer/lazy-resolution path.
func (e *Encoder) WriteNumberPlaceholder() int {
	pos := len(e.Buf)
	e.WriteTag(TagNumber)
	e.WriteFloat64(0)
	return pos
}

// PatchFloat64 overwrites the 8-byte float region following the TagNumber
// byte at pos (as returned by WriteNumberPlaceholder) with f's bits.
func (e *Encoder) PatchFloat64(pos int, f float64) {
	binary.LittleEndian.PutUint64(e.Buf[pos+1:pos+9], math.Float64bits(f))
}

// EncodeValue appends the wire form of v. Compound values recurse; a value
// tagged TagStoragePtr is forced before encoding since the wire format has no
// notion of an already-lazy value — laziness is a property of the Pointer
// tag's *consumer*, not of values in memory.
func EncodeValue(e *Encoder, v value.Value) error {
	resolved, err := value.Resolve(v)
	if err != nil {
		return err
	}
	switch resolved.Tag() {
	case value.TagVoid:
		e.WriteTag(TagVoid)
	case value.TagUndefined:
		e.WriteTag(TagUndefined)
	case value.TagNull:
		e.WriteTag(TagNull)
	case value.TagBool:
		if resolved.Bool() {
			e.WriteTag(TagTrue)
		} else {
			e.WriteTag(TagFalse)
		}
	case value.TagNumber:
		f := resolved.Float64()
		if b := int8(f); float64(b) == f {
			e.WriteTag(TagSignedByte)
			e.WriteByte(byte(b))
		} else {
			e.WriteTag(TagNumber)
			e.WriteFloat64(f)
		}
	case value.TagString:
		e.WriteTag(TagString)
		e.WriteString(resolved.StringVal())
	case value.TagBigInt:
		e.WriteTag(TagBigInt)
		e.WriteBigInt(resolved.BigInt())
	case value.TagSymbol:
		e.WriteTag(TagSymbol)
		e.WriteByte(byte(resolved.SymbolVal()))
	case value.TagArray:
		e.WriteTag(TagArray)
		for _, el := range resolved.ArrayElems() {
			if err := EncodeValue(e, el); err != nil {
				return err
			}
		}
		e.WriteTag(TagEnd)
	case value.TagObject:
		e.WriteTag(TagObject)
		// Object key order is unspecified, so emission order here need not
		// match any particular iteration order.
		for k, val := range resolved.ObjectStrEntries() {
			e.WriteString(k)
			if err := EncodeValue(e, val); err != nil {
				return err
			}
		}
		e.WriteTag(TagEnd)
		return EncodeValue(e, resolved.ObjectProto())
	default:
		return errUnsupportedEncodeTag
	}
	return nil
}
