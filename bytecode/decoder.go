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

// BuiltinLookup is filled in by package builtins during its init(), the same
// dependency-injection pattern as value.MethodLookup — bytecode decodes a
// Builtin tag into an index and needs to turn that index into an actual
// value.Value (Math, console, the Error constructors, ...) without importing
// builtins, which itself needs bytecode's decoded Function/Class values.
var BuiltinLookup func(index uint64) (value.Value, bool)

// Decoder reads tag-prefixed values out of a single contiguous bytecode
// blob. id identifies the blob for the Function values produced from it
// (value.Value keeps BytecodeID rather than a byte slice, so the vm looks the
// blob back up by id when it needs to execute from a Start offset).
type Decoder struct {
	ID   string
	Data []byte
	Pos  int
}

// NewDecoder wraps data for decoding, starting at offset 0.
func NewDecoder(id string, data []byte) *Decoder {
	return &Decoder{ID: id, Data: data}
}

// viewAt returns a Decoder sharing the same backing bytes but positioned at
// pos, used both for lazy pointer resolution and for one-off peeks.
func (d *Decoder) viewAt(pos int) *Decoder {
	return &Decoder{ID: d.ID, Data: d.Data, Pos: pos}
}

func (d *Decoder) eof() bool { return d.Pos >= len(d.Data) }

func (d *Decoder) ReadByte() (byte, error) {
	if d.eof() {
		return 0, errTruncated
	}
	b := d.Data[d.Pos]
	d.Pos++
	return b, nil
}

func (d *Decoder) PeekTag() (Tag, error) {
	if d.eof() {
		return 0, errTruncated
	}
	return Tag(d.Data[d.Pos]), nil
}

func (d *Decoder) ReadSignedByte() (int8, error) {
	b, err := d.ReadByte()
	return int8(b), err
}

func (d *Decoder) ReadVarUint() (uint64, error) {
	v, pos, err := readVarUint(d.Data, d.Pos)
	d.Pos = pos
	return v, err
}

func (d *Decoder) ReadVarInt() (int64, error) {
	v, pos, err := readVarInt(d.Data, d.Pos)
	d.Pos = pos
	return v, err
}

func (d *Decoder) ReadBytes(n int) ([]byte, error) {
	if n < 0 || d.Pos+n > len(d.Data) {
		return nil, errTruncated
	}
	out := d.Data[d.Pos : d.Pos+n]
	d.Pos += n
	return out, nil
}

func (d *Decoder) ReadFloat64() (float64, error) {
	raw, err := d.ReadBytes(8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(raw)), nil
}

func (d *Decoder) ReadString() (string, error) {
	n, err := d.ReadVarUint()
	if err != nil {
		return "", err
	}
	raw, err := d.ReadBytes(int(n))
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// ReadBigInt decodes a sign byte (0 = non-negative, 1 = negative) followed by
// a varuint byte-length and that many big-endian magnitude bytes.
func (d *Decoder) ReadBigInt() (*big.Int, error) {
	sign, err := d.ReadByte()
	if err != nil {
		return nil, err
	}
	n, err := d.ReadVarUint()
	if err != nil {
		return nil, err
	}
	raw, err := d.ReadBytes(int(n))
	if err != nil {
		return nil, err
	}
	magnitude := new(big.Int).SetBytes(raw)
	if sign != 0 {
		magnitude.Neg(magnitude)
	}
	return magnitude, nil
}

// DecodeValue dispatches on the next tag byte and produces the value.Value it
// encodes, recursing into nested Array/Object/Class elements and installing a
// lazy resolver for Pointer tags rather than following them eagerly.
func (d *Decoder) DecodeValue() (value.Value, error) {
	tag, err := d.ReadByte()
	if err != nil {
		return value.Value{}, err
	}
	return d.decodeTagged(Tag(tag))
}

func (d *Decoder) decodeTagged(tag Tag) (value.Value, error) {
	switch tag {
	case TagVoid:
		return value.Void(), nil
	case TagUndefined:
		return value.Undefined(), nil
	case TagNull:
		return value.Null(), nil
	case TagFalse:
		return value.Bool(false), nil
	case TagTrue:
		return value.Bool(true), nil
	case TagSignedByte:
		b, err := d.ReadSignedByte()
		if err != nil {
			return value.Value{}, err
		}
		return value.Number(float64(b)), nil
	case TagNumber:
		f, err := d.ReadFloat64()
		if err != nil {
			return value.Value{}, err
		}
		return value.Number(f), nil
	case TagString:
		s, err := d.ReadString()
		if err != nil {
			return value.Value{}, err
		}
		return value.String(s), nil
	case TagBigInt:
		n, err := d.ReadBigInt()
		if err != nil {
			return value.Value{}, err
		}
		return value.BigIntVal(n), nil
	case TagArray:
		return d.decodeArray()
	case TagObject:
		return d.decodeObject()
	case TagFunction:
		return d.decodeFunction()
	case TagClass:
		return d.decodeClass()
	case TagSymbol:
		b, err := d.ReadByte()
		if err != nil {
			return value.Value{}, err
		}
		return value.SymbolVal(value.Symbol(b)), nil
	case TagBuiltin:
		idx, err := d.ReadVarUint()
		if err != nil {
			return value.Value{}, err
		}
		if BuiltinLookup == nil {
			return value.Value{}, errUnresolvedBuiltin
		}
		v, ok := BuiltinLookup(idx)
		if !ok {
			return value.Value{}, errUnresolvedBuiltin
		}
		return v, nil
	case TagPointer:
		return d.decodePointer()
	case TagRegister:
		return value.Value{}, errRegisterInValue
	default:
		return value.Value{}, errBadTag
	}
}

func (d *Decoder) decodeArray() (value.Value, error) {
	var out []value.Value
	for {
		tag, err := d.PeekTag()
		if err != nil {
			return value.Value{}, err
		}
		if tag == TagEnd {
			d.Pos++
			break
		}
		v, err := d.DecodeValue()
		if err != nil {
			return value.Value{}, err
		}
		out = append(out, v)
	}
	return value.Array(out), nil
}

func (d *Decoder) decodeObject() (value.Value, error) {
	str := map[string]value.Value{}
	for {
		tag, err := d.PeekTag()
		if err != nil {
			return value.Value{}, err
		}
		if tag == TagEnd {
			d.Pos++
			break
		}
		key, err := d.ReadString()
		if err != nil {
			return value.Value{}, err
		}
		v, err := d.DecodeValue()
		if err != nil {
			return value.Value{}, err
		}
		str[key] = v
	}
	proto, err := d.DecodeValue()
	if err != nil {
		return value.Value{}, err
	}
	return value.Object(str, nil, proto), nil
}

// decodeFunction reads the header (register count, parameter count,
// generator flag) and records the instruction stream's start offset; the
// instruction bytes themselves are interpreted by package vm, not parsed
// here.
func (d *Decoder) decodeFunction() (value.Value, error) {
	regCount, err := d.ReadVarUint()
	if err != nil {
		return value.Value{}, err
	}
	paramCount, err := d.ReadVarUint()
	if err != nil {
		return value.Value{}, err
	}
	flags, err := d.ReadByte()
	if err != nil {
		return value.Value{}, err
	}
	start := uint32(d.Pos)
	return value.Function(d.ID, start, uint16(regCount), uint16(paramCount), flags&0x01 != 0, nil), nil
}

func (d *Decoder) decodeClass() (value.Value, error) {
	name, err := d.ReadString()
	if err != nil {
		return value.Value{}, err
	}
	hashLen, err := d.ReadVarUint()
	if err != nil {
		return value.Value{}, err
	}
	var hash []byte
	if hashLen > 0 {
		hash, err = d.ReadBytes(int(hashLen))
		if err != nil {
			return value.Value{}, err
		}
	}
	constructor, err := d.DecodeValue()
	if err != nil {
		return value.Value{}, err
	}
	instanceProto, err := d.DecodeValue()
	if err != nil {
		return value.Value{}, err
	}
	static, err := d.DecodeValue()
	if err != nil {
		return value.Value{}, err
	}
	return value.Class(name, hash, constructor, instanceProto, static), nil
}

// decodePointer reads a wire offset into the same blob and returns a
// lazily-resolving value.StoragePointer. The offset is a varsize integer
// rather than a fixed 2-byte field: a real module easily exceeds a 64KB constant pool, and
// varsize costs nothing for the common small-offset case.
//
// Backward pointers (offset < current position) are only legal when they
// target a Function or Class definition, preventing cyclic non-function data
// from being constructed through pointers while still letting mutually
// recursive functions and classes reference each other.
func (d *Decoder) decodePointer() (value.Value, error) {
	offset, err := d.ReadVarUint()
	if err != nil {
		return value.Value{}, err
	}
	target := int(offset)

	if target < d.Pos {
		peek := d.viewAt(target)
		tag, err := peek.PeekTag()
		if err != nil {
			return value.Value{}, err
		}
		if tag != TagFunction && tag != TagClass {
			return value.Value{}, errBackwardPointer
		}
	}

	id := d.ID
	data := d.Data
	return value.NewStoragePointer(func() (value.Value, error) {
		return NewDecoder(id, data).viewAt(target).DecodeValue()
	}), nil
}

// DecodeValueAt decodes a single value starting at a known offset within the
// same blob, used by the assembler/loader to pull a top-level export without
// going through a Pointer indirection.
func (d *Decoder) DecodeValueAt(offset int) (value.Value, error) {
	return d.viewAt(offset).DecodeValue()
}
