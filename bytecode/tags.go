// Copyright 2024 The ValueScript Authors
// This file is part of ValueScript.
//
// ValueScript is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package bytecode implements the ValueScript wire format: a single
// contiguous byte sequence of tag-prefixed values and definitions, where
// pointers are fixed-position offsets into that same sequence.
//
// Tag byte assignments are bit-exact and are never renumbered, since they
// are the actual on-disk/on-wire format a host may persist or ship across a
// process boundary.
package bytecode

// Tag identifies the wire-format shape of the value or instruction that
// follows. These are distinct from value.Tag, which identifies the
// in-memory variant — the on-disk byte table and value.Tag's
// implementation-private enum are unrelated numberings by design.
type Tag byte

const (
	TagEnd        Tag = 0x00
	TagVoid       Tag = 0x01
	TagUndefined  Tag = 0x02
	TagNull       Tag = 0x03
	TagFalse      Tag = 0x04
	TagTrue       Tag = 0x05
	TagSignedByte Tag = 0x06
	TagNumber     Tag = 0x07
	TagString     Tag = 0x08
	TagArray      Tag = 0x09
	TagObject     Tag = 0x0A
	TagFunction   Tag = 0x0B
	// TagSymbol reuses an otherwise-unassigned byte in the same numbering
	// space to encode one of the small set of well-known symbols as a single
	// following byte.
	TagSymbol  Tag = 0x0C
	TagPointer Tag = 0x0D
	TagRegister Tag = 0x0E
	TagBuiltin  Tag = 0x10
	TagClass    Tag = 0x11
	TagBigInt   Tag = 0x13
)

// Opcode is the instruction byte for the assembled bytecode's instruction
// stream (0x00..=0x31 plus generator/iterator extensions). The numbering
// below follows the reference InstructionByte enum for the shared range (see
// DESIGN.md): 0x00-0x31 assigned identically, 0x32+ added locally for the
// generator/iterator/string-cat instructions that enum does not enumerate by
// byte value.
type Opcode byte

const (
	OpEnd Opcode = 0x00
	OpMov Opcode = 0x01

	OpInc Opcode = 0x02
	OpDec Opcode = 0x03

	OpPlus  Opcode = 0x04
	OpMinus Opcode = 0x05
	OpMul   Opcode = 0x06
	OpDiv   Opcode = 0x07
	OpMod   Opcode = 0x08
	OpExp   Opcode = 0x09

	OpEq       Opcode = 0x0a
	OpNe       Opcode = 0x0b
	OpTripleEq Opcode = 0x0c
	OpTripleNe Opcode = 0x0d

	OpAnd Opcode = 0x0e
	OpOr  Opcode = 0x0f
	OpNot Opcode = 0x10

	OpLess       Opcode = 0x11
	OpLessEq     Opcode = 0x12
	OpGreater    Opcode = 0x13
	OpGreaterEq  Opcode = 0x14

	OpNullishCoalesce Opcode = 0x15
	OpOptionalChain   Opcode = 0x16

	OpBitAnd             Opcode = 0x17
	OpBitOr              Opcode = 0x18
	OpBitNot             Opcode = 0x19
	OpBitXor             Opcode = 0x1a
	OpLeftShift          Opcode = 0x1b
	OpRightShift         Opcode = 0x1c
	OpRightShiftUnsigned Opcode = 0x1d

	OpTypeOf     Opcode = 0x1e
	OpInstanceOf Opcode = 0x1f
	OpIn         Opcode = 0x20

	OpCall Opcode = 0x21
	OpApply Opcode = 0x22
	OpBind  Opcode = 0x23

	OpSub    Opcode = 0x24
	OpSubMov Opcode = 0x25
	OpSubCall Opcode = 0x26

	OpJmp   Opcode = 0x27
	OpJmpIf Opcode = 0x28

	OpUnaryPlus  Opcode = 0x29
	OpUnaryMinus Opcode = 0x2a

	OpNew   Opcode = 0x2b
	OpThrow Opcode = 0x2c

	OpImport     Opcode = 0x2d
	OpImportStar Opcode = 0x2e

	OpSetCatch   Opcode = 0x2f
	OpUnsetCatch Opcode = 0x30

	OpConstSubCall Opcode = 0x31

	// ---- extensions beyond the shared 0x00-0x31 range ------------------
	OpJmpIfNot       Opcode = 0x32
	OpThisSubCall     Opcode = 0x33
	OpRequireMutableThis Opcode = 0x34
	OpYield          Opcode = 0x35
	OpYieldStar      Opcode = 0x36
	OpNext           Opcode = 0x37
	OpUnpackIterRes  Opcode = 0x38
	OpCat            Opcode = 0x39
	OpThis           Opcode = 0x3a
)

func (o Opcode) String() string {
	if name, ok := opcodeNames[o]; ok {
		return name
	}
	return "unknown"
}

// ParseOpcode looks up the Opcode for a textual mnemonic, the inverse of
// Opcode.String. Used by the assembler to translate the assembly package's
// symbolic InstrOp names back into wire opcode bytes.
func ParseOpcode(name string) (Opcode, bool) {
	op, ok := opcodeByName[name]
	return op, ok
}

var opcodeByName = func() map[string]Opcode {
	m := make(map[string]Opcode, len(opcodeNames))
	for op, name := range opcodeNames {
		m[name] = op
	}
	return m
}()

var opcodeNames = map[Opcode]string{
	OpEnd: "end", OpMov: "mov", OpInc: "inc", OpDec: "dec",
	OpPlus: "plus", OpMinus: "minus", OpMul: "mul", OpDiv: "div", OpMod: "mod", OpExp: "exp",
	OpEq: "eq", OpNe: "ne", OpTripleEq: "triple_eq", OpTripleNe: "triple_ne",
	OpAnd: "and", OpOr: "or", OpNot: "not",
	OpLess: "less", OpLessEq: "less_eq", OpGreater: "greater", OpGreaterEq: "greater_eq",
	OpNullishCoalesce: "nullish_coalesce", OpOptionalChain: "optional_chain",
	OpBitAnd: "bit_and", OpBitOr: "bit_or", OpBitNot: "bit_not", OpBitXor: "bit_xor",
	OpLeftShift: "left_shift", OpRightShift: "right_shift", OpRightShiftUnsigned: "right_shift_unsigned",
	OpTypeOf: "typeof", OpInstanceOf: "instance_of", OpIn: "in",
	OpCall: "call", OpApply: "apply", OpBind: "bind",
	OpSub: "sub", OpSubMov: "sub_mov", OpSubCall: "sub_call",
	OpJmp: "jmp", OpJmpIf: "jmp_if", OpJmpIfNot: "jmp_if_not",
	OpUnaryPlus: "unary_plus", OpUnaryMinus: "unary_minus",
	OpNew: "new", OpThrow: "throw",
	OpImport: "import", OpImportStar: "import_star",
	OpSetCatch: "set_catch", OpUnsetCatch: "unset_catch",
	OpConstSubCall: "const_sub_call", OpThisSubCall: "this_sub_call",
	OpRequireMutableThis: "require_mutable_this",
	OpYield: "yield", OpYieldStar: "yield_star", OpNext: "next",
	OpUnpackIterRes: "unpack_iter_res", OpCat: "cat", OpThis: "this",
}
