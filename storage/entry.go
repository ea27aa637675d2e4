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

package storage

import (
	"encoding/binary"
	"fmt"
)

// Entry is one stored node of a value graph: a reference count, the entry
// pointers this entry owns a ref-count on, and the serialized payload (see
// codec.go for the payload's tag scheme).
type Entry struct {
	RefCount uint64
	Refs     []EntryPointer
	Data     []byte
}

// encodeEntry packs an Entry into the bytes actually handed to a Backend.
// Layout: u64 ref_count, varuint ref-count-of-refs, that many 24-byte
// EntryPointers, then the rest of the buffer is Data. No length prefix on
// Data is needed since it runs to the end of the blob.
func encodeEntry(e *Entry) []byte {
	buf := make([]byte, 8, 8+len(e.Refs)*24+10+len(e.Data))
	binary.LittleEndian.PutUint64(buf, e.RefCount)
	buf = appendVarUint(buf, uint64(len(e.Refs)))
	for _, r := range e.Refs {
		buf = append(buf, r[:]...)
	}
	buf = append(buf, e.Data...)
	return buf
}

func decodeEntry(raw []byte) (*Entry, error) {
	if len(raw) < 8 {
		return nil, fmt.Errorf("storage: truncated entry (need 8 bytes, got %d)", len(raw))
	}
	refCount := binary.LittleEndian.Uint64(raw)
	pos := 8
	n, nread, err := readVarUintAt(raw, pos)
	if err != nil {
		return nil, err
	}
	pos = nread
	refs := make([]EntryPointer, n)
	for i := range refs {
		if pos+24 > len(raw) {
			return nil, fmt.Errorf("storage: truncated entry refs")
		}
		copy(refs[i][:], raw[pos:pos+24])
		pos += 24
	}
	data := make([]byte, len(raw)-pos)
	copy(data, raw[pos:])
	return &Entry{RefCount: refCount, Refs: refs, Data: data}, nil
}

// appendVarUint/readVarUintAt mirror bytecode's base-128 varsize integer
// encoding at the small scale entry ref-counts need; storage does not
// depend on package bytecode's encoder/decoder types directly here to keep
// Entry framing independent of the value-codec layer in codec.go.
func appendVarUint(buf []byte, v uint64) []byte {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			buf = append(buf, b|0x80)
		} else {
			buf = append(buf, b)
			return buf
		}
	}
}

func readVarUintAt(buf []byte, pos int) (uint64, int, error) {
	var v uint64
	var shift uint
	for {
		if pos >= len(buf) {
			return 0, 0, fmt.Errorf("storage: truncated varuint")
		}
		b := buf[pos]
		pos++
		v |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return v, pos, nil
		}
		shift += 7
	}
}
