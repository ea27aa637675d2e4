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
	"fmt"

	"github.com/valuescript/vsgo/bytecode"
	"github.com/valuescript/vsgo/value"
)

// slotInline/slotRef prefix every array element and object property value
// inside an entry's Data, distinguishing a value serialized inline (a
// primitive, per the codec in bytecode.EncodeValue) from a value that was
// promoted to its own Entry and is referenced by EntryPointer. These bytes
// live outside bytecode.Tag's 0x00-0x13 range so a slot marker can never be
// confused with the tag byte bytecode.DecodeValue expects to see next.
const (
	slotInline byte = 0x40
	slotRef    byte = 0x41
)

// isCompound reports whether v owns a shared, reference-counted handle and
// therefore must be promoted to its own Entry rather than inlined — arrays,
// objects, functions and classes all qualify, since those are the shapes
// dedup and lazy loading pay off for.
func isCompound(v value.Value) bool {
	switch v.Tag() {
	case value.TagArray, value.TagObject, value.TagFunction, value.TagClass:
		return true
	default:
		return false
	}
}

// encodeSlot writes one array element or object property value into e,
// recursively storing it as its own Entry first if it is compound. The
// caller accumulates the returned EntryPointer (when ok) into the parent
// Entry's Refs so the transaction's flush can maintain accurate ref counts.
func (tx *Tx) encodeSlot(e *bytecode.Encoder, v value.Value) (EntryPointer, bool, error) {
	resolved, err := value.Resolve(v)
	if err != nil {
		return EntryPointer{}, false, err
	}
	if isCompound(resolved) {
		ptr, err := tx.Put(resolved)
		if err != nil {
			return EntryPointer{}, false, err
		}
		e.WriteByte(slotRef)
		e.WriteBytes(ptr[:])
		return ptr, true, nil
	}
	e.WriteByte(slotInline)
	if err := bytecode.EncodeValue(e, resolved); err != nil {
		return EntryPointer{}, false, err
	}
	return EntryPointer{}, false, nil
}

// decodeSlot is encodeSlot's inverse: it reads one marker byte and either
// decodes an inline primitive or builds a lazy value.StoragePointer around
// tx's store for a ref — a stored reference is not fetched from the
// backend until the VM forces it.
func decodeSlot(tx *Tx, d *bytecode.Decoder) (value.Value, error) {
	marker, err := d.ReadByte()
	if err != nil {
		return value.Value{}, err
	}
	switch marker {
	case slotInline:
		return d.DecodeValue()
	case slotRef:
		raw, err := d.ReadBytes(24)
		if err != nil {
			return value.Value{}, err
		}
		var ptr EntryPointer
		copy(ptr[:], raw)
		store := tx.store
		return value.NewStoragePointer(func() (value.Value, error) {
			return store.GetValue(ptr)
		}), nil
	default:
		return value.Value{}, fmt.Errorf("storage: unknown slot marker 0x%02x", marker)
	}
}

// encodeEntryData serializes resolved (already known compound, or the
// caller's explicit choice of a primitive as a standalone head target) into
// an entry payload, returning the child entry pointers written along the
// way so the caller can record them as Entry.Refs.
func encodeEntryData(tx *Tx, resolved value.Value) ([]byte, []EntryPointer, error) {
	e := bytecode.NewEncoder()
	var refs []EntryPointer

	switch resolved.Tag() {
	case value.TagArray:
		e.WriteTag(bytecode.TagArray)
		for _, el := range resolved.ArrayElems() {
			ptr, ok, err := tx.encodeSlot(e, el)
			if err != nil {
				return nil, nil, err
			}
			if ok {
				refs = append(refs, ptr)
			}
		}
		e.WriteTag(bytecode.TagEnd)

	case value.TagObject:
		e.WriteTag(bytecode.TagObject)
		for k, val := range resolved.ObjectStrEntries() {
			e.WriteString(k)
			ptr, ok, err := tx.encodeSlot(e, val)
			if err != nil {
				return nil, nil, err
			}
			if ok {
				refs = append(refs, ptr)
			}
		}
		e.WriteTag(bytecode.TagEnd)
		ptr, ok, err := tx.encodeSlot(e, resolved.ObjectProto())
		if err != nil {
			return nil, nil, err
		}
		if ok {
			refs = append(refs, ptr)
		}

	default:
		// Functions, classes, and any primitive explicitly stored as its
		// own entry (e.g. a head pointing straight at a number) have no
		// substructure storage needs to split out: encode them whole via
		// the same tag-byte codec the bytecode blob itself uses.
		if err := bytecode.EncodeValue(e, resolved); err != nil {
			return nil, nil, err
		}
	}

	return e.Buf, refs, nil
}

// decodeEntryData is encodeEntryData's inverse, dispatching on the entry's
// leading tag byte the same way encodeEntryData chose it.
func decodeEntryData(tx *Tx, data []byte) (value.Value, error) {
	d := bytecode.NewDecoder("", data)
	tag, err := d.PeekTag()
	if err != nil {
		return value.Value{}, err
	}

	switch tag {
	case bytecode.TagArray:
		d.ReadByte()
		var elems []value.Value
		for {
			next, err := d.PeekTag()
			if err != nil {
				return value.Value{}, err
			}
			if next == bytecode.TagEnd {
				d.ReadByte()
				break
			}
			el, err := decodeSlot(tx, d)
			if err != nil {
				return value.Value{}, err
			}
			elems = append(elems, el)
		}
		return value.Array(elems), nil

	case bytecode.TagObject:
		d.ReadByte()
		str := map[string]value.Value{}
		for {
			next, err := d.PeekTag()
			if err != nil {
				return value.Value{}, err
			}
			if next == bytecode.TagEnd {
				d.ReadByte()
				break
			}
			key, err := d.ReadString()
			if err != nil {
				return value.Value{}, err
			}
			val, err := decodeSlot(tx, d)
			if err != nil {
				return value.Value{}, err
			}
			str[key] = val
		}
		proto, err := decodeSlot(tx, d)
		if err != nil {
			return value.Value{}, err
		}
		return value.Object(str, nil, proto), nil

	default:
		return d.DecodeValue()
	}
}
