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

	"github.com/valuescript/vsgo/value"
)

// Tx is the handle Store.Transaction passes to f: every write (new entries,
// head updates, ref-count deltas) is buffered here and applied to the
// backend only at commit, and reads check that buffer first so a
// transaction always sees its own writes even before commit.
type Tx struct {
	store *Store

	pending map[EntryPointer]*Entry
	deltas  map[EntryPointer]int64
	heads   map[HeadPointer]*EntryPointer // nil value = delete
}

// Put serializes v (forcing any StoragePtr it already carries) and returns
// the EntryPointer of the entry backing it, creating one if this exact
// handle (or a structurally-identical one) was not already written in this
// store. A newly created entry registers a +1 delta on each entry it refers
// to; Put leaves the returned entry's own count unchanged, since Put alone
// does not yet know whether its result becomes a head, a sibling's ref, or
// stays unreferenced. Whatever keeps it (SetHead, or a parent entry's Refs)
// adds that +1, and a new entry nothing keeps is removed by the commit sweep.
func (tx *Tx) Put(v value.Value) (EntryPointer, error) {
	resolved, err := value.Resolve(v)
	if err != nil {
		return EntryPointer{}, err
	}

	if id := resolved.Identity(); id != 0 {
		if cached, ok := tx.store.caches.identity.Get(id); ok {
			ptr := cached.(EntryPointer)
			return ptr, nil
		}
	}

	data, refs, err := encodeEntryData(tx, resolved)
	if err != nil {
		return EntryPointer{}, err
	}

	hash := ContentHash(data)
	if cached, ok := tx.store.caches.content.Get(hash); ok {
		ptr := cached.(EntryPointer)
		if id := resolved.Identity(); id != 0 {
			tx.store.caches.identity.Add(id, ptr)
		}
		return ptr, nil
	}

	ptr, err := newEntryPointer()
	if err != nil {
		return EntryPointer{}, err
	}
	tx.pending[ptr] = &Entry{Refs: refs, Data: data}
	for _, r := range refs {
		tx.addDelta(r, 1)
	}
	if id := resolved.Identity(); id != 0 {
		tx.store.caches.identity.Add(id, ptr)
	}
	tx.store.caches.content.Add(hash, ptr)
	return ptr, nil
}

// Get reads and decodes the entry at ptr, preferring this transaction's own
// not-yet-committed write over whatever the backend currently holds.
func (tx *Tx) Get(ptr EntryPointer) (value.Value, error) {
	if e, ok := tx.pending[ptr]; ok {
		return decodeEntryData(tx, e.Data)
	}
	entry, err := tx.store.readEntry(ptr)
	if err != nil {
		return value.Value{}, err
	}
	return decodeEntryData(tx, entry.Data)
}

// SetHead points the durable root name at ptr, taking ownership of a +1
// ref-count delta on ptr and, if name already held a different pointer, a
// -1 delta on the old target so its subgraph can be collected once nothing
// else references it.
func (tx *Tx) SetHead(name HeadPointer, ptr EntryPointer) error {
	if old, err := tx.store.GetHead(name); err == nil {
		tx.addDelta(old, -1)
	} else if err != ErrNotFound {
		return err
	}
	tx.addDelta(ptr, 1)
	if tx.heads == nil {
		tx.heads = map[HeadPointer]*EntryPointer{}
	}
	p := ptr
	tx.heads[name] = &p
	return nil
}

// DeleteHead removes a durable root and releases its ref-count delta.
func (tx *Tx) DeleteHead(name HeadPointer) error {
	old, err := tx.store.GetHead(name)
	if err != nil {
		if err == ErrNotFound {
			return nil
		}
		return err
	}
	tx.addDelta(old, -1)
	if tx.heads == nil {
		tx.heads = map[HeadPointer]*EntryPointer{}
	}
	tx.heads[name] = nil
	return nil
}

func (tx *Tx) addDelta(ptr EntryPointer, d int64) {
	if tx.deltas == nil {
		tx.deltas = map[EntryPointer]int64{}
	}
	tx.deltas[ptr] += d
}

// commit flushes tx's buffered entries, head updates, and ref-count deltas
// to the backend. New entries are written first so a delta's target always
// exists by the time it is applied; a delta that drives an entry's count to
// zero deletes the entry and recursively decrements each of its outbound
// Refs, so an unreachable subgraph drains completely.
func (tx *Tx) commit() error {
	for ptr, e := range tx.pending {
		if err := tx.store.backend.Put(ptr[:], encodeEntry(e)); err != nil {
			return fmt.Errorf("storage: writing entry: %w", err)
		}
	}

	for name, ptr := range tx.heads {
		if ptr == nil {
			if err := tx.store.backend.Delete(headKey(name)); err != nil {
				return fmt.Errorf("storage: deleting head %q: %w", name, err)
			}
			continue
		}
		if err := tx.store.backend.Put(headKey(name), (*ptr)[:]); err != nil {
			return fmt.Errorf("storage: writing head %q: %w", name, err)
		}
	}

	queue := make([]EntryPointer, 0, len(tx.deltas)+len(tx.pending))
	remaining := make(map[EntryPointer]int64, len(tx.deltas)+len(tx.pending))
	for ptr, d := range tx.deltas {
		remaining[ptr] = d
		queue = append(queue, ptr)
	}
	// Every freshly written entry is queued even with a zero delta: a Put
	// whose result never became a head or another entry's ref (the caller
	// abandoned it, or a dedup hit made this particular write moot) must
	// still be swept at its true starting ref-count of zero, or it would
	// leak as an unreachable zero-count entry forever.
	for ptr := range tx.pending {
		if _, ok := remaining[ptr]; !ok {
			remaining[ptr] = 0
			queue = append(queue, ptr)
		}
	}

	for len(queue) > 0 {
		ptr := queue[0]
		queue = queue[1:]
		delta, ok := remaining[ptr]
		if !ok {
			continue
		}
		delete(remaining, ptr)

		entry, err := tx.localEntry(ptr)
		if err != nil {
			return fmt.Errorf("storage: applying ref-count delta to %x: %w", ptr, err)
		}

		newCount := int64(entry.RefCount) + delta
		if newCount < 0 {
			return fmt.Errorf("%w: entry %x would go to %d", ErrRefUnderflow, ptr, newCount)
		}

		if newCount == 0 {
			if err := tx.store.backend.Delete(ptr[:]); err != nil {
				return fmt.Errorf("storage: deleting entry %x: %w", ptr, err)
			}
			delete(tx.pending, ptr)
			for _, child := range entry.Refs {
				remaining[child] += -1
				queue = append(queue, child)
			}
			continue
		}

		entry.RefCount = uint64(newCount)
		if err := tx.store.backend.Put(ptr[:], encodeEntry(entry)); err != nil {
			return fmt.Errorf("storage: updating ref count for %x: %w", ptr, err)
		}
	}

	return nil
}

// localEntry reads ptr preferring tx's own still-buffered write (a brand
// new entry never flushed to the backend before the ref-count pass above
// runs has RefCount 0 there, which is exactly the state Put leaves it in).
func (tx *Tx) localEntry(ptr EntryPointer) (*Entry, error) {
	if e, ok := tx.pending[ptr]; ok {
		return e, nil
	}
	return tx.store.readEntry(ptr)
}
