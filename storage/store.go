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
	"errors"
	"sync"

	"github.com/valuescript/vsgo/value"
	"golang.org/x/sync/singleflight"
)

// Store is a transactional, reference-counted, content-deduplicating
// value-graph engine layered over any Backend.
type Store struct {
	backend Backend
	caches  *dedupCaches

	mu        sync.Mutex
	tmpHeadSeq uint64

	// group deduplicates concurrent first-touch resolution of the same
	// StoragePtr across goroutines driving separate VM instances against
	// one backend (the lazy read path), via golang.org/x/sync/singleflight,
	// the same library used elsewhere for coalescing concurrent lookups
	// against a shared backend.
	group singleflight.Group
}

// NewStore wraps backend with a dedup cache sized cacheEntries (applied to
// both the identity and content caches independently).
func NewStore(backend Backend, cacheEntries int) (*Store, error) {
	if cacheEntries <= 0 {
		cacheEntries = 4096
	}
	caches, err := newDedupCaches(cacheEntries)
	if err != nil {
		return nil, err
	}
	return &Store{backend: backend, caches: caches}, nil
}

// ErrRefUnderflow indicates a ref-count delta would drive an entry's count
// negative — a corrupted store or a bug in the transaction bookkeeping
// above this layer, never a condition a well-formed caller can trigger.
var ErrRefUnderflow = errors.New("storage: ref-count underflow")

// GetValue reads and decodes the entry at ptr outside of any explicit
// transaction, for lazy StoragePtr resolvers installed while decoding
// another entry (codec.go's decodeSlot). Concurrent callers resolving the
// same ptr share one backend read and decode via s.group.
func (s *Store) GetValue(ptr EntryPointer) (value.Value, error) {
	v, err, _ := s.group.Do(string(ptr[:]), func() (interface{}, error) {
		entry, err := s.readEntry(ptr)
		if err != nil {
			return value.Value{}, err
		}
		return decodeEntryData(&Tx{store: s}, entry.Data)
	})
	if err != nil {
		return value.Value{}, err
	}
	return v.(value.Value), nil
}

func (s *Store) readEntry(ptr EntryPointer) (*Entry, error) {
	raw, err := s.backend.Get(ptr[:])
	if err != nil {
		return nil, err
	}
	return decodeEntry(raw)
}

// Transaction runs f against a fresh Tx, committing f's buffered writes and
// ref-count deltas on a nil return and discarding them untouched on error.
// Because Tx buffers every write in memory until commit, "rollback"
// requires no backend action at all — the buffered state is simply
// dropped.
func (s *Store) Transaction(f func(tx *Tx) error) error {
	tx := &Tx{
		store:   s,
		pending: map[EntryPointer]*Entry{},
		deltas:  map[EntryPointer]int64{},
	}
	if err := f(tx); err != nil {
		return err
	}
	return tx.commit()
}

// NewTempHead allocates the next "tmp<N>" head name.
func (s *Store) NewTempHead() HeadPointer {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tmpHeadSeq++
	return tmpHeadName(s.tmpHeadSeq)
}

// GetHead resolves a durable named root to the entry pointer it currently
// holds.
func (s *Store) GetHead(name HeadPointer) (EntryPointer, error) {
	raw, err := s.backend.Get(headKey(name))
	if err != nil {
		return EntryPointer{}, err
	}
	var ptr EntryPointer
	copy(ptr[:], raw)
	return ptr, nil
}
