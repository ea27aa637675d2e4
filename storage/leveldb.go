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
	"github.com/golang/snappy"
	bloomfilter "github.com/holiman/bloomfilter/v2"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/errors"
)

// DiskBackend is the persistent on-disk Backend, a thin wrapper around
// syndtr/goleveldb. Payloads are snappy-compressed before being handed to
// leveldb, and every read is gated by an in-memory bloom filter so a miss
// on a cold key skips the disk lookup entirely.
type DiskBackend struct {
	db    *leveldb.DB
	bloom *bloomfilter.Filter
}

// OpenDiskBackend opens (creating if absent) a leveldb database at path,
// sizing the existence-probe bloom filter for expectedEntries items.
func OpenDiskBackend(path string, expectedEntries uint64) (*DiskBackend, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, err
	}
	if expectedEntries == 0 {
		expectedEntries = 1 << 20
	}
	bloom, err := bloomfilter.NewOptimal(expectedEntries, 0.001)
	if err != nil {
		db.Close()
		return nil, err
	}
	return &DiskBackend{db: db, bloom: bloom}, nil
}

func (b *DiskBackend) Close() error { return b.db.Close() }

// keyHash adapts a backend key to the hash.Hash64 interface
// bloomfilter.Filter consumes, precomputing an FNV-1a digest; only Sum64 is
// ever called by the filter.
type keyHash uint64

func hashKey(key []byte) keyHash {
	var h uint64 = 14695981039428658709 // FNV-1a offset basis
	for _, c := range key {
		h ^= uint64(c)
		h *= 1099511628211
	}
	return keyHash(h)
}

func (h keyHash) Sum64() uint64                { return uint64(h) }
func (h keyHash) Write(p []byte) (int, error)  { return len(p), nil }
func (h keyHash) Sum(b []byte) []byte          { return b }
func (h keyHash) Reset()                       {}
func (h keyHash) Size() int                    { return 8 }
func (h keyHash) BlockSize() int               { return 8 }

func (b *DiskBackend) Get(key []byte) ([]byte, error) {
	if !b.bloom.Contains(hashKey(key)) {
		return nil, ErrNotFound
	}
	raw, err := b.db.Get(key, nil)
	if err == errors.ErrNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return snappy.Decode(nil, raw)
}

func (b *DiskBackend) Has(key []byte) (bool, error) {
	if !b.bloom.Contains(hashKey(key)) {
		return false, nil
	}
	return b.db.Has(key, nil)
}

func (b *DiskBackend) Put(key, value []byte) error {
	b.bloom.Add(hashKey(key))
	return b.db.Put(key, snappy.Encode(nil, value), nil)
}

func (b *DiskBackend) Delete(key []byte) error {
	// The bloom filter has no removal operation (by design — a false
	// positive just costs one wasted disk lookup, which Get's leveldb
	// fallback already handles correctly via ErrNotFound).
	return b.db.Delete(key, nil)
}
