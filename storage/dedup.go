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
	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/crypto/sha3"
)

// dedupCaches hold two layers of deduplication: an identity cache, keyed on
// the in-memory handle, that makes storing the exact same Go-side
// Array/Object/Function/Class twice a cache hit with no re-serialization,
// and a content cache keyed by a hash of the serialized bytes that catches
// two separately-built-but-structurally-equal values, so stored graphs with
// shared subvalues share the same entry. ContentHash (sha3-256) supplies
// the content cache's key.
type dedupCaches struct {
	identity *lru.Cache // uintptr -> EntryPointer
	content  *lru.Cache // [32]byte -> EntryPointer
}

func newDedupCaches(size int) (*dedupCaches, error) {
	identity, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	content, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &dedupCaches{identity: identity, content: content}, nil
}

// ContentHash computes the sha3-256 digest of data, the key Tx.Put uses for
// the content dedup cache.
func ContentHash(data []byte) [32]byte {
	return sha3.Sum256(data)
}
