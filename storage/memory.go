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

import "github.com/VictoriaMetrics/fastcache"

// MemoryBackend is an in-memory Backend keyed by 192-bit entry pointer.
// fastcache.Cache is a direct fit — a byte-keyed/byte-valued concurrent
// cache with a fixed memory budget — rather than a hand-rolled map guarded
// by a mutex.
type MemoryBackend struct {
	cache *fastcache.Cache
}

// NewMemoryBackend allocates a cache sized maxBytes, rounded up to
// fastcache's minimum bucket size.
func NewMemoryBackend(maxBytes int) *MemoryBackend {
	return &MemoryBackend{cache: fastcache.New(maxBytes)}
}

func (b *MemoryBackend) Get(key []byte) ([]byte, error) {
	v := b.cache.Get(nil, key)
	if v == nil {
		return nil, ErrNotFound
	}
	return v, nil
}

func (b *MemoryBackend) Has(key []byte) (bool, error) {
	return b.cache.Has(key), nil
}

func (b *MemoryBackend) Put(key, value []byte) error {
	b.cache.Set(key, value)
	return nil
}

func (b *MemoryBackend) Delete(key []byte) error {
	b.cache.Del(key)
	return nil
}
