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

package value

import "sync"

// Resolver lazily produces the concrete Value a StoragePtr stands in for.
// Both the bytecode decoder (resolving an in-blob pointer tag) and the
// storage engine (resolving a persisted entry pointer) construct a
// StoragePointer by supplying one of these; value itself knows nothing
// about bytecode offsets or storage backends, which keeps this package
// free of a dependency on either.
type Resolver func() (Value, error)

// StoragePointer defers decoding until first use and caches the result: the
// first Force call resolves the underlying value and every later call
// returns the cached outcome (including a cached error).
type StoragePointer struct {
	mu       sync.Mutex
	resolve  Resolver
	resolved bool
	cached   Value
	err      error
}

// NewStoragePointer constructs a lazy pointer around resolver.
func NewStoragePointer(resolver Resolver) Value {
	return Value{tag: TagStoragePtr, ptr: &StoragePointer{resolve: resolver}}
}

// Force resolves the pointer if it has not already been resolved, caching
// the outcome (including errors) for subsequent calls.
func (p *StoragePointer) Force() (Value, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.resolved {
		p.cached, p.err = p.resolve()
		p.resolved = true
	}
	return p.cached, p.err
}

// Resolve dereferences v transparently if it is a StoragePtr, returning v
// itself otherwise. Every VM operation that needs a concrete kind
// (arithmetic, subscript, typeof, iteration, ...) calls this first.
func Resolve(v Value) (Value, error) {
	for v.tag == TagStoragePtr {
		resolved, err := v.ptr.Force()
		if err != nil {
			return Value{}, err
		}
		v = resolved
	}
	return v, nil
}
