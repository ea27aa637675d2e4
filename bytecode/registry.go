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

import "sync"

// Registry maps the BytecodeID strings carried by value.Function back to the
// blob bytes they were decoded from. value.Function stores an ID rather than
// a byte slice so that Value stays small and copyable; vm looks the blob up
// here exactly once per call, at the frame's creation.
type Registry struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

func NewRegistry() *Registry {
	return &Registry{blobs: map[string][]byte{}}
}

func (r *Registry) Register(id string, data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.blobs[id] = data
}

// Bytes returns the raw blob registered under id, for callers (the module
// loader) that merge several per-module registries into one shared registry
// so a Function value imported across modules still resolves.
func (r *Registry) Bytes(id string) ([]byte, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	data, ok := r.blobs[id]
	return data, ok
}

func (r *Registry) Decoder(id string) (*Decoder, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	data, ok := r.blobs[id]
	if !ok {
		return nil, false
	}
	return NewDecoder(id, data), true
}
