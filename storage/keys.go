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
	"crypto/rand"
	"fmt"
)

// newEntryPointer allocates a fresh random 192-bit entry pointer.
// crypto/rand is the right tool directly from the standard library here:
// uuid.New only produces 128 bits, eight bytes short of the 24 this format
// needs, so there is no third-party library to prefer over the stdlib
// CSPRNG for this narrow a need.
func newEntryPointer() (EntryPointer, error) {
	var p EntryPointer
	if _, err := rand.Read(p[:]); err != nil {
		return EntryPointer{}, fmt.Errorf("storage: generating entry pointer: %w", err)
	}
	return p, nil
}

// headKey namespaces a HeadPointer's backend key so it can never collide
// with a 24-byte EntryPointer's raw bytes: named heads reserve a small
// prefix of the backend's key space.
func headKey(h HeadPointer) []byte {
	return append([]byte("head:"), []byte(h)...)
}

// tmpHeadName is the "tmp" + counter family reserved for temporary heads
// (roots a host holds only for the duration of one operation, e.g. staging
// a value before deciding which durable head should own it).
func tmpHeadName(counter uint64) HeadPointer {
	return HeadPointer(fmt.Sprintf("tmp%d", counter))
}
