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

// Package storage implements persistent, reference-counted, content-
// deduplicated value graphs: any live value may be written out as an Entry
// and later rehydrated through a storage pointer variant of value.Value.
// Two backends share one interface — an in-memory cache and a persistent
// on-disk store — so everything above the Backend line (ref-counting,
// transactions, dedup) works identically against either.
package storage

// EntryPointer is a random 192-bit key identifying a stored Entry.
// Entries are reachable only via a HeadPointer or another entry's Refs,
// never enumerated.
type EntryPointer [24]byte

// HeadPointer is a durable, named root whose slot holds an EntryPointer.
type HeadPointer string

// Backend is the key-value substrate both storage implementations share:
// everything above this line (ref-counting, transactions, dedup) is
// backend-agnostic.
type Backend interface {
	Get(key []byte) ([]byte, error)
	Has(key []byte) (bool, error)
	Put(key, value []byte) error
	Delete(key []byte) error
}

// ErrNotFound is returned by Backend.Get when key isn't present.
var ErrNotFound = backendNotFoundError{}

type backendNotFoundError struct{}

func (backendNotFoundError) Error() string { return "storage: key not found" }
