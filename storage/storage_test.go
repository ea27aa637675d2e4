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
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/valuescript/vsgo/value"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	backend := NewMemoryBackend(1 << 20)
	s, err := NewStore(backend, 64)
	require.NoError(t, err)
	return s
}

func TestRoundTrip(t *testing.T) {
	s := newTestStore(t)
	in := value.Array([]value.Value{value.Number(1), value.Number(2), value.String("three")})

	var ptr EntryPointer
	require.NoError(t, s.Transaction(func(tx *Tx) error {
		p, err := tx.Put(in)
		if err != nil {
			return err
		}
		ptr = p
		return tx.SetHead("root", p)
	}))

	out, err := s.GetValue(ptr)
	require.NoError(t, err)
	require.Equal(t, 3, out.ArrayLen())
	require.Equal(t, float64(1), out.ArrayElems()[0].Float64())
	require.Equal(t, "three", out.ArrayElems()[2].StringVal())
}

func TestSharedSubvalueDedup(t *testing.T) {
	s := newTestStore(t)
	shared := value.Array([]value.Value{value.Number(1)})
	outer := value.Array([]value.Value{shared.Retain(), shared.Retain()})

	var ptrs [2]EntryPointer
	require.NoError(t, s.Transaction(func(tx *Tx) error {
		p, err := tx.Put(outer)
		if err != nil {
			return err
		}
		entry, ok := tx.pending[p]
		require.True(t, ok)
		require.Len(t, entry.Refs, 2)
		ptrs[0], ptrs[1] = entry.Refs[0], entry.Refs[1]
		return tx.SetHead("root", p)
	}))

	// Storing the same in-memory handle twice must collapse to one entry:
	// a graph with shared subvalues shares the stored entry too.
	require.Equal(t, ptrs[0], ptrs[1])
}

func TestDeleteHeadDrainsStore(t *testing.T) {
	s := newTestStore(t)
	v := value.Array([]value.Value{value.Number(42)})

	var outerPtr, innerPtr EntryPointer
	require.NoError(t, s.Transaction(func(tx *Tx) error {
		p, err := tx.Put(v)
		if err != nil {
			return err
		}
		outerPtr = p
		return tx.SetHead("root", p)
	}))

	entry, err := s.readEntry(outerPtr)
	require.NoError(t, err)
	if len(entry.Refs) > 0 {
		innerPtr = entry.Refs[0]
	}

	require.NoError(t, s.Transaction(func(tx *Tx) error {
		return tx.DeleteHead("root")
	}))

	_, err = s.readEntry(outerPtr)
	require.ErrorIs(t, err, ErrNotFound)
	if innerPtr != (EntryPointer{}) {
		_, err = s.readEntry(innerPtr)
		require.ErrorIs(t, err, ErrNotFound)
	}
}

func TestTransactionRollbackDiscardsWrites(t *testing.T) {
	s := newTestStore(t)
	sentinel := errors.New("boom")

	var ptr EntryPointer
	err := s.Transaction(func(tx *Tx) error {
		p, txErr := tx.Put(value.Number(7))
		if txErr != nil {
			return txErr
		}
		ptr = p
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)

	_, err = s.readEntry(ptr)
	require.ErrorIs(t, err, ErrNotFound)
}
