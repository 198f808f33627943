// SPDX-FileCopyrightText: © 2026 corvid authors
// SPDX-License-Identifier: AGPL-3.0-only
package behavior

import (
	"testing"

	"github.com/corvidds/corvid/rtps/guid"
	"github.com/stretchr/testify/require"
)

func TestReassemblerCompletesInOrder(t *testing.T) {
	r := NewReassembler()
	w := guid.GUID{Entity: guid.EntityId{1}}

	payload, done := r.AddFragment(w, 1, 1, 1, 4, 10, []byte("abcd"))
	require.False(t, done)
	require.Nil(t, payload)

	missing := r.MissingFragments(w, 1)
	require.Equal(t, []uint32{2, 3}, missing)

	payload, done = r.AddFragment(w, 1, 2, 1, 4, 10, []byte("efgh"))
	require.False(t, done)

	payload, done = r.AddFragment(w, 1, 3, 1, 4, 10, []byte("ij"))
	require.True(t, done)
	require.Equal(t, []byte("abcdefghij"), payload)
}

func TestReassemblerCompletesOutOfOrder(t *testing.T) {
	r := NewReassembler()
	w := guid.GUID{Entity: guid.EntityId{2}}

	r.AddFragment(w, 5, 3, 1, 4, 10, []byte("ij"))
	r.AddFragment(w, 5, 1, 1, 4, 10, []byte("abcd"))
	payload, done := r.AddFragment(w, 5, 2, 1, 4, 10, []byte("efgh"))
	require.True(t, done)
	require.Equal(t, []byte("abcdefghij"), payload)
}

func TestReassemblerMultipleFragmentsPerSubmessage(t *testing.T) {
	r := NewReassembler()
	w := guid.GUID{Entity: guid.EntityId{3}}

	payload, done := r.AddFragment(w, 1, 1, 2, 4, 8, []byte("abcdefgh"))
	require.True(t, done)
	require.Equal(t, []byte("abcdefgh"), payload)
}

func TestReassemblerDiscardDropsPendingState(t *testing.T) {
	r := NewReassembler()
	w := guid.GUID{Entity: guid.EntityId{4}}

	r.AddFragment(w, 1, 1, 1, 4, 8, []byte("abcd"))
	require.NotNil(t, r.MissingFragments(w, 1))

	r.Discard(w, 1)
	require.Nil(t, r.MissingFragments(w, 1))
}

func TestReassemblerMissingFragmentsUnknownKeyIsNil(t *testing.T) {
	r := NewReassembler()
	require.Nil(t, r.MissingFragments(guid.GUID{}, 99))
}
