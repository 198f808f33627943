// SPDX-FileCopyrightText: © 2026 corvid authors
// SPDX-License-Identifier: AGPL-3.0-only
package guid

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewBuildsGuidFromPrefixAndEntity(t *testing.T) {
	prefix := GuidPrefix{1, 2, 3}
	entity := EntityId{4, 5, 6, KindUserWriterWithKey}
	g := New(prefix, entity)
	require.Equal(t, prefix, g.Prefix)
	require.Equal(t, entity, g.Entity)
	require.False(t, g.IsUnknown())
}

func TestUnknownGuidIsZeroValue(t *testing.T) {
	require.True(t, Unknown.IsUnknown())
	require.True(t, GUID{}.IsUnknown())
}

func TestGuidBytesConcatenatesPrefixAndEntity(t *testing.T) {
	g := New(GuidPrefix{1, 2, 3}, EntityId{4, 5, 6, 7})
	b := g.Bytes()
	require.Equal(t, byte(1), b[0])
	require.Equal(t, byte(3), b[11])
	require.Equal(t, byte(4), b[12])
	require.Equal(t, byte(7), b[15])
}

func TestEntityIdKindReturnsLowByte(t *testing.T) {
	e := EntityId{0, 0, 0, KindUserReaderWithKey}
	require.Equal(t, KindUserReaderWithKey, e.Kind())
}
