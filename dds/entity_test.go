// SPDX-FileCopyrightText: © 2026 corvid authors
// SPDX-License-Identifier: AGPL-3.0-only

package dds

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNextInstanceHandleIsDistinctAcrossCalls(t *testing.T) {
	a := nextInstanceHandle()
	b := nextInstanceHandle()
	require.NotEqual(t, a, b)
}

func TestEntityStateLifecycle(t *testing.T) {
	e := newEntityState()

	require.False(t, e.IsEnabled())
	require.False(t, e.IsDeleted())

	e.Enable()
	require.True(t, e.IsEnabled())

	e.MarkDeleted()
	require.True(t, e.IsDeleted())
}

func TestEntityStateInstanceHandleStableAcrossCalls(t *testing.T) {
	e := newEntityState()
	require.Equal(t, e.InstanceHandle(), e.InstanceHandle())
}
