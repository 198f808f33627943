// SPDX-FileCopyrightText: © 2026 corvid authors
// SPDX-License-Identifier: AGPL-3.0-only
package typesupport

import (
	"testing"

	"github.com/corvidds/corvid/rtps/types"
	"github.com/stretchr/testify/require"
)

func TestRegistryRegisterAndLookup(t *testing.T) {
	r := NewRegistry()
	d := Descriptor{TypeName: "demo::T", HasKey: true}
	require.NoError(t, r.Register(d))

	got, ok := r.Lookup("demo::T")
	require.True(t, ok)
	require.Equal(t, d, got)
}

func TestRegistryRegisterIdenticalTwiceIsNoop(t *testing.T) {
	r := NewRegistry()
	d := Descriptor{TypeName: "demo::T", HasKey: true}
	require.NoError(t, r.Register(d))
	require.NoError(t, r.Register(d))
}

func TestRegistryRegisterConflictingDescriptorErrors(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(Descriptor{TypeName: "demo::T", HasKey: true}))
	err := r.Register(Descriptor{TypeName: "demo::T", HasKey: false})
	require.Error(t, err)
}

func TestRegistryLookupUnknownTypeMisses(t *testing.T) {
	r := NewRegistry()
	_, ok := r.Lookup("unknown")
	require.False(t, ok)
}

func TestDescriptorInstanceHandleOfKeyUsesNilHandleWhenUnkeyed(t *testing.T) {
	d := Descriptor{TypeName: "demo::U", HasKey: false}
	require.Equal(t, types.NilHandle, d.InstanceHandleOfKey([]byte("ignored")))
}

func TestDescriptorInstanceHandleOfKeyDerivesFromKeyOf(t *testing.T) {
	d := Descriptor{
		TypeName: "demo::V",
		HasKey:   true,
		KeyOf:    func(serialized []byte) []byte { return serialized[:4] },
	}
	handle := d.InstanceHandleOfKey([]byte{1, 2, 3, 4, 5, 6})
	require.Equal(t, types.HandleOfSerializedKey([]byte{1, 2, 3, 4}), handle)
}
