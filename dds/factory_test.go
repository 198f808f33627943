// SPDX-FileCopyrightText: © 2026 corvid authors
// SPDX-License-Identifier: AGPL-3.0-only

package dds

import (
	"testing"

	corviderrors "github.com/corvidds/corvid/rtps/errors"
	"github.com/corvidds/corvid/rtps/qos"
	"github.com/corvidds/corvid/rtps/types"
	"github.com/corvidds/corvid/typesupport"
	"github.com/corvidds/corvid/typesupport/keyedstring"
	"github.com/stretchr/testify/require"
)

func newTestFactory() *ParticipantFactory {
	return &ParticipantFactory{participants: make(map[types.InstanceHandle]*DomainParticipant)}
}

func TestFactoryCreateAndLookupParticipant(t *testing.T) {
	f := newTestFactory()
	p, err := f.CreateParticipant(95, 0, "")
	require.NoError(t, err)
	t.Cleanup(func() { p.Delete() })

	found, ok := f.LookupParticipant(95)
	require.True(t, ok)
	require.Equal(t, p, found)

	_, ok = f.LookupParticipant(12345)
	require.False(t, ok)
}

func TestFactoryDeleteParticipantFailsWhileOwningPublishers(t *testing.T) {
	require.NoError(t, typesupport.Register(keyedstring.Descriptor()))

	f := newTestFactory()
	p, err := f.CreateParticipant(96, 0, "")
	require.NoError(t, err)
	p.Enable()
	t.Cleanup(p.Delete)

	_, err = p.CreatePublisher(QosDefault, qos.Profile{})
	require.NoError(t, err)

	err = f.DeleteParticipant(p)
	require.ErrorIs(t, err, corviderrors.ErrPreconditionNotMet)
}
