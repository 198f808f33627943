// SPDX-FileCopyrightText: © 2026 corvid authors
// SPDX-License-Identifier: AGPL-3.0-only

package dds

import (
	"context"
	"testing"

	corviderrors "github.com/corvidds/corvid/rtps/errors"
	"github.com/corvidds/corvid/rtps/qos"
	"github.com/corvidds/corvid/typesupport"
	"github.com/corvidds/corvid/typesupport/keyedstring"
	"github.com/stretchr/testify/require"
)

func newTestParticipant(t *testing.T, domainID uint32) *DomainParticipant {
	t.Helper()
	require.NoError(t, typesupport.Register(keyedstring.Descriptor()))

	p, err := NewDomainParticipant(participantOptions{DomainID: domainID, ParticipantID: 0})
	require.NoError(t, err)
	p.Enable()
	t.Cleanup(p.Delete)
	return p
}

func TestParticipantCreateTopicPublisherSubscriberWriterReader(t *testing.T) {
	p := newTestParticipant(t, 91)

	topic, err := p.CreateTopic("demo/topic", keyedstring.TypeName, QosDefault, qos.Profile{})
	require.NoError(t, err)

	pub, err := p.CreatePublisher(QosDefault, qos.Profile{})
	require.NoError(t, err)
	writer, err := pub.CreateDataWriter(context.Background(), topic, QosDefault, qos.Profile{})
	require.NoError(t, err)
	require.NotNil(t, writer)

	sub, err := p.CreateSubscriber(QosDefault, qos.Profile{})
	require.NoError(t, err)
	reader, err := sub.CreateDataReader(context.Background(), topic, QosDefault, qos.Profile{})
	require.NoError(t, err)
	require.NotNil(t, reader)

	require.NotEqual(t, writer.GUID(), reader.GUID())
	require.Equal(t, 2, topicRefCount(topic))

	require.NoError(t, pub.DeleteDataWriter(writer))
	require.NoError(t, sub.DeleteDataReader(reader))
	require.NoError(t, p.DeletePublisher(pub))
	require.NoError(t, p.DeleteSubscriber(sub))
	require.NoError(t, p.DeleteTopic(topic))
}

func topicRefCount(t *Topic) int { return t.refCount }

func TestParticipantCreateTopicRejectsMismatchedType(t *testing.T) {
	p := newTestParticipant(t, 92)

	_, err := p.CreateTopic("demo/topic", keyedstring.TypeName, QosDefault, qos.Profile{})
	require.NoError(t, err)

	_, err = p.CreateTopic("demo/topic", "some::OtherType", QosDefault, qos.Profile{})
	require.ErrorIs(t, err, corviderrors.ErrBadParameter)
}

func TestParticipantDeletePublisherFailsWhileWritersRemain(t *testing.T) {
	p := newTestParticipant(t, 93)
	topic, err := p.CreateTopic("demo/topic", keyedstring.TypeName, QosDefault, qos.Profile{})
	require.NoError(t, err)
	pub, err := p.CreatePublisher(QosDefault, qos.Profile{})
	require.NoError(t, err)
	_, err = pub.CreateDataWriter(context.Background(), topic, QosDefault, qos.Profile{})
	require.NoError(t, err)

	err = p.DeletePublisher(pub)
	require.ErrorIs(t, err, corviderrors.ErrPreconditionNotMet)
}

func TestParticipantCreatePublisherFailsWhenNotEnabled(t *testing.T) {
	p, err := NewDomainParticipant(participantOptions{DomainID: 94, ParticipantID: 0})
	require.NoError(t, err)
	t.Cleanup(p.Delete)

	_, err = p.CreatePublisher(QosDefault, qos.Profile{})
	require.ErrorIs(t, err, corviderrors.ErrNotEnabled)
}
