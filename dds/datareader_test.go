// SPDX-FileCopyrightText: © 2026 corvid authors
// SPDX-License-Identifier: AGPL-3.0-only

package dds

import (
	"context"
	"testing"

	"github.com/corvidds/corvid/actor"
	"github.com/corvidds/corvid/rtps/behavior"
	"github.com/corvidds/corvid/rtps/guid"
	"github.com/corvidds/corvid/rtps/history"
	"github.com/corvidds/corvid/rtps/qos"
	"github.com/corvidds/corvid/rtps/types"
	"github.com/corvidds/corvid/typesupport/keyedstring"
	"github.com/stretchr/testify/require"
)

func newTestReader(t *testing.T) (*DataReader, *Topic, guid.GUID) {
	t.Helper()
	topic := newTopic("demo/topic", "corvid::KeyedString", qos.Default())
	g := guid.New(guid.GuidPrefix{2}, guid.EntityId{1, 0, 0, guid.KindUserReaderWithKey})
	r := NewDataReader(g, topic, qos.Default(), keyedstring.Descriptor(), nil)
	r.Start()
	t.Cleanup(func() { r.Halt(); r.Wait() })
	writer := guid.New(guid.GuidPrefix{1}, guid.EntityId{1, 0, 0, guid.KindUserWriterWithKey})
	return r, topic, writer
}

func deliverSample(t *testing.T, r *DataReader, writer guid.GUID, sn types.SequenceNumber, sample keyedstring.Sample) {
	t.Helper()
	payload, err := keyedstring.Descriptor().Serialize(sample)
	require.NoError(t, err)
	handle := keyedstring.Descriptor().InstanceHandleOfKey(payload)
	change := &history.CacheChange{
		Kind: history.Alive, WriterGUID: writer, InstanceHandle: handle,
		SequenceNumber: sn, Payload: payload,
	}
	_, err = actor.Call(context.Background(), r.Self(), dataCmd{writer: writer, change: change})
	require.NoError(t, err)
}

func TestDataReaderReadReturnsDeliveredSample(t *testing.T) {
	r, _, writer := newTestReader(t)
	proxy := behavior.NewWriterProxy(writer, nil, nil)
	_, err := actor.Call(context.Background(), r.Self(), matchWriterCmd{proxy: proxy})
	require.NoError(t, err)

	deliverSample(t, r, writer, 1, keyedstring.Sample{Key: "k", Value: "v1"})

	samples, err := r.Read(context.Background(), ReadTakeParams{})
	require.NoError(t, err)
	require.Len(t, samples, 1)
	require.Equal(t, keyedstring.Sample{Key: "k", Value: "v1"}, samples[0].Data)
	require.Equal(t, history.New, samples[0].ViewState)
}

func TestDataReaderTakeRemovesSampleFromCache(t *testing.T) {
	r, _, writer := newTestReader(t)
	proxy := behavior.NewWriterProxy(writer, nil, nil)
	_, err := actor.Call(context.Background(), r.Self(), matchWriterCmd{proxy: proxy})
	require.NoError(t, err)
	deliverSample(t, r, writer, 1, keyedstring.Sample{Key: "k", Value: "v1"})

	samples, err := r.Take(context.Background(), ReadTakeParams{})
	require.NoError(t, err)
	require.Len(t, samples, 1)

	_, err = r.Read(context.Background(), ReadTakeParams{})
	require.Error(t, err)
}

func TestDataReaderReadWithNoDataReturnsNoData(t *testing.T) {
	r, _, _ := newTestReader(t)
	_, err := r.Read(context.Background(), ReadTakeParams{})
	require.Error(t, err)
}

func TestDataReaderBestEffortDropsDataFromUnmatchedWriter(t *testing.T) {
	r, _, writer := newTestReader(t)
	// no MatchWriter call: the proxy lookup in HandleDataBestEffort misses.
	deliverSample(t, r, writer, 1, keyedstring.Sample{Key: "k", Value: "v1"})

	_, err := r.Read(context.Background(), ReadTakeParams{})
	require.Error(t, err)
}

func TestDataReaderExclusiveOwnershipSuppressesWeakerWriter(t *testing.T) {
	topic := newTopic("demo/topic-exclusive", "corvid::KeyedString", qos.Default())
	profile := qos.Default()
	profile.Ownership.Kind = qos.Exclusive
	g := guid.New(guid.GuidPrefix{2}, guid.EntityId{9, 0, 0, guid.KindUserReaderWithKey})
	r := NewDataReader(g, topic, profile, keyedstring.Descriptor(), nil)
	r.Start()
	t.Cleanup(func() { r.Halt(); r.Wait() })

	writerA := guid.New(guid.GuidPrefix{1}, guid.EntityId{1, 0, 0, guid.KindUserWriterWithKey})
	writerB := guid.New(guid.GuidPrefix{1}, guid.EntityId{2, 0, 0, guid.KindUserWriterWithKey})

	proxyA := behavior.NewWriterProxy(writerA, nil, nil)
	proxyA.OwnershipStrength = 10
	_, err := actor.Call(context.Background(), r.Self(), matchWriterCmd{proxy: proxyA})
	require.NoError(t, err)

	proxyB := behavior.NewWriterProxy(writerB, nil, nil)
	proxyB.OwnershipStrength = 20
	_, err = actor.Call(context.Background(), r.Self(), matchWriterCmd{proxy: proxyB})
	require.NoError(t, err)

	// Use Read (not Take) throughout: ownership arbitration consults
	// the instance's retained change history, which Take would empty.
	deliverSample(t, r, writerA, 1, keyedstring.Sample{Key: "k", Value: "from-a-1"})
	samples, err := r.Read(context.Background(), ReadTakeParams{})
	require.NoError(t, err)
	require.Len(t, samples, 1)
	require.Equal(t, "from-a-1", samples[0].Data.(keyedstring.Sample).Value)

	// B outranks A, so B's sample for the same instance is accepted and
	// (KEEP_LAST(1) default) replaces A's in the cache.
	deliverSample(t, r, writerB, 1, keyedstring.Sample{Key: "k", Value: "from-b-1"})
	samples, err = r.Read(context.Background(), ReadTakeParams{})
	require.NoError(t, err)
	require.Len(t, samples, 1)
	require.Equal(t, "from-b-1", samples[0].Data.(keyedstring.Sample).Value)

	// A is still the weaker matched writer, so its next sample for the
	// same instance is suppressed while B remains alive.
	deliverSample(t, r, writerA, 2, keyedstring.Sample{Key: "k", Value: "from-a-2"})
	samples, err = r.Read(context.Background(), ReadTakeParams{})
	require.NoError(t, err)
	require.Len(t, samples, 1)
	require.Equal(t, "from-b-1", samples[0].Data.(keyedstring.Sample).Value)
}

func TestDataReaderMatchWriterTripsSubscriptionMatched(t *testing.T) {
	r, _, writer := newTestReader(t)
	proxy := behavior.NewWriterProxy(writer, nil, nil)
	_, err := actor.Call(context.Background(), r.Self(), matchWriterCmd{proxy: proxy})
	require.NoError(t, err)
	require.True(t, r.condition.TriggerValue(StatusSubscriptionMatched))
}
