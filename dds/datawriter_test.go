// SPDX-FileCopyrightText: © 2026 corvid authors
// SPDX-License-Identifier: AGPL-3.0-only

package dds

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/corvidds/corvid/actor"
	"github.com/corvidds/corvid/rtps/behavior"
	"github.com/corvidds/corvid/rtps/guid"
	"github.com/corvidds/corvid/rtps/qos"
	"github.com/corvidds/corvid/rtps/types"
	"github.com/corvidds/corvid/typesupport/keyedstring"
	"github.com/stretchr/testify/require"
)

func newTestWriter(t *testing.T, sent func(types.Locator, []byte)) (*DataWriter, *Topic) {
	t.Helper()
	topic := newTopic("demo/topic", "corvid::KeyedString", qos.Default())
	g := guid.New(guid.GuidPrefix{1}, guid.EntityId{1, 0, 0, guid.KindUserWriterWithKey})
	w := NewDataWriter(g, topic, qos.Default(), keyedstring.Descriptor(), sent)
	w.Start()
	t.Cleanup(func() { w.Halt(); w.Wait() })
	return w, topic
}

func TestDataWriterWriteAssignsIncrementingSequenceNumbers(t *testing.T) {
	w, _ := newTestWriter(t, nil)
	ctx := context.Background()

	sn1, err := w.Write(ctx, keyedstring.Sample{Key: "a", Value: "1"}, types.NilHandle)
	require.NoError(t, err)
	require.Equal(t, types.SequenceNumber(1), sn1)

	sn2, err := w.Write(ctx, keyedstring.Sample{Key: "a", Value: "2"}, types.NilHandle)
	require.NoError(t, err)
	require.Equal(t, types.SequenceNumber(2), sn2)
}

func TestDataWriterWriteDisabledFails(t *testing.T) {
	topic := newTopic("demo/topic2", "corvid::KeyedString", qos.Default())
	g := guid.New(guid.GuidPrefix{1}, guid.EntityId{2, 0, 0, guid.KindUserWriterWithKey})
	w := NewDataWriter(g, topic, qos.Default(), keyedstring.Descriptor(), nil)
	// not Start()ed, so not enabled and no dispatch loop to receive the call.
	_, err := w.Write(context.Background(), keyedstring.Sample{Key: "a", Value: "1"}, types.NilHandle)
	require.Error(t, err)
}

func TestDataWriterMatchReaderTripsPublicationMatched(t *testing.T) {
	w, _ := newTestWriter(t, nil)
	reader := guid.New(guid.GuidPrefix{2}, guid.EntityId{1, 0, 0, guid.KindUserReaderWithKey})
	proxy := behavior.NewReaderProxy(reader, []types.Locator{types.NewLocatorUDPv4([4]byte{127, 0, 0, 1}, 9000)}, nil, false)

	_, err := actor.Call(context.Background(), w.Self(), matchReaderCmd{proxy: proxy})
	require.NoError(t, err)
	require.True(t, w.condition.TriggerValue(StatusPublicationMatched))
}

func TestDataWriterDeliversPendingDataToMatchedReaderOnTick(t *testing.T) {
	var mu sync.Mutex
	var sentPayloads [][]byte
	w, _ := newTestWriter(t, func(_ types.Locator, payload []byte) {
		mu.Lock()
		sentPayloads = append(sentPayloads, payload)
		mu.Unlock()
	})

	reader := guid.New(guid.GuidPrefix{2}, guid.EntityId{1, 0, 0, guid.KindUserReaderWithKey})
	proxy := behavior.NewReaderProxy(reader, []types.Locator{types.NewLocatorUDPv4([4]byte{127, 0, 0, 1}, 9000)}, nil, false)
	_, err := actor.Call(context.Background(), w.Self(), matchReaderCmd{proxy: proxy})
	require.NoError(t, err)

	_, err = w.Write(context.Background(), keyedstring.Sample{Key: "a", Value: "1"}, types.NilHandle)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(sentPayloads) > 0
	}, time.Second, 10*time.Millisecond)
}

func TestDataWriterDeliversLargePayloadAsDataFrag(t *testing.T) {
	var mu sync.Mutex
	var frames [][]byte
	w, _ := newTestWriter(t, func(_ types.Locator, payload []byte) {
		mu.Lock()
		frames = append(frames, payload)
		mu.Unlock()
	})

	reader := guid.New(guid.GuidPrefix{2}, guid.EntityId{1, 0, 0, guid.KindUserReaderWithKey})
	proxy := behavior.NewReaderProxy(reader, []types.Locator{types.NewLocatorUDPv4([4]byte{127, 0, 0, 1}, 9000)}, nil, false)
	_, err := actor.Call(context.Background(), w.Self(), matchReaderCmd{proxy: proxy})
	require.NoError(t, err)

	big := make([]byte, dataMaxSizeSerialized*3)
	for i := range big {
		big[i] = 'x'
	}
	_, err = w.Write(context.Background(), keyedstring.Sample{Key: "a", Value: string(big)}, types.NilHandle)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(frames) >= 4 // payload > 3*dataMaxSizeSerialized fragments into multiple DATA_FRAG submessages
	}, time.Second, 10*time.Millisecond)
}

func TestDataWriterHandleNackFragResendsOnlyRequestedFragments(t *testing.T) {
	var mu sync.Mutex
	var frames [][]byte
	w, _ := newTestWriter(t, func(_ types.Locator, payload []byte) {
		mu.Lock()
		frames = append(frames, payload)
		mu.Unlock()
	})

	reader := guid.New(guid.GuidPrefix{2}, guid.EntityId{1, 0, 0, guid.KindUserReaderWithKey})
	proxy := behavior.NewReaderProxy(reader, []types.Locator{types.NewLocatorUDPv4([4]byte{127, 0, 0, 1}, 9000)}, nil, false)
	_, err := actor.Call(context.Background(), w.Self(), matchReaderCmd{proxy: proxy})
	require.NoError(t, err)

	big := make([]byte, dataMaxSizeSerialized*2+10)
	sn, err := w.Write(context.Background(), keyedstring.Sample{Key: "a", Value: string(big)}, types.NilHandle)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(frames) > 0
	}, time.Second, 10*time.Millisecond)

	mu.Lock()
	frames = nil
	mu.Unlock()

	_, err = actor.Call(context.Background(), w.Self(), nackFragCmd{reader: reader, sn: sn, missing: map[uint32]struct{}{2: {}}})
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, frames, 1)
}

func TestDataWriterWaitForAcknowledgmentsSucceedsWithNoMatchedReaders(t *testing.T) {
	w, _ := newTestWriter(t, nil)
	sn, err := w.Write(context.Background(), keyedstring.Sample{Key: "a", Value: "1"}, types.NilHandle)
	require.NoError(t, err)

	err = w.WaitForAcknowledgments(context.Background(), sn, time.Second)
	require.NoError(t, err)
}
