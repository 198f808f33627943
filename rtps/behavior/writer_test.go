// SPDX-FileCopyrightText: © 2026 corvid authors
// SPDX-License-Identifier: AGPL-3.0-only
package behavior

import (
	"testing"
	"time"

	"github.com/corvidds/corvid/rtps/guid"
	"github.com/corvidds/corvid/rtps/history"
	"github.com/corvidds/corvid/rtps/qos"
	"github.com/corvidds/corvid/rtps/types"
	"github.com/stretchr/testify/require"
)

func newTestCache(writerGUID guid.GUID) *history.HistoryCache {
	return history.New(qos.History{Kind: qos.KeepAll}, qos.ResourceLimits{}, true)
}

func addChange(cache *history.HistoryCache, writer guid.GUID, sn types.SequenceNumber) {
	var h types.InstanceHandle
	h[0] = byte(sn)
	_ = cache.AddChange(&history.CacheChange{
		Kind: history.Alive, WriterGUID: writer, InstanceHandle: h,
		SequenceNumber: sn, Timestamp: types.Now(), Payload: []byte("x"),
	})
}

func TestStatefulWriterMatchReaderMarksExistingChangesUnsent(t *testing.T) {
	w := guid.GUID{Entity: guid.EntityId{1}}
	cache := newTestCache(w)
	addChange(cache, w, 1)
	addChange(cache, w, 2)

	sw := NewStatefulWriter(w, cache, WriterReliable)
	reader := guid.GUID{Entity: guid.EntityId{2}}
	proxy := NewReaderProxy(reader, nil, nil, false)
	sw.MatchReader(proxy)

	pending := sw.PendingData(proxy)
	require.Len(t, pending, 2)
}

func TestStatefulWriterBuildHeartbeatReflectsCacheRange(t *testing.T) {
	w := guid.GUID{Entity: guid.EntityId{1}}
	cache := newTestCache(w)
	addChange(cache, w, 3)
	addChange(cache, w, 7)

	sw := NewStatefulWriter(w, cache, WriterReliable)
	first, last, count := sw.BuildHeartbeat(time.Now())
	require.Equal(t, types.SequenceNumber(3), first)
	require.Equal(t, types.SequenceNumber(7), last)
	require.Equal(t, uint32(1), count)
	require.Equal(t, WriterReady, sw.State())
}

func TestStatefulWriterHandleAckNackTransitionsToMustRepairOnMissingSet(t *testing.T) {
	w := guid.GUID{Entity: guid.EntityId{1}}
	cache := newTestCache(w)
	addChange(cache, w, 1)
	addChange(cache, w, 2)

	sw := NewStatefulWriter(w, cache, WriterReliable)
	reader := guid.GUID{Entity: guid.EntityId{2}}
	proxy := NewReaderProxy(reader, nil, nil, false)
	sw.MatchReader(proxy)

	set := types.NewSequenceNumberSet(1, 1)
	sw.HandleAckNack(reader, set)
	require.Equal(t, WriterMustRepair, sw.State())
}

func TestStatefulWriterIsAckedByAll(t *testing.T) {
	w := guid.GUID{Entity: guid.EntityId{1}}
	cache := newTestCache(w)
	addChange(cache, w, 1)

	sw := NewStatefulWriter(w, cache, WriterReliable)
	reader := guid.GUID{Entity: guid.EntityId{2}}
	proxy := NewReaderProxy(reader, nil, nil, false)
	sw.MatchReader(proxy)

	require.False(t, sw.IsAckedByAll(1))
	proxy.ApplyAckNack(types.NewSequenceNumberSet(2))
	require.True(t, sw.IsAckedByAll(1))
}

func TestStatefulWriterShouldSendHeartbeatOnlyWhenReliable(t *testing.T) {
	w := guid.GUID{Entity: guid.EntityId{1}}
	cache := newTestCache(w)
	sw := NewStatefulWriter(w, cache, WriterBestEffort)
	sw.HeartbeatPeriod = time.Millisecond
	require.False(t, sw.ShouldSendHeartbeat(time.Now()))

	sw.Reliability = WriterReliable
	require.True(t, sw.ShouldSendHeartbeat(time.Now()))
}
