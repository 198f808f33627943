// SPDX-FileCopyrightText: © 2026 corvid authors
// SPDX-License-Identifier: AGPL-3.0-only
package history

import (
	"testing"
	"time"

	"github.com/corvidds/corvid/rtps/errors"
	"github.com/corvidds/corvid/rtps/guid"
	"github.com/corvidds/corvid/rtps/qos"
	"github.com/corvidds/corvid/rtps/types"
	"github.com/stretchr/testify/require"
)

func changeFor(writer guid.GUID, sn types.SequenceNumber, handle types.InstanceHandle) *CacheChange {
	return &CacheChange{
		Kind:           Alive,
		WriterGUID:     writer,
		InstanceHandle: handle,
		SequenceNumber: sn,
		Timestamp:      types.Now(),
		Payload:        []byte("x"),
	}
}

func TestHistoryCacheKeepLastEvictsOldest(t *testing.T) {
	c := New(qos.History{Kind: qos.KeepLast, Depth: 2}, qos.ResourceLimits{}, false)
	w := guid.GUID{Entity: guid.EntityId{1}}
	var handle types.InstanceHandle

	require.NoError(t, c.AddChange(changeFor(w, 1, handle)))
	require.NoError(t, c.AddChange(changeFor(w, 2, handle)))
	require.NoError(t, c.AddChange(changeFor(w, 3, handle)))

	inst := c.Instance(handle)
	require.Len(t, inst.Changes, 2)
	require.Equal(t, types.SequenceNumber(2), inst.Changes[0].SequenceNumber)
	require.Equal(t, types.SequenceNumber(3), inst.Changes[1].SequenceNumber)
}

func TestHistoryCacheKeepAllWriterSideReturnsOutOfResources(t *testing.T) {
	c := New(qos.History{Kind: qos.KeepAll}, qos.ResourceLimits{MaxSamples: 1}, true)
	w := guid.GUID{Entity: guid.EntityId{1}}
	var h1, h2 types.InstanceHandle
	h1[0] = 1
	h2[0] = 2

	require.NoError(t, c.AddChange(changeFor(w, 1, h1)))
	err := c.AddChange(changeFor(w, 2, h2))
	require.ErrorIs(t, err, errors.ErrOutOfResources)
}

func TestHistoryCacheKeepAllReaderSideDropsSilentlyAndCountsSampleLost(t *testing.T) {
	c := New(qos.History{Kind: qos.KeepAll}, qos.ResourceLimits{MaxSamples: 1}, false)
	w := guid.GUID{Entity: guid.EntityId{1}}
	var h1, h2 types.InstanceHandle
	h2[0] = 1

	require.NoError(t, c.AddChange(changeFor(w, 1, h1)))
	require.NoError(t, c.AddChange(changeFor(w, 2, h2)))
	require.Equal(t, int64(1), c.SampleLostTotal())
	require.Len(t, c.Changes(), 1)
}

func TestHistoryCacheDuplicateChangeIsNoOp(t *testing.T) {
	c := New(qos.History{Kind: qos.KeepLast, Depth: 5}, qos.ResourceLimits{}, false)
	w := guid.GUID{Entity: guid.EntityId{1}}
	var handle types.InstanceHandle

	require.NoError(t, c.AddChange(changeFor(w, 1, handle)))
	require.NoError(t, c.AddChange(changeFor(w, 1, handle)))
	require.Len(t, c.Changes(), 1)
}

func TestHistoryCacheGetSeqNumMinMax(t *testing.T) {
	c := New(qos.History{Kind: qos.KeepAll}, qos.ResourceLimits{}, false)
	w := guid.GUID{Entity: guid.EntityId{1}}
	var h1, h2, h3 types.InstanceHandle
	h1[0], h2[0], h3[0] = 1, 2, 3

	require.NoError(t, c.AddChange(changeFor(w, 5, h1)))
	require.NoError(t, c.AddChange(changeFor(w, 1, h2)))
	require.NoError(t, c.AddChange(changeFor(w, 3, h3)))

	min, ok := c.GetSeqNumMin(w)
	require.True(t, ok)
	require.Equal(t, types.SequenceNumber(1), min)

	max, ok := c.GetSeqNumMax(w)
	require.True(t, ok)
	require.Equal(t, types.SequenceNumber(5), max)
}

func TestHistoryCacheGetSeqNumUnknownWriter(t *testing.T) {
	c := New(qos.History{Kind: qos.KeepAll}, qos.ResourceLimits{}, false)
	_, ok := c.GetSeqNumMin(guid.GUID{Entity: guid.EntityId{9}})
	require.False(t, ok)
}

func TestHistoryCacheReapExpiredRemovesOldSamples(t *testing.T) {
	c := New(qos.History{Kind: qos.KeepAll}, qos.ResourceLimits{}, false)
	w := guid.GUID{Entity: guid.EntityId{1}}
	var handle types.InstanceHandle

	old := &CacheChange{
		Kind: Alive, WriterGUID: w, InstanceHandle: handle, SequenceNumber: 1,
		Timestamp: types.Timestamp{Sec: uint32(time.Now().Add(-time.Hour).Unix())},
	}
	require.NoError(t, c.AddChange(old))
	require.Len(t, c.Changes(), 1)

	c.ReapExpired(time.Minute, time.Now())
	require.Empty(t, c.Changes())
}
