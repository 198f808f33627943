// SPDX-FileCopyrightText: © 2026 corvid authors
// SPDX-License-Identifier: AGPL-3.0-only
package behavior

import (
	"testing"

	"github.com/corvidds/corvid/rtps/guid"
	"github.com/corvidds/corvid/rtps/history"
	"github.com/corvidds/corvid/rtps/qos"
	"github.com/corvidds/corvid/rtps/types"
	"github.com/stretchr/testify/require"
)

func TestStatelessWriterAddRemoveLocator(t *testing.T) {
	w := guid.GUID{Entity: guid.EntityId{1}}
	cache := history.New(qos.History{Kind: qos.KeepLast, Depth: 1}, qos.ResourceLimits{}, true)
	sw := NewStatelessWriter(w, cache)

	locA := types.NewLocatorUDPv4([4]byte{239, 255, 0, 1}, 7400)
	locB := types.NewLocatorUDPv4([4]byte{239, 255, 0, 2}, 7400)
	sw.AddLocator(ReaderLocator{Locator: locA})
	sw.AddLocator(ReaderLocator{Locator: locB})
	require.Len(t, sw.Locators, 2)

	sw.RemoveLocator(locA)
	require.Len(t, sw.Locators, 1)
	require.Equal(t, locB, sw.Locators[0].Locator)
}

func TestStatelessWriterTickReturnsRetainedChanges(t *testing.T) {
	w := guid.GUID{Entity: guid.EntityId{1}}
	cache := history.New(qos.History{Kind: qos.KeepLast, Depth: 1}, qos.ResourceLimits{}, true)
	var h types.InstanceHandle
	require.NoError(t, cache.AddChange(&history.CacheChange{Kind: history.Alive, WriterGUID: w, InstanceHandle: h, SequenceNumber: 1, Timestamp: types.Now()}))

	sw := NewStatelessWriter(w, cache)
	changes := sw.Tick(guid.EntityId{})
	require.Len(t, changes, 1)
}

func TestStatelessReaderHandleDataAcceptsAnyOrder(t *testing.T) {
	cache := history.New(qos.History{Kind: qos.KeepAll}, qos.ResourceLimits{}, false)
	sr := NewStatelessReader(cache)
	w := guid.GUID{Entity: guid.EntityId{1}}

	require.NoError(t, sr.HandleData(w, 5, history.Alive, types.InstanceHandle{}, types.Now(), []byte("a"), nil))
	require.NoError(t, sr.HandleData(w, 2, history.Alive, types.InstanceHandle{}, types.Now(), []byte("b"), nil))
	require.Len(t, cache.Changes(), 2)
}
