// SPDX-FileCopyrightText: © 2026 corvid authors
// SPDX-License-Identifier: AGPL-3.0-only
package sedp

import (
	"testing"

	"github.com/corvidds/corvid/discovery"
	"github.com/corvidds/corvid/rtps/guid"
	"github.com/corvidds/corvid/rtps/qos"
	"github.com/stretchr/testify/require"
)

func writerData(endpoint byte, topic string) discovery.DiscoveredWriterData {
	return discovery.DiscoveredWriterData{
		EndpointGUID: guid.GUID{Entity: guid.EntityId{endpoint}},
		TopicName:    topic,
		TypeName:     "demo::T",
		QosProfile:   qos.Default(),
	}
}

func readerData(endpoint byte, topic string) discovery.DiscoveredReaderData {
	return discovery.DiscoveredReaderData{
		EndpointGUID: guid.GUID{Entity: guid.EntityId{endpoint}},
		TopicName:    topic,
		TypeName:     "demo::T",
		QosProfile:   qos.Default(),
	}
}

func TestEngineAnnounceLocalWriterMatchesExistingRemoteReader(t *testing.T) {
	var events []MatchEvent
	e := New(func(ev MatchEvent) { events = append(events, ev) })

	e.HandleRemoteReader(readerData(2, "topic/A"))
	e.AnnounceLocalWriter(writerData(1, "topic/A"))

	require.Len(t, events, 1)
	require.True(t, events[0].Matched)
}

func TestEngineAnnounceLocalReaderMatchesExistingRemoteWriter(t *testing.T) {
	var events []MatchEvent
	e := New(func(ev MatchEvent) { events = append(events, ev) })

	e.HandleRemoteWriter(writerData(1, "topic/A"))
	e.AnnounceLocalReader(readerData(2, "topic/A"))

	require.Len(t, events, 1)
	require.True(t, events[0].Matched)
}

func TestEngineHandleRemoteWriterMismatchedTopicDoesNotMatch(t *testing.T) {
	var events []MatchEvent
	e := New(func(ev MatchEvent) { events = append(events, ev) })

	e.AnnounceLocalReader(readerData(2, "topic/A"))
	e.HandleRemoteWriter(writerData(1, "topic/B"))

	require.Len(t, events, 1)
	require.False(t, events[0].Matched)
}

func TestEngineIgnoredEndpointNeverMatches(t *testing.T) {
	var events []MatchEvent
	e := New(func(ev MatchEvent) { events = append(events, ev) })

	remote := writerData(1, "topic/A")
	e.Ignore(remote.EndpointGUID)
	e.AnnounceLocalReader(readerData(2, "topic/A"))
	e.HandleRemoteWriter(remote)

	require.Empty(t, events)
}

func TestEngineRemoveRemoteWriterEmitsUnmatchedEvent(t *testing.T) {
	var events []MatchEvent
	e := New(func(ev MatchEvent) { events = append(events, ev) })

	w := writerData(1, "topic/A")
	e.HandleRemoteWriter(w)

	e.RemoveRemoteWriter(w.EndpointGUID)

	last := events[len(events)-1]
	require.False(t, last.Matched)
	require.Equal(t, w.EndpointGUID, last.Writer)
}

func TestEngineHandleRemoteReaderAfterIgnoreThenRemoveStillTracksState(t *testing.T) {
	var events []MatchEvent
	e := New(func(ev MatchEvent) { events = append(events, ev) })

	r := readerData(2, "topic/A")
	e.HandleRemoteReader(r)
	e.RemoveRemoteReader(r.EndpointGUID)

	last := events[len(events)-1]
	require.False(t, last.Matched)
	require.Equal(t, r.EndpointGUID, last.Reader)
}
