// SPDX-FileCopyrightText: © 2026 corvid authors
// SPDX-License-Identifier: AGPL-3.0-only

// Package sedp implements the matching side of the Simple Endpoint
// Discovery Protocol: it checks DCPSPublication and DCPSSubscription
// samples against local endpoints and produces matched writer<->reader
// pairs honoring QoS compatibility (spec.md §4.4). The package holds no
// builtin endpoints. The participant sends each local endpoint's SEDP
// sample once, as a best-effort DATA on the metatraffic multicast
// socket, with no heartbeat or retransmission; DCPSTopic samples are
// neither sent nor handled.
package sedp

import (
	"sync"

	"github.com/corvidds/corvid/corvidlog"
	"github.com/corvidds/corvid/discovery"
	"github.com/corvidds/corvid/rtps/guid"
	"github.com/corvidds/corvid/rtps/types"
)

var log = corvidlog.New("sedp")

// MatchEvent is produced each time a writer/reader pair (one local,
// one remote) is evaluated, with Matched giving the result, and when a
// remote endpoint is removed. The locator fields carry the remote endpoint's
// advertised destinations so the caller can build a ReaderProxy or
// WriterProxy without a second lookup.
type MatchEvent struct {
	Writer, Reader             guid.GUID
	Matched                    bool
	WriterUnicast, WriterMulticast []types.Locator
	ReaderUnicast, ReaderMulticast []types.Locator

	// WriterOwnershipStrength is the matched writer's advertised
	// OWNERSHIP_STRENGTH, carried through so the reader side can
	// arbitrate OWNERSHIP=EXCLUSIVE (spec.md §4.2).
	WriterOwnershipStrength int32
}

// Engine walks every received SEDP sample against the local
// counterpart endpoints and emits MatchEvents. It is transport- and
// actor-agnostic: callers deliver received samples here and carry
// MatchEvents back into the entity runtime.
type Engine struct {
	lock sync.Mutex

	localWriters map[guid.GUID]discovery.DiscoveredWriterData
	localReaders map[guid.GUID]discovery.DiscoveredReaderData

	remoteWriters map[guid.GUID]discovery.DiscoveredWriterData
	remoteReaders map[guid.GUID]discovery.DiscoveredReaderData

	ignored *discovery.IgnoreSet

	onMatch func(MatchEvent)
}

// New creates an Engine. onMatch is invoked for every (writer, reader)
// pair the engine evaluates, whether or not its compatibility changed.
func New(onMatch func(MatchEvent)) *Engine {
	return &Engine{
		localWriters:  make(map[guid.GUID]discovery.DiscoveredWriterData),
		localReaders:  make(map[guid.GUID]discovery.DiscoveredReaderData),
		remoteWriters: make(map[guid.GUID]discovery.DiscoveredWriterData),
		remoteReaders: make(map[guid.GUID]discovery.DiscoveredReaderData),
		ignored:       discovery.NewIgnoreSet(),
		onMatch:       onMatch,
	}
}

// Ignore suppresses matching for a publication/subscription GUID
// (spec.md §4.4's ignored_publications/ignored_subscriptions).
func (e *Engine) Ignore(endpoint guid.GUID) {
	e.lock.Lock()
	e.ignored.Add(endpoint)
	e.lock.Unlock()
}

// AnnounceLocalWriter registers a newly enabled local writer and
// matches it against every known remote reader.
func (e *Engine) AnnounceLocalWriter(data discovery.DiscoveredWriterData) {
	e.lock.Lock()
	e.localWriters[data.EndpointGUID] = data
	remotes := e.snapshotReaders()
	e.lock.Unlock()

	for _, r := range remotes {
		e.tryMatch(data, r)
	}
}

// AnnounceLocalReader registers a newly enabled local reader and
// matches it against every known remote writer.
func (e *Engine) AnnounceLocalReader(data discovery.DiscoveredReaderData) {
	e.lock.Lock()
	e.localReaders[data.EndpointGUID] = data
	remotes := e.snapshotWriters()
	e.lock.Unlock()

	for _, w := range remotes {
		e.tryMatch(w, data)
	}
}

// HandleRemoteWriter processes a received DiscoveredWriterData
// sample, matching it against every local reader.
func (e *Engine) HandleRemoteWriter(data discovery.DiscoveredWriterData) {
	e.lock.Lock()
	if e.ignored.Contains(data.EndpointGUID) {
		e.lock.Unlock()
		return
	}
	e.remoteWriters[data.EndpointGUID] = data
	locals := e.snapshotLocalReaders()
	e.lock.Unlock()

	for _, r := range locals {
		e.tryMatch(data, r)
	}
}

// HandleRemoteReader processes a received DiscoveredReaderData
// sample, matching it against every local writer.
func (e *Engine) HandleRemoteReader(data discovery.DiscoveredReaderData) {
	e.lock.Lock()
	if e.ignored.Contains(data.EndpointGUID) {
		e.lock.Unlock()
		return
	}
	e.remoteReaders[data.EndpointGUID] = data
	locals := e.snapshotLocalWriters()
	e.lock.Unlock()

	for _, w := range locals {
		e.tryMatch(w, data)
	}
}

// RemoveRemoteWriter drops a writer whose owning participant was
// declared Lost, per spec.md §4.4's Lost transition.
func (e *Engine) RemoveRemoteWriter(endpoint guid.GUID) {
	e.lock.Lock()
	delete(e.remoteWriters, endpoint)
	e.lock.Unlock()
	e.onMatch(MatchEvent{Writer: endpoint, Matched: false})
}

// RemoveRemoteReader drops a reader whose owning participant was
// declared Lost.
func (e *Engine) RemoveRemoteReader(endpoint guid.GUID) {
	e.lock.Lock()
	delete(e.remoteReaders, endpoint)
	e.lock.Unlock()
	e.onMatch(MatchEvent{Reader: endpoint, Matched: false})
}

func (e *Engine) tryMatch(w discovery.DiscoveredWriterData, r discovery.DiscoveredReaderData) {
	e.lock.Lock()
	ignored := e.ignored.Contains(w.EndpointGUID) || e.ignored.Contains(r.EndpointGUID)
	e.lock.Unlock()
	if ignored {
		return
	}

	result := discovery.Match(w, r)
	if result.Compatible {
		log.Infof("matched writer %s <-> reader %s on topic %q", w.EndpointGUID, r.EndpointGUID, w.TopicName)
	} else if len(result.WriterIncompatible) > 0 {
		log.Warnf("incompatible QoS writer %s / reader %s: %v", w.EndpointGUID, r.EndpointGUID, result.WriterIncompatible)
	}
	e.onMatch(MatchEvent{
		Writer:                  w.EndpointGUID,
		Reader:                  r.EndpointGUID,
		Matched:                 result.Compatible,
		WriterUnicast:           w.UnicastLocators,
		WriterMulticast:         w.MulticastLocators,
		ReaderUnicast:           r.UnicastLocators,
		ReaderMulticast:         r.MulticastLocators,
		WriterOwnershipStrength: w.QosProfile.OwnershipStrength.Value,
	})
}

func (e *Engine) snapshotReaders() []discovery.DiscoveredReaderData {
	out := make([]discovery.DiscoveredReaderData, 0, len(e.remoteReaders))
	for _, r := range e.remoteReaders {
		out = append(out, r)
	}
	return out
}

func (e *Engine) snapshotWriters() []discovery.DiscoveredWriterData {
	out := make([]discovery.DiscoveredWriterData, 0, len(e.remoteWriters))
	for _, w := range e.remoteWriters {
		out = append(out, w)
	}
	return out
}

func (e *Engine) snapshotLocalReaders() []discovery.DiscoveredReaderData {
	out := make([]discovery.DiscoveredReaderData, 0, len(e.localReaders))
	for _, r := range e.localReaders {
		out = append(out, r)
	}
	return out
}

func (e *Engine) snapshotLocalWriters() []discovery.DiscoveredWriterData {
	out := make([]discovery.DiscoveredWriterData, 0, len(e.localWriters))
	for _, w := range e.localWriters {
		out = append(out, w)
	}
	return out
}
