// SPDX-FileCopyrightText: © 2026 corvid authors
// SPDX-License-Identifier: AGPL-3.0-only

// Package spdp implements the Simple Participant Discovery Protocol:
// a best-effort stateless announcer/detector pair bootstrapping the
// discovered_participant_list (spec.md §4.4).
package spdp

import (
	"sync"
	"time"

	"github.com/yawning/bloom"

	"github.com/corvidds/corvid/corvidlog"
	"github.com/corvidds/corvid/corvidsync/worker"
	"github.com/corvidds/corvid/discovery"
	"github.com/corvidds/corvid/rtps/guid"
)

var log = corvidlog.New("spdp")

// DefaultAnnouncePeriod is the interval between SPDP announcements
// when not otherwise configured (spec.md §4.4).
const DefaultAnnouncePeriod = 5 * time.Second

// DefaultMulticastAddress is the well-known SPDP multicast address
// (spec.md §6). Every domain uses this same group; only the port is
// domain-derived (see dds.MetatrafficMulticastPort).
var DefaultMulticastAddress = [4]byte{239, 255, 0, 1}

// ParticipantStatus is the discovered-participant state machine
// (spec.md §4.4).
type ParticipantStatus int

const (
	Undiscovered ParticipantStatus = iota
	Discovered
	Lost
)

// discoveredEntry tracks one remote participant's last-seen data and
// lease deadline.
type discoveredEntry struct {
	data     discovery.SpdpDiscoveredParticipantData
	deadline time.Time
}

// Engine runs the SPDP announcer/detector and owns the
// discovered_participant_list.
type Engine struct {
	worker.Worker

	localGuidPrefix guid.GuidPrefix
	announcePeriod  time.Duration

	buildLocalData func() discovery.SpdpDiscoveredParticipantData

	lock       sync.Mutex
	discovered map[guid.GuidPrefix]*discoveredEntry

	// seen records a (guid prefix, manual liveliness count) key for
	// each accepted announcement. Nothing reads it back: every
	// announcement is processed, and Discovered/Lost transitions are
	// driven only by the authoritative `discovered` map.
	seen *bloom.BloomFilter

	onDiscovered func(discovery.SpdpDiscoveredParticipantData)
	onLost       func(guid.GuidPrefix)

	announce func(discovery.SpdpDiscoveredParticipantData)
}

// New creates an Engine. buildLocalData produces the current local
// SpdpDiscoveredParticipantData on each announce tick (proxy
// locators/lease duration may change as endpoints are added).
func New(localPrefix guid.GuidPrefix, announcePeriod time.Duration,
	buildLocalData func() discovery.SpdpDiscoveredParticipantData,
	announce func(discovery.SpdpDiscoveredParticipantData),
	onDiscovered func(discovery.SpdpDiscoveredParticipantData),
	onLost func(guid.GuidPrefix)) *Engine {

	if announcePeriod <= 0 {
		announcePeriod = DefaultAnnouncePeriod
	}
	filter := bloom.New(1<<16, 6)
	return &Engine{
		localGuidPrefix: localPrefix,
		announcePeriod:  announcePeriod,
		buildLocalData:  buildLocalData,
		discovered:      make(map[guid.GuidPrefix]*discoveredEntry),
		seen:            filter,
		announce:        announce,
		onDiscovered:    onDiscovered,
		onLost:          onLost,
	}
}

// Start launches the periodic announcer and the lease-expiry sweep.
func (e *Engine) Start() {
	e.Go(e.announceLoop)
	e.Go(e.sweepLoop)
}

func (e *Engine) announceLoop() {
	ticker := time.NewTicker(e.announcePeriod)
	defer ticker.Stop()
	e.announce(e.buildLocalData())
	for {
		select {
		case <-e.HaltCh():
			return
		case <-ticker.C:
			e.announce(e.buildLocalData())
		}
	}
}

func (e *Engine) sweepLoop() {
	ticker := time.NewTicker(e.announcePeriod / 2)
	defer ticker.Stop()
	for {
		select {
		case <-e.HaltCh():
			return
		case <-ticker.C:
			e.sweepExpired(time.Now())
		}
	}
}

func (e *Engine) sweepExpired(now time.Time) {
	e.lock.Lock()
	var lost []guid.GuidPrefix
	for prefix, entry := range e.discovered {
		if now.After(entry.deadline) {
			lost = append(lost, prefix)
			delete(e.discovered, prefix)
		}
	}
	e.lock.Unlock()

	for _, prefix := range lost {
		log.Infof("participant %s lease expired", prefix)
		if e.onLost != nil {
			e.onLost(prefix)
		}
	}
}

// HandleAnnouncement processes a received SPDP sample: refreshes the
// lease if already discovered, or adds the participant and fires
// onDiscovered if this is the first time it's been seen, provided
// domain_id and domain_tag match (spec.md §4.4 state 2).
func (e *Engine) HandleAnnouncement(data discovery.SpdpDiscoveredParticipantData, localDomainId uint32, localDomainTag string) {
	if data.Proxy.DomainId != localDomainId || data.Proxy.DomainTag != localDomainTag {
		return
	}
	if data.Proxy.GuidPrefix == e.localGuidPrefix {
		return // ignore our own announcement
	}

	deadline := time.Now().Add(data.Proxy.LeaseDuration)

	e.lock.Lock()
	entry, existed := e.discovered[data.Proxy.GuidPrefix]
	if existed {
		entry.data = data
		entry.deadline = deadline
	} else {
		e.discovered[data.Proxy.GuidPrefix] = &discoveredEntry{data: data, deadline: deadline}
	}
	e.lock.Unlock()

	dedupKey := append(append([]byte{}, data.Proxy.GuidPrefix[:]...), byte(data.Proxy.ManualLivelinessCount))
	if !e.seen.Test(dedupKey) {
		e.seen.Add(dedupKey)
	}

	if !existed {
		log.Infof("discovered participant %s", data.Proxy.GuidPrefix)
		if e.onDiscovered != nil {
			e.onDiscovered(data)
		}
	}
}

// DiscoveredParticipants returns a snapshot of every currently live
// remote participant, backing get_discovered_participants() (spec.md
// §6, §8 scenario 1).
func (e *Engine) DiscoveredParticipants() []discovery.SpdpDiscoveredParticipantData {
	e.lock.Lock()
	defer e.lock.Unlock()
	out := make([]discovery.SpdpDiscoveredParticipantData, 0, len(e.discovered))
	for _, entry := range e.discovered {
		out = append(out, entry.data)
	}
	return out
}

// Status reports whether a participant is currently discovered.
func (e *Engine) Status(prefix guid.GuidPrefix) ParticipantStatus {
	e.lock.Lock()
	defer e.lock.Unlock()
	if _, ok := e.discovered[prefix]; ok {
		return Discovered
	}
	return Undiscovered
}
