// SPDX-FileCopyrightText: © 2026 corvid authors
// SPDX-License-Identifier: AGPL-3.0-only

package behavior

import (
	"time"

	"github.com/corvidds/corvid/rtps/guid"
	"github.com/corvidds/corvid/rtps/history"
	"github.com/corvidds/corvid/rtps/types"
)

// WriterState is the reliable stateful writer's state machine
// (spec.md §4.2).
type WriterState int

const (
	WriterInitial WriterState = iota
	WriterReady
	WriterWaiting
	WriterMustRepair
)

// ReliabilityKind selects best-effort or reliable writer behavior.
type ReliabilityKind int

const (
	WriterBestEffort ReliabilityKind = iota
	WriterReliable
)

// StatefulWriter maintains a ReaderProxy per matched reader and
// drives either best-effort push or reliable heartbeat/acknack/repair
// behavior (spec.md §4.2).
type StatefulWriter struct {
	GUID         guid.GUID
	Cache        *history.HistoryCache
	Reliability  ReliabilityKind
	Proxies      map[guid.GUID]*ReaderProxy

	HeartbeatPeriod        time.Duration
	NackResponseDelay      time.Duration
	NackSuppressionDuration time.Duration

	state          WriterState
	heartbeatCount uint32
	lastHeartbeat  time.Time
}

// NewStatefulWriter creates a StatefulWriter over cache.
func NewStatefulWriter(w guid.GUID, cache *history.HistoryCache, reliability ReliabilityKind) *StatefulWriter {
	return &StatefulWriter{
		GUID:        w,
		Cache:       cache,
		Reliability: reliability,
		Proxies:     make(map[guid.GUID]*ReaderProxy),
		state:       WriterInitial,
	}
}

// MatchReader adds a ReaderProxy for a newly matched remote reader,
// marking every change currently in the cache as unsent to it.
func (w *StatefulWriter) MatchReader(proxy *ReaderProxy) {
	for _, c := range w.Cache.ChangesForWriter(w.GUID) {
		proxy.MarkUnsent(c.SequenceNumber)
	}
	w.Proxies[proxy.GUID] = proxy
}

// UnmatchReader removes a proxy, e.g. on QoS incompatibility or the
// remote participant being declared lost.
func (w *StatefulWriter) UnmatchReader(reader guid.GUID) {
	delete(w.Proxies, reader)
}

// NewChange marks a freshly added cache change as unsent to every
// matched proxy (best-effort: delivered on the next Tick; reliable:
// same, plus eventually covered by HEARTBEAT).
func (w *StatefulWriter) NewChange(sn types.SequenceNumber) {
	for _, p := range w.Proxies {
		p.MarkUnsent(sn)
	}
}

// PendingData returns, per proxy, the cache changes that still need
// to be pushed (unsent, or requested via ACKNACK and past
// nack_response_delay — caller is expected to have already filtered
// by delay).
func (w *StatefulWriter) PendingData(proxy *ReaderProxy) []*history.CacheChange {
	var out []*history.CacheChange
	for _, c := range w.Cache.ChangesForWriter(w.GUID) {
		_, unsent := proxy.Unsent[c.SequenceNumber]
		_, requested := proxy.Requested[c.SequenceNumber]
		if unsent || requested {
			out = append(out, c)
		}
	}
	return out
}

// MarkDelivered clears sn from a proxy's unsent/requested sets after
// a DATA submessage for it has actually been sent.
func (w *StatefulWriter) MarkDelivered(proxy *ReaderProxy, sn types.SequenceNumber) {
	proxy.MarkSent(sn)
	delete(proxy.Requested, sn)
}

// ShouldSendHeartbeat reports whether heartbeat_period has elapsed
// since the last HEARTBEAT, for reliable writers only.
func (w *StatefulWriter) ShouldSendHeartbeat(now time.Time) bool {
	if w.Reliability != WriterReliable {
		return false
	}
	return now.Sub(w.lastHeartbeat) >= w.HeartbeatPeriod
}

// BuildHeartbeat advances the state machine to Ready (all sent) and
// returns the (firstSN, lastSN, count) to put on a HEARTBEAT
// submessage.
func (w *StatefulWriter) BuildHeartbeat(now time.Time) (first, last types.SequenceNumber, count uint32) {
	first, hasFirst := w.Cache.GetSeqNumMin(w.GUID)
	last, hasLast := w.Cache.GetSeqNumMax(w.GUID)
	if !hasFirst || !hasLast {
		first, last = types.Unknown, types.Unknown
	}
	w.heartbeatCount++
	w.lastHeartbeat = now
	w.state = WriterReady
	return first, last, w.heartbeatCount
}

// HandleAckNack applies an incoming ACKNACK to the named proxy and
// transitions the writer to MustRepair if the requested set is
// non-empty (spec.md §4.2).
func (w *StatefulWriter) HandleAckNack(reader guid.GUID, set types.SequenceNumberSet) {
	proxy, ok := w.Proxies[reader]
	if !ok {
		return
	}
	proxy.ApplyAckNack(set)
	if len(set.Bitmap) > 0 {
		w.state = WriterMustRepair
	} else if w.allAcked() {
		w.state = WriterInitial
	}
}

func (w *StatefulWriter) allAcked() bool {
	last, ok := w.Cache.GetSeqNumMax(w.GUID)
	if !ok {
		return true
	}
	for _, p := range w.Proxies {
		if p.AckedSN < last {
			return false
		}
	}
	return true
}

// State returns the writer's current state-machine state.
func (w *StatefulWriter) State() WriterState { return w.state }

// IsAckedByAll reports whether every matched proxy has acknowledged
// sn, used to decide when a reliable change may be retired from the
// cache (spec.md §3's "live until acknowledged by every matched
// reader").
func (w *StatefulWriter) IsAckedByAll(sn types.SequenceNumber) bool {
	for _, p := range w.Proxies {
		if p.AckedSN < sn {
			return false
		}
	}
	return true
}
