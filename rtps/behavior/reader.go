// SPDX-FileCopyrightText: © 2026 corvid authors
// SPDX-License-Identifier: AGPL-3.0-only

package behavior

import (
	"time"

	"github.com/corvidds/corvid/rtps/guid"
	"github.com/corvidds/corvid/rtps/history"
	"github.com/corvidds/corvid/rtps/types"
)

// ReaderState is the reliable stateful reader's state machine
// (spec.md §4.2).
type ReaderState int

const (
	ReaderInitial ReaderState = iota
	ReaderReady
	ReaderMustSendAck
)

// StatefulReader maintains a WriterProxy per matched writer and
// drives either best-effort in-order acceptance or reliable
// missing-set tracking plus ACKNACK (spec.md §4.2).
type StatefulReader struct {
	GUID        guid.GUID
	Cache       *history.HistoryCache
	Reliability ReliabilityKind
	Proxies     map[guid.GUID]*WriterProxy

	HeartbeatResponseDelay time.Duration

	state         ReaderState
	acknackCount  uint32
	pendingAckAt  map[guid.GUID]time.Time
}

// NewStatefulReader creates a StatefulReader over cache.
func NewStatefulReader(r guid.GUID, cache *history.HistoryCache, reliability ReliabilityKind) *StatefulReader {
	return &StatefulReader{
		GUID:         r,
		Cache:        cache,
		Reliability:  reliability,
		Proxies:      make(map[guid.GUID]*WriterProxy),
		pendingAckAt: make(map[guid.GUID]time.Time),
		state:        ReaderInitial,
	}
}

// MatchWriter adds a WriterProxy for a newly matched remote writer.
func (r *StatefulReader) MatchWriter(proxy *WriterProxy) {
	r.Proxies[proxy.GUID] = proxy
}

// UnmatchWriter removes a proxy.
func (r *StatefulReader) UnmatchWriter(writer guid.GUID) {
	delete(r.Proxies, writer)
	delete(r.pendingAckAt, writer)
}

// HandleDataBestEffort accepts change if its sequence number is
// strictly greater than the writer's highest processed, per spec.md
// §4.2's best-effort reader rule. Returns false (dropped) otherwise.
func (r *StatefulReader) HandleDataBestEffort(writer guid.GUID, change *history.CacheChange) (bool, error) {
	proxy, ok := r.Proxies[writer]
	if !ok {
		return false, nil
	}
	if change.SequenceNumber <= proxy.HighestProcessed {
		return false, nil
	}
	proxy.MarkReceived(change.SequenceNumber)
	if err := r.Cache.AddChange(change); err != nil {
		return false, err
	}
	r.state = ReaderReady
	return true, nil
}

// HandleDataReliable accepts change unconditionally (reliable readers
// accept out-of-order DATA and let HEARTBEAT/ACKNACK fill gaps).
func (r *StatefulReader) HandleDataReliable(writer guid.GUID, change *history.CacheChange) error {
	proxy, ok := r.Proxies[writer]
	if !ok {
		return nil
	}
	proxy.MarkReceived(change.SequenceNumber)
	if err := r.Cache.AddChange(change); err != nil {
		return err
	}
	r.state = ReaderReady
	return nil
}

// HandleGap marks [start,end] irrelevant on the named writer's proxy.
func (r *StatefulReader) HandleGap(writer guid.GUID, start, end types.SequenceNumber) {
	proxy, ok := r.Proxies[writer]
	if !ok {
		return
	}
	proxy.MarkIrrelevant(start, end)
}

// HandleHeartbeat computes the missing set for the named writer and
// schedules an ACKNACK to be sent after HeartbeatResponseDelay,
// transitioning to MustSendAck unless finalFlag is set and nothing is
// missing (spec.md §4.2).
func (r *StatefulReader) HandleHeartbeat(writer guid.GUID, first, last types.SequenceNumber, finalFlag bool, now time.Time) {
	proxy, ok := r.Proxies[writer]
	if !ok {
		return
	}
	missing := proxy.MissingBetween(first, last)
	if len(missing.Bitmap) == 0 && finalFlag {
		return
	}
	r.state = ReaderMustSendAck
	r.pendingAckAt[writer] = now.Add(r.HeartbeatResponseDelay)
}

// DueAckNacks returns the writers whose scheduled ACKNACK time has
// elapsed as of now, clearing their pending entries.
func (r *StatefulReader) DueAckNacks(now time.Time) []guid.GUID {
	var due []guid.GUID
	for w, at := range r.pendingAckAt {
		if !now.Before(at) {
			due = append(due, w)
			delete(r.pendingAckAt, w)
		}
	}
	if len(due) > 0 {
		r.state = ReaderReady
	}
	return due
}

// BuildAckNack computes the current missing-set ACKNACK for a writer:
// acked_base is highest-processed+1, and the bitmap covers the gap up
// to the writer's last-known sequence number (spec.md §8's boundary
// law: HEARTBEAT(10,15) with {10,12,15} received yields {11,13,14}).
func (r *StatefulReader) BuildAckNack(writer guid.GUID, writerLastSN types.SequenceNumber) types.SequenceNumberSet {
	proxy, ok := r.Proxies[writer]
	if !ok {
		return types.NewSequenceNumberSet(1)
	}
	base := proxy.HighestProcessed + 1
	if base < 1 {
		base = 1
	}
	set := types.NewSequenceNumberSet(base)
	for sn := base; sn <= writerLastSN; sn++ {
		if _, received := proxy.Received[sn]; !received {
			set.Bitmap[sn] = struct{}{}
		}
	}
	r.acknackCount++
	return set
}

// AckNackCount returns the running ACKNACK submessage count, used as
// the wire Count field.
func (r *StatefulReader) AckNackCount() uint32 { return r.acknackCount }

// State returns the reader's current state-machine state.
func (r *StatefulReader) State() ReaderState { return r.state }
