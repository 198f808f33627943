// SPDX-FileCopyrightText: © 2026 corvid authors
// SPDX-License-Identifier: AGPL-3.0-only

// Package behavior implements the per-writer/reader RTPS state
// machines: stateless and stateful, best-effort and reliable, plus
// fragmentation reassembly. See spec.md §4.2.
package behavior

import (
	"github.com/corvidds/corvid/rtps/guid"
	"github.com/corvidds/corvid/rtps/types"
)

// ReaderProxy is a stateful writer's view of one matched reader:
// what has been sent, what has been acked, what is being requested.
type ReaderProxy struct {
	GUID              guid.GUID
	UnicastLocators   []types.Locator
	MulticastLocators []types.Locator
	ExpectsInlineQos  bool

	// AckedSN is the highest sequence number this reader has
	// acknowledged (acked_base - 1, from the most recent ACKNACK).
	AckedSN types.SequenceNumber

	// Requested holds sequence numbers this reader has explicitly
	// asked to be resent via ACKNACK, pending nack_response_delay.
	Requested map[types.SequenceNumber]struct{}

	// Unsent holds sequence numbers not yet pushed to this reader.
	Unsent map[types.SequenceNumber]struct{}
}

// NewReaderProxy creates a proxy with nothing acked, nothing
// requested, and an empty unsent set; already-cached changes are
// marked unsent afterwards through MarkUnsent.
func NewReaderProxy(remote guid.GUID, unicast, multicast []types.Locator, expectsInlineQos bool) *ReaderProxy {
	return &ReaderProxy{
		GUID:              remote,
		UnicastLocators:   unicast,
		MulticastLocators: multicast,
		ExpectsInlineQos:  expectsInlineQos,
		AckedSN:           types.Unknown,
		Requested:         make(map[types.SequenceNumber]struct{}),
		Unsent:            make(map[types.SequenceNumber]struct{}),
	}
}

// MarkUnsent records sn as not yet delivered to this proxy.
func (p *ReaderProxy) MarkUnsent(sn types.SequenceNumber) {
	p.Unsent[sn] = struct{}{}
}

// MarkSent clears sn from the unsent set once it has been pushed.
func (p *ReaderProxy) MarkSent(sn types.SequenceNumber) {
	delete(p.Unsent, sn)
}

// ApplyAckNack updates acked/requested state from an ACKNACK: every
// sequence number below the reader's acked_base is acknowledged;
// every sequence number explicitly named in the set's bitmap becomes
// requested.
func (p *ReaderProxy) ApplyAckNack(set types.SequenceNumberSet) {
	if set.Base-1 > p.AckedSN {
		p.AckedSN = set.Base - 1
	}
	for sn := range p.Requested {
		if sn < set.Base {
			delete(p.Requested, sn)
		}
	}
	for sn := range set.Bitmap {
		p.Requested[sn] = struct{}{}
		delete(p.Unsent, sn) // explicit request supersedes "not yet pushed"
	}
}

// WriterProxy is a stateful reader's view of one matched writer: what
// has been received, what is missing.
type WriterProxy struct {
	GUID              guid.GUID
	UnicastLocators   []types.Locator
	MulticastLocators []types.Locator

	// HighestProcessed is the highest sequence number received so
	// far, whether or not every lower one has arrived (reliable: gaps
	// below it may still be filled by retransmission).
	HighestProcessed types.SequenceNumber

	// Received records every sequence number actually delivered
	// (DATA) or marked irrelevant (GAP).
	Received map[types.SequenceNumber]struct{}

	LastHeartbeatCount uint32

	// OwnershipStrength is this writer's OWNERSHIP_STRENGTH as
	// announced over SEDP, set by the caller after NewWriterProxy.
	// Meaningful only when the reader's OWNERSHIP policy is
	// EXCLUSIVE; see ExclusiveOwner.
	OwnershipStrength int32
}

// NewWriterProxy creates a proxy with nothing received yet.
func NewWriterProxy(remote guid.GUID, unicast, multicast []types.Locator) *WriterProxy {
	return &WriterProxy{
		GUID:             remote,
		UnicastLocators:  unicast,
		MulticastLocators: multicast,
		HighestProcessed: types.Unknown,
		Received:         make(map[types.SequenceNumber]struct{}),
	}
}

// MarkReceived records sn as delivered and advances HighestProcessed
// to sn if sn is higher, even when lower sequence numbers are missing.
func (p *WriterProxy) MarkReceived(sn types.SequenceNumber) {
	p.Received[sn] = struct{}{}
	if sn > p.HighestProcessed {
		p.HighestProcessed = sn
	}
}

// MissingBetween computes the missing set = [first, last] \ received,
// per spec.md §4.2's HEARTBEAT handling.
func (p *WriterProxy) MissingBetween(first, last types.SequenceNumber) types.SequenceNumberSet {
	set := types.NewSequenceNumberSet(first)
	for sn := first; sn <= last; sn++ {
		if _, ok := p.Received[sn]; !ok {
			set.Bitmap[sn] = struct{}{}
		}
	}
	return set
}

// MarkIrrelevant marks [start, end] as received-without-delivery
// (i.e. a GAP range): these sequence numbers no longer count as
// missing.
func (p *WriterProxy) MarkIrrelevant(start, end types.SequenceNumber) {
	for sn := start; sn <= end; sn++ {
		p.Received[sn] = struct{}{}
		if sn > p.HighestProcessed {
			p.HighestProcessed = sn
		}
	}
}
