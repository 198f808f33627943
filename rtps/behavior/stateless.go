// SPDX-FileCopyrightText: © 2026 corvid authors
// SPDX-License-Identifier: AGPL-3.0-only

package behavior

import (
	"github.com/corvidds/corvid/rtps/guid"
	"github.com/corvidds/corvid/rtps/history"
	"github.com/corvidds/corvid/rtps/types"
)

// ReaderLocator is a stateless writer's destination: a locator to
// push every change to, with no retransmission bookkeeping.
type ReaderLocator struct {
	Locator          types.Locator
	ExpectsInlineQos bool
}

// OutboundSubmessage pairs an encoded submessage kind/flags/body with
// the destination locator it should be sent to. The actual message
// framing (header + padding + octets_to_next_header) is applied by
// the caller via rtps/wire.EncodeMessage.
type OutboundSubmessage struct {
	Kind        byte
	Flags       byte
	Body        []byte
	Destination types.Locator
}

// StatelessWriter is the SPDP-announcer behavior: on each tick, push
// every retained change to every ReaderLocator, best-effort (spec.md
// §4.2).
type StatelessWriter struct {
	WriterGUID guid.GUID
	Cache      *history.HistoryCache
	Locators   []ReaderLocator
}

// NewStatelessWriter creates a StatelessWriter over cache.
func NewStatelessWriter(writer guid.GUID, cache *history.HistoryCache) *StatelessWriter {
	return &StatelessWriter{WriterGUID: writer, Cache: cache}
}

// AddLocator registers a destination to receive every change.
func (w *StatelessWriter) AddLocator(loc ReaderLocator) {
	w.Locators = append(w.Locators, loc)
}

// RemoveLocator drops a previously registered destination.
func (w *StatelessWriter) RemoveLocator(target types.Locator) {
	out := w.Locators[:0]
	for _, l := range w.Locators {
		if l.Locator != target {
			out = append(out, l)
		}
	}
	w.Locators = out
}

// Tick returns every change this writer retains in its cache; the
// caller encodes them as DATA submessages (with any INFO_TS/INFO_DST)
// and sends them to every locator. readerId is not used.
func (w *StatelessWriter) Tick(readerId guid.EntityId) []*history.CacheChange {
	return w.Cache.ChangesForWriter(w.WriterGUID)
}

// StatelessReader is the SPDP-detector behavior: accept DATA from any
// source, construct a CacheChange, add it to the cache (spec.md
// §4.2).
type StatelessReader struct {
	Cache *history.HistoryCache
}

// NewStatelessReader creates a StatelessReader over cache.
func NewStatelessReader(cache *history.HistoryCache) *StatelessReader {
	return &StatelessReader{Cache: cache}
}

// HandleData constructs and inserts a CacheChange from a decoded DATA
// submessage. There is no sequence-number ordering requirement for a
// stateless reader.
func (r *StatelessReader) HandleData(writer guid.GUID, sn types.SequenceNumber, kind history.ChangeKind,
	handle types.InstanceHandle, ts types.Timestamp, payload, inlineQos []byte) error {
	return r.Cache.AddChange(&history.CacheChange{
		Kind:           kind,
		WriterGUID:     writer,
		InstanceHandle: handle,
		SequenceNumber: sn,
		Timestamp:      ts,
		Payload:        payload,
		InlineQos:      inlineQos,
	})
}
