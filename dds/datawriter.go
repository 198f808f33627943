// SPDX-FileCopyrightText: © 2026 corvid authors
// SPDX-License-Identifier: AGPL-3.0-only

package dds

import (
	"context"
	"time"

	"github.com/corvidds/corvid/actor"
	"github.com/corvidds/corvid/corvidlog"
	corviderrors "github.com/corvidds/corvid/rtps/errors"
	"github.com/corvidds/corvid/rtps/behavior"
	"github.com/corvidds/corvid/rtps/guid"
	"github.com/corvidds/corvid/rtps/history"
	"github.com/corvidds/corvid/rtps/qos"
	"github.com/corvidds/corvid/rtps/types"
	"github.com/corvidds/corvid/rtps/wire"
	"github.com/corvidds/corvid/typesupport"
)

var writerLog = corvidlog.New("datawriter")

// matchedReader tracks one matched reader for PublicationMatchedStatus
// accounting.
type matchedReader struct {
	reader guid.GUID
}

// writeCmd is a Request[T] payload for DataWriter.write.
type writeCmd struct {
	sample interface{}
	handle types.InstanceHandle
	ts     types.Timestamp
	kind   history.ChangeKind
}

type matchReaderCmd struct {
	proxy *behavior.ReaderProxy
}

type unmatchReaderCmd struct {
	reader guid.GUID
}

type ackNackCmd struct {
	reader guid.GUID
	set    types.SequenceNumberSet
}

type waitForAckCmd struct {
	sn types.SequenceNumber
}

type nackFragCmd struct {
	reader  guid.GUID
	sn      types.SequenceNumber
	missing map[uint32]struct{}
}

// dataMaxSizeSerialized is the largest ALIVE payload sent as a single
// DATA submessage before deliver switches to DATA_FRAG (spec.md §4.2);
// chosen comfortably under a UDP datagram's safe unfragmented size.
const dataMaxSizeSerialized = 1300

// DataWriter publishes samples of a Topic's type. It is an actor: all
// mutation flows through its mailbox (spec.md §4.5).
type DataWriter struct {
	actor.Base
	entityState

	topic  *Topic
	qos    qos.Profile
	ts     typesupport.Descriptor
	guid   guid.GUID
	writer *behavior.StatefulWriter

	send func(dst types.Locator, payload []byte)

	listener  DataWriterListener
	condition *StatusCondition

	matched         map[guid.GUID]matchedReader
	matchedTotal    int32
	offeredIncompatibleTotal int32
}

// NewDataWriter creates a disabled DataWriter. Enable announces it via
// SEDP (done by the owning Publisher/Participant, not here, since SEDP
// announcement needs participant-scoped plumbing).
func NewDataWriter(g guid.GUID, topic *Topic, profile qos.Profile, ts typesupport.Descriptor,
	send func(dst types.Locator, payload []byte)) *DataWriter {

	reliability := behavior.WriterBestEffort
	if profile.Reliability.Kind == qos.Reliable {
		reliability = behavior.WriterReliable
	}
	cache := history.New(profile.History, profile.ResourceLimits, true)
	w := &DataWriter{
		Base:         actor.NewBase(),
		entityState:  newEntityState(),
		topic:        topic,
		qos:          profile,
		ts:           ts,
		guid:         g,
		writer:       behavior.NewStatefulWriter(g, cache, reliability),
		send:         send,
		condition:    NewStatusCondition(),
		matched:      make(map[guid.GUID]matchedReader),
	}
	w.writer.HeartbeatPeriod = 1 * time.Second
	w.writer.NackResponseDelay = 200 * time.Millisecond
	return w
}

// SetListener attaches l for the statuses in mask.
func (w *DataWriter) SetListener(l DataWriterListener, mask StatusMask) {
	w.listener = l
	w.condition.SetEnabledStatuses(mask)
}

// Start launches the dispatch loop and the heartbeat ticker.
func (w *DataWriter) Start() {
	w.Go(func() { w.Run(w.dispatch) })
	w.Go(w.tickLoop)
	w.Enable()
}

func (w *DataWriter) tickLoop() {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-w.HaltCh():
			return
		case <-ticker.C:
			w.tick()
		}
	}
}

func (w *DataWriter) dispatch(msg interface{}) {
	switch req := msg.(type) {
	case *actor.Request[writeCmd]:
		w.handleWrite(req)
	case *actor.Request[matchReaderCmd]:
		w.writer.MatchReader(req.Payload.proxy)
		w.matched[req.Payload.proxy.GUID] = matchedReader{reader: req.Payload.proxy.GUID}
		w.matchedTotal++
		w.condition.Trip(StatusPublicationMatched)
		if w.listener != nil && w.condition.TriggerValue(StatusPublicationMatched) {
			w.listener.OnPublicationMatched(w, w.publicationMatchedStatus())
		}
		req.Resolve(nil)
	case *actor.Request[unmatchReaderCmd]:
		w.writer.UnmatchReader(req.Payload.reader)
		delete(w.matched, req.Payload.reader)
		w.condition.Trip(StatusPublicationMatched)
		req.Resolve(nil)
	case *actor.Request[ackNackCmd]:
		w.writer.HandleAckNack(req.Payload.reader, req.Payload.set)
		req.Resolve(nil)
	case *actor.Request[waitForAckCmd]:
		if w.writer.IsAckedByAll(req.Payload.sn) {
			req.Resolve(nil)
		} else {
			req.Fail(corviderrors.ErrTimeout)
		}
	case *actor.Request[nackFragCmd]:
		w.handleNackFrag(req.Payload)
		req.Resolve(nil)
	}
}

func (w *DataWriter) handleWrite(req *actor.Request[writeCmd]) {
	cmd := req.Payload
	payload, err := w.ts.Serialize(cmd.sample)
	if err != nil {
		req.Fail(corviderrors.ErrBadParameter)
		return
	}
	handle := cmd.handle
	if handle == types.NilHandle && w.ts.HasKey {
		handle = w.ts.InstanceHandleOfKey(payload)
	}
	last, ok := w.writer.Cache.GetSeqNumMax(w.guid)
	if !ok {
		last = 0
	}
	sn := last + 1
	change := &history.CacheChange{
		Kind:           cmd.kind,
		WriterGUID:     w.guid,
		InstanceHandle: handle,
		SequenceNumber: sn,
		Timestamp:      cmd.ts,
		Payload:        payload,
	}
	if err := w.writer.Cache.AddChange(change); err != nil {
		req.Fail(err)
		return
	}
	w.writer.NewChange(sn)
	req.Resolve(sn)
}

// tick pushes pending DATA to every matched proxy and, for reliable
// writers, sends HEARTBEAT once heartbeat_period elapses (spec.md
// §4.2). DataWriter encodes and frames the DATA/HEARTBEAT messages
// itself; w.send only transmits the finished bytes to a locator.
func (w *DataWriter) tick() {
	now := time.Now()
	for _, proxy := range w.writer.Proxies {
		for _, change := range w.writer.PendingData(proxy) {
			w.deliver(proxy, change)
			w.writer.MarkDelivered(proxy, change.SequenceNumber)
		}
	}
	if w.writer.ShouldSendHeartbeat(now) {
		first, last, count := w.writer.BuildHeartbeat(now)
		w.announceHeartbeat(first, last, count)
	}
}

// deliver encodes change as a DATA submessage addressed to proxy's
// reader and sends it to every locator proxy advertised (spec.md
// §4.2, §4.3).
func (w *DataWriter) deliver(proxy *behavior.ReaderProxy, change *history.CacheChange) {
	hasPayload := change.Kind == history.Alive
	if hasPayload && len(change.Payload) > dataMaxSizeSerialized {
		w.deliverFragmented(proxy, change)
		return
	}
	flags := wire.FlagEndianness
	if hasPayload {
		flags |= wire.FlagData
	} else {
		flags |= wire.FlagKey
	}
	body := wire.EncodeData(wire.Data{
		ReaderId:          proxy.GUID.Entity,
		WriterId:          w.guid.Entity,
		WriterSN:          change.SequenceNumber,
		SerializedPayload: change.Payload,
	}, wire.LittleEndian, false, true)
	w.sendToProxy(proxy, wire.KindData, flags, body)
}

// deliverFragmented splits change's payload into DATA_FRAG submessages
// of at most dataMaxSizeSerialized bytes each, one fragment per
// submessage (spec.md §4.2).
func (w *DataWriter) deliverFragmented(proxy *behavior.ReaderProxy, change *history.CacheChange) {
	for _, body := range w.fragmentBodies(proxy.GUID.Entity, change, nil) {
		w.sendToProxy(proxy, wire.KindDataFrag, wire.FlagEndianness, body)
	}
}

// fragmentBodies encodes the fragments of change's payload numbered
// want (or every fragment, if want is nil) as DATA_FRAG bodies.
func (w *DataWriter) fragmentBodies(reader guid.EntityId, change *history.CacheChange, want map[uint32]struct{}) [][]byte {
	sampleSize := uint32(len(change.Payload))
	fragmentSize := uint16(dataMaxSizeSerialized)
	total := sampleSize / uint32(fragmentSize)
	if sampleSize%uint32(fragmentSize) != 0 {
		total++
	}
	var bodies [][]byte
	for i := uint32(0); i < total; i++ {
		fragNum := i + 1
		if want != nil {
			if _, ok := want[fragNum]; !ok {
				continue
			}
		}
		start := i * uint32(fragmentSize)
		end := start + uint32(fragmentSize)
		if end > sampleSize {
			end = sampleSize
		}
		bodies = append(bodies, wire.EncodeDataFrag(wire.DataFrag{
			ReaderId:              reader,
			WriterId:              w.guid.Entity,
			WriterSN:              change.SequenceNumber,
			FragmentStartingNum:   fragNum,
			FragmentsInSubmessage: 1,
			FragmentSize:          fragmentSize,
			SampleSize:            sampleSize,
			FragmentContents:      change.Payload[start:end],
		}, wire.LittleEndian, false))
	}
	return bodies
}

// handleNackFrag resends the fragments of cmd.sn requested by cmd.missing,
// answering a NACK_FRAG from a reader reassembling a fragmented sample
// (spec.md §4.2).
func (w *DataWriter) handleNackFrag(cmd nackFragCmd) {
	proxy, ok := w.writer.Proxies[cmd.reader]
	if !ok {
		return
	}
	change := w.findChange(cmd.sn)
	if change == nil {
		return
	}
	for _, body := range w.fragmentBodies(proxy.GUID.Entity, change, cmd.missing) {
		w.sendToProxy(proxy, wire.KindDataFrag, wire.FlagEndianness, body)
	}
}

func (w *DataWriter) findChange(sn types.SequenceNumber) *history.CacheChange {
	for _, c := range w.writer.Cache.ChangesForWriter(w.guid) {
		if c.SequenceNumber == sn {
			return c
		}
	}
	return nil
}

// announceHeartbeat encodes and sends a HEARTBEAT naming the retained
// sequence number range to every matched proxy (spec.md §4.2).
func (w *DataWriter) announceHeartbeat(first, last types.SequenceNumber, count uint32) {
	for _, proxy := range w.writer.Proxies {
		body := wire.EncodeHeartbeat(wire.Heartbeat{
			ReaderId: proxy.GUID.Entity,
			WriterId: w.guid.Entity,
			FirstSN:  first,
			LastSN:   last,
			Count:    count,
		}, wire.LittleEndian)
		w.sendToProxy(proxy, wire.KindHeartbeat, wire.FlagEndianness, body)
	}
}

// sendToProxy frames one submessage into a full RTPS message and sends
// it to every locator advertised by proxy (unicast preferred,
// multicast as a fallback when no unicast locator was offered).
func (w *DataWriter) sendToProxy(proxy *behavior.ReaderProxy, kind, flags byte, body []byte) {
	if w.send == nil {
		return
	}
	msg := wire.EncodeMessage(wire.Header{VendorId: wire.VendorId, GuidPrefix: w.guid.Prefix}, []struct {
		Kind  byte
		Flags byte
		Body  []byte
	}{{Kind: kind, Flags: flags, Body: body}})
	locators := proxy.UnicastLocators
	if len(locators) == 0 {
		locators = proxy.MulticastLocators
	}
	if len(locators) == 0 {
		writerLog.Warnf("no locator advertised for reader %s, dropping submessage", proxy.GUID)
		return
	}
	for _, loc := range locators {
		w.send(loc, msg)
	}
}

// Write publishes sample as an ALIVE change, returning its sequence
// number.
func (w *DataWriter) Write(ctx context.Context, sample interface{}, handle types.InstanceHandle) (types.SequenceNumber, error) {
	if !w.IsEnabled() {
		return 0, corviderrors.ErrNotEnabled
	}
	v, err := actor.Call(ctx, w.Self(), writeCmd{sample: sample, handle: handle, ts: types.Now(), kind: history.Alive})
	if err != nil {
		return 0, err
	}
	return v.(types.SequenceNumber), nil
}

// Dispose marks an instance NOT_ALIVE_DISPOSED (spec.md §8 scenario 6).
func (w *DataWriter) Dispose(ctx context.Context, sample interface{}, handle types.InstanceHandle) error {
	_, err := actor.Call(ctx, w.Self(), writeCmd{sample: sample, handle: handle, ts: types.Now(), kind: history.NotAliveDisposed})
	return err
}

// Unregister marks an instance NOT_ALIVE_UNREGISTERED.
func (w *DataWriter) Unregister(ctx context.Context, sample interface{}, handle types.InstanceHandle) error {
	_, err := actor.Call(ctx, w.Self(), writeCmd{sample: sample, handle: handle, ts: types.Now(), kind: history.NotAliveUnregistered})
	return err
}

// WaitForAcknowledgments blocks until every matched reliable reader
// has acknowledged sn, or maxWait elapses (spec.md §6, §5's suspension
// points).
func (w *DataWriter) WaitForAcknowledgments(ctx context.Context, sn types.SequenceNumber, maxWait time.Duration) error {
	cctx, cancel := context.WithTimeout(ctx, maxWait)
	defer cancel()
	for {
		_, err := actor.Call(cctx, w.Self(), waitForAckCmd{sn: sn})
		if err != corviderrors.ErrTimeout {
			return err
		}
		select {
		case <-cctx.Done():
			return corviderrors.ErrTimeout
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func (w *DataWriter) publicationMatchedStatus() PublicationMatchedStatus {
	return PublicationMatchedStatus{
		TotalCount:   w.matchedTotal,
		CurrentCount: int32(len(w.matched)),
	}
}

// InstanceHandle returns this writer's entity instance handle.
func (w *DataWriter) InstanceHandle() types.InstanceHandle { return w.entityState.InstanceHandle() }

// GUID returns the writer's RTPS GUID.
func (w *DataWriter) GUID() guid.GUID { return w.guid }

// Topic returns the bound topic.
func (w *DataWriter) Topic() *Topic { return w.topic }
