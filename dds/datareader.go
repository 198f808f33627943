// SPDX-FileCopyrightText: © 2026 corvid authors
// SPDX-License-Identifier: AGPL-3.0-only

package dds

import (
	"context"
	"time"

	"github.com/corvidds/corvid/actor"
	"github.com/corvidds/corvid/corvidlog"
	"github.com/corvidds/corvid/rtps/behavior"
	corviderrors "github.com/corvidds/corvid/rtps/errors"
	"github.com/corvidds/corvid/rtps/guid"
	"github.com/corvidds/corvid/rtps/history"
	"github.com/corvidds/corvid/rtps/qos"
	"github.com/corvidds/corvid/rtps/types"
	"github.com/corvidds/corvid/rtps/wire"
	"github.com/corvidds/corvid/typesupport"
)

var readerLog = corvidlog.New("datareader")

// Sample is one sample returned by read/take, paired with the
// metadata spec.md §4's read-side bookkeeping exposes.
type Sample struct {
	Data          interface{}
	InstanceHandle types.InstanceHandle
	SampleState   history.SampleState
	ViewState     history.ViewState
	InstanceState history.InstanceState
	SourceTimestamp types.Timestamp
}

// ReadTakeParams is read/take's selection criteria (spec.md §6).
type ReadTakeParams struct {
	MaxSamples         int
	SampleStateMask    []history.SampleState
	ViewStateMask      []history.ViewState
	InstanceStateMask  []history.InstanceState
	InstanceHandle     *types.InstanceHandle
}

type matchWriterCmd struct {
	proxy *behavior.WriterProxy
}

type unmatchWriterCmd struct {
	writer guid.GUID
}

type dataCmd struct {
	writer guid.GUID
	change *history.CacheChange
}

type heartbeatCmd struct {
	writer         guid.GUID
	first, last    types.SequenceNumber
	finalFlag      bool
}

type gapCmd struct {
	writer      guid.GUID
	start, end  types.SequenceNumber
}

type dataFragCmd struct {
	writer    guid.GUID
	frag      wire.DataFrag
	timestamp types.Timestamp
}

type readTakeCmd struct {
	params ReadTakeParams
	take   bool
}

type waitForHistoricalCmd struct{}

// DataReader consumes samples of a Topic's type.
type DataReader struct {
	actor.Base
	entityState

	topic  *Topic
	qos    qos.Profile
	ts     typesupport.Descriptor
	guid   guid.GUID
	reader *behavior.StatefulReader

	send func(dst types.Locator, payload []byte)

	listener  DataReaderListener
	condition *StatusCondition

	matched      map[guid.GUID]struct{}
	matchedTotal int32
	ackNackCount uint32

	newInstances map[types.InstanceHandle]bool // view state bookkeeping: true means NEW

	reassembler *behavior.Reassembler
}

// NewDataReader creates a disabled DataReader. send is the
// participant's shared UDP sender, used to push ACKNACK to matched
// writers.
func NewDataReader(g guid.GUID, topic *Topic, profile qos.Profile, ts typesupport.Descriptor,
	send func(dst types.Locator, payload []byte)) *DataReader {
	reliability := behavior.WriterBestEffort
	if profile.Reliability.Kind == qos.Reliable {
		reliability = behavior.WriterReliable
	}
	cache := history.New(profile.History, profile.ResourceLimits, false)
	return &DataReader{
		Base:         actor.NewBase(),
		entityState:  newEntityState(),
		topic:        topic,
		qos:          profile,
		ts:           ts,
		guid:         g,
		reader:       behavior.NewStatefulReader(g, cache, reliability),
		send:         send,
		condition:    NewStatusCondition(),
		matched:      make(map[guid.GUID]struct{}),
		newInstances: make(map[types.InstanceHandle]bool),
		reassembler:  behavior.NewReassembler(),
	}
}

// SetListener attaches l for the statuses in mask.
func (r *DataReader) SetListener(l DataReaderListener, mask StatusMask) {
	r.listener = l
	r.condition.SetEnabledStatuses(mask)
}

// Start launches the dispatch loop and the ack-due ticker.
func (r *DataReader) Start() {
	r.Go(func() { r.Run(r.dispatch) })
	r.Go(r.tickLoop)
	r.Enable()
}

func (r *DataReader) tickLoop() {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-r.HaltCh():
			return
		case <-ticker.C:
			r.tick()
		}
	}
}

func (r *DataReader) tick() {
	for _, writer := range r.reader.DueAckNacks(time.Now()) {
		last := r.reader.Proxies[writer].HighestProcessed
		set := r.reader.BuildAckNack(writer, last)
		r.announceAckNack(writer, set)
	}
}

// announceAckNack encodes and sends an ACKNACK for writer's missing
// range to every locator it advertised (spec.md §4.2).
func (r *DataReader) announceAckNack(writer guid.GUID, set types.SequenceNumberSet) {
	if r.send == nil {
		return
	}
	proxy, ok := r.reader.Proxies[writer]
	if !ok {
		return
	}
	r.ackNackCount++
	numBits := uint32(len(set.Bitmap))
	body := wire.EncodeAckNack(wire.AckNack{
		ReaderId:      r.guid.Entity,
		WriterId:      writer.Entity,
		ReaderSNState: set,
		NumBits:       numBits,
		Count:         r.ackNackCount,
	}, wire.LittleEndian)
	msg := wire.EncodeMessage(wire.Header{VendorId: wire.VendorId, GuidPrefix: r.guid.Prefix}, []struct {
		Kind  byte
		Flags byte
		Body  []byte
	}{{Kind: wire.KindAckNack, Flags: wire.FlagEndianness, Body: body}})
	locators := proxy.UnicastLocators
	if len(locators) == 0 {
		locators = proxy.MulticastLocators
	}
	if len(locators) == 0 {
		readerLog.Warnf("no locator advertised for writer %s, dropping acknack", writer)
		return
	}
	for _, loc := range locators {
		r.send(loc, msg)
	}
}

func (r *DataReader) dispatch(msg interface{}) {
	switch req := msg.(type) {
	case *actor.Request[matchWriterCmd]:
		r.reader.MatchWriter(req.Payload.proxy)
		r.matched[req.Payload.proxy.GUID] = struct{}{}
		r.matchedTotal++
		r.condition.Trip(StatusSubscriptionMatched)
		if r.listener != nil && r.condition.TriggerValue(StatusSubscriptionMatched) {
			r.listener.OnSubscriptionMatched(r, r.subscriptionMatchedStatus())
		}
		req.Resolve(nil)
	case *actor.Request[unmatchWriterCmd]:
		r.reader.UnmatchWriter(req.Payload.writer)
		delete(r.matched, req.Payload.writer)
		r.condition.Trip(StatusLivelinessChanged)
		if r.listener != nil && r.condition.TriggerValue(StatusLivelinessChanged) {
			r.listener.OnLivelinessChanged(r, LivelinessChangedStatus{NotAliveCount: 1, NotAliveCountChange: 1})
		}
		req.Resolve(nil)
	case *actor.Request[dataCmd]:
		r.handleData(req)
	case *actor.Request[dataFragCmd]:
		r.handleDataFrag(req)
	case *actor.Request[heartbeatCmd]:
		r.reader.HandleHeartbeat(req.Payload.writer, req.Payload.first, req.Payload.last, req.Payload.finalFlag, time.Now())
		req.Resolve(nil)
	case *actor.Request[gapCmd]:
		r.reader.HandleGap(req.Payload.writer, req.Payload.start, req.Payload.end)
		req.Resolve(nil)
	case *actor.Request[readTakeCmd]:
		r.handleReadTake(req)
	case *actor.Request[waitForHistoricalCmd]:
		req.Resolve(nil)
	}
}

func (r *DataReader) handleData(req *actor.Request[dataCmd]) {
	if r.qos.Ownership.Kind == qos.Exclusive && !r.acceptsOwnership(req.Payload.writer, req.Payload.change.InstanceHandle) {
		req.Resolve(false)
		return
	}
	var accepted bool
	var err error
	if r.reader.Reliability == behavior.WriterBestEffort {
		accepted, err = r.reader.HandleDataBestEffort(req.Payload.writer, req.Payload.change)
	} else {
		accepted = true
		err = r.reader.HandleDataReliable(req.Payload.writer, req.Payload.change)
	}
	if err != nil {
		if err == corviderrors.ErrOutOfResources {
			r.condition.Trip(StatusSampleLost)
			if r.listener != nil {
				r.listener.OnSampleLost(r, SampleLostStatus{TotalCount: 1, TotalCountChange: 1})
			}
		}
		req.Fail(err)
		return
	}
	if accepted {
		if _, seen := r.newInstances[req.Payload.change.InstanceHandle]; !seen {
			r.newInstances[req.Payload.change.InstanceHandle] = true
		}
		r.condition.Trip(StatusDataAvailable)
		if r.listener != nil && r.condition.TriggerValue(StatusDataAvailable) {
			r.listener.OnDataAvailable(r)
		}
	}
	req.Resolve(accepted)
}

// acceptsOwnership reports whether writer currently holds exclusive
// ownership of handle, computed from the OWNERSHIP_STRENGTH of writer
// plus every other writer that still has a change for handle in the
// reader's cache and remains matched (spec.md §4.2, §8's
// strength_A=10/strength_B=20 boundary scenario: once the stronger
// writer has a cached sample for the instance, the weaker's samples
// are suppressed at the reader).
func (r *DataReader) acceptsOwnership(writer guid.GUID, handle types.InstanceHandle) bool {
	writers := map[guid.GUID]struct{}{writer: {}}
	if inst := r.reader.Cache.Instance(handle); inst != nil {
		for _, c := range inst.Changes {
			writers[c.WriterGUID] = struct{}{}
		}
	}
	var candidates []behavior.OwnerCandidate
	for g := range writers {
		proxy, ok := r.reader.Proxies[g]
		if !ok {
			continue // no longer matched: not alive
		}
		candidates = append(candidates, behavior.OwnerCandidate{Writer: g, Strength: proxy.OwnershipStrength})
	}
	return behavior.ExclusiveOwner(candidates) == writer
}

// handleDataFrag feeds one DATA_FRAG into this writer/sequence-number's
// reassembly; once every fragment has arrived, the assembled payload
// is routed through the same accept/deliver path as a whole DATA
// submessage (spec.md §4.2). While incomplete, it nacks the still-
// missing fragment numbers to drive repair.
func (r *DataReader) handleDataFrag(req *actor.Request[dataFragCmd]) {
	f := req.Payload.frag
	payload, complete := r.reassembler.AddFragment(req.Payload.writer, f.WriterSN,
		f.FragmentStartingNum, f.FragmentsInSubmessage, f.FragmentSize, f.SampleSize, f.FragmentContents)
	if !complete {
		r.sendNackFrag(req.Payload.writer, f.WriterSN)
		req.Resolve(false)
		return
	}
	var handle types.InstanceHandle
	if r.ts.HasKey && len(payload) > 0 {
		handle = r.ts.InstanceHandleOfKey(payload)
	}
	change := &history.CacheChange{
		Kind:           history.Alive,
		WriterGUID:     req.Payload.writer,
		InstanceHandle: handle,
		SequenceNumber: f.WriterSN,
		Timestamp:      req.Payload.timestamp,
		Payload:        payload,
		InlineQos:      f.InlineQos,
	}
	if r.qos.Ownership.Kind == qos.Exclusive && !r.acceptsOwnership(req.Payload.writer, handle) {
		req.Resolve(false)
		return
	}
	var accepted bool
	var err error
	if r.reader.Reliability == behavior.WriterBestEffort {
		accepted, err = r.reader.HandleDataBestEffort(req.Payload.writer, change)
	} else {
		accepted = true
		err = r.reader.HandleDataReliable(req.Payload.writer, change)
	}
	if err != nil {
		req.Fail(err)
		return
	}
	if accepted {
		if _, seen := r.newInstances[change.InstanceHandle]; !seen {
			r.newInstances[change.InstanceHandle] = true
		}
		r.condition.Trip(StatusDataAvailable)
		if r.listener != nil && r.condition.TriggerValue(StatusDataAvailable) {
			r.listener.OnDataAvailable(r)
		}
	}
	req.Resolve(accepted)
}

// sendNackFrag requests retransmission of the fragments still missing
// for (writer, sn), mirroring announceAckNack's locator selection.
func (r *DataReader) sendNackFrag(writer guid.GUID, sn types.SequenceNumber) {
	if r.send == nil {
		return
	}
	missing := r.reassembler.MissingFragments(writer, sn)
	if len(missing) == 0 {
		return
	}
	proxy, ok := r.reader.Proxies[writer]
	if !ok {
		return
	}
	state := make(map[uint32]struct{}, len(missing))
	base, top := missing[0], missing[0]
	for _, f := range missing {
		state[f] = struct{}{}
		if f < base {
			base = f
		}
		if f > top {
			top = f
		}
	}
	r.ackNackCount++
	body := wire.EncodeNackFrag(wire.NackFrag{
		ReaderId:            r.guid.Entity,
		WriterId:            writer.Entity,
		WriterSN:            sn,
		FragmentNumberState: state,
		FragmentBase:        base,
		NumBits:             top - base + 1,
		Count:               r.ackNackCount,
	}, wire.LittleEndian)
	msg := wire.EncodeMessage(wire.Header{VendorId: wire.VendorId, GuidPrefix: r.guid.Prefix}, []struct {
		Kind  byte
		Flags byte
		Body  []byte
	}{{Kind: wire.KindNackFrag, Flags: wire.FlagEndianness, Body: body}})
	locators := proxy.UnicastLocators
	if len(locators) == 0 {
		locators = proxy.MulticastLocators
	}
	if len(locators) == 0 {
		return
	}
	for _, loc := range locators {
		r.send(loc, msg)
	}
}

func (r *DataReader) handleReadTake(req *actor.Request[readTakeCmd]) {
	params := req.Payload.params
	var out []Sample
	var taken []*history.CacheChange
	for _, c := range r.reader.Cache.Changes() {
		if params.InstanceHandle != nil && c.InstanceHandle != *params.InstanceHandle {
			continue
		}
		if !matchesSampleState(c.SampleState, params.SampleStateMask) {
			continue
		}
		sample, err := r.ts.Deserialize(c.Payload)
		if err != nil {
			continue
		}
		view := history.NotNew
		if first := r.newInstances[c.InstanceHandle]; first {
			view = history.New
			r.newInstances[c.InstanceHandle] = false
		}
		out = append(out, Sample{
			Data:            sample,
			InstanceHandle:  c.InstanceHandle,
			SampleState:     c.SampleState,
			ViewState:       view,
			InstanceState:   instanceStateOf(c.Kind),
			SourceTimestamp: c.Timestamp,
		})
		taken = append(taken, c)
		if params.MaxSamples > 0 && len(out) >= params.MaxSamples {
			break
		}
	}
	if len(out) == 0 {
		req.Fail(corviderrors.ErrNoData)
		return
	}
	if req.Payload.take {
		returned := make(map[*history.CacheChange]struct{}, len(taken))
		for _, c := range taken {
			returned[c] = struct{}{}
		}
		r.reader.Cache.RemoveChange(func(c *history.CacheChange) bool {
			_, ok := returned[c]
			return ok
		})
	}
	req.Resolve(out)
}

func matchesSampleState(state history.SampleState, mask []history.SampleState) bool {
	if len(mask) == 0 {
		return true
	}
	for _, s := range mask {
		if s == state {
			return true
		}
	}
	return false
}

func instanceStateOf(k history.ChangeKind) history.InstanceState {
	switch k {
	case history.NotAliveDisposed:
		return history.InstanceNotAliveDisposed
	case history.NotAliveUnregistered:
		return history.InstanceNotAliveNoWriters
	default:
		return history.InstanceAlive
	}
}

// Read returns up to params.MaxSamples matching samples without
// removing them from the cache.
func (r *DataReader) Read(ctx context.Context, params ReadTakeParams) ([]Sample, error) {
	if !r.IsEnabled() {
		return nil, corviderrors.ErrNotEnabled
	}
	v, err := actor.Call(ctx, r.Self(), readTakeCmd{params: params, take: false})
	if err != nil {
		return nil, err
	}
	return v.([]Sample), nil
}

// Take returns up to params.MaxSamples matching samples and removes
// them from the cache.
func (r *DataReader) Take(ctx context.Context, params ReadTakeParams) ([]Sample, error) {
	if !r.IsEnabled() {
		return nil, corviderrors.ErrNotEnabled
	}
	v, err := actor.Call(ctx, r.Self(), readTakeCmd{params: params, take: true})
	if err != nil {
		return nil, err
	}
	return v.([]Sample), nil
}

// WaitForHistoricalData returns nil as soon as the reader's actor
// handles the request, or ErrTimeout if maxWait elapses first
// (spec.md §8 scenario 5). It does not wait for historical data to
// arrive: TRANSIENT_LOCAL samples reach the reader only through the
// writer's periodic delivery to a newly matched proxy, which may not
// have happened yet when this returns.
func (r *DataReader) WaitForHistoricalData(ctx context.Context, maxWait time.Duration) error {
	cctx, cancel := context.WithTimeout(ctx, maxWait)
	defer cancel()
	_, err := actor.Call(cctx, r.Self(), waitForHistoricalCmd{})
	return err
}

func (r *DataReader) subscriptionMatchedStatus() SubscriptionMatchedStatus {
	return SubscriptionMatchedStatus{
		TotalCount:   r.matchedTotal,
		CurrentCount: int32(len(r.matched)),
	}
}

// InstanceHandle returns this reader's entity instance handle.
func (r *DataReader) InstanceHandle() types.InstanceHandle { return r.entityState.InstanceHandle() }

// GUID returns the reader's RTPS GUID.
func (r *DataReader) GUID() guid.GUID { return r.guid }

// Topic returns the bound topic.
func (r *DataReader) Topic() *Topic { return r.topic }
