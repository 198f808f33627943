// SPDX-FileCopyrightText: © 2026 corvid authors
// SPDX-License-Identifier: AGPL-3.0-only

package dds

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/corvidds/corvid/actor"
	"github.com/corvidds/corvid/corvidlog"
	"github.com/corvidds/corvid/discovery"
	"github.com/corvidds/corvid/discovery/sedp"
	"github.com/corvidds/corvid/discovery/spdp"
	"github.com/corvidds/corvid/rtps/behavior"
	corviderrors "github.com/corvidds/corvid/rtps/errors"
	"github.com/corvidds/corvid/rtps/guid"
	"github.com/corvidds/corvid/rtps/history"
	"github.com/corvidds/corvid/rtps/qos"
	"github.com/corvidds/corvid/rtps/types"
	"github.com/corvidds/corvid/rtps/wire"
	"github.com/corvidds/corvid/transport/udp"
	"github.com/corvidds/corvid/typesupport"
)

var participantLog = corvidlog.New("participant")

// MetatrafficUnicastPort, MetatrafficMulticastPort, UserUnicastPort and
// UserMulticastPort compute the default RTPS ports for
// a domain/participant pair (spec.md §6).
func MetatrafficUnicastPort(domainID, participantID uint32) uint32 {
	return 7400 + 250*domainID + 10*participantID
}
func MetatrafficMulticastPort(domainID uint32) uint32 { return 7400 + 250*domainID }
func UserUnicastPort(domainID, participantID uint32) uint32 {
	return 7400 + 250*domainID + 10*participantID + 1
}
func UserMulticastPort(domainID uint32) uint32 { return 7400 + 250*domainID + 1 }

var entityCounter uint32

func nextEntityKey() [3]byte {
	n := atomic.AddUint32(&entityCounter, 1)
	return [3]byte{byte(n >> 16), byte(n >> 8), byte(n)}
}

// DomainParticipant is the root entity: it owns every publisher,
// subscriber, and topic created beneath it, the discovery engines, and
// the shared UDP transport. Deleting it recursively deletes everything
// it owns (spec.md §3's lifecycle rule).
type DomainParticipant struct {
	actor.Base
	entityState

	domainID      uint32
	domainTag     string
	guidPrefix    guid.GuidPrefix
	participantID uint32

	defaultPublisherQos  qos.Profile
	defaultSubscriberQos qos.Profile
	defaultTopicQos      qos.Profile

	lock        sync.Mutex
	publishers  map[types.InstanceHandle]*Publisher
	subscribers map[types.InstanceHandle]*Subscriber
	topics      map[string]*Topic

	writers map[guid.GUID]*DataWriter
	readers map[guid.GUID]*DataReader

	spdpEngine *spdp.Engine
	sedpEngine *sedp.Engine

	// builtinSeqNum is the sequence-number source shared by every
	// builtin (SPDP/SEDP) writer this participant announces from.
	builtinSeqNum uint64

	metatraffic *udp.Transport
	multicast   *udp.Transport
	userTraffic *udp.Transport
}

// participantOptions configures NewDomainParticipant; all fields
// optional except DomainID.
type participantOptions struct {
	DomainID      uint32
	DomainTag     string
	ParticipantID uint32
	Interface     string
}

// NewDomainParticipant creates and wires a participant: SPDP/SEDP
// engines, the user-traffic and metatraffic unicast UDP sockets (an
// error if either cannot be bound), and the SPDP multicast socket on
// opts.Interface, which is left out with a warning if it cannot be
// joined. Participants are created disabled; Enable starts
// discovery and the receive loops (spec.md §3).
func NewDomainParticipant(opts participantOptions) (*DomainParticipant, error) {
	var prefix guid.GuidPrefix
	copy(prefix[:4], []byte{'c', 'o', 'r', 'v'})
	key := nextEntityKey()
	copy(prefix[4:7], key[:])
	prefix[7] = byte(opts.ParticipantID)

	p := &DomainParticipant{
		Base:                 actor.NewBase(),
		entityState:          newEntityState(),
		domainID:             opts.DomainID,
		domainTag:            opts.DomainTag,
		guidPrefix:           prefix,
		participantID:        opts.ParticipantID,
		defaultPublisherQos:  qos.Default(),
		defaultSubscriberQos: qos.Default(),
		defaultTopicQos:      qos.Default(),
		publishers:           make(map[types.InstanceHandle]*Publisher),
		subscribers:          make(map[types.InstanceHandle]*Subscriber),
		topics:               make(map[string]*Topic),
		writers:              make(map[guid.GUID]*DataWriter),
		readers:              make(map[guid.GUID]*DataReader),
	}

	p.sedpEngine = sedp.New(p.onSedpMatch)
	p.spdpEngine = spdp.New(prefix, spdp.DefaultAnnouncePeriod, p.buildLocalSpdpData,
		p.announceSpdp, p.onParticipantDiscovered, p.onParticipantLost)

	userTransport, err := udp.Listen(fmt.Sprintf(":%d", UserUnicastPort(opts.DomainID, opts.ParticipantID)),
		func(_ *net.UDPAddr, data []byte) { p.HandleDatagram(data) })
	if err != nil {
		return nil, fmt.Errorf("dds: opening user-traffic socket: %w", err)
	}
	p.userTraffic = userTransport

	metaTransport, err := udp.Listen(fmt.Sprintf(":%d", MetatrafficUnicastPort(opts.DomainID, opts.ParticipantID)),
		func(_ *net.UDPAddr, data []byte) { p.HandleDatagram(data) })
	if err != nil {
		userTransport.Close()
		return nil, fmt.Errorf("dds: opening metatraffic socket: %w", err)
	}
	p.metatraffic = metaTransport

	mcastAddr := &net.UDPAddr{
		IP:   net.IPv4(spdp.DefaultMulticastAddress[0], spdp.DefaultMulticastAddress[1], spdp.DefaultMulticastAddress[2], spdp.DefaultMulticastAddress[3]),
		Port: int(MetatrafficMulticastPort(opts.DomainID)),
	}
	mcastTransport, err := udp.ListenMulticast(mcastAddr, opts.Interface,
		func(_ *net.UDPAddr, data []byte) { p.HandleDatagram(data) })
	if err != nil {
		participantLog.Warnf("domain %d: multicast SPDP socket unavailable, falling back to unicast-only discovery: %v", opts.DomainID, err)
	} else {
		p.multicast = mcastTransport
	}

	return p, nil
}

// Enable brings up the builtin endpoints and starts discovery: SPDP
// before SEDP, per SPEC_FULL.md's bring-up-order resolution from
// original_source.
func (p *DomainParticipant) Enable() {
	p.entityState.Enable()
	p.userTraffic.Start()
	p.metatraffic.Start()
	if p.multicast != nil {
		p.multicast.Start()
	}
	p.spdpEngine.Start()
	p.Go(p.housekeepLoop)
}

// housekeepLoop reaps LIFESPAN-expired changes from every owned
// writer/reader's history cache (spec.md §3). This is participant-wide
// because LIFESPAN is a per-topic policy and the writer/reader actors
// themselves only manage delivery and acknowledgment state.
func (p *DomainParticipant) housekeepLoop() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-p.HaltCh():
			return
		case now := <-ticker.C:
			p.lock.Lock()
			for _, w := range p.writers {
				w.writer.Cache.ReapExpired(w.qos.Lifespan.Duration.ToGo(), now)
			}
			for _, r := range p.readers {
				r.reader.Cache.ReapExpired(r.qos.Lifespan.Duration.ToGo(), now)
			}
			p.lock.Unlock()
		}
	}
}

func (p *DomainParticipant) buildLocalSpdpData() discovery.SpdpDiscoveredParticipantData {
	return discovery.SpdpDiscoveredParticipantData{
		Proxy: discovery.ParticipantProxy{
			DomainId:      p.domainID,
			DomainTag:     p.domainTag,
			ProtocolMajor: 2,
			ProtocolMinor: 4,
			GuidPrefix:    p.guidPrefix,
			VendorId:      wire.VendorId,
			MetatrafficUnicastLocators: p.metatrafficLocators(),
			DefaultUnicastLocators:     p.userDataLocators(),
			AvailableBuiltinEndpoints: guid.BuiltinEndpointParticipantAnnouncer |
				guid.BuiltinEndpointParticipantDetector |
				guid.BuiltinEndpointPublicationsAnnouncer | guid.BuiltinEndpointPublicationsDetector |
				guid.BuiltinEndpointSubscriptionsAnnouncer | guid.BuiltinEndpointSubscriptionsDetector,
			LeaseDuration: 10 * time.Second,
		},
	}
}

// nextBuiltinSN draws the next sequence number for a builtin-topic
// announce; SPDP and SEDP share one counter since each builtin writer
// only ever cares that its own numbers are strictly increasing.
func (p *DomainParticipant) nextBuiltinSN() types.SequenceNumber {
	return types.SequenceNumber(atomic.AddUint64(&p.builtinSeqNum, 1))
}

// metatrafficLocators is the unicast locator this participant
// advertises for discovery traffic (spec.md §6).
func (p *DomainParticipant) metatrafficLocators() []types.Locator {
	if p.metatraffic == nil {
		return nil
	}
	addr := p.metatraffic.LocalAddr()
	if addr == nil {
		return nil
	}
	ip := addr.IP
	if ip == nil || ip.IsUnspecified() {
		ip = net.IPv4(127, 0, 0, 1)
	}
	var addr4 [4]byte
	copy(addr4[:], ip.To4())
	return []types.Locator{types.NewLocatorUDPv4(addr4, uint32(addr.Port))}
}

// spdpMulticastLocator is the well-known SPDP multicast group/port for
// this participant's domain (spec.md §4.4, §6).
func (p *DomainParticipant) spdpMulticastLocator() types.Locator {
	return types.NewLocatorUDPv4(spdp.DefaultMulticastAddress, MetatrafficMulticastPort(p.domainID))
}

// announceSpdp encodes data as a PL_CDR parameter list wrapped in a
// DATA submessage from the SPDP builtin participant writer, and
// multicasts it on the metatraffic socket so other participants'
// spdpEngine.HandleAnnouncement can discover this one (spec.md §4.4,
// §8 scenario 1).
func (p *DomainParticipant) announceSpdp(data discovery.SpdpDiscoveredParticipantData) {
	payload := discovery.EncodeSpdpData(data)
	p.sendBuiltinData(guid.EntityIdSPDPBuiltinParticipantWriter, guid.EntityIdSPDPBuiltinParticipantReader, payload)
}

// announceSedpWriter broadcasts data over the SEDP publications
// builtin topic so remote participants' sedpEngine.HandleRemoteWriter
// can match it against their local readers (spec.md §4.4).
func (p *DomainParticipant) announceSedpWriter(data discovery.DiscoveredWriterData) {
	payload := discovery.EncodeDiscoveredWriterData(data)
	p.sendBuiltinData(guid.EntityIdSEDPBuiltinPublicationsAnnouncer, guid.EntityIdSEDPBuiltinPublicationsDetector, payload)
}

// announceSedpReader is announceSedpWriter's counterpart for the SEDP
// subscriptions builtin topic.
func (p *DomainParticipant) announceSedpReader(data discovery.DiscoveredReaderData) {
	payload := discovery.EncodeDiscoveredReaderData(data)
	p.sendBuiltinData(guid.EntityIdSEDPBuiltinSubscriptionsAnnouncer, guid.EntityIdSEDPBuiltinSubscriptionsDetector, payload)
}

// sendBuiltinData wraps payload in a single DATA submessage from
// writerID to readerID and multicasts it on whichever metatraffic
// socket is available, preferring the multicast group (spec.md §4.4).
func (p *DomainParticipant) sendBuiltinData(writerID, readerID guid.EntityId, payload []byte) {
	body := wire.EncodeData(wire.Data{
		ReaderId:          readerID,
		WriterId:          writerID,
		WriterSN:          p.nextBuiltinSN(),
		SerializedPayload: payload,
	}, wire.LittleEndian, false, true)
	msg := wire.EncodeMessage(wire.Header{VendorId: wire.VendorId, GuidPrefix: p.guidPrefix}, []struct {
		Kind  byte
		Flags byte
		Body  []byte
	}{{Kind: wire.KindData, Flags: wire.FlagEndianness | wire.FlagData, Body: body}})

	dst := p.spdpMulticastLocator()
	transport := p.multicast
	if transport == nil {
		transport = p.metatraffic
	}
	if transport == nil {
		return
	}
	if err := transport.Send(dst, msg); err != nil {
		participantLog.Warnf("domain %d: builtin-topic announce failed: %v", p.domainID, err)
	}
}

func (p *DomainParticipant) onParticipantDiscovered(data discovery.SpdpDiscoveredParticipantData) {
	participantLog.Infof("domain %d: discovered participant %s", p.domainID, data.Proxy.GuidPrefix)
}

func (p *DomainParticipant) onParticipantLost(prefix guid.GuidPrefix) {
	participantLog.Infof("domain %d: participant %s lost, unmatching its endpoints", p.domainID, prefix)
	p.lock.Lock()
	defer p.lock.Unlock()
	for g, w := range p.writers {
		_ = g
		for reader := range w.writer.Proxies {
			if reader.Prefix == prefix {
				actor.Call(context.Background(), w.Self(), unmatchReaderCmd{reader: reader})
			}
		}
	}
	for g, r := range p.readers {
		_ = g
		for writer := range r.reader.Proxies {
			if writer.Prefix == prefix {
				actor.Call(context.Background(), r.Self(), unmatchWriterCmd{writer: writer})
			}
		}
	}
}

func (p *DomainParticipant) onSedpMatch(ev sedp.MatchEvent) {
	p.lock.Lock()
	w, hasW := p.writers[ev.Writer]
	r, hasR := p.readers[ev.Reader]
	p.lock.Unlock()

	if ev.Matched {
		if hasW {
			proxy := behavior.NewReaderProxy(ev.Reader, ev.ReaderUnicast, ev.ReaderMulticast, false)
			actor.Call(context.Background(), w.Self(), matchReaderCmd{proxy: proxy})
		}
		if hasR {
			proxy := behavior.NewWriterProxy(ev.Writer, ev.WriterUnicast, ev.WriterMulticast)
			proxy.OwnershipStrength = ev.WriterOwnershipStrength
			actor.Call(context.Background(), r.Self(), matchWriterCmd{proxy: proxy})
		}
	} else {
		if hasW {
			actor.Call(context.Background(), w.Self(), unmatchReaderCmd{reader: ev.Reader})
		}
		if hasR {
			actor.Call(context.Background(), r.Self(), unmatchWriterCmd{writer: ev.Writer})
		}
	}
}

// CreatePublisher creates a Publisher.
func (p *DomainParticipant) CreatePublisher(kind QosKind, profile qos.Profile) (*Publisher, error) {
	if !p.IsEnabled() {
		return nil, corviderrors.ErrNotEnabled
	}
	if kind == QosDefault {
		profile = p.defaultPublisherQos
	}
	pub := newPublisher(p, profile)
	p.lock.Lock()
	p.publishers[pub.InstanceHandle()] = pub
	p.lock.Unlock()
	return pub, nil
}

// DeletePublisher removes pub, failing with PRECONDITION_NOT_MET if it
// still owns writers (spec.md §4.5).
func (p *DomainParticipant) DeletePublisher(pub *Publisher) error {
	if pub.writerCount() > 0 {
		return corviderrors.ErrPreconditionNotMet
	}
	p.lock.Lock()
	delete(p.publishers, pub.InstanceHandle())
	p.lock.Unlock()
	pub.MarkDeleted()
	return nil
}

// CreateSubscriber creates a Subscriber.
func (p *DomainParticipant) CreateSubscriber(kind QosKind, profile qos.Profile) (*Subscriber, error) {
	if !p.IsEnabled() {
		return nil, corviderrors.ErrNotEnabled
	}
	if kind == QosDefault {
		profile = p.defaultSubscriberQos
	}
	sub := newSubscriber(p, profile)
	p.lock.Lock()
	p.subscribers[sub.InstanceHandle()] = sub
	p.lock.Unlock()
	return sub, nil
}

// DeleteSubscriber removes sub, failing with PRECONDITION_NOT_MET if
// it still owns readers.
func (p *DomainParticipant) DeleteSubscriber(sub *Subscriber) error {
	if sub.readerCount() > 0 {
		return corviderrors.ErrPreconditionNotMet
	}
	p.lock.Lock()
	delete(p.subscribers, sub.InstanceHandle())
	p.lock.Unlock()
	sub.MarkDeleted()
	return nil
}

// CreateTopic registers a named, typed topic. Re-creating an existing
// name with a different type is BAD_PARAMETER.
func (p *DomainParticipant) CreateTopic(name, typeName string, kind QosKind, profile qos.Profile) (*Topic, error) {
	if !p.IsEnabled() {
		return nil, corviderrors.ErrNotEnabled
	}
	if kind == QosDefault {
		profile = p.defaultTopicQos
	}
	p.lock.Lock()
	defer p.lock.Unlock()
	if existing, ok := p.topics[name]; ok {
		if existing.TypeName != typeName {
			return nil, corviderrors.ErrBadParameter
		}
		return existing, nil
	}
	t := newTopic(name, typeName, profile)
	p.topics[name] = t
	return t, nil
}

// DeleteTopic removes a topic, failing with PRECONDITION_NOT_MET while
// any writer/reader still references it.
func (p *DomainParticipant) DeleteTopic(t *Topic) error {
	p.lock.Lock()
	defer p.lock.Unlock()
	if t.refCount > 0 {
		return corviderrors.ErrPreconditionNotMet
	}
	delete(p.topics, t.Name)
	t.MarkDeleted()
	return nil
}

func (p *DomainParticipant) createWriter(ctx context.Context, topic *Topic, profile qos.Profile) (*DataWriter, error) {
	descriptor, ok := typesupport.Lookup(topic.TypeName)
	if !ok {
		return nil, fmt.Errorf("dds: no typesupport registered for %q: %w", topic.TypeName, corviderrors.ErrBadParameter)
	}
	key := nextEntityKey()
	entityID := guid.EntityId{key[0], key[1], key[2], guid.KindUserWriterWithKey}
	g := guid.New(p.guidPrefix, entityID)

	w := NewDataWriter(g, topic, profile, descriptor, p.send)
	w.Start()

	p.lock.Lock()
	p.writers[g] = w
	topic.refCount++
	p.lock.Unlock()

	writerData := discovery.DiscoveredWriterData{
		EndpointGUID:    g,
		TopicName:       topic.Name,
		TypeName:        topic.TypeName,
		QosProfile:      profile,
		UnicastLocators: p.userDataLocators(),
	}
	p.sedpEngine.AnnounceLocalWriter(writerData)
	p.announceSedpWriter(writerData)
	return w, nil
}

func (p *DomainParticipant) deleteWriter(w *DataWriter) {
	w.Halt()
	p.lock.Lock()
	delete(p.writers, w.GUID())
	w.Topic().refCount--
	p.lock.Unlock()
	p.sedpEngine.RemoveRemoteWriter(w.GUID())
}

func (p *DomainParticipant) createReader(ctx context.Context, topic *Topic, profile qos.Profile) (*DataReader, error) {
	descriptor, ok := typesupport.Lookup(topic.TypeName)
	if !ok {
		return nil, fmt.Errorf("dds: no typesupport registered for %q: %w", topic.TypeName, corviderrors.ErrBadParameter)
	}
	key := nextEntityKey()
	entityID := guid.EntityId{key[0], key[1], key[2], guid.KindUserReaderWithKey}
	g := guid.New(p.guidPrefix, entityID)

	r := NewDataReader(g, topic, profile, descriptor, p.send)
	r.Start()

	p.lock.Lock()
	p.readers[g] = r
	topic.refCount++
	p.lock.Unlock()

	readerData := discovery.DiscoveredReaderData{
		EndpointGUID:    g,
		TopicName:       topic.Name,
		TypeName:        topic.TypeName,
		QosProfile:      profile,
		UnicastLocators: p.userDataLocators(),
	}
	p.sedpEngine.AnnounceLocalReader(readerData)
	p.announceSedpReader(readerData)
	return r, nil
}

func (p *DomainParticipant) deleteReader(r *DataReader) {
	r.Halt()
	p.lock.Lock()
	delete(p.readers, r.GUID())
	r.Topic().refCount--
	p.lock.Unlock()
	p.sedpEngine.RemoveRemoteReader(r.GUID())
}

// send is the shared outbound path every writer/reader calls through
// (spec.md §4's "shared resources" note: write-only is serialized by a
// mutex on udp.Transport itself).
func (p *DomainParticipant) send(dst types.Locator, payload []byte) {
	if p.userTraffic == nil {
		return
	}
	if err := p.userTraffic.Send(dst, payload); err != nil {
		participantLog.Warnf("send to %v failed: %v", dst, err)
	}
}

// userDataLocators is the unicast locator this participant's writers
// and readers advertise over SEDP: a single locator, the user-traffic
// socket's bound address and port (spec.md §6's default unicast
// locator list). Loopback is used when the socket has no specific
// bound address, matching the single-host default this demo harness
// targets.
func (p *DomainParticipant) userDataLocators() []types.Locator {
	if p.userTraffic == nil {
		return nil
	}
	addr := p.userTraffic.LocalAddr()
	if addr == nil {
		return nil
	}
	ip := addr.IP
	if ip == nil || ip.IsUnspecified() {
		ip = net.IPv4(127, 0, 0, 1)
	}
	var addr4 [4]byte
	copy(addr4[:], ip.To4())
	return []types.Locator{types.NewLocatorUDPv4(addr4, uint32(addr.Port))}
}

// HandleDatagram is the participant-level message receiver: it
// decodes an RTPS message and routes each submessage by destination
// entity id to the owning writer/reader actor's mailbox (spec.md
// §4.5). A datagram whose header wire.DecodeMessage rejects is logged
// and dropped; a submessage whose body fails to decode is logged and
// skipped during routing, matching spec.md §7's propagation policy.
func (p *DomainParticipant) HandleDatagram(data []byte) {
	msg, err := wire.DecodeMessage(data)
	if err != nil {
		participantLog.Warnf("malformed datagram: %v", err)
		return
	}
	ctx := &submessageContext{}
	for _, sm := range msg.Submessages {
		p.routeSubmessage(msg.Header, sm, ctx)
	}
}

// submessageContext threads INFO_TS/INFO_DST state across the
// submessages of one RTPS message (spec.md §4.2): INFO_TS sets the
// source timestamp applied to subsequent DATA/DATA_FRAG; INFO_DST
// restricts processing of subsequent submessages to participants
// matching its guid prefix, until superseded by another INFO_DST.
type submessageContext struct {
	hasTimestamp bool
	timestamp    types.Timestamp
	hasDest      bool
	dest         guid.GuidPrefix
}

// sourceTimestamp returns the timestamp a CacheChange built from a
// DATA/DATA_FRAG submessage under ctx should carry: the most recent
// INFO_TS if one preceded it in this message, else local reception
// time (spec.md §4.2's DESTINATION_ORDER=BY_SOURCE_TIMESTAMP /
// LIFESPAN-from-source semantics both depend on this).
func (ctx *submessageContext) sourceTimestamp() types.Timestamp {
	if ctx.hasTimestamp {
		return ctx.timestamp
	}
	return types.Now()
}

// destinationMatches reports whether a non-INFO submessage following
// ctx's most recent INFO_DST should still be processed: unset, or
// GUIDPREFIX_UNKNOWN (all-zero), means "every participant".
func (p *DomainParticipant) destinationMatches(ctx *submessageContext) bool {
	if !ctx.hasDest {
		return true
	}
	var unknown guid.GuidPrefix
	if ctx.dest == unknown {
		return true
	}
	return ctx.dest == p.guidPrefix
}

func (p *DomainParticipant) routeSubmessage(hdr wire.Header, sm wire.Submessage, ctx *submessageContext) {
	switch sm.Header.Kind {
	case wire.KindInfoTs:
		if sm.Header.Flags&wire.FlagInvalidate != 0 {
			ctx.hasTimestamp = false
			return
		}
		ts, err := wire.DecodeInfoTs(sm.Body, sm.Header.Endian())
		if err != nil {
			participantLog.Warnf("malformed INFO_TS: %v", err)
			return
		}
		ctx.hasTimestamp = true
		ctx.timestamp = ts.Timestamp
		return
	case wire.KindInfoDst:
		d, err := wire.DecodeInfoDst(sm.Body)
		if err != nil {
			participantLog.Warnf("malformed INFO_DST: %v", err)
			return
		}
		ctx.hasDest = true
		ctx.dest = d.GuidPrefix
		return
	}
	if !p.destinationMatches(ctx) {
		return
	}
	switch sm.Header.Kind {
	case wire.KindData:
		endian := sm.Header.Endian()
		d, err := wire.DecodeData(sm.Body, endian, sm.Header.Flags)
		if err != nil {
			participantLog.Warnf("malformed DATA: %v", err)
			return
		}
		if p.routeBuiltinData(d) {
			return
		}
		writerGUID := guid.New(hdr.GuidPrefix, d.WriterId)
		p.lock.Lock()
		r, ok := p.readerForEntity(d.ReaderId)
		p.lock.Unlock()
		if !ok {
			return
		}

		kind := history.Alive
		switch {
		case sm.Header.Flags&wire.FlagKey != 0:
			kind = history.NotAliveDisposed
		case sm.Header.Flags&wire.FlagData == 0:
			kind = history.NotAliveUnregistered
		}
		var handle types.InstanceHandle
		if r.ts.HasKey && len(d.SerializedPayload) > 0 {
			handle = r.ts.InstanceHandleOfKey(d.SerializedPayload)
		}
		change := &history.CacheChange{
			Kind:           kind,
			WriterGUID:     writerGUID,
			InstanceHandle: handle,
			SequenceNumber: d.WriterSN,
			Timestamp:      ctx.sourceTimestamp(),
			Payload:        d.SerializedPayload,
			InlineQos:      d.InlineQos,
		}
		actor.Call(context.Background(), r.Self(), dataCmd{writer: writerGUID, change: change})
	case wire.KindDataFrag:
		endian := sm.Header.Endian()
		f, err := wire.DecodeDataFrag(sm.Body, endian, sm.Header.Flags)
		if err != nil {
			participantLog.Warnf("malformed DATA_FRAG: %v", err)
			return
		}
		writerGUID := guid.New(hdr.GuidPrefix, f.WriterId)
		p.lock.Lock()
		r, ok := p.readerForEntity(f.ReaderId)
		p.lock.Unlock()
		if !ok {
			return
		}
		actor.Call(context.Background(), r.Self(), dataFragCmd{writer: writerGUID, frag: f, timestamp: ctx.sourceTimestamp()})
	case wire.KindNackFrag:
		endian := sm.Header.Endian()
		n, err := wire.DecodeNackFrag(sm.Body, endian)
		if err != nil {
			participantLog.Warnf("malformed NACK_FRAG: %v", err)
			return
		}
		readerGUID := guid.New(hdr.GuidPrefix, n.ReaderId)
		p.lock.Lock()
		w, ok := p.writerForEntity(n.WriterId)
		p.lock.Unlock()
		if !ok {
			return
		}
		actor.Call(context.Background(), w.Self(), nackFragCmd{reader: readerGUID, sn: n.WriterSN, missing: n.FragmentNumberState})
	case wire.KindHeartbeat:
		endian := sm.Header.Endian()
		hb, err := wire.DecodeHeartbeat(sm.Body, endian)
		if err != nil {
			participantLog.Warnf("malformed HEARTBEAT: %v", err)
			return
		}
		writerGUID := guid.New(hdr.GuidPrefix, hb.WriterId)
		p.lock.Lock()
		r, ok := p.readerForEntity(hb.ReaderId)
		p.lock.Unlock()
		if !ok {
			return
		}
		actor.Call(context.Background(), r.Self(), heartbeatCmd{
			writer: writerGUID, first: hb.FirstSN, last: hb.LastSN, finalFlag: sm.Header.Flags&wire.FlagFinal != 0,
		})
	case wire.KindAckNack:
		endian := sm.Header.Endian()
		an, err := wire.DecodeAckNack(sm.Body, endian)
		if err != nil {
			participantLog.Warnf("malformed ACKNACK: %v", err)
			return
		}
		readerGUID := guid.New(hdr.GuidPrefix, an.ReaderId)
		p.lock.Lock()
		w, ok := p.writerForEntity(an.WriterId)
		p.lock.Unlock()
		if !ok {
			return
		}
		actor.Call(context.Background(), w.Self(), ackNackCmd{reader: readerGUID, set: an.ReaderSNState})
	case wire.KindGap:
		endian := sm.Header.Endian()
		g, err := wire.DecodeGap(sm.Body, endian)
		if err != nil {
			participantLog.Warnf("malformed GAP: %v", err)
			return
		}
		writerGUID := guid.New(hdr.GuidPrefix, g.WriterId)
		p.lock.Lock()
		r, ok := p.readerForEntity(g.ReaderId)
		p.lock.Unlock()
		if !ok {
			return
		}
		end := g.GapList.Base - 1
		for sn := range g.GapList.Bitmap {
			if sn > end {
				end = sn
			}
		}
		actor.Call(context.Background(), r.Self(), gapCmd{writer: writerGUID, start: g.GapStart, end: end})
	default:
		// PAD, HEARTBEAT_FRAG, and anything unrecognized are skipped
		// per spec.md §7's propagation policy.
	}
}

// routeBuiltinData decodes a DATA submessage addressed to one of the
// builtin SPDP/SEDP detector entities back into the corresponding
// discovery struct and dispatches it to the matching engine (spec.md
// §4.4). Returns true if d targeted a builtin topic (handled here,
// whether or not decoding succeeded) so the caller never falls
// through to the user-topic reader lookup for it.
func (p *DomainParticipant) routeBuiltinData(d wire.Data) bool {
	switch d.ReaderId {
	case guid.EntityIdSPDPBuiltinParticipantReader:
		data, err := discovery.DecodeSpdpData(d.SerializedPayload)
		if err != nil {
			participantLog.Warnf("domain %d: malformed SPDP sample: %v", p.domainID, err)
			return true
		}
		p.spdpEngine.HandleAnnouncement(data, p.domainID, p.domainTag)
		return true
	case guid.EntityIdSEDPBuiltinPublicationsDetector:
		data, err := discovery.DecodeDiscoveredWriterData(d.SerializedPayload)
		if err != nil {
			participantLog.Warnf("domain %d: malformed SEDP writer sample: %v", p.domainID, err)
			return true
		}
		p.sedpEngine.HandleRemoteWriter(data)
		return true
	case guid.EntityIdSEDPBuiltinSubscriptionsDetector:
		data, err := discovery.DecodeDiscoveredReaderData(d.SerializedPayload)
		if err != nil {
			participantLog.Warnf("domain %d: malformed SEDP reader sample: %v", p.domainID, err)
			return true
		}
		p.sedpEngine.HandleRemoteReader(data)
		return true
	default:
		return false
	}
}

func (p *DomainParticipant) readerForEntity(id guid.EntityId) (*DataReader, bool) {
	for g, r := range p.readers {
		if g.Entity == id {
			return r, true
		}
	}
	return nil, false
}

func (p *DomainParticipant) writerForEntity(id guid.EntityId) (*DataWriter, bool) {
	for g, w := range p.writers {
		if g.Entity == id {
			return w, true
		}
	}
	return nil, false
}

// GetDiscoveredParticipants returns every currently live remote
// participant (spec.md §6, §8 scenario 1).
func (p *DomainParticipant) GetDiscoveredParticipants() []discovery.SpdpDiscoveredParticipantData {
	return p.spdpEngine.DiscoveredParticipants()
}

// Delete recursively tears down every publisher/subscriber/topic this
// participant owns (spec.md §3's lifecycle rule).
func (p *DomainParticipant) Delete() {
	p.lock.Lock()
	writers := make([]*DataWriter, 0, len(p.writers))
	for _, w := range p.writers {
		writers = append(writers, w)
	}
	readers := make([]*DataReader, 0, len(p.readers))
	for _, r := range p.readers {
		readers = append(readers, r)
	}
	for _, pub := range p.publishers {
		pub.MarkDeleted()
	}
	for _, sub := range p.subscribers {
		sub.MarkDeleted()
	}
	for _, t := range p.topics {
		t.MarkDeleted()
	}
	p.lock.Unlock()

	for _, w := range writers {
		w.Halt()
		w.MarkDeleted()
	}
	for _, r := range readers {
		r.Halt()
		r.MarkDeleted()
	}
	p.spdpEngine.Halt()
	p.spdpEngine.Wait()
	p.userTraffic.Close()
	p.metatraffic.Close()
	if p.multicast != nil {
		p.multicast.Close()
	}
	p.MarkDeleted()
}

// InstanceHandle returns this participant's entity instance handle.
func (p *DomainParticipant) InstanceHandle() types.InstanceHandle { return p.entityState.InstanceHandle() }

// DomainID returns the domain this participant joined.
func (p *DomainParticipant) DomainID() uint32 { return p.domainID }

// GuidPrefix returns the participant's GUID prefix.
func (p *DomainParticipant) GuidPrefix() guid.GuidPrefix { return p.guidPrefix }
