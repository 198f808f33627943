// SPDX-FileCopyrightText: © 2026 corvid authors
// SPDX-License-Identifier: AGPL-3.0-only

package discovery

import (
	"github.com/corvidds/corvid/rtps/guid"
	"github.com/corvidds/corvid/rtps/qos"
	"github.com/corvidds/corvid/rtps/types"
	"github.com/corvidds/corvid/rtps/wire"
)

// Parameter ids carried by corvid's builtin discovery topics, numbered
// after DDS-RTPS §9.6.2.2's ParameterId table and restricted to the
// fields SpdpDiscoveredParticipantData/DiscoveredWriterData/
// DiscoveredReaderData actually carry.
const (
	pidDomainId                 wire.ParameterId = 0x000f
	pidDomainTag                wire.ParameterId = 0x4014
	pidProtocolVersion          wire.ParameterId = 0x0015
	pidVendorId                 wire.ParameterId = 0x0016
	pidParticipantGuid          wire.ParameterId = 0x0050
	pidEndpointGuid             wire.ParameterId = 0x005a
	pidMetatrafficUnicastLoc    wire.ParameterId = 0x0032
	pidMetatrafficMulticastLoc  wire.ParameterId = 0x0033
	pidDefaultUnicastLoc        wire.ParameterId = 0x0031
	pidDefaultMulticastLoc      wire.ParameterId = 0x0048
	pidUnicastLoc               wire.ParameterId = 0x002f
	pidMulticastLoc             wire.ParameterId = 0x0030
	pidBuiltinEndpointSet       wire.ParameterId = 0x0058
	pidParticipantLeaseDuration wire.ParameterId = 0x0002
	pidUserData                 wire.ParameterId = 0x002c
	pidTopicName                wire.ParameterId = 0x0005
	pidTypeName                 wire.ParameterId = 0x0007
	pidDurability               wire.ParameterId = 0x001d
	pidReliability              wire.ParameterId = 0x001a
	pidOwnership                wire.ParameterId = 0x001f
	pidOwnershipStrength        wire.ParameterId = 0x0006
	pidDeadline                 wire.ParameterId = 0x0023
	pidLatencyBudget            wire.ParameterId = 0x0027
	pidLiveliness               wire.ParameterId = 0x001b
	pidDestinationOrder         wire.ParameterId = 0x0025
	pidPartition                wire.ParameterId = 0x0029
)

func encodeUint32(v uint32, endian wire.Endian) []byte {
	w := wire.NewWriter(endian, 0)
	w.PutUint32(v)
	return w.Bytes()
}

func decodeUint32(buf []byte, endian wire.Endian) (uint32, error) {
	return wire.NewReader(buf, endian, 0).GetUint32()
}

func encodeInt32(v int32, endian wire.Endian) []byte {
	w := wire.NewWriter(endian, 0)
	w.PutInt32(v)
	return w.Bytes()
}

func decodeInt32(buf []byte, endian wire.Endian) (int32, error) {
	return wire.NewReader(buf, endian, 0).GetInt32()
}

func encodeString(s string, endian wire.Endian) []byte {
	w := wire.NewWriter(endian, 0)
	w.PutString(s)
	return w.Bytes()
}

func decodeString(buf []byte, endian wire.Endian) (string, error) {
	return wire.NewReader(buf, endian, 0).GetString()
}

func encodeOctetSeq(b []byte, endian wire.Endian) []byte {
	w := wire.NewWriter(endian, 0)
	w.PutOctetSeq(b)
	return w.Bytes()
}

func decodeOctetSeq(buf []byte, endian wire.Endian) ([]byte, error) {
	return wire.NewReader(buf, endian, 0).GetOctetSeq()
}

func encodeRTPSDuration(d types.Duration, endian wire.Endian) []byte {
	w := wire.NewWriter(endian, 0)
	w.PutInt32(d.Sec)
	w.PutUint32(d.NSec)
	return w.Bytes()
}

func decodeRTPSDuration(buf []byte, endian wire.Endian) (types.Duration, error) {
	r := wire.NewReader(buf, endian, 0)
	sec, err := r.GetInt32()
	if err != nil {
		return types.Duration{}, err
	}
	nsec, err := r.GetUint32()
	if err != nil {
		return types.Duration{}, err
	}
	return types.Duration{Sec: sec, NSec: nsec}, nil
}

func encodeGUID(g guid.GUID) []byte {
	b := g.Bytes()
	return b[:]
}

func decodeGUID(buf []byte) (guid.GUID, error) {
	if len(buf) < 16 {
		return guid.GUID{}, wire.ErrShortBuffer
	}
	var g guid.GUID
	copy(g.Prefix[:], buf[:12])
	copy(g.Entity[:], buf[12:16])
	return g, nil
}

func encodeLocator(l types.Locator, endian wire.Endian) []byte {
	w := wire.NewWriter(endian, 0)
	w.PutInt32(int32(l.Kind))
	w.PutUint32(l.Port)
	w.PutRaw(l.Address[:])
	return w.Bytes()
}

func decodeLocator(buf []byte, endian wire.Endian) (types.Locator, error) {
	r := wire.NewReader(buf, endian, 0)
	kind, err := r.GetInt32()
	if err != nil {
		return types.Locator{}, err
	}
	port, err := r.GetUint32()
	if err != nil {
		return types.Locator{}, err
	}
	addr, err := r.GetRaw(16)
	if err != nil {
		return types.Locator{}, err
	}
	l := types.Locator{Kind: types.LocatorKind(kind), Port: port}
	copy(l.Address[:], addr)
	return l, nil
}

func encodeReliability(r qos.Reliability, endian wire.Endian) []byte {
	w := wire.NewWriter(endian, 0)
	w.PutUint32(uint32(r.Kind))
	w.PutInt32(r.MaxBlockingTime.Sec)
	w.PutUint32(r.MaxBlockingTime.NSec)
	return w.Bytes()
}

func decodeReliability(buf []byte, endian wire.Endian) (qos.Reliability, error) {
	r := wire.NewReader(buf, endian, 0)
	kind, err := r.GetUint32()
	if err != nil {
		return qos.Reliability{}, err
	}
	sec, err := r.GetInt32()
	if err != nil {
		return qos.Reliability{}, err
	}
	nsec, err := r.GetUint32()
	if err != nil {
		return qos.Reliability{}, err
	}
	return qos.Reliability{Kind: qos.ReliabilityKind(kind), MaxBlockingTime: types.Duration{Sec: sec, NSec: nsec}}, nil
}

func encodeLiveliness(l qos.Liveliness, endian wire.Endian) []byte {
	w := wire.NewWriter(endian, 0)
	w.PutUint32(uint32(l.Kind))
	w.PutInt32(l.LeaseDuration.Sec)
	w.PutUint32(l.LeaseDuration.NSec)
	return w.Bytes()
}

func decodeLiveliness(buf []byte, endian wire.Endian) (qos.Liveliness, error) {
	r := wire.NewReader(buf, endian, 0)
	kind, err := r.GetUint32()
	if err != nil {
		return qos.Liveliness{}, err
	}
	sec, err := r.GetInt32()
	if err != nil {
		return qos.Liveliness{}, err
	}
	nsec, err := r.GetUint32()
	if err != nil {
		return qos.Liveliness{}, err
	}
	return qos.Liveliness{Kind: qos.LivelinessKind(kind), LeaseDuration: types.Duration{Sec: sec, NSec: nsec}}, nil
}

func encodePartition(p qos.Partition, endian wire.Endian) []byte {
	w := wire.NewWriter(endian, 0)
	w.PutUint32(uint32(len(p.Names)))
	for _, name := range p.Names {
		w.PutString(name)
	}
	return w.Bytes()
}

func decodePartition(buf []byte, endian wire.Endian) (qos.Partition, error) {
	r := wire.NewReader(buf, endian, 0)
	n, err := r.GetUint32()
	if err != nil {
		return qos.Partition{}, err
	}
	var p qos.Partition
	for i := uint32(0); i < n; i++ {
		name, err := r.GetString()
		if err != nil {
			return qos.Partition{}, err
		}
		p.Names = append(p.Names, name)
	}
	return p, nil
}

// appendProfileParams appends the QoS policies discovery actually
// negotiates (spec.md §4.2's compatibility table plus partition
// matching) to params.
func appendProfileParams(params []wire.Parameter, p qos.Profile, endian wire.Endian) []wire.Parameter {
	params = append(params,
		wire.Parameter{ID: pidDurability, Value: encodeUint32(uint32(p.Durability.Kind), endian)},
		wire.Parameter{ID: pidReliability, Value: encodeReliability(p.Reliability, endian)},
		wire.Parameter{ID: pidOwnership, Value: encodeUint32(uint32(p.Ownership.Kind), endian)},
		wire.Parameter{ID: pidOwnershipStrength, Value: encodeInt32(p.OwnershipStrength.Value, endian)},
		wire.Parameter{ID: pidDeadline, Value: encodeRTPSDuration(p.Deadline.Period, endian)},
		wire.Parameter{ID: pidLatencyBudget, Value: encodeRTPSDuration(p.LatencyBudget.Duration, endian)},
		wire.Parameter{ID: pidLiveliness, Value: encodeLiveliness(p.Liveliness, endian)},
		wire.Parameter{ID: pidDestinationOrder, Value: encodeUint32(uint32(p.DestinationOrder.Kind), endian)},
	)
	if len(p.Partition.Names) > 0 {
		params = append(params, wire.Parameter{ID: pidPartition, Value: encodePartition(p.Partition, endian)})
	}
	return params
}

// parseProfileParams decodes every policy appendProfileParams wrote,
// starting from qos.Default() so a sample that omits a policy (or
// that this implementation doesn't yet encode) still yields a usable
// profile.
func parseProfileParams(params []wire.Parameter, endian wire.Endian) qos.Profile {
	profile := qos.Default()
	if p, ok := wire.Find(params, pidDurability); ok {
		if v, err := decodeUint32(p.Value, endian); err == nil {
			profile.Durability.Kind = qos.DurabilityKind(v)
		}
	}
	if p, ok := wire.Find(params, pidReliability); ok {
		if rel, err := decodeReliability(p.Value, endian); err == nil {
			profile.Reliability = rel
		}
	}
	if p, ok := wire.Find(params, pidOwnership); ok {
		if v, err := decodeUint32(p.Value, endian); err == nil {
			profile.Ownership.Kind = qos.OwnershipKind(v)
		}
	}
	if p, ok := wire.Find(params, pidOwnershipStrength); ok {
		if v, err := decodeInt32(p.Value, endian); err == nil {
			profile.OwnershipStrength.Value = v
		}
	}
	if p, ok := wire.Find(params, pidDeadline); ok {
		if d, err := decodeRTPSDuration(p.Value, endian); err == nil {
			profile.Deadline.Period = d
		}
	}
	if p, ok := wire.Find(params, pidLatencyBudget); ok {
		if d, err := decodeRTPSDuration(p.Value, endian); err == nil {
			profile.LatencyBudget.Duration = d
		}
	}
	if p, ok := wire.Find(params, pidLiveliness); ok {
		if l, err := decodeLiveliness(p.Value, endian); err == nil {
			profile.Liveliness = l
		}
	}
	if p, ok := wire.Find(params, pidDestinationOrder); ok {
		if v, err := decodeUint32(p.Value, endian); err == nil {
			profile.DestinationOrder.Kind = qos.DestinationOrderKind(v)
		}
	}
	if p, ok := wire.Find(params, pidPartition); ok {
		if part, err := decodePartition(p.Value, endian); err == nil {
			profile.Partition = part
		}
	}
	return profile
}

// EncodeSpdpData serializes data as a PL_CDR parameter list prefixed
// by its 4-byte encapsulation header, ready to be carried as a DATA
// submessage's serialized payload (spec.md §4.3, §4.4).
func EncodeSpdpData(data SpdpDiscoveredParticipantData) []byte {
	endian := wire.LittleEndian
	var params []wire.Parameter
	params = append(params, wire.Parameter{ID: pidDomainId, Value: encodeUint32(data.Proxy.DomainId, endian)})
	if data.Proxy.DomainTag != "" {
		params = append(params, wire.Parameter{ID: pidDomainTag, Value: encodeString(data.Proxy.DomainTag, endian)})
	}
	params = append(params, wire.Parameter{ID: pidProtocolVersion, Value: []byte{data.Proxy.ProtocolMajor, data.Proxy.ProtocolMinor, 0, 0}})
	params = append(params, wire.Parameter{ID: pidVendorId, Value: []byte{data.Proxy.VendorId[0], data.Proxy.VendorId[1], 0, 0}})
	params = append(params, wire.Parameter{ID: pidParticipantGuid, Value: encodeGUID(guid.New(data.Proxy.GuidPrefix, guid.EntityIdParticipant))})
	for _, l := range data.Proxy.MetatrafficUnicastLocators {
		params = append(params, wire.Parameter{ID: pidMetatrafficUnicastLoc, Value: encodeLocator(l, endian)})
	}
	for _, l := range data.Proxy.MetatrafficMulticastLocators {
		params = append(params, wire.Parameter{ID: pidMetatrafficMulticastLoc, Value: encodeLocator(l, endian)})
	}
	for _, l := range data.Proxy.DefaultUnicastLocators {
		params = append(params, wire.Parameter{ID: pidDefaultUnicastLoc, Value: encodeLocator(l, endian)})
	}
	for _, l := range data.Proxy.DefaultMulticastLocators {
		params = append(params, wire.Parameter{ID: pidDefaultMulticastLoc, Value: encodeLocator(l, endian)})
	}
	params = append(params, wire.Parameter{ID: pidBuiltinEndpointSet, Value: encodeUint32(data.Proxy.AvailableBuiltinEndpoints, endian)})
	params = append(params, wire.Parameter{ID: pidParticipantLeaseDuration, Value: encodeRTPSDuration(types.DurationFromGo(data.Proxy.LeaseDuration), endian)})
	if len(data.ParticipantQos.Value) > 0 {
		params = append(params, wire.Parameter{ID: pidUserData, Value: encodeOctetSeq(data.ParticipantQos.Value, endian)})
	}

	body := wire.EncodeParameterList(params, endian)
	return append(wire.EncapsulationHeader{Scheme: wire.SchemePLCDRLE}.Encode(), body...)
}

// DecodeSpdpData parses an encapsulated SPDP parameter list back into
// a SpdpDiscoveredParticipantData.
func DecodeSpdpData(buf []byte) (SpdpDiscoveredParticipantData, error) {
	header, rest, err := wire.DecodeEncapsulationHeader(buf)
	if err != nil {
		return SpdpDiscoveredParticipantData{}, err
	}
	endian := header.Endian()
	params, err := wire.ParseParameterList(rest, endian)
	if err != nil {
		return SpdpDiscoveredParticipantData{}, err
	}

	var data SpdpDiscoveredParticipantData
	if p, ok := wire.Find(params, pidDomainId); ok {
		if v, err := decodeUint32(p.Value, endian); err == nil {
			data.Proxy.DomainId = v
		}
	}
	if p, ok := wire.Find(params, pidDomainTag); ok {
		if s, err := decodeString(p.Value, endian); err == nil {
			data.Proxy.DomainTag = s
		}
	}
	if p, ok := wire.Find(params, pidProtocolVersion); ok && len(p.Value) >= 2 {
		data.Proxy.ProtocolMajor, data.Proxy.ProtocolMinor = p.Value[0], p.Value[1]
	}
	if p, ok := wire.Find(params, pidVendorId); ok && len(p.Value) >= 2 {
		data.Proxy.VendorId[0], data.Proxy.VendorId[1] = p.Value[0], p.Value[1]
	}
	if p, ok := wire.Find(params, pidParticipantGuid); ok {
		if g, err := decodeGUID(p.Value); err == nil {
			data.Proxy.GuidPrefix = g.Prefix
		}
	}
	for _, p := range params {
		switch p.ID {
		case pidMetatrafficUnicastLoc:
			if l, err := decodeLocator(p.Value, endian); err == nil {
				data.Proxy.MetatrafficUnicastLocators = append(data.Proxy.MetatrafficUnicastLocators, l)
			}
		case pidMetatrafficMulticastLoc:
			if l, err := decodeLocator(p.Value, endian); err == nil {
				data.Proxy.MetatrafficMulticastLocators = append(data.Proxy.MetatrafficMulticastLocators, l)
			}
		case pidDefaultUnicastLoc:
			if l, err := decodeLocator(p.Value, endian); err == nil {
				data.Proxy.DefaultUnicastLocators = append(data.Proxy.DefaultUnicastLocators, l)
			}
		case pidDefaultMulticastLoc:
			if l, err := decodeLocator(p.Value, endian); err == nil {
				data.Proxy.DefaultMulticastLocators = append(data.Proxy.DefaultMulticastLocators, l)
			}
		}
	}
	if p, ok := wire.Find(params, pidBuiltinEndpointSet); ok {
		if v, err := decodeUint32(p.Value, endian); err == nil {
			data.Proxy.AvailableBuiltinEndpoints = v
		}
	}
	if p, ok := wire.Find(params, pidParticipantLeaseDuration); ok {
		if d, err := decodeRTPSDuration(p.Value, endian); err == nil {
			data.Proxy.LeaseDuration = d.ToGo()
		}
	}
	if p, ok := wire.Find(params, pidUserData); ok {
		if b, err := decodeOctetSeq(p.Value, endian); err == nil {
			data.ParticipantQos.Value = b
		}
	}
	return data, nil
}

func encodeEndpointParams(g guid.GUID, topic, typeName string, profile qos.Profile, unicast, multicast []types.Locator, endian wire.Endian) []wire.Parameter {
	params := []wire.Parameter{
		{ID: pidEndpointGuid, Value: encodeGUID(g)},
		{ID: pidTopicName, Value: encodeString(topic, endian)},
		{ID: pidTypeName, Value: encodeString(typeName, endian)},
	}
	for _, l := range unicast {
		params = append(params, wire.Parameter{ID: pidUnicastLoc, Value: encodeLocator(l, endian)})
	}
	for _, l := range multicast {
		params = append(params, wire.Parameter{ID: pidMulticastLoc, Value: encodeLocator(l, endian)})
	}
	return appendProfileParams(params, profile, endian)
}

func decodeEndpointParams(params []wire.Parameter, endian wire.Endian) (g guid.GUID, topic, typeName string, profile qos.Profile, unicast, multicast []types.Locator) {
	if p, ok := wire.Find(params, pidEndpointGuid); ok {
		if decoded, err := decodeGUID(p.Value); err == nil {
			g = decoded
		}
	}
	if p, ok := wire.Find(params, pidTopicName); ok {
		if s, err := decodeString(p.Value, endian); err == nil {
			topic = s
		}
	}
	if p, ok := wire.Find(params, pidTypeName); ok {
		if s, err := decodeString(p.Value, endian); err == nil {
			typeName = s
		}
	}
	for _, p := range params {
		switch p.ID {
		case pidUnicastLoc:
			if l, err := decodeLocator(p.Value, endian); err == nil {
				unicast = append(unicast, l)
			}
		case pidMulticastLoc:
			if l, err := decodeLocator(p.Value, endian); err == nil {
				multicast = append(multicast, l)
			}
		}
	}
	profile = parseProfileParams(params, endian)
	return
}

// EncodeDiscoveredWriterData serializes data the same way EncodeSpdpData
// does, for the SEDP-publications builtin topic.
func EncodeDiscoveredWriterData(data DiscoveredWriterData) []byte {
	endian := wire.LittleEndian
	params := encodeEndpointParams(data.EndpointGUID, data.TopicName, data.TypeName, data.QosProfile, data.UnicastLocators, data.MulticastLocators, endian)
	body := wire.EncodeParameterList(params, endian)
	return append(wire.EncapsulationHeader{Scheme: wire.SchemePLCDRLE}.Encode(), body...)
}

// DecodeDiscoveredWriterData parses the SEDP-publications wire form.
func DecodeDiscoveredWriterData(buf []byte) (DiscoveredWriterData, error) {
	header, rest, err := wire.DecodeEncapsulationHeader(buf)
	if err != nil {
		return DiscoveredWriterData{}, err
	}
	endian := header.Endian()
	params, err := wire.ParseParameterList(rest, endian)
	if err != nil {
		return DiscoveredWriterData{}, err
	}
	g, topic, typeName, profile, unicast, multicast := decodeEndpointParams(params, endian)
	return DiscoveredWriterData{
		EndpointGUID: g, TopicName: topic, TypeName: typeName, QosProfile: profile,
		UnicastLocators: unicast, MulticastLocators: multicast,
	}, nil
}

// EncodeDiscoveredReaderData serializes data for the SEDP-subscriptions
// builtin topic.
func EncodeDiscoveredReaderData(data DiscoveredReaderData) []byte {
	endian := wire.LittleEndian
	params := encodeEndpointParams(data.EndpointGUID, data.TopicName, data.TypeName, data.QosProfile, data.UnicastLocators, data.MulticastLocators, endian)
	body := wire.EncodeParameterList(params, endian)
	return append(wire.EncapsulationHeader{Scheme: wire.SchemePLCDRLE}.Encode(), body...)
}

// DecodeDiscoveredReaderData parses the SEDP-subscriptions wire form.
func DecodeDiscoveredReaderData(buf []byte) (DiscoveredReaderData, error) {
	header, rest, err := wire.DecodeEncapsulationHeader(buf)
	if err != nil {
		return DiscoveredReaderData{}, err
	}
	endian := header.Endian()
	params, err := wire.ParseParameterList(rest, endian)
	if err != nil {
		return DiscoveredReaderData{}, err
	}
	g, topic, typeName, profile, unicast, multicast := decodeEndpointParams(params, endian)
	return DiscoveredReaderData{
		EndpointGUID: g, TopicName: topic, TypeName: typeName, QosProfile: profile,
		UnicastLocators: unicast, MulticastLocators: multicast,
	}, nil
}
