// SPDX-FileCopyrightText: © 2026 corvid authors
// SPDX-License-Identifier: AGPL-3.0-only

package wire

import (
	"github.com/corvidds/corvid/rtps/guid"
	"github.com/corvidds/corvid/rtps/types"
)

// Submessage flag bits, shared meaning across kinds (the endianness
// bit is universal; the others are kind-specific and documented next
// to each struct below).
const (
	FlagInlineQos byte = 0x02 // DATA, DATA_FRAG: Q
	FlagData      byte = 0x04 // DATA: D
	FlagKey       byte = 0x08 // DATA: K
	FlagFinal     byte = 0x02 // HEARTBEAT, ACKNACK: F
	FlagLiveliness byte = 0x04 // HEARTBEAT: L
	FlagInvalidate byte = 0x02 // INFO_TS: Invalidate
)

// putSequenceNumber writes an RTPS SequenceNumber as (high int32, low
// uint32), the wire form of a 64-bit signed counter (DDS-RTPS §9.4.5.7).
func putSequenceNumber(w *Writer, sn types.SequenceNumber) {
	w.PutInt32(int32(int64(sn) >> 32))
	w.PutUint32(uint32(int64(sn) & 0xffffffff))
}

func getSequenceNumber(r *Reader) (types.SequenceNumber, error) {
	hi, err := r.GetInt32()
	if err != nil {
		return 0, err
	}
	lo, err := r.GetUint32()
	if err != nil {
		return 0, err
	}
	return types.SequenceNumber(int64(hi)<<32 | int64(lo)), nil
}

// putSequenceNumberSet writes a SequenceNumberSet as: bitmapBase(8),
// numBits(4), then ceil(numBits/32) bitmap words, each bit i set iff
// (base+i) is a member (DDS-RTPS §9.4.2.6).
func putSequenceNumberSet(w *Writer, set types.SequenceNumberSet, numBits uint32) {
	putSequenceNumber(w, set.Base)
	w.PutUint32(numBits)
	nwords := (numBits + 31) / 32
	for word := uint32(0); word < nwords; word++ {
		var v uint32
		for bit := uint32(0); bit < 32; bit++ {
			idx := word*32 + bit
			if idx >= numBits {
				break
			}
			if set.Contains(set.Base + types.SequenceNumber(idx)) {
				v |= 1 << (31 - bit)
			}
		}
		w.PutUint32(v)
	}
}

func getSequenceNumberSet(r *Reader) (types.SequenceNumberSet, error) {
	base, err := getSequenceNumber(r)
	if err != nil {
		return types.SequenceNumberSet{}, err
	}
	numBits, err := r.GetUint32()
	if err != nil {
		return types.SequenceNumberSet{}, err
	}
	set := types.NewSequenceNumberSet(base)
	nwords := (numBits + 31) / 32
	for word := uint32(0); word < nwords; word++ {
		v, err := r.GetUint32()
		if err != nil {
			return types.SequenceNumberSet{}, err
		}
		for bit := uint32(0); bit < 32; bit++ {
			idx := word*32 + bit
			if idx >= numBits {
				break
			}
			if v&(1<<(31-bit)) != 0 {
				set.Bitmap[base+types.SequenceNumber(idx)] = struct{}{}
			}
		}
	}
	return set, nil
}

// Data is the DATA submessage body: delivers (or announces, with no
// payload, for a dispose/unregister) one cache change.
type Data struct {
	ReaderId      guid.EntityId
	WriterId      guid.EntityId
	WriterSN      types.SequenceNumber
	InlineQos     []byte // encoded ParameterList, empty if FlagInlineQos unset
	SerializedPayload []byte
}

// EncodeData serializes a Data body. endian selects the byte order;
// the caller ORs FlagEndianness/FlagInlineQos/FlagData into the
// submessage flags to match what was actually written.
func EncodeData(d Data, endian Endian, hasInlineQos, hasPayload bool) []byte {
	w := NewWriter(endian, 4) // origin=4: submessage header already written
	w.PutUint16(0)            // extraFlags
	octetsToInlineQosPos := w.Len()
	w.PutUint16(0) // octetsToInlineQos placeholder
	w.PutRaw(d.ReaderId[:])
	w.PutRaw(d.WriterId[:])
	putSequenceNumber(w, d.WriterSN)

	afterHeader := w.Len()
	octetsToInlineQos := afterHeader - (octetsToInlineQosPos + 2)
	buf := w.Bytes()
	endian.order().PutUint16(buf[octetsToInlineQosPos:], uint16(octetsToInlineQos))

	if hasInlineQos {
		w.PutRaw(d.InlineQos)
	}
	if hasPayload {
		w.PutRaw(d.SerializedPayload)
	}
	return w.Bytes()
}

// DecodeData parses a Data body given the submessage's flags.
func DecodeData(buf []byte, endian Endian, flags byte) (Data, error) {
	r := NewReader(buf, endian, 4)
	if _, err := r.GetUint16(); err != nil { // extraFlags
		return Data{}, err
	}
	octetsToInlineQos, err := r.GetUint16()
	if err != nil {
		return Data{}, err
	}
	readerRaw, err := r.GetRaw(4)
	if err != nil {
		return Data{}, err
	}
	writerRaw, err := r.GetRaw(4)
	if err != nil {
		return Data{}, err
	}
	sn, err := getSequenceNumber(r)
	if err != nil {
		return Data{}, err
	}

	var d Data
	copy(d.ReaderId[:], readerRaw)
	copy(d.WriterId[:], writerRaw)
	d.WriterSN = sn

	_ = octetsToInlineQos // the remainder of buf after the fixed header is inline QoS + payload

	if flags&FlagInlineQos != 0 {
		qosBuf, rest, err := DecodeParameterList(buf[r.pos:], endian)
		if err != nil {
			return Data{}, err
		}
		d.InlineQos = qosBuf
		r.pos = len(buf) - len(rest)
	}
	if flags&FlagData != 0 || flags&FlagKey != 0 {
		d.SerializedPayload = append([]byte(nil), buf[r.pos:]...)
	}
	return d, nil
}

// Heartbeat is the HEARTBEAT submessage body: a reliable writer's
// periodic announcement of its retained sequence number range.
type Heartbeat struct {
	ReaderId guid.EntityId
	WriterId guid.EntityId
	FirstSN  types.SequenceNumber
	LastSN   types.SequenceNumber
	Count    uint32
}

func EncodeHeartbeat(h Heartbeat, endian Endian) []byte {
	w := NewWriter(endian, 4)
	w.PutRaw(h.ReaderId[:])
	w.PutRaw(h.WriterId[:])
	putSequenceNumber(w, h.FirstSN)
	putSequenceNumber(w, h.LastSN)
	w.PutUint32(h.Count)
	return w.Bytes()
}

func DecodeHeartbeat(buf []byte, endian Endian) (Heartbeat, error) {
	r := NewReader(buf, endian, 4)
	var h Heartbeat
	readerRaw, err := r.GetRaw(4)
	if err != nil {
		return h, err
	}
	writerRaw, err := r.GetRaw(4)
	if err != nil {
		return h, err
	}
	copy(h.ReaderId[:], readerRaw)
	copy(h.WriterId[:], writerRaw)
	if h.FirstSN, err = getSequenceNumber(r); err != nil {
		return h, err
	}
	if h.LastSN, err = getSequenceNumber(r); err != nil {
		return h, err
	}
	if h.Count, err = r.GetUint32(); err != nil {
		return h, err
	}
	return h, nil
}

// AckNack is the ACKNACK submessage body: a reliable reader's
// acknowledgement plus the sequence numbers it is still missing.
type AckNack struct {
	ReaderId     guid.EntityId
	WriterId     guid.EntityId
	ReaderSNState types.SequenceNumberSet
	NumBits      uint32
	Count        uint32
}

func EncodeAckNack(a AckNack, endian Endian) []byte {
	w := NewWriter(endian, 4)
	w.PutRaw(a.ReaderId[:])
	w.PutRaw(a.WriterId[:])
	putSequenceNumberSet(w, a.ReaderSNState, a.NumBits)
	w.PutUint32(a.Count)
	return w.Bytes()
}

func DecodeAckNack(buf []byte, endian Endian) (AckNack, error) {
	r := NewReader(buf, endian, 4)
	var a AckNack
	readerRaw, err := r.GetRaw(4)
	if err != nil {
		return a, err
	}
	writerRaw, err := r.GetRaw(4)
	if err != nil {
		return a, err
	}
	copy(a.ReaderId[:], readerRaw)
	copy(a.WriterId[:], writerRaw)
	set, err := getSequenceNumberSet(r)
	if err != nil {
		return a, err
	}
	a.ReaderSNState = set
	if a.Count, err = r.GetUint32(); err != nil {
		return a, err
	}
	return a, nil
}

// Gap is the GAP submessage body: informs a reader that a range of
// sequence numbers will never be sent (irrelevant, not missing).
type Gap struct {
	ReaderId guid.EntityId
	WriterId guid.EntityId
	GapStart types.SequenceNumber
	GapList  types.SequenceNumberSet
	NumBits  uint32
}

func EncodeGap(g Gap, endian Endian) []byte {
	w := NewWriter(endian, 4)
	w.PutRaw(g.ReaderId[:])
	w.PutRaw(g.WriterId[:])
	putSequenceNumber(w, g.GapStart)
	putSequenceNumberSet(w, g.GapList, g.NumBits)
	return w.Bytes()
}

func DecodeGap(buf []byte, endian Endian) (Gap, error) {
	r := NewReader(buf, endian, 4)
	var g Gap
	readerRaw, err := r.GetRaw(4)
	if err != nil {
		return g, err
	}
	writerRaw, err := r.GetRaw(4)
	if err != nil {
		return g, err
	}
	copy(g.ReaderId[:], readerRaw)
	copy(g.WriterId[:], writerRaw)
	if g.GapStart, err = getSequenceNumber(r); err != nil {
		return g, err
	}
	set, err := getSequenceNumberSet(r)
	if err != nil {
		return g, err
	}
	g.GapList = set
	return g, nil
}

// InfoTs is the INFO_TS submessage: sets the source timestamp applied
// to subsequent DATA submessages in the same message.
type InfoTs struct {
	Timestamp types.Timestamp
}

func EncodeInfoTs(t InfoTs, endian Endian) []byte {
	w := NewWriter(endian, 4)
	w.PutUint32(t.Timestamp.Sec)
	w.PutUint32(t.Timestamp.Frac)
	return w.Bytes()
}

func DecodeInfoTs(buf []byte, endian Endian) (InfoTs, error) {
	r := NewReader(buf, endian, 4)
	var t InfoTs
	var err error
	if t.Timestamp.Sec, err = r.GetUint32(); err != nil {
		return t, err
	}
	if t.Timestamp.Frac, err = r.GetUint32(); err != nil {
		return t, err
	}
	return t, nil
}

// InfoDst is the INFO_DST submessage: restricts processing of
// subsequent submessages to the given destination guid prefix.
type InfoDst struct {
	GuidPrefix guid.GuidPrefix
}

func EncodeInfoDst(d InfoDst) []byte {
	w := NewWriter(BigEndian, 4)
	w.PutRaw(d.GuidPrefix[:])
	return w.Bytes()
}

func DecodeInfoDst(buf []byte) (InfoDst, error) {
	var d InfoDst
	if len(buf) < guid.PrefixLength {
		return d, ErrShortBuffer
	}
	copy(d.GuidPrefix[:], buf[:guid.PrefixLength])
	return d, nil
}

// DataFrag is the DATA_FRAG submessage body: one or more fragments of
// a DATA payload too large for data_max_size_serialized.
type DataFrag struct {
	ReaderId              guid.EntityId
	WriterId              guid.EntityId
	WriterSN              types.SequenceNumber
	FragmentStartingNum   uint32
	FragmentsInSubmessage uint16
	FragmentSize          uint16
	SampleSize            uint32
	InlineQos             []byte
	FragmentContents      []byte
}

func EncodeDataFrag(d DataFrag, endian Endian, hasInlineQos bool) []byte {
	w := NewWriter(endian, 4)
	w.PutUint16(0) // extraFlags
	octetsToInlineQosPos := w.Len()
	w.PutUint16(0)
	w.PutRaw(d.ReaderId[:])
	w.PutRaw(d.WriterId[:])
	putSequenceNumber(w, d.WriterSN)
	w.PutUint32(d.FragmentStartingNum)
	w.PutUint16(d.FragmentsInSubmessage)
	w.PutUint16(d.FragmentSize)
	w.PutUint32(d.SampleSize)

	afterHeader := w.Len()
	octetsToInlineQos := afterHeader - (octetsToInlineQosPos + 2)
	buf := w.Bytes()
	endian.order().PutUint16(buf[octetsToInlineQosPos:], uint16(octetsToInlineQos))

	if hasInlineQos {
		w.PutRaw(d.InlineQos)
	}
	w.PutRaw(d.FragmentContents)
	return w.Bytes()
}

func DecodeDataFrag(buf []byte, endian Endian, flags byte) (DataFrag, error) {
	r := NewReader(buf, endian, 4)
	var d DataFrag
	if _, err := r.GetUint16(); err != nil {
		return d, err
	}
	if _, err := r.GetUint16(); err != nil {
		return d, err
	}
	readerRaw, err := r.GetRaw(4)
	if err != nil {
		return d, err
	}
	writerRaw, err := r.GetRaw(4)
	if err != nil {
		return d, err
	}
	copy(d.ReaderId[:], readerRaw)
	copy(d.WriterId[:], writerRaw)
	if d.WriterSN, err = getSequenceNumber(r); err != nil {
		return d, err
	}
	if d.FragmentStartingNum, err = r.GetUint32(); err != nil {
		return d, err
	}
	if d.FragmentsInSubmessage, err = r.GetUint16(); err != nil {
		return d, err
	}
	if d.FragmentSize, err = r.GetUint16(); err != nil {
		return d, err
	}
	if d.SampleSize, err = r.GetUint32(); err != nil {
		return d, err
	}
	if flags&FlagInlineQos != 0 {
		qosBuf, rest, err := DecodeParameterList(buf[r.pos:], endian)
		if err != nil {
			return d, err
		}
		d.InlineQos = qosBuf
		r.pos = len(buf) - len(rest)
	}
	d.FragmentContents = append([]byte(nil), buf[r.pos:]...)
	return d, nil
}

// HeartbeatFrag is the HEARTBEAT_FRAG submessage body.
type HeartbeatFrag struct {
	ReaderId        guid.EntityId
	WriterId        guid.EntityId
	WriterSN        types.SequenceNumber
	LastFragmentNum uint32
	Count           uint32
}

func EncodeHeartbeatFrag(h HeartbeatFrag, endian Endian) []byte {
	w := NewWriter(endian, 4)
	w.PutRaw(h.ReaderId[:])
	w.PutRaw(h.WriterId[:])
	putSequenceNumber(w, h.WriterSN)
	w.PutUint32(h.LastFragmentNum)
	w.PutUint32(h.Count)
	return w.Bytes()
}

func DecodeHeartbeatFrag(buf []byte, endian Endian) (HeartbeatFrag, error) {
	r := NewReader(buf, endian, 4)
	var h HeartbeatFrag
	readerRaw, err := r.GetRaw(4)
	if err != nil {
		return h, err
	}
	writerRaw, err := r.GetRaw(4)
	if err != nil {
		return h, err
	}
	copy(h.ReaderId[:], readerRaw)
	copy(h.WriterId[:], writerRaw)
	var err2 error
	if h.WriterSN, err2 = getSequenceNumber(r); err2 != nil {
		return h, err2
	}
	if h.LastFragmentNum, err2 = r.GetUint32(); err2 != nil {
		return h, err2
	}
	if h.Count, err2 = r.GetUint32(); err2 != nil {
		return h, err2
	}
	return h, nil
}

// NackFrag is the NACK_FRAG submessage body: requests retransmission
// of a range of fragment numbers for one (writer, sequence number).
type NackFrag struct {
	ReaderId           guid.EntityId
	WriterId           guid.EntityId
	WriterSN           types.SequenceNumber
	FragmentNumberState map[uint32]struct{}
	FragmentBase       uint32
	NumBits            uint32
	Count              uint32
}

func EncodeNackFrag(n NackFrag, endian Endian) []byte {
	w := NewWriter(endian, 4)
	w.PutRaw(n.ReaderId[:])
	w.PutRaw(n.WriterId[:])
	putSequenceNumber(w, n.WriterSN)
	w.PutUint32(n.FragmentBase)
	w.PutUint32(n.NumBits)
	nwords := (n.NumBits + 31) / 32
	for word := uint32(0); word < nwords; word++ {
		var v uint32
		for bit := uint32(0); bit < 32; bit++ {
			idx := word*32 + bit
			if idx >= n.NumBits {
				break
			}
			if _, ok := n.FragmentNumberState[n.FragmentBase+idx]; ok {
				v |= 1 << (31 - bit)
			}
		}
		w.PutUint32(v)
	}
	w.PutUint32(n.Count)
	return w.Bytes()
}

func DecodeNackFrag(buf []byte, endian Endian) (NackFrag, error) {
	r := NewReader(buf, endian, 4)
	var n NackFrag
	readerRaw, err := r.GetRaw(4)
	if err != nil {
		return n, err
	}
	writerRaw, err := r.GetRaw(4)
	if err != nil {
		return n, err
	}
	copy(n.ReaderId[:], readerRaw)
	copy(n.WriterId[:], writerRaw)
	if n.WriterSN, err = getSequenceNumber(r); err != nil {
		return n, err
	}
	if n.FragmentBase, err = r.GetUint32(); err != nil {
		return n, err
	}
	if n.NumBits, err = r.GetUint32(); err != nil {
		return n, err
	}
	n.FragmentNumberState = make(map[uint32]struct{})
	nwords := (n.NumBits + 31) / 32
	for word := uint32(0); word < nwords; word++ {
		v, err := r.GetUint32()
		if err != nil {
			return n, err
		}
		for bit := uint32(0); bit < 32; bit++ {
			idx := word*32 + bit
			if idx >= n.NumBits {
				break
			}
			if v&(1<<(31-bit)) != 0 {
				n.FragmentNumberState[n.FragmentBase+idx] = struct{}{}
			}
		}
	}
	if n.Count, err = r.GetUint32(); err != nil {
		return n, err
	}
	return n, nil
}
