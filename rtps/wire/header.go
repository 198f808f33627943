// SPDX-FileCopyrightText: © 2026 corvid authors
// SPDX-License-Identifier: AGPL-3.0-only

package wire

import (
	"errors"

	"github.com/corvidds/corvid/rtps/guid"
)

// ProtocolId is the RTPS magic number.
var ProtocolId = [4]byte{'R', 'T', 'P', 'S'}

// ProtocolVersion is the version this codec implements.
var ProtocolVersion = struct{ Major, Minor uint8 }{2, 4}

// HeaderLength is the fixed size of the RTPS message header.
const HeaderLength = 20

// VendorId identifies this implementation on the wire. Vendor ids are
// assigned by the OMG; an unregistered implementation uses the
// "vendor unknown" value reserved for experimentation.
var VendorId = [2]byte{0x00, 0x00}

// Header is the 20-byte preamble of every RTPS message.
type Header struct {
	VendorId   [2]byte
	GuidPrefix guid.GuidPrefix
}

// ErrBadMagic is returned when a buffer does not begin with "RTPS".
var ErrBadMagic = errors.New("wire: bad RTPS magic")

// ErrBadVersion is returned when a message declares an unsupported
// protocol version's major number.
var ErrBadVersion = errors.New("wire: unsupported protocol version")

// Encode writes the 20-byte header to buf.
func (h Header) Encode() []byte {
	buf := make([]byte, 0, HeaderLength)
	buf = append(buf, ProtocolId[:]...)
	buf = append(buf, ProtocolVersion.Major, ProtocolVersion.Minor)
	buf = append(buf, h.VendorId[:]...)
	buf = append(buf, h.GuidPrefix[:]...)
	return buf
}

// DecodeHeader parses the 20-byte header from the start of buf,
// returning the header and the remaining bytes.
func DecodeHeader(buf []byte) (Header, []byte, error) {
	if len(buf) < HeaderLength {
		return Header{}, nil, ErrShortBuffer
	}
	if string(buf[0:4]) != string(ProtocolId[:]) {
		return Header{}, nil, ErrBadMagic
	}
	if buf[4] != ProtocolVersion.Major {
		return Header{}, nil, ErrBadVersion
	}
	var h Header
	copy(h.VendorId[:], buf[6:8])
	copy(h.GuidPrefix[:], buf[8:20])
	return h, buf[HeaderLength:], nil
}

// Submessage kinds (DDS-RTPS §9.4.5.1.1).
const (
	KindPad           byte = 0x01
	KindAckNack       byte = 0x06
	KindHeartbeat     byte = 0x07
	KindGap           byte = 0x08
	KindInfoTs        byte = 0x09
	KindInfoSrc       byte = 0x0c
	KindInfoReply     byte = 0x0f
	KindInfoDst       byte = 0x0e
	KindData          byte = 0x15
	KindDataFrag      byte = 0x16
	KindNackFrag      byte = 0x12
	KindHeartbeatFrag byte = 0x13
)

// FlagEndianness is bit 0 of every submessage's flags octet.
const FlagEndianness byte = 0x01

// SubmessageHeader is the 4-byte header preceding every submessage
// body.
type SubmessageHeader struct {
	Kind               byte
	Flags              byte
	OctetsToNextHeader uint16
}

// Endian reports the byte order the submessage body is encoded in.
func (h SubmessageHeader) Endian() Endian {
	if h.Flags&FlagEndianness != 0 {
		return LittleEndian
	}
	return BigEndian
}

// EncodeSubmessageHeader writes a 4-byte submessage header. The
// octetsToNextHeader field is filled in by the caller once the body
// length is known (submessage bodies are length-prefixed so a
// receiver unfamiliar with a submessage kind can skip it, per
// spec.md §4.2's "unknown submessage" skip policy).
func EncodeSubmessageHeader(kind, flags byte, octetsToNextHeader uint16) []byte {
	buf := make([]byte, 4)
	buf[0] = kind
	buf[1] = flags
	// submessage header length fields always use the submessage's own
	// endianness, given by the E flag in flags.
	SubmessageHeader{Flags: flags}.Endian().order().PutUint16(buf[2:], octetsToNextHeader)
	return buf
}

// DecodeSubmessageHeader parses a 4-byte submessage header from the
// start of buf.
func DecodeSubmessageHeader(buf []byte) (SubmessageHeader, error) {
	if len(buf) < 4 {
		return SubmessageHeader{}, ErrShortBuffer
	}
	h := SubmessageHeader{Kind: buf[0], Flags: buf[1]}
	h.OctetsToNextHeader = h.Endian().order().Uint16(buf[2:4])
	return h, nil
}

// PadTo4 returns the number of zero bytes needed to align n to a
// 4-byte boundary, the rule RTPS submessages are padded under
// (spec.md §4.3's "round-trip ... modulo octets_to_next_header padding
// rules").
func PadTo4(n int) int {
	return (4 - n%4) % 4
}
