// SPDX-FileCopyrightText: © 2026 corvid authors
// SPDX-License-Identifier: AGPL-3.0-only

package wire

import "github.com/corvidds/corvid/corvidlog"

var log = corvidlog.New("wire")

// Submessage is one decoded submessage: its header, plus the raw body
// bytes (still to be decoded into a kind-specific struct by the
// caller, which knows what context — current INFO_DST, current
// INFO_TS — to apply).
type Submessage struct {
	Header SubmessageHeader
	Body   []byte
}

// Message is a fully decoded RTPS datagram.
type Message struct {
	Header      Header
	Submessages []Submessage
}

// EncodeMessage serializes header followed by every submessage body,
// computing each submessage's octets_to_next_header and padding the
// body to a 4-byte boundary (per spec.md §4.3's round-trip law,
// padding is added but never counted as "more data", matching a
// decoder that trusts octets_to_next_header over raw length).
func EncodeMessage(h Header, bodies []struct {
	Kind  byte
	Flags byte
	Body  []byte
}) []byte {
	out := h.Encode()
	for _, sm := range bodies {
		padded := sm.Body
		if n := PadTo4(len(padded)); n > 0 {
			padded = append(append([]byte(nil), padded...), make([]byte, n)...)
		}
		out = append(out, EncodeSubmessageHeader(sm.Kind, sm.Flags, uint16(len(padded)))...)
		out = append(out, padded...)
	}
	return out
}

// DecodeMessage parses a full RTPS datagram into its header and
// submessages. Unknown submessage kinds are retained (their Body is
// the raw bytes) so a caller can skip them per spec.md §7's "offending
// submessage is skipped, remaining submessages still processed".
func DecodeMessage(buf []byte) (Message, error) {
	h, rest, err := DecodeHeader(buf)
	if err != nil {
		return Message{}, err
	}
	msg := Message{Header: h}
	for len(rest) > 0 {
		if len(rest) < 4 {
			log.Warnf("truncated submessage header, %d bytes remaining, skipping", len(rest))
			break
		}
		smh, err := DecodeSubmessageHeader(rest)
		if err != nil {
			log.Warnf("malformed submessage header: %v", err)
			break
		}
		rest = rest[4:]
		n := int(smh.OctetsToNextHeader)
		if n > len(rest) {
			log.Warnf("submessage length %d exceeds remaining buffer %d, skipping", n, len(rest))
			break
		}
		body := rest[:n]
		rest = rest[n:]
		msg.Submessages = append(msg.Submessages, Submessage{Header: smh, Body: body})
	}
	return msg, nil
}
