// SPDX-FileCopyrightText: © 2026 corvid authors
// SPDX-License-Identifier: AGPL-3.0-only
package wire

import (
	"testing"

	"github.com/corvidds/corvid/rtps/guid"
	"github.com/stretchr/testify/require"
)

func TestHeaderRoundTrip(t *testing.T) {
	h := Header{VendorId: [2]byte{0x01, 0x02}, GuidPrefix: guid.GuidPrefix{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}}
	buf := h.Encode()
	require.Equal(t, HeaderLength, len(buf))

	got, rest, err := DecodeHeader(buf)
	require.NoError(t, err)
	require.Equal(t, h, got)
	require.Empty(t, rest)
}

func TestDecodeHeaderBadMagic(t *testing.T) {
	buf := make([]byte, HeaderLength)
	copy(buf, []byte("XXXX"))
	_, _, err := DecodeHeader(buf)
	require.ErrorIs(t, err, ErrBadMagic)
}

func TestEncodeMessagePadsBodyTo4Bytes(t *testing.T) {
	h := Header{VendorId: VendorId, GuidPrefix: guid.GuidPrefix{}}
	buf := EncodeMessage(h, []struct {
		Kind  byte
		Flags byte
		Body  []byte
	}{
		{Kind: KindPad, Flags: FlagEndianness, Body: []byte{1, 2, 3}},
	})

	msg, err := DecodeMessage(buf)
	require.NoError(t, err)
	require.Len(t, msg.Submessages, 1)
	sm := msg.Submessages[0]
	require.Equal(t, KindPad, sm.Header.Kind)
	// body padded from 3 to 4 bytes, with a trailing zero.
	require.Equal(t, []byte{1, 2, 3, 0}, sm.Body)
}

func TestDecodeMessageMultipleSubmessages(t *testing.T) {
	h := Header{VendorId: VendorId, GuidPrefix: guid.GuidPrefix{9}}
	buf := EncodeMessage(h, []struct {
		Kind  byte
		Flags byte
		Body  []byte
	}{
		{Kind: KindPad, Flags: FlagEndianness, Body: []byte{1, 2, 3, 4}},
		{Kind: KindGap, Flags: FlagEndianness, Body: []byte{5, 6, 7, 8}},
	})

	msg, err := DecodeMessage(buf)
	require.NoError(t, err)
	require.Equal(t, h, msg.Header)
	require.Len(t, msg.Submessages, 2)
	require.Equal(t, KindPad, msg.Submessages[0].Header.Kind)
	require.Equal(t, KindGap, msg.Submessages[1].Header.Kind)
}

func TestDecodeMessageTruncatedSubmessageHeaderStopsButDoesNotError(t *testing.T) {
	h := Header{VendorId: VendorId}
	buf := append(h.Encode(), 0x01, 0x02) // 2 stray bytes, not a full submessage header
	msg, err := DecodeMessage(buf)
	require.NoError(t, err)
	require.Empty(t, msg.Submessages)
}
