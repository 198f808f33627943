// SPDX-FileCopyrightText: © 2026 corvid authors
// SPDX-License-Identifier: AGPL-3.0-only
package wire

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCDRPrimitivesRoundTrip(t *testing.T) {
	for _, endian := range []Endian{BigEndian, LittleEndian} {
		w := NewWriter(endian, 0)
		w.PutUint8(0x7f)
		w.PutUint16(0xbeef)
		w.PutUint32(0xdeadbeef)
		w.PutInt32(-42)
		w.PutUint64(0x0102030405060708)
		w.PutInt64(-1)
		w.PutString("hello")
		w.PutOctetSeq([]byte{1, 2, 3, 4, 5})

		r := NewReader(w.Bytes(), endian, 0)

		u8, err := r.GetUint8()
		require.NoError(t, err)
		require.Equal(t, uint8(0x7f), u8)

		u16, err := r.GetUint16()
		require.NoError(t, err)
		require.Equal(t, uint16(0xbeef), u16)

		u32, err := r.GetUint32()
		require.NoError(t, err)
		require.Equal(t, uint32(0xdeadbeef), u32)

		i32, err := r.GetInt32()
		require.NoError(t, err)
		require.Equal(t, int32(-42), i32)

		u64, err := r.GetUint64()
		require.NoError(t, err)
		require.Equal(t, uint64(0x0102030405060708), u64)

		i64, err := r.GetInt64()
		require.NoError(t, err)
		require.Equal(t, int64(-1), i64)

		s, err := r.GetString()
		require.NoError(t, err)
		require.Equal(t, "hello", s)

		seq, err := r.GetOctetSeq()
		require.NoError(t, err)
		require.Equal(t, []byte{1, 2, 3, 4, 5}, seq)

		require.Equal(t, 0, r.Remaining())
	}
}

func TestCDRAlignmentIsRelativeToOrigin(t *testing.T) {
	// A Writer started at a non-zero origin must still pad so that its
	// first uint32 lands on an absolute 4-byte boundary, not a boundary
	// relative to its own empty buffer.
	w := NewWriter(LittleEndian, 1)
	w.PutUint32(7)
	// origin=1 plus 3 bytes of alignment padding precedes the 4 payload
	// bytes.
	require.Equal(t, 7, len(w.Bytes()))

	r := NewReader(w.Bytes(), LittleEndian, 1)
	v, err := r.GetUint32()
	require.NoError(t, err)
	require.Equal(t, uint32(7), v)
}

func TestCDRShortBuffer(t *testing.T) {
	r := NewReader([]byte{1, 2}, LittleEndian, 0)
	_, err := r.GetUint32()
	require.ErrorIs(t, err, ErrShortBuffer)
}
