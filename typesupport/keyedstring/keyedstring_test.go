// SPDX-FileCopyrightText: © 2026 corvid authors
// SPDX-License-Identifier: AGPL-3.0-only
package keyedstring

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSerializeDeserializeRoundTrip(t *testing.T) {
	d := Descriptor()
	sample := Sample{Key: "widget-1", Value: "on"}

	buf, err := d.Serialize(sample)
	require.NoError(t, err)

	got, err := d.Deserialize(buf)
	require.NoError(t, err)
	require.Equal(t, sample, got)
}

func TestKeyOfExtractsOnlyTheKeyField(t *testing.T) {
	d := Descriptor()
	buf, err := d.Serialize(Sample{Key: "k", Value: "a much longer value string"})
	require.NoError(t, err)

	keyBuf := d.KeyOf(buf)

	// the key-only prefix must itself decode back to just the key.
	half := Descriptor()
	gotKey, err := half.Deserialize(append(keyBuf, encodeEmptyString()...))
	require.NoError(t, err)
	require.Equal(t, "k", gotKey.(Sample).Key)
}

// encodeEmptyString returns the CDR encoding of "" as it follows the
// 6-byte encoding of key "k": two bytes of padding to the next 4-byte
// boundary, the length 1, then the NUL terminator.
func encodeEmptyString() []byte {
	return []byte{0, 0, 0, 0, 0, 1, 0}
}
