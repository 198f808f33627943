// SPDX-FileCopyrightText: © 2026 corvid authors
// SPDX-License-Identifier: AGPL-3.0-only

// Package keyedstring is a reference typesupport.Descriptor for a
// minimal keyed sample type: {Key string, Value string}, Key marked
// @key. It exists to exercise the typesupport boundary end-to-end in
// tests and examples without pulling in an IDL compiler.
package keyedstring

import (
	"github.com/corvidds/corvid/rtps/wire"
	"github.com/corvidds/corvid/typesupport"
)

// TypeName is the registered name for Sample.
const TypeName = "corvid::keyedstring::Sample"

// Sample is the reference keyed type: Key is the @key field, Value is
// unkeyed payload.
type Sample struct {
	Key   string
	Value string
}

// Descriptor returns a fresh typesupport.Descriptor for Sample. Callers
// such as cmd/corvidd register it via typesupport.Register, which is a
// no-op past the first identical registration; DomainParticipant does
// not register it itself.
func Descriptor() typesupport.Descriptor {
	return typesupport.Descriptor{
		TypeName: TypeName,
		HasKey:   true,
		Serialize: func(sample interface{}) ([]byte, error) {
			s := sample.(Sample)
			w := wire.NewWriter(wire.BigEndian, 0)
			w.PutString(s.Key)
			w.PutString(s.Value)
			return w.Bytes(), nil
		},
		Deserialize: func(data []byte) (interface{}, error) {
			r := wire.NewReader(data, wire.BigEndian, 0)
			key, err := r.GetString()
			if err != nil {
				return nil, err
			}
			value, err := r.GetString()
			if err != nil {
				return nil, err
			}
			return Sample{Key: key, Value: value}, nil
		},
		KeyOf: func(serialized []byte) []byte {
			r := wire.NewReader(serialized, wire.BigEndian, 0)
			before := r.Remaining()
			_, _ = r.GetString()
			keyLen := before - r.Remaining()
			return serialized[:keyLen]
		},
	}
}
