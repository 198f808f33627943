// SPDX-FileCopyrightText: © 2026 corvid authors
// SPDX-License-Identifier: AGPL-3.0-only

package wire

// ParameterId identifies one entry of a parameter list (the encoding
// used for discovery data and inline QoS).
type ParameterId uint16

// PIDSentinel terminates a parameter list.
const PIDSentinel ParameterId = 0x0001

// Parameter is one (id, value) entry of a parameter list. Value is
// the already-CDR-encoded parameter payload; length is always a
// multiple of 4 on the wire.
type Parameter struct {
	ID    ParameterId
	Value []byte
}

// EncodeParameterList serializes params, 4-byte-aligning each value
// and terminating with PID_SENTINEL (spec.md §4.3).
func EncodeParameterList(params []Parameter, endian Endian) []byte {
	w := NewWriter(endian, 0)
	for _, p := range params {
		padded := pad4(p.Value)
		w.PutUint16(uint16(p.ID))
		w.PutUint16(uint16(len(padded)))
		w.PutRaw(padded)
	}
	w.PutUint16(uint16(PIDSentinel))
	w.PutUint16(0)
	return w.Bytes()
}

func pad4(b []byte) []byte {
	n := PadTo4(len(b))
	if n == 0 {
		return b
	}
	out := make([]byte, len(b)+n)
	copy(out, b)
	return out
}

// DecodeParameterList parses a parameter list from the start of buf,
// stopping at PID_SENTINEL, and returns the raw encoded list (for
// re-embedding verbatim, e.g. as inline QoS) plus the bytes following
// the sentinel.
func DecodeParameterList(buf []byte, endian Endian) ([]byte, []byte, error) {
	params, consumed, err := decodeParameters(buf, endian)
	if err != nil {
		return nil, nil, err
	}
	_ = params
	return buf[:consumed], buf[consumed:], nil
}

// ParseParameterList fully decodes a parameter list into individual
// Parameters.
func ParseParameterList(buf []byte, endian Endian) ([]Parameter, error) {
	params, _, err := decodeParameters(buf, endian)
	return params, err
}

func decodeParameters(buf []byte, endian Endian) ([]Parameter, int, error) {
	r := NewReader(buf, endian, 0)
	var params []Parameter
	for {
		if r.Remaining() < 4 {
			return nil, 0, ErrShortBuffer
		}
		id, err := r.GetUint16()
		if err != nil {
			return nil, 0, err
		}
		length, err := r.GetUint16()
		if err != nil {
			return nil, 0, err
		}
		if ParameterId(id) == PIDSentinel {
			return params, r.pos, nil
		}
		value, err := r.GetRaw(int(length))
		if err != nil {
			return nil, 0, err
		}
		params = append(params, Parameter{ID: ParameterId(id), Value: append([]byte(nil), value...)})
	}
}

// Find returns the first parameter with the given id, and whether one
// was found.
func Find(params []Parameter, id ParameterId) (Parameter, bool) {
	for _, p := range params {
		if p.ID == id {
			return p, true
		}
	}
	return Parameter{}, false
}

// Encapsulation schemes for CDR payloads (spec.md §4.3).
type EncapsulationScheme uint16

const (
	SchemePLCDRBE EncapsulationScheme = 0x0000
	SchemePLCDRLE EncapsulationScheme = 0x0001
	SchemeCDRBE   EncapsulationScheme = 0x0002
	SchemeCDRLE   EncapsulationScheme = 0x0003
)

// EncapsulationHeader is the 4-byte {scheme, options} header every
// CDR payload begins with.
type EncapsulationHeader struct {
	Scheme  EncapsulationScheme
	Options uint16
}

// Endian returns the byte order implied by scheme.
func (h EncapsulationHeader) Endian() Endian {
	if h.Scheme == SchemePLCDRLE || h.Scheme == SchemeCDRLE {
		return LittleEndian
	}
	return BigEndian
}

// Encode writes the 4-byte encapsulation header.
func (h EncapsulationHeader) Encode() []byte {
	buf := make([]byte, 4)
	BigEndian.order().PutUint16(buf, uint16(h.Scheme))
	BigEndian.order().PutUint16(buf[2:], h.Options)
	return buf
}

// DecodeEncapsulationHeader parses the 4-byte header from the start
// of buf.
func DecodeEncapsulationHeader(buf []byte) (EncapsulationHeader, []byte, error) {
	if len(buf) < 4 {
		return EncapsulationHeader{}, nil, ErrShortBuffer
	}
	h := EncapsulationHeader{
		Scheme:  EncapsulationScheme(BigEndian.order().Uint16(buf)),
		Options: BigEndian.order().Uint16(buf[2:]),
	}
	return h, buf[4:], nil
}
