// SPDX-FileCopyrightText: © 2026 corvid authors
// SPDX-License-Identifier: AGPL-3.0-only

// Package types holds the small value types shared across the RTPS
// core: sequence numbers, locators, durations, timestamps, and
// instance handles.
package types

import (
	"crypto/md5"
	"time"
)

// SequenceNumber is a signed 64-bit, monotonically increasing per
// writer counter.
type SequenceNumber int64

// Unknown is the SEQUENCE_NUMBER_UNKNOWN sentinel.
const Unknown SequenceNumber = -1

// SequenceNumberSet represents a bounded set of sequence numbers
// relative to a base, as carried on ACKNACK/GAP submessages.
type SequenceNumberSet struct {
	Base   SequenceNumber
	Bitmap map[SequenceNumber]struct{}
}

// NewSequenceNumberSet builds a set from a base and explicit members.
func NewSequenceNumberSet(base SequenceNumber, members ...SequenceNumber) SequenceNumberSet {
	s := SequenceNumberSet{Base: base, Bitmap: make(map[SequenceNumber]struct{}, len(members))}
	for _, m := range members {
		s.Bitmap[m] = struct{}{}
	}
	return s
}

// Contains reports whether sn is a member of the set.
func (s SequenceNumberSet) Contains(sn SequenceNumber) bool {
	_, ok := s.Bitmap[sn]
	return ok
}

// Sorted returns the set's members in ascending order.
func (s SequenceNumberSet) Sorted() []SequenceNumber {
	out := make([]SequenceNumber, 0, len(s.Bitmap))
	for sn := range s.Bitmap {
		out = append(out, sn)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

// LocatorKind enumerates the transport a Locator addresses.
type LocatorKind int32

const (
	LocatorKindInvalid LocatorKind = -1
	LocatorKindUDPv4   LocatorKind = 1
	LocatorKindUDPv6   LocatorKind = 2
)

// Locator is a (kind, port, address) network endpoint. Address is
// always stored as the 16-byte RTPS locator form (UDPv4 addresses are
// the last 4 bytes, zero-padded).
type Locator struct {
	Kind    LocatorKind
	Port    uint32
	Address [16]byte
}

// NewLocatorUDPv4 builds a UDPv4 locator from a 4-byte address and port.
func NewLocatorUDPv4(addr [4]byte, port uint32) Locator {
	l := Locator{Kind: LocatorKindUDPv4, Port: port}
	copy(l.Address[12:], addr[:])
	return l
}

// IPv4 extracts the 4-byte address from a UDPv4 locator.
func (l Locator) IPv4() [4]byte {
	var a [4]byte
	copy(a[:], l.Address[12:])
	return a
}

// Duration is an RTPS duration: seconds plus nanoseconds. NSec counts
// nanoseconds (as ToGo and DurationFromGo treat it), not the 2^-32
// second fractions of the RTPS wire form. Infinite is represented by
// both fields at their maximum value.
type Duration struct {
	Sec   int32
	NSec  uint32
}

// Infinite is DURATION_INFINITE.
var Infinite = Duration{Sec: 0x7fffffff, NSec: 0xffffffff}

// ToGo converts d to a time.Duration. Infinite collapses to the
// largest representable time.Duration.
func (d Duration) ToGo() time.Duration {
	if d == Infinite {
		return time.Duration(1<<63 - 1)
	}
	return time.Duration(d.Sec)*time.Second + time.Duration(d.NSec)
}

// DurationFromGo converts a time.Duration to a Duration.
func DurationFromGo(d time.Duration) Duration {
	return Duration{
		Sec:  int32(d / time.Second),
		NSec: uint32(d % time.Second),
	}
}

// Timestamp is an RTPS source timestamp (seconds since epoch, plus a
// fractional part Frac in nanoseconds, as Now fills it), set by INFO_TS.
type Timestamp struct {
	Sec  uint32
	Frac uint32
}

// Now returns the current time as an RTPS Timestamp.
func Now() Timestamp {
	n := time.Now()
	return Timestamp{Sec: uint32(n.Unix()), Frac: uint32(n.Nanosecond())}
}

// InstanceHandleLength is the fixed size of an instance handle.
const InstanceHandleLength = 16

// InstanceHandle identifies an instance: the MD5 digest of the
// CDR-serialized key when that serialization exceeds
// InstanceHandleLength bytes, else the zero-padded serialized key
// itself (DDS-RTPS §9.6.3.3, resolving spec.md's silence on the exact
// derivation — see SPEC_FULL.md §3). MD5 here is a protocol-mandated
// algorithm, not a security primitive.
type InstanceHandle [InstanceHandleLength]byte

// HandleOfSerializedKey computes the instance handle of a
// CDR-serialized key buffer.
func HandleOfSerializedKey(serializedKey []byte) InstanceHandle {
	var h InstanceHandle
	if len(serializedKey) <= InstanceHandleLength {
		copy(h[:], serializedKey)
		return h
	}
	sum := md5.Sum(serializedKey)
	copy(h[:], sum[:])
	return h
}

// NilHandle is HANDLE_NIL.
var NilHandle InstanceHandle
