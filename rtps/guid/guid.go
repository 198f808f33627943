// SPDX-FileCopyrightText: © 2026 corvid authors
// SPDX-License-Identifier: AGPL-3.0-only

// Package guid implements RTPS GUIDs, guid prefixes, entity ids, and
// the reserved builtin entity ids used by SPDP/SEDP.
package guid

import (
	"encoding/hex"
	"fmt"
)

// PrefixLength is the size in bytes of a GuidPrefix.
const PrefixLength = 12

// EntityIDLength is the size in bytes of an EntityId.
const EntityIDLength = 4

// GuidPrefix identifies a participant domain-wide.
type GuidPrefix [PrefixLength]byte

func (p GuidPrefix) String() string { return hex.EncodeToString(p[:]) }

// EntityId identifies an endpoint within a participant. The low 8
// bits (EntityKind) classify the endpoint kind.
type EntityId [EntityIDLength]byte

func (e EntityId) String() string { return hex.EncodeToString(e[:]) }

// Kind returns the entity_kind octet, the low byte of the EntityId.
func (e EntityId) Kind() byte { return e[3] }

// GUID is a participant-domain-wide unique endpoint (or participant)
// identifier: 12-byte prefix + 4-byte entity id.
type GUID struct {
	Prefix GuidPrefix
	Entity EntityId
}

// Unknown is the GUID_UNKNOWN sentinel (all-zero).
var Unknown = GUID{}

func (g GUID) String() string {
	return fmt.Sprintf("%s:%s", g.Prefix, g.Entity)
}

// IsUnknown reports whether g is the GUID_UNKNOWN sentinel.
func (g GUID) IsUnknown() bool { return g == Unknown }

// Bytes returns the 16-byte wire representation (prefix || entity id).
func (g GUID) Bytes() [16]byte {
	var b [16]byte
	copy(b[:12], g.Prefix[:])
	copy(b[12:], g.Entity[:])
	return b
}

// New builds a GUID from a prefix and an entity id.
func New(prefix GuidPrefix, entity EntityId) GUID {
	return GUID{Prefix: prefix, Entity: entity}
}

// Reserved entity kinds (DDS-RTPS §9.3.1.2).
const (
	KindBuiltinUnknown           byte = 0xc0
	KindBuiltinParticipant       byte = 0xc1
	KindBuiltinWriterWithKey     byte = 0xc2
	KindBuiltinWriterWithoutKey  byte = 0xc3
	KindBuiltinReaderWithKey     byte = 0xc7
	KindBuiltinReaderWithoutKey  byte = 0xc4
	KindUserWriterWithKey        byte = 0x02
	KindUserWriterWithoutKey     byte = 0x03
	KindUserReaderWithKey        byte = 0x07
	KindUserReaderWithoutKey     byte = 0x04
	KindUserTopic                byte = 0x0a
)

// Reserved builtin entity ids (spec.md §6).
var (
	EntityIdParticipant = EntityId{0x00, 0x00, 0x01, KindBuiltinParticipant}

	EntityIdSPDPBuiltinParticipantWriter = EntityId{0x00, 0x01, 0x00, KindBuiltinWriterWithKey}
	EntityIdSPDPBuiltinParticipantReader = EntityId{0x00, 0x01, 0x00, KindBuiltinReaderWithKey}

	EntityIdSEDPBuiltinTopicsAnnouncer = EntityId{0x00, 0x00, 0x02, KindBuiltinWriterWithKey}
	EntityIdSEDPBuiltinTopicsDetector  = EntityId{0x00, 0x00, 0x02, KindBuiltinReaderWithKey}

	EntityIdSEDPBuiltinPublicationsAnnouncer = EntityId{0x00, 0x00, 0x03, KindBuiltinWriterWithKey}
	EntityIdSEDPBuiltinPublicationsDetector  = EntityId{0x00, 0x00, 0x03, KindBuiltinReaderWithKey}

	EntityIdSEDPBuiltinSubscriptionsAnnouncer = EntityId{0x00, 0x00, 0x04, KindBuiltinWriterWithKey}
	EntityIdSEDPBuiltinSubscriptionsDetector  = EntityId{0x00, 0x00, 0x04, KindBuiltinReaderWithKey}
)

// BuiltinEndpointSet bitmask values (available_builtin_endpoints),
// per DDS-RTPS §8.5.4.3, supplemented from dust-dds' builtin bring-up.
const (
	BuiltinEndpointParticipantAnnouncer    uint32 = 1 << 0
	BuiltinEndpointParticipantDetector     uint32 = 1 << 1
	BuiltinEndpointPublicationsAnnouncer   uint32 = 1 << 2
	BuiltinEndpointPublicationsDetector    uint32 = 1 << 3
	BuiltinEndpointSubscriptionsAnnouncer  uint32 = 1 << 4
	BuiltinEndpointSubscriptionsDetector   uint32 = 1 << 5
	BuiltinEndpointTopicsAnnouncer         uint32 = 1 << 28
	BuiltinEndpointTopicsDetector          uint32 = 1 << 29
)
