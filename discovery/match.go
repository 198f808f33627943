// SPDX-FileCopyrightText: © 2026 corvid authors
// SPDX-License-Identifier: AGPL-3.0-only

package discovery

import (
	"github.com/corvidds/corvid/rtps/guid"
	"github.com/corvidds/corvid/rtps/qos"
)

// MatchResult is the outcome of comparing one writer against one
// reader candidate for the same topic/type.
type MatchResult struct {
	Writer, Reader    guid.GUID
	Compatible        bool
	WriterIncompatible []qos.Incompatibility // fed into OFFERED_INCOMPATIBLE_QOS
	ReaderIncompatible []qos.Incompatibility // fed into REQUESTED_INCOMPATIBLE_QOS
}

// Match checks topic name, type name, QoS compatibility, and
// partition overlap between one writer and one reader, per spec.md
// §4.2: "Matched writer/reader pairs are determined by topic name,
// type name, and QoS compatibility ... offered policy must be >= the
// reader's requested policy".
func Match(writer DiscoveredWriterData, reader DiscoveredReaderData) MatchResult {
	res := MatchResult{Writer: writer.EndpointGUID, Reader: reader.EndpointGUID}

	if writer.TopicName != reader.TopicName || writer.TypeName != reader.TypeName {
		return res
	}
	if !qos.PartitionsMatch(writer.QosProfile.Partition, reader.QosProfile.Partition) {
		return res
	}

	bad := qos.CheckCompatibility(writer.QosProfile, reader.QosProfile)
	if len(bad) == 0 {
		res.Compatible = true
		return res
	}
	// The same failed comparisons are reported from both sides: the
	// writer's OFFERED_INCOMPATIBLE_QOS and the reader's
	// REQUESTED_INCOMPATIBLE_QOS (spec.md §4.2 and §8 scenario 4).
	res.WriterIncompatible = bad
	res.ReaderIncompatible = bad
	return res
}

// IgnoreSet tracks ignored participant/publication/subscription/topic
// instance handles (spec.md §4.4's ignored_* sets). It is a plain set
// of GUIDs here since every discovered entity is keyed by its
// endpoint or participant GUID.
type IgnoreSet struct {
	members map[guid.GUID]struct{}
}

// NewIgnoreSet creates an empty set.
func NewIgnoreSet() *IgnoreSet {
	return &IgnoreSet{members: make(map[guid.GUID]struct{})}
}

// Add marks g ignored. Idempotent.
func (s *IgnoreSet) Add(g guid.GUID) { s.members[g] = struct{}{} }

// Contains reports whether g is ignored.
func (s *IgnoreSet) Contains(g guid.GUID) bool {
	_, ok := s.members[g]
	return ok
}
