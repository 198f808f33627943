// SPDX-FileCopyrightText: © 2026 corvid authors
// SPDX-License-Identifier: AGPL-3.0-only

package dds

import (
	"github.com/corvidds/corvid/rtps/qos"
)

// Topic is a named, typed data stream. It is plain state owned by its
// DomainParticipant (no actor of its own: spec.md never describes
// topic-level concurrent mutation, only creation/deletion and QoS
// read), guarded by the owning participant's lock.
type Topic struct {
	entityState

	Name     string
	TypeName string
	Qos      qos.Profile

	refCount int // DataWriters/DataReaders currently bound to this topic
}

func newTopic(name, typeName string, profile qos.Profile) *Topic {
	t := &Topic{entityState: newEntityState(), Name: name, TypeName: typeName, Qos: profile}
	t.Enable()
	return t
}
