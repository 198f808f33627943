// SPDX-FileCopyrightText: © 2026 corvid authors
// SPDX-License-Identifier: AGPL-3.0-only

package dds

import (
	"encoding/binary"
	"sync/atomic"

	"github.com/corvidds/corvid/rtps/types"
)

// QosKind selects between an entity-creation call's default QoS and an
// explicit profile (spec.md §6's `QosKind ∈ {Default, Specific(qos)}`).
type QosKind int

const (
	QosDefault QosKind = iota
	QosSpecific
)

var instanceHandleCounter uint64

// nextInstanceHandle hands out a process-wide unique instance handle
// for entity-creation calls (not sample instances, which are keyed by
// their typesupport-derived handle). A monotonic counter guarantees
// distinctness trivially, satisfying spec.md §8's "get_instance_handle
// values are distinct for any two entities created in the same
// process" without relying on MD5 collision avoidance.
func nextInstanceHandle() types.InstanceHandle {
	n := atomic.AddUint64(&instanceHandleCounter, 1)
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], n)
	return types.HandleOfSerializedKey(buf[:])
}

// entityState is embedded by every façade entity to provide the
// enabled/deleted lifecycle spec.md §4.5 and §7 require: operations on
// a disabled entity fail NOT_ENABLED, operations on a deleted one fail
// ALREADY_DELETED.
type entityState struct {
	handle  types.InstanceHandle
	enabled uint32
	deleted uint32
}

func newEntityState() entityState {
	return entityState{handle: nextInstanceHandle()}
}

func (e *entityState) InstanceHandle() types.InstanceHandle { return e.handle }

func (e *entityState) Enable() { atomic.StoreUint32(&e.enabled, 1) }

func (e *entityState) IsEnabled() bool { return atomic.LoadUint32(&e.enabled) != 0 }

func (e *entityState) MarkDeleted() { atomic.StoreUint32(&e.deleted, 1) }

func (e *entityState) IsDeleted() bool { return atomic.LoadUint32(&e.deleted) != 0 }
