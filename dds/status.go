// SPDX-FileCopyrightText: © 2026 corvid authors
// SPDX-License-Identifier: AGPL-3.0-only

// Package dds is the public entity façade spec.md §1 treats as an
// external collaborator: DomainParticipant, Publisher, Subscriber,
// Topic, DataWriter, DataReader, and the status-condition/listener
// surface built on top of the core actors (rtps/behavior, history,
// discovery). DataWriter and DataReader are actor.Base actors: a
// single goroutine owns each one's state, reached through its Address
// (spec.md §4.5). DomainParticipant, Publisher, Subscriber and Topic
// are called directly, with their shared state guarded by mutexes.
package dds

import "sync/atomic"

// StatusKind identifies one of the observable communication statuses
// (spec.md §4.5, §6's get_*_status family).
type StatusKind int

const (
	StatusInconsistentTopic StatusKind = iota
	StatusSampleLost
	StatusSampleRejected
	StatusRequestedIncompatibleQos
	StatusOfferedIncompatibleQos
	StatusRequestedDeadlineMissed
	StatusOfferedDeadlineMissed
	StatusLivelinessChanged
	StatusLivelinessLost
	StatusPublicationMatched
	StatusSubscriptionMatched
	StatusDataAvailable
	statusKindCount
)

// StatusMask selects a subset of StatusKinds, e.g. for set_listener's
// status_mask parameter.
type StatusMask uint32

func MaskOf(kinds ...StatusKind) StatusMask {
	var m StatusMask
	for _, k := range kinds {
		m |= 1 << uint(k)
	}
	return m
}

func (m StatusMask) Has(k StatusKind) bool {
	return m&(1<<uint(k)) != 0
}

// SampleLostStatus mirrors spec.md §8 scenario 3's SAMPLE_LOST.total_count.
type SampleLostStatus struct {
	TotalCount     int32
	TotalCountChange int32
}

// RequestedIncompatibleQosStatus mirrors spec.md §8 scenario 4.
type RequestedIncompatibleQosStatus struct {
	TotalCount      int32
	TotalCountChange int32
	LastPolicyID    int
}

// OfferedIncompatibleQosStatus is the writer-side counterpart.
type OfferedIncompatibleQosStatus struct {
	TotalCount      int32
	TotalCountChange int32
	LastPolicyID    int
}

// LivelinessChangedStatus mirrors spec.md §4.4's Lost-transition signal.
type LivelinessChangedStatus struct {
	AliveCount        int32
	NotAliveCount     int32
	AliveCountChange  int32
	NotAliveCountChange int32
}

// PublicationMatchedStatus / SubscriptionMatchedStatus report SEDP
// match transitions (SPEC_FULL.md §4.4).
type PublicationMatchedStatus struct {
	TotalCount       int32
	TotalCountChange int32
	CurrentCount     int32
	CurrentCountChange int32
}

type SubscriptionMatchedStatus struct {
	TotalCount       int32
	TotalCountChange int32
	CurrentCount     int32
	CurrentCountChange int32
}

// DataReaderListener receives asynchronous notifications for a
// DataReader's status mask, dispatched on the runtime and never inline
// on the sender (spec.md §9's "Listener callbacks" note).
type DataReaderListener interface {
	OnDataAvailable(reader *DataReader)
	OnSampleLost(reader *DataReader, status SampleLostStatus)
	OnRequestedIncompatibleQos(reader *DataReader, status RequestedIncompatibleQosStatus)
	OnSubscriptionMatched(reader *DataReader, status SubscriptionMatchedStatus)
	OnLivelinessChanged(reader *DataReader, status LivelinessChangedStatus)
}

// DataWriterListener is the writer-side counterpart.
type DataWriterListener interface {
	OnOfferedIncompatibleQos(writer *DataWriter, status OfferedIncompatibleQosStatus)
	OnPublicationMatched(writer *DataWriter, status PublicationMatchedStatus)
}

// StatusCondition is an observable counter set per endpoint; when a
// monitored status kind trips, Trip signals the condition and, if a
// listener is attached for that kind, the caller invokes it on the
// runtime.
type StatusCondition struct {
	mask    StatusMask
	trippedBits uint32
}

// NewStatusCondition creates a condition with no enabled statuses.
func NewStatusCondition() *StatusCondition {
	return &StatusCondition{}
}

// SetEnabledStatuses restricts which kinds Trip actually records.
func (c *StatusCondition) SetEnabledStatuses(mask StatusMask) {
	c.mask = mask
}

// Trip records that kind occurred, if it's enabled. Returns whether it
// was recorded.
func (c *StatusCondition) Trip(kind StatusKind) bool {
	if !c.mask.Has(kind) {
		return false
	}
	for {
		old := atomic.LoadUint32(&c.trippedBits)
		next := old | (1 << uint(kind))
		if atomic.CompareAndSwapUint32(&c.trippedBits, old, next) {
			return true
		}
	}
}

// TriggerValue reports whether kind is currently tripped.
func (c *StatusCondition) TriggerValue(kind StatusKind) bool {
	return atomic.LoadUint32(&c.trippedBits)&(1<<uint(kind)) != 0
}

// Reset clears kind's tripped bit, e.g. after a listener consumed it.
func (c *StatusCondition) Reset(kind StatusKind) {
	for {
		old := atomic.LoadUint32(&c.trippedBits)
		next := old &^ (1 << uint(kind))
		if atomic.CompareAndSwapUint32(&c.trippedBits, old, next) {
			return
		}
	}
}
