// SPDX-FileCopyrightText: © 2026 corvid authors
// SPDX-License-Identifier: AGPL-3.0-only

package dds

import (
	"context"
	"sync"

	corviderrors "github.com/corvidds/corvid/rtps/errors"
	"github.com/corvidds/corvid/rtps/qos"
	"github.com/corvidds/corvid/rtps/types"
)

// Publisher owns a set of DataWriters (spec.md §4.5). It is plain
// mutex-guarded state rather than its own actor: spec.md never
// describes publisher-level command processing beyond create/delete,
// and those are serialized by the Publisher's own lock.
type Publisher struct {
	entityState

	participant *DomainParticipant
	defaultQos  qos.Profile

	lock    sync.Mutex
	writers map[types.InstanceHandle]*DataWriter
}

func newPublisher(p *DomainParticipant, defaultQos qos.Profile) *Publisher {
	pub := &Publisher{
		entityState: newEntityState(),
		participant: p,
		defaultQos:  defaultQos,
		writers:     make(map[types.InstanceHandle]*DataWriter),
	}
	pub.Enable()
	return pub
}

// CreateDataWriter creates and starts a DataWriter for topic under
// this publisher, announcing it via SEDP.
func (p *Publisher) CreateDataWriter(ctx context.Context, topic *Topic, kind QosKind, profile qos.Profile) (*DataWriter, error) {
	if !p.IsEnabled() {
		return nil, corviderrors.ErrNotEnabled
	}
	if kind == QosDefault {
		profile = p.defaultQos
	}
	if !profile.SelfConsistent() {
		return nil, corviderrors.ErrInconsistentPolicy
	}
	w, err := p.participant.createWriter(ctx, topic, profile)
	if err != nil {
		return nil, err
	}
	p.lock.Lock()
	p.writers[w.InstanceHandle()] = w
	p.lock.Unlock()
	return w, nil
}

// DeleteDataWriter removes w from this publisher.
func (p *Publisher) DeleteDataWriter(w *DataWriter) error {
	p.lock.Lock()
	defer p.lock.Unlock()
	if _, ok := p.writers[w.InstanceHandle()]; !ok {
		return corviderrors.ErrBadParameter
	}
	p.participant.deleteWriter(w)
	delete(p.writers, w.InstanceHandle())
	w.MarkDeleted()
	return nil
}

// writerCount reports how many writers this publisher currently owns,
// used by DeletePublisher's PRECONDITION_NOT_MET check (spec.md §4.5).
func (p *Publisher) writerCount() int {
	p.lock.Lock()
	defer p.lock.Unlock()
	return len(p.writers)
}
