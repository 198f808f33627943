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

// Subscriber owns a set of DataReaders, the reader-side counterpart of
// Publisher.
type Subscriber struct {
	entityState

	participant *DomainParticipant
	defaultQos  qos.Profile

	lock    sync.Mutex
	readers map[types.InstanceHandle]*DataReader
}

func newSubscriber(p *DomainParticipant, defaultQos qos.Profile) *Subscriber {
	sub := &Subscriber{
		entityState: newEntityState(),
		participant: p,
		defaultQos:  defaultQos,
		readers:     make(map[types.InstanceHandle]*DataReader),
	}
	sub.Enable()
	return sub
}

// CreateDataReader creates and starts a DataReader for topic under
// this subscriber, announcing it via SEDP.
func (s *Subscriber) CreateDataReader(ctx context.Context, topic *Topic, kind QosKind, profile qos.Profile) (*DataReader, error) {
	if !s.IsEnabled() {
		return nil, corviderrors.ErrNotEnabled
	}
	if kind == QosDefault {
		profile = s.defaultQos
	}
	if !profile.SelfConsistent() {
		return nil, corviderrors.ErrInconsistentPolicy
	}
	r, err := s.participant.createReader(ctx, topic, profile)
	if err != nil {
		return nil, err
	}
	s.lock.Lock()
	s.readers[r.InstanceHandle()] = r
	s.lock.Unlock()
	return r, nil
}

// DeleteDataReader removes r from this subscriber.
func (s *Subscriber) DeleteDataReader(r *DataReader) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if _, ok := s.readers[r.InstanceHandle()]; !ok {
		return corviderrors.ErrBadParameter
	}
	s.participant.deleteReader(r)
	delete(s.readers, r.InstanceHandle())
	r.MarkDeleted()
	return nil
}

func (s *Subscriber) readerCount() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return len(s.readers)
}
