// SPDX-FileCopyrightText: © 2026 corvid authors
// SPDX-License-Identifier: AGPL-3.0-only

package dds

import (
	"sync"

	corviderrors "github.com/corvidds/corvid/rtps/errors"
	"github.com/corvidds/corvid/rtps/types"
)

// ParticipantFactory is the process-wide registry of domain
// participants (spec.md §9): its lifecycle is implicit, initialized on
// first use and requiring no explicit teardown beyond deleting every
// participant it created.
type ParticipantFactory struct {
	lock         sync.Mutex
	participants map[types.InstanceHandle]*DomainParticipant
	defaultTag   string
}

// TheParticipantFactory is the singleton every process shares,
// mirroring the DDS API's factory-as-singleton convention.
var TheParticipantFactory = &ParticipantFactory{
	participants: make(map[types.InstanceHandle]*DomainParticipant),
}

// CreateParticipant joins domainID, returning a disabled participant.
// Call Enable to bring up discovery and the transport.
func (f *ParticipantFactory) CreateParticipant(domainID uint32, participantID uint32, iface string) (*DomainParticipant, error) {
	p, err := NewDomainParticipant(participantOptions{
		DomainID:      domainID,
		DomainTag:     f.defaultTag,
		ParticipantID: participantID,
		Interface:     iface,
	})
	if err != nil {
		return nil, err
	}
	f.lock.Lock()
	f.participants[p.InstanceHandle()] = p
	f.lock.Unlock()
	return p, nil
}

// DeleteParticipant tears p down and removes it from the factory,
// failing PRECONDITION_NOT_MET if it still owns publishers or
// subscribers (spec.md §4.5's recursive-delete boundary: the factory
// itself never force-deletes a participant's children).
func (f *ParticipantFactory) DeleteParticipant(p *DomainParticipant) error {
	p.lock.Lock()
	owned := len(p.publishers) + len(p.subscribers)
	p.lock.Unlock()
	if owned > 0 {
		return corviderrors.ErrPreconditionNotMet
	}
	f.lock.Lock()
	delete(f.participants, p.InstanceHandle())
	f.lock.Unlock()
	p.Delete()
	return nil
}

// LookupParticipant finds a participant already joined to domainID, if
// any (spec.md §6's lookup_participant).
func (f *ParticipantFactory) LookupParticipant(domainID uint32) (*DomainParticipant, bool) {
	f.lock.Lock()
	defer f.lock.Unlock()
	for _, p := range f.participants {
		if p.DomainID() == domainID {
			return p, true
		}
	}
	return nil, false
}

// SetDefaultDomainTag sets the domain_tag new participants are created
// with when none is given explicitly.
func (f *ParticipantFactory) SetDefaultDomainTag(tag string) {
	f.lock.Lock()
	f.defaultTag = tag
	f.lock.Unlock()
}
