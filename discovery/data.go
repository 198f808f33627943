// SPDX-FileCopyrightText: © 2026 corvid authors
// SPDX-License-Identifier: AGPL-3.0-only

// Package discovery holds the data carried by SPDP/SEDP and the
// QoS-gated matching logic shared by both protocols. Sub-packages
// discovery/spdp and discovery/sedp implement the two protocols'
// state machines on top of this package's types, grounded on the
// teacher's discovered-descriptor conventions
// (core/pki/descriptor.go's MixDescriptor, adapted from a mixnet node
// descriptor to a DDS participant/endpoint descriptor).
package discovery

import (
	"time"

	"github.com/corvidds/corvid/rtps/guid"
	"github.com/corvidds/corvid/rtps/qos"
	"github.com/corvidds/corvid/rtps/types"
)

// ParticipantProxy is the locator/lease-duration envelope every
// discovered-data message carries (spec.md §6).
type ParticipantProxy struct {
	DomainId       uint32
	DomainTag      string
	ProtocolMajor  uint8
	ProtocolMinor  uint8
	GuidPrefix     guid.GuidPrefix
	VendorId       [2]byte
	ExpectsInlineQos bool

	MetatrafficUnicastLocators   []types.Locator
	MetatrafficMulticastLocators []types.Locator
	DefaultUnicastLocators       []types.Locator
	DefaultMulticastLocators     []types.Locator

	AvailableBuiltinEndpoints uint32
	ManualLivelinessCount     uint32
	LeaseDuration             time.Duration
}

// SpdpDiscoveredParticipantData is the SPDP builtin topic's sample
// type: a participant proxy plus the participant's user QoS.
type SpdpDiscoveredParticipantData struct {
	Proxy         ParticipantProxy
	ParticipantQos qos.UserData
}

// DiscoveredWriterData is the SEDP-publications builtin topic's
// sample type.
type DiscoveredWriterData struct {
	EndpointGUID guid.GUID
	TopicName    string
	TypeName     string
	QosProfile   qos.Profile
	UnicastLocators   []types.Locator
	MulticastLocators []types.Locator
}

// DiscoveredReaderData is the SEDP-subscriptions builtin topic's
// sample type.
type DiscoveredReaderData struct {
	EndpointGUID guid.GUID
	TopicName    string
	TypeName     string
	QosProfile   qos.Profile
	UnicastLocators   []types.Locator
	MulticastLocators []types.Locator
}

// DiscoveredTopicData is the SEDP-topics builtin topic's sample type.
type DiscoveredTopicData struct {
	TopicName string
	TypeName  string
	QosProfile qos.Profile
}
