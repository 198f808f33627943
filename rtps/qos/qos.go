// SPDX-FileCopyrightText: © 2026 corvid authors
// SPDX-License-Identifier: AGPL-3.0-only

// Package qos defines the DDS QoS policies carried on every endpoint
// and the compatibility rules the discovery engine applies when
// deciding whether a writer may match a reader.
package qos

import "github.com/corvidds/corvid/rtps/types"

// Durability kinds, ordered from weakest to strongest offer.
type DurabilityKind int

const (
	Volatile DurabilityKind = iota
	TransientLocal
)

type Durability struct {
	Kind DurabilityKind
}

// Reliability kinds.
type ReliabilityKind int

const (
	BestEffort ReliabilityKind = iota
	Reliable
)

type Reliability struct {
	Kind            ReliabilityKind
	MaxBlockingTime types.Duration
}

// History kinds.
type HistoryKind int

const (
	KeepLast HistoryKind = iota
	KeepAll
)

type History struct {
	Kind  HistoryKind
	Depth int32 // meaningful only for KeepLast; must be > 0
}

type ResourceLimits struct {
	MaxSamples             int32 // <=0 means unlimited
	MaxInstances           int32
	MaxSamplesPerInstance  int32
}

type Deadline struct {
	Period types.Duration
}

// Liveliness kinds.
type LivelinessKind int

const (
	Automatic LivelinessKind = iota
	ManualByParticipant
	ManualByTopic
)

type Liveliness struct {
	Kind            LivelinessKind
	LeaseDuration   types.Duration
}

// Ownership kinds.
type OwnershipKind int

const (
	Shared OwnershipKind = iota
	Exclusive
)

type Ownership struct {
	Kind OwnershipKind
}

type OwnershipStrength struct {
	Value int32
}

type Partition struct {
	Names []string
}

// DestinationOrder kinds.
type DestinationOrderKind int

const (
	ByReceptionTimestamp DestinationOrderKind = iota
	BySourceTimestamp
)

type DestinationOrder struct {
	Kind DestinationOrderKind
}

type LatencyBudget struct {
	Duration types.Duration
}

type Lifespan struct {
	Duration types.Duration
}

type UserData struct {
	Value []byte
}

type TopicData struct {
	Value []byte
}

// Profile bundles every endpoint-relevant policy, matching an RTPS
// writer's or reader's full QoS contract. Entity-kind-specific
// policies (e.g. Ownership is writer/reader-shared, ResourceLimits
// applies to both) are all carried here; the matching logic below
// only inspects the policies actually exchanged on the wire.
type Profile struct {
	Durability        Durability
	Reliability       Reliability
	History           History
	ResourceLimits    ResourceLimits
	Deadline          Deadline
	Liveliness        Liveliness
	Ownership         Ownership
	OwnershipStrength OwnershipStrength
	Partition         Partition
	DestinationOrder  DestinationOrder
	LatencyBudget     LatencyBudget
	Lifespan          Lifespan
	UserData          UserData
	TopicData         TopicData
}

// Default returns the DDS default QoS profile: VOLATILE, BEST_EFFORT,
// KEEP_LAST(1), unlimited resource limits, no deadline, automatic
// liveliness with infinite lease, shared ownership.
func Default() Profile {
	return Profile{
		Durability:  Durability{Kind: Volatile},
		Reliability: Reliability{Kind: BestEffort, MaxBlockingTime: types.Duration{Sec: 0, NSec: 100000000}},
		History:     History{Kind: KeepLast, Depth: 1},
		ResourceLimits: ResourceLimits{
			MaxSamples: -1, MaxInstances: -1, MaxSamplesPerInstance: -1,
		},
		Deadline:          Deadline{Period: types.Infinite},
		Liveliness:        Liveliness{Kind: Automatic, LeaseDuration: types.Infinite},
		Ownership:         Ownership{Kind: Shared},
		OwnershipStrength: OwnershipStrength{Value: 0},
		DestinationOrder:  DestinationOrder{Kind: ByReceptionTimestamp},
		LatencyBudget:     LatencyBudget{Duration: types.Duration{}},
		Lifespan:          Lifespan{Duration: types.Infinite},
	}
}

// PolicyID identifies a QoS policy for incompatibility reporting
// (last_policy_id on REQUESTED_INCOMPATIBLE_QOS/OFFERED_INCOMPATIBLE_QOS).
type PolicyID int

const (
	InvalidPolicyID PolicyID = iota
	DurabilityPolicyID
	DeadlinePolicyID
	LatencyBudgetPolicyID
	LivelinessPolicyID
	ReliabilityPolicyID
	DestinationOrderPolicyID
	OwnershipPolicyID
)

// Incompatibility describes one failed offer/request comparison.
type Incompatibility struct {
	Policy PolicyID
}

// CheckCompatibility compares a writer's offered profile against a
// reader's requested profile per the DDS compatibility table (spec.md
// §4.2): the writer's offer must be "at least as strong" as the
// reader's request for each of RELIABILITY, DURABILITY, DEADLINE,
// LATENCY_BUDGET, OWNERSHIP, LIVELINESS, DESTINATION_ORDER. Returns
// every violated policy, in evaluation order; an empty slice means
// compatible.
func CheckCompatibility(offered, requested Profile) []Incompatibility {
	var bad []Incompatibility

	if requested.Durability.Kind > offered.Durability.Kind {
		bad = append(bad, Incompatibility{DurabilityPolicyID})
	}
	if requested.Reliability.Kind > offered.Reliability.Kind {
		bad = append(bad, Incompatibility{ReliabilityPolicyID})
	}
	if requested.Deadline.Period.ToGo() < offered.Deadline.Period.ToGo() {
		bad = append(bad, Incompatibility{DeadlinePolicyID})
	}
	if requested.LatencyBudget.Duration.ToGo() < offered.LatencyBudget.Duration.ToGo() {
		bad = append(bad, Incompatibility{LatencyBudgetPolicyID})
	}
	if requested.Ownership.Kind != offered.Ownership.Kind {
		bad = append(bad, Incompatibility{OwnershipPolicyID})
	}
	if requested.Liveliness.Kind > offered.Liveliness.Kind {
		bad = append(bad, Incompatibility{LivelinessPolicyID})
	} else if requested.Liveliness.LeaseDuration.ToGo() < offered.Liveliness.LeaseDuration.ToGo() {
		bad = append(bad, Incompatibility{LivelinessPolicyID})
	}
	if requested.DestinationOrder.Kind > offered.DestinationOrder.Kind {
		bad = append(bad, Incompatibility{DestinationOrderPolicyID})
	}

	return bad
}

// PartitionsMatch reports whether two partition policies share at
// least one name, or both are empty (the "" default partition).
func PartitionsMatch(a, b Partition) bool {
	if len(a.Names) == 0 && len(b.Names) == 0 {
		return true
	}
	an := a.Names
	if len(an) == 0 {
		an = []string{""}
	}
	bn := b.Names
	if len(bn) == 0 {
		bn = []string{""}
	}
	for _, x := range an {
		for _, y := range bn {
			if x == y {
				return true
			}
		}
	}
	return false
}

// SelfConsistent checks intra-policy validity (e.g. KEEP_LAST with
// depth<=0 is INCONSISTENT_POLICY per spec.md §7).
func (p Profile) SelfConsistent() bool {
	if p.History.Kind == KeepLast && p.History.Depth <= 0 {
		return false
	}
	if p.ResourceLimits.MaxSamples > 0 && p.ResourceLimits.MaxSamplesPerInstance > 0 &&
		p.ResourceLimits.MaxSamplesPerInstance > p.ResourceLimits.MaxSamples {
		return false
	}
	return true
}
