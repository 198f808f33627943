// SPDX-FileCopyrightText: © 2026 corvid authors
// SPDX-License-Identifier: AGPL-3.0-only
package qos

import (
	"testing"

	"github.com/corvidds/corvid/rtps/types"
	"github.com/stretchr/testify/require"
)

func TestCheckCompatibilityDefaultProfilesAreCompatible(t *testing.T) {
	bad := CheckCompatibility(Default(), Default())
	require.Empty(t, bad)
}

func TestCheckCompatibilityReaderRequiresReliableWriterIsBestEffort(t *testing.T) {
	offered := Default()
	requested := Default()
	requested.Reliability.Kind = Reliable

	bad := CheckCompatibility(offered, requested)
	require.Contains(t, bad, Incompatibility{ReliabilityPolicyID})
}

func TestCheckCompatibilityDurabilityWeakerOfferIsIncompatible(t *testing.T) {
	offered := Default()
	requested := Default()
	requested.Durability.Kind = TransientLocal

	bad := CheckCompatibility(offered, requested)
	require.Contains(t, bad, Incompatibility{DurabilityPolicyID})
}

func TestCheckCompatibilityOwnershipMismatchIsIncompatibleRegardlessOfDirection(t *testing.T) {
	offered := Default()
	offered.Ownership.Kind = Exclusive
	requested := Default()
	requested.Ownership.Kind = Shared

	bad := CheckCompatibility(offered, requested)
	require.Contains(t, bad, Incompatibility{OwnershipPolicyID})
}

func TestCheckCompatibilityDeadlineTighterRequestIsIncompatible(t *testing.T) {
	offered := Default()
	offered.Deadline.Period = types.Duration{Sec: 10}
	requested := Default()
	requested.Deadline.Period = types.Duration{Sec: 1}

	bad := CheckCompatibility(offered, requested)
	require.Contains(t, bad, Incompatibility{DeadlinePolicyID})
}

func TestPartitionsMatchBothEmptyIsDefaultPartition(t *testing.T) {
	require.True(t, PartitionsMatch(Partition{}, Partition{}))
}

func TestPartitionsMatchSharedName(t *testing.T) {
	require.True(t, PartitionsMatch(Partition{Names: []string{"a", "b"}}, Partition{Names: []string{"b", "c"}}))
}

func TestPartitionsMatchNoOverlap(t *testing.T) {
	require.False(t, PartitionsMatch(Partition{Names: []string{"a"}}, Partition{Names: []string{"b"}}))
}

func TestSelfConsistentRejectsKeepLastWithZeroDepth(t *testing.T) {
	p := Default()
	p.History = History{Kind: KeepLast, Depth: 0}
	require.False(t, p.SelfConsistent())
}

func TestSelfConsistentRejectsPerInstanceLimitExceedingTotal(t *testing.T) {
	p := Default()
	p.ResourceLimits = ResourceLimits{MaxSamples: 5, MaxSamplesPerInstance: 10}
	require.False(t, p.SelfConsistent())
}

func TestSelfConsistentDefaultProfileIsConsistent(t *testing.T) {
	require.True(t, Default().SelfConsistent())
}
