// SPDX-FileCopyrightText: © 2026 corvid authors
// SPDX-License-Identifier: AGPL-3.0-only

// Package config loads the participant configuration surface spec.md
// §6 defines from a TOML file (BurntSushi/toml, the teacher's declared
// config format), plus a QoS profile library: named, reusable QoS
// bundles a participant_qos or entity creation call may reference by
// name instead of spelling out every policy (SPEC_FULL.md §6's
// supplement, common to DDS implementations and present in dust-dds'
// QoS policy plumbing).
package config

import (
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/corvidds/corvid/rtps/qos"
)

// Transport enumerates the supported transport kinds. UDP is the only
// one spec.md requires (§6's Non-goals exclude TCP).
type Transport string

const TransportUDP Transport = "udp"

// Config is the full participant configuration surface.
type Config struct {
	DomainId               uint32            `toml:"domain_id"`
	DomainTag              string            `toml:"domain_tag"`
	Transport              Transport         `toml:"transport"`
	Interface              string            `toml:"interface"`
	DataMaxSizeSerialized  int               `toml:"data_max_size_serialized"`
	ParticipantQosProfile  string            `toml:"participant_qos_profile"`
	DurabilityStorePath    string            `toml:"durability_store_path"`
	QosProfiles            map[string]QosProfileEntry `toml:"qos_profile"`
}

// QosProfileEntry is one named, reusable QoS bundle in the profile
// library. Fields are flat TOML keys mirroring qos.Profile; zero
// values fall back to qos.Default()'s corresponding field.
type QosProfileEntry struct {
	Durability        string `toml:"durability"`
	Reliability       string `toml:"reliability"`
	History            string `toml:"history"`
	HistoryDepth       int32  `toml:"history_depth"`
	OwnershipKind      string `toml:"ownership"`
	OwnershipStrength  int32  `toml:"ownership_strength"`
}

// Default returns the baseline configuration: domain 0, untagged, UDP
// transport, data_max_size_serialized 65507 (spec.md §6).
func Default() Config {
	return Config{
		DomainId:              0,
		Transport:             TransportUDP,
		DataMaxSizeSerialized: 65507,
	}
}

// Load reads and decodes a TOML config file, filling unset fields from
// Default().
func Load(path string) (Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode %s: %w", path, err)
	}
	if cfg.Transport == "" {
		cfg.Transport = TransportUDP
	}
	if cfg.DataMaxSizeSerialized == 0 {
		cfg.DataMaxSizeSerialized = 65507
	}
	return cfg, nil
}

// ResolveProfile builds a qos.Profile for a named entry in the
// configured profile library, starting from qos.Default() and
// overlaying whichever fields the entry sets.
func (c Config) ResolveProfile(name string) (qos.Profile, error) {
	entry, ok := c.QosProfiles[name]
	if !ok {
		return qos.Profile{}, fmt.Errorf("config: no qos_profile named %q", name)
	}
	profile := qos.Default()
	if entry.Durability != "" {
		k, err := parseDurabilityKind(entry.Durability)
		if err != nil {
			return qos.Profile{}, err
		}
		profile.Durability.Kind = k
	}
	if entry.Reliability != "" {
		k, err := parseReliabilityKind(entry.Reliability)
		if err != nil {
			return qos.Profile{}, err
		}
		profile.Reliability.Kind = k
	}
	if entry.History != "" {
		k, err := parseHistoryKind(entry.History)
		if err != nil {
			return qos.Profile{}, err
		}
		profile.History.Kind = k
	}
	if entry.HistoryDepth != 0 {
		profile.History.Depth = entry.HistoryDepth
	}
	if entry.OwnershipKind != "" {
		k, err := parseOwnershipKind(entry.OwnershipKind)
		if err != nil {
			return qos.Profile{}, err
		}
		profile.Ownership.Kind = k
	}
	if entry.OwnershipStrength != 0 {
		profile.OwnershipStrength.Value = entry.OwnershipStrength
	}
	return profile, nil
}

func parseDurabilityKind(s string) (qos.DurabilityKind, error) {
	switch s {
	case "VOLATILE":
		return qos.Volatile, nil
	case "TRANSIENT_LOCAL":
		return qos.TransientLocal, nil
	}
	return 0, fmt.Errorf("config: unknown durability kind %q", s)
}

func parseReliabilityKind(s string) (qos.ReliabilityKind, error) {
	switch s {
	case "BEST_EFFORT":
		return qos.BestEffort, nil
	case "RELIABLE":
		return qos.Reliable, nil
	}
	return 0, fmt.Errorf("config: unknown reliability kind %q", s)
}

func parseHistoryKind(s string) (qos.HistoryKind, error) {
	switch s {
	case "KEEP_LAST":
		return qos.KeepLast, nil
	case "KEEP_ALL":
		return qos.KeepAll, nil
	}
	return 0, fmt.Errorf("config: unknown history kind %q", s)
}

func parseOwnershipKind(s string) (qos.OwnershipKind, error) {
	switch s {
	case "SHARED":
		return qos.Shared, nil
	case "EXCLUSIVE":
		return qos.Exclusive, nil
	}
	return 0, fmt.Errorf("config: unknown ownership kind %q", s)
}
