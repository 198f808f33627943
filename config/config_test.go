// SPDX-FileCopyrightText: © 2026 corvid authors
// SPDX-License-Identifier: AGPL-3.0-only
package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/corvidds/corvid/rtps/qos"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()
	require.Equal(t, uint32(0), cfg.DomainId)
	require.Equal(t, TransportUDP, cfg.Transport)
	require.Equal(t, 65507, cfg.DataMaxSizeSerialized)
}

func TestLoadFillsUnsetFieldsFromDefault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "corvid.toml")
	require.NoError(t, os.WriteFile(path, []byte(`domain_id = 7`+"\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, uint32(7), cfg.DomainId)
	require.Equal(t, TransportUDP, cfg.Transport)
	require.Equal(t, 65507, cfg.DataMaxSizeSerialized)
}

func TestLoadMissingFileErrors(t *testing.T) {
	_, err := Load("/nonexistent/path/corvid.toml")
	require.Error(t, err)
}

func TestResolveProfileOverlaysNamedEntry(t *testing.T) {
	cfg := Default()
	cfg.QosProfiles = map[string]QosProfileEntry{
		"reliable": {Reliability: "RELIABLE", History: "KEEP_ALL", OwnershipKind: "EXCLUSIVE", OwnershipStrength: 5},
	}

	profile, err := cfg.ResolveProfile("reliable")
	require.NoError(t, err)
	require.Equal(t, qos.Reliable, profile.Reliability.Kind)
	require.Equal(t, qos.KeepAll, profile.History.Kind)
	require.Equal(t, qos.Exclusive, profile.Ownership.Kind)
	require.Equal(t, int32(5), profile.OwnershipStrength.Value)
	// fields not set in the entry fall back to qos.Default().
	require.Equal(t, qos.Volatile, profile.Durability.Kind)
}

func TestResolveProfileUnknownNameErrors(t *testing.T) {
	cfg := Default()
	_, err := cfg.ResolveProfile("missing")
	require.Error(t, err)
}

func TestResolveProfileUnknownEnumValueErrors(t *testing.T) {
	cfg := Default()
	cfg.QosProfiles = map[string]QosProfileEntry{"bad": {Reliability: "MAYBE"}}
	_, err := cfg.ResolveProfile("bad")
	require.Error(t, err)
}
