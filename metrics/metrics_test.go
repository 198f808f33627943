// SPDX-FileCopyrightText: © 2026 corvid authors
// SPDX-License-Identifier: AGPL-3.0-only
package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestNewRegistersEveryMetricExactlyOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NotPanics(t, func() { New(reg) })
}

func TestSampleLostTotalIncrementsPerReader(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.SampleLostTotal.WithLabelValues("reader-1").Inc()
	m.SampleLostTotal.WithLabelValues("reader-1").Inc()
	m.SampleLostTotal.WithLabelValues("reader-2").Inc()

	require.Equal(t, float64(2), testutil.ToFloat64(m.SampleLostTotal.WithLabelValues("reader-1")))
	require.Equal(t, float64(1), testutil.ToFloat64(m.SampleLostTotal.WithLabelValues("reader-2")))
}

func TestDiscoveredParticipantsGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.DiscoveredParticipants.Set(3)
	require.Equal(t, float64(3), testutil.ToFloat64(m.DiscoveredParticipants))
}
