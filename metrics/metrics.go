// SPDX-FileCopyrightText: © 2026 corvid authors
// SPDX-License-Identifier: AGPL-3.0-only

// Package metrics exposes prometheus/client_golang counters and gauges
// mirroring the status-condition surface spec.md defines but leaves
// externally unobservable (SPEC_FULL.md §7): SAMPLE_LOST,
// REQUESTED_INCOMPATIBLE_QOS, OFFERED_INCOMPATIBLE_QOS totals, a
// discovered-participant gauge, and heartbeat/acknack counters.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Registry bundles every corvid metric under one prometheus.Registerer
// so a binary can mount them on its own /metrics endpoint without
// reaching for the global DefaultRegisterer.
type Registry struct {
	SampleLostTotal                *prometheus.CounterVec
	RequestedIncompatibleQosTotal   *prometheus.CounterVec
	OfferedIncompatibleQosTotal     *prometheus.CounterVec
	DiscoveredParticipants          prometheus.Gauge
	HeartbeatsSentTotal             *prometheus.CounterVec
	AckNacksSentTotal               *prometheus.CounterVec
	FragmentsReassembledTotal       *prometheus.CounterVec
}

// New creates a Registry and registers every metric with reg.
func New(reg prometheus.Registerer) *Registry {
	m := &Registry{
		SampleLostTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "corvid",
			Name:      "sample_lost_total",
			Help:      "Samples lost before delivery, by reader GUID.",
		}, []string{"reader"}),
		RequestedIncompatibleQosTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "corvid",
			Name:      "requested_incompatible_qos_total",
			Help:      "REQUESTED_INCOMPATIBLE_QOS occurrences, by reader GUID and policy.",
		}, []string{"reader", "policy"}),
		OfferedIncompatibleQosTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "corvid",
			Name:      "offered_incompatible_qos_total",
			Help:      "OFFERED_INCOMPATIBLE_QOS occurrences, by writer GUID and policy.",
		}, []string{"writer", "policy"}),
		DiscoveredParticipants: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "corvid",
			Name:      "discovered_participants",
			Help:      "Currently discovered remote participants.",
		}),
		HeartbeatsSentTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "corvid",
			Name:      "heartbeats_sent_total",
			Help:      "HEARTBEAT submessages sent, by writer GUID.",
		}, []string{"writer"}),
		AckNacksSentTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "corvid",
			Name:      "acknacks_sent_total",
			Help:      "ACKNACK submessages sent, by reader GUID.",
		}, []string{"reader"}),
		FragmentsReassembledTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "corvid",
			Name:      "fragments_reassembled_total",
			Help:      "DATA_FRAG samples fully reassembled, by writer GUID.",
		}, []string{"writer"}),
	}
	reg.MustRegister(
		m.SampleLostTotal,
		m.RequestedIncompatibleQosTotal,
		m.OfferedIncompatibleQosTotal,
		m.DiscoveredParticipants,
		m.HeartbeatsSentTotal,
		m.AckNacksSentTotal,
		m.FragmentsReassembledTotal,
	)
	return m
}
