// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package observability provides metrics and instrumentation for the forge
// service.
//
// # Description
//
// This package implements Prometheus metrics for monitoring synthesis
// pipeline runs. Metrics include:
//   - Run counters (by endpoint, status)
//   - Phase duration histograms
//   - File command counters (by kind)
//   - Patch fallback and repair counters
//   - Active stream gauges
//
// # Integration
//
// Metrics are exposed via /metrics endpoint. Use with Prometheus + Grafana
// for dashboards and alerting.
//
// # Thread Safety
//
// All metric operations are thread-safe via Prometheus's internal locking.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// Metric Definitions
// =============================================================================

// Namespace for all metrics
const metricsNamespace = "forge"

// Subsystem for synthesis metrics
const synthesisSubsystem = "synthesis"

// SynthesisMetrics holds all Prometheus metrics for pipeline operations.
//
// # Description
//
// Provides counters, histograms, and gauges for monitoring pipeline
// performance and output quality. Initialize once at startup via
// InitMetrics().
//
// # Thread Safety
//
// All operations are thread-safe.
type SynthesisMetrics struct {
	// RunsTotal counts pipeline runs by endpoint and status.
	// Labels: endpoint (batch, stream), status (success, error)
	RunsTotal *prometheus.CounterVec

	// PhaseDurationSeconds measures per-phase wall time.
	// Labels: phase (architect, code, validate)
	PhaseDurationSeconds *prometheus.HistogramVec

	// FileCommandsTotal counts applied file commands by kind.
	// Labels: kind (CREATE_FILE, UPDATE_FILE, DELETE_FILE, PATCH_FILE)
	FileCommandsTotal *prometheus.CounterVec

	// RepairsTotal counts automatic validation repairs.
	RepairsTotal prometheus.Counter

	// ValidationFailuresTotal counts runs whose output failed validation.
	ValidationFailuresTotal prometheus.Counter

	// ActiveStreams tracks currently open synthesis streams.
	ActiveStreams prometheus.Gauge

	// ClientDisconnectsTotal counts client disconnections during streaming.
	ClientDisconnectsTotal prometheus.Counter
}

// DefaultMetrics is the singleton instance of SynthesisMetrics.
// Initialized by InitMetrics().
var DefaultMetrics *SynthesisMetrics

// InitMetrics initializes the default metrics instance.
//
// # Description
//
// Creates and registers all Prometheus metrics. Should be called once
// at application startup, after Prometheus registry is available.
//
// # Limitations
//
//   - Panics if called twice (duplicate registration).
func InitMetrics() *SynthesisMetrics {
	DefaultMetrics = &SynthesisMetrics{
		RunsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: synthesisSubsystem,
				Name:      "runs_total",
				Help:      "Total pipeline runs by endpoint and status",
			},
			[]string{"endpoint", "status"},
		),

		PhaseDurationSeconds: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: synthesisSubsystem,
				Name:      "phase_duration_seconds",
				Help:      "Wall time per pipeline phase in seconds",
				Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
			},
			[]string{"phase"},
		),

		FileCommandsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: synthesisSubsystem,
				Name:      "file_commands_total",
				Help:      "Applied file commands by kind",
			},
			[]string{"kind"},
		),

		RepairsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: synthesisSubsystem,
				Name:      "repairs_total",
				Help:      "Automatic validation repairs applied",
			},
		),

		ValidationFailuresTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: synthesisSubsystem,
				Name:      "validation_failures_total",
				Help:      "Runs whose generated files failed validation",
			},
		),

		ActiveStreams: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Subsystem: synthesisSubsystem,
				Name:      "active_streams",
				Help:      "Currently open synthesis streams",
			},
		),

		ClientDisconnectsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: synthesisSubsystem,
				Name:      "client_disconnects_total",
				Help:      "Client disconnections during streaming",
			},
		),
	}

	return DefaultMetrics
}

// =============================================================================
// Endpoint Names
// =============================================================================

// Endpoint represents a synthesis endpoint for metrics labeling.
type Endpoint string

const (
	// EndpointBatch is the batch synthesis endpoint.
	EndpointBatch Endpoint = "batch"

	// EndpointStream is the streaming synthesis endpoint.
	EndpointStream Endpoint = "stream"
)

// =============================================================================
// Helper Methods
// =============================================================================

// RecordRun records a completed pipeline run.
func (m *SynthesisMetrics) RecordRun(endpoint Endpoint, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	m.RunsTotal.WithLabelValues(string(endpoint), status).Inc()
}

// RecordPhase records one phase's wall time.
func (m *SynthesisMetrics) RecordPhase(phase string, seconds float64) {
	m.PhaseDurationSeconds.WithLabelValues(phase).Observe(seconds)
}

// RecordCommand counts one applied file command.
func (m *SynthesisMetrics) RecordCommand(kind string) {
	m.FileCommandsTotal.WithLabelValues(kind).Inc()
}

// RecordRepairs adds applied repair count for one run.
func (m *SynthesisMetrics) RecordRepairs(n int) {
	m.RepairsTotal.Add(float64(n))
}

// RecordValidationFailure counts a run that produced invalid files.
func (m *SynthesisMetrics) RecordValidationFailure() {
	m.ValidationFailuresTotal.Inc()
}

// StreamStarted increments the active streams gauge.
func (m *SynthesisMetrics) StreamStarted() {
	m.ActiveStreams.Inc()
}

// StreamEnded decrements the active streams gauge.
func (m *SynthesisMetrics) StreamEnded() {
	m.ActiveStreams.Dec()
}

// RecordClientDisconnect increments the client disconnect counter.
func (m *SynthesisMetrics) RecordClientDisconnect() {
	m.ClientDisconnectsTotal.Inc()
}
