// Copyright (C) 2025 Spec2Test Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package observability provides Prometheus metrics for the API server.
//
// Metrics cover the three stages of the pipeline: document ingestion,
// test generation, and suite execution. They are exposed via the
// /metrics endpoint for Prometheus + Grafana.
//
// All metric operations are thread-safe via Prometheus's internal
// locking.
package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace for all metrics
const metricsNamespace = "spec2test"

// Metrics holds all Prometheus metrics for the pipeline.
// Initialize once at startup via InitMetrics().
type Metrics struct {
	// DocumentsIngestedTotal counts uploaded documents.
	// Labels: format (openapi, markdown), status (success, error)
	DocumentsIngestedTotal *prometheus.CounterVec

	// GenerationsTotal counts generation runs.
	// Labels: status (success, error)
	GenerationsTotal *prometheus.CounterVec

	// GeneratedCasesTotal counts individual test cases produced.
	GeneratedCasesTotal prometheus.Counter

	// GenerationDurationSeconds measures end-to-end generation time.
	GenerationDurationSeconds prometheus.Histogram

	// ExecutionsTotal counts suite executions.
	// Labels: status (completed, failed, cancelled)
	ExecutionsTotal *prometheus.CounterVec

	// CaseResultsTotal counts executed cases by outcome.
	// Labels: status (passed, failed, error, skipped)
	CaseResultsTotal *prometheus.CounterVec

	// ExecutionDurationSeconds measures whole-suite execution time.
	ExecutionDurationSeconds prometheus.Histogram

	// PendingTasks tracks tasks waiting in the scheduler queue.
	PendingTasks prometheus.Gauge
}

// DefaultMetrics is the singleton instance, initialized by InitMetrics().
var (
	DefaultMetrics *Metrics
	initOnce       sync.Once
)

// InitMetrics creates and registers all Prometheus metrics. Safe to
// call more than once; registration happens on the first call only.
func InitMetrics() *Metrics {
	initOnce.Do(register)
	return DefaultMetrics
}

func register() {
	DefaultMetrics = &Metrics{
		DocumentsIngestedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "documents_ingested_total",
			Help:      "Uploaded API documents by format and status.",
		}, []string{"format", "status"}),

		GenerationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "generations_total",
			Help:      "Test generation runs by status.",
		}, []string{"status"}),

		GeneratedCasesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "generated_cases_total",
			Help:      "Individual test cases produced by the generator.",
		}),

		GenerationDurationSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "generation_duration_seconds",
			Help:      "End-to-end duration of one generation run.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),

		ExecutionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "executions_total",
			Help:      "Suite executions by final run status.",
		}, []string{"status"}),

		CaseResultsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "case_results_total",
			Help:      "Executed test cases by outcome.",
		}, []string{"status"}),

		ExecutionDurationSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "execution_duration_seconds",
			Help:      "Whole-suite execution duration.",
			Buckets:   []float64{0.5, 1, 5, 15, 30, 60, 120, 300},
		}),

		PendingTasks: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "pending_tasks",
			Help:      "Tasks waiting in the scheduler queue.",
		}),
	}
}

// ObserveRun records the per-case outcomes of one finished run.
func (m *Metrics) ObserveRun(status string, caseStatuses map[string]int, duration float64) {
	if m == nil {
		return
	}
	m.ExecutionsTotal.WithLabelValues(status).Inc()
	m.ExecutionDurationSeconds.Observe(duration)
	for caseStatus, count := range caseStatuses {
		m.CaseResultsTotal.WithLabelValues(caseStatus).Add(float64(count))
	}
}
