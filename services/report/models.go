// Copyright (C) 2025 Spec2Test Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package report analyzes suite runs and renders them as JSON or HTML.
package report

import (
	"time"

	"github.com/Ruineo-Z/Spec2Test/services/datatypes"
)

// FailureCategory classifies why a case did not pass.
type FailureCategory string

const (
	FailureAssertion  FailureCategory = "assertion_mismatch"
	FailureStatusCode FailureCategory = "unexpected_status"
	FailureTimeout    FailureCategory = "timeout"
	FailureConnection FailureCategory = "connection_error"
	FailureAuth       FailureCategory = "auth_failure"
	FailureNotFound   FailureCategory = "not_found"
	FailureValidation FailureCategory = "validation_error"
	FailureServer     FailureCategory = "server_error"
	FailureUnknown    FailureCategory = "unknown"
)

// Severity ranks how urgently a finding needs attention.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"
)

// Failure is one failed or errored case with its classification.
type Failure struct {
	CaseID    string          `json:"case_id"`
	CaseTitle string          `json:"case_title"`
	Endpoint  string          `json:"endpoint"`
	Category  FailureCategory `json:"category"`
	Severity  Severity        `json:"severity"`
	Detail    string          `json:"detail"`
}

// Pattern is a recurring failure shape across multiple cases.
type Pattern struct {
	Category FailureCategory `json:"category"`
	Count    int             `json:"count"`
	// Endpoints lists the distinct endpoints showing this failure.
	Endpoints  []string `json:"endpoints"`
	Suggestion string   `json:"suggestion"`
}

// PerformanceMetrics summarizes response latencies over a run.
type PerformanceMetrics struct {
	MinMs  float64 `json:"min_ms"`
	MaxMs  float64 `json:"max_ms"`
	MeanMs float64 `json:"mean_ms"`
	P50Ms  float64 `json:"p50_ms"`
	P95Ms  float64 `json:"p95_ms"`
	P99Ms  float64 `json:"p99_ms"`

	SlowestEndpoint string  `json:"slowest_endpoint,omitempty"`
	SlowestMs       float64 `json:"slowest_ms,omitempty"`
}

// EndpointAnalysis aggregates results per endpoint.
type EndpointAnalysis struct {
	Endpoint string  `json:"endpoint"`
	Total    int     `json:"total"`
	Passed   int     `json:"passed"`
	Failed   int     `json:"failed"`
	Errored  int     `json:"errored"`
	PassRate float64 `json:"pass_rate"` // 0-1
	MeanMs   float64 `json:"mean_ms"`
}

// Report is the full analysis of one suite run.
type Report struct {
	ID      string `json:"id"`
	RunID   string `json:"run_id"`
	SuiteID string `json:"suite_id"`

	Total    int     `json:"total"`
	Passed   int     `json:"passed"`
	Failed   int     `json:"failed"`
	Errored  int     `json:"errored"`
	Skipped  int     `json:"skipped"`
	PassRate float64 `json:"pass_rate"` // 0-1

	// OverallSeverity is the worst failure severity in the run, or
	// "info" when everything passed.
	OverallSeverity Severity `json:"overall_severity"`

	Failures  []Failure          `json:"failures,omitempty"`
	Patterns  []Pattern          `json:"patterns,omitempty"`
	Endpoints []EndpointAnalysis `json:"endpoints"`

	Performance PerformanceMetrics `json:"performance"`

	Suggestions []string  `json:"suggestions,omitempty"`
	Duration    float64   `json:"duration_seconds"`
	GeneratedAt time.Time `json:"generated_at"`

	// Run keeps the raw results so the HTML template can show
	// per-case detail.
	Run *datatypes.SuiteRun `json:"-"`
}
