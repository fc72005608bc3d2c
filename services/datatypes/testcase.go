// Copyright (C) 2025 Spec2Test Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package datatypes holds the test case, suite, and result types shared
// by the generator, executor, report, storage, and API layers.
package datatypes

import "time"

// CaseType classifies what a test case is probing for.
type CaseType string

const (
	CasePositive    CaseType = "positive"
	CaseNegative    CaseType = "negative"
	CaseBoundary    CaseType = "boundary"
	CaseSecurity    CaseType = "security"
	CasePerformance CaseType = "performance"
)

// CasePriority orders cases by importance. Higher priorities run first
// when a suite is executed with limited concurrency.
type CasePriority string

const (
	PriorityCritical CasePriority = "critical"
	PriorityHigh     CasePriority = "high"
	PriorityMedium   CasePriority = "medium"
	PriorityLow      CasePriority = "low"
)

// Rank returns a sortable weight for the priority, highest first.
func (p CasePriority) Rank() int {
	switch p {
	case PriorityCritical:
		return 4
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

// AssertionType names a check applied to an HTTP response.
type AssertionType string

const (
	AssertStatusCode      AssertionType = "status_code"
	AssertResponseTime    AssertionType = "response_time"
	AssertResponseSize    AssertionType = "response_size"
	AssertHeaderExists    AssertionType = "header_exists"
	AssertHeaderValue     AssertionType = "header_value"
	AssertBodyContains    AssertionType = "body_contains"
	AssertBodyNotContains AssertionType = "body_not_contains"
	AssertJSONPath        AssertionType = "json_path"
	AssertRegexMatch      AssertionType = "regex_match"
)

// Assertion is one declarative check on a response.
//
// Target is the header name for header assertions, the gjson path for
// json_path assertions, and the pattern for regex_match. Operator is
// one of eq, ne, gt, gte, lt, lte, contains; empty means eq.
type Assertion struct {
	Type     AssertionType `json:"type" validate:"required,oneof=status_code response_time response_size header_exists header_value body_contains body_not_contains json_path regex_match"`
	Target   string        `json:"target,omitempty"`
	Operator string        `json:"operator,omitempty" validate:"omitempty,oneof=eq ne gt gte lt lte contains"`
	Expected any           `json:"expected,omitempty"`
}

// RequestData is the concrete HTTP request a test case sends.
type RequestData struct {
	PathParams map[string]string `json:"path_params,omitempty"`
	Query      map[string]string `json:"query,omitempty"`
	Headers    map[string]string `json:"headers,omitempty"`
	Body       any               `json:"body,omitempty"`
}

// TestCase is one executable API test.
type TestCase struct {
	ID          string       `json:"id"`
	SuiteID     string       `json:"suite_id,omitempty"`
	Title       string       `json:"title" validate:"required"`
	Description string       `json:"description,omitempty"`
	Type        CaseType     `json:"case_type" validate:"required,oneof=positive negative boundary security performance"`
	Priority    CasePriority `json:"priority" validate:"required,oneof=critical high medium low"`

	Method  string      `json:"method" validate:"required"`
	Path    string      `json:"path" validate:"required"`
	Request RequestData `json:"request_data"`

	ExpectedStatusCode int         `json:"expected_status_code" validate:"required,min=100,max=599"`
	Assertions         []Assertion `json:"assertions,omitempty" validate:"dive"`
	Tags               []string    `json:"tags,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// TestSuite groups the generated cases for one document.
type TestSuite struct {
	ID         string `json:"id"`
	DocumentID string `json:"document_id,omitempty"`
	Name       string `json:"name"`
	BaseURL    string `json:"base_url,omitempty"`

	// Headers apply to every request of the suite. A case header with
	// the same name wins.
	Headers map[string]string `json:"headers,omitempty"`

	Cases           []TestCase `json:"cases"`
	Summary         string     `json:"summary,omitempty"`
	Recommendations []string   `json:"recommendations,omitempty"`

	// Generation records how the suite was produced. Nil for suites
	// that were imported rather than generated.
	Generation *GenerationStats `json:"generation,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// GenerationStats summarizes one generation run over a document.
type GenerationStats struct {
	Endpoints       int `json:"endpoints,omitempty"`
	Chunks          int `json:"chunks,omitempty"`
	LLMCalls        int `json:"llm_calls"`
	FailedEndpoints int `json:"failed_endpoints,omitempty"`

	CasesByType     map[CaseType]int     `json:"cases_by_type"`
	CasesByPriority map[CasePriority]int `json:"cases_by_priority"`

	DurationSeconds float64  `json:"duration_seconds"`
	Errors          []string `json:"errors,omitempty"`
	Warnings        []string `json:"warnings,omitempty"`
}

// CaseStatus is the outcome of executing one test case.
type CaseStatus string

const (
	StatusPassed  CaseStatus = "passed"
	StatusFailed  CaseStatus = "failed"  // at least one assertion failed
	StatusError   CaseStatus = "error"   // the request itself failed
	StatusSkipped CaseStatus = "skipped"
)

// AssertionResult records the outcome of one assertion.
type AssertionResult struct {
	Assertion Assertion `json:"assertion"`
	Passed    bool      `json:"passed"`
	Actual    any       `json:"actual,omitempty"`
	Message   string    `json:"message,omitempty"`
}

// CaseResult is the execution record of one test case.
type CaseResult struct {
	CaseID    string     `json:"case_id"`
	CaseTitle string     `json:"case_title"`
	Endpoint  string     `json:"endpoint"`
	Status    CaseStatus `json:"status"`

	StatusCode   int           `json:"status_code,omitempty"`
	Duration     time.Duration `json:"duration"`
	ResponseSize int64         `json:"response_size,omitempty"`
	ResponseBody string        `json:"response_body,omitempty"`

	Assertions []AssertionResult `json:"assertions,omitempty"`
	Error      string            `json:"error,omitempty"`
	ExecutedAt time.Time         `json:"executed_at"`
}

// RunStatus is the lifecycle state of a suite run.
type RunStatus string

const (
	RunPending   RunStatus = "pending"
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
	RunCancelled RunStatus = "cancelled"
)

// SuiteRun is the execution record of one whole suite.
type SuiteRun struct {
	ID      string    `json:"id"`
	SuiteID string    `json:"suite_id"`
	Status  RunStatus `json:"status"`

	Results []CaseResult `json:"results"`

	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Errored int `json:"errored"`
	Skipped int `json:"skipped"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// Tally recomputes the per-status counters from Results.
func (r *SuiteRun) Tally() {
	r.Total = len(r.Results)
	r.Passed, r.Failed, r.Errored, r.Skipped = 0, 0, 0, 0
	for i := range r.Results {
		switch r.Results[i].Status {
		case StatusPassed:
			r.Passed++
		case StatusFailed:
			r.Failed++
		case StatusError:
			r.Errored++
		case StatusSkipped:
			r.Skipped++
		}
	}
}
