// Copyright (C) 2025 Spec2Test Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package report

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Ruineo-Z/Spec2Test/services/datatypes"
)

// Analyze builds a full report from a completed run.
func Analyze(run *datatypes.SuiteRun) *Report {
	report := &Report{
		ID:          uuid.NewString(),
		RunID:       run.ID,
		SuiteID:     run.SuiteID,
		Total:       run.Total,
		Passed:      run.Passed,
		Failed:      run.Failed,
		Errored:     run.Errored,
		Skipped:     run.Skipped,
		Duration:    run.FinishedAt.Sub(run.StartedAt).Seconds(),
		GeneratedAt: time.Now(),
		Run:         run,
	}
	if run.Total > 0 {
		report.PassRate = float64(run.Passed) / float64(run.Total)
	}

	collectFailures(run, report)
	report.OverallSeverity = overallSeverity(report.Failures)
	detectPatterns(report)
	analyzeEndpoints(run, report)
	analyzePerformance(run, report)
	suggest(report)

	slog.Info("Run analysis completed",
		"report_id", report.ID, "run_id", run.ID,
		"pass_rate", fmt.Sprintf("%.1f%%", report.PassRate*100),
		"patterns", len(report.Patterns))
	return report
}

func collectFailures(run *datatypes.SuiteRun, report *Report) {
	for i := range run.Results {
		r := &run.Results[i]
		if r.Status == datatypes.StatusPassed || r.Status == datatypes.StatusSkipped {
			continue
		}
		f := Failure{
			CaseID:    r.CaseID,
			CaseTitle: r.CaseTitle,
			Endpoint:  r.Endpoint,
		}
		f.Category, f.Severity, f.Detail = classify(r)
		report.Failures = append(report.Failures, f)
	}
}

// classify maps one non-passing result to a failure category.
func classify(r *datatypes.CaseResult) (FailureCategory, Severity, string) {
	if r.Status == datatypes.StatusError {
		switch {
		case strings.Contains(r.Error, "context deadline exceeded"),
			strings.Contains(r.Error, "Client.Timeout"):
			return FailureTimeout, SeverityHigh, r.Error
		case strings.Contains(r.Error, "connection refused"),
			strings.Contains(r.Error, "no such host"),
			strings.Contains(r.Error, "connection reset"):
			return FailureConnection, SeverityCritical, r.Error
		default:
			return FailureUnknown, SeverityHigh, r.Error
		}
	}

	// A status mismatch is categorized by what the server actually
	// answered; a 401 against an expected 200 points at auth, not at
	// the test case.
	statusFailed := false
	for _, a := range r.Assertions {
		if !a.Passed && a.Assertion.Type == datatypes.AssertStatusCode {
			statusFailed = true
			break
		}
	}
	if statusFailed || r.StatusCode >= 500 {
		switch {
		case r.StatusCode == 401 || r.StatusCode == 403:
			return FailureAuth, SeverityHigh,
				fmt.Sprintf("request was rejected with %d; check credentials and permissions", r.StatusCode)
		case r.StatusCode == 404:
			return FailureNotFound, SeverityMedium,
				"server returned 404; the endpoint or resource does not exist"
		case r.StatusCode >= 500:
			return FailureServer, SeverityCritical,
				fmt.Sprintf("server returned %d", r.StatusCode)
		case r.StatusCode == 400 || r.StatusCode == 422:
			return FailureValidation, SeverityMedium,
				fmt.Sprintf("server rejected the request with %d; the generated input violates validation rules", r.StatusCode)
		default:
			return FailureStatusCode, SeverityHigh,
				fmt.Sprintf("unexpected status %d", r.StatusCode)
		}
	}
	for _, a := range r.Assertions {
		if !a.Passed {
			detail := fmt.Sprintf("%s: %s", a.Assertion.Type, a.Message)
			if hasValidationKeyword(a.Message) {
				return FailureValidation, SeverityMedium, detail
			}
			return FailureAssertion, SeverityMedium, detail
		}
	}
	return FailureUnknown, SeverityMedium, "case failed without a failing assertion"
}

var validationKeywords = []string{"validation", "invalid", "required field", "must be"}

func hasValidationKeyword(msg string) bool {
	lower := strings.ToLower(msg)
	for _, kw := range validationKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

var patternSuggestions = map[FailureCategory]string{
	FailureConnection: "Verify the target base URL is reachable from the runner and the service is up",
	FailureTimeout:    "Raise the per-request timeout or investigate slow endpoints before rerunning",
	FailureServer:     "Inspect server logs: 5xx responses indicate defects in the API under test",
	FailureAuth:       "Configure suite-level auth headers; the target rejects unauthenticated requests",
	FailureNotFound:   "Check the base URL and path parameters; the tested resources do not exist on the target",
	FailureValidation: "Align the generated request bodies with the documented schemas; the target rejects them as invalid",
	FailureStatusCode: "Compare the documented status codes with the actual API behavior; one of them is wrong",
	FailureAssertion:  "Review the failing assertions: either the API contract changed or the generated expectations are stale",
}

var severityRank = map[Severity]int{
	SeverityInfo: 0, SeverityLow: 1, SeverityMedium: 2, SeverityHigh: 3, SeverityCritical: 4,
}

// overallSeverity is the worst severity across all failures.
func overallSeverity(failures []Failure) Severity {
	overall := SeverityInfo
	for _, f := range failures {
		if severityRank[f.Severity] > severityRank[overall] {
			overall = f.Severity
		}
	}
	return overall
}

// detectPatterns groups failures by category; two or more occurrences
// count as a pattern worth calling out.
func detectPatterns(report *Report) {
	byCategory := map[FailureCategory][]Failure{}
	for _, f := range report.Failures {
		byCategory[f.Category] = append(byCategory[f.Category], f)
	}
	for category, failures := range byCategory {
		if len(failures) < 2 {
			continue
		}
		seen := map[string]bool{}
		var endpoints []string
		for _, f := range failures {
			if !seen[f.Endpoint] {
				seen[f.Endpoint] = true
				endpoints = append(endpoints, f.Endpoint)
			}
		}
		sort.Strings(endpoints)
		report.Patterns = append(report.Patterns, Pattern{
			Category:   category,
			Count:      len(failures),
			Endpoints:  endpoints,
			Suggestion: patternSuggestions[category],
		})
	}
	sort.Slice(report.Patterns, func(i, j int) bool {
		return report.Patterns[i].Count > report.Patterns[j].Count
	})
}

func analyzeEndpoints(run *datatypes.SuiteRun, report *Report) {
	type acc struct {
		analysis EndpointAnalysis
		totalMs  float64
		timed    int
	}
	byEndpoint := map[string]*acc{}
	var order []string

	for i := range run.Results {
		r := &run.Results[i]
		a, ok := byEndpoint[r.Endpoint]
		if !ok {
			a = &acc{analysis: EndpointAnalysis{Endpoint: r.Endpoint}}
			byEndpoint[r.Endpoint] = a
			order = append(order, r.Endpoint)
		}
		a.analysis.Total++
		switch r.Status {
		case datatypes.StatusPassed:
			a.analysis.Passed++
		case datatypes.StatusFailed:
			a.analysis.Failed++
		case datatypes.StatusError:
			a.analysis.Errored++
		}
		if r.Duration > 0 {
			a.totalMs += float64(r.Duration.Milliseconds())
			a.timed++
		}
	}

	sort.Strings(order)
	for _, endpoint := range order {
		a := byEndpoint[endpoint]
		if a.analysis.Total > 0 {
			a.analysis.PassRate = float64(a.analysis.Passed) / float64(a.analysis.Total)
		}
		if a.timed > 0 {
			a.analysis.MeanMs = a.totalMs / float64(a.timed)
		}
		report.Endpoints = append(report.Endpoints, a.analysis)
	}
}

func analyzePerformance(run *datatypes.SuiteRun, report *Report) {
	var durations []float64
	slowest := ""
	slowestMs := 0.0
	var total float64

	for i := range run.Results {
		r := &run.Results[i]
		if r.Duration <= 0 {
			continue
		}
		ms := float64(r.Duration.Microseconds()) / 1000
		durations = append(durations, ms)
		total += ms
		if ms > slowestMs {
			slowestMs = ms
			slowest = r.Endpoint
		}
	}
	if len(durations) == 0 {
		return
	}
	sort.Float64s(durations)

	report.Performance = PerformanceMetrics{
		MinMs:           durations[0],
		MaxMs:           durations[len(durations)-1],
		MeanMs:          total / float64(len(durations)),
		P50Ms:           percentile(durations, 50),
		P95Ms:           percentile(durations, 95),
		P99Ms:           percentile(durations, 99),
		SlowestEndpoint: slowest,
		SlowestMs:       slowestMs,
	}
}

// percentile uses nearest-rank on an already sorted slice.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	rank := int(math.Ceil(p/100*float64(len(sorted)))) - 1
	if rank < 0 {
		rank = 0
	}
	if rank >= len(sorted) {
		rank = len(sorted) - 1
	}
	return sorted[rank]
}

func suggest(report *Report) {
	if report.PassRate < 0.5 && report.Total > 0 {
		report.Suggestions = append(report.Suggestions,
			fmt.Sprintf("Only %.0f%% of cases passed; fix systemic failures before drilling into individual cases",
				report.PassRate*100))
	}
	for _, p := range report.Patterns {
		if p.Suggestion != "" {
			report.Suggestions = append(report.Suggestions, p.Suggestion)
		}
	}
	for _, ep := range report.Endpoints {
		if ep.Total >= 2 && ep.PassRate == 0 {
			report.Suggestions = append(report.Suggestions,
				fmt.Sprintf("Every case against %s failed; the endpoint is likely broken or misdocumented", ep.Endpoint))
		}
	}
	if report.Performance.P99Ms > 2000 {
		report.Suggestions = append(report.Suggestions,
			fmt.Sprintf("P99 latency is %.0fms; investigate %s",
				report.Performance.P99Ms, report.Performance.SlowestEndpoint))
	}
}
