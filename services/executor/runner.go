// Copyright (C) 2025 Spec2Test Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package executor sends generated test cases against a live API and
// evaluates their assertions. A Runner executes one suite; a Scheduler
// queues runs as prioritized background tasks.
package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Ruineo-Z/Spec2Test/services/datatypes"
)

// maxCapturedBody bounds how much of each response body is kept on the
// result for reporting.
const maxCapturedBody = 64 * 1024

// RunnerConfig controls suite execution.
type RunnerConfig struct {
	// BaseURL overrides the suite's own base URL when set.
	BaseURL string

	// Timeout applies per request.
	Timeout time.Duration

	// Concurrency caps parallel in-flight cases. 1 means strictly
	// sequential execution in priority order.
	Concurrency int
}

func (c *RunnerConfig) applyDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 5
	}
}

// Runner executes test suites over HTTP.
type Runner struct {
	httpClient *http.Client
}

func NewRunner() *Runner {
	return &Runner{
		httpClient: &http.Client{
			// Redirects are not followed: a 3xx is a result the case
			// asserts on, not something to chase.
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// Run executes every case in the suite and returns the completed run.
// Individual case failures never abort the run; only context
// cancellation stops it early.
func (r *Runner) Run(ctx context.Context, suite *datatypes.TestSuite, cfg RunnerConfig) (*datatypes.SuiteRun, error) {
	cfg.applyDefaults()

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = suite.BaseURL
	}
	if baseURL == "" {
		return nil, fmt.Errorf("suite %s has no base URL and none was provided", suite.ID)
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	run := &datatypes.SuiteRun{
		ID:        uuid.NewString(),
		SuiteID:   suite.ID,
		Status:    datatypes.RunRunning,
		StartedAt: time.Now(),
		Results:   make([]datatypes.CaseResult, len(suite.Cases)),
	}
	slog.Info("Executing test suite",
		"run_id", run.ID, "suite_id", suite.ID, "cases", len(suite.Cases),
		"base_url", baseURL, "concurrency", cfg.Concurrency)

	// Order by priority so critical cases run (and fail) first.
	order := make([]int, len(suite.Cases))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return suite.Cases[order[a]].Priority.Rank() > suite.Cases[order[b]].Priority.Rank()
	})

	var mu sync.Mutex
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(cfg.Concurrency)
	for _, idx := range order {
		eg.Go(func() error {
			result := r.runCase(egCtx, baseURL, suite.Headers, &suite.Cases[idx], cfg.Timeout)
			mu.Lock()
			run.Results[idx] = result
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		run.Status = datatypes.RunFailed
		run.Error = err.Error()
	}

	// Cases never executed because of cancellation show up as skipped.
	for i := range run.Results {
		if run.Results[i].CaseID == "" {
			run.Results[i] = datatypes.CaseResult{
				CaseID:    suite.Cases[i].ID,
				CaseTitle: suite.Cases[i].Title,
				Endpoint:  suite.Cases[i].Method + " " + suite.Cases[i].Path,
				Status:    datatypes.StatusSkipped,
			}
		}
	}

	run.FinishedAt = time.Now()
	run.Tally()
	if run.Status == datatypes.RunRunning {
		run.Status = datatypes.RunCompleted
	}
	if ctx.Err() != nil {
		run.Status = datatypes.RunCancelled
		run.Error = ctx.Err().Error()
	}

	slog.Info("Suite execution finished",
		"run_id", run.ID, "status", run.Status,
		"passed", run.Passed, "failed", run.Failed, "errored", run.Errored,
		"duration", run.FinishedAt.Sub(run.StartedAt))
	return run, nil
}

// RunCase executes a single case against baseURL.
func (r *Runner) RunCase(ctx context.Context, baseURL string, tc *datatypes.TestCase, timeout time.Duration) datatypes.CaseResult {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return r.runCase(ctx, strings.TrimSuffix(baseURL, "/"), nil, tc, timeout)
}

func (r *Runner) runCase(ctx context.Context, baseURL string, suiteHeaders map[string]string, tc *datatypes.TestCase, timeout time.Duration) datatypes.CaseResult {
	result := datatypes.CaseResult{
		CaseID:     tc.ID,
		CaseTitle:  tc.Title,
		Endpoint:   tc.Method + " " + tc.Path,
		ExecutedAt: time.Now(),
	}

	req, err := buildRequest(ctx, baseURL, suiteHeaders, tc, timeout)
	if err != nil {
		result.Status = datatypes.StatusError
		result.Error = err.Error()
		return result
	}
	defer req.cancel()

	start := time.Now()
	httpResp, err := r.httpClient.Do(req.req)
	duration := time.Since(start)
	result.Duration = duration
	if err != nil {
		result.Status = datatypes.StatusError
		result.Error = err.Error()
		slog.Warn("Test case request failed", "case", tc.Title, "error", err)
		return result
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, maxCapturedBody))
	if err != nil {
		result.Status = datatypes.StatusError
		result.Error = fmt.Sprintf("read response body: %v", err)
		return result
	}

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Duration:   duration,
		Header:     httpResp.Header,
		Body:       body,
	}
	result.StatusCode = resp.StatusCode
	result.ResponseSize = int64(len(body))

	assertions := withImplicitStatusAssertion(tc)
	results, allPassed := EvaluateAll(assertions, resp)
	result.Assertions = results
	if allPassed {
		result.Status = datatypes.StatusPassed
	} else {
		result.Status = datatypes.StatusFailed
		result.ResponseBody = string(body)
	}
	return result
}

// withImplicitStatusAssertion prepends a status_code assertion derived
// from ExpectedStatusCode unless the case already declares one.
func withImplicitStatusAssertion(tc *datatypes.TestCase) []datatypes.Assertion {
	for _, a := range tc.Assertions {
		if a.Type == datatypes.AssertStatusCode {
			return tc.Assertions
		}
	}
	implicit := datatypes.Assertion{
		Type:     datatypes.AssertStatusCode,
		Expected: tc.ExpectedStatusCode,
	}
	return append([]datatypes.Assertion{implicit}, tc.Assertions...)
}

type preparedRequest struct {
	req    *http.Request
	cancel context.CancelFunc
}

func buildRequest(ctx context.Context, baseURL string, suiteHeaders map[string]string, tc *datatypes.TestCase, timeout time.Duration) (*preparedRequest, error) {
	path := tc.Path
	for name, value := range tc.Request.PathParams {
		path = strings.ReplaceAll(path, "{"+name+"}", url.PathEscape(value))
	}

	var body io.Reader
	contentType := ""
	if tc.Request.Body != nil {
		encoded, err := json.Marshal(tc.Request.Body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(encoded)
		contentType = "application/json"
	}

	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	req, err := http.NewRequestWithContext(reqCtx, tc.Method, baseURL+path, body)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("build request: %w", err)
	}

	if len(tc.Request.Query) > 0 {
		q := req.URL.Query()
		for name, value := range tc.Request.Query {
			q.Set(name, value)
		}
		req.URL.RawQuery = q.Encode()
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for name, value := range suiteHeaders {
		req.Header.Set(name, value)
	}
	for name, value := range tc.Request.Headers {
		req.Header.Set(name, value)
	}
	return &preparedRequest{req: req, cancel: cancel}, nil
}
