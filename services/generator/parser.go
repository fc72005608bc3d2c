// Copyright (C) 2025 Spec2Test Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package generator

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/Ruineo-Z/Spec2Test/services/datatypes"
)

// ErrNoUsableCases means the model answered but none of its cases
// survived validation.
var ErrNoUsableCases = errors.New("LLM response contained no usable test cases")

// llmResponse mirrors the JSON object the prompt asks the model for.
type llmResponse struct {
	TestCases       []llmCase `json:"test_cases"`
	Summary         string    `json:"summary"`
	Recommendations []string  `json:"recommendations"`
}

type llmCase struct {
	Title              string                `json:"title"`
	Description        string                `json:"description"`
	CaseType           string                `json:"case_type"`
	Priority           string                `json:"priority"`
	Method             string                `json:"method"`
	Path               string                `json:"path"`
	RequestData        datatypes.RequestData `json:"request_data"`
	ExpectedStatusCode int                   `json:"expected_status_code"`
	Assertions         []datatypes.Assertion `json:"assertions"`
	Tags               []string              `json:"tags"`
}

// ParsedResponse is one decoded and validated model response.
type ParsedResponse struct {
	Cases           []datatypes.TestCase
	Summary         string
	Recommendations []string

	// Warnings describe cases the parser had to drop.
	Warnings []string
}

// ResponseParser converts raw model output into validated test cases.
// Models wrap JSON in code fences and prose more often than not, so the
// parser extracts the outermost JSON object before decoding.
type ResponseParser struct {
	validate *validator.Validate
}

func NewResponseParser() *ResponseParser {
	return &ResponseParser{validate: validator.New()}
}

// Parse decodes one model response. method and path name the endpoint
// under test; when they are empty (Markdown generation) each case must
// carry its own method and path. Cases that fail validation are skipped
// with a warning; the response as a whole only fails when nothing
// usable remains.
func (p *ResponseParser) Parse(raw, method, path string) (*ParsedResponse, error) {
	payload := extractJSON(raw)
	if payload == "" {
		return nil, fmt.Errorf("no JSON object found in LLM response")
	}

	var resp llmResponse
	if err := json.Unmarshal([]byte(payload), &resp); err != nil {
		return nil, fmt.Errorf("decode LLM response: %w", err)
	}

	parsed := &ParsedResponse{
		Summary:         resp.Summary,
		Recommendations: resp.Recommendations,
	}
	for i := range resp.TestCases {
		tc, err := p.buildCase(&resp.TestCases[i], method, path)
		if err != nil {
			parsed.Warnings = append(parsed.Warnings,
				fmt.Sprintf("skipped case %q: %v", resp.TestCases[i].Title, err))
			slog.Warn("Skipping invalid generated test case",
				"title", resp.TestCases[i].Title, "endpoint", method+" "+path, "error", err)
			continue
		}
		parsed.Cases = append(parsed.Cases, tc)
	}
	if len(parsed.Cases) == 0 {
		return nil, ErrNoUsableCases
	}
	return parsed, nil
}

func (p *ResponseParser) buildCase(c *llmCase, method, path string) (datatypes.TestCase, error) {
	// Markdown chunks have no structural endpoint, so the model names
	// one per case.
	if method == "" {
		method = strings.ToUpper(strings.TrimSpace(c.Method))
	}
	if path == "" {
		path = strings.TrimSpace(c.Path)
	}
	tc := datatypes.TestCase{
		ID:                 uuid.NewString(),
		Title:              strings.TrimSpace(c.Title),
		Description:        c.Description,
		Type:               datatypes.CaseType(strings.ToLower(c.CaseType)),
		Priority:           datatypes.CasePriority(strings.ToLower(c.Priority)),
		Method:             method,
		Path:               path,
		Request:            c.RequestData,
		ExpectedStatusCode: c.ExpectedStatusCode,
		Assertions:         c.Assertions,
		Tags:               c.Tags,
		CreatedAt:          time.Now(),
	}
	if tc.Priority == "" {
		tc.Priority = datatypes.PriorityMedium
	}
	if err := p.validate.Struct(&tc); err != nil {
		return datatypes.TestCase{}, err
	}
	return tc, nil
}

// extractJSON strips markdown code fences and surrounding prose,
// returning the outermost {...} object.
func extractJSON(raw string) string {
	s := strings.TrimSpace(raw)
	if idx := strings.Index(s, "```"); idx >= 0 {
		s = s[idx+3:]
		s = strings.TrimPrefix(s, "json")
		if end := strings.Index(s, "```"); end >= 0 {
			s = s[:end]
		}
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}
