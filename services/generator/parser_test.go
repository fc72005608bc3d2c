// Copyright (C) 2025 Spec2Test Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package generator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ruineo-Z/Spec2Test/services/datatypes"
)

func TestParseBareJSON(t *testing.T) {
	raw := `{"test_cases": [{"title": "t", "case_type": "positive", "priority": "low",
		"expected_status_code": 200}], "summary": "s"}`

	parsed, err := NewResponseParser().Parse(raw, "GET", "/x")
	require.NoError(t, err)
	require.Len(t, parsed.Cases, 1)
	assert.Equal(t, "s", parsed.Summary)
	assert.Equal(t, "GET", parsed.Cases[0].Method)
	assert.Equal(t, "/x", parsed.Cases[0].Path)
	assert.NotEmpty(t, parsed.Cases[0].ID)
}

func TestParseFencedJSONWithProse(t *testing.T) {
	raw := "Sure! Here you go:\n```json\n" +
		`{"test_cases": [{"title": "t", "case_type": "negative", "priority": "high",
			"expected_status_code": 422}]}` +
		"\n```\nLet me know if you need more."

	parsed, err := NewResponseParser().Parse(raw, "POST", "/y")
	require.NoError(t, err)
	require.Len(t, parsed.Cases, 1)
	assert.Equal(t, datatypes.CaseNegative, parsed.Cases[0].Type)
}

func TestParseCaseProvidedEndpoint(t *testing.T) {
	// Without a structural endpoint (Markdown generation) the model
	// names method and path per case.
	raw := `{"test_cases": [
		{"title": "list", "case_type": "positive", "priority": "low",
			"method": "get", "path": "/pets", "expected_status_code": 200},
		{"title": "create", "case_type": "positive", "priority": "medium",
			"method": "POST", "path": "/pets", "expected_status_code": 201}
	]}`

	parsed, err := NewResponseParser().Parse(raw, "", "")
	require.NoError(t, err)
	require.Len(t, parsed.Cases, 2)
	assert.Equal(t, "GET", parsed.Cases[0].Method, "method is normalized to upper case")
	assert.Equal(t, "/pets", parsed.Cases[0].Path)
	assert.Equal(t, "POST", parsed.Cases[1].Method)
}

func TestParseStructuralEndpointWins(t *testing.T) {
	// For endpoint generation the prompt fixes the endpoint; a model
	// that echoes a different one must not override it.
	raw := `{"test_cases": [{"title": "t", "case_type": "positive", "priority": "low",
		"method": "DELETE", "path": "/other", "expected_status_code": 200}]}`

	parsed, err := NewResponseParser().Parse(raw, "GET", "/pets")
	require.NoError(t, err)
	require.Len(t, parsed.Cases, 1)
	assert.Equal(t, "GET", parsed.Cases[0].Method)
	assert.Equal(t, "/pets", parsed.Cases[0].Path)
}

func TestParseCaseWithoutEndpointSkipped(t *testing.T) {
	raw := `{"test_cases": [
		{"title": "anchored", "case_type": "positive", "priority": "low",
			"method": "GET", "path": "/pets", "expected_status_code": 200},
		{"title": "floating", "case_type": "positive", "priority": "low",
			"expected_status_code": 200}
	]}`

	parsed, err := NewResponseParser().Parse(raw, "", "")
	require.NoError(t, err)
	require.Len(t, parsed.Cases, 1)
	assert.Equal(t, "anchored", parsed.Cases[0].Title)
	require.Len(t, parsed.Warnings, 1)
	assert.Contains(t, parsed.Warnings[0], "floating")
}

func TestParseSkipsInvalidCases(t *testing.T) {
	// Second case has an unknown case_type, third is missing a title.
	raw := `{"test_cases": [
		{"title": "good", "case_type": "positive", "priority": "low", "expected_status_code": 200},
		{"title": "bad type", "case_type": "chaos", "priority": "low", "expected_status_code": 200},
		{"case_type": "positive", "priority": "low", "expected_status_code": 200}
	]}`

	parsed, err := NewResponseParser().Parse(raw, "GET", "/z")
	require.NoError(t, err)
	require.Len(t, parsed.Cases, 1)
	assert.Equal(t, "good", parsed.Cases[0].Title)
	assert.Len(t, parsed.Warnings, 2)
}

func TestParseDefaultsMissingPriority(t *testing.T) {
	raw := `{"test_cases": [{"title": "t", "case_type": "boundary", "expected_status_code": 200}]}`

	parsed, err := NewResponseParser().Parse(raw, "GET", "/z")
	require.NoError(t, err)
	require.Len(t, parsed.Cases, 1)
	assert.Equal(t, datatypes.PriorityMedium, parsed.Cases[0].Priority)
}

func TestParseRejectsInvalidAssertionType(t *testing.T) {
	raw := `{"test_cases": [{"title": "t", "case_type": "positive", "priority": "low",
		"expected_status_code": 200,
		"assertions": [{"type": "mind_reading", "expected": true}]}]}`

	_, err := NewResponseParser().Parse(raw, "GET", "/z")
	assert.ErrorIs(t, err, ErrNoUsableCases)
}

func TestParseFailures(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"no json at all", "I cannot help with that."},
		{"malformed json", `{"test_cases": [}`},
		{"empty case list", `{"test_cases": []}`},
	}
	p := NewResponseParser()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Parse(tt.raw, "GET", "/z")
			assert.Error(t, err)
		})
	}
}

func TestExtractJSON(t *testing.T) {
	assert.Equal(t, `{"a": 1}`, extractJSON("prefix {\"a\": 1} suffix"))
	assert.Equal(t, `{"a": 1}`, extractJSON("```json\n{\"a\": 1}\n```"))
	assert.Equal(t, "", extractJSON("no braces here"))
}
