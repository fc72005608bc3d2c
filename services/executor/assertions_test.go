// Copyright (C) 2025 Spec2Test Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package executor

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Ruineo-Z/Spec2Test/services/datatypes"
)

func sampleResponse() *Response {
	header := http.Header{}
	header.Set("Content-Type", "application/json")
	header.Set("X-Request-Id", "abc-123")
	return &Response{
		StatusCode: 200,
		Duration:   150 * time.Millisecond,
		Header:     header,
		Body:       []byte(`{"data": {"id": 42, "name": "widget"}, "items": [1, 2, 3]}`),
	}
}

func TestEvaluate(t *testing.T) {
	resp := sampleResponse()

	tests := []struct {
		name      string
		assertion datatypes.Assertion
		pass      bool
	}{
		{
			name:      "status code equal",
			assertion: datatypes.Assertion{Type: datatypes.AssertStatusCode, Expected: 200},
			pass:      true,
		},
		{
			name:      "status code mismatch",
			assertion: datatypes.Assertion{Type: datatypes.AssertStatusCode, Expected: 404},
			pass:      false,
		},
		{
			name:      "status code from json number",
			assertion: datatypes.Assertion{Type: datatypes.AssertStatusCode, Expected: float64(200)},
			pass:      true,
		},
		{
			name:      "response time under bound",
			assertion: datatypes.Assertion{Type: datatypes.AssertResponseTime, Expected: 0.5},
			pass:      true,
		},
		{
			name:      "response time over bound",
			assertion: datatypes.Assertion{Type: datatypes.AssertResponseTime, Expected: 0.1},
			pass:      false,
		},
		{
			name:      "response size explicit operator",
			assertion: datatypes.Assertion{Type: datatypes.AssertResponseSize, Operator: "gt", Expected: 10},
			pass:      true,
		},
		{
			name:      "header exists",
			assertion: datatypes.Assertion{Type: datatypes.AssertHeaderExists, Target: "X-Request-Id"},
			pass:      true,
		},
		{
			name:      "header missing",
			assertion: datatypes.Assertion{Type: datatypes.AssertHeaderExists, Target: "X-Missing"},
			pass:      false,
		},
		{
			name:      "header value contains",
			assertion: datatypes.Assertion{Type: datatypes.AssertHeaderValue, Target: "Content-Type", Operator: "contains", Expected: "json"},
			pass:      true,
		},
		{
			name:      "body contains",
			assertion: datatypes.Assertion{Type: datatypes.AssertBodyContains, Expected: "widget"},
			pass:      true,
		},
		{
			name:      "body not contains",
			assertion: datatypes.Assertion{Type: datatypes.AssertBodyNotContains, Expected: "error"},
			pass:      true,
		},
		{
			name:      "json path number",
			assertion: datatypes.Assertion{Type: datatypes.AssertJSONPath, Target: "data.id", Expected: 42},
			pass:      true,
		},
		{
			name:      "json path string",
			assertion: datatypes.Assertion{Type: datatypes.AssertJSONPath, Target: "data.name", Expected: "widget"},
			pass:      true,
		},
		{
			name:      "json path nested array",
			assertion: datatypes.Assertion{Type: datatypes.AssertJSONPath, Target: "items.1", Expected: 2},
			pass:      true,
		},
		{
			name:      "json path existence only",
			assertion: datatypes.Assertion{Type: datatypes.AssertJSONPath, Target: "data"},
			pass:      true,
		},
		{
			name:      "json path missing",
			assertion: datatypes.Assertion{Type: datatypes.AssertJSONPath, Target: "data.missing", Expected: 1},
			pass:      false,
		},
		{
			name:      "json path numeric comparison",
			assertion: datatypes.Assertion{Type: datatypes.AssertJSONPath, Target: "data.id", Operator: "gte", Expected: 40},
			pass:      true,
		},
		{
			name:      "regex match",
			assertion: datatypes.Assertion{Type: datatypes.AssertRegexMatch, Target: `"id":\s*\d+`},
			pass:      true,
		},
		{
			name:      "regex no match",
			assertion: datatypes.Assertion{Type: datatypes.AssertRegexMatch, Target: `"uuid":`},
			pass:      false,
		},
		{
			name:      "invalid regex fails",
			assertion: datatypes.Assertion{Type: datatypes.AssertRegexMatch, Target: `([`},
			pass:      false,
		},
		{
			name:      "unknown type fails",
			assertion: datatypes.Assertion{Type: "telepathy"},
			pass:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Evaluate(tt.assertion, resp)
			assert.Equal(t, tt.pass, result.Passed, "message: %s", result.Message)
			if !tt.pass {
				assert.NotEmpty(t, result.Message)
			}
		})
	}
}

func TestResponseTimeExpectedInSeconds(t *testing.T) {
	resp := &Response{StatusCode: 200, Duration: 500 * time.Millisecond}

	result := Evaluate(datatypes.Assertion{
		Type: datatypes.AssertResponseTime, Expected: 2,
	}, resp)
	assert.True(t, result.Passed, "0.5s is within a 2s bound: %s", result.Message)
	assert.Equal(t, 0.5, result.Actual)

	result = Evaluate(datatypes.Assertion{
		Type: datatypes.AssertResponseTime, Expected: 0.25,
	}, resp)
	assert.False(t, result.Passed)
}

func TestEvaluateAll(t *testing.T) {
	resp := sampleResponse()
	assertions := []datatypes.Assertion{
		{Type: datatypes.AssertStatusCode, Expected: 200},
		{Type: datatypes.AssertJSONPath, Target: "data.id", Expected: 999},
	}
	results, allPassed := EvaluateAll(assertions, resp)
	assert.False(t, allPassed)
	assert.Len(t, results, 2)
	assert.True(t, results[0].Passed)
	assert.False(t, results[1].Passed)
}

func TestCompareOperators(t *testing.T) {
	for _, tt := range []struct {
		op   string
		a, b float64
		pass bool
	}{
		{"eq", 5, 5, true}, {"ne", 5, 6, true}, {"gt", 6, 5, true},
		{"gte", 5, 5, true}, {"lt", 4, 5, true}, {"lte", 6, 5, false},
	} {
		passed, _ := compare(tt.a, tt.b, tt.op)
		assert.Equal(t, tt.pass, passed, "op %s", tt.op)
	}

	passed, msg := compare(1, "not a number", "eq")
	assert.False(t, passed)
	assert.Contains(t, msg, "not numeric")
}
