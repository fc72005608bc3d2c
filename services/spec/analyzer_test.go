// Copyright (C) 2025 Spec2Test Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package spec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wellDocumented is a document that should score in the excellent band:
// every endpoint described, schemas and examples everywhere, security
// configured, servers and components present.
const wellDocumented = `
openapi: 3.0.3
info:
  title: Orders
  version: 3.2.1
  description: Order management API
  contact:
    email: api@example.com
servers:
  - url: https://orders.example.com
security:
  - bearerAuth: []
components:
  securitySchemes:
    bearerAuth:
      type: http
      scheme: bearer
paths:
  /orders:
    get:
      summary: List orders
      description: Returns all orders for the caller.
      tags: [orders]
      responses:
        "200":
          description: ok
          content:
            application/json:
              schema:
                type: array
              examples:
                sample:
                  value: []
        "401":
          description: unauthorized
`

func TestAnalyzeWellDocumented(t *testing.T) {
	doc, err := Parse([]byte(wellDocumented))
	require.NoError(t, err)

	analysis := NewAnalyzer().Analyze(doc)

	assert.GreaterOrEqual(t, analysis.QualityScore, 90.0)
	assert.Equal(t, QualityExcellent, analysis.QualityLevel)
	assert.Equal(t, 1, analysis.TotalEndpoints)
	assert.Equal(t, 1, analysis.DocumentedEndpoints)
	assert.Zero(t, analysis.MissingExamples)
	assert.Zero(t, analysis.MissingSchemas)
	assert.Empty(t, analysis.Issues)
	assert.Equal(t, RiskLow, analysis.OverallRiskLevel)
	assert.NotEmpty(t, analysis.ID)
}

func TestAnalyzeEmptyDocumentScoresZero(t *testing.T) {
	doc, err := Parse([]byte(`{"openapi": "3.0.0", "info": {"title": "t", "version": "1"}, "paths": {}}`))
	require.NoError(t, err)

	analysis := NewAnalyzer().Analyze(doc)
	assert.Zero(t, analysis.QualityScore)
	assert.Equal(t, QualityPoor, analysis.QualityLevel)
}

func TestAnalyzeCollectsIssues(t *testing.T) {
	// No description, contact, servers or components, and a bare
	// undescribed endpoint without tags or error responses.
	content := `{
		"openapi": "3.0.0",
		"info": {"title": "Bare", "version": "1"},
		"paths": {
			"/x": {"get": {"responses": {"200": {"description": "ok"}}}}
		}
	}`
	doc, err := Parse([]byte(content))
	require.NoError(t, err)

	analysis := NewAnalyzer().Analyze(doc)

	types := map[string]bool{}
	for _, issue := range analysis.Issues {
		types[issue.Type] = true
	}
	for _, want := range []string{
		"missing_info_description",
		"missing_contact",
		"missing_servers",
		"missing_components",
		"missing_endpoint_description",
		"missing_tags",
		"missing_error_responses",
	} {
		assert.True(t, types[want], "expected issue %s", want)
	}

	assert.Less(t, analysis.QualityScore, 70.0)
	assert.NotEmpty(t, analysis.Suggestions)
}

func TestScoreQualityBands(t *testing.T) {
	tests := []struct {
		name     string
		analysis Analysis
		want     Quality
	}{
		{
			name: "excellent at exactly 90",
			analysis: Analysis{
				TotalEndpoints:      10,
				DocumentedEndpoints: 10,
				MissingExamples:     0,
				MissingSchemas:      0,
				Issues: []Issue{
					{Severity: "high"}, {Severity: "high"},
				},
			},
			want: QualityExcellent,
		},
		{
			name: "good below 90",
			analysis: Analysis{
				TotalEndpoints:      10,
				DocumentedEndpoints: 10,
				MissingExamples:     4,
				MissingSchemas:      0,
				Issues: []Issue{
					{Severity: "medium"}, {Severity: "medium"}, {Severity: "medium"},
				},
			},
			want: QualityGood,
		},
		{
			name: "fair around 60",
			analysis: Analysis{
				TotalEndpoints:      10,
				DocumentedEndpoints: 5,
				MissingExamples:     5,
				MissingSchemas:      5,
				Issues:              []Issue{},
			},
			want: QualityFair,
		},
		{
			name: "poor with heavy penalty",
			analysis: Analysis{
				TotalEndpoints:      10,
				DocumentedEndpoints: 2,
				MissingExamples:     10,
				MissingSchemas:      10,
				Issues: []Issue{
					{Severity: "high"}, {Severity: "high"},
					{Severity: "high"}, {Severity: "high"},
					{Severity: "high"},
				},
			},
			want: QualityPoor,
		},
	}

	a := NewAnalyzer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a.scoreQuality(&tt.analysis)
			assert.Equal(t, tt.want, tt.analysis.QualityLevel,
				"score was %.1f", tt.analysis.QualityScore)
		})
	}
}

func TestScoreQualityPenaltyIsCapped(t *testing.T) {
	analysis := Analysis{
		TotalEndpoints:      10,
		DocumentedEndpoints: 10,
	}
	// 10 high issues = raw penalty 50, capped at 20.
	for i := 0; i < 10; i++ {
		analysis.Issues = append(analysis.Issues, Issue{Severity: "high"})
	}
	NewAnalyzer().scoreQuality(&analysis)
	assert.InDelta(t, 80.0, analysis.QualityScore, 0.01)
}

func TestSecurityRisks(t *testing.T) {
	content := `{
		"openapi": "3.0.0",
		"info": {"title": "Unsafe", "version": "1"},
		"paths": {
			"/admin/users": {"get": {"responses": {"200": {"description": "ok"}}}},
			"/items/{id}": {"delete": {"responses": {"204": {"description": "gone"}}}},
			"/status": {"get": {"responses": {"200": {"description": "ok"}}}}
		}
	}`
	doc, err := Parse([]byte(content))
	require.NoError(t, err)

	analysis := NewAnalyzer().Analyze(doc)

	byPrefix := map[string]*Risk{}
	for i := range analysis.Risks {
		r := &analysis.Risks[i]
		switch {
		case r.ID == "SEC001":
			byPrefix["SEC001"] = r
		case len(r.ID) >= 6 && r.ID[:6] == "SEC002":
			byPrefix["SEC002"] = r
		case len(r.ID) >= 6 && r.ID[:6] == "SEC003":
			byPrefix["SEC003"] = r
		}
	}

	require.NotNil(t, byPrefix["SEC001"], "expected missing security config risk")
	assert.Equal(t, RiskHigh, byPrefix["SEC001"].Level)
	assert.Len(t, byPrefix["SEC001"].AffectedEndpoints, 3)

	require.NotNil(t, byPrefix["SEC002"], "expected sensitive path risk")
	assert.Equal(t, RiskCritical, byPrefix["SEC002"].Level)
	assert.Equal(t, []string{"GET /admin/users"}, byPrefix["SEC002"].AffectedEndpoints)

	require.NotNil(t, byPrefix["SEC003"], "expected unprotected delete risk")
	assert.Equal(t, RiskHigh, byPrefix["SEC003"].Level)

	assert.Equal(t, RiskCritical, analysis.OverallRiskLevel)
	assert.Equal(t, 1, analysis.RiskSummary["critical"])
}

func TestGlobalSecuritySuppressesEndpointRisks(t *testing.T) {
	content := `{
		"openapi": "3.0.0",
		"info": {"title": "Safe", "version": "1"},
		"security": [{"apiKey": []}],
		"components": {"securitySchemes": {"apiKey": {"type": "apiKey", "in": "header", "name": "X-API-Key"}}},
		"paths": {
			"/admin/users": {"delete": {"responses": {"204": {"description": "gone"}}}}
		}
	}`
	doc, err := Parse([]byte(content))
	require.NoError(t, err)

	analysis := NewAnalyzer().Analyze(doc)
	for _, r := range analysis.Risks {
		assert.NotEqual(t, RiskSecurity, r.Category, "unexpected security risk %s", r.ID)
	}
}

func TestMaintainabilityAndUsabilityRisks(t *testing.T) {
	content := `
openapi: 3.0.0
info:
  title: Aging
  version: "1"
paths:
  /old:
    get:
      summary: legacy read
      deprecated: true
      tags: [legacy]
      responses:
        "200":
          description: ok
        "500":
          description: err
security:
  - k: []
components:
  securitySchemes:
    k:
      type: apiKey
      in: header
      name: X-Key
`
	doc, err := Parse([]byte(content))
	require.NoError(t, err)

	analysis := NewAnalyzer().Analyze(doc)

	ids := map[string]RiskLevel{}
	for _, r := range analysis.Risks {
		ids[r.ID] = r.Level
	}
	assert.Equal(t, RiskMedium, ids["MNT001"], "deprecated endpoints should be flagged")
	assert.Equal(t, RiskLow, ids["USE001"], "missing examples should be flagged")
	assert.NotContains(t, ids, "MNT002", "tagged endpoint should not be flagged as untagged")
	assert.NotContains(t, ids, "REL001", "endpoint with 5xx response documents errors")
}

func TestIsSensitivePath(t *testing.T) {
	assert.True(t, isSensitivePath("/users/{id}/password"))
	assert.True(t, isSensitivePath("/AUTH/refresh"))
	assert.True(t, isSensitivePath("/api/v1/admin"))
	assert.False(t, isSensitivePath("/pets"))
	assert.False(t, isSensitivePath("/orders/{id}"))
}
