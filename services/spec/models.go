// Copyright (C) 2025 Spec2Test Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package spec

import "time"

// HTTPMethod is an uppercase HTTP method name as it appears in an
// OpenAPI path item (GET, POST, ...).
type HTTPMethod string

const (
	MethodGet     HTTPMethod = "GET"
	MethodPost    HTTPMethod = "POST"
	MethodPut     HTTPMethod = "PUT"
	MethodDelete  HTTPMethod = "DELETE"
	MethodPatch   HTTPMethod = "PATCH"
	MethodHead    HTTPMethod = "HEAD"
	MethodOptions HTTPMethod = "OPTIONS"
)

// Quality is the documentation quality band derived from the score.
type Quality string

const (
	QualityExcellent Quality = "excellent" // score >= 90
	QualityGood      Quality = "good"      // score >= 70
	QualityFair      Quality = "fair"      // score >= 50
	QualityPoor      Quality = "poor"      // everything else
)

// RiskLevel orders identified risks by severity.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// rank is used to compute the overall risk level of a document.
func (l RiskLevel) rank() int {
	switch l {
	case RiskCritical:
		return 4
	case RiskHigh:
		return 3
	case RiskMedium:
		return 2
	case RiskLow:
		return 1
	default:
		return 0
	}
}

// RiskCategory groups risks by the kind of harm they describe.
type RiskCategory string

const (
	RiskSecurity        RiskCategory = "security"
	RiskCompatibility   RiskCategory = "compatibility"
	RiskPerformance     RiskCategory = "performance"
	RiskMaintainability RiskCategory = "maintainability"
	RiskUsability       RiskCategory = "usability"
	RiskReliability     RiskCategory = "reliability"
)

// Parameter describes a single path, query, or header parameter of an
// endpoint.
type Parameter struct {
	Name        string         `json:"name"`
	Required    bool           `json:"required"`
	Schema      map[string]any `json:"schema,omitempty"`
	Description string         `json:"description,omitempty"`
}

// Example is a named request or response example attached to a media
// type in the document.
type Example struct {
	Name      string `json:"name"`
	MediaType string `json:"media_type"`
	Value     any    `json:"value,omitempty"`
	Summary   string `json:"summary,omitempty"`
}

// Endpoint is one operation extracted from an OpenAPI path item.
//
// RequestBody and Responses keep the raw (decoded) OpenAPI structures
// so downstream consumers such as the prompt builder can render schema
// details without this package committing to a full schema model.
type Endpoint struct {
	Path        string     `json:"path"`
	Method      HTTPMethod `json:"method"`
	Summary     string     `json:"summary,omitempty"`
	Description string     `json:"description,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
	OperationID string     `json:"operation_id,omitempty"`
	Deprecated  bool       `json:"deprecated,omitempty"`

	PathParams   map[string]Parameter `json:"path_parameters,omitempty"`
	QueryParams  map[string]Parameter `json:"query_parameters,omitempty"`
	HeaderParams map[string]Parameter `json:"header_parameters,omitempty"`

	RequestBody     map[string]any `json:"request_body,omitempty"`
	RequestExamples []Example      `json:"request_examples,omitempty"`

	Responses        map[string]map[string]any `json:"responses,omitempty"`
	ResponseExamples map[string][]Example      `json:"response_examples,omitempty"`

	Security []map[string]any `json:"security,omitempty"`
}

// ID returns the conventional "METHOD /path" identifier used in issues,
// risks and reports.
func (e *Endpoint) ID() string {
	return string(e.Method) + " " + e.Path
}

// Documented reports whether the endpoint carries any human-readable
// documentation at all.
func (e *Endpoint) Documented() bool {
	return e.Summary != "" || e.Description != ""
}

// Document is a fully parsed OpenAPI document plus the endpoints
// extracted from it.
type Document struct {
	Title       string     `json:"title"`
	Version     string     `json:"version"`
	Description string     `json:"description,omitempty"`
	BaseURL     string     `json:"base_url,omitempty"`
	Endpoints   []Endpoint `json:"endpoints"`

	// Raw is the decoded document. Retained for quality analysis of
	// top-level sections (servers, components, security).
	Raw map[string]any `json:"-"`
}

// Issue is a single documentation problem found during analysis.
// Severity is one of "high", "medium", "low".
type Issue struct {
	Type     string `json:"type"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
	Endpoint string `json:"endpoint,omitempty"`
}

// Risk is an identified risk item with remediation guidance.
type Risk struct {
	ID                string       `json:"id"`
	Title             string       `json:"title"`
	Description       string       `json:"description"`
	Category          RiskCategory `json:"category"`
	Level             RiskLevel    `json:"level"`
	Impact            string       `json:"impact"`
	Recommendation    string       `json:"recommendation"`
	AffectedEndpoints []string     `json:"affected_endpoints,omitempty"`
}

// Analysis is the quality and risk assessment of one document.
type Analysis struct {
	ID         string `json:"id"`
	DocumentID string `json:"document_id"`

	Title   string `json:"title"`
	Version string `json:"version"`

	QualityScore float64 `json:"quality_score"` // 0-100
	QualityLevel Quality `json:"quality_level"`

	TotalEndpoints      int `json:"total_endpoints"`
	DocumentedEndpoints int `json:"documented_endpoints"`
	MissingDescriptions int `json:"missing_descriptions"`
	MissingExamples     int `json:"missing_examples"`
	MissingSchemas      int `json:"missing_schemas"`

	Issues      []Issue  `json:"issues"`
	Suggestions []string `json:"suggestions"`

	Risks            []Risk         `json:"risks"`
	RiskSummary      map[string]int `json:"risk_summary"`
	OverallRiskLevel RiskLevel      `json:"overall_risk_level"`

	EndpointsByMethod map[string]int `json:"endpoints_by_method"`
	EndpointsByTag    map[string]int `json:"endpoints_by_tag"`

	AnalyzedAt time.Time `json:"analyzed_at"`
}
