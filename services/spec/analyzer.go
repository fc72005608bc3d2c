// Copyright (C) 2025 Spec2Test Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package spec

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Quality Analyzer
// =============================================================================

// Analyzer scores the documentation quality of a parsed document and
// assesses its risks.
//
// The score is composed of four weighted parts:
//
//   - completeness of endpoint documentation (40%)
//   - request/response example coverage (20%)
//   - schema coverage (20%)
//   - issue penalty: high=5, medium=2, low=1, capped at 20 (20%)
type Analyzer struct{}

// NewAnalyzer returns a ready-to-use Analyzer.
func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// Analyze computes the full quality and risk assessment for doc.
// A document with zero endpoints scores 0 and is rated poor.
func (a *Analyzer) Analyze(doc *Document) *Analysis {
	analysis := &Analysis{
		ID:                uuid.NewString(),
		Title:             doc.Title,
		Version:           doc.Version,
		TotalEndpoints:    len(doc.Endpoints),
		RiskSummary:       map[string]int{},
		EndpointsByMethod: map[string]int{},
		EndpointsByTag:    map[string]int{},
		AnalyzedAt:        time.Now(),
	}

	a.analyzeCompleteness(doc, analysis)
	a.collectIssues(doc, analysis)
	a.collectStatistics(doc, analysis)
	a.scoreQuality(analysis)
	a.suggest(analysis)
	a.assessRisks(doc, analysis)

	slog.Info("Quality analysis completed",
		"title", doc.Title,
		"score", analysis.QualityScore,
		"level", analysis.QualityLevel,
		"risks", len(analysis.Risks))
	return analysis
}

func (a *Analyzer) analyzeCompleteness(doc *Document, analysis *Analysis) {
	for i := range doc.Endpoints {
		ep := &doc.Endpoints[i]
		if ep.Documented() {
			analysis.DocumentedEndpoints++
		} else {
			analysis.MissingDescriptions++
		}
		if len(ep.RequestExamples) == 0 && len(ep.ResponseExamples) == 0 {
			analysis.MissingExamples++
		}
		if !hasSchemas(ep) {
			analysis.MissingSchemas++
		}
	}
}

// hasSchemas reports whether the endpoint defines at least one request
// or response schema.
func hasSchemas(ep *Endpoint) bool {
	if content, ok := ep.RequestBody["content"].(map[string]any); ok {
		if contentHasSchema(content) {
			return true
		}
	}
	for _, response := range ep.Responses {
		if content, ok := response["content"].(map[string]any); ok {
			if contentHasSchema(content) {
				return true
			}
		}
	}
	return false
}

func contentHasSchema(content map[string]any) bool {
	for _, m := range content {
		if mm, ok := m.(map[string]any); ok {
			if _, ok := mm["schema"]; ok {
				return true
			}
		}
	}
	return false
}

func (a *Analyzer) collectIssues(doc *Document, analysis *Analysis) {
	var issues []Issue

	info, _ := doc.Raw["info"].(map[string]any)
	if stringField(info, "description") == "" {
		issues = append(issues, Issue{
			Type:     "missing_info_description",
			Severity: "medium",
			Message:  "API description is missing in info section",
		})
	}
	if _, ok := info["contact"]; !ok {
		issues = append(issues, Issue{
			Type:     "missing_contact",
			Severity: "low",
			Message:  "Contact information is missing",
		})
	}
	if _, ok := doc.Raw["servers"]; !ok {
		issues = append(issues, Issue{
			Type:     "missing_servers",
			Severity: "medium",
			Message:  "Server configuration is missing",
		})
	}
	if _, ok := doc.Raw["components"]; !ok {
		issues = append(issues, Issue{
			Type:     "missing_components",
			Severity: "medium",
			Message:  "Components section is missing",
		})
	}

	for i := range doc.Endpoints {
		ep := &doc.Endpoints[i]
		if !ep.Documented() {
			issues = append(issues, Issue{
				Type:     "missing_endpoint_description",
				Severity: "medium",
				Message:  fmt.Sprintf("Endpoint %s lacks description", ep.ID()),
				Endpoint: ep.ID(),
			})
		}
		if len(ep.Tags) == 0 {
			issues = append(issues, Issue{
				Type:     "missing_tags",
				Severity: "low",
				Message:  fmt.Sprintf("Endpoint %s has no tags", ep.ID()),
				Endpoint: ep.ID(),
			})
		}
		if !hasErrorResponses(ep) {
			issues = append(issues, Issue{
				Type:     "missing_error_responses",
				Severity: "medium",
				Message:  fmt.Sprintf("Endpoint %s lacks error response definitions", ep.ID()),
				Endpoint: ep.ID(),
			})
		}
	}
	analysis.Issues = issues
}

func hasErrorResponses(ep *Endpoint) bool {
	for code := range ep.Responses {
		if len(code) > 0 && (code[0] == '4' || code[0] == '5') {
			return true
		}
	}
	return false
}

func (a *Analyzer) collectStatistics(doc *Document, analysis *Analysis) {
	for i := range doc.Endpoints {
		ep := &doc.Endpoints[i]
		analysis.EndpointsByMethod[string(ep.Method)]++
		for _, tag := range ep.Tags {
			analysis.EndpointsByTag[tag]++
		}
	}
}

func (a *Analyzer) scoreQuality(analysis *Analysis) {
	if analysis.TotalEndpoints == 0 {
		analysis.QualityScore = 0
		analysis.QualityLevel = QualityPoor
		return
	}

	total := float64(analysis.TotalEndpoints)
	score := float64(analysis.DocumentedEndpoints) / total * 40

	examplesRatio := 1 - float64(analysis.MissingExamples)/total
	if examplesRatio < 0 {
		examplesRatio = 0
	}
	score += examplesRatio * 20

	schemasRatio := 1 - float64(analysis.MissingSchemas)/total
	if schemasRatio < 0 {
		schemasRatio = 0
	}
	score += schemasRatio * 20

	penalty := 0
	for _, issue := range analysis.Issues {
		switch issue.Severity {
		case "high":
			penalty += 5
		case "medium":
			penalty += 2
		default:
			penalty++
		}
	}
	if penalty > 20 {
		penalty = 20
	}
	score += float64(20 - penalty)

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	analysis.QualityScore = score

	switch {
	case score >= 90:
		analysis.QualityLevel = QualityExcellent
	case score >= 70:
		analysis.QualityLevel = QualityGood
	case score >= 50:
		analysis.QualityLevel = QualityFair
	default:
		analysis.QualityLevel = QualityPoor
	}
}

func (a *Analyzer) suggest(analysis *Analysis) {
	var suggestions []string

	if analysis.MissingDescriptions > 0 {
		suggestions = append(suggestions, fmt.Sprintf(
			"Add descriptions to %d endpoints to improve documentation clarity",
			analysis.MissingDescriptions))
	}
	if analysis.MissingExamples > 0 {
		suggestions = append(suggestions, fmt.Sprintf(
			"Add request/response examples to %d endpoints to help developers understand the API",
			analysis.MissingExamples))
	}
	if analysis.MissingSchemas > 0 {
		suggestions = append(suggestions, fmt.Sprintf(
			"Define schemas for %d endpoints to improve type safety and validation",
			analysis.MissingSchemas))
	}

	high, medium := 0, 0
	for _, issue := range analysis.Issues {
		switch issue.Severity {
		case "high":
			high++
		case "medium":
			medium++
		}
	}
	if high > 0 {
		suggestions = append(suggestions, fmt.Sprintf(
			"Address %d high-severity issues to improve API reliability", high))
	}
	if medium > 0 {
		suggestions = append(suggestions, fmt.Sprintf(
			"Consider fixing %d medium-severity issues to enhance documentation quality", medium))
	}
	if analysis.QualityScore < 70 {
		suggestions = append(suggestions,
			"Consider using OpenAPI linting tools to identify and fix additional documentation issues")
	}
	analysis.Suggestions = suggestions
}
