// Copyright (C) 2025 Spec2Test Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package spec

import (
	"fmt"
	"strings"
)

// sensitivePathMarkers flag endpoints whose path suggests they handle
// credentials or privileged operations.
var sensitivePathMarkers = []string{"password", "token", "auth", "login", "admin", "user"}

// assessRisks runs every risk rule against the document and fills in
// the risk list, summary counts, and the overall level.
func (a *Analyzer) assessRisks(doc *Document, analysis *Analysis) {
	var risks []Risk
	risks = append(risks, a.securityRisks(doc)...)
	risks = append(risks, a.reliabilityRisks(doc)...)
	risks = append(risks, a.maintainabilityRisks(doc)...)
	risks = append(risks, a.usabilityRisks(doc)...)
	analysis.Risks = risks

	analysis.OverallRiskLevel = RiskLow
	for _, risk := range risks {
		analysis.RiskSummary[string(risk.Level)]++
		if risk.Level.rank() > analysis.OverallRiskLevel.rank() {
			analysis.OverallRiskLevel = risk.Level
		}
	}
}

// securityRisks checks for missing authentication and unprotected
// sensitive or destructive operations.
func (a *Analyzer) securityRisks(doc *Document) []Risk {
	var risks []Risk

	components, _ := doc.Raw["components"].(map[string]any)
	_, hasSchemes := components["securitySchemes"]
	globalSecurity, _ := doc.Raw["security"].([]any)
	hasGlobal := len(globalSecurity) > 0

	if !hasSchemes && !hasGlobal {
		risks = append(risks, Risk{
			ID:          "SEC001",
			Title:       "No security configuration",
			Description: "The document defines no authentication mechanism at all",
			Category:    RiskSecurity,
			Level:       RiskHigh,
			Impact:      "Every endpoint may be exposed to unauthorized access",
			Recommendation: "Add a security scheme such as an API key, OAuth2 or JWT " +
				"and apply it globally or per endpoint",
			AffectedEndpoints: endpointIDs(doc.Endpoints),
		})
	}

	for i := range doc.Endpoints {
		ep := &doc.Endpoints[i]
		protected := len(ep.Security) > 0 || hasGlobal

		if !protected && isSensitivePath(ep.Path) {
			risks = append(risks, Risk{
				ID:                fmt.Sprintf("SEC002_%s_%s", ep.Method, ep.Path),
				Title:             "Sensitive endpoint without security",
				Description:       fmt.Sprintf("Sensitive endpoint %s has no security requirement", ep.ID()),
				Category:          RiskSecurity,
				Level:             RiskCritical,
				Impact:            "Sensitive operations may be reachable by unauthorized callers",
				Recommendation:    "Require authentication on this endpoint",
				AffectedEndpoints: []string{ep.ID()},
			})
		}
		if !protected && ep.Method == MethodDelete {
			risks = append(risks, Risk{
				ID:                fmt.Sprintf("SEC003_%s_%s", ep.Method, ep.Path),
				Title:             "Destructive operation without security",
				Description:       fmt.Sprintf("DELETE operation %s has no security requirement", ep.Path),
				Category:          RiskSecurity,
				Level:             RiskHigh,
				Impact:            "Data may be deleted by unauthorized callers",
				Recommendation:    "Require authentication and authorization for deletes",
				AffectedEndpoints: []string{ep.ID()},
			})
		}
	}
	return risks
}

// reliabilityRisks flags endpoints that document no error behavior.
func (a *Analyzer) reliabilityRisks(doc *Document) []Risk {
	var affected []string
	for i := range doc.Endpoints {
		if !hasErrorResponses(&doc.Endpoints[i]) {
			affected = append(affected, doc.Endpoints[i].ID())
		}
	}
	if len(affected) == 0 {
		return nil
	}
	return []Risk{{
		ID:          "REL001",
		Title:       "Undocumented error behavior",
		Description: fmt.Sprintf("%d endpoints define no 4xx/5xx responses", len(affected)),
		Category:    RiskReliability,
		Level:       RiskMedium,
		Impact:      "Clients cannot handle failures predictably",
		Recommendation: "Document the error responses each endpoint can return, " +
			"including validation and server errors",
		AffectedEndpoints: affected,
	}}
}

// maintainabilityRisks flags deprecated operations still present in the
// document and endpoints without tags.
func (a *Analyzer) maintainabilityRisks(doc *Document) []Risk {
	var risks []Risk

	var deprecated []string
	for i := range doc.Endpoints {
		if doc.Endpoints[i].Deprecated {
			deprecated = append(deprecated, doc.Endpoints[i].ID())
		}
	}
	if len(deprecated) > 0 {
		risks = append(risks, Risk{
			ID:                "MNT001",
			Title:             "Deprecated endpoints in active document",
			Description:       fmt.Sprintf("%d endpoints are marked deprecated", len(deprecated)),
			Category:          RiskMaintainability,
			Level:             RiskMedium,
			Impact:            "Clients may keep depending on operations scheduled for removal",
			Recommendation:    "Communicate a sunset date and remove deprecated operations",
			AffectedEndpoints: deprecated,
		})
	}

	var untagged []string
	for i := range doc.Endpoints {
		if len(doc.Endpoints[i].Tags) == 0 {
			untagged = append(untagged, doc.Endpoints[i].ID())
		}
	}
	if len(untagged) > 0 {
		risks = append(risks, Risk{
			ID:                "MNT002",
			Title:             "Untagged endpoints",
			Description:       fmt.Sprintf("%d endpoints carry no tags", len(untagged)),
			Category:          RiskMaintainability,
			Level:             RiskLow,
			Impact:            "Generated documentation and tooling cannot group operations",
			Recommendation:    "Tag every operation with its functional area",
			AffectedEndpoints: untagged,
		})
	}
	return risks
}

// usabilityRisks flags missing examples, which make the API hard to
// adopt and make generated test data less accurate.
func (a *Analyzer) usabilityRisks(doc *Document) []Risk {
	var affected []string
	for i := range doc.Endpoints {
		ep := &doc.Endpoints[i]
		if len(ep.RequestExamples) == 0 && len(ep.ResponseExamples) == 0 {
			affected = append(affected, ep.ID())
		}
	}
	if len(affected) == 0 {
		return nil
	}
	return []Risk{{
		ID:                "USE001",
		Title:             "Missing request/response examples",
		Description:       fmt.Sprintf("%d endpoints provide no examples", len(affected)),
		Category:          RiskUsability,
		Level:             RiskLow,
		Impact:            "Consumers and test generators must guess realistic payloads",
		Recommendation:    "Provide at least one request and response example per operation",
		AffectedEndpoints: affected,
	}}
}

func isSensitivePath(path string) bool {
	lower := strings.ToLower(path)
	for _, marker := range sensitivePathMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func endpointIDs(endpoints []Endpoint) []string {
	ids := make([]string, len(endpoints))
	for i := range endpoints {
		ids[i] = endpoints[i].ID()
	}
	return ids
}
