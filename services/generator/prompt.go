// Copyright (C) 2025 Spec2Test Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package generator turns parsed API documents into executable test
// suites by prompting an LLM backend and validating its output.
package generator

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Ruineo-Z/Spec2Test/services/datatypes"
	"github.com/Ruineo-Z/Spec2Test/services/spec"
)

// PromptBuilder renders generation prompts for endpoints and for raw
// Markdown documentation chunks.
type PromptBuilder struct {
	caseTypes []datatypes.CaseType
	maxCases  int
}

func NewPromptBuilder(caseTypes []datatypes.CaseType, maxCases int) *PromptBuilder {
	if len(caseTypes) == 0 {
		caseTypes = []datatypes.CaseType{
			datatypes.CasePositive, datatypes.CaseNegative, datatypes.CaseBoundary,
		}
	}
	if maxCases <= 0 {
		maxCases = 8
	}
	return &PromptBuilder{caseTypes: caseTypes, maxCases: maxCases}
}

// BuildEndpointPrompt renders the prompt for one endpoint of a parsed
// OpenAPI document.
func (b *PromptBuilder) BuildEndpointPrompt(doc *spec.Document, ep *spec.Endpoint) string {
	var sb strings.Builder

	sb.WriteString("## API Context\n")
	fmt.Fprintf(&sb, "API: %s (version %s)\n", doc.Title, doc.Version)
	if doc.Description != "" {
		fmt.Fprintf(&sb, "Description: %s\n", doc.Description)
	}
	if doc.BaseURL != "" {
		fmt.Fprintf(&sb, "Base URL: %s\n", doc.BaseURL)
	}

	sb.WriteString("\n## Endpoint Under Test\n")
	fmt.Fprintf(&sb, "%s %s\n", ep.Method, ep.Path)
	if ep.Summary != "" {
		fmt.Fprintf(&sb, "Summary: %s\n", ep.Summary)
	}
	if ep.Description != "" {
		fmt.Fprintf(&sb, "Description: %s\n", ep.Description)
	}
	writeParams(&sb, "Path parameters", ep.PathParams)
	writeParams(&sb, "Query parameters", ep.QueryParams)
	writeParams(&sb, "Header parameters", ep.HeaderParams)

	if len(ep.RequestBody) > 0 {
		sb.WriteString("Request body:\n")
		writeJSONBlock(&sb, ep.RequestBody)
	}
	if len(ep.Responses) > 0 {
		sb.WriteString("Documented responses:\n")
		writeJSONBlock(&sb, ep.Responses)
	}
	for _, ex := range ep.RequestExamples {
		fmt.Fprintf(&sb, "Request example (%s):\n", ex.MediaType)
		writeJSONBlock(&sb, ex.Value)
	}

	b.writeRequirements(&sb)
	b.writeOutputFormat(&sb)
	return sb.String()
}

// BuildMarkdownPrompt renders the prompt for one chunk of a Markdown
// API document. Chunks carry no structured schema, so the model is
// asked to infer endpoints from the prose.
func (b *PromptBuilder) BuildMarkdownPrompt(chunk string) string {
	var sb strings.Builder
	sb.WriteString("## API Documentation Excerpt\n")
	sb.WriteString(chunk)
	sb.WriteString("\n\nInfer the HTTP endpoints described above. " +
		"For each endpoint you can identify with confidence, design test cases.\n")
	b.writeRequirements(&sb)
	b.writeOutputFormat(&sb)
	return sb.String()
}

func (b *PromptBuilder) writeRequirements(sb *strings.Builder) {
	types := make([]string, len(b.caseTypes))
	for i, t := range b.caseTypes {
		types[i] = string(t)
	}
	sb.WriteString("\n## Requirements\n")
	fmt.Fprintf(sb, "- Produce at most %d test cases.\n", b.maxCases)
	fmt.Fprintf(sb, "- Cover these case types: %s.\n", strings.Join(types, ", "))
	sb.WriteString("- Use realistic values derived from the documented schemas and examples.\n")
	sb.WriteString("- Negative cases must state the exact validation failure they trigger.\n")
	sb.WriteString("- Every case needs an expected status code and at least one assertion.\n")
}

func (b *PromptBuilder) writeOutputFormat(sb *strings.Builder) {
	sb.WriteString(`
## Output Format
Answer with a single JSON object, no prose before or after:
{
  "test_cases": [
    {
      "title": "short case name",
      "description": "what the case verifies",
      "case_type": "positive|negative|boundary|security|performance",
      "priority": "critical|high|medium|low",
      "method": "GET",
      "path": "/resource/{id}",
      "request_data": {
        "path_params": {"name": "value"},
        "query": {"name": "value"},
        "headers": {"name": "value"},
        "body": {}
      },
      "expected_status_code": 200,
      "assertions": [
        {"type": "status_code", "expected": 200},
        {"type": "json_path", "target": "data.id", "operator": "eq", "expected": 1}
      ],
      "tags": ["smoke"]
    }
  ],
  "summary": "one paragraph describing the coverage",
  "recommendations": ["optional improvement hints"]
}
Set method and path to the endpoint each case targets. response_time
assertion expectations are in seconds.
`)
}

func writeParams(sb *strings.Builder, label string, params map[string]spec.Parameter) {
	if len(params) == 0 {
		return
	}
	fmt.Fprintf(sb, "%s:\n", label)
	for _, p := range params {
		required := "optional"
		if p.Required {
			required = "required"
		}
		fmt.Fprintf(sb, "  - %s (%s)", p.Name, required)
		if t, ok := p.Schema["type"].(string); ok {
			fmt.Fprintf(sb, " type=%s", t)
		}
		if p.Description != "" {
			fmt.Fprintf(sb, ": %s", p.Description)
		}
		sb.WriteString("\n")
	}
}

func writeJSONBlock(sb *strings.Builder, v any) {
	encoded, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return
	}
	sb.WriteString("```json\n")
	sb.Write(encoded)
	sb.WriteString("\n```\n")
}
