// Copyright (C) 2025 Spec2Test Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package spec parses OpenAPI 3.0 documents and scores their
// documentation quality.
//
// The parser accepts YAML or JSON content, validates the basic document
// structure, and extracts one Endpoint per operation. The analyzer then
// computes a 0-100 quality score, a list of concrete issues, and a risk
// assessment over the extracted endpoints.
//
//	doc, err := spec.Parse(content)
//	analysis := spec.NewAnalyzer().Analyze(doc)
package spec

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// supportedVersions lists the OpenAPI versions the parser accepts,
// matched by prefix against the document's openapi field.
var supportedVersions = []string{"3.0.0", "3.0.1", "3.0.2", "3.0.3"}

// supportedMethods are the lowercase path-item keys treated as
// operations. Everything else (parameters, servers, $ref) is skipped.
var supportedMethods = map[string]HTTPMethod{
	"get":     MethodGet,
	"post":    MethodPost,
	"put":     MethodPut,
	"delete":  MethodDelete,
	"patch":   MethodPatch,
	"head":    MethodHead,
	"options": MethodOptions,
}

// Parse decodes an OpenAPI document from YAML or JSON content and
// extracts its endpoints.
//
// YAML is tried first; on failure the content is retried as JSON.
// The document must declare a supported 3.0.x version and carry the
// required openapi, info (title, version) and paths fields.
//
// Malformed individual operations are skipped with a warning rather
// than failing the whole document.
func Parse(content []byte) (*Document, error) {
	raw, err := decode(content)
	if err != nil {
		return nil, err
	}
	if err := validateStructure(raw); err != nil {
		return nil, err
	}

	info, _ := raw["info"].(map[string]any)
	doc := &Document{
		Title:       stringField(info, "title"),
		Version:     stringField(info, "version"),
		Description: stringField(info, "description"),
		BaseURL:     firstServerURL(raw),
		Raw:         raw,
	}
	doc.Endpoints = extractEndpoints(raw)

	slog.Info("Parsed OpenAPI document",
		"title", doc.Title, "version", doc.Version, "endpoints", len(doc.Endpoints))
	return doc, nil
}

// ParseFile reads and parses an OpenAPI document from disk.
func ParseFile(path string) (*Document, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document %s: %w", path, err)
	}
	return Parse(content)
}

// decode tries YAML first, then JSON.
func decode(content []byte) (map[string]any, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(content, &raw); err == nil && raw != nil {
		return raw, nil
	}
	raw = nil
	if err := json.Unmarshal(content, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	return raw, nil
}

// validateStructure enforces the minimal OpenAPI 3.0 shape before any
// endpoint extraction happens.
func validateStructure(raw map[string]any) error {
	for _, field := range []string{"openapi", "info", "paths"} {
		if _, ok := raw[field]; !ok {
			return fmt.Errorf("%w: %s", ErrMissingField, field)
		}
	}

	version, _ := raw["openapi"].(string)
	supported := false
	for _, v := range supportedVersions {
		if strings.HasPrefix(version, v) {
			supported = true
			break
		}
	}
	if !supported {
		return fmt.Errorf("%w: %q (supported: %s)",
			ErrUnsupportedVersion, version, strings.Join(supportedVersions, ", "))
	}

	info, ok := raw["info"].(map[string]any)
	if !ok {
		return fmt.Errorf("%w: info must be an object", ErrMissingField)
	}
	for _, field := range []string{"title", "version"} {
		if _, ok := info[field]; !ok {
			return fmt.Errorf("%w: info.%s", ErrMissingField, field)
		}
	}
	return nil
}

// extractEndpoints walks paths and builds an Endpoint per operation.
func extractEndpoints(raw map[string]any) []Endpoint {
	paths, _ := raw["paths"].(map[string]any)
	var endpoints []Endpoint

	for path, item := range paths {
		pathItem, ok := item.(map[string]any)
		if !ok {
			continue
		}
		for key, value := range pathItem {
			method, ok := supportedMethods[strings.ToLower(key)]
			if !ok {
				continue
			}
			operation, ok := value.(map[string]any)
			if !ok {
				continue
			}
			ep, err := buildEndpoint(path, method, operation)
			if err != nil {
				slog.Warn("Skipping malformed operation",
					"method", method, "path", path, "error", err)
				continue
			}
			endpoints = append(endpoints, ep)
		}
	}
	return endpoints
}

func buildEndpoint(path string, method HTTPMethod, op map[string]any) (Endpoint, error) {
	ep := Endpoint{
		Path:         path,
		Method:       method,
		Summary:      stringField(op, "summary"),
		Description:  stringField(op, "description"),
		OperationID:  stringField(op, "operationId"),
		Tags:         stringSlice(op["tags"]),
		PathParams:   map[string]Parameter{},
		QueryParams:  map[string]Parameter{},
		HeaderParams: map[string]Parameter{},
	}
	if deprecated, ok := op["deprecated"].(bool); ok {
		ep.Deprecated = deprecated
	}

	extractParameters(&ep, op)
	extractRequestBody(&ep, op)
	extractResponses(&ep, op)

	if security, ok := op["security"].([]any); ok {
		for _, s := range security {
			if m, ok := s.(map[string]any); ok {
				ep.Security = append(ep.Security, m)
			}
		}
	}
	return ep, nil
}

func extractParameters(ep *Endpoint, op map[string]any) {
	params, ok := op["parameters"].([]any)
	if !ok {
		return
	}
	for _, p := range params {
		pm, ok := p.(map[string]any)
		if !ok {
			continue
		}
		name := stringField(pm, "name")
		in := stringField(pm, "in")
		if name == "" || in == "" {
			continue
		}
		param := Parameter{
			Name:        name,
			Description: stringField(pm, "description"),
		}
		if required, ok := pm["required"].(bool); ok {
			param.Required = required
		}
		if schema, ok := pm["schema"].(map[string]any); ok {
			param.Schema = schema
		}
		switch in {
		case "path":
			ep.PathParams[name] = param
		case "query":
			ep.QueryParams[name] = param
		case "header":
			ep.HeaderParams[name] = param
		}
	}
}

func extractRequestBody(ep *Endpoint, op map[string]any) {
	body, ok := op["requestBody"].(map[string]any)
	if !ok {
		return
	}
	ep.RequestBody = body
	content, _ := body["content"].(map[string]any)
	ep.RequestExamples = collectExamples(content)
}

func extractResponses(ep *Endpoint, op map[string]any) {
	responses, ok := op["responses"].(map[string]any)
	if !ok {
		return
	}
	ep.Responses = map[string]map[string]any{}
	ep.ResponseExamples = map[string][]Example{}
	for code, r := range responses {
		rm, ok := r.(map[string]any)
		if !ok {
			continue
		}
		ep.Responses[code] = rm
		content, _ := rm["content"].(map[string]any)
		if examples := collectExamples(content); len(examples) > 0 {
			ep.ResponseExamples[code] = examples
		}
	}
}

// collectExamples flattens the examples of every media type in a
// content map.
func collectExamples(content map[string]any) []Example {
	var out []Example
	for mediaType, m := range content {
		mm, ok := m.(map[string]any)
		if !ok {
			continue
		}
		examples, ok := mm["examples"].(map[string]any)
		if !ok {
			continue
		}
		for name, e := range examples {
			em, ok := e.(map[string]any)
			if !ok {
				continue
			}
			out = append(out, Example{
				Name:      name,
				MediaType: mediaType,
				Value:     em["value"],
				Summary:   stringField(em, "summary"),
			})
		}
	}
	return out
}

func firstServerURL(raw map[string]any) string {
	servers, ok := raw["servers"].([]any)
	if !ok || len(servers) == 0 {
		return ""
	}
	server, ok := servers[0].(map[string]any)
	if !ok {
		return ""
	}
	return stringField(server, "url")
}

func stringField(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	s, _ := m[key].(string)
	return s
}

func stringSlice(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
