// Copyright (C) 2025 Spec2Test Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package generator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Ruineo-Z/Spec2Test/services/datatypes"
	"github.com/Ruineo-Z/Spec2Test/services/llm"
	"github.com/Ruineo-Z/Spec2Test/services/spec"
)

// Config controls one generation run.
type Config struct {
	CaseTypes           []datatypes.CaseType
	MaxCasesPerEndpoint int
	Temperature         float32
	MaxTokens           int

	// Workers caps concurrent LLM calls. Endpoints below
	// ConcurrentThreshold are processed sequentially since the
	// goroutine overhead is not worth it for tiny documents.
	Workers             int
	ConcurrentThreshold int
}

// DefaultConfig returns the settings used when the caller does not
// override anything.
func DefaultConfig() Config {
	return Config{
		CaseTypes: []datatypes.CaseType{
			datatypes.CasePositive, datatypes.CaseNegative, datatypes.CaseBoundary,
		},
		MaxCasesPerEndpoint: 8,
		Temperature:         0.2,
		MaxTokens:           8192,
		Workers:             8,
		ConcurrentThreshold: 3,
	}
}

func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if len(c.CaseTypes) == 0 {
		c.CaseTypes = d.CaseTypes
	}
	if c.MaxCasesPerEndpoint <= 0 {
		c.MaxCasesPerEndpoint = d.MaxCasesPerEndpoint
	}
	if c.Temperature <= 0 {
		c.Temperature = d.Temperature
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = d.MaxTokens
	}
	if c.Workers <= 0 {
		c.Workers = d.Workers
	}
	if c.ConcurrentThreshold <= 0 {
		c.ConcurrentThreshold = d.ConcurrentThreshold
	}
}

// Generator produces test suites from parsed documents.
type Generator struct {
	client llm.Client
	parser *ResponseParser
}

func NewGenerator(client llm.Client) *Generator {
	return &Generator{
		client: client,
		parser: NewResponseParser(),
	}
}

// Generate builds a suite covering every endpoint of doc.
//
// Endpoints whose generation fails are skipped rather than failing the
// whole suite; an error is returned only when no endpoint produced any
// cases.
func (g *Generator) Generate(ctx context.Context, doc *spec.Document, cfg Config) (*datatypes.TestSuite, error) {
	cfg.applyDefaults()
	if len(doc.Endpoints) == 0 {
		return nil, spec.ErrNoEndpoints
	}

	builder := NewPromptBuilder(cfg.CaseTypes, cfg.MaxCasesPerEndpoint)
	params := g.params(cfg)

	start := time.Now()
	var results []endpointResult
	if len(doc.Endpoints) < cfg.ConcurrentThreshold {
		results = g.generateSequential(ctx, doc, builder, params)
	} else {
		results = g.generateConcurrent(ctx, doc, builder, params, cfg.Workers)
	}

	suite := &datatypes.TestSuite{
		ID:        uuid.NewString(),
		Name:      fmt.Sprintf("%s v%s test suite", doc.Title, doc.Version),
		BaseURL:   doc.BaseURL,
		CreatedAt: time.Now(),
	}
	stats := &datatypes.GenerationStats{
		Endpoints: len(doc.Endpoints),
		LLMCalls:  len(doc.Endpoints),
	}
	for i := range results {
		r := &results[i]
		if r.err != nil {
			stats.FailedEndpoints++
			stats.Errors = append(stats.Errors, fmt.Sprintf("%s: %v", r.endpoint, r.err))
			slog.Warn("Generation failed for endpoint", "endpoint", r.endpoint, "error", r.err)
			continue
		}
		for j := range r.cases {
			r.cases[j].SuiteID = suite.ID
		}
		suite.Cases = append(suite.Cases, r.cases...)
		stats.Warnings = append(stats.Warnings, r.warnings...)
		if suite.Summary == "" {
			suite.Summary = r.summary
		}
		suite.Recommendations = append(suite.Recommendations, r.recommendations...)
	}

	if len(suite.Cases) == 0 {
		return nil, fmt.Errorf("generation produced no cases for any of %d endpoints", len(doc.Endpoints))
	}
	tallyCases(stats, suite.Cases)
	stats.DurationSeconds = time.Since(start).Seconds()
	suite.Generation = stats
	slog.Info("Test suite generated",
		"suite_id", suite.ID,
		"endpoints", stats.Endpoints,
		"failed_endpoints", stats.FailedEndpoints,
		"cases", len(suite.Cases),
		"duration", time.Since(start))
	return suite, nil
}

// tallyCases fills the per-type and per-priority counters.
func tallyCases(stats *datatypes.GenerationStats, cases []datatypes.TestCase) {
	stats.CasesByType = map[datatypes.CaseType]int{}
	stats.CasesByPriority = map[datatypes.CasePriority]int{}
	for i := range cases {
		stats.CasesByType[cases[i].Type]++
		stats.CasesByPriority[cases[i].Priority]++
	}
}

// GenerateFromMarkdown builds a suite from Markdown documentation
// chunks produced by spec.SplitMarkdown.
func (g *Generator) GenerateFromMarkdown(ctx context.Context, name string, chunks []string, cfg Config) (*datatypes.TestSuite, error) {
	cfg.applyDefaults()
	if len(chunks) == 0 {
		return nil, fmt.Errorf("no documentation chunks to generate from")
	}

	builder := NewPromptBuilder(cfg.CaseTypes, cfg.MaxCasesPerEndpoint)
	params := g.params(cfg)

	suite := &datatypes.TestSuite{
		ID:        uuid.NewString(),
		Name:      fmt.Sprintf("%s test suite", name),
		CreatedAt: time.Now(),
	}
	stats := &datatypes.GenerationStats{
		Chunks:   len(chunks),
		LLMCalls: len(chunks),
	}
	start := time.Now()
	for i, chunk := range chunks {
		raw, err := g.client.Generate(ctx, builder.BuildMarkdownPrompt(chunk), params)
		if err != nil {
			stats.Errors = append(stats.Errors, fmt.Sprintf("chunk %d: %v", i, err))
			slog.Warn("Generation failed for markdown chunk", "chunk", i, "error", err)
			continue
		}
		// Markdown chunks carry no structural method/path; the model
		// names an endpoint per case and the parser validates it.
		parsed, err := g.parser.Parse(raw, "", "")
		if err != nil {
			stats.Errors = append(stats.Errors, fmt.Sprintf("chunk %d: %v", i, err))
			slog.Warn("Unusable response for markdown chunk", "chunk", i, "error", err)
			continue
		}
		for j := range parsed.Cases {
			parsed.Cases[j].SuiteID = suite.ID
		}
		suite.Cases = append(suite.Cases, parsed.Cases...)
		stats.Warnings = append(stats.Warnings, parsed.Warnings...)
		if suite.Summary == "" {
			suite.Summary = parsed.Summary
		}
		suite.Recommendations = append(suite.Recommendations, parsed.Recommendations...)
	}
	if len(suite.Cases) == 0 {
		return nil, fmt.Errorf("generation produced no cases from %d chunks", len(chunks))
	}
	tallyCases(stats, suite.Cases)
	stats.DurationSeconds = time.Since(start).Seconds()
	suite.Generation = stats
	return suite, nil
}

type endpointResult struct {
	endpoint        string
	cases           []datatypes.TestCase
	summary         string
	recommendations []string
	warnings        []string
	err             error
}

func (g *Generator) generateSequential(ctx context.Context, doc *spec.Document,
	builder *PromptBuilder, params llm.GenerationParams) []endpointResult {

	results := make([]endpointResult, len(doc.Endpoints))
	for i := range doc.Endpoints {
		results[i] = g.generateEndpoint(ctx, doc, &doc.Endpoints[i], builder, params)
	}
	return results
}

func (g *Generator) generateConcurrent(ctx context.Context, doc *spec.Document,
	builder *PromptBuilder, params llm.GenerationParams, workers int) []endpointResult {

	results := make([]endpointResult, len(doc.Endpoints))
	var mu sync.Mutex

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for i := range doc.Endpoints {
		eg.Go(func() error {
			r := g.generateEndpoint(ctx, doc, &doc.Endpoints[i], builder, params)
			mu.Lock()
			results[i] = r
			mu.Unlock()
			return nil // per-endpoint failures are recorded, not fatal
		})
	}
	_ = eg.Wait()
	return results
}

func (g *Generator) generateEndpoint(ctx context.Context, doc *spec.Document, ep *spec.Endpoint,
	builder *PromptBuilder, params llm.GenerationParams) endpointResult {

	result := endpointResult{endpoint: ep.ID()}
	raw, err := g.client.Generate(ctx, builder.BuildEndpointPrompt(doc, ep), params)
	if err != nil {
		result.err = err
		return result
	}
	parsed, err := g.parser.Parse(raw, string(ep.Method), ep.Path)
	if err != nil {
		result.err = err
		return result
	}
	result.cases = parsed.Cases
	result.summary = parsed.Summary
	result.recommendations = parsed.Recommendations
	result.warnings = parsed.Warnings
	return result
}

func (g *Generator) params(cfg Config) llm.GenerationParams {
	return llm.GenerationParams{
		Temperature: &cfg.Temperature,
		MaxTokens:   &cfg.MaxTokens,
	}
}
