// Copyright (C) 2025 Spec2Test Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Ruineo-Z/Spec2Test/services/api/observability"
	"github.com/Ruineo-Z/Spec2Test/services/datatypes"
	"github.com/Ruineo-Z/Spec2Test/services/generator"
	"github.com/Ruineo-Z/Spec2Test/services/storage"
)

type GenerateRequest struct {
	// CaseTypes restricts the generated case types. Empty means the
	// default mix of positive, negative, and boundary cases.
	CaseTypes []string `json:"case_types"`

	MaxCasesPerEndpoint int `json:"max_cases_per_endpoint"`
	Workers             int `json:"workers"`
}

// GenerateSuite produces a test suite for a stored document and
// persists it. Generation is synchronous: the response carries the
// complete suite.
func GenerateSuite(store *storage.Store, gen *generator.Generator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req GenerateRequest
		if c.Request.ContentLength > 0 {
			if err := c.BindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
				return
			}
		}

		rec, err := store.GetDocument(c.Param("id"))
		if err != nil {
			respondStoreError(c, err)
			return
		}

		cfg := generator.Config{
			MaxCasesPerEndpoint: req.MaxCasesPerEndpoint,
			Workers:             req.Workers,
		}
		for _, t := range req.CaseTypes {
			cfg.CaseTypes = append(cfg.CaseTypes, datatypes.CaseType(t))
		}

		start := time.Now()
		var suite *datatypes.TestSuite
		if rec.Format == storage.FormatMarkdown {
			suite, err = gen.GenerateFromMarkdown(c.Request.Context(), rec.Name, rec.Chunks, cfg)
		} else {
			suite, err = gen.Generate(c.Request.Context(), rec.Parsed, cfg)
		}
		if err != nil {
			observeGeneration("error", 0, time.Since(start))
			slog.Error("Generation failed", "document_id", rec.ID, "error", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		suite.DocumentID = rec.ID

		if err := store.PutSuite(suite); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		observeGeneration("success", len(suite.Cases), time.Since(start))
		c.JSON(http.StatusCreated, suite)
	}
}

// ListSuites returns summaries of every stored suite.
func ListSuites(store *storage.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		suites, err := store.ListSuites()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		summaries := make([]gin.H, 0, len(suites))
		for _, s := range suites {
			summaries = append(summaries, gin.H{
				"id":          s.ID,
				"name":        s.Name,
				"document_id": s.DocumentID,
				"cases":       len(s.Cases),
				"created_at":  s.CreatedAt,
			})
		}
		c.JSON(http.StatusOK, gin.H{"suites": summaries, "count": len(summaries)})
	}
}

// GetSuite returns one suite in full.
func GetSuite(store *storage.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		suite, err := store.GetSuite(c.Param("id"))
		if err != nil {
			respondStoreError(c, err)
			return
		}
		c.JSON(http.StatusOK, suite)
	}
}

// DeleteSuite removes a stored suite.
func DeleteSuite(store *storage.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		if err := store.DeleteSuite(id); err != nil {
			respondStoreError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "deleted", "id": id})
	}
}

func observeGeneration(status string, cases int, duration time.Duration) {
	m := observability.DefaultMetrics
	if m == nil {
		return
	}
	m.GenerationsTotal.WithLabelValues(status).Inc()
	m.GeneratedCasesTotal.Add(float64(cases))
	m.GenerationDurationSeconds.Observe(duration.Seconds())
}
