// Copyright (C) 2025 Spec2Test Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package handlers implements the HTTP handlers of the API server.
// Each handler is a closure over its dependencies so routes can be
// wired without a shared registry.
package handlers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Ruineo-Z/Spec2Test/services/api/observability"
	"github.com/Ruineo-Z/Spec2Test/services/spec"
	"github.com/Ruineo-Z/Spec2Test/services/storage"
)

type UploadDocumentRequest struct {
	// Name is the original filename; its extension participates in
	// format detection.
	Name string `json:"name" binding:"required"`

	// Format forces "openapi" or "markdown". Empty means detect.
	Format string `json:"format"`

	Content string `json:"content" binding:"required"`
}

// readUploadRequest accepts three upload shapes: a JSON envelope, a
// multipart form with a "file" field, and a raw document body with the
// name passed as a query parameter.
func readUploadRequest(c *gin.Context) (UploadDocumentRequest, error) {
	switch c.ContentType() {
	case "multipart/form-data":
		fh, err := c.FormFile("file")
		if err != nil {
			return UploadDocumentRequest{}, fmt.Errorf("multipart upload needs a \"file\" field: %w", err)
		}
		f, err := fh.Open()
		if err != nil {
			return UploadDocumentRequest{}, fmt.Errorf("open uploaded file: %w", err)
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			return UploadDocumentRequest{}, fmt.Errorf("read uploaded file: %w", err)
		}
		return UploadDocumentRequest{
			Name:    fh.Filename,
			Format:  c.PostForm("format"),
			Content: string(data),
		}, nil

	case "application/json":
		var req UploadDocumentRequest
		if err := c.BindJSON(&req); err != nil {
			return UploadDocumentRequest{}, fmt.Errorf("invalid request body")
		}
		return req, nil

	default:
		data, err := io.ReadAll(c.Request.Body)
		if err != nil {
			return UploadDocumentRequest{}, fmt.Errorf("read request body: %w", err)
		}
		name := c.Query("name")
		if name == "" {
			name = "document"
		}
		req := UploadDocumentRequest{
			Name:    name,
			Format:  c.Query("format"),
			Content: string(data),
		}
		if req.Content == "" {
			return UploadDocumentRequest{}, fmt.Errorf("request body is empty")
		}
		return req, nil
	}
}

// UploadDocument ingests an API document, parses it, and stores the
// analysis alongside. OpenAPI documents are quality-scored; Markdown
// documents are split into generation-ready chunks.
func UploadDocument(store *storage.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		req, err := readUploadRequest(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		rec := &storage.DocumentRecord{
			ID:        uuid.NewString(),
			Name:      req.Name,
			Content:   []byte(req.Content),
			CreatedAt: time.Now(),
		}

		format := detectFormat(req)
		switch format {
		case storage.FormatMarkdown:
			chunks, err := spec.SplitMarkdown(req.Content)
			if err != nil {
				observeIngest(string(storage.FormatMarkdown), "error")
				c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			rec.Format = storage.FormatMarkdown
			rec.Chunks = chunks

		default:
			doc, err := spec.Parse([]byte(req.Content))
			if err != nil {
				observeIngest(string(storage.FormatOpenAPI), "error")
				c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			rec.Format = storage.FormatOpenAPI
			rec.Parsed = doc
		}

		if err := store.PutDocument(rec); err != nil {
			slog.Error("Failed to store document", "name", req.Name, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		response := gin.H{
			"id":     rec.ID,
			"name":   rec.Name,
			"format": rec.Format,
		}

		if rec.Parsed != nil {
			analysis := spec.NewAnalyzer().Analyze(rec.Parsed)
			analysis.DocumentID = rec.ID
			if err := store.PutAnalysis(rec.ID, analysis); err != nil {
				slog.Error("Failed to store analysis", "document_id", rec.ID, "error", err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			response["endpoints"] = len(rec.Parsed.Endpoints)
			response["quality_score"] = analysis.QualityScore
			response["quality_level"] = analysis.QualityLevel
			response["risks"] = len(analysis.Risks)
		} else {
			response["chunks"] = len(rec.Chunks)
		}

		observeIngest(string(rec.Format), "success")
		slog.Info("Document ingested", "document_id", rec.ID, "name", rec.Name, "format", rec.Format)
		c.JSON(http.StatusCreated, response)
	}
}

// ListDocuments returns summaries of every stored document.
func ListDocuments(store *storage.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		docs, err := store.ListDocuments()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		summaries := make([]gin.H, 0, len(docs))
		for _, d := range docs {
			summary := gin.H{
				"id":         d.ID,
				"name":       d.Name,
				"format":     d.Format,
				"created_at": d.CreatedAt,
			}
			if d.Parsed != nil {
				summary["title"] = d.Parsed.Title
				summary["endpoints"] = len(d.Parsed.Endpoints)
			}
			summaries = append(summaries, summary)
		}
		c.JSON(http.StatusOK, gin.H{"documents": summaries, "count": len(summaries)})
	}
}

// GetDocument returns one document record in full.
func GetDocument(store *storage.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		rec, err := store.GetDocument(c.Param("id"))
		if err != nil {
			respondStoreError(c, err)
			return
		}
		c.JSON(http.StatusOK, rec)
	}
}

// GetAnalysis returns the quality analysis of an OpenAPI document.
func GetAnalysis(store *storage.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		analysis, err := store.GetAnalysis(c.Param("id"))
		if err != nil {
			respondStoreError(c, err)
			return
		}
		c.JSON(http.StatusOK, analysis)
	}
}

// DeleteDocument removes a document and its analysis.
func DeleteDocument(store *storage.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		if err := store.DeleteDocument(id); err != nil {
			respondStoreError(c, err)
			return
		}
		slog.Info("Document deleted", "document_id", id)
		c.JSON(http.StatusOK, gin.H{"status": "deleted", "id": id})
	}
}

func detectFormat(req UploadDocumentRequest) storage.DocumentFormat {
	switch strings.ToLower(req.Format) {
	case "markdown":
		return storage.FormatMarkdown
	case "openapi":
		return storage.FormatOpenAPI
	}
	name := strings.ToLower(req.Name)
	if strings.HasSuffix(name, ".md") || strings.HasSuffix(name, ".markdown") {
		return storage.FormatMarkdown
	}
	return storage.FormatOpenAPI
}

func observeIngest(format, status string) {
	if observability.DefaultMetrics != nil {
		observability.DefaultMetrics.DocumentsIngestedTotal.WithLabelValues(format, status).Inc()
	}
}

func respondStoreError(c *gin.Context, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
