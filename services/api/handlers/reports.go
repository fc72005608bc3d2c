// Copyright (C) 2025 Spec2Test Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Ruineo-Z/Spec2Test/services/report"
	"github.com/Ruineo-Z/Spec2Test/services/storage"
)

// AnalyzeRun re-derives and stores the report of a finished run.
// Reports are produced automatically after execution; this endpoint
// exists to rebuild one after the analyzer changes.
func AnalyzeRun(store *storage.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		run, err := store.GetRun(c.Param("id"))
		if err != nil {
			respondStoreError(c, err)
			return
		}
		rep := report.Analyze(run)
		if err := store.PutReport(rep); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, rep)
	}
}

// GetReport returns the stored report of a run; the path id is the
// run ID. The format query parameter selects the rendering: "json"
// (default) or "html".
func GetReport(store *storage.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		rep, err := store.GetReport(c.Param("id"))
		if err != nil {
			respondStoreError(c, err)
			return
		}

		if c.DefaultQuery("format", "json") == "html" {
			c.Header("Content-Type", "text/html; charset=utf-8")
			c.Status(http.StatusOK)
			if err := report.RenderHTML(c.Writer, rep); err != nil {
				// Headers are already written; nothing left but to log.
				_ = c.Error(err)
			}
			return
		}
		c.JSON(http.StatusOK, rep)
	}
}
