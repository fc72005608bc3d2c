// Copyright (C) 2025 Spec2Test Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Ruineo-Z/Spec2Test/services/api/handlers"
	"github.com/Ruineo-Z/Spec2Test/services/api/middleware"
	"github.com/Ruineo-Z/Spec2Test/services/executor"
	"github.com/Ruineo-Z/Spec2Test/services/generator"
	"github.com/Ruineo-Z/Spec2Test/services/storage"
)

// Options carries the cross-cutting settings SetupRoutes needs beyond
// its service dependencies.
type Options struct {
	// APIKey protects the /v1 group. Empty disables authentication.
	APIKey string

	// LLMProvider is reported by GET /v1/info.
	LLMProvider string
}

// SetupRoutes registers every route of the API server. Health and
// metrics stay outside the authenticated group so probes and scrapers
// work without credentials.
func SetupRoutes(router *gin.Engine, store *storage.Store, gen *generator.Generator,
	runner *executor.Runner, sched *executor.Scheduler, opts Options) {

	router.GET("/health", handlers.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API version 1 group
	v1 := router.Group("/v1")
	v1.Use(middleware.APIKeyAuth(opts.APIKey))
	{
		v1.GET("/info", handlers.Info(opts.LLMProvider))

		documents := v1.Group("/documents")
		{
			documents.POST("", handlers.UploadDocument(store))
			documents.GET("", handlers.ListDocuments(store))
			documents.GET("/:id", handlers.GetDocument(store))
			documents.DELETE("/:id", handlers.DeleteDocument(store))
			documents.GET("/:id/analysis", handlers.GetAnalysis(store))
			documents.POST("/:id/generate", handlers.GenerateSuite(store, gen))
		}

		suites := v1.Group("/suites")
		{
			suites.GET("", handlers.ListSuites(store))
			suites.GET("/:id", handlers.GetSuite(store))
			suites.DELETE("/:id", handlers.DeleteSuite(store))
			suites.POST("/:id/execute", handlers.ExecuteSuite(store, runner, sched))
		}

		tasks := v1.Group("/tasks")
		{
			tasks.GET("/:id", handlers.GetTask(sched))
			tasks.DELETE("/:id", handlers.CancelTask(sched))
		}

		runs := v1.Group("/runs")
		{
			runs.GET("/:id", handlers.GetRun(store))
			runs.POST("/:id/report", handlers.AnalyzeRun(store))
		}

		v1.GET("/reports/:id", handlers.GetReport(store))
	}
}
