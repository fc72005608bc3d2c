// Copyright (C) 2025 Spec2Test Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/Ruineo-Z/Spec2Test/services/executor"
	"github.com/Ruineo-Z/Spec2Test/services/generator"
	"github.com/Ruineo-Z/Spec2Test/services/llm"
	"github.com/Ruineo-Z/Spec2Test/services/storage"
)

// ============================================================================
// Test Setup
// ============================================================================

func init() {
	// Set Gin to test mode to reduce noise in test output
	gin.SetMode(gin.TestMode)
}

type mockLLMClient struct{}

func (m *mockLLMClient) Generate(_ context.Context, _ string, _ llm.GenerationParams) (string, error) {
	return "mock response", nil
}

func newTestRouter(t *testing.T, opts Options) *gin.Engine {
	t.Helper()

	store, err := storage.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	gen := generator.NewGenerator(&mockLLMClient{})
	runner := executor.NewRunner()
	sched := executor.NewScheduler(1)
	sched.Start(context.Background())
	t.Cleanup(sched.Stop)

	router := gin.New()
	SetupRoutes(router, store, gen, runner, sched, opts)
	return router
}

// ============================================================================
// Route Registration Tests
// ============================================================================

func TestSetupRoutes_CoreRoutesRegistered(t *testing.T) {
	router := newTestRouter(t, Options{})

	expected := []struct {
		method string
		path   string
	}{
		{"GET", "/health"},
		{"GET", "/metrics"},
		{"GET", "/v1/info"},
		{"POST", "/v1/documents"},
		{"GET", "/v1/documents"},
		{"GET", "/v1/documents/:id"},
		{"DELETE", "/v1/documents/:id"},
		{"GET", "/v1/documents/:id/analysis"},
		{"POST", "/v1/documents/:id/generate"},
		{"GET", "/v1/suites"},
		{"GET", "/v1/suites/:id"},
		{"DELETE", "/v1/suites/:id"},
		{"POST", "/v1/suites/:id/execute"},
		{"GET", "/v1/tasks/:id"},
		{"DELETE", "/v1/tasks/:id"},
		{"GET", "/v1/runs/:id"},
		{"POST", "/v1/runs/:id/report"},
		{"GET", "/v1/reports/:id"},
	}

	routes := router.Routes()
	for _, want := range expected {
		found := false
		for _, r := range routes {
			if r.Method == want.method && r.Path == want.path {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("Expected route %s %s not found", want.method, want.path)
		}
	}
}

func TestSetupRoutes_HealthEndpoint(t *testing.T) {
	router := newTestRouter(t, Options{})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/health", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Health endpoint returned %d, want %d", w.Code, http.StatusOK)
	}
}

func TestSetupRoutes_MetricsEndpoint(t *testing.T) {
	router := newTestRouter(t, Options{})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/metrics", nil)
	router.ServeHTTP(w, req)

	// Prometheus metrics endpoint should return 200
	if w.Code != http.StatusOK {
		t.Errorf("Metrics endpoint returned %d, want %d", w.Code, http.StatusOK)
	}
	if w.Header().Get("Content-Type") == "" {
		t.Error("Metrics endpoint should return Content-Type header")
	}
}

func TestSetupRoutes_InfoEndpoint(t *testing.T) {
	router := newTestRouter(t, Options{LLMProvider: "ollama"})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/v1/info", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"ollama"`)
}

// ============================================================================
// Authentication Tests
// ============================================================================

func TestSetupRoutes_APIKeyProtectsV1(t *testing.T) {
	router := newTestRouter(t, Options{APIKey: "sekrit"})

	// Health and metrics stay open.
	for _, path := range []string{"/health", "/metrics"} {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", path, nil)
		router.ServeHTTP(w, req)
		require.Equalf(t, http.StatusOK, w.Code, "%s should not require auth", path)
	}

	// v1 rejects missing and wrong keys.
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/v1/documents", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/v1/documents", nil)
	req.Header.Set("X-API-Key", "wrong")
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	// Correct key passes through to the handler.
	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/v1/documents", nil)
	req.Header.Set("X-API-Key", "sekrit")
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestSetupRoutes_EmptyAPIKeyDisablesAuth(t *testing.T) {
	router := newTestRouter(t, Options{})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/v1/documents", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
}
