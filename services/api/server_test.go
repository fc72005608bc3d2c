// Copyright (C) 2025 Spec2Test Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package api

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Test Setup
// =============================================================================

func init() {
	// Set Gin to test mode to reduce noise in test output
	gin.SetMode(gin.TestMode)
}

// =============================================================================
// Config Tests
// =============================================================================

func TestApplyConfigDefaults_AllDefaults(t *testing.T) {
	cfg := Config{}

	result := applyConfigDefaults(cfg)

	assert.Equal(t, 12230, result.Port, "default port should be 12230")
	assert.Equal(t, "ollama", result.LLMBackend, "default LLM backend should be ollama")
	assert.Equal(t, 3, result.LLMMaxRetries)
	assert.Equal(t, "./data/spec2test", result.DBPath)
	assert.Equal(t, 4, result.SchedulerWorkers)
	assert.Equal(t, "spec2test-otel-collector:4317", result.OTelEndpoint)
}

func TestApplyConfigDefaults_PreservesCustomValues(t *testing.T) {
	cfg := Config{
		Port:             8080,
		LLMBackend:       "openai",
		LLMMaxRetries:    5,
		DBPath:           "/var/lib/spec2test",
		SchedulerWorkers: 8,
		OTelEndpoint:     "custom-collector:4317",
	}

	result := applyConfigDefaults(cfg)

	assert.Equal(t, 8080, result.Port)
	assert.Equal(t, "openai", result.LLMBackend)
	assert.Equal(t, 5, result.LLMMaxRetries)
	assert.Equal(t, "/var/lib/spec2test", result.DBPath)
	assert.Equal(t, 8, result.SchedulerWorkers)
	assert.Equal(t, "custom-collector:4317", result.OTelEndpoint)
}

// =============================================================================
// Service Construction Tests
// =============================================================================

func TestNew_InMemory(t *testing.T) {
	t.Setenv("OLLAMA_BASE_URL", "http://localhost:11434")

	svc, err := New(Config{
		InMemoryDB: true,
		GinMode:    gin.TestMode,
	})
	require.NoError(t, err)
	require.NotNil(t, svc.Router())
	t.Cleanup(func() { svc.(*service).cleanup() })

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/health", nil)
	svc.Router().ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestNew_RequestsLoggedThroughSlog(t *testing.T) {
	t.Setenv("OLLAMA_BASE_URL", "http://localhost:11434")

	svc, err := New(Config{
		InMemoryDB: true,
		GinMode:    gin.TestMode,
	})
	require.NoError(t, err)
	t.Cleanup(func() { svc.(*service).cleanup() })

	var buf bytes.Buffer
	previous := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(previous) })

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/health", nil)
	svc.Router().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	logged := buf.String()
	assert.Contains(t, logged, "Request handled")
	assert.Contains(t, logged, "path=/health")
	assert.Contains(t, logged, "status=200")
}

func TestNew_UnknownLLMBackendFails(t *testing.T) {
	_, err := New(Config{
		InMemoryDB: true,
		LLMBackend: "does-not-exist",
		GinMode:    gin.TestMode,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LLM client")
}
