// Copyright (C) 2025 Spec2Test Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Mock Server Helpers
// =============================================================================

func newTestOllamaClient(baseURL, model string) *OllamaClient {
	return &OllamaClient{
		httpClient: &http.Client{Timeout: 5 * time.Second},
		baseURL:    baseURL,
		model:      model,
	}
}

func newTestGeminiClient(baseURL, model string) *GeminiClient {
	return &GeminiClient{
		httpClient: &http.Client{Timeout: 5 * time.Second},
		baseURL:    baseURL,
		apiKey:     "test-key",
		model:      model,
	}
}

// =============================================================================
// Ollama Client
// =============================================================================

func TestOllamaGenerate(t *testing.T) {
	var gotReq ollamaGenerateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(ollamaGenerateResponse{
			Model:    gotReq.Model,
			Response: `{"test_cases": []}`,
			Done:     true,
		})
	}))
	defer server.Close()

	client := newTestOllamaClient(server.URL, "test-model")
	temp := float32(0.7)
	maxTokens := 2048
	out, err := client.Generate(context.Background(), "generate tests",
		GenerationParams{Temperature: &temp, MaxTokens: &maxTokens})
	require.NoError(t, err)
	assert.Equal(t, `{"test_cases": []}`, out)

	assert.Equal(t, "test-model", gotReq.Model)
	assert.Equal(t, "generate tests", gotReq.Prompt)
	assert.False(t, gotReq.Stream)
	assert.InDelta(t, 0.7, gotReq.Options["temperature"], 0.001)
	assert.EqualValues(t, 2048, gotReq.Options["num_predict"])
}

func TestOllamaGenerateModelNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error": "model 'missing' not found"}`))
	}))
	defer server.Close()

	client := newTestOllamaClient(server.URL, "missing")
	_, err := client.Generate(context.Background(), "prompt", GenerationParams{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ollama pull")
}

func TestOllamaGenerateServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	}))
	defer server.Close()

	client := newTestOllamaClient(server.URL, "m")
	_, err := client.Generate(context.Background(), "prompt", GenerationParams{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

// =============================================================================
// Gemini Client
// =============================================================================

func TestGeminiGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/gemini-test:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))

		var req geminiRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Contents, 1)
		assert.Equal(t, "hello", req.Contents[0].Parts[0].Text)

		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{{
				"content":      map[string]any{"parts": []map[string]any{{"text": "wor"}, {"text": "ld"}}},
				"finishReason": "STOP",
			}},
		})
	}))
	defer server.Close()

	client := newTestGeminiClient(server.URL, "gemini-test")
	out, err := client.Generate(context.Background(), "hello", GenerationParams{})
	require.NoError(t, err)
	assert.Equal(t, "world", out)
}

func TestGeminiGenerateNoCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates": []}`))
	}))
	defer server.Close()

	client := newTestGeminiClient(server.URL, "gemini-test")
	_, err := client.Generate(context.Background(), "hello", GenerationParams{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no candidates")
}

// =============================================================================
// Factory and Retry
// =============================================================================

func TestNewClientUnknownProvider(t *testing.T) {
	_, err := NewClient("mistral")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown LLM provider")
}

type flakyClient struct {
	failures int
	calls    int
}

func (f *flakyClient) Generate(ctx context.Context, prompt string, params GenerationParams) (string, error) {
	f.calls++
	if f.calls <= f.failures {
		return "", errors.New("transient failure")
	}
	return "ok", nil
}

func TestRetryingClientRecovers(t *testing.T) {
	inner := &flakyClient{failures: 2}
	client := NewRetryingClient(inner, 3, time.Millisecond)

	out, err := client.Generate(context.Background(), "p", GenerationParams{})
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, 3, inner.calls)
}

func TestRetryingClientExhaustsAttempts(t *testing.T) {
	inner := &flakyClient{failures: 10}
	client := NewRetryingClient(inner, 3, time.Millisecond)

	_, err := client.Generate(context.Background(), "p", GenerationParams{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 3 attempts")
	assert.Equal(t, 3, inner.calls)
}

func TestRetryingClientHonorsContext(t *testing.T) {
	inner := &flakyClient{failures: 10}
	client := NewRetryingClient(inner, 5, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := client.Generate(ctx, "p", GenerationParams{})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, inner.calls, 5)
}
