// Copyright (C) 2025 Spec2Test Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package llm provides a uniform client interface over the LLM backends
// used for test case generation: OpenAI, Ollama, and Gemini.
package llm

import (
	"context"
	"fmt"
	"os"
	"strings"
)

type GenerationParams struct {
	Temperature *float32 `json:"temperature"`
	TopK        *int     `json:"top_k"`
	TopP        *float32 `json:"top_p"`
	MaxTokens   *int     `json:"max_tokens"`
	Stop        []string `json:"stop"`
}

// Client defines the standard interface for any LLM backend.
type Client interface {
	Generate(ctx context.Context, prompt string, params GenerationParams) (string, error)
}

// NewClient builds a client for the named provider: "openai", "ollama",
// or "gemini". Provider-specific settings come from the environment.
func NewClient(provider string) (Client, error) {
	switch strings.ToLower(provider) {
	case "openai":
		return NewOpenAIClient()
	case "ollama":
		return NewOllamaClient()
	case "gemini":
		return NewGeminiClient()
	default:
		return nil, fmt.Errorf("unknown LLM provider %q (supported: openai, ollama, gemini)", provider)
	}
}

// readSecret resolves an API key from an environment variable, falling
// back to a mounted container secret file.
func readSecret(envVar, secretPath string) string {
	if v := os.Getenv(envVar); v != "" {
		return v
	}
	if content, err := os.ReadFile(secretPath); err == nil {
		return strings.TrimSpace(string(content))
	}
	return ""
}
