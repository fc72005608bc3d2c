// Copyright (C) 2025 Spec2Test Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFrom_DefaultsWithoutFile(t *testing.T) {
	cfg, err := LoadFrom("")
	require.NoError(t, err)

	assert.Equal(t, 12230, cfg.Server.Port)
	assert.Equal(t, "ollama", cfg.LLM.Backend)
	assert.Equal(t, 3, cfg.LLM.MaxRetries)
	assert.Equal(t, "./data/spec2test", cfg.Storage.Path)
	assert.Equal(t, 4, cfg.Scheduler.Workers)
	assert.False(t, cfg.Tracing.Enabled)
}

func TestLoadFrom_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: 9000
  api_key: sekrit
llm:
  backend: openai
scheduler:
  workers: 8
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "sekrit", cfg.Server.APIKey)
	assert.Equal(t, "openai", cfg.LLM.Backend)
	assert.Equal(t, 8, cfg.Scheduler.Workers)
	// Untouched sections keep defaults.
	assert.Equal(t, "./data/spec2test", cfg.Storage.Path)
}

func TestLoadFrom_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm:\n  backend: openai\n"), 0644))

	t.Setenv("SPEC2TEST_LLM_BACKEND", "gemini")
	t.Setenv("SPEC2TEST_PORT", "7777")
	t.Setenv("SPEC2TEST_DB_IN_MEMORY", "true")

	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	assert.Equal(t, "gemini", cfg.LLM.Backend)
	assert.Equal(t, 7777, cfg.Server.Port)
	assert.True(t, cfg.Storage.InMemory)
}

func TestLoadFrom_RejectsInvalidBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm:\n  backend: bedrock\n"), 0644))

	_, err := LoadFrom(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestLoadFrom_RejectsBadPort(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 70000\n"), 0644))

	_, err := LoadFrom(path)
	require.Error(t, err)
}

func TestLoadFrom_MissingFileFails(t *testing.T) {
	_, err := LoadFrom(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
