// Copyright (C) 2025 Spec2Test Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package config loads the spec2test configuration file and applies
// environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var (
	// Global is a singleton instance
	Global Spec2TestConfig
	once   sync.Once
)

// Load ensures the config is loaded into the Global variable.
// The resolution order per field: config file, then SPEC2TEST_*
// environment variable.
func Load() error {
	var err error
	once.Do(func() {
		err = loadInternal(defaultConfigPath())
	})
	return err
}

// LoadFrom reads an explicit config path, bypassing the singleton.
// Used by tests and the --config flag.
func LoadFrom(path string) (Spec2TestConfig, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read the config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse the config file: %w", err)
		}
	}
	applyEnvOverrides(&cfg)
	if err := validator.New().Struct(cfg); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".spec2test", "config.yaml")
}

func loadInternal(configPath string) error {
	if configPath != "" {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			fmt.Printf("First run detected, creating the config at %s\n", configPath)
			if err := createDefault(configPath); err != nil {
				return err
			}
		}
	}
	cfg, err := LoadFrom(configPath)
	if err != nil {
		return err
	}
	Global = cfg
	return nil
}

func createDefault(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create the config directory: %w", err)
	}
	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// applyEnvOverrides lets container deployments configure the service
// without a mounted config file.
func applyEnvOverrides(cfg *Spec2TestConfig) {
	setInt(&cfg.Server.Port, "SPEC2TEST_PORT")
	setString(&cfg.Server.APIKey, "SPEC2TEST_API_KEY")
	setString(&cfg.Server.GinMode, "SPEC2TEST_GIN_MODE")
	setString(&cfg.LLM.Backend, "SPEC2TEST_LLM_BACKEND")
	setInt(&cfg.LLM.MaxRetries, "SPEC2TEST_LLM_MAX_RETRIES")
	setString(&cfg.Storage.Path, "SPEC2TEST_DB_PATH")
	setBool(&cfg.Storage.InMemory, "SPEC2TEST_DB_IN_MEMORY")
	setInt(&cfg.Scheduler.Workers, "SPEC2TEST_SCHEDULER_WORKERS")
	setBool(&cfg.Tracing.Enabled, "SPEC2TEST_TRACING_ENABLED")
	setString(&cfg.Tracing.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}
