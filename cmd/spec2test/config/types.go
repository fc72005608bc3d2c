// Copyright (C) 2025 Spec2Test Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package config

// Spec2TestConfig is the on-disk configuration of the spec2test CLI
// and server. Values load from ~/.spec2test/config.yaml and can be
// overridden per-field by SPEC2TEST_* environment variables.
type Spec2TestConfig struct {
	Server    ServerConfig    `yaml:"server"`
	LLM       LLMConfig       `yaml:"llm"`
	Storage   StorageConfig   `yaml:"storage"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Tracing   TracingConfig   `yaml:"tracing"`
}

type ServerConfig struct {
	Port int `yaml:"port" validate:"omitempty,min=1,max=65535"`

	// APIKey protects the /v1 API group. Empty disables auth.
	APIKey string `yaml:"api_key"`

	// GinMode is "debug", "release", or "test".
	GinMode string `yaml:"gin_mode" validate:"omitempty,oneof=debug release test"`
}

type LLMConfig struct {
	// Backend can be "openai", "ollama", or "gemini".
	Backend    string `yaml:"backend" validate:"omitempty,oneof=openai ollama gemini"`
	MaxRetries int    `yaml:"max_retries" validate:"omitempty,min=1,max=10"`
}

type StorageConfig struct {
	Path     string `yaml:"path"`
	InMemory bool   `yaml:"in_memory"`
}

type SchedulerConfig struct {
	Workers int `yaml:"workers" validate:"omitempty,min=1,max=64"`
}

type TracingConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
}

// DefaultConfig returns the configuration used when no config file
// exists. Defaults favor a local single-user setup: Ollama backend,
// on-disk store next to the working directory, auth disabled.
func DefaultConfig() Spec2TestConfig {
	return Spec2TestConfig{
		Server: ServerConfig{
			Port: 12230,
		},
		LLM: LLMConfig{
			Backend:    "ollama",
			MaxRetries: 3,
		},
		Storage: StorageConfig{
			Path: "./data/spec2test",
		},
		Scheduler: SchedulerConfig{
			Workers: 4,
		},
		Tracing: TracingConfig{
			Endpoint: "spec2test-otel-collector:4317",
		},
	}
}
