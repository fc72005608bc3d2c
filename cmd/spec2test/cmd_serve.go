// Copyright (C) 2025 Spec2Test Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Ruineo-Z/Spec2Test/cmd/spec2test/config"
	"github.com/Ruineo-Z/Spec2Test/pkg/logging"
	"github.com/Ruineo-Z/Spec2Test/services/api"
)

// runServe loads configuration, applies flag overrides, and blocks in
// the HTTP server until it stops.
func runServe(cmd *cobra.Command, args []string) error {
	logger := logging.New(logging.Config{
		Level:   logging.LevelInfo,
		LogDir:  "~/.spec2test/logs",
		Service: "server",
		JSON:    true,
	})
	defer logger.Close()
	slog.SetDefault(logger.Slog())

	if err := config.Load(); err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	cfg := config.Global

	// Flags beat both the config file and the environment.
	if servePort != 0 {
		cfg.Server.Port = servePort
	}
	if serveBackend != "" {
		cfg.LLM.Backend = serveBackend
	}
	if serveDBPath != "" {
		cfg.Storage.Path = serveDBPath
	}
	if serveAPIKey != "" {
		cfg.Server.APIKey = serveAPIKey
	}

	svc, err := api.New(api.Config{
		Port:             cfg.Server.Port,
		LLMBackend:       cfg.LLM.Backend,
		LLMMaxRetries:    cfg.LLM.MaxRetries,
		DBPath:           cfg.Storage.Path,
		InMemoryDB:       cfg.Storage.InMemory,
		SchedulerWorkers: cfg.Scheduler.Workers,
		APIKey:           cfg.Server.APIKey,
		OTelEndpoint:     cfg.Tracing.Endpoint,
		EnableTracing:    cfg.Tracing.Enabled,
		GinMode:          cfg.Server.GinMode,
	})
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}

	return svc.Run()
}
