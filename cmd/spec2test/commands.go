// Copyright (C) 2025 Spec2Test Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Ruineo-Z/Spec2Test/services/api/handlers"
)

// --- Global Command Variables ---
var (
	servePort    int
	serveBackend string
	serveDBPath  string
	serveAPIKey  string
	analyzeJSON  bool

	rootCmd = &cobra.Command{
		Use:   "spec2test",
		Short: "A cli to run the Spec2Test AI-assisted API testing platform",
		Long: `Spec2Test turns API documentation into executable test suites.
It scores documentation quality, generates test cases with an LLM,
executes them against a live deployment, and reports the results.`,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Start the Spec2Test HTTP API server",
		RunE:  runServe, // Defined in cmd_serve.go
	}

	analyzeCmd = &cobra.Command{
		Use:   "analyze [document path]",
		Short: "Score an OpenAPI document's quality and risks locally",
		Args:  cobra.ExactArgs(1),
		RunE:  runAnalyze, // Defined in cmd_analyze.go
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the spec2test version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("spec2test %s\n", handlers.Version)
		},
	}
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntVar(&servePort, "port", 0, "HTTP server port (overrides config)")
	serveCmd.Flags().StringVar(&serveBackend, "llm-backend", "", "LLM provider: openai, ollama, gemini")
	serveCmd.Flags().StringVar(&serveDBPath, "db-path", "", "Badger database directory")
	serveCmd.Flags().StringVar(&serveAPIKey, "api-key", "", "shared API key for the /v1 group")

	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "emit the full analysis as JSON")

	rootCmd.AddCommand(versionCmd)
}
