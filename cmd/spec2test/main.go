// Copyright (C) 2025 Spec2Test Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Command spec2test is the CLI for the Spec2Test API testing platform.
//
// # Subcommands
//
//   - serve: start the HTTP API server
//   - analyze: score an OpenAPI document locally without a server
//
// # Environment Variables
//
//   - SPEC2TEST_PORT: HTTP server port (default: 12230)
//   - SPEC2TEST_LLM_BACKEND: LLM provider - openai, ollama, gemini (default: ollama)
//   - SPEC2TEST_API_KEY: shared API key for the /v1 group (default: disabled)
//   - SPEC2TEST_DB_PATH: Badger database directory (default: ./data/spec2test)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OpenTelemetry collector (default: spec2test-otel-collector:4317)
//
// # Usage
//
//	# Build
//	go build -o spec2test ./cmd/spec2test
//
//	# Start the server
//	./spec2test serve
//
//	# Score a document locally
//	./spec2test analyze petstore.yaml
package main

import (
	"log"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error executing command: %v", err)
	}
}
