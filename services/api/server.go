// Copyright (C) 2025 Spec2Test Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package api assembles the Spec2Test HTTP service.
//
// The api package owns service lifecycle: it opens the document store,
// builds the LLM-backed generator, starts the execution scheduler,
// wires observability (OpenTelemetry tracing, Prometheus metrics), and
// registers all HTTP routes.
//
// # Usage
//
//	cfg := api.Config{Port: 12230, LLMBackend: "ollama"}
//	svc, err := api.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	log.Fatal(svc.Run())
package api

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/Ruineo-Z/Spec2Test/services/api/middleware"
	"github.com/Ruineo-Z/Spec2Test/services/api/observability"
	"github.com/Ruineo-Z/Spec2Test/services/api/routes"
	"github.com/Ruineo-Z/Spec2Test/services/executor"
	"github.com/Ruineo-Z/Spec2Test/services/generator"
	"github.com/Ruineo-Z/Spec2Test/services/llm"
	"github.com/Ruineo-Z/Spec2Test/services/storage"
)

// =============================================================================
// Interface Definition
// =============================================================================

// Service defines the contract for the Spec2Test API service.
//
// Run() blocks until the server stops. Router() exposes the configured
// Gin engine for integration tests.
type Service interface {
	// Run starts the HTTP server and blocks until shutdown or error.
	Run() error

	// Router returns the underlying Gin engine for testing.
	Router() *gin.Engine
}

// =============================================================================
// Configuration
// =============================================================================

// Config holds API server configuration options. All fields are
// optional; New applies defaults for zero values.
type Config struct {
	// Port is the HTTP server port. Default: 12230
	Port int

	// LLMBackend specifies the LLM provider.
	// Valid values: "openai", "ollama", "gemini"
	// Default: "ollama"
	LLMBackend string

	// LLMMaxRetries is how many attempts a generation call gets before
	// the failure is surfaced. Default: 3
	LLMMaxRetries int

	// DBPath is the Badger database directory. Default: "./data/spec2test"
	DBPath string

	// InMemoryDB runs the store without persistence. Used by tests and
	// throwaway deployments.
	InMemoryDB bool

	// SchedulerWorkers is the size of the execution worker pool.
	// Default: 4
	SchedulerWorkers int

	// APIKey protects the /v1 API group. Empty disables authentication.
	APIKey string

	// OTelEndpoint is the OpenTelemetry collector endpoint.
	// Default: "spec2test-otel-collector:4317"
	OTelEndpoint string

	// EnableTracing controls whether spans are exported. Tracing needs
	// a reachable collector, so it is opt-in.
	EnableTracing bool

	// GinMode sets the Gin framework mode.
	// Valid values: "debug", "release", "test"
	// Default: uses GIN_MODE env var or "debug"
	GinMode string
}

// =============================================================================
// Implementation
// =============================================================================

// service implements Service for production use. All fields are
// read-only after New returns.
type service struct {
	config        Config
	router        *gin.Engine
	store         *storage.Store
	llmClient     llm.Client
	generator     *generator.Generator
	runner        *executor.Runner
	scheduler     *executor.Scheduler
	tracerCleanup func(context.Context)
}

// New creates a ready-to-run API service.
//
// Initialization order: defaults, tracing, metrics, storage, LLM
// client, generator, runner, scheduler, routes. Any failure closes
// whatever was already opened before returning.
func New(cfg Config) (Service, error) {
	s := &service{
		config: applyConfigDefaults(cfg),
	}

	if s.config.GinMode != "" {
		gin.SetMode(s.config.GinMode)
	}

	if s.config.EnableTracing {
		cleanup, err := s.initTracer()
		if err != nil {
			return nil, fmt.Errorf("failed to initialize tracer: %w", err)
		}
		s.tracerCleanup = cleanup
	}

	observability.InitMetrics()

	if err := s.initStore(); err != nil {
		s.cleanup()
		return nil, fmt.Errorf("failed to open document store: %w", err)
	}

	if err := s.initLLMClient(); err != nil {
		s.cleanup()
		return nil, fmt.Errorf("failed to initialize LLM client: %w", err)
	}

	s.generator = generator.NewGenerator(s.llmClient)
	s.runner = executor.NewRunner()
	s.scheduler = executor.NewScheduler(s.config.SchedulerWorkers)
	s.scheduler.Start(context.Background())

	s.initRouter()

	return s, nil
}

// Run starts the HTTP server and blocks until it stops. Resources are
// released on return.
func (s *service) Run() error {
	defer s.cleanup()

	addr := fmt.Sprintf(":%d", s.config.Port)
	slog.Info("Starting Spec2Test server",
		"port", s.config.Port,
		"llm_backend", s.config.LLMBackend,
		"db_path", s.config.DBPath)

	return s.router.Run(addr)
}

func (s *service) Router() *gin.Engine {
	return s.router
}

// =============================================================================
// Private Initialization Methods
// =============================================================================

// applyConfigDefaults fills in missing configuration values.
func applyConfigDefaults(cfg Config) Config {
	if cfg.Port == 0 {
		cfg.Port = 12230
	}
	if cfg.LLMBackend == "" {
		cfg.LLMBackend = "ollama"
	}
	if cfg.LLMMaxRetries == 0 {
		cfg.LLMMaxRetries = 3
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "./data/spec2test"
	}
	if cfg.SchedulerWorkers == 0 {
		cfg.SchedulerWorkers = 4
	}
	if cfg.OTelEndpoint == "" {
		cfg.OTelEndpoint = "spec2test-otel-collector:4317"
	}
	return cfg
}

// initTracer initializes OpenTelemetry distributed tracing over an
// insecure gRPC connection, appropriate for internal networks.
func (s *service) initTracer() (func(context.Context), error) {
	ctx := context.Background()

	conn, err := grpc.NewClient(s.config.OTelEndpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC connection: %w", err)
	}

	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String("spec2test")))
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp))

	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{}))

	cleanup := func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, time.Second*5)
		defer cancel()
		if err := traceExporter.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown OTLP exporter", "error", err)
		}
	}

	return cleanup, nil
}

// initStore opens the Badger-backed document store.
func (s *service) initStore() error {
	var (
		store *storage.Store
		err   error
	)
	if s.config.InMemoryDB {
		store, err = storage.OpenInMemory()
		slog.Info("Using in-memory document store")
	} else {
		store, err = storage.Open(storage.DefaultConfig(s.config.DBPath))
		slog.Info("Using persistent document store", "path", s.config.DBPath)
	}
	if err != nil {
		return err
	}
	s.store = store
	return nil
}

// initLLMClient builds the configured provider client and wraps it
// with retry behavior.
func (s *service) initLLMClient() error {
	client, err := llm.NewClient(s.config.LLMBackend)
	if err != nil {
		return err
	}
	s.llmClient = llm.NewRetryingClient(client, s.config.LLMMaxRetries, time.Second)
	slog.Info("LLM client initialized", "backend", s.config.LLMBackend)
	return nil
}

// initRouter sets up the Gin HTTP router with all routes. Request
// logging goes through slog rather than gin's own writer so server
// logs stay structured.
func (s *service) initRouter() {
	s.router = gin.New()
	s.router.Use(gin.Recovery())
	s.router.Use(middleware.RequestLogger())
	s.router.Use(otelgin.Middleware("spec2test"))

	routes.SetupRoutes(s.router, s.store, s.generator, s.runner, s.scheduler, routes.Options{
		APIKey:      s.config.APIKey,
		LLMProvider: s.config.LLMBackend,
	})
}

// cleanup releases all resources held by the service. Called when
// Run() exits or on initialization failure.
func (s *service) cleanup() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			slog.Warn("Store close error", "error", err)
		}
	}
	if s.tracerCleanup != nil {
		s.tracerCleanup(context.Background())
	}
}

// =============================================================================
// Compile-time Interface Compliance
// =============================================================================

var _ Service = (*service)(nil)
