// Driftdeck - Swipe-Based Destination Recommendations
// Copyright 2026 Driftdeck Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/driftdeck/driftdeck

// Package main is the entry point for the Driftdeck server.
//
// Driftdeck serves swipe-based destination recommendations and ingests the
// resulting swipe events. The server initializes components in order:
//
//  1. Configuration: layered loading from defaults, config.yaml, and
//     environment variables (koanf v2)
//  2. Database: DuckDB with the destination catalog, sessions, and the
//     swipe event log
//  3. Recommendation engine: preference filtering, diversity ranking, and
//     a TTL-bounded LRU result cache
//  4. Event bus: in-process pub/sub fanning accepted swipes out to the
//     usage aggregator and WebSocket clients
//  5. Ingestion pipeline: synchronous writes for likes and skips, batched
//     writes for detail taps, behind a circuit breaker
//  6. Supervisor tree: suture-managed services with failure isolation
//     between the realtime layer and the HTTP API
//
// # Configuration
//
// Configuration is loaded via koanf v2 with layered sources (highest
// priority wins): environment variables, config file, built-in defaults.
//
// For JWT authentication:
//   - AUTH_MODE=jwt
//   - JWT_SECRET: 32+ character secret for token signing
//
// # Signal Handling
//
// The server shuts down gracefully on SIGINT and SIGTERM: the HTTP server
// stops accepting connections, pending swipe batches are flushed, and the
// database is closed.
//
// # Example Usage
//
// Development, no auth:
//
//	export AUTH_MODE=none
//	export DUCKDB_PATH=./driftdeck.duckdb
//	./driftdeck
//
// Production with JWT:
//
//	export AUTH_MODE=jwt
//	export JWT_SECRET=$(openssl rand -base64 32)
//	export CORS_ORIGINS=https://app.driftdeck.example
//	./driftdeck
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/driftdeck/driftdeck/internal/aggregator"
	"github.com/driftdeck/driftdeck/internal/api"
	"github.com/driftdeck/driftdeck/internal/auth"
	"github.com/driftdeck/driftdeck/internal/config"
	"github.com/driftdeck/driftdeck/internal/database"
	"github.com/driftdeck/driftdeck/internal/eventbus"
	"github.com/driftdeck/driftdeck/internal/ingest"
	"github.com/driftdeck/driftdeck/internal/logging"
	"github.com/driftdeck/driftdeck/internal/recommend"
	"github.com/driftdeck/driftdeck/internal/supervisor"
	"github.com/driftdeck/driftdeck/internal/supervisor/services"
	ws "github.com/driftdeck/driftdeck/internal/websocket"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

const (
	statsBroadcastInterval = 10 * time.Second
	topDestinationsCount   = 10
	busBufferSize          = 256
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("version", version).
		Str("db_path", cfg.Database.Path).
		Str("auth_mode", cfg.Security.AuthMode).
		Msg("Starting Driftdeck")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()

	if cfg.Database.SeedCatalog {
		if err := db.SeedCatalog(context.Background()); err != nil {
			logging.Fatal().Err(err).Msg("Failed to seed destination catalog")
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	engine := recommend.NewEngine(recommend.Config{
		MaxResults:        cfg.Recommend.MaxResults,
		MaxConsecutive:    cfg.Recommend.MaxConsecutive,
		CacheMaxSize:      cfg.Recommend.CacheMaxSize,
		CacheTTL:          cfg.Recommend.CacheTTL,
		CacheSweepPercent: cfg.Recommend.CacheSweepPercent,
	}, db, logging.Logger())

	bus := eventbus.New(busBufferSize, logging.Logger())
	defer func() {
		if err := bus.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event bus")
		}
	}()

	pipeline, err := ingest.NewPipeline(ingest.Config{
		BatchSize:          cfg.Ingest.BatchSize,
		FlushTimeout:       cfg.Ingest.FlushTimeout,
		BreakerMaxFailures: cfg.Ingest.BreakerMaxFailures,
		BreakerTimeout:     cfg.Ingest.BreakerTimeout,
	}, db, bus, logging.Logger())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create ingestion pipeline")
	}

	agg := aggregator.New(topDestinationsCount, logging.Logger())

	var jwtManager *auth.JWTManager
	switch cfg.Security.AuthMode {
	case "jwt":
		jwtManager, err = auth.NewJWTManager(&cfg.Security)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to initialize JWT manager")
		}
		logging.Info().Msg("JWT authentication enabled")
	case "none":
		logging.Warn().Msg("Authentication is DISABLED (AUTH_MODE=none); use only for development")
	}

	wsHub := ws.NewHub()

	handler := api.NewHandler(db, engine, pipeline, agg, jwtManager,
		cfg.Security.AuthMode, version, logging.Logger())
	router := api.NewRouter(handler, &cfg.Security, ws.ServeWS(wsHub, cfg.Security.CORSOrigins))

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddRealtimeService(services.NewWebSocketHubService(wsHub))
	tree.AddRealtimeService(services.NewSwipeConsumerService(bus, agg, wsHub, logging.Logger()))
	tree.AddRealtimeService(services.NewStatsBroadcasterService(agg, wsHub, statsBroadcastInterval, logging.Logger()))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	// Flush any queued swipe events before the database closes.
	if err := pipeline.Close(); err != nil {
		logging.Error().Err(err).Msg("Error closing ingestion pipeline")
	}

	logging.Info().Msg("Driftdeck stopped gracefully")
}
