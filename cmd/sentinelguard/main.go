/*
Copyright 2026 The Sentinelguard Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Command sentinelguard wires the identity graph, detection engine,
// response pipeline, audit log, and HTTP API into one process, and exposes
// an "audit-truncate" administrative subcommand that never runs over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sentinelguard/sentinelguard/internal/auth"
	"github.com/sentinelguard/sentinelguard/internal/config"
	"github.com/sentinelguard/sentinelguard/internal/httpapi"
	"github.com/sentinelguard/sentinelguard/internal/metrics"
	"github.com/sentinelguard/sentinelguard/pkg/auditlog"
	"github.com/sentinelguard/sentinelguard/pkg/detection"
	"github.com/sentinelguard/sentinelguard/pkg/effector"
	"github.com/sentinelguard/sentinelguard/pkg/graph"
	"github.com/sentinelguard/sentinelguard/pkg/ingest"
	"github.com/sentinelguard/sentinelguard/pkg/persistence"
	"github.com/sentinelguard/sentinelguard/pkg/response"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run returns the process exit code: 0 for a normal shutdown, 1 for an
// unrecoverable startup failure (e.g. a required secret missing).
func run(args []string) int {
	fs := flag.NewFlagSet("sentinelguard", flag.ContinueOnError)
	configPath := fs.String("config", os.Getenv("CONFIG_PATH"), "path to a YAML config file (optional)")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sentinelguard: config: %v\n", err)
		return 1
	}

	logger, err := buildLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sentinelguard: logger: %v\n", err)
		return 1
	}
	defer logger.Sync() //nolint:errcheck

	if fs.NArg() > 0 && fs.Arg(0) == "audit-truncate" {
		return runAuditTruncate(cfg, logger)
	}

	return runServe(cfg, logger)
}

func buildLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	zcfg := zap.NewProductionConfig()
	if cfg.Format == "text" {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	return zcfg.Build()
}

// runAuditTruncate discards every audit entry. It is reachable only from
// this CLI subcommand: an operator at a terminal decides to destroy
// history, never a remote HTTP caller.
func runAuditTruncate(cfg *config.Config, logger *zap.Logger) int {
	if err := os.MkdirAll(cfg.Data.Directory, 0o755); err != nil {
		logger.Error("failed to create data directory", zap.Error(err))
		return 1
	}
	log, err := auditlog.New(filepath.Join(cfg.Data.Directory, "audit_logs.json"))
	if err != nil {
		logger.Error("failed to open audit log", zap.Error(err))
		return 1
	}
	if err := log.Truncate(); err != nil {
		logger.Error("failed to truncate audit log", zap.Error(err))
		return 1
	}
	logger.Info("audit log truncated")
	return 0
}

func runServe(cfg *config.Config, logger *zap.Logger) int {
	if err := os.MkdirAll(cfg.Data.Directory, 0o755); err != nil {
		logger.Error("failed to create data directory", zap.Error(err))
		return 1
	}

	jwtSecret, err := resolveJWTSecret(cfg, logger)
	if err != nil {
		logger.Error("failed to resolve jwt secret", zap.Error(err))
		return 1
	}

	store := graph.NewStore()
	graphStore := persistence.NewStore[graph.Snapshot](filepath.Join(cfg.Data.Directory, "graph.snapshot"))
	if snap, found, err := graphStore.Load(); err != nil {
		logger.Error("failed to load graph snapshot", zap.Error(err))
		return 1
	} else if found {
		if err := store.Restore(snap); err != nil {
			logger.Error("failed to restore graph snapshot", zap.Error(err))
			return 1
		}
	}

	engine := detection.NewEngine(store)
	alertsStore := persistence.NewStore[[]detection.Alert](filepath.Join(cfg.Data.Directory, "alerts.json"))
	if alerts, found, err := alertsStore.Load(); err != nil {
		logger.Error("failed to load alerts", zap.Error(err))
		return 1
	} else if found {
		engine.Restore(alerts)
	}

	planner := response.NewPlanner()
	plansStore := persistence.NewStore[[]*response.Plan](filepath.Join(cfg.Data.Directory, "response_state.json"))
	if plans, found, err := plansStore.Load(); err != nil {
		logger.Error("failed to load response state", zap.Error(err))
		return 1
	} else if found {
		planner.Restore(plans)
	}
	engine.SetPlanHandler(func(alert detection.Alert) {
		if _, err := planner.Plan(alert); err != nil {
			logger.Warn("failed to synthesize response plan", zap.String("alert_id", alert.ID), zap.Error(err))
		}
	})

	audit, err := auditlog.New(filepath.Join(cfg.Data.Directory, "audit_logs.json"))
	if err != nil {
		logger.Error("failed to open audit log", zap.Error(err))
		return 1
	}

	eff := buildEffector(cfg)
	executor := response.NewExecutor(eff, func(verb, actor, target, status, detail string) {
		if _, err := audit.Append(verb, actor, target, status, detail); err != nil {
			logger.Warn("failed to append audit entry", zap.String("verb", verb), zap.Error(err))
		}
	})

	users := auth.NewStore()
	if err := users.SeedAdmin(cfg.Auth.BootstrapAdminUsername, cfg.Auth.BootstrapAdminPassword); err != nil {
		logger.Error("failed to seed bootstrap admin", zap.Error(err))
		return 1
	}

	reg := metrics.NewRegistry(prometheus.DefaultRegisterer)

	server := httpapi.NewServer(httpapi.Deps{
		Store:     store,
		Engine:    engine,
		Planner:   planner,
		Executor:  executor,
		Audit:     audit,
		Ingester:  ingest.NewMockIngester(),
		Users:     users,
		JWTSecret: jwtSecret,
		Logger:    logger,
		Metrics:   reg,
		Persist: httpapi.PersistStores{
			Graph:  graphStore,
			Alerts: alertsStore,
			Plans:  plansStore,
		},
	})

	httpServer := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting http server", zap.String("addr", httpServer.Addr))
		serveErr <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", zap.Error(err))
			return 1
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", zap.Error(err))
			return 1
		}
	}
	return 0
}

// resolveJWTSecret returns the configured secret, or a fresh ephemeral one
// in mock-data mode when no durable secret was configured. config.Load has
// already rejected the case of no secret and no mock mode.
func resolveJWTSecret(cfg *config.Config, logger *zap.Logger) ([]byte, error) {
	if cfg.Auth.JWTSecret != "" {
		return []byte(cfg.Auth.JWTSecret), nil
	}
	logger.Warn("no jwt secret configured; generating an ephemeral one for this process (tokens will not survive a restart)")
	return auth.GenerateEphemeralSecret()
}

// buildEffector returns the mock cloud effector, optionally wrapped with
// Slack notification for notify_operator actions. A real cloud-mutating
// effector is out of scope for this system; see SPEC_FULL.md's Non-goals.
func buildEffector(cfg *config.Config) effector.Effector {
	var eff effector.Effector = effector.NewMockEffector()
	if cfg.Notify.SlackToken != "" {
		eff = effector.NewSlackNotifyingEffector(eff, cfg.Notify.SlackToken, cfg.Notify.SlackChannel)
	}
	return eff
}
