// Copyright 2026 The Gatewarden Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gatewarden/gatewarden/internal/alert"
	"github.com/gatewarden/gatewarden/internal/audit"
	"github.com/gatewarden/gatewarden/internal/config"
	"github.com/gatewarden/gatewarden/internal/observability/logger"
	"github.com/gatewarden/gatewarden/internal/observability/metrics"
	"github.com/gatewarden/gatewarden/internal/observability/tracing"
	"github.com/gatewarden/gatewarden/internal/security"
	"github.com/gatewarden/gatewarden/internal/store/postgres"
	"github.com/gatewarden/gatewarden/internal/token"
	transportHTTP "github.com/gatewarden/gatewarden/internal/transport/http"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger.InitLogger(logger.Config{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: cfg.Observability.ServiceName,
		OTELEnabled: cfg.Observability.OTELEnabled,
	})
	slog.Info("starting gatewarden authorization service")

	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		if err := runMigrate(cfg); err != nil {
			fmt.Printf("Migration failed: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	if len(os.Args) > 1 && os.Args[1] == "create-api-key" {
		if err := runCreateAPIKey(cfg, os.Args[2:]); err != nil {
			fmt.Printf("Key creation failed: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	ctx := context.Background()

	// Initialize tracer
	tracer, err := tracing.New(ctx, tracing.Config{
		Enabled:        cfg.Observability.OTELEnabled,
		ServiceName:    cfg.Observability.ServiceName,
		ServiceVersion: cfg.Observability.ServiceVersion,
		SamplingRate:   1.0,
	})
	if err != nil {
		slog.Error("failed to initialize tracer", logger.Error(err))
	}
	defer tracer.Shutdown(ctx)

	// Initialize meter
	meter, err := metrics.New(ctx, metrics.Config{
		Enabled: cfg.Observability.OTELEnabled,
	}, cfg.Observability.ServiceName)
	if err != nil {
		slog.Error("failed to initialize meter", logger.Error(err))
	}

	var decisionMetrics *metrics.DecisionMetrics
	if meter != nil {
		decisionMetrics, err = meter.NewDecisionMetrics()
		if err != nil {
			slog.Error("failed to register decision metrics", logger.Error(err))
		}
	}

	// Initialize database
	db, err := postgres.New(ctx, postgres.Config{
		Host:         cfg.Database.Host,
		Port:         cfg.Database.Port,
		User:         cfg.Database.User,
		Password:     cfg.Database.Password,
		Database:     cfg.Database.Database,
		SSLMode:      cfg.Database.SSLMode,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
	})
	if err != nil {
		slog.Error("failed to connect to database", logger.Error(err))
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("connected to database")

	// Initialize repositories
	directory := security.Directory{
		Permissions: postgres.NewPermissionRepository(db),
		Roles:       postgres.NewRoleRepository(db),
		Users:       postgres.NewUserRepository(db),
	}
	auditRepo := postgres.NewAuditRepository(db)
	keyRepo := postgres.NewAPIKeyRepository(db)

	// Decision events go to the application log and the database.
	recorder := audit.MultiRecorder{audit.NewSlogRecorder(), auditRepo}

	// Escalation alerts always hit the log; a webhook is added when
	// configured.
	var notifier alert.Notifier = alert.NewSlogNotifier()
	if cfg.Alerting.WebhookURL != "" {
		notifier = alert.MultiNotifier{
			alert.NewSlogNotifier(),
			alert.NewWebhookNotifier(cfg.Alerting.WebhookURL, nil),
		}
	}

	// Initialize the permission system
	system := security.NewSystem(recorder, notifier, cfg.Security.DenialThreshold, cfg.Security.DenialWindow)
	system.SetAuditCapacity(cfg.Security.AuditMaxEntries)

	if err := system.Seed(ctx, directory); err != nil {
		slog.Error("failed to seed permission system", logger.Error(err))
		os.Exit(1)
	}
	slog.Info("permission system seeded")

	// Credential services
	tokens := token.NewService(cfg.Security.TokenSigningKey, cfg.Security.TokenLifetime)
	hasher := token.NewAPIKeyHasher(
		cfg.Security.Argon2Memory,
		cfg.Security.Argon2Iterations,
		cfg.Security.Argon2Parallelism,
		cfg.Security.Argon2SaltLength,
		cfg.Security.Argon2KeyLength,
	)

	// Rate Limiter
	rateLimiter := transportHTTP.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)

	// Initialize HTTP handler
	handler := transportHTTP.NewHandler(
		system,
		directory,
		tokens,
		keyRepo,
		hasher,
		decisionMetrics,
	)

	// Create router
	router := transportHTTP.NewRouter(handler, rateLimiter)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server
	go func() {
		slog.Info("starting http server", logger.Component("server"), logger.Operation("listen"))
		slog.Info(fmt.Sprintf("listening on %s", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", logger.Error(err))
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", logger.Error(err))
	}

	slog.Info("server stopped")
}

func runMigrate(cfg *config.Config) error {
	ctx := context.Background()
	db, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	fmt.Println("Applying initial schema...")
	if err := db.Migrate(ctx, postgres.InitialSchema); err != nil {
		return err
	}
	fmt.Println("Migration successful.")
	return nil
}

// runCreateAPIKey provisions an admin credential and prints the key
// once. Only the hash is stored.
func runCreateAPIKey(cfg *config.Config, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: server create-api-key <subject> [scope]")
	}
	subject := args[0]
	scope := token.ScopeAdmin
	if len(args) > 1 {
		scope = args[1]
	}

	ctx := context.Background()
	db, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	key, err := token.GenerateAPIKey()
	if err != nil {
		return err
	}

	hasher := token.NewAPIKeyHasher(
		cfg.Security.Argon2Memory,
		cfg.Security.Argon2Iterations,
		cfg.Security.Argon2Parallelism,
		cfg.Security.Argon2SaltLength,
		cfg.Security.Argon2KeyLength,
	)
	hash, err := hasher.Hash(key)
	if err != nil {
		return err
	}

	keyRepo := postgres.NewAPIKeyRepository(db)
	if err := keyRepo.Upsert(ctx, &token.APIKey{
		Subject: subject,
		KeyHash: hash,
		Scope:   scope,
	}); err != nil {
		return err
	}

	fmt.Printf("API key for %s (scope %s):\n%s\n", subject, scope, key)
	fmt.Println("Store it now; it cannot be recovered.")
	return nil
}

func connect(ctx context.Context, cfg *config.Config) (*postgres.DB, error) {
	return postgres.New(ctx, postgres.Config{
		Host:         cfg.Database.Host,
		Port:         cfg.Database.Port,
		User:         cfg.Database.User,
		Password:     cfg.Database.Password,
		Database:     cfg.Database.Database,
		SSLMode:      cfg.Database.SSLMode,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
	})
}
