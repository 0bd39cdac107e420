// Package main is the entry point for the Nebula progression service.
//
// The architecture follows Clean Architecture and DDD:
// - Domain: pure progression/reward/moderation logic, no external dependencies
// - Application: use-case orchestration (Commands/Queries)
// - Infrastructure: Redis progression store, PostgreSQL settings and
//   moderation repositories, chat-platform REST client
// - Interface: HTTP activity intake and query endpoints
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/nebula-bot/nebula-hub/config"
	"github.com/nebula-bot/nebula-hub/internal/application/command"
	"github.com/nebula-bot/nebula-hub/internal/application/query"
	"github.com/nebula-bot/nebula-hub/internal/domain/progression"
	"github.com/nebula-bot/nebula-hub/internal/domain/shared"
	platformclient "github.com/nebula-bot/nebula-hub/internal/infrastructure/external/platform"
	"github.com/nebula-bot/nebula-hub/internal/infrastructure/persistence/memory"
	"github.com/nebula-bot/nebula-hub/internal/infrastructure/persistence/postgres"
	redisstore "github.com/nebula-bot/nebula-hub/internal/infrastructure/persistence/redis"
	httpserver "github.com/nebula-bot/nebula-hub/internal/interface/http"
	"github.com/nebula-bot/nebula-hub/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────
	// 1. CONFIGURATION + LOGGING
	// ─────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.Observability.LogLevel),
		Format: cfg.Observability.LogFormat,
		Name:   cfg.App.Name,
	})
	log.Info("starting nebula progression service",
		logger.F("env", string(cfg.App.Environment)),
		logger.F("version", cfg.App.Version),
	)

	// ─────────────────────────────────────────────────────────────────────
	// 2. POSTGRESQL (settings + moderation)
	// ─────────────────────────────────────────────────────────────────────
	pgCfg := postgres.DefaultConfig()
	pgCfg.URL = cfg.Database.URL
	pool, err := postgres.Connect(ctx, pgCfg)
	if err != nil {
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}
	defer pool.Close()

	if err := postgres.Migrate(ctx, pool); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Info("postgres ready")

	settingsRepo := postgres.NewSettingsRepository(pool, log)
	moderationRepo := postgres.NewModerationRepository(pool)

	// ─────────────────────────────────────────────────────────────────────
	// 3. PROGRESSION STORE
	// ─────────────────────────────────────────────────────────────────────
	healthChecks := map[string]func(ctx context.Context) error{
		"postgres": pool.Ping,
	}

	var store progression.Store
	if cfg.Redis.Enabled {
		redisCfg := redisstore.DefaultConfig()
		redisCfg.Host = cfg.Redis.Host
		redisCfg.Port = cfg.Redis.Port
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB

		rs, err := redisstore.NewProgressionStore(redisCfg, log)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer rs.Close()
		healthChecks["redis"] = rs.Ping
		store = rs
		log.Info("redis progression store ready", logger.F("addr", redisCfg.Addr()))
	} else {
		store = memory.NewProgressionStore()
		log.Warn("redis disabled, using in-memory progression store")
	}

	// ─────────────────────────────────────────────────────────────────────
	// 4. PLATFORM CLIENT + APPLICATION HANDLERS
	// ─────────────────────────────────────────────────────────────────────
	clientCfg := platformclient.DefaultClientConfig(cfg.Platform.Token)
	clientCfg.BaseURL = cfg.Platform.BaseURL
	gateway := platformclient.NewClient(clientCfg, log)

	rewards := command.NewSyncRewardsHandler(gateway, log)
	activity := command.NewHandleActivityHandler(
		store, settingsRepo, gateway, rewards, log,
		command.HandleActivityConfig{ExpPerEvent: shared.XP(cfg.Leveling.ExpPerEvent)},
	)
	warn := command.NewWarnMemberHandler(moderationRepo, settingsRepo, gateway, log)
	getLevel := query.NewGetLevelHandler(store, settingsRepo, log)

	// ─────────────────────────────────────────────────────────────────────
	// 5. HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────
	serverCfg := httpserver.DefaultConfig()
	serverCfg.Host = cfg.HTTP.Host
	serverCfg.Port = cfg.HTTP.Port
	serverCfg.AuthToken = cfg.HTTP.AuthToken

	server := httpserver.NewServer(serverCfg, httpserver.Dependencies{
		Activity:     activity,
		Warn:         warn,
		GetLevel:     getLevel,
		HealthChecks: healthChecks,
		Logger:       log,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Start(gctx)
	})

	err = g.Wait()
	log.Info("nebula progression service stopped")
	return err
}
