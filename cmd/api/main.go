// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the Shelf HTTP API server.
//
// # Startup Sequence
//
//  1. Load configuration from environment variables.
//  2. Initialize structured logger (Sentry fan-out when configured).
//  3. Connect to PostgreSQL (pgxpool).
//  4. Connect to Redis.
//  5. Run database migrations (idempotent).
//  6. Open blob storage and the file placement areas.
//  7. Load runtime settings and subscribe to reloads.
//  8. Wire domain services and HTTP handlers.
//  9. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/taibuivan/yomira-shelf/data"
	"github.com/taibuivan/yomira-shelf/internal/access"
	"github.com/taibuivan/yomira-shelf/internal/api"
	"github.com/taibuivan/yomira-shelf/internal/library/placement"
	"github.com/taibuivan/yomira-shelf/internal/library/publication"
	"github.com/taibuivan/yomira-shelf/internal/library/submission"
	"github.com/taibuivan/yomira-shelf/internal/platform/config"
	"github.com/taibuivan/yomira-shelf/internal/platform/constants"
	"github.com/taibuivan/yomira-shelf/internal/platform/lock"
	"github.com/taibuivan/yomira-shelf/internal/platform/logger"
	"github.com/taibuivan/yomira-shelf/internal/platform/migration"
	pgstore "github.com/taibuivan/yomira-shelf/internal/platform/postgres"
	redisstore "github.com/taibuivan/yomira-shelf/internal/platform/redis"
	"github.com/taibuivan/yomira-shelf/internal/platform/sec"
	"github.com/taibuivan/yomira-shelf/internal/platform/storage"
	"github.com/taibuivan/yomira-shelf/internal/settings"
	"github.com/taibuivan/yomira-shelf/internal/users/account"
	"github.com/taibuivan/yomira-shelf/internal/users/auth"
)

func main() {
	// ── 1. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		// No logger yet; the config decides its format.
		fmt.Fprintln(os.Stderr, "[Shelf] load configuration:", err)
		os.Exit(1)
	}

	// ── 2. Logger ─────────────────────────────────────────────────────────
	log, flush, err := logger.New(os.Stdout, logger.Options{
		Development: cfg.IsDevelopment(),
		Debug:       cfg.Debug,
		SentryDSN:   cfg.SentryDSN,
		Environment: cfg.Environment,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "[Shelf] initialize logger:", err)
		os.Exit(1)
	}
	defer flush()
	slog.SetDefault(log)

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
		slog.String("storage_driver", cfg.StorageDriver),
	)

	// Root context lives as long as the process; cancelled on shutdown.
	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	// Startup deadline so misconfiguration is caught quickly rather than hanging.
	startupCtx, startupCancel := context.WithTimeout(rootCtx, 30*time.Second)
	defer startupCancel()

	// ── 3. PostgreSQL ─────────────────────────────────────────────────────
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
	must(log, flush, err, "connect to postgres")
	defer func() {
		log.Info("postgres_pool_closing")
		pool.Close()
	}()

	// ── 4. Redis ──────────────────────────────────────────────────────────
	rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
	must(log, flush, err, "connect to redis")
	defer func() {
		log.Info("redis_client_closing")
		if cerr := rdb.Close(); cerr != nil {
			log.Error("redis_close_failed", slog.Any("error", cerr))
		}
	}()

	// ── 5. Migrations ─────────────────────────────────────────────────────
	migrations := data.Migrations()
	if cfg.MigrationPath != "" {
		migrations = os.DirFS(cfg.MigrationPath)
	}
	must(log, flush, migration.RunUp(cfg.DatabaseURL, migrations, log), "run migrations")

	// ── 6. Storage & Placement ────────────────────────────────────────────
	blob, err := openStorage(startupCtx, cfg, log)
	must(log, flush, err, "open blob storage")

	placer := placement.NewService(blob, placement.Roots{
		Staging:   cfg.StagingPrefix,
		Permanent: cfg.PermanentPrefix,
		Archive:   cfg.ArchivePrefix,
	}, log)

	// ── 7. Shared Infrastructure ──────────────────────────────────────────
	tokens, err := sec.NewTokenService(cfg.JWTPrivKeyPath, cfg.JWTPubKeyPath, constants.AuthIssuer)
	must(log, flush, err, "initialize jwt service")

	txManager := pgstore.NewTxManager(pool)
	locker := lock.NewRedis(rdb, cfg.LockTTL, log)

	// ── 8. Access Control ─────────────────────────────────────────────────
	roleRepository := access.NewPostgresRoleRepository(pool)
	permissionRepository := access.NewPostgresPermissionRepository(pool)
	checker := access.NewChecker(roleRepository, log)
	accessService := access.NewService(roleRepository, permissionRepository, checker, txManager, log)

	// ── 9. Runtime Settings ───────────────────────────────────────────────
	settingsStore := settings.NewStore(
		settings.NewPostgresRepository(pool),
		settings.Defaults(cfg.MaxUploadBytes),
		checker,
		txManager,
		settings.NewRedisNotifier(rdb, log),
		log,
	)
	must(log, flush, settingsStore.Reload(startupCtx), "load runtime settings")

	go func() {
		if err := settingsStore.Listen(rootCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("settings_listener_stopped", slog.Any("error", err))
		}
	}()

	// ── 10. Users ─────────────────────────────────────────────────────────
	authService := auth.NewService(
		auth.NewUserRepository(pool),
		auth.NewSessionRepository(pool),
		auth.NewRedisAttemptCounter(rdb, auth.LoginLockout),
		tokens,
		accessService,
		log,
	)
	accountService := account.NewService(
		account.NewAccountRepository(pool),
		account.NewSessionRepository(pool),
		roleRepository,
		checker,
		txManager,
		log,
	)

	// ── 11. Library ───────────────────────────────────────────────────────
	publicationRepository := publication.NewPostgresRepository(pool)
	submissionRepository := submission.NewPostgresRepository(pool)

	publicationService := publication.NewService(
		publicationRepository,
		submissionRepository,
		placer,
		checker,
		locker,
		txManager,
		settingsStore,
		log,
	)
	submissionService := submission.NewService(
		submissionRepository,
		publicationRepository,
		placer,
		checker,
		locker,
		txManager,
		settingsStore,
		log,
	)

	// ── 12. HTTP Server ───────────────────────────────────────────────────
	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckDatabase: func(ctx context.Context) error { return pgstore.Ping(ctx, pool) },
		CheckCache:    func(ctx context.Context) error { return redisstore.Ping(ctx, rdb) },
		CheckStorage:  blob.Ping,
	}, log)

	handlers := api.Handlers{
		Liveness:     liveness,
		Readiness:    readiness,
		Auth:         auth.NewHandler(authService),
		Account:      account.NewHandler(accountService),
		Access:       access.NewHandler(accessService),
		Submissions:  submission.NewHandler(submissionService, settingsStore),
		Publications: publication.NewHandler(publicationService, settingsStore),
		Settings:     settings.NewHandler(settingsStore),
	}

	server := api.NewServer(rootCtx, cfg, log, tokens, checker, handlers)

	// ── 13. Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown_signal_received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server_startup_failed", slog.Any("error", err))
	}

	rootCancel()

	shutdownTimeout := constants.ShutdownTimeout
	log.Info("server_shutting_down", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown_failed", slog.Any("error", err))
		flush()
		os.Exit(1)
	}

	log.Info("server_stopped")
}

// openStorage selects the blob backend named by STORAGE_DRIVER.
func openStorage(ctx context.Context, cfg *config.Config, log *slog.Logger) (storage.Blob, error) {
	switch cfg.StorageDriver {
	case config.StorageDriverS3:
		return storage.NewS3(ctx, storage.S3Config{
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Endpoint:  cfg.S3Endpoint,
			PublicURL: cfg.StoragePublicURL,
		}, log)
	default:
		return storage.NewLocal(cfg.StorageLocalRoot, cfg.StoragePublicURL)
	}
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is limited to startup wiring. After startup, all errors are returned
// and handled explicitly.
func must(log *slog.Logger, flush func(), err error, step string) {
	if err != nil {
		log.Error("startup_failed",
			slog.String("step", step),
			slog.Any("error", err),
		)
		flush()
		os.Exit(1)
	}
}
