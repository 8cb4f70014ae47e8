package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/HollowedMumbler/Absolute-Cinema/internal/config"
	"github.com/HollowedMumbler/Absolute-Cinema/internal/db"
	"github.com/HollowedMumbler/Absolute-Cinema/internal/log"
	"github.com/HollowedMumbler/Absolute-Cinema/internal/server"
)

var mainDepsProvider = defaultDeps
var mainRunner = realMain

func main() {
	mainRunner(mainDepsProvider())
}

type mainDeps struct {
	loadConfig      func() config.Config
	initLogger      func(level, format string) (*zap.Logger, error)
	connectPostgres func(config.Config) (*pgxpool.Pool, error)
	connectRedis    func(config.Config) *redis.Client
	migrate         func(dbURL string) error
	notify          func(chan<- os.Signal, ...os.Signal)
	run             func(context.Context, config.Config, *pgxpool.Pool, *redis.Client, <-chan os.Signal, ListenFunc) error
}

func defaultDeps() mainDeps {
	return mainDeps{
		loadConfig:      config.Load,
		initLogger:      log.Init,
		connectPostgres: db.ConnectPostgres,
		connectRedis:    db.ConnectRedis,
		migrate:         db.Migrate,
		notify:          signal.Notify,
		run:             Run,
	}
}

func realMain(deps mainDeps) {
	cfg := deps.loadConfig()

	logger, err := deps.initLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		logger, _ = deps.initLogger("info", "json")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	defer func() { _ = logger.Sync() }()
	if err != nil {
		logger.Warn("invalid log settings, using defaults", log.ErrorField(err))
	}

	pg, err := deps.connectPostgres(cfg)
	if err != nil {
		logger.Error("postgres connection failed", log.ErrorField(err))
	}
	if pg != nil && cfg.AutoMigrate {
		if err := deps.migrate(cfg.PostgresURL); err != nil {
			logger.Error("migration failed", log.ErrorField(err))
		} else {
			logger.Info("schema migrated")
		}
	}

	rdb := deps.connectRedis(cfg)
	if rdb == nil {
		logger.Warn("redis not configured, leaderboard disabled and streaming is local only")
	}

	signals := make(chan os.Signal, 1)
	deps.notify(signals, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("starting api", zap.String("addr", cfg.ServerPort))
	if err := deps.run(context.Background(), cfg, pg, rdb, signals, nil); err != nil {
		logger.Error("server exited with error", log.ErrorField(err))
	}
}

type ListenFunc func(app *fiber.App, addr string) error

var defaultListen ListenFunc = func(app *fiber.App, addr string) error {
	return app.Listen(addr)
}

var shutdownFn = func(app *fiber.App, ctx context.Context) error {
	return app.ShutdownWithContext(ctx)
}

// Run starts the HTTP server and waits for termination signals.
func Run(ctx context.Context, cfg config.Config, pg *pgxpool.Pool, rdb *redis.Client, signals <-chan os.Signal, listen ListenFunc) error {
	srv, err := server.NewServer(cfg, pg, rdb)
	if err != nil {
		return err
	}

	if listen == nil {
		listen = defaultListen
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- listen(srv.App, cfg.ServerPort)
	}()

	select {
	case <-signals:
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := shutdownFn(srv.App, shutdownCtx); err != nil {
		return err
	}
	if err := srv.Shutdown(); err != nil {
		log.Default().Warn("stream relay close failed", log.ErrorField(err))
	}
	if pg != nil {
		pg.Close()
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	return nil
}
