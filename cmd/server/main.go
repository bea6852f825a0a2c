package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/fieldstock/partsdesk/internal/config"
	"github.com/fieldstock/partsdesk/internal/domain/catalog"
	"github.com/fieldstock/partsdesk/internal/domain/requests"
	"github.com/fieldstock/partsdesk/internal/domain/stock"
	"github.com/fieldstock/partsdesk/internal/domain/usage"
	"github.com/fieldstock/partsdesk/internal/engine"
	"github.com/fieldstock/partsdesk/internal/infra/db"
	"github.com/fieldstock/partsdesk/internal/infra/events"
	httpx "github.com/fieldstock/partsdesk/internal/infra/http"
	"github.com/fieldstock/partsdesk/internal/infra/logger"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
)

func runMigrations(dsn string, log *slog.Logger) error {
	sqlDB, err := goose.OpenDBWithDriver("postgres", dsn)
	if err != nil {
		return err
	}
	defer func() { _ = sqlDB.Close() }()
	return goose.Up(sqlDB, "migrations")
}

func main() {
	cfg, err := config.Load("config/example.yaml")
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg.App.Env)

	if err := runMigrations(cfg.Postgres.DSN, log); err != nil {
		log.Error("migrations failed", "err", err)
		return
	}
	log.Info("migrations applied")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, cfg.Postgres.DSN)
	if err != nil {
		log.Error("db connect failed", "err", err)
		return
	}
	defer pool.Close()
	log.Info("db connected")

	bus := events.NewBus()
	defer bus.Close()

	stockRepo := stock.NewRepo(pool)
	eng := engine.New(
		requests.NewRepo(pool, stockRepo),
		stockRepo,
		catalog.NewRepo(pool),
		usage.NewRepo(pool, stockRepo),
		bus,
		log,
	)

	srv := httpx.New(cfg.HTTP.Addr, eng, log, cfg.Metrics.Enabled)
	go func() {
		if err := srv.Start(); err != nil && err.Error() != "http: Server closed" {
			log.Error("http server error", "err", err)
		}
	}()
	log.Info("HTTP server started", "addr", cfg.HTTP.Addr)

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	log.Info("graceful shutdown complete")
}
