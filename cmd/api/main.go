package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	server "github.com/simonkochhh-source/vacation-planner-sub005/internal/adapters/http_server"
	"github.com/simonkochhh-source/vacation-planner-sub005/internal/adapters/observability"
	redisad "github.com/simonkochhh-source/vacation-planner-sub005/internal/adapters/redis"
	"github.com/simonkochhh-source/vacation-planner-sub005/internal/adapters/syncapi"
	"github.com/simonkochhh-source/vacation-planner-sub005/internal/app"
	"github.com/simonkochhh-source/vacation-planner-sub005/internal/domain"
	"github.com/simonkochhh-source/vacation-planner-sub005/internal/shared"
	"github.com/simonkochhh-source/vacation-planner-sub005/internal/storage/sqlstore"
	"github.com/simonkochhh-source/vacation-planner-sub005/internal/timeline"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	// db
	dsn := cfg.MySQLDSN
	if cfg.StorageDriver == "sqlite" {
		dsn = cfg.SQLitePath
	}
	db, err := sqlstore.Open(cfg.StorageDriver, dsn)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.StorageDriver).Msg("database open failed")
	}
	defer db.Close()
	log.Info().Str("driver", cfg.StorageDriver).Msg("database connection ok")

	// deps
	repo := sqlstore.New(db)
	var gw domain.PersistenceGateway = repo
	if cfg.Gateway == "http" {
		client, err := syncapi.New(cfg.SyncBaseURL, cfg.SyncAPIKey, cfg.SyncRPS)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize sync client")
		}
		gw = client
	}
	log.Info().Str("gateway", cfg.Gateway).Int("workers", cfg.PersistWorkers).Msg("persistence gateway ready")

	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cache.Close()
	if err := cache.Ping(context.Background()); err != nil {
		log.Warn().Err(err).Msg("redis unavailable; timeline reads will miss")
	}

	agg := timeline.NewAggregator(cfg.FallbackCostPerKm)
	views := app.NewTimelineService(repo, cache, cfg.CacheTTL, agg)
	planner := app.NewPlanner(repo, app.NewDispatcher(gw, cfg.PersistWorkers, 0, 0), views, agg, app.Options{
		Watchdog: cfg.DragWatchdog,
		Frame:    cfg.HoverFrame,
	})

	// http
	srv := server.New()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{P: planner})

	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux(), ReadHeaderTimeout: 5 * time.Second}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}
	// drains queued persistence calls
	if err := planner.Close(); err != nil {
		log.Error().Err(err).Msg("planner close failed")
	}
}
