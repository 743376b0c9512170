package main

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"github.com/simonkochhh-source/vacation-planner-sub005/internal/adapters/observability"
	redisad "github.com/simonkochhh-source/vacation-planner-sub005/internal/adapters/redis"
	"github.com/simonkochhh-source/vacation-planner-sub005/internal/app"
	"github.com/simonkochhh-source/vacation-planner-sub005/internal/domain"
	"github.com/simonkochhh-source/vacation-planner-sub005/internal/shared"
	"github.com/simonkochhh-source/vacation-planner-sub005/internal/storage/sqlstore"
	"github.com/simonkochhh-source/vacation-planner-sub005/internal/timeline"
)

// warmer precomputes the timeline view of every stored trip into Redis.
func main() {
	ctx := context.Background()
	cfg := shared.Load()

	// 1) initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	log.Info().
		Str("driver", cfg.StorageDriver).
		Int("workers", cfg.WarmWorkers).
		Msg("warmer starting")

	dsn := cfg.MySQLDSN
	if cfg.StorageDriver == "sqlite" {
		dsn = cfg.SQLitePath
	}
	db, err := sqlstore.Open(cfg.StorageDriver, dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("database open failed")
	}
	defer db.Close()
	repo := sqlstore.New(db)

	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cache.Close()
	if err := cache.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("redis ping failed")
	}

	views := app.NewTimelineService(repo, cache, cfg.CacheTTL, timeline.NewAggregator(cfg.FallbackCostPerKm))

	ids, err := repo.ListTripIDs(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("list trips failed")
	}

	workers := cfg.WarmWorkers
	if workers <= 0 {
		workers = 1
	}
	sem := semaphore.NewWeighted(int64(workers))
	var wg sync.WaitGroup
	var failed atomic.Int64
	start := time.Now()

	for _, id := range ids {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Fatal().Err(err).Msg("semaphore acquire failed")
		}

		wg.Add(1)
		go func(tripID string) {
			defer wg.Done()
			defer sem.Release(1)

			if err := views.Warm(ctx, tripID); err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					// deleted since listing: evict so we don't keep serving an old snapshot
					views.Invalidate(ctx, tripID)
				}
				failed.Add(1)
				log.Warn().Str("trip", tripID).Err(err).Msg("warm failed")
				return
			}
			log.Debug().Str("trip", tripID).Msg("warm ok")
		}(id)
	}

	wg.Wait()
	log.Info().
		Int("trips", len(ids)).
		Int64("failed", failed.Load()).
		Dur("took", time.Since(start)).
		Msg("warming completed")
}
