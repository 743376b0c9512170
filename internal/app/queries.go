package app

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/simonkochhh-source/vacation-planner-sub005/internal/domain"
	"github.com/simonkochhh-source/vacation-planner-sub005/internal/timeline"
)

// TimelineService serves computed timeline views, caching the whole view per
// trip. Views are always rebuilt from scratch; the cache only saves rebuilding
// them for repeated reads.
type TimelineService struct {
	repo     domain.TripRepository
	cache    domain.Cache
	cacheTTL time.Duration
	agg      timeline.Aggregator
}

func NewTimelineService(r domain.TripRepository, c domain.Cache, ttl time.Duration, agg timeline.Aggregator) *TimelineService {
	return &TimelineService{repo: r, cache: c, cacheTTL: ttl, agg: agg}
}

func timelineKey(tripID string) string { return fmt.Sprintf("timeline:%s", tripID) }

func (s *TimelineService) GetTimeline(ctx context.Context, tripID string) (domain.TimelineView, error) {
	key := timelineKey(tripID)
	var v domain.TimelineView
	if s.cache != nil {
		if ok, _ := s.cache.Get(ctx, key, &v); ok {
			return v, nil
		}
	}
	trip, dests, err := s.repo.GetTrip(ctx, tripID)
	if err != nil {
		return domain.TimelineView{}, err
	}
	v = s.agg.Build(trip, dests)
	s.Store(ctx, v)
	return v, nil
}

// Store replaces the cached view for v's trip.
func (s *TimelineService) Store(ctx context.Context, v domain.TimelineView) {
	if s.cache == nil {
		return
	}
	// size guard
	if b, _ := json.Marshal(v); len(b) >= 1_000_000 {
		_ = s.cache.Del(ctx, timelineKey(v.TripID))
		return
	}
	if err := s.cache.Set(ctx, timelineKey(v.TripID), v, int(s.cacheTTL.Seconds())); err != nil {
		log.Warn().Err(err).Str("trip", v.TripID).Msg("timeline cache set failed")
	}
}

func (s *TimelineService) Invalidate(ctx context.Context, tripID string) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Del(ctx, timelineKey(tripID))
}

// Warm rebuilds and stores the view for one trip, bypassing the cache.
func (s *TimelineService) Warm(ctx context.Context, tripID string) error {
	trip, dests, err := s.repo.GetTrip(ctx, tripID)
	if err != nil {
		return err
	}
	s.Store(ctx, s.agg.Build(trip, dests))
	return nil
}
