package app

import (
	"context"
	"testing"
	"time"

	"github.com/simonkochhh-source/vacation-planner-sub005/internal/domain"
	"github.com/simonkochhh-source/vacation-planner-sub005/internal/timeline"
)

type lastViewCache struct{ views map[string]domain.TimelineView }

func (c *lastViewCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	v, ok := c.views[key]
	if ok {
		*dst.(*domain.TimelineView) = v
	}
	return ok, nil
}

func (c *lastViewCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	c.views[key] = v.(domain.TimelineView)
	return nil
}

func (c *lastViewCache) Del(ctx context.Context, key string) error {
	delete(c.views, key)
	return nil
}

// An edit that finishes publishing after a newer one must not overwrite it.
func TestPublish_OlderRevisionNeverOverwritesNewer(t *testing.T) {
	cache := &lastViewCache{views: map[string]domain.TimelineView{}}
	p := &Planner{views: NewTimelineService(nil, cache, time.Minute, timeline.NewAggregator(0))}
	s := &session{}
	ctx := context.Background()

	older := domain.TimelineView{TripID: "t1", Days: []domain.TimelineDay{{Date: "2025-07-01"}}}
	newer := domain.TimelineView{TripID: "t1", Days: []domain.TimelineDay{{Date: "2025-07-01"}, {Date: "2025-07-02"}}}

	p.publish(ctx, s, 2, newer)
	p.publish(ctx, s, 1, older)

	if got := cache.views["timeline:t1"]; len(got.Days) != 2 {
		t.Fatalf("cached view has %d days, want the newer view's 2", len(got.Days))
	}

	p.publish(ctx, s, 3, older)
	if got := cache.views["timeline:t1"]; len(got.Days) != 1 {
		t.Fatalf("revision 3 not published")
	}
}
