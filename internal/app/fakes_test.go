package app_test

import (
	"context"
	"fmt"
	"sync"

	"github.com/simonkochhh-source/vacation-planner-sub005/internal/domain"
)

// ---- fakes ----

type fakeRepo struct {
	mu        sync.Mutex
	trips     map[string]domain.Trip
	dests     map[string][]domain.Destination
	created   []domain.Destination
	createErr error
	gets      int

	// optional gate: CreateDestination signals createStarted, then waits on createRelease
	createStarted chan struct{}
	createRelease chan struct{}
}

func newFakeRepo(trip domain.Trip, dests ...domain.Destination) *fakeRepo {
	return &fakeRepo{
		trips: map[string]domain.Trip{trip.ID: trip},
		dests: map[string][]domain.Destination{trip.ID: dests},
	}
}

func (f *fakeRepo) GetTrip(ctx context.Context, id string) (domain.Trip, []domain.Destination, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	t, ok := f.trips[id]
	if !ok {
		return domain.Trip{}, nil, domain.ErrTripNotFound
	}
	return t, append([]domain.Destination(nil), f.dests[id]...), nil
}

func (f *fakeRepo) ListTripIDs(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []string
	for id := range f.trips {
		ids = append(ids, id)
	}
	return ids, nil
}

func (f *fakeRepo) CreateDestination(ctx context.Context, d domain.Destination) error {
	if f.createStarted != nil {
		f.createStarted <- struct{}{}
		<-f.createRelease
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, d)
	f.dests[d.TripID] = append(f.dests[d.TripID], d)
	return nil
}

func (f *fakeRepo) getCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.gets
}

type gatewayCall struct {
	op    string
	id    string
	order []string
	span  domain.DateSpan
}

type fakeGateway struct {
	mu      sync.Mutex
	calls   []gatewayCall
	failOn  map[string]error
	started chan struct{}
	release chan struct{}
}

func (g *fakeGateway) record(c gatewayCall) error {
	if g.started != nil {
		g.started <- struct{}{}
	}
	if g.release != nil {
		<-g.release
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, c)
	return g.failOn[c.op]
}

func (g *fakeGateway) Reorder(ctx context.Context, tripID string, order []string) error {
	return g.record(gatewayCall{op: "reorder", id: tripID, order: append([]string(nil), order...)})
}

func (g *fakeGateway) UpdateDestinationDates(ctx context.Context, id string, span domain.DateSpan) error {
	return g.record(gatewayCall{op: "dates", id: id, span: span})
}

func (g *fakeGateway) snapshot() []gatewayCall {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]gatewayCall(nil), g.calls...)
}

type fakeCache struct {
	mu    sync.Mutex
	store map[string]any
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.store[key]
	if !ok {
		return false, nil
	}
	switch d := dst.(type) {
	case *domain.TimelineView:
		*d = v.(domain.TimelineView)
	default:
		return false, fmt.Errorf("unexpected type %T", dst)
	}
	return true, nil
}

func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		c.store = map[string]any{}
	}
	c.store[key] = v
	return nil
}

func (c *fakeCache) Del(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.store, key)
	return nil
}

func (c *fakeCache) view(key string) domain.TimelineView {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, _ := c.store[key].(domain.TimelineView)
	return v
}

func (c *fakeCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.store[key]
	return ok
}

// ---- fixtures ----

const (
	day1 = "2025-07-01"
	day2 = "2025-07-02"
)

func dest(id, date string, lat, lng float64) domain.Destination {
	return domain.Destination{
		ID:          id,
		TripID:      "t1",
		Name:        id,
		Category:    domain.CategoryAttraction,
		StartDate:   date,
		EndDate:     date,
		Coordinates: &domain.Coordinates{Lat: lat, Lng: lng},
	}
}

// sampleTrip has A and B on the first day and C on the second.
func sampleTrip() (domain.Trip, []domain.Destination) {
	trip := domain.Trip{ID: "t1", Name: "Coast", StartDate: day1, EndDate: day2, Destinations: []string{"A", "B", "C"}}
	return trip, []domain.Destination{
		dest("A", day1, 48.1374, 11.5755),
		dest("B", day1, 48.1500, 11.5800),
		dest("C", day2, 47.4210, 10.9850),
	}
}
