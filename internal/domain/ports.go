package domain

import "context"

type TripRepository interface {
	// GetTrip returns the trip and every destination it owns.
	GetTrip(ctx context.Context, id string) (Trip, []Destination, error)
	ListTripIDs(ctx context.Context) ([]string, error)
	// CreateDestination stores a new destination. It does not touch the flat order.
	CreateDestination(ctx context.Context, d Destination) error
}

// PersistenceGateway receives the results of a reorder. Both calls are
// independent and may fail on their own.
type PersistenceGateway interface {
	Reorder(ctx context.Context, tripID string, order []string) error
	UpdateDestinationDates(ctx context.Context, id string, span DateSpan) error
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

type InsertPosition string

const (
	InsertBefore  InsertPosition = "before"
	InsertAfter   InsertPosition = "after"
	InsertInitial InsertPosition = "initial"
)

func (p InsertPosition) Valid() bool {
	return p == InsertBefore || p == InsertAfter || p == InsertInitial
}
