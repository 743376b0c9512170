package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/simonkochhh-source/vacation-planner-sub005/internal/domain"
)

type tripRow struct {
	ID              string          `db:"id"`
	Name            string          `db:"name"`
	StartDate       string          `db:"start_date"`
	EndDate         string          `db:"end_date"`
	FuelConsumption sql.NullFloat64 `db:"fuel_consumption"`
	FuelPrice       sql.NullFloat64 `db:"fuel_price"`
}

type destinationRow struct {
	ID                  string          `db:"id"`
	TripID              string          `db:"trip_id"`
	Name                string          `db:"name"`
	Lat                 sql.NullFloat64 `db:"lat"`
	Lng                 sql.NullFloat64 `db:"lng"`
	Category            string          `db:"category"`
	StartDate           string          `db:"start_date"`
	EndDate             string          `db:"end_date"`
	TransportMode       sql.NullString  `db:"transport_mode"`
	TransportDuration   sql.NullInt64   `db:"transport_duration"`
	TransportDistance   sql.NullFloat64 `db:"transport_distance"`
	ReturnDestinationID sql.NullString  `db:"return_destination_id"`
	ActualCost          sql.NullFloat64 `db:"actual_cost"`
	Budget              sql.NullFloat64 `db:"budget"`
}

func valF64(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}
func valInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}
func valStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}
func ptrF64(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	f := n.Float64
	return &f
}

// Repo stores trips, destinations and flat orders. It serves both as the
// trip repository and as the SQL persistence gateway.
type Repo struct{ db *sqlx.DB }

func New(db *sqlx.DB) *Repo { return &Repo{db: db} }

// CreateTrip stores a trip together with its flat order.
func (r *Repo) CreateTrip(ctx context.Context, t domain.Trip) error {
	var fc, fp *float64
	if t.VehicleConfig != nil {
		fc, fp = &t.VehicleConfig.FuelConsumption, &t.VehicleConfig.FuelPrice
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx, insertTripSQL, t.ID, t.Name, t.StartDate, t.EndDate, valF64(fc), valF64(fp)); err != nil {
		return fmt.Errorf("insert trip: %w", err)
	}
	if err := writeOrder(ctx, tx, t.ID, t.Destinations); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *Repo) CreateDestination(ctx context.Context, d domain.Destination) error {
	var lat, lng *float64
	if d.Coordinates != nil {
		lat, lng = &d.Coordinates.Lat, &d.Coordinates.Lng
	}
	var mode string
	var dur *int
	var dist *float64
	if d.TransportToNext != nil {
		mode, dur, dist = string(d.TransportToNext.Mode), d.TransportToNext.Duration, d.TransportToNext.Distance
	}
	_, err := r.db.ExecContext(ctx, insertDestinationSQL,
		d.ID, d.TripID, d.Name,
		valF64(lat), valF64(lng),
		string(d.Category), d.StartDate, d.EndDate,
		valStr(mode), valInt(dur), valF64(dist),
		valStr(d.ReturnDestinationID),
		valF64(d.ActualCost), valF64(d.Budget),
	)
	if err != nil {
		return fmt.Errorf("insert destination %s: %w", d.ID, err)
	}
	return nil
}

func (r *Repo) GetTrip(ctx context.Context, id string) (domain.Trip, []domain.Destination, error) {
	var tr tripRow
	if err := r.db.GetContext(ctx, &tr, getTripSQL, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Trip{}, nil, fmt.Errorf("%s: %w", id, domain.ErrTripNotFound)
		}
		return domain.Trip{}, nil, err
	}
	trip := domain.Trip{ID: tr.ID, Name: tr.Name, StartDate: tr.StartDate, EndDate: tr.EndDate}
	if tr.FuelConsumption.Valid && tr.FuelPrice.Valid {
		trip.VehicleConfig = &domain.VehicleConfig{FuelConsumption: tr.FuelConsumption.Float64, FuelPrice: tr.FuelPrice.Float64}
	}

	order := []string{}
	if err := r.db.SelectContext(ctx, &order, listOrderSQL, id); err != nil {
		return domain.Trip{}, nil, fmt.Errorf("load order: %w", err)
	}
	trip.Destinations = order

	var rows []destinationRow
	if err := r.db.SelectContext(ctx, &rows, listDestinationsSQL, id); err != nil {
		return domain.Trip{}, nil, fmt.Errorf("load destinations: %w", err)
	}
	dests := make([]domain.Destination, 0, len(rows))
	for _, row := range rows {
		dests = append(dests, row.toDomain())
	}
	return trip, dests, nil
}

func (r *Repo) ListTripIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, listTripIDsSQL); err != nil {
		return nil, err
	}
	return ids, nil
}

// Reorder replaces the stored flat order of a trip in one transaction.
func (r *Repo) Reorder(ctx context.Context, tripID string, order []string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var n int
	if err := tx.GetContext(ctx, &n, tripExistsSQL, tripID); err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", tripID, domain.ErrTripNotFound)
	}
	if _, err := tx.ExecContext(ctx, deleteOrderSQL, tripID); err != nil {
		return fmt.Errorf("clear order: %w", err)
	}
	if err := writeOrder(ctx, tx, tripID, order); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *Repo) UpdateDestinationDates(ctx context.Context, id string, span domain.DateSpan) error {
	res, err := r.db.ExecContext(ctx, updateDatesSQL, span.StartDate, span.EndDate, id)
	if err != nil {
		return fmt.Errorf("update dates of %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		return nil
	}
	// MySQL reports zero affected rows for unchanged values.
	var n int
	if err := r.db.GetContext(ctx, &n, destinationExistsSQL, id); err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", id, domain.ErrDestinationNotFound)
	}
	return nil
}

func writeOrder(ctx context.Context, tx *sqlx.Tx, tripID string, order []string) error {
	seen := make(map[string]bool, len(order))
	pos := 0
	for _, id := range order {
		if seen[id] {
			continue
		}
		seen[id] = true
		if _, err := tx.ExecContext(ctx, insertOrderSQL, tripID, id, pos); err != nil {
			return fmt.Errorf("write order of %s: %w", tripID, err)
		}
		pos++
	}
	return nil
}

func (row destinationRow) toDomain() domain.Destination {
	d := domain.Destination{
		ID:                  row.ID,
		TripID:              row.TripID,
		Name:                row.Name,
		Category:            domain.Category(row.Category),
		StartDate:           row.StartDate,
		EndDate:             row.EndDate,
		ReturnDestinationID: row.ReturnDestinationID.String,
		ActualCost:          ptrF64(row.ActualCost),
		Budget:              ptrF64(row.Budget),
	}
	if row.Lat.Valid && row.Lng.Valid {
		d.Coordinates = &domain.Coordinates{Lat: row.Lat.Float64, Lng: row.Lng.Float64}
	}
	if row.TransportMode.Valid && row.TransportMode.String != "" {
		t := &domain.TransportToNext{Mode: domain.TransportMode(row.TransportMode.String), Distance: ptrF64(row.TransportDistance)}
		if row.TransportDuration.Valid {
			m := int(row.TransportDuration.Int64)
			t.Duration = &m
		}
		d.TransportToNext = t
	}
	return d
}
