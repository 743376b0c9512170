package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/simonkochhh-source/vacation-planner-sub005/internal/adapters/observability"
	"github.com/simonkochhh-source/vacation-planner-sub005/internal/domain"
	"github.com/simonkochhh-source/vacation-planner-sub005/internal/dragdrop"
	"github.com/simonkochhh-source/vacation-planner-sub005/internal/reorder"
	"github.com/simonkochhh-source/vacation-planner-sub005/internal/timeline"
)

const DefaultWatchdog = 20 * time.Second

type Options struct {
	Watchdog time.Duration // force-reset for drags that never finish
	Frame    time.Duration // hover throttle interval
}

// Planner coordinates timeline edits for every open trip. Each trip gets one
// session that owns the optimistic flat order, the destination snapshot and
// the drag state machine. Nothing outside a session touches its drag state.
type Planner struct {
	repo    domain.TripRepository
	persist *Dispatcher
	views   *TimelineService
	agg     timeline.Aggregator
	opts    Options
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
}

type session struct {
	mu    sync.Mutex
	trip  domain.Trip
	dests []domain.Destination
	drag  *dragdrop.Machine

	gen      uint64 // bumped per drag so stale timers are ignored
	watchdog *time.Timer
	frame    *time.Timer
	rev      uint64 // bumped per applied edit

	pubMu  sync.Mutex
	pubRev uint64 // newest rev written to the cache
}

func NewPlanner(repo domain.TripRepository, persist *Dispatcher, views *TimelineService, agg timeline.Aggregator, opts Options) *Planner {
	if opts.Watchdog <= 0 {
		opts.Watchdog = DefaultWatchdog
	}
	if opts.Frame <= 0 {
		opts.Frame = dragdrop.DefaultFrame
	}
	return &Planner{
		repo:     repo,
		persist:  persist,
		views:    views,
		agg:      agg,
		opts:     opts,
		now:      time.Now,
		sessions: map[string]*session{},
	}
}

// DropResult is returned to the UI right after a drop resolves; persistence
// continues in the background.
type DropResult struct {
	View         domain.TimelineView `json:"timeline"`
	Drag         domain.DragState    `json:"drag"`
	Moved        bool                `json:"moved"`
	DatesChanged bool                `json:"datesChanged"`
	Dates        domain.DateSpan     `json:"dates"`
}

type InsertRequest struct {
	Name            string
	Category        domain.Category
	Coordinates     *domain.Coordinates
	EndDate         string // only honoured for multi-day categories
	TransportToNext *domain.TransportToNext
	Budget          *float64
	Day             string
	Position        domain.InsertPosition
	AnchorIndex     int
}

func (p *Planner) session(ctx context.Context, tripID string) (*session, error) {
	p.mu.Lock()
	s, ok := p.sessions[tripID]
	p.mu.Unlock()
	if ok {
		return s, nil
	}

	trip, dests, err := p.repo.GetTrip(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("load trip %s: %w", tripID, err)
	}
	fresh := &session{
		trip:  trip.WithOrder(trip.Destinations),
		dests: append([]domain.Destination(nil), dests...),
		drag:  dragdrop.New(p.opts.Frame),
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if s, ok := p.sessions[tripID]; ok {
		return s, nil // lost the race to another loader
	}
	p.sessions[tripID] = fresh
	return fresh, nil
}

// BeginDrag starts dragging destinationID. sourceDay names the bucket the
// gesture started in and defaults to the destination's start date.
func (p *Planner) BeginDrag(ctx context.Context, tripID, destinationID, sourceDay string) (domain.DragState, error) {
	s, err := p.session(ctx, tripID)
	if err != nil {
		return domain.DragState{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	byID := reorder.ByID(s.dests)
	d, ok := byID[destinationID]
	if !ok {
		return s.drag.State(), fmt.Errorf("drag %s: %w", destinationID, domain.ErrDestinationNotFound)
	}
	if sourceDay == "" {
		sourceDay = d.StartDate
	}
	sourceDay = timeline.NormalizeDate(sourceDay)
	index := -1
	for pos, i := range reorder.DayRun(s.trip.Destinations, byID, sourceDay).Members {
		if s.trip.Destinations[i] == destinationID {
			index = pos
			break
		}
	}
	if index < 0 {
		return s.drag.State(), fmt.Errorf("destination %s is not shown on %s: %w", destinationID, sourceDay, domain.ErrInvalidInput)
	}

	replaced, err := s.drag.Begin(destinationID, sourceDay, index)
	if err != nil {
		observability.ObserveDrag("begin_refused")
		return s.drag.State(), err
	}
	if replaced {
		log.Info().Str("trip", tripID).Str("destination", destinationID).Msg("stale drag replaced")
		observability.ObserveDrag("cancel:" + string(dragdrop.ReasonReplaced))
	}
	s.stopTimers()
	s.gen++
	gen := s.gen
	s.watchdog = time.AfterFunc(p.opts.Watchdog, func() { p.watchdogFired(tripID, s, gen) })
	observability.ObserveDrag("begin")
	return s.drag.State(), nil
}

// Hover records the pointer over day at visualIndex. Throttled updates are
// applied on the next frame unless the drag ends first.
func (p *Planner) Hover(ctx context.Context, tripID, day string, visualIndex int) (domain.DragState, error) {
	s, err := p.session(ctx, tripID)
	if err != nil {
		return domain.DragState{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.drag.Hover(timeline.NormalizeDate(day), visualIndex, p.now())
	if err != nil {
		return s.drag.State(), err
	}
	if res.Deferred {
		observability.ObserveDrag("deferred")
		if s.frame == nil {
			gen := s.gen
			s.frame = time.AfterFunc(s.drag.Frame(), func() { p.flushFrame(s, gen) })
		}
	} else {
		observability.ObserveDrag("hover")
	}
	return s.drag.State(), nil
}

// Drop resolves the drop synchronously and applies it optimistically. A
// negative targetIndex drops on the hovered slot.
func (p *Planner) Drop(ctx context.Context, tripID, day string, targetIndex int) (DropResult, error) {
	s, err := p.session(ctx, tripID)
	if err != nil {
		return DropResult{}, err
	}

	s.mu.Lock()
	if s.frame != nil {
		s.frame.Stop()
		s.frame = nil
	}
	drop, err := s.drag.BeginDrop(timeline.NormalizeDate(day), targetIndex)
	if err != nil {
		state := s.drag.State()
		s.mu.Unlock()
		observability.ObserveDrag("drop_refused")
		return DropResult{Drag: state}, err
	}
	observability.ObserveDrag("drop")

	start := time.Now()
	res, err := reorder.Resolve(s.trip.Destinations, s.dests, reorder.Move{
		ID:          drop.ID,
		SourceDay:   drop.SourceDay,
		TargetDay:   drop.TargetDay,
		TargetIndex: drop.TargetIndex,
	})
	if err != nil {
		p.resetLocked(tripID, s, dragdrop.ReasonError)
		state := s.drag.State()
		s.mu.Unlock()
		observability.ObserveDrop("error", time.Since(start))
		log.Error().Err(err).Str("trip", tripID).Str("destination", drop.ID).Msg("drop aborted")
		return DropResult{Drag: state}, err
	}

	if res.OrderChanged {
		s.trip = s.trip.WithOrder(res.Order)
		p.persist.Reorder(tripID, res.Order)
	}
	if res.DatesChanged {
		s.dests = withDates(s.dests, drop.ID, res.Dates)
		p.persist.UpdateDates(tripID, drop.ID, res.Dates)
	}
	if res.Changed() {
		s.rev++
	}
	rev := s.rev
	s.drag.Finish()
	s.stopTimers()
	view := p.agg.Build(s.trip, s.dests)
	state := s.drag.State()
	s.mu.Unlock()

	outcome := "noop"
	if res.Changed() {
		outcome = "moved"
		p.publish(ctx, s, rev, view)
	}
	observability.ObserveDrop(outcome, time.Since(start))
	log.Info().
		Str("trip", tripID).
		Str("destination", drop.ID).
		Str("target_day", drop.TargetDay).
		Int("target_index", drop.TargetIndex).
		Int("insert_index", res.InsertIndex).
		Bool("cross_day", res.CrossDay).
		Str("outcome", outcome).
		Msg("drop resolved")

	return DropResult{View: view, Drag: state, Moved: res.OrderChanged, DatesChanged: res.DatesChanged, Dates: res.Dates}, nil
}

// Cancel abandons the current drag, if any.
func (p *Planner) Cancel(ctx context.Context, tripID string, reason dragdrop.Reason) (domain.DragState, error) {
	s, err := p.session(ctx, tripID)
	if err != nil {
		return domain.DragState{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p.resetLocked(tripID, s, reason)
	return s.drag.State(), nil
}

func (p *Planner) DragState(ctx context.Context, tripID string) (domain.DragState, error) {
	s, err := p.session(ctx, tripID)
	if err != nil {
		return domain.DragState{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drag.State(), nil
}

// InsertDestination creates a destination next to an existing one on day (or
// as the first of an empty day) without disturbing other days. Creation is
// synchronous so failures can be shown inline; the new order is persisted in
// the background.
func (p *Planner) InsertDestination(ctx context.Context, tripID string, req InsertRequest) (domain.Destination, domain.TimelineView, error) {
	d, err := newDestination(tripID, req)
	if err != nil {
		return domain.Destination{}, domain.TimelineView{}, err
	}
	s, err := p.session(ctx, tripID)
	if err != nil {
		return domain.Destination{}, domain.TimelineView{}, err
	}

	s.mu.Lock()
	idx, err := reorder.InsertIndex(s.trip.Destinations, s.dests, d.StartDate, req.Position, req.AnchorIndex)
	s.mu.Unlock()
	if err != nil {
		return domain.Destination{}, domain.TimelineView{}, err
	}
	if err := p.repo.CreateDestination(ctx, d); err != nil {
		return domain.Destination{}, domain.TimelineView{}, fmt.Errorf("create destination: %w", err)
	}

	// The day may have been rearranged while the row was being created.
	s.mu.Lock()
	if again, err := reorder.InsertIndex(s.trip.Destinations, s.dests, d.StartDate, req.Position, req.AnchorIndex); err == nil {
		idx = again
	} else {
		idx = min(idx, len(s.trip.Destinations))
		log.Warn().Err(err).Str("trip", tripID).Str("destination", d.ID).Int("index", idx).Msg("insert anchor moved during create")
	}
	order := reorder.Insert(s.trip.Destinations, d.ID, idx)
	s.trip = s.trip.WithOrder(order)
	s.dests = append(append([]domain.Destination(nil), s.dests...), d)
	p.persist.Reorder(tripID, order)
	s.rev++
	rev := s.rev
	view := p.agg.Build(s.trip, s.dests)
	s.mu.Unlock()

	p.publish(ctx, s, rev, view)
	observability.ObserveDrop("inserted", 0)
	log.Info().Str("trip", tripID).Str("destination", d.ID).Str("day", d.StartDate).Int("index", idx).Msg("destination inserted")
	return d, view, nil
}

// Timeline returns the current view. Open sessions are authoritative; other
// trips are served through the cache.
func (p *Planner) Timeline(ctx context.Context, tripID string) (domain.TimelineView, error) {
	p.mu.Lock()
	s, ok := p.sessions[tripID]
	p.mu.Unlock()
	if !ok {
		return p.views.GetTimeline(ctx, tripID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return p.agg.Build(s.trip, s.dests), nil
}

// Forget drops the in-memory session of a trip.
func (p *Planner) Forget(tripID string) {
	p.mu.Lock()
	s, ok := p.sessions[tripID]
	delete(p.sessions, tripID)
	p.mu.Unlock()
	if ok {
		s.mu.Lock()
		s.stopTimers()
		s.mu.Unlock()
	}
}

// Close stops all timers and drains background persistence.
func (p *Planner) Close() error {
	p.mu.Lock()
	sessions := p.sessions
	p.sessions = map[string]*session{}
	p.mu.Unlock()
	for _, s := range sessions {
		s.mu.Lock()
		s.stopTimers()
		s.mu.Unlock()
	}
	return p.persist.Close()
}

// publish writes view to the cache unless a newer revision already got there.
// Callers must not hold s.mu.
func (p *Planner) publish(ctx context.Context, s *session, rev uint64, view domain.TimelineView) {
	s.pubMu.Lock()
	defer s.pubMu.Unlock()
	if rev <= s.pubRev {
		return
	}
	p.views.Store(ctx, view)
	s.pubRev = rev
}

func (p *Planner) watchdogFired(tripID string, s *session, gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen || !s.drag.Active() {
		return
	}
	s.watchdog = nil
	log.Warn().Str("trip", tripID).Str("phase", string(s.drag.Phase())).Dur("after", p.opts.Watchdog).Msg("drag watchdog fired")
	p.resetLocked(tripID, s, dragdrop.ReasonWatchdog)
}

func (p *Planner) flushFrame(s *session, gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frame = nil
	if s.gen != gen {
		return
	}
	if s.drag.FlushPending(p.now()) {
		observability.ObserveDrag("hover")
	}
}

func (p *Planner) resetLocked(tripID string, s *session, reason dragdrop.Reason) {
	s.stopTimers()
	if prev := s.drag.Reset(); prev != domain.PhaseIdle {
		observability.ObserveDrag("cancel:" + string(reason))
		log.Info().Str("trip", tripID).Str("reason", string(reason)).Str("phase", string(prev)).Msg("drag reset")
	}
}

func (s *session) stopTimers() {
	if s.watchdog != nil {
		s.watchdog.Stop()
		s.watchdog = nil
	}
	if s.frame != nil {
		s.frame.Stop()
		s.frame = nil
	}
}

func withDates(dests []domain.Destination, id string, span domain.DateSpan) []domain.Destination {
	out := make([]domain.Destination, len(dests))
	copy(out, dests)
	for i := range out {
		if out[i].ID == id {
			out[i].StartDate = span.StartDate
			out[i].EndDate = span.EndDate
		}
	}
	return out
}

func newDestination(tripID string, req InsertRequest) (domain.Destination, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Destination{}, fmt.Errorf("name is required: %w", domain.ErrInvalidInput)
	}
	if req.Category == "" {
		req.Category = domain.CategoryOther
	}
	if !req.Category.Valid() {
		return domain.Destination{}, fmt.Errorf("unknown category %q: %w", req.Category, domain.ErrInvalidInput)
	}
	if !req.Position.Valid() {
		return domain.Destination{}, fmt.Errorf("position %q: %w", req.Position, domain.ErrInvalidPosition)
	}
	start, err := timeline.ParseDate(req.Day)
	if err != nil {
		return domain.Destination{}, fmt.Errorf("day %q: %w", req.Day, errors.Join(domain.ErrInvalidInput, err))
	}
	if req.TransportToNext != nil && !req.TransportToNext.Mode.Valid() {
		return domain.Destination{}, fmt.Errorf("transport mode %q: %w", req.TransportToNext.Mode, domain.ErrInvalidInput)
	}

	d := domain.Destination{
		ID:              uuid.NewString(),
		TripID:          tripID,
		Name:            name,
		Coordinates:     req.Coordinates,
		Category:        req.Category,
		StartDate:       start.Format(timeline.DateLayout),
		TransportToNext: req.TransportToNext,
		Budget:          req.Budget,
	}
	d.EndDate = d.StartDate
	if req.Category.SpansMultipleDays() && req.EndDate != "" {
		end, err := timeline.ParseDate(req.EndDate)
		if err != nil || end.Before(start) {
			return domain.Destination{}, fmt.Errorf("end date %q: %w", req.EndDate, domain.ErrInvalidInput)
		}
		d.EndDate = end.Format(timeline.DateLayout)
	}
	return d, nil
}
