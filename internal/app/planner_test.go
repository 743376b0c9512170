package app_test

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/simonkochhh-source/vacation-planner-sub005/internal/app"
	"github.com/simonkochhh-source/vacation-planner-sub005/internal/domain"
	"github.com/simonkochhh-source/vacation-planner-sub005/internal/dragdrop"
	"github.com/simonkochhh-source/vacation-planner-sub005/internal/timeline"
)

type plannerRig struct {
	planner *app.Planner
	repo    *fakeRepo
	gw      *fakeGateway
	cache   *fakeCache
}

func newRig(t *testing.T, opts app.Options) *plannerRig {
	t.Helper()
	trip, dests := sampleTrip()
	r := &plannerRig{repo: newFakeRepo(trip, dests...), gw: &fakeGateway{}, cache: &fakeCache{}}
	agg := timeline.NewAggregator(0)
	views := app.NewTimelineService(r.repo, r.cache, time.Minute, agg)
	r.planner = app.NewPlanner(r.repo, app.NewDispatcher(r.gw, 2, 16, time.Second), views, agg, opts)
	return r
}

// drain waits for background persistence and returns what reached the gateway.
func (r *plannerRig) drain(t *testing.T) []gatewayCall {
	t.Helper()
	if err := r.planner.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	return r.gw.snapshot()
}

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met in time")
}

func TestPlanner_CrossDayDropViaHover(t *testing.T) {
	r := newRig(t, app.Options{})
	ctx := context.Background()

	st, err := r.planner.BeginDrag(ctx, "t1", "A", "")
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if st.Phase != domain.PhaseDragging || st.SourceDay != day1 || st.SourceIndex != 0 || st.DimmedItem != "A" {
		t.Fatalf("unexpected drag state: %+v", st)
	}
	st, err = r.planner.Hover(ctx, "t1", day2, 1)
	if err != nil {
		t.Fatalf("hover: %v", err)
	}
	if st.Phase != domain.PhaseHovering || *st.DragOverIndex != 1 || *st.DropTargetIndex != 1 {
		t.Fatalf("unexpected hover state: %+v", st)
	}

	res, err := r.planner.Drop(ctx, "t1", "", -1)
	if err != nil {
		t.Fatalf("drop: %v", err)
	}
	if !res.Moved || !res.DatesChanged || res.Drag.Phase != domain.PhaseIdle {
		t.Fatalf("unexpected drop result: %+v", res)
	}
	d2, ok := res.View.Day(day2)
	if !ok || !reflect.DeepEqual(d2.IDs(), []string{"C", "A"}) {
		t.Fatalf("day2 = %v", d2.IDs())
	}
	if !r.cache.has("timeline:t1") {
		t.Fatalf("view not published to the cache")
	}

	calls := r.drain(t)
	if len(calls) != 2 {
		t.Fatalf("gateway calls = %+v", calls)
	}
	if calls[0].op != "reorder" || !reflect.DeepEqual(calls[0].order, []string{"B", "C", "A"}) {
		t.Fatalf("reorder call = %+v", calls[0])
	}
	if calls[1].op != "dates" || calls[1].id != "A" || calls[1].span != (domain.DateSpan{StartDate: day2, EndDate: day2}) {
		t.Fatalf("dates call = %+v", calls[1])
	}
}

func TestPlanner_DropInPlaceIsNoop(t *testing.T) {
	r := newRig(t, app.Options{})
	ctx := context.Background()

	if _, err := r.planner.BeginDrag(ctx, "t1", "B", day1); err != nil {
		t.Fatalf("begin: %v", err)
	}
	res, err := r.planner.Drop(ctx, "t1", "", -1)
	if err != nil {
		t.Fatalf("drop: %v", err)
	}
	if res.Moved || res.DatesChanged {
		t.Fatalf("expected no-op, got %+v", res)
	}
	if calls := r.drain(t); len(calls) != 0 {
		t.Fatalf("no-op reached the gateway: %+v", calls)
	}
}

func TestPlanner_IntraDayUsesResolutionIndex(t *testing.T) {
	r := newRig(t, app.Options{})
	ctx := context.Background()

	_, _ = r.planner.BeginDrag(ctx, "t1", "A", day1)
	// Visual slot 1 with A hidden is after B.
	st, _ := r.planner.Hover(ctx, "t1", day1, 1)
	if *st.DropTargetIndex != 2 {
		t.Fatalf("target = %d, want 2", *st.DropTargetIndex)
	}
	res, err := r.planner.Drop(ctx, "t1", "", -1)
	if err != nil {
		t.Fatalf("drop: %v", err)
	}
	d1, _ := res.View.Day(day1)
	if !reflect.DeepEqual(d1.IDs(), []string{"B", "A"}) || res.DatesChanged {
		t.Fatalf("day1 = %v, result %+v", d1.IDs(), res)
	}
}

func TestPlanner_DropWithoutDrag(t *testing.T) {
	r := newRig(t, app.Options{})
	_, err := r.planner.Drop(context.Background(), "t1", day1, 0)
	if !errors.Is(err, domain.ErrNotDragging) {
		t.Fatalf("err = %v, want ErrNotDragging", err)
	}
}

func TestPlanner_UnknownTripAndDestination(t *testing.T) {
	r := newRig(t, app.Options{})
	ctx := context.Background()

	if _, err := r.planner.BeginDrag(ctx, "nope", "A", ""); !errors.Is(err, domain.ErrTripNotFound) {
		t.Fatalf("err = %v, want trip not found", err)
	}
	if _, err := r.planner.BeginDrag(ctx, "t1", "Z", ""); !errors.Is(err, domain.ErrDestinationNotFound) {
		t.Fatalf("err = %v, want destination not found", err)
	}
	if _, err := r.planner.BeginDrag(ctx, "t1", "A", day2); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("err = %v, want invalid input", err)
	}
}

func TestPlanner_CancelResetsDrag(t *testing.T) {
	r := newRig(t, app.Options{})
	ctx := context.Background()

	_, _ = r.planner.BeginDrag(ctx, "t1", "A", "")
	st, err := r.planner.Cancel(ctx, "t1", dragdrop.ReasonEscape)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if st.Phase != domain.PhaseIdle || st.IsDragging || st.DimmedItem != "" {
		t.Fatalf("drag not reset: %+v", st)
	}
	if _, err := r.planner.Hover(ctx, "t1", day1, 0); !errors.Is(err, domain.ErrNotDragging) {
		t.Fatalf("hover after cancel: %v", err)
	}
}

func TestPlanner_WatchdogResetsAbandonedDrag(t *testing.T) {
	r := newRig(t, app.Options{Watchdog: 20 * time.Millisecond})
	ctx := context.Background()

	if _, err := r.planner.BeginDrag(ctx, "t1", "A", ""); err != nil {
		t.Fatalf("begin: %v", err)
	}
	eventually(t, func() bool {
		st, _ := r.planner.DragState(ctx, "t1")
		return st.Phase == domain.PhaseIdle
	})
}

func TestPlanner_FinishedDragOutlivesWatchdog(t *testing.T) {
	r := newRig(t, app.Options{Watchdog: 20 * time.Millisecond})
	ctx := context.Background()

	_, _ = r.planner.BeginDrag(ctx, "t1", "A", "")
	_, _ = r.planner.Drop(ctx, "t1", day2, 0)
	_, _ = r.planner.BeginDrag(ctx, "t1", "B", "")
	// The first drag's timer was stopped; the second one gets its own.
	st, _ := r.planner.DragState(ctx, "t1")
	if st.DraggedItem != "B" {
		t.Fatalf("state = %+v", st)
	}
}

func TestPlanner_ThrottledHoverFlushesOnNextFrame(t *testing.T) {
	r := newRig(t, app.Options{Frame: 30 * time.Millisecond, Watchdog: time.Minute})
	ctx := context.Background()

	_, _ = r.planner.BeginDrag(ctx, "t1", "A", "")
	if _, err := r.planner.Hover(ctx, "t1", day2, 0); err != nil {
		t.Fatalf("hover: %v", err)
	}
	st, _ := r.planner.Hover(ctx, "t1", day2, 1)
	if *st.DragOverIndex != 0 {
		t.Fatalf("second hover applied inside the frame: %+v", st)
	}
	eventually(t, func() bool {
		st, _ := r.planner.DragState(ctx, "t1")
		return st.DragOverIndex != nil && *st.DragOverIndex == 1
	})
}

func TestPlanner_InsertDestination(t *testing.T) {
	r := newRig(t, app.Options{})
	ctx := context.Background()

	d, view, err := r.planner.InsertDestination(ctx, "t1", app.InsertRequest{
		Name:        "Museum",
		Category:    domain.CategoryAttraction,
		Day:         day1,
		Position:    domain.InsertAfter,
		AnchorIndex: 0,
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if d.ID == "" || d.StartDate != day1 || d.EndDate != day1 {
		t.Fatalf("unexpected destination: %+v", d)
	}
	d1, _ := view.Day(day1)
	if !reflect.DeepEqual(d1.IDs(), []string{"A", d.ID, "B"}) {
		t.Fatalf("day1 = %v", d1.IDs())
	}
	d2, _ := view.Day(day2)
	if !reflect.DeepEqual(d2.IDs(), []string{"C"}) {
		t.Fatalf("day2 disturbed: %v", d2.IDs())
	}

	calls := r.drain(t)
	if len(calls) != 1 || !reflect.DeepEqual(calls[0].order, []string{"A", d.ID, "B", "C"}) {
		t.Fatalf("gateway calls = %+v", calls)
	}
	if len(r.repo.created) != 1 {
		t.Fatalf("repo created = %d", len(r.repo.created))
	}
}

func TestPlanner_InsertIntoEmptyDay(t *testing.T) {
	r := newRig(t, app.Options{})
	ctx := context.Background()

	d, _, err := r.planner.InsertDestination(ctx, "t1", app.InsertRequest{
		Name:     "Hut",
		Category: domain.CategoryHotel,
		Day:      "2025-06-30",
		EndDate:  day1,
		Position: domain.InsertInitial,
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if d.EndDate != day1 {
		t.Fatalf("hotel end date = %s", d.EndDate)
	}
	calls := r.drain(t)
	if len(calls) != 1 || calls[0].order[0] != d.ID {
		t.Fatalf("new first day not placed first: %+v", calls)
	}
}

func TestPlanner_InsertRejectsBadInput(t *testing.T) {
	r := newRig(t, app.Options{})
	ctx := context.Background()

	cases := []struct {
		name string
		req  app.InsertRequest
		want error
	}{
		{"no name", app.InsertRequest{Day: day1, Position: domain.InsertInitial}, domain.ErrInvalidInput},
		{"bad day", app.InsertRequest{Name: "x", Day: "someday", Position: domain.InsertInitial}, domain.ErrInvalidInput},
		{"bad position", app.InsertRequest{Name: "x", Day: day1, Position: "middle"}, domain.ErrInvalidPosition},
		{"anchor out of range", app.InsertRequest{Name: "x", Day: day1, Position: domain.InsertBefore, AnchorIndex: 5}, domain.ErrInvalidPosition},
		{"bad category", app.InsertRequest{Name: "x", Day: day1, Category: "CASTLE", Position: domain.InsertInitial}, domain.ErrInvalidInput},
	}
	for _, c := range cases {
		if _, _, err := r.planner.InsertDestination(ctx, "t1", c.req); !errors.Is(err, c.want) {
			t.Fatalf("%s: err = %v, want %v", c.name, err, c.want)
		}
	}
	if len(r.repo.created) != 0 {
		t.Fatalf("invalid requests reached the repo")
	}
}

func TestPlanner_InsertRepoFailureLeavesOrder(t *testing.T) {
	r := newRig(t, app.Options{})
	r.repo.createErr = errors.New("db down")
	ctx := context.Background()

	_, _, err := r.planner.InsertDestination(ctx, "t1", app.InsertRequest{Name: "x", Day: day1, Position: domain.InsertInitial})
	if err == nil {
		t.Fatalf("expected error")
	}
	v, _ := r.planner.Timeline(ctx, "t1")
	if v.Overall.Destinations != 3 {
		t.Fatalf("destinations = %d, want 3", v.Overall.Destinations)
	}
}

func TestPlanner_InsertDoesNotBlockGesturesDuringCreate(t *testing.T) {
	r := newRig(t, app.Options{})
	r.repo.createStarted = make(chan struct{})
	r.repo.createRelease = make(chan struct{})
	ctx := context.Background()

	type inserted struct {
		d   domain.Destination
		err error
	}
	done := make(chan inserted, 1)
	go func() {
		d, _, err := r.planner.InsertDestination(ctx, "t1", app.InsertRequest{
			Name: "Cafe", Day: day1, Position: domain.InsertAfter, AnchorIndex: 0,
		})
		done <- inserted{d, err}
	}()
	<-r.repo.createStarted

	// The row is still being written; a gesture on the same trip goes through.
	moved := make(chan error, 1)
	go func() {
		if _, err := r.planner.BeginDrag(ctx, "t1", "B", ""); err != nil {
			moved <- err
			return
		}
		_, err := r.planner.Drop(ctx, "t1", day1, 0)
		moved <- err
	}()
	select {
	case err := <-moved:
		if err != nil {
			t.Fatalf("drag during create: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("drag blocked behind destination create")
	}

	close(r.repo.createRelease)
	res := <-done
	if res.err != nil {
		t.Fatalf("insert: %v", res.err)
	}
	// The anchor is resolved again against the order B, A.
	v, _ := r.planner.Timeline(ctx, "t1")
	d1, _ := v.Day(day1)
	if !reflect.DeepEqual(d1.IDs(), []string{"B", res.d.ID, "A"}) {
		t.Fatalf("day1 = %v", d1.IDs())
	}
	if cached := r.cache.view("timeline:t1"); len(cached.Days) == 0 || cached.Overall.Destinations != 4 {
		t.Fatalf("cache holds an older view: %+v", cached.Overall)
	}
}

func TestPlanner_TimelineWithoutSessionUsesService(t *testing.T) {
	r := newRig(t, app.Options{})
	v, err := r.planner.Timeline(context.Background(), "t1")
	if err != nil {
		t.Fatalf("timeline: %v", err)
	}
	if len(v.Days) != 2 || !r.cache.has("timeline:t1") {
		t.Fatalf("unexpected view %+v", v)
	}
}
