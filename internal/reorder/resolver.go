// Package reorder translates day-relative positions into positions in a
// trip's flat destination order.
package reorder

import (
	"fmt"

	"github.com/simonkochhh-source/vacation-planner-sub005/internal/domain"
	"github.com/simonkochhh-source/vacation-planner-sub005/internal/timeline"
)

// Move describes a drop. TargetIndex is the resolution index: a slot in the
// target day counted with the dragged destination still in place.
type Move struct {
	ID          string
	SourceDay   string // day bucket the drag started from; defaults to the start date
	TargetDay   string
	TargetIndex int
}

type Result struct {
	Order         []string // always a fresh slice
	OriginalIndex int
	InsertIndex   int
	SourceDay     string
	CrossDay      bool
	OrderChanged  bool
	DatesChanged  bool
	Dates         domain.DateSpan
}

// Changed reports whether anything needs to be applied or persisted.
func (r Result) Changed() bool { return r.OrderChanged || r.DatesChanged }

// Run is the set of positions in an order whose destinations are shown on one day.
type Run struct {
	Start   int
	Length  int
	Members []int
	// Fallback is where a destination goes when the day has no members yet.
	Fallback int
}

// Slot maps a day-relative index onto a flat-order index. The index is
// clamped to [0, Length].
func (r Run) Slot(i int) int {
	if r.Length == 0 {
		return r.Fallback
	}
	if i < 0 {
		i = 0
	}
	if i > r.Length {
		i = r.Length
	}
	if i == r.Length {
		return r.Members[r.Length-1] + 1
	}
	return r.Members[i]
}

// DayRun scans order for destinations shown on day. For a contiguous day the
// result is the usual run start and length.
func DayRun(order []string, byID map[string]domain.Destination, day string) Run {
	run := Run{Start: -1, Fallback: len(order)}
	fallbackSet := false
	for i, id := range order {
		d, ok := byID[id]
		if !ok {
			continue
		}
		if timeline.OnDate(d, day) {
			if run.Start < 0 {
				run.Start = i
			}
			run.Members = append(run.Members, i)
			continue
		}
		if !fallbackSet && d.StartDate != "" && timeline.NormalizeDate(d.StartDate) > day {
			run.Fallback = i
			fallbackSet = true
		}
	}
	run.Length = len(run.Members)
	if run.Start < 0 {
		run.Start = run.Fallback
	}
	return run
}

// Resolve computes the flat order after dropping mv.ID onto mv.TargetDay at
// mv.TargetIndex, along with the dragged destination's new dates.
func Resolve(order []string, dests []domain.Destination, mv Move) (Result, error) {
	byID := ByID(dests)
	dragged, ok := byID[mv.ID]
	orig := indexOf(order, mv.ID)
	if !ok || orig < 0 {
		return Result{}, fmt.Errorf("resolve drop of %q: %w", mv.ID, domain.ErrDestinationNotFound)
	}

	targetDay := timeline.NormalizeDate(mv.TargetDay)
	sourceDay := mv.SourceDay
	if sourceDay == "" {
		sourceDay = dragged.StartDate
	}
	sourceDay = timeline.NormalizeDate(sourceDay)

	res := Result{OriginalIndex: orig, SourceDay: sourceDay, CrossDay: sourceDay != targetDay, Dates: dragged.Span()}

	// position of the dragged destination among its day's siblings, before removal
	srcPos, inSource := 0, false
	for _, i := range DayRun(order, byID, sourceDay).Members {
		if i == orig {
			inSource = true
			break
		}
		srcPos++
	}

	working := Remove(order, orig)
	run := DayRun(working, byID, targetDay)

	adjusted := mv.TargetIndex
	if !res.CrossDay && adjusted > srcPos {
		adjusted-- // removal already closed the gap
	}
	adjusted = clamp(adjusted, 0, run.Length)
	res.InsertIndex = run.Slot(adjusted)

	if res.InsertIndex == orig || (!res.CrossDay && inSource && adjusted == srcPos) {
		res.InsertIndex = orig
		res.Order = append([]string(nil), order...)
	} else {
		res.Order = Insert(working, mv.ID, res.InsertIndex)
		res.OrderChanged = true
	}

	if res.CrossDay {
		span := domain.DateSpan{StartDate: targetDay, EndDate: targetDay}
		if dragged.Category.SpansMultipleDays() {
			span.EndDate = dragged.EndDate
		}
		res.DatesChanged = span != dragged.Span()
		res.Dates = span
	}
	return res, nil
}

// InsertIndex finds where a new destination created relative to an existing
// one on day belongs in the flat order. anchor is the day-relative index of
// the existing destination and is ignored for InsertInitial.
func InsertIndex(order []string, dests []domain.Destination, day string, pos domain.InsertPosition, anchor int) (int, error) {
	run := DayRun(order, ByID(dests), timeline.NormalizeDate(day))
	switch pos {
	case domain.InsertInitial:
		return run.Slot(run.Length), nil
	case domain.InsertBefore, domain.InsertAfter:
		if run.Length > 0 && (anchor < 0 || anchor >= run.Length) {
			return 0, fmt.Errorf("anchor %d outside day %s of %d: %w", anchor, day, run.Length, domain.ErrInvalidPosition)
		}
		if pos == domain.InsertAfter {
			anchor++
		}
		return run.Slot(anchor), nil
	}
	return 0, fmt.Errorf("position %q: %w", pos, domain.ErrInvalidPosition)
}

// Insert returns a new order with id placed at i (clamped to the order bounds).
func Insert(order []string, id string, i int) []string {
	if i < 0 {
		i = 0
	}
	if i > len(order) {
		i = len(order)
	}
	out := make([]string, 0, len(order)+1)
	out = append(out, order[:i]...)
	out = append(out, id)
	return append(out, order[i:]...)
}

// Remove returns a new order without the element at i.
func Remove(order []string, i int) []string {
	out := make([]string, 0, len(order))
	out = append(out, order[:i]...)
	return append(out, order[i+1:]...)
}

func ByID(dests []domain.Destination) map[string]domain.Destination {
	m := make(map[string]domain.Destination, len(dests))
	for _, d := range dests {
		m[d.ID] = d
	}
	return m
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func indexOf(order []string, id string) int {
	for i, x := range order {
		if x == id {
			return i
		}
	}
	return -1
}
