// Package timeline derives day buckets and travel statistics from a trip's
// flat destination order.
package timeline

import (
	"sort"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/simonkochhh-source/vacation-planner-sub005/internal/domain"
)

// DateBuckets returns the dates a destination is shown on. A nil result means
// the destination cannot be placed on any day. Malformed dates are logged.
func DateBuckets(d domain.Destination) []string { return dateBuckets(d, log.Logger) }

func dateBuckets(d domain.Destination, l zerolog.Logger) []string {
	if d.StartDate == "" {
		l.Warn().Str("destination", d.ID).Msg("destination has no start date; skipped from timeline")
		return nil
	}
	start := NormalizeDate(d.StartDate)
	if !d.Category.SpansMultipleDays() || d.EndDate == "" || d.EndDate == d.StartDate {
		return []string{start}
	}

	from, err := ParseDate(d.StartDate)
	if err != nil {
		l.Warn().Str("destination", d.ID).Str("start", d.StartDate).Err(err).Msg("unparsable start date")
		return []string{start}
	}
	to, err := ParseDate(d.EndDate)
	if err != nil {
		l.Warn().Str("destination", d.ID).Str("end", d.EndDate).Err(err).Msg("unparsable end date; using start date only")
		return []string{start}
	}
	if to.Before(from) {
		l.Warn().
			Str("destination", d.ID).
			Str("start", d.StartDate).
			Str("end", d.EndDate).
			Msg("end date before start date; using start date only")
		return []string{start}
	}
	return DateRange(from, to)
}

// OnDate reports whether d is shown on date.
func OnDate(d domain.Destination, date string) bool {
	for _, b := range dateBuckets(d, zerolog.Nop()) {
		if b == date {
			return true
		}
	}
	return false
}

// IndexOf maps each id in order to its position.
func IndexOf(order []string) map[string]int {
	idx := make(map[string]int, len(order))
	for i, id := range order {
		if _, dup := idx[id]; !dup {
			idx[id] = i
		}
	}
	return idx
}

// Group buckets destinations by date. Within a day, destinations keep their
// relative position in the trip's flat order; per-destination times play no
// part. Days are sorted ascending.
func Group(trip domain.Trip, dests []domain.Destination) []domain.TimelineDay {
	pos := IndexOf(trip.Destinations)
	buckets := map[string][]domain.Destination{}
	seen := map[string]map[string]bool{}

	for _, d := range dests {
		for _, date := range DateBuckets(d) {
			if seen[date] == nil {
				seen[date] = map[string]bool{}
			}
			if seen[date][d.ID] {
				continue
			}
			seen[date][d.ID] = true
			buckets[date] = append(buckets[date], d)
		}
	}

	days := make([]domain.TimelineDay, 0, len(buckets))
	for date, ds := range buckets {
		sort.SliceStable(ds, func(i, j int) bool { return less(pos, ds[i].ID, ds[j].ID) })
		days = append(days, domain.TimelineDay{Date: date, Destinations: ds})
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date < days[j].Date })
	return days
}

// less orders by flat index; ids missing from the order go last, by id.
func less(pos map[string]int, a, b string) bool {
	pa, okA := pos[a]
	pb, okB := pos[b]
	switch {
	case okA && okB:
		return pa < pb
	case okA != okB:
		return okA
	}
	return a < b
}
