package travel

import "github.com/simonkochhh-source/vacation-planner-sub005/internal/domain"

// ArrivalMode is the mode a destination is reached by. Destinations without
// transport info are assumed to be reached by car.
func ArrivalMode(d domain.Destination) domain.TransportMode {
	if m := d.Mode(); m.Valid() {
		return m
	}
	return domain.Driving
}

// LegMode picks the mode governing travel from one destination to the next.
// Normally that is the arrival mode of the destination being traveled to, but
// an out-and-back side trip on foot or by bike keeps its own mode so that the
// return leg does not inherit the next stop's mode.
func LegMode(from, to domain.Destination) domain.TransportMode {
	if from.ReturnDestinationID != "" && from.Mode().IsLocal() {
		return from.Mode()
	}
	return ArrivalMode(to)
}

// DrivingAnchor returns the index of the destination a driving leg into
// day[i] is measured from. Only a run of walking or cycling stops right
// before day[i] is skipped; the search stops at the first earlier stop
// reached any other way, or at the first destination of the day.
func DrivingAnchor(day []domain.Destination, i int) (int, bool) {
	if i <= 0 || i >= len(day) {
		return 0, false
	}
	j := i - 1
	for j > 0 && ArrivalMode(day[j]).IsLocal() {
		j--
	}
	return j, true
}

// Segment builds the displayed leg into day[i]. Driving legs skip over the
// walking and cycling detours in between; a leg without usable coordinates
// comes back zeroed.
func Segment(day []domain.Destination, i int) domain.Segment {
	if i <= 0 || i >= len(day) {
		return domain.Segment{}
	}
	prev, cur := day[i-1], day[i]
	mode := LegMode(prev, cur)
	seg := domain.Segment{FromID: prev.ID, ToID: cur.ID, Mode: mode}

	from := prev
	if mode == domain.Driving {
		j, ok := DrivingAnchor(day, i)
		if !ok {
			return seg
		}
		from = day[j]
		if j != i-1 {
			seg.AnchorID = from.ID
		}
	}
	if from.Coordinates == nil || cur.Coordinates == nil {
		return seg
	}
	est := EstimateLeg(*from.Coordinates, *cur.Coordinates, mode)
	seg.DistanceKm = est.DistanceKm
	seg.Minutes = est.Minutes
	return seg
}
