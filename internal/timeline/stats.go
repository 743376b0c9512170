package timeline

import (
	"github.com/simonkochhh-source/vacation-planner-sub005/internal/domain"
	"github.com/simonkochhh-source/vacation-planner-sub005/internal/travel"
)

// DefaultCostPerKm is charged for cost-relevant legs when a trip has no vehicle config.
const DefaultCostPerKm = 0.3

// Aggregator computes day and trip statistics. Everything is recomputed from
// scratch on each call.
type Aggregator struct {
	FallbackCostPerKm float64
}

func NewAggregator(fallbackCostPerKm float64) Aggregator {
	if fallbackCostPerKm <= 0 {
		fallbackCostPerKm = DefaultCostPerKm
	}
	return Aggregator{FallbackCostPerKm: fallbackCostPerKm}
}

// Build groups the trip into days and attaches segments and statistics.
func (a Aggregator) Build(trip domain.Trip, dests []domain.Destination) domain.TimelineView {
	days := Group(trip, dests)
	view := domain.TimelineView{TripID: trip.ID, Days: days}
	for i := range days {
		days[i].Segments = segments(days[i].Destinations)
		days[i].Stats = a.DayStats(trip, days[i].Destinations)
	}
	view.Overall = a.Overall(days, dests)
	return view
}

// DayStats walks consecutive pairs of a day and accumulates distance, time and cost.
func (a Aggregator) DayStats(trip domain.Trip, day []domain.Destination) domain.DayStats {
	var s domain.DayStats
	for i := 1; i < len(day); i++ {
		prev, cur := day[i-1], day[i]
		if prev.Coordinates == nil || cur.Coordinates == nil {
			continue
		}
		mode := travel.LegMode(prev, cur)
		est := travel.EstimateLeg(*prev.Coordinates, *cur.Coordinates, mode)
		s.TotalDistance += est.DistanceKm
		s.TotalTravelTime += est.Minutes

		switch mode {
		case domain.Walking:
			s.WalkingDistance += est.DistanceKm
		case domain.Bicycle:
			s.BikingDistance += est.DistanceKm
		default:
			s.DrivingDistance += est.DistanceKm
		}
		if mode.IsCostRelevant() {
			s.TotalCost += a.Cost(trip.VehicleConfig, est.DistanceKm)
		}
	}
	return s
}

// Cost prices a cost-relevant leg of km kilometers.
func (a Aggregator) Cost(vc *domain.VehicleConfig, km float64) float64 {
	if vc != nil {
		return km / 100 * vc.FuelConsumption * vc.FuelPrice
	}
	return km * a.FallbackCostPerKm
}

// Overall sums day statistics and rolls up destination budgets. A destination
// that spans several days is counted once.
func (a Aggregator) Overall(days []domain.TimelineDay, dests []domain.Destination) domain.OverallStats {
	o := domain.OverallStats{Days: len(days)}
	for _, d := range days {
		o.DayStats.Add(d.Stats)
	}

	placed := map[string]bool{}
	for _, d := range days {
		for _, x := range d.Destinations {
			placed[x.ID] = true
		}
	}
	o.Destinations = len(placed)

	for _, d := range dests {
		switch {
		case d.ActualCost != nil:
			o.TotalBudget += *d.ActualCost
		case d.Budget != nil:
			o.TotalBudget += *d.Budget
			o.HasReferenceBudget = true
		}
	}
	return o
}

func segments(day []domain.Destination) []domain.Segment {
	if len(day) < 2 {
		return []domain.Segment{}
	}
	out := make([]domain.Segment, 0, len(day)-1)
	for i := 1; i < len(day); i++ {
		out = append(out, travel.Segment(day, i))
	}
	return out
}
