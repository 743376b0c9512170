package domain

type DayStats struct {
	TotalDistance   float64 `json:"totalDistance"`   // km
	TotalTravelTime int     `json:"totalTravelTime"` // minutes
	TotalCost       float64 `json:"totalCost"`
	DrivingDistance float64 `json:"drivingDistance"` // includes public transport
	WalkingDistance float64 `json:"walkingDistance"`
	BikingDistance  float64 `json:"bikingDistance"`
}

func (s *DayStats) Add(o DayStats) {
	s.TotalDistance += o.TotalDistance
	s.TotalTravelTime += o.TotalTravelTime
	s.TotalCost += o.TotalCost
	s.DrivingDistance += o.DrivingDistance
	s.WalkingDistance += o.WalkingDistance
	s.BikingDistance += o.BikingDistance
}

// Segment is the displayed leg into a destination.
type Segment struct {
	FromID     string        `json:"fromId"`
	ToID       string        `json:"toId"`
	Mode       TransportMode `json:"mode"`
	DistanceKm float64       `json:"distanceKm"`
	Minutes    int           `json:"minutes"`
	AnchorID   string        `json:"anchorId,omitempty"` // set when a driving leg skipped local detours
}

type TimelineDay struct {
	Date         string        `json:"date"`
	Destinations []Destination `json:"destinations"`
	Segments     []Segment     `json:"segments"`
	Stats        DayStats      `json:"dayStats"`
}

// IDs returns the destination ids of the day in display order.
func (d TimelineDay) IDs() []string {
	out := make([]string, len(d.Destinations))
	for i, x := range d.Destinations {
		out[i] = x.ID
	}
	return out
}

type OverallStats struct {
	DayStats
	Days               int     `json:"days"`
	Destinations       int     `json:"destinations"`
	TotalBudget        float64 `json:"totalBudget"`
	HasReferenceBudget bool    `json:"hasReferenceBudget"`
}

type TimelineView struct {
	TripID  string        `json:"tripId"`
	Days    []TimelineDay `json:"days"`
	Overall OverallStats  `json:"overall"`
}

// Day returns the bucket for date, if present.
func (v TimelineView) Day(date string) (TimelineDay, bool) {
	for _, d := range v.Days {
		if d.Date == date {
			return d, true
		}
	}
	return TimelineDay{}, false
}

type DragPhase string

const (
	PhaseIdle     DragPhase = "IDLE"
	PhaseDragging DragPhase = "DRAGGING"
	PhaseHovering DragPhase = "HOVERING"
	PhaseDropping DragPhase = "DROPPING"
)

// DragState is the ephemeral gesture snapshot handed to the UI. DragOverIndex
// is the visual position used for highlighting; DropTargetIndex is the
// position fed to the resolver. They are never interchangeable.
type DragState struct {
	Phase            DragPhase `json:"phase"`
	DraggedItem      string    `json:"draggedItem,omitempty"`
	SourceDay        string    `json:"sourceDay,omitempty"`
	SourceIndex      int       `json:"sourceIndex"`
	DragOverDay      string    `json:"dragOverDay,omitempty"`
	DragOverIndex    *int      `json:"dragOverIndex,omitempty"`
	DropTargetIndex  *int      `json:"dropTargetIndex,omitempty"`
	IsDragging       bool      `json:"isDragging"`
	IsProcessingDrop bool      `json:"isProcessingDrop"`
	DimmedItem       string    `json:"dimmedItem,omitempty"`
}
