package domain

import "strings"

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type Category string

const (
	CategoryHotel      Category = "HOTEL"
	CategoryAttraction Category = "ATTRACTION"
	CategoryRestaurant Category = "RESTAURANT"
	CategoryActivity   Category = "ACTIVITY"
	CategoryTransport  Category = "TRANSPORT"
	CategoryOther      Category = "OTHER"
)

// multiDay lists the categories that may occupy more than one day bucket.
var multiDay = map[Category]bool{
	CategoryHotel: true,
}

// SpansMultipleDays reports whether a destination of this category is shown
// on every date between its start and end date.
func (c Category) SpansMultipleDays() bool { return multiDay[c] }

func (c Category) Valid() bool {
	switch c {
	case CategoryHotel, CategoryAttraction, CategoryRestaurant, CategoryActivity, CategoryTransport, CategoryOther:
		return true
	}
	return false
}

type TransportMode string

const (
	Driving         TransportMode = "DRIVING"
	Walking         TransportMode = "WALKING"
	Bicycle         TransportMode = "BICYCLE"
	PublicTransport TransportMode = "PUBLIC_TRANSPORT"
)

func (m TransportMode) Valid() bool {
	switch m {
	case Driving, Walking, Bicycle, PublicTransport:
		return true
	}
	return false
}

// IsCostRelevant is true for modes that produce a travel cost.
func (m TransportMode) IsCostRelevant() bool { return m == Driving || m == PublicTransport }

// IsLocal is true for foot and bike legs.
func (m TransportMode) IsLocal() bool { return m == Walking || m == Bicycle }

// ParseTransportMode accepts mode names case-insensitively ("walking", "Public_Transport").
func ParseTransportMode(s string) (TransportMode, bool) {
	m := TransportMode(strings.ToUpper(strings.TrimSpace(s)))
	return m, m.Valid()
}

type TransportToNext struct {
	Mode     TransportMode `json:"mode"`
	Duration *int          `json:"duration,omitempty"` // minutes
	Distance *float64      `json:"distance,omitempty"` // km
}

// ReturnHome is the ReturnDestinationID sentinel for side trips that end at home.
const ReturnHome = "home"

type Destination struct {
	ID                  string           `json:"id"`
	TripID              string           `json:"tripId"`
	Name                string           `json:"name"`
	Coordinates         *Coordinates     `json:"coordinates,omitempty"`
	Category            Category         `json:"category"`
	StartDate           string           `json:"startDate"` // YYYY-MM-DD
	EndDate             string           `json:"endDate"`
	TransportToNext     *TransportToNext `json:"transportToNext,omitempty"`
	ReturnDestinationID string           `json:"returnDestinationId,omitempty"`
	ActualCost          *float64         `json:"actualCost,omitempty"`
	Budget              *float64         `json:"budget,omitempty"` // planned figure, used when ActualCost is unknown
}

// Mode returns the transport mode recorded on the destination, or "" when none is set.
func (d Destination) Mode() TransportMode {
	if d.TransportToNext == nil {
		return ""
	}
	return d.TransportToNext.Mode
}

type DateSpan struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

func (d Destination) Span() DateSpan { return DateSpan{StartDate: d.StartDate, EndDate: d.EndDate} }
