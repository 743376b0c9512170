package domain

type VehicleConfig struct {
	FuelConsumption float64 `json:"fuelConsumption"` // litres per 100 km
	FuelPrice       float64 `json:"fuelPrice"`       // per litre
}

type Trip struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	// Destinations is the flat order of destination ids. Day grouping is
	// always derived from it and never stored.
	Destinations  []string       `json:"destinations"`
	VehicleConfig *VehicleConfig `json:"vehicleConfig,omitempty"`
}

// WithOrder returns a copy of t that uses order as its flat order.
func (t Trip) WithOrder(order []string) Trip {
	t.Destinations = append([]string(nil), order...)
	return t
}
