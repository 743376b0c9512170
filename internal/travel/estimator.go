// Package travel estimates leg distance and duration from coordinates.
//
// Distances are great-circle distances inflated per transport mode; no
// routing engine is consulted.
package travel

import (
	"math"

	"github.com/simonkochhh-source/vacation-planner-sub005/internal/domain"
)

const EarthRadiusKm = 6371.0

type Estimate struct {
	BaseKm     float64 `json:"baseKm"`     // straight-line distance
	DistanceKm float64 `json:"distanceKm"` // inflated by mode
	Minutes    int     `json:"minutes"`
}

type profile struct {
	inflation  float64
	minMinutes int
	speed      func(baseKm float64) float64 // km/h
}

var profiles = map[domain.TransportMode]profile{
	domain.Driving: {inflation: 1.4, minMinutes: 10, speed: func(km float64) float64 {
		switch {
		case km < 5:
			return 30
		case km < 50:
			return 60
		case km < 200:
			return 80
		}
		return 90
	}},
	domain.Walking: {inflation: 1.2, minMinutes: 5, speed: func(float64) float64 { return 4.5 }},
	domain.Bicycle: {inflation: 1.3, minMinutes: 10, speed: func(km float64) float64 {
		switch {
		case km < 5:
			return 12
		case km < 20:
			return 15
		}
		return 18
	}},
	domain.PublicTransport: {inflation: 1.6, minMinutes: 10, speed: func(km float64) float64 {
		switch {
		case km < 10:
			return 20
		case km < 50:
			return 35
		}
		return 50
	}},
}

// HaversineKm returns the great-circle distance between a and b in kilometers.
func HaversineKm(a, b domain.Coordinates) float64 {
	dLat := degToRad(b.Lat - a.Lat)
	dLng := degToRad(b.Lng - a.Lng)

	sinLat := math.Sin(dLat / 2)
	sinLng := math.Sin(dLng / 2)

	h := sinLat*sinLat + math.Cos(degToRad(a.Lat))*math.Cos(degToRad(b.Lat))*sinLng*sinLng
	return 2 * EarthRadiusKm * math.Asin(math.Sqrt(h))
}

// EstimateLeg returns the inflated distance and travel time from one point to
// another. Unknown modes are treated as driving.
func EstimateLeg(from, to domain.Coordinates, mode domain.TransportMode) Estimate {
	return EstimateKm(HaversineKm(from, to), mode)
}

// EstimateKm applies the mode profile to an already known straight-line distance.
func EstimateKm(baseKm float64, mode domain.TransportMode) Estimate {
	p, ok := profiles[mode]
	if !ok {
		p = profiles[domain.Driving]
	}
	dist := baseKm * p.inflation
	minutes := int(math.Round(dist / p.speed(baseKm) * 60))
	if minutes < p.minMinutes {
		minutes = p.minMinutes
	}
	return Estimate{BaseKm: baseKm, DistanceKm: dist, Minutes: minutes}
}

func degToRad(deg float64) float64 { return deg * (math.Pi / 180.0) }
