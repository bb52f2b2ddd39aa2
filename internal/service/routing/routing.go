package routing

import (
	"context"
	"errors"
	"fmt"
)

// ErrProviderUnavailable is wrapped by every provider failure, including
// "no route found" answers.
var ErrProviderUnavailable = errors.New("routing provider unavailable")

var (
	ErrNoResults     = errors.New("no results")
	ErrNotConfigured = errors.New("no maps api key configured")
)

const (
	DefaultDistanceKm      = 180.0
	DefaultDurationMinutes = 200
	DefaultSummary         = "Default Route"
)

// TravelInfo is a routed trip through an ordered list of waypoints.
type TravelInfo struct {
	DistanceKm      float64   `json:"distance_km"`
	DurationMinutes int       `json:"duration_minutes"`
	Polyline        string    `json:"polyline"`
	Summary         string    `json:"summary"`
	LegDistancesKm  []float64 `json:"leg_distances_km,omitempty"`
	// Fallback marks a value substituted for a failed provider call.
	Fallback bool `json:"fallback"`
}

// DefaultTravelInfo is used whenever the provider cannot answer.
func DefaultTravelInfo() TravelInfo {
	return TravelInfo{
		DistanceKm:      DefaultDistanceKm,
		DurationMinutes: DefaultDurationMinutes,
		Summary:         DefaultSummary,
		Fallback:        true,
	}
}

// Provider computes distances between free-text locations.
type Provider interface {
	// Route follows origin -> waypoints... -> destination.
	Route(ctx context.Context, origin, destination string, waypoints []string) (TravelInfo, error)
	// DirectDistance ignores waypoints.
	DirectDistance(ctx context.Context, origin, destination string) (float64, error)
}

// Location is a geocoded coordinate.
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Geocoder resolves an address to a coordinate.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (Location, error)
}

// AddressLookup geocodes in both directions. It backs the maps proxy.
type AddressLookup interface {
	Geocoder
	ReverseGeocode(ctx context.Context, loc Location) (string, error)
}

// OrDefault returns info unless err is set, in which case the default travel
// info is substituted. The bool reports whether the fallback was used.
func OrDefault(info TravelInfo, err error) (TravelInfo, bool) {
	if err != nil {
		return DefaultTravelInfo(), true
	}
	return info, false
}

// DistanceOrDefault is OrDefault for DirectDistance results. A zero distance
// from a successful call is kept; pricing floors handle it.
func DistanceOrDefault(km float64, err error) (float64, bool) {
	if err != nil {
		return DefaultDistanceKm, true
	}
	return km, false
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrProviderUnavailable, err)
}

// Unconfigured is a Provider used when no maps credentials are set. Every
// call fails with ErrProviderUnavailable so callers fall back to defaults.
type Unconfigured struct{}

func (Unconfigured) Route(context.Context, string, string, []string) (TravelInfo, error) {
	return TravelInfo{}, unavailable("route", ErrNotConfigured)
}

func (Unconfigured) DirectDistance(context.Context, string, string) (float64, error) {
	return 0, unavailable("direct distance", ErrNotConfigured)
}

func (Unconfigured) Geocode(context.Context, string) (Location, error) {
	return Location{}, unavailable("geocode", ErrNotConfigured)
}

func (Unconfigured) ReverseGeocode(context.Context, Location) (string, error) {
	return "", unavailable("reverse geocode", ErrNotConfigured)
}
