package routing

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net"
	"strings"
	"time"

	"github.com/homeride/backend/pkg/logger"
	"googlemaps.github.io/maps"
)

// GoogleProvider talks to the Google Directions and Geocoding APIs.
type GoogleProvider struct {
	client  *maps.Client
	timeout time.Duration
	logger  *logger.Logger
}

// NewGoogleProvider creates a provider with the given API key.
func NewGoogleProvider(apiKey string, timeout time.Duration, log *logger.Logger) (*GoogleProvider, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &GoogleProvider{client: client, timeout: timeout, logger: log}, nil
}

// Route returns the driving route through the waypoints in order.
func (g *GoogleProvider) Route(ctx context.Context, origin, destination string, waypoints []string) (TravelInfo, error) {
	req := &maps.DirectionsRequest{
		Origin:      origin,
		Destination: destination,
		Waypoints:   waypoints,
		Mode:        maps.TravelModeDriving,
		Region:      "in",
	}

	routes, err := g.directions(ctx, req)
	if err != nil {
		return TravelInfo{}, unavailable("route", err)
	}

	route := routes[0]
	info := TravelInfo{
		Polyline:       route.OverviewPolyline.Points,
		Summary:        route.Summary,
		LegDistancesKm: make([]float64, 0, len(route.Legs)),
	}

	var meters int
	var duration time.Duration
	for _, leg := range route.Legs {
		meters += leg.Distance.Meters
		duration += leg.Duration
		info.LegDistancesKm = append(info.LegDistancesKm, metersToKm(leg.Distance.Meters))
	}
	info.DistanceKm = metersToKm(meters)
	info.DurationMinutes = int(math.Round(duration.Minutes()))

	g.logger.Debug("Route resolved",
		logger.String("origin", origin),
		logger.String("destination", destination),
		logger.Int("waypoints", len(waypoints)),
		logger.Float64("distance_km", info.DistanceKm),
		logger.Float64s("legs_km", info.LegDistancesKm),
	)

	return info, nil
}

// DirectDistance returns the driving distance ignoring any stopovers.
func (g *GoogleProvider) DirectDistance(ctx context.Context, origin, destination string) (float64, error) {
	routes, err := g.directions(ctx, &maps.DirectionsRequest{
		Origin:      origin,
		Destination: destination,
		Mode:        maps.TravelModeDriving,
		Region:      "in",
	})
	if err != nil {
		return 0, unavailable("direct distance", err)
	}

	var meters int
	for _, leg := range routes[0].Legs {
		meters += leg.Distance.Meters
	}
	return metersToKm(meters), nil
}

// Geocode resolves a free-text address to its first match.
func (g *GoogleProvider) Geocode(ctx context.Context, address string) (Location, error) {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	results, err := g.client.Geocode(ctx, &maps.GeocodingRequest{Address: address, Region: "in"})
	if err != nil {
		return Location{}, unavailable("geocode", err)
	}
	if len(results) == 0 {
		return Location{}, unavailable("geocode", ErrNoResults)
	}

	loc := results[0].Geometry.Location
	return Location{Lat: loc.Lat, Lng: loc.Lng}, nil
}

// ReverseGeocode returns the formatted address closest to loc.
func (g *GoogleProvider) ReverseGeocode(ctx context.Context, loc Location) (string, error) {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	results, err := g.client.Geocode(ctx, &maps.GeocodingRequest{
		LatLng: &maps.LatLng{Lat: loc.Lat, Lng: loc.Lng},
		Region: "in",
	})
	if err != nil {
		return "", unavailable("reverse geocode", err)
	}
	if len(results) == 0 || results[0].FormattedAddress == "" {
		return "", unavailable("reverse geocode", ErrNoResults)
	}
	return results[0].FormattedAddress, nil
}

func (g *GoogleProvider) directions(ctx context.Context, req *maps.DirectionsRequest) ([]maps.Route, error) {
	const maxAttempts = 3
	backoff := 200 * time.Millisecond

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		routes, err := g.directionsOnce(ctx, req)
		if err == nil {
			return routes, nil
		}
		lastErr = err

		if !isTransient(err) || attempt == maxAttempts {
			break
		}

		g.logger.Debug("Retrying directions request",
			logger.Int("attempt", attempt),
			logger.Err(err),
		)

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		backoff *= 2
	}

	return nil, lastErr
}

func (g *GoogleProvider) directionsOnce(ctx context.Context, req *maps.DirectionsRequest) ([]maps.Route, error) {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	routes, _, err := g.client.Directions(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("maps api error: %w", err)
	}
	if len(routes) == 0 || len(routes[0].Legs) == 0 {
		return nil, errors.New("no route found")
	}
	return routes, nil
}

func (g *GoogleProvider) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, g.timeout)
}

// isTransient reports whether a directions failure is worth retrying.
func isTransient(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "OVER_QUERY_LIMIT") || strings.Contains(msg, "UNKNOWN_ERROR")
}

func metersToKm(meters int) float64 {
	return float64(meters) / 1000.0
}
