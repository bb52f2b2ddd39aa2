package rides

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/homeride/backend/internal/domain/notification"
	"github.com/homeride/backend/internal/domain/ride"
	"github.com/homeride/backend/internal/observability"
	"github.com/homeride/backend/internal/service/pricing"
	"github.com/homeride/backend/internal/service/routing"
	apperrors "github.com/homeride/backend/pkg/errors"
	"github.com/homeride/backend/pkg/logger"
)

// StopInput is a stopover as the driver typed it.
type StopInput struct {
	City  string
	Point string
}

// OfferInput describes a new ride offer. Price and StopoverPrices are the
// driver's proposals; they are reconciled against the fair bands.
type OfferInput struct {
	OriginCity       string
	Origin           string
	DestinationCity  string
	Destination      string
	Stops            []StopInput
	TravelDateTime   time.Time
	VehicleModel     string
	VehicleCapacity  int
	GenderPreference string
	Price            *float64
	StopoverPrices   []float64
	DriverNote       string
}

func (in OfferInput) validate(now time.Time) error {
	switch {
	case strings.TrimSpace(in.Origin) == "" || strings.TrimSpace(in.Destination) == "":
		return apperrors.WithDetail(apperrors.ErrInvalidOffer, "Origin and destination are required")
	case in.TravelDateTime.IsZero():
		return apperrors.WithDetail(apperrors.ErrInvalidOffer, "Travel date and time are required")
	case !in.TravelDateTime.After(now):
		return apperrors.WithDetail(apperrors.ErrInvalidOffer, "Travel date must be in the future")
	case in.VehicleCapacity < 1:
		return apperrors.WithDetail(apperrors.ErrInvalidOffer, "Vehicle capacity must be at least 1")
	}
	return nil
}

// CreateOffer publishes a ride. Pricing always uses the direct
// origin-destination distance; the routed trip through the stopovers supplies
// duration, distance, polyline and the per-segment distances.
func (s *Service) CreateOffer(ctx context.Context, requesterEmail string, in OfferInput) (*ride.Ride, error) {
	if err := in.validate(s.now()); err != nil {
		return nil, err
	}

	requester, err := s.employeeByEmail(ctx, requesterEmail)
	if err != nil {
		return nil, err
	}

	stopovers := s.stopovers(ctx, in.Stops)
	points := make([]string, len(stopovers))
	for i, st := range stopovers {
		points[i] = st.Point
	}

	directKm, directErr := s.router.DirectDistance(ctx, in.Origin, in.Destination)
	directKm, directFallback := routing.DistanceOrDefault(directKm, directErr)
	if directFallback {
		s.fellBack("direct", directErr)
	}
	info, err := s.router.Route(ctx, in.Origin, in.Destination, points)
	info, routeFallback := routing.OrDefault(info, err)
	if routeFallback {
		s.fellBack("route", err)
	}

	total := s.pricing.ReconcileTotalPrice(directKm, in.Price)
	observability.ObserveReconciliation("total", total.Accepted)

	segments := pricing.SegmentDistances(directKm, info.LegDistancesKm, len(stopovers)+1)
	segmentPrices := s.pricing.ReconcileSegmentPrices(segments, in.StopoverPrices)
	for i := range in.StopoverPrices {
		if i < len(segmentPrices) {
			observability.ObserveReconciliation("segment", segmentPrices[i] == in.StopoverPrices[i])
		}
	}

	rd := &ride.Ride{
		Requester:        *requester,
		OriginCity:       in.OriginCity,
		Origin:           in.Origin,
		DestinationCity:  in.DestinationCity,
		Destination:      in.Destination,
		Stopovers:        stopovers,
		TravelDateTime:   in.TravelDateTime,
		Status:           ride.StatusPending,
		Type:             ride.TypeOffered,
		VehicleModel:     in.VehicleModel,
		VehicleCapacity:  in.VehicleCapacity,
		GenderPreference: in.GenderPreference,
		Price:            total.FinalPrice,
		PricePerKm:       total.PricePerKm,
		StopoverPrices:   segmentPrices,
		DurationMinutes:  info.DurationMinutes,
		DistanceKm:       info.DistanceKm,
		DirectDistanceKm: directKm,
		RoutePolyline:    info.Polyline,
		DriverNote:       in.DriverNote,
		Participants:     []ride.Participant{},
	}
	if err := s.rides.Create(ctx, rd); err != nil {
		return nil, fmt.Errorf("rides.Service.CreateOffer: %w", err)
	}

	msg := fmt.Sprintf("You offered a ride from %s to %s", rd.OriginCity, rd.DestinationCity)
	s.notify(ctx, *requester, notification.TypeRideOffered, msg, rideLink(rd.ID), rd.ID)

	observability.RidesOffered.Inc()
	s.events.RecordRideOffered(rd.ID.String(), rd.Price, directKm, len(segmentPrices), directFallback || routeFallback)
	s.logger.Info("Ride offered",
		logger.RideID(rd.ID.String()),
		logger.Email(requester.Email),
		logger.Float64("direct_distance_km", directKm),
		logger.Float64("route_distance_km", info.DistanceKm),
		logger.Float64("price", rd.Price),
		logger.Bool("price_accepted", total.Accepted),
		logger.Float64s("segment_prices", segmentPrices),
	)
	return rd, nil
}

// stopovers drops blank points and geocodes the rest. Geocoding failures only
// leave the coordinates empty.
func (s *Service) stopovers(ctx context.Context, in []StopInput) []ride.Stopover {
	out := make([]ride.Stopover, 0, len(in))
	for _, st := range in {
		if strings.TrimSpace(st.Point) == "" {
			continue
		}
		stop := ride.Stopover{City: st.City, Point: st.Point}
		if s.geocoder != nil {
			loc, err := s.geocoder.Geocode(ctx, st.Point)
			if err != nil {
				s.logger.Warn("Could not geocode stopover", logger.String("point", st.Point), logger.Err(err))
			} else {
				lat, lng := loc.Lat, loc.Lng
				stop.Lat, stop.Lng = &lat, &lng
			}
		}
		out = append(out, stop)
	}
	return out
}

// TravelInfo routes origin -> stops -> destination, substituting default
// travel data when the provider fails.
func (s *Service) TravelInfo(ctx context.Context, origin, destination string, stops []string) routing.TravelInfo {
	stops = nonBlank(stops)
	info, err := s.router.Route(ctx, origin, destination, stops)
	info, fellBack := routing.OrDefault(info, err)
	if fellBack {
		s.fellBack("route", err)
	}
	return info
}

// Quote previews the price bands a driver may choose from before offering.
func (s *Service) Quote(ctx context.Context, origin, destination string, stops []string) pricing.Quote {
	stops = nonBlank(stops)
	directKm, err := s.router.DirectDistance(ctx, origin, destination)
	directKm, fellBack := routing.DistanceOrDefault(directKm, err)
	if fellBack {
		s.fellBack("direct", err)
	}
	info := s.TravelInfo(ctx, origin, destination, stops)
	return s.pricing.Quote(directKm, pricing.SegmentDistances(directKm, info.LegDistancesKm, len(stops)+1))
}

func nonBlank(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}
