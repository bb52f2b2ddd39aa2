// Package rides implements ride offers, search, bookings and cancellations on
// top of the matching, pricing and routing engines.
package rides

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/homeride/backend/internal/domain/employee"
	"github.com/homeride/backend/internal/domain/notification"
	"github.com/homeride/backend/internal/domain/ride"
	"github.com/homeride/backend/internal/observability"
	"github.com/homeride/backend/internal/service/matching"
	"github.com/homeride/backend/internal/service/pricing"
	"github.com/homeride/backend/internal/service/routing"
	apperrors "github.com/homeride/backend/pkg/errors"
	"github.com/homeride/backend/pkg/logger"
)

// Notifier is the part of the notification service rides need.
type Notifier interface {
	Notify(ctx context.Context, recipient employee.Employee, t notification.Type, message, link string, rideID *uuid.UUID) (*notification.Notification, error)
}

// Ratings is the part of the rating service rides need.
type Ratings interface {
	AverageRating(ctx context.Context, employeeID uuid.UUID) (*float64, error)
	DeleteForRide(ctx context.Context, rideID uuid.UUID) error
	DeleteForParticipant(ctx context.Context, rideID, employeeID uuid.UUID) error
}

// Events receives business events for APM. *monitoring.NewRelicApp satisfies it.
type Events interface {
	RecordRideOffered(rideID string, price, directKm float64, segments int, fallback bool)
	RecordRideJoined(rideID string, seats int, price float64)
	RecordRoutingFallback(call string)
}

type noopEvents struct{}

func (noopEvents) RecordRideOffered(string, float64, float64, int, bool) {}
func (noopEvents) RecordRideJoined(string, int, float64)                 {}
func (noopEvents) RecordRoutingFallback(string)                          {}

// Deps wires a Service. Geocoder, Events and Location are optional.
type Deps struct {
	Rides     ride.Repository
	Employees employee.Repository
	Ratings   Ratings
	Notifier  Notifier
	Router    routing.Provider
	Geocoder  routing.Geocoder
	Pricing   *pricing.Service
	Events    Events
	// Location is the zone search dates are compared in.
	Location *time.Location
	Logger   *logger.Logger
}

type Service struct {
	rides     ride.Repository
	employees employee.Repository
	ratings   Ratings
	notifier  Notifier
	router    routing.Provider
	geocoder  routing.Geocoder
	pricing   *pricing.Service
	events    Events
	loc       *time.Location
	logger    *logger.Logger
	now       func() time.Time
}

func NewService(d Deps) *Service {
	s := &Service{
		rides:     d.Rides,
		employees: d.Employees,
		ratings:   d.Ratings,
		notifier:  d.Notifier,
		router:    d.Router,
		geocoder:  d.Geocoder,
		pricing:   d.Pricing,
		events:    d.Events,
		loc:       d.Location,
		logger:    d.Logger,
		now:       time.Now,
	}
	if s.router == nil {
		s.router = routing.Unconfigured{}
	}
	if s.pricing == nil {
		s.pricing = pricing.NewService(pricing.DefaultConfig(), d.Logger)
	}
	if s.events == nil {
		s.events = noopEvents{}
	}
	if s.loc == nil {
		s.loc = time.Local
	}
	if s.logger == nil {
		s.logger = logger.NewNop()
	}
	s.logger = s.logger.Named("rides")
	return s
}

// PathOf lays out the ride's stops in travel order.
func PathOf(rd *ride.Ride) matching.Path {
	stops := make([]matching.RoutePoint, 0, len(rd.Stopovers))
	for _, st := range rd.Stopovers {
		stops = append(stops, matching.RoutePoint{City: st.City, Point: st.Point})
	}
	return matching.BuildPath(rd.OriginCity, rd.Origin, stops, rd.DestinationCity, rd.Destination)
}

func (s *Service) employeeByEmail(ctx context.Context, email string) (*employee.Employee, error) {
	e, err := s.employees.GetByEmail(ctx, email)
	if errors.Is(err, employee.ErrEmployeeNotFound) {
		return nil, apperrors.ErrEmployeeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("rides: load employee: %w", err)
	}
	return e, nil
}

func (s *Service) load(ctx context.Context, id uuid.UUID) (*ride.Ride, error) {
	rd, err := s.rides.GetByID(ctx, id)
	if errors.Is(err, ride.ErrRideNotFound) {
		return nil, apperrors.ErrRideNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("rides: load ride: %w", err)
	}
	return rd, nil
}

// enrich fills in each requester's average rating, looking each driver up once.
func (s *Service) enrich(ctx context.Context, list ...*ride.Ride) {
	seen := make(map[uuid.UUID]*float64)
	for _, rd := range list {
		id := rd.Requester.ID
		avg, ok := seen[id]
		if !ok {
			var err error
			avg, err = s.ratings.AverageRating(ctx, id)
			if err != nil {
				s.logger.Warn("Failed to load average rating", logger.Err(err), logger.String("employee_id", id.String()))
			}
			seen[id] = avg
		}
		rd.Requester.AverageRating = avg
	}
}

func (s *Service) notify(ctx context.Context, to employee.Employee, t notification.Type, message, link string, rideID uuid.UUID) {
	if _, err := s.notifier.Notify(ctx, to, t, message, link, &rideID); err != nil {
		s.logger.Warn("Failed to create notification",
			logger.Err(err),
			logger.String("type", string(t)),
			logger.RideID(rideID.String()),
		)
	}
}

func (s *Service) fellBack(call string, err error) {
	observability.RoutingFallbacks.WithLabelValues(call).Inc()
	s.events.RecordRoutingFallback(call)
	s.logger.Warn("Routing unavailable, using default travel data",
		logger.String("call", call),
		logger.Err(err),
	)
}

func rideLink(id uuid.UUID) string {
	return "/ride/" + id.String()
}
