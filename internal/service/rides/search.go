package rides

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/homeride/backend/internal/domain/ride"
	"github.com/homeride/backend/internal/service/matching"
	"github.com/homeride/backend/pkg/logger"
)

// dateLayout is the format of SearchFilter.Date.
const dateLayout = "2006-01-02"

// SearchFilter narrows the list of offered rides. Zero values disable a filter.
type SearchFilter struct {
	Origin         string
	Destination    string
	Date           string
	PassengerCount int
}

// Search returns future offered rides that satisfy every active filter.
func (s *Service) Search(ctx context.Context, f SearchFilter) ([]*ride.Ride, error) {
	candidates, err := s.rides.ListOfferedAfter(ctx, s.now())
	if err != nil {
		return nil, fmt.Errorf("rides.Service.Search: %w", err)
	}

	var day string
	if d := strings.TrimSpace(f.Date); d != "" {
		if _, err := time.ParseInLocation(dateLayout, d, s.loc); err != nil {
			s.logger.Warn("Invalid date format during search", logger.String("date", d))
		} else {
			day = d
		}
	}
	journey := strings.TrimSpace(f.Origin) != "" && strings.TrimSpace(f.Destination) != ""

	out := make([]*ride.Ride, 0, len(candidates))
	for _, rd := range candidates {
		if day != "" && rd.TravelDateTime.In(s.loc).Format(dateLayout) != day {
			continue
		}
		if f.PassengerCount > 0 && rd.AvailableSeats() < f.PassengerCount {
			continue
		}
		if journey && !matching.CanAccommodateJourney(PathOf(rd), f.Origin, f.Destination) {
			continue
		}
		out = append(out, rd)
	}

	s.enrich(ctx, out...)
	s.logger.Debug("Ride search",
		logger.String("origin", f.Origin),
		logger.String("destination", f.Destination),
		logger.Int("candidates", len(candidates)),
		logger.Int("results", len(out)),
	)
	return out, nil
}

// Get returns one ride with its driver's average rating.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*ride.Ride, error) {
	rd, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	s.enrich(ctx, rd)
	return rd, nil
}

// ListForUser returns the rides an employee drives or has booked.
func (s *Service) ListForUser(ctx context.Context, email string) ([]*ride.Ride, error) {
	e, err := s.employeeByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	list, err := s.rides.ListForEmployee(ctx, e.ID)
	if err != nil {
		return nil, fmt.Errorf("rides.Service.ListForUser: %w", err)
	}
	if list == nil {
		list = []*ride.Ride{}
	}
	s.enrich(ctx, list...)
	return list, nil
}
