package rides

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/homeride/backend/internal/domain/notification"
	"github.com/homeride/backend/internal/domain/ride"
	"github.com/homeride/backend/internal/observability"
	"github.com/homeride/backend/internal/service/matching"
	apperrors "github.com/homeride/backend/pkg/errors"
	"github.com/homeride/backend/pkg/logger"
)

// JoinInput is a booking request for part of a ride. Seats defaults to 1.
type JoinInput struct {
	PickupPoint  string
	DropoffPoint string
	Price        *float64
	Seats        *int
}

// Join books seats on the segment between the matched pickup and drop-off.
// Checks run in a fixed order so the first failing rule is the one reported.
func (s *Service) Join(ctx context.Context, rideID uuid.UUID, email string, in JoinInput) (*ride.Participant, error) {
	rd, err := s.load(ctx, rideID)
	if err != nil {
		return nil, err
	}
	participant, err := s.employeeByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	seats := 1
	if in.Seats != nil {
		seats = *in.Seats
	}
	if strings.TrimSpace(in.PickupPoint) == "" || strings.TrimSpace(in.DropoffPoint) == "" ||
		in.Price == nil || *in.Price < 0 || seats < 1 {
		return nil, apperrors.ErrMissingJoinDetails
	}

	segment, err := matching.FindMatchingSegment(PathOf(rd), in.PickupPoint, in.DropoffPoint)
	switch {
	case errors.Is(err, matching.ErrPointNotFound):
		return nil, apperrors.ErrInvalidRoutePoint
	case errors.Is(err, matching.ErrInvalidOrdering):
		return nil, apperrors.ErrPickupAfterDropoff
	case err != nil:
		return nil, fmt.Errorf("rides.Service.Join: %w", err)
	}

	if !rd.IsOffered() {
		return nil, apperrors.ErrRideNotOffered
	}
	if rd.IsFemaleOnly() && !participant.IsFemale() {
		return nil, apperrors.ErrFemaleOnly
	}
	if left := rd.AvailableSeats(); left < seats {
		return nil, seatsLeft(left)
	}
	if rd.Requester.ID == participant.ID {
		return nil, apperrors.ErrOwnRide
	}
	if rd.HasParticipant(participant.ID) {
		return nil, apperrors.ErrAlreadyJoined
	}

	p := &ride.Participant{
		RideID:        rd.ID,
		Employee:      *participant,
		PickupPoint:   segment.Pickup.Point,
		DropoffPoint:  segment.Dropoff.Point,
		Price:         *in.Price,
		NumberOfSeats: seats,
	}
	if err := s.rides.AddParticipant(ctx, p); err != nil {
		observability.RideJoins.WithLabelValues("rejected").Inc()
		switch {
		case errors.Is(err, ride.ErrAlreadyJoined):
			return nil, apperrors.ErrAlreadyJoined
		case errors.Is(err, ride.ErrNotEnoughSeats):
			// another booking took the seats between the check and the insert
			return nil, apperrors.ErrNotEnoughSeats
		case errors.Is(err, ride.ErrRideNotFound):
			return nil, apperrors.ErrRideNotFound
		}
		return nil, fmt.Errorf("rides.Service.Join: %w", err)
	}

	seatText := "1 seat"
	if seats > 1 {
		seatText = fmt.Sprintf("%d seats", seats)
	}
	leg := fmt.Sprintf("%s -> %s", mainCity(in.PickupPoint), mainCity(in.DropoffPoint))

	s.notify(ctx, rd.Requester, notification.TypeRideJoined,
		fmt.Sprintf("%s booked %s on your ride: %s -> %s (Segment: %s)",
			participant.Name, seatText, rd.OriginCity, rd.DestinationCity, leg),
		rideLink(rd.ID), rd.ID)
	s.notify(ctx, *participant, notification.TypeRideBooked,
		fmt.Sprintf("Booking confirmed for %s: %s -> %s (Your segment: %s)",
			seatText, rd.OriginCity, rd.DestinationCity, leg),
		rideLink(rd.ID), rd.ID)

	observability.RideJoins.WithLabelValues("joined").Inc()
	s.events.RecordRideJoined(rd.ID.String(), seats, p.Price)
	s.logger.Info("Ride joined",
		logger.RideID(rd.ID.String()),
		logger.Email(participant.Email),
		logger.Int("seats", seats),
		logger.Int("pickup_index", segment.PickupIndex),
		logger.Int("dropoff_index", segment.DropoffIndex),
	)
	return p, nil
}

// CancelAsDriver deletes the ride after telling every passenger. Only the
// driver may do this.
func (s *Service) CancelAsDriver(ctx context.Context, rideID uuid.UUID, email string) error {
	rd, err := s.load(ctx, rideID)
	if err != nil {
		return err
	}
	if !rd.IsRequester(email) {
		return apperrors.ErrNotRideOwner
	}

	if err := s.ratings.DeleteForRide(ctx, rd.ID); err != nil {
		return fmt.Errorf("rides.Service.CancelAsDriver: %w", err)
	}

	msg := fmt.Sprintf("Your ride from %s to %s has been cancelled by the driver.", rd.OriginCity, rd.DestinationCity)
	for _, p := range rd.Participants {
		s.notify(ctx, p.Employee, notification.TypeRideCancelled, msg, "/dashboard", rd.ID)
	}

	if err := s.rides.Delete(ctx, rd.ID); err != nil {
		if errors.Is(err, ride.ErrRideNotFound) {
			return apperrors.ErrRideNotFound
		}
		return fmt.Errorf("rides.Service.CancelAsDriver: %w", err)
	}

	s.logger.Info("Ride cancelled by driver",
		logger.RideID(rd.ID.String()),
		logger.Int("participants", len(rd.Participants)),
	)
	return nil
}

// CancelAsPassenger removes the caller's booking and their ratings on the ride.
func (s *Service) CancelAsPassenger(ctx context.Context, rideID uuid.UUID, email, reason string) error {
	rd, err := s.load(ctx, rideID)
	if err != nil {
		return err
	}
	p, ok := rd.ParticipantByEmail(email)
	if !ok {
		return apperrors.ErrNotAParticipant
	}

	if err := s.rides.RemoveParticipant(ctx, rd.ID, p.ID); err != nil {
		if errors.Is(err, ride.ErrParticipantNotFound) {
			return apperrors.ErrNotAParticipant
		}
		return fmt.Errorf("rides.Service.CancelAsPassenger: %w", err)
	}
	if err := s.ratings.DeleteForParticipant(ctx, rd.ID, p.Employee.ID); err != nil {
		return fmt.Errorf("rides.Service.CancelAsPassenger: %w", err)
	}

	msg := fmt.Sprintf("%s has cancelled their booking for your ride from %s to %s",
		p.Employee.Name, rd.OriginCity, rd.DestinationCity)
	s.notify(ctx, rd.Requester, notification.TypePassengerCancelled, msg, rideLink(rd.ID), rd.ID)

	s.logger.Info("Booking cancelled by passenger",
		logger.RideID(rd.ID.String()),
		logger.Email(p.Employee.Email),
		logger.String("reason", reason),
	)
	return nil
}

func seatsLeft(left int) error {
	if left < 0 {
		left = 0
	}
	return apperrors.WithDetail(apperrors.ErrNotEnoughSeats, fmt.Sprintf("Only %d seat(s) left.", left))
}

func mainCity(s string) string {
	return matching.MainCity(matching.Normalize(s))
}
