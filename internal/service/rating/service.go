// Package rating records star ratings between employees who shared a ride.
package rating

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/homeride/backend/internal/domain/employee"
	"github.com/homeride/backend/internal/domain/notification"
	"github.com/homeride/backend/internal/domain/rating"
	"github.com/homeride/backend/internal/domain/ride"
	apperrors "github.com/homeride/backend/pkg/errors"
	"github.com/homeride/backend/pkg/logger"
)

// Notifier is the part of the notification service ratings need.
type Notifier interface {
	Notify(ctx context.Context, recipient employee.Employee, t notification.Type, message, link string, rideID *uuid.UUID) (*notification.Notification, error)
}

// SubmitInput is a rating from the authenticated employee.
type SubmitInput struct {
	RideID  uuid.UUID
	RateeID uuid.UUID
	Score   int
	Comment string
}

type Service struct {
	ratings   rating.Repository
	employees employee.Repository
	rides     ride.Repository
	notifier  Notifier
	logger    *logger.Logger
}

func NewService(ratings rating.Repository, employees employee.Repository, rides ride.Repository, notifier Notifier, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewNop()
	}
	return &Service{
		ratings:   ratings,
		employees: employees,
		rides:     rides,
		notifier:  notifier,
		logger:    log.Named("rating"),
	}
}

// Submit stores a rating and tells the ratee about it.
func (s *Service) Submit(ctx context.Context, raterEmail string, in SubmitInput) (*rating.Rating, error) {
	if !rating.ValidScore(in.Score) {
		return nil, apperrors.ErrInvalidScore
	}

	rater, err := s.employeeByEmail(ctx, raterEmail)
	if err != nil {
		return nil, err
	}
	ratee, err := s.employees.GetByID(ctx, in.RateeID)
	if errors.Is(err, employee.ErrEmployeeNotFound) {
		return nil, apperrors.NotFound("User being rated not found", err)
	}
	if err != nil {
		return nil, fmt.Errorf("rating.Service.Submit: load ratee: %w", err)
	}
	if rater.ID == ratee.ID {
		return nil, apperrors.ErrSelfRating
	}

	rd, err := s.rides.GetByID(ctx, in.RideID)
	if errors.Is(err, ride.ErrRideNotFound) {
		return nil, apperrors.ErrRideNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("rating.Service.Submit: load ride: %w", err)
	}

	exists, err := s.ratings.Exists(ctx, rd.ID, rater.ID, ratee.ID)
	if err != nil {
		return nil, fmt.Errorf("rating.Service.Submit: %w", err)
	}
	if exists {
		return nil, apperrors.ErrAlreadyRated
	}

	r := &rating.Rating{
		RaterID:   rater.ID,
		RaterName: rater.Name,
		RateeID:   ratee.ID,
		RateeName: ratee.Name,
		RideID:    rd.ID,
		Score:     in.Score,
		Comment:   in.Comment,
	}
	if err := s.ratings.Create(ctx, r); err != nil {
		if errors.Is(err, rating.ErrDuplicateRating) {
			return nil, apperrors.ErrAlreadyRated
		}
		return nil, fmt.Errorf("rating.Service.Submit: %w", err)
	}

	msg := fmt.Sprintf("%s rated you for the ride from %s to %s", rater.Name, rd.OriginCity, rd.DestinationCity)
	rideID := rd.ID
	if _, err := s.notifier.Notify(ctx, *ratee, notification.TypeRatingReceived, msg, "/ride/"+rd.ID.String(), &rideID); err != nil {
		s.logger.Warn("Failed to notify ratee", logger.Err(err), logger.RideID(rd.ID.String()))
	}

	s.logger.Info("Rating submitted",
		logger.RideID(rd.ID.String()),
		logger.Email(rater.Email),
		logger.Int("score", in.Score),
	)
	return r, nil
}

// Received lists ratings the employee has been given.
func (s *Service) Received(ctx context.Context, email string) ([]*rating.Rating, error) {
	e, err := s.employeeByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	list, err := s.ratings.ListByRatee(ctx, e.ID)
	if err != nil {
		return nil, fmt.Errorf("rating.Service.Received: %w", err)
	}
	return nonNil(list), nil
}

// Given lists ratings the employee has written.
func (s *Service) Given(ctx context.Context, email string) ([]*rating.Rating, error) {
	e, err := s.employeeByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	list, err := s.ratings.ListByRater(ctx, e.ID)
	if err != nil {
		return nil, fmt.Errorf("rating.Service.Given: %w", err)
	}
	return nonNil(list), nil
}

// AverageRating returns nil for an employee nobody has rated yet.
func (s *Service) AverageRating(ctx context.Context, employeeID uuid.UUID) (*float64, error) {
	avg, err := s.ratings.Average(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("rating.Service.AverageRating: %w", err)
	}
	return avg, nil
}

// DeleteForRide drops every rating attached to the ride.
func (s *Service) DeleteForRide(ctx context.Context, rideID uuid.UUID) error {
	if err := s.ratings.DeleteByRide(ctx, rideID); err != nil {
		return fmt.Errorf("rating.Service.DeleteForRide: %w", err)
	}
	return nil
}

// DeleteForParticipant drops ratings given or received by one employee on the ride.
func (s *Service) DeleteForParticipant(ctx context.Context, rideID, employeeID uuid.UUID) error {
	if err := s.ratings.DeleteByRideAndEmployee(ctx, rideID, employeeID); err != nil {
		return fmt.Errorf("rating.Service.DeleteForParticipant: %w", err)
	}
	return nil
}

func (s *Service) employeeByEmail(ctx context.Context, email string) (*employee.Employee, error) {
	e, err := s.employees.GetByEmail(ctx, email)
	if errors.Is(err, employee.ErrEmployeeNotFound) {
		return nil, apperrors.ErrEmployeeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("rating.Service: load employee: %w", err)
	}
	return e, nil
}

func nonNil(list []*rating.Rating) []*rating.Rating {
	if list == nil {
		return []*rating.Rating{}
	}
	return list
}
