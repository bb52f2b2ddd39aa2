// Package employees serves employee profiles and the admin directory.
package employees

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/homeride/backend/internal/domain/employee"
	"github.com/homeride/backend/internal/domain/rating"
	apperrors "github.com/homeride/backend/pkg/errors"
	"github.com/homeride/backend/pkg/logger"
)

// Store is the employee persistence the service needs.
type Store interface {
	employee.Repository
	List(ctx context.Context) ([]*employee.Employee, error)
	Update(ctx context.Context, e *employee.Employee) error
	Count(ctx context.Context) (int, error)
}

// RideCounter counts rides overall and per employee.
type RideCounter interface {
	Count(ctx context.Context) (int, error)
	CountForEmployee(ctx context.Context, employeeID uuid.UUID) (int, error)
}

// RatingLister lists the ratings an employee received.
type RatingLister interface {
	ListByRatee(ctx context.Context, rateeID uuid.UUID) ([]*rating.Rating, error)
}

// ProfileUpdate carries the fields an employee may change on their own
// profile. Nil leaves a field as is; a blank name is ignored.
type ProfileUpdate struct {
	Name        *string
	PhoneNumber *string
}

// AdminUpdate carries the fields only admins may change.
type AdminUpdate struct {
	Role         *string
	TravelCredit *float64
}

// PublicProfile is what other employees see.
type PublicProfile struct {
	ID                uuid.UUID        `json:"id"`
	Name              string           `json:"name"`
	Email             string           `json:"email"`
	PhoneNumber       string           `json:"phone_number,omitempty"`
	ProfilePictureURL string           `json:"profile_picture_url,omitempty"`
	Gender            string           `json:"gender,omitempty"`
	AverageRating     *float64         `json:"average_rating"`
	TotalRides        int              `json:"total_rides"`
	ReceivedRatings   []*rating.Rating `json:"received_ratings"`
}

// DirectoryEntry is one row of the admin employee list.
type DirectoryEntry struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Role          string    `json:"role"`
	TravelCredit  float64   `json:"travel_credit"`
	RidesTraveled int       `json:"rides_traveled"`
}

// Stats are the headline admin counters.
type Stats struct {
	TotalUsers int `json:"total_users"`
	TotalRides int `json:"total_rides"`
}

type Service struct {
	employees Store
	rides     RideCounter
	ratings   RatingLister
	logger    *logger.Logger
}

func NewService(employees Store, rides RideCounter, ratings RatingLister, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewNop()
	}
	return &Service{
		employees: employees,
		rides:     rides,
		ratings:   ratings,
		logger:    log.Named("employees"),
	}
}

// Me returns the authenticated employee's own profile with their average
// rating filled in.
func (s *Service) Me(ctx context.Context, email string) (*employee.Employee, error) {
	e, err := s.byEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if err := s.fillRating(ctx, e); err != nil {
		return nil, fmt.Errorf("employees.Service.Me: %w", err)
	}
	return e, nil
}

// UpdateProfile applies in to the authenticated employee's profile.
func (s *Service) UpdateProfile(ctx context.Context, email string, in ProfileUpdate) (*employee.Employee, error) {
	e, err := s.byEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if in.Name != nil && strings.TrimSpace(*in.Name) != "" {
		e.Name = strings.TrimSpace(*in.Name)
	}
	if in.PhoneNumber != nil {
		e.PhoneNumber = strings.TrimSpace(*in.PhoneNumber)
	}

	if err := s.save(ctx, e); err != nil {
		return nil, fmt.Errorf("employees.Service.UpdateProfile: %w", err)
	}
	if err := s.fillRating(ctx, e); err != nil {
		return nil, fmt.Errorf("employees.Service.UpdateProfile: %w", err)
	}
	s.logger.Info("Profile updated", logger.Email(e.Email))
	return e, nil
}

// PublicProfile returns the profile of any employee along with the ratings
// they received. AverageRating stays nil until they are rated.
func (s *Service) PublicProfile(ctx context.Context, id uuid.UUID) (*PublicProfile, error) {
	e, err := s.employees.GetByID(ctx, id)
	if errors.Is(err, employee.ErrEmployeeNotFound) {
		return nil, apperrors.ErrEmployeeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("employees.Service.PublicProfile: %w", err)
	}

	received, err := s.ratings.ListByRatee(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("employees.Service.PublicProfile: ratings: %w", err)
	}
	total, err := s.rides.CountForEmployee(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("employees.Service.PublicProfile: rides: %w", err)
	}
	if received == nil {
		received = []*rating.Rating{}
	}

	return &PublicProfile{
		ID:                e.ID,
		Name:              e.Name,
		Email:             e.Email,
		PhoneNumber:       e.PhoneNumber,
		ProfilePictureURL: e.ProfilePictureURL,
		Gender:            e.Gender,
		AverageRating:     averageScore(received),
		TotalRides:        total,
		ReceivedRatings:   received,
	}, nil
}

// IsAdmin reports whether the employee behind email holds the admin role.
func (s *Service) IsAdmin(ctx context.Context, email string) (bool, error) {
	e, err := s.byEmail(ctx, email)
	if err != nil {
		return false, err
	}
	return e.IsAdmin(), nil
}

// Directory lists every employee with the number of rides they took part in.
func (s *Service) Directory(ctx context.Context) ([]DirectoryEntry, error) {
	list, err := s.employees.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("employees.Service.Directory: %w", err)
	}

	out := make([]DirectoryEntry, 0, len(list))
	for _, e := range list {
		n, err := s.rides.CountForEmployee(ctx, e.ID)
		if err != nil {
			return nil, fmt.Errorf("employees.Service.Directory: count rides: %w", err)
		}
		out = append(out, DirectoryEntry{
			ID:            e.ID,
			Name:          e.Name,
			Email:         e.Email,
			Role:          e.Role,
			TravelCredit:  e.TravelCredit,
			RidesTraveled: n,
		})
	}
	return out, nil
}

func (s *Service) Stats(ctx context.Context) (Stats, error) {
	users, err := s.employees.Count(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("employees.Service.Stats: %w", err)
	}
	rides, err := s.rides.Count(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("employees.Service.Stats: %w", err)
	}
	return Stats{TotalUsers: users, TotalRides: rides}, nil
}

// UpdateEmployee changes another employee's role or travel credit.
func (s *Service) UpdateEmployee(ctx context.Context, id uuid.UUID, in AdminUpdate) (*employee.Employee, error) {
	var role string
	if in.Role != nil {
		role = strings.ToUpper(strings.TrimSpace(*in.Role))
		if !employee.ValidRole(role) {
			return nil, apperrors.ErrInvalidRole
		}
	}
	if in.TravelCredit != nil && *in.TravelCredit < 0 {
		return nil, apperrors.ErrNegativeCredit
	}

	e, err := s.employees.GetByID(ctx, id)
	if errors.Is(err, employee.ErrEmployeeNotFound) {
		return nil, apperrors.ErrEmployeeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("employees.Service.UpdateEmployee: %w", err)
	}

	if in.Role != nil {
		e.Role = role
	}
	if in.TravelCredit != nil {
		e.TravelCredit = *in.TravelCredit
	}

	if err := s.save(ctx, e); err != nil {
		return nil, fmt.Errorf("employees.Service.UpdateEmployee: %w", err)
	}
	s.logger.Info("Employee updated by admin",
		logger.String("employee_id", e.ID.String()),
		logger.String("role", e.Role),
		logger.Float64("travel_credit", e.TravelCredit),
	)
	return e, nil
}

func (s *Service) byEmail(ctx context.Context, email string) (*employee.Employee, error) {
	e, err := s.employees.GetByEmail(ctx, email)
	if errors.Is(err, employee.ErrEmployeeNotFound) {
		return nil, apperrors.ErrEmployeeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("employees.Service: load %s: %w", email, err)
	}
	return e, nil
}

func (s *Service) fillRating(ctx context.Context, e *employee.Employee) error {
	received, err := s.ratings.ListByRatee(ctx, e.ID)
	if err != nil {
		return fmt.Errorf("ratings: %w", err)
	}
	e.AverageRating = averageScore(received)
	return nil
}

func (s *Service) save(ctx context.Context, e *employee.Employee) error {
	err := s.employees.Update(ctx, e)
	if errors.Is(err, employee.ErrEmployeeNotFound) {
		return apperrors.ErrEmployeeNotFound
	}
	return err
}

func averageScore(list []*rating.Rating) *float64 {
	if len(list) == 0 {
		return nil
	}
	sum := 0
	for _, r := range list {
		sum += r.Score
	}
	avg := float64(sum) / float64(len(list))
	return &avg
}
