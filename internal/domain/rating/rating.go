package rating

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

const (
	MinScore = 1
	MaxScore = 5
)

// Rating is one employee's score for another on a shared ride.
type Rating struct {
	ID        uuid.UUID `json:"id"`
	RaterID   uuid.UUID `json:"rater_id"`
	RaterName string    `json:"rater_name,omitempty"`
	RateeID   uuid.UUID `json:"ratee_id"`
	RateeName string    `json:"ratee_name,omitempty"`
	RideID    uuid.UUID `json:"ride_id"`
	Score     int       `json:"score"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Repository interface
type Repository interface {
	Create(ctx context.Context, r *Rating) error
	Exists(ctx context.Context, rideID, raterID, rateeID uuid.UUID) (bool, error)
	ListByRatee(ctx context.Context, rateeID uuid.UUID) ([]*Rating, error)
	ListByRater(ctx context.Context, raterID uuid.UUID) ([]*Rating, error)
	// Average returns nil when the employee has never been rated.
	Average(ctx context.Context, rateeID uuid.UUID) (*float64, error)
	DeleteByRide(ctx context.Context, rideID uuid.UUID) error
	// DeleteByRideAndEmployee removes ratings given or received by the employee on the ride.
	DeleteByRideAndEmployee(ctx context.Context, rideID, employeeID uuid.UUID) error
}

var ErrDuplicateRating = errors.New("rating already exists")

// ValidScore reports whether score is within the star range.
func ValidScore(score int) bool {
	return score >= MinScore && score <= MaxScore
}
