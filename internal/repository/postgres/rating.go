package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/homeride/backend/internal/domain/rating"
	"github.com/homeride/backend/pkg/database"
	"github.com/lib/pq"
)

const ratingSelect = `
	SELECT rt.id, rt.rater_id, rater.name, rt.ratee_id, ratee.name, rt.ride_id, rt.score, rt.comment, rt.created_at
	FROM ratings rt
	JOIN employees rater ON rater.id = rt.rater_id
	JOIN employees ratee ON ratee.id = rt.ratee_id`

// uniqueViolation is the Postgres SQLSTATE for a unique constraint failure.
const uniqueViolation = "23505"

// RatingRepository implements rating.Repository
type RatingRepository struct {
	db database.DBTX
}

func NewRatingRepository(db database.DBTX) *RatingRepository {
	return &RatingRepository{db: db}
}

func (r *RatingRepository) Create(ctx context.Context, rt *rating.Rating) error {
	if rt.ID == uuid.Nil {
		rt.ID = uuid.New()
	}
	const q = `
		INSERT INTO ratings (id, rater_id, ratee_id, ride_id, score, comment)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`

	err := r.db.QueryRowContext(ctx, q, rt.ID, rt.RaterID, rt.RateeID, rt.RideID, rt.Score, rt.Comment).
		Scan(&rt.CreatedAt)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return rating.ErrDuplicateRating
	}
	if err != nil {
		return fmt.Errorf("postgres.RatingRepository.Create: %w", err)
	}
	return nil
}

func (r *RatingRepository) Exists(ctx context.Context, rideID, raterID, rateeID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM ratings WHERE ride_id = $1 AND rater_id = $2 AND ratee_id = $3)`,
		rideID, raterID, rateeID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("postgres.RatingRepository.Exists: %w", err)
	}
	return exists, nil
}

func (r *RatingRepository) ListByRatee(ctx context.Context, rateeID uuid.UUID) ([]*rating.Rating, error) {
	out, err := r.list(ctx, ratingSelect+` WHERE rt.ratee_id = $1 ORDER BY rt.created_at DESC`, rateeID)
	if err != nil {
		return nil, fmt.Errorf("postgres.RatingRepository.ListByRatee: %w", err)
	}
	return out, nil
}

func (r *RatingRepository) ListByRater(ctx context.Context, raterID uuid.UUID) ([]*rating.Rating, error) {
	out, err := r.list(ctx, ratingSelect+` WHERE rt.rater_id = $1 ORDER BY rt.created_at DESC`, raterID)
	if err != nil {
		return nil, fmt.Errorf("postgres.RatingRepository.ListByRater: %w", err)
	}
	return out, nil
}

func (r *RatingRepository) Average(ctx context.Context, rateeID uuid.UUID) (*float64, error) {
	var avg sql.NullFloat64
	err := r.db.QueryRowContext(ctx, `SELECT AVG(score)::float8 FROM ratings WHERE ratee_id = $1`, rateeID).Scan(&avg)
	if err != nil {
		return nil, fmt.Errorf("postgres.RatingRepository.Average: %w", err)
	}
	if !avg.Valid {
		return nil, nil
	}
	return &avg.Float64, nil
}

func (r *RatingRepository) DeleteByRide(ctx context.Context, rideID uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM ratings WHERE ride_id = $1`, rideID); err != nil {
		return fmt.Errorf("postgres.RatingRepository.DeleteByRide: %w", err)
	}
	return nil
}

func (r *RatingRepository) DeleteByRideAndEmployee(ctx context.Context, rideID, employeeID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM ratings WHERE ride_id = $1 AND (rater_id = $2 OR ratee_id = $2)`, rideID, employeeID)
	if err != nil {
		return fmt.Errorf("postgres.RatingRepository.DeleteByRideAndEmployee: %w", err)
	}
	return nil
}

func (r *RatingRepository) list(ctx context.Context, q string, args ...any) ([]*rating.Rating, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*rating.Rating
	for rows.Next() {
		var rt rating.Rating
		if err := rows.Scan(&rt.ID, &rt.RaterID, &rt.RaterName, &rt.RateeID, &rt.RateeName,
			&rt.RideID, &rt.Score, &rt.Comment, &rt.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		out = append(out, &rt)
	}
	return out, rows.Err()
}
