package postgres_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/homeride/backend/internal/domain/employee"
	"github.com/homeride/backend/internal/domain/rating"
	"github.com/homeride/backend/internal/repository/postgres"
	"github.com/homeride/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRatingRepository(t *testing.T) {
	tx := testutil.NewTx(t)
	ctx := context.Background()

	driver := newEmployee(t, tx, "ravi", employee.GenderMale)
	asha := newEmployee(t, tx, "asha", employee.GenderFemale)

	// rides.Create needs its own transaction; insert the ride row directly.
	rd := rideFixture(driver)
	_, err := tx.ExecContext(ctx, `
		INSERT INTO rides (id, requester_id, origin_city, origin, destination_city, destination,
		                   travel_date_time, status, ride_type, vehicle_capacity, price)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		driver.ID, rd.OriginCity, rd.Origin, rd.DestinationCity, rd.Destination,
		rd.TravelDateTime, rd.Status, rd.Type, rd.VehicleCapacity, rd.Price)
	require.NoError(t, err)
	require.NoError(t, tx.QueryRowContext(ctx, `SELECT id FROM rides WHERE requester_id = $1`, driver.ID).Scan(&rd.ID))

	repo := postgres.NewRatingRepository(tx)

	avg, err := repo.Average(ctx, driver.ID)
	require.NoError(t, err)
	assert.Nil(t, avg)

	require.NoError(t, repo.Create(ctx, &rating.Rating{RaterID: asha.ID, RateeID: driver.ID, RideID: rd.ID, Score: 4}))
	require.NoError(t, repo.Create(ctx, &rating.Rating{RaterID: driver.ID, RateeID: asha.ID, RideID: rd.ID, Score: 5, Comment: "on time"}))

	exists, err := repo.Exists(ctx, rd.ID, asha.ID, driver.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	avg, err = repo.Average(ctx, driver.ID)
	require.NoError(t, err)
	require.NotNil(t, avg)
	assert.InDelta(t, 4.0, *avg, 1e-9)

	received, err := repo.ListByRatee(ctx, asha.ID)
	require.NoError(t, err)
	require.Len(t, received, 1)
	assert.Equal(t, "on time", received[0].Comment)
	assert.Equal(t, driver.Name, received[0].RaterName)

	given, err := repo.ListByRater(ctx, asha.ID)
	require.NoError(t, err)
	require.Len(t, given, 1)
	assert.Equal(t, driver.ID, given[0].RateeID)

	require.NoError(t, repo.DeleteByRideAndEmployee(ctx, rd.ID, asha.ID))
	avg, err = repo.Average(ctx, driver.ID)
	require.NoError(t, err)
	assert.Nil(t, avg)

	require.NoError(t, repo.DeleteByRide(ctx, rd.ID))
}

func TestRatingRepository_Duplicate(t *testing.T) {
	tx := testutil.NewTx(t)
	ctx := context.Background()

	driver := newEmployee(t, tx, "ravi", employee.GenderMale)
	asha := newEmployee(t, tx, "asha", employee.GenderFemale)

	var rideID uuid.UUID
	err := tx.QueryRowContext(ctx, `
		INSERT INTO rides (id, requester_id, origin_city, origin, destination_city, destination,
		                   travel_date_time, status, ride_type, vehicle_capacity, price)
		VALUES (gen_random_uuid(), $1, 'Pune', 'Hinjewadi', 'Mumbai', 'Andheri', now() + interval '1 day',
		        'PENDING', 'OFFERED', 3, 400)
		RETURNING id`, driver.ID).Scan(&rideID)
	require.NoError(t, err)

	repo := postgres.NewRatingRepository(tx)
	require.NoError(t, repo.Create(ctx, &rating.Rating{RaterID: asha.ID, RateeID: driver.ID, RideID: rideID, Score: 3}))

	// a failed statement aborts the transaction, so this is the last call
	err = repo.Create(ctx, &rating.Rating{RaterID: asha.ID, RateeID: driver.ID, RideID: rideID, Score: 5})
	assert.ErrorIs(t, err, rating.ErrDuplicateRating)
}
