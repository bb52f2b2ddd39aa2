package rating

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/homeride/backend/internal/domain/employee"
	"github.com/homeride/backend/internal/domain/notification"
	"github.com/homeride/backend/internal/domain/ride"
	"github.com/homeride/backend/internal/testutil"
	apperrors "github.com/homeride/backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	svc      *Service
	ratings  *testutil.Ratings
	notifier *testutil.Notifier
	driver   *employee.Employee
	rider    *employee.Employee
	ride     *ride.Ride
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	driver := testutil.Employee("Ravi", employee.GenderMale)
	rider := testutil.Employee("Asha", employee.GenderFemale)

	rides := testutil.NewRides()
	rd := &ride.Ride{
		Requester:       *driver,
		OriginCity:      "Chennai",
		DestinationCity: "Bangalore",
		TravelDateTime:  time.Now().Add(24 * time.Hour),
		Type:            ride.TypeOffered,
		VehicleCapacity: 3,
	}
	require.NoError(t, rides.Create(context.Background(), rd))

	f := &fixture{
		ratings:  testutil.NewRatings(),
		notifier: &testutil.Notifier{},
		driver:   driver,
		rider:    rider,
		ride:     rd,
	}
	f.svc = NewService(f.ratings, testutil.NewEmployees(driver, rider), rides, f.notifier, nil)
	return f
}

func TestService_Submit(t *testing.T) {
	f := newFixture(t)

	r, err := f.svc.Submit(context.Background(), "ASHA@corp.example", SubmitInput{
		RideID: f.ride.ID, RateeID: f.driver.ID, Score: 5, Comment: "smooth drive",
	})
	require.NoError(t, err)

	assert.Equal(t, f.rider.ID, r.RaterID)
	assert.Equal(t, "Ravi", r.RateeName)

	sent := f.notifier.To(f.driver.Email)
	require.Len(t, sent, 1)
	assert.Equal(t, notification.TypeRatingReceived, sent[0].Type)
	assert.Equal(t, "Asha rated you for the ride from Chennai to Bangalore", sent[0].Message)
	assert.Equal(t, "/ride/"+f.ride.ID.String(), sent[0].Link)
}

func TestService_SubmitRejections(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		input   func(f *fixture) SubmitInput
		wantErr error
	}{
		{
			name:    "score too low",
			email:   "asha@corp.example",
			input:   func(f *fixture) SubmitInput { return SubmitInput{RideID: f.ride.ID, RateeID: f.driver.ID, Score: 0} },
			wantErr: apperrors.ErrInvalidScore,
		},
		{
			name:    "score too high",
			email:   "asha@corp.example",
			input:   func(f *fixture) SubmitInput { return SubmitInput{RideID: f.ride.ID, RateeID: f.driver.ID, Score: 6} },
			wantErr: apperrors.ErrInvalidScore,
		},
		{
			name:    "self rating",
			email:   "ravi@corp.example",
			input:   func(f *fixture) SubmitInput { return SubmitInput{RideID: f.ride.ID, RateeID: f.driver.ID, Score: 4} },
			wantErr: apperrors.ErrSelfRating,
		},
		{
			name:    "unknown rater",
			email:   "ghost@corp.example",
			input:   func(f *fixture) SubmitInput { return SubmitInput{RideID: f.ride.ID, RateeID: f.driver.ID, Score: 4} },
			wantErr: apperrors.ErrEmployeeNotFound,
		},
		{
			name:    "unknown ride",
			email:   "asha@corp.example",
			input:   func(f *fixture) SubmitInput { return SubmitInput{RideID: uuid.New(), RateeID: f.driver.ID, Score: 4} },
			wantErr: apperrors.ErrRideNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.svc.Submit(context.Background(), tt.email, tt.input(f))
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Zero(t, f.ratings.Len())
		})
	}
}

func TestService_SubmitDuplicate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	in := SubmitInput{RideID: f.ride.ID, RateeID: f.driver.ID, Score: 4}

	_, err := f.svc.Submit(ctx, f.rider.Email, in)
	require.NoError(t, err)

	_, err = f.svc.Submit(ctx, f.rider.Email, in)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyRated)
	assert.Equal(t, 1, f.ratings.Len())
}

func TestService_NotifyFailureDoesNotFailSubmit(t *testing.T) {
	f := newFixture(t)
	f.notifier.Err = errors.New("db down")

	_, err := f.svc.Submit(context.Background(), f.rider.Email, SubmitInput{RideID: f.ride.ID, RateeID: f.driver.ID, Score: 3})
	require.NoError(t, err)
	assert.Equal(t, 1, f.ratings.Len())
}

func TestService_AverageAndLists(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	avg, err := f.svc.AverageRating(ctx, f.driver.ID)
	require.NoError(t, err)
	assert.Nil(t, avg)

	_, err = f.svc.Submit(ctx, f.rider.Email, SubmitInput{RideID: f.ride.ID, RateeID: f.driver.ID, Score: 4})
	require.NoError(t, err)
	_, err = f.svc.Submit(ctx, f.driver.Email, SubmitInput{RideID: f.ride.ID, RateeID: f.rider.ID, Score: 5})
	require.NoError(t, err)

	avg, err = f.svc.AverageRating(ctx, f.driver.ID)
	require.NoError(t, err)
	require.NotNil(t, avg)
	assert.Equal(t, 4.0, *avg)

	received, err := f.svc.Received(ctx, f.rider.Email)
	require.NoError(t, err)
	require.Len(t, received, 1)
	assert.Equal(t, 5, received[0].Score)

	given, err := f.svc.Given(ctx, f.rider.Email)
	require.NoError(t, err)
	require.Len(t, given, 1)
	assert.Equal(t, f.driver.ID, given[0].RateeID)

	require.NoError(t, f.svc.DeleteForParticipant(ctx, f.ride.ID, f.rider.ID))
	assert.Zero(t, f.ratings.Len())
}

func TestService_DeleteForRide(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Submit(ctx, f.rider.Email, SubmitInput{RideID: f.ride.ID, RateeID: f.driver.ID, Score: 4})
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteForRide(ctx, f.ride.ID))
	assert.Zero(t, f.ratings.Len())

	empty, err := f.svc.Given(ctx, f.rider.Email)
	require.NoError(t, err)
	assert.NotNil(t, empty)
}
