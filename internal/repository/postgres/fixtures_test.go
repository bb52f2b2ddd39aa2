package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/homeride/backend/internal/domain/employee"
	"github.com/homeride/backend/internal/domain/ride"
	"github.com/homeride/backend/internal/repository/postgres"
	"github.com/homeride/backend/pkg/database"
	"github.com/stretchr/testify/require"
)

// newEmployee inserts an employee with a unique email.
func newEmployee(t *testing.T, db database.DBTX, name, gender string) *employee.Employee {
	t.Helper()
	e := &employee.Employee{
		Name:   name,
		Email:  name + "." + uuid.NewString()[:8] + "@corp.example",
		Gender: gender,
	}
	require.NoError(t, postgres.NewEmployeeRepository(db).Create(context.Background(), e))
	return e
}

func rideFixture(driver *employee.Employee) *ride.Ride {
	return &ride.Ride{
		Requester:       *driver,
		OriginCity:      "Chennai",
		Origin:          "Guindy",
		DestinationCity: "Bangalore",
		Destination:     "Whitefield",
		Stopovers: []ride.Stopover{
			{City: "Vellore", Point: "Vellore Fort"},
			{City: "Krishnagiri", Point: "Krishnagiri Bus Stand"},
		},
		TravelDateTime:   time.Now().Add(48 * time.Hour).UTC().Truncate(time.Second),
		Status:           ride.StatusPending,
		Type:             ride.TypeOffered,
		VehicleModel:     "Swift",
		VehicleCapacity:  3,
		Price:            720,
		PricePerKm:       2.1,
		StopoverPrices:   []float64{320, 210, 290},
		DurationMinutes:  380,
		DistanceKm:       346,
		DirectDistanceKm: 332,
	}
}
