package rides

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/homeride/backend/internal/domain/employee"
	"github.com/homeride/backend/internal/domain/ride"
	"github.com/homeride/backend/internal/service/routing"
	"github.com/homeride/backend/internal/testutil"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

type fakeRouter struct {
	directKm  float64
	info      routing.TravelInfo
	err       error
	waypoints []string
}

func (f *fakeRouter) Route(_ context.Context, _, _ string, waypoints []string) (routing.TravelInfo, error) {
	f.waypoints = waypoints
	if f.err != nil {
		return routing.TravelInfo{}, f.err
	}
	return f.info, nil
}

func (f *fakeRouter) DirectDistance(_ context.Context, _, _ string) (float64, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.directKm, nil
}

type fakeGeocoder struct{}

func (fakeGeocoder) Geocode(_ context.Context, address string) (routing.Location, error) {
	if address == "Nowhere" {
		return routing.Location{}, errors.New("ZERO_RESULTS")
	}
	return routing.Location{Lat: 12.91, Lng: 79.13}, nil
}

type fakeRatings struct {
	mu           sync.Mutex
	avg          map[uuid.UUID]float64
	avgCalls     int
	deletedRides []uuid.UUID
	deletedFor   [][2]uuid.UUID
	err          error
}

func (f *fakeRatings) AverageRating(_ context.Context, employeeID uuid.UUID) (*float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.avgCalls++
	if f.err != nil {
		return nil, f.err
	}
	v, ok := f.avg[employeeID]
	if !ok {
		return nil, nil
	}
	return &v, nil
}

func (f *fakeRatings) DeleteForRide(_ context.Context, rideID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletedRides = append(f.deletedRides, rideID)
	return f.err
}

func (f *fakeRatings) DeleteForParticipant(_ context.Context, rideID, employeeID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletedFor = append(f.deletedFor, [2]uuid.UUID{rideID, employeeID})
	return f.err
}

type recordedEvents struct {
	offered   int
	joined    int
	fallbacks []string
	fellBack  bool
}

func (e *recordedEvents) RecordRideOffered(_ string, _, _ float64, _ int, fallback bool) {
	e.offered++
	e.fellBack = fallback
}

func (e *recordedEvents) RecordRideJoined(string, int, float64) { e.joined++ }

func (e *recordedEvents) RecordRoutingFallback(call string) {
	e.fallbacks = append(e.fallbacks, call)
}

type fixture struct {
	svc       *Service
	rides     *testutil.Rides
	employees *testutil.Employees
	ratings   *fakeRatings
	notifier  *testutil.Notifier
	router    *fakeRouter
	events    *recordedEvents
	driver    *employee.Employee
	asha      *employee.Employee
	kiran     *employee.Employee
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		rides:    testutil.NewRides(),
		ratings:  &fakeRatings{avg: map[uuid.UUID]float64{}},
		notifier: &testutil.Notifier{},
		router: &fakeRouter{
			directKm: 332,
			info: routing.TravelInfo{
				DistanceKm:      346,
				DurationMinutes: 380,
				Summary:         "NH48",
				Polyline:        "abc",
				LegDistancesKm:  []float64{140, 206},
			},
		},
		events: &recordedEvents{},
		driver: testutil.Employee("Ravi", employee.GenderMale),
		asha:   testutil.Employee("Asha", employee.GenderFemale),
		kiran:  testutil.Employee("Kiran", employee.GenderMale),
	}
	f.employees = testutil.NewEmployees(f.driver, f.asha, f.kiran)
	f.svc = f.build(f.rides)
	return f
}

// build wires a service over repo, so tests can swap the ride repository.
func (f *fixture) build(repo ride.Repository) *Service {
	s := NewService(Deps{
		Rides:     repo,
		Employees: f.employees,
		Ratings:   f.ratings,
		Notifier:  f.notifier,
		Router:    f.router,
		Geocoder:  fakeGeocoder{},
		Events:    f.events,
		Location:  time.UTC,
	})
	s.now = func() time.Time { return testNow }
	return s
}

// seedRide stores Chennai -> Vellore -> Krishnagiri -> Bangalore, offered by
// the driver with three seats.
func (f *fixture) seedRide(t *testing.T, mutate ...func(*ride.Ride)) *ride.Ride {
	t.Helper()
	rd := &ride.Ride{
		Requester:       *f.driver,
		OriginCity:      "Chennai",
		Origin:          "Chennai Central, Chennai",
		DestinationCity: "Bangalore",
		Destination:     "Majestic, Bangalore",
		Stopovers: []ride.Stopover{
			{City: "Vellore", Point: "Vellore Fort, Vellore"},
			{City: "Krishnagiri", Point: "Krishnagiri Bus Stand"},
		},
		TravelDateTime:  testNow.Add(48 * time.Hour),
		Status:          ride.StatusPending,
		Type:            ride.TypeOffered,
		VehicleCapacity: 3,
		Price:           650,
		StopoverPrices:  []float64{320, 210, 290},
	}
	for _, m := range mutate {
		m(rd)
	}
	require.NoError(t, f.rides.Create(context.Background(), rd))
	return rd
}

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }
