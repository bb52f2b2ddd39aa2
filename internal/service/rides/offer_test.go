package rides

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/homeride/backend/internal/domain/notification"
	"github.com/homeride/backend/internal/domain/ride"
	"github.com/homeride/backend/internal/service/routing"
	apperrors "github.com/homeride/backend/pkg/errors"
	"github.com/homeride/backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func validOffer() OfferInput {
	return OfferInput{
		OriginCity:      "Chennai",
		Origin:          "Chennai Central, Chennai",
		DestinationCity: "Bangalore",
		Destination:     "Majestic, Bangalore",
		Stops:           []StopInput{{City: "Vellore", Point: "Vellore Fort"}},
		TravelDateTime:  testNow.Add(24 * time.Hour),
		VehicleModel:    "Swift",
		VehicleCapacity: 3,
		Price:           floatPtr(700),
		StopoverPrices:  []float64{300, 1000},
	}
}

func TestService_CreateOffer(t *testing.T) {
	f := newFixture(t)

	rd, err := f.svc.CreateOffer(context.Background(), "RAVI@corp.example", validOffer())
	require.NoError(t, err)

	assert.Equal(t, f.driver.ID, rd.Requester.ID)
	assert.Equal(t, ride.TypeOffered, rd.Type)
	assert.Equal(t, ride.StatusPending, rd.Status)
	assert.Empty(t, rd.Participants)

	// 700 sits inside the 390..1110 band for 332 km
	assert.Equal(t, 700.0, rd.Price)
	assert.InDelta(t, 700.0/332, rd.PricePerKm, 1e-9)
	assert.Equal(t, 332.0, rd.DirectDistanceKm)

	// routed trip data comes from the waypoint route
	assert.Equal(t, 346.0, rd.DistanceKm)
	assert.Equal(t, 380, rd.DurationMinutes)
	assert.Equal(t, "abc", rd.RoutePolyline)
	assert.Equal(t, []string{"Vellore Fort"}, f.router.waypoints)

	// legs 140 km and 206 km; the second proposal is clamped to its max
	assert.Equal(t, []float64{300, 920}, rd.StopoverPrices)

	require.Len(t, rd.Stopovers, 1)
	require.NotNil(t, rd.Stopovers[0].Lat)
	assert.Equal(t, 12.91, *rd.Stopovers[0].Lat)

	stored, err := f.rides.GetByID(context.Background(), rd.ID)
	require.NoError(t, err)
	assert.Equal(t, rd.StopoverPrices, stored.StopoverPrices)

	sent := f.notifier.To(f.driver.Email)
	require.Len(t, sent, 1)
	assert.Equal(t, notification.TypeRideOffered, sent[0].Type)
	assert.Equal(t, "You offered a ride from Chennai to Bangalore", sent[0].Message)
	assert.Equal(t, "/ride/"+rd.ID.String(), sent[0].Link)

	assert.Equal(t, 1, f.events.offered)
	assert.False(t, f.events.fellBack)
}

func TestService_CreateOffer_ProposalOutsideBand(t *testing.T) {
	f := newFixture(t)
	in := validOffer()
	in.Price = floatPtr(5000)
	in.StopoverPrices = nil

	rd, err := f.svc.CreateOffer(context.Background(), f.driver.Email, in)
	require.NoError(t, err)

	assert.Equal(t, 650.0, rd.Price)
	// missing proposals take each leg's recommended price
	assert.Equal(t, []float64{330, 460}, rd.StopoverPrices)
}

func TestService_CreateOffer_RoutingFallback(t *testing.T) {
	f := newFixture(t)
	f.svc.router = routing.Unconfigured{}
	in := validOffer()
	in.Price = nil
	in.Stops = []StopInput{{City: "Vellore", Point: "Nowhere"}, {City: "", Point: "  "}}
	in.StopoverPrices = nil

	rd, err := f.svc.CreateOffer(context.Background(), f.driver.Email, in)
	require.NoError(t, err)

	assert.Equal(t, 180.0, rd.DirectDistanceKm)
	assert.Equal(t, 180.0, rd.DistanceKm)
	assert.Equal(t, 200, rd.DurationMinutes)
	assert.Equal(t, 410.0, rd.Price)

	// blank stop dropped, failed geocode keeps the stop without coordinates
	require.Len(t, rd.Stopovers, 1)
	assert.Nil(t, rd.Stopovers[0].Lat)

	// two even 90 km segments
	assert.Equal(t, []float64{250, 250}, rd.StopoverPrices)

	assert.Equal(t, []string{"direct", "route"}, f.events.fallbacks)
	assert.True(t, f.events.fellBack)
}

func TestService_CreateOffer_RoutingFallbackLogsCause(t *testing.T) {
	f := newFixture(t)
	core, logs := observer.New(zap.WarnLevel)
	f.svc.logger = &logger.Logger{Logger: zap.New(core)}
	f.router.err = errors.New("OVER_QUERY_LIMIT")

	_, err := f.svc.CreateOffer(context.Background(), f.driver.Email, validOffer())
	require.NoError(t, err)

	entries := logs.FilterMessage("Routing unavailable, using default travel data").All()
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, "OVER_QUERY_LIMIT", e.ContextMap()["error"])
	}
	assert.Equal(t, "direct", entries[0].ContextMap()["call"])
}

func TestService_CreateOffer_ZeroDirectDistance(t *testing.T) {
	f := newFixture(t)
	f.router.directKm = 0
	in := validOffer()
	in.Stops = nil
	in.Price = nil
	in.StopoverPrices = nil

	rd, err := f.svc.CreateOffer(context.Background(), f.driver.Email, in)
	require.NoError(t, err)

	// a real zero keeps the minimum fare instead of the 180 km default
	assert.Equal(t, 0.0, rd.DirectDistanceKm)
	assert.Equal(t, 50.0, rd.Price)
	assert.Equal(t, 0.0, rd.PricePerKm)
	assert.NotContains(t, f.events.fallbacks, "direct")
	assert.False(t, f.events.fellBack)
}

func TestService_CreateOffer_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*OfferInput)
	}{
		{name: "missing origin", mutate: func(in *OfferInput) { in.Origin = " " }},
		{name: "missing destination", mutate: func(in *OfferInput) { in.Destination = "" }},
		{name: "missing time", mutate: func(in *OfferInput) { in.TravelDateTime = time.Time{} }},
		{name: "past time", mutate: func(in *OfferInput) { in.TravelDateTime = testNow.Add(-time.Minute) }},
		{name: "no seats", mutate: func(in *OfferInput) { in.VehicleCapacity = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			in := validOffer()
			tt.mutate(&in)

			_, err := f.svc.CreateOffer(context.Background(), f.driver.Email, in)
			assert.ErrorIs(t, err, apperrors.ErrInvalidOffer)
			assert.Empty(t, f.notifier.Sent())
		})
	}
}

func TestService_CreateOffer_UnknownRequester(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateOffer(context.Background(), "ghost@corp.example", validOffer())
	assert.ErrorIs(t, err, apperrors.ErrEmployeeNotFound)
}

func TestService_TravelInfo(t *testing.T) {
	f := newFixture(t)

	info := f.svc.TravelInfo(context.Background(), "Chennai", "Bangalore", []string{"", "Vellore"})
	assert.Equal(t, 346.0, info.DistanceKm)
	assert.Equal(t, []string{"Vellore"}, f.router.waypoints)

	f.svc.router = routing.Unconfigured{}
	info = f.svc.TravelInfo(context.Background(), "Chennai", "Bangalore", nil)
	assert.Equal(t, routing.DefaultTravelInfo(), info)
}

func TestService_Quote(t *testing.T) {
	f := newFixture(t)

	q := f.svc.Quote(context.Background(), "Chennai", "Bangalore", []string{"Vellore"})
	assert.Equal(t, 332.0, q.DirectDistanceKm)
	assert.Equal(t, []float64{140, 206}, q.SegmentDistances)
	assert.Equal(t, 650.0, q.Total.RecommendedPrice)
	require.Len(t, q.Segments, 2)
	assert.Equal(t, 330.0, q.Segments[0].RecommendedPrice)

	f.svc.router = routing.Unconfigured{}
	q = f.svc.Quote(context.Background(), "Chennai", "Bangalore", nil)
	assert.Equal(t, 180.0, q.DirectDistanceKm)
	assert.Equal(t, []float64{180}, q.SegmentDistances)
	assert.Equal(t, 410.0, q.Total.RecommendedPrice)
}

func TestService_Quote_FallbackLogsCause(t *testing.T) {
	f := newFixture(t)
	core, logs := observer.New(zap.WarnLevel)
	f.svc.logger = &logger.Logger{Logger: zap.New(core)}
	f.svc.router = routing.Unconfigured{}

	f.svc.Quote(context.Background(), "Chennai", "Bangalore", nil)

	entries := logs.FilterField(zap.String("call", "direct")).All()
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].ContextMap()["error"], "no maps api key configured")
}
