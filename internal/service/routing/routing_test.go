package routing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	info       TravelInfo
	km         float64
	err        error
	routeCalls int
	directCall int
}

func (f *fakeProvider) Route(_ context.Context, _, _ string, _ []string) (TravelInfo, error) {
	f.routeCalls++
	if f.err != nil {
		return TravelInfo{}, f.err
	}
	return f.info, nil
}

func (f *fakeProvider) DirectDistance(_ context.Context, _, _ string) (float64, error) {
	f.directCall++
	if f.err != nil {
		return 0, f.err
	}
	return f.km, nil
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestDefaultTravelInfo(t *testing.T) {
	info := DefaultTravelInfo()

	assert.Equal(t, 180.0, info.DistanceKm)
	assert.Equal(t, 200, info.DurationMinutes)
	assert.Equal(t, "Default Route", info.Summary)
	assert.Empty(t, info.Polyline)
	assert.Empty(t, info.LegDistancesKm)
	assert.True(t, info.Fallback)
}

func TestOrDefault(t *testing.T) {
	resolved := TravelInfo{DistanceKm: 350, DurationMinutes: 360, LegDistancesKm: []float64{140, 210}}

	got, fellBack := OrDefault(resolved, nil)
	assert.False(t, fellBack)
	assert.Equal(t, resolved, got)

	got, fellBack = OrDefault(TravelInfo{}, unavailable("route", errors.New("boom")))
	assert.True(t, fellBack)
	assert.Equal(t, DefaultTravelInfo(), got)
}

func TestDistanceOrDefault(t *testing.T) {
	km, fellBack := DistanceOrDefault(332.5, nil)
	assert.False(t, fellBack)
	assert.Equal(t, 332.5, km)

	km, fellBack = DistanceOrDefault(0, errors.New("down"))
	assert.True(t, fellBack)
	assert.Equal(t, 180.0, km)

	// same origin and destination
	km, fellBack = DistanceOrDefault(0, nil)
	assert.False(t, fellBack)
	assert.Equal(t, 0.0, km)
}

func TestUnconfigured(t *testing.T) {
	ctx := context.Background()
	var p Unconfigured

	_, err := p.Route(ctx, "Chennai", "Bangalore", nil)
	assert.ErrorIs(t, err, ErrProviderUnavailable)

	_, err = p.DirectDistance(ctx, "Chennai", "Bangalore")
	assert.ErrorIs(t, err, ErrProviderUnavailable)

	_, err = p.Geocode(ctx, "Vellore Fort")
	assert.ErrorIs(t, err, ErrProviderUnavailable)
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = p.ReverseGeocode(ctx, Location{Lat: 12.97, Lng: 77.59})
	assert.ErrorIs(t, err, ErrProviderUnavailable)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestCachedProvider_Route(t *testing.T) {
	_, client := newRedis(t)
	next := &fakeProvider{info: TravelInfo{DistanceKm: 346, DurationMinutes: 380, Summary: "NH48", LegDistancesKm: []float64{140, 206}}}
	p := NewCachedProvider(next, client, time.Hour, nil)
	ctx := context.Background()

	first, err := p.Route(ctx, "Chennai", "Bangalore", []string{"Vellore"})
	require.NoError(t, err)

	// different casing and spacing share the entry
	second, err := p.Route(ctx, "  chennai ", "BANGALORE", []string{"vellore"})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, next.routeCalls)

	_, err = p.Route(ctx, "Chennai", "Bangalore", []string{"Krishnagiri"})
	require.NoError(t, err)
	assert.Equal(t, 2, next.routeCalls)
}

func TestCachedProvider_DoesNotCacheFailures(t *testing.T) {
	_, client := newRedis(t)
	next := &fakeProvider{err: unavailable("route", errors.New("timeout"))}
	p := NewCachedProvider(next, client, time.Hour, nil)
	ctx := context.Background()

	_, err := p.Route(ctx, "Pune", "Mumbai", nil)
	assert.ErrorIs(t, err, ErrProviderUnavailable)

	next.err = nil
	next.info = TravelInfo{DistanceKm: 150}

	info, err := p.Route(ctx, "Pune", "Mumbai", nil)
	require.NoError(t, err)
	assert.Equal(t, 150.0, info.DistanceKm)
	assert.Equal(t, 2, next.routeCalls)
}

func TestCachedProvider_DirectDistanceExpires(t *testing.T) {
	mr, client := newRedis(t)
	next := &fakeProvider{km: 332}
	p := NewCachedProvider(next, client, time.Minute, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		km, err := p.DirectDistance(ctx, "Chennai", "Bangalore")
		require.NoError(t, err)
		assert.Equal(t, 332.0, km)
	}
	assert.Equal(t, 1, next.directCall)

	mr.FastForward(2 * time.Minute)

	_, err := p.DirectDistance(ctx, "Chennai", "Bangalore")
	require.NoError(t, err)
	assert.Equal(t, 2, next.directCall)
}

func TestCachedProvider_RedisDown(t *testing.T) {
	mr, client := newRedis(t)
	next := &fakeProvider{km: 95}
	p := NewCachedProvider(next, client, time.Minute, nil)
	mr.Close()

	km, err := p.DirectDistance(context.Background(), "Pune", "Lonavala")
	require.NoError(t, err)
	assert.Equal(t, 95.0, km)
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, cacheKey("route", "A", "B"), cacheKey("route", " a ", "b"))
	assert.NotEqual(t, cacheKey("route", "ab", "c"), cacheKey("route", "a", "bc"))
	assert.NotEqual(t, cacheKey("route", "a", "b"), cacheKey("direct", "a", "b"))
}

func TestIsTransient(t *testing.T) {
	assert.True(t, isTransient(errors.New("maps: OVER_QUERY_LIMIT - slow down")))
	assert.False(t, isTransient(errors.New("maps: ZERO_RESULTS")))
	assert.False(t, isTransient(context.Canceled))
}

func TestMetersToKm(t *testing.T) {
	assert.Equal(t, 1.5, metersToKm(1500))
	assert.Equal(t, 0.0, metersToKm(0))
}
