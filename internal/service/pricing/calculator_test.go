package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService() *Service {
	return NewService(DefaultConfig(), nil)
}

func floatPtr(v float64) *float64 {
	return &v
}

// TestRecommendedPrice_Tiers tests the per-km rate boundaries
func TestRecommendedPrice_Tiers(t *testing.T) {
	service := newTestService()

	tests := []struct {
		name       string
		distanceKm float64
		expected   float64
	}{
		{name: "short tier just under limit", distanceKm: 99, expected: 270},    // 50 + 99*2.2 = 267.8
		{name: "medium tier lower bound", distanceKm: 100, expected: 250},       // 50 + 100*2.0
		{name: "medium tier upper bound", distanceKm: 300, expected: 650},       // 50 + 300*2.0
		{name: "long tier just over limit", distanceKm: 301, expected: 590},     // 50 + 301*1.8 = 591.8
		{name: "short segment", distanceKm: 50, expected: 160},                  // 50 + 50*2.2
		{name: "medium segment", distanceKm: 150, expected: 350},                // 50 + 150*2.0
		{name: "long segment", distanceKm: 400, expected: 770},                  // 50 + 400*1.8
		{name: "zero distance falls back to minimum", distanceKm: 0, expected: 50},
		{name: "negative distance falls back to minimum", distanceKm: -5, expected: 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, service.RecommendedPrice(tt.distanceKm))
		})
	}
}

func TestRecommendedPrice_NeverBelowMinimum(t *testing.T) {
	service := newTestService()

	for _, d := range []float64{0.1, 0.5, 1, 3} {
		assert.GreaterOrEqual(t, service.RecommendedPrice(d), 50.0, "distance %v", d)
	}
}

func TestRoundToNearest10(t *testing.T) {
	assert.Equal(t, 270.0, RoundToNearest10(267.8))
	assert.Equal(t, 590.0, RoundToNearest10(591.8))
	assert.Equal(t, 30.0, RoundToNearest10(25))
	assert.Equal(t, 0.0, RoundToNearest10(4))
}

func TestTotalPriceRange_ZeroDistance(t *testing.T) {
	service := newTestService()

	r := service.TotalPriceRange(0)

	// min 0.6*50=30 floors to 50, max 1.7*50=85 -> 90 is lifted to min+100
	assert.Equal(t, PriceRange{MinPrice: 50, MaxPrice: 150, RecommendedPrice: 50}, r)
}

func TestTotalPriceRange_Invariants(t *testing.T) {
	service := newTestService()

	for _, d := range []float64{1, 10, 42, 99, 100, 180, 250, 300, 301, 750, 2000} {
		r := service.TotalPriceRange(d)

		assert.LessOrEqual(t, r.MinPrice, r.RecommendedPrice, "distance %v", d)
		assert.LessOrEqual(t, r.RecommendedPrice, r.MaxPrice, "distance %v", d)
		assert.GreaterOrEqual(t, r.MinPrice, 50.0, "distance %v", d)
		assert.GreaterOrEqual(t, r.MaxPrice-r.MinPrice, 100.0, "distance %v", d)
	}
}

func TestSegmentPriceRange(t *testing.T) {
	service := newTestService()

	t.Run("50km segment", func(t *testing.T) {
		// rec 160, min 0.5*160=80, max 2.0*160=320
		assert.Equal(t, PriceRange{MinPrice: 80, MaxPrice: 320, RecommendedPrice: 160}, service.SegmentPriceRange(50))
	})

	t.Run("zero distance segment", func(t *testing.T) {
		r := service.SegmentPriceRange(0)
		assert.Equal(t, 30.0, r.MinPrice)
		assert.Equal(t, 100.0, r.MaxPrice)
		assert.Equal(t, 50.0, r.RecommendedPrice)
	})

	t.Run("invariants", func(t *testing.T) {
		for _, d := range []float64{1, 5, 25, 50, 99, 150, 300, 400, 1000} {
			r := service.SegmentPriceRange(d)
			assert.LessOrEqual(t, r.MinPrice, r.RecommendedPrice, "distance %v", d)
			assert.LessOrEqual(t, r.RecommendedPrice, r.MaxPrice, "distance %v", d)
			assert.GreaterOrEqual(t, r.MinPrice, 30.0, "distance %v", d)
			assert.GreaterOrEqual(t, r.MaxPrice-r.MinPrice, 50.0, "distance %v", d)
		}
	})
}

func TestReconcileTotalPrice(t *testing.T) {
	service := newTestService()

	t.Run("proposed price inside band is kept", func(t *testing.T) {
		result := service.ReconcileTotalPrice(100, floatPtr(200))

		assert.True(t, result.Accepted)
		assert.Equal(t, 200.0, result.FinalPrice)
		assert.InDelta(t, 2.0, result.PricePerKm, 1e-9)
	})

	t.Run("proposed price below band is replaced", func(t *testing.T) {
		result := service.ReconcileTotalPrice(100, floatPtr(100))

		assert.False(t, result.Accepted)
		assert.Equal(t, 250.0, result.FinalPrice)
	})

	t.Run("proposed price above band is replaced", func(t *testing.T) {
		result := service.ReconcileTotalPrice(100, floatPtr(10000))

		assert.False(t, result.Accepted)
		assert.Equal(t, 250.0, result.FinalPrice)
	})

	t.Run("band bounds are inclusive", func(t *testing.T) {
		r := service.TotalPriceRange(100)

		assert.Equal(t, r.MinPrice, service.ReconcileTotalPrice(100, floatPtr(r.MinPrice)).FinalPrice)
		assert.Equal(t, r.MaxPrice, service.ReconcileTotalPrice(100, floatPtr(r.MaxPrice)).FinalPrice)
	})

	t.Run("missing proposal uses recommended", func(t *testing.T) {
		result := service.ReconcileTotalPrice(180, nil)

		assert.Equal(t, service.RecommendedPrice(180), result.FinalPrice)
		assert.Equal(t, 410.0, result.FinalPrice) // 50 + 180*2.0
	})

	t.Run("zero distance has no per-km price", func(t *testing.T) {
		result := service.ReconcileTotalPrice(0, nil)

		assert.Equal(t, 50.0, result.FinalPrice)
		assert.Zero(t, result.PricePerKm)
	})
}

func TestSegmentDistances(t *testing.T) {
	t.Run("uses leg distances when counts match", func(t *testing.T) {
		got := SegmentDistances(600, []float64{50, 150, 400}, 3)
		assert.Equal(t, []float64{50, 150, 400}, got)
	})

	t.Run("splits evenly when legs are missing", func(t *testing.T) {
		got := SegmentDistances(300, nil, 3)
		assert.Equal(t, []float64{100, 100, 100}, got)
	})

	t.Run("splits evenly when leg count disagrees", func(t *testing.T) {
		got := SegmentDistances(200, []float64{120}, 2)
		assert.Equal(t, []float64{100, 100}, got)
	})

	t.Run("no segments", func(t *testing.T) {
		assert.Nil(t, SegmentDistances(200, nil, 0))
	})

	t.Run("does not alias the input", func(t *testing.T) {
		legs := []float64{10, 20}
		got := SegmentDistances(30, legs, 2)
		got[0] = 999
		assert.Equal(t, 10.0, legs[0])
	})
}

func TestReconcileSegmentPrices(t *testing.T) {
	service := newTestService()

	t.Run("segments are priced independently", func(t *testing.T) {
		prices := service.ReconcileSegmentPrices([]float64{50, 150, 400}, nil)

		require.Len(t, prices, 3)
		assert.Equal(t, []float64{160, 350, 770}, prices)
	})

	t.Run("proposals are clamped and rounded", func(t *testing.T) {
		// 50km band is [80, 320]
		prices := service.ReconcileSegmentPrices(
			[]float64{50, 50, 50, 50},
			[]float64{20, 83, 86, 1000},
		)

		assert.Equal(t, []float64{80, 80, 90, 320}, prices)
	})

	t.Run("short proposal list falls back per segment", func(t *testing.T) {
		prices := service.ReconcileSegmentPrices([]float64{50, 150}, []float64{100})

		assert.Equal(t, []float64{100, 350}, prices)
	})

	t.Run("every price lands inside its band", func(t *testing.T) {
		distances := []float64{12, 75, 230, 410}
		proposed := []float64{1, 5000, 250, 0}

		prices := service.ReconcileSegmentPrices(distances, proposed)
		for i, d := range distances {
			r := service.SegmentPriceRange(d)
			assert.GreaterOrEqual(t, prices[i], r.MinPrice, "segment %d", i)
			assert.LessOrEqual(t, prices[i], r.MaxPrice, "segment %d", i)
		}
	})
}

func TestQuote(t *testing.T) {
	service := newTestService()

	q := service.Quote(600, []float64{50, 150, 400})

	assert.Equal(t, 600.0, q.DirectDistanceKm)
	assert.Equal(t, service.TotalPriceRange(600), q.Total)
	require.Len(t, q.Segments, 3)
	assert.Equal(t, 160.0, q.Segments[0].RecommendedPrice)
	assert.Equal(t, 350.0, q.Segments[1].RecommendedPrice)
	assert.Equal(t, 770.0, q.Segments[2].RecommendedPrice)
}

func TestConfig_IsCopied(t *testing.T) {
	cfg := DefaultConfig()
	service := NewService(cfg, nil)

	cfg.BaseFare = 1000
	assert.Equal(t, 50.0, service.Config().BaseFare)
}
