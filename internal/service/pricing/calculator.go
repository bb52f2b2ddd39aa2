package pricing

import (
	"math"

	"github.com/homeride/backend/pkg/logger"
)

// Service computes recommended prices and the bands a driver may price within.
// It holds no mutable state and is safe for concurrent use.
type Service struct {
	config Config
	logger *logger.Logger
}

// Config holds the tariff. It is copied into the Service and never mutated.
type Config struct {
	BaseFare            float64
	MinRecommendedPrice float64

	// Per-km rates by distance tier. ShortTierLimitKM is exclusive,
	// MediumTierLimitKM is inclusive.
	ShortRate         float64
	MediumRate        float64
	LongRate          float64
	ShortTierLimitKM  float64
	MediumTierLimitKM float64

	Total   Band
	Segment Band
}

// Band shapes a PriceRange around the recommended price.
type Band struct {
	MinFactor   float64
	MaxFactor   float64
	AbsoluteMin float64 // floor for the min price
	MinSpread   float64 // max price is at least min price + MinSpread
}

// PriceRange is the band a caller-proposed price is reconciled against.
type PriceRange struct {
	MinPrice         float64 `json:"min_price"`
	MaxPrice         float64 `json:"max_price"`
	RecommendedPrice float64 `json:"recommended_price"`
}

// Contains reports whether price lies inside the band, bounds included.
func (r PriceRange) Contains(price float64) bool {
	return price >= r.MinPrice && price <= r.MaxPrice
}

// Clamp pulls price into the band.
func (r PriceRange) Clamp(price float64) float64 {
	return math.Max(r.MinPrice, math.Min(r.MaxPrice, price))
}

// TotalPrice is the reconciled price of a whole ride.
type TotalPrice struct {
	FinalPrice float64    `json:"final_price"`
	PricePerKm float64    `json:"price_per_km"`
	Range      PriceRange `json:"range"`
	// Accepted is true when the proposed price was kept verbatim.
	Accepted bool `json:"accepted"`
}

// Quote previews the total band and one band per segment.
type Quote struct {
	DirectDistanceKm float64      `json:"direct_distance_km"`
	SegmentDistances []float64    `json:"segment_distances_km"`
	Total            PriceRange   `json:"total"`
	Segments         []PriceRange `json:"segments"`
}

// DefaultConfig returns the production tariff.
func DefaultConfig() Config {
	return Config{
		BaseFare:            50.0,
		MinRecommendedPrice: 50.0,
		ShortRate:           2.2,
		MediumRate:          2.0,
		LongRate:            1.8,
		ShortTierLimitKM:    100,
		MediumTierLimitKM:   300,
		Total: Band{
			MinFactor:   0.6,
			MaxFactor:   1.7,
			AbsoluteMin: 50.0,
			MinSpread:   100.0,
		},
		Segment: Band{
			MinFactor:   0.5,
			MaxFactor:   2.0,
			AbsoluteMin: 30.0,
			MinSpread:   50.0,
		},
	}
}

// NewService creates a new pricing service
func NewService(config Config, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewNop()
	}
	return &Service{
		config: config,
		logger: log,
	}
}

// Config returns a copy of the tariff in use.
func (s *Service) Config() Config {
	return s.config
}

// RecommendedPrice returns the tiered per-km price for a distance, rounded to
// the nearest 10 and never below the minimum recommended price.
func (s *Service) RecommendedPrice(distanceKm float64) float64 {
	if distanceKm <= 0 {
		return s.config.MinRecommendedPrice
	}

	price := s.config.BaseFare + distanceKm*s.rateFor(distanceKm)
	return math.Max(s.config.MinRecommendedPrice, RoundToNearest10(price))
}

func (s *Service) rateFor(distanceKm float64) float64 {
	switch {
	case distanceKm < s.config.ShortTierLimitKM:
		return s.config.ShortRate
	case distanceKm <= s.config.MediumTierLimitKM:
		return s.config.MediumRate
	default:
		return s.config.LongRate
	}
}

// TotalPriceRange returns the band for a whole ride priced on its direct distance.
func (s *Service) TotalPriceRange(totalDistanceKm float64) PriceRange {
	r := s.band(totalDistanceKm, s.config.Total)
	s.logger.Debug("Total price range",
		logger.Float64("distance_km", totalDistanceKm),
		logger.Float64("min", r.MinPrice),
		logger.Float64("recommended", r.RecommendedPrice),
		logger.Float64("max", r.MaxPrice),
	)
	return r
}

// SegmentPriceRange returns the band for a single leg priced on its own distance.
func (s *Service) SegmentPriceRange(segmentDistanceKm float64) PriceRange {
	return s.band(segmentDistanceKm, s.config.Segment)
}

func (s *Service) band(distanceKm float64, b Band) PriceRange {
	recommended := s.RecommendedPrice(distanceKm)

	minPrice := math.Max(b.AbsoluteMin, RoundToNearest10(recommended*b.MinFactor))
	maxPrice := math.Max(minPrice+b.MinSpread, RoundToNearest10(recommended*b.MaxFactor))

	return PriceRange{
		MinPrice:         minPrice,
		MaxPrice:         maxPrice,
		RecommendedPrice: recommended,
	}
}

// ReconcileTotalPrice keeps a proposed price only when it falls inside the
// total band, otherwise the recommended price wins.
func (s *Service) ReconcileTotalPrice(directDistanceKm float64, proposed *float64) TotalPrice {
	r := s.TotalPriceRange(directDistanceKm)

	result := TotalPrice{FinalPrice: r.RecommendedPrice, Range: r}
	if proposed != nil && r.Contains(*proposed) {
		result.FinalPrice = *proposed
		result.Accepted = true
	}

	if directDistanceKm > 0 {
		result.PricePerKm = result.FinalPrice / directDistanceKm
	}

	return result
}

// SegmentDistances picks one distance per segment: the provider's leg
// distances when they line up with the path, otherwise the direct distance
// split evenly.
func SegmentDistances(directDistanceKm float64, legDistancesKm []float64, segmentCount int) []float64 {
	if segmentCount < 1 {
		return nil
	}

	if len(legDistancesKm) == segmentCount {
		out := make([]float64, segmentCount)
		copy(out, legDistancesKm)
		return out
	}

	perSegment := directDistanceKm / float64(segmentCount)
	out := make([]float64, segmentCount)
	for i := range out {
		out[i] = perSegment
	}
	return out
}

// ReconcileSegmentPrices prices every segment on its own distance. A proposed
// price at index i is clamped into that segment's band and rounded to the
// nearest 10; missing proposals fall back to the segment's recommended price.
// Segment prices are independent of each other and of the total price.
func (s *Service) ReconcileSegmentPrices(segmentDistancesKm []float64, proposed []float64) []float64 {
	prices := make([]float64, len(segmentDistancesKm))

	for i, distance := range segmentDistancesKm {
		r := s.SegmentPriceRange(distance)

		price := r.RecommendedPrice
		if i < len(proposed) {
			price = RoundToNearest10(r.Clamp(proposed[i]))
		}
		prices[i] = price

		s.logger.Debug("Segment priced",
			logger.Int("segment", i+1),
			logger.Float64("distance_km", distance),
			logger.Float64("min", r.MinPrice),
			logger.Float64("max", r.MaxPrice),
			logger.Float64("price", price),
		)
	}

	return prices
}

// Quote builds a price preview for a route before it is offered.
func (s *Service) Quote(directDistanceKm float64, segmentDistancesKm []float64) Quote {
	segments := make([]PriceRange, len(segmentDistancesKm))
	for i, d := range segmentDistancesKm {
		segments[i] = s.SegmentPriceRange(d)
	}
	return Quote{
		DirectDistanceKm: directDistanceKm,
		SegmentDistances: segmentDistancesKm,
		Total:            s.TotalPriceRange(directDistanceKm),
		Segments:         segments,
	}
}

// RoundToNearest10 rounds to the nearest multiple of 10, halves away from zero.
func RoundToNearest10(value float64) float64 {
	return math.Round(value/10) * 10
}
