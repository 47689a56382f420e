package weather

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/patrickmn/go-cache"
)

// Source is anything that can fetch the three weather resources for a
// coordinate. *Client implements it.
type Source interface {
	Current(ctx context.Context, coord Coordinate) (*Current, error)
	Forecast(ctx context.Context, coord Coordinate) ([]Sample, error)
	AirQuality(ctx context.Context, coord Coordinate) (*AirQuality, error)
}

var _ Source = (*Client)(nil)

// Service fetches weather bundles, with a short-lived in-memory cache to
// keep repeated lookups for the same spot off the API.
type Service struct {
	source Source
	cache  *cache.Cache
}

// NewService creates a weather service. ttl bounds how long a fetched
// bundle may be served from cache.
func NewService(source Source, ttl time.Duration) *Service {
	return &Service{
		source: source,
		cache:  cache.New(ttl, 2*ttl),
	}
}

// cacheKey rounds to 2 decimal places (approx 1.1km) so nearby lookups
// share an entry.
func cacheKey(coord Coordinate) string {
	const precision = 100.0
	return fmt.Sprintf("%.2f:%.2f",
		math.Round(coord.Lat*precision)/precision,
		math.Round(coord.Lon*precision)/precision)
}

// FetchBundle fetches current conditions, the 3-hourly forecast and the
// air-quality sample for a coordinate. Current and forecast are mandatory:
// if either fails the whole bundle fails and the caller keeps whatever it
// had before. Air quality is best-effort; on failure Bundle.Air is nil.
func (s *Service) FetchBundle(ctx context.Context, coord Coordinate) (*Bundle, error) {
	if !coord.Valid() {
		return nil, fmt.Errorf("invalid coordinate (%.4f, %.4f)", coord.Lat, coord.Lon)
	}

	key := cacheKey(coord)
	if cached, found := s.cache.Get(key); found {
		return cached.(*Bundle), nil
	}

	current, err := s.source.Current(ctx, coord)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch current weather: %w", err)
	}

	samples, err := s.source.Forecast(ctx, coord)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch forecast: %w", err)
	}

	bundle := &Bundle{
		Current:   *current,
		Samples:   samples,
		FetchedAt: time.Now(),
	}

	if air, err := s.source.AirQuality(ctx, coord); err != nil {
		log.Printf("Air quality unavailable for (%.4f, %.4f): %v", coord.Lat, coord.Lon, err)
	} else {
		bundle.Air = air
	}

	s.cache.Set(key, bundle, cache.DefaultExpiration)
	return bundle, nil
}

// Invalidate drops any cached bundle for the coordinate, forcing the next
// FetchBundle to hit the API. Used by manual refresh.
func (s *Service) Invalidate(coord Coordinate) {
	s.cache.Delete(cacheKey(coord))
}
