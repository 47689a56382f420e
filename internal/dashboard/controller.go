// Package dashboard owns the mutable view state and the flows that
// mutate it: search, selection, geolocation, manual and periodic refresh.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/AnkitRajMaurya/weather-project/internal/geo"
	"github.com/AnkitRajMaurya/weather-project/internal/history"
	"github.com/AnkitRajMaurya/weather-project/internal/weather"
)

// Place is the active location shown on the dashboard.
type Place struct {
	Name    string             `json:"name"`
	Country string             `json:"country"`
	Coord   weather.Coordinate `json:"coord"`
}

// State is the single record every widget reads. It is mutated only by
// the controller's fetch-completion and selection flows.
type State struct {
	Place   Place           `json:"place"`
	Bundle  *weather.Bundle `json:"bundle,omitempty"`
	History []history.Entry `json:"history"`
	Loading bool            `json:"loading"`
}

// BundleFetcher fetches weather bundles. *weather.Service satisfies it.
type BundleFetcher interface {
	FetchBundle(ctx context.Context, coord weather.Coordinate) (*weather.Bundle, error)
	Invalidate(coord weather.Coordinate)
}

// Geocoder resolves place names and coordinates. *geo.Client satisfies it.
type Geocoder interface {
	ForwardSearch(ctx context.Context, query string, limit int) ([]geo.Place, error)
	ReverseLookup(ctx context.Context, lat, lon float64) (*geo.Place, error)
}

// HistoryStore persists the recent-searches list. *history.Store
// satisfies it.
type HistoryStore interface {
	Load(ctx context.Context) []history.Entry
	Record(ctx context.Context, entry history.Entry) error
}

// Config wires a Controller's collaborators.
type Config struct {
	Fetcher  BundleFetcher
	Geocoder Geocoder
	History  HistoryStore
	Locator  Locator
	Notifier Notifier

	DefaultPlace    Place
	RefreshInterval time.Duration
}

// Controller serializes all State writes and tags each fetch with a
// generation so a slow completion can never clobber a newer one.
type Controller struct {
	fetcher  BundleFetcher
	geocoder Geocoder
	store    HistoryStore
	locator  Locator
	notifier Notifier

	defaultPlace    Place
	refreshInterval time.Duration

	mu    sync.Mutex
	state State
	gen   uint64
}

// New creates a controller seeded with the default place and whatever
// history survived the last run.
func New(cfg Config) *Controller {
	c := &Controller{
		fetcher:         cfg.Fetcher,
		geocoder:        cfg.Geocoder,
		store:           cfg.History,
		locator:         cfg.Locator,
		notifier:        cfg.Notifier,
		defaultPlace:    cfg.DefaultPlace,
		refreshInterval: cfg.RefreshInterval,
	}
	if c.notifier == nil {
		c.notifier = NopNotifier{}
	}
	if c.refreshInterval <= 0 {
		c.refreshInterval = 10 * time.Minute
	}
	c.state.Place = cfg.DefaultPlace
	if c.store != nil {
		c.state.History = c.store.Load(context.Background())
	}
	return c
}

// Snapshot returns a copy of the current state for rendering.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := c.state
	snap.History = append([]history.Entry(nil), c.state.History...)
	return snap
}

// fetch runs one generation-tagged bundle fetch for place. On failure the
// prior state is left untouched. A completion that has been superseded by
// a newer fetch is discarded.
func (c *Controller) fetch(ctx context.Context, place Place) error {
	c.mu.Lock()
	c.gen++
	gen := c.gen
	c.state.Loading = true
	c.mu.Unlock()

	bundle, err := c.fetcher.FetchBundle(ctx, place.Coord)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		// A newer fetch started while this one was in flight.
		return nil
	}
	c.state.Loading = false
	if err != nil {
		return err
	}
	c.state.Place = place
	c.state.Bundle = bundle
	return nil
}

// Refresh re-fetches the bundle for the active place, bypassing the
// bundle cache. Used by the manual refresh buttons and the periodic timer.
func (c *Controller) Refresh(ctx context.Context) error {
	c.mu.Lock()
	place := c.state.Place
	c.mu.Unlock()

	c.fetcher.Invalidate(place.Coord)
	if err := c.fetch(ctx, place); err != nil {
		c.notifier.Notify(NoticeError, "Failed to load weather data")
		return err
	}
	return nil
}

// Select makes place the active location, fetches its bundle and records
// it in the search history.
func (c *Controller) Select(ctx context.Context, place Place) error {
	if err := c.fetch(ctx, place); err != nil {
		c.notifier.Notify(NoticeError, "Failed to load weather data")
		return err
	}

	c.recordHistory(ctx, place)
	c.notifier.Notify(NoticeSuccess, fmt.Sprintf("Weather loaded for %s", place.Name))
	return nil
}

// Search resolves a free-text city name (the Enter-key path, bypassing
// autocomplete) and selects the first match. Zero matches surface
// geo.ErrNoMatch.
func (c *Controller) Search(ctx context.Context, query string) error {
	query = strings.TrimSpace(query)
	if query == "" {
		c.notifier.Notify(NoticeWarning, "Please enter a city name")
		return errors.New("empty search query")
	}

	places, err := c.geocoder.ForwardSearch(ctx, query, 1)
	if err != nil {
		c.notifier.Notify(NoticeError, "Error searching for city")
		return err
	}
	if len(places) == 0 {
		c.notifier.Notify(NoticeError, "City not found. Please check spelling.")
		return geo.ErrNoMatch
	}

	p := places[0]
	return c.Select(ctx, Place{
		Name:    p.Name,
		Country: p.Country,
		Coord:   weather.Coordinate{Lat: p.Lat, Lon: p.Lon},
	})
}

// UseDeviceLocation asks the configured Locator for a position.
func (c *Controller) UseDeviceLocation(ctx context.Context) error {
	return c.LocateWith(ctx, c.locator)
}

// LocateWith resolves the dashboard location through loc. Any geolocation
// failure degrades to the default place with a reason-specific message;
// a failed reverse lookup keeps the raw coordinate under a placeholder
// name. Device locations are not recorded in the search history.
func (c *Controller) LocateWith(ctx context.Context, loc Locator) error {
	if loc == nil {
		return c.useDefault(ctx, "Geolocation not supported")
	}

	coord, err := loc.Locate(ctx)
	if err != nil {
		var locErr *LocationError
		msg := "Geolocation failed"
		if errors.As(err, &locErr) {
			switch locErr.Reason {
			case PermissionDenied:
				msg = "Location access denied"
			case PositionUnavailable:
				msg = "Location unavailable"
			case LocationTimeout:
				msg = "Location timeout"
			}
		}
		return c.useDefault(ctx, msg)
	}

	place := Place{Name: "Current location", Coord: coord}
	if p, err := c.geocoder.ReverseLookup(ctx, coord.Lat, coord.Lon); err != nil {
		log.Printf("Reverse geocode failed for (%.4f, %.4f): %v", coord.Lat, coord.Lon, err)
	} else {
		place.Name = p.Name
		place.Country = p.Country
	}

	if err := c.fetch(ctx, place); err != nil {
		c.notifier.Notify(NoticeError, "Failed to load weather data")
		return err
	}
	c.notifier.Notify(NoticeSuccess, fmt.Sprintf("Location: %s", place.Name))
	return nil
}

func (c *Controller) useDefault(ctx context.Context, reason string) error {
	c.notifier.Notify(NoticeWarning,
		fmt.Sprintf("%s. Using %s.", reason, c.defaultPlace.Name))
	if err := c.fetch(ctx, c.defaultPlace); err != nil {
		c.notifier.Notify(NoticeError, "Failed to load weather data")
		return err
	}
	return nil
}

func (c *Controller) recordHistory(ctx context.Context, place Place) {
	if c.store == nil {
		return
	}
	entry := history.Entry{
		City:    place.Name,
		Country: place.Country,
		Lat:     place.Coord.Lat,
		Lon:     place.Coord.Lon,
		When:    time.Now(),
	}
	if err := c.store.Record(ctx, entry); err != nil {
		// Persistence failures degrade silently.
		log.Printf("Could not record search history: %v", err)
	}

	c.mu.Lock()
	c.state.History = c.store.Load(ctx)
	c.mu.Unlock()
}

// Run refreshes the active place on a fixed interval until ctx is
// canceled. A tick that lands while a fetch is still in flight is
// skipped.
func (c *Controller) Run(ctx context.Context) {
	ticker := time.NewTicker(c.refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.mu.Lock()
			busy := c.state.Loading
			c.mu.Unlock()
			if busy {
				continue
			}
			if err := c.Refresh(ctx); err != nil {
				log.Printf("Auto-refresh failed: %v", err)
			}
		}
	}
}
