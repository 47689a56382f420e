package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

// ErrNoMatch is returned when the geocoding service has no result for a
// query or coordinate.
var ErrNoMatch = errors.New("geo: no matching place")

// StatusError reports a non-success HTTP status from the geocoding API.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("geocoding API error (status %d): %s", e.StatusCode, e.Body)
}

// Place is a canonical place record resolved by geocoding.
type Place struct {
	Name    string  `json:"name"`
	Country string  `json:"country"` // ISO-3166 alpha-2
	State   string  `json:"state,omitempty"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// Key returns the identity used for deduplication.
func (p Place) Key() string {
	return p.Name + "\x00" + p.Country
}

// DedupePlaces collapses entries sharing (name, country). The first
// occurrence wins and order is otherwise preserved.
func DedupePlaces(places []Place) []Place {
	seen := make(map[string]bool, len(places))
	out := make([]Place, 0, len(places))
	for _, p := range places {
		if seen[p.Key()] {
			continue
		}
		seen[p.Key()] = true
		out = append(out, p)
	}
	return out
}

// Client talks to the OpenWeatherMap geocoding API.
type Client struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
	Limiter    *rate.Limiter
}

// NewClient creates a geocoding client. The limiter is shared with the
// weather client so both stay inside the free-tier quota; it may be nil.
func NewClient(apiKey string, limiter *rate.Limiter) *Client {
	return &Client{
		APIKey:  apiKey,
		BaseURL: "https://api.openweathermap.org/geo/1.0",
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		Limiter: limiter,
	}
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait canceled: %w", err)
		}
	}

	params.Set("appid", c.APIKey)
	req, err := http.NewRequestWithContext(ctx, "GET", c.BaseURL+endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	return body, nil
}

// ForwardSearch resolves a free-text place name to candidate places, in
// service order. An empty result slice is not an error here; interactive
// flows that need exactly one hit map it to ErrNoMatch themselves.
func (c *Client) ForwardSearch(ctx context.Context, query string, limit int) ([]Place, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(limit))

	data, err := c.get(ctx, "/direct", params)
	if err != nil {
		return nil, err
	}

	var places []Place
	if err := json.Unmarshal(data, &places); err != nil {
		return nil, fmt.Errorf("failed to parse geocoding response: %w", err)
	}
	return places, nil
}

// ReverseLookup resolves a coordinate to its nearest place. Returns
// ErrNoMatch when the service has nothing; callers must not treat reverse
// failure as fatal.
func (c *Client) ReverseLookup(ctx context.Context, lat, lon float64) (*Place, error) {
	params := url.Values{}
	params.Set("lat", fmt.Sprintf("%.6f", lat))
	params.Set("lon", fmt.Sprintf("%.6f", lon))
	params.Set("limit", "1")

	data, err := c.get(ctx, "/reverse", params)
	if err != nil {
		return nil, err
	}

	var places []Place
	if err := json.Unmarshal(data, &places); err != nil {
		return nil, fmt.Errorf("failed to parse reverse geocoding response: %w", err)
	}
	if len(places) == 0 {
		return nil, ErrNoMatch
	}
	return &places[0], nil
}
