package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/AnkitRajMaurya/weather-project/internal/dashboard"
	"github.com/AnkitRajMaurya/weather-project/internal/geo"
	"github.com/AnkitRajMaurya/weather-project/internal/suggest"
	"github.com/AnkitRajMaurya/weather-project/internal/weather"
)

// fakeFetcher serves a canned bundle; Air stays nil unless set.
type fakeFetcher struct {
	air *weather.AirQuality
	err error
}

func (f *fakeFetcher) FetchBundle(ctx context.Context, coord weather.Coordinate) (*weather.Bundle, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &weather.Bundle{
		Current: weather.Current{
			Temperature: 25,
			Condition:   weather.Clear,
			WindDeg:     90,
			Sunrise:     time.Now().Add(-6 * time.Hour),
			Sunset:      time.Now().Add(6 * time.Hour),
		},
		Samples: []weather.Sample{
			{Time: time.Now(), Temp: 25, TempMin: 22, TempMax: 27, Condition: weather.Clear},
		},
		Air:       f.air,
		FetchedAt: time.Now(),
	}, nil
}

func (f *fakeFetcher) Invalidate(coord weather.Coordinate) {}

// fakeGeocoder serves canned forward matches.
type fakeGeocoder struct {
	places []geo.Place
}

func (g *fakeGeocoder) ForwardSearch(ctx context.Context, query string, limit int) ([]geo.Place, error) {
	return g.places, nil
}

func (g *fakeGeocoder) ReverseLookup(ctx context.Context, lat, lon float64) (*geo.Place, error) {
	return nil, geo.ErrNoMatch
}

// fixedEstimator pins the UV index so views are deterministic.
type fixedEstimator struct{ index int }

func (f fixedEstimator) UVIndex(hour int) int { return f.index }

func newTestHandlers(fetcher *fakeFetcher, geocoder *fakeGeocoder, notices *NoticeLog) *Handlers {
	if notices == nil {
		notices = NewNoticeLog()
	}
	controller := dashboard.New(dashboard.Config{
		Fetcher:  fetcher,
		Geocoder: geocoder,
		Notifier: notices,
		DefaultPlace: dashboard.Place{
			Name:    "Muzaffarpur",
			Country: "IN",
			Coord:   weather.Coordinate{Lat: 26.1197, Lon: 85.3910},
		},
	})
	engine := suggest.NewEngine(geocoder, 5*time.Millisecond)
	return New(controller, engine, fixedEstimator{index: 6}, notices)
}

// TestHandleHealth tests the health check endpoint.
func TestHandleHealth(t *testing.T) {
	h := newTestHandlers(&fakeFetcher{}, &fakeGeocoder{}, nil)

	req := httptest.NewRequest("GET", "/healthz", nil)
	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("expected status ok, got %q", body["status"])
	}
}

// TestHandleWeather_BeforeFirstFetch tests the initial view: default place,
// no current conditions, UV still synthesized.
func TestHandleWeather_BeforeFirstFetch(t *testing.T) {
	h := newTestHandlers(&fakeFetcher{}, &fakeGeocoder{}, nil)

	req := httptest.NewRequest("GET", "/api/weather", nil)
	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var view WeatherView
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("failed to decode view: %v", err)
	}
	if view.Place.Name != "Muzaffarpur" {
		t.Errorf("expected default place, got %+v", view.Place)
	}
	if view.Current != nil {
		t.Error("expected no current conditions before first fetch")
	}
	if view.UV.Index != 6 || view.UV.Level.Label != "High" {
		t.Errorf("unexpected UV view: %+v", view.UV)
	}
	if view.History == nil {
		t.Error("expected history to encode as an empty list, not null")
	}
}

// TestHandleRefresh_AirUnavailable tests that a bundle without air quality
// renders Available=false rather than zeros.
func TestHandleRefresh_AirUnavailable(t *testing.T) {
	h := newTestHandlers(&fakeFetcher{air: nil}, &fakeGeocoder{}, nil)

	req := httptest.NewRequest("POST", "/api/refresh", nil)
	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var view WeatherView
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("failed to decode view: %v", err)
	}
	if view.Air.Available {
		t.Error("expected air quality to be unavailable")
	}
	if view.Current == nil {
		t.Fatal("expected current conditions after refresh")
	}
	if view.Current.WindLabel != "East" {
		t.Errorf("expected wind label East, got %q", view.Current.WindLabel)
	}
}

// TestHandleRefresh_AirAvailable tests the derived air-quality view.
func TestHandleRefresh_AirAvailable(t *testing.T) {
	fetcher := &fakeFetcher{air: &weather.AirQuality{Index: 7, PM25: 40}}
	h := newTestHandlers(fetcher, &fakeGeocoder{}, nil)

	req := httptest.NewRequest("POST", "/api/refresh", nil)
	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, req)

	var view WeatherView
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("failed to decode view: %v", err)
	}
	if !view.Air.Available {
		t.Fatal("expected air quality to be available")
	}
	if view.Air.Display != 100 {
		t.Errorf("expected display AQI 100, got %d", view.Air.Display)
	}
	if view.Air.Level.Label != "Very Poor" {
		t.Errorf("expected out-of-range index to clamp to Very Poor, got %q", view.Air.Level.Label)
	}
}

// TestHandleRefresh_UpstreamFailure tests the 502 path.
func TestHandleRefresh_UpstreamFailure(t *testing.T) {
	h := newTestHandlers(&fakeFetcher{err: errors.New("upstream down")}, &fakeGeocoder{}, nil)

	req := httptest.NewRequest("POST", "/api/refresh", nil)
	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Errorf("expected status 502, got %d", rec.Code)
	}
}

// TestHandleSuggest tests fresh suggestions for a settled query.
func TestHandleSuggest(t *testing.T) {
	geocoder := &fakeGeocoder{
		places: []geo.Place{{Name: "Tokyo", Country: "JP", Lat: 35.6895, Lon: 139.6917}},
	}
	h := newTestHandlers(&fakeFetcher{}, geocoder, nil)

	req := httptest.NewRequest("GET", "/api/suggest?q=Tokyo", nil)
	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var places []geo.Place
	if err := json.Unmarshal(rec.Body.Bytes(), &places); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if len(places) != 1 || places[0].Name != "Tokyo" {
		t.Errorf("unexpected places: %+v", places)
	}
}

// TestHandleSuggest_ShortQuery tests that short input yields an empty list,
// not null and not an error.
func TestHandleSuggest_ShortQuery(t *testing.T) {
	h := newTestHandlers(&fakeFetcher{}, &fakeGeocoder{}, nil)

	req := httptest.NewRequest("GET", "/api/suggest?q=T", nil)
	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Errorf("expected empty JSON list, got %q", body)
	}
}

// TestHandleSearch_NotFound tests the 404 path for unknown cities.
func TestHandleSearch_NotFound(t *testing.T) {
	h := newTestHandlers(&fakeFetcher{}, &fakeGeocoder{}, nil)

	req := httptest.NewRequest("GET", "/api/search?q=Xyzzyville", nil)
	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", rec.Code)
	}
}

// TestHandleSearch tests the Enter-key path returning the updated view.
func TestHandleSearch(t *testing.T) {
	geocoder := &fakeGeocoder{
		places: []geo.Place{{Name: "Tokyo", Country: "JP", Lat: 35.6895, Lon: 139.6917}},
	}
	h := newTestHandlers(&fakeFetcher{}, geocoder, nil)

	req := httptest.NewRequest("GET", "/api/search?q=Tokyo", nil)
	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var view WeatherView
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("failed to decode view: %v", err)
	}
	if view.Place.Name != "Tokyo" {
		t.Errorf("expected active place Tokyo, got %+v", view.Place)
	}
}

// TestHandleSelect tests activating a dropdown pick.
func TestHandleSelect(t *testing.T) {
	h := newTestHandlers(&fakeFetcher{}, &fakeGeocoder{}, nil)

	body := `{"name": "Tokyo", "country": "JP", "lat": 35.6895, "lon": 139.6917}`
	req := httptest.NewRequest("POST", "/api/select", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var view WeatherView
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("failed to decode view: %v", err)
	}
	if view.Place.Name != "Tokyo" || view.Place.Coord.Lat != 35.6895 {
		t.Errorf("unexpected active place: %+v", view.Place)
	}
}

// TestHandleSelect_Invalid tests body and range validation.
func TestHandleSelect_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "malformed json", body: `{not json`},
		{name: "missing name", body: `{"lat": 10, "lon": 10}`},
		{name: "latitude out of range", body: `{"name": "Nowhere", "lat": 95, "lon": 10}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandlers(&fakeFetcher{}, &fakeGeocoder{}, nil)

			req := httptest.NewRequest("POST", "/api/select", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			h.Router().ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected status 400, got %d", rec.Code)
			}
		})
	}
}

// TestHandleLocate_Success tests a browser-reported position flowing into
// the view.
func TestHandleLocate_Success(t *testing.T) {
	h := newTestHandlers(&fakeFetcher{}, &fakeGeocoder{}, nil)

	body := `{"lat": 25.5941, "lon": 85.1376}`
	req := httptest.NewRequest("POST", "/api/locate", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var view WeatherView
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("failed to decode view: %v", err)
	}
	// Reverse lookup fails in the fake, so the placeholder name is kept.
	if view.Place.Name != "Current location" {
		t.Errorf("expected placeholder name, got %q", view.Place.Name)
	}
	if view.Place.Coord.Lat != 25.5941 {
		t.Errorf("unexpected coordinate: %+v", view.Place.Coord)
	}
}

// TestHandleLocate_PermissionDenied tests the degradation path: still a 200,
// default place, warning notice queued.
func TestHandleLocate_PermissionDenied(t *testing.T) {
	notices := NewNoticeLog()
	h := newTestHandlers(&fakeFetcher{}, &fakeGeocoder{}, notices)

	body := `{"error": "permission_denied"}`
	req := httptest.NewRequest("POST", "/api/locate", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var view WeatherView
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("failed to decode view: %v", err)
	}
	if view.Place.Name != "Muzaffarpur" {
		t.Errorf("expected fallback to default place, got %+v", view.Place)
	}

	drained := notices.Drain()
	if len(drained) == 0 {
		t.Fatal("expected a queued notice")
	}
	if drained[0].Level != dashboard.NoticeWarning {
		t.Errorf("expected warning level, got %q", drained[0].Level)
	}
	if drained[0].Message != "Location access denied. Using Muzaffarpur." {
		t.Errorf("unexpected message: %q", drained[0].Message)
	}
}

// TestHandleLocate_UnknownErrorCode tests rejection of unrecognized codes.
func TestHandleLocate_UnknownErrorCode(t *testing.T) {
	h := newTestHandlers(&fakeFetcher{}, &fakeGeocoder{}, nil)

	body := `{"error": "flux_capacitor"}`
	req := httptest.NewRequest("POST", "/api/locate", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rec.Code)
	}
}

// TestHandleNotices_Drains tests that polling empties the queue.
func TestHandleNotices_Drains(t *testing.T) {
	notices := NewNoticeLog()
	notices.Notify(dashboard.NoticeInfo, "hello")
	h := newTestHandlers(&fakeFetcher{}, &fakeGeocoder{}, notices)

	req := httptest.NewRequest("GET", "/api/notices", nil)
	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, req)

	var first []Notice
	if err := json.Unmarshal(rec.Body.Bytes(), &first); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if len(first) != 1 || first[0].Message != "hello" {
		t.Errorf("unexpected notices: %+v", first)
	}

	rec = httptest.NewRecorder()
	h.Router().ServeHTTP(rec, httptest.NewRequest("GET", "/api/notices", nil))

	var second []Notice
	if err := json.Unmarshal(rec.Body.Bytes(), &second); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if len(second) != 0 {
		t.Errorf("expected drained queue, got %+v", second)
	}
}
