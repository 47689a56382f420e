// Package handlers is the HTTP adapter over the dashboard controller:
// it translates requests into controller operations and renders state
// snapshots as JSON view-models.
package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/AnkitRajMaurya/weather-project/internal/dashboard"
	"github.com/AnkitRajMaurya/weather-project/internal/geo"
	"github.com/AnkitRajMaurya/weather-project/internal/suggest"
	"github.com/AnkitRajMaurya/weather-project/internal/weather"
)

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	controller *dashboard.Controller
	engine     *suggest.Engine
	uv         weather.UVEstimator
	notices    *NoticeLog
}

// New creates a Handlers instance. notices may be the same NoticeLog the
// controller was given as its Notifier.
func New(controller *dashboard.Controller, engine *suggest.Engine, uv weather.UVEstimator, notices *NoticeLog) *Handlers {
	if uv == nil {
		uv = weather.NewClockEstimator(nil)
	}
	if notices == nil {
		notices = NewNoticeLog()
	}
	return &Handlers{
		controller: controller,
		engine:     engine,
		uv:         uv,
		notices:    notices,
	}
}

// Router mounts all routes.
func (h *Handlers) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", h.HandleHealth).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/weather", h.HandleWeather).Methods(http.MethodGet)
	api.HandleFunc("/refresh", h.HandleRefresh).Methods(http.MethodPost)
	api.HandleFunc("/suggest", h.HandleSuggest).Methods(http.MethodGet)
	api.HandleFunc("/search", h.HandleSearch).Methods(http.MethodGet)
	api.HandleFunc("/select", h.HandleSelect).Methods(http.MethodPost)
	api.HandleFunc("/locate", h.HandleLocate).Methods(http.MethodPost)
	api.HandleFunc("/history", h.HandleHistory).Methods(http.MethodGet)
	api.HandleFunc("/notices", h.HandleNotices).Methods(http.MethodGet)
	return r
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Response write error: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// HandleHealth handles the health check endpoint.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handlers) writeView(w http.ResponseWriter) {
	view := buildView(h.controller.Snapshot(), h.uv, time.Now())
	writeJSON(w, http.StatusOK, view)
}

// HandleWeather returns the current view-model without triggering a
// fetch.
func (h *Handlers) HandleWeather(w http.ResponseWriter, r *http.Request) {
	h.writeView(w)
}

// HandleRefresh re-fetches the active place and returns the fresh
// view-model. A failed fetch keeps the prior data, so the stale view is
// still returned alongside the error status.
func (h *Handlers) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := h.controller.Refresh(r.Context()); err != nil {
		writeError(w, http.StatusBadGateway, "failed to refresh weather data")
		return
	}
	h.writeView(w)
}

// HandleSuggest feeds the query through the debounced autocomplete
// engine. A call superseded by a newer keystroke returns 204 No Content
// so its (stale) suggestions are never rendered.
func (h *Handlers) HandleSuggest(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")

	res := <-h.engine.OnInput(q)
	switch {
	case res.Stale:
		w.WriteHeader(http.StatusNoContent)
	case res.Err != nil:
		writeError(w, http.StatusBadGateway, "failed to load suggestions")
	default:
		if res.Places == nil {
			res.Places = []geo.Place{}
		}
		writeJSON(w, http.StatusOK, res.Places)
	}
}

// HandleSearch resolves a typed city name and selects the first match.
func (h *Handlers) HandleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")

	switch err := h.controller.Search(r.Context(), q); {
	case err == geo.ErrNoMatch:
		writeError(w, http.StatusNotFound, "city not found")
	case err != nil:
		writeError(w, http.StatusBadGateway, "failed to load weather data")
	default:
		h.writeView(w)
	}
}

type selectRequest struct {
	Name    string  `json:"name"`
	Country string  `json:"country"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// HandleSelect activates a place picked from the autocomplete dropdown
// or the history list.
func (h *Handlers) HandleSelect(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	coord := weather.Coordinate{Lat: req.Lat, Lon: req.Lon}
	if req.Name == "" || !coord.Valid() {
		writeError(w, http.StatusBadRequest, "invalid place")
		return
	}

	place := dashboard.Place{Name: req.Name, Country: req.Country, Coord: coord}
	if err := h.controller.Select(r.Context(), place); err != nil {
		writeError(w, http.StatusBadGateway, "failed to load weather data")
		return
	}
	h.writeView(w)
}

type locateRequest struct {
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	Error string  `json:"error,omitempty"` // permission_denied | unavailable | timeout
}

// HandleLocate receives the browser's geolocation outcome and adapts it
// onto the controller's Locator port. Geolocation failure is not an HTTP
// error: the controller falls back to the default place.
func (h *Handlers) HandleLocate(w http.ResponseWriter, r *http.Request) {
	var req locateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var locator dashboard.Locator
	switch req.Error {
	case "":
		coord := weather.Coordinate{Lat: req.Lat, Lon: req.Lon}
		if !coord.Valid() {
			writeError(w, http.StatusBadRequest, "invalid coordinate")
			return
		}
		locator = dashboard.LocatorFunc(func(ctx context.Context) (weather.Coordinate, error) {
			return coord, nil
		})
	case "permission_denied":
		locator = failedLocator(dashboard.PermissionDenied)
	case "unavailable":
		locator = failedLocator(dashboard.PositionUnavailable)
	case "timeout":
		locator = failedLocator(dashboard.LocationTimeout)
	default:
		writeError(w, http.StatusBadRequest, "unknown geolocation error code")
		return
	}

	if err := h.controller.LocateWith(r.Context(), locator); err != nil {
		writeError(w, http.StatusBadGateway, "failed to load weather data")
		return
	}
	h.writeView(w)
}

func failedLocator(reason dashboard.LocationReason) dashboard.Locator {
	return dashboard.LocatorFunc(func(ctx context.Context) (weather.Coordinate, error) {
		return weather.Coordinate{}, &dashboard.LocationError{Reason: reason}
	})
}

// HandleHistory returns the recent-searches list, most recent first.
func (h *Handlers) HandleHistory(w http.ResponseWriter, r *http.Request) {
	snap := h.controller.Snapshot()
	writeJSON(w, http.StatusOK, snap.History)
}

// HandleNotices returns and drains the queued user-facing notices.
func (h *Handlers) HandleNotices(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.notices.Drain())
}

// Notice is one user-visible message, the toast analogue.
type Notice struct {
	Level   string    `json:"level"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// NoticeLog implements dashboard.Notifier by queueing messages for the
// front end to poll.
type NoticeLog struct {
	mu      sync.Mutex
	pending []Notice
}

// NewNoticeLog creates an empty notice queue.
func NewNoticeLog() *NoticeLog {
	return &NoticeLog{}
}

// Notify implements dashboard.Notifier.
func (n *NoticeLog) Notify(level, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.pending = append(n.pending, Notice{Level: level, Message: message, At: time.Now()})
	// Keep the queue bounded if nobody polls.
	if len(n.pending) > 50 {
		n.pending = n.pending[len(n.pending)-50:]
	}
}

// Drain returns queued notices and clears the queue.
func (n *NoticeLog) Drain() []Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := n.pending
	n.pending = nil
	if out == nil {
		out = []Notice{}
	}
	return out
}
