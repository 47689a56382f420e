// Package suggest implements the debounced city autocomplete engine: one
// geocoding call per settled input, last input wins, stale results never
// surface.
package suggest

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/AnkitRajMaurya/weather-project/internal/geo"
)

const (
	// MinQueryLen is the shortest input that triggers a search; anything
	// shorter clears the suggestion list without a network call.
	MinQueryLen = 2
	// MaxSuggestions bounds the number of entries shown.
	MaxSuggestions = 8
	// searchLimit is what we ask the service for before deduplication.
	searchLimit = 10

	searchTimeout = 10 * time.Second
)

// Searcher is the slice of the geocoding client the engine needs.
// *geo.Client satisfies it.
type Searcher interface {
	ForwardSearch(ctx context.Context, query string, limit int) ([]geo.Place, error)
}

// Result is the outcome of one input. Stale results belong to an input
// that was superseded before it settled and must not be displayed.
type Result struct {
	Query  string
	Places []geo.Place
	Err    error
	Stale  bool
}

type request struct {
	query string
	ch    chan Result
	done  bool
}

// Engine debounces free-text input into geocoding lookups.
type Engine struct {
	searcher Searcher
	debounce time.Duration

	mu    sync.Mutex
	timer *time.Timer
	cur   *request
}

// NewEngine creates an engine. A zero debounce uses the 400ms default.
func NewEngine(searcher Searcher, debounce time.Duration) *Engine {
	if debounce <= 0 {
		debounce = 400 * time.Millisecond
	}
	return &Engine{
		searcher: searcher,
		debounce: debounce,
	}
}

// OnInput registers a keystroke's worth of input and returns a channel
// that yields exactly one Result for it. A newer input cancels the pending
// debounce timer and marks any unresolved earlier input stale immediately.
func (e *Engine) OnInput(text string) <-chan Result {
	text = strings.TrimSpace(text)
	req := &request{query: text, ch: make(chan Result, 1)}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	if e.cur != nil && !e.cur.done {
		e.cur.ch <- Result{Query: e.cur.query, Stale: true}
		e.cur.done = true
	}

	if utf8.RuneCountInString(text) < MinQueryLen {
		// Too short: resolve immediately with no suggestions.
		req.ch <- Result{Query: text}
		req.done = true
		e.cur = req
		return req.ch
	}

	e.cur = req
	e.timer = time.AfterFunc(e.debounce, func() { e.run(req) })
	return req.ch
}

func (e *Engine) run(req *request) {
	e.mu.Lock()
	if req.done {
		e.mu.Unlock()
		return
	}
	e.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), searchTimeout)
	defer cancel()
	places, err := e.searcher.ForwardSearch(ctx, req.query, searchLimit)

	if err == nil {
		places = geo.DedupePlaces(places)
		if len(places) > MaxSuggestions {
			places = places[:MaxSuggestions]
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if req.done {
		// Superseded while the request was in flight; the newer input
		// already marked this one stale.
		return
	}
	req.ch <- Result{Query: req.query, Places: places, Err: err}
	req.done = true
}
