// Package history persists the bounded recent-searches list in SQLite,
// stored as a single JSON document the way the browser app kept it under
// one localStorage key.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Capacity bounds the list; older entries fall off the end.
const Capacity = 10

const historyKey = "search_history"

// Entry is one remembered search, most recent first.
type Entry struct {
	City    string    `json:"city"`
	Country string    `json:"country"`
	Lat     float64   `json:"lat"`
	Lon     float64   `json:"lon"`
	When    time.Time `json:"when"`
}

// Store wraps the SQLite database holding app state.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the store at path. ":memory:" gives an
// ephemeral store for tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history store: %w", err)
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS app_state (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("failed to initialize history schema: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Load reads the persisted list. A missing or corrupt record resets
// history to empty rather than surfacing an error to the user.
func (s *Store) Load(ctx context.Context) []Entry {
	var raw string
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM app_state WHERE key = ?", historyKey).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		log.Printf("Could not load search history: %v", err)
		return nil
	}

	var entries []Entry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		log.Printf("Corrupt search history, resetting: %v", err)
		return nil
	}
	if len(entries) > Capacity {
		entries = entries[:Capacity]
	}
	return entries
}

// Record prepends entry, removing any existing entry for the same
// (city, country) so re-searching a place moves it to the front, and
// truncates to Capacity before persisting the whole list.
func (s *Store) Record(ctx context.Context, entry Entry) error {
	entries := s.Load(ctx)

	kept := make([]Entry, 0, len(entries)+1)
	kept = append(kept, entry)
	for _, e := range entries {
		if e.City == entry.City && e.Country == entry.Country {
			continue
		}
		kept = append(kept, e)
	}
	if len(kept) > Capacity {
		kept = kept[:Capacity]
	}

	raw, err := json.Marshal(kept)
	if err != nil {
		return fmt.Errorf("failed to encode search history: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO app_state (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		historyKey, string(raw))
	if err != nil {
		return fmt.Errorf("failed to persist search history: %w", err)
	}
	return nil
}
