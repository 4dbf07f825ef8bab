// Package store persists tracked properties and per-run WeatherIntel results
// in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/couchcryptid/storm-dol-engine/internal/domain"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Store wraps the SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and ensures the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS tracked_properties (
			id               TEXT PRIMARY KEY,
			address          TEXT NOT NULL DEFAULT '',
			lat              DOUBLE NOT NULL,
			lng              DOUBLE NOT NULL,
			last_ingested_at INTEGER
		);
		CREATE TABLE IF NOT EXISTS run_results (
			property_id      TEXT NOT NULL,
			run_date         TEXT NOT NULL,
			intel            TEXT NOT NULL,
			created_at       TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (property_id, run_date)
		);
	`)
	if err != nil {
		db.Close() //nolint:errcheck // open failed, close is best effort
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// GetTrackedProperties returns the full portfolio, ordered by id for
// deterministic batch processing.
func (s *Store) GetTrackedProperties(ctx context.Context) ([]domain.TrackedProperty, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, address, lat, lng, last_ingested_at FROM tracked_properties ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query tracked properties: %w", err)
	}
	defer rows.Close()

	var properties []domain.TrackedProperty
	for rows.Next() {
		var p domain.TrackedProperty
		var last sql.NullInt64
		if err := rows.Scan(&p.ID, &p.Address, &p.Lat, &p.Lng, &last); err != nil {
			return nil, fmt.Errorf("scan tracked property: %w", err)
		}
		if last.Valid {
			p.LastIngestedAt = time.Unix(last.Int64, 0).UTC()
		}
		properties = append(properties, p)
	}
	return properties, rows.Err()
}

// AddTrackedProperty inserts or replaces a portfolio entry.
func (s *Store) AddTrackedProperty(ctx context.Context, p domain.TrackedProperty) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tracked_properties (id, address, lat, lng)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET address = excluded.address, lat = excluded.lat, lng = excluded.lng`,
		p.ID, p.Address, p.Lat, p.Lng)
	if err != nil {
		return fmt.Errorf("upsert tracked property %s: %w", p.ID, err)
	}
	return nil
}

// UpsertRunResult stores a run's WeatherIntel keyed by (property, run date).
// The upsert is idempotent: writing the same result twice leaves the stored
// row equal to a single write, which is what makes batch re-runs safe.
func (s *Store) UpsertRunResult(ctx context.Context, propertyID string, runDate time.Time, intel domain.WeatherIntel) error {
	payload, err := json.Marshal(intel)
	if err != nil {
		return fmt.Errorf("marshal intel: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO run_results (property_id, run_date, intel)
		VALUES (?, ?, ?)
		ON CONFLICT (property_id, run_date) DO UPDATE SET intel = excluded.intel`,
		propertyID, runDate.UTC().Format(time.DateOnly), string(payload))
	if err != nil {
		return fmt.Errorf("upsert run result %s: %w", propertyID, err)
	}
	return nil
}

// GetRunResult fetches the stored WeatherIntel for (property, run date).
func (s *Store) GetRunResult(ctx context.Context, propertyID string, runDate time.Time) (domain.WeatherIntel, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT intel FROM run_results WHERE property_id = ? AND run_date = ?`,
		propertyID, runDate.UTC().Format(time.DateOnly)).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.WeatherIntel{}, ErrNotFound
	}
	if err != nil {
		return domain.WeatherIntel{}, fmt.Errorf("query run result: %w", err)
	}

	var intel domain.WeatherIntel
	if err := json.Unmarshal([]byte(payload), &intel); err != nil {
		return domain.WeatherIntel{}, fmt.Errorf("unmarshal intel: %w", err)
	}
	return intel, nil
}

// CountRunResults returns the number of stored results for a property.
func (s *Store) CountRunResults(ctx context.Context, propertyID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM run_results WHERE property_id = ?`, propertyID).Scan(&n)
	return n, err
}

// TouchLastIngested records the completion time of a property's latest run.
// Stored as unix seconds; sub-second precision is irrelevant for a daily batch.
func (s *Store) TouchLastIngested(ctx context.Context, propertyID string, t time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE tracked_properties SET last_ingested_at = ? WHERE id = ?`, t.Unix(), propertyID)
	if err != nil {
		return fmt.Errorf("touch last ingested %s: %w", propertyID, err)
	}
	return nil
}
