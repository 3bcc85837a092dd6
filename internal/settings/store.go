package settings

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrEmptyKey is returned when reading or saving without a key.
var ErrEmptyKey = errors.New("settings: key is required")

// Store implements pattern.SettingsStore on the settings table.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// NewStore creates a store on an open, migrated database.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// ReadSettings decodes the document stored at key into dst. It reports
// false, with dst untouched, when the key is absent.
func (s *Store) ReadSettings(ctx context.Context, key string, dst any) (bool, error) {
	if key == "" {
		return false, ErrEmptyKey
	}

	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading setting %s: %w", key, err)
	}

	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return true, fmt.Errorf("decoding setting %s: %w", key, err)
	}
	return true, nil
}

// SaveSettings encodes value as JSON and upserts it at key.
func (s *Store) SaveSettings(ctx context.Context, key string, value any) error {
	if key == "" {
		return ErrEmptyKey
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding setting %s: %w", key, err)
	}

	const query = `INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`
	if _, err := s.db.ExecContext(ctx, query, key, string(data), s.now().UTC().Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("saving setting %s: %w", key, err)
	}
	return nil
}
