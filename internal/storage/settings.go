package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// SettingsStore holds per-user key/value settings, such as the one-time
// legacy deck migration marker.
type SettingsStore struct {
	db *DB
}

// NewSettingsStore creates a settings store over an open database.
func NewSettingsStore(db *DB) *SettingsStore {
	return &SettingsStore{db: db}
}

// Get returns the value for key, or an error wrapping ErrNotFound.
func (s *SettingsStore) Get(ctx context.Context, userID, key string) (string, error) {
	var value string
	err := s.db.conn.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE user_id = ? AND key = ?`, userID, key).
		Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("setting %s: %w", key, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("get setting %s: %w", key, err)
	}
	return value, nil
}

// Set stores the value for key, replacing any previous value.
func (s *SettingsStore) Set(ctx context.Context, userID, key, value string) error {
	_, err := s.db.conn.ExecContext(ctx,
		`INSERT INTO settings (user_id, key, value) VALUES (?, ?, ?)
		 ON CONFLICT (user_id, key) DO UPDATE SET value = excluded.value`,
		userID, key, value)
	if err != nil {
		return fmt.Errorf("set setting %s: %w", key, err)
	}
	return nil
}

// GetBool returns the boolean value for key. A missing key is false, not an
// error.
func (s *SettingsStore) GetBool(ctx context.Context, userID, key string) (bool, error) {
	value, err := s.Get(ctx, userID, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return value == "true", nil
}

// SetBool stores the boolean value for key.
func (s *SettingsStore) SetBool(ctx context.Context, userID, key string, value bool) error {
	str := "false"
	if value {
		str = "true"
	}
	return s.Set(ctx, userID, key, str)
}
