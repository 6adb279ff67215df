package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// EntryRepository stores record values in the entries table.
//
// Every successful Set also appends to entry_writes in the same transaction.
type EntryRepository struct {
	db *sql.DB
}

// NewEntryRepository creates a new [EntryRepository] with the given database connection
func NewEntryRepository(db *sql.DB) *EntryRepository {
	return &EntryRepository{db: db}
}

// Get returns the value stored under key, with ok == false when there is none
func (r *EntryRepository) Get(key string) (string, bool, error) {
	var value string
	err := r.db.QueryRow("SELECT value FROM entries WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get entry: %w", err)
	}
	return value, true, nil
}

// Set inserts or replaces the value under key
func (r *EntryRepository) Set(key, value string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	query := `
		INSERT INTO entries (key, value, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	if _, err := tx.Exec(query, key, value, now, now); err != nil {
		return fmt.Errorf("failed to upsert entry: %w", err)
	}

	if _, err := tx.Exec("INSERT INTO entry_writes (key, bytes, written_at) VALUES (?, ?, ?)", key, len(value), now); err != nil {
		return fmt.Errorf("failed to record write: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit entry: %w", err)
	}
	return nil
}

// Keys returns every key starting with prefix, in lexical order
func (r *EntryRepository) Keys(prefix string) ([]string, error) {
	rows, err := r.db.Query(`SELECT key FROM entries WHERE key LIKE ? ESCAPE '\' ORDER BY key ASC`, escapeLike(prefix)+"%")
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	keys := []string{}
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan entry key: %w", err)
		}
		keys = append(keys, key)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return keys, nil
}

// Delete removes the entry under key. Missing keys are ignored.
func (r *EntryRepository) Delete(key string) error {
	if _, err := r.db.Exec("DELETE FROM entries WHERE key = ?", key); err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	return nil
}

// WriteCount returns how many writes were logged for key
func (r *EntryRepository) WriteCount(key string) (int, error) {
	var n int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM entry_writes WHERE key = ?", key).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count writes: %w", err)
	}
	return n, nil
}
