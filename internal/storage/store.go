// Package storage persists label-service results between runs so repeated
// runs over the same image set do not pay for recognition calls twice.
package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"
)

// CachedLabel is one persisted label for an image.
type CachedLabel struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
}

// LabelStore defines the interface for label-cache persistence.
type LabelStore interface {
	// GetLabels returns the cached labels for an image hash. found is false
	// on a cache miss; a cached empty list is a hit.
	GetLabels(imageHash string) (labels []CachedLabel, found bool, err error)
	SetLabels(imageHash string, labels []CachedLabel) error
	Close() error
}

// SQLiteStore implements LabelStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore opens (creating if needed) a SQLite label cache at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	// WAL mode and busy timeout for better concurrency
	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.init(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) init() error {
	query := `
	CREATE TABLE IF NOT EXISTS label_cache (
		image_hash TEXT PRIMARY KEY,
		labels TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("failed to create label_cache table: %w", err)
	}
	return nil
}

// GetLabels implements LabelStore.
func (s *SQLiteStore) GetLabels(imageHash string) ([]CachedLabel, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var raw string
	err := s.db.QueryRow(
		"SELECT labels FROM label_cache WHERE image_hash = ?", imageHash,
	).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to query label cache: %w", err)
	}

	var labels []CachedLabel
	if err := json.Unmarshal([]byte(raw), &labels); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached labels: %w", err)
	}
	return labels, true, nil
}

// SetLabels implements LabelStore.
func (s *SQLiteStore) SetLabels(imageHash string, labels []CachedLabel) error {
	raw, err := json.Marshal(labels)
	if err != nil {
		return fmt.Errorf("failed to encode labels: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.Exec(
		"INSERT OR REPLACE INTO label_cache (image_hash, labels) VALUES (?, ?)",
		imageHash, string(raw),
	)
	if err != nil {
		return fmt.Errorf("failed to write label cache: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
