package store

import (
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// DeliveryCache maps catalog track IDs to the chat platform's file IDs so
// a track delivered once can be re-sent by reference instead of being
// downloaded again. SQLite keeps the mapping across restarts.
type DeliveryCache struct {
	db     *sql.DB
	logger *zap.Logger
}

// OpenDeliveryCache opens (or creates) the cache database at path.
func OpenDeliveryCache(path string, logger *zap.Logger) (*DeliveryCache, error) {
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open delivery cache: %w", err)
	}

	const schema = `
		CREATE TABLE IF NOT EXISTS deliveries (
			track_id TEXT PRIMARY KEY,
			file_id  TEXT NOT NULL,
			sent_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init delivery cache: %w", err)
	}

	return &DeliveryCache{db: db, logger: logger}, nil
}

// Get returns the cached file ID for trackID, if any. Lookup failures
// are logged and reported as a miss so delivery falls back to a fresh
// download.
func (c *DeliveryCache) Get(trackID string) (string, bool) {
	var fileID string
	err := c.db.QueryRow(
		`SELECT file_id FROM deliveries WHERE track_id = ?`, trackID,
	).Scan(&fileID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false
	}
	if err != nil {
		c.logger.Warn("Delivery cache lookup failed",
			zap.String("track", trackID), zap.Error(err))
		return "", false
	}
	return fileID, true
}

// Put stores or replaces the file ID for trackID.
func (c *DeliveryCache) Put(trackID, fileID string) error {
	_, err := c.db.Exec(
		`INSERT INTO deliveries (track_id, file_id) VALUES (?, ?)
		 ON CONFLICT(track_id) DO UPDATE SET file_id = excluded.file_id, sent_at = CURRENT_TIMESTAMP`,
		trackID, fileID,
	)
	if err != nil {
		return fmt.Errorf("delivery cache put: %w", err)
	}
	return nil
}

// Delete removes a stale mapping, typically after the platform rejects
// a cached file ID.
func (c *DeliveryCache) Delete(trackID string) error {
	_, err := c.db.Exec(`DELETE FROM deliveries WHERE track_id = ?`, trackID)
	if err != nil {
		return fmt.Errorf("delivery cache delete: %w", err)
	}
	return nil
}

func (c *DeliveryCache) Close() error {
	return c.db.Close()
}

// NopDeliveryCache misses every lookup. Used when caching is disabled.
type NopDeliveryCache struct{}

func (NopDeliveryCache) Get(string) (string, bool) { return "", false }
func (NopDeliveryCache) Put(string, string) error  { return nil }
func (NopDeliveryCache) Delete(string) error       { return nil }
