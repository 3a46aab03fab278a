// Package history keeps completed analyses for later lookup. Drivers: memory,
// sqlite (gorm) and redis.
package history

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned for unknown or expired ids.
var ErrNotFound = errors.New("history record not found")

// DefaultListLimit applies when List is called with a non-positive limit.
const DefaultListLimit = 50

// Store defines the behaviour required by the analysis services.
type Store interface {
	Save(ctx context.Context, record Record) error
	Get(ctx context.Context, id string) (Record, error)
	// List returns live records, newest first.
	List(ctx context.Context, limit int) ([]Record, error)
	Remove(ctx context.Context, id string) error
	CleanupExpired(ctx context.Context) error
	Stats(ctx context.Context) (map[string]any, error)
	Close(ctx context.Context) error
}

// Config describes the store selection parameters.
type Config struct {
	Driver string
	TTL    time.Duration
	Redis  *RedisConfig
	SQLite *SQLiteConfig
	Memory *MemoryConfig
}

// MemoryConfig holds in-memory tuning knobs.
type MemoryConfig struct {
	GCInterval time.Duration
}

// SQLiteConfig names the database file used when no handle is injected.
type SQLiteConfig struct {
	Path string
}

// RedisConfig captures connection options.
type RedisConfig struct {
	Addr     string
	Username string
	Password string
	DB       int
	Prefix   string
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return limit
}
