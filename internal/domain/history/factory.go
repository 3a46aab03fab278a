package history

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// Driver identifiers supported by the history domain.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
)

// Dependencies captures external handles required by certain drivers.
type Dependencies struct {
	SQLiteDB *gorm.DB
}

// New creates a history store based on the provided configuration.
func New(cfg Config, deps Dependencies) (Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" {
		driver = DriverMemory
	}

	switch driver {
	case DriverMemory:
		return NewMemory(cfg), nil
	case DriverSQLite:
		if deps.SQLiteDB != nil {
			return NewSQLite(deps.SQLiteDB, cfg)
		}
		if cfg.SQLite == nil || cfg.SQLite.Path == "" {
			return nil, fmt.Errorf("sqlite driver requires database handle or path")
		}
		return OpenSQLite(cfg.SQLite.Path, cfg)
	case DriverRedis:
		return NewRedis(cfg)
	default:
		return nil, fmt.Errorf("unsupported history store driver: %s", driver)
	}
}
