package migrations

import "gorm.io/gorm"

// analysisIndexes backs history listing (kind, created_at) and expiry sweeps.
var analysisIndexes = Step{
	Version:     "002_analysis_indexes",
	Description: "Index analysis_records by kind, created_at and expires_at",
	Up: func(tx *gorm.DB) error {
		return execAll(tx,
			`CREATE INDEX IF NOT EXISTS idx_analysis_records_kind ON analysis_records(kind)`,
			`CREATE INDEX IF NOT EXISTS idx_analysis_records_created_at ON analysis_records(created_at)`,
			`CREATE INDEX IF NOT EXISTS idx_analysis_records_expires_at ON analysis_records(expires_at)`,
		)
	},
	Down: func(tx *gorm.DB) error {
		return execAll(tx,
			`DROP INDEX IF EXISTS idx_analysis_records_expires_at`,
			`DROP INDEX IF EXISTS idx_analysis_records_created_at`,
			`DROP INDEX IF EXISTS idx_analysis_records_kind`,
		)
	},
}
