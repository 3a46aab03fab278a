package migrations

import "gorm.io/gorm"

var analysisRecords = Step{
	Version:     "001_analysis_records",
	Description: "Create analysis_records table",
	Up: func(tx *gorm.DB) error {
		return execAll(tx, `
			CREATE TABLE IF NOT EXISTS analysis_records (
				id VARCHAR(64) PRIMARY KEY,
				kind VARCHAR(32) NOT NULL,
				subject VARCHAR(512),
				risk_score INTEGER NOT NULL,
				flagged BOOLEAN NOT NULL,
				payload JSON NOT NULL,
				created_at DATETIME NOT NULL,
				expires_at DATETIME
			)`)
	},
	Down: func(tx *gorm.DB) error {
		return execAll(tx, `DROP TABLE IF EXISTS analysis_records`)
	},
}
