// Package migrations holds the versioned schema changes for the history database.
package migrations

import "gorm.io/gorm"

// Step is one versioned schema change. Versions sort lexically in apply order.
type Step struct {
	Version     string
	Description string
	Up          func(tx *gorm.DB) error
	Down        func(tx *gorm.DB) error
}

// All returns the service schema in apply order.
func All() []Step {
	return []Step{
		analysisRecords,
		analysisIndexes,
	}
}

func execAll(tx *gorm.DB, statements ...string) error {
	for _, stmt := range statements {
		if err := tx.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}
