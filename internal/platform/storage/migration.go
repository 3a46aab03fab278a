package storage

import (
	stderrors "errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"trustlens-server-go/internal/platform/errors"
	"trustlens-server-go/internal/platform/storage/migrations"
)

// MigrationRecord marks a schema step as applied.
type MigrationRecord struct {
	ID        uint      `gorm:"primaryKey"`
	Version   string    `gorm:"uniqueIndex;not null"`
	Name      string    `gorm:"not null"`
	AppliedAt time.Time `gorm:"not null"`
}

// Migrator applies schema steps in order. Each step and its record commit in one
// transaction, so a failed step leaves no trace.
type Migrator struct {
	db    *gorm.DB
	steps []migrations.Step
}

func NewMigrator(db *gorm.DB, steps ...migrations.Step) *Migrator {
	return &Migrator{db: db, steps: steps}
}

// Up applies every step without a record yet.
func (m *Migrator) Up() error {
	seen := make(map[string]struct{}, len(m.steps))
	for _, step := range m.steps {
		if _, dup := seen[step.Version]; dup {
			return errors.New(errors.KindStorage, "migration.register", fmt.Sprintf("duplicate migration %s", step.Version))
		}
		seen[step.Version] = struct{}{}
	}

	if err := m.db.AutoMigrate(&MigrationRecord{}); err != nil {
		return errors.Wrap(errors.KindStorage, "migration.create_table", "failed to create migration table", err)
	}

	applied, err := m.appliedVersions()
	if err != nil {
		return err
	}

	for _, step := range m.steps {
		if _, ok := applied[step.Version]; ok {
			continue
		}
		err := m.db.Transaction(func(tx *gorm.DB) error {
			if err := step.Up(tx); err != nil {
				return err
			}
			return tx.Create(&MigrationRecord{
				Version:   step.Version,
				Name:      step.Description,
				AppliedAt: time.Now().UTC(),
			}).Error
		})
		if err != nil {
			return errors.Wrap(errors.KindStorage, "migration.up", fmt.Sprintf("failed to apply migration %s", step.Version), err)
		}
	}
	return nil
}

// Rollback reverts one applied step.
func (m *Migrator) Rollback(version string) error {
	step, ok := m.find(version)
	if !ok {
		return errors.New(errors.KindStorage, "migration.not_registered", fmt.Sprintf("migration %s not registered", version))
	}

	var record MigrationRecord
	if err := m.db.Where("version = ?", version).First(&record).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return errors.New(errors.KindStorage, "migration.not_applied", fmt.Sprintf("migration %s not applied", version))
		}
		return errors.Wrap(errors.KindStorage, "migration.find_record", "failed to find migration record", err)
	}

	err := m.db.Transaction(func(tx *gorm.DB) error {
		if err := step.Down(tx); err != nil {
			return err
		}
		return tx.Delete(&record).Error
	})
	if err != nil {
		return errors.Wrap(errors.KindStorage, "migration.down", fmt.Sprintf("failed to roll back migration %s", version), err)
	}
	return nil
}

// Applied lists applied steps in version order.
func (m *Migrator) Applied() ([]MigrationRecord, error) {
	var records []MigrationRecord
	if err := m.db.Order("version ASC").Find(&records).Error; err != nil {
		return nil, errors.Wrap(errors.KindStorage, "migration.history", "failed to list applied migrations", err)
	}
	return records, nil
}

func (m *Migrator) appliedVersions() (map[string]struct{}, error) {
	var versions []string
	if err := m.db.Model(&MigrationRecord{}).Pluck("version", &versions).Error; err != nil {
		return nil, errors.Wrap(errors.KindStorage, "migration.get_applied", "failed to get applied migrations", err)
	}
	applied := make(map[string]struct{}, len(versions))
	for _, v := range versions {
		applied[v] = struct{}{}
	}
	return applied, nil
}

func (m *Migrator) find(version string) (migrations.Step, bool) {
	for _, step := range m.steps {
		if step.Version == version {
			return step, true
		}
	}
	return migrations.Step{}, false
}
