package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trustlens-server-go/internal/platform/errors"
	"trustlens-server-go/internal/platform/storage/migrations"
)

func TestOpenMemoryRunsMigrations(t *testing.T) {
	db, err := Open(MemoryDSN)
	require.NoError(t, err)
	defer Close(db)

	assert.True(t, db.Migrator().HasTable("analysis_records"))

	applied, err := NewMigrator(db).Applied()
	require.NoError(t, err)
	require.Len(t, applied, 2)
	assert.Equal(t, "001_analysis_records", applied[0].Version)
}

func TestMigrateIsIdempotent(t *testing.T) {
	db, err := Open(MemoryDSN)
	require.NoError(t, err)
	defer Close(db)

	require.NoError(t, Migrate(db))

	var count int64
	require.NoError(t, db.Model(&MigrationRecord{}).Count(&count).Error)
	assert.EqualValues(t, 2, count)
}

func TestRollbackMigration(t *testing.T) {
	db, err := Open(MemoryDSN)
	require.NoError(t, err)
	defer Close(db)

	require.Error(t, NewMigrator(db).Rollback("002_analysis_indexes"), "unregistered migration must fail")

	migrator := NewMigrator(db, migrations.All()...)
	require.NoError(t, migrator.Rollback("002_analysis_indexes"))

	applied, err := migrator.Applied()
	require.NoError(t, err)
	assert.Len(t, applied, 1)

	err = migrator.Rollback("002_analysis_indexes")
	require.Error(t, err, "already rolled back")
	assert.True(t, errors.IsKind(err, errors.KindStorage))

	require.NoError(t, migrator.Up(), "rolled back step is re-applied")
	applied, err = migrator.Applied()
	require.NoError(t, err)
	assert.Len(t, applied, 2)
}

func TestMigratorRejectsDuplicateVersions(t *testing.T) {
	db, err := Open(MemoryDSN)
	require.NoError(t, err)
	defer Close(db)

	steps := migrations.All()
	err = NewMigrator(db, steps[0], steps[0]).Up()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate migration")
}

func TestOpenFileCreatesDirectory(t *testing.T) {
	path := t.TempDir() + "/nested/history.db"
	db, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, Close(db))
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	_, err := Open("  ")
	assert.Error(t, err)
}
