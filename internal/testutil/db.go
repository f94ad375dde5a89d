// Package testutil provides an in-memory database for persistence tests.
package testutil

import (
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"clinic-system/internal/database"
)

// NewTestDB opens a private in-memory SQLite database with both schemas migrated.
// A single connection serializes transactions the way row locks would on postgres.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "failed to open test database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.MigrateReconciliationDB(db), "failed to migrate reconciliation schema")
	require.NoError(t, database.MigratePatientDB(db), "failed to migrate patient schema")

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	return db
}
