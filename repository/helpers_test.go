package repository

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/liaowuw/webweek8mvc/config"
	"github.com/liaowuw/webweek8mvc/database"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "people.db")
	db, err := database.InitGormDB(config.DriverSQLite, config.SQLiteDSN(path), zap.NewNop().Sugar())
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrateModels(db))
	require.NoError(t, database.SeedReferenceData(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func sexID(id uint) *uint {
	return &id
}
