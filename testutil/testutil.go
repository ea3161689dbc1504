// Package testutil provides an isolated, migrated database for package tests.
package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"cafe-pos-api/config"
)

// NewDB opens a private in-memory sqlite database with the full schema.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := config.OpenDB(config.Database{
		Driver: "sqlite",
		DSN:    "file::memory:?_pragma=foreign_keys(1)",
	}, logger.Default.LogMode(logger.Silent))
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}
