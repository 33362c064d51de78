// Package dbtest opens migrated SQLite databases for package tests.
package dbtest

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/reqforge/reqforge-api/internal/database"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open returns a fresh file-backed SQLite database with foreign keys enforced
// and the full schema migrated. The pool is limited to one connection so
// concurrent tests serialize on it instead of failing with SQLITE_BUSY.
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "reqforge.db")
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", path)

	db, err := database.Open(sqlite.Open(dsn), logger.Silent)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db, zap.NewNop()))

	t.Cleanup(func() {
		sqlDB.Close()
	})

	return db
}
