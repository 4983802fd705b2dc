// Package testutil provides the shared database and logger plumbing for repo
// integration tests. With TEST_POSTGRES_DSN set the tests run against a real
// postgres; without it they fall back to a shared in-memory sqlite so the
// suite still exercises the query paths that do not need postgres features.
package testutil

import (
	"os"
	"sync"
	"testing"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/menttor/menttor-backend/internal/data/db"
	"github.com/menttor/menttor-backend/internal/platform/logger"
)

var (
	dbOnce sync.Once
	gdb    *gorm.DB
	dbErr  error

	logOnce sync.Once
	logg    *logger.Logger
	logErr  error
)

func Logger(tb testing.TB) *logger.Logger {
	tb.Helper()
	logOnce.Do(func() {
		logg, logErr = logger.New("test")
	})
	if logErr != nil {
		tb.Fatalf("failed to init logger: %v", logErr)
	}
	return logg
}

func DB(tb testing.TB) *gorm.DB {
	tb.Helper()

	dbOnce.Do(func() {
		cfg := &gorm.Config{
			DisableForeignKeyConstraintWhenMigrating: true,
			Logger:                                   gormLogger.Default.LogMode(gormLogger.Silent),
		}

		dsn := os.Getenv("TEST_POSTGRES_DSN")
		if dsn != "" {
			gdb, dbErr = gorm.Open(postgres.Open(dsn), cfg)
		} else {
			gdb, dbErr = gorm.Open(sqlite.Open("file::memory:?cache=shared"), cfg)
		}
		if dbErr != nil {
			return
		}

		if dbErr = db.AutoMigrateAll(gdb); dbErr != nil {
			return
		}
		if dsn != "" {
			dbErr = db.EnsureIndexes(gdb)
		}
	})

	if dbErr != nil {
		tb.Fatalf("failed to init test db: %v", dbErr)
	}
	return gdb
}

func Tx(tb testing.TB, db *gorm.DB) *gorm.DB {
	tb.Helper()
	tx := db.Begin()
	if tx.Error != nil {
		tb.Fatalf("begin tx: %v", tx.Error)
	}
	tb.Cleanup(func() {
		_ = tx.Rollback().Error
	})
	return tx
}

// RequirePostgres skips tests that exercise postgres-only SQL (row locking,
// partial indexes) when running on the sqlite fallback.
func RequirePostgres(tb testing.TB, db *gorm.DB) {
	tb.Helper()
	if db.Dialector.Name() != "postgres" {
		tb.Skip("set TEST_POSTGRES_DSN to run postgres-only repo tests")
	}
}
