// Package storetest provides the shared pgxpool harness for rawstore
// and typedstore integration tests, mirroring
// internal/data/repos/testutil's TEST_POSTGRES_DSN-gated pattern for
// the pgxpool-backed stores rather than gorm's.
package storetest

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yungbote/neurobridge-backend/internal/platform/logger"
)

var (
	poolOnce sync.Once
	pool     *pgxpool.Pool
	poolErr  error

	logOnce sync.Once
	logg    *logger.Logger
	logErr  error
)

// Logger returns a shared test logger.
func Logger(tb testing.TB) *logger.Logger {
	tb.Helper()
	logOnce.Do(func() {
		logg, logErr = logger.New("test")
	})
	if logErr != nil {
		tb.Fatalf("logger.New: %v", logErr)
	}
	return logg
}

// Pool returns a shared connection pool to TEST_POSTGRES_DSN, skipping
// the test if the variable is unset so the suite runs green without a
// database (matching internal/data/repos/testutil.DB's skip behavior).
func Pool(tb testing.TB) *pgxpool.Pool {
	tb.Helper()

	poolOnce.Do(func() {
		dsn := os.Getenv("TEST_POSTGRES_DSN")
		if dsn == "" {
			return
		}
		pool, poolErr = pgxpool.New(context.Background(), dsn)
	})

	if os.Getenv("TEST_POSTGRES_DSN") == "" {
		tb.Skip("set TEST_POSTGRES_DSN to run store integration tests")
	}
	if poolErr != nil {
		tb.Fatalf("pgxpool.New: %v", poolErr)
	}
	return pool
}

// TruncateTables clears the given tables; the store tests call it during
// setup, before each test body runs, so successive
// integration tests in the same suite don't see each other's rows; the
// pool is long-lived across the package's tests, not per-test like a
// gorm transaction, since CREATE TEMPORARY TABLE inside a pgx
// transaction (used by BulkInsert/BulkUpsert) cannot itself run inside
// an outer test transaction cleanly.
func TruncateTables(tb testing.TB, pool *pgxpool.Pool, tables ...string) {
	tb.Helper()
	for _, table := range tables {
		if _, err := pool.Exec(context.Background(), "TRUNCATE TABLE "+table); err != nil {
			tb.Fatalf("truncate %s: %v", table, err)
		}
	}
}
