// Package testutil provides shared helpers for integration tests. Helpers
// skip the calling test when TEST_DATABASE_URL is not set.
package testutil

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/homeride/backend/pkg/database"
)

// DSNEnv names the variable holding the integration database URL.
const DSNEnv = "TEST_DATABASE_URL"

// NewSQLDB opens a pool against TEST_DATABASE_URL and closes it when the test ends.
func NewSQLDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := os.Getenv(DSNEnv)
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping integration test")
	}

	db, err := database.Open(dsn, database.Config{MaxConns: 5})
	if err != nil {
		t.Fatalf("testutil.NewSQLDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// NewTx begins a transaction that is rolled back when the test ends.
func NewTx(t *testing.T) *sql.Tx {
	t.Helper()

	tx, err := NewSQLDB(t).BeginTx(context.Background(), nil)
	if err != nil {
		t.Fatalf("testutil.NewTx: begin: %v", err)
	}
	t.Cleanup(func() { _ = tx.Rollback() })
	return tx
}

// MustOpenSQLDB opens dsn and panics on failure. For TestMain, where no
// *testing.T exists. Callers close the returned pool.
func MustOpenSQLDB(dsn string) *sql.DB {
	db, err := database.Open(dsn, database.Config{MaxConns: 2})
	if err != nil {
		panic("testutil.MustOpenSQLDB: " + err.Error())
	}
	return db
}
