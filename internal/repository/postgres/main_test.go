package postgres_test

import (
	"context"
	"log"
	"os"
	"testing"

	"github.com/homeride/backend/internal/testutil"
	"github.com/homeride/backend/migrations"
	"github.com/homeride/backend/pkg/database"
)

// TestMain migrates the integration database once per test binary.
func TestMain(m *testing.M) {
	dsn := os.Getenv(testutil.DSNEnv)
	if dsn == "" {
		os.Exit(m.Run())
	}

	db := testutil.MustOpenSQLDB(dsn)
	if _, err := database.Migrate(context.Background(), db, migrations.FS); err != nil {
		db.Close()
		log.Fatalf("TestMain: %v", err)
	}
	db.Close()

	os.Exit(m.Run())
}
