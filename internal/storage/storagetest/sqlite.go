// Package storagetest provides a migrated SQLite database for tests that
// exercise the SQL repositories without a PostgreSQL server.
package storagetest

import (
	"path/filepath"
	"testing"

	"playlist-service/internal/storage"

	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// NewDB returns a fresh, fully migrated SQLite database living in the test's
// temp dir. It is closed when the test ends.
func NewDB(t testing.TB) *sqlx.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "playlists.db")
	if err := storage.Migrate("sqlite://" + path); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	// One connection keeps writers from tripping over SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	t.Cleanup(func() { db.Close() })
	return db
}
