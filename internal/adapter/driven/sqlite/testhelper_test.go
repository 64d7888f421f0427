package sqlite

import (
	"context"
	"fmt"
	"net/url"
	"testing"
)

// setupTestDB returns a migrated in-memory database private to the test.
// Both pools see the same data through cache=shared; the name is the escaped
// test name so parallel tests do not collide. WAL does not apply in memory.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	dsn := fmt.Sprintf(
		"file:%s?mode=memory&cache=shared&_pragma=busy_timeout(5000)",
		url.PathEscape(t.Name()),
	)

	db, err := openDSN(context.Background(), dsn, ":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if _, err := RunMigrations(db.Writer); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	return db
}
