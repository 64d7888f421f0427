// Package sqlite implements the local persistence ports on an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const (
	writerConns = 1 // a single writer avoids "database is locked"
	readerConns = 4
)

// DB pairs a single-connection writer pool with a small reader pool over the
// same database file. Path is kept for logging.
type DB struct {
	Writer *sql.DB
	Reader *sql.DB
	path   string
}

// NewDB opens the database at dbPath in WAL mode with a busy timeout and
// synchronous NORMAL. The file is created if it does not exist; its directory
// must.
func NewDB(ctx context.Context, dbPath string) (*DB, error) {
	dsn := fmt.Sprintf(
		"file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)",
		dbPath,
	)
	return openDSN(ctx, dsn, dbPath)
}

// openDSN opens the writer and reader pools for dsn and verifies both.
func openDSN(ctx context.Context, dsn, path string) (*DB, error) {
	writer, err := openPool(ctx, dsn, writerConns)
	if err != nil {
		return nil, fmt.Errorf("open writer: %w", err)
	}

	reader, err := openPool(ctx, dsn, readerConns)
	if err != nil {
		_ = writer.Close()
		return nil, fmt.Errorf("open reader: %w", err)
	}

	return &DB{Writer: writer, Reader: reader, path: path}, nil
}

func openPool(ctx context.Context, dsn string, maxConns int) (*sql.DB, error) {
	pool, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	pool.SetMaxOpenConns(maxConns)

	if err := pool.PingContext(ctx); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return pool, nil
}

// Path returns the database file path the DB was opened with.
func (db *DB) Path() string {
	return db.path
}

// Close closes both pools and returns the first error.
func (db *DB) Close() error {
	readerErr := db.Reader.Close()
	writerErr := db.Writer.Close()

	if readerErr != nil {
		return fmt.Errorf("close reader: %w", readerErr)
	}
	if writerErr != nil {
		return fmt.Errorf("close writer: %w", writerErr)
	}
	return nil
}
