package visits

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS counters (
	id         TEXT PRIMARY KEY,
	value      INTEGER NOT NULL,
	updated_at TEXT NOT NULL
)`

// SQLiteRepository stores counters in a single SQLite table.
type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens (or creates) the database at path and ensures the schema exists.
func OpenSQLite(ctx context.Context, path string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("visits: open sqlite %s: %w", path, err)
	}
	// One writer keeps upserts serialised without SQLITE_BUSY retries.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("visits: migrate sqlite %s: %w", path, err)
	}
	return &SQLiteRepository{db: db, now: time.Now}, nil
}

func (r *SQLiteRepository) Increment(ctx context.Context, counterID string) (int64, error) {
	const op = "visits.sqlite.increment"
	id, err := validCounterID(op, counterID)
	if err != nil {
		return 0, err
	}

	var value int64
	err = r.db.QueryRowContext(ctx, `
		INSERT INTO counters (id, value, updated_at) VALUES (?, 1, ?)
		ON CONFLICT(id) DO UPDATE SET value = value + 1, updated_at = excluded.updated_at
		RETURNING value`,
		id, r.now().UTC().Format(time.RFC3339Nano),
	).Scan(&value)
	if err != nil {
		return 0, storageError(op, err)
	}
	return value, nil
}

func (r *SQLiteRepository) Total(ctx context.Context, counterID string) (int64, error) {
	const op = "visits.sqlite.total"
	id, err := validCounterID(op, counterID)
	if err != nil {
		return 0, err
	}

	var value int64
	err = r.db.QueryRowContext(ctx, `SELECT value FROM counters WHERE id = ?`, id).Scan(&value)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return 0, nil
	case err != nil:
		return 0, storageError(op, err)
	}
	return value, nil
}

// Close releases the database handle.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}
