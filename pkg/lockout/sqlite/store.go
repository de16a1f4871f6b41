// Package sqlite provides a persistent lockout.Store so lockout state
// survives restarts and can be shared when the service runs as more than
// one instance against one database file.
package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/driftline/storefront/pkg/lockout"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the sqlite database at dsn and applies any
// pending migrations.
func NewStore(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	s := &Store{db: db}
	if err := s.applyMigrations(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *Store) Get(ctx context.Context, key string) (lockout.Entry, bool, error) {
	const q = `SELECT attempts, window_start_ns FROM lockout_entries WHERE key = ?`

	var attempts int
	var windowStartNS int64
	err := s.db.QueryRowContext(ctx, q, key).Scan(&attempts, &windowStartNS)
	if err == sql.ErrNoRows {
		return lockout.Entry{}, false, nil
	}
	if err != nil {
		return lockout.Entry{}, false, err
	}

	return lockout.Entry{
		Attempts:    attempts,
		WindowStart: time.Unix(0, windowStartNS),
	}, true, nil
}

func (s *Store) Put(ctx context.Context, key string, entry lockout.Entry) error {
	const q = `
		INSERT INTO lockout_entries (key, attempts, window_start_ns)
		VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET
			attempts = excluded.attempts,
			window_start_ns = excluded.window_start_ns`

	_, err := s.db.ExecContext(ctx, q, key, entry.Attempts, entry.WindowStart.UnixNano())
	return err
}

func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM lockout_entries WHERE key = ?`, key)
	return err
}
