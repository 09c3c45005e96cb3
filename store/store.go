// Package store persists the live battle log, its metadata, the battle hash
// and the archive of completed battles in a local SQLite database.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pithecene-io/battlelog/types"

	_ "modernc.org/sqlite"
)

// DefaultDSN is the store location used when none is configured.
const DefaultDSN = "sqlite://./battlelog.db"

// openTimeout bounds the initial ping and pragma setup.
const openTimeout = 30 * time.Second

// Store is the SQLite-backed log store.
//
// All writes go through a single pooled connection, so transactions are
// serialized. The battle hash is cached after the first read and refreshed
// by every hash write made through this Store.
type Store struct {
	db     *sql.DB
	now    func() time.Time
	closed atomic.Bool

	mu   sync.Mutex
	hash *types.LogHash
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for meta timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Open opens the database named by dsn, applies pragmas and runs migrations.
//
// dsn may be "sqlite://<path>", a bare path, or ":memory:".
func Open(ctx context.Context, dsn string, opts ...Option) (*Store, error) {
	driverDSN, err := ParseDSN(dsn)
	if err != nil {
		return nil, unavailable("open", err)
	}

	db, err := sql.Open("sqlite", driverDSN)
	if err != nil {
		return nil, unavailable("open", fmt.Errorf("opening sqlite database: %w", err))
	}
	// One connection: a single writer, and the only way an in-memory
	// database survives between statements.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pingCtx, cancel := context.WithTimeout(ctx, openTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, unavailable("open", fmt.Errorf("pinging sqlite: %w", err))
	}

	pragmas := []string{
		"PRAGMA busy_timeout = 30000;",
		"PRAGMA journal_mode = WAL;",
		"PRAGMA foreign_keys = ON;",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(pingCtx, pragma); err != nil {
			_ = db.Close()
			return nil, unavailable("open", fmt.Errorf("setting pragma %q: %w", pragma, err))
		}
	}

	s := &Store{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}

	if err := Migrate(ctx, db, s.now()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the database. Further operations return ErrClosed.
func (s *Store) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.db.Close()
}

func (s *Store) check(op string) error {
	if s.closed.Load() {
		return &StoreError{Kind: ErrClosed, Op: op}
	}
	return nil
}

// withTx runs fn inside a transaction and commits it.
// A *StoreError from fn passes through; anything else is classified as
// unavailable.
func (s *Store) withTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	if err := s.check(op); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return unavailable(op, fmt.Errorf("begin transaction: %w", err))
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(tx); err != nil {
		return unavailable(op, err)
	}
	if err := tx.Commit(); err != nil {
		return unavailable(op, fmt.Errorf("commit: %w", err))
	}
	return nil
}

// ParseDSN converts a store DSN to a modernc sqlite driver DSN.
func ParseDSN(dsn string) (string, error) {
	rest := strings.TrimPrefix(dsn, "sqlite://")
	if rest == "" {
		return "", fmt.Errorf("empty sqlite DSN")
	}
	if rest == ":memory:" {
		return ":memory:", nil
	}

	path, query, _ := strings.Cut(rest, "?")
	unescaped, err := url.PathUnescape(path)
	if err != nil {
		return "", fmt.Errorf("unescaping path: %w", err)
	}
	path = filepath.Clean(unescaped)

	if query != "" {
		return path + "?" + query, nil
	}
	return path, nil
}

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(op, key, value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, invariant(op, "meta %s: %v", key, err)
	}
	return t, nil
}
