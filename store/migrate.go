package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pithecene-io/battlelog/types"
)

// SchemaVersion is the latest schema version supported by the migrator.
const SchemaVersion = 1

// Migrate creates the schema and upgrades it to SchemaVersion.
//
// Creation is idempotent. A store migrated from version 0 is fresh and gets
// its live state cleared once, inside the same transaction, so the hash is
// the sentinel and meta carries a start time.
func Migrate(ctx context.Context, db *sql.DB, now time.Time) error {
	if db == nil {
		return fmt.Errorf("migrate: db is nil")
	}

	_, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (version INTEGER PRIMARY KEY);`)
	if err != nil {
		return unavailable("migrate", fmt.Errorf("create schema_migrations: %w", err))
	}

	var current int
	err = db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations;`).Scan(&current)
	if err != nil {
		return unavailable("migrate", fmt.Errorf("read current version: %w", err))
	}

	if current >= SchemaVersion {
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return unavailable("migrate", fmt.Errorf("begin transaction: %w", err))
	}
	defer func() {
		_ = tx.Rollback()
	}()

	statements := []struct {
		name string
		sql  string
	}{
		{"live", `
			CREATE TABLE IF NOT EXISTS live (
				seq INTEGER PRIMARY KEY AUTOINCREMENT,
				kind TEXT NOT NULL,
				name TEXT NULL,
				body BLOB NOT NULL
			);`},
		{"live_meta", `
			CREATE TABLE IF NOT EXISTS live_meta (
				key TEXT PRIMARY KEY,
				value TEXT NOT NULL
			);`},
		{"live_hash", `
			CREATE TABLE IF NOT EXISTS live_hash (
				key TEXT PRIMARY KEY,
				value TEXT NOT NULL
			);`},
		{"complete", `
			CREATE TABLE IF NOT EXISTS complete (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				start TEXT NOT NULL,
				last_update TEXT NOT NULL,
				entry_count INTEGER NOT NULL,
				entries BLOB NOT NULL
			);`},
	}
	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt.sql); err != nil {
			return unavailable("migrate", fmt.Errorf("create %s table: %w", stmt.name, err))
		}
	}

	if current == 0 {
		if err := resetLive(ctx, tx, now, types.SentinelHash()); err != nil {
			return unavailable("migrate", fmt.Errorf("initialize live state: %w", err))
		}
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations(version) VALUES (?);`, SchemaVersion); err != nil {
		return unavailable("migrate", fmt.Errorf("record schema version: %w", err))
	}

	if err := tx.Commit(); err != nil {
		return unavailable("migrate", fmt.Errorf("commit: %w", err))
	}
	return nil
}
