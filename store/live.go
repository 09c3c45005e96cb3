package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pithecene-io/battlelog/types"
)

// Meta keys in live_meta.
const (
	metaStart      = "start"
	metaLastUpdate = "lastUpdate"
)

// AppendLive appends entries to the live log in argument order and refreshes
// lastUpdate, all in one transaction. Appending nothing is a no-op.
func (s *Store) AppendLive(ctx context.Context, entries ...types.LogEntry) error {
	const op = "append_live"
	if len(entries) == 0 {
		return s.check(op)
	}

	return s.withTx(ctx, op, func(tx *sql.Tx) error {
		var start string
		err := tx.QueryRowContext(ctx, `SELECT value FROM live_meta WHERE key = ?;`, metaStart).Scan(&start)
		if errors.Is(err, sql.ErrNoRows) {
			return invariant(op, "live meta has no %s", metaStart)
		}
		if err != nil {
			return fmt.Errorf("read meta: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `INSERT INTO live (kind, name, body) VALUES (?, ?, ?);`)
		if err != nil {
			return fmt.Errorf("prepare insert: %w", err)
		}
		defer func() {
			_ = stmt.Close()
		}()

		for _, e := range entries {
			body, err := encodeEntry(e)
			if err != nil {
				return err
			}
			var name sql.NullString
			if e.IsEvent() {
				name = sql.NullString{String: e.Event.Name, Valid: true}
			}
			if _, err := stmt.ExecContext(ctx, string(e.Kind), name, body); err != nil {
				return fmt.Errorf("insert entry: %w", err)
			}
		}

		return putKV(ctx, tx, "live_meta", metaLastUpdate, formatTime(s.now()))
	})
}

// IsNewLine reports whether candidate differs from the most recently
// appended live entry. An empty live log makes every candidate new.
func (s *Store) IsNewLine(ctx context.Context, candidate types.LogEntry) (bool, error) {
	const op = "is_new_line"
	if err := s.check(op); err != nil {
		return false, err
	}

	var body []byte
	err := s.db.QueryRowContext(ctx, `SELECT body FROM live ORDER BY seq DESC LIMIT 1;`).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return true, nil
	}
	if err != nil {
		return false, unavailable(op, err)
	}

	last, err := decodeEntry(op, body)
	if err != nil {
		return false, err
	}
	return !last.Equal(candidate), nil
}

// LiveEntries returns the live log in append order.
func (s *Store) LiveEntries(ctx context.Context) ([]types.LogEntry, error) {
	const op = "live_entries"
	if err := s.check(op); err != nil {
		return nil, err
	}
	return readLive(ctx, s.db, op)
}

// LiveCount returns the number of live entries.
func (s *Store) LiveCount(ctx context.Context) (int, error) {
	const op = "live_count"
	if err := s.check(op); err != nil {
		return 0, err
	}
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM live;`).Scan(&n); err != nil {
		return 0, unavailable(op, err)
	}
	return n, nil
}

// LiveMeta returns the start and last-update times of the live log.
func (s *Store) LiveMeta(ctx context.Context) (types.LogMeta, error) {
	const op = "live_meta"
	if err := s.check(op); err != nil {
		return types.LogMeta{}, err
	}
	meta, err := readMeta(ctx, s.db, op)
	if err != nil {
		return types.LogMeta{}, unavailable(op, err)
	}
	return meta, nil
}

// Live returns the live log as an unarchived CompleteLog with ID 0.
func (s *Store) Live(ctx context.Context) (*types.CompleteLog, error) {
	meta, err := s.LiveMeta(ctx)
	if err != nil {
		return nil, err
	}
	entries, err := s.LiveEntries(ctx)
	if err != nil {
		return nil, err
	}
	return &types.CompleteLog{Meta: meta, Entries: entries}, nil
}

func readLive(ctx context.Context, q queryer, op string) ([]types.LogEntry, error) {
	rows, err := q.QueryContext(ctx, `SELECT body FROM live ORDER BY seq ASC;`)
	if err != nil {
		return nil, unavailable(op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var entries []types.LogEntry
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, unavailable(op, err)
		}
		e, err := decodeEntry(op, body)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(op, err)
	}
	return entries, nil
}

func readMeta(ctx context.Context, q queryer, op string) (types.LogMeta, error) {
	kv, err := readKV(ctx, q, "live_meta")
	if err != nil {
		return types.LogMeta{}, err
	}

	var meta types.LogMeta
	for _, key := range []string{metaStart, metaLastUpdate} {
		raw, ok := kv[key]
		if !ok {
			return types.LogMeta{}, invariant(op, "live meta has no %s", key)
		}
		t, err := parseTime(op, key, raw)
		if err != nil {
			return types.LogMeta{}, err
		}
		if key == metaStart {
			meta.Start = t
		} else {
			meta.LastUpdate = t
		}
	}
	return meta, nil
}

// readKV loads every row of a key/value table. table is never user input.
func readKV(ctx context.Context, q queryer, table string) (map[string]string, error) {
	rows, err := q.QueryContext(ctx, fmt.Sprintf(`SELECT key, value FROM %s;`, table))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", table, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	kv := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		kv[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", table, err)
	}
	return kv, nil
}

func putKV(ctx context.Context, q queryer, table, key, value string) error {
	_, err := q.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %s (key, value) VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value;`, table),
		key, value)
	if err != nil {
		return fmt.Errorf("write %s.%s: %w", table, key, err)
	}
	return nil
}
