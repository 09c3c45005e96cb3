package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pithecene-io/battlelog/types"
)

// ArchiveResult describes the outcome of ArchiveAndReset.
type ArchiveResult struct {
	// ID is the new archive record id. Zero when Archived is false.
	ID int64
	// Archived is false when the live log was empty and only a reset ran.
	Archived bool
	// EntryCount is the number of entries moved into the archive.
	EntryCount int
	// Meta is the span of the live log that was reset.
	Meta types.LogMeta
}

// ArchiveAndReset moves the live log into a new archive record and resets
// live state, in one transaction.
//
// The reset sets start and lastUpdate to now and the hash to next, or to the
// sentinel when next is nil. An empty live log is not archived; the reset
// still happens. Live meta missing either key aborts the whole operation
// with ErrInvariantViolation.
func (s *Store) ArchiveAndReset(ctx context.Context, next *types.LogHash) (ArchiveResult, error) {
	const op = "archive"
	h := hashOrSentinel(next)

	s.mu.Lock()
	defer s.mu.Unlock()

	var res ArchiveResult
	err := s.withTx(ctx, op, func(tx *sql.Tx) error {
		meta, err := readMeta(ctx, tx, op)
		if err != nil {
			return err
		}
		entries, err := readLive(ctx, tx, op)
		if err != nil {
			return err
		}

		if len(entries) > 0 {
			blob, err := encodeEntries(entries)
			if err != nil {
				return err
			}
			r, err := tx.ExecContext(ctx,
				`INSERT INTO complete (start, last_update, entry_count, entries) VALUES (?, ?, ?, ?);`,
				formatTime(meta.Start), formatTime(meta.LastUpdate), len(entries), blob)
			if err != nil {
				return fmt.Errorf("insert archive: %w", err)
			}
			id, err := r.LastInsertId()
			if err != nil {
				return fmt.Errorf("archive id: %w", err)
			}
			res = ArchiveResult{ID: id, Archived: true, EntryCount: len(entries)}
		}
		res.Meta = meta

		return resetLive(ctx, tx, s.now(), h)
	})
	if err != nil {
		return ArchiveResult{}, err
	}
	s.hash = &h
	return res, nil
}

// ClearLive discards live state without archiving it.
func (s *Store) ClearLive(ctx context.Context, next *types.LogHash) error {
	const op = "clear_live"
	h := hashOrSentinel(next)

	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.withTx(ctx, op, func(tx *sql.Tx) error {
		return resetLive(ctx, tx, s.now(), h)
	})
	if err != nil {
		return err
	}
	s.hash = &h
	return nil
}

// ListArchives returns archive summaries, newest first.
// A limit of zero or less returns every archive.
func (s *Store) ListArchives(ctx context.Context, limit int) ([]types.ArchiveSummary, error) {
	const op = "list_archives"
	if err := s.check(op); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, start, last_update, entry_count FROM complete ORDER BY id DESC LIMIT ?;`, limit)
	if err != nil {
		return nil, unavailable(op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var out []types.ArchiveSummary
	for rows.Next() {
		var (
			sum           types.ArchiveSummary
			start, update string
		)
		if err := rows.Scan(&sum.ID, &start, &update, &sum.EntryCount); err != nil {
			return nil, unavailable(op, err)
		}
		if sum.Start, err = parseTime(op, metaStart, start); err != nil {
			return nil, err
		}
		if sum.LastUpdate, err = parseTime(op, metaLastUpdate, update); err != nil {
			return nil, err
		}
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(op, err)
	}
	return out, nil
}

// GetArchive loads one archive record.
func (s *Store) GetArchive(ctx context.Context, id int64) (*types.CompleteLog, error) {
	const op = "get_archive"
	if err := s.check(op); err != nil {
		return nil, err
	}

	var (
		start, update string
		blob          []byte
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT start, last_update, entries FROM complete WHERE id = ?;`, id).
		Scan(&start, &update, &blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &StoreError{Kind: ErrArchiveNotFound, Op: op, Err: fmt.Errorf("id %d", id)}
	}
	if err != nil {
		return nil, unavailable(op, err)
	}

	log := &types.CompleteLog{ID: id}
	if log.Meta.Start, err = parseTime(op, metaStart, start); err != nil {
		return nil, err
	}
	if log.Meta.LastUpdate, err = parseTime(op, metaLastUpdate, update); err != nil {
		return nil, err
	}
	if log.Entries, err = decodeEntries(op, blob); err != nil {
		return nil, err
	}
	return log, nil
}

// DeleteArchive removes one archive record. Ids are never reused.
func (s *Store) DeleteArchive(ctx context.Context, id int64) error {
	const op = "delete_archive"
	if err := s.check(op); err != nil {
		return err
	}

	r, err := s.db.ExecContext(ctx, `DELETE FROM complete WHERE id = ?;`, id)
	if err != nil {
		return unavailable(op, err)
	}
	n, err := r.RowsAffected()
	if err != nil {
		return unavailable(op, err)
	}
	if n == 0 {
		return &StoreError{Kind: ErrArchiveNotFound, Op: op, Err: fmt.Errorf("id %d", id)}
	}
	return nil
}

func resetLive(ctx context.Context, q queryer, now time.Time, h types.LogHash) error {
	for _, table := range []string{"live", "live_meta", "live_hash"} {
		if _, err := q.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s;`, table)); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	ts := formatTime(now)
	if err := putKV(ctx, q, "live_meta", metaStart, ts); err != nil {
		return err
	}
	if err := putKV(ctx, q, "live_meta", metaLastUpdate, ts); err != nil {
		return err
	}
	return writeHash(ctx, q, h)
}

func hashOrSentinel(h *types.LogHash) types.LogHash {
	if h == nil {
		return types.SentinelHash()
	}
	return *h
}
