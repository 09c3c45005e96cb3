package lode

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/justapithecus/lode/lode"
)

// ErrNotExported is returned when no snapshot holds the requested archive.
var ErrNotExported = errors.New("archive not exported")

// ReadExport returns the records of the latest snapshot that holds
// archiveID, battle record first.
func ReadExport(ctx context.Context, ds lode.Dataset, archiveID int64) ([]map[string]any, error) {
	id := strconv.FormatInt(archiveID, 10)

	snapshots, err := ds.Snapshots(ctx)
	if err != nil {
		return nil, WrapReadError(err, string(ds.ID()))
	}

	// Latest first; snapshots are ordered by creation time.
	for i := len(snapshots) - 1; i >= 0; i-- {
		snap := snapshots[i]
		if !snapshotMatches(snap, "archive_id", id) {
			continue
		}

		data, err := ds.Read(ctx, snap.ID)
		if err != nil {
			return nil, WrapReadError(err, fmt.Sprintf("%s/snapshot/%s", ds.ID(), snap.ID))
		}

		// Manifest paths are a coarse filter; record fields decide.
		var out []map[string]any
		for _, item := range data {
			record, ok := item.(map[string]any)
			if !ok || toString(record["archive_id"]) != id {
				continue
			}
			out = append(out, record)
		}
		if len(out) > 0 {
			sortRecords(out)
			return out, nil
		}
	}

	return nil, ErrNotExported
}

// Exported reports whether archiveID already has a snapshot in ds.
func Exported(ctx context.Context, ds lode.Dataset, archiveID int64) (bool, error) {
	_, err := ReadExport(ctx, ds, archiveID)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrNotExported):
		return false, nil
	default:
		return false, err
	}
}

// sortRecords puts the battle record first and entries in seq order.
func sortRecords(records []map[string]any) {
	rank := func(r map[string]any) (int, float64) {
		if r["record_kind"] == RecordKindBattle {
			return 0, 0
		}
		seq, _ := r["seq"].(float64)
		return 1, seq
	}
	slices.SortStableFunc(records, func(a, b map[string]any) int {
		ka, sa := rank(a)
		kb, sb := rank(b)
		if c := cmp.Compare(ka, kb); c != 0 {
			return c
		}
		return cmp.Compare(sa, sb)
	})
}

// snapshotMatches reports whether any file in the snapshot sits under the
// key=value partition.
func snapshotMatches(snap *lode.DatasetSnapshot, key, value string) bool {
	for _, f := range snap.Manifest.Files {
		if matchesPartitionValue(f.Path, key, value) {
			return true
		}
	}
	return false
}

// matchesPartitionValue matches whole path segments so archive_id=1 does
// not match archive_id=10.
func matchesPartitionValue(path, key, value string) bool {
	segment := key + "=" + value
	for part := range strings.SplitSeq(path, "/") {
		if part == segment {
			return true
		}
	}
	return false
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
