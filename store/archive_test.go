package store

import (
	"errors"
	"testing"

	"github.com/pithecene-io/battlelog/types"
)

func TestArchiveAndReset(t *testing.T) {
	s := openTest(t)
	ctx := t.Context()

	entries := []types.LogEntry{
		event("ROUND_START", map[string]any{"battle_type": "Arena Battle", "current": 1.0, "max": 10.0}),
		event("PLAYER_ATTACK", map[string]any{"spell": "Shield Bash", "value": 120.0, "damage_type": nil}),
		types.FailureEntry("No matching parser for ???"),
	}
	if err := s.AppendLive(ctx, entries...); err != nil {
		t.Fatal(err)
	}
	meta, _ := s.LiveMeta(ctx)

	next := types.LogHash{BattleType: "Grindfest", CurrentRound: 1, MaxRound: 1000}
	res, err := s.ArchiveAndReset(ctx, &next)
	if err != nil {
		t.Fatalf("ArchiveAndReset() error = %v", err)
	}
	if !res.Archived || res.ID == 0 || res.EntryCount != 3 {
		t.Fatalf("ArchiveAndReset() = %+v", res)
	}

	// The archive holds the old live log and its meta.
	log, err := s.GetArchive(ctx, res.ID)
	if err != nil {
		t.Fatalf("GetArchive() error = %v", err)
	}
	if !log.Meta.Start.Equal(meta.Start) || !log.Meta.LastUpdate.Equal(meta.LastUpdate) {
		t.Errorf("archive meta = %+v, want %+v", log.Meta, meta)
	}
	if len(log.Entries) != len(entries) {
		t.Fatalf("archive has %d entries, want %d", len(log.Entries), len(entries))
	}
	for i := range entries {
		if !log.Entries[i].Equal(entries[i]) {
			t.Errorf("archive entry %d = %+v, want %+v", i, log.Entries[i], entries[i])
		}
	}

	// Live state is reset and the new hash adopted.
	if n, _ := s.LiveCount(ctx); n != 0 {
		t.Errorf("LiveCount() = %d, want 0", n)
	}
	after, _ := s.LiveMeta(ctx)
	if !after.Start.After(meta.LastUpdate) || !after.Start.Equal(after.LastUpdate) {
		t.Errorf("reset meta = %+v", after)
	}
	if h, _ := s.GetHash(ctx); h != next {
		t.Errorf("GetHash() = %+v, want %+v", h, next)
	}
}

func TestArchiveAndReset_EmptyLiveOnlyResets(t *testing.T) {
	s := openTest(t)
	ctx := t.Context()

	h := types.LogHash{BattleType: "Arena Battle", CurrentRound: 2, MaxRound: 10}
	if err := s.PutHash(ctx, h); err != nil {
		t.Fatal(err)
	}

	res, err := s.ArchiveAndReset(ctx, nil)
	if err != nil {
		t.Fatalf("ArchiveAndReset() error = %v", err)
	}
	if res.Archived || res.ID != 0 {
		t.Errorf("ArchiveAndReset() on empty log = %+v, want no archive", res)
	}

	sums, _ := s.ListArchives(ctx, 0)
	if len(sums) != 0 {
		t.Errorf("ListArchives() = %v, want none", sums)
	}
	if got, _ := s.GetHash(ctx); !got.IsSentinel() {
		t.Errorf("GetHash() = %+v, want sentinel", got)
	}
}

func TestArchiveAndReset_MissingMetaAborts(t *testing.T) {
	s := openTest(t)
	ctx := t.Context()

	if err := s.AppendLive(ctx, types.FailureEntry("x")); err != nil {
		t.Fatal(err)
	}
	before, _ := s.GetHash(ctx)
	if _, err := s.db.ExecContext(ctx, `DELETE FROM live_meta WHERE key = 'lastUpdate';`); err != nil {
		t.Fatal(err)
	}

	next := types.LogHash{BattleType: "Arena Battle", CurrentRound: 1, MaxRound: 10}
	_, err := s.ArchiveAndReset(ctx, &next)
	if !errors.Is(err, ErrInvariantViolation) {
		t.Fatalf("ArchiveAndReset() error = %v, want ErrInvariantViolation", err)
	}

	// Nothing changed.
	if n, _ := s.LiveCount(ctx); n != 1 {
		t.Errorf("LiveCount() = %d, want 1", n)
	}
	if sums, _ := s.ListArchives(ctx, 0); len(sums) != 0 {
		t.Errorf("ListArchives() = %v, want none", sums)
	}
	if h, _ := s.GetHash(ctx); h != before {
		t.Errorf("GetHash() = %+v, want unchanged %+v", h, before)
	}
}

func TestClearLive(t *testing.T) {
	s := openTest(t)
	ctx := t.Context()

	if err := s.AppendLive(ctx, types.FailureEntry("x"), types.FailureEntry("y")); err != nil {
		t.Fatal(err)
	}
	if err := s.ClearLive(ctx, nil); err != nil {
		t.Fatalf("ClearLive() error = %v", err)
	}

	if n, _ := s.LiveCount(ctx); n != 0 {
		t.Errorf("LiveCount() = %d, want 0", n)
	}
	if sums, _ := s.ListArchives(ctx, 0); len(sums) != 0 {
		t.Errorf("ClearLive archived %v", sums)
	}
}

func TestListArchives_NewestFirst(t *testing.T) {
	s := openTest(t)
	ctx := t.Context()

	var ids []int64
	for i := range 3 {
		entries := make([]types.LogEntry, i+1)
		for j := range entries {
			entries[j] = types.FailureEntry("x")
		}
		if err := s.AppendLive(ctx, entries...); err != nil {
			t.Fatal(err)
		}
		res, err := s.ArchiveAndReset(ctx, nil)
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, res.ID)
	}

	if !(ids[0] < ids[1] && ids[1] < ids[2]) {
		t.Fatalf("ids not increasing: %v", ids)
	}

	sums, err := s.ListArchives(ctx, 0)
	if err != nil {
		t.Fatalf("ListArchives() error = %v", err)
	}
	if len(sums) != 3 || sums[0].ID != ids[2] || sums[2].ID != ids[0] {
		t.Fatalf("ListArchives() = %+v", sums)
	}
	if sums[0].EntryCount != 3 || sums[2].EntryCount != 1 {
		t.Errorf("entry counts = %d, %d", sums[0].EntryCount, sums[2].EntryCount)
	}

	limited, _ := s.ListArchives(ctx, 2)
	if len(limited) != 2 || limited[0].ID != ids[2] {
		t.Errorf("ListArchives(2) = %+v", limited)
	}
}

func TestDeleteArchive(t *testing.T) {
	s := openTest(t)
	ctx := t.Context()

	if err := s.AppendLive(ctx, types.FailureEntry("x")); err != nil {
		t.Fatal(err)
	}
	res, _ := s.ArchiveAndReset(ctx, nil)

	if err := s.DeleteArchive(ctx, res.ID); err != nil {
		t.Fatalf("DeleteArchive() error = %v", err)
	}
	if _, err := s.GetArchive(ctx, res.ID); !errors.Is(err, ErrArchiveNotFound) {
		t.Errorf("GetArchive() after delete error = %v, want ErrArchiveNotFound", err)
	}
	if err := s.DeleteArchive(ctx, res.ID); !errors.Is(err, ErrArchiveNotFound) {
		t.Errorf("second DeleteArchive() error = %v, want ErrArchiveNotFound", err)
	}

	// Ids are not reused after deletion.
	if err := s.AppendLive(ctx, types.FailureEntry("y")); err != nil {
		t.Fatal(err)
	}
	next, _ := s.ArchiveAndReset(ctx, nil)
	if next.ID <= res.ID {
		t.Errorf("new id %d reuses or precedes deleted id %d", next.ID, res.ID)
	}
}

func TestGetArchive_Unknown(t *testing.T) {
	s := openTest(t)
	_, err := s.GetArchive(t.Context(), 42)
	if !errors.Is(err, ErrArchiveNotFound) {
		t.Fatalf("GetArchive() error = %v, want ErrArchiveNotFound", err)
	}
}
