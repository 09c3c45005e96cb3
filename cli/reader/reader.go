package reader

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/pithecene-io/battlelog/stats"
	"github.com/pithecene-io/battlelog/types"
)

// StoreReader serves CLI reads from a log store.
type StoreReader struct {
	store Store
}

// NewStoreReader returns a Reader over s.
func NewStoreReader(s Store) *StoreReader {
	return &StoreReader{store: s}
}

var _ Reader = (*StoreReader)(nil)

// ListBattles lists archived battles, newest first. The battle type is read
// from each archive's first round start, so every listed archive is loaded.
func (r *StoreReader) ListBattles(ctx context.Context, opts ListBattlesOptions) ([]ListBattleItem, error) {
	archives, err := r.store.ListArchives(ctx, opts.Limit)
	if err != nil {
		return nil, fmt.Errorf("list archives: %w", err)
	}

	items := make([]ListBattleItem, 0, len(archives))
	for _, a := range archives {
		log, err := r.store.GetArchive(ctx, a.ID)
		if err != nil {
			return nil, fmt.Errorf("load archive %d: %w", a.ID, err)
		}
		sum := stats.Summarize(log)
		items = append(items, ListBattleItem{
			ID:         a.ID,
			BattleType: sum.BattleType,
			Start:      a.Start,
			LastUpdate: a.LastUpdate,
			Duration:   sum.Duration,
			Entries:    a.EntryCount,
		})
	}
	return items, nil
}

// InspectBattle returns an archived battle with its entries.
func (r *StoreReader) InspectBattle(ctx context.Context, id int64) (*InspectBattleResponse, error) {
	log, err := r.store.GetArchive(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load archive %d: %w", id, err)
	}
	return inspect(log), nil
}

// InspectLive returns the live log and the battle hash it is recorded under.
func (r *StoreReader) InspectLive(ctx context.Context) (*InspectBattleResponse, error) {
	log, err := r.store.Live(ctx)
	if err != nil {
		return nil, fmt.Errorf("load live log: %w", err)
	}
	h, err := r.store.GetHash(ctx)
	if err != nil {
		return nil, fmt.Errorf("load battle hash: %w", err)
	}

	resp := inspect(log)
	resp.Live = true
	resp.Hash = &h
	if resp.BattleType == "" && !h.IsSentinel() {
		resp.BattleType = h.BattleType
	}
	return resp, nil
}

// StatsBattle summarizes an archived battle.
func (r *StoreReader) StatsBattle(ctx context.Context, id int64) (*stats.Summary, error) {
	log, err := r.store.GetArchive(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load archive %d: %w", id, err)
	}
	sum := stats.Summarize(log)
	return &sum, nil
}

// StatsLive summarizes the live log.
func (r *StoreReader) StatsLive(ctx context.Context) (*stats.Summary, error) {
	log, err := r.store.Live(ctx)
	if err != nil {
		return nil, fmt.Errorf("load live log: %w", err)
	}
	sum := stats.Summarize(log)
	return &sum, nil
}

func inspect(log *types.CompleteLog) *InspectBattleResponse {
	sum := stats.Summarize(log)
	resp := &InspectBattleResponse{
		ID:         log.ID,
		BattleType: sum.BattleType,
		Start:      log.Meta.Start,
		LastUpdate: log.Meta.LastUpdate,
		Duration:   log.Meta.Duration().Round(time.Second).String(),
		EntryCount: len(log.Entries),
		Entries:    make([]EntryView, len(log.Entries)),
	}
	for i, e := range log.Entries {
		resp.Entries[i] = View(i, e)
	}
	return resp
}

// View renders one entry. Event fields are shown as sorted key=value pairs;
// null fields are omitted.
func View(seq int, e types.LogEntry) EntryView {
	v := EntryView{Seq: seq, Type: string(e.Kind)}
	if !e.IsEvent() {
		v.Text = e.Detail
		return v
	}
	v.Event = e.Event.Name

	keys := make([]string, 0, len(e.Event.Fields))
	for k, val := range e.Event.Fields {
		if val != nil {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, e.Event.Fields[k])
	}
	v.Text = strings.Join(parts, " ")
	return v
}
