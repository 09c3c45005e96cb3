// Package runtime holds the continuity engine: it classifies host log lines,
// keeps the live log free of re-rendered duplicates, detects battle
// boundaries and archives finished battles.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/pithecene-io/battlelog/log"
	"github.com/pithecene-io/battlelog/metrics"
	"github.com/pithecene-io/battlelog/parser"
	"github.com/pithecene-io/battlelog/store"
	"github.com/pithecene-io/battlelog/types"
)

// Store is the persistence surface the engine needs.
// *store.Store satisfies it.
type Store interface {
	AppendLive(ctx context.Context, entries ...types.LogEntry) error
	IsNewLine(ctx context.Context, candidate types.LogEntry) (bool, error)
	LiveEntries(ctx context.Context) ([]types.LogEntry, error)
	GetHash(ctx context.Context) (types.LogHash, error)
	PutHash(ctx context.Context, h types.LogHash) error
	ArchiveAndReset(ctx context.Context, next *types.LogHash) (store.ArchiveResult, error)
	ClearLive(ctx context.Context, next *types.LogHash) error
}

var _ Store = (*store.Store)(nil)

// EngineConfig configures an Engine.
type EngineConfig struct {
	// Store is required.
	Store Store
	// Registry defaults to parser.Default().
	Registry *parser.Registry
	// Consumers receive events in order.
	Consumers []Consumer
	// Hooks run after every archive.
	Hooks []ArchiveHook
	// Logger defaults to a no-op logger.
	Logger *log.Logger
	// Metrics may be nil.
	Metrics *metrics.Collector
}

// BatchResult reports what one batch did.
type BatchResult struct {
	// Kind is the batch kind processed.
	Kind types.BatchKind
	// Lines is the number of host lines in the batch.
	Lines int
	// Appended is the number of entries added to the live log.
	Appended int
	// Duplicate is set when a resume window was already recorded.
	Duplicate bool
	// Skipped counts resume entries left out because the live log already
	// ends with them.
	Skipped int
	// Dropped is set when a lines batch arrived while awaiting resume.
	Dropped bool
	// Archives lists resets in the order they happened.
	Archives []ArchiveRef
}

// Engine is the continuity engine. It is not safe for concurrent use;
// one goroutine drives it through Run or the batch methods.
type Engine struct {
	store     Store
	registry  *parser.Registry
	consumers Fanout
	hooks     []ArchiveHook
	logger    *log.Logger
	collector *metrics.Collector

	hash       types.LogHash
	hashLoaded bool

	awaitingResume bool
}

// NewEngine creates an engine.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	if cfg.Store == nil {
		return nil, errors.New("engine: store is required")
	}
	if cfg.Registry == nil {
		cfg.Registry = parser.Default()
	}
	if cfg.Logger == nil {
		cfg.Logger = log.NewNop()
	}
	return &Engine{
		store:     cfg.Store,
		registry:  cfg.Registry,
		consumers: Fanout(slices.Clone(cfg.Consumers)),
		hooks:     slices.Clone(cfg.Hooks),
		logger:    cfg.Logger,
		collector: cfg.Metrics,
	}, nil
}

// Hash returns the tracked battle hash, loading it on first use.
func (e *Engine) Hash(ctx context.Context) (types.LogHash, error) {
	if err := e.loadHash(ctx); err != nil {
		return types.LogHash{}, err
	}
	return e.hash, nil
}

func (e *Engine) loadHash(ctx context.Context) error {
	if e.hashLoaded {
		return nil
	}
	h, err := e.store.GetHash(ctx)
	if err != nil {
		return storeErr("load_hash", err)
	}
	e.hash = h
	e.hashLoaded = true
	return nil
}

// Resume ingests the visible window, given newest line first.
//
// The newest line is compared with the last live entry; when they are equal
// the window is a re-render of history already recorded and nothing is
// written. Otherwise the window is appended in chronological order with
// boundary checks, minus any leading stretch that repeats the tail of the
// live log (a window that grew while nobody was watching).
func (e *Engine) Resume(ctx context.Context, newestFirst []string) (BatchResult, error) {
	res := BatchResult{Kind: types.BatchResume, Lines: len(newestFirst)}
	e.awaitingResume = false
	if len(newestFirst) == 0 {
		return res, nil
	}

	entries := e.classify(newestFirst)

	isNew, err := e.store.IsNewLine(ctx, entries[0])
	if err != nil {
		return res, storeErr("resume", err)
	}
	if !isNew {
		res.Duplicate = true
		e.collector.IncDuplicateBatch()
		e.logger.Debug("resume window already recorded", map[string]any{
			"lines": len(newestFirst),
		})
		return res, nil
	}

	live, err := e.store.LiveEntries(ctx)
	if err != nil {
		return res, storeErr("resume", err)
	}
	slices.Reverse(entries)
	if n := recordedPrefix(live, entries); n > 0 {
		e.logger.Debug("resume window overlaps live log", map[string]any{
			"recorded": n,
			"new":      len(entries) - n,
		})
		res.Skipped = n
		entries = entries[n:]
	}

	if err := e.ingest(ctx, entries, &res); err != nil {
		return res, err
	}
	return res, nil
}

// recordedPrefix returns how many leading entries of window are already the
// tail of live. A cut point j qualifies when window[j-1] is the last live
// entry and the entries before it agree with live for as far back as both
// go. The latest cut point wins.
func recordedPrefix(live, window []types.LogEntry) int {
	if len(live) == 0 {
		return 0
	}
	last := live[len(live)-1]
	for j := len(window); j > 0; j-- {
		if !window[j-1].Equal(last) {
			continue
		}
		n := min(j, len(live))
		agree := true
		for i := 1; i < n; i++ {
			if !window[j-1-i].Equal(live[len(live)-1-i]) {
				agree = false
				break
			}
		}
		if agree {
			return j
		}
	}
	return 0
}

// Ingest appends lines that arrived after resume, in arrival order.
func (e *Engine) Ingest(ctx context.Context, lines []string) (BatchResult, error) {
	res := BatchResult{Kind: types.BatchLines, Lines: len(lines)}
	if len(lines) == 0 {
		return res, nil
	}
	if err := e.ingest(ctx, e.classify(lines), &res); err != nil {
		return res, err
	}
	return res, nil
}

// Flush archives the live log, if any, and resets to the sentinel hash.
// Consumers are told the live state was cleared.
func (e *Engine) Flush(ctx context.Context) (ArchiveRef, error) {
	if err := e.loadHash(ctx); err != nil {
		return ArchiveRef{}, err
	}

	prev := e.hash
	out, err := e.store.ArchiveAndReset(ctx, nil)
	if err != nil {
		return ArchiveRef{}, storeErr("flush", err)
	}
	e.hash = types.SentinelHash()

	ref := ArchiveRef{
		ID:         out.ID,
		Archived:   out.Archived,
		EntryCount: out.EntryCount,
		Meta:       out.Meta,
		Previous:   prev,
		Next:       e.hash,
		Reason:     ReasonTeardown,
	}
	e.logger.Info("live log flushed", map[string]any{
		"archive_id":  ref.ID,
		"archived":    ref.Archived,
		"entry_count": ref.EntryCount,
	})

	e.consumers.Cleared()
	e.afterReset(ctx, ref)
	return ref, nil
}

// Clear discards the live log without archiving it and resets to the
// sentinel hash. Hooks do not run.
func (e *Engine) Clear(ctx context.Context) error {
	if err := e.store.ClearLive(ctx, nil); err != nil {
		return storeErr("clear", err)
	}
	e.hash = types.SentinelHash()
	e.hashLoaded = true
	e.awaitingResume = false

	e.logger.Info("live log cleared", nil)
	e.consumers.Cleared()
	return nil
}

// Replay pushes the stored live log to consumers so a restarted session
// starts from the same state the previous one ended in. Nothing is written.
// It returns the number of events replayed.
func (e *Engine) Replay(ctx context.Context) (int, error) {
	live, err := e.store.LiveEntries(ctx)
	if err != nil {
		return 0, storeErr("replay", err)
	}

	round, n := -1, 0
	for _, entry := range live {
		if !entry.IsEvent() {
			continue
		}
		if h, ok := parser.RoundHash(entry.Event); ok {
			round = h.CurrentRound
		}
		e.consumers.Append(entry.Event, round)
		n++
	}
	if n > 0 {
		e.logger.Info("live log replayed to consumers", map[string]any{"events": n})
	}
	return n, nil
}

// Process handles one batch from a line source.
func (e *Engine) Process(ctx context.Context, batch types.Batch) (BatchResult, error) {
	e.collector.IncBatchProcessed()

	switch batch.Kind {
	case types.BatchResume:
		return e.Resume(ctx, batch.Lines)

	case types.BatchLines:
		if e.awaitingResume {
			e.collector.IncDroppedBatch()
			e.logger.Debug("dropping lines while awaiting resume", map[string]any{
				"lines": len(batch.Lines),
			})
			return BatchResult{Kind: batch.Kind, Lines: len(batch.Lines), Dropped: true}, nil
		}
		return e.Ingest(ctx, batch.Lines)

	case types.BatchReload:
		e.awaitingResume = true
		e.collector.IncReload()
		e.logger.Info("host log reloaded", nil)
		return BatchResult{Kind: batch.Kind}, nil

	case types.BatchTeardown:
		ref, err := e.Flush(ctx)
		if err != nil {
			return BatchResult{Kind: batch.Kind}, err
		}
		return BatchResult{Kind: batch.Kind, Archives: []ArchiveRef{ref}}, nil

	case types.BatchPause:
		e.collector.IncPause()
		e.logger.Info("riddle screen up, pausing", nil)
		return BatchResult{Kind: batch.Kind}, nil

	default:
		return BatchResult{Kind: batch.Kind}, &EngineError{
			Kind: ErrorKindSource,
			Op:   "process",
			Err:  fmt.Errorf("unknown batch kind %q", batch.Kind),
		}
	}
}
