package runtime

import (
	"context"
	"errors"
	"fmt"

	"github.com/pithecene-io/battlelog/parser"
	"github.com/pithecene-io/battlelog/types"
)

// EngineError classifies engine failures.
type EngineError struct {
	// Kind indicates which collaborator failed.
	Kind EngineErrorKind
	// Op is the engine step that failed (e.g. "resume", "boundary").
	Op string
	// Err is the underlying error.
	Err error
}

// EngineErrorKind classifies engine errors.
type EngineErrorKind int

const (
	// ErrorKindStore indicates a store operation failed. The batch aborts.
	ErrorKindStore EngineErrorKind = iota
	// ErrorKindSource indicates the line source failed or sent garbage.
	ErrorKindSource
	// ErrorKindCanceled indicates context cancellation between batches.
	ErrorKindCanceled
)

func (k EngineErrorKind) String() string {
	switch k {
	case ErrorKindStore:
		return "store"
	case ErrorKindSource:
		return "source"
	case ErrorKindCanceled:
		return "canceled"
	default:
		return fmt.Sprintf("EngineErrorKind(%d)", int(k))
	}
}

func (e *EngineError) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *EngineError) Unwrap() error {
	return e.Err
}

// IsStoreError returns true if the error is a store failure.
func IsStoreError(err error) bool {
	var engErr *EngineError
	if errors.As(err, &engErr) {
		return engErr.Kind == ErrorKindStore
	}
	return false
}

// IsSourceError returns true if the error came from the line source.
func IsSourceError(err error) bool {
	var engErr *EngineError
	if errors.As(err, &engErr) {
		return engErr.Kind == ErrorKindSource
	}
	return false
}

// IsCanceledError returns true if the error is due to context cancellation.
func IsCanceledError(err error) bool {
	var engErr *EngineError
	if errors.As(err, &engErr) {
		return engErr.Kind == ErrorKindCanceled
	}
	return false
}

func storeErr(op string, err error) error {
	return &EngineError{Kind: ErrorKindStore, Op: op, Err: err}
}

// classify turns host lines into entries, preserving order.
func (e *Engine) classify(lines []string) []types.LogEntry {
	e.collector.AddLinesReceived(len(lines))
	entries := make([]types.LogEntry, len(lines))
	for i, line := range lines {
		entry, diags := e.registry.EntryDiag(line)
		e.collector.AddCoercionErrors(len(diags))
		entries[i] = entry
	}
	return entries
}

// segments splits chronological entries at every round start. Only the
// first segment may lack a leading round start.
func segments(entries []types.LogEntry) [][]types.LogEntry {
	var (
		out     [][]types.LogEntry
		current []types.LogEntry
	)
	for _, entry := range entries {
		if isRoundStart(entry) && len(current) > 0 {
			out = append(out, current)
			current = nil
		}
		current = append(current, entry)
	}
	if len(current) > 0 {
		out = append(out, current)
	}
	return out
}

func isRoundStart(entry types.LogEntry) bool {
	if !entry.IsEvent() {
		return false
	}
	_, ok := parser.RoundHash(entry.Event)
	return ok
}

// ingest runs the boundary check and appends chronological entries.
//
// Each segment that opens with a round start is checked against the tracked
// hash before its entries are pushed to consumers and appended. Entries
// before the first round start belong to the battle already tracked.
func (e *Engine) ingest(ctx context.Context, entries []types.LogEntry, res *BatchResult) error {
	if err := e.loadHash(ctx); err != nil {
		return err
	}

	for _, seg := range segments(entries) {
		if seg[0].IsEvent() {
			if candidate, ok := parser.RoundHash(seg[0].Event); ok {
				if err := e.checkBoundary(ctx, candidate, res); err != nil {
					return err
				}
			}
		}

		for _, entry := range seg {
			if entry.IsEvent() {
				e.consumers.Append(entry.Event, e.hash.CurrentRound)
				e.collector.IncEventParsed(entry.Event.Name)
			} else {
				e.collector.IncParseFailure()
			}
		}

		if err := e.store.AppendLive(ctx, seg...); err != nil {
			return storeErr("append", err)
		}
		res.Appended += len(seg)
	}
	return nil
}

// checkBoundary compares a round-start hash with the tracked battle.
func (e *Engine) checkBoundary(ctx context.Context, candidate types.LogHash, res *BatchResult) error {
	switch {
	case e.hash.IsSentinel():
		return e.adoptHash(ctx, candidate)

	case candidate.SameBattle(e.hash):
		if candidate == e.hash {
			return nil
		}
		return e.adoptHash(ctx, candidate)

	default:
		prev := e.hash
		out, err := e.store.ArchiveAndReset(ctx, &candidate)
		if err != nil {
			return storeErr("boundary", err)
		}
		e.hash = candidate

		ref := ArchiveRef{
			ID:         out.ID,
			Archived:   out.Archived,
			EntryCount: out.EntryCount,
			Meta:       out.Meta,
			Previous:   prev,
			Next:       candidate,
			Reason:     ReasonBoundary,
		}
		res.Archives = append(res.Archives, ref)

		e.collector.IncBoundaryCrossed()
		e.logger.Info("battle boundary crossed", map[string]any{
			"archive_id":    ref.ID,
			"archived":      ref.Archived,
			"entry_count":   ref.EntryCount,
			"previous_type": prev.BattleType,
			"previous":      fmt.Sprintf("%d/%d", prev.CurrentRound, prev.MaxRound),
			"next_type":     candidate.BattleType,
			"next":          fmt.Sprintf("%d/%d", candidate.CurrentRound, candidate.MaxRound),
		})

		e.consumers.BoundaryCrossed(ref)
		e.afterReset(ctx, ref)
		return nil
	}
}

func (e *Engine) adoptHash(ctx context.Context, h types.LogHash) error {
	if err := e.store.PutHash(ctx, h); err != nil {
		return storeErr("put_hash", err)
	}
	e.hash = h
	return nil
}

// afterReset counts the reset and runs archive hooks when a record exists.
func (e *Engine) afterReset(ctx context.Context, ref ArchiveRef) {
	if !ref.Archived {
		e.collector.IncEmptyFlush()
		return
	}
	e.collector.IncArchiveWritten()

	for _, hook := range e.hooks {
		if err := hook.Archived(ctx, ref); err != nil {
			e.logger.Warn("archive hook failed", map[string]any{
				"archive_id": ref.ID,
				"hook":       fmt.Sprintf("%T", hook),
				"error":      err.Error(),
			})
		}
	}
}
