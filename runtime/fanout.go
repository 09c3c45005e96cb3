package runtime

import (
	"context"

	"github.com/pithecene-io/battlelog/types"
)

// ArchiveReason records why live state was reset.
type ArchiveReason string

const (
	// ReasonBoundary means a round start from a different battle arrived.
	ReasonBoundary ArchiveReason = "boundary"
	// ReasonTeardown means the host view was torn down and the log flushed.
	ReasonTeardown ArchiveReason = "teardown"
)

// ArchiveRef describes one reset of live state.
type ArchiveRef struct {
	// ID is the archive record id. Zero when Archived is false.
	ID int64
	// Archived is false when the live log was empty and only reset.
	Archived bool
	// EntryCount is the number of entries archived.
	EntryCount int
	// Meta is the span of the live log that ended.
	Meta types.LogMeta
	// Previous is the hash of the battle that ended.
	Previous types.LogHash
	// Next is the hash adopted by the reset (sentinel on teardown).
	Next types.LogHash
	// Reason is what triggered the reset.
	Reason ArchiveReason
}

// Consumer receives events as they are ingested.
//
// Events are pushed before they are persisted; a consumer must tolerate
// seeing an event whose append later fails. Methods are called from the
// engine goroutine only.
type Consumer interface {
	// Append delivers one parsed event and the round it belongs to.
	// round is -1 until the first round start is seen.
	Append(ev *types.HvEvent, round int)
	// BoundaryCrossed signals that a new battle started.
	BoundaryCrossed(ref ArchiveRef)
	// Cleared signals that live state was reset without a new battle.
	Cleared()
}

// Fanout dispatches to every consumer in order.
type Fanout []Consumer

var _ Consumer = Fanout(nil)

// Append forwards to every consumer.
func (f Fanout) Append(ev *types.HvEvent, round int) {
	for _, c := range f {
		c.Append(ev, round)
	}
}

// BoundaryCrossed forwards to every consumer.
func (f Fanout) BoundaryCrossed(ref ArchiveRef) {
	for _, c := range f {
		c.BoundaryCrossed(ref)
	}
}

// Cleared forwards to every consumer.
func (f Fanout) Cleared() {
	for _, c := range f {
		c.Cleared()
	}
}

// ArchiveHook runs after a live log is archived.
// Errors are logged by the engine and never stop ingestion.
type ArchiveHook interface {
	Archived(ctx context.Context, ref ArchiveRef) error
}

// HookFunc adapts a function to ArchiveHook.
type HookFunc func(ctx context.Context, ref ArchiveRef) error

// Archived calls f.
func (f HookFunc) Archived(ctx context.Context, ref ArchiveRef) error {
	return f(ctx, ref)
}
