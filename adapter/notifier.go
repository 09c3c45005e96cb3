package adapter

import (
	"context"
	"time"

	"github.com/pithecene-io/battlelog/log"
	"github.com/pithecene-io/battlelog/metrics"
	"github.com/pithecene-io/battlelog/runtime"
)

// Notifier publishes an event for every archive the engine writes.
type Notifier struct {
	adapter   Adapter
	sessionID string
	logger    *log.Logger
	collector *metrics.Collector
	now       func() time.Time
}

var _ runtime.ArchiveHook = (*Notifier)(nil)

// NewNotifier wraps a. logger and collector may be nil.
func NewNotifier(a Adapter, sessionID string, logger *log.Logger, collector *metrics.Collector) *Notifier {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Notifier{
		adapter:   a,
		sessionID: sessionID,
		logger:    logger,
		collector: collector,
		now:       time.Now,
	}
}

// Archived implements runtime.ArchiveHook. Resets that archived nothing
// are not published.
func (n *Notifier) Archived(ctx context.Context, ref runtime.ArchiveRef) error {
	if !ref.Archived {
		return nil
	}

	event := NewBattleArchivedEvent(ref, n.sessionID, n.now())
	if err := n.adapter.Publish(ctx, event); err != nil {
		n.collector.IncPublishFailure()
		return err
	}
	n.collector.IncPublishSuccess()
	n.logger.Debug("battle archived event published", map[string]any{
		"archive_id":  event.ArchiveID,
		"battle_type": event.BattleType,
	})
	return nil
}

// Close closes the wrapped adapter.
func (n *Notifier) Close() error {
	return n.adapter.Close()
}
