package lode

import (
	"context"
	"fmt"
	"time"

	"github.com/justapithecus/lode/lode"

	"github.com/pithecene-io/battlelog/log"
	"github.com/pithecene-io/battlelog/metrics"
	"github.com/pithecene-io/battlelog/runtime"
	"github.com/pithecene-io/battlelog/stats"
	"github.com/pithecene-io/battlelog/types"
)

// ArchiveLoader reads archived battles. *store.Store satisfies it.
type ArchiveLoader interface {
	GetArchive(ctx context.Context, id int64) (*types.CompleteLog, error)
}

// ExportResult describes one written snapshot.
type ExportResult struct {
	ArchiveID  int64  `json:"archive_id" yaml:"archive_id"`
	BattleType string `json:"battle_type" yaml:"battle_type"`
	// Partition is the path-safe battle_type partition value.
	Partition string `json:"partition" yaml:"partition"`
	Records   int    `json:"records" yaml:"records"`
}

// Exporter writes archived battles to a dataset. It is a runtime.ArchiveHook
// so every boundary archive is exported as it is written.
type Exporter struct {
	ds        lode.Dataset
	archives  ArchiveLoader
	logger    *log.Logger
	collector *metrics.Collector
	sessionID string
	now       func() time.Time
}

var _ runtime.ArchiveHook = (*Exporter)(nil)

// ExporterOption configures an Exporter.
type ExporterOption func(*Exporter)

// WithLogger sets the exporter logger.
func WithLogger(l *log.Logger) ExporterOption {
	return func(e *Exporter) { e.logger = l }
}

// WithCollector counts write outcomes on c.
func WithCollector(c *metrics.Collector) ExporterOption {
	return func(e *Exporter) { e.collector = c }
}

// WithSessionID stamps battle records with the producing session.
func WithSessionID(id string) ExporterOption {
	return func(e *Exporter) { e.sessionID = id }
}

// WithClock overrides the export timestamp source.
func WithClock(now func() time.Time) ExporterOption {
	return func(e *Exporter) { e.now = now }
}

// NewExporter returns an Exporter writing to ds.
func NewExporter(ds lode.Dataset, archives ArchiveLoader, opts ...ExporterOption) *Exporter {
	e := &Exporter{
		ds:       ds,
		archives: archives,
		logger:   log.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Archived implements runtime.ArchiveHook. Resets that archived nothing
// are ignored.
func (e *Exporter) Archived(ctx context.Context, ref runtime.ArchiveRef) error {
	if !ref.Archived {
		return nil
	}
	cl, err := e.archives.GetArchive(ctx, ref.ID)
	if err != nil {
		return fmt.Errorf("load archive %d: %w", ref.ID, err)
	}
	_, err = e.Export(ctx, cl)
	return err
}

// Export writes one snapshot holding a battle record followed by an entry
// record per log entry.
func (e *Exporter) Export(ctx context.Context, cl *types.CompleteLog) (ExportResult, error) {
	sum := stats.Summarize(cl)
	p := partitionFor(cl, sum)

	records := make([]any, 0, len(cl.Entries)+1)
	records = append(records, battleRecord(p, sum, e.sessionID, e.now()))
	for i, entry := range cl.Entries {
		records = append(records, entryRecord(p, i, entry))
	}

	if _, err := e.ds.Write(ctx, records, lode.Metadata{}); err != nil {
		e.collector.IncLodeWriteFailure()
		return ExportResult{}, WrapWriteError(err, string(e.ds.ID()))
	}
	e.collector.IncLodeWriteSuccess()

	res := ExportResult{
		ArchiveID:  cl.ID,
		BattleType: sum.BattleType,
		Partition:  p.battleType,
		Records:    len(records),
	}
	e.logger.Info("battle exported", map[string]any{
		"archive_id":  res.ArchiveID,
		"battle_type": res.BattleType,
		"partition":   res.Partition,
		"records":     res.Records,
	})
	return res, nil
}
