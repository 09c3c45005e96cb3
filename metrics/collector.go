// Package metrics provides per-session counters for the ingestion engine.
//
// The Collector accumulates counters during a single watch or ingest session.
// It is a leaf package with no internal dependencies; event names are plain
// strings so the parser and types packages stay out of its import graph.
package metrics

import "sync"

// Snapshot is an immutable point-in-time view of all session counters.
// Returned by Collector.Snapshot(). Safe to read concurrently after creation.
type Snapshot struct {
	// Lines and classification
	LinesReceived  int64
	EventsParsed   int64
	ParseFailures  int64
	CoercionErrors int64
	EventsByName   map[string]int64

	// Continuity
	BatchesProcessed  int64
	DuplicateBatches  int64
	BoundariesCrossed int64
	ArchivesWritten   int64
	EmptyFlushes      int64
	Reloads           int64
	Pauses            int64
	DroppedBatches    int64

	// Source
	FrameDecodeErrors int64

	// Archive hooks
	LodeWriteSuccess int64
	LodeWriteFailure int64
	PublishSuccess   int64
	PublishFailure   int64

	// Dimensions (informational, set at construction)
	SessionID      string
	Source         string
	StorageBackend string
}

// Collector accumulates metrics during a single session.
// Thread-safe via sync.Mutex. All increment methods are nil-receiver safe.
type Collector struct {
	mu sync.Mutex

	linesReceived  int64
	eventsParsed   int64
	parseFailures  int64
	coercionErrors int64
	eventsByName   map[string]int64

	batchesProcessed  int64
	duplicateBatches  int64
	boundariesCrossed int64
	archivesWritten   int64
	emptyFlushes      int64
	reloads           int64
	pauses            int64
	droppedBatches    int64

	frameDecodeErrors int64

	lodeWriteSuccess int64
	lodeWriteFailure int64
	publishSuccess   int64
	publishFailure   int64

	sessionID      string
	source         string
	storageBackend string
}

// NewCollector creates a Collector with dimension labels.
// storageBackend names the archive export backend and may be empty.
func NewCollector(sessionID, source, storageBackend string) *Collector {
	return &Collector{
		eventsByName:   make(map[string]int64),
		sessionID:      sessionID,
		source:         source,
		storageBackend: storageBackend,
	}
}

// add increments a counter under the lock. Nil-receiver safe.
func (c *Collector) add(counter *int64, n int64) {
	c.mu.Lock()
	*counter += n
	c.mu.Unlock()
}

// --- Lines and classification ---

// AddLinesReceived records n raw lines handed to the engine.
func (c *Collector) AddLinesReceived(n int) {
	if c == nil {
		return
	}
	c.add(&c.linesReceived, int64(n))
}

// IncEventParsed records one successfully classified line.
func (c *Collector) IncEventParsed(name string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.eventsParsed++
	c.eventsByName[name]++
	c.mu.Unlock()
}

// IncParseFailure records one line stored as a failure entry.
func (c *Collector) IncParseFailure() {
	if c == nil {
		return
	}
	c.add(&c.parseFailures, 1)
}

// AddCoercionErrors records coercion diagnostics seen while scanning.
// A line can produce several, whether or not a later parser matched.
func (c *Collector) AddCoercionErrors(n int) {
	if c == nil || n == 0 {
		return
	}
	c.add(&c.coercionErrors, int64(n))
}

// --- Continuity ---

// IncBatchProcessed records one batch taken from the line source.
func (c *Collector) IncBatchProcessed() {
	if c == nil {
		return
	}
	c.add(&c.batchesProcessed, 1)
}

// IncDuplicateBatch records a resume window discarded as already recorded.
func (c *Collector) IncDuplicateBatch() {
	if c == nil {
		return
	}
	c.add(&c.duplicateBatches, 1)
}

// IncBoundaryCrossed records a detected battle change.
func (c *Collector) IncBoundaryCrossed() {
	if c == nil {
		return
	}
	c.add(&c.boundariesCrossed, 1)
}

// IncArchiveWritten records a live log moved into the archive.
func (c *Collector) IncArchiveWritten() {
	if c == nil {
		return
	}
	c.add(&c.archivesWritten, 1)
}

// IncEmptyFlush records a reset that had nothing to archive.
func (c *Collector) IncEmptyFlush() {
	if c == nil {
		return
	}
	c.add(&c.emptyFlushes, 1)
}

// IncReload records a reload signal.
func (c *Collector) IncReload() {
	if c == nil {
		return
	}
	c.add(&c.reloads, 1)
}

// IncPause records a pause batch.
func (c *Collector) IncPause() {
	if c == nil {
		return
	}
	c.add(&c.pauses, 1)
}

// IncDroppedBatch records a lines batch dropped while awaiting resume.
func (c *Collector) IncDroppedBatch() {
	if c == nil {
		return
	}
	c.add(&c.droppedBatches, 1)
}

// --- Source ---

// IncFrameDecodeError records a skipped undecodable frame.
func (c *Collector) IncFrameDecodeError() {
	if c == nil {
		return
	}
	c.add(&c.frameDecodeErrors, 1)
}

// --- Archive hooks ---
// Hook counters are per archive, not per record.

// IncLodeWriteSuccess records a successful archive export.
func (c *Collector) IncLodeWriteSuccess() {
	if c == nil {
		return
	}
	c.add(&c.lodeWriteSuccess, 1)
}

// IncLodeWriteFailure records a failed archive export.
func (c *Collector) IncLodeWriteFailure() {
	if c == nil {
		return
	}
	c.add(&c.lodeWriteFailure, 1)
}

// IncPublishSuccess records a delivered archive notification.
func (c *Collector) IncPublishSuccess() {
	if c == nil {
		return
	}
	c.add(&c.publishSuccess, 1)
}

// IncPublishFailure records a notification that exhausted its retries.
func (c *Collector) IncPublishFailure() {
	if c == nil {
		return
	}
	c.add(&c.publishFailure, 1)
}

// --- Snapshot ---

// Snapshot returns an immutable point-in-time view of all metrics.
// The returned Snapshot is safe to read concurrently; the Collector can
// continue to be mutated independently.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	byName := make(map[string]int64, len(c.eventsByName))
	for k, v := range c.eventsByName {
		byName[k] = v
	}

	return Snapshot{
		LinesReceived:  c.linesReceived,
		EventsParsed:   c.eventsParsed,
		ParseFailures:  c.parseFailures,
		CoercionErrors: c.coercionErrors,
		EventsByName:   byName,

		BatchesProcessed:  c.batchesProcessed,
		DuplicateBatches:  c.duplicateBatches,
		BoundariesCrossed: c.boundariesCrossed,
		ArchivesWritten:   c.archivesWritten,
		EmptyFlushes:      c.emptyFlushes,
		Reloads:           c.reloads,
		Pauses:            c.pauses,
		DroppedBatches:    c.droppedBatches,

		FrameDecodeErrors: c.frameDecodeErrors,

		LodeWriteSuccess: c.lodeWriteSuccess,
		LodeWriteFailure: c.lodeWriteFailure,
		PublishSuccess:   c.publishSuccess,
		PublishFailure:   c.publishFailure,

		SessionID:      c.sessionID,
		Source:         c.source,
		StorageBackend: c.storageBackend,
	}
}
