package ipc

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/pithecene-io/battlelog/log"
	"github.com/pithecene-io/battlelog/metrics"
	"github.com/pithecene-io/battlelog/types"
)

type readResult struct {
	batch types.Batch
	err   error
}

// Reader is a line source over a framed stream.
//
// Frames are read on a background goroutine so Next can honor context
// cancellation while the stream blocks. Undecodable frames are logged,
// counted and skipped; fatal framing errors end the stream.
type Reader struct {
	dec       *FrameDecoder
	logger    *log.Logger
	collector *metrics.Collector

	start   sync.Once
	results chan readResult
	done    chan struct{}
	stop    sync.Once
}

// NewReader returns a Reader on r. logger and collector may be nil.
func NewReader(r io.Reader, logger *log.Logger, collector *metrics.Collector) *Reader {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Reader{
		dec:       NewFrameDecoder(r),
		logger:    logger,
		collector: collector,
		results:   make(chan readResult),
		done:      make(chan struct{}),
	}
}

// Next returns the next decodable batch.
//
// Errors:
//   - io.EOF: stream ended cleanly
//   - *FrameError with a fatal kind: framing was lost
//   - ctx.Err(): the context was cancelled
func (r *Reader) Next(ctx context.Context) (types.Batch, error) {
	r.start.Do(func() { go r.loop() })

	select {
	case <-ctx.Done():
		return types.Batch{}, ctx.Err()
	case res, ok := <-r.results:
		if !ok {
			return types.Batch{}, io.EOF
		}
		return res.batch, res.err
	}
}

// Close stops the background reader. It does not close the underlying stream.
func (r *Reader) Close() error {
	r.stop.Do(func() { close(r.done) })
	return nil
}

func (r *Reader) loop() {
	defer close(r.results)

	for {
		payload, err := r.dec.ReadFrame()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				r.logger.Error("frame error", map[string]any{"error": err.Error()})
				r.send(readResult{err: err})
			}
			return
		}

		batch, err := DecodeBatch(payload)
		if err != nil {
			r.logger.Warn("skipping undecodable frame", map[string]any{
				"error": err.Error(),
				"bytes": len(payload),
			})
			r.collector.IncFrameDecodeError()
			continue
		}

		if !r.send(readResult{batch: *batch}) {
			return
		}
	}
}

func (r *Reader) send(res readResult) bool {
	select {
	case r.results <- res:
		return true
	case <-r.done:
		return false
	}
}
