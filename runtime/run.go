package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// Run drives the engine from src until the source ends or ctx is cancelled.
// Returns:
//   - nil: the source returned io.EOF
//   - *EngineError with Kind=ErrorKindCanceled: ctx was cancelled
//   - *EngineError with Kind=ErrorKindSource: the source failed
//   - *EngineError with Kind=ErrorKindStore: a store write failed
//
// A batch already taken from the source is processed to completion even if
// ctx is cancelled meanwhile.
func (e *Engine) Run(ctx context.Context, src Source) error {
	for {
		if err := ctx.Err(); err != nil {
			return &EngineError{Kind: ErrorKindCanceled, Op: "run", Err: err}
		}

		batch, err := src.Next(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return &EngineError{Kind: ErrorKindCanceled, Op: "run", Err: err}
			}
			e.logger.Error("line source failed", map[string]any{
				"error": err.Error(),
			})
			return &EngineError{Kind: ErrorKindSource, Op: "run", Err: fmt.Errorf("source: %w", err)}
		}

		res, err := e.Process(context.WithoutCancel(ctx), batch)
		if err != nil {
			e.logger.Error("batch failed", map[string]any{
				"kind":  string(batch.Kind),
				"lines": len(batch.Lines),
				"error": err.Error(),
			})
			return err
		}
		e.logger.Debug("batch processed", map[string]any{
			"kind":      string(res.Kind),
			"lines":     res.Lines,
			"appended":  res.Appended,
			"duplicate": res.Duplicate,
			"dropped":   res.Dropped,
			"archives":  len(res.Archives),
		})
	}
}
