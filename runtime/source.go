package runtime

import (
	"context"
	"io"

	"github.com/pithecene-io/battlelog/types"
)

// Source delivers batches from a host log view.
// Next blocks until a batch is available. io.EOF ends the stream cleanly.
type Source interface {
	Next(ctx context.Context) (types.Batch, error)
}

// SliceSource replays a fixed list of batches.
type SliceSource struct {
	batches []types.Batch
	pos     int
}

// NewSliceSource returns a source over batches.
func NewSliceSource(batches ...types.Batch) *SliceSource {
	return &SliceSource{batches: batches}
}

// Next returns the next batch, or io.EOF when exhausted.
func (s *SliceSource) Next(ctx context.Context) (types.Batch, error) {
	if err := ctx.Err(); err != nil {
		return types.Batch{}, err
	}
	if s.pos >= len(s.batches) {
		return types.Batch{}, io.EOF
	}
	b := s.batches[s.pos]
	s.pos++
	return b, nil
}

// Remaining returns how many batches have not been delivered.
func (s *SliceSource) Remaining() int {
	return len(s.batches) - s.pos
}
