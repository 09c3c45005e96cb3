// Package tail follows a plain-text battle log file and turns its changes
// into engine batches.
package tail

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/pithecene-io/battlelog/log"
	"github.com/pithecene-io/battlelog/types"
)

// DefaultIdleInterval bounds how long the tailer waits without a
// filesystem event before re-checking the file.
const DefaultIdleInterval = time.Second

// Tailer watches one file. Run drives the watch loop and Next hands the
// resulting batches to the engine.
//
// The first batch is a resume of everything present, newest line first.
// Appends become lines batches. A truncated or replaced file becomes a
// reload followed by a fresh resume. A trailing line without a newline is
// held back until it is completed.
type Tailer struct {
	path    string
	idle    time.Duration
	logger  *log.Logger
	watcher *fsnotify.Watcher
	out     chan types.Batch

	// Owned by the Run goroutine.
	info    os.FileInfo
	offset  int64
	partial []byte
	resumed bool
	lost    bool
}

// Option configures a Tailer.
type Option func(*Tailer)

// WithIdleInterval overrides DefaultIdleInterval.
func WithIdleInterval(d time.Duration) Option {
	return func(t *Tailer) {
		if d > 0 {
			t.idle = d
		}
	}
}

// WithLogger sets the logger for watch errors.
func WithLogger(l *log.Logger) Option {
	return func(t *Tailer) {
		if l != nil {
			t.logger = l
		}
	}
}

// New creates a Tailer for path. The file need not exist yet, but its
// directory must.
func New(path string, opts ...Option) (*Tailer, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	// Watch the directory so rename-and-recreate is seen.
	if err := w.Add(filepath.Dir(absPath)); err != nil {
		w.Close()
		return nil, fmt.Errorf("failed to watch directory: %w", err)
	}

	t := &Tailer{
		path:    absPath,
		idle:    DefaultIdleInterval,
		logger:  log.NewNop(),
		watcher: w,
		out:     make(chan types.Batch, 16),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Path returns the absolute path being tailed.
func (t *Tailer) Path() string { return t.path }

// Run polls the file on every relevant event and at each idle interval
// until ctx is cancelled. It closes the batch channel on return and must
// be called at most once.
func (t *Tailer) Run(ctx context.Context) error {
	defer close(t.out)
	defer t.watcher.Close()

	idle := time.NewTicker(t.idle)
	defer idle.Stop()

	for {
		if err := t.poll(ctx); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-t.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != t.path {
				continue
			}

		case err, ok := <-t.watcher.Errors:
			if !ok {
				return nil
			}
			t.logger.Warn("watch error", map[string]any{"path": t.path, "error": err.Error()})

		case <-idle.C:
		}
	}
}

// Next implements runtime.Source. It returns io.EOF once Run has stopped
// and every produced batch has been consumed.
func (t *Tailer) Next(ctx context.Context) (types.Batch, error) {
	select {
	case <-ctx.Done():
		return types.Batch{}, ctx.Err()
	case b, ok := <-t.out:
		if !ok {
			return types.Batch{}, io.EOF
		}
		return b, nil
	}
}

func (t *Tailer) emit(ctx context.Context, b types.Batch) error {
	select {
	case t.out <- b:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// poll compares the file with what has been read so far and emits at most
// a reload plus one data batch.
func (t *Tailer) poll(ctx context.Context) error {
	info, err := os.Stat(t.path)
	if errors.Is(err, fs.ErrNotExist) {
		if t.info != nil {
			t.logger.Info("log file removed", map[string]any{"path": t.path})
			t.info, t.offset, t.partial, t.lost = nil, 0, nil, true
		}
		if !t.resumed {
			t.resumed = true
			return t.emit(ctx, types.Batch{Kind: types.BatchResume})
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat file: %w", err)
	}

	replaced := t.info != nil && !os.SameFile(t.info, info)
	if t.lost || replaced || info.Size() < t.offset {
		t.logger.Info("log file reset", map[string]any{
			"path":     t.path,
			"replaced": replaced || t.lost,
			"size":     info.Size(),
			"offset":   t.offset,
		})
		if err := t.emit(ctx, types.Batch{Kind: types.BatchReload}); err != nil {
			return err
		}
		t.offset, t.partial, t.resumed, t.lost = 0, nil, false, false
	}
	t.info = info

	if !t.resumed {
		lines, err := t.readNew()
		if err != nil {
			return err
		}
		slices.Reverse(lines)
		t.resumed = true
		return t.emit(ctx, types.Batch{Kind: types.BatchResume, Lines: lines})
	}

	if info.Size() == t.offset {
		return nil
	}
	lines, err := t.readNew()
	if err != nil {
		return err
	}
	if len(lines) == 0 {
		return nil
	}
	return t.emit(ctx, types.Batch{Kind: types.BatchLines, Lines: lines})
}

// readNew reads from the current offset to end of file and returns the
// completed non-blank lines in file order.
func (t *Tailer) readNew() ([]string, error) {
	f, err := os.Open(t.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	if _, err := f.Seek(t.offset, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to seek: %w", err)
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	t.offset += int64(len(data))

	buf := append(t.partial, data...)
	last := bytes.LastIndexByte(buf, '\n')
	if last < 0 {
		t.partial = buf
		return nil, nil
	}
	t.partial = slices.Clone(buf[last+1:])

	var lines []string
	for raw := range bytes.SplitSeq(buf[:last], []byte{'\n'}) {
		line := bytes.TrimRight(raw, "\r")
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		lines = append(lines, string(line))
	}
	return lines, nil
}
