package tail

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/pithecene-io/battlelog/types"
)

// startTailer runs a tailer on path and returns it with a cancel func that
// waits for Run to return.
func startTailer(t *testing.T, path string) (*Tailer, func()) {
	t.Helper()
	tl, err := New(path, WithIdleInterval(20*time.Millisecond))
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- tl.Run(ctx) }()
	var once sync.Once
	stop := func() {
		once.Do(func() {
			cancel()
			<-done
		})
	}
	t.Cleanup(stop)
	return tl, stop
}

func next(t *testing.T, tl *Tailer) types.Batch {
	t.Helper()
	ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
	defer cancel()
	b, err := tl.Next(ctx)
	if err != nil {
		t.Fatalf("Next() failed: %v", err)
	}
	return b
}

func appendFile(t *testing.T, path, s string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0o644)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	if _, err := f.WriteString(s); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestTailer_ResumeThenLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "battle.log")
	appendFile(t, path, "first\nsecond\n\nthird\n")

	tl, _ := startTailer(t, path)

	b := next(t, tl)
	if b.Kind != types.BatchResume {
		t.Fatalf("Kind = %q, want resume", b.Kind)
	}
	if want := []string{"third", "second", "first"}; !slices.Equal(b.Lines, want) {
		t.Errorf("resume Lines = %v, want %v", b.Lines, want)
	}

	appendFile(t, path, "fourth\nfifth\n")
	b = next(t, tl)
	if b.Kind != types.BatchLines {
		t.Fatalf("Kind = %q, want lines", b.Kind)
	}
	if want := []string{"fourth", "fifth"}; !slices.Equal(b.Lines, want) {
		t.Errorf("Lines = %v, want %v", b.Lines, want)
	}
}

func TestTailer_HoldsPartialLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "battle.log")
	appendFile(t, path, "done\nhalf")

	tl, _ := startTailer(t, path)

	b := next(t, tl)
	if !slices.Equal(b.Lines, []string{"done"}) {
		t.Fatalf("resume Lines = %v", b.Lines)
	}

	appendFile(t, path, " line\r\n")
	b = next(t, tl)
	if b.Kind != types.BatchLines || !slices.Equal(b.Lines, []string{"half line"}) {
		t.Errorf("batch = %+v", b)
	}
}

func TestTailer_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "battle.log")
	tl, _ := startTailer(t, path)

	b := next(t, tl)
	if b.Kind != types.BatchResume || len(b.Lines) != 0 {
		t.Fatalf("batch = %+v, want empty resume", b)
	}

	appendFile(t, path, "created\n")
	b = next(t, tl)
	if b.Kind != types.BatchLines || !slices.Equal(b.Lines, []string{"created"}) {
		t.Errorf("batch = %+v", b)
	}
}

func TestTailer_Replaced(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "battle.log")
	appendFile(t, path, "old one\nold two\n")

	tl, _ := startTailer(t, path)
	next(t, tl)

	tmp := filepath.Join(dir, "battle.log.new")
	if err := os.WriteFile(tmp, []byte("new one\nnew two\nnew three\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(tmp, path); err != nil {
		t.Fatal(err)
	}

	if b := next(t, tl); b.Kind != types.BatchReload {
		t.Fatalf("Kind = %q, want reload", b.Kind)
	}
	b := next(t, tl)
	if b.Kind != types.BatchResume {
		t.Fatalf("Kind = %q, want resume", b.Kind)
	}
	if want := []string{"new three", "new two", "new one"}; !slices.Equal(b.Lines, want) {
		t.Errorf("Lines = %v, want %v", b.Lines, want)
	}
}

func TestTailer_Truncated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "battle.log")
	appendFile(t, path, "a\nb\nc\n")

	tl, _ := startTailer(t, path)
	next(t, tl)

	if err := os.Truncate(path, 0); err != nil {
		t.Fatal(err)
	}
	if b := next(t, tl); b.Kind != types.BatchReload {
		t.Fatalf("Kind = %q, want reload", b.Kind)
	}
	if b := next(t, tl); b.Kind != types.BatchResume || len(b.Lines) != 0 {
		t.Fatalf("batch = %+v, want empty resume", b)
	}

	appendFile(t, path, "d\n")
	if b := next(t, tl); b.Kind != types.BatchLines || !slices.Equal(b.Lines, []string{"d"}) {
		t.Errorf("batch = %+v", b)
	}
}

func TestTailer_EOFAfterStop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "battle.log")
	tl, stop := startTailer(t, path)
	next(t, tl)

	stop()

	if _, err := tl.Next(t.Context()); err != io.EOF {
		t.Errorf("Next() after stop = %v, want io.EOF", err)
	}
}
