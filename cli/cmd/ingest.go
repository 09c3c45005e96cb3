package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/battlelog/cli/render"
	"github.com/pithecene-io/battlelog/runtime"
	"github.com/pithecene-io/battlelog/types"
)

// defaultBatchSize is the number of lines per replayed batch.
const defaultBatchSize = 500

// maxLineSize bounds a single log line. Longer lines are cut to this size
// and end up as failure entries.
const maxLineSize = 1024 * 1024

// IngestResponse summarizes one replay.
type IngestResponse struct {
	File           string `json:"file" yaml:"file"`
	Lines          int    `json:"lines" yaml:"lines"`
	Oversized      int    `json:"oversized" yaml:"oversized"`
	Batches        int    `json:"batches" yaml:"batches"`
	Events         int64  `json:"events" yaml:"events"`
	ParseFailures  int64  `json:"parse_failures" yaml:"parse_failures"`
	CoercionErrors int64  `json:"coercion_errors" yaml:"coercion_errors"`
	Archives       int64  `json:"archives" yaml:"archives"`
	Duplicates     int64  `json:"duplicates" yaml:"duplicates"`
}

// IngestCommand returns the ingest command.
func IngestCommand() *cli.Command {
	return &cli.Command{
		Name:      "ingest",
		Usage:     "Replay a chronological battle log file into the store",
		ArgsUsage: "<file|->",
		Flags: append(append(HookFlags(),
			&cli.IntFlag{
				Name:  "batch-size",
				Usage: "Lines per batch",
				Value: defaultBatchSize,
			},
			&cli.BoolFlag{
				Name:  "resume",
				Usage: "Treat the file as one host window so lines already stored are not repeated",
			},
			&cli.BoolFlag{
				Name:  "teardown",
				Usage: "Archive the live log after the replay",
			},
			&cli.BoolFlag{
				Name:  "stats",
				Usage: "Print session statistics instead of the ingest summary",
			},
		), ReadOnlyFlags()...),
		Action: ingestAction,
	}
}

func ingestAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("ingest requires exactly one file argument (use - for stdin)", 2)
	}
	path := c.Args().First()

	size := c.Int("batch-size")
	if size <= 0 {
		return cli.Exit(fmt.Sprintf("--batch-size must be positive, got %d", size), 2)
	}

	var in io.Reader = c.App.Reader
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open %s: %w", path, err)
		}
		defer func() { _ = f.Close() }()
		in = f
	}
	lines, oversized, err := readLines(in)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	sess, err := newSession(c, "file")
	if err != nil {
		return err
	}
	st, err := sess.openStore(c.Context)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	p, err := newPipeline(c, sess, st)
	if err != nil {
		return err
	}
	defer p.close()

	batches := toBatches(lines, size, c.Bool("resume"))
	if err := p.engine.Run(c.Context, runtime.NewSliceSource(batches...)); err != nil {
		return fmt.Errorf("ingest: %w", err)
	}

	if err := p.finish(c, sess, c.Bool("teardown")); err != nil {
		return err
	}
	if c.Bool("stats") {
		return nil
	}

	snap := sess.collector.Snapshot()
	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}
	if c.Bool("tui") {
		return cli.Exit("--tui is only supported with --stats for ingest", 1)
	}
	return r.Render(IngestResponse{
		File:           path,
		Lines:          len(lines),
		Oversized:      oversized,
		Batches:        len(batches),
		Events:         snap.EventsParsed,
		ParseFailures:  snap.ParseFailures,
		CoercionErrors: snap.CoercionErrors,
		Archives:       snap.ArchivesWritten,
		Duplicates:     snap.DuplicateBatches,
	})
}

// readLines returns the non-blank lines of r in order, and how many of them
// were cut to maxLineSize.
func readLines(r io.Reader) ([]string, int, error) {
	br := bufio.NewReader(r)

	var lines []string
	oversized := 0
	for {
		line, err := br.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, 0, err
		}
		line = strings.TrimRight(line, "\r\n")
		if len(line) > maxLineSize {
			line = strings.ToValidUTF8(line[:maxLineSize], "")
			oversized++
		}
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
		if err != nil {
			return lines, oversized, nil
		}
	}
}

// toBatches splits chronological lines into engine batches. In resume mode
// the whole file is one newest-first window.
func toBatches(lines []string, size int, resume bool) []types.Batch {
	if resume {
		window := slices.Clone(lines)
		slices.Reverse(window)
		return []types.Batch{{Kind: types.BatchResume, Lines: window}}
	}

	var out []types.Batch
	for chunk := range slices.Chunk(lines, size) {
		out = append(out, types.Batch{Kind: types.BatchLines, Lines: chunk})
	}
	return out
}
