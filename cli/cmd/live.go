package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/battlelog/cli/render"
)

// FlushResponse reports the archive written by flush.
type FlushResponse struct {
	Archived   bool  `json:"archived" yaml:"archived"`
	ArchiveID  int64 `json:"archive_id,omitempty" yaml:"archive_id,omitempty"`
	EntryCount int   `json:"entry_count" yaml:"entry_count"`
}

// ClearResponse reports what clear discarded.
type ClearResponse struct {
	Discarded int `json:"discarded" yaml:"discarded"`
}

// FlushCommand returns the flush command.
func FlushCommand() *cli.Command {
	return &cli.Command{
		Name:   "flush",
		Usage:  "Archive the live log and reset it",
		Flags:  append(HookFlags(), FormatFlag, NoColorFlag),
		Action: flushAction,
	}
}

func flushAction(c *cli.Context) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}
	sess, err := newSession(c, "cli")
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

	ref, err := p.engine.Flush(c.Context)
	if err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	return r.Render(FlushResponse{
		Archived:   ref.Archived,
		ArchiveID:  ref.ID,
		EntryCount: ref.EntryCount,
	})
}

// ClearCommand returns the clear command.
func ClearCommand() *cli.Command {
	return &cli.Command{
		Name:  "clear",
		Usage: "Discard the live log without archiving it",
		Flags: []cli.Flag{
			FormatFlag,
			NoColorFlag,
			&cli.BoolFlag{
				Name:  "yes",
				Usage: "Confirm discarding the live log",
			},
		},
		Action: clearAction,
	}
}

func clearAction(c *cli.Context) error {
	if !c.Bool("yes") {
		return cli.Exit("clear discards the live log; pass --yes to confirm", 1)
	}
	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}
	sess, err := newSession(c, "cli")
	if err != nil {
		return err
	}
	st, err := sess.openStore(c.Context)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	n, err := st.LiveCount(c.Context)
	if err != nil {
		return fmt.Errorf("clear: %w", err)
	}

	p, err := newPipeline(c, sess, st)
	if err != nil {
		return err
	}
	defer p.close()

	if err := p.engine.Clear(c.Context); err != nil {
		return fmt.Errorf("clear: %w", err)
	}
	return r.Render(ClearResponse{Discarded: n})
}
