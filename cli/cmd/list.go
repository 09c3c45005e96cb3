package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/battlelog/cli/reader"
	"github.com/pithecene-io/battlelog/cli/render"
)

// listWarningThreshold is the number of items above which we warn about using --limit.
const listWarningThreshold = 100

// isStderrTTY returns true if stderr is a TTY.
func isStderrTTY() bool {
	info, err := os.Stderr.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}

// openReader opens the store read-side for a query command.
func openReader(c *cli.Context) (reader.Reader, func(), error) {
	sess, err := newSession(c, "cli")
	if err != nil {
		return nil, nil, err
	}
	st, err := sess.openStore(c.Context)
	if err != nil {
		return nil, nil, err
	}
	return reader.NewStoreReader(st), func() { _ = st.Close() }, nil
}

// battleRef is a parsed `<id>|live` argument.
type battleRef struct {
	live bool
	id   int64
}

func parseBattleRef(c *cli.Context) (battleRef, error) {
	if c.NArg() != 1 {
		return battleRef{}, cli.Exit("expected exactly one argument: <id> or live", 2)
	}
	arg := c.Args().First()
	if arg == "live" {
		return battleRef{live: true}, nil
	}
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return battleRef{}, cli.Exit(fmt.Sprintf("invalid battle id %q (want a positive integer or live)", arg), 2)
	}
	return battleRef{id: id}, nil
}

// withReader runs fn against an open reader.
func withReader(c *cli.Context, fn func(ctx context.Context, rd reader.Reader) error) error {
	rd, closeFn, err := openReader(c)
	if err != nil {
		return err
	}
	defer closeFn()
	return fn(c.Context, rd)
}

// ListCommand returns the list command with subcommands.
// List returns thin rows, not inspect-level detail.
func ListCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List archived entities",
		Subcommands: []*cli.Command{
			listBattlesCommand(),
		},
	}
}

func listBattlesCommand() *cli.Command {
	return &cli.Command{
		Name:  "battles",
		Usage: "List archived battles, newest first",
		Flags: append(ReadOnlyFlags(),
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of battles to return (0 = no limit)",
				Value: 0,
			},
		),
		Action: listBattlesAction,
	}
}

func listBattlesAction(c *cli.Context) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}

	// TUI not supported for list commands
	if c.Bool("tui") {
		return cli.Exit("--tui is not supported for list commands", 1)
	}

	opts := reader.ListBattlesOptions{Limit: c.Int("limit")}

	return withReader(c, func(ctx context.Context, rd reader.Reader) error {
		results, err := rd.ListBattles(ctx, opts)
		if err != nil {
			return err
		}

		// Warn if output is large and --limit was not specified (TTY only to avoid noise in pipelines)
		if len(results) > listWarningThreshold && opts.Limit == 0 && isStderrTTY() {
			fmt.Fprintf(os.Stderr, "Warning: returning %d results. Consider using --limit to reduce output.\n\n", len(results))
		}

		return r.Render(results)
	})
}
