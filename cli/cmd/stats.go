package cmd

import (
	"context"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/battlelog/cli/reader"
	"github.com/pithecene-io/battlelog/cli/render"
	"github.com/pithecene-io/battlelog/cli/tui"
	"github.com/pithecene-io/battlelog/stats"
)

// StatsCommand returns the stats command with subcommands.
// Stats returns aggregated, derived facts.
func StatsCommand() *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Show aggregated battle statistics",
		Subcommands: []*cli.Command{
			{
				Name:      "battle",
				Usage:     "Summarize an archived battle, or the live log",
				ArgsUsage: "<id>|live",
				Flags: append(ReadOnlyFlags(),
					&cli.BoolFlag{
						Name:  "events",
						Usage: "Show the per-event breakdown instead of the summary",
					},
				),
				Action: statsBattleAction,
			},
		},
	}
}

func statsBattleAction(c *cli.Context) error {
	ref, err := parseBattleRef(c)
	if err != nil {
		return err
	}
	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}

	return withReader(c, func(ctx context.Context, rd reader.Reader) error {
		var (
			sum  *stats.Summary
			view = tui.ViewStatsBattle
		)
		if ref.live {
			sum, err = rd.StatsLive(ctx)
			view = tui.ViewStatsLive
		} else {
			sum, err = rd.StatsBattle(ctx, ref.id)
		}
		if err != nil {
			return notFound(err, ref)
		}

		if c.Bool("tui") {
			return r.RenderTUI(view, sum)
		}
		if c.Bool("events") {
			return r.Render(sum.Breakdown())
		}
		return r.Render(sum)
	})
}
