package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/battlelog/cli/reader"
	"github.com/pithecene-io/battlelog/cli/render"
	"github.com/pithecene-io/battlelog/cli/tui"
	"github.com/pithecene-io/battlelog/store"
)

// InspectCommand returns the inspect command with subcommands.
func InspectCommand() *cli.Command {
	return &cli.Command{
		Name:  "inspect",
		Usage: "Inspect a battle and its entries",
		Subcommands: []*cli.Command{
			{
				Name:      "battle",
				Usage:     "Inspect an archived battle, or the live log",
				ArgsUsage: "<id>|live",
				Flags:     ReadOnlyFlags(),
				Action:    inspectBattleAction,
			},
		},
	}
}

func inspectBattleAction(c *cli.Context) error {
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
			resp *reader.InspectBattleResponse
			view = tui.ViewInspectBattle
		)
		if ref.live {
			resp, err = rd.InspectLive(ctx)
			view = tui.ViewInspectLive
		} else {
			resp, err = rd.InspectBattle(ctx, ref.id)
		}
		if err != nil {
			return notFound(err, ref)
		}

		if c.Bool("tui") {
			return r.RenderTUI(view, resp)
		}
		return r.Render(resp)
	})
}

// notFound turns a missing archive into a plain exit message.
func notFound(err error, ref battleRef) error {
	if errors.Is(err, store.ErrArchiveNotFound) {
		return cli.Exit(fmt.Sprintf("battle %d not found", ref.id), 1)
	}
	return err
}
