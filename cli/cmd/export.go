package cmd

import (
	"fmt"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/battlelog/cli/render"
	"github.com/pithecene-io/battlelog/lode"
)

// ExportCommand returns the export command.
func ExportCommand() *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "Export an archived battle to the configured Lode dataset",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			FormatFlag,
			NoColorFlag,
			&cli.StringFlag{
				Name:  "export-backend",
				Usage: "Dataset backend: fs or s3",
			},
			&cli.StringFlag{
				Name:  "export-path",
				Usage: "Dataset location (fs: directory, s3: bucket/prefix)",
			},
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Write a new snapshot even if the battle was already exported",
			},
			&cli.BoolFlag{
				Name:  "prune",
				Usage: "Delete the battle from the local store after a successful export",
			},
			&cli.BoolFlag{
				Name:  "show",
				Usage: "Print the exported records instead of writing",
			},
		},
		Action: exportAction,
	}
}

func exportAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("export requires exactly one archive id", 2)
	}
	id, err := strconv.ParseInt(c.Args().First(), 10, 64)
	if err != nil || id <= 0 {
		return cli.Exit(fmt.Sprintf("invalid archive id %q", c.Args().First()), 2)
	}
	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}

	sess, err := newSession(c, "cli")
	if err != nil {
		return err
	}
	ec := exportConfig(c, sess.cfg)
	if ec.Backend == "" {
		return cli.Exit("no export backend: set export.backend in config or pass --export-backend", 2)
	}
	ctx := c.Context
	ds, err := sess.openDataset(ctx, ec)
	if err != nil {
		return fmt.Errorf("open export dataset: %w", err)
	}

	if c.Bool("show") {
		records, err := lode.ReadExport(ctx, ds, id)
		if err != nil {
			return fmt.Errorf("read export: %w", err)
		}
		return r.Render(records)
	}

	if !c.Bool("force") {
		done, err := lode.Exported(ctx, ds, id)
		if err != nil {
			return fmt.Errorf("check export: %w", err)
		}
		if done {
			return cli.Exit(fmt.Sprintf("battle %d is already exported (use --force to write again)", id), 1)
		}
	}

	st, err := sess.openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	cl, err := st.GetArchive(ctx, id)
	if err != nil {
		return notFound(err, battleRef{id: id})
	}

	exp := lode.NewExporter(ds, st,
		lode.WithLogger(sess.logger),
		lode.WithCollector(sess.collector),
		lode.WithSessionID(sess.id),
	)
	res, err := exp.Export(ctx, cl)
	if err != nil {
		return err
	}
	if c.Bool("prune") {
		if err := st.DeleteArchive(ctx, id); err != nil {
			return fmt.Errorf("prune battle %d: %w", id, err)
		}
		sess.logger.Info("battle pruned", map[string]any{"archive_id": id})
	}
	return r.Render(res)
}
