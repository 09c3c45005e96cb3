package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/pithecene-io/battlelog/cli/render"
	"github.com/pithecene-io/battlelog/cli/tui"
	"github.com/pithecene-io/battlelog/ipc"
	"github.com/pithecene-io/battlelog/runtime"
	"github.com/pithecene-io/battlelog/stats"
	"github.com/pithecene-io/battlelog/store"
	"github.com/pithecene-io/battlelog/tail"
)

// WatchCommand returns the watch command, the long-running ingestion
// entrypoint.
func WatchCommand() *cli.Command {
	return &cli.Command{
		Name:      "watch",
		Usage:     "Follow a battle log file (or framed batches on stdin) into the store",
		ArgsUsage: "[file]",
		Flags: append(append(HookFlags(),
			&cli.BoolFlag{
				Name:  "stdin",
				Usage: "Read length-prefixed msgpack batches from stdin instead of tailing a file",
			},
			&cli.DurationFlag{
				Name:  "idle-interval",
				Usage: "Re-check the file at least this often (default 1s)",
			},
			&cli.BoolFlag{
				Name:  "teardown",
				Usage: "Archive the live log when the watch stops",
			},
			&cli.BoolFlag{
				Name:  "stats",
				Usage: "Print session statistics when the watch stops",
			},
		), ReadOnlyFlags()...),
		Action: watchAction,
	}
}

func watchAction(c *cli.Context) error {
	file := c.Args().First()
	useStdin := c.Bool("stdin")

	source := "tail"
	if useStdin {
		source = "stdin"
	}
	sess, err := newSession(c, source)
	if err != nil {
		return err
	}
	if file == "" {
		file = sess.cfg.Watch.File
	}
	if !useStdin && file == "" {
		return cli.Exit("watch requires a file argument, watch.file in config, or --stdin", 2)
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := sess.openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	p, err := newPipeline(c, sess, st)
	if err != nil {
		return err
	}
	defer p.close()

	g, gctx := errgroup.WithContext(ctx)

	var src runtime.Source
	if useStdin {
		r := ipc.NewReader(c.App.Reader, sess.logger, sess.collector)
		defer func() { _ = r.Close() }()
		src = r
	} else {
		idle := c.Duration("idle-interval")
		if idle == 0 {
			idle = sess.cfg.Watch.IdleInterval.Duration
		}
		t, err := tail.New(file, tail.WithIdleInterval(idle), tail.WithLogger(sess.logger))
		if err != nil {
			return fmt.Errorf("watch %s: %w", file, err)
		}
		src = t
		g.Go(func() error { return t.Run(gctx) })
	}

	sess.logger.Info("watch started", map[string]any{"file": file, "stdin": useStdin})
	g.Go(func() error { return p.engine.Run(gctx, src) })

	if err := g.Wait(); err != nil && !isStop(err) {
		return fmt.Errorf("watch: %w", err)
	}

	return p.finish(c, sess, c.Bool("teardown"))
}

// pipeline is an engine with its consumers and hooks. The consumers start
// from the stored live log.
type pipeline struct {
	engine *runtime.Engine
	heal   *stats.HealTracker
	damage *stats.DamageTracker
	close  func()
}

func newPipeline(c *cli.Context, sess *session, st *store.Store) (*pipeline, error) {
	hooks, closeHooks, err := sess.hooks(c, st)
	if err != nil {
		return nil, err
	}

	p := &pipeline{
		heal:   stats.NewHealTracker(),
		damage: stats.NewDamageTracker(),
		close:  closeHooks,
	}
	p.engine, err = runtime.NewEngine(runtime.EngineConfig{
		Store:     st,
		Consumers: []runtime.Consumer{p.heal, p.damage},
		Hooks:     hooks,
		Logger:    sess.logger,
		Metrics:   sess.collector,
	})
	if err != nil {
		closeHooks()
		return nil, err
	}
	if _, err := p.engine.Replay(c.Context); err != nil {
		closeHooks()
		return nil, err
	}
	return p, nil
}

// finish optionally archives the live log, logs the session totals and
// renders session statistics when --stats is set.
func (p *pipeline) finish(c *cli.Context, sess *session, teardown bool) error {
	ctx := context.WithoutCancel(c.Context)
	if teardown {
		if _, err := p.engine.Flush(ctx); err != nil {
			return fmt.Errorf("teardown: %w", err)
		}
	}

	snap := sess.collector.Snapshot()
	dealt, taken := p.damage.Totals()
	sess.logger.Info("session ended", map[string]any{
		"lines":            snap.LinesReceived,
		"events":           snap.EventsParsed,
		"parse_failures":   snap.ParseFailures,
		"archives":         snap.ArchivesWritten,
		"current_healed":   p.heal.Total(),
		"current_dealt":    dealt,
		"current_taken":    taken,
		"export_failures":  snap.LodeWriteFailure,
		"publish_failures": snap.PublishFailure,
	})
	_ = sess.logger.Sync()

	if !c.Bool("stats") {
		return nil
	}
	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}
	if c.Bool("tui") {
		return r.RenderTUI(tui.ViewStatsSession, &snap)
	}
	return r.Render(snap)
}

// isStop reports whether err only says the watch was told to stop.
func isStop(err error) bool {
	return errors.Is(err, context.Canceled) || runtime.IsCanceledError(err)
}
