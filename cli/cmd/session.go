package cmd

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	lodelib "github.com/justapithecus/lode/lode"
	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/battlelog/adapter"
	"github.com/pithecene-io/battlelog/adapter/redis"
	"github.com/pithecene-io/battlelog/adapter/webhook"
	"github.com/pithecene-io/battlelog/cli/config"
	"github.com/pithecene-io/battlelog/lode"
	"github.com/pithecene-io/battlelog/log"
	"github.com/pithecene-io/battlelog/metrics"
	"github.com/pithecene-io/battlelog/runtime"
	"github.com/pithecene-io/battlelog/store"
)

// session holds what one invocation resolves from config and flags.
type session struct {
	id        string
	cfg       *config.Config
	dsn       string
	logger    *log.Logger
	collector *metrics.Collector
}

// loadConfig reads --config, or the default path when it exists.
func loadConfig(c *cli.Context) (*config.Config, error) {
	if path := c.String("config"); path != "" {
		return config.Load(path)
	}
	return config.LoadOptional(config.DefaultPath)
}

// newSession resolves config, store DSN and logging for a command.
// source names the line source for log and metric context.
func newSession(c *cli.Context, source string) (*session, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, cli.Exit(err.Error(), 2)
	}

	dsn := firstNonEmpty(c.String("store"), cfg.Store.DSN, store.DefaultDSN)
	id := uuid.NewString()

	logger := log.NewLogger(log.SessionMeta{SessionID: id, Store: dsn, Source: source})
	if w := c.App.ErrWriter; w != nil {
		logger = logger.WithOutput(w)
	}
	logger = logger.WithLevel(log.ParseLevel(firstNonEmpty(c.String("log-level"), cfg.Log.Level, "info")))

	return &session{
		id:        id,
		cfg:       cfg,
		dsn:       dsn,
		logger:    logger,
		collector: metrics.NewCollector(id, source, exportConfig(c, cfg).Backend),
	}, nil
}

func (s *session) openStore(ctx context.Context) (*store.Store, error) {
	st, err := store.Open(ctx, s.dsn)
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", s.dsn, err)
	}
	return st, nil
}

// exportConfig merges the export section with command flags. A command
// without hook flags sees only the config file.
func exportConfig(c *cli.Context, cfg *config.Config) config.ExportConfig {
	out := cfg.Export
	if v := c.String("export-backend"); v != "" {
		out.Backend = v
	}
	if v := c.String("export-path"); v != "" {
		out.Path = v
	}
	return out
}

func adapterConfig(c *cli.Context, cfg *config.Config) config.AdapterConfig {
	out := cfg.Adapter
	if v := c.String("adapter"); v != "" {
		out.Type = v
	}
	if v := c.String("adapter-url"); v != "" {
		out.URL = v
	}
	return out
}

// openDataset opens the configured export dataset.
func (s *session) openDataset(ctx context.Context, ec config.ExportConfig) (lodelib.Dataset, error) {
	return lode.OpenDataset(ctx, lode.Config{
		Dataset:      ec.Dataset,
		Backend:      lode.Backend(ec.Backend),
		Path:         ec.Path,
		Region:       ec.Region,
		Endpoint:     ec.Endpoint,
		UsePathStyle: ec.S3PathStyle,
	})
}

// hooks builds the archive hooks named by config and flags. The returned
// close function releases adapter connections and is never nil.
func (s *session) hooks(c *cli.Context, st *store.Store) ([]runtime.ArchiveHook, func(), error) {
	noop := func() {}
	if c.Bool("no-hooks") {
		return nil, noop, nil
	}

	var hooks []runtime.ArchiveHook

	if ec := exportConfig(c, s.cfg); ec.Backend != "" {
		ds, err := s.openDataset(c.Context, ec)
		if err != nil {
			return nil, noop, fmt.Errorf("open export dataset: %w", err)
		}
		hooks = append(hooks, lode.NewExporter(ds, st,
			lode.WithLogger(s.logger),
			lode.WithCollector(s.collector),
			lode.WithSessionID(s.id),
		))
	}

	ac := adapterConfig(c, s.cfg)
	if ac.Type == "" {
		return hooks, noop, nil
	}
	a, err := newAdapter(ac)
	if err != nil {
		return nil, noop, err
	}
	n := adapter.NewNotifier(a, s.id, s.logger, s.collector)
	hooks = append(hooks, n)

	return hooks, func() {
		if err := n.Close(); err != nil {
			s.logger.Warn("closing adapter failed", map[string]any{"error": err.Error()})
		}
	}, nil
}

func newAdapter(ac config.AdapterConfig) (adapter.Adapter, error) {
	timeout := ac.Timeout.Duration

	switch ac.Type {
	case config.AdapterWebhook:
		retries := webhook.DefaultRetries
		if ac.Retries != nil {
			retries = *ac.Retries
		}
		return webhook.New(webhook.Config{
			URL:     ac.URL,
			Headers: ac.Headers,
			Timeout: timeout,
			Retries: retries,
		})
	case config.AdapterRedis:
		retries := redis.DefaultRetries
		if ac.Retries != nil {
			retries = *ac.Retries
		}
		return redis.New(redis.Config{
			URL:     ac.URL,
			Channel: ac.Channel,
			Timeout: timeout,
			Retries: retries,
		})
	default:
		return nil, fmt.Errorf("adapter must be webhook or redis, got %q", ac.Type)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
