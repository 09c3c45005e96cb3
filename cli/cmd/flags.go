// Package cmd provides CLI commands for the battlelog binary.
package cmd

import (
	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/battlelog/cli/config"
)

// Global flags, accepted before the command name.
var (
	ConfigFlag = &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to config file (default: ./" + config.DefaultPath + " if present)",
		EnvVars: []string{"BATTLELOG_CONFIG"},
	}

	StoreFlag = &cli.StringFlag{
		Name:    "store",
		Usage:   "Store DSN: sqlite://<path>, a bare path, or :memory:",
		EnvVars: []string{"BATTLELOG_STORE"},
	}

	LogLevelFlag = &cli.StringFlag{
		Name:  "log-level",
		Usage: "Log level: debug, info, warn, error",
	}
)

// Shared flags for read-only commands.
var (
	// FormatFlag selects output format: json, table, yaml.
	FormatFlag = &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: json, table, yaml",
	}

	// NoColorFlag disables colored output.
	NoColorFlag = &cli.BoolFlag{
		Name:  "no-color",
		Usage: "Disable colored output",
	}

	// TUIFlag enables Bubble Tea interactive mode.
	// Only valid for inspect and stats commands.
	TUIFlag = &cli.BoolFlag{
		Name:  "tui",
		Usage: "Enable interactive TUI mode (inspect, stats only)",
	}
)

// GlobalFlags returns the flags shared by every command.
func GlobalFlags() []cli.Flag {
	return []cli.Flag{
		ConfigFlag,
		StoreFlag,
		LogLevelFlag,
	}
}

// ReadOnlyFlags returns the shared flags for all read-only commands.
// Includes --tui so that unsupported commands can provide explicit error messages
// instead of generic "flag not defined" errors.
func ReadOnlyFlags() []cli.Flag {
	return []cli.Flag{
		FormatFlag,
		NoColorFlag,
		TUIFlag,
	}
}

// HookFlags override the export and adapter sections of the config for
// commands that can archive battles.
func HookFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "export-backend",
			Usage: "Export archived battles to a Lode dataset: fs or s3",
		},
		&cli.StringFlag{
			Name:  "export-path",
			Usage: "Export location (fs: directory, s3: bucket/prefix)",
		},
		&cli.StringFlag{
			Name:  "adapter",
			Usage: "Notify on archive: webhook or redis",
		},
		&cli.StringFlag{
			Name:  "adapter-url",
			Usage: "Webhook endpoint or redis URL",
		},
		&cli.BoolFlag{
			Name:  "no-hooks",
			Usage: "Disable export and notification for this invocation",
		},
	}
}
