package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/battlelog/types"
)

// NewApp assembles the battlelog command tree. The caller sets the exit
// handler.
func NewApp(commit string) *cli.App {
	return &cli.App{
		Name:    "battlelog",
		Usage:   "Record, archive and summarize combat log battles",
		Version: fmt.Sprintf("%s (commit: %s)", types.Version, commit),
		Flags:   GlobalFlags(),
		Commands: []*cli.Command{
			WatchCommand(),
			IngestCommand(),
			FlushCommand(),
			ClearCommand(),
			ParseCommand(),
			ListCommand(),
			InspectCommand(),
			StatsCommand(),
			ExportCommand(),
			VersionCommand(commit),
		},
	}
}
