package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/battlelog/cli/render"
	"github.com/pithecene-io/battlelog/parser"
)

// ParseResult is the classification of one line.
type ParseResult struct {
	Line    string         `json:"line" yaml:"line"`
	Event   string         `json:"event" yaml:"event"`
	Fields  map[string]any `json:"fields,omitempty" yaml:"fields,omitempty"`
	Matches []string       `json:"matches" yaml:"matches"`
	Errors  []string       `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// ParseCommand returns the parse command. It never touches the store.
func ParseCommand() *cli.Command {
	return &cli.Command{
		Name:      "parse",
		Usage:     "Classify lines and show every parser that matches them",
		ArgsUsage: "[line...]",
		Flags: []cli.Flag{
			FormatFlag,
			NoColorFlag,
			&cli.BoolFlag{
				Name:  "ambiguous",
				Usage: "Only show lines matched by more than one parser",
			},
		},
		Action: parseAction,
	}
}

func parseAction(c *cli.Context) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}

	lines := c.Args().Slice()
	if len(lines) == 0 {
		if lines, _, err = readLines(c.App.Reader); err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
	}

	reg := parser.Default()
	results := make([]ParseResult, 0, len(lines))
	for _, line := range lines {
		res := classifyLine(reg, line)
		if c.Bool("ambiguous") && len(res.Matches) < 2 {
			continue
		}
		results = append(results, res)
	}
	return r.Render(results)
}

func classifyLine(reg *parser.Registry, line string) ParseResult {
	res := ParseResult{Line: line, Matches: reg.Matches(line)}
	if res.Matches == nil {
		res.Matches = []string{}
	}

	ev, errs := reg.Classify(line)
	if ev != nil {
		res.Event = ev.Name
		res.Fields = ev.Fields
	}
	for _, e := range errs {
		res.Errors = append(res.Errors, e.Error())
	}
	if ev == nil && len(errs) == 0 {
		res.Errors = []string{(&parser.NoMatchError{Line: line}).Error()}
	}
	return res
}
