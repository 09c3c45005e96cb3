package main

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/urfave/cli/v2"
)

func TestExitErrHandler_NilError(t *testing.T) {
	exitErrHandler(nil, nil)
}

func TestReport(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantOut  string
	}{
		{
			name:     "exit code 0 no message",
			err:      cli.Exit("", 0),
			wantCode: 0,
		},
		{
			name:     "not found",
			err:      cli.Exit("battle 3 not found", 1),
			wantCode: 1,
			wantOut:  "battle 3 not found\n",
		},
		{
			name:     "usage",
			err:      cli.Exit("invalid battle id \"x\"", 2),
			wantCode: 2,
			wantOut:  "invalid battle id \"x\"\n",
		},
		{
			name:     "wrapped exit coder",
			err:      fmt.Errorf("config: %w", cli.Exit("bad config", 2)),
			wantCode: 2,
			wantOut:  "bad config\n",
		},
		{
			name:     "plain error",
			err:      errors.New("disk full"),
			wantCode: 1,
			wantOut:  "Error: disk full\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if got := report(&buf, tt.err); got != tt.wantCode {
				t.Errorf("report() = %d, want %d", got, tt.wantCode)
			}
			if buf.String() != tt.wantOut {
				t.Errorf("output = %q, want %q", buf.String(), tt.wantOut)
			}
		})
	}
}
