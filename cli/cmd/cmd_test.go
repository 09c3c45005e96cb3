package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/battlelog/cli/reader"
	"github.com/pithecene-io/battlelog/ipc"
	"github.com/pithecene-io/battlelog/metrics"
	"github.com/pithecene-io/battlelog/stats"
	"github.com/pithecene-io/battlelog/types"
)

const twoBattles = `Initializing Arena Battle (Round 1 / 10) ...
Shield Bash crits Skeleton Archer for 532 crushing damage.

Initializing Grindfest (Round 1 / 1000) ...
You gain 10 EXP!
`

// harness runs the app in-process against one store file.
type harness struct {
	t     *testing.T
	store string
	dir   string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	return &harness{t: t, dir: dir, store: "sqlite://" + filepath.Join(dir, "battlelog.db")}
}

// run executes args and returns stdout and the command error.
func (h *harness) run(stdin io.Reader, args ...string) (string, error) {
	h.t.Helper()
	var out bytes.Buffer
	app := NewApp("test")
	app.Writer = &out
	app.ErrWriter = io.Discard
	app.ExitErrHandler = func(*cli.Context, error) {}
	if stdin != nil {
		app.Reader = stdin
	}

	full := append([]string{"battlelog", "--store", h.store, "--config", h.config()}, args...)
	err := app.RunContext(h.t.Context(), full)
	return out.String(), err
}

// config writes an empty config so a stray battlelog.yaml in the working
// directory is never read.
func (h *harness) config() string {
	path := filepath.Join(h.dir, "battlelog.yaml")
	if _, err := os.Stat(path); err != nil {
		if err := os.WriteFile(path, nil, 0o600); err != nil {
			h.t.Fatal(err)
		}
	}
	return path
}

func (h *harness) mustRun(stdin io.Reader, args ...string) string {
	h.t.Helper()
	out, err := h.run(stdin, args...)
	if err != nil {
		h.t.Fatalf("%v: error = %v", args, err)
	}
	return out
}

func (h *harness) ingest() {
	h.t.Helper()
	path := filepath.Join(h.dir, "combat.log")
	if err := os.WriteFile(path, []byte(twoBattles), 0o600); err != nil {
		h.t.Fatal(err)
	}
	h.mustRun(nil, "ingest", "--format", "json", path)
}

func decode[T any](t *testing.T, out string) T {
	t.Helper()
	var v T
	if err := json.Unmarshal([]byte(out), &v); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	return v
}

func exitCode(err error) int {
	var ec cli.ExitCoder
	if errors.As(err, &ec) {
		return ec.ExitCode()
	}
	return -1
}

func TestIngest(t *testing.T) {
	h := newHarness(t)
	path := filepath.Join(h.dir, "combat.log")
	if err := os.WriteFile(path, []byte(twoBattles), 0o600); err != nil {
		t.Fatal(err)
	}

	resp := decode[IngestResponse](t, h.mustRun(nil, "ingest", "--format", "json", "--batch-size", "3", path))
	if resp.Lines != 4 || resp.Batches != 2 || resp.Archives != 1 || resp.Events != 4 {
		t.Errorf("ingest = %+v", resp)
	}

	// Resume mode replays the same window without duplicating it.
	resp = decode[IngestResponse](t, h.mustRun(nil, "ingest", "--format", "json", "--resume", path))
	if resp.Batches != 1 || resp.Archives != 0 {
		t.Errorf("resume ingest = %+v", resp)
	}
	live := decode[reader.InspectBattleResponse](t, h.mustRun(nil, "inspect", "battle", "--format", "json", "live"))
	if live.EntryCount != 2 {
		t.Errorf("live entries after resume = %d, want 2", live.EntryCount)
	}
}

func TestIngest_Stdin(t *testing.T) {
	h := newHarness(t)
	resp := decode[IngestResponse](t, h.mustRun(strings.NewReader(twoBattles), "ingest", "--format", "json", "-"))
	if resp.File != "-" || resp.Lines != 4 {
		t.Errorf("ingest = %+v", resp)
	}
}

func TestIngest_OversizedLineIsRecorded(t *testing.T) {
	h := newHarness(t)
	huge := strings.Repeat("x", maxLineSize+10)
	in := "You gain 10 EXP!\n" + huge + "\nYou gain 20 EXP!\n"

	resp := decode[IngestResponse](t, h.mustRun(strings.NewReader(in), "ingest", "--format", "json", "-"))
	if resp.Lines != 3 || resp.Oversized != 1 || resp.ParseFailures != 1 || resp.Events != 2 {
		t.Errorf("ingest = %+v", resp)
	}
}

func TestReadLines(t *testing.T) {
	in := "first\r\n\n   \nsecond\n" + strings.Repeat("y", maxLineSize+1) + "\nlast without newline"
	lines, oversized, err := readLines(strings.NewReader(in))
	if err != nil {
		t.Fatalf("readLines() error = %v", err)
	}
	if oversized != 1 || len(lines) != 4 {
		t.Fatalf("readLines() = %d lines, %d oversized", len(lines), oversized)
	}
	if lines[0] != "first" || lines[1] != "second" || len(lines[2]) != maxLineSize || lines[3] != "last without newline" {
		t.Errorf("readLines() = %q, %q, len %d, %q", lines[0], lines[1], len(lines[2]), lines[3])
	}
}

func TestIngest_Usage(t *testing.T) {
	h := newHarness(t)
	tests := []struct {
		name string
		args []string
	}{
		{"no file", []string{"ingest"}},
		{"bad batch size", []string{"ingest", "--batch-size", "0", "x.log"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.run(nil, tt.args...)
			if exitCode(err) != 2 {
				t.Errorf("error = %v, want exit 2", err)
			}
		})
	}
}

func TestListInspectStats(t *testing.T) {
	h := newHarness(t)
	h.ingest()

	items := decode[[]reader.ListBattleItem](t, h.mustRun(nil, "list", "battles", "--format", "json"))
	if len(items) != 1 || items[0].BattleType != "Arena Battle" || items[0].Entries != 2 {
		t.Fatalf("list battles = %+v", items)
	}
	id := items[0].ID

	battle := decode[reader.InspectBattleResponse](t, h.mustRun(nil, "inspect", "battle", "--format", "json", "1"))
	if battle.ID != id || battle.Live || len(battle.Entries) != 2 {
		t.Errorf("inspect battle = %+v", battle)
	}

	live := decode[reader.InspectBattleResponse](t, h.mustRun(nil, "inspect", "battle", "--format", "json", "live"))
	if !live.Live || live.BattleType != "Grindfest" || live.Hash == nil || live.Hash.MaxRound != 1000 {
		t.Errorf("inspect live = %+v", live)
	}

	sum := decode[stats.Summary](t, h.mustRun(nil, "stats", "battle", "--format", "json", "1"))
	if sum.DamageDealt != 532 || sum.BattleType != "Arena Battle" {
		t.Errorf("stats battle = %+v", sum)
	}

	events := decode[[]stats.EventCount](t, h.mustRun(nil, "stats", "battle", "--format", "json", "--events", "live"))
	if len(events) != 2 {
		t.Errorf("stats live --events = %+v", events)
	}
}

func TestInspect_Errors(t *testing.T) {
	h := newHarness(t)
	tests := []struct {
		name string
		args []string
		code int
	}{
		{"missing", []string{"inspect", "battle", "42"}, 1},
		{"bad id", []string{"inspect", "battle", "abc"}, 2},
		{"zero id", []string{"stats", "battle", "0"}, 2},
		{"no arg", []string{"stats", "battle"}, 2},
		{"list tui", []string{"list", "battles", "--tui"}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.run(nil, tt.args...)
			if got := exitCode(err); got != tt.code {
				t.Errorf("exit = %d (%v), want %d", got, err, tt.code)
			}
		})
	}
}

func TestFlushAndClear(t *testing.T) {
	h := newHarness(t)
	h.ingest()

	flushed := decode[FlushResponse](t, h.mustRun(nil, "flush", "--format", "json"))
	if !flushed.Archived || flushed.EntryCount != 2 {
		t.Errorf("flush = %+v", flushed)
	}
	flushed = decode[FlushResponse](t, h.mustRun(nil, "flush", "--format", "json"))
	if flushed.Archived {
		t.Errorf("second flush = %+v, want nothing archived", flushed)
	}

	h.ingest()
	if _, err := h.run(nil, "clear"); exitCode(err) != 1 {
		t.Errorf("clear without --yes: %v", err)
	}
	cleared := decode[ClearResponse](t, h.mustRun(nil, "clear", "--yes", "--format", "json"))
	if cleared.Discarded != 2 {
		t.Errorf("clear = %+v", cleared)
	}

	items := decode[[]reader.ListBattleItem](t, h.mustRun(nil, "list", "battles", "--format", "json"))
	if len(items) != 3 {
		t.Errorf("archives = %d, want 3", len(items))
	}
}

func TestParse(t *testing.T) {
	h := newHarness(t)
	out := h.mustRun(nil, "parse", "--format", "json", "You gain 10 EXP!", "gibberish")
	results := decode[[]ParseResult](t, out)
	if len(results) != 2 {
		t.Fatalf("parse = %+v", results)
	}
	if results[0].Event != "EXPERIENCE" || len(results[0].Matches) != 1 || results[0].Fields["value"] != 10.0 {
		t.Errorf("results[0] = %+v", results[0])
	}
	if results[1].Event != "" || len(results[1].Matches) != 0 || len(results[1].Errors) != 1 {
		t.Errorf("results[1] = %+v", results[1])
	}

	out = h.mustRun(nil, "parse", "--format", "json", "--ambiguous", "You gain 10 EXP!")
	if got := decode[[]ParseResult](t, out); len(got) != 0 {
		t.Errorf("--ambiguous kept an unambiguous line: %+v", got)
	}
}

func TestExport(t *testing.T) {
	h := newHarness(t)
	h.ingest()
	dest := filepath.Join(h.dir, "export")
	if err := os.MkdirAll(dest, 0o755); err != nil {
		t.Fatal(err)
	}
	flags := []string{"--format", "json", "--export-backend", "fs", "--export-path", dest}

	args := append(append([]string{"export"}, flags...), "1")
	res := decode[map[string]any](t, h.mustRun(nil, args...))
	if res["battle_type"] != "Arena Battle" || res["partition"] != "arena_battle" || res["records"] != 3.0 {
		t.Errorf("export = %v", res)
	}

	if _, err := h.run(nil, args...); exitCode(err) != 1 {
		t.Errorf("second export without --force: %v", err)
	}
	forced := append(append([]string{"export", "--force"}, flags...), "1")
	h.mustRun(nil, forced...)

	show := append(append([]string{"export", "--show"}, flags...), "1")
	records := decode[[]map[string]any](t, h.mustRun(nil, show...))
	if len(records) != 3 || records[0]["record_kind"] != "battle" {
		t.Errorf("export --show = %v", records)
	}

	if _, err := h.run(nil, "export", "1"); exitCode(err) != 2 {
		t.Errorf("export without backend: %v", err)
	}

	pruned := append(append([]string{"export", "--force", "--prune"}, flags...), "1")
	h.mustRun(nil, pruned...)
	if _, err := h.run(nil, "inspect", "battle", "1"); exitCode(err) != 1 {
		t.Errorf("inspect after prune: %v", err)
	}
}

func TestWatch_Stdin(t *testing.T) {
	h := newHarness(t)

	var frames bytes.Buffer
	w := ipc.NewWriter(&frames)
	batches := []types.Batch{
		{Kind: types.BatchResume, Lines: []string{"Initializing Arena Battle (Round 1 / 10) ..."}},
		{Kind: types.BatchLines, Lines: []string{"You gain 10 EXP!"}},
		{Kind: types.BatchTeardown},
	}
	for _, b := range batches {
		if err := w.Write(b); err != nil {
			t.Fatal(err)
		}
	}

	out := h.mustRun(&frames, "watch", "--stdin", "--stats", "--format", "json")
	snap := decode[metrics.Snapshot](t, out)
	if snap.LinesReceived != 2 || snap.ArchivesWritten != 1 || snap.Source != "stdin" {
		t.Errorf("session = %+v", snap)
	}

	items := decode[[]reader.ListBattleItem](t, h.mustRun(nil, "list", "battles", "--format", "json"))
	if len(items) != 1 || items[0].Entries != 2 {
		t.Errorf("list battles = %+v", items)
	}
}

func TestWatch_RequiresSource(t *testing.T) {
	h := newHarness(t)
	if _, err := h.run(nil, "watch"); exitCode(err) != 2 {
		t.Errorf("watch without file: %v", err)
	}
}

func TestVersion(t *testing.T) {
	h := newHarness(t)
	v := decode[VersionResponse](t, h.mustRun(nil, "version", "--format", "json"))
	if v.Version != types.Version || v.Commit != "test" {
		t.Errorf("version = %+v", v)
	}
}

func TestToBatches(t *testing.T) {
	lines := []string{"a", "b", "c", "d", "e"}

	got := toBatches(lines, 2, false)
	if len(got) != 3 || got[2].Kind != types.BatchLines || len(got[2].Lines) != 1 {
		t.Errorf("toBatches(2) = %+v", got)
	}

	got = toBatches(lines, 2, true)
	if len(got) != 1 || got[0].Kind != types.BatchResume || got[0].Lines[0] != "e" || lines[0] != "a" {
		t.Errorf("toBatches(resume) = %+v", got)
	}
}

func TestReadOnlyFlags_IncludesTUI(t *testing.T) {
	hasTUI := false
	for _, f := range ReadOnlyFlags() {
		if f.Names()[0] == "tui" {
			hasTUI = true
			break
		}
	}
	if !hasTUI {
		t.Error("ReadOnlyFlags should include --tui flag for explicit error handling")
	}
}
