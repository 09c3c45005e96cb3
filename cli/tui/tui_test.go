package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pithecene-io/battlelog/cli/reader"
	"github.com/pithecene-io/battlelog/metrics"
	"github.com/pithecene-io/battlelog/stats"
	"github.com/pithecene-io/battlelog/types"
)

func TestIsTUISupported(t *testing.T) {
	tests := []struct {
		viewType string
		want     bool
	}{
		{ViewInspectBattle, true},
		{ViewInspectLive, true},
		{ViewStatsBattle, true},
		{ViewStatsLive, true},
		{ViewStatsSession, true},

		{"list_battles", false},
		{"parse", false},
		{"version", false},
		{"inspect_run", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.viewType, func(t *testing.T) {
			if got := IsTUISupported(tt.viewType); got != tt.want {
				t.Errorf("IsTUISupported(%q) = %v, want %v", tt.viewType, got, tt.want)
			}
		})
	}
}

func TestRun_UnsupportedViewType(t *testing.T) {
	if err := Run("list_battles", nil); err == nil {
		t.Error("Expected error for unsupported view type")
	}
}

func battle(n int) *reader.InspectBattleResponse {
	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	resp := &reader.InspectBattleResponse{
		ID:         3,
		BattleType: "Arena Battle",
		Start:      start,
		LastUpdate: start.Add(time.Minute),
		Duration:   "1m0s",
		EntryCount: n,
	}
	for i := range n {
		resp.Entries = append(resp.Entries, reader.EntryView{
			Seq: i, Type: "event", Event: "PLAYER_ATTACK", Text: "value=" + strings.Repeat("1", i%3+1),
		})
	}
	return resp
}

func TestRenderInspectStatic(t *testing.T) {
	out := RenderInspectStatic(ViewInspectBattle, battle(3))
	for _, want := range []string{"Battle #3", "Arena Battle", "PLAYER_ATTACK", "1-3 of 3"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	live := battle(0)
	live.Live = true
	live.Hash = &types.LogHash{BattleType: "Arena Battle", CurrentRound: 2, MaxRound: 10}
	out = RenderInspectStatic(ViewInspectLive, live)
	for _, want := range []string{"Live Battle", "2 / 10", "(no entries)"} {
		if !strings.Contains(out, want) {
			t.Errorf("live output missing %q:\n%s", want, out)
		}
	}
}

func TestInspectModel_Scroll(t *testing.T) {
	var m tea.Model = NewInspectModel(ViewInspectBattle, battle(50))
	m, _ = m.Update(tea.WindowSizeMsg{Width: 100, Height: headerLines + 10})

	press := func(k tea.KeyType) {
		m, _ = m.Update(tea.KeyMsg{Type: k})
	}

	press(tea.KeyDown)
	if got := m.(InspectModel).offset; got != 1 {
		t.Errorf("offset after down = %d, want 1", got)
	}
	press(tea.KeyUp)
	press(tea.KeyUp)
	if got := m.(InspectModel).offset; got != 0 {
		t.Errorf("offset clamps at top, got %d", got)
	}
	press(tea.KeyPgDown)
	if got := m.(InspectModel).offset; got != 10 {
		t.Errorf("offset after pgdown = %d, want 10", got)
	}
	press(tea.KeyEnd)
	if got := m.(InspectModel).offset; got != 40 {
		t.Errorf("offset after end = %d, want 40", got)
	}
	press(tea.KeyPgDown)
	if got := m.(InspectModel).offset; got != 40 {
		t.Errorf("offset clamps at bottom, got %d", got)
	}

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil || m.View() != "" {
		t.Error("ctrl+c did not quit")
	}
}

func TestRenderStatsStatic(t *testing.T) {
	sum := &stats.Summary{
		ID:          3,
		BattleType:  "Arena Battle",
		LastRound:   2,
		MaxRound:    10,
		Duration:    "1m30s",
		Entries:     12,
		DamageDealt: 532,
		Healed:      800.5,
		Drops:       []string{"Health Potion"},
		ByEvent:     map[string]int{"ROUND_START": 2, "PLAYER_ATTACK": 1},
		Heal:        []stats.RoundValue{{Round: 2, Value: 800.5}},
		Damage:      []stats.DamageRound{{Round: 1, Dealt: 532}},
	}

	out := RenderStatsStatic(ViewStatsBattle, sum)
	for _, want := range []string{"Battle #3 Statistics", "round 2 / 10", "532", "800.5", "ROUND_START", "Health Potion"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	out = RenderStatsStatic(ViewStatsSession, &metrics.Snapshot{SessionID: "s-1", Source: "tail", LinesReceived: 42})
	for _, want := range []string{"Session Statistics", "s-1", "42"} {
		if !strings.Contains(out, want) {
			t.Errorf("session output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderStatsStatic_WrongData(t *testing.T) {
	out := RenderStatsStatic(ViewStatsLive, "not a summary")
	if !strings.Contains(out, "Invalid data type") {
		t.Errorf("output = %s", out)
	}
}
