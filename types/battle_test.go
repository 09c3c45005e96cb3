package types //nolint:revive // types is a valid package name

import (
	"testing"
	"time"
)

func TestLogHash_SameBattle(t *testing.T) {
	stored := LogHash{BattleType: "X", CurrentRound: 3, MaxRound: 10}

	tests := []struct {
		name      string
		candidate LogHash
		want      bool
	}{
		{"later round", LogHash{"X", 5, 10}, true},
		{"same round", LogHash{"X", 3, 10}, true},
		{"other type", LogHash{"Y", 1, 5}, false},
		{"round regressed", LogHash{"X", 1, 10}, false},
		{"other max", LogHash{"X", 5, 12}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.candidate.SameBattle(stored); got != tt.want {
				t.Errorf("SameBattle(%+v, %+v) = %v, want %v", tt.candidate, stored, got, tt.want)
			}
		})
	}
}

func TestSentinelHash(t *testing.T) {
	h := SentinelHash()
	if !h.IsSentinel() {
		t.Fatalf("SentinelHash() = %+v, not sentinel", h)
	}
	if h.BattleType != "" || h.CurrentRound != -1 || h.MaxRound != -1 {
		t.Errorf("SentinelHash() = %+v", h)
	}

	if (LogHash{BattleType: "", CurrentRound: 0, MaxRound: 0}).IsSentinel() {
		t.Error("zero hash must not be treated as sentinel")
	}
}

func TestLogMeta_Duration(t *testing.T) {
	start := time.Date(2026, 2, 7, 12, 0, 0, 0, time.UTC)
	m := LogMeta{Start: start, LastUpdate: start.Add(90 * time.Second)}
	if got := m.Duration(); got != 90*time.Second {
		t.Errorf("Duration() = %v, want 90s", got)
	}

	m.LastUpdate = start.Add(-time.Second)
	if got := m.Duration(); got != 0 {
		t.Errorf("Duration() with clock skew = %v, want 0", got)
	}
}

func TestLogHash_String(t *testing.T) {
	if got := (LogHash{BattleType: "Arena Battle", CurrentRound: 3, MaxRound: 10}).String(); got != "Arena Battle 3/10" {
		t.Errorf("String() = %q", got)
	}
	if got := SentinelHash().String(); got != "-" {
		t.Errorf("sentinel String() = %q", got)
	}
}
