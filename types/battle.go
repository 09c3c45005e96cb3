package types

import (
	"fmt"
	"time"
)

// LogHash identifies the battle currently being recorded.
// It exists only to detect battle boundaries and is never archived.
type LogHash struct {
	// BattleType is the reported battle name (e.g. "Arena Battle").
	BattleType string `msgpack:"battle_type" json:"battle_type"`
	// CurrentRound is the round reported by the latest round start.
	CurrentRound int `msgpack:"current_round" json:"current_round"`
	// MaxRound is the number of rounds in the battle.
	MaxRound int `msgpack:"max_round" json:"max_round"`
}

// SentinelHash returns the "no battle tracked yet" hash.
func SentinelHash() LogHash {
	return LogHash{BattleType: "", CurrentRound: -1, MaxRound: -1}
}

// IsSentinel reports whether h is the uninitialized hash.
func (h LogHash) IsSentinel() bool {
	return h.BattleType == "" && h.CurrentRound == -1 && h.MaxRound == -1
}

// String formats h as "Arena Battle 3/10", or "-" for the sentinel.
func (h LogHash) String() string {
	if h.IsSentinel() {
		return "-"
	}
	return fmt.Sprintf("%s %d/%d", h.BattleType, h.CurrentRound, h.MaxRound)
}

// SameBattle reports whether h continues the battle described by prev:
// same type, same round count, and a round that did not go backwards.
func (h LogHash) SameBattle(prev LogHash) bool {
	return h.BattleType == prev.BattleType &&
		h.MaxRound == prev.MaxRound &&
		h.CurrentRound >= prev.CurrentRound
}

// LogMeta is the wall-clock span of a live log.
type LogMeta struct {
	// Start is set once when the live log is created or reset.
	Start time.Time `msgpack:"start" json:"start"`
	// LastUpdate is refreshed on every append.
	LastUpdate time.Time `msgpack:"last_update" json:"last_update"`
}

// Duration returns the span between Start and LastUpdate.
func (m LogMeta) Duration() time.Duration {
	if m.LastUpdate.Before(m.Start) {
		return 0
	}
	return m.LastUpdate.Sub(m.Start)
}

// CompleteLog is an archived battle. Immutable once written.
type CompleteLog struct {
	// ID is the archive record id, assigned by the store.
	ID int64 `msgpack:"id" json:"id"`
	// Meta is the live log span at archive time.
	Meta LogMeta `msgpack:"meta" json:"meta"`
	// Entries is the live sequence in original order.
	Entries []LogEntry `msgpack:"entries" json:"entries"`
}

// ArchiveSummary is the list-level view of an archive record.
type ArchiveSummary struct {
	ID         int64     `json:"id"`
	Start      time.Time `json:"start"`
	LastUpdate time.Time `json:"last_update"`
	EntryCount int       `json:"entry_count"`
}
