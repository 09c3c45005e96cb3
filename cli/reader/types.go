// Package reader provides the read-side data access layer for the battlelog
// CLI.
//
// Read-only commands go through this package instead of touching the store
// or the engine directly.
package reader

import (
	"time"

	"github.com/pithecene-io/battlelog/types"
)

// ListBattlesOptions filters the battle list.
type ListBattlesOptions struct {
	// Limit caps the number of archives returned. Zero means no limit.
	Limit int
}

// ListBattleItem is one row of `list battles`.
type ListBattleItem struct {
	ID         int64     `json:"id" yaml:"id"`
	BattleType string    `json:"battle_type" yaml:"battle_type"`
	Start      time.Time `json:"start" yaml:"start"`
	LastUpdate time.Time `json:"last_update" yaml:"last_update"`
	Duration   string    `json:"duration" yaml:"duration"`
	Entries    int       `json:"entries" yaml:"entries"`
}

// EntryView is a display form of one log entry.
type EntryView struct {
	Seq   int    `json:"seq" yaml:"seq"`
	Type  string `json:"type" yaml:"type"`
	Event string `json:"event,omitempty" yaml:"event,omitempty"`
	Text  string `json:"text" yaml:"text"`
}

// InspectBattleResponse describes one archived battle or the live log.
type InspectBattleResponse struct {
	ID         int64          `json:"id" yaml:"id"`
	Live       bool           `json:"live" yaml:"live"`
	BattleType string         `json:"battle_type" yaml:"battle_type"`
	Start      time.Time      `json:"start" yaml:"start"`
	LastUpdate time.Time      `json:"last_update" yaml:"last_update"`
	Duration   string         `json:"duration" yaml:"duration"`
	EntryCount int            `json:"entry_count" yaml:"entry_count"`
	Hash       *types.LogHash `json:"hash,omitempty" yaml:"hash,omitempty"`
	Entries    []EntryView    `json:"entries" yaml:"entries"`
}
