// Package adapter defines the notification boundary for archived battles.
//
// Adapters publish one event per archived battle to a downstream system.
// The watch command owns adapter lifecycle; users provide configuration only.
package adapter

import (
	"context"
	"time"

	"github.com/pithecene-io/battlelog/runtime"
)

// EventTypeBattleArchived is the event_type of every published event.
const EventTypeBattleArchived = "battle_archived"

// BattleArchivedEvent is the payload published when a battle is archived.
// Times are RFC 3339 in UTC; Timestamp is the publish time.
type BattleArchivedEvent struct {
	EventType  string `json:"event_type"` // always "battle_archived"
	ArchiveID  int64  `json:"archive_id"`
	BattleType string `json:"battle_type"`
	Reason     string `json:"reason"`
	Start      string `json:"start"`
	LastUpdate string `json:"last_update"`
	EntryCount int    `json:"entry_count"`
	Timestamp  string `json:"timestamp"`
	SessionID  string `json:"session_id,omitempty"`
}

// NewBattleArchivedEvent builds the event for ref.
func NewBattleArchivedEvent(ref runtime.ArchiveRef, sessionID string, now time.Time) *BattleArchivedEvent {
	return &BattleArchivedEvent{
		EventType:  EventTypeBattleArchived,
		ArchiveID:  ref.ID,
		BattleType: ref.Previous.BattleType,
		Reason:     string(ref.Reason),
		Start:      ref.Meta.Start.UTC().Format(time.RFC3339Nano),
		LastUpdate: ref.Meta.LastUpdate.UTC().Format(time.RFC3339Nano),
		EntryCount: ref.EntryCount,
		Timestamp:  now.UTC().Format(time.RFC3339Nano),
		SessionID:  sessionID,
	}
}

// Adapter publishes battle archived events to a downstream system.
type Adapter interface {
	// Publish sends one event. Must respect context cancellation and deadlines.
	Publish(ctx context.Context, event *BattleArchivedEvent) error

	// Close releases adapter resources.
	Close() error
}
