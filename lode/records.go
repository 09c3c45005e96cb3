package lode

import (
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/pithecene-io/battlelog/stats"
	"github.com/pithecene-io/battlelog/types"
)

// Record kinds, also the last partition key.
const (
	RecordKindBattle = "battle"
	RecordKindEntry  = "entry"
)

// unknownBattleType partitions logs that never saw a round start.
const unknownBattleType = "unknown"

var partitionKeys = []string{"battle_type", "day", "archive_id", "record_kind"}

// partition holds the hive keys shared by every record of one export.
type partition struct {
	battleType string
	day        string
	archiveID  string
}

func partitionFor(log *types.CompleteLog, sum stats.Summary) partition {
	return partition{
		battleType: partitionValue(sum.BattleType),
		day:        log.Meta.Start.UTC().Format(time.DateOnly),
		archiveID:  strconv.FormatInt(log.ID, 10),
	}
}

func (p partition) apply(m map[string]any, kind string) map[string]any {
	m["record_kind"] = kind
	m["battle_type"] = p.battleType
	m["day"] = p.day
	m["archive_id"] = p.archiveID
	return m
}

// partitionValue turns a battle name into a path-safe partition value:
// "Arena Battle" becomes "arena_battle".
func partitionValue(s string) string {
	var b strings.Builder
	underscore := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			underscore = false
			continue
		}
		if !underscore && b.Len() > 0 {
			b.WriteByte('_')
			underscore = true
		}
	}
	out := strings.TrimSuffix(b.String(), "_")
	if out == "" {
		return unknownBattleType
	}
	return out
}

// battleRecord is the one-per-export summary row.
func battleRecord(p partition, sum stats.Summary, sessionID string, exportedAt time.Time) map[string]any {
	return p.apply(map[string]any{
		"name":           sum.BattleType,
		"session_id":     sessionID,
		"exported_at":    exportedAt.UTC().Format(time.RFC3339Nano),
		"start":          sum.Start.UTC().Format(time.RFC3339Nano),
		"last_update":    sum.LastUpdate.UTC().Format(time.RFC3339Nano),
		"duration":       sum.Duration,
		"entry_count":    sum.Entries,
		"event_count":    sum.Events,
		"parse_failures": sum.ParseFailures,
		"rounds_seen":    sum.RoundsSeen,
		"last_round":     sum.LastRound,
		"max_round":      sum.MaxRound,
		"kills":          sum.Kills,
		"damage_dealt":   sum.DamageDealt,
		"damage_taken":   sum.DamageTaken,
		"healed":         sum.Healed,
		"experience":     sum.Experience,
		"credits":        sum.Credits,
		"drops":          sum.Drops,
		"by_event":       sum.ByEvent,
	}, RecordKindBattle)
}

// entryRecord is one log entry in original order.
func entryRecord(p partition, seq int, e types.LogEntry) map[string]any {
	m := map[string]any{
		"seq":  seq,
		"type": string(e.Kind),
	}
	if e.IsEvent() {
		m["event_type"] = e.Event.Name
		m["fields"] = e.Event.Fields
	} else {
		m["detail"] = e.Detail
	}
	return p.apply(m, RecordKindEntry)
}
