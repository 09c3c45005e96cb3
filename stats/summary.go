package stats

import (
	"sort"
	"time"

	"github.com/pithecene-io/battlelog/parser"
	"github.com/pithecene-io/battlelog/types"
)

// Summary aggregates one battle log.
type Summary struct {
	ID            int64          `json:"id" yaml:"id"`
	BattleType    string         `json:"battle_type" yaml:"battle_type"`
	Start         time.Time      `json:"start" yaml:"start"`
	LastUpdate    time.Time      `json:"last_update" yaml:"last_update"`
	Duration      string         `json:"duration" yaml:"duration"`
	Entries       int            `json:"entries" yaml:"entries"`
	Events        int            `json:"events" yaml:"events"`
	ParseFailures int            `json:"parse_failures" yaml:"parse_failures"`
	RoundsSeen    int            `json:"rounds_seen" yaml:"rounds_seen"`
	LastRound     int            `json:"last_round" yaml:"last_round"`
	MaxRound      int            `json:"max_round" yaml:"max_round"`
	Kills         int            `json:"kills" yaml:"kills"`
	DamageDealt   float64        `json:"damage_dealt" yaml:"damage_dealt"`
	DamageTaken   float64        `json:"damage_taken" yaml:"damage_taken"`
	Healed        float64        `json:"healed" yaml:"healed"`
	Experience    float64        `json:"experience" yaml:"experience"`
	Credits       float64        `json:"credits" yaml:"credits"`
	Drops         []string       `json:"drops" yaml:"drops"`
	ByEvent       map[string]int `json:"by_event" yaml:"by_event"`
	Heal          []RoundValue   `json:"heal_by_round" yaml:"heal_by_round"`
	Damage        []DamageRound  `json:"damage_by_round" yaml:"damage_by_round"`
}

// EventCount is one row of a per-event breakdown.
type EventCount struct {
	Event string `json:"event" yaml:"event"`
	Count int    `json:"count" yaml:"count"`
}

// Breakdown returns ByEvent sorted by descending count, then name.
func (s Summary) Breakdown() []EventCount {
	out := make([]EventCount, 0, len(s.ByEvent))
	for name, n := range s.ByEvent {
		out = append(out, EventCount{Event: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Event < out[j].Event
	})
	return out
}

// Summarize replays a log through fresh trackers and tallies it.
// The battle type and max round come from the first round start.
func Summarize(log *types.CompleteLog) Summary {
	sum := Summary{
		ID:         log.ID,
		Start:      log.Meta.Start,
		LastUpdate: log.Meta.LastUpdate,
		Duration:   log.Meta.Duration().Round(time.Second).String(),
		Entries:    len(log.Entries),
		Drops:      []string{},
		ByEvent:    make(map[string]int),
	}

	heal := NewHealTracker()
	damage := NewDamageTracker()
	round := -1
	rounds := make(map[int]struct{})

	for _, entry := range log.Entries {
		if !entry.IsEvent() {
			sum.ParseFailures++
			continue
		}
		ev := entry.Event
		sum.Events++
		sum.ByEvent[ev.Name]++

		if h, ok := parser.RoundHash(ev); ok {
			if sum.BattleType == "" {
				sum.BattleType = h.BattleType
				sum.MaxRound = h.MaxRound
			}
			round = h.CurrentRound
			rounds[round] = struct{}{}
			sum.LastRound = round
		}

		heal.Append(ev, round)
		damage.Append(ev, round)

		switch ev.Name {
		case parser.Death:
			sum.Kills++
		case parser.Experience:
			v, _ := ev.Num(parser.FieldValue)
			sum.Experience += v
		case parser.Credits, parser.AutoSell:
			v, _ := ev.Num(parser.FieldValue)
			sum.Credits += v
		case parser.Drop:
			if item, ok := ev.Str(parser.FieldItem); ok {
				sum.Drops = append(sum.Drops, item)
			}
		}
	}

	sum.RoundsSeen = len(rounds)
	sum.Healed = heal.Total()
	sum.DamageDealt, sum.DamageTaken = damage.Totals()
	sum.Heal = heal.Rounds()
	sum.Damage = damage.Rounds()
	return sum
}
