// Package stats aggregates ingested events into per-round series and
// whole-battle summaries.
//
// The trackers are runtime.Consumer implementations fed live by the engine;
// Summarize replays a stored log through the same trackers.
package stats

import (
	"sort"
	"sync"

	"github.com/pithecene-io/battlelog/parser"
	"github.com/pithecene-io/battlelog/runtime"
	"github.com/pithecene-io/battlelog/types"
)

// healthType is the restore type that counts as healing.
const healthType = "health"

// RoundValue is one round's total.
type RoundValue struct {
	Round int     `json:"round" yaml:"round"`
	Value float64 `json:"value" yaml:"value"`
}

// series is a per-round running total. Rounds below 1 (events seen before
// any round start) accumulate in round 0.
type series map[int]float64

func (s series) add(round int, v float64) {
	if round < 1 {
		round = 0
	}
	s[round] += v
}

func (s series) sorted() []RoundValue {
	out := make([]RoundValue, 0, len(s))
	for r, v := range s {
		out = append(out, RoundValue{Round: r, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Round < out[j].Round })
	return out
}

func (s series) total() float64 {
	var t float64
	for _, v := range s {
		t += v
	}
	return t
}

// HealAmount returns the hit points an event restored, or false if it is
// not a heal. Spirit shield absorption is damage avoided, not healing.
func HealAmount(ev *types.HvEvent) (float64, bool) {
	switch ev.Name {
	case parser.RiddleRestore:
		return ev.Num(parser.FieldHP)
	case parser.ItemRestore, parser.EffectRestore:
		if t, _ := ev.Str(parser.FieldType); t != healthType {
			return 0, false
		}
		return ev.Num(parser.FieldValue)
	case parser.CureRestore:
		return ev.Num(parser.FieldValue)
	default:
		return 0, false
	}
}

// DamageDealt returns the damage a player attack did, or false.
func DamageDealt(ev *types.HvEvent) (float64, bool) {
	if ev.Is(parser.PlayerAttack) {
		return ev.Num(parser.FieldValue)
	}
	return 0, false
}

// DamageTaken returns the damage an enemy attack did to the player, or false.
func DamageTaken(ev *types.HvEvent) (float64, bool) {
	if ev.Is(parser.EnemyBasic) || ev.Is(parser.EnemySkillSuccess) {
		return ev.Num(parser.FieldValue)
	}
	return 0, false
}

// HealTracker sums healing per round for the battle in progress.
// It resets when the battle ends. Safe for concurrent reads.
type HealTracker struct {
	mu     sync.Mutex
	rounds series
}

var _ runtime.Consumer = (*HealTracker)(nil)

// NewHealTracker returns an empty tracker.
func NewHealTracker() *HealTracker {
	return &HealTracker{rounds: series{}}
}

// Append implements runtime.Consumer.
func (h *HealTracker) Append(ev *types.HvEvent, round int) {
	v, ok := HealAmount(ev)
	if !ok {
		return
	}
	h.mu.Lock()
	h.rounds.add(round, v)
	h.mu.Unlock()
}

// BoundaryCrossed implements runtime.Consumer.
func (h *HealTracker) BoundaryCrossed(runtime.ArchiveRef) { h.reset() }

// Cleared implements runtime.Consumer.
func (h *HealTracker) Cleared() { h.reset() }

func (h *HealTracker) reset() {
	h.mu.Lock()
	h.rounds = series{}
	h.mu.Unlock()
}

// Rounds returns healing per round, ascending.
func (h *HealTracker) Rounds() []RoundValue {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.rounds.sorted()
}

// Total returns healing across all rounds.
func (h *HealTracker) Total() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.rounds.total()
}

// DamageRound is one round's damage totals.
type DamageRound struct {
	Round int     `json:"round" yaml:"round"`
	Dealt float64 `json:"dealt" yaml:"dealt"`
	Taken float64 `json:"taken" yaml:"taken"`
}

// DamageTracker sums damage dealt and taken per round for the battle in
// progress. Safe for concurrent reads.
type DamageTracker struct {
	mu    sync.Mutex
	dealt series
	taken series
}

var _ runtime.Consumer = (*DamageTracker)(nil)

// NewDamageTracker returns an empty tracker.
func NewDamageTracker() *DamageTracker {
	return &DamageTracker{dealt: series{}, taken: series{}}
}

// Append implements runtime.Consumer.
func (d *DamageTracker) Append(ev *types.HvEvent, round int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if v, ok := DamageDealt(ev); ok {
		d.dealt.add(round, v)
	}
	if v, ok := DamageTaken(ev); ok {
		d.taken.add(round, v)
	}
}

// BoundaryCrossed implements runtime.Consumer.
func (d *DamageTracker) BoundaryCrossed(runtime.ArchiveRef) { d.reset() }

// Cleared implements runtime.Consumer.
func (d *DamageTracker) Cleared() { d.reset() }

func (d *DamageTracker) reset() {
	d.mu.Lock()
	d.dealt = series{}
	d.taken = series{}
	d.mu.Unlock()
}

// Rounds returns damage per round, ascending. A round appears if anything
// was dealt or taken in it.
func (d *DamageTracker) Rounds() []DamageRound {
	d.mu.Lock()
	defer d.mu.Unlock()

	byRound := make(map[int]*DamageRound)
	get := func(r int) *DamageRound {
		if dr, ok := byRound[r]; ok {
			return dr
		}
		dr := &DamageRound{Round: r}
		byRound[r] = dr
		return dr
	}
	for r, v := range d.dealt {
		get(r).Dealt = v
	}
	for r, v := range d.taken {
		get(r).Taken = v
	}

	out := make([]DamageRound, 0, len(byRound))
	for _, dr := range byRound {
		out = append(out, *dr)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Round < out[j].Round })
	return out
}

// Totals returns damage dealt and taken across all rounds.
func (d *DamageTracker) Totals() (dealt, taken float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dealt.total(), d.taken.total()
}
