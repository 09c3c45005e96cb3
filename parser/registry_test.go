package parser

import (
	"errors"
	"strings"
	"testing"

	"github.com/pithecene-io/battlelog/types"
)

func TestNewRegistry_FrequencyOrder(t *testing.T) {
	r := Default()
	names := r.Names()

	if r.Len() != len(Catalog()) {
		t.Fatalf("Len() = %d, want %d", r.Len(), len(Catalog()))
	}
	if names[0] != Debuff {
		t.Errorf("first parser = %s, want %s", names[0], Debuff)
	}
	for i := 1; i < len(names); i++ {
		if Frequency(names[i-1]) < Frequency(names[i]) {
			t.Errorf("%s (%d) scanned before %s (%d)",
				names[i-1], Frequency(names[i-1]), names[i], Frequency(names[i]))
		}
	}

	// Unlisted shapes sort last.
	last := names[len(names)-1]
	if Frequency(last) != 0 {
		t.Errorf("last parser %s has frequency %d, want 0", last, Frequency(last))
	}
}

func TestNewRegistry_StableTies(t *testing.T) {
	a := MustNew("A", `^a$`, Fields{})
	b := MustNew("B", `^b$`, Fields{})
	c := MustNew("C", `^c$`, Fields{})

	freq := func(name string) int {
		if name == "C" {
			return 10
		}
		return 1
	}
	r := NewRegistryWithFrequency(freq, a, b, c)

	got := strings.Join(r.Names(), ",")
	if got != "C,A,B" {
		t.Errorf("Names() = %s, want C,A,B", got)
	}
}

func TestClassify_FirstMatchWins(t *testing.T) {
	first := MustNew("FIRST", `^hit (?P<n>\d+)$`, Fields{"n": types.NumberTerm()})
	second := MustNew("SECOND", `^hit (?P<n>\d+)$`, Fields{"n": types.StringTerm()})
	r := NewRegistryWithFrequency(func(string) int { return 0 }, first, second)

	ev, errs := r.Classify("hit 5")
	if ev == nil || ev.Name != "FIRST" {
		t.Fatalf("Classify() = %+v, want FIRST", ev)
	}
	if len(errs) != 0 {
		t.Errorf("errs = %v, want none", errs)
	}
}

func TestClassify_CoercionErrorThenMatch(t *testing.T) {
	strict := MustNew("STRICT", `^hit (?P<n>\w+)$`, Fields{"n": types.NumberTerm()})
	loose := MustNew("LOOSE", `^hit (?P<n>\w+)$`, Fields{"n": types.StringTerm()})
	r := NewRegistryWithFrequency(func(string) int { return 0 }, strict, loose)

	ev, errs := r.Classify("hit many")
	if ev == nil || ev.Name != "LOOSE" {
		t.Fatalf("Classify() = %+v, want LOOSE", ev)
	}
	if len(errs) != 1 || errs[0].Parser != "STRICT" {
		t.Errorf("errs = %v, want one STRICT diagnostic", errs)
	}
}

func TestEntry(t *testing.T) {
	strict := MustNew("STRICT", `^hit (?P<n>\w+)$`, Fields{"n": types.NumberTerm()})
	other := MustNew("OTHER", `^hit (?P<n>[a-z]+)$`, Fields{"n": types.NumberTerm()})
	r := NewRegistryWithFrequency(func(string) int { return 0 }, strict, other)

	t.Run("event", func(t *testing.T) {
		e := r.Entry("hit 7")
		if !e.IsEvent() || e.Event.Name != "STRICT" {
			t.Errorf("Entry() = %+v", e)
		}
	})

	t.Run("no match", func(t *testing.T) {
		e := r.Entry("miss")
		if e.Kind != types.EntryFailure || e.Detail != "No matching parser for miss" {
			t.Errorf("Entry() = %+v", e)
		}

		var err error = &NoMatchError{Line: "miss"}
		if !errors.Is(err, ErrNoMatch) || errors.Is(err, ErrCoercion) {
			t.Errorf("NoMatchError does not classify as ErrNoMatch: %v", err)
		}
		if err.Error() != e.Detail {
			t.Errorf("Error() = %q, want the recorded detail %q", err.Error(), e.Detail)
		}
	})

	t.Run("joined coercion errors", func(t *testing.T) {
		e := r.Entry("hit many")
		if e.Kind != types.EntryFailure {
			t.Fatalf("Entry() = %+v, want failure", e)
		}
		lines := strings.Split(e.Detail, "\n")
		if len(lines) != 2 {
			t.Fatalf("Detail has %d lines, want 2: %q", len(lines), e.Detail)
		}
		if !strings.HasPrefix(lines[0], "STRICT") || !strings.HasPrefix(lines[1], "OTHER") {
			t.Errorf("Detail = %q", e.Detail)
		}
	})
}

func TestEntries_PreservesOrder(t *testing.T) {
	lines := []string{"You gain 1 EXP!", "garbage", "You are Victorious!"}
	entries := Default().Entries(lines)

	if len(entries) != 3 {
		t.Fatalf("len = %d, want 3", len(entries))
	}
	if !entries[0].Event.Is(Experience) || entries[1].IsEvent() || !entries[2].Event.Is(RoundEnd) {
		t.Errorf("Entries() = %+v", entries)
	}
}

func TestEvaluate_ReportsEveryParser(t *testing.T) {
	r := Default()
	outcomes := r.Evaluate("Skeleton Archer hits you for 120 piercing damage.")

	if len(outcomes) != r.Len() {
		t.Fatalf("Evaluate() returned %d outcomes, want %d", len(outcomes), r.Len())
	}
	var matched []string
	for _, o := range outcomes {
		if o.Result.Kind == Matched {
			matched = append(matched, o.Parser)
		}
	}
	if len(matched) != 1 || matched[0] != EnemyBasic {
		t.Errorf("matched = %v, want [%s]", matched, EnemyBasic)
	}
}
