package types //nolint:revive // types is a valid package name

import "testing"

func attackEvent(value float64) *HvEvent {
	return &HvEvent{
		Name: "PLAYER_ATTACK",
		Fields: map[string]any{
			"spell":           "Ripened Soul",
			"multiplier_type": "hits",
			"monster":         "a name 123 +",
			"damage_type":     nil,
			"value":           value,
		},
	}
}

func TestLogEntry_Equal(t *testing.T) {
	tests := []struct {
		name string
		a, b LogEntry
		want bool
	}{
		{"identical events", EventEntry(attackEvent(10201)), EventEntry(attackEvent(10201)), true},
		{"different value", EventEntry(attackEvent(10201)), EventEntry(attackEvent(10200)), false},
		{"identical failures", FailureEntry("No matching parser for x"), FailureEntry("No matching parser for x"), true},
		{"different failures", FailureEntry("a"), FailureEntry("b"), false},
		{"event vs failure", EventEntry(attackEvent(1)), FailureEntry(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Equal(tt.b); got != tt.want {
				t.Errorf("Equal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHvEvent_Equal_NullVersusMissing(t *testing.T) {
	a := attackEvent(5)
	b := attackEvent(5)
	delete(b.Fields, "damage_type")

	if a.Equal(b) {
		t.Error("event with null field must differ from event missing the field")
	}
}

func TestHvEvent_Equal_DecodedIntegers(t *testing.T) {
	a := attackEvent(42)
	b := attackEvent(42)
	b.Fields["value"] = int64(42)

	if !a.Equal(b) {
		t.Error("numbers decoded as integers should compare by value")
	}
}

func TestHvEvent_Accessors(t *testing.T) {
	ev := attackEvent(10201)

	if s, ok := ev.Str("spell"); !ok || s != "Ripened Soul" {
		t.Errorf("Str(spell) = %q, %v", s, ok)
	}
	if n, ok := ev.Num("value"); !ok || n != 10201 {
		t.Errorf("Num(value) = %v, %v", n, ok)
	}
	if _, ok := ev.Num("spell"); ok {
		t.Error("Num(spell) should fail on a string field")
	}
	if !ev.IsNull("damage_type") {
		t.Error("IsNull(damage_type) = false, want true")
	}
	if ev.IsNull("unknown") {
		t.Error("IsNull(unknown) = true, want false")
	}

	var nilEvent *HvEvent
	if nilEvent.Is("PLAYER_ATTACK") {
		t.Error("nil event should not match any name")
	}
}

func TestSchemaTerm_CopySemantics(t *testing.T) {
	base := NumberTerm()
	opt := base.Optional()

	if base.IsOptional() {
		t.Error("Optional() mutated the receiver")
	}
	if !opt.IsOptional() {
		t.Error("Optional() result is not optional")
	}
	if opt.Required().IsOptional() {
		t.Error("Required() result is optional")
	}
	if opt.Type() != FieldNumber {
		t.Errorf("Type() = %v, want number", opt.Type())
	}
	if got := opt.String(); got != "number?" {
		t.Errorf("String() = %q, want number?", got)
	}
}
