package types

// HvEvent is a typed event produced by a successful parse.
//
// Field values are string, float64 or bool as declared by the parser schema.
// An optional field whose capture was absent holds nil.
type HvEvent struct {
	// Name is the event shape name (e.g. "PLAYER_ATTACK").
	Name string `msgpack:"event_type" json:"event_type"`
	// Fields maps field names to coerced values.
	Fields map[string]any `msgpack:"fields" json:"fields"`
}

// Str returns the string field name, or false if absent, null or not a string.
func (e *HvEvent) Str(name string) (string, bool) {
	if e == nil {
		return "", false
	}
	s, ok := e.Fields[name].(string)
	return s, ok
}

// Num returns the number field name, or false if absent, null or not a number.
func (e *HvEvent) Num(name string) (float64, bool) {
	if e == nil {
		return 0, false
	}
	n, ok := e.Fields[name].(float64)
	return n, ok
}

// Flag returns the boolean field name, or false if absent, null or not a boolean.
func (e *HvEvent) Flag(name string) (value, ok bool) {
	if e == nil {
		return false, false
	}
	value, ok = e.Fields[name].(bool)
	return value, ok
}

// IsNull reports whether name is declared on the event but holds no value.
func (e *HvEvent) IsNull(name string) bool {
	if e == nil {
		return false
	}
	v, present := e.Fields[name]
	return present && v == nil
}

// Is reports whether the event has the given shape name.
func (e *HvEvent) Is(name string) bool {
	return e != nil && e.Name == name
}

// Equal reports field-for-field equality.
func (e *HvEvent) Equal(other *HvEvent) bool {
	if e == nil || other == nil {
		return e == other
	}
	if e.Name != other.Name || len(e.Fields) != len(other.Fields) {
		return false
	}
	for k, v := range e.Fields {
		ov, ok := other.Fields[k]
		if !ok || !scalarEqual(v, ov) {
			return false
		}
	}
	return true
}

// scalarEqual compares two field values. Decoded numbers may arrive as any
// numeric kind, so numbers compare by float64 value.
func scalarEqual(a, b any) bool {
	if af, ok := toFloat(a); ok {
		bf, ok := toFloat(b)
		return ok && af == bf
	}
	switch av := a.(type) {
	case nil:
		return b == nil
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	default:
		return false
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}
