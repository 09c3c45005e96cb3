package types

import "fmt"

// FieldType is the primitive type a captured field is coerced into.
type FieldType uint8

// Field type constants.
const (
	FieldString FieldType = iota + 1
	FieldNumber
	FieldBoolean
)

// String returns the lowercase type name.
func (t FieldType) String() string {
	switch t {
	case FieldString:
		return "string"
	case FieldNumber:
		return "number"
	case FieldBoolean:
		return "boolean"
	default:
		return fmt.Sprintf("FieldType(%d)", uint8(t))
	}
}

// Presence states whether a field must be captured.
type Presence uint8

// Presence constants. Required is the zero value.
const (
	Required Presence = iota
	Optional
)

// SchemaTerm declares the type and presence of one event field.
//
// Terms are values: Optional and Required return a modified copy and never
// change the receiver, so a term shared between declarations stays stable.
type SchemaTerm struct {
	typ      FieldType
	presence Presence
}

// StringTerm returns a required string term.
func StringTerm() SchemaTerm { return SchemaTerm{typ: FieldString} }

// NumberTerm returns a required number term.
func NumberTerm() SchemaTerm { return SchemaTerm{typ: FieldNumber} }

// BooleanTerm returns a required boolean term.
func BooleanTerm() SchemaTerm { return SchemaTerm{typ: FieldBoolean} }

// Optional returns a copy of t that tolerates a missing capture.
func (t SchemaTerm) Optional() SchemaTerm {
	t.presence = Optional
	return t
}

// Required returns a copy of t that rejects a missing capture.
func (t SchemaTerm) Required() SchemaTerm {
	t.presence = Required
	return t
}

// Type returns the declared field type.
func (t SchemaTerm) Type() FieldType { return t.typ }

// Presence returns the declared presence.
func (t SchemaTerm) Presence() Presence { return t.presence }

// IsOptional reports whether the term tolerates a missing capture.
func (t SchemaTerm) IsOptional() bool { return t.presence == Optional }

func (t SchemaTerm) String() string {
	if t.IsOptional() {
		return t.typ.String() + "?"
	}
	return t.typ.String()
}
