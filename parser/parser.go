// Package parser classifies combat-log lines into typed events.
//
// An EventParser binds an anchored RE2 pattern, a field schema and an event
// name. Parsing yields a tagged Result: Matched, MismatchedType or NoMatch.
// The Registry scans a frequency-ordered catalog of parsers and returns the
// first successful match.
package parser

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"

	"github.com/pithecene-io/battlelog/types"
)

// Fields maps capture-group names to their declared terms.
type Fields map[string]types.SchemaTerm

// ResultKind discriminates Result variants.
type ResultKind uint8

// Result kinds.
const (
	// NoMatch means the pattern did not apply; try the next parser.
	NoMatch ResultKind = iota
	// Matched means every field coerced; Event is set.
	Matched
	// MismatchedType means the pattern matched but a field failed; Err is set.
	MismatchedType
)

func (k ResultKind) String() string {
	switch k {
	case NoMatch:
		return "no_match"
	case Matched:
		return "matched"
	case MismatchedType:
		return "mismatched_type"
	default:
		return fmt.Sprintf("ResultKind(%d)", uint8(k))
	}
}

// Result is the outcome of applying one parser to one line.
type Result struct {
	Kind  ResultKind
	Event *types.HvEvent
	Err   *CoercionError
}

// field is a schema entry resolved to its capture group index.
type field struct {
	name  string
	term  types.SchemaTerm
	group int
}

// reject vetoes a match when the named capture satisfies fn.
type reject struct {
	group int
	field string
	fn    func(string) bool
}

// Option configures an EventParser.
type Option func(*options)

type options struct {
	rejects map[string]func(string) bool
}

// WithReject vetoes a match whose capture for field satisfies fn.
// A vetoed line is reported as NoMatch, standing in for lookahead
// assertions that RE2 does not support.
func WithReject(field string, fn func(string) bool) Option {
	return func(o *options) {
		if o.rejects == nil {
			o.rejects = make(map[string]func(string) bool)
		}
		o.rejects[field] = fn
	}
}

// EventParser converts lines of one shape into typed events.
// It is immutable after construction and safe for concurrent use.
type EventParser struct {
	name    string
	re      *regexp.Regexp
	fields  []field
	rejects []reject
}

// New compiles pattern and binds it to fields.
//
// Every declared field must have a same-named capture group and every named
// group must be declared, so the schema and the pattern cannot drift apart.
func New(name, pattern string, fields Fields, opts ...Option) (*EventParser, error) {
	if name == "" {
		return nil, fmt.Errorf("parser name is required")
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("parser %s: compile pattern: %w", name, err)
	}

	groups := make(map[string]int)
	for i, g := range re.SubexpNames() {
		if g != "" {
			groups[g] = i
		}
	}

	p := &EventParser{name: name, re: re}
	for fname, term := range fields {
		idx, ok := groups[fname]
		if !ok {
			return nil, fmt.Errorf("parser %s: field %q has no capture group", name, fname)
		}
		p.fields = append(p.fields, field{name: fname, term: term, group: idx})
	}
	for g := range groups {
		if _, ok := fields[g]; !ok {
			return nil, fmt.Errorf("parser %s: capture group %q is not declared", name, g)
		}
	}
	// Coerce in pattern order so diagnostics are deterministic.
	sort.Slice(p.fields, func(i, j int) bool { return p.fields[i].group < p.fields[j].group })

	var o options
	for _, opt := range opts {
		opt(&o)
	}
	for fname, fn := range o.rejects {
		idx, ok := groups[fname]
		if !ok {
			return nil, fmt.Errorf("parser %s: reject on unknown field %q", name, fname)
		}
		p.rejects = append(p.rejects, reject{group: idx, field: fname, fn: fn})
	}

	return p, nil
}

// MustNew is like New but panics on error. Used for the static catalog.
func MustNew(name, pattern string, fields Fields, opts ...Option) *EventParser {
	p, err := New(name, pattern, fields, opts...)
	if err != nil {
		panic(err)
	}
	return p
}

// Name returns the event name produced by this parser.
func (p *EventParser) Name() string { return p.name }

// Pattern returns the pattern source.
func (p *EventParser) Pattern() string { return p.re.String() }

// Fields returns a copy of the declared schema.
func (p *EventParser) Fields() Fields {
	out := make(Fields, len(p.fields))
	for _, f := range p.fields {
		out[f.name] = f.term
	}
	return out
}

// Parse applies the parser to line.
func (p *EventParser) Parse(line string) Result {
	idx := p.re.FindStringSubmatchIndex(line)
	if idx == nil {
		return Result{Kind: NoMatch}
	}

	for _, r := range p.rejects {
		if s, ok := capture(line, idx, r.group); ok && r.fn(s) {
			return Result{Kind: NoMatch}
		}
	}

	values := make(map[string]any, len(p.fields))
	for _, f := range p.fields {
		raw, ok := capture(line, idx, f.group)
		if !ok {
			if f.term.IsOptional() {
				values[f.name] = nil
				continue
			}
			return Result{Kind: MismatchedType, Err: p.coercionError(f.name, line, "missing required capture")}
		}

		v, err := coerce(f.term.Type(), raw)
		if err != nil {
			return Result{Kind: MismatchedType, Err: p.coercionError(f.name, line, err.Error())}
		}
		values[f.name] = v
	}

	return Result{
		Kind:  Matched,
		Event: &types.HvEvent{Name: p.name, Fields: values},
	}
}

func (p *EventParser) coercionError(fieldName, line, reason string) *CoercionError {
	return &CoercionError{
		Parser:  p.name,
		Field:   fieldName,
		Pattern: p.re.String(),
		Line:    line,
		Reason:  reason,
	}
}

// capture returns the text of group g, or false if the group did not
// participate in the match.
func capture(line string, idx []int, g int) (string, bool) {
	start, end := idx[2*g], idx[2*g+1]
	if start < 0 {
		return "", false
	}
	return line[start:end], true
}

func coerce(t types.FieldType, raw string) (any, error) {
	switch t {
	case types.FieldString:
		return raw, nil
	case types.FieldNumber:
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsInf(n, 0) || math.IsNaN(n) {
			return nil, fmt.Errorf("not a finite number: %q", raw)
		}
		return n, nil
	case types.FieldBoolean:
		return raw != "", nil
	default:
		return nil, fmt.Errorf("unsupported field type %v", t)
	}
}
