package parser

import (
	"sort"
	"strings"
	"sync"

	"github.com/pithecene-io/battlelog/types"
)

// Registry classifies lines against an ordered set of parsers.
// The order is fixed at construction; a Registry is safe for concurrent use.
type Registry struct {
	parsers []*EventParser
}

// NewRegistry orders parsers by descending expected frequency.
// Ties keep their argument order.
func NewRegistry(parsers ...*EventParser) *Registry {
	return NewRegistryWithFrequency(Frequency, parsers...)
}

// NewRegistryWithFrequency orders parsers by descending freq(name).
func NewRegistryWithFrequency(freq func(string) int, parsers ...*EventParser) *Registry {
	ordered := make([]*EventParser, len(parsers))
	copy(ordered, parsers)
	sort.SliceStable(ordered, func(i, j int) bool {
		return freq(ordered[i].Name()) > freq(ordered[j].Name())
	})
	return &Registry{parsers: ordered}
}

var defaultRegistry = sync.OnceValue(func() *Registry {
	return NewRegistry(Catalog()...)
})

// Default returns the registry over the full catalog.
func Default() *Registry {
	return defaultRegistry()
}

// Names returns parser names in scan order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.parsers))
	for i, p := range r.parsers {
		names[i] = p.Name()
	}
	return names
}

// Len returns the number of parsers.
func (r *Registry) Len() int { return len(r.parsers) }

// Classify returns the event from the first parser that matches and coerces.
// Coercion failures from earlier parsers are returned alongside; they are
// informational when an event is returned.
func (r *Registry) Classify(line string) (*types.HvEvent, []*CoercionError) {
	var errs []*CoercionError
	for _, p := range r.parsers {
		res := p.Parse(line)
		switch res.Kind {
		case Matched:
			return res.Event, errs
		case MismatchedType:
			errs = append(errs, res.Err)
		}
	}
	return nil, errs
}

// Entry classifies line into a log entry. Unclassified lines become failure
// entries carrying the joined coercion diagnostics, or a no-match detail.
func (r *Registry) Entry(line string) types.LogEntry {
	e, _ := r.EntryDiag(line)
	return e
}

// EntryDiag is Entry plus every coercion diagnostic seen while scanning,
// including those from parsers skipped before a later match.
func (r *Registry) EntryDiag(line string) (types.LogEntry, []*CoercionError) {
	ev, errs := r.Classify(line)
	if ev != nil {
		return types.EventEntry(ev), errs
	}
	if len(errs) == 0 {
		return types.FailureEntry((&NoMatchError{Line: line}).Error()), nil
	}
	details := make([]string, len(errs))
	for i, err := range errs {
		details[i] = err.Error()
	}
	return types.FailureEntry(strings.Join(details, "\n")), errs
}

// Entries classifies lines in order.
func (r *Registry) Entries(lines []string) []types.LogEntry {
	out := make([]types.LogEntry, len(lines))
	for i, line := range lines {
		out[i] = r.Entry(line)
	}
	return out
}

// Outcome is one parser's result for a line.
type Outcome struct {
	Parser string
	Result Result
}

// Evaluate applies every parser to line without stopping at the first match.
// Classification never needs this; it exists to check catalog exclusivity.
func (r *Registry) Evaluate(line string) []Outcome {
	out := make([]Outcome, len(r.parsers))
	for i, p := range r.parsers {
		out[i] = Outcome{Parser: p.Name(), Result: p.Parse(line)}
	}
	return out
}

// Matches returns the names of every parser that fully matches line.
func (r *Registry) Matches(line string) []string {
	var names []string
	for _, o := range r.Evaluate(line) {
		if o.Result.Kind == Matched {
			names = append(names, o.Parser)
		}
	}
	return names
}
