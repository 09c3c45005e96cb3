package types

// EntryKind discriminates LogEntry variants.
type EntryKind string

// Entry kinds. Values are persisted; do not renumber or rename.
const (
	EntryEvent   EntryKind = "event"
	EntryFailure EntryKind = "error"
)

// LogEntry is one classified line of the live log.
//
// Exactly one of Event (for EntryEvent) or Detail (for EntryFailure) is set.
// Lines that fail classification are still recorded so the live sequence has
// no gaps.
type LogEntry struct {
	// Kind is the variant discriminator.
	Kind EntryKind `msgpack:"type" json:"type"`
	// Event is the parsed event for EntryEvent.
	Event *HvEvent `msgpack:"event,omitempty" json:"event,omitempty"`
	// Detail is the diagnostic for EntryFailure.
	Detail string `msgpack:"detail,omitempty" json:"detail,omitempty"`
}

// EventEntry wraps a parsed event.
func EventEntry(ev *HvEvent) LogEntry {
	return LogEntry{Kind: EntryEvent, Event: ev}
}

// FailureEntry records a line that could not be classified.
func FailureEntry(detail string) LogEntry {
	return LogEntry{Kind: EntryFailure, Detail: detail}
}

// IsEvent reports whether the entry carries a parsed event.
func (e LogEntry) IsEvent() bool {
	return e.Kind == EntryEvent && e.Event != nil
}

// Equal reports full structural equality.
func (e LogEntry) Equal(other LogEntry) bool {
	if e.Kind != other.Kind || e.Detail != other.Detail {
		return false
	}
	return e.Event.Equal(other.Event)
}
