package types

// BatchKind discriminates what a line source delivered.
type BatchKind string

// Batch kinds.
const (
	// BatchResume is the full visible window, newest line first.
	BatchResume BatchKind = "resume"
	// BatchLines holds newly appended lines in arrival order.
	BatchLines BatchKind = "lines"
	// BatchReload signals the host view re-rendered its log from scratch.
	BatchReload BatchKind = "reload"
	// BatchTeardown signals the host view was torn down (out of combat).
	BatchTeardown BatchKind = "teardown"
	// BatchPause signals the riddle screen is up and no log is visible.
	BatchPause BatchKind = "pause"
)

// Valid reports whether k is a known batch kind.
func (k BatchKind) Valid() bool {
	switch k {
	case BatchResume, BatchLines, BatchReload, BatchTeardown, BatchPause:
		return true
	default:
		return false
	}
}

// Batch is the unit a line source hands to the engine.
type Batch struct {
	// Kind is the batch discriminator.
	Kind BatchKind `msgpack:"type"`
	// Lines is empty for signal batches.
	Lines []string `msgpack:"lines,omitempty"`
}
