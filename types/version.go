package types

// Version is the canonical project version, reported by the CLI and
// stamped on exported archives and notifications.
const Version = "0.3.0"

// RecordVersion is the version of the exported record and notification
// shapes. It moves in lockstep with Version.
const RecordVersion = Version
