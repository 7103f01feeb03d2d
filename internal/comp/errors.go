package comp

import "errors"

// Error taxonomy for the display core. All of these are recovered at the
// operation boundary that detects them; none may take the process down.
var (
	// ErrResourceGone indicates the target surface or window died while an
	// operation was in flight. The operation is aborted; unrelated work is
	// unaffected.
	ErrResourceGone = errors.New("resource gone")

	// ErrProtocolViolation indicates a malformed or out-of-sequence request
	// from a client. The request is ignored and logged.
	ErrProtocolViolation = errors.New("protocol violation")

	// ErrSynchronizationFailure indicates GPU fence or sync-point setup
	// failed. Commits degrade to an immediate, unblocked apply instead of
	// being dropped.
	ErrSynchronizationFailure = errors.New("synchronization failure")

	// ErrConfigurationConflict indicates a conflicting configuration entry
	// (duplicate zone name, unknown output reference). The entry is skipped;
	// the rest of the configuration is processed.
	ErrConfigurationConflict = errors.New("configuration conflict")

	// ErrNotAWindow is reported when a focus-target conversion is attempted
	// on a variant that does not wrap a window.
	ErrNotAWindow = errors.New("focus target is not a window")
)
